// Blog
// Copyright (C) 2013-2024+ James Shubin and the project contributors
// Written by James Shubin <james@shubin.ca> and the project contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/bayeslog/blog/util/errwrap"

	"github.com/kylelemons/godebug/pretty"
)

var noDistrib = DependencyFunc(func(EvalContext, []Value) (*Distrib, error) { return nil, nil })

func testModel(t *testing.T) (*Model, *Function, *POP) {
	m := New("test")
	ball, err := m.NewType("Ball")
	if err != nil {
		t.Fatalf("could not add type: %+v", err)
	}
	color, err := m.NewType("Color", "Blue", "Green")
	if err != nil {
		t.Fatalf("could not add type: %+v", err)
	}
	f := &Function{Name: "TrueColor", ArgTypes: []*Type{ball}, RetType: color, Dependency: noDistrib}
	if err := m.AddFunction(f); err != nil {
		t.Fatalf("could not add function: %+v", err)
	}
	p := &POP{Type: ball, Dependency: noDistrib}
	if err := m.AddPOP(p); err != nil {
		t.Fatalf("could not add pop: %+v", err)
	}
	return m, f, p
}

func TestArenaIntern(t *testing.T) {
	m, f, p := testModel(t)
	a := m.Arena()
	nv := a.Number(p)
	if nv != a.Number(p) {
		t.Errorf("number var was not interned")
	}
	ngo := a.NGO(nv, 2)
	if ngo != a.NGO(nv, 2) {
		t.Errorf("ngo was not interned")
	}
	if ngo == a.NGO(nv, 1) {
		t.Errorf("distinct ngos were equal")
	}
	v1 := m.FuncApp(f, ngo)
	v2 := m.FuncApp(f, a.NGO(nv, 2))
	if v1 != v2 {
		t.Errorf("func app was not interned")
	}
	if v1.Index() <= nv.Index() {
		t.Errorf("indexes are not in creation order")
	}
	if s := v1.String(); s != "TrueColor((Ball, 2))" {
		t.Errorf("unexpected name: %s", s)
	}
	if s := nv.String(); s != "#Ball" {
		t.Errorf("unexpected name: %s", s)
	}
	if d := v1.Depth(); d != 1 {
		t.Errorf("expected depth 1, got: %d", d)
	}
	id1 := a.NewIdentifier(p.Type)
	id2 := a.NewIdentifier(p.Type)
	if id1 == id2 || id1.N == id2.N {
		t.Errorf("identifiers were not fresh")
	}
	if a.Origin(id1) != a.Origin(id1) {
		t.Errorf("origin var was not interned")
	}
	if !v1.IsBasic() || !nv.IsBasic() || a.Origin(id1).IsBasic() {
		t.Errorf("unexpected basic kinds")
	}
}

func TestArenaValueKeys(t *testing.T) {
	a := NewArena()
	f := &Function{Name: "F", RetType: Boolean, Dependency: noDistrib}
	if a.FuncApp(f, 1) == a.FuncApp(f, 1.0) {
		t.Errorf("int and real arguments must differ")
	}
	if a.FuncApp(f, "1") == a.FuncApp(f, 1) {
		t.Errorf("string and int arguments must differ")
	}
	if a.FuncApp(f, Null) != a.FuncApp(f, Null) {
		t.Errorf("null arguments must be equal")
	}
	if a.Len() != 4 {
		t.Errorf("expected 4 vars, got: %d", a.Len())
	}
}

func TestRange(t *testing.T) {
	m, f, p := testModel(t)
	r, err := f.RetType.Range()
	if err != nil {
		t.Errorf("unexpected error: %+v", err)
		return
	}
	if len(r) != 3 || r[2] != Null {
		t.Errorf("unexpected range: %s", ValuesString(r))
	}
	if r, err := Boolean.Range(); err != nil || len(r) != 2 {
		t.Errorf("unexpected boolean range: %v", r)
	}
	if _, err := p.Type.Range(); err == nil {
		t.Errorf("expected error for a type with a pop")
	}
	if _, err := Integer.Range(); err == nil {
		t.Errorf("expected error for an infinite type")
	}
	if m.TypeOf(true) != Boolean || m.TypeOf(3) != Integer {
		t.Errorf("unexpected builtin type")
	}
	if o := f.RetType.Object("Green"); o == nil || o.Index != 1 {
		t.Errorf("unexpected object lookup")
	}
}

func TestListedTypes(t *testing.T) {
	type test struct { // an individual test
		name string
		list string
		fail bool
		exp  []string
	}
	testCases := []test{}

	{
		testCases = append(testCases, test{
			name: "none",
			list: "none",
			exp:  []string{},
		})
	}
	{
		testCases = append(testCases, test{
			name: "empty",
			list: "",
			exp:  []string{},
		})
	}
	{
		testCases = append(testCases, test{
			name: "all",
			list: "all",
			exp:  []string{"Ball", "Color"},
		})
	}
	{
		testCases = append(testCases, test{
			name: "list",
			list: " Color , Ball,Color",
			exp:  []string{"Ball", "Color"},
		})
	}
	{
		testCases = append(testCases, test{
			name: "unknown",
			list: "Ball,Urn",
			fail: true,
		})
	}

	names := []string{}
	for index, tc := range testCases { // run all the tests
		if tc.name == "" {
			t.Errorf("test #%d: not named", index)
			continue
		}
		if contains(names, tc.name) {
			t.Errorf("test #%d: duplicate sub test name of: %s", index, tc.name)
			continue
		}
		names = append(names, tc.name)

		t.Run(fmt.Sprintf("test #%d (%s)", index, tc.name), func(t *testing.T) {
			m, _, _ := testModel(t)
			types, err := m.ListedTypes(tc.list)
			if tc.fail {
				if err == nil {
					t.Errorf("test #%d: expected error", index)
				} else if !errors.Is(errwrap.Cause(err), ErrUnknownType) {
					t.Errorf("test #%d: unexpected error: %+v", index, err)
				}
				return
			}
			if err != nil {
				t.Errorf("test #%d: unexpected error: %+v", index, err)
				return
			}
			out := []string{}
			for _, x := range types {
				out = append(out, x.Name)
			}
			if diff := pretty.Compare(tc.exp, out); diff != "" {
				t.Errorf("test #%d: types did not match (-exp, +got):\n%s", index, diff)
			}
		})
	}
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
