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

package ds

import (
	"fmt"
	"sort"
	"testing"

	"github.com/kylelemons/godebug/pretty"
)

func sortedInts(xs []int) []int {
	out := append([]int{}, xs...)
	sort.Ints(out)
	return out
}

func sortedStrings(xs []string) []string {
	out := append([]string{}, xs...)
	sort.Strings(out)
	return out
}

func TestMapDiff(t *testing.T) {
	base := NewHashMap[string, int]()
	base.Put("a", 1)
	base.Put("b", 2)

	diff := NewMapDiff[string, int](base)
	diff.Put("c", 3)
	diff.Put("a", 10)
	diff.Delete("b")

	if v, ok := diff.Get("a"); !ok || v != 10 {
		t.Errorf("expected overridden value 10, got %d (%t)", v, ok)
	}
	if _, ok := diff.Get("b"); ok {
		t.Errorf("expected b to be deleted")
	}
	if v, ok := base.Get("a"); !ok || v != 1 {
		t.Errorf("underlying map was modified")
	}
	if l := diff.Len(); l != 2 {
		t.Errorf("expected len 2, got %d", l)
	}
	if d := pretty.Compare(sortedStrings(diff.Keys()), []string{"a", "c"}); d != "" {
		t.Errorf("unexpected keys: %s", d)
	}
	if changed := sortedStrings(diff.Changed()); len(changed) != 3 {
		t.Errorf("expected three changed keys, got %v", changed)
	}

	diff.Put("a", 1) // back to the original value
	eq := func(a, b int) bool { return a == b }
	if d := pretty.Compare(sortedStrings(diff.ChangedFunc(eq)), []string{"b", "c"}); d != "" {
		t.Errorf("unexpected changed keys: %s", d)
	}

	diff.Clear()
	if v, _ := diff.Get("b"); v != 2 {
		t.Errorf("clear should restore the underlying view")
	}
	if len(diff.Changed()) != 0 {
		t.Errorf("expected no changes after clear")
	}

	diff.Put("d", 4)
	diff.Delete("a")
	diff.Commit()
	if _, ok := base.Get("a"); ok {
		t.Errorf("commit should have deleted a")
	}
	if v, ok := base.Get("d"); !ok || v != 4 {
		t.Errorf("commit should have added d")
	}
	if len(diff.Changed()) != 0 {
		t.Errorf("expected no changes after commit")
	}
}

func TestMapDiffNested(t *testing.T) {
	base := NewHashMap[int, string]()
	base.Put(1, "one")
	mid := NewMapDiff[int, string](base)
	mid.Put(2, "two")
	top := NewMapDiff[int, string](mid)
	top.Delete(1)
	top.Put(3, "three")

	if d := pretty.Compare(sortedInts(top.Keys()), []int{2, 3}); d != "" {
		t.Errorf("unexpected keys: %s", d)
	}
	top.Commit()
	if d := pretty.Compare(sortedInts(mid.Keys()), []int{2, 3}); d != "" {
		t.Errorf("unexpected keys after commit: %s", d)
	}
	if d := pretty.Compare(sortedInts(base.Keys()), []int{1}); d != "" {
		t.Errorf("base changed early: %s", d)
	}
	mid.Commit()
	if d := pretty.Compare(sortedInts(base.Keys()), []int{2, 3}); d != "" {
		t.Errorf("unexpected base keys: %s", d)
	}
}

func TestSetDiff(t *testing.T) {
	base := NewHashSet[string]()
	base.Insert("x")
	base.Insert("y")

	diff := NewSetDiff[string](base)
	if diff.Insert("x") {
		t.Errorf("x is already present")
	}
	if !diff.Remove("x") || diff.Contains("x") {
		t.Errorf("x should be removed")
	}
	if !diff.Insert("x") || !diff.Contains("x") {
		t.Errorf("x should be back")
	}
	diff.Insert("z")
	diff.Remove("y")
	if s := diff.Size(); s != 2 {
		t.Errorf("expected size 2, got %d", s)
	}
	if d := pretty.Compare(sortedStrings(diff.Slice()), []string{"x", "z"}); d != "" {
		t.Errorf("unexpected elements: %s", d)
	}
	if base.Size() != 2 || !base.Contains("y") {
		t.Errorf("underlying set was modified")
	}
	diff.Commit()
	if d := pretty.Compare(sortedStrings(base.Slice()), []string{"x", "z"}); d != "" {
		t.Errorf("unexpected committed elements: %s", d)
	}
}

func TestIndexedSet(t *testing.T) {
	s := NewIndexedSet("a", "b", "c", "b")
	if s.Len() != 3 {
		t.Errorf("expected duplicates to be dropped")
	}
	s.Remove("a")
	if s.Get(0) != "b" || s.IndexOf("c") != 1 || s.IndexOf("a") != -1 {
		t.Errorf("unexpected order after removal: %v", s.Slice())
	}
	c := s.Copy()
	c.Add("d")
	if s.Contains("d") {
		t.Errorf("copy is not independent")
	}
}

func TestMultiMapDiff(t *testing.T) {
	type test struct { // an individual test
		name string
		ops  func(m MultiMap[string, int])
		key  string
		exp  []int
		chg  []string
	}
	testCases := []test{}

	{
		testCases = append(testCases, test{
			name: "no changes",
			ops:  func(m MultiMap[string, int]) {},
			key:  "k",
			exp:  []int{1, 2},
			chg:  []string{},
		})
	}
	{
		testCases = append(testCases, test{
			name: "append keeps order",
			ops: func(m MultiMap[string, int]) {
				m.Add("k", 3)
			},
			key: "k",
			exp: []int{1, 2, 3},
			chg: []string{"k"},
		})
	}
	{
		testCases = append(testCases, test{
			name: "remove then add back is not a change",
			ops: func(m MultiMap[string, int]) {
				m.Remove("k", 1)
				m.Add("k", 1)
			},
			key: "k",
			exp: []int{2, 1},
			chg: []string{},
		})
	}
	{
		testCases = append(testCases, test{
			name: "remove everything",
			ops: func(m MultiMap[string, int]) {
				m.Remove("k", 1)
				m.Remove("k", 2)
			},
			key: "k",
			exp: nil,
			chg: []string{"k"},
		})
	}
	{
		testCases = append(testCases, test{
			name: "new key",
			ops: func(m MultiMap[string, int]) {
				m.Set("n", []int{7, 8})
			},
			key: "n",
			exp: []int{7, 8},
			chg: []string{"n"},
		})
	}

	names := []string{}
	for index, tc := range testCases { // run all the tests
		if tc.name == "" {
			t.Errorf("test #%d: not named", index)
			continue
		}
		if containsString(names, tc.name) {
			t.Errorf("test #%d: duplicate sub test name of: %s", index, tc.name)
			continue
		}
		names = append(names, tc.name)

		t.Run(fmt.Sprintf("test #%d (%s)", index, tc.name), func(t *testing.T) {
			base := NewHashMultiMap[string, int]()
			base.Add("k", 1)
			base.Add("k", 2)
			diff := NewMultiMapDiff[string, int](base)
			tc.ops(diff)

			if d := pretty.Compare(diff.Get(tc.key), tc.exp); d != "" {
				t.Errorf("test #%d: unexpected values: %s", index, d)
			}
			if d := pretty.Compare(sortedStrings(diff.Changed()), tc.chg); d != "" {
				t.Errorf("test #%d: unexpected changed keys: %s", index, d)
			}
			if d := pretty.Compare(base.Get("k"), []int{1, 2}); d != "" {
				t.Errorf("test #%d: underlying multimap was modified: %s", index, d)
			}

			diff.Commit()
			if d := pretty.Compare(base.Get(tc.key), tc.exp); d != "" {
				t.Errorf("test #%d: unexpected committed values: %s", index, d)
			}
		})
	}
}

func containsString(haystack []string, needle string) bool {
	for _, x := range haystack {
		if x == needle {
			return true
		}
	}
	return false
}
