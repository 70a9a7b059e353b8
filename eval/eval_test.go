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

package eval

import (
	"math"
	"testing"

	"github.com/bayeslog/blog/distrib"
	"github.com/bayeslog/blog/model"
	"github.com/bayeslog/blog/util/errwrap"

	"github.com/kylelemons/godebug/pretty"
	"golang.org/x/exp/rand"
)

// mapWorld is the smallest World which is enough to exercise the contexts.
type mapWorld struct {
	m      *model.Model
	values map[*model.Var]model.Value
}

func newMapWorld(m *model.Model) *mapWorld {
	return &mapWorld{m: m, values: make(map[*model.Var]model.Value)}
}

func (obj *mapWorld) Model() *model.Model { return obj.m }

func (obj *mapWorld) Value(v *model.Var) model.Value { return obj.values[v] }

func (obj *mapWorld) SetValue(v *model.Var, value model.Value) {
	if value == nil {
		delete(obj.values, v)
		return
	}
	obj.values[v] = value
}

func (obj *mapWorld) Satisfiers(nv *model.Var) (model.ObjectSet, error) {
	n, _ := obj.values[nv].(int)
	out := model.ListSet{}
	for i := 1; i <= n; i++ {
		out = append(out, obj.m.Arena().NGO(nv, i))
	}
	return out, nil
}

func (obj *mapWorld) POPAppSatisfied(x model.Value) *model.Var {
	if ngo, ok := x.(*model.NonGuaranteedObject); ok {
		return ngo.Var
	}
	return nil
}

func (obj *mapWorld) AssertIdentifier(*model.Identifier) error { return nil }

func (obj *mapWorld) UsesIdentifiers(*model.Type) bool { return false }

// depends builds a dependency model which reads the parent and hands its
// value to cpd.
func depends(parent func() *model.Var, cpd model.CPD) model.DependencyModel {
	return model.DependencyFunc(func(ctx model.EvalContext, _ []model.Value) (*model.Distrib, error) {
		val, err := ctx.Value(parent())
		if err != nil || val == nil {
			return nil, err
		}
		return &model.Distrib{CPD: cpd, Args: []model.Value{val}}, nil
	})
}

func fixed(cpd model.CPD) model.DependencyModel {
	return model.DependencyFunc(func(model.EvalContext, []model.Value) (*model.Distrib, error) {
		return &model.Distrib{CPD: cpd}, nil
	})
}

// chainModel builds X ~ Bernoulli(0.5) and Y = X.
func chainModel(t *testing.T) (*model.Model, *model.Var, *model.Var) {
	m := model.New("chain")
	var x, y *model.Var
	fx := &model.Function{Name: "X", RetType: model.Boolean, Dependency: fixed(&distrib.Bernoulli{P: 0.5})}
	fy := &model.Function{Name: "Y", RetType: model.Boolean, Dependency: depends(func() *model.Var { return x }, &distrib.Deterministic{})}
	for _, f := range []*model.Function{fx, fy} {
		if err := m.AddFunction(f); err != nil {
			t.Fatalf("could not add function: %+v", err)
		}
	}
	x = m.FuncApp(fx)
	y = m.FuncApp(fy)
	return m, x, y
}

func TestCycle1(t *testing.T) {
	m := model.New("cyclic")
	var a, b *model.Var
	fa := &model.Function{Name: "A", RetType: model.Boolean, Dependency: depends(func() *model.Var { return b }, &distrib.Deterministic{})}
	fb := &model.Function{Name: "B", RetType: model.Boolean, Dependency: depends(func() *model.Var { return a }, &distrib.Deterministic{})}
	for _, f := range []*model.Function{fa, fb} {
		if err := m.AddFunction(f); err != nil {
			t.Fatalf("could not add function: %+v", err)
		}
	}
	a = m.FuncApp(fa)
	b = m.FuncApp(fb)

	w := newMapWorld(m)
	ctx := NewInstantiating(w, rand.New(rand.NewSource(1)))
	_, err := ctx.Value(a)
	if err == nil {
		t.Errorf("expected a cycle error")
		return
	}
	cycle, ok := errwrap.Cause(err).(*CycleError)
	if !ok {
		t.Errorf("expected a cycle error, got: %+v", err)
		return
	}
	got := []string{}
	for _, v := range cycle.Chain {
		got = append(got, v.String())
	}
	if diff := pretty.Compare([]string{"A", "B", "A"}, got); diff != "" {
		t.Errorf("chain did not match (-exp, +got):\n%s", diff)
	}
	if len(w.values) != 0 {
		t.Errorf("expected nothing to be instantiated, got: %d", len(w.values))
	}
}

func TestInstantiating1(t *testing.T) {
	m, x, y := chainModel(t)
	w := newMapWorld(m)
	ctx := NewInstantiating(w, rand.New(rand.NewSource(42)))
	sampled := []string{}
	ctx.Listener = ListenerFunc(func(v *model.Var, value model.Value, logProb float64) {
		sampled = append(sampled, v.String())
	})
	registry := NewRegistry()
	defer registry.Close()
	count := 0
	unregister, err := registry.Register(ListenerFunc(func(*model.Var, model.Value, float64) { count++ }))
	if err != nil {
		t.Fatalf("could not register: %+v", err)
	}
	defer unregister()
	ctx.Registry = registry

	val, err := ctx.Value(y)
	if err != nil {
		t.Errorf("unexpected error: %+v", err)
		return
	}
	if val != w.Value(x) {
		t.Errorf("expected Y to equal X")
	}
	if diff := pretty.Compare([]string{"X", "Y"}, sampled); diff != "" {
		t.Errorf("sampled order did not match (-exp, +got):\n%s", diff)
	}
	if count != 2 {
		t.Errorf("expected 2 registry notifications, got: %d", count)
	}
	if lp := ctx.LogProb(); math.Abs(lp-math.Log(0.5)) > 1e-9 {
		t.Errorf("expected log prob %f, got: %f", math.Log(0.5), lp)
	}
}

func TestDefault1(t *testing.T) {
	m, x, y := chainModel(t)
	w := newMapWorld(m)

	_, err := New(w, true).Value(x)
	if _, ok := err.(*NotInstantiatedError); !ok {
		t.Errorf("expected a not instantiated error, got: %+v", err)
	}
	if val, err := New(w, false).Value(x); err != nil || val != nil {
		t.Errorf("expected an absent value, got: %v, %+v", val, err)
	}

	w.SetValue(x, true)
	ctx := New(w, true)
	d, err := y.Distrib(ctx)
	if err != nil || d == nil {
		t.Errorf("expected a distribution, got: %v, %+v", d, err)
		return
	}
	if lp, err := d.LogProb(true); err != nil || lp != 0 {
		t.Errorf("expected log prob 0, got: %f, %+v", lp, err)
	}
}

func TestParentRec1(t *testing.T) {
	m, x, y := chainModel(t)
	w := newMapWorld(m)

	ctx := NewParentRec(w)
	d, err := y.Distrib(ctx)
	if err != nil || d != nil {
		t.Errorf("expected no distribution, got: %v, %+v", d, err)
	}
	if ctx.LatestUninstParent() != x {
		t.Errorf("expected X as the uninstantiated parent")
	}
	if len(ctx.Parents()) != 0 {
		t.Errorf("expected no parents")
	}

	w.SetValue(x, false)
	ctx = NewParentRec(w)
	if _, err := y.Distrib(ctx); err != nil {
		t.Errorf("unexpected error: %+v", err)
	}
	if ctx.LatestUninstParent() != nil {
		t.Errorf("expected no uninstantiated parent")
	}
	if p := ctx.Parents(); len(p) != 1 || p[0] != x {
		t.Errorf("expected X as the only parent, got: %s", model.VarsString(p))
	}
}

func TestSimple1(t *testing.T) {
	m := model.New("simple")
	color, err := m.NewType("Color", "Red", "Blue")
	if err != nil {
		t.Fatalf("could not add type: %+v", err)
	}
	ball, err := m.NewType("Ball")
	if err != nil {
		t.Fatalf("could not add type: %+v", err)
	}
	pop := &model.POP{Type: ball, Dependency: fixed(&distrib.Poisson{Lambda: 3})}
	if err := m.AddPOP(pop); err != nil {
		t.Fatalf("could not add pop: %+v", err)
	}
	f := &model.Function{Name: "Favorite", RetType: color, Dependency: fixed(&distrib.UniformChoice{})}
	if err := m.AddFunction(f); err != nil {
		t.Fatalf("could not add function: %+v", err)
	}

	w := newMapWorld(m)
	ctx := NewInstantiating(w, rand.New(rand.NewSource(3)))
	ctx.Simple = true
	nv := m.Number(pop)
	if val, err := ctx.Value(nv); err != nil || val != 0 {
		t.Errorf("expected 0, got: %v, %+v", val, err)
	}
	if val, err := ctx.Value(m.FuncApp(f)); err != nil || val != color.Object("Red") {
		t.Errorf("expected Red, got: %v, %+v", val, err)
	}
	if len(w.values) != 0 {
		t.Errorf("placeholders must not be written to the world")
	}
	if len(ctx.Parents()) != 2 {
		t.Errorf("expected 2 recorded vars, got: %d", len(ctx.Parents()))
	}
}

func TestObjectExists1(t *testing.T) {
	m := model.New("exists")
	ball, err := m.NewType("Ball")
	if err != nil {
		t.Fatalf("could not add type: %+v", err)
	}
	pop := &model.POP{Type: ball, Dependency: fixed(&distrib.Poisson{Lambda: 3})}
	if err := m.AddPOP(pop); err != nil {
		t.Fatalf("could not add pop: %+v", err)
	}
	nv := m.Number(pop)
	w := newMapWorld(m)
	ctx := NewParentRec(w)
	ngo := m.Arena().NGO(nv, 2)
	if ok, err := ctx.ObjectExists(ngo); err != nil || ok {
		t.Errorf("expected unknown existence to be false")
	}
	if ctx.LatestUninstParent() != nv {
		t.Errorf("expected the number var to be recorded")
	}
	w.SetValue(nv, 3)
	if ok, err := ctx.ObjectExists(ngo); err != nil || !ok {
		t.Errorf("expected the object to exist")
	}
	w.SetValue(nv, 1)
	if ok, err := ctx.ObjectExists(ngo); err != nil || ok {
		t.Errorf("expected the object not to exist")
	}
	if set, err := ctx.Satisfiers(nv); err != nil || set.Size() != 1 {
		t.Errorf("expected one satisfier")
	}
	if nv2, _ := ctx.POPAppSatisfied(ngo); nv2 != nv {
		t.Errorf("expected the generating number var")
	}
}

func TestRegistry1(t *testing.T) {
	r := NewRegistry()
	calls := 0
	unregister, err := r.Register(ListenerFunc(func(*model.Var, model.Value, float64) { calls++ }))
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	r.Notify(nil, true, 0)
	unregister()
	r.Notify(nil, true, 0)
	if calls != 1 {
		t.Errorf("expected one call, got: %d", calls)
	}
	r.Close()
	if _, err := r.Register(ListenerFunc(func(*model.Var, model.Value, float64) {})); err == nil {
		t.Errorf("expected an error after close")
	}
}
