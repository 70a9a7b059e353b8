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

package query

import (
	"math"
	"testing"

	"github.com/bayeslog/blog/distrib"
	"github.com/bayeslog/blog/model"
	"github.com/bayeslog/blog/world"
)

func TestVarQuery1(t *testing.T) {
	m := model.New("q")
	f := &model.Function{Name: "X", RetType: model.Boolean, Dependency: model.DependencyFunc(func(model.EvalContext, []model.Value) (*model.Distrib, error) {
		return &model.Distrib{CPD: &distrib.Bernoulli{P: 0.5}}, nil
	})}
	if err := m.AddFunction(f); err != nil {
		t.Fatalf("could not add function: %+v", err)
	}
	x := m.FuncApp(f)
	q := NewVarQuery(x)
	w := world.New(m, nil)

	if err := q.Update(w, 0); err == nil {
		t.Errorf("expected an error for an undetermined var")
	}

	w.SetValue(x, true)
	for i := 0; i < 3; i++ {
		if err := q.Update(w, 0); err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}
	}
	w.SetValue(x, false)
	if err := q.Update(w, math.Log(3)); err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	if err := q.Update(w, math.Inf(-1)); err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}

	if p := q.Prob(true); math.Abs(p-0.5) > 1e-9 {
		t.Errorf("expected 0.5, got: %f", p)
	}
	if q.Count() != 5 {
		t.Errorf("expected 5 worlds, got: %d", q.Count())
	}
	h := q.Histogram()
	if len(h) != 2 || h[0].Value != true {
		t.Errorf("expected ties to keep the first seen value first")
	}

	lines := 0
	q.PrintResults(func(string, ...interface{}) { lines++ })
	if lines != 3 {
		t.Errorf("expected 3 lines, got: %d", lines)
	}

	q.ZeroOut()
	if q.Count() != 0 || q.Prob(true) != 0 {
		t.Errorf("expected an empty histogram")
	}
}
