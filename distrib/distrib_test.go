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

package distrib

import (
	"fmt"
	"math"
	"testing"

	"github.com/bayeslog/blog/model"

	"golang.org/x/exp/rand"
)

func TestProb(t *testing.T) {
	cat, err := NewCategorical([]model.Value{"a", "b", "c"}, []float64{1, 2, 1})
	if err != nil {
		t.Fatalf("could not build categorical: %+v", err)
	}
	table := &Tabular{Rows: []TabularRow{
		{When: []model.Value{true}, Dist: cat},
		{When: []model.Value{false}, Dist: &Categorical{Values: []model.Value{"a"}, Probs: []float64{1}}},
	}}

	type test struct { // an individual test
		name  string
		cpd   model.CPD
		args  []model.Value
		value model.Value
		exp   float64
	}
	testCases := []test{}

	{
		testCases = append(testCases, test{
			name:  "bernoulli true",
			cpd:   &Bernoulli{P: 0.3},
			value: true,
			exp:   0.3,
		})
	}
	{
		testCases = append(testCases, test{
			name:  "bernoulli arg",
			cpd:   &Bernoulli{P: 0.3},
			args:  []model.Value{0.9},
			value: false,
			exp:   0.1,
		})
	}
	{
		testCases = append(testCases, test{
			name:  "categorical",
			cpd:   cat,
			value: "b",
			exp:   0.5,
		})
	}
	{
		testCases = append(testCases, test{
			name:  "categorical missing",
			cpd:   cat,
			value: "z",
			exp:   0,
		})
	}
	{
		testCases = append(testCases, test{
			name:  "tabular",
			cpd:   table,
			args:  []model.Value{false},
			value: "a",
			exp:   1,
		})
	}
	{
		testCases = append(testCases, test{
			name:  "uniform choice",
			cpd:   &UniformChoice{},
			args:  []model.Value{model.ListSet{"x", "y", "z", "w"}},
			value: "y",
			exp:   0.25,
		})
	}
	{
		testCases = append(testCases, test{
			name:  "uniform choice empty",
			cpd:   &UniformChoice{},
			args:  []model.Value{model.ListSet{}},
			value: model.Null,
			exp:   1,
		})
	}
	{
		testCases = append(testCases, test{
			name:  "poisson",
			cpd:   &Poisson{Lambda: 2},
			value: 3,
			exp:   math.Exp(-2) * 8 / 6,
		})
	}
	{
		testCases = append(testCases, test{
			name:  "poisson negative",
			cpd:   &Poisson{Lambda: 2},
			value: -1,
			exp:   0,
		})
	}
	{
		testCases = append(testCases, test{
			name:  "uniform int",
			cpd:   &UniformInt{Lo: 1, Hi: 4},
			value: 2,
			exp:   0.25,
		})
	}
	{
		testCases = append(testCases, test{
			name:  "gaussian",
			cpd:   &Gaussian{Mean: 0, Variance: 1},
			value: 0.0,
			exp:   1 / math.Sqrt(2*math.Pi),
		})
	}
	{
		testCases = append(testCases, test{
			name:  "deterministic",
			cpd:   &Deterministic{},
			args:  []model.Value{7},
			value: 7,
			exp:   1,
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
			p, err := tc.cpd.Prob(tc.args, tc.value)
			if err != nil {
				t.Errorf("test #%d: unexpected error: %+v", index, err)
				return
			}
			if math.Abs(p-tc.exp) > 1e-9 {
				t.Errorf("test #%d: expected %v, got: %v", index, tc.exp, p)
			}
			lp, err := tc.cpd.LogProb(tc.args, tc.value)
			if err != nil {
				t.Errorf("test #%d: unexpected error: %+v", index, err)
				return
			}
			if tc.exp == 0 {
				if !math.IsInf(lp, -1) {
					t.Errorf("test #%d: expected -inf, got: %v", index, lp)
				}
				return
			}
			if math.Abs(lp-math.Log(tc.exp)) > 1e-9 {
				t.Errorf("test #%d: expected log %v, got: %v", index, math.Log(tc.exp), lp)
			}
		})
	}
}

func TestSampleFrequencies(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	cat, err := NewCategorical([]model.Value{"a", "b", "c"}, []float64{0.2, 0.5, 0.3})
	if err != nil {
		t.Fatalf("could not build categorical: %+v", err)
	}
	counts := map[model.Value]int{}
	const n = 20000
	for i := 0; i < n; i++ {
		v, err := cat.Sample(nil, rng)
		if err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}
		counts[v]++
	}
	for i, v := range cat.Values {
		if f := float64(counts[v]) / n; math.Abs(f-cat.Probs[i]) > 0.02 {
			t.Errorf("value %v: expected frequency %v, got: %v", v, cat.Probs[i], f)
		}
	}
}

func TestSampleTypes(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	if v, err := (&Bernoulli{P: 0.5}).Sample(nil, rng); err != nil {
		t.Errorf("unexpected error: %+v", err)
	} else if _, ok := v.(bool); !ok {
		t.Errorf("expected a bool, got: %T", v)
	}
	if v, err := (&Poisson{Lambda: 3}).Sample(nil, rng); err != nil {
		t.Errorf("unexpected error: %+v", err)
	} else if n, ok := v.(int); !ok || n < 0 {
		t.Errorf("expected a natural number, got: %v", v)
	}
	if v, err := (&UniformChoice{}).Sample([]model.Value{model.ListSet{}}, rng); err != nil || v != model.Null {
		t.Errorf("expected null from an empty set, got: %v", v)
	}
	if _, err := (&Bernoulli{}).Sample([]model.Value{1.5}, rng); err == nil {
		t.Errorf("expected an error for a bad parameter")
	}
	if _, err := NewCategorical([]model.Value{"a"}, []float64{0}); err == nil {
		t.Errorf("expected an error for zero weights")
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
