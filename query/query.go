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

// Package query holds the questions asked of a run of a sampler.
package query

import (
	"fmt"
	"math"
	"sort"

	"github.com/bayeslog/blog/eval"
	"github.com/bayeslog/blog/model"
	"github.com/bayeslog/blog/util/logmath"
	"github.com/bayeslog/blog/world"
)

// Query is anything whose answer can be estimated from weighted worlds.
type Query interface {
	fmt.Stringer

	// Variables returns the variables the answer depends on.
	Variables() []*model.Var

	// Update adds a world with the given log weight to the estimate.
	Update(w world.World, logWeight float64) error

	// ZeroOut forgets every world seen so far.
	ZeroOut()

	// PrintResults writes the estimate through logf.
	PrintResults(logf func(format string, v ...interface{}))
}

// Entry is one value of a histogram and its normalized probability.
type Entry struct {
	Value model.Value
	Prob  float64
}

// VarQuery asks for the posterior distribution of one variable. It keeps a
// histogram of log weights.
type VarQuery struct {
	Var *model.Var

	logWeights map[model.Value]float64
	order      []model.Value
	total      float64
	count      int
}

// NewVarQuery returns a query for v.
func NewVarQuery(v *model.Var) *VarQuery {
	obj := &VarQuery{Var: v}
	obj.ZeroOut()
	return obj
}

// String returns the name of the variable.
func (obj *VarQuery) String() string { return obj.Var.String() }

// Variables returns the queried variable.
func (obj *VarQuery) Variables() []*model.Var { return []*model.Var{obj.Var} }

// ZeroOut forgets every world seen so far.
func (obj *VarQuery) ZeroOut() {
	obj.logWeights = make(map[model.Value]float64)
	obj.order = []model.Value{}
	obj.total = math.Inf(-1)
	obj.count = 0
}

// Update adds the value of the variable in w to the histogram. The variable
// must be determined in w.
func (obj *VarQuery) Update(w world.World, logWeight float64) error {
	val, err := eval.New(w, true).Value(obj.Var)
	if err != nil {
		return err
	}
	if math.IsInf(logWeight, -1) {
		obj.count++
		return nil
	}
	old, exists := obj.logWeights[val]
	if !exists {
		old = math.Inf(-1)
		obj.order = append(obj.order, val)
	}
	obj.logWeights[val] = logmath.LogSum(old, logWeight)
	obj.total = logmath.LogSum(obj.total, logWeight)
	obj.count++
	return nil
}

// Count returns how many worlds were seen.
func (obj *VarQuery) Count() int { return obj.count }

// Prob returns the estimated probability of value. It is zero before any
// world with a positive weight was seen.
func (obj *VarQuery) Prob(value model.Value) float64 {
	lw, exists := obj.logWeights[value]
	if !exists || math.IsInf(obj.total, -1) {
		return 0
	}
	return math.Exp(lw - obj.total)
}

// Histogram returns every value seen, most probable first. Ties keep the
// order in which the values were first seen.
func (obj *VarQuery) Histogram() []*Entry {
	out := []*Entry{}
	for _, val := range obj.order {
		out = append(out, &Entry{Value: val, Prob: obj.Prob(val)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Prob > out[j].Prob })
	return out
}

// PrintResults writes the histogram through logf.
func (obj *VarQuery) PrintResults(logf func(format string, v ...interface{})) {
	logf("distribution of values for %s", obj.Var)
	for _, e := range obj.Histogram() {
		logf("\t%f\t%s", e.Prob, model.ValueString(e.Value))
	}
}
