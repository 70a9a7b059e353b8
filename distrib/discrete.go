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

// Package distrib contains the conditional probability distributions used by
// the dependency models. The numerics come from gonum's distuv package, and
// every draw comes from the caller's random stream.
package distrib

import (
	"fmt"
	"math"

	"github.com/bayeslog/blog/model"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// toFloat converts a numeric value to a float64.
func toFloat(v model.Value) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	}
	return 0, fmt.Errorf("value %s is not a number", model.ValueString(v))
}

// param returns args[i] as a float, or def when there are not enough args.
func param(args []model.Value, i int, def float64) (float64, error) {
	if i >= len(args) {
		return def, nil
	}
	return toFloat(args[i])
}

func logOf(p float64) float64 {
	if p <= 0 {
		return math.Inf(-1)
	}
	return math.Log(p)
}

// Bernoulli is a distribution over true and false. The probability of true is
// P, unless an argument is given.
type Bernoulli struct {
	P float64
}

func (obj *Bernoulli) dist(args []model.Value, rng *rand.Rand) (distuv.Bernoulli, error) {
	p, err := param(args, 0, obj.P)
	if err != nil {
		return distuv.Bernoulli{}, err
	}
	if p < 0 || p > 1 {
		return distuv.Bernoulli{}, fmt.Errorf("bernoulli parameter %v out of range", p)
	}
	d := distuv.Bernoulli{P: p}
	if rng != nil {
		d.Src = rng
	}
	return d, nil
}

// Sample draws true or false.
func (obj *Bernoulli) Sample(args []model.Value, rng *rand.Rand) (model.Value, error) {
	d, err := obj.dist(args, rng)
	if err != nil {
		return nil, err
	}
	return d.Rand() == 1, nil
}

// Prob returns the probability of value.
func (obj *Bernoulli) Prob(args []model.Value, value model.Value) (float64, error) {
	d, err := obj.dist(args, nil)
	if err != nil {
		return 0, err
	}
	b, ok := value.(bool)
	if !ok {
		return 0, nil
	}
	if b {
		return d.Prob(1), nil
	}
	return d.Prob(0), nil
}

// LogProb returns the log probability of value.
func (obj *Bernoulli) LogProb(args []model.Value, value model.Value) (float64, error) {
	p, err := obj.Prob(args, value)
	return logOf(p), err
}

// FiniteSupport returns true and false.
func (obj *Bernoulli) FiniteSupport([]model.Value) ([]model.Value, error) {
	return []model.Value{true, false}, nil
}

// String returns a description.
func (obj *Bernoulli) String() string { return fmt.Sprintf("Bernoulli(%v)", obj.P) }

// Categorical is a distribution over a finite list of values.
type Categorical struct {
	Values []model.Value
	Probs  []float64
}

// NewCategorical builds a categorical distribution, and normalizes the
// weights.
func NewCategorical(values []model.Value, weights []float64) (*Categorical, error) {
	if len(values) != len(weights) || len(values) == 0 {
		return nil, fmt.Errorf("categorical needs one weight per value")
	}
	sum := 0.0
	for _, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("negative categorical weight %v", w)
		}
		sum += w
	}
	if sum <= 0 {
		return nil, fmt.Errorf("categorical weights sum to zero")
	}
	probs := make([]float64, len(weights))
	for i, w := range weights {
		probs[i] = w / sum
	}
	return &Categorical{Values: values, Probs: probs}, nil
}

// Sample draws one of the values.
func (obj *Categorical) Sample(_ []model.Value, rng *rand.Rand) (model.Value, error) {
	d := distuv.NewCategorical(obj.Probs, rng)
	return obj.Values[int(d.Rand())], nil
}

// Prob returns the probability of value.
func (obj *Categorical) Prob(_ []model.Value, value model.Value) (float64, error) {
	p := 0.0
	for i, v := range obj.Values {
		if v == value {
			p += obj.Probs[i]
		}
	}
	return p, nil
}

// LogProb returns the log probability of value.
func (obj *Categorical) LogProb(args []model.Value, value model.Value) (float64, error) {
	p, err := obj.Prob(args, value)
	return logOf(p), err
}

// FiniteSupport returns the values with a non-zero probability.
func (obj *Categorical) FiniteSupport([]model.Value) ([]model.Value, error) {
	out := []model.Value{}
	for i, v := range obj.Values {
		if obj.Probs[i] > 0 {
			out = append(out, v)
		}
	}
	return out, nil
}

// String returns a description.
func (obj *Categorical) String() string {
	return fmt.Sprintf("Categorical(%s)", model.ValuesString(obj.Values))
}

// TabularRow is one row of a conditional probability table.
type TabularRow struct {
	When []model.Value
	Dist *Categorical
}

// Tabular is a conditional probability table: the arguments are the values
// of the parents, and the first row which matches them gives the
// distribution.
type Tabular struct {
	Rows []TabularRow
}

func (obj *Tabular) row(args []model.Value) (*Categorical, error) {
	for _, r := range obj.Rows {
		if len(r.When) != len(args) {
			continue
		}
		match := true
		for i := range args {
			if r.When[i] != args[i] {
				match = false
				break
			}
		}
		if match {
			return r.Dist, nil
		}
	}
	return nil, fmt.Errorf("no table row for parents (%s)", model.ValuesString(args))
}

// Sample draws a value from the matching row.
func (obj *Tabular) Sample(args []model.Value, rng *rand.Rand) (model.Value, error) {
	d, err := obj.row(args)
	if err != nil {
		return nil, err
	}
	return d.Sample(nil, rng)
}

// Prob returns the probability of value in the matching row.
func (obj *Tabular) Prob(args []model.Value, value model.Value) (float64, error) {
	d, err := obj.row(args)
	if err != nil {
		return 0, err
	}
	return d.Prob(nil, value)
}

// LogProb returns the log probability of value in the matching row.
func (obj *Tabular) LogProb(args []model.Value, value model.Value) (float64, error) {
	p, err := obj.Prob(args, value)
	return logOf(p), err
}

// FiniteSupport returns the support of the matching row.
func (obj *Tabular) FiniteSupport(args []model.Value) ([]model.Value, error) {
	d, err := obj.row(args)
	if err != nil {
		return nil, err
	}
	return d.FiniteSupport(nil)
}

// String returns a description.
func (obj *Tabular) String() string { return fmt.Sprintf("Tabular(%d rows)", len(obj.Rows)) }

// UniformChoice picks uniformly from the set of objects given as its only
// argument. It gives Null when the set is empty.
type UniformChoice struct{}

func (obj *UniformChoice) set(args []model.Value) (model.ObjectSet, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("uniform choice needs one set argument")
	}
	s, ok := args[0].(model.ObjectSet)
	if !ok {
		return nil, fmt.Errorf("uniform choice argument %s is not a set", model.ValueString(args[0]))
	}
	return s, nil
}

// Sample picks an element.
func (obj *UniformChoice) Sample(args []model.Value, rng *rand.Rand) (model.Value, error) {
	s, err := obj.set(args)
	if err != nil {
		return nil, err
	}
	if s.Size() == 0 {
		return model.Null, nil
	}
	return s.Sample(rng.Intn(s.Size()))
}

// Prob returns one over the size of the set for its elements.
func (obj *UniformChoice) Prob(args []model.Value, value model.Value) (float64, error) {
	s, err := obj.set(args)
	if err != nil {
		return 0, err
	}
	if s.Size() == 0 {
		if value == model.Null {
			return 1, nil
		}
		return 0, nil
	}
	if !s.Contains(value) {
		return 0, nil
	}
	return 1 / float64(s.Size()), nil
}

// LogProb returns the log probability of value.
func (obj *UniformChoice) LogProb(args []model.Value, value model.Value) (float64, error) {
	p, err := obj.Prob(args, value)
	return logOf(p), err
}

// FiniteSupport returns the elements of the set.
func (obj *UniformChoice) FiniteSupport(args []model.Value) ([]model.Value, error) {
	s, err := obj.set(args)
	if err != nil {
		return nil, err
	}
	if s.Size() == 0 {
		return []model.Value{model.Null}, nil
	}
	return s.Elements(), nil
}

// String returns a description.
func (obj *UniformChoice) String() string { return "UniformChoice" }

// Deterministic gives its only argument with probability one.
type Deterministic struct{}

// Sample returns the argument.
func (obj *Deterministic) Sample(args []model.Value, _ *rand.Rand) (model.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("deterministic needs one argument")
	}
	return args[0], nil
}

// Prob returns one if value is the argument.
func (obj *Deterministic) Prob(args []model.Value, value model.Value) (float64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("deterministic needs one argument")
	}
	if args[0] == value {
		return 1, nil
	}
	return 0, nil
}

// LogProb returns the log probability of value.
func (obj *Deterministic) LogProb(args []model.Value, value model.Value) (float64, error) {
	p, err := obj.Prob(args, value)
	return logOf(p), err
}

// FiniteSupport returns the argument.
func (obj *Deterministic) FiniteSupport(args []model.Value) ([]model.Value, error) {
	return args, nil
}

// String returns a description.
func (obj *Deterministic) String() string { return "Deterministic" }
