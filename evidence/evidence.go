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

// Package evidence holds observed values of variables.
package evidence

import (
	"fmt"
	"math"

	"github.com/bayeslog/blog/eval"
	"github.com/bayeslog/blog/model"
	"github.com/bayeslog/blog/util/errwrap"
	"github.com/bayeslog/blog/world"

	"github.com/hashicorp/go-set/v3"
	"golang.org/x/exp/rand"
)

// Statement says that a variable has an observed value.
type Statement struct {
	Var   *model.Var
	Value model.Value
}

// String returns the statement as var = value.
func (obj *Statement) String() string {
	return fmt.Sprintf("%s = %s", obj.Var, model.ValueString(obj.Value))
}

// Evidence is a conjunction of value statements. The zero value holds no
// evidence.
type Evidence struct {
	statements []*Statement
	observed   map[*model.Var]model.Value
	vars       *set.Set[*model.Var]
}

// New returns evidence made of the statements.
func New(statements ...*Statement) (*Evidence, error) {
	obj := &Evidence{}
	for _, s := range statements {
		if err := obj.Add(s.Var, s.Value); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// Add adds the statement v = value. Observing two different values for one
// variable is an error.
func (obj *Evidence) Add(v *model.Var, value model.Value) error {
	if v.Kind == model.KindOrigin {
		return fmt.Errorf("can't observe origin variable %s", v)
	}
	if value == nil {
		return fmt.Errorf("can't observe %s to be absent", v)
	}
	if obj.observed == nil {
		obj.observed = make(map[*model.Var]model.Value)
		obj.vars = set.New[*model.Var](0)
	}
	if old, exists := obj.observed[v]; exists {
		if old != value {
			return fmt.Errorf("%s is observed to be both %s and %s", v, model.ValueString(old), model.ValueString(value))
		}
		return nil
	}
	obj.observed[v] = value
	obj.vars.Insert(v)
	obj.statements = append(obj.statements, &Statement{Var: v, Value: value})
	return nil
}

// Statements returns the statements in the order they were added.
func (obj *Evidence) Statements() []*Statement {
	return append([]*Statement{}, obj.statements...)
}

// EvidenceVars returns the observed variables.
func (obj *Evidence) EvidenceVars() []*model.Var {
	if obj.vars == nil {
		return []*model.Var{}
	}
	return model.SortVars(obj.vars.Slice())
}

// Contains returns true if v is observed.
func (obj *Evidence) Contains(v *model.Var) bool {
	return obj.vars != nil && obj.vars.Contains(v)
}

// ObservedValue returns the observed value of v.
func (obj *Evidence) ObservedValue(v *model.Var) (model.Value, bool) {
	val, exists := obj.observed[v]
	return val, exists
}

// IsEmpty returns true if nothing is observed.
func (obj *Evidence) IsEmpty() bool { return len(obj.statements) == 0 }

// IsDetermined returns true if every observed variable has a value in w.
func (obj *Evidence) IsDetermined(w world.World) bool {
	ctx := eval.New(w, false)
	for _, s := range obj.statements {
		if val, err := ctx.Value(s.Var); err != nil || val == nil {
			return false
		}
	}
	return true
}

// IsTrue returns true if every observed variable has its observed value in w.
func (obj *Evidence) IsTrue(w world.World) bool {
	ctx := eval.New(w, false)
	for _, s := range obj.statements {
		if val, err := ctx.Value(s.Var); err != nil || val != s.Value {
			return false
		}
	}
	return true
}

// LogProb returns the log probability of the evidence in w: the sum of the
// log probabilities of the observed basic variables, and minus infinity if an
// observed derived variable has the wrong value.
func (obj *Evidence) LogProb(w world.World) (float64, error) {
	total := 0.0
	for _, s := range obj.statements {
		if !s.Var.IsBasic() {
			val, err := eval.New(w, true).Value(s.Var)
			if err != nil {
				return math.Inf(-1), errwrap.Wrapf(err, "evidence %s is not determined", s)
			}
			if val != s.Value {
				return math.Inf(-1), nil
			}
			continue
		}
		if w.Value(s.Var) != s.Value {
			return math.Inf(-1), nil
		}
		lp, err := w.LogProbOfValue(s.Var)
		if err != nil {
			return math.Inf(-1), errwrap.Wrapf(err, "evidence %s is not supported", s)
		}
		total += lp
	}
	return total, nil
}

// Prob is the exponential of LogProb.
func (obj *Evidence) Prob(w world.World) (float64, error) {
	lp, err := obj.LogProb(w)
	return math.Exp(lp), err
}

// SetAndEnsureSupported sets every observed basic variable to its value and
// then instantiates whatever is needed for all the observed variables to be
// determined and supported.
func (obj *Evidence) SetAndEnsureSupported(w world.World, rng *rand.Rand) error {
	for _, s := range obj.statements {
		if s.Var.IsBasic() {
			w.SetValue(s.Var, s.Value)
		}
	}
	ctx := eval.NewInstantiating(w, rng)
	return eval.EnsureDetAndSupported(ctx, obj.EvidenceVars())
}

// String returns the statements joined with "and".
func (obj *Evidence) String() string {
	if len(obj.statements) == 0 {
		return "true"
	}
	s := ""
	for i, st := range obj.statements {
		if i > 0 {
			s += " and "
		}
		s += st.String()
	}
	return s
}
