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
	"fmt"
	"math"

	"golang.org/x/exp/rand"
)

// CPD is a conditional probability distribution. The args are the parameters
// which the dependency model computed from the parents.
type CPD interface {
	fmt.Stringer

	// Sample draws a value.
	Sample(args []Value, rng *rand.Rand) (Value, error)

	// Prob returns the probability (or density) of value.
	Prob(args []Value, value Value) (float64, error)

	// LogProb returns the natural log of Prob.
	LogProb(args []Value, value Value) (float64, error)

	// FiniteSupport returns the values with non-zero probability, or nil if
	// there are infinitely many.
	FiniteSupport(args []Value) ([]Value, error)
}

// Distrib is a CPD together with its arguments.
type Distrib struct {
	CPD  CPD
	Args []Value
}

// Sample draws a value.
func (obj *Distrib) Sample(rng *rand.Rand) (Value, error) { return obj.CPD.Sample(obj.Args, rng) }

// Prob returns the probability of value.
func (obj *Distrib) Prob(value Value) (float64, error) { return obj.CPD.Prob(obj.Args, value) }

// LogProb returns the log probability of value.
func (obj *Distrib) LogProb(value Value) (float64, error) {
	return obj.CPD.LogProb(obj.Args, value)
}

// String returns something like Bernoulli(0.3).
func (obj *Distrib) String() string {
	if len(obj.Args) == 0 {
		return obj.CPD.String()
	}
	return fmt.Sprintf("%s[%s]", obj.CPD, ValuesString(obj.Args))
}

// DependencyModel computes the distribution of a basic variable from the
// values of its parents, which it reads through the context. It returns a nil
// Distrib and a nil error when the context doesn't determine the parents.
type DependencyModel interface {
	Distrib(ctx EvalContext, args []Value) (*Distrib, error)
}

// DependencyFunc adapts a plain function into a DependencyModel.
type DependencyFunc func(ctx EvalContext, args []Value) (*Distrib, error)

// Distrib calls the function.
func (fn DependencyFunc) Distrib(ctx EvalContext, args []Value) (*Distrib, error) {
	return fn(ctx, args)
}

// Expr is the expression behind a derived variable.
type Expr interface {
	fmt.Stringer

	// Eval returns the value of the expression, or nil if the context
	// doesn't determine it.
	Eval(ctx EvalContext) (Value, error)
}

// FuncExpr is an Expr built from a function.
type FuncExpr struct {
	Name string
	Ret  *Type
	Fn   func(ctx EvalContext) (Value, error)
}

// Eval runs the function.
func (obj *FuncExpr) Eval(ctx EvalContext) (Value, error) { return obj.Fn(ctx) }

// Type returns the type of the values of the expression.
func (obj *FuncExpr) Type() *Type { return obj.Ret }

// String returns the name of the expression.
func (obj *FuncExpr) String() string { return obj.Name }

// EvalContext is what dependency models and expressions read a world through.
// Depending on the implementation, a missing value is an error, is recorded
// and returned as nil, or is sampled on the spot.
type EvalContext interface {
	// Model returns the model being evaluated.
	Model() *Model

	// Value returns the value of a variable of any kind, or nil if it is
	// not determined.
	Value(v *Var) (Value, error)

	// Satisfiers returns the objects that satisfy a number variable, or
	// nil if they are not determined.
	Satisfiers(nv *Var) (ObjectSet, error)

	// POPAppSatisfied returns the number variable that a non-guaranteed
	// object or an identifier satisfies, or nil.
	POPAppSatisfied(obj Value) (*Var, error)

	// ObjectExists returns whether the object exists in the world. It is
	// false when that can't be determined yet.
	ObjectExists(obj Value) (bool, error)

	// UsesIdentifiers returns true if objects of the type are represented
	// with identifiers.
	UsesIdentifiers(t *Type) bool

	// Assign binds a logical variable for the duration of an evaluation.
	Assign(name string, v Value)

	// Unassign removes the binding of a logical variable.
	Unassign(name string)

	// LogicalVar returns the value bound to a logical variable.
	LogicalVar(name string) (Value, bool)

	// PushEvaluee records what is being evaluated, for error messages.
	PushEvaluee(x fmt.Stringer)

	// PopEvaluee removes the last evaluee.
	PopEvaluee()

	// EvalTrace returns the evaluee stack, outermost first.
	EvalTrace() []string
}

// LogProb returns the log probability of value under the distribution of v in
// the context, or an error if the distribution isn't determined.
func LogProb(ctx EvalContext, v *Var, value Value) (float64, error) {
	d, err := v.Distrib(ctx)
	if err != nil {
		return math.Inf(-1), err
	}
	if d == nil {
		return math.Inf(-1), fmt.Errorf("distribution of %s is not determined", v)
	}
	return d.LogProb(value)
}
