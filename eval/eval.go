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

// Package eval contains the evaluation contexts which dependency models read a
// world through. A Default context reports missing values, a ParentRec
// context records which variables were read, and an Instantiating context
// samples missing variables on demand while watching for cycles.
package eval

import (
	"fmt"
	"strings"

	"github.com/bayeslog/blog/model"
)

// World is what an evaluation context needs from a world. The world package
// implements it.
type World interface {
	// Model returns the model of the world.
	Model() *model.Model

	// Value returns the value of a variable, or nil.
	Value(v *model.Var) model.Value

	// SetValue sets the value of a basic variable. A nil value
	// uninstantiates it.
	SetValue(v *model.Var, value model.Value)

	// Satisfiers returns the objects satisfying an instantiated number
	// variable.
	Satisfiers(nv *model.Var) (model.ObjectSet, error)

	// POPAppSatisfied returns the number variable an object satisfies, or
	// nil.
	POPAppSatisfied(obj model.Value) *model.Var

	// AssertIdentifier asserts a common-ground identifier.
	AssertIdentifier(id *model.Identifier) error

	// UsesIdentifiers returns true if the type uses identifiers.
	UsesIdentifiers(t *model.Type) bool
}

// NotInstantiatedError is returned by a strict context which was asked for
// the value of a variable that isn't instantiated.
type NotInstantiatedError struct {
	Var   *model.Var
	Trace []string
}

// Error returns the message with the evaluation trace.
func (obj *NotInstantiatedError) Error() string {
	if len(obj.Trace) == 0 {
		return fmt.Sprintf("variable %s is not instantiated", obj.Var)
	}
	return fmt.Sprintf("variable %s is not instantiated (trace: %s)", obj.Var, strings.Join(obj.Trace, " > "))
}

// CycleError is returned when instantiating a variable needs the variable
// itself. The chain lists the responsible variables, deepest first.
type CycleError struct {
	Chain []*model.Var
	Trace []string
}

// Error returns the message with the chain of responsible variables.
func (obj *CycleError) Error() string {
	return fmt.Sprintf("cycle in context-specific dependency graph: %s", model.VarsString(obj.Chain))
}

// base holds what every context shares. The basic and popApp hooks let each
// context decide how missing values and origins are handled, and self is the
// outer context that expressions are evaluated in.
type base struct {
	world      World
	assignment map[string]model.Value
	evaluees   []fmt.Stringer

	self   model.EvalContext
	basic  func(v *model.Var) (model.Value, error)
	popApp func(obj model.Value) *model.Var
}

func (obj *base) setup(w World, self model.EvalContext) {
	obj.world = w
	obj.self = self
	obj.popApp = w.POPAppSatisfied
}

// World returns the world this context reads.
func (obj *base) World() World { return obj.world }

// Model returns the model of the world.
func (obj *base) Model() *model.Model { return obj.world.Model() }

// Value returns the value of a variable of any kind.
func (obj *base) Value(v *model.Var) (model.Value, error) {
	switch v.Kind {
	case model.KindFuncApp, model.KindNumber:
		return obj.basic(v)
	case model.KindOrigin:
		nv, err := obj.self.POPAppSatisfied(v.ID)
		if err != nil || nv == nil {
			return nil, err // don't return a typed nil
		}
		return nv, nil
	case model.KindDerived:
		obj.self.PushEvaluee(v)
		defer obj.self.PopEvaluee()
		return v.Expr.Eval(obj.self)
	}
	return nil, fmt.Errorf("unknown kind of variable %s", v)
}

// Satisfiers returns the objects satisfying a number variable, or nil if the
// number variable has no value.
func (obj *base) Satisfiers(nv *model.Var) (model.ObjectSet, error) {
	val, err := obj.self.Value(nv)
	if err != nil || val == nil {
		return nil, err
	}
	return obj.world.Satisfiers(nv)
}

// POPAppSatisfied returns the number variable an object satisfies.
func (obj *base) POPAppSatisfied(x model.Value) (*model.Var, error) {
	return obj.popApp(x), nil
}

// ObjectExists returns whether a non-guaranteed object exists. It is false
// with no error when the number variable of the object has no value.
func (obj *base) ObjectExists(x model.Value) (bool, error) {
	ngo, ok := x.(*model.NonGuaranteedObject)
	if !ok {
		return true, nil
	}
	val, err := obj.self.Value(ngo.Var)
	if err != nil || val == nil {
		return false, err
	}
	n, ok := val.(int)
	if !ok {
		return false, fmt.Errorf("number variable %s has non-integer value %v", ngo.Var, val)
	}
	return ngo.N <= n, nil
}

// UsesIdentifiers returns true if the type uses identifiers.
func (obj *base) UsesIdentifiers(t *model.Type) bool { return obj.world.UsesIdentifiers(t) }

// Assign binds a logical variable.
func (obj *base) Assign(name string, v model.Value) {
	if obj.assignment == nil {
		obj.assignment = make(map[string]model.Value)
	}
	obj.assignment[name] = v
}

// Unassign removes a binding.
func (obj *base) Unassign(name string) { delete(obj.assignment, name) }

// LogicalVar returns the value bound to a logical variable.
func (obj *base) LogicalVar(name string) (model.Value, bool) {
	v, exists := obj.assignment[name]
	return v, exists
}

// PushEvaluee records what is being evaluated.
func (obj *base) PushEvaluee(x fmt.Stringer) { obj.evaluees = append(obj.evaluees, x) }

// PopEvaluee removes the last evaluee.
func (obj *base) PopEvaluee() {
	if len(obj.evaluees) == 0 {
		return
	}
	obj.evaluees = obj.evaluees[:len(obj.evaluees)-1]
}

// EvalTrace returns the evaluee stack, outermost first.
func (obj *base) EvalTrace() []string {
	out := []string{}
	for _, x := range obj.evaluees {
		out = append(out, x.String())
	}
	return out
}

// Default reads values straight from the world. A missing value is an error
// if ErrorIfUndet is set, otherwise it is returned as nil.
type Default struct {
	base

	ErrorIfUndet bool
}

// New builds a default context.
func New(w World, errorIfUndet bool) *Default {
	obj := &Default{ErrorIfUndet: errorIfUndet}
	obj.setup(w, obj)
	obj.basic = obj.lookup
	return obj
}

func (obj *Default) lookup(v *model.Var) (model.Value, error) {
	val := obj.world.Value(v)
	if val == nil && obj.ErrorIfUndet {
		return nil, &NotInstantiatedError{Var: v, Trace: obj.EvalTrace()}
	}
	return val, nil
}

// EnsureDetAndSupported evaluates each variable in the context so that it
// ends up determined and supported. With an instantiating context that
// samples whatever is missing.
func EnsureDetAndSupported(ctx model.EvalContext, vars []*model.Var) error {
	for _, v := range vars {
		val, err := ctx.Value(v)
		if err != nil {
			return err
		}
		if val == nil {
			return fmt.Errorf("variable %s could not be determined", v)
		}
		if !v.IsBasic() {
			continue
		}
		d, err := v.Distrib(ctx)
		if err != nil {
			return err
		}
		if d == nil {
			return fmt.Errorf("variable %s could not be supported", v)
		}
	}
	return nil
}
