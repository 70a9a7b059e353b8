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

// Package model contains the pieces of a probabilistic model that inference
// consumes: types and their objects, random functions, populations (POPs),
// the random variables built from them, and the contracts that dependency
// models and evaluation contexts fulfill. Nothing in here samples or stores
// a world; that is done by the eval and world packages.
package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bayeslog/blog/util"
	"github.com/bayeslog/blog/util/errwrap"
)

// ErrUnknownType is returned when a type name can't be resolved.
const ErrUnknownType = util.Error("unknown type")

var (
	// Boolean is the builtin type of true and false.
	Boolean = &Type{Name: "Boolean", Guaranteed: []Value{true, false}, builtin: true}

	// Integer is the builtin type of all integers.
	Integer = &Type{Name: "Integer", infinite: true, builtin: true}

	// NaturalNum is the builtin type of non-negative integers. Number
	// variables take values of this type.
	NaturalNum = &Type{Name: "NaturalNum", infinite: true, builtin: true}

	// Real is the builtin type of real numbers.
	Real = &Type{Name: "Real", infinite: true, builtin: true}

	// String is the builtin type of strings.
	String = &Type{Name: "String", infinite: true, builtin: true}
)

// Builtins returns the builtin types.
func Builtins() []*Type {
	return []*Type{Boolean, Integer, NaturalNum, Real, String}
}

// Type is a type of objects. User defined types have a finite, possibly empty
// list of guaranteed objects, and may have more objects generated by POPs.
type Type struct {
	Name string

	// Guaranteed lists the objects that exist in every world, in a fixed
	// order.
	Guaranteed []Value

	// POPs are the populations which generate objects of this type.
	POPs []*POP

	infinite bool
	builtin  bool
}

// String returns the name of the type.
func (obj *Type) String() string { return obj.Name }

// IsBuiltin returns true for the builtin types.
func (obj *Type) IsBuiltin() bool { return obj.builtin }

// HasFiniteGuaranteed returns true if the type has a finite number of
// guaranteed objects.
func (obj *Type) HasFiniteGuaranteed() bool { return !obj.infinite }

// DefaultValue returns what a function of this return type has when it has
// no sensible value.
func (obj *Type) DefaultValue() Value {
	if obj == Boolean {
		return false
	}
	return Null
}

// Range returns every value an expression of this type can have: the
// guaranteed objects, followed by Null if that is the default value. It
// errors if the set is infinite or random.
func (obj *Type) Range() ([]Value, error) {
	if obj.infinite {
		return nil, fmt.Errorf("can't enumerate infinite set of objects of type %s", obj.Name)
	}
	if len(obj.POPs) > 0 {
		return nil, fmt.Errorf("can't enumerate random set of objects of type %s", obj.Name)
	}
	out := append([]Value{}, obj.Guaranteed...)
	if d := obj.DefaultValue(); d == Null {
		out = append(out, Null)
	}
	return out, nil
}

// Object returns the guaranteed object with this name, or nil.
func (obj *Type) Object(name string) *Object {
	for _, x := range obj.Guaranteed {
		if o, ok := x.(*Object); ok && o.Name == name {
			return o
		}
	}
	return nil
}

// Function is a random function. Its applications to argument tuples are the
// function application variables.
type Function struct {
	Name     string
	ArgTypes []*Type
	RetType  *Type

	// Dependency is asked for the distribution of an application.
	Dependency DependencyModel
}

// String returns the name of the function.
func (obj *Function) String() string { return obj.Name }

// POP is a population: a rule that generates some number of objects of a type
// for each tuple of generating objects. Number variables hold that number.
type POP struct {
	// Type is the type of the generated objects.
	Type *Type

	// OriginFuncs name the generating objects, in order. They are empty for
	// a POP with no generating objects.
	OriginFuncs []string

	// ArgTypes are the types of the generating objects.
	ArgTypes []*Type

	// Dependency is asked for the distribution of a number variable.
	Dependency DependencyModel
}

// String returns a short description such as #Blip(Source).
func (obj *POP) String() string {
	if len(obj.OriginFuncs) == 0 {
		return "#" + obj.Type.Name
	}
	return fmt.Sprintf("#%s(%s)", obj.Type.Name, strings.Join(obj.OriginFuncs, ", "))
}

// Model holds the types, functions and POPs of a model, and the arena which
// interns its variables.
type Model struct {
	Name string

	types     map[string]*Type
	userTypes []*Type
	funcs     map[string]*Function
	funcList  []*Function
	pops      []*POP
	arena     *Arena
}

// New returns an empty model which knows the builtin types.
func New(name string) *Model {
	obj := &Model{
		Name:  name,
		types: make(map[string]*Type),
		funcs: make(map[string]*Function),
		arena: NewArena(),
	}
	for _, t := range Builtins() {
		obj.types[t.Name] = t
	}
	return obj
}

// NewType adds a user defined type with the given guaranteed objects.
func (obj *Model) NewType(name string, guaranteed ...string) (*Type, error) {
	if _, exists := obj.types[name]; exists {
		return nil, fmt.Errorf("type %s already exists", name)
	}
	t := &Type{Name: name}
	for i, s := range guaranteed {
		t.Guaranteed = append(t.Guaranteed, &Object{Type: t, Name: s, Index: i})
	}
	obj.types[name] = t
	obj.userTypes = append(obj.userTypes, t)
	return t, nil
}

// AddFunction adds a random function.
func (obj *Model) AddFunction(f *Function) error {
	if f.RetType == nil {
		return fmt.Errorf("function %s has no return type", f.Name)
	}
	if f.Dependency == nil {
		return fmt.Errorf("function %s has no dependency model", f.Name)
	}
	if _, exists := obj.funcs[f.Name]; exists {
		return fmt.Errorf("function %s already exists", f.Name)
	}
	obj.funcs[f.Name] = f
	obj.funcList = append(obj.funcList, f)
	return nil
}

// AddPOP adds a population and registers it with its type.
func (obj *Model) AddPOP(p *POP) error {
	if p.Type == nil || p.Type.builtin {
		return fmt.Errorf("a POP must generate objects of a user defined type")
	}
	if len(p.OriginFuncs) != len(p.ArgTypes) {
		return fmt.Errorf("POP %s has mismatched origin functions", p)
	}
	if p.Dependency == nil {
		return fmt.Errorf("POP %s has no dependency model", p)
	}
	p.Type.POPs = append(p.Type.POPs, p)
	obj.pops = append(obj.pops, p)
	return nil
}

// Type returns the type with this name.
func (obj *Model) Type(name string) (*Type, error) {
	t, exists := obj.types[name]
	if !exists {
		return nil, errwrap.Wrapf(ErrUnknownType, "type %s", name)
	}
	return t, nil
}

// Types returns the user defined types in the order they were added.
func (obj *Model) Types() []*Type { return append([]*Type{}, obj.userTypes...) }

// Function returns the function with this name, or nil.
func (obj *Model) Function(name string) *Function { return obj.funcs[name] }

// Functions returns the functions in the order they were added.
func (obj *Model) Functions() []*Function { return append([]*Function{}, obj.funcList...) }

// POPs returns the populations in the order they were added.
func (obj *Model) POPs() []*POP { return append([]*POP{}, obj.pops...) }

// Arena returns the arena which interns this model's variables.
func (obj *Model) Arena() *Arena { return obj.arena }

// FuncApp returns the canonical variable for f applied to args.
func (obj *Model) FuncApp(f *Function, args ...Value) *Var { return obj.arena.FuncApp(f, args...) }

// Number returns the canonical number variable for p applied to args.
func (obj *Model) Number(p *POP, args ...Value) *Var { return obj.arena.Number(p, args...) }

// ListedTypes resolves a type list option. The value "none" gives no types,
// "all" gives every user defined type, and otherwise it is a comma separated
// list of type names.
func (obj *Model) ListedTypes(list string) ([]*Type, error) {
	list = strings.TrimSpace(list)
	switch list {
	case "", "none":
		return []*Type{}, nil
	case "all":
		return obj.Types(), nil
	}
	out := []*Type{}
	seen := make(map[*Type]struct{})
	for _, name := range strings.Split(list, ",") {
		t, err := obj.Type(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		if _, exists := seen[t]; exists {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// TypeOf returns the type of a value, or nil if it is not known.
func (obj *Model) TypeOf(v Value) *Type {
	switch x := v.(type) {
	case bool:
		return Boolean
	case int:
		return Integer
	case float64:
		return Real
	case string:
		return String
	case *Object:
		return x.Type
	case *Identifier:
		return x.Type
	case *NonGuaranteedObject:
		return x.Var.Pop.Type
	}
	return nil
}
