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
	"sort"
	"strings"
)

// Kind is the kind of a random variable.
type Kind int

const (
	// KindFuncApp is the application of a random function to arguments.
	KindFuncApp Kind = iota

	// KindNumber is the number of objects a POP generates for a tuple of
	// generating objects.
	KindNumber

	// KindDerived is a deterministic expression of other variables.
	KindDerived

	// KindOrigin is the value of an origin function on an identifier.
	KindOrigin
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindFuncApp:
		return "funcapp"
	case KindNumber:
		return "number"
	case KindDerived:
		return "derived"
	case KindOrigin:
		return "origin"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Var is a random variable. Variables are interned by an Arena, so two
// variables are equal exactly when the pointers are equal. Never build one by
// hand.
type Var struct {
	Kind Kind

	// Func is set for function applications.
	Func *Function

	// Pop is set for number variables.
	Pop *POP

	// Expr is set for derived variables.
	Expr Expr

	// ID is set for origin variables. The value of an origin variable is the
	// number variable which the identifier is asserted to satisfy.
	ID *Identifier

	// Args are the arguments of a function application or the generating
	// objects of a number variable.
	Args []Value

	index int
	str   string
	depth int
}

// Index is the creation order of the variable in its arena. It gives a total
// order which is used wherever iteration must be deterministic.
func (obj *Var) Index() int { return obj.index }

// String returns a readable name such as Color(Ball#1) or #Ball.
func (obj *Var) String() string { return obj.str }

// IsBasic returns true for variables which have their own distribution.
// Derived and origin variables are not basic.
func (obj *Var) IsBasic() bool {
	return obj.Kind == KindFuncApp || obj.Kind == KindNumber
}

// Depth is the largest depth of any argument.
func (obj *Var) Depth() int { return obj.depth }

// Type returns the type of the values of this variable.
func (obj *Var) Type() *Type {
	switch obj.Kind {
	case KindFuncApp:
		return obj.Func.RetType
	case KindNumber:
		return NaturalNum
	case KindOrigin:
		return nil
	}
	if t, ok := obj.Expr.(interface{ Type() *Type }); ok {
		return t.Type()
	}
	return nil
}

// Distrib asks the dependency model of a basic variable for its distribution
// given the context. A nil distribution with no error means it isn't
// determined by the context.
func (obj *Var) Distrib(ctx EvalContext) (*Distrib, error) {
	switch obj.Kind {
	case KindFuncApp:
		return obj.Func.Dependency.Distrib(ctx, obj.Args)
	case KindNumber:
		return obj.Pop.Dependency.Distrib(ctx, obj.Args)
	}
	return nil, fmt.Errorf("variable %s of kind %s has no distribution", obj, obj.Kind)
}

// Less orders variables by their creation index.
func Less(a, b *Var) bool { return a.index < b.index }

// SortVars sorts a list of variables in place and returns it.
func SortVars(vs []*Var) []*Var {
	sort.Slice(vs, func(i, j int) bool { return vs[i].index < vs[j].index })
	return vs
}

// VarsString formats a list of variables.
func VarsString(vs []*Var) string {
	s := []string{}
	for _, v := range vs {
		s = append(s, v.String())
	}
	return "[" + strings.Join(s, ", ") + "]"
}

func varName(v *Var) string {
	switch v.Kind {
	case KindFuncApp:
		if len(v.Args) == 0 {
			return v.Func.Name
		}
		return fmt.Sprintf("%s(%s)", v.Func.Name, ValuesString(v.Args))
	case KindNumber:
		if len(v.Args) == 0 {
			return "#" + v.Pop.Type.Name
		}
		parts := []string{}
		for i, arg := range v.Args {
			parts = append(parts, fmt.Sprintf("%s=%s", v.Pop.OriginFuncs[i], ValueString(arg)))
		}
		return fmt.Sprintf("#%s(%s)", v.Pop.Type.Name, strings.Join(parts, ", "))
	case KindOrigin:
		return fmt.Sprintf("Origin(%s)", v.ID)
	}
	return v.Expr.String()
}
