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
	"strconv"
	"strings"
)

// Value is the value of a variable or an expression in a world. It is one of
// bool, int, float64, string, *Object, *Identifier, *NonGuaranteedObject, *Var
// (the value of an origin variable) or Null. A nil Value means that there is
// no value at all.
type Value interface{}

type nullObject struct{ name string }

func (obj *nullObject) String() string { return obj.name }

// Null is the value of a function application which doesn't refer to any
// object.
var Null Value = &nullObject{name: "null"}

// Object is a guaranteed object of a user defined type.
type Object struct {
	Type  *Type
	Name  string
	Index int
}

// String returns the name of the object.
func (obj *Object) String() string { return obj.Name }

// Identifier is an opaque name for a non-guaranteed object. Worlds that use
// identifiers assert which POP application each identifier satisfies.
type Identifier struct {
	Type *Type
	N    int
}

// String returns something like Aircraft#3.
func (obj *Identifier) String() string { return fmt.Sprintf("%s#%d", obj.Type.Name, obj.N) }

// NonGuaranteedObject is the n'th object (counting from 1) generated by the
// application of a POP to a tuple of generating objects. It exists in a world
// if the number variable has a value of at least n.
type NonGuaranteedObject struct {
	// Var is the number variable of the generating POP application.
	Var *Var
	N   int

	depth int
}

// String returns something like (Blip, Source=(Aircraft, 1), 2).
func (obj *NonGuaranteedObject) String() string {
	pop := obj.Var.Pop
	parts := []string{pop.Type.Name}
	for i, arg := range obj.Var.Args {
		parts = append(parts, fmt.Sprintf("%s=%s", pop.OriginFuncs[i], ValueString(arg)))
	}
	parts = append(parts, strconv.Itoa(obj.N))
	return "(" + strings.Join(parts, ", ") + ")"
}

// Depth is the number of POP applications nested inside this object.
func (obj *NonGuaranteedObject) Depth() int { return obj.depth }

// Depth returns the depth of a value. Only non-guaranteed objects have a
// depth greater than zero.
func Depth(v Value) int {
	if ngo, ok := v.(*NonGuaranteedObject); ok {
		return ngo.depth
	}
	return 0
}

// ValueString formats a value for display.
func ValueString(v Value) string {
	switch x := v.(type) {
	case nil:
		return "<nil>"
	case fmt.Stringer:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	}
	return fmt.Sprintf("%v", v)
}

// ValuesString formats a list of values, comma separated.
func ValuesString(vs []Value) string {
	s := []string{}
	for _, v := range vs {
		s = append(s, ValueString(v))
	}
	return strings.Join(s, ", ")
}

// ObjectSet is a set of objects with a fixed order, such as the satisfiers of
// a number variable.
type ObjectSet interface {
	fmt.Stringer

	// Size returns the number of elements.
	Size() int

	// Sample returns the element at index n, which must be in [0, Size).
	Sample(n int) (Value, error)

	// IndexOf returns the position of v, or -1.
	IndexOf(v Value) int

	// Contains returns true if v is in the set.
	Contains(v Value) bool

	// Elements returns the elements in order.
	Elements() []Value
}

// ListSet is an ObjectSet backed by a slice.
type ListSet []Value

// Size returns the number of elements.
func (obj ListSet) Size() int { return len(obj) }

// Sample returns the element at index n.
func (obj ListSet) Sample(n int) (Value, error) {
	if n < 0 || n >= len(obj) {
		return nil, fmt.Errorf("index %d out of range for set of size %d", n, len(obj))
	}
	return obj[n], nil
}

// IndexOf returns the position of v, or -1.
func (obj ListSet) IndexOf(v Value) int {
	for i, x := range obj {
		if x == v {
			return i
		}
	}
	return -1
}

// Contains returns true if v is in the set.
func (obj ListSet) Contains(v Value) bool { return obj.IndexOf(v) >= 0 }

// Elements returns a copy of the elements.
func (obj ListSet) Elements() []Value { return append([]Value{}, obj...) }

// String returns something like {a, b, c}.
func (obj ListSet) String() string { return "{" + ValuesString(obj) + "}" }
