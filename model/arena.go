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

// Arena interns the variables and non-guaranteed objects of a model, and
// numbers its identifiers. It only ever grows. The zero value is not usable,
// use NewArena.
type Arena struct {
	vars   map[string]*Var
	list   []*Var
	ngos   map[string]*NonGuaranteedObject
	nextID int
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{
		vars: make(map[string]*Var),
		ngos: make(map[string]*NonGuaranteedObject),
	}
}

// Len returns the number of interned variables.
func (obj *Arena) Len() int { return len(obj.list) }

// Var returns the variable with this index.
func (obj *Arena) Var(index int) *Var { return obj.list[index] }

func (obj *Arena) intern(key string, v *Var) *Var {
	if x, exists := obj.vars[key]; exists {
		return x
	}
	v.index = len(obj.list)
	for _, arg := range v.Args {
		if d := Depth(arg); d > v.depth {
			v.depth = d
		}
	}
	v.str = varName(v)
	obj.vars[key] = v
	obj.list = append(obj.list, v)
	return v
}

// FuncApp returns the variable for f applied to args.
func (obj *Arena) FuncApp(f *Function, args ...Value) *Var {
	k := "f:" + f.Name + "(" + keys(args) + ")"
	return obj.intern(k, &Var{Kind: KindFuncApp, Func: f, Args: args})
}

// Number returns the number variable for p applied to the generating objects.
func (obj *Arena) Number(p *POP, args ...Value) *Var {
	k := fmt.Sprintf("n:%p(%s)", p, keys(args))
	return obj.intern(k, &Var{Kind: KindNumber, Pop: p, Args: args})
}

// Derived returns the derived variable for an expression. Expressions are
// identified by their string form.
func (obj *Arena) Derived(e Expr) *Var {
	return obj.intern("d:"+e.String(), &Var{Kind: KindDerived, Expr: e})
}

// Origin returns the origin variable of an identifier.
func (obj *Arena) Origin(id *Identifier) *Var {
	return obj.intern("o:"+key(id), &Var{Kind: KindOrigin, ID: id})
}

// NGO returns the n'th object generated by the number variable nv.
func (obj *Arena) NGO(nv *Var, n int) *NonGuaranteedObject {
	k := strconv.Itoa(nv.index) + "#" + strconv.Itoa(n)
	if x, exists := obj.ngos[k]; exists {
		return x
	}
	x := &NonGuaranteedObject{Var: nv, N: n, depth: nv.depth + 1}
	obj.ngos[k] = x
	return x
}

// NewIdentifier returns a fresh identifier of the type.
func (obj *Arena) NewIdentifier(t *Type) *Identifier {
	obj.nextID++
	return &Identifier{Type: t, N: obj.nextID}
}

func keys(args []Value) string {
	s := []string{}
	for _, a := range args {
		s = append(s, key(a))
	}
	return strings.Join(s, ",")
}

// key returns a string which is equal for two values exactly when the values
// are equal.
func key(v Value) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case bool:
		return "b:" + strconv.FormatBool(x)
	case int:
		return "i:" + strconv.Itoa(x)
	case float64:
		return "r:" + strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return "s:" + strconv.Quote(x)
	case *nullObject:
		return "null"
	case *Object:
		return fmt.Sprintf("o:%p", x)
	case *Identifier:
		return fmt.Sprintf("id:%p", x)
	case *NonGuaranteedObject:
		return fmt.Sprintf("ngo:%p", x)
	case *Var:
		return "v:" + strconv.Itoa(x.index)
	}
	return fmt.Sprintf("%T:%v", v, v)
}
