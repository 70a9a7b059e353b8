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

package world

import (
	"github.com/bayeslog/blog/model"
)

// InProgress is a world which knows which basic variables it is still
// missing. Objects are enumerated by type: guaranteed objects, the objects
// satisfying instantiated number variables, and for the integer types a
// range which grows while it is unbounded.
type InProgress struct {
	*Default

	// IntBound limits the integer objects to [-IntBound, IntBound]. A
	// negative value means unbounded.
	IntBound int

	// DepthBound limits the depth of non-guaranteed objects. A negative
	// value means unbounded.
	DepthBound int

	intLimit int
}

// NewInProgress returns an empty world in progress.
func NewInProgress(m *model.Model, idTypes []*model.Type, intBound, depthBound int) *InProgress {
	return &InProgress{
		Default:    New(m, idTypes),
		IntBound:   intBound,
		DepthBound: depthBound,
	}
}

func (obj *InProgress) intRange() int {
	if obj.IntBound >= 0 {
		return obj.IntBound
	}
	return obj.intLimit
}

// needsInts returns true if any function or POP takes an integer argument.
func (obj *InProgress) needsInts() bool {
	isInt := func(t *model.Type) bool { return t == model.Integer || t == model.NaturalNum }
	for _, f := range obj.model.Functions() {
		for _, t := range f.ArgTypes {
			if isInt(t) {
				return true
			}
		}
	}
	for _, p := range obj.model.POPs() {
		for _, t := range p.ArgTypes {
			if isInt(t) {
				return true
			}
		}
	}
	return false
}

// objects returns the objects of every type which can be enumerated now.
func (obj *InProgress) objects() map[*model.Type][]model.Value {
	objs := make(map[*model.Type][]model.Value)
	seen := make(map[model.Value]struct{})
	add := func(t *model.Type, x model.Value) bool {
		if _, exists := seen[x]; exists {
			return false
		}
		seen[x] = struct{}{}
		objs[t] = append(objs[t], x)
		return true
	}

	objs[model.Boolean] = []model.Value{true, false}
	n := obj.intRange()
	for i := 0; i <= n; i++ {
		objs[model.NaturalNum] = append(objs[model.NaturalNum], i)
	}
	for i := -n; i <= n; i++ {
		objs[model.Integer] = append(objs[model.Integer], i)
	}
	for _, t := range obj.model.Types() {
		for _, x := range t.Guaranteed {
			add(t, x)
		}
	}

	// satisfiers may take arguments of their own type, so go to a fixpoint
	for changed := true; changed; {
		changed = false
		for _, p := range obj.model.POPs() {
			for _, args := range tuples(objs, p.ArgTypes) {
				nv := obj.model.Number(p, args...)
				if !obj.IsInstantiated(nv) {
					continue
				}
				set, err := obj.Satisfiers(nv)
				if err != nil {
					continue
				}
				for _, x := range set.Elements() {
					if obj.DepthBound >= 0 && model.Depth(x) > obj.DepthBound {
						continue
					}
					if add(p.Type, x) {
						changed = true
					}
				}
			}
		}
	}
	return objs
}

// tuples returns every combination of objects of the types, in order.
func tuples(objs map[*model.Type][]model.Value, types []*model.Type) [][]model.Value {
	out := [][]model.Value{{}}
	for _, t := range types {
		next := [][]model.Value{}
		for _, prefix := range out {
			for _, x := range objs[t] {
				tuple := append(append([]model.Value{}, prefix...), x)
				next = append(next, tuple)
			}
		}
		out = next
	}
	return out
}

func (obj *InProgress) uninstVars() []*model.Var {
	objs := obj.objects()
	out := []*model.Var{}
	for _, p := range obj.model.POPs() {
		for _, args := range tuples(objs, p.ArgTypes) {
			if nv := obj.model.Number(p, args...); !obj.IsInstantiated(nv) {
				out = append(out, nv)
			}
		}
	}
	for _, f := range obj.model.Functions() {
		for _, args := range tuples(objs, f.ArgTypes) {
			if v := obj.model.FuncApp(f, args...); !obj.IsInstantiated(v) {
				out = append(out, v)
			}
		}
	}
	return out
}

// maxGrowth is how many times UninstVars grows the integer range in one call
// before it gives up.
const maxGrowth = 100

// UninstVars returns the basic variables over the objects enumerated so far
// which have no value. When there are none and the integer range is
// unbounded, the range is grown until some appear.
func (obj *InProgress) UninstVars() []*model.Var {
	out := obj.uninstVars()
	if len(out) > 0 || obj.IntBound >= 0 || !obj.needsInts() {
		return out
	}
	for i := 0; len(out) == 0 && i < maxGrowth; i++ {
		obj.intLimit++
		out = obj.uninstVars()
	}
	return out
}

// IsComplete returns true if every basic variable the world can ever
// enumerate has a value.
func (obj *InProgress) IsComplete() bool {
	if obj.IntBound < 0 && obj.needsInts() {
		return false
	}
	return len(obj.uninstVars()) == 0
}
