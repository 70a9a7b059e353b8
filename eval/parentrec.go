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

package eval

import (
	"github.com/bayeslog/blog/model"
	"github.com/bayeslog/blog/util/ds"
)

// ParentRec records the variables read during an evaluation, in the order
// they were first read, and the last variable which had no value. It never
// fails on a missing value. Worlds use it to find the parents of a variable.
type ParentRec struct {
	base

	parents      *ds.IndexedSet[*model.Var]
	latestUninst *model.Var
}

// NewParentRec builds a parent recording context.
func NewParentRec(w World) *ParentRec {
	obj := &ParentRec{parents: ds.NewIndexedSet[*model.Var]()}
	obj.setup(w, obj)
	obj.basic = obj.record
	obj.popApp = obj.recordOrigin
	return obj
}

func (obj *ParentRec) record(v *model.Var) (model.Value, error) {
	val := obj.world.Value(v)
	if val == nil {
		obj.latestUninst = v
		return nil, nil
	}
	obj.parents.Add(v)
	return val, nil
}

func (obj *ParentRec) recordOrigin(x model.Value) *model.Var {
	if id, ok := x.(*model.Identifier); ok {
		obj.parents.Add(obj.Model().Arena().Origin(id))
	}
	return obj.world.POPAppSatisfied(x)
}

// Parents returns the variables read so far which had values, in order.
func (obj *ParentRec) Parents() []*model.Var { return obj.parents.Slice() }

// LatestUninstParent returns the last variable read which had no value, or
// nil.
func (obj *ParentRec) LatestUninstParent() *model.Var { return obj.latestUninst }
