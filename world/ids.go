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
	"fmt"
	"sort"

	"github.com/bayeslog/blog/model"
	"github.com/bayeslog/blog/util/errwrap"
)

func sortIDs(ids []*model.Identifier) []*model.Identifier {
	sort.Slice(ids, func(i, j int) bool { return ids[i].N < ids[j].N })
	return ids
}

// POPAppSatisfied returns the number variable that a non-guaranteed object or
// a common-ground identifier satisfies. Guaranteed objects give nil.
func (obj *state) POPAppSatisfied(x model.Value) *model.Var {
	switch o := x.(type) {
	case *model.NonGuaranteedObject:
		return o.Var
	case *model.Identifier:
		if nv, exists := obj.commIDToPOPApp.Get(o); exists {
			return nv
		}
	}
	return nil
}

// AssertedIDs returns the identifiers asserted to satisfy nv, in the order
// they were asserted.
func (obj *state) AssertedIDs(nv *model.Var) []*model.Identifier {
	return obj.popAppToAssertedIDs.Get(nv)
}

// AssertedIdentifiers returns every asserted identifier.
func (obj *state) AssertedIdentifiers() []*model.Identifier {
	return sortIDs(obj.assertedIDToPOPApp.Keys())
}

// CommonIDs returns the common-ground identifiers of nv, asserted or not.
func (obj *state) CommonIDs(nv *model.Var) []*model.Identifier {
	return obj.popAppToCommIDs.Get(nv)
}

// IsOverloaded returns true if more identifiers are asserted to satisfy nv
// than its value allows.
func (obj *state) IsOverloaded(nv *model.Var) bool {
	n := obj.popAppToAssertedIDs.Len(nv)
	val, exists := obj.values.Get(nv)
	if !exists {
		return n > 0
	}
	num, _ := val.(int)
	return n > num
}

// AssertIdentifierTo asserts that id satisfies nv, moving it from whatever it
// satisfied before.
func (obj *state) AssertIdentifierTo(id *model.Identifier, nv *model.Var) error {
	if nv == nil || nv.Kind != model.KindNumber {
		return fmt.Errorf("identifier %s can only satisfy a number variable", id)
	}
	if id.Type != nv.Pop.Type {
		return fmt.Errorf("identifier %s cannot satisfy %s", id, nv)
	}

	old, _ := obj.commIDToPOPApp.Get(id)
	if old != nv {
		if val, exists := obj.values.Get(nv); exists {
			num, _ := val.(int)
			obj.trimNonAssertedIDs(nv, num, 1)
		}
		if old != nil {
			obj.popAppToCommIDs.Remove(old, id)
			obj.popAppToAssertedIDs.Remove(old, id)
		}
	}

	obj.commIDToPOPApp.Put(id, nv)
	obj.popAppToCommIDs.Add(nv, id)
	obj.assertedIDToPOPApp.Put(id, nv)
	obj.popAppToAssertedIDs.Add(nv, id)

	if origin := obj.model.Arena().Origin(id); obj.cbn.HasVertex(origin) {
		obj.dirty.Insert(origin) // so its children get updated
	}
	obj.tellIDChanged(id, old, nv)
	return nil
}

// AssertIdentifier asserts a common-ground identifier to satisfy the number
// variable it is already associated with.
func (obj *state) AssertIdentifier(id *model.Identifier) error {
	nv, exists := obj.commIDToPOPApp.Get(id)
	if !exists {
		return fmt.Errorf("identifier %s is not in the common ground", id)
	}
	if _, exists := obj.assertedIDToPOPApp.Get(id); exists {
		return nil
	}
	obj.assertedIDToPOPApp.Put(id, nv)
	obj.popAppToAssertedIDs.Add(nv, id)
	obj.tellIDChanged(id, nil, nv)
	return nil
}

// AddIdentifierFor creates a new identifier and asserts it to satisfy nv.
func (obj *state) AddIdentifierFor(nv *model.Var) *model.Identifier {
	id := obj.model.Arena().NewIdentifier(nv.Pop.Type)
	if val, exists := obj.values.Get(nv); exists {
		num, _ := val.(int)
		obj.trimNonAssertedIDs(nv, num, 1)
	}
	obj.commIDToPOPApp.Put(id, nv)
	obj.popAppToCommIDs.Add(nv, id)
	obj.assertedIDToPOPApp.Put(id, nv)
	obj.popAppToAssertedIDs.Add(nv, id)
	obj.tellIDChanged(id, nil, nv)
	return id
}

// addCommID creates a common-ground identifier for nv which is not asserted.
func (obj *state) addCommID(nv *model.Var) *model.Identifier {
	id := obj.model.Arena().NewIdentifier(nv.Pop.Type)
	obj.commIDToPOPApp.Put(id, nv)
	obj.popAppToCommIDs.Add(nv, id)
	return id
}

// RemoveIdentifier removes an identifier. If it was asserted, the variables
// which used it as an argument are uninstantiated.
func (obj *state) RemoveIdentifier(id *model.Identifier) {
	nv, exists := obj.commIDToPOPApp.Get(id)
	if !exists {
		return
	}
	obj.commIDToPOPApp.Delete(id)
	obj.popAppToCommIDs.Remove(nv, id)

	if _, asserted := obj.assertedIDToPOPApp.Get(id); !asserted {
		return
	}
	obj.assertedIDToPOPApp.Delete(id)
	obj.popAppToAssertedIDs.Remove(nv, id)
	obj.uninstantiateVarsUsing(id)
	obj.dirty.Insert(obj.model.Arena().Origin(id))
	obj.tellIDChanged(id, nv, nil)
}

func (obj *state) trimNonAssertedIDs(nv *model.Var, newValue, numNewAsserted int) {
	ids := obj.popAppToCommIDs.Get(nv)
	left := len(ids) + numNewAsserted - newValue
	remove := []*model.Identifier{}
	for _, id := range ids {
		if left <= 0 {
			break
		}
		if _, asserted := obj.assertedIDToPOPApp.Get(id); !asserted {
			remove = append(remove, id)
			left--
		}
	}
	for _, id := range remove {
		obj.RemoveIdentifier(id)
	}
}

func (obj *state) tellIDChanged(id *model.Identifier, old, nv *model.Var) {
	for _, l := range obj.listeners {
		l.IdentifierChanged(id, old, nv)
	}
}

// Satisfiers returns the objects which satisfy a number variable. The set is
// empty if a generating object is Null or doesn't exist, and it is an error
// if the number variable has no value although its generating objects exist.
func (obj *state) Satisfiers(nv *model.Var) (model.ObjectSet, error) {
	for _, arg := range nv.Args {
		if arg == model.Null {
			return model.ListSet{}, nil
		}
		ngo, ok := arg.(*model.NonGuaranteedObject)
		if !ok {
			continue
		}
		if val, exists := obj.values.Get(ngo.Var); exists {
			if num, _ := val.(int); num < ngo.N {
				return model.ListSet{}, nil // doesn't exist
			}
		}
	}
	if _, exists := obj.values.Get(nv); !exists {
		return nil, errwrap.Wrapf(ErrNumberVarNotInstantiated, "satisfiers of %s", nv)
	}
	if obj.UsesIdentifiers(nv.Pop.Type) {
		return &idSet{world: obj, nv: nv}, nil
	}
	return &ngoSet{world: obj, nv: nv}, nil
}

// idSet is the set of identifiers satisfying a number variable. Sampling an
// element past the known identifiers adds a new common-ground identifier.
type idSet struct {
	world *state
	nv    *model.Var
}

func (obj *idSet) Size() int {
	val, _ := obj.world.values.Get(obj.nv)
	num, _ := val.(int)
	if n := obj.world.popAppToAssertedIDs.Len(obj.nv); n > num {
		return n
	}
	return num
}

func (obj *idSet) Sample(n int) (model.Value, error) {
	if size := obj.Size(); n < 0 || n >= size {
		return nil, fmt.Errorf("can't get element %d of a set of size %d", n, size)
	}
	ids := obj.world.popAppToCommIDs.Get(obj.nv)
	for len(ids) <= n {
		ids = append(ids, obj.world.addCommID(obj.nv))
	}
	return ids[n], nil
}

func (obj *idSet) IndexOf(x model.Value) int {
	for i, id := range obj.world.popAppToCommIDs.Get(obj.nv) {
		if id == x {
			return i
		}
	}
	return -1
}

func (obj *idSet) Contains(x model.Value) bool {
	id, ok := x.(*model.Identifier)
	return ok && obj.world.popAppToAssertedIDs.Contains(obj.nv, id)
}

func (obj *idSet) Elements() []model.Value {
	out := []model.Value{}
	for i := 0; i < obj.Size(); i++ {
		x, err := obj.Sample(i)
		if err != nil {
			break
		}
		out = append(out, x)
	}
	return out
}

func (obj *idSet) String() string { return fmt.Sprintf("IDs satisfying %s", obj.nv) }

// ngoSet is the set of non-guaranteed objects generated by a number variable.
type ngoSet struct {
	world *state
	nv    *model.Var
}

func (obj *ngoSet) Size() int {
	val, _ := obj.world.values.Get(obj.nv)
	num, _ := val.(int)
	return num
}

func (obj *ngoSet) Sample(n int) (model.Value, error) {
	if size := obj.Size(); n < 0 || n >= size {
		return nil, fmt.Errorf("can't get element %d of a set of size %d", n, size)
	}
	return obj.world.model.Arena().NGO(obj.nv, n+1), nil
}

func (obj *ngoSet) IndexOf(x model.Value) int {
	ngo, ok := x.(*model.NonGuaranteedObject)
	if !ok || ngo.Var != obj.nv || ngo.N < 1 || ngo.N > obj.Size() {
		return -1
	}
	return ngo.N - 1
}

func (obj *ngoSet) Contains(x model.Value) bool { return obj.IndexOf(x) >= 0 }

func (obj *ngoSet) Elements() []model.Value {
	out := []model.Value{}
	for i := 1; i <= obj.Size(); i++ {
		out = append(out, obj.world.model.Arena().NGO(obj.nv, i))
	}
	return out
}

func (obj *ngoSet) String() string { return fmt.Sprintf("objects satisfying %s", obj.nv) }
