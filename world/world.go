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

// Package world contains partial worlds: assignments of values to some of the
// basic variables of a model, together with the bookkeeping needed to update
// them incrementally. A Default world owns its data, and a Diff is a
// copy-on-write layer over another world which can be saved into it or
// reverted.
package world

import (
	"fmt"
	"sort"

	"github.com/bayeslog/blog/eval"
	"github.com/bayeslog/blog/model"
	"github.com/bayeslog/blog/pgraph"
	"github.com/bayeslog/blog/util"
	"github.com/bayeslog/blog/util/ds"
)

// ErrNumberVarNotInstantiated is returned when the satisfiers of a number
// variable are needed but the number variable has no value.
const ErrNumberVarNotInstantiated = util.Error("number variable not instantiated")

// ErrUnsupportedVar is returned when the log probability of a variable is
// asked for while one of its parents is not instantiated.
const ErrUnsupportedVar = util.Error("variable is not supported")

// Listener is told about changes to a world.
type Listener interface {
	// VarChanged is called when a basic variable changes value. A nil
	// value means uninstantiated.
	VarChanged(v *model.Var, oldValue, newValue model.Value)

	// IdentifierChanged is called when an identifier is asserted to
	// satisfy a different number variable. A nil number variable means
	// none.
	IdentifierChanged(id *model.Identifier, oldPOPApp, newPOPApp *model.Var)
}

// World is a partial world. Both *Default and *Diff implement it.
type World interface {
	eval.World

	IsInstantiated(v *model.Var) bool
	InstantiatedVars() []*model.Var
	DerivedValue(v *model.Var) (model.Value, error)

	AssertIdentifierTo(id *model.Identifier, nv *model.Var) error
	AddIdentifierFor(nv *model.Var) *model.Identifier
	RemoveIdentifier(id *model.Identifier)
	AssertedIDs(nv *model.Var) []*model.Identifier
	AssertedIdentifiers() []*model.Identifier
	IsOverloaded(nv *model.Var) bool
	IDTypes() []*model.Type

	VarsWithValue(x model.Value) []*model.Var
	VarsWithArg(x model.Value) []*model.Var

	Refresh() error
	CBN() (*pgraph.Graph[*model.Var], error)
	LogProbOfValue(v *model.Var) (float64, error)
	ProbOfValue(v *model.Var) (float64, error)
	UninstParent(v *model.Var) (*model.Var, error)
	DerivedVars() []*model.Var
	AddDerivedVar(v *model.Var) bool
	RemoveDerivedVar(v *model.Var) bool

	AddListener(l Listener)
	RemoveListener(l Listener)

	Copy() *Default
	String() string

	base() *state
}

// state is everything a world stores. A Default world holds plain maps, and a
// Diff holds overlays of the maps of the world under it.
type state struct {
	model   *model.Model
	idTypes map[*model.Type]struct{}

	values      ds.Map[*model.Var, model.Value]
	usesAsValue ds.MultiMap[model.Value, *model.Var]
	usesAsArg   ds.MultiMap[model.Value, *model.Var]

	commIDToPOPApp      ds.Map[*model.Identifier, *model.Var]
	popAppToCommIDs     ds.MultiMap[*model.Var, *model.Identifier]
	assertedIDToPOPApp  ds.Map[*model.Identifier, *model.Var]
	popAppToAssertedIDs ds.MultiMap[*model.Var, *model.Identifier]

	cbn            *pgraph.Graph[*model.Var]
	uninstParent   ds.Map[*model.Var, *model.Var]
	uninstChildren ds.MultiMap[*model.Var, *model.Var]
	logProbs       ds.Map[*model.Var, float64]
	derivedValues  ds.Map[*model.Var, model.Value] // nil when undetermined

	dirty     ds.Set[*model.Var]
	listeners []Listener
}

func (obj *state) base() *state { return obj }

// Default is a world which owns all of its data.
type Default struct {
	*state
}

// New returns an empty world. Objects of the idTypes are represented with
// identifiers, the others with non-guaranteed objects.
func New(m *model.Model, idTypes []*model.Type) *Default {
	types := make(map[*model.Type]struct{})
	for _, t := range idTypes {
		types[t] = struct{}{}
	}
	return &Default{state: &state{
		model:   m,
		idTypes: types,

		values:      ds.NewHashMap[*model.Var, model.Value](),
		usesAsValue: ds.NewHashMultiMap[model.Value, *model.Var](),
		usesAsArg:   ds.NewHashMultiMap[model.Value, *model.Var](),

		commIDToPOPApp:      ds.NewHashMap[*model.Identifier, *model.Var](),
		popAppToCommIDs:     ds.NewHashMultiMap[*model.Var, *model.Identifier](),
		assertedIDToPOPApp:  ds.NewHashMap[*model.Identifier, *model.Var](),
		popAppToAssertedIDs: ds.NewHashMultiMap[*model.Var, *model.Identifier](),

		cbn:            pgraph.NewGraph[*model.Var]("cbn", model.Less),
		uninstParent:   ds.NewHashMap[*model.Var, *model.Var](),
		uninstChildren: ds.NewHashMultiMap[*model.Var, *model.Var](),
		logProbs:       ds.NewHashMap[*model.Var, float64](),
		derivedValues:  ds.NewHashMap[*model.Var, model.Value](),

		dirty: ds.NewHashSet[*model.Var](),
	}}
}

// Model returns the model of the world.
func (obj *state) Model() *model.Model { return obj.model }

// IDTypes returns the types which use identifiers, sorted by name.
func (obj *state) IDTypes() []*model.Type {
	out := []*model.Type{}
	for t := range obj.idTypes {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// UsesIdentifiers returns true if objects of the type are identifiers.
func (obj *state) UsesIdentifiers(t *model.Type) bool {
	_, exists := obj.idTypes[t]
	return exists
}

// Value returns the value of a variable, or nil. The value of an origin
// variable is the number variable its identifier satisfies, and the value of
// a derived variable is computed from the world.
func (obj *state) Value(v *model.Var) model.Value {
	switch v.Kind {
	case model.KindFuncApp, model.KindNumber:
		val, _ := obj.values.Get(v)
		return val
	case model.KindOrigin:
		if nv, exists := obj.commIDToPOPApp.Get(v.ID); exists && nv != nil {
			return nv
		}
		return nil
	}
	val, _ := obj.DerivedValue(v)
	return val
}

// DerivedValue evaluates a derived variable in the world.
func (obj *state) DerivedValue(v *model.Var) (model.Value, error) {
	if v.Kind != model.KindDerived {
		return nil, fmt.Errorf("variable %s is not derived", v)
	}
	return v.Expr.Eval(eval.New(obj, false))
}

// IsInstantiated returns true if a basic variable has a value, or a derived
// variable is tracked.
func (obj *state) IsInstantiated(v *model.Var) bool {
	if v.Kind == model.KindDerived {
		_, exists := obj.derivedValues.Get(v)
		return exists
	}
	_, exists := obj.values.Get(v)
	return exists
}

// InstantiatedVars returns the basic variables with values, in index order.
func (obj *state) InstantiatedVars() []*model.Var {
	return model.SortVars(obj.values.Keys())
}

// SetValue sets the value of a basic variable. A nil value uninstantiates it.
// Lowering a number variable uninstantiates the variables which used the
// objects that no longer exist.
func (obj *state) SetValue(v *model.Var, value model.Value) {
	if !v.IsBasic() {
		return
	}
	old, _ := obj.values.Get(v)
	if old == value {
		return
	}

	if v.Kind == model.KindNumber && old != nil {
		obj.prepareForNumberVarChange(v, old, value)
	}

	if value == nil {
		obj.values.Delete(v)
	} else {
		obj.values.Put(v, value)
	}
	obj.dirty.Insert(v)
	obj.updateUsage(v, old, value)

	for _, l := range obj.listeners {
		l.VarChanged(v, old, value)
	}
}

func (obj *state) updateUsage(v *model.Var, old, value model.Value) {
	if old == nil && value != nil {
		for _, arg := range v.Args {
			obj.usesAsArg.Add(arg, v)
		}
	} else if old != nil && value == nil {
		for _, arg := range v.Args {
			obj.usesAsArg.Remove(arg, v)
		}
	}
	if old != nil {
		obj.usesAsValue.Remove(old, v)
	}
	if value != nil {
		obj.usesAsValue.Add(value, v)
	}
}

func (obj *state) prepareForNumberVarChange(nv *model.Var, old, value model.Value) {
	oldNum, _ := old.(int)
	newNum, _ := value.(int) // nil counts as zero
	if obj.UsesIdentifiers(nv.Pop.Type) {
		obj.trimNonAssertedIDs(nv, newNum, 0)
		return
	}
	arena := obj.model.Arena()
	for i := newNum + 1; i <= oldNum; i++ {
		obj.uninstantiateVarsUsing(arena.NGO(nv, i))
	}
}

func (obj *state) uninstantiateVarsUsing(x model.Value) {
	for _, v := range model.SortVars(obj.usesAsArg.Get(x)) {
		obj.SetValue(v, nil)
	}
}

// VarsWithValue returns the basic variables whose value is x.
func (obj *state) VarsWithValue(x model.Value) []*model.Var {
	return model.SortVars(obj.usesAsValue.Get(x))
}

// VarsWithArg returns the basic variables with x as an argument.
func (obj *state) VarsWithArg(x model.Value) []*model.Var {
	return model.SortVars(obj.usesAsArg.Get(x))
}

// AddListener adds a world listener.
func (obj *state) AddListener(l Listener) {
	for _, x := range obj.listeners {
		if x == l {
			return
		}
	}
	obj.listeners = append(obj.listeners, l)
}

// RemoveListener removes a world listener.
func (obj *state) RemoveListener(l Listener) {
	for i, x := range obj.listeners {
		if x == l {
			obj.listeners = append(obj.listeners[:i], obj.listeners[i+1:]...)
			return
		}
	}
}

// Copy returns a Default world with the same contents. Listeners are not
// copied.
func (obj *state) Copy() *Default {
	idTypes := make(map[*model.Type]struct{})
	for t := range obj.idTypes {
		idTypes[t] = struct{}{}
	}
	return &Default{state: &state{
		model:   obj.model,
		idTypes: idTypes,

		values:      ds.CopyMap(obj.values),
		usesAsValue: ds.CopyMultiMap(obj.usesAsValue),
		usesAsArg:   ds.CopyMultiMap(obj.usesAsArg),

		commIDToPOPApp:      ds.CopyMap(obj.commIDToPOPApp),
		popAppToCommIDs:     ds.CopyMultiMap(obj.popAppToCommIDs),
		assertedIDToPOPApp:  ds.CopyMap(obj.assertedIDToPOPApp),
		popAppToAssertedIDs: ds.CopyMultiMap(obj.popAppToAssertedIDs),

		cbn:            obj.cbn.Copy(),
		uninstParent:   ds.CopyMap(obj.uninstParent),
		uninstChildren: ds.CopyMultiMap(obj.uninstChildren),
		logProbs:       ds.CopyMap(obj.logProbs),
		derivedValues:  ds.CopyMap(obj.derivedValues),

		dirty: ds.CopySet(obj.dirty),
	}}
}
