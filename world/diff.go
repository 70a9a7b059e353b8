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

	"github.com/bayeslog/blog/model"
	"github.com/bayeslog/blog/util/ds"
)

// DiffListener is told when a diff is saved or reverted.
type DiffListener interface {
	Saved()
	Reverted()
}

// Diff is a copy-on-write world over an underlying world. Reads fall through
// to the underlying world until overridden. Save writes the changes into the
// underlying world and Revert throws them away.
type Diff struct {
	*state

	saved         World
	diffListeners []DiffListener
}

// NewDiff returns a diff which represents no changes to underlying.
func NewDiff(underlying World) *Diff {
	u := underlying.base()
	return &Diff{
		state: &state{
			model:   u.model,
			idTypes: u.idTypes,

			values:      ds.NewMapDiff(u.values),
			usesAsValue: ds.NewMultiMapDiff(u.usesAsValue),
			usesAsArg:   ds.NewMultiMapDiff(u.usesAsArg),

			commIDToPOPApp:      ds.NewMapDiff(u.commIDToPOPApp),
			popAppToCommIDs:     ds.NewMultiMapDiff(u.popAppToCommIDs),
			assertedIDToPOPApp:  ds.NewMapDiff(u.assertedIDToPOPApp),
			popAppToAssertedIDs: ds.NewMultiMapDiff(u.popAppToAssertedIDs),

			cbn:            u.cbn.Patch(),
			uninstParent:   ds.NewMapDiff(u.uninstParent),
			uninstChildren: ds.NewMultiMapDiff(u.uninstChildren),
			logProbs:       ds.NewMapDiff(u.logProbs),
			derivedValues:  ds.NewMapDiff(u.derivedValues),

			dirty: ds.CopySet(u.dirty),
		},
		saved: underlying,
	}
}

// NewDiffCopying returns a diff over underlying whose contents are those of
// toCopy. No cascades run while copying, since toCopy is consistent already.
func NewDiffCopying(underlying, toCopy World) (*Diff, error) {
	if underlying.Model() != toCopy.Model() {
		return nil, fmt.Errorf("worlds have different models")
	}
	obj := NewDiff(underlying)
	tc := toCopy.base()

	for _, id := range obj.commIDToPOPApp.Keys() {
		if _, exists := tc.commIDToPOPApp.Get(id); !exists {
			obj.commIDToPOPApp.Delete(id)
			obj.assertedIDToPOPApp.Delete(id)
			obj.dirty.Insert(obj.model.Arena().Origin(id))
		}
	}
	for _, id := range tc.commIDToPOPApp.Keys() {
		nv, _ := tc.commIDToPOPApp.Get(id)
		obj.commIDToPOPApp.Put(id, nv)
		if _, asserted := tc.assertedIDToPOPApp.Get(id); asserted {
			obj.assertedIDToPOPApp.Put(id, nv)
		} else {
			obj.assertedIDToPOPApp.Delete(id)
		}
	}
	nvs := map[*model.Var]struct{}{}
	for _, nv := range append(obj.popAppToCommIDs.Keys(), tc.popAppToCommIDs.Keys()...) {
		nvs[nv] = struct{}{}
	}
	for nv := range nvs {
		obj.popAppToCommIDs.Set(nv, tc.popAppToCommIDs.Get(nv))
		obj.popAppToAssertedIDs.Set(nv, tc.popAppToAssertedIDs.Get(nv))
	}

	for _, v := range obj.InstantiatedVars() {
		if !tc.IsInstantiated(v) {
			obj.setRaw(v, nil)
		}
	}
	for _, v := range tc.InstantiatedVars() {
		obj.setRaw(v, tc.Value(v))
	}

	for _, v := range obj.DerivedVars() {
		if !tc.IsInstantiated(v) {
			obj.RemoveDerivedVar(v)
		}
	}
	for _, v := range tc.DerivedVars() {
		obj.AddDerivedVar(v)
	}
	return obj, nil
}

// setRaw changes a value without any cascade.
func (obj *Diff) setRaw(v *model.Var, value model.Value) {
	old, _ := obj.values.Get(v)
	if old == value {
		return
	}
	if value == nil {
		obj.values.Delete(v)
	} else {
		obj.values.Put(v, value)
	}
	obj.dirty.Insert(v)
	obj.updateUsage(v, old, value)
}

// Saved returns the underlying world.
func (obj *Diff) Saved() World { return obj.saved }

// AddDiffListener adds a listener for saves and reverts.
func (obj *Diff) AddDiffListener(l DiffListener) {
	for _, x := range obj.diffListeners {
		if x == l {
			return
		}
	}
	obj.diffListeners = append(obj.diffListeners, l)
}

// RemoveDiffListener removes a listener.
func (obj *Diff) RemoveDiffListener(l DiffListener) {
	for i, x := range obj.diffListeners {
		if x == l {
			obj.diffListeners = append(obj.diffListeners[:i], obj.diffListeners[i+1:]...)
			return
		}
	}
}

func (obj *Diff) overlays() []ds.Overlay {
	return []ds.Overlay{
		obj.values.(ds.Overlay),
		obj.usesAsValue.(ds.Overlay),
		obj.usesAsArg.(ds.Overlay),
		obj.assertedIDToPOPApp.(ds.Overlay),
		obj.popAppToAssertedIDs.(ds.Overlay),
	}
}

func (obj *Diff) cache() []ds.Overlay {
	return []ds.Overlay{
		obj.cbn,
		obj.uninstParent.(ds.Overlay),
		obj.uninstChildren.(ds.Overlay),
		obj.logProbs.(ds.Overlay),
		obj.derivedValues.(ds.Overlay),
	}
}

func (obj *Diff) commIDs() []ds.Overlay {
	return []ds.Overlay{
		obj.commIDToPOPApp.(ds.Overlay),
		obj.popAppToCommIDs.(ds.Overlay),
	}
}

// Save writes the changes into the underlying world. The listeners of the
// underlying world are then told about every variable and identifier which
// changed.
func (obj *Diff) Save() error {
	if err := obj.Refresh(); err != nil {
		return err
	}
	u := obj.saved.base()

	type varChange struct {
		v        *model.Var
		old, new model.Value
	}
	type idChange struct {
		id       *model.Identifier
		old, new *model.Var
	}
	varChanges := []varChange{}
	for _, v := range obj.ChangedVars() {
		old, _ := u.values.Get(v)
		val, _ := obj.values.Get(v)
		varChanges = append(varChanges, varChange{v: v, old: old, new: val})
	}
	idChanges := []idChange{}
	for _, id := range obj.idsWithChangedPOPApps() {
		old, _ := u.assertedIDToPOPApp.Get(id)
		nv, _ := obj.assertedIDToPOPApp.Get(id)
		idChanges = append(idChanges, idChange{id: id, old: old, new: nv})
	}

	for _, o := range obj.overlays() {
		o.Commit()
	}
	for _, o := range obj.commIDs() {
		o.Commit()
	}
	for _, o := range obj.cache() {
		o.Commit()
	}
	u.dirty = ds.NewHashSet[*model.Var]()
	obj.dirty = ds.NewHashSet[*model.Var]()

	for _, l := range u.listeners {
		for _, c := range idChanges {
			l.IdentifierChanged(c.id, c.old, c.new)
		}
		for _, c := range varChanges {
			l.VarChanged(c.v, c.old, c.new)
		}
	}
	for _, l := range obj.diffListeners {
		l.Saved()
	}
	return nil
}

// Revert throws away every change, so reads see the underlying world again.
func (obj *Diff) Revert() {
	obj.clear()
	for _, o := range obj.commIDs() {
		o.Clear()
	}
	for _, l := range obj.diffListeners {
		l.Reverted()
	}
}

func (obj *Diff) clear() {
	for _, o := range obj.overlays() {
		o.Clear()
	}
	for _, o := range obj.cache() {
		o.Clear()
	}
	obj.dirty = ds.CopySet(obj.saved.base().dirty)
}

func eqValue(a, b model.Value) bool { return a == b }

func eqVar(a, b *model.Var) bool { return a == b }

// ChangedVars returns the basic variables whose value differs from the
// underlying world.
func (obj *Diff) ChangedVars() []*model.Var {
	return model.SortVars(obj.values.(*ds.MapDiff[*model.Var, model.Value]).ChangedFunc(eqValue))
}

func (obj *Diff) idsWithChangedPOPApps() []*model.Identifier {
	m := obj.assertedIDToPOPApp.(*ds.MapDiff[*model.Identifier, *model.Var])
	return sortIDs(m.ChangedFunc(eqVar))
}

func (obj *Diff) popAppsWithChangedIDs() []*model.Var {
	m := obj.popAppToAssertedIDs.(*ds.MultiMapDiff[*model.Var, *model.Identifier])
	return model.SortVars(m.Changed())
}

// ChangedProbabilityVars returns the basic variables whose log probability
// differs from the underlying world, and the derived variables whose value
// does.
func (obj *Diff) ChangedProbabilityVars() ([]*model.Var, error) {
	if err := obj.Refresh(); err != nil {
		return nil, err
	}
	lps := obj.logProbs.(*ds.MapDiff[*model.Var, float64])
	out := lps.ChangedFunc(func(a, b float64) bool { return a == b })
	dvs := obj.derivedValues.(*ds.MapDiff[*model.Var, model.Value])
	out = append(out, dvs.ChangedFunc(eqValue)...)
	return model.SortVars(out), nil
}

// ChangedMultiplierVars returns the number variables whose count of
// satisfiers or asserted identifiers may have changed.
func (obj *Diff) ChangedMultiplierVars() []*model.Var {
	seen := map[*model.Var]struct{}{}
	out := []*model.Var{}
	add := func(v *model.Var) {
		if _, exists := seen[v]; !exists {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	for _, v := range obj.ChangedVars() {
		if v.Kind != model.KindNumber {
			continue
		}
		if len(obj.AssertedIDs(v)) > 0 || len(obj.saved.AssertedIDs(v)) > 0 {
			add(v)
		}
	}
	for _, v := range obj.popAppsWithChangedIDs() {
		add(v)
	}
	return model.SortVars(out)
}

// NewlyOverloadedNumberVars returns the number variables which are overloaded
// here but not in the underlying world.
func (obj *Diff) NewlyOverloadedNumberVars() []*model.Var {
	seen := map[*model.Var]struct{}{}
	out := []*model.Var{}
	check := func(nv *model.Var) {
		if _, exists := seen[nv]; exists {
			return
		}
		seen[nv] = struct{}{}
		if obj.IsOverloaded(nv) && !obj.saved.IsOverloaded(nv) {
			out = append(out, nv)
		}
	}
	for _, v := range obj.ChangedVars() {
		if v.Kind == model.KindNumber {
			check(v)
		}
	}
	for _, nv := range obj.popAppsWithChangedIDs() {
		check(nv)
	}
	return model.SortVars(out)
}

// NewlyFloatingIDs returns the identifiers which are used as arguments but no
// longer as the value of any variable, because of changes made here.
func (obj *Diff) NewlyFloatingIDs() []*model.Identifier {
	seen := map[*model.Identifier]struct{}{}
	out := []*model.Identifier{}
	add := func(id *model.Identifier) {
		if _, exists := seen[id]; !exists {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	for _, v := range obj.ChangedVars() {
		if obj.IsInstantiated(v) {
			for _, arg := range v.Args {
				id, ok := arg.(*model.Identifier)
				if !ok || len(obj.VarsWithValue(id)) > 0 {
					continue
				}
				if len(obj.saved.VarsWithArg(id)) == 0 || len(obj.saved.VarsWithValue(id)) > 0 {
					add(id)
				}
			}
		}
		id, ok := obj.saved.Value(v).(*model.Identifier)
		if !ok {
			continue
		}
		if _, asserted := obj.assertedIDToPOPApp.Get(id); !asserted {
			continue
		}
		if len(obj.VarsWithValue(id)) == 0 && len(obj.VarsWithArg(id)) > 0 {
			add(id)
		}
	}
	return sortIDs(out)
}

// NewlyBarrenVars returns the variables which have no children here but had
// some (or didn't exist) in the underlying world.
func (obj *Diff) NewlyBarrenVars() ([]*model.Var, error) {
	if err := obj.Refresh(); err != nil {
		return nil, err
	}
	return obj.cbn.NewlyBarren(), nil
}
