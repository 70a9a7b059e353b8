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
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/bayeslog/blog/eval"
	"github.com/bayeslog/blog/model"
	"github.com/bayeslog/blog/pgraph"
	"github.com/bayeslog/blog/util/ds"
	"github.com/bayeslog/blog/util/errwrap"
)

// Refresh recomputes the parents, the first uninstantiated parent, and the
// log probability (or derived value) of every dirty variable. The children of
// a dirty variable, and the variables blocked on it, are dirty too. A derived
// variable whose value changes dirties its own children in turn.
func (obj *state) Refresh() error {
	if obj.dirty.Size() == 0 {
		return nil
	}
	pending := ds.NewHashSet[*model.Var]()
	for _, v := range obj.dirty.Slice() {
		pending.Insert(v)
		for _, c := range obj.cbn.OutgoingGraphVertices(v) {
			pending.Insert(c)
		}
		for _, c := range obj.uninstChildren.Get(v) {
			pending.Insert(c)
		}
	}

	done := ds.NewHashSet[*model.Var]()
	for pending.Size() > 0 {
		vars := model.SortVars(pending.Slice())
		pending = ds.NewHashSet[*model.Var]()
		for _, v := range vars {
			if !done.Insert(v) {
				continue
			}
			changed, err := obj.refreshVar(v)
			if err != nil {
				return err
			}
			if !changed {
				continue
			}
			for _, c := range obj.cbn.OutgoingGraphVertices(v) {
				if !done.Contains(c) {
					pending.Insert(c)
				}
			}
		}
	}
	obj.dirty = ds.NewHashSet[*model.Var]()
	return nil
}

// refreshVar updates the cached information of one variable. It returns true
// if v is a derived variable whose value changed.
func (obj *state) refreshVar(v *model.Var) (bool, error) {
	switch {
	case v.IsBasic() && !obj.IsInstantiated(v):
		obj.cbn.DeleteVertex(v)
		obj.logProbs.Delete(v)
		obj.setUninstParent(v, nil)
		return false, nil

	case v.Kind == model.KindOrigin:
		if _, asserted := obj.assertedIDToPOPApp.Get(v.ID); !asserted {
			obj.cbn.DeleteVertex(v)
			obj.setUninstParent(v, nil)
			return false, nil
		}
		obj.cbn.AddVertex(v)
		return false, nil

	case v.Kind == model.KindDerived && !obj.cbn.HasVertex(v):
		return false, nil // no longer tracked
	}

	ctx := eval.NewParentRec(obj)
	changed := false
	if v.IsBasic() {
		d, err := v.Distrib(ctx)
		if err != nil {
			return false, errwrap.Wrapf(err, "could not get distribution of %s", v)
		}
		if d == nil {
			obj.logProbs.Delete(v)
		} else {
			val, _ := obj.values.Get(v)
			lp, err := d.LogProb(val)
			if err != nil {
				return false, errwrap.Wrapf(err, "could not score %s", v)
			}
			obj.logProbs.Put(v, lp)
		}
	} else {
		val, err := ctx.Value(v)
		if err != nil {
			return false, errwrap.Wrapf(err, "could not evaluate %s", v)
		}
		old, _ := obj.derivedValues.Get(v)
		changed = old != val
		obj.derivedValues.Put(v, val)
	}
	obj.cbn.SetParents(v, ctx.Parents())
	obj.setUninstParent(v, ctx.LatestUninstParent())
	return changed, nil
}

func (obj *state) setUninstParent(v, parent *model.Var) {
	if old, exists := obj.uninstParent.Get(v); exists {
		if old == parent {
			return
		}
		obj.uninstChildren.Remove(old, v)
	}
	if parent == nil {
		obj.uninstParent.Delete(v)
		return
	}
	obj.uninstParent.Put(v, parent)
	obj.uninstChildren.Add(parent, v)
}

// CBN returns the refreshed dependency graph of the world.
func (obj *state) CBN() (*pgraph.Graph[*model.Var], error) {
	if err := obj.Refresh(); err != nil {
		return nil, err
	}
	return obj.cbn, nil
}

// UninstParent returns the first uninstantiated parent that v is blocked on,
// or nil if v is supported.
func (obj *state) UninstParent(v *model.Var) (*model.Var, error) {
	if err := obj.Refresh(); err != nil {
		return nil, err
	}
	p, _ := obj.uninstParent.Get(v)
	return p, nil
}

// LogProbOfValue returns the log probability of the value of an instantiated
// basic variable given its parents. It errors if the variable isn't
// supported. Other variables give zero.
func (obj *state) LogProbOfValue(v *model.Var) (float64, error) {
	if !v.IsBasic() || !obj.IsInstantiated(v) {
		return 0, nil
	}
	if err := obj.Refresh(); err != nil {
		return math.Inf(-1), err
	}
	lp, exists := obj.logProbs.Get(v)
	if !exists {
		p, _ := obj.uninstParent.Get(v)
		return math.Inf(-1), errwrap.Wrapf(ErrUnsupportedVar, "can't get log prob of %s because it depends on %v, which is not instantiated", v, p)
	}
	return lp, nil
}

// ProbOfValue is the exponential of LogProbOfValue.
func (obj *state) ProbOfValue(v *model.Var) (float64, error) {
	lp, err := obj.LogProbOfValue(v)
	return math.Exp(lp), err
}

// DerivedVars returns the derived variables tracked by the world.
func (obj *state) DerivedVars() []*model.Var {
	return model.SortVars(obj.derivedValues.Keys())
}

// AddDerivedVar starts tracking a derived variable in the dependency graph.
// It returns false if it was already tracked.
func (obj *state) AddDerivedVar(v *model.Var) bool {
	if v.Kind != model.KindDerived || !obj.cbn.AddVertex(v) {
		return false
	}
	obj.derivedValues.Put(v, nil)
	obj.dirty.Insert(v)
	return true
}

// RemoveDerivedVar stops tracking a derived variable.
func (obj *state) RemoveDerivedVar(v *model.Var) bool {
	if !obj.cbn.DeleteVertex(v) {
		return false
	}
	obj.derivedValues.Delete(v)
	obj.setUninstParent(v, nil)
	obj.dirty.Remove(v)
	return true
}

// Print writes each instantiated variable with its value and parents.
func (obj *state) Print(w io.Writer) error {
	cbn, err := obj.CBN()
	if err != nil {
		return err
	}
	for _, v := range obj.InstantiatedVars() {
		val, _ := obj.values.Get(v)
		if _, err := fmt.Fprintf(w, "%s = %s\n", v, model.ValueString(val)); err != nil {
			return err
		}
		for _, p := range cbn.IncomingGraphVertices(v) {
			if _, err := fmt.Fprintf(w, "\t<- %s\n", p); err != nil {
				return err
			}
		}
	}
	return nil
}

// String returns the basic and derived values, without refreshing.
func (obj *state) String() string {
	buf := &bytes.Buffer{}
	buf.WriteString("{")
	for i, v := range obj.InstantiatedVars() {
		if i > 0 {
			buf.WriteString(", ")
		}
		val, _ := obj.values.Get(v)
		fmt.Fprintf(buf, "%s=%s", v, model.ValueString(val))
	}
	buf.WriteString("}")
	if derived := obj.DerivedVars(); len(derived) > 0 {
		buf.WriteString(" derived {")
		for i, v := range derived {
			if i > 0 {
				buf.WriteString(", ")
			}
			val, _ := obj.derivedValues.Get(v)
			fmt.Fprintf(buf, "%s=%s", v, model.ValueString(val))
		}
		buf.WriteString("}")
	}
	return buf.String()
}
