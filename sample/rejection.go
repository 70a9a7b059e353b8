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

package sample

import (
	"github.com/bayeslog/blog/eval"
	"github.com/bayeslog/blog/evidence"
	"github.com/bayeslog/blog/model"
	"github.com/bayeslog/blog/query"
	"github.com/bayeslog/blog/util"
	"github.com/bayeslog/blog/util/errwrap"
	"github.com/bayeslog/blog/world"
)

// RejectionName is the registered name of the rejection sampler.
const RejectionName = "rejection"

func init() {
	Register(RejectionName, func() Sampler { return &Rejection{} })
}

// Rejection samples worlds forward from the prior, instantiating supported
// variables one at a time until the evidence and queries are determined. A
// world has weight one if the evidence holds in it and zero otherwise.
type Rejection struct {
	data *Data

	ev              *evidence.Evidence
	queryVars       []*model.Var
	requireComplete bool

	curWorld    *world.InProgress
	curAccepted bool

	numSamplesThisTrial  int
	numAcceptedThisTrial int
}

// Init passes in the settings.
func (obj *Rejection) Init(data *Data) error {
	if data.Logf == nil {
		data.Logf = util.NopLogf
	}
	obj.data = data
	return nil
}

// Initialize starts a trial which samples until the evidence and the queries
// are determined.
func (obj *Rejection) Initialize(ev *evidence.Evidence, queries []query.Query) error {
	obj.ev = ev
	obj.queryVars = QueryVars(queries)
	obj.requireComplete = false
	obj.reset()
	return nil
}

// InitializeCompleteSampling starts a trial without evidence or queries in
// which every world is sampled until it is complete up to the bounds.
func (obj *Rejection) InitializeCompleteSampling() error {
	obj.ev = &evidence.Evidence{}
	obj.queryVars = nil
	obj.requireComplete = true
	obj.reset()
	return nil
}

func (obj *Rejection) reset() {
	obj.curWorld = nil
	obj.curAccepted = false
	obj.numSamplesThisTrial = 0
	obj.numAcceptedThisTrial = 0
}

func (obj *Rejection) sufficient() bool {
	if obj.requireComplete {
		return obj.curWorld.IsComplete()
	}
	if !obj.ev.IsDetermined(obj.curWorld) {
		return false
	}
	ctx := eval.New(obj.curWorld, false)
	for _, v := range obj.queryVars {
		if val, err := ctx.Value(v); err != nil || val == nil {
			return false
		}
	}
	return true
}

// NextSample samples a fresh world.
func (obj *Rejection) NextSample() error {
	d := obj.data
	if obj.ev == nil {
		return errwrap.Wrapf(ErrNoSample, "sampler is not initialized")
	}
	w := world.NewInProgress(d.Model, d.IDTypes, d.IntBound, d.DepthBound)
	obj.curWorld = w
	if d.Debug {
		d.Logf("sampling world...")
	}

	for !obj.sufficient() {
		if w.IsComplete() {
			return ErrIncompleteWorld
		}
		instantiated, err := obj.instantiateOne(w)
		if err != nil {
			return err
		}
		if instantiated {
			continue
		}
		if d.IntBound >= 0 || d.DepthBound >= 0 {
			return errwrap.Wrapf(ErrNoSupportedVar, "check for a cycle in the model, or the intBound and depthBound settings")
		}
		return errwrap.Wrapf(ErrNoSupportedVar, "check for a cycle in the model")
	}

	obj.curAccepted = obj.ev.IsTrue(w)
	obj.numSamplesThisTrial++
	if obj.curAccepted {
		obj.numAcceptedThisTrial++
	}
	return nil
}

// instantiateOne samples the first supported uninstantiated variable. It
// returns false if there is none.
func (obj *Rejection) instantiateOne(w *world.InProgress) (bool, error) {
	d := obj.data
	for _, v := range w.UninstVars() {
		distrib, err := v.Distrib(eval.New(w, false))
		if err != nil {
			return false, errwrap.Wrapf(err, "could not get distribution of %s", v)
		}
		if distrib == nil {
			if d.Debug {
				d.Logf("not supported yet: %s", v)
			}
			continue
		}
		val, err := distrib.Sample(d.Rng)
		if err != nil {
			return false, errwrap.Wrapf(err, "could not sample %s", v)
		}
		for _, x := range append(append([]model.Value{}, v.Args...), val) {
			if id, ok := x.(*model.Identifier); ok {
				if err := w.AssertIdentifier(id); err != nil {
					return false, err
				}
			}
		}
		if d.Debug {
			d.Logf("instantiating: %s = %s", v, model.ValueString(val))
		}
		w.SetValue(v, val)
		return true, nil
	}
	return false, nil
}

// LatestWorld returns the latest world.
func (obj *Rejection) LatestWorld() (world.World, error) {
	if obj.curWorld == nil {
		return nil, ErrNoSample
	}
	return obj.curWorld, nil
}

// LatestWeight is one if the evidence holds in the latest world, and zero
// otherwise.
func (obj *Rejection) LatestWeight() float64 {
	if obj.curAccepted {
		return 1
	}
	return 0
}

// LatestLogWeight is the log of LatestWeight.
func (obj *Rejection) LatestLogWeight() float64 {
	if obj.curAccepted {
		return 0
	}
	return logZero
}

// PrintStats writes the fraction of accepted worlds.
func (obj *Rejection) PrintStats() {
	d := obj.data
	d.Logf("=== rejection sampler trial stats ===")
	if obj.numSamplesThisTrial == 0 {
		d.Logf("no samples this trial")
		return
	}
	d.Logf("fraction of worlds accepted (this trial): %f", float64(obj.numAcceptedThisTrial)/float64(obj.numSamplesThisTrial))
}
