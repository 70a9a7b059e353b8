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
	"math"

	"github.com/bayeslog/blog/eval"
	"github.com/bayeslog/blog/evidence"
	"github.com/bayeslog/blog/model"
	"github.com/bayeslog/blog/query"
	"github.com/bayeslog/blog/util"
	"github.com/bayeslog/blog/util/errwrap"
	"github.com/bayeslog/blog/util/logmath"
	"github.com/bayeslog/blog/world"
)

// LWName is the registered name of the likelihood weighting sampler.
const LWName = "lw"

var logZero = math.Inf(-1)

func init() {
	Register(LWName, func() Sampler { return &LW{} })
}

// LW is the likelihood weighting sampler. The evidence variables are set to
// their observed values instead of being sampled, and each world is weighted
// by the probability of the evidence given what was sampled.
type LW struct {
	// BaseWorld is used instead of a fresh empty world when it is set.
	BaseWorld world.World

	// Listener is told about every variable sampled for the queries.
	Listener eval.Listener

	data *Data

	ev        *evidence.Evidence
	queryVars []*model.Var

	curWorld        world.World
	latestLogWeight float64

	totalNumSamples        int
	totalNumConsistent     int
	numSamplesThisTrial    int
	numConsistentThisTrial int
	logSumWeightsThisTrial float64
}

// Init passes in the settings.
func (obj *LW) Init(data *Data) error {
	if data.Logf == nil {
		data.Logf = util.NopLogf
	}
	obj.data = data
	return nil
}

// Initialize starts a new trial. The running totals over all the trials are
// kept.
func (obj *LW) Initialize(ev *evidence.Evidence, queries []query.Query) error {
	obj.ev = ev
	obj.queryVars = QueryVars(queries)
	obj.numSamplesThisTrial = 0
	obj.numConsistentThisTrial = 0
	obj.logSumWeightsThisTrial = logZero
	obj.curWorld = nil
	obj.latestLogWeight = logZero
	return nil
}

// NextSample builds a world around the evidence and the queries.
func (obj *LW) NextSample() error {
	d := obj.data
	if obj.ev == nil {
		return errwrap.Wrapf(ErrNoSample, "sampler is not initialized")
	}
	w := obj.BaseWorld
	if w == nil {
		w = world.New(d.Model, d.IDTypes)
	}
	obj.curWorld = w

	if err := obj.ev.SetAndEnsureSupported(w, d.Rng); err != nil {
		return errwrap.Wrapf(err, "could not support the evidence")
	}
	lw, err := obj.ev.LogProb(w)
	if err != nil {
		return errwrap.Wrapf(err, "could not weigh the evidence")
	}
	obj.latestLogWeight = lw

	ctx := eval.NewInstantiating(w, d.Rng)
	ctx.Listener = obj.Listener
	if err := eval.EnsureDetAndSupported(ctx, obj.queryVars); err != nil {
		return errwrap.Wrapf(err, "could not determine the queries")
	}

	obj.totalNumSamples++
	obj.numSamplesThisTrial++
	if lw > NegligibleLogWeight {
		obj.totalNumConsistent++
		obj.numConsistentThisTrial++
	}
	obj.logSumWeightsThisTrial = logmath.LogSum(obj.logSumWeightsThisTrial, lw)
	if d.Debug {
		d.Logf("sampled world with log weight %f", lw)
	}
	return nil
}

// LatestWorld returns the latest world.
func (obj *LW) LatestWorld() (world.World, error) {
	if obj.curWorld == nil {
		return nil, ErrNoSample
	}
	return obj.curWorld, nil
}

// LatestWeight returns the likelihood weight of the latest world.
func (obj *LW) LatestWeight() float64 { return math.Exp(obj.latestLogWeight) }

// LatestLogWeight returns the log likelihood weight of the latest world.
func (obj *LW) LatestLogWeight() float64 { return obj.latestLogWeight }

// NumSamples returns the number of worlds sampled in this trial, and how many
// of them had a weight which wasn't negligible.
func (obj *LW) NumSamples() (int, int) {
	return obj.numSamplesThisTrial, obj.numConsistentThisTrial
}

// PrintStats writes the average weight of this trial and the fraction of
// consistent worlds.
func (obj *LW) PrintStats() {
	d := obj.data
	d.Logf("=== lw trial stats ===")
	if n := obj.numSamplesThisTrial; n > 0 {
		logAvg := obj.logSumWeightsThisTrial - math.Log(float64(n))
		d.Logf("log of average likelihood weight (this trial): %f", logAvg)
		d.Logf("average likelihood weight (this trial): %f", math.Exp(logAvg))
		d.Logf("fraction of consistent worlds (this trial): %f", float64(obj.numConsistentThisTrial)/float64(n))
	}
	if obj.totalNumSamples == 0 {
		d.Logf("no samples yet")
		return
	}
	d.Logf("fraction of consistent worlds (running avg, all trials): %f", float64(obj.totalNumConsistent)/float64(obj.totalNumSamples))
}
