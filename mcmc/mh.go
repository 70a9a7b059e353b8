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

// Package mcmc holds the Markov chain Monte Carlo samplers. Metropolis-Hastings
// asks a proposer for a change to the current world and accepts or rejects
// it, and Gibbs resamples one variable from its conditional distribution when
// its range is finite.
package mcmc

import (
	"math"

	"github.com/bayeslog/blog/evidence"
	"github.com/bayeslog/blog/model"
	"github.com/bayeslog/blog/proposer"
	"github.com/bayeslog/blog/query"
	"github.com/bayeslog/blog/sample"
	"github.com/bayeslog/blog/util"
	"github.com/bayeslog/blog/util/errwrap"
	"github.com/bayeslog/blog/util/logmath"
	"github.com/bayeslog/blog/world"
)

// MHName is the registered name of the Metropolis-Hastings sampler.
const MHName = "mh"

// ErrInconsistentWorld is returned when a proposal leaves a number variable
// with too many identifiers or an identifier which no variable uses.
const ErrInconsistentWorld = util.Error("inconsistent identifiers in world")

func init() {
	sample.Register(MHName, func() sample.Sampler { return &MH{} })
}

// MH is the Metropolis-Hastings sampler. Every world it returns has weight
// one, and the sequence of worlds converges to the posterior.
type MH struct {
	// Proposer is used instead of the one named in the settings when it
	// is set.
	Proposer proposer.Proposer

	data     *sample.Data
	proposer proposer.Proposer

	ev       *evidence.Evidence
	curWorld *world.Diff

	latestLogAcceptRatio float64

	totalNumSamples      int
	totalNumAccepted     int
	numSamplesThisTrial  int
	numAcceptedThisTrial int
}

// Init passes in the settings and builds the proposer.
func (obj *MH) Init(data *sample.Data) error {
	if data.Logf == nil {
		data.Logf = util.NopLogf
	}
	obj.data = data
	obj.proposer = obj.Proposer
	if obj.proposer == nil {
		p, err := proposer.Lookup(data.ProposerClass)
		if err != nil {
			return err
		}
		obj.proposer = p
	}
	return obj.proposer.Init(data)
}

// Initialize starts a trial from a world in which the evidence is true.
func (obj *MH) Initialize(ev *evidence.Evidence, queries []query.Query) error {
	if obj.proposer == nil {
		return errwrap.Wrapf(sample.ErrNoSample, "sampler is not initialized")
	}
	obj.ev = ev
	obj.numSamplesThisTrial = 0
	obj.numAcceptedThisTrial = 0

	diff, err := obj.proposer.Initialize(ev, queries)
	if err != nil {
		return errwrap.Wrapf(err, "could not construct the initial world")
	}
	if err := validate(diff); err != nil {
		return errwrap.Wrapf(err, "bad identifiers in the initial world")
	}
	if err := diff.Save(); err != nil {
		return err
	}
	if !ev.IsTrue(diff) {
		return errwrap.Wrapf(ErrInconsistentWorld, "evidence is not true in the initial world")
	}
	obj.curWorld = diff
	return nil
}

// NextSample proposes a change to the current world and accepts or rejects
// it.
func (obj *MH) NextSample() error {
	d := obj.data
	if obj.curWorld == nil {
		return errwrap.Wrapf(sample.ErrNoSample, "sampler is not initialized")
	}
	if err := obj.curWorld.Save(); err != nil { // start from a saved world
		return err
	}
	obj.totalNumSamples++
	obj.numSamplesThisTrial++

	if d.Debug {
		d.Logf("proposing world...")
	}
	logProposalRatio, err := obj.proposer.ProposeNextState(obj.curWorld)
	if err != nil {
		return errwrap.Wrapf(err, "proposal failed")
	}
	if err := validate(obj.curWorld); err != nil {
		return errwrap.Wrapf(err, "bad identifiers in the proposed world")
	}
	return obj.acceptOrReject(logProposalRatio)
}

// acceptOrReject decides on the change in the current world given the log of
// the proposal ratio. On accept the change is saved, otherwise it's reverted.
func (obj *MH) acceptOrReject(logProposalRatio float64) error {
	d := obj.data
	logProbRatio, err := obj.logProbRatio(obj.curWorld)
	if err != nil {
		return err
	}
	obj.latestLogAcceptRatio = logProbRatio + logProposalRatio
	if d.Debug {
		d.Logf("log proposal ratio: %f, log probability ratio: %f, log acceptance ratio: %f", logProposalRatio, logProbRatio, obj.latestLogAcceptRatio)
	}

	if !logmath.Accept(obj.latestLogAcceptRatio, d.Rng) {
		obj.curWorld.Revert() // clean slate for the next proposal
		if d.Debug {
			d.Logf("rejected")
		}
		obj.proposer.UpdateStats(false)
		return nil
	}
	if err := obj.curWorld.Save(); err != nil {
		return err
	}
	if d.Debug {
		d.Logf("accepted")
	}
	obj.totalNumAccepted++
	obj.numAcceptedThisTrial++
	obj.proposer.UpdateStats(true)
	return nil
}

// logProbRatio returns the log of the posterior probability of the proposed
// world over that of the saved one. A proposed world in which the evidence is
// false, or in which a changed variable lost the support of a parent, has
// probability zero.
func (obj *MH) logProbRatio(diff *world.Diff) (float64, error) {
	d := obj.data
	if !obj.ev.IsTrue(diff) {
		return math.Inf(-1), nil
	}
	var logf func(format string, v ...interface{})
	if d.Debug {
		logf = d.Logf
	}
	ratio, err := logMultRatio(diff, logf)
	if err != nil {
		return 0, err
	}

	vars, err := diff.ChangedProbabilityVars()
	if err != nil {
		return 0, err
	}
	saved := diff.Saved()
	for _, v := range vars {
		oldLP, err := obj.logProbIn(saved, v)
		if err != nil {
			return 0, err
		}
		newLP, err := obj.logProbIn(diff, v)
		if errwrap.Cause(err) == world.ErrUnsupportedVar {
			// the proposal removed a parent this variable still needs
			if d.Debug {
				d.Logf("%s is not supported in the proposed world", v)
			}
			return math.Inf(-1), nil
		}
		if err != nil {
			return 0, err
		}
		if d.Debug {
			d.Logf("%s going from log prob %f to log prob %f", v, oldLP, newLP)
		}
		if oldLP != newLP {
			ratio -= oldLP
			ratio += newLP
		}
	}
	return ratio, nil
}

// logProbIn returns the log probability of v in w, which is minus infinity for
// an evidence variable which doesn't have its observed value.
func (obj *MH) logProbIn(w world.World, v *model.Var) (float64, error) {
	if obs, ok := obj.ev.ObservedValue(v); ok && w.Value(v) != obs {
		return math.Inf(-1), nil
	}
	return w.LogProbOfValue(v)
}

// validate returns ErrInconsistentWorld if the diff gave a number variable
// more identifiers than satisfiers, or left an identifier unused.
func validate(diff *world.Diff) error {
	var reterr error
	if nvs := diff.NewlyOverloadedNumberVars(); len(nvs) > 0 {
		reterr = errwrap.Append(reterr, errwrap.Wrapf(ErrInconsistentWorld, "number variables satisfied by too many identifiers: %s", model.VarsString(nvs)))
	}
	for _, id := range diff.NewlyFloatingIDs() {
		reterr = errwrap.Append(reterr, errwrap.Wrapf(ErrInconsistentWorld, "identifier %s is not the value of any basic variable", id))
	}
	return reterr
}

// LatestWorld returns the current world.
func (obj *MH) LatestWorld() (world.World, error) {
	if obj.curWorld == nil {
		return nil, sample.ErrNoSample
	}
	return obj.curWorld, nil
}

// LatestWeight is always one.
func (obj *MH) LatestWeight() float64 { return 1 }

// LatestLogWeight is always zero.
func (obj *MH) LatestLogWeight() float64 { return 0 }

// LatestLogAcceptRatio returns the log acceptance ratio of the latest
// proposal.
func (obj *MH) LatestLogAcceptRatio() float64 { return obj.latestLogAcceptRatio }

// Proposals returns the number of proposals and accepted ones this trial.
func (obj *MH) Proposals() (int, int) { return obj.numSamplesThisTrial, obj.numAcceptedThisTrial }

// PrintStats writes the acceptance rates and the statistics of the proposer.
func (obj *MH) PrintStats() {
	d := obj.data
	d.Logf("===== mh sampler stats =====")
	if obj.numSamplesThisTrial > 0 {
		d.Logf("fraction of proposals accepted (this trial): %f", float64(obj.numAcceptedThisTrial)/float64(obj.numSamplesThisTrial))
	}
	if obj.totalNumSamples > 0 {
		d.Logf("fraction of proposals accepted (running avg, all trials): %f", float64(obj.totalNumAccepted)/float64(obj.totalNumSamples))
	}
	if obj.proposer != nil {
		obj.proposer.PrintStats()
	}
}
