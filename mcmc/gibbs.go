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

package mcmc

import (
	"math"

	"github.com/bayeslog/blog/eval"
	"github.com/bayeslog/blog/model"
	"github.com/bayeslog/blog/sample"
	"github.com/bayeslog/blog/util/errwrap"
	"github.com/bayeslog/blog/util/logmath"
	"github.com/bayeslog/blog/world"
)

// GibbsName is the registered name of the Gibbs sampler.
const GibbsName = "gibbs"

func init() {
	sample.Register(GibbsName, func() sample.Sampler { return &Gibbs{} })
}

// Gibbs picks an instantiated non-evidence variable at random. If it is a
// function application with a finite range, every value of the range is tried
// in a world reduced to what the evidence, the queries and the variable need,
// and one of those worlds is picked in proportion to its probability. Any
// other variable gets a Metropolis-Hastings step.
type Gibbs struct {
	MH

	numGibbsSteps int
	numMHSteps    int
	numStuck      int
}

// NextSample resamples one variable.
func (obj *Gibbs) NextSample() error {
	d := obj.data
	if obj.curWorld == nil {
		return errwrap.Wrapf(sample.ErrNoSample, "sampler is not initialized")
	}
	if err := obj.curWorld.Save(); err != nil {
		return err
	}
	obj.totalNumSamples++
	obj.numSamplesThisTrial++

	eligible := []*model.Var{}
	for _, v := range obj.curWorld.InstantiatedVars() {
		if v.IsBasic() && !obj.ev.Contains(v) {
			eligible = append(eligible, v)
		}
	}
	if len(eligible) == 0 {
		return nil
	}
	v := eligible[d.Rng.Intn(len(eligible))]
	if d.Debug {
		d.Logf("sampling %s", v)
	}

	values, finite := domain(v)
	if !finite {
		obj.numMHSteps++
		logProposalRatio, err := obj.proposer.ProposeVar(obj.curWorld, v)
		if err != nil {
			return errwrap.Wrapf(err, "proposal failed")
		}
		if err := validate(obj.curWorld); err != nil {
			return errwrap.Wrapf(err, "bad identifiers in the proposed world")
		}
		return obj.acceptOrReject(logProposalRatio)
	}

	obj.numGibbsSteps++
	candidates := []*world.Diff{}
	weights := []float64{}
	for _, x := range values {
		cand, err := obj.proposer.ReduceToCore(obj.curWorld, v)
		if err != nil {
			return errwrap.Wrapf(err, "could not reduce the world around %s", v)
		}
		lw, err := obj.logWeight(cand, v, x)
		if err != nil {
			if d.Debug {
				d.Logf("%s = %s is impossible: %v", v, model.ValueString(x), err)
			}
			lw = math.Inf(-1)
		}
		candidates = append(candidates, cand)
		weights = append(weights, lw)
	}
	if math.IsInf(logmath.LogSumSlice(weights), -1) {
		obj.numStuck++ // keep the current world
		obj.proposer.UpdateStats(false)
		return nil
	}

	i := logmath.SampleWithLogWeights(weights, d.Rng)
	if d.Debug {
		d.Logf("picked %s = %s", v, model.ValueString(values[i]))
	}
	selected := candidates[i]
	if err := validate(selected); err != nil {
		return errwrap.Wrapf(err, "bad identifiers in the selected world")
	}
	if err := selected.Save(); err != nil {
		return err
	}
	if err := obj.curWorld.Save(); err != nil {
		return err
	}
	obj.totalNumAccepted++
	obj.numAcceptedThisTrial++
	obj.proposer.UpdateStats(true)
	return nil
}

// logWeight sets v to x in the candidate and returns the log of its
// probability, including the evidence, divided by the probability of whatever
// had to be sampled to support it.
func (obj *Gibbs) logWeight(cand *world.Diff, v *model.Var, x model.Value) (float64, error) {
	distrib, err := v.Distrib(eval.New(cand, true))
	if err != nil {
		return 0, err
	}
	if distrib == nil {
		return 0, errwrap.Wrapf(ErrInconsistentWorld, "%s is not supported in its core", v)
	}
	if lp, err := distrib.LogProb(x); err != nil || math.IsInf(lp, -1) {
		return math.Inf(-1), err
	}

	sampled, err := obj.proposer.ProposeValue(cand, v, x)
	if err != nil {
		return 0, err
	}
	if !obj.ev.IsTrue(cand) {
		return math.Inf(-1), nil
	}
	total := -sampled
	for _, u := range cand.InstantiatedVars() {
		if !u.IsBasic() {
			continue
		}
		lp, err := cand.LogProbOfValue(u)
		if err != nil {
			return 0, err
		}
		total += lp
	}
	mult, err := logMultiplier(cand)
	if err != nil {
		return 0, err
	}
	return total + mult, nil
}

// domain returns the values v can take, or false if there are infinitely many
// or they aren't known in advance. Number variables never have a finite
// domain here.
func domain(v *model.Var) ([]model.Value, bool) {
	if v.Kind != model.KindFuncApp {
		return nil, false
	}
	values, err := v.Type().Range()
	if err != nil {
		return nil, false
	}
	return values, true
}

// PrintStats writes how the steps were taken and the Metropolis-Hastings
// statistics.
func (obj *Gibbs) PrintStats() {
	d := obj.data
	d.Logf("===== gibbs sampler stats =====")
	d.Logf("finite domain steps: %d, metropolis-hastings steps: %d, stuck: %d", obj.numGibbsSteps, obj.numMHSteps, obj.numStuck)
	obj.MH.PrintStats()
}
