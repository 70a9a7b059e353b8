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

// Package engine drives a sampler: it takes the burn in and the samples,
// feeds the weighted worlds to the queries, and reports on the way.
package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/bayeslog/blog/eval"
	"github.com/bayeslog/blog/evidence"
	_ "github.com/bayeslog/blog/mcmc" // registers the mcmc samplers
	"github.com/bayeslog/blog/model"
	"github.com/bayeslog/blog/prometheus"
	"github.com/bayeslog/blog/query"
	"github.com/bayeslog/blog/sample"
	"github.com/bayeslog/blog/util"
	"github.com/bayeslog/blog/util/errwrap"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// proposalCounter is implemented by the samplers which accept or reject
// proposals.
type proposalCounter interface {
	Proposals() (int, int)
}

// Engine runs one sampler over a model with evidence and queries.
type Engine struct {
	// Data is handed to the sampler.
	Data *sample.Data

	// SamplerName is the registered name of the sampler.
	SamplerName string

	Evidence *evidence.Evidence
	Queries  []query.Query

	// NumSamples is the number of samples fed to the queries, after the
	// BurnIn ones which are thrown away.
	NumSamples int
	BurnIn     int

	// ReportEvery is the minimum time between progress reports. Zero
	// disables them.
	ReportEvery time.Duration

	// Prometheus gets the sampler metrics if it is set.
	Prometheus *prometheus.Prometheus

	Debug bool
	Logf  func(format string, v ...interface{})

	sampler   sample.Sampler
	runID     string
	limiter   *rate.Limiter
	queryVars []*model.Var

	numDone       int
	lastProposals int
	lastAccepted  int
}

// Init validates the settings and builds the sampler. If the struct does not
// validate, or it cannot initialize, then this errors.
func (obj *Engine) Init() error {
	if obj.Data == nil || obj.Data.Model == nil {
		return fmt.Errorf("no model to sample from")
	}
	if obj.Data.Rng == nil {
		return fmt.Errorf("no random source")
	}
	if obj.Evidence == nil {
		return fmt.Errorf("no evidence")
	}
	if obj.NumSamples < 0 || obj.BurnIn < 0 {
		return fmt.Errorf("the number of samples and the burn in can't be negative")
	}
	if obj.Logf == nil {
		obj.Logf = util.NopLogf
	}

	s, err := sample.Lookup(obj.SamplerName)
	if err != nil {
		return err
	}
	if err := s.Init(obj.Data); err != nil {
		return errwrap.Wrapf(err, "could not init the %s sampler", obj.SamplerName)
	}
	obj.sampler = s
	obj.runID = uuid.New().String()
	obj.queryVars = sample.QueryVars(obj.Queries)

	obj.limiter = nil
	if obj.ReportEvery > 0 {
		obj.limiter = rate.NewLimiter(rate.Every(obj.ReportEvery), 1)
		obj.limiter.Allow() // the first report waits a full interval
	}
	return nil
}

// RunID returns the unique identifier of this run.
func (obj *Engine) RunID() string { return obj.runID }

// Sampler returns the sampler which was built by Init.
func (obj *Engine) Sampler() sample.Sampler { return obj.sampler }

// NumDone returns the number of samples taken so far, burn in included.
func (obj *Engine) NumDone() int { return obj.numDone }

// Run takes the samples and updates the queries. It returns early with the
// error of the context if that is cancelled.
func (obj *Engine) Run(ctx context.Context) error {
	if obj.sampler == nil {
		return fmt.Errorf("engine is not initialized")
	}
	obj.Logf("run %s: %d samples with the %s sampler (burn in: %d)", obj.runID, obj.NumSamples, obj.SamplerName, obj.BurnIn)
	obj.Logf("evidence: %s", obj.Evidence)
	for _, q := range obj.Queries {
		q.ZeroOut()
	}
	obj.numDone = 0
	obj.lastProposals, obj.lastAccepted = 0, 0

	if err := obj.sampler.Initialize(obj.Evidence, obj.Queries); err != nil {
		return errwrap.Wrapf(err, "could not initialize the %s sampler", obj.SamplerName)
	}

	start := time.Now()
	for i := 0; i < obj.BurnIn+obj.NumSamples; i++ {
		select {
		case <-ctx.Done():
			return errwrap.Wrapf(ctx.Err(), "stopped after %d samples", i)
		default:
		}
		if err := obj.step(i < obj.BurnIn); err != nil {
			return errwrap.Wrapf(err, "sample %d failed", i)
		}
		obj.numDone++
		if obj.limiter != nil && obj.limiter.Allow() {
			obj.report(start)
		}
	}

	obj.Logf("done with %d samples in %s", obj.numDone, time.Since(start))
	obj.sampler.PrintStats()
	for _, q := range obj.Queries {
		q.PrintResults(obj.Logf)
	}
	return nil
}

func (obj *Engine) step(burnIn bool) error {
	if err := obj.sampler.NextSample(); err != nil {
		return err
	}
	logWeight := obj.sampler.LatestLogWeight()
	obj.updateMetrics(burnIn, logWeight)
	if burnIn {
		return nil
	}

	w, err := obj.sampler.LatestWorld()
	if err != nil {
		return err
	}
	if !math.IsInf(logWeight, -1) {
		// mcmc worlds need not determine the queries
		ctx := eval.NewInstantiating(w, obj.Data.Rng)
		ctx.Debug = obj.Debug
		ctx.Logf = obj.Logf
		if err := eval.EnsureDetAndSupported(ctx, obj.queryVars); err != nil {
			return errwrap.Wrapf(err, "could not determine the queries")
		}
	}
	if obj.Debug {
		obj.Logf("log weight: %f", logWeight)
		fmt.Fprint(&util.LogWriter{Prefix: "world: ", Logf: obj.Logf}, w.String())
	}
	for _, q := range obj.Queries {
		if err := q.Update(w, logWeight); err != nil {
			return errwrap.Wrapf(err, "could not update query %s", q)
		}
	}
	return nil
}

func (obj *Engine) updateMetrics(burnIn bool, logWeight float64) {
	prom := obj.Prometheus
	if prom == nil {
		return
	}
	prom.UpdateSamplesTotal(obj.runID, obj.SamplerName, burnIn)
	prom.UpdateLatestLogWeight(obj.runID, obj.SamplerName, logWeight)
	if pc, ok := obj.sampler.(proposalCounter); ok {
		proposals, accepted := pc.Proposals()
		newAccepted := accepted - obj.lastAccepted
		newRejected := (proposals - obj.lastProposals) - newAccepted
		prom.UpdateProposals(obj.runID, obj.SamplerName, newAccepted, newRejected)
		obj.lastProposals, obj.lastAccepted = proposals, accepted
	}
}

func (obj *Engine) report(start time.Time) {
	obj.Logf("%d/%d samples after %s", obj.numDone, obj.BurnIn+obj.NumSamples, time.Since(start).Round(time.Millisecond))
	if obj.numDone <= obj.BurnIn {
		return
	}
	for _, q := range obj.Queries {
		q.PrintResults(obj.Logf)
	}
}
