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

// Package sample holds the sampler contract, the sampler registry and the
// forward samplers: rejection sampling and likelihood weighting.
package sample

import (
	"fmt"
	"sort"

	"github.com/bayeslog/blog/evidence"
	"github.com/bayeslog/blog/model"
	"github.com/bayeslog/blog/query"
	"github.com/bayeslog/blog/util"
	"github.com/bayeslog/blog/world"

	"golang.org/x/exp/rand"
)

const (
	// ErrNoSample is returned when a sampler is asked about its latest
	// sample before it has made one.
	ErrNoSample = util.Error("sampler has no latest sample")

	// ErrIncompleteWorld is returned when a world is complete up to the
	// bounds but doesn't determine the evidence and queries.
	ErrIncompleteWorld = util.Error("world is complete up to the bounds but does not determine the evidence and queries")

	// ErrNoSupportedVar is returned when a world isn't complete but none of
	// its uninstantiated variables is supported, which means a cycle.
	ErrNoSupportedVar = util.Error("world is not complete, but no basic random variable is supported")
)

// NegligibleLogWeight is the log weight below which a sample is considered
// inconsistent with the evidence.
const NegligibleLogWeight = -50

// RegisteredSamplers is a global map of all the samplers which can be used.
// You should never touch this map directly. Use methods like Register instead.
var RegisteredSamplers = make(map[string]func() Sampler) // must initialize this map

// Register takes a sampler and its name and makes it available for use. There
// is no matching Unregister function.
func Register(name string, fn func() Sampler) {
	if _, ok := RegisteredSamplers[name]; ok {
		panic(fmt.Sprintf("a sampler named %s is already registered", name))
	}
	RegisteredSamplers[name] = fn
}

// Lookup returns a new sampler of the named kind.
func Lookup(name string) (Sampler, error) {
	fn, exists := RegisteredSamplers[name]
	if !exists {
		return nil, fmt.Errorf("no sampler named %s, have: %v", name, Names())
	}
	return fn(), nil
}

// Names returns the names of the registered samplers, sorted.
func Names() []string {
	names := []string{}
	for name := range RegisteredSamplers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Data is the set of input values passed into the samplers via Init.
type Data struct {
	Model *model.Model

	// IDTypes are the types whose objects are represented by identifiers.
	IDTypes []*model.Type

	// IntBound and DepthBound limit the objects enumerated by the
	// rejection sampler. Negative means unbounded.
	IntBound   int
	DepthBound int

	// ProposerClass names the proposer used by the MCMC samplers.
	ProposerClass string

	// Rng is the only source of randomness.
	Rng *rand.Rand

	Debug bool
	Logf  func(format string, v ...interface{})
}

// Sampler produces a sequence of weighted worlds which approximates the
// posterior given the evidence.
type Sampler interface {
	// Init passes in the model and the settings. It is called once.
	Init(*Data) error

	// Initialize starts a new trial with the evidence and the queries.
	Initialize(ev *evidence.Evidence, queries []query.Query) error

	// NextSample generates the next world.
	NextSample() error

	// LatestWorld returns the world generated by the last NextSample.
	LatestWorld() (world.World, error)

	// LatestWeight returns the weight of the latest world.
	LatestWeight() float64

	// LatestLogWeight returns the log weight of the latest world.
	LatestLogWeight() float64

	// PrintStats writes the statistics of the trial through Logf.
	PrintStats()
}

// QueryVars collects the variables of every query, without repeats.
func QueryVars(queries []query.Query) []*model.Var {
	seen := make(map[*model.Var]struct{})
	out := []*model.Var{}
	for _, q := range queries {
		for _, v := range q.Variables() {
			if _, exists := seen[v]; exists {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}
