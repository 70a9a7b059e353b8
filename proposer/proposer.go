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

// Package proposer holds the proposal distributions of the MCMC samplers.
package proposer

import (
	"fmt"
	"sort"

	"github.com/bayeslog/blog/evidence"
	"github.com/bayeslog/blog/model"
	"github.com/bayeslog/blog/query"
	"github.com/bayeslog/blog/sample"
	"github.com/bayeslog/blog/util"
	"github.com/bayeslog/blog/util/errwrap"
	"github.com/bayeslog/blog/world"

	"github.com/hashicorp/go-set/v3"
)

const (
	// ErrUnknownProposer is returned when looking up a proposer which was
	// never registered.
	ErrUnknownProposer = util.Error("unknown proposer")

	// ErrNotInitialized is returned when proposing before Initialize.
	ErrNotInitialized = util.Error("proposer is not initialized")

	// ErrNoInitialWorld is returned when no world consistent with the
	// evidence was found.
	ErrNoInitialWorld = util.Error("could not find an initial world consistent with the evidence")

	// ErrNotSupported is returned when the variable to resample has no
	// distribution in the current world.
	ErrNotSupported = util.Error("variable is not supported")
)

// DefaultName is the proposer used when none is configured.
const DefaultName = GenericName

// Proposer proposes the next state of a Metropolis-Hastings chain by changing
// a diff in place.
type Proposer interface {
	// Init passes in the model and the settings. It is called once.
	Init(*sample.Data) error

	// Initialize records the evidence and the queries and returns an
	// initial world in which the evidence is true, as a diff over a world
	// of its own.
	Initialize(ev *evidence.Evidence, queries []query.Query) (*world.Diff, error)

	// ProposeNextState changes the diff and returns the log of the
	// probability of proposing back over the probability of proposing
	// forward.
	ProposeNextState(diff *world.Diff) (float64, error)

	// ProposeVar is ProposeNextState with the variable to resample given.
	ProposeVar(diff *world.Diff, v *model.Var) (float64, error)

	// ProposeValue sets v to value, restores the support of the evidence
	// and the queries, and returns the log probability of whatever had to
	// be sampled for that.
	ProposeValue(diff *world.Diff, v *model.Var, value model.Value) (float64, error)

	// ReduceToCore returns a diff over w in which only v, the evidence and
	// query variables and what they need are instantiated.
	ReduceToCore(w world.World, v *model.Var) (*world.Diff, error)

	// UpdateStats is told whether the last proposal was accepted.
	UpdateStats(accepted bool)

	// PrintStats writes the statistics through Logf.
	PrintStats()
}

// RegisteredProposers is a global map of all the proposers which can be used.
// You should never touch this map directly. Use methods like Register instead.
var RegisteredProposers = make(map[string]func() Proposer) // must initialize this map

// Register takes a proposer and its name and makes it available for use. There
// is no matching Unregister function.
func Register(name string, fn func() Proposer) {
	if _, ok := RegisteredProposers[name]; ok {
		panic(fmt.Sprintf("a proposer named %s is already registered", name))
	}
	RegisteredProposers[name] = fn
}

// Lookup returns a new proposer of the named kind. The empty name gives the
// default proposer.
func Lookup(name string) (Proposer, error) {
	if name == "" {
		name = DefaultName
	}
	fn, exists := RegisteredProposers[name]
	if !exists {
		return nil, errwrap.Wrapf(ErrUnknownProposer, "no proposer named %s, have: %v", name, Names())
	}
	return fn(), nil
}

// Names returns the names of the registered proposers, sorted.
func Names() []string {
	names := []string{}
	for name := range RegisteredProposers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Base holds what every proposer shares: the evidence and queries, the
// construction of the initial world, and the statistics about it.
type Base struct {
	// MaxInitialStateTries caps how many worlds are generated while
	// looking for one in which the evidence is true. Zero means no cap.
	MaxInitialStateTries int

	data *sample.Data
	name string

	ev                   *evidence.Evidence
	queries              []query.Query
	evidenceVars         *set.Set[*model.Var]
	numBasicEvidenceVars int
	queryVars            *set.Set[*model.Var]

	numTrials                     int
	totalNumInitialStateTries     int
	numInitialStateTriesThisTrial int
}

// Init passes in the settings.
func (obj *Base) Init(data *sample.Data) error {
	if data.Model == nil {
		return fmt.Errorf("no model")
	}
	if data.Rng == nil {
		return fmt.Errorf("no random source")
	}
	if data.Logf == nil {
		data.Logf = util.NopLogf
	}
	obj.data = data
	return nil
}

// Initialize records the evidence and the queries and builds the initial
// world by likelihood weighting until the evidence holds.
func (obj *Base) Initialize(ev *evidence.Evidence, queries []query.Query) (*world.Diff, error) {
	if obj.data == nil {
		return nil, errwrap.Wrapf(ErrNotInitialized, "Init was not called")
	}
	obj.ev = ev
	obj.queries = queries
	obj.evidenceVars = set.From(ev.EvidenceVars())
	obj.numBasicEvidenceVars = 0
	for _, v := range ev.EvidenceVars() {
		if v.IsBasic() {
			obj.numBasicEvidenceVars++
		}
	}
	obj.queryVars = set.From(sample.QueryVars(queries))
	return obj.constructInitialState()
}

func (obj *Base) constructInitialState() (*world.Diff, error) {
	d := obj.data
	obj.numTrials++
	obj.numInitialStateTriesThisTrial = 0

	lw := &sample.LW{}
	if err := lw.Init(d); err != nil {
		return nil, err
	}
	if err := lw.Initialize(obj.ev, obj.queries); err != nil {
		return nil, err
	}
	for obj.MaxInitialStateTries <= 0 || obj.numInitialStateTriesThisTrial < obj.MaxInitialStateTries {
		if err := lw.NextSample(); err != nil {
			return nil, errwrap.Wrapf(err, "could not generate an initial world")
		}
		w, err := lw.LatestWorld()
		if err != nil {
			return nil, err
		}
		obj.totalNumInitialStateTries++
		obj.numInitialStateTriesThisTrial++
		if !obj.ev.IsTrue(w) {
			if d.Debug {
				d.Logf("initial world %d rejected", obj.numInitialStateTriesThisTrial)
			}
			continue
		}
		if d.Debug {
			d.Logf("probability of initial world %d = %f", obj.numInitialStateTriesThisTrial, lw.LatestWeight())
		}
		diff, err := world.NewDiffCopying(world.New(d.Model, d.IDTypes), w)
		if err != nil {
			return nil, err
		}
		for _, v := range append(obj.ev.EvidenceVars(), obj.queryVars.Slice()...) {
			if v.Kind == model.KindDerived {
				diff.AddDerivedVar(v)
			}
		}
		return diff, nil
	}
	return nil, errwrap.Wrapf(ErrNoInitialWorld, "gave up after %d tries", obj.numInitialStateTriesThisTrial)
}

// Evidence returns the evidence of the current trial.
func (obj *Base) Evidence() *evidence.Evidence { return obj.ev }

// IsEvidenceOrQuery returns true for the observed and queried variables.
func (obj *Base) IsEvidenceOrQuery(v *model.Var) bool {
	return obj.evidenceVars.Contains(v) || obj.queryVars.Contains(v)
}

// InitialStateTries returns the number of worlds generated for the initial
// state of this trial.
func (obj *Base) InitialStateTries() int { return obj.numInitialStateTriesThisTrial }

// UpdateStats does nothing.
func (obj *Base) UpdateStats(accepted bool) {}

// PrintStats writes how many worlds were needed to find the initial one.
func (obj *Base) PrintStats() {
	d := obj.data
	d.Logf("===== %s proposer stats =====", obj.name)
	d.Logf("initial world attempts: %d", obj.numInitialStateTriesThisTrial)
	if obj.numTrials > 0 {
		d.Logf("\trunning average (for trials so far): %f", float64(obj.totalNumInitialStateTries)/float64(obj.numTrials))
	}
}

// ReduceToCore returns a diff over w in which everything is uninstantiated
// except v, the evidence and query variables, their ancestors, and the number
// variables which generate the objects they use. Identifiers which are no
// longer the value of any variable are removed.
func (obj *Base) ReduceToCore(w world.World, v *model.Var) (*world.Diff, error) {
	cbn, err := w.CBN()
	if err != nil {
		return nil, err
	}
	core := set.New[*model.Var](0)
	queue := append([]*model.Var{v}, obj.evidenceVars.Slice()...)
	queue = append(queue, obj.queryVars.Slice()...)
	for len(queue) > 0 {
		x := queue[0]
		queue = queue[1:]
		if !core.Insert(x) {
			continue
		}
		if cbn.HasVertex(x) {
			queue = append(queue, cbn.IncomingGraphVertices(x)...)
		}
		for _, arg := range x.Args {
			if nv := w.POPAppSatisfied(arg); nv != nil {
				queue = append(queue, nv)
			}
		}
	}

	diff := world.NewDiff(w)
	for _, x := range w.InstantiatedVars() {
		if !core.Contains(x) {
			diff.SetValue(x, nil)
		}
	}
	for _, id := range unusedIDs(diff) {
		diff.RemoveIdentifier(id)
	}
	return diff, nil
}
