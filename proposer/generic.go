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

package proposer

import (
	"math"

	"github.com/bayeslog/blog/eval"
	"github.com/bayeslog/blog/model"
	"github.com/bayeslog/blog/util/errwrap"
	"github.com/bayeslog/blog/world"
)

// GenericName is the registered name of the generic proposer.
const GenericName = "generic"

func init() {
	Register(GenericName, func() Proposer { return NewGeneric() })
}

// Generic picks an instantiated non-evidence basic variable uniformly at
// random and resamples it from its prior given its parents. The children of
// the variable are kept supported by sampling what they newly need, and the
// variables which become barren are uninstantiated.
type Generic struct {
	Base

	// resample changes the value of the chosen variable and adds to the
	// forward and backward terms. Neighborhood replaces it.
	resample func(diff *world.Diff, v *model.Var) error
	// reverse, if set, corrects the backward term once the proposed world
	// is complete.
	reverse func(diff *world.Diff, v *model.Var) error

	chosenVar       *model.Var
	oldValue        model.Value
	newValue        model.Value
	logProbForward  float64
	logProbBackward float64
	oldLogProb      float64 // prior of the old value, in the backward term
	numRemoved      int     // variables and identifiers cleaned up

	numProposed int
	numAccepted int
}

// NewGeneric returns a generic proposer.
func NewGeneric() *Generic {
	obj := &Generic{}
	obj.name = GenericName
	obj.resample = obj.sampleValue
	return obj
}

// ChosenVar returns the variable changed by the latest proposal.
func (obj *Generic) ChosenVar() *model.Var { return obj.chosenVar }

// OldValue returns the value the chosen variable had.
func (obj *Generic) OldValue() model.Value { return obj.oldValue }

// NewValue returns the value the chosen variable was given.
func (obj *Generic) NewValue() model.Value { return obj.newValue }

// LogProbForward returns the log probability of the latest proposal.
func (obj *Generic) LogProbForward() float64 { return obj.logProbForward }

// LogProbBackward returns the log probability of proposing the reverse of the
// latest proposal.
func (obj *Generic) LogProbBackward() float64 { return obj.logProbBackward }

// eligibleVars are the variables a proposal can change.
func (obj *Generic) eligibleVars(w world.World) []*model.Var {
	out := []*model.Var{}
	for _, v := range w.InstantiatedVars() {
		if !v.IsBasic() || obj.evidenceVars.Contains(v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// ProposeNextState resamples a random eligible variable. If there is none the
// diff is left alone and the ratio is zero.
func (obj *Generic) ProposeNextState(diff *world.Diff) (float64, error) {
	if obj.ev == nil {
		return 0, ErrNotInitialized
	}
	eligible := obj.eligibleVars(diff)
	if len(eligible) == 0 {
		obj.chosenVar = nil
		return 0, nil
	}
	v := eligible[obj.data.Rng.Intn(len(eligible))]
	return obj.propose(diff, v, len(eligible))
}

// ProposeVar resamples v.
func (obj *Generic) ProposeVar(diff *world.Diff, v *model.Var) (float64, error) {
	if obj.ev == nil {
		return 0, ErrNotInitialized
	}
	n := len(obj.eligibleVars(diff))
	if n == 0 {
		n = 1
	}
	return obj.propose(diff, v, n)
}

func (obj *Generic) propose(diff *world.Diff, v *model.Var, numChoices int) (float64, error) {
	d := obj.data
	obj.chosenVar = v
	obj.logProbForward = -math.Log(float64(numChoices))
	obj.logProbBackward = 0
	obj.oldLogProb = 0
	obj.numRemoved = 0
	obj.numProposed++
	before := snapshotIDs(diff)

	if err := obj.resample(diff, v); err != nil {
		return 0, errwrap.Wrapf(err, "could not resample %s", v)
	}
	if err := obj.cleanup(diff); err != nil {
		return 0, err
	}
	if obj.reverse != nil && !math.IsInf(obj.logProbBackward, -1) {
		if err := obj.reverse(diff, v); err != nil {
			return 0, err
		}
	}

	lp, err := logNewIDs(before, diff)
	if err != nil {
		return 0, err
	}
	obj.logProbForward += lp
	if lp, err = logNewIDs(snapshotIDs(diff), diff.Saved()); err != nil {
		return 0, err
	}
	obj.logProbBackward += lp

	// the reverse move picks among the variables left after the change
	n := len(diff.InstantiatedVars()) - obj.numBasicEvidenceVars
	obj.logProbBackward -= math.Log(float64(n))

	if d.Debug {
		d.Logf("proposed %s: %s -> %s (forward: %f, backward: %f)", v, model.ValueString(obj.oldValue), model.ValueString(obj.newValue), obj.logProbForward, obj.logProbBackward)
	}
	return obj.logProbBackward - obj.logProbForward, nil
}

// sampleValue draws a new value for v from its distribution in the diff, and
// samples whatever its instantiated children now need.
func (obj *Generic) sampleValue(diff *world.Diff, v *model.Var) error {
	cbn, err := diff.CBN()
	if err != nil {
		return err
	}
	children := append([]*model.Var{}, cbn.OutgoingGraphVertices(v)...)

	distrib, err := v.Distrib(eval.New(diff, true))
	if err != nil {
		return err
	}
	if distrib == nil {
		return errwrap.Wrapf(ErrNotSupported, "variable %s", v)
	}

	obj.oldValue = diff.Value(v)
	lp, err := distrib.LogProb(obj.oldValue)
	if err != nil {
		return err
	}
	obj.logProbBackward += lp
	obj.oldLogProb = lp

	obj.newValue, err = distrib.Sample(obj.data.Rng)
	if err != nil {
		return err
	}
	if tooFew(diff, v, obj.newValue) {
		// no world has this, so the move can't be accepted
		obj.logProbBackward = math.Inf(-1)
		return nil
	}
	if err := assertIdentifiers(diff, obj.newValue); err != nil {
		return err
	}
	before := diff.InstantiatedVars()
	diff.SetValue(v, obj.newValue)
	if err := obj.accountRemoved(diff, v, before); err != nil {
		return err
	}
	if lp, err = distrib.LogProb(obj.newValue); err != nil {
		return err
	}
	obj.logProbForward += lp

	return obj.supportChildren(diff, children)
}

// accountRemoved adds to the backward term the variables of before which
// setting v uninstantiated. Lowering a number variable does that to the
// variables about the objects which no longer exist.
func (obj *Generic) accountRemoved(diff *world.Diff, v *model.Var, before []*model.Var) error {
	if v.Kind != model.KindNumber {
		return nil
	}
	saved := diff.Saved()
	for _, x := range before {
		if x == v || diff.IsInstantiated(x) || !saved.IsInstantiated(x) {
			continue
		}
		lp, err := saved.LogProbOfValue(x)
		if err != nil {
			return err
		}
		obj.logProbBackward += lp
		obj.numRemoved++
	}
	return nil
}

// supportChildren samples what the children which are still instantiated need
// to be supported, and adds the log probability of that to the forward term.
func (obj *Generic) supportChildren(diff *world.Diff, children []*model.Var) error {
	ctx := obj.instantiatingContext(diff)
	for _, c := range children {
		if !diff.IsInstantiated(c) {
			continue
		}
		if err := eval.EnsureDetAndSupported(ctx, []*model.Var{c}); err != nil {
			return errwrap.Wrapf(err, "could not support %s", c)
		}
	}
	obj.logProbForward += ctx.LogProb()
	return nil
}

func (obj *Generic) instantiatingContext(diff *world.Diff) *eval.Instantiating {
	ctx := eval.NewInstantiating(diff, obj.data.Rng)
	ctx.Debug = obj.data.Debug
	ctx.Logf = obj.data.Logf
	return ctx
}

// cleanup removes the barren variables and the identifiers nothing has as its
// value, until neither is left.
func (obj *Generic) cleanup(diff *world.Diff) error {
	for {
		if err := obj.uninstantiateBarren(diff); err != nil {
			return err
		}
		n, err := obj.releaseIDs(diff)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
}

// uninstantiateBarren removes the variables which lost their last child,
// unless they are observed or queried. Removing one can make its parents
// barren in turn.
func (obj *Generic) uninstantiateBarren(diff *world.Diff) error {
	queue, err := diff.NewlyBarrenVars()
	if err != nil {
		return err
	}
	for len(queue) > 0 {
		x := queue[0]
		queue = queue[1:]
		if !x.IsBasic() || obj.IsEvidenceOrQuery(x) || !diff.IsInstantiated(x) {
			continue
		}
		cbn, err := diff.CBN()
		if err != nil {
			return err
		}
		if cbn.HasVertex(x) && cbn.NumChildren(x) > 0 {
			continue // not barren anymore
		}
		parents := append([]*model.Var{}, cbn.IncomingGraphVertices(x)...)

		if err := obj.dropVar(diff, x); err != nil {
			return err
		}
		if obj.data.Debug {
			obj.data.Logf("uninstantiating barren %s", x)
		}
		diff.SetValue(x, nil)
		obj.numRemoved++

		if cbn, err = diff.CBN(); err != nil {
			return err
		}
		for _, p := range parents {
			if cbn.HasVertex(p) && cbn.NumChildren(p) == 0 {
				queue = append(queue, p)
			}
		}
	}
	return nil
}

// ProposeValue sets v to value and restores the support of the evidence and
// the queries. It returns the log probability of what was sampled, counting
// each new identifier once for all the unasserted ones it could have been.
func (obj *Generic) ProposeValue(diff *world.Diff, v *model.Var, value model.Value) (float64, error) {
	if obj.ev == nil {
		return 0, ErrNotInitialized
	}
	obj.chosenVar = v
	obj.oldValue = diff.Value(v)
	obj.newValue = value
	obj.numProposed++
	before := snapshotIDs(diff)

	if err := assertIdentifiers(diff, value); err != nil {
		return 0, err
	}
	diff.SetValue(v, value)

	ctx := obj.instantiatingContext(diff)
	vars := append(obj.ev.EvidenceVars(), obj.queryVars.Slice()...)
	cbn, err := diff.CBN()
	if err != nil {
		return 0, err
	}
	for _, c := range cbn.OutgoingGraphVertices(v) {
		if diff.IsInstantiated(c) {
			vars = append(vars, c)
		}
	}
	vars = append(vars, v)
	for _, x := range vars {
		if !diff.IsInstantiated(x) && !x.IsBasic() {
			continue // untracked derived variables only need evaluating
		}
		if err := eval.EnsureDetAndSupported(ctx, []*model.Var{x}); err != nil {
			return 0, errwrap.Wrapf(err, "could not support %s", x)
		}
	}
	lp, err := logNewIDs(before, diff)
	if err != nil {
		return 0, err
	}
	return ctx.LogProb() + lp, nil
}

// UpdateStats counts the accepted proposals.
func (obj *Generic) UpdateStats(accepted bool) {
	if accepted {
		obj.numAccepted++
	}
}

// PrintStats writes the acceptance rate and the initial world statistics.
func (obj *Generic) PrintStats() {
	obj.Base.PrintStats()
	if obj.numProposed == 0 {
		return
	}
	obj.data.Logf("proposals accepted: %d/%d (%f)", obj.numAccepted, obj.numProposed, float64(obj.numAccepted)/float64(obj.numProposed))
}

// tooFew returns true if value is less than the number of identifiers
// asserted to satisfy the number variable v.
func tooFew(w world.World, v *model.Var, value model.Value) bool {
	if v.Kind != model.KindNumber || !w.UsesIdentifiers(v.Pop.Type) {
		return false
	}
	n, _ := value.(int)
	return n < len(w.AssertedIDs(v))
}

// assertIdentifiers asserts the common-ground identifiers among the values.
func assertIdentifiers(w world.World, values ...model.Value) error {
	for _, x := range values {
		id, ok := x.(*model.Identifier)
		if !ok {
			continue
		}
		if err := w.AssertIdentifier(id); err != nil {
			return err
		}
	}
	return nil
}
