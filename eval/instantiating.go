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

package eval

import (
	"fmt"

	"github.com/bayeslog/blog/model"
	"github.com/bayeslog/blog/util/ds"
	"github.com/bayeslog/blog/util/errwrap"

	"golang.org/x/exp/rand"
)

// Instantiating samples a value for every basic variable it is asked about
// which doesn't have one, and writes it into the world. The distribution of
// a missing variable is computed in a child context which carries the chain
// of variables responsible for the request, so a variable that needs itself
// is reported as a *CycleError instead of recursing forever.
type Instantiating struct {
	base

	// Simple makes missing variables get a placeholder value instead of a
	// sample: zero for number variables, and the first guaranteed object
	// of the return type (or Null) for function applications. Placeholders
	// are not written to the world.
	Simple bool

	// Listener is told about every sampled variable.
	Listener Listener

	// Registry is an optional process wide set of listeners which is told
	// about every sampled variable too.
	Registry *Registry

	Debug bool
	Logf  func(format string, v ...interface{})

	rng     *rand.Rand
	chain   []*model.Var
	logProb float64
	parents *ds.IndexedSet[*model.Var]
}

// NewInstantiating builds an instantiating context which draws from rng.
func NewInstantiating(w World, rng *rand.Rand) *Instantiating {
	return newInstantiating(w, rng, nil)
}

func newInstantiating(w World, rng *rand.Rand, chain []*model.Var) *Instantiating {
	obj := &Instantiating{
		rng:     rng,
		chain:   chain,
		parents: ds.NewIndexedSet[*model.Var](),
	}
	obj.setup(w, obj)
	obj.basic = obj.getOrCompute
	return obj
}

// LogProb returns the total log probability of every value sampled by this
// context and the contexts it spawned.
func (obj *Instantiating) LogProb() float64 { return obj.logProb }

// Parents returns the variables which were read, in order. In simple mode
// this includes the variables which got placeholders.
func (obj *Instantiating) Parents() []*model.Var { return obj.parents.Slice() }

// IsInstantiated returns true if the variable has a value in the world.
func (obj *Instantiating) IsInstantiated(v *model.Var) bool { return obj.world.Value(v) != nil }

func (obj *Instantiating) getOrCompute(v *model.Var) (model.Value, error) {
	if val := obj.world.Value(v); val != nil {
		obj.parents.Add(v)
		return val, nil
	}
	if obj.Simple {
		obj.parents.Add(v)
		return placeholder(v), nil
	}
	return obj.instantiate(v)
}

func placeholder(v *model.Var) model.Value {
	if v.Kind == model.KindNumber {
		return 0
	}
	if t := v.Type(); t != nil && len(t.Guaranteed) > 0 {
		return t.Guaranteed[0]
	}
	return model.Null
}

func (obj *Instantiating) instantiate(v *model.Var) (model.Value, error) {
	for _, x := range obj.chain {
		if x != v {
			continue
		}
		chain := []*model.Var{v}
		for i := len(obj.chain) - 1; i >= 0; i-- {
			chain = append(chain, obj.chain[i])
		}
		return nil, &CycleError{Chain: chain, Trace: obj.EvalTrace()}
	}

	// The child gets its own copy of the chain, so once it returns v is no
	// longer responsible for anything here.
	chain := make([]*model.Var, len(obj.chain), len(obj.chain)+1)
	copy(chain, obj.chain)
	spawn := newInstantiating(obj.world, obj.rng, append(chain, v))
	spawn.Listener = obj.Listener
	spawn.Registry = obj.Registry
	spawn.Debug = obj.Debug
	spawn.Logf = obj.Logf

	d, err := v.Distrib(spawn)
	obj.logProb += spawn.logProb
	if err != nil {
		if _, ok := errwrap.Cause(err).(*CycleError); ok {
			return nil, err
		}
		return nil, errwrap.Wrapf(err, "could not get distribution of %s", v)
	}
	if d == nil {
		return nil, fmt.Errorf("distribution of %s is not determined after instantiating its parents", v)
	}

	value, err := d.Sample(obj.rng)
	if err != nil {
		return nil, errwrap.Wrapf(err, "could not sample %s from %s", v, d)
	}
	for _, arg := range v.Args {
		if id, ok := arg.(*model.Identifier); ok {
			if err := obj.world.AssertIdentifier(id); err != nil {
				return nil, err
			}
		}
	}
	if id, ok := value.(*model.Identifier); ok {
		if err := obj.world.AssertIdentifier(id); err != nil {
			return nil, err
		}
	}

	// identifier sets only contain asserted identifiers, so score afterwards
	logProb, err := d.LogProb(value)
	if err != nil {
		return nil, errwrap.Wrapf(err, "could not score %s", v)
	}
	obj.logProb += logProb

	obj.world.SetValue(v, value)
	obj.parents.Add(v)
	if obj.Debug && obj.Logf != nil {
		obj.Logf("sampled %s = %s (log prob %f)", v, model.ValueString(value), logProb)
	}

	if obj.Listener != nil {
		obj.Listener.AfterSampling(v, value, logProb)
	}
	if obj.Registry != nil {
		obj.Registry.Notify(v, value, logProb)
	}
	return value, nil
}
