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
	"github.com/bayeslog/blog/util/logmath"
	"github.com/bayeslog/blog/world"
)

// NeighborhoodName is the registered name of the neighborhood proposer.
const NeighborhoodName = "neighborhood"

func init() {
	Register(NeighborhoodName, func() Proposer { return NewNeighborhood() })
}

// Neighborhood is a generic proposer which accounts for the children of the
// chosen variable. When a function application with a finite range has two or
// more children, its new value is drawn in proportion to its prior times the
// probabilities of the children. Otherwise it proposes like Generic. The
// reverse move is scored with the kernel the proposed world would use, which
// need not be the one the forward move used.
type Neighborhood struct {
	*Generic
}

// NewNeighborhood returns a neighborhood proposer.
func NewNeighborhood() *Neighborhood {
	obj := &Neighborhood{Generic: NewGeneric()}
	obj.name = NeighborhoodName
	obj.resample = obj.sampleValue
	obj.reverse = obj.reverseTerm
	return obj
}

// blanket holds the weights of each value of a variable given its Markov
// blanket.
type blanket struct {
	values  []model.Value
	weights []float64
	logZ    float64
}

// logProb returns the normalized log weight of x, and false if x isn't in the
// range.
func (obj *blanket) logProb(x model.Value) (float64, bool) {
	for i, y := range obj.values {
		if y == x {
			return obj.weights[i] - obj.logZ, true
		}
	}
	return 0, false
}

// blanketOf returns the blanket of v in diff, or nil if v is proposed like
// Generic would there. The value of v is left as it was.
func (obj *Neighborhood) blanketOf(diff *world.Diff, v *model.Var, distrib *model.Distrib) (*blanket, error) {
	cbn, err := diff.CBN()
	if err != nil {
		return nil, err
	}
	children := append([]*model.Var{}, cbn.OutgoingGraphVertices(v)...)
	if len(children) < 2 || v.Kind != model.KindFuncApp {
		return nil, nil
	}
	values, err := v.Type().Range()
	if err != nil {
		return nil, nil
	}

	old := diff.Value(v)
	weights, ok, err := obj.blanketWeights(diff, v, distrib, values, children)
	diff.SetValue(v, old)
	if err != nil || !ok {
		return nil, err // some child needs more
	}
	logZ := logmath.LogSumSlice(weights)
	if math.IsInf(logZ, -1) {
		return nil, nil
	}
	return &blanket{values: values, weights: weights, logZ: logZ}, nil
}

func (obj *Neighborhood) distribOf(diff *world.Diff, v *model.Var) (*model.Distrib, error) {
	distrib, err := v.Distrib(eval.New(diff, true))
	if err != nil {
		return nil, err
	}
	if distrib == nil {
		return nil, errwrap.Wrapf(ErrNotSupported, "variable %s", v)
	}
	return distrib, nil
}

func (obj *Neighborhood) sampleValue(diff *world.Diff, v *model.Var) error {
	distrib, err := obj.distribOf(diff, v)
	if err != nil {
		return err
	}
	b, err := obj.blanketOf(diff, v, distrib)
	if err != nil {
		return err
	}
	if b == nil {
		return obj.Generic.sampleValue(diff, v)
	}

	cbn, err := diff.CBN()
	if err != nil {
		return err
	}
	children := append([]*model.Var{}, cbn.OutgoingGraphVertices(v)...)

	obj.oldValue = diff.Value(v)
	if _, ok := b.logProb(obj.oldValue); !ok {
		return errwrap.Wrapf(ErrNotSupported, "value %s of %s is out of range", model.ValueString(obj.oldValue), v)
	}
	// reverseTerm swaps this for the reverse kernel
	if obj.oldLogProb, err = distrib.LogProb(obj.oldValue); err != nil {
		return err
	}
	obj.logProbBackward += obj.oldLogProb

	i := logmath.SampleWithLogWeights(b.weights, obj.data.Rng)
	obj.newValue = b.values[i]
	obj.logProbForward += b.weights[i] - b.logZ

	diff.SetValue(v, obj.newValue)
	return obj.supportChildren(diff, children)
}

// reverseTerm replaces the prior of the old value in the backward term with
// the probability that the proposed world picks the old value back. A reverse
// blanket move samples nothing, so it can't restore what the cleanup removed.
func (obj *Neighborhood) reverseTerm(diff *world.Diff, v *model.Var) error {
	distrib, err := obj.distribOf(diff, v)
	if err != nil {
		return err
	}
	b, err := obj.blanketOf(diff, v, distrib)
	if err != nil || b == nil {
		return err // the prior is already there
	}
	lp, ok := b.logProb(obj.oldValue)
	if !ok || obj.numRemoved > 0 {
		lp = math.Inf(-1)
	}
	if obj.data.Debug {
		obj.data.Logf("reverse of %s picks %s with log prob %f", v, model.ValueString(obj.oldValue), lp)
	}
	obj.logProbBackward += lp - obj.oldLogProb
	return nil
}

// blanketWeights returns, for each value of v, the log of its prior times the
// probabilities of the basic children. It returns false if a child isn't
// supported for some value without sampling more.
func (obj *Neighborhood) blanketWeights(diff *world.Diff, v *model.Var, distrib *model.Distrib, values []model.Value, children []*model.Var) ([]float64, bool, error) {
	weights := []float64{}
	for _, x := range values {
		lp, err := distrib.LogProb(x)
		if err != nil {
			return nil, false, err
		}
		if math.IsInf(lp, -1) {
			weights = append(weights, lp)
			continue
		}
		diff.SetValue(v, x)
		ctx := eval.New(diff, false)
		for _, c := range children {
			if !c.IsBasic() {
				continue
			}
			d, err := c.Distrib(ctx)
			if err != nil || d == nil {
				return nil, false, nil
			}
			lpc, err := d.LogProb(diff.Value(c))
			if err != nil {
				return nil, false, err
			}
			lp += lpc
		}
		weights = append(weights, lp)
	}
	return weights, true, nil
}
