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

package distrib

import (
	"fmt"
	"math"

	"github.com/bayeslog/blog/model"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Poisson is a distribution over the natural numbers. The rate is Lambda,
// unless an argument is given.
type Poisson struct {
	Lambda float64
}

func (obj *Poisson) dist(args []model.Value, rng *rand.Rand) (distuv.Poisson, error) {
	l, err := param(args, 0, obj.Lambda)
	if err != nil {
		return distuv.Poisson{}, err
	}
	if l <= 0 {
		return distuv.Poisson{}, fmt.Errorf("poisson rate %v must be positive", l)
	}
	d := distuv.Poisson{Lambda: l}
	if rng != nil {
		d.Src = rng
	}
	return d, nil
}

// Sample draws a count.
func (obj *Poisson) Sample(args []model.Value, rng *rand.Rand) (model.Value, error) {
	d, err := obj.dist(args, rng)
	if err != nil {
		return nil, err
	}
	return int(d.Rand()), nil
}

// Prob returns the probability of a count.
func (obj *Poisson) Prob(args []model.Value, value model.Value) (float64, error) {
	lp, err := obj.LogProb(args, value)
	return math.Exp(lp), err
}

// LogProb returns the log probability of a count.
func (obj *Poisson) LogProb(args []model.Value, value model.Value) (float64, error) {
	d, err := obj.dist(args, nil)
	if err != nil {
		return math.Inf(-1), err
	}
	n, ok := value.(int)
	if !ok || n < 0 {
		return math.Inf(-1), nil
	}
	return d.LogProb(float64(n)), nil
}

// FiniteSupport returns nil, the support is infinite.
func (obj *Poisson) FiniteSupport([]model.Value) ([]model.Value, error) { return nil, nil }

// String returns a description.
func (obj *Poisson) String() string { return fmt.Sprintf("Poisson(%v)", obj.Lambda) }

// UniformInt is uniform over the integers from Lo to Hi inclusive.
type UniformInt struct {
	Lo int
	Hi int
}

// Sample draws an integer.
func (obj *UniformInt) Sample(_ []model.Value, rng *rand.Rand) (model.Value, error) {
	if obj.Hi < obj.Lo {
		return nil, fmt.Errorf("empty integer range [%d, %d]", obj.Lo, obj.Hi)
	}
	return obj.Lo + rng.Intn(obj.Hi-obj.Lo+1), nil
}

// Prob returns the probability of an integer.
func (obj *UniformInt) Prob(_ []model.Value, value model.Value) (float64, error) {
	n, ok := value.(int)
	if !ok || n < obj.Lo || n > obj.Hi {
		return 0, nil
	}
	return 1 / float64(obj.Hi-obj.Lo+1), nil
}

// LogProb returns the log probability of an integer.
func (obj *UniformInt) LogProb(args []model.Value, value model.Value) (float64, error) {
	p, err := obj.Prob(args, value)
	return logOf(p), err
}

// FiniteSupport returns the integers in the range.
func (obj *UniformInt) FiniteSupport([]model.Value) ([]model.Value, error) {
	out := []model.Value{}
	for i := obj.Lo; i <= obj.Hi; i++ {
		out = append(out, i)
	}
	return out, nil
}

// String returns a description.
func (obj *UniformInt) String() string { return fmt.Sprintf("UniformInt(%d, %d)", obj.Lo, obj.Hi) }

// Gaussian is a normal distribution over the reals. The mean is Mean, unless
// an argument is given.
type Gaussian struct {
	Mean     float64
	Variance float64
}

func (obj *Gaussian) dist(args []model.Value, rng *rand.Rand) (distuv.Normal, error) {
	mu, err := param(args, 0, obj.Mean)
	if err != nil {
		return distuv.Normal{}, err
	}
	if obj.Variance <= 0 {
		return distuv.Normal{}, fmt.Errorf("gaussian variance %v must be positive", obj.Variance)
	}
	d := distuv.Normal{Mu: mu, Sigma: math.Sqrt(obj.Variance)}
	if rng != nil {
		d.Src = rng
	}
	return d, nil
}

// Sample draws a real.
func (obj *Gaussian) Sample(args []model.Value, rng *rand.Rand) (model.Value, error) {
	d, err := obj.dist(args, rng)
	if err != nil {
		return nil, err
	}
	return d.Rand(), nil
}

// Prob returns the density at value.
func (obj *Gaussian) Prob(args []model.Value, value model.Value) (float64, error) {
	lp, err := obj.LogProb(args, value)
	return math.Exp(lp), err
}

// LogProb returns the log density at value.
func (obj *Gaussian) LogProb(args []model.Value, value model.Value) (float64, error) {
	d, err := obj.dist(args, nil)
	if err != nil {
		return math.Inf(-1), err
	}
	x, err := toFloat(value)
	if err != nil {
		return math.Inf(-1), nil
	}
	return d.LogProb(x), nil
}

// FiniteSupport returns nil, the support is infinite.
func (obj *Gaussian) FiniteSupport([]model.Value) ([]model.Value, error) { return nil, nil }

// String returns a description.
func (obj *Gaussian) String() string {
	return fmt.Sprintf("Gaussian(%v, %v)", obj.Mean, obj.Variance)
}
