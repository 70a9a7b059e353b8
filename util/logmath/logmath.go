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

// Package logmath contains the log-space arithmetic used by the samplers.
// Probabilities of whole worlds underflow quickly, so everything that is
// multiplied is kept as a sum of logs, and only turned back into a plain
// probability at the very end.
package logmath

import (
	"math"

	"golang.org/x/exp/rand"
)

// LogSum returns log(exp(a) + exp(b)) without leaving log space. It works
// when either argument is negative infinity.
func LogSum(a, b float64) float64 {
	if math.IsInf(a, -1) {
		return b
	}
	if math.IsInf(b, -1) {
		return a
	}
	if a < b {
		a, b = b, a
	}
	return a + math.Log1p(math.Exp(b-a))
}

// LogSumSlice returns the log of the sum of exp(x) over the list. An empty
// list sums to zero, which is negative infinity in log space.
func LogSumSlice(xs []float64) float64 {
	total := math.Inf(-1)
	for _, x := range xs {
		total = LogSum(total, x)
	}
	return total
}

// LogPartialFactorial returns log(n * (n-1) * ... * (n-k+1)), which is the
// log of the falling factorial of n with k factors. When k is zero or less
// the product is empty and the result is zero.
func LogPartialFactorial(n, k int) float64 {
	result := 0.0
	for i := n - k + 1; i <= n; i++ {
		result += math.Log(float64(i))
	}
	return result
}

// Normalize scales the weights so they sum to one. It returns nil if the sum
// is not positive.
func Normalize(weights []float64) []float64 {
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if !(sum > 0) {
		return nil
	}
	out := make([]float64, len(weights))
	for i, w := range weights {
		out[i] = w / sum
	}
	return out
}

// SampleWithProbs returns an index chosen with probability proportional to
// its weight. The weights need not be normalized. It returns -1 if the
// weights sum to zero.
func SampleWithProbs(weights []float64, rng *rand.Rand) int {
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if !(sum > 0) {
		return -1
	}
	u := rng.Float64() * sum
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		last = i
		u -= w
		if u < 0 {
			return i
		}
	}
	return last // rounding
}

// SampleWithLogWeights is SampleWithProbs for weights given in log space.
// The weights are shifted by their maximum before they are exponentiated.
func SampleWithLogWeights(logWeights []float64, rng *rand.Rand) int {
	max := math.Inf(-1)
	for _, lw := range logWeights {
		if lw > max {
			max = lw
		}
	}
	if math.IsInf(max, -1) {
		return -1
	}
	weights := make([]float64, len(logWeights))
	for i, lw := range logWeights {
		weights[i] = math.Exp(lw - max)
	}
	return SampleWithProbs(weights, rng)
}

// Accept decides a Metropolis-Hastings move given the log acceptance ratio.
// A ratio of zero or more always accepts, and otherwise the move is taken
// with probability exp(logRatio). The random stream is only consumed in the
// second case.
func Accept(logRatio float64, rng *rand.Rand) bool {
	if logRatio >= 0 {
		return true
	}
	if math.IsInf(logRatio, -1) || math.IsNaN(logRatio) {
		return false
	}
	return rng.Float64() < math.Exp(logRatio)
}
