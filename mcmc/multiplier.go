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
	"github.com/bayeslog/blog/model"
	"github.com/bayeslog/blog/util/logmath"
	"github.com/bayeslog/blog/world"
)

// LogMultiplierRatio returns the log of the ratio of the multipliers of a
// number variable after and before a change. The multiplier of a number
// variable with n satisfiers of which k are asserted identifiers is
// n * (n-1) * ... * (n-k+1), the number of ways to pick distinct objects for
// the identifiers. Factors common to both products cancel without being
// computed.
func LogMultiplierRatio(oldSat, oldIDs, newSat, newIDs int) float64 {
	afterNum := newSat - newIDs // first factor past the numerator
	afterDen := oldSat - oldIDs // first factor past the denominator
	if afterNum >= oldSat || afterDen >= newSat {
		// no overlap
		return logmath.LogPartialFactorial(newSat, newIDs) - logmath.LogPartialFactorial(oldSat, oldIDs)
	}

	ratio := 0.0
	if newSat > oldSat {
		ratio += logmath.LogPartialFactorial(newSat, newSat-oldSat)
	} else if oldSat > newSat {
		ratio -= logmath.LogPartialFactorial(oldSat, oldSat-newSat)
	}
	if afterNum < afterDen {
		ratio += logmath.LogPartialFactorial(afterDen, afterDen-afterNum)
	} else if afterDen < afterNum {
		ratio -= logmath.LogPartialFactorial(afterNum, afterNum-afterDen)
	}
	return ratio
}

// multiplierCounts returns the number of satisfiers and of asserted
// identifiers of a number variable. An uninstantiated one has no satisfiers.
func multiplierCounts(w world.World, nv *model.Var) (int, int, error) {
	ids := len(w.AssertedIDs(nv))
	if w.Value(nv) == nil {
		return 0, ids, nil
	}
	sat, err := w.Satisfiers(nv)
	if err != nil {
		return 0, 0, err
	}
	return sat.Size(), ids, nil
}

// logMultRatio sums the multiplier ratios of the number variables whose
// multiplier may have changed in the diff.
func logMultRatio(diff *world.Diff, logf func(format string, v ...interface{})) (float64, error) {
	ratio := 0.0
	for _, nv := range diff.ChangedMultiplierVars() {
		oldSat, oldIDs, err := multiplierCounts(diff.Saved(), nv)
		if err != nil {
			return 0, err
		}
		newSat, newIDs, err := multiplierCounts(diff, nv)
		if err != nil {
			return 0, err
		}
		if logf != nil {
			logf("%s: %d satisfiers, %d ids -> %d satisfiers, %d ids", nv, oldSat, oldIDs, newSat, newIDs)
		}
		ratio += LogMultiplierRatio(oldSat, oldIDs, newSat, newIDs)
	}
	return ratio, nil
}

// logMultiplier returns the log of the product of the multipliers of every
// instantiated number variable of a world.
func logMultiplier(w world.World) (float64, error) {
	total := 0.0
	for _, v := range w.InstantiatedVars() {
		if v.Kind != model.KindNumber {
			continue
		}
		sat, ids, err := multiplierCounts(w, v)
		if err != nil {
			return 0, err
		}
		total += logmath.LogPartialFactorial(sat, ids)
	}
	return total, nil
}
