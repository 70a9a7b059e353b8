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

	"github.com/bayeslog/blog/model"
	"github.com/bayeslog/blog/util/logmath"
	"github.com/bayeslog/blog/world"
)

// idSnapshot maps each asserted identifier of a world to the number variable
// it satisfies.
type idSnapshot map[*model.Identifier]*model.Var

func snapshotIDs(w world.World) idSnapshot {
	out := make(idSnapshot)
	for _, id := range w.AssertedIdentifiers() {
		out[id] = w.POPAppSatisfied(id)
	}
	return out
}

// count returns how many identifiers of the snapshot satisfy nv.
func (obj idSnapshot) count(nv *model.Var) int {
	n := 0
	for _, x := range obj {
		if x == nv {
			n++
		}
	}
	return n
}

// logNewIDs returns the log of the number of ways the identifiers asserted in
// w but not in before could have been picked. Drawing from a set of n
// satisfiers of which k are asserted gives a new identifier with probability
// (n-k)/n, while the sampled distribution only counted 1/n for it, since all
// the unasserted identifiers are interchangeable.
func logNewIDs(before idSnapshot, w world.World) (float64, error) {
	created := make(map[*model.Var]int)
	order := []*model.Var{}
	for _, id := range w.AssertedIdentifiers() {
		if _, exists := before[id]; exists {
			continue
		}
		nv := w.POPAppSatisfied(id)
		if nv == nil {
			continue
		}
		if _, exists := created[nv]; !exists {
			order = append(order, nv)
		}
		created[nv]++
	}

	total := 0.0
	for _, nv := range order {
		set, err := w.Satisfiers(nv)
		if err != nil {
			return 0, err
		}
		m := created[nv]
		free := set.Size() - before.count(nv)
		if free < m {
			return math.Inf(-1), nil
		}
		total += logmath.LogPartialFactorial(free, m)
	}
	return total, nil
}

// unusedIDs returns the asserted identifiers which no variable has as its
// value.
func unusedIDs(w world.World) []*model.Identifier {
	out := []*model.Identifier{}
	for _, id := range w.AssertedIdentifiers() {
		if len(w.VarsWithValue(id)) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// releaseIDs removes the asserted identifiers which stopped being the value
// of any variable, which uninstantiates the variables they are arguments of.
// It returns how many identifiers were removed.
func (obj *Generic) releaseIDs(diff *world.Diff) (int, error) {
	ids := unusedIDs(diff)
	for _, id := range ids {
		for _, u := range diff.VarsWithArg(id) {
			if err := obj.dropVar(diff, u); err != nil {
				return 0, err
			}
		}
		if obj.data.Debug {
			obj.data.Logf("releasing identifier %s", id)
		}
		diff.RemoveIdentifier(id)
		obj.numRemoved++
	}
	return len(ids), nil
}

// dropVar accounts for x before it gets uninstantiated. The reverse move has
// to sample the value x had in the saved world, and a value this proposal
// sampled no longer counts once it's dropped.
func (obj *Generic) dropVar(diff *world.Diff, x *model.Var) error {
	if !x.IsBasic() || !diff.IsInstantiated(x) {
		return nil
	}
	saved := diff.Saved()
	if saved.IsInstantiated(x) {
		lp, err := saved.LogProbOfValue(x)
		if err != nil {
			return err
		}
		obj.logProbBackward += lp
		if saved.Value(x) == diff.Value(x) {
			return nil
		}
	}
	lp, err := diff.LogProbOfValue(x)
	if err != nil {
		return err
	}
	obj.logProbForward -= lp
	return nil
}
