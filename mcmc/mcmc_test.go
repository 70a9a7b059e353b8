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
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/bayeslog/blog/distrib"
	"github.com/bayeslog/blog/model"
	"github.com/bayeslog/blog/models"
	"github.com/bayeslog/blog/proposer"
	"github.com/bayeslog/blog/sample"
	"github.com/bayeslog/blog/util/logmath"
	"github.com/bayeslog/blog/world"

	"golang.org/x/exp/rand"
)

func newData(t *testing.T, ex *models.Example, seed uint64, proposerClass string) *sample.Data {
	return &sample.Data{
		Model:         ex.Model,
		IDTypes:       ex.IDTypes,
		IntBound:      -1,
		DepthBound:    -1,
		ProposerClass: proposerClass,
		Rng:           rand.New(rand.NewSource(seed)),
		Logf: func(format string, v ...interface{}) {
			t.Logf("mcmc: "+format, v...)
		},
	}
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func TestRegistered1(t *testing.T) {
	for _, name := range []string{MHName, GibbsName} {
		if _, err := sample.Lookup(name); err != nil {
			t.Errorf("expected %s to be registered: %+v", name, err)
		}
	}
}

func TestLogMultiplierRatio1(t *testing.T) {
	type test struct { // an individual test
		name                           string
		oldSat, oldIDs, newSat, newIDs int
		exp                            float64
	}
	testCases := []test{}
	{
		testCases = append(testCases, test{
			name:   "grow both",
			oldSat: 3, oldIDs: 1, newSat: 5, newIDs: 2,
			exp: math.Log(20) - math.Log(3),
		})
	}
	{
		testCases = append(testCases, test{
			name:   "shrink both",
			oldSat: 5, oldIDs: 2, newSat: 3, newIDs: 1,
			exp: math.Log(3) - math.Log(20),
		})
	}
	{
		testCases = append(testCases, test{
			name:   "unchanged",
			oldSat: 4, oldIDs: 2, newSat: 4, newIDs: 2,
			exp: 0,
		})
	}
	{
		testCases = append(testCases, test{
			name:   "no identifiers",
			oldSat: 2, oldIDs: 0, newSat: 6, newIDs: 0,
			exp: 0,
		})
	}
	{
		testCases = append(testCases, test{
			name:   "overlapping",
			oldSat: 6, oldIDs: 2, newSat: 5, newIDs: 2,
			exp: math.Log(20) - math.Log(30),
		})
	}

	names := []string{}
	for index, tc := range testCases { // run all the tests
		if contains(names, tc.name) {
			t.Errorf("test #%d: duplicate name of: %s", index, tc.name)
			continue
		}
		names = append(names, tc.name)
		t.Run(fmt.Sprintf("test #%d (%s)", index, tc.name), func(t *testing.T) {
			if got := LogMultiplierRatio(tc.oldSat, tc.oldIDs, tc.newSat, tc.newIDs); math.Abs(got-tc.exp) > 1e-9 {
				t.Errorf("expected %f, got: %f", tc.exp, got)
			}
		})
	}
}

// TestLogMultiplierRatio2 checks the cancellation against the direct
// computation for small counts.
func TestLogMultiplierRatio2(t *testing.T) {
	for oldSat := 0; oldSat <= 7; oldSat++ {
		for oldIDs := 0; oldIDs <= oldSat; oldIDs++ {
			for newSat := 0; newSat <= 7; newSat++ {
				for newIDs := 0; newIDs <= newSat; newIDs++ {
					exp := logmath.LogPartialFactorial(newSat, newIDs) - logmath.LogPartialFactorial(oldSat, oldIDs)
					if got := LogMultiplierRatio(oldSat, oldIDs, newSat, newIDs); math.Abs(got-exp) > 1e-9 {
						t.Errorf("(%d, %d) -> (%d, %d): expected %f, got: %f", oldSat, oldIDs, newSat, newIDs, exp, got)
					}
				}
			}
		}
	}
}

func TestValidate1(t *testing.T) {
	m := model.New("things")
	thing, err := m.NewType("Thing")
	if err != nil {
		t.Fatalf("could not add type: %+v", err)
	}
	pop := &model.POP{Type: thing, Dependency: model.DependencyFunc(func(model.EvalContext, []model.Value) (*model.Distrib, error) {
		return &model.Distrib{CPD: &distrib.UniformInt{Lo: 1, Hi: 3}}, nil
	})}
	if err := m.AddPOP(pop); err != nil {
		t.Fatalf("could not add pop: %+v", err)
	}
	nv := m.Number(pop)
	w := world.New(m, []*model.Type{thing})
	w.SetValue(nv, 1)

	diff := world.NewDiff(w)
	if err := validate(diff); err != nil {
		t.Errorf("expected an empty diff to be valid: %+v", err)
	}
	diff.AddIdentifierFor(nv)
	diff.AddIdentifierFor(nv)
	if err := validate(diff); !errors.Is(err, ErrInconsistentWorld) {
		t.Errorf("expected ErrInconsistentWorld, got: %v", err)
	}
	diff.Revert()
	if err := validate(diff); err != nil {
		t.Errorf("expected a reverted diff to be valid: %+v", err)
	}
}

func TestEvidenceInvariant1(t *testing.T) {
	type test struct { // an individual test
		name     string
		model    string
		sampler  string
		proposer string
	}
	testCases := []test{
		{"mh burglary", "burglary", MHName, proposer.GenericName},
		{"mh coin neighborhood", "coin", MHName, proposer.NeighborhoodName},
		{"mh urn", "urn", MHName, proposer.GenericName},
		{"gibbs burglary", "burglary", GibbsName, proposer.GenericName},
		{"gibbs urn", "urn", GibbsName, proposer.GenericName},
	}
	for index, tc := range testCases { // run all the tests
		t.Run(fmt.Sprintf("test #%d (%s)", index, tc.name), func(t *testing.T) {
			ex, err := models.Build(tc.model)
			if err != nil {
				t.Fatalf("could not build: %+v", err)
			}
			s, err := sample.Lookup(tc.sampler)
			if err != nil {
				t.Fatalf("could not lookup: %+v", err)
			}
			if err := s.Init(newData(t, ex, 5, tc.proposer)); err != nil {
				t.Fatalf("could not init: %+v", err)
			}
			if err := s.Initialize(ex.Evidence, ex.Queries); err != nil {
				t.Fatalf("could not initialize: %+v", err)
			}
			for i := 0; i < 300; i++ {
				if err := s.NextSample(); err != nil {
					t.Fatalf("sample %d failed: %+v", i, err)
				}
				w, err := s.LatestWorld()
				if err != nil {
					t.Fatalf("no world: %+v", err)
				}
				if !ex.Evidence.IsTrue(w) {
					t.Fatalf("sample %d: evidence is not true in: %s", i, w)
				}
				if s.LatestWeight() != 1 {
					t.Errorf("sample %d: expected weight one, got: %f", i, s.LatestWeight())
				}
			}
			s.PrintStats()
		})
	}
}

// TestAcceptRatio1 checks each acceptance ratio on the coin model against the
// ratio of the exact posteriors, which also makes it antisymmetric.
func TestAcceptRatio1(t *testing.T) {
	ex, err := models.Build("coin")
	if err != nil {
		t.Fatalf("could not build: %+v", err)
	}
	bias := ex.VarQueries()[0].Var
	biasType, err := ex.Model.Type("Bias")
	if err != nil {
		t.Fatalf("no bias type: %+v", err)
	}
	likelihood := map[model.Value]float64{
		biasType.Object("Low"):  0.2 * 0.2 * 0.8,
		biasType.Object("Mid"):  0.5 * 0.5 * 0.5,
		biasType.Object("High"): 0.8 * 0.8 * 0.2,
	}

	p := proposer.NewGeneric()
	s := &MH{Proposer: p}
	if err := s.Init(newData(t, ex, 9, "")); err != nil {
		t.Fatalf("could not init: %+v", err)
	}
	if err := s.Initialize(ex.Evidence, ex.Queries); err != nil {
		t.Fatalf("could not initialize: %+v", err)
	}
	ratios := map[string]float64{}
	for i := 0; i < 200; i++ {
		w, err := s.LatestWorld()
		if err != nil {
			t.Fatalf("no world: %+v", err)
		}
		before := w.Value(bias)
		if err := s.NextSample(); err != nil {
			t.Fatalf("sample %d failed: %+v", i, err)
		}
		after := p.NewValue()
		exp := math.Log(likelihood[after]) - math.Log(likelihood[before])
		if got := s.LatestLogAcceptRatio(); math.Abs(got-exp) > 1e-9 {
			t.Errorf("sample %d: %s -> %s: expected %f, got: %f", i, before, after, exp, got)
		}
		ratios[fmt.Sprintf("%s %s", before, after)] = s.LatestLogAcceptRatio()
	}
	for key, r := range ratios {
		var a, b string
		fmt.Sscanf(key, "%s %s", &a, &b)
		if back, exists := ratios[fmt.Sprintf("%s %s", b, a)]; exists && math.Abs(r+back) > 1e-9 {
			t.Errorf("%s and back are not opposite: %f, %f", key, r, back)
		}
	}
}

// TestGibbsWeights1 checks that the weights of the three biases of the coin
// normalize to the exact posterior.
func TestGibbsWeights1(t *testing.T) {
	ex, err := models.Build("coin")
	if err != nil {
		t.Fatalf("could not build: %+v", err)
	}
	bias := ex.VarQueries()[0].Var
	biasType, err := ex.Model.Type("Bias")
	if err != nil {
		t.Fatalf("no bias type: %+v", err)
	}
	s := &Gibbs{}
	if err := s.Init(newData(t, ex, 13, "")); err != nil {
		t.Fatalf("could not init: %+v", err)
	}
	if err := s.Initialize(ex.Evidence, ex.Queries); err != nil {
		t.Fatalf("could not initialize: %+v", err)
	}

	weights := []float64{}
	for _, x := range biasType.Guaranteed {
		cand, err := s.proposer.ReduceToCore(s.curWorld, bias)
		if err != nil {
			t.Fatalf("could not reduce: %+v", err)
		}
		lw, err := s.logWeight(cand, bias, x)
		if err != nil {
			t.Fatalf("no weight for %s: %+v", x, err)
		}
		weights = append(weights, math.Exp(lw))
	}
	probs := logmath.Normalize(weights)
	for i, exp := range models.CoinPosterior {
		if math.Abs(probs[i]-exp) > 1e-9 {
			t.Errorf("weight %d: expected %f, got: %f", i, exp, probs[i])
		}
	}
	if s.curWorld.Value(bias) == nil {
		t.Errorf("trying values changed the current world")
	}
}

func TestPosterior1(t *testing.T) {
	type test struct { // an individual test
		name     string
		sampler  string
		proposer string
		model    string
		exp      []float64
		values   func(ex *models.Example) []model.Value
		mean     float64 // expected value of a numeric query, if set
		burnIn   int
		samples  int
		epsilon  float64
	}
	coinValues := func(ex *models.Example) []model.Value {
		bias, err := ex.Model.Type("Bias")
		if err != nil {
			t.Fatalf("no bias type: %+v", err)
		}
		return bias.Guaranteed
	}
	testCases := []test{}
	{
		testCases = append(testCases, test{
			name:     "mh coin",
			sampler:  MHName,
			proposer: proposer.GenericName,
			model:    "coin",
			exp:      models.CoinPosterior,
			values:   coinValues,
			burnIn:   100,
			samples:  6000,
			epsilon:  0.06,
		})
	}
	{
		testCases = append(testCases, test{
			name:     "mh neighborhood coin",
			sampler:  MHName,
			proposer: proposer.NeighborhoodName,
			model:    "coin",
			exp:      models.CoinPosterior,
			values:   coinValues,
			burnIn:   100,
			samples:  4000,
			epsilon:  0.05,
		})
	}
	{
		testCases = append(testCases, test{
			name:     "gibbs coin",
			sampler:  GibbsName,
			proposer: proposer.GenericName,
			model:    "coin",
			exp:      models.CoinPosterior,
			values:   coinValues,
			burnIn:   100,
			samples:  4000,
			epsilon:  0.05,
		})
	}
	{
		testCases = append(testCases, test{
			name:     "gibbs burglary",
			sampler:  GibbsName,
			proposer: proposer.GenericName,
			model:    "burglary",
			exp:      []float64{0.284172, 0.715828},
			values:   func(*models.Example) []model.Value { return []model.Value{true, false} },
			burnIn:   200,
			samples:  8000,
			epsilon:  0.07,
		})
	}
	{
		testCases = append(testCases, test{
			name:     "mh neighborhood burglary",
			sampler:  MHName,
			proposer: proposer.NeighborhoodName,
			model:    "burglary",
			exp:      []float64{0.284172, 0.715828},
			values:   func(*models.Example) []model.Value { return []model.Value{true, false} },
			burnIn:   200,
			samples:  10000,
			epsilon:  0.07,
		})
	}
	{
		testCases = append(testCases, test{
			name:     "mh urn",
			sampler:  MHName,
			proposer: proposer.GenericName,
			model:    "urn",
			mean:     models.UrnPosteriorMean,
			burnIn:   1000,
			samples:  30000,
			epsilon:  0.8,
		})
	}
	{
		testCases = append(testCases, test{
			name:     "gibbs urn",
			sampler:  GibbsName,
			proposer: proposer.GenericName,
			model:    "urn",
			mean:     models.UrnPosteriorMean,
			burnIn:   1000,
			samples:  30000,
			epsilon:  0.8,
		})
	}
	{
		testCases = append(testCases, test{
			name:     "mh aircraft",
			sampler:  MHName,
			proposer: proposer.GenericName,
			model:    "aircraft",
			exp:      models.AircraftPosterior,
			values:   func(*models.Example) []model.Value { return []model.Value{1, 2, 3} },
			burnIn:   500,
			samples:  20000,
			epsilon:  0.06,
		})
	}
	{
		testCases = append(testCases, test{
			name:     "gibbs aircraft",
			sampler:  GibbsName,
			proposer: proposer.GenericName,
			model:    "aircraft",
			exp:      models.AircraftPosterior,
			values:   func(*models.Example) []model.Value { return []model.Value{1, 2, 3} },
			burnIn:   500,
			samples:  20000,
			epsilon:  0.06,
		})
	}

	names := []string{}
	for index, tc := range testCases { // run all the tests
		if contains(names, tc.name) {
			t.Errorf("test #%d: duplicate name of: %s", index, tc.name)
			continue
		}
		names = append(names, tc.name)

		t.Run(fmt.Sprintf("test #%d (%s)", index, tc.name), func(t *testing.T) {
			ex, err := models.Build(tc.model)
			if err != nil {
				t.Fatalf("could not build: %+v", err)
			}
			s, err := sample.Lookup(tc.sampler)
			if err != nil {
				t.Fatalf("could not lookup: %+v", err)
			}
			if err := s.Init(newData(t, ex, 42, tc.proposer)); err != nil {
				t.Fatalf("could not init: %+v", err)
			}
			if err := s.Initialize(ex.Evidence, ex.Queries); err != nil {
				t.Fatalf("could not initialize: %+v", err)
			}
			for i := 0; i < tc.burnIn+tc.samples; i++ {
				if err := s.NextSample(); err != nil {
					t.Fatalf("sample %d failed: %+v", i, err)
				}
				if i < tc.burnIn {
					continue
				}
				w, err := s.LatestWorld()
				if err != nil {
					t.Fatalf("no world: %+v", err)
				}
				for _, q := range ex.Queries {
					if err := q.Update(w, s.LatestLogWeight()); err != nil {
						t.Fatalf("could not update %s: %+v", q, err)
					}
				}
			}
			s.PrintStats()

			q := ex.VarQueries()[0]
			if tc.values != nil {
				for i, val := range tc.values(ex) {
					if got := q.Prob(val); math.Abs(got-tc.exp[i]) > tc.epsilon {
						t.Errorf("P(%s = %s) expected %f, got: %f", q, model.ValueString(val), tc.exp[i], got)
					}
				}
			}
			if tc.mean != 0 {
				mean := 0.0
				for _, e := range q.Histogram() {
					n, ok := e.Value.(int)
					if !ok {
						t.Fatalf("value %s of %s is not a number", model.ValueString(e.Value), q)
					}
					mean += float64(n) * e.Prob
				}
				if math.Abs(mean-tc.mean) > tc.epsilon {
					t.Errorf("E[%s] expected %f, got: %f", q, tc.mean, mean)
				}
			}
		})
	}
}

// TestUnsupportedProposal1 runs the urn with balls as non-guaranteed objects,
// where dropping the number of balls leaves observations about a ball which
// no longer exists. Those proposals are rejected rather than failing.
func TestUnsupportedProposal1(t *testing.T) {
	type test struct { // an individual test
		name    string
		sampler string
	}
	testCases := []test{
		{name: "mh", sampler: MHName},
		{name: "gibbs", sampler: GibbsName},
	}
	for index, tc := range testCases {
		t.Run(fmt.Sprintf("test #%d (%s)", index, tc.name), func(t *testing.T) {
			ex, err := models.Build("urn")
			if err != nil {
				t.Fatalf("could not build: %+v", err)
			}
			ex.IDTypes = nil
			numBall := ex.VarQueries()[0].Var

			s, err := sample.Lookup(tc.sampler)
			if err != nil {
				t.Fatalf("could not lookup: %+v", err)
			}
			if err := s.Init(newData(t, ex, uint64(index)+17, "")); err != nil {
				t.Fatalf("could not init: %+v", err)
			}
			if err := s.Initialize(ex.Evidence, ex.Queries); err != nil {
				t.Fatalf("could not initialize: %+v", err)
			}
			lowered := 0
			for i := 0; i < 2000; i++ {
				w, err := s.LatestWorld()
				if err != nil {
					t.Fatalf("no world: %+v", err)
				}
				before, _ := w.Value(numBall).(int)
				if err := s.NextSample(); err != nil {
					t.Fatalf("sample %d failed: %+v", i, err)
				}
				if w, err = s.LatestWorld(); err != nil {
					t.Fatalf("no world: %+v", err)
				}
				if !ex.Evidence.IsTrue(w) {
					t.Fatalf("sample %d: evidence not true in %s", i, w)
				}
				if after, _ := w.Value(numBall).(int); after < before {
					lowered++
				}
			}
			if lowered == 0 {
				t.Errorf("the number of balls never went down")
			}
		})
	}
}
