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

package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/bayeslog/blog/model"
	"github.com/bayeslog/blog/models"
	"github.com/bayeslog/blog/prometheus"
	"github.com/bayeslog/blog/sample"

	"golang.org/x/exp/rand"
)

func newEngine(t *testing.T, name, sampler string, samples, burnIn int) (*Engine, *models.Example) {
	ex, err := models.Build(name)
	if err != nil {
		t.Fatalf("could not build: %+v", err)
	}
	obj := &Engine{
		Data: &sample.Data{
			Model:      ex.Model,
			IDTypes:    ex.IDTypes,
			IntBound:   -1,
			DepthBound: -1,
			Rng:        rand.New(rand.NewSource(17)),
			Logf: func(format string, v ...interface{}) {
				t.Logf("sampler: "+format, v...)
			},
		},
		SamplerName: sampler,
		Evidence:    ex.Evidence,
		Queries:     ex.Queries,
		NumSamples:  samples,
		BurnIn:      burnIn,
		Logf: func(format string, v ...interface{}) {
			t.Logf("engine: "+format, v...)
		},
	}
	return obj, ex
}

func TestRun1(t *testing.T) {
	type test struct { // an individual test
		name    string
		sampler string
		samples int
		burnIn  int
		epsilon float64
	}
	testCases := []test{
		{"lw", sample.LWName, 3000, 0, 0.05},
		{"rejection", sample.RejectionName, 3000, 0, 0.08},
		{"mh", "mh", 5000, 200, 0.06},
		{"gibbs", "gibbs", 3000, 100, 0.05},
	}
	for index, tc := range testCases { // run all the tests
		t.Run(fmt.Sprintf("test #%d (%s)", index, tc.name), func(t *testing.T) {
			obj, ex := newEngine(t, "coin", tc.sampler, tc.samples, tc.burnIn)
			if err := obj.Init(); err != nil {
				t.Fatalf("could not init: %+v", err)
			}
			if err := obj.Run(context.Background()); err != nil {
				t.Fatalf("could not run: %+v", err)
			}
			if n := obj.NumDone(); n != tc.samples+tc.burnIn {
				t.Errorf("expected %d samples, got: %d", tc.samples+tc.burnIn, n)
			}
			q := ex.VarQueries()[0]
			if q.Count() != tc.samples {
				t.Errorf("expected %d updates, got: %d", tc.samples, q.Count())
			}
			bias, err := ex.Model.Type("Bias")
			if err != nil {
				t.Fatalf("no bias type: %+v", err)
			}
			for i, val := range bias.Guaranteed {
				if got := q.Prob(val); math.Abs(got-models.CoinPosterior[i]) > tc.epsilon {
					t.Errorf("P(%s = %s) expected %f, got: %f", q, model.ValueString(val), models.CoinPosterior[i], got)
				}
			}
		})
	}
}

func TestCancel1(t *testing.T) {
	obj, _ := newEngine(t, "burglary", sample.LWName, 1000, 0)
	if err := obj.Init(); err != nil {
		t.Fatalf("could not init: %+v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := obj.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected a cancelled run, got: %v", err)
	}
	if obj.NumDone() != 0 {
		t.Errorf("expected no samples, got: %d", obj.NumDone())
	}
}

func TestInit1(t *testing.T) {
	obj, _ := newEngine(t, "burglary", "nope", 10, 0)
	if err := obj.Init(); err == nil {
		t.Errorf("expected an error for an unknown sampler")
	}
	obj, _ = newEngine(t, "burglary", sample.LWName, -1, 0)
	if err := obj.Init(); err == nil {
		t.Errorf("expected an error for a negative number of samples")
	}
	if err := (&Engine{}).Run(context.Background()); err == nil {
		t.Errorf("expected an error without Init")
	}
}

func TestReport1(t *testing.T) {
	obj, _ := newEngine(t, "burglary", "mh", 200, 20)
	obj.ReportEvery = time.Nanosecond
	reports := 0
	obj.Logf = func(format string, v ...interface{}) {
		if strings.Contains(format, "samples after") {
			reports++
		}
	}
	obj.Prometheus = &prometheus.Prometheus{}
	if err := obj.Prometheus.Init(); err != nil {
		t.Fatalf("could not init metrics: %+v", err)
	}
	if err := obj.Init(); err != nil {
		t.Fatalf("could not init: %+v", err)
	}
	if obj.RunID() == "" {
		t.Errorf("expected a run id")
	}
	if err := obj.Run(context.Background()); err != nil {
		t.Fatalf("could not run: %+v", err)
	}
	if reports == 0 {
		t.Errorf("expected some progress reports")
	}

	metrics, err := obj.Prometheus.Gatherer().Gather()
	if err != nil {
		t.Fatalf("could not gather: %+v", err)
	}
	total := 0.0
	for _, metric := range metrics {
		if metric.GetName() != "blog_proposals_total" {
			continue
		}
		for _, m := range metric.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	if total != 220 {
		t.Errorf("expected 220 proposals, got: %f", total)
	}
}
