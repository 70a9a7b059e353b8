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

// Package prometheus provides functions that are useful to control and manage
// the built-in prometheus instance which exports the sampler metrics.
package prometheus

import (
	"context"
	"net/http"
	"strconv"

	"github.com/bayeslog/blog/util/errwrap"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultPrometheusListen is where the metrics are served when nothing else
// is set.
const DefaultPrometheusListen = "127.0.0.1:9233"

// Prometheus is the struct that contains information about the prometheus
// instance. Run Init() on it.
type Prometheus struct {
	Listen string // the listen specification for the net/http server

	registry *prometheus.Registry
	server   *http.Server

	samplesTotal            *prometheus.CounterVec // samples taken, by sampler and phase
	proposalsTotal          *prometheus.CounterVec // mcmc proposals, by outcome
	latestLogWeight         *prometheus.GaugeVec   // log weight of the latest sample
	processStartTimeSeconds prometheus.Gauge       // process start time in seconds since unix epoch
}

// Init builds the metrics. Each instance has its own registry.
func (obj *Prometheus) Init() error {
	if len(obj.Listen) == 0 {
		obj.Listen = DefaultPrometheusListen
	}
	obj.registry = prometheus.NewRegistry()

	obj.samplesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_samples_total",
			Help: "Number of samples that have been taken.",
		},
		// Labels for this metric.
		// run: identifier of the run
		// sampler: registered name of the sampler
		// burnin: if the sample was thrown away
		[]string{"run", "sampler", "burnin"},
	)
	obj.proposalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_proposals_total",
			Help: "Number of mcmc proposals that have been decided.",
		},
		[]string{"run", "sampler", "accepted"},
	)
	obj.latestLogWeight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "blog_latest_log_weight",
			Help: "Log weight of the latest sample.",
		},
		[]string{"run", "sampler"},
	)
	obj.processStartTimeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "blog_process_start_time_seconds",
			Help: "Start time of the process since unix epoch in seconds.",
		},
	)
	for _, c := range []prometheus.Collector{obj.samplesTotal, obj.proposalsTotal, obj.latestLogWeight, obj.processStartTimeSeconds} {
		if err := obj.registry.Register(c); err != nil {
			return errwrap.Wrapf(err, "could not register metric")
		}
	}
	// directly set the processStartTimeSeconds
	obj.processStartTimeSeconds.SetToCurrentTime()

	return nil
}

// Start runs a http server in a go routine, that responds to /metrics as
// prometheus would expect.
func (obj *Prometheus) Start() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(obj.registry, promhttp.HandlerOpts{}))
	obj.server = &http.Server{Addr: obj.Listen, Handler: mux}
	go obj.server.ListenAndServe() // errors once it's closed
	return nil
}

// Stop the http server.
func (obj *Prometheus) Stop(ctx context.Context) error {
	if obj.server == nil {
		return nil
	}
	return obj.server.Shutdown(ctx)
}

// Gatherer returns the registry of the metrics.
func (obj *Prometheus) Gatherer() prometheus.Gatherer { return obj.registry }

// UpdateSamplesTotal counts one sample.
func (obj *Prometheus) UpdateSamplesTotal(run, sampler string, burnIn bool) error {
	labels := prometheus.Labels{"run": run, "sampler": sampler, "burnin": strconv.FormatBool(burnIn)}
	obj.samplesTotal.With(labels).Inc()
	return nil
}

// UpdateProposals adds the proposals decided since the last call.
func (obj *Prometheus) UpdateProposals(run, sampler string, accepted, rejected int) error {
	if accepted > 0 {
		obj.proposalsTotal.With(prometheus.Labels{"run": run, "sampler": sampler, "accepted": "true"}).Add(float64(accepted))
	}
	if rejected > 0 {
		obj.proposalsTotal.With(prometheus.Labels{"run": run, "sampler": sampler, "accepted": "false"}).Add(float64(rejected))
	}
	return nil
}

// UpdateLatestLogWeight sets the log weight of the latest sample.
func (obj *Prometheus) UpdateLatestLogWeight(run, sampler string, logWeight float64) error {
	obj.latestLogWeight.With(prometheus.Labels{"run": run, "sampler": sampler}).Set(logWeight)
	return nil
}
