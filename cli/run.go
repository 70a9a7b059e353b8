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

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	cliUtil "github.com/bayeslog/blog/cli/util"
	"github.com/bayeslog/blog/config"
	"github.com/bayeslog/blog/engine"
	"github.com/bayeslog/blog/model"
	"github.com/bayeslog/blog/models"
	"github.com/bayeslog/blog/prometheus"
	"github.com/bayeslog/blog/sample"
	"github.com/bayeslog/blog/util/errwrap"

	"github.com/hashicorp/go-set/v3"
	"github.com/sanity-io/litter"
	"github.com/spf13/afero"
	"golang.org/x/exp/rand"
)

// RunArgs is the CLI parsing structure and type of the parsed result. This
// particular one contains all the flags for the `run` subcommand. Every
// setting which is not given keeps the value from the config file, or the
// default if there is none.
type RunArgs struct {
	Config string `arg:"--config,env:BLOG_CONFIG" help:"path to a yaml config file"`

	Model          *string  `arg:"-m,--model" help:"name of the model to run"`
	Sampler        *string  `arg:"-s,--sampler" help:"name of the sampler to use"`
	Samples        *int     `arg:"-n,--samples" help:"number of samples to take after burn in"`
	BurnIn         *int     `arg:"--burn-in" help:"number of samples to throw away first"`
	Seed           *uint64  `arg:"--seed" help:"seed of the random stream"`
	ReportInterval *string  `arg:"--report-interval" help:"minimum time between progress reports (empty disables)"`
	Properties     []string `arg:"-P,--property,separate" help:"sampler property as key=value, may repeat"`

	Graphviz       string `arg:"--graphviz" help:"output file for the graphviz data of the last world"`
	GraphvizFilter string `arg:"--graphviz-filter" default:"dot" help:"graphviz filter to render the graphviz file with"`

	Prometheus       bool   `arg:"--prometheus" help:"start a prometheus instance"`
	PrometheusListen string `arg:"--prometheus-listen" help:"specify prometheus instance binding"`
}

// Run executes the correct subcommand. It errors if there's ever an error. It
// returns true if we did activate one of the subcommands. It returns false if
// we did not. The `run` subcommand always activates.
func (obj *RunArgs) Run(ctx context.Context, data *cliUtil.Data) (bool, error) {
	debug := data.Flags.Debug
	Logf := func(format string, v ...interface{}) {
		data.Flags.Logf("main: "+format, v...)
	}

	cliUtil.Hello(data, "run") // say hello!
	defer Logf("goodbye!")

	cfg, err := obj.config()
	if err != nil {
		return false, err
	}
	if debug {
		Logf("config: %s", litter.Sdump(cfg))
	}

	if !set.From(models.Names()).Contains(cfg.Model) {
		return false, errwrap.Wrapf(cliUtil.UnknownModel, "no model named %s, have: %v", cfg.Model, models.Names())
	}
	ex, err := models.Build(cfg.Model)
	if err != nil {
		return false, errwrap.Wrapf(err, "could not build the %s model", cfg.Model)
	}
	Logf("model: %s (%s)", ex.Name, ex.Description)

	sd, err := obj.sampleData(cfg, ex, debug, data.Flags.Logf)
	if err != nil {
		return false, err
	}

	reportEvery, err := cfg.ReportEvery()
	if err != nil {
		return false, err
	}

	var prom *prometheus.Prometheus
	if obj.Prometheus {
		prom = &prometheus.Prometheus{
			Listen: obj.PrometheusListen,
		}
		if err := prom.Init(); err != nil {
			return false, errwrap.Wrapf(err, "can't initialize prometheus instance")
		}
		Logf("prometheus: starting instance on %s", prom.Listen)
		if err := prom.Start(); err != nil {
			return false, errwrap.Wrapf(err, "can't start prometheus instance")
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := prom.Stop(ctx); err != nil {
				Logf("prometheus: error stopping instance: %+v", err)
			}
		}()
	}

	eng := &engine.Engine{
		Data:        sd,
		SamplerName: cfg.Sampler,
		Evidence:    ex.Evidence,
		Queries:     ex.Queries,
		NumSamples:  cfg.Samples,
		BurnIn:      cfg.BurnIn,
		ReportEvery: reportEvery,
		Prometheus:  prom,

		Debug: debug,
		Logf: func(format string, v ...interface{}) {
			data.Flags.Logf("engine: "+format, v...)
		},
	}
	if err := eng.Init(); err != nil {
		return false, errwrap.Wrapf(err, "engine init failed")
	}
	Logf("run: %s", eng.RunID())

	// an interrupt stops the sampling early, the results so far still print
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := eng.Run(ctx); errors.Is(err, context.Canceled) {
		Logf("interrupted after %d samples", eng.NumDone())
		return true, nil
	} else if err != nil {
		return false, errwrap.Wrapf(err, "inference failed")
	}

	if obj.Graphviz != "" {
		if err := obj.graphviz(eng); err != nil {
			return false, err
		}
		Logf("graphviz: wrote %s", obj.Graphviz)
	}

	return true, nil
}

// config loads the config file if one was named, and then applies the flags
// on top of it.
func (obj *RunArgs) config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if obj.Config != "" {
		c, err := config.ParseFile(afero.NewOsFs(), obj.Config)
		if err != nil {
			return nil, err
		}
		cfg = c
	}

	if obj.Model != nil {
		cfg.Model = *obj.Model
	}
	if obj.Sampler != nil {
		cfg.Sampler = *obj.Sampler
	}
	if obj.Samples != nil {
		cfg.Samples = *obj.Samples
	}
	if obj.BurnIn != nil {
		cfg.BurnIn = *obj.BurnIn
	}
	if obj.Seed != nil {
		cfg.Seed = *obj.Seed
	}
	if obj.ReportInterval != nil {
		cfg.ReportInterval = *obj.ReportInterval
	}
	for _, p := range obj.Properties {
		if err := cfg.ParseProperty(p); err != nil {
			return nil, cliUtil.CliParseError(err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// sampleData builds the settings which are handed to the sampler.
func (obj *RunArgs) sampleData(cfg *config.Config, ex *models.Example, debug bool, logf func(format string, v ...interface{})) (*sample.Data, error) {
	idTypes := ex.IDTypes
	if types, ok, err := cfg.IDTypes(ex.Model); err != nil {
		return nil, err
	} else if ok {
		idTypes = types
	}
	intBound, err := cfg.IntBound()
	if err != nil {
		return nil, err
	}
	depthBound, err := cfg.DepthBound()
	if err != nil {
		return nil, err
	}

	return &sample.Data{
		Model:         ex.Model,
		IDTypes:       idTypes,
		IntBound:      intBound,
		DepthBound:    depthBound,
		ProposerClass: cfg.ProposerClass(),
		Rng:           rand.New(rand.NewSource(cfg.Seed)),

		Debug: debug,
		Logf: func(format string, v ...interface{}) {
			logf(cfg.Sampler+": "+format, v...)
		},
	}, nil
}

// graphviz writes out the contingent bayes net of the last world.
func (obj *RunArgs) graphviz(eng *engine.Engine) error {
	w, err := eng.Sampler().LatestWorld()
	if err != nil {
		return errwrap.Wrapf(err, "no world to draw")
	}
	g, err := w.CBN()
	if err != nil {
		return errwrap.Wrapf(err, "could not build the network")
	}
	label := func(v *model.Var) string {
		return fmt.Sprintf("%s = %s", v, model.ValueString(w.Value(v)))
	}
	if err := g.ExecGraphviz(afero.NewOsFs(), obj.Graphviz, obj.GraphvizFilter, label); err != nil {
		return errwrap.Wrapf(err, "writing graphviz failed")
	}
	return nil
}
