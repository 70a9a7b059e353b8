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

// Package config holds the settings of an inference run. They are read from a
// YAML file and then overridden by command line flags.
package config

import (
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bayeslog/blog/model"
	"github.com/bayeslog/blog/util"
	"github.com/bayeslog/blog/util/errwrap"

	"github.com/iancoleman/strcase"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

const (
	// ErrInvalidBound is returned when a bound property is not an integer.
	ErrInvalidBound = util.Error("invalid bound")

	// ErrInvalidConfig is returned when a setting is out of range.
	ErrInvalidConfig = util.Error("invalid config")
)

// These are the recognized property keys.
const (
	ProposerClassKey = "proposerClass"
	IDTypesKey       = "idTypes"
	IntBoundKey      = "intBound"
	DepthBoundKey    = "depthBound"
)

// Config is the set of settings of an inference run.
type Config struct {
	// Model is the name of the example model to run.
	Model string `yaml:"model"`

	// Sampler is the registered name of the sampler.
	Sampler string `yaml:"sampler"`

	// Samples is the number of samples fed to the queries.
	Samples int `yaml:"samples"`

	// BurnIn is the number of samples taken first and thrown away.
	BurnIn int `yaml:"burnIn"`

	// Seed seeds the random stream.
	Seed uint64 `yaml:"seed"`

	// ReportInterval is how often at most the engine prints the query
	// results while sampling, as a duration string. Empty disables it.
	ReportInterval string `yaml:"reportInterval"`

	// Properties are the free form settings of the samplers. Keys are
	// normalized to lower camel case, so id_types becomes idTypes.
	Properties map[string]string `yaml:"properties"`
}

// DefaultConfig returns the settings used when nothing else is given.
func DefaultConfig() *Config {
	return &Config{
		Model:          "burglary",
		Sampler:        "lw",
		Samples:        10000,
		BurnIn:         0,
		Seed:           1,
		ReportInterval: "10s",
		Properties:     make(map[string]string),
	}
}

// ParseConfig reads YAML settings over the defaults. Unknown fields are an
// error.
func ParseConfig(r io.Reader) (*Config, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errwrap.Wrapf(err, "can't read config")
	}
	config := DefaultConfig()
	if err := yaml.UnmarshalStrict(b, config); err != nil {
		return nil, errwrap.Wrapf(err, "can't parse config")
	}
	properties := config.Properties
	config.Properties = make(map[string]string)
	for k, v := range properties {
		config.SetProperty(k, v)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ParseFile reads YAML settings from a file on fs.
func ParseFile(fs afero.Fs, path string) (*Config, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, errwrap.Wrapf(err, "can't open config file %s", path)
	}
	defer f.Close()
	config, err := ParseConfig(f)
	if err != nil {
		return nil, errwrap.Wrapf(err, "in config file %s", path)
	}
	return config, nil
}

// Validate checks the settings which can be checked without a model.
func (obj *Config) Validate() error {
	if obj.Samples < 0 {
		return errwrap.Wrapf(ErrInvalidConfig, "negative number of samples: %d", obj.Samples)
	}
	if obj.BurnIn < 0 {
		return errwrap.Wrapf(ErrInvalidConfig, "negative burn in: %d", obj.BurnIn)
	}
	if _, err := obj.IntBound(); err != nil {
		return err
	}
	if _, err := obj.DepthBound(); err != nil {
		return err
	}
	if _, err := obj.ReportEvery(); err != nil {
		return err
	}
	return nil
}

// NormalizeKey returns the canonical spelling of a property key.
func NormalizeKey(key string) string {
	return strcase.ToLowerCamel(strings.TrimSpace(key))
}

// SetProperty sets a property, normalizing its key.
func (obj *Config) SetProperty(key, value string) {
	if obj.Properties == nil {
		obj.Properties = make(map[string]string)
	}
	obj.Properties[NormalizeKey(key)] = strings.TrimSpace(value)
}

// ParseProperty sets a property given as key=value.
func (obj *Config) ParseProperty(s string) error {
	key, value, found := strings.Cut(s, "=")
	if !found || strings.TrimSpace(key) == "" {
		return errwrap.Wrapf(ErrInvalidConfig, "property %q is not of the form key=value", s)
	}
	obj.SetProperty(key, value)
	return nil
}

// Property returns a property and whether it was set.
func (obj *Config) Property(key string) (string, bool) {
	v, exists := obj.Properties[NormalizeKey(key)]
	return v, exists
}

// PropertyKeys returns the keys of the set properties, sorted.
func (obj *Config) PropertyKeys() []string {
	keys := []string{}
	for k := range obj.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (obj *Config) bound(key string) (int, error) {
	s, exists := obj.Property(key)
	if !exists || s == "" {
		return -1, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errwrap.Wrapf(ErrInvalidBound, "%s must be an integer, got: %s", key, s)
	}
	if n < 0 {
		return -1, nil // unbounded
	}
	return n, nil
}

// IntBound returns the bound on the magnitude of integers enumerated by the
// rejection sampler. It is -1 when unbounded.
func (obj *Config) IntBound() (int, error) { return obj.bound(IntBoundKey) }

// DepthBound returns the bound on the nesting depth of non-guaranteed objects
// enumerated by the rejection sampler. It is -1 when unbounded.
func (obj *Config) DepthBound() (int, error) { return obj.bound(DepthBoundKey) }

// ProposerClass returns the name of the proposer of the MCMC samplers. Empty
// means the default one.
func (obj *Config) ProposerClass() string {
	s, _ := obj.Property(ProposerClassKey)
	return s
}

// IDTypes resolves the types which use identifiers in m. The second return
// value is false if the property isn't set, in which case the caller keeps
// its own default.
func (obj *Config) IDTypes(m *model.Model) ([]*model.Type, bool, error) {
	s, exists := obj.Property(IDTypesKey)
	if !exists {
		return nil, false, nil
	}
	types, err := m.ListedTypes(s)
	if err != nil {
		return nil, true, errwrap.Wrapf(err, "bad %s property", IDTypesKey)
	}
	return types, true, nil
}

// ReportEvery returns the minimum time between progress reports. Zero
// disables them.
func (obj *Config) ReportEvery() (time.Duration, error) {
	if obj.ReportInterval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(obj.ReportInterval)
	if err != nil {
		return 0, errwrap.Wrapf(ErrInvalidConfig, "bad report interval %q", obj.ReportInterval)
	}
	if d < 0 {
		return 0, errwrap.Wrapf(ErrInvalidConfig, "negative report interval %q", obj.ReportInterval)
	}
	return d, nil
}
