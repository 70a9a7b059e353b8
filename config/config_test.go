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

package config

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/bayeslog/blog/model"

	"github.com/kylelemons/godebug/pretty"
	"github.com/spf13/afero"
)

func TestParseConfig1(t *testing.T) {
	type test struct { // an individual test
		name  string
		yaml  string
		fail  bool
		exp   *Config
		bound int
	}
	testCases := []test{}
	{
		exp := DefaultConfig()
		testCases = append(testCases, test{
			name:  "empty",
			yaml:  ``,
			exp:   exp,
			bound: -1,
		})
	}
	{
		exp := DefaultConfig()
		exp.Model = "urn"
		exp.Sampler = "mh"
		exp.Samples = 500
		exp.BurnIn = 50
		exp.Seed = 42
		exp.Properties = map[string]string{"idTypes": "Ball", "intBound": "5", "proposerClass": "neighborhood"}
		testCases = append(testCases, test{
			name: "full",
			yaml: `
model: urn
sampler: mh
samples: 500
burnIn: 50
seed: 42
properties:
  id_types: Ball
  intBound: " 5 "
  proposerClass: neighborhood
`,
			exp:   exp,
			bound: 5,
		})
	}
	{
		testCases = append(testCases, test{
			name: "unknown field",
			yaml: `modle: urn`,
			fail: true,
		})
	}
	{
		testCases = append(testCases, test{
			name: "bad bound",
			yaml: "properties:\n  intBound: many\n",
			fail: true,
		})
	}
	{
		testCases = append(testCases, test{
			name: "negative samples",
			yaml: "samples: -3\n",
			fail: true,
		})
	}
	{
		exp := DefaultConfig()
		exp.Properties = map[string]string{"depthBound": "-4"}
		testCases = append(testCases, test{
			name:  "negative bound is unbounded",
			yaml:  "properties:\n  depth_bound: -4\n",
			exp:   exp,
			bound: -1,
		})
	}

	names := []string{}
	for index, tc := range testCases { // run all the tests
		if tc.name == "" {
			t.Errorf("test #%d: not named", index)
			continue
		}
		if contains(names, tc.name) {
			t.Errorf("test #%d: duplicate name of: %s", index, tc.name)
			continue
		}
		names = append(names, tc.name)

		t.Run(fmt.Sprintf("test #%d (%s)", index, tc.name), func(t *testing.T) {
			config, err := ParseConfig(strings.NewReader(tc.yaml))
			if tc.fail {
				if err == nil {
					t.Errorf("expected failure, got: %+v", config)
				}
				return
			}
			if err != nil {
				t.Fatalf("could not parse: %+v", err)
			}
			if diff := pretty.Compare(tc.exp, config); diff != "" {
				t.Errorf("config differs: (-want +got)\n%s", diff)
			}
			if n, err := config.IntBound(); err != nil || n != tc.bound {
				t.Errorf("expected int bound %d, got: %d (%v)", tc.bound, n, err)
			}
		})
	}
}

func TestBound1(t *testing.T) {
	config := DefaultConfig()
	if err := config.ParseProperty("depth-bound=x"); err != nil {
		t.Fatalf("could not set: %+v", err)
	}
	if _, err := config.DepthBound(); !errors.Is(err, ErrInvalidBound) {
		t.Errorf("expected ErrInvalidBound, got: %v", err)
	}
	if err := config.ParseProperty("nonsense"); err == nil {
		t.Errorf("expected an error without an equals sign")
	}
	if err := config.ParseProperty("depthBound=3"); err != nil {
		t.Fatalf("could not set: %+v", err)
	}
	if n, err := config.DepthBound(); err != nil || n != 3 {
		t.Errorf("expected 3, got: %d (%v)", n, err)
	}
	if keys := config.PropertyKeys(); len(keys) != 1 || keys[0] != DepthBoundKey {
		t.Errorf("unexpected keys: %v", keys)
	}
}

func TestIDTypes1(t *testing.T) {
	m := model.New("test")
	ball, err := m.NewType("Ball")
	if err != nil {
		t.Fatalf("could not add type: %+v", err)
	}
	if _, err := m.NewType("Draw", "Draw1"); err != nil {
		t.Fatalf("could not add type: %+v", err)
	}

	config := DefaultConfig()
	if _, set, err := config.IDTypes(m); set || err != nil {
		t.Errorf("expected no setting, got: %t, %v", set, err)
	}
	config.SetProperty("idTypes", "Ball")
	types, set, err := config.IDTypes(m)
	if err != nil || !set || len(types) != 1 || types[0] != ball {
		t.Errorf("unexpected types: %v, %t, %v", types, set, err)
	}
	config.SetProperty("idTypes", "all")
	if types, _, err := config.IDTypes(m); err != nil || len(types) != 2 {
		t.Errorf("expected all types, got: %v, %v", types, err)
	}
	config.SetProperty("idTypes", "Nope")
	if _, _, err := config.IDTypes(m); !errors.Is(err, model.ErrUnknownType) {
		t.Errorf("expected ErrUnknownType, got: %v", err)
	}
}

func TestParseFile1(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/blog.yaml", []byte("model: coin\nreportInterval: 1m\n"), 0644); err != nil {
		t.Fatalf("could not write: %+v", err)
	}
	config, err := ParseFile(fs, "/blog.yaml")
	if err != nil {
		t.Fatalf("could not parse: %+v", err)
	}
	if config.Model != "coin" {
		t.Errorf("expected coin, got: %s", config.Model)
	}
	if d, err := config.ReportEvery(); err != nil || d.Minutes() != 1 {
		t.Errorf("expected a minute, got: %v (%v)", d, err)
	}
	if _, err := ParseFile(fs, "/missing.yaml"); err == nil {
		t.Errorf("expected an error for a missing file")
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
