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

package models

import (
	"fmt"
	"testing"
)

func TestBuild1(t *testing.T) {
	names := Names()
	if len(names) != 5 {
		t.Errorf("expected 5 models, got: %v", names)
	}
	for index, name := range names {
		t.Run(fmt.Sprintf("test #%d (%s)", index, name), func(t *testing.T) {
			ex, err := Build(name)
			if err != nil {
				t.Fatalf("could not build: %+v", err)
			}
			if ex.Name != name || ex.Description == "" {
				t.Errorf("expected a name and description")
			}
			if len(ex.Queries) == 0 || len(ex.VarQueries()) != len(ex.Queries) {
				t.Errorf("expected variable queries")
			}
			if ex.Evidence == nil {
				t.Errorf("expected evidence")
			}
		})
	}
	if _, err := Build("nope"); err == nil {
		t.Errorf("expected an error for an unknown model")
	}
}

func TestFreshArena1(t *testing.T) {
	a, err := Build("urn")
	if err != nil {
		t.Fatalf("could not build: %+v", err)
	}
	b, err := Build("urn")
	if err != nil {
		t.Fatalf("could not build: %+v", err)
	}
	if a.Model.Arena() == b.Model.Arena() {
		t.Errorf("expected each build to have its own arena")
	}
}
