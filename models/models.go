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

// Package models holds small hand built models which exercise the samplers.
package models

import (
	"fmt"
	"sort"

	"github.com/bayeslog/blog/evidence"
	"github.com/bayeslog/blog/model"
	"github.com/bayeslog/blog/query"
)

// Example is a model together with the evidence and queries of a run.
type Example struct {
	Name        string
	Description string

	Model    *model.Model
	IDTypes  []*model.Type
	Evidence *evidence.Evidence
	Queries  []query.Query
}

// VarQueries returns the queries which are variable queries.
func (obj *Example) VarQueries() []*query.VarQuery {
	out := []*query.VarQuery{}
	for _, q := range obj.Queries {
		if vq, ok := q.(*query.VarQuery); ok {
			out = append(out, vq)
		}
	}
	return out
}

type builder struct {
	description string
	fn          func() (*Example, error)
}

var registeredModels = make(map[string]*builder)

func register(name, description string, fn func() (*Example, error)) {
	if _, exists := registeredModels[name]; exists {
		panic(fmt.Sprintf("a model named %s is already registered", name))
	}
	registeredModels[name] = &builder{description: description, fn: fn}
}

// Names returns the names of the example models, sorted.
func Names() []string {
	names := []string{}
	for name := range registeredModels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Description returns the one line description of a model.
func Description(name string) string {
	if b, exists := registeredModels[name]; exists {
		return b.description
	}
	return ""
}

// Build builds a fresh copy of the named model. Each call has its own arena.
func Build(name string) (*Example, error) {
	b, exists := registeredModels[name]
	if !exists {
		return nil, fmt.Errorf("no model named %s, have: %v", name, Names())
	}
	ex, err := b.fn()
	if err != nil {
		return nil, err
	}
	ex.Name = name
	ex.Description = b.description
	return ex, nil
}

// fixed is a dependency model which doesn't depend on anything.
func fixed(cpd model.CPD) model.DependencyModel {
	return model.DependencyFunc(func(model.EvalContext, []model.Value) (*model.Distrib, error) {
		return &model.Distrib{CPD: cpd}, nil
	})
}

// parents is a dependency model which hands the values of the parents to the
// CPD as its arguments. It isn't determined until all of them are.
func parents(vars func(args []model.Value) []*model.Var, cpd model.CPD) model.DependencyModel {
	return model.DependencyFunc(func(ctx model.EvalContext, args []model.Value) (*model.Distrib, error) {
		vals := []model.Value{}
		for _, v := range vars(args) {
			val, err := ctx.Value(v)
			if err != nil || val == nil {
				return nil, err
			}
			vals = append(vals, val)
		}
		return &model.Distrib{CPD: cpd, Args: vals}, nil
	})
}

// addFunctions adds every function, stopping at the first error.
func addFunctions(m *model.Model, fs ...*model.Function) error {
	for _, f := range fs {
		if err := m.AddFunction(f); err != nil {
			return err
		}
	}
	return nil
}
