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
	"github.com/bayeslog/blog/distrib"
	"github.com/bayeslog/blog/evidence"
	"github.com/bayeslog/blog/model"
	"github.com/bayeslog/blog/query"
)

func init() {
	register("burglary", "the alarm network, with both neighbours calling", Burglary)
	register("cyclic", "two variables which copy each other", Cyclic)
	register("coin", "a coin of three possible biases tossed three times", Coin)
}

func boolTable(pTrue float64, when ...model.Value) distrib.TabularRow {
	return distrib.TabularRow{
		When: when,
		Dist: &distrib.Categorical{Values: []model.Value{true, false}, Probs: []float64{pTrue, 1 - pTrue}},
	}
}

// Burglary is the classic alarm network. The posterior probability of a
// burglary given that both neighbours call is about 0.284.
func Burglary() (*Example, error) {
	m := model.New("burglary")
	var b, e, a *model.Var
	burglary := &model.Function{Name: "Burglary", RetType: model.Boolean, Dependency: fixed(&distrib.Bernoulli{P: 0.001})}
	earthquake := &model.Function{Name: "Earthquake", RetType: model.Boolean, Dependency: fixed(&distrib.Bernoulli{P: 0.002})}
	alarm := &model.Function{
		Name:    "Alarm",
		RetType: model.Boolean,
		Dependency: parents(func([]model.Value) []*model.Var { return []*model.Var{b, e} }, &distrib.Tabular{Rows: []distrib.TabularRow{
			boolTable(0.95, true, true),
			boolTable(0.94, true, false),
			boolTable(0.29, false, true),
			boolTable(0.001, false, false),
		}}),
	}
	john := &model.Function{
		Name:    "JohnCalls",
		RetType: model.Boolean,
		Dependency: parents(func([]model.Value) []*model.Var { return []*model.Var{a} }, &distrib.Tabular{Rows: []distrib.TabularRow{
			boolTable(0.90, true),
			boolTable(0.05, false),
		}}),
	}
	mary := &model.Function{
		Name:    "MaryCalls",
		RetType: model.Boolean,
		Dependency: parents(func([]model.Value) []*model.Var { return []*model.Var{a} }, &distrib.Tabular{Rows: []distrib.TabularRow{
			boolTable(0.70, true),
			boolTable(0.01, false),
		}}),
	}
	if err := addFunctions(m, burglary, earthquake, alarm, john, mary); err != nil {
		return nil, err
	}
	b = m.FuncApp(burglary)
	e = m.FuncApp(earthquake)
	a = m.FuncApp(alarm)

	ev, err := evidence.New(
		&evidence.Statement{Var: m.FuncApp(john), Value: true},
		&evidence.Statement{Var: m.FuncApp(mary), Value: true},
	)
	if err != nil {
		return nil, err
	}
	return &Example{
		Model:    m,
		Evidence: ev,
		Queries:  []query.Query{query.NewVarQuery(b)},
	}, nil
}

// Cyclic has A = B and B = A, so nothing can ever be sampled.
func Cyclic() (*Example, error) {
	m := model.New("cyclic")
	var a, b *model.Var
	fa := &model.Function{Name: "A", RetType: model.Boolean, Dependency: parents(func([]model.Value) []*model.Var { return []*model.Var{b} }, &distrib.Deterministic{})}
	fb := &model.Function{Name: "B", RetType: model.Boolean, Dependency: parents(func([]model.Value) []*model.Var { return []*model.Var{a} }, &distrib.Deterministic{})}
	if err := addFunctions(m, fa, fb); err != nil {
		return nil, err
	}
	a = m.FuncApp(fa)
	b = m.FuncApp(fb)
	return &Example{
		Model:    m,
		Evidence: &evidence.Evidence{},
		Queries:  []query.Query{query.NewVarQuery(a)},
	}, nil
}

// CoinPosterior is the exact posterior of the bias of the coin model, in the
// order Low, Mid, High.
var CoinPosterior = []float64{0.032 / 0.285, 0.125 / 0.285, 0.128 / 0.285}

// Coin has a bias which is Low, Mid or High with equal probability, giving
// heads with probability 0.2, 0.5 or 0.8. Two heads and a tail are observed.
func Coin() (*Example, error) {
	m := model.New("coin")
	biasType, err := m.NewType("Bias", "Low", "Mid", "High")
	if err != nil {
		return nil, err
	}
	throwType, err := m.NewType("Throw", "Throw1", "Throw2", "Throw3")
	if err != nil {
		return nil, err
	}
	low, mid, high := biasType.Object("Low"), biasType.Object("Mid"), biasType.Object("High")

	var bias *model.Var
	fbias := &model.Function{Name: "Bias", RetType: biasType, Dependency: fixed(&distrib.Categorical{
		Values: []model.Value{low, mid, high},
		Probs:  []float64{1.0 / 3, 1.0 / 3, 1.0 / 3},
	})}
	heads := &model.Function{
		Name:     "Heads",
		ArgTypes: []*model.Type{throwType},
		RetType:  model.Boolean,
		Dependency: parents(func([]model.Value) []*model.Var { return []*model.Var{bias} }, &distrib.Tabular{Rows: []distrib.TabularRow{
			boolTable(0.2, low),
			boolTable(0.5, mid),
			boolTable(0.8, high),
		}}),
	}
	if err := addFunctions(m, fbias, heads); err != nil {
		return nil, err
	}
	bias = m.FuncApp(fbias)

	ev, err := evidence.New(
		&evidence.Statement{Var: m.FuncApp(heads, throwType.Object("Throw1")), Value: true},
		&evidence.Statement{Var: m.FuncApp(heads, throwType.Object("Throw2")), Value: true},
		&evidence.Statement{Var: m.FuncApp(heads, throwType.Object("Throw3")), Value: false},
	)
	if err != nil {
		return nil, err
	}
	return &Example{
		Model:    m,
		Evidence: ev,
		Queries:  []query.Query{query.NewVarQuery(bias)},
	}, nil
}
