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

	"github.com/bayeslog/blog/distrib"
	"github.com/bayeslog/blog/evidence"
	"github.com/bayeslog/blog/model"
	"github.com/bayeslog/blog/query"
)

func init() {
	register("urn", "an unknown number of balls drawn with replacement and noisy color observations", Urn)
	register("aircraft", "an unknown number of aircraft each producing blips, with the total blip count observed", Aircraft)
}

// Urn has #Ball ~ Poisson(6), each ball is Blue or Green, and each of four
// draws picks a ball uniformly with replacement. The observed color matches
// the true color with probability 0.8. Balls are represented with
// identifiers.
func Urn() (*Example, error) {
	m := model.New("urn")
	ball, err := m.NewType("Ball")
	if err != nil {
		return nil, err
	}
	color, err := m.NewType("Color", "Blue", "Green")
	if err != nil {
		return nil, err
	}
	draw, err := m.NewType("Draw", "Draw1", "Draw2", "Draw3", "Draw4")
	if err != nil {
		return nil, err
	}
	blue, green := color.Object("Blue"), color.Object("Green")

	pop := &model.POP{Type: ball, Dependency: fixed(&distrib.Poisson{Lambda: 6})}
	if err := m.AddPOP(pop); err != nil {
		return nil, err
	}
	numBalls := m.Number(pop)

	trueColor := &model.Function{
		Name:     "TrueColor",
		ArgTypes: []*model.Type{ball},
		RetType:  color,
		Dependency: fixed(&distrib.Categorical{
			Values: []model.Value{blue, green},
			Probs:  []float64{0.5, 0.5},
		}),
	}
	ballDrawn := &model.Function{
		Name:     "BallDrawn",
		ArgTypes: []*model.Type{draw},
		RetType:  ball,
		Dependency: model.DependencyFunc(func(ctx model.EvalContext, _ []model.Value) (*model.Distrib, error) {
			set, err := ctx.Satisfiers(numBalls)
			if err != nil || set == nil {
				return nil, err
			}
			return &model.Distrib{CPD: &distrib.UniformChoice{}, Args: []model.Value{set}}, nil
		}),
	}
	noisy := &distrib.Tabular{Rows: []distrib.TabularRow{
		{When: []model.Value{blue}, Dist: &distrib.Categorical{Values: []model.Value{blue, green}, Probs: []float64{0.8, 0.2}}},
		{When: []model.Value{green}, Dist: &distrib.Categorical{Values: []model.Value{blue, green}, Probs: []float64{0.2, 0.8}}},
	}}
	obsColor := &model.Function{
		Name:     "ObsColor",
		ArgTypes: []*model.Type{draw},
		RetType:  color,
		Dependency: model.DependencyFunc(func(ctx model.EvalContext, args []model.Value) (*model.Distrib, error) {
			b, err := ctx.Value(m.FuncApp(ballDrawn, args...))
			if err != nil || b == nil {
				return nil, err
			}
			if b == model.Null {
				return &model.Distrib{CPD: &distrib.Deterministic{}, Args: []model.Value{model.Null}}, nil
			}
			c, err := ctx.Value(m.FuncApp(trueColor, b))
			if err != nil || c == nil {
				return nil, err
			}
			return &model.Distrib{CPD: noisy, Args: []model.Value{c}}, nil
		}),
	}
	if err := addFunctions(m, trueColor, ballDrawn, obsColor); err != nil {
		return nil, err
	}

	ev := &evidence.Evidence{}
	for i, c := range []*model.Object{blue, green, blue, green} {
		d := draw.Object(fmt.Sprintf("Draw%d", i+1))
		if err := ev.Add(m.FuncApp(obsColor, d), c); err != nil {
			return nil, err
		}
	}
	return &Example{
		Model:    m,
		IDTypes:  []*model.Type{ball},
		Evidence: ev,
		Queries:  []query.Query{query.NewVarQuery(numBalls)},
	}, nil
}

// UrnPosteriorMean is the exact posterior expectation of #Ball in the urn
// model.
const UrnPosteriorMean = 6.1834321

// AircraftPosterior is the exact posterior of #Aircraft in the aircraft
// model, for one, two and three aircraft.
var AircraftPosterior = []float64{0, 6.0 / 13, 7.0 / 13}

// Aircraft has #Aircraft ~ UniformInt(1, 3) and each aircraft produces
// #Blip(Source=a) ~ UniformInt(0, 2) blips. The total number of blips is a
// derived variable which is observed to be 3. Aircraft and blips are
// non-guaranteed objects.
func Aircraft() (*Example, error) {
	m := model.New("aircraft")
	aircraft, err := m.NewType("Aircraft")
	if err != nil {
		return nil, err
	}
	blip, err := m.NewType("Blip")
	if err != nil {
		return nil, err
	}
	aircraftPOP := &model.POP{Type: aircraft, Dependency: fixed(&distrib.UniformInt{Lo: 1, Hi: 3})}
	blipPOP := &model.POP{
		Type:        blip,
		OriginFuncs: []string{"Source"},
		ArgTypes:    []*model.Type{aircraft},
		Dependency:  fixed(&distrib.UniformInt{Lo: 0, Hi: 2}),
	}
	for _, p := range []*model.POP{aircraftPOP, blipPOP} {
		if err := m.AddPOP(p); err != nil {
			return nil, err
		}
	}
	numAircraft := m.Number(aircraftPOP)

	total := m.Arena().Derived(&model.FuncExpr{
		Name: "TotalBlips",
		Ret:  model.NaturalNum,
		Fn: func(ctx model.EvalContext) (model.Value, error) {
			set, err := ctx.Satisfiers(numAircraft)
			if err != nil || set == nil {
				return nil, err
			}
			sum := 0
			for _, a := range set.Elements() {
				n, err := ctx.Value(m.Number(blipPOP, a))
				if err != nil || n == nil {
					return nil, err
				}
				num, _ := n.(int)
				sum += num
			}
			return sum, nil
		},
	})

	ev, err := evidence.New(&evidence.Statement{Var: total, Value: 3})
	if err != nil {
		return nil, err
	}
	return &Example{
		Model:    m,
		Evidence: ev,
		Queries:  []query.Query{query.NewVarQuery(numAircraft)},
	}, nil
}
