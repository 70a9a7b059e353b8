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
	"fmt"
	"strings"

	cliUtil "github.com/bayeslog/blog/cli/util"
	"github.com/bayeslog/blog/models"
	"github.com/bayeslog/blog/proposer"
	"github.com/bayeslog/blog/sample"
)

// ListArgs is the CLI parsing structure and type of the parsed result. This
// particular one is for the `list` subcommand.
type ListArgs struct {
	Verbose bool `arg:"-v,--verbose" help:"print the evidence and queries of each model"`
}

// Run prints what can be chosen from for a run. It always activates.
func (obj *ListArgs) Run(ctx context.Context, data *cliUtil.Data) (bool, error) {
	fmt.Printf("models:\n")
	for _, name := range models.Names() {
		fmt.Printf("  %s: %s\n", name, models.Description(name))
		if !obj.Verbose && !data.Flags.Verbose {
			continue
		}
		ex, err := models.Build(name)
		if err != nil {
			return false, err
		}
		for _, s := range ex.Evidence.Statements() {
			fmt.Printf("    obs %s\n", s)
		}
		for _, q := range ex.Queries {
			fmt.Printf("    query %s\n", q)
		}
	}
	fmt.Printf("samplers: %s\n", strings.Join(sample.Names(), ", "))
	fmt.Printf("proposers: %s\n", strings.Join(proposer.Names(), ", "))
	return true, nil
}
