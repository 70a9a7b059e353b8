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

package pgraph

import (
	"fmt"
	"os/exec"
	"strconv"

	"github.com/bayeslog/blog/util/errwrap"

	"github.com/spf13/afero"
)

// Graphviz outputs the graph in graphviz format. Vertex labels can be
// decorated with the optional label function, which is given the vertex and
// its default label.
// https://en.wikipedia.org/wiki/DOT_%28graph_description_language%29
func (g *Graph[V]) Graphviz(label func(v V) string) (out string) {
	//digraph g {
	//	label="cbn";
	//	"0" [label="Burglary"];
	//	"1" [label="Alarm"];
	//	"0" -> "1";
	//}
	out += fmt.Sprintf("digraph %s {\n", strconv.Quote(g.Name))
	out += fmt.Sprintf("\tlabel=%s;\n", strconv.Quote(g.Name))
	ids := make(map[V]int)
	str := ""
	vertices := g.Vertices()
	for i, v := range vertices {
		ids[v] = i
		s := v.String()
		if label != nil {
			s = label(v)
		}
		out += fmt.Sprintf("\t\"%d\" [label=%s];\n", i, strconv.Quote(s))
	}
	for _, v := range vertices {
		// use str for clearer output ordering
		for _, c := range g.sort(g.OutgoingGraphVertices(v)) {
			str += fmt.Sprintf("\t\"%d\" -> \"%d\";\n", ids[v], ids[c])
		}
	}
	out += str
	out += "}\n"
	return
}

// ExecGraphviz writes out the graphviz data to filename on the given fs. If a
// program such as dot is named, it is run afterwards to render a png next to
// the file.
func (g *Graph[V]) ExecGraphviz(fs afero.Fs, filename, program string, label func(v V) string) error {
	if filename == "" {
		return fmt.Errorf("no filename given")
	}

	if err := afero.WriteFile(fs, filename, []byte(g.Graphviz(label)), 0644); err != nil {
		return errwrap.Wrapf(err, "error writing to filename")
	}

	switch program {
	case "":
		return nil
	case "dot", "neato", "twopi", "circo", "fdp":
	default:
		return fmt.Errorf("invalid graphviz program selected")
	}

	path, err := exec.LookPath(program)
	if err != nil {
		return fmt.Errorf("the Graphviz program is missing")
	}

	out := fmt.Sprintf("%s.png", filename)
	cmd := exec.Command(path, "-Tpng", fmt.Sprintf("-o%s", out), filename)
	if _, err := cmd.Output(); err != nil {
		return errwrap.Wrapf(err, "error writing to image")
	}
	return nil
}
