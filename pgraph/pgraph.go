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

// Package pgraph represents the dependency graph that worlds maintain between
// their variables. Arrows point from a parent to the child whose distribution
// reads it. A graph can be layered over another one as a patch: the patch
// reads through to the graph underneath until a vertex or edge is changed, and
// can later be committed into it or thrown away.
package pgraph

import (
	"fmt"
	"sort"

	"github.com/bayeslog/blog/util/ds"
)

// Vertex is what the graph can hold.
type Vertex interface {
	comparable
	fmt.Stringer
}

// Graph is the graph structure in this library. Parent lists keep the order in
// which they were given, child lists keep insertion order.
type Graph[V Vertex] struct {
	Name string

	// Less orders vertices in the output of Vertices, TopologicalSort and
	// friends. If nil, vertices are ordered by their String.
	Less func(a, b V) bool

	nodes    ds.Set[V]
	parents  ds.MultiMap[V, V]
	children ds.MultiMap[V, V]

	base *Graph[V] // non-nil for a patch
}

// NewGraph builds a new empty graph.
func NewGraph[V Vertex](name string, less func(a, b V) bool) *Graph[V] {
	return &Graph[V]{
		Name:     name,
		Less:     less,
		nodes:    ds.NewHashSet[V](),
		parents:  ds.NewHashMultiMap[V, V](),
		children: ds.NewHashMultiMap[V, V](),
	}
}

// Patch returns a new graph which represents no changes to this one. Changes
// made to the patch are invisible here until Commit is called on it.
func (g *Graph[V]) Patch() *Graph[V] {
	return &Graph[V]{
		Name:     g.Name,
		Less:     g.Less,
		nodes:    ds.NewSetDiff[V](g.nodes),
		parents:  ds.NewMultiMapDiff[V, V](g.parents),
		children: ds.NewMultiMapDiff[V, V](g.children),
		base:     g,
	}
}

// Base returns the graph a patch was made from, or nil.
func (g *Graph[V]) Base() *Graph[V] { return g.base }

// Copy returns an independent graph with the same vertices and edges. A copy
// of a patch is a plain graph.
func (g *Graph[V]) Copy() *Graph[V] {
	return &Graph[V]{
		Name:     g.Name,
		Less:     g.Less,
		nodes:    ds.CopySet[V](g.nodes),
		parents:  ds.CopyMultiMap[V, V](g.parents),
		children: ds.CopyMultiMap[V, V](g.children),
	}
}

// String makes the graph pretty print.
func (g *Graph[V]) String() string {
	return fmt.Sprintf("%s: Vertices(%d)", g.Name, g.NumVertices())
}

func (g *Graph[V]) sort(vs []V) []V {
	less := g.Less
	if less == nil {
		less = func(a, b V) bool { return a.String() < b.String() }
	}
	sort.SliceStable(vs, func(i, j int) bool { return less(vs[i], vs[j]) })
	return vs
}

// HasVertex returns true if v is in the graph.
func (g *Graph[V]) HasVertex(v V) bool { return g.nodes.Contains(v) }

// NumVertices returns the number of vertices in the graph.
func (g *Graph[V]) NumVertices() int { return g.nodes.Size() }

// Vertices returns all the vertices in sorted order.
func (g *Graph[V]) Vertices() []V { return g.sort(g.nodes.Slice()) }

// AddVertex adds v with no edges. It returns false if v was already there.
func (g *Graph[V]) AddVertex(v V) bool { return g.nodes.Insert(v) }

// DeleteVertex removes v and every edge touching it. It returns false if v
// was not in the graph.
func (g *Graph[V]) DeleteVertex(v V) bool {
	if !g.nodes.Contains(v) {
		return false
	}
	for _, p := range g.parents.Get(v) {
		g.children.Remove(p, v)
	}
	for _, c := range g.children.Get(v) {
		g.parents.Remove(c, v)
	}
	g.parents.Set(v, nil)
	g.children.Set(v, nil)
	g.nodes.Remove(v)
	return true
}

// AddEdge adds an edge from parent to child, adding either vertex if needed.
func (g *Graph[V]) AddEdge(parent, child V) {
	g.nodes.Insert(parent)
	g.nodes.Insert(child)
	if g.parents.Add(child, parent) {
		g.children.Add(parent, child)
	}
}

// DeleteEdge removes the edge from parent to child if it exists.
func (g *Graph[V]) DeleteEdge(parent, child V) {
	if g.parents.Remove(child, parent) {
		g.children.Remove(parent, child)
	}
}

// IncomingGraphVertices returns the parents of v (??? -> v) in the order they
// were set.
func (g *Graph[V]) IncomingGraphVertices(v V) []V { return g.parents.Get(v) }

// OutgoingGraphVertices returns the children of v (v -> ???).
func (g *Graph[V]) OutgoingGraphVertices(v V) []V { return g.children.Get(v) }

// NumChildren returns the number of children of v.
func (g *Graph[V]) NumChildren(v V) int { return g.children.Len(v) }

// SetParents replaces the parents of v with the given list, adding v and any
// new parent to the graph. The order of the list is kept.
func (g *Graph[V]) SetParents(v V, parents []V) {
	g.nodes.Insert(v)
	old := g.parents.Get(v)
	if sameOrder(old, parents) {
		return
	}
	keep := make(map[V]struct{}, len(parents))
	for _, p := range parents {
		keep[p] = struct{}{}
		g.nodes.Insert(p)
	}
	for _, p := range old {
		if _, exists := keep[p]; !exists {
			g.children.Remove(p, v)
		}
	}
	for _, p := range parents {
		g.children.Add(p, v) // no-op if already a child
	}
	g.parents.Set(v, parents)
}

func sameOrder[V comparable](a, b []V) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Ancestors returns every vertex with a path to v, not including v.
func (g *Graph[V]) Ancestors(v V) []V {
	seen := map[V]struct{}{v: {}}
	out := []V{}
	stack := g.parents.Get(v)
	for len(stack) > 0 {
		x := stack[len(stack)-1]
		stack = stack[:len(stack)-1] // pop
		if _, exists := seen[x]; exists {
			continue
		}
		seen[x] = struct{}{}
		out = append(out, x)
		stack = append(stack, g.parents.Get(x)...)
	}
	return g.sort(out)
}

// Reachability returns true if there is a directed path from a to b.
func (g *Graph[V]) Reachability(a, b V) bool {
	seen := map[V]struct{}{}
	stack := []V{a}
	for len(stack) > 0 {
		x := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, exists := seen[x]; exists {
			continue
		}
		seen[x] = struct{}{}
		for _, c := range g.children.Get(x) {
			if c == b {
				return true
			}
			stack = append(stack, c)
		}
	}
	return false
}

// TopologicalSort returns the vertices ordered so that every parent comes
// before its children. It errors if the graph is not a dag.
func (g *Graph[V]) TopologicalSort() ([]V, error) { // kahn's algorithm
	var L []V                    // empty list that will contain the sorted elements
	var S []V                    // set of all nodes with no incoming edges
	remaining := make(map[V]int) // amount of edges remaining

	vertices := g.Vertices()
	for _, v := range vertices {
		if d := g.parents.Len(v); d == 0 {
			S = append(S, v)
		} else {
			remaining[v] = d
		}
	}
	// pop from the end, so reverse to emit in sorted order
	for i, j := 0, len(S)-1; i < j; i, j = i+1, j-1 {
		S[i], S[j] = S[j], S[i]
	}

	for len(S) > 0 {
		last := len(S) - 1 // remove a node v from S
		v := S[last]
		S = S[:last]
		L = append(L, v) // add v to tail of L
		for _, n := range g.children.Get(v) {
			if remaining[n] > 0 {
				remaining[n]--         // remove edge from the graph
				if remaining[n] == 0 { // if n has no other incoming edges
					S = append(S, n) // insert n into S
				}
			}
		}
	}

	if len(L) != len(vertices) {
		return nil, fmt.Errorf("graph %s is not a dag", g.Name)
	}
	return L, nil
}

// NewlyBarren returns the vertices of a patch which have no children now but
// either are new or had children in the base graph. It returns nil for a
// graph which is not a patch.
func (g *Graph[V]) NewlyBarren() []V {
	if g.base == nil {
		return nil
	}
	candidates := map[V]struct{}{}
	if nodes, ok := g.nodes.(*ds.SetDiff[V]); ok {
		for _, v := range nodes.Added() {
			candidates[v] = struct{}{}
		}
	}
	if children, ok := g.children.(*ds.MultiMapDiff[V, V]); ok {
		for _, v := range children.Changed() {
			candidates[v] = struct{}{}
		}
	}
	out := []V{}
	for v := range candidates {
		if !g.nodes.Contains(v) || g.children.Len(v) > 0 {
			continue
		}
		if g.base.HasVertex(v) && g.base.NumChildren(v) == 0 {
			continue // it was already barren
		}
		out = append(out, v)
	}
	return g.sort(out)
}

// Commit folds the changes of a patch into its base graph and resets the
// patch. It is a no-op on a graph which is not a patch.
func (g *Graph[V]) Commit() {
	for _, x := range []interface{}{g.nodes, g.parents, g.children} {
		if o, ok := x.(ds.Overlay); ok {
			o.Commit()
		}
	}
}

// Clear drops the changes of a patch. It is a no-op on a graph which is not a
// patch.
func (g *Graph[V]) Clear() {
	for _, x := range []interface{}{g.nodes, g.parents, g.children} {
		if o, ok := x.(ds.Overlay); ok {
			o.Clear()
		}
	}
}
