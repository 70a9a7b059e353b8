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

package ds

// IndexedSet is a set which remembers insertion order, so that its elements
// can be addressed by position. Removal keeps the order of what is left.
type IndexedSet[V comparable] struct {
	list  []V
	index map[V]int
}

// NewIndexedSet returns an IndexedSet holding the given elements in order.
// Duplicates are dropped.
func NewIndexedSet[V comparable](vs ...V) *IndexedSet[V] {
	obj := &IndexedSet[V]{
		list:  make([]V, 0, len(vs)),
		index: make(map[V]int, len(vs)),
	}
	for _, v := range vs {
		obj.Add(v)
	}
	return obj
}

// Add appends v and returns true if it was not present.
func (obj *IndexedSet[V]) Add(v V) bool {
	if _, exists := obj.index[v]; exists {
		return false
	}
	obj.index[v] = len(obj.list)
	obj.list = append(obj.list, v)
	return true
}

// Remove deletes v and returns true if it was present.
func (obj *IndexedSet[V]) Remove(v V) bool {
	i, exists := obj.index[v]
	if !exists {
		return false
	}
	delete(obj.index, v)
	obj.list = append(obj.list[:i], obj.list[i+1:]...)
	for j := i; j < len(obj.list); j++ {
		obj.index[obj.list[j]] = j
	}
	return true
}

// Contains returns true if v is present.
func (obj *IndexedSet[V]) Contains(v V) bool {
	_, exists := obj.index[v]
	return exists
}

// Len returns the number of elements.
func (obj *IndexedSet[V]) Len() int { return len(obj.list) }

// Get returns the i-th element.
func (obj *IndexedSet[V]) Get(i int) V { return obj.list[i] }

// IndexOf returns the position of v, or -1 if it is absent.
func (obj *IndexedSet[V]) IndexOf(v V) int {
	if i, exists := obj.index[v]; exists {
		return i
	}
	return -1
}

// Slice returns a copy of the elements in order.
func (obj *IndexedSet[V]) Slice() []V {
	out := make([]V, len(obj.list))
	copy(out, obj.list)
	return out
}

// Copy returns an independent copy.
func (obj *IndexedSet[V]) Copy() *IndexedSet[V] {
	return NewIndexedSet(obj.list...)
}

// SameElements returns true if both hold the same elements in any order.
func SameElements[V comparable](a, b []V) bool {
	if len(a) != len(b) {
		return false
	}
	m := make(map[V]struct{}, len(a))
	for _, x := range a {
		m[x] = struct{}{}
	}
	for _, x := range b {
		if _, exists := m[x]; !exists {
			return false
		}
	}
	return true
}
