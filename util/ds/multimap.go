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

// MultiMap maps each key to an ordered set of values. A key with no values is
// the same as an absent key.
type MultiMap[K comparable, V comparable] interface {
	// Get returns a copy of the values for k in insertion order.
	Get(k K) []V

	// Len returns the number of values stored for k.
	Len(k K) int

	Contains(k K, v V) bool

	// Add adds v to the values of k, and returns true if it was new.
	Add(k K, v V) bool

	// Remove removes v from the values of k, and returns true if it was
	// present.
	Remove(k K, v V) bool

	// Set replaces all the values of k with vs.
	Set(k K, vs []V)

	// Keys returns the keys with at least one value, in no particular
	// order.
	Keys() []K
}

// HashMultiMap is a MultiMap backed by a builtin map of IndexedSets.
type HashMultiMap[K comparable, V comparable] struct {
	m map[K]*IndexedSet[V]
}

// NewHashMultiMap returns an empty HashMultiMap.
func NewHashMultiMap[K comparable, V comparable]() *HashMultiMap[K, V] {
	return &HashMultiMap[K, V]{
		m: make(map[K]*IndexedSet[V]),
	}
}

// Get returns a copy of the values for k in insertion order.
func (obj *HashMultiMap[K, V]) Get(k K) []V {
	s, exists := obj.m[k]
	if !exists {
		return nil
	}
	return s.Slice()
}

// Len returns the number of values stored for k.
func (obj *HashMultiMap[K, V]) Len(k K) int {
	if s, exists := obj.m[k]; exists {
		return s.Len()
	}
	return 0
}

// Contains returns true if v is one of the values of k.
func (obj *HashMultiMap[K, V]) Contains(k K, v V) bool {
	s, exists := obj.m[k]
	return exists && s.Contains(v)
}

// Add adds v to the values of k.
func (obj *HashMultiMap[K, V]) Add(k K, v V) bool {
	s, exists := obj.m[k]
	if !exists {
		s = NewIndexedSet[V]()
		obj.m[k] = s
	}
	return s.Add(v)
}

// Remove removes v from the values of k.
func (obj *HashMultiMap[K, V]) Remove(k K, v V) bool {
	s, exists := obj.m[k]
	if !exists || !s.Remove(v) {
		return false
	}
	if s.Len() == 0 {
		delete(obj.m, k)
	}
	return true
}

// Set replaces all the values of k with vs.
func (obj *HashMultiMap[K, V]) Set(k K, vs []V) {
	if len(vs) == 0 {
		delete(obj.m, k)
		return
	}
	obj.m[k] = NewIndexedSet(vs...)
}

// Keys returns the keys with at least one value.
func (obj *HashMultiMap[K, V]) Keys() []K {
	keys := make([]K, 0, len(obj.m))
	for k := range obj.m {
		keys = append(keys, k)
	}
	return keys
}

// CopyMultiMap returns a new HashMultiMap with the same contents as m.
func CopyMultiMap[K comparable, V comparable](m MultiMap[K, V]) *HashMultiMap[K, V] {
	out := NewHashMultiMap[K, V]()
	for _, k := range m.Keys() {
		out.Set(k, m.Get(k))
	}
	return out
}

// MultiMapDiff is a copy-on-write overlay over another MultiMap. The first
// write to a key copies its values into the overlay.
type MultiMapDiff[K comparable, V comparable] struct {
	underlying MultiMap[K, V]
	over       map[K]*IndexedSet[V]
}

// NewMultiMapDiff returns an overlay which initially represents no changes to
// the underlying multimap.
func NewMultiMapDiff[K comparable, V comparable](underlying MultiMap[K, V]) *MultiMapDiff[K, V] {
	return &MultiMapDiff[K, V]{
		underlying: underlying,
		over:       make(map[K]*IndexedSet[V]),
	}
}

// Underlying returns the multimap this overlay reads through to.
func (obj *MultiMapDiff[K, V]) Underlying() MultiMap[K, V] { return obj.underlying }

func (obj *MultiMapDiff[K, V]) mutable(k K) *IndexedSet[V] {
	if s, exists := obj.over[k]; exists {
		return s
	}
	s := NewIndexedSet(obj.underlying.Get(k)...)
	obj.over[k] = s
	return s
}

// Get returns a copy of the values for k in insertion order.
func (obj *MultiMapDiff[K, V]) Get(k K) []V {
	if s, exists := obj.over[k]; exists {
		if s.Len() == 0 {
			return nil
		}
		return s.Slice()
	}
	return obj.underlying.Get(k)
}

// Len returns the number of values stored for k.
func (obj *MultiMapDiff[K, V]) Len(k K) int {
	if s, exists := obj.over[k]; exists {
		return s.Len()
	}
	return obj.underlying.Len(k)
}

// Contains returns true if v is one of the values of k.
func (obj *MultiMapDiff[K, V]) Contains(k K, v V) bool {
	if s, exists := obj.over[k]; exists {
		return s.Contains(v)
	}
	return obj.underlying.Contains(k, v)
}

// Add adds v to the values of k.
func (obj *MultiMapDiff[K, V]) Add(k K, v V) bool {
	if obj.Contains(k, v) {
		return false
	}
	return obj.mutable(k).Add(v)
}

// Remove removes v from the values of k.
func (obj *MultiMapDiff[K, V]) Remove(k K, v V) bool {
	if !obj.Contains(k, v) {
		return false
	}
	return obj.mutable(k).Remove(v)
}

// Set replaces all the values of k with vs.
func (obj *MultiMapDiff[K, V]) Set(k K, vs []V) {
	obj.over[k] = NewIndexedSet(vs...)
}

// Keys returns the keys with at least one value.
func (obj *MultiMapDiff[K, V]) Keys() []K {
	keys := []K{}
	for _, k := range obj.underlying.Keys() {
		if _, exists := obj.over[k]; !exists {
			keys = append(keys, k)
		}
	}
	for k, s := range obj.over {
		if s.Len() > 0 {
			keys = append(keys, k)
		}
	}
	return keys
}

// Changed returns the keys whose set of values differs from the underlying
// multimap. Order changes alone are not reported.
func (obj *MultiMapDiff[K, V]) Changed() []K {
	keys := []K{}
	for k, s := range obj.over {
		if !SameElements(s.Slice(), obj.underlying.Get(k)) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Commit writes the changes into the underlying multimap and clears the
// overlay.
func (obj *MultiMapDiff[K, V]) Commit() {
	for k, s := range obj.over {
		obj.underlying.Set(k, s.Slice())
	}
	obj.Clear()
}

// Clear discards all changes.
func (obj *MultiMapDiff[K, V]) Clear() {
	obj.over = make(map[K]*IndexedSet[V])
}
