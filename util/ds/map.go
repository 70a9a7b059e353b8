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

// Package ds contains the generic containers that worlds are built from. Each
// container has a plain hash backed version and a copy-on-write overlay which
// reads through to another container of the same kind until a key is written.
// Overlays can report which keys they changed, fold their changes into the
// container underneath (Commit), or drop them (Clear).
package ds

// Overlay is implemented by every copy-on-write container in this package.
type Overlay interface {
	// Commit writes every change into the underlying container and then
	// clears the overlay.
	Commit()

	// Clear discards every change so that reads see the underlying
	// container again.
	Clear()
}

// Map is a key value store.
type Map[K comparable, V any] interface {
	Get(k K) (V, bool)
	Put(k K, v V)
	Delete(k K)
	Len() int

	// Keys returns the keys in no particular order.
	Keys() []K
}

// HashMap is a Map backed by a builtin map.
type HashMap[K comparable, V any] struct {
	m map[K]V
}

// NewHashMap returns an empty HashMap.
func NewHashMap[K comparable, V any]() *HashMap[K, V] {
	return &HashMap[K, V]{
		m: make(map[K]V),
	}
}

// Get returns the value stored for k, and whether there was one.
func (obj *HashMap[K, V]) Get(k K) (V, bool) {
	v, exists := obj.m[k]
	return v, exists
}

// Put stores v under k.
func (obj *HashMap[K, V]) Put(k K, v V) { obj.m[k] = v }

// Delete removes k. It is a no-op if k is absent.
func (obj *HashMap[K, V]) Delete(k K) { delete(obj.m, k) }

// Len returns the number of keys.
func (obj *HashMap[K, V]) Len() int { return len(obj.m) }

// Keys returns the keys in no particular order.
func (obj *HashMap[K, V]) Keys() []K {
	keys := make([]K, 0, len(obj.m))
	for k := range obj.m {
		keys = append(keys, k)
	}
	return keys
}

// CopyMap returns a new HashMap holding the same entries as m. The values are
// copied shallowly.
func CopyMap[K comparable, V any](m Map[K, V]) *HashMap[K, V] {
	out := NewHashMap[K, V]()
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		out.Put(k, v)
	}
	return out
}

// MapDiff is a copy-on-write overlay over another Map.
type MapDiff[K comparable, V any] struct {
	underlying Map[K, V]
	puts       map[K]V
	dels       map[K]struct{}
}

// NewMapDiff returns an overlay which initially represents no changes to the
// underlying map.
func NewMapDiff[K comparable, V any](underlying Map[K, V]) *MapDiff[K, V] {
	return &MapDiff[K, V]{
		underlying: underlying,
		puts:       make(map[K]V),
		dels:       make(map[K]struct{}),
	}
}

// Underlying returns the map this overlay reads through to.
func (obj *MapDiff[K, V]) Underlying() Map[K, V] { return obj.underlying }

// Get returns the value stored for k, and whether there was one.
func (obj *MapDiff[K, V]) Get(k K) (V, bool) {
	if _, deleted := obj.dels[k]; deleted {
		var zero V
		return zero, false
	}
	if v, exists := obj.puts[k]; exists {
		return v, true
	}
	return obj.underlying.Get(k)
}

// Put stores v under k in the overlay.
func (obj *MapDiff[K, V]) Put(k K, v V) {
	delete(obj.dels, k)
	obj.puts[k] = v
}

// Delete removes k from the overlay view.
func (obj *MapDiff[K, V]) Delete(k K) {
	delete(obj.puts, k)
	if _, exists := obj.underlying.Get(k); exists {
		obj.dels[k] = struct{}{}
	}
}

// Len returns the number of keys visible through the overlay.
func (obj *MapDiff[K, V]) Len() int {
	n := obj.underlying.Len() - len(obj.dels)
	for k := range obj.puts {
		if _, exists := obj.underlying.Get(k); !exists {
			n++
		}
	}
	return n
}

// Keys returns the keys visible through the overlay in no particular order.
func (obj *MapDiff[K, V]) Keys() []K {
	keys := []K{}
	for _, k := range obj.underlying.Keys() {
		if _, deleted := obj.dels[k]; deleted {
			continue
		}
		if _, exists := obj.puts[k]; exists {
			continue
		}
		keys = append(keys, k)
	}
	for k := range obj.puts {
		keys = append(keys, k)
	}
	return keys
}

// Changed returns the keys that were written or deleted in the overlay. Some
// of them may hold the same value as the underlying map.
func (obj *MapDiff[K, V]) Changed() []K {
	keys := make([]K, 0, len(obj.puts)+len(obj.dels))
	for k := range obj.puts {
		keys = append(keys, k)
	}
	for k := range obj.dels {
		keys = append(keys, k)
	}
	return keys
}

// ChangedFunc returns the keys whose presence or value differs from the
// underlying map, using eq to compare values.
func (obj *MapDiff[K, V]) ChangedFunc(eq func(a, b V) bool) []K {
	keys := []K{}
	for k, v := range obj.puts {
		old, exists := obj.underlying.Get(k)
		if !exists || !eq(old, v) {
			keys = append(keys, k)
		}
	}
	for k := range obj.dels {
		keys = append(keys, k)
	}
	return keys
}

// Commit writes the changes into the underlying map and clears the overlay.
func (obj *MapDiff[K, V]) Commit() {
	for k := range obj.dels {
		obj.underlying.Delete(k)
	}
	for k, v := range obj.puts {
		obj.underlying.Put(k, v)
	}
	obj.Clear()
}

// Clear discards all changes.
func (obj *MapDiff[K, V]) Clear() {
	obj.puts = make(map[K]V)
	obj.dels = make(map[K]struct{})
}
