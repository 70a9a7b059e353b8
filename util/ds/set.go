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

import (
	"github.com/hashicorp/go-set/v3"
)

// Set is an unordered set. A *set.Set from go-set satisfies it directly.
type Set[K comparable] interface {
	Contains(k K) bool
	Insert(k K) bool
	Remove(k K) bool
	Size() int

	// Slice returns the elements in no particular order.
	Slice() []K
}

// NewHashSet returns an empty hash backed Set.
func NewHashSet[K comparable]() Set[K] {
	return set.New[K](0)
}

// CopySet returns a new hash backed Set holding the elements of s.
func CopySet[K comparable](s Set[K]) Set[K] {
	return set.From[K](s.Slice())
}

// SetDiff is a copy-on-write overlay over another Set.
type SetDiff[K comparable] struct {
	underlying Set[K]
	added      *set.Set[K]
	removed    *set.Set[K]
}

// NewSetDiff returns an overlay which initially represents no changes to the
// underlying set.
func NewSetDiff[K comparable](underlying Set[K]) *SetDiff[K] {
	return &SetDiff[K]{
		underlying: underlying,
		added:      set.New[K](0),
		removed:    set.New[K](0),
	}
}

// Underlying returns the set this overlay reads through to.
func (obj *SetDiff[K]) Underlying() Set[K] { return obj.underlying }

// Contains returns true if k is in the set as seen through the overlay.
func (obj *SetDiff[K]) Contains(k K) bool {
	if obj.removed.Contains(k) {
		return false
	}
	return obj.added.Contains(k) || obj.underlying.Contains(k)
}

// Insert adds k and returns true if it was not already present.
func (obj *SetDiff[K]) Insert(k K) bool {
	if obj.Contains(k) {
		return false
	}
	if obj.removed.Remove(k) {
		return true
	}
	return obj.added.Insert(k)
}

// Remove deletes k and returns true if it was present.
func (obj *SetDiff[K]) Remove(k K) bool {
	if !obj.Contains(k) {
		return false
	}
	if obj.added.Remove(k) {
		return true
	}
	return obj.removed.Insert(k)
}

// Size returns the number of elements seen through the overlay.
func (obj *SetDiff[K]) Size() int {
	return obj.underlying.Size() + obj.added.Size() - obj.removed.Size()
}

// Slice returns the elements seen through the overlay.
func (obj *SetDiff[K]) Slice() []K {
	out := []K{}
	for _, k := range obj.underlying.Slice() {
		if !obj.removed.Contains(k) {
			out = append(out, k)
		}
	}
	return append(out, obj.added.Slice()...)
}

// Added returns the elements present here but not underneath.
func (obj *SetDiff[K]) Added() []K { return obj.added.Slice() }

// Removed returns the elements present underneath but not here.
func (obj *SetDiff[K]) Removed() []K { return obj.removed.Slice() }

// Commit writes the changes into the underlying set and clears the overlay.
func (obj *SetDiff[K]) Commit() {
	for _, k := range obj.removed.Slice() {
		obj.underlying.Remove(k)
	}
	for _, k := range obj.added.Slice() {
		obj.underlying.Insert(k)
	}
	obj.Clear()
}

// Clear discards all changes.
func (obj *SetDiff[K]) Clear() {
	obj.added = set.New[K](0)
	obj.removed = set.New[K](0)
}
