// Package xset provides a small generic set used for approver sets, tip
// names, and pending-fetch tracking.
package xset

import (
	"sort"

	"golang.org/x/exp/maps"
)

const minSetSize = 8

// Set is a set of comparable elements.
type Set[T comparable] map[T]struct{}

// New returns an empty set with room for size elements.
func New[T comparable](size int) Set[T] {
	if size < minSetSize {
		size = minSetSize
	}
	return make(Set[T], size)
}

// Of returns a set initialized with elts.
func Of[T comparable](elts ...T) Set[T] {
	s := New[T](len(elts))
	s.Add(elts...)
	return s
}

// Add inserts elts into the set.
func (s Set[T]) Add(elts ...T) {
	for _, e := range elts {
		s[e] = struct{}{}
	}
}

// Remove deletes elts from the set, if present.
func (s Set[T]) Remove(elts ...T) {
	for _, e := range elts {
		delete(s, e)
	}
}

// Contains reports whether e is in the set.
func (s Set[T]) Contains(e T) bool {
	_, ok := s[e]
	return ok
}

// Len returns the number of elements in the set.
func (s Set[T]) Len() int {
	return len(s)
}

// List returns the set's elements in unspecified order.
func (s Set[T]) List() []T {
	return maps.Keys(s)
}

// SortedList returns the set's elements ordered by the supplied less
// function. Used where a deterministic iteration order is needed (e.g.
// SYNC message construction).
func SortedList[T comparable](s Set[T], less func(a, b T) bool) []T {
	l := s.List()
	sort.Slice(l, func(i, j int) bool { return less(l[i], l[j]) })
	return l
}

// Clone returns a shallow copy of the set.
func (s Set[T]) Clone() Set[T] {
	out := New[T](len(s))
	for e := range s {
		out[e] = struct{}{}
	}
	return out
}
