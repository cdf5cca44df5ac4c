// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package dag

import "github.com/cathedral-fabric/cathedral/id"

// OrderedSet is an insertion-ordered set of id.ID, used wherever the
// spec calls for an "OrderedSet<NodeId>" (dependency lists, the
// dependents index) so iteration is reproducible across platforms.
type OrderedSet struct {
	order []id.ID
	index map[id.ID]int
}

// NewOrderedSet returns an empty OrderedSet.
func NewOrderedSet(items ...id.ID) *OrderedSet {
	s := &OrderedSet{index: make(map[id.ID]int)}
	for _, it := range items {
		s.Add(it)
	}
	return s
}

// Add inserts i if not already present; a duplicate Add is a no-op.
func (s *OrderedSet) Add(i id.ID) {
	if _, ok := s.index[i]; ok {
		return
	}
	s.index[i] = len(s.order)
	s.order = append(s.order, i)
}

// Contains reports whether i is in the set.
func (s *OrderedSet) Contains(i id.ID) bool {
	_, ok := s.index[i]
	return ok
}

// Remove deletes i from the set, compacting the order slice.
func (s *OrderedSet) Remove(i id.ID) {
	pos, ok := s.index[i]
	if !ok {
		return
	}
	s.order = append(s.order[:pos], s.order[pos+1:]...)
	delete(s.index, i)
	for k := pos; k < len(s.order); k++ {
		s.index[s.order[k]] = k
	}
}

// Items returns the set's members in insertion order.
func (s *OrderedSet) Items() []id.ID {
	out := make([]id.ID, len(s.order))
	copy(out, s.order)
	return out
}

// Len reports the number of members.
func (s *OrderedSet) Len() int { return len(s.order) }
