// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package scheduler implements the deterministic ready-queue scheduler
// of spec §4.7: single-threaded, never consulting wall-clock time, a
// thread pool, or an RNG. Two schedulers started from identical
// (all_nodes, dependencies) and fed identical mark_* calls in identical
// order produce identical decide() sequences, because the ready set is
// ordered by the (priority, NodeId) tuple and priority is always 0 —
// per spec §9's open question, this reduces the tie-break to NodeId
// bytes, which this implementation treats as authoritative rather than
// guessing a richer priority scheme was intended.
package scheduler

import (
	"sort"

	"github.com/cathedral-fabric/cathedral/id"
	"github.com/cathedral-fabric/cathedral/internal/xerrors"
)

// Decision is the scheduler's answer to decide().
type Decision struct {
	// Kind is one of RunKind, WaitKind, CompleteKind.
	Kind DecisionKind
	Node id.ID // meaningful only when Kind == RunKind
}

type DecisionKind uint8

const (
	RunKind DecisionKind = iota
	WaitKind
	CompleteKind
)

// readyKey is the deterministic ready-queue ordering key.
type readyKey struct {
	priority uint64
	node     id.ID
}

func less(a, b readyKey) bool {
	if a.priority != b.priority {
		return a.priority < b.priority
	}
	return a.node.Less(b.node)
}

// Scheduler owns the dependency graph and ready/completed/failed sets
// for a single run. It never self-executes a node; callers drive it
// via Decide/MarkComplete/MarkFailed.
type Scheduler struct {
	allNodes     map[id.ID]struct{}
	order        []id.ID // insertion order, used by Reset to repopulate deterministically
	dependencies map[id.ID][]id.ID // id.ID -> deps (dependency list, insertion order)
	dependents   map[id.ID][]id.ID // id.ID -> dependents

	ready     []readyKey
	completed map[id.ID]struct{}
	failed    map[id.ID]struct{}
	time      uint64
}

// New returns an empty Scheduler.
func New() *Scheduler {
	return &Scheduler{
		allNodes:     make(map[id.ID]struct{}),
		dependencies: make(map[id.ID][]id.ID),
		dependents:   make(map[id.ID][]id.ID),
		completed:    make(map[id.ID]struct{}),
		failed:       make(map[id.ID]struct{}),
	}
}

// AddNode registers a node and its dependency list. Rejects a
// dependency equal to id itself (self-loop) and any dependency that
// would transitively depend on id (cycle). When deps is empty and id
// is not already completed, the node is inserted into the ready queue
// at priority 0.
func (s *Scheduler) AddNode(nodeID id.ID, deps []id.ID) error {
	if _, exists := s.allNodes[nodeID]; exists {
		return xerrors.AlreadyExistsf("node", nodeID.String())
	}
	for _, d := range deps {
		if d.Equal(nodeID) {
			return xerrors.Validationf("dependencies", "self-loop")
		}
		if s.transitivelyDependsOn(d, nodeID) {
			return xerrors.Validationf("dependencies", "cycle")
		}
	}

	s.allNodes[nodeID] = struct{}{}
	s.order = append(s.order, nodeID)
	s.dependencies[nodeID] = append([]id.ID{}, deps...)
	if _, ok := s.dependents[nodeID]; !ok {
		s.dependents[nodeID] = nil
	}
	for _, d := range deps {
		s.dependents[d] = append(s.dependents[d], nodeID)
	}

	if len(deps) == 0 {
		if _, done := s.completed[nodeID]; !done {
			s.insertReady(nodeID)
		}
	}
	return nil
}

// transitivelyDependsOn reports whether start's dependency closure
// includes target — the cycle guard AddNode applies before linking a
// new dependency edge.
func (s *Scheduler) transitivelyDependsOn(start, target id.ID) bool {
	visited := make(map[id.ID]struct{})
	stack := []id.ID{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.Equal(target) {
			return true
		}
		if _, ok := visited[cur]; ok {
			continue
		}
		visited[cur] = struct{}{}
		stack = append(stack, s.dependencies[cur]...)
	}
	return false
}

func (s *Scheduler) insertReady(nodeID id.ID) {
	key := readyKey{priority: 0, node: nodeID}
	pos := sort.Search(len(s.ready), func(i int) bool { return !less(s.ready[i], key) })
	s.ready = append(s.ready, readyKey{})
	copy(s.ready[pos+1:], s.ready[pos:])
	s.ready[pos] = key
}

func (s *Scheduler) removeReady(nodeID id.ID) {
	for i, k := range s.ready {
		if k.node.Equal(nodeID) {
			s.ready = append(s.ready[:i], s.ready[i+1:]...)
			return
		}
	}
}

// Decide returns Run(id) for the least key in the ready queue if
// non-empty; Wait if not every node is completed or failed yet; else
// Complete.
func (s *Scheduler) Decide() Decision {
	if len(s.ready) > 0 {
		return Decision{Kind: RunKind, Node: s.ready[0].node}
	}
	if len(s.completed)+len(s.failed) < len(s.allNodes) {
		return Decision{Kind: WaitKind}
	}
	return Decision{Kind: CompleteKind}
}

// MarkComplete removes nodeID from ready, records it completed,
// advances the logical clock, and promotes any dependent whose full
// dependency set is now satisfied.
func (s *Scheduler) MarkComplete(nodeID id.ID) {
	s.removeReady(nodeID)
	s.completed[nodeID] = struct{}{}
	s.time++

	for _, dep := range s.dependents[nodeID] {
		if _, done := s.completed[dep]; done {
			continue
		}
		if s.allDepsCompleted(dep) {
			s.insertReady(dep)
		}
	}
}

func (s *Scheduler) allDepsCompleted(nodeID id.ID) bool {
	for _, d := range s.dependencies[nodeID] {
		if _, done := s.completed[d]; !done {
			return false
		}
	}
	return true
}

// MarkFailed removes nodeID from ready, records it failed, advances
// the clock. Dependents are NOT promoted: a failed predecessor blocks
// its dependents permanently unless the containing engine retries.
func (s *Scheduler) MarkFailed(nodeID id.ID) {
	s.removeReady(nodeID)
	s.failed[nodeID] = struct{}{}
	s.time++
}

// Reset empties completed/failed/ready/time and repopulates ready from
// the dependency graph as if freshly built.
func (s *Scheduler) Reset() {
	s.ready = nil
	s.completed = make(map[id.ID]struct{})
	s.failed = make(map[id.ID]struct{})
	s.time = 0
	for _, n := range s.order {
		if len(s.dependencies[n]) == 0 {
			s.insertReady(n)
		}
	}
}

// Time returns the scheduler's logical clock.
func (s *Scheduler) Time() uint64 { return s.time }

// Completed reports whether nodeID has completed.
func (s *Scheduler) Completed(nodeID id.ID) bool {
	_, ok := s.completed[nodeID]
	return ok
}

// Failed reports whether nodeID has failed.
func (s *Scheduler) Failed(nodeID id.ID) bool {
	_, ok := s.failed[nodeID]
	return ok
}

// CompletedSet returns all completed node IDs in scheduler insertion
// order (not completion order) for deterministic iteration by callers.
func (s *Scheduler) CompletedSet() []id.ID {
	var out []id.ID
	for _, n := range s.order {
		if _, ok := s.completed[n]; ok {
			out = append(out, n)
		}
	}
	return out
}

// FailedSet returns all failed node IDs in scheduler insertion order.
func (s *Scheduler) FailedSet() []id.ID {
	var out []id.ID
	for _, n := range s.order {
		if _, ok := s.failed[n]; ok {
			out = append(out, n)
		}
	}
	return out
}

// TotalNodes reports how many nodes are registered.
func (s *Scheduler) TotalNodes() int { return len(s.allNodes) }
