// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package eventlog implements the append-only, hash-chained event log
// of spec §4.6: appends enforce per-run logical-time monotonicity and
// prior_state_hash linkage against a chain cursor; ValidateSequence
// re-checks a full sequence and reports the first broken link.
package eventlog

import (
	"sync"

	"github.com/cathedral-fabric/cathedral/id"
	"github.com/cathedral-fabric/cathedral/internal/xerrors"
	"github.com/cathedral-fabric/cathedral/xhash"
)

// EventKind tags the variant of an Event.
type EventKind uint8

const (
	NodeStarted EventKind = iota
	NodeCompleted
	NodeFailed
	NodeSkipped
	OutputProduced
	SideEffect
	CapabilityCheck
	SnapshotEvent
)

// Event is a single append-only log record.
type Event struct {
	ID              id.ID                `cbor:"id"`
	RunID           id.ID                `cbor:"run_id"`
	NodeID          id.ID                `cbor:"node_id"`
	LogicalTime     uint64               `cbor:"logical_time"`
	Kind            EventKind            `cbor:"kind"`
	Data            []byte               `cbor:"data"`
	ParentID        *id.ID               `cbor:"parent_id,omitempty"`
	PriorStateHash  xhash.Hash           `cbor:"prior_state_hash"`
	PostStateHash   xhash.Hash           `cbor:"post_state_hash"`

	// Kind-specific payloads, populated depending on Kind.
	ExitCode        *int32  `cbor:"exit_code,omitempty"`         // NodeFailed
	OutputHash      *xhash.Hash `cbor:"output_hash,omitempty"`   // NodeCompleted / OutputProduced
	SideEffectDesc  string  `cbor:"side_effect_desc,omitempty"`  // SideEffect
	CapabilityName  string  `cbor:"capability_name,omitempty"`   // CapabilityCheck
	CapabilityOK    bool    `cbor:"capability_allowed,omitempty"`// CapabilityCheck
}

// runState tracks the per-run monotonicity and chain cursor the log
// enforces on Append.
type runState struct {
	lastLogicalTime uint64
	hasTime         bool
	cursor          xhash.Hash // next expected PriorStateHash; starts at xhash.Zero
}

// Log is the append-only event log. A single Log instance may hold
// events from multiple runs, each independently chained.
type Log struct {
	mu     sync.Mutex
	events []Event
	runs   map[id.ID]*runState
}

// New returns an empty Log.
func New() *Log {
	return &Log{runs: make(map[id.ID]*runState)}
}

// Append validates and stores e. logical_time must be >= the run's
// last-seen logical_time; prior_state_hash must equal the run's chain
// cursor (Zero for a fresh run). On success the cursor advances to
// post_state_hash.
func (l *Log) Append(e Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rs, ok := l.runs[e.RunID]
	if !ok {
		rs = &runState{cursor: xhash.Zero}
		l.runs[e.RunID] = rs
	}

	if rs.hasTime && e.LogicalTime < rs.lastLogicalTime {
		return xerrors.Validationf("logical_time", "non-monotonic")
	}

	if e.PriorStateHash != rs.cursor {
		return xerrors.BrokenChainf(len(l.events), rs.cursor.String(), e.PriorStateHash.String())
	}
	rs.cursor = e.PostStateHash
	rs.lastLogicalTime = e.LogicalTime
	rs.hasTime = true

	l.events = append(l.events, e)
	return nil
}

// Events returns all events across all runs in insertion order.
func (l *Log) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// EventsForRun returns events belonging to runID in insertion order.
func (l *Log) EventsForRun(runID id.ID) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Event
	for _, e := range l.events {
		if e.RunID.Equal(runID) {
			out = append(out, e)
		}
	}
	return out
}

// BrokenLink describes the first chain-linkage failure ValidateSequence
// finds in a sequence.
type BrokenLink struct {
	Position int
	Expected xhash.Hash
	Actual   xhash.Hash
}

// ValidateSequence checks that events (assumed to belong to one run,
// in order) respect prior/post hash linkage: events[i].PriorStateHash
// must equal events[i-1].PostStateHash (or Zero for i==0). Returns the
// first BrokenLink found, or nil if the sequence is intact.
func ValidateSequence(events []Event) *BrokenLink {
	expected := xhash.Zero
	for i, e := range events {
		if e.PriorStateHash != expected {
			return &BrokenLink{Position: i, Expected: expected, Actual: e.PriorStateHash}
		}
		expected = e.PostStateHash
	}
	return nil
}
