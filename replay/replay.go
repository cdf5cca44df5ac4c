// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package replay reconstructs engine state from a recorded event
// sequence (spec §4.9): it folds NodeStarted/NodeCompleted/NodeFailed/
// NodeSkipped events into a per-node state machine, optionally
// re-validating the hash chain as it goes, and can diff two
// reconstructions of the same run for equivalence checking.
package replay

import (
	"github.com/cathedral-fabric/cathedral/eventlog"
	"github.com/cathedral-fabric/cathedral/id"
	"github.com/cathedral-fabric/cathedral/internal/xerrors"
)

// NodeState is a single node's terminal (or in-progress) state as
// reconstructed from the log.
type NodeState struct {
	NodeID      id.ID
	Started     bool
	Completed   bool
	Failed      bool
	Skipped     bool
	OutputHash  *[32]byte
	StartedAt   uint64
	FinishedAt  uint64
}

// ReconstructedState is the full per-run replay result.
type ReconstructedState struct {
	RunID     id.ID
	Nodes     map[id.ID]*NodeState
	EventsSeen int
}

// Config bounds a replay pass.
type Config struct {
	StopOnError      bool
	ValidateHashChain bool
	MaxEvents        uint64 // 0 = unbounded
	EnableSnapshots  bool
}

// DefaultConfig mirrors the engine's defaults: validate the chain,
// stop on the first error, no event cap.
func DefaultConfig() Config {
	return Config{StopOnError: true, ValidateHashChain: true}
}

// Callback is invoked once per folded event during Replay, letting a
// caller stream progress without waiting for the full reconstruction.
type Callback func(e eventlog.Event, state *ReconstructedState)

// Replay folds events into a ReconstructedState, optionally calling cb
// after each fold. events must belong to a single run and be ordered by
// append order (logical_time non-decreasing, as eventlog.Log enforces).
func Replay(events []eventlog.Event, cfg Config, cb Callback) (*ReconstructedState, error) {
	if cfg.ValidateHashChain {
		if broken := eventlog.ValidateSequence(events); broken != nil {
			err := xerrors.BrokenChainf(broken.Position, broken.Expected.String(), broken.Actual.String())
			if cfg.StopOnError {
				return nil, err
			}
		}
	}

	state := &ReconstructedState{Nodes: make(map[id.ID]*NodeState)}
	if len(events) > 0 {
		state.RunID = events[0].RunID
	}

	for _, e := range events {
		if cfg.MaxEvents > 0 && uint64(state.EventsSeen) >= cfg.MaxEvents {
			break
		}
		ns, ok := state.Nodes[e.NodeID]
		if !ok {
			ns = &NodeState{NodeID: e.NodeID}
			state.Nodes[e.NodeID] = ns
		}

		switch e.Kind {
		case eventlog.NodeStarted:
			ns.Started = true
			ns.StartedAt = e.LogicalTime
		case eventlog.NodeCompleted:
			ns.Completed = true
			ns.FinishedAt = e.LogicalTime
			if e.OutputHash != nil {
				var h [32]byte = *e.OutputHash
				ns.OutputHash = &h
			}
		case eventlog.NodeFailed:
			ns.Failed = true
			ns.FinishedAt = e.LogicalTime
			if cfg.StopOnError {
				state.EventsSeen++
				return state, xerrors.New(xerrors.Unknown, "node failed during replay", xerrors.F("node", e.NodeID.String()))
			}
		case eventlog.NodeSkipped:
			ns.Skipped = true
			ns.FinishedAt = e.LogicalTime
		}

		state.EventsSeen++
		if cb != nil {
			cb(e, state)
		}
	}
	return state, nil
}

// VerifyEquivalence reports whether two reconstructions of what should
// be the same deterministic run agree on every node's terminal state
// and output hash. A mismatch names the first differing node.
func VerifyEquivalence(a, b *ReconstructedState) error {
	if len(a.Nodes) != len(b.Nodes) {
		return xerrors.Validationf("node_count", "reconstructions disagree on node count")
	}
	for nodeID, an := range a.Nodes {
		bn, ok := b.Nodes[nodeID]
		if !ok {
			return xerrors.NotFoundf("node", nodeID.String())
		}
		if an.Completed != bn.Completed || an.Failed != bn.Failed || an.Skipped != bn.Skipped {
			return xerrors.Validationf("terminal_state", "node "+nodeID.String()+" disagrees")
		}
		if (an.OutputHash == nil) != (bn.OutputHash == nil) ||
			(an.OutputHash != nil && *an.OutputHash != *bn.OutputHash) {
			return xerrors.Validationf("output_hash", "node "+nodeID.String()+" output diverged")
		}
	}
	return nil
}
