// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package replay_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cathedral-fabric/cathedral/eventlog"
	"github.com/cathedral-fabric/cathedral/id"
	"github.com/cathedral-fabric/cathedral/replay"
	"github.com/cathedral-fabric/cathedral/xhash"
)

func buildRun(t *testing.T) (id.ID, []eventlog.Event) {
	t.Helper()
	log := eventlog.New()
	runID := id.New(id.Run)
	nodeID := id.NodeIDFromName("a")

	started := eventlog.Event{
		ID: id.New(id.Event), RunID: runID, NodeID: nodeID,
		LogicalTime: 0, Kind: eventlog.NodeStarted,
		PriorStateHash: xhash.Zero, PostStateHash: xhash.Compute([]byte("started")),
	}
	require.NoError(t, log.Append(started))

	outHash := xhash.Compute([]byte("output"))
	completed := eventlog.Event{
		ID: id.New(id.Event), RunID: runID, NodeID: nodeID,
		LogicalTime: 1, Kind: eventlog.NodeCompleted,
		PriorStateHash: started.PostStateHash,
		PostStateHash:  xhash.Chain(started.PostStateHash, xhash.Compute([]byte("completed"))),
		OutputHash:     &outHash,
	}
	require.NoError(t, log.Append(completed))

	return runID, log.EventsForRun(runID)
}

func TestReplayReconstructsNodeState(t *testing.T) {
	runID, events := buildRun(t)
	state, err := replay.Replay(events, replay.DefaultConfig(), nil)
	require.NoError(t, err)
	require.Equal(t, runID, state.RunID)
	require.Equal(t, 2, state.EventsSeen)

	nodeID := id.NodeIDFromName("a")
	ns := state.Nodes[nodeID]
	require.True(t, ns.Started)
	require.True(t, ns.Completed)
	require.NotNil(t, ns.OutputHash)
}

func TestReplayDetectsBrokenChain(t *testing.T) {
	_, events := buildRun(t)
	events[1].PriorStateHash = xhash.Zero // corrupt the link
	_, err := replay.Replay(events, replay.DefaultConfig(), nil)
	require.Error(t, err)
}

func TestVerifyEquivalenceAgrees(t *testing.T) {
	_, events := buildRun(t)
	a, err := replay.Replay(events, replay.DefaultConfig(), nil)
	require.NoError(t, err)
	b, err := replay.Replay(events, replay.DefaultConfig(), nil)
	require.NoError(t, err)
	require.NoError(t, replay.VerifyEquivalence(a, b))

	diff := replay.Diff(a, b)
	require.True(t, diff.Empty())
}

func TestDiffDetectsOutputDivergence(t *testing.T) {
	_, events := buildRun(t)
	a, err := replay.Replay(events, replay.DefaultConfig(), nil)
	require.NoError(t, err)

	diverged := append([]eventlog.Event{}, events...)
	otherHash := xhash.Compute([]byte("different-output"))
	diverged[1].OutputHash = &otherHash
	b, err := replay.Replay(diverged, replay.Config{}, nil)
	require.NoError(t, err)

	diff := replay.Diff(a, b)
	require.False(t, diff.Empty())
	require.Error(t, replay.VerifyEquivalence(a, b))
}
