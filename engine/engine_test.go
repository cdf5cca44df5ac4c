// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package engine_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cathedral-fabric/cathedral/capability"
	"github.com/cathedral-fabric/cathedral/dag"
	"github.com/cathedral-fabric/cathedral/engine"
	"github.com/cathedral-fabric/cathedral/eventlog"
	"github.com/cathedral-fabric/cathedral/executor"
	"github.com/cathedral-fabric/cathedral/id"
	"github.com/cathedral-fabric/cathedral/store"
)

func node(name string, deps ...id.ID) *dag.Node {
	depset := dag.NewOrderedSet(deps...)
	return &dag.Node{
		ID: id.NodeIDFromName(name), Kind: dag.KindTool, Name: name,
		Deps: depset, Caps: capability.NewSet(),
	}
}

// TestSingleNodeHappyPath exercises scenario S1: a single unregistered
// tool node runs to completion with empty output and produces a
// Started/Completed event pair linked by the hash chain.
func TestSingleNodeHappyPath(t *testing.T) {
	g := dag.New()
	a := node("a")
	require.NoError(t, g.AddNode(a))

	log := eventlog.New()
	resolver := executor.NewDefaultResolver(executor.NewToolRegistry())
	eng, err := engine.New(g, resolver, log, engine.Config{MaxTicks: 100}, nil, nil)
	require.NoError(t, err)

	runID := id.New(id.Run)
	result := eng.Run(runID, capability.NewSet())

	require.Equal(t, engine.Success, result.Status)
	require.Len(t, result.Completed, 1)
	require.Empty(t, result.Failed)

	events := log.EventsForRun(runID)
	require.Len(t, events, 2)
	require.Equal(t, eventlog.NodeStarted, events[0].Kind)
	require.Equal(t, eventlog.NodeCompleted, events[1].Kind)
	require.Nil(t, eventlog.ValidateSequence(events))

	out, ok := eng.Output(a.ID)
	require.True(t, ok)
	require.Empty(t, out)
}

// TestDiamondRun exercises scenario S2: A -> {B, C} -> D, all four
// nodes running to completion with 8 total events (start+complete per
// node), and a single intact hash chain across the whole run.
func TestDiamondRun(t *testing.T) {
	g := dag.New()
	a := node("a")
	require.NoError(t, g.AddNode(a))
	b := node("b", a.ID)
	require.NoError(t, g.AddNode(b))
	c := node("c", a.ID)
	require.NoError(t, g.AddNode(c))
	d := node("d", b.ID, c.ID)
	require.NoError(t, g.AddNode(d))

	log := eventlog.New()
	resolver := executor.NewDefaultResolver(executor.NewToolRegistry())
	eng, err := engine.New(g, resolver, log, engine.Config{MaxTicks: 100}, nil, nil)
	require.NoError(t, err)

	runID := id.New(id.Run)
	result := eng.Run(runID, capability.NewSet())

	require.Equal(t, engine.Success, result.Status)
	require.Len(t, result.Completed, 4)
	require.Empty(t, result.Failed)

	events := log.EventsForRun(runID)
	require.Len(t, events, 8)
	require.Nil(t, eventlog.ValidateSequence(events))
}

// TestStrictModeFailsOnMissingCapability exercises denial-of-capability
// under strict mode: the node hard-fails rather than being skipped, and
// the run reports PartialFailure.
func TestStrictModeFailsOnMissingCapability(t *testing.T) {
	g := dag.New()
	a := &dag.Node{
		ID: id.NodeIDFromName("needs-net"), Kind: dag.KindTool, Name: "needs-net",
		Deps: dag.NewOrderedSet(), Caps: capability.NewSet(capability.NetReadCap("*")),
	}
	require.NoError(t, g.AddNode(a))

	log := eventlog.New()
	resolver := executor.NewDefaultResolver(executor.NewToolRegistry())
	eng, err := engine.New(g, resolver, log, engine.Config{MaxTicks: 100, Strict: true}, nil, nil)
	require.NoError(t, err)

	result := eng.Run(id.New(id.Run), capability.NewSet()) // no capabilities granted
	require.Equal(t, engine.PartialFailure, result.Status)
	require.Len(t, result.Failed, 1)
}

// TestNonStrictModeSkipsOnMissingCapability mirrors the prior test under
// non-strict mode: the node is skipped (not failed), and a skipped node
// still unblocks its dependents, so the run still reports Success.
func TestNonStrictModeSkipsOnMissingCapability(t *testing.T) {
	g := dag.New()
	a := &dag.Node{
		ID: id.NodeIDFromName("needs-net-2"), Kind: dag.KindTool, Name: "needs-net-2",
		Deps: dag.NewOrderedSet(), Caps: capability.NewSet(capability.NetReadCap("*")),
	}
	require.NoError(t, g.AddNode(a))
	b := node("downstream", a.ID)
	require.NoError(t, g.AddNode(b))

	log := eventlog.New()
	resolver := executor.NewDefaultResolver(executor.NewToolRegistry())
	eng, err := engine.New(g, resolver, log, engine.Config{MaxTicks: 100, Strict: false}, nil, nil)
	require.NoError(t, err)

	result := eng.Run(id.New(id.Run), capability.NewSet())
	require.Equal(t, engine.Success, result.Status)
	require.Len(t, result.Completed, 2)
	require.Empty(t, result.Failed)
}

// TestContentStoreWiring exercises WithContentStore: a completed
// node's output is written through to the store under its content
// address, recoverable via BlobAddress without needing the in-memory
// outputs map.
func TestContentStoreWiring(t *testing.T) {
	tools := executor.NewToolRegistry()
	tools.Register("emit", "v1", func(ctx *executor.ExecutionContext) ([]byte, error) {
		return []byte("payload"), nil
	}, nil, nil)

	g := dag.New()
	a := &dag.Node{
		ID: id.NodeIDFromName("emitter"), Kind: dag.KindTool, Name: "emit", Version: "v1",
		Deps: dag.NewOrderedSet(), Caps: capability.NewSet(),
	}
	require.NoError(t, g.AddNode(a))

	log := eventlog.New()
	resolver := executor.NewDefaultResolver(tools)
	cs, err := store.New("", store.Limits{})
	require.NoError(t, err)
	eng, err := engine.New(g, resolver, log, engine.Config{MaxTicks: 100}, nil, nil, engine.WithContentStore(cs))
	require.NoError(t, err)

	result := eng.Run(id.New(id.Run), capability.NewSet())
	require.Equal(t, engine.Success, result.Status)

	addr, ok := eng.BlobAddress(a.ID)
	require.True(t, ok)
	stored, err := cs.Read(addr)
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), stored)
}

// TestTimeout exercises the max_ticks overflow path: a chain longer than
// MaxTicks forces Timeout before the graph completes.
func TestTimeout(t *testing.T) {
	g := dag.New()
	var prev id.ID
	for i := 0; i < 20; i++ {
		var n *dag.Node
		if i == 0 {
			n = node("chain-0")
		} else {
			n = node("chain-"+string(rune('a'+i)), prev)
		}
		require.NoError(t, g.AddNode(n))
		prev = n.ID
	}

	log := eventlog.New()
	resolver := executor.NewDefaultResolver(executor.NewToolRegistry())
	eng, err := engine.New(g, resolver, log, engine.Config{MaxTicks: 3}, nil, nil)
	require.NoError(t, err)

	result := eng.Run(id.New(id.Run), capability.NewSet())
	require.Equal(t, engine.Timeout, result.Status)
}
