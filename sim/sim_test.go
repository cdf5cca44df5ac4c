// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package sim_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cathedral-fabric/cathedral/sim"
)

func TestSeededRNGDeterministic(t *testing.T) {
	a := sim.NewSeededRNG(42)
	b := sim.NewSeededRNG(42)
	for i := 0; i < 10; i++ {
		require.Equal(t, a.NextUint64(), b.NextUint64())
	}
}

func TestSeededRNGDiffersBySeed(t *testing.T) {
	a := sim.NewSeededRNG(1)
	b := sim.NewSeededRNG(2)
	require.NotEqual(t, a.NextUint64(), b.NextUint64())
}

func TestVirtualNetworkPartition(t *testing.T) {
	rng := sim.NewSeededRNG(7)
	net := sim.NewVirtualNetwork(rng)
	net.SetLink("a", "b", sim.LinkState{Condition: sim.ConditionPartitioned})
	deliver, _ := net.Deliver("a", "b")
	require.False(t, deliver)
}

func TestVirtualNetworkHealthyDefault(t *testing.T) {
	rng := sim.NewSeededRNG(7)
	net := sim.NewVirtualNetwork(rng)
	deliver, delay := net.Deliver("a", "b")
	require.True(t, deliver)
	require.Zero(t, delay)
}

func TestCrashInjectorDeterministic(t *testing.T) {
	run := func() []sim.PeerState {
		rng := sim.NewSeededRNG(99)
		ci := sim.NewCrashInjector(rng)
		ci.SetModel("p1", sim.FailureModel{CrashProbability: 0.5, Restartable: true, RestartAfterTicks: 2})
		var states []sim.PeerState
		for t := uint64(0); t < 10; t++ {
			ci.Tick(t, []string{"p1"})
			states = append(states, ci.State("p1"))
		}
		return states
	}
	require.Equal(t, run(), run())
}

func TestScenarioRunProducesRecordsAndIsReproducible(t *testing.T) {
	build := func() []sim.SimRecord {
		schedule := sim.NewFailureSchedule(sim.ScheduledFailure{
			Tick: 2,
			Peer: &sim.ScheduledPeerChange{Peer: "p1", State: sim.PeerCrashed},
		})
		s := sim.NewScenario(13, []string{"p1", "p2"}, 5, schedule)
		return s.Run()
	}
	a := build()
	b := build()
	require.Len(t, a, 5)
	require.True(t, sim.CompareRecords(a, b))
	require.Equal(t, sim.PeerCrashed, a[2].PeerStates["p1"])
}
