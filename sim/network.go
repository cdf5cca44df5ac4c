// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package sim

// NetworkCondition is the closed set of fault modes a virtual link
// between two simulated peers may be in at a given tick.
type NetworkCondition uint8

const (
	ConditionHealthy NetworkCondition = iota
	ConditionPartitioned
	ConditionLatent
	ConditionLossy
)

// LinkState describes one directed simulated link's current condition
// and parameters.
type LinkState struct {
	Condition  NetworkCondition
	LatencyTicks uint64  // ConditionLatent
	LossRate   float64 // ConditionLossy, in [0, 1]
}

// VirtualNetwork models per-pair link conditions between named peers,
// deterministically perturbed by a SeededRNG.
type VirtualNetwork struct {
	links map[string]LinkState
	rng   *SeededRNG
}

func linkKey(from, to string) string { return from + "->" + to }

// NewVirtualNetwork returns a network where every link starts healthy.
func NewVirtualNetwork(rng *SeededRNG) *VirtualNetwork {
	return &VirtualNetwork{links: make(map[string]LinkState), rng: rng}
}

// SetLink fixes the link from->to to state explicitly (for scripted
// scenarios, bypassing the RNG).
func (n *VirtualNetwork) SetLink(from, to string, state LinkState) {
	n.links[linkKey(from, to)] = state
}

// Link returns the current state of from->to (healthy by default).
func (n *VirtualNetwork) Link(from, to string) LinkState {
	s, ok := n.links[linkKey(from, to)]
	if !ok {
		return LinkState{Condition: ConditionHealthy}
	}
	return s
}

// Deliver reports whether a message sent on from->to at the current
// tick should be delivered, and if so, after how many additional ticks
// of latency. A partitioned link never delivers; a lossy link drops
// probabilistically per LossRate, consuming one RNG draw only when the
// link is actually lossy (so healthy, latent and partitioned links never
// perturb the draw sequence; lossy links share the one RNG stream).
func (n *VirtualNetwork) Deliver(from, to string) (deliver bool, delayTicks uint64) {
	link := n.Link(from, to)
	switch link.Condition {
	case ConditionPartitioned:
		return false, 0
	case ConditionLossy:
		if n.rng.Chance(link.LossRate) {
			return false, 0
		}
		return true, 0
	case ConditionLatent:
		return true, link.LatencyTicks
	default:
		return true, 0
	}
}
