// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package sim

// ScheduledFailure names a single fault to inject at a specific tick:
// a link condition change, or a peer crash/restart override.
type ScheduledFailure struct {
	Tick uint64
	Link *ScheduledLinkChange
	Peer *ScheduledPeerChange
}

type ScheduledLinkChange struct {
	From, To string
	State    LinkState
}

type ScheduledPeerChange struct {
	Peer  string
	State PeerState
}

// FailureSchedule is an explicit, ordered list of faults to apply at
// their ticks — the scripted alternative to probabilistic injection via
// CrashInjector/VirtualNetwork, for scenarios that need an exact,
// reviewable fault timeline.
type FailureSchedule struct {
	entries []ScheduledFailure
}

func NewFailureSchedule(entries ...ScheduledFailure) *FailureSchedule {
	return &FailureSchedule{entries: entries}
}

// Apply applies every entry scheduled for tick now.
func (s *FailureSchedule) Apply(now uint64, net *VirtualNetwork, crashes *CrashInjector) {
	for _, e := range s.entries {
		if e.Tick != now {
			continue
		}
		if e.Link != nil {
			net.SetLink(e.Link.From, e.Link.To, e.Link.State)
		}
		if e.Peer != nil {
			crashes.state[e.Peer.Peer] = e.Peer.State
		}
	}
}

// SimRecord is one tick's worth of observable simulation state, kept
// for post-run analysis and for RunComparison.
type SimRecord struct {
	Tick       uint64
	PeerStates map[string]PeerState
	Links      map[string]LinkState
}

// Scenario drives a tick loop over a fixed peer set, recording a
// SimRecord each tick. It does not itself run any workflow engine; it
// is the fault-injection substrate an engine.Engine run is wrapped in
// when exercised under simulation.
type Scenario struct {
	Seed     uint64
	Peers    []string
	MaxTicks uint64
	Schedule *FailureSchedule
	Network  *VirtualNetwork
	Crashes  *CrashInjector

	records []SimRecord
}

// NewScenario builds a scenario with a fresh SeededRNG derived from
// seed, shared by its VirtualNetwork and CrashInjector so both draw
// from the same deterministic stream. Run itself draws only through
// CrashInjector.Tick; the network draws only when a caller invokes
// Deliver on a lossy link.
func NewScenario(seed uint64, peers []string, maxTicks uint64, schedule *FailureSchedule) *Scenario {
	rng := NewSeededRNG(seed)
	return &Scenario{
		Seed: seed, Peers: peers, MaxTicks: maxTicks, Schedule: schedule,
		Network: NewVirtualNetwork(rng), Crashes: NewCrashInjector(rng),
	}
}

// Run advances the scenario through MaxTicks, applying the schedule and
// recording state each tick.
func (s *Scenario) Run() []SimRecord {
	for t := uint64(0); t < s.MaxTicks; t++ {
		if s.Schedule != nil {
			s.Schedule.Apply(t, s.Network, s.Crashes)
		}
		s.Crashes.Tick(t, s.Peers)
		s.records = append(s.records, s.snapshot(t))
	}
	return s.records
}

func (s *Scenario) snapshot(tick uint64) SimRecord {
	peerStates := make(map[string]PeerState, len(s.Peers))
	for _, p := range s.Peers {
		peerStates[p] = s.Crashes.State(p)
	}
	links := make(map[string]LinkState, len(s.Network.links))
	for k, v := range s.Network.links {
		links[k] = v
	}
	return SimRecord{Tick: tick, PeerStates: peerStates, Links: links}
}

// Records returns every SimRecord captured so far.
func (s *Scenario) Records() []SimRecord { return s.records }

// CompareRecords reports whether two scenario runs (expected to share a
// seed and schedule) produced identical per-tick peer-state sequences —
// the simulation harness's own determinism self-check, parallel to
// engine replay's VerifyEquivalence.
func CompareRecords(a, b []SimRecord) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Tick != b[i].Tick || len(a[i].PeerStates) != len(b[i].PeerStates) {
			return false
		}
		for peer, state := range a[i].PeerStates {
			if b[i].PeerStates[peer] != state {
				return false
			}
		}
	}
	return true
}
