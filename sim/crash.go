// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package sim

// FailureModel describes one peer's crash behavior: a fixed probability
// of crashing on a given tick, and whether it can restart afterward.
type FailureModel struct {
	CrashProbability float64
	Restartable      bool
	RestartAfterTicks uint64
}

// PeerState is a peer's simulated liveness.
type PeerState uint8

const (
	PeerAlive PeerState = iota
	PeerCrashed
)

// CrashInjector applies FailureModels to named peers across ticks,
// tracking liveness deterministically via a shared SeededRNG.
type CrashInjector struct {
	rng     *SeededRNG
	models  map[string]FailureModel
	state   map[string]PeerState
	crashedAt map[string]uint64
}

func NewCrashInjector(rng *SeededRNG) *CrashInjector {
	return &CrashInjector{
		rng: rng,
		models: make(map[string]FailureModel),
		state:  make(map[string]PeerState),
		crashedAt: make(map[string]uint64),
	}
}

// SetModel installs peer's failure model.
func (c *CrashInjector) SetModel(peer string, m FailureModel) {
	c.models[peer] = m
}

// Tick advances the injector by one simulated tick, rolling crash/
// restart decisions for every peer with a configured model. Order of
// evaluation is the caller-supplied peers slice, so callers control RNG
// draw ordering for reproducibility across peer-set permutations.
func (c *CrashInjector) Tick(now uint64, peers []string) {
	for _, peer := range peers {
		model, ok := c.models[peer]
		if !ok {
			continue
		}
		switch c.State(peer) {
		case PeerAlive:
			if c.rng.Chance(model.CrashProbability) {
				c.state[peer] = PeerCrashed
				c.crashedAt[peer] = now
			}
		case PeerCrashed:
			if model.Restartable && now-c.crashedAt[peer] >= model.RestartAfterTicks {
				c.state[peer] = PeerAlive
			}
		}
	}
}

// State reports peer's current liveness (alive if never touched).
func (c *CrashInjector) State(peer string) PeerState {
	s, ok := c.state[peer]
	if !ok {
		return PeerAlive
	}
	return s
}
