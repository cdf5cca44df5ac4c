// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package sandbox

import "github.com/cathedral-fabric/cathedral/internal/xerrors"

// FuelMeter tracks a sandbox's unit-less execution budget.
type FuelMeter struct {
	limit    uint64
	consumed uint64
}

func NewFuelMeter(limit uint64) *FuelMeter {
	return &FuelMeter{limit: limit}
}

// Consume attempts to spend n fuel units, failing with
// CapacityExceeded (OutOfFuel) if that would exceed the limit.
func (f *FuelMeter) Consume(n uint64) error {
	if f.consumed+n > f.limit {
		return xerrors.CapacityExceededf("fuel", f.limit, f.consumed+n)
	}
	f.consumed += n
	return nil
}

// Consumed returns fuel spent so far.
func (f *FuelMeter) Consumed() uint64 { return f.consumed }

// Remaining returns fuel left before exhaustion.
func (f *FuelMeter) Remaining() uint64 {
	if f.consumed >= f.limit {
		return 0
	}
	return f.limit - f.consumed
}
