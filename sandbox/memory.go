// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package sandbox implements the WASM host contract of spec §4.8: a
// fuel-metered, memory-limited execution envelope with a closed ABI and
// a pluggable host-function registry. The actual WASM compilation
// toolchain is out of scope (spec §1); this package defines only the
// sandbox contract a compiled module executes within.
package sandbox

import "github.com/cathedral-fabric/cathedral/internal/xerrors"

const pageSize = 65536

// MemoryLimit bounds a sandbox's linear memory.
type MemoryLimit struct {
	MaxBytes     uint64
	InitialBytes uint64
}

// MaxPages returns ceil(MaxBytes / pageSize).
func (m MemoryLimit) MaxPages() uint64 {
	if m.MaxBytes == 0 {
		return 0
	}
	return (m.MaxBytes + pageSize - 1) / pageSize
}

// MemoryRegion names a byte range within linear memory.
type MemoryRegion struct {
	Start    uint64
	End      uint64
	Name     string
	ReadOnly bool
}

func (r MemoryRegion) overlaps(o MemoryRegion) bool {
	return r.Start < o.End && o.Start < r.End
}

// MemoryRegionMap tracks non-overlapping named regions within a
// sandbox's linear memory.
type MemoryRegionMap struct {
	regions []MemoryRegion
}

func NewMemoryRegionMap() *MemoryRegionMap { return &MemoryRegionMap{} }

// AddRegion registers r, rejecting any overlap with an existing region.
func (m *MemoryRegionMap) AddRegion(r MemoryRegion) error {
	for _, existing := range m.regions {
		if r.overlaps(existing) {
			return xerrors.Validationf("region", "overlap")
		}
	}
	m.regions = append(m.regions, r)
	return nil
}

// Find returns the region containing addr, if any.
func (m *MemoryRegionMap) Find(addr uint64) (MemoryRegion, bool) {
	for _, r := range m.regions {
		if addr >= r.Start && addr < r.End {
			return r, true
		}
	}
	return MemoryRegion{}, false
}

// CheckWrite validates that writing to addr is permitted: the address
// must fall inside a known region and that region must not be
// read-only. Writing outside any declared region is also an
// AccessViolation (Validation kind) — the sandbox never allows writes
// into undeclared memory.
func (m *MemoryRegionMap) CheckWrite(addr uint64) error {
	r, ok := m.Find(addr)
	if !ok {
		return xerrors.Validationf("memory", "access violation: undeclared region")
	}
	if r.ReadOnly {
		return xerrors.Validationf("memory", "access violation: read-only region")
	}
	return nil
}
