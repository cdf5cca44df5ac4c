// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package id implements the execution core's identifier scheme: a
// 128-bit value tagged with the kind of entity it names (Run, Event,
// Node, Worker, Cluster, Task, Snapshot, Decision). Two identifiers
// compare equal iff their bytes are equal; display form is
// "<tag>_<16-byte canonical lowercase hex>".
package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Domain tags the kind of entity an ID names.
type Domain uint8

const (
	Run Domain = iota
	Event
	Node
	Worker
	Cluster
	Task
	Snapshot
	Decision
)

func (d Domain) String() string {
	switch d {
	case Run:
		return "run"
	case Event:
		return "event"
	case Node:
		return "node"
	case Worker:
		return "worker"
	case Cluster:
		return "cluster"
	case Task:
		return "task"
	case Snapshot:
		return "snapshot"
	case Decision:
		return "decision"
	default:
		return "unknown"
	}
}

// ID is a 128-bit domain-tagged identifier. The zero value is not a
// valid identifier of any domain; use New or FromName to construct one.
type ID struct {
	domain Domain
	bytes  [16]byte
}

// Domain returns the identifier's entity kind.
func (i ID) Domain() Domain { return i.domain }

// Bytes returns the 16 raw identifier bytes.
func (i ID) Bytes() [16]byte { return i.bytes }

// Equal reports whether two identifiers have identical domain and bytes.
func (i ID) Equal(o ID) bool { return i.domain == o.domain && i.bytes == o.bytes }

// Less gives a deterministic total order over IDs of any domain, by
// domain first then raw bytes — the ordering the scheduler's ready
// queue and every canonically-encoded container rely on.
func (i ID) Less(o ID) bool {
	if i.domain != o.domain {
		return i.domain < o.domain
	}
	for k := 0; k < 16; k++ {
		if i.bytes[k] != o.bytes[k] {
			return i.bytes[k] < o.bytes[k]
		}
	}
	return false
}

// String renders the display form "<tag>_<32-hex>".
func (i ID) String() string {
	return fmt.Sprintf("%s_%s", i.domain, hex.EncodeToString(i.bytes[:]))
}

// New generates a fresh random identifier of the given domain. Not
// deterministic — use only where the spec doesn't require a pure
// function of content (e.g. allocating a fresh RunId at the top of a
// simulation driver, never inside the deterministic core itself).
func New(d Domain) ID {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return ID{domain: d, bytes: b}
}

// FromName derives a deterministic identifier of domain d from a
// caller-supplied name. Pure function of (d, s): same inputs always
// yield the same ID, and distinct (d, s) pairs are collision-resistant
// because the domain byte is folded into the hash input alongside a
// length-prefix, preventing "node:ab"+"c" colliding with "node:a"+"bc".
func FromName(d Domain, s string) ID {
	h := blake3.New()
	_, _ = h.Write([]byte{byte(d)})
	_, _ = h.Write([]byte{byte(len(s) >> 24), byte(len(s) >> 16), byte(len(s) >> 8), byte(len(s))})
	_, _ = h.Write([]byte(s))
	sum := h.Sum(nil)
	var b [16]byte
	copy(b[:], sum[:16])
	return ID{domain: d, bytes: b}
}

// NodeIDFromName is the spec's NodeId::from_name(s).
func NodeIDFromName(s string) ID { return FromName(Node, s) }

// FromBytes reconstructs an ID from a domain and exactly 16 bytes,
// e.g. when decoding from the canonical codec.
func FromBytes(d Domain, b [16]byte) ID { return ID{domain: d, bytes: b} }

// MarshalBinary encodes the ID as domain-byte || 16 raw bytes, the form
// the canonical codec uses.
func (i ID) MarshalBinary() ([]byte, error) {
	out := make([]byte, 17)
	out[0] = byte(i.domain)
	copy(out[1:], i.bytes[:])
	return out, nil
}

// UnmarshalBinary is the inverse of MarshalBinary.
func (i *ID) UnmarshalBinary(data []byte) error {
	if len(data) != 17 {
		return fmt.Errorf("id: invalid length %d", len(data))
	}
	i.domain = Domain(data[0])
	copy(i.bytes[:], data[1:])
	return nil
}
