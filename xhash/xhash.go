// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package xhash implements the execution core's hashing primitives:
// BLAKE3 content hashes, the hash-chain linkage events rely on, and
// content addresses for the blob store. Grounded on the teacher's use
// of github.com/zeebo/blake3 throughout its witness/verkle packages.
package xhash

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/cathedral-fabric/cathedral/internal/xerrors"
)

// Size is the length in bytes of a Hash.
const Size = 32

// Hash is a 32-byte BLAKE3 digest.
type Hash [Size]byte

// Zero is the sentinel empty-data hash: 32 zero bytes, NOT hash(""). It
// is the genesis cursor for a fresh hash chain.
var Zero Hash

// Compute returns the BLAKE3-256 digest of data.
func Compute(data []byte) Hash {
	var h Hash
	sum := blake3.Sum256(data)
	copy(h[:], sum[:])
	return h
}

// Chain computes chain(a, b) = hash(a || b), the 64-byte concatenation
// of the two 32-byte hashes.
func Chain(a, b Hash) Hash {
	buf := make([]byte, 2*Size)
	copy(buf, a[:])
	copy(buf[Size:], b[:])
	return Compute(buf)
}

func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// IsZero reports whether h is the sentinel empty hash.
func (h Hash) IsZero() bool { return h == Zero }

// FromHex parses a 64-character lowercase hex string into a Hash.
func FromHex(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != Size {
		return h, xerrors.New(xerrors.Serialization, "invalid hash hex", xerrors.F("value", s))
	}
	copy(h[:], b)
	return h, nil
}

// Algorithm names the hashing scheme backing a ContentAddress. Only
// "blake3" exists today; ContentAddress carries the name as a field
// (not implied) so a future algorithm can be added without breaking the
// wire format.
const Algorithm = "blake3"

// ContentAddress identifies a blob by the hash of its bytes plus the
// algorithm that produced it. String form: "blake3:<hex>".
type ContentAddress struct {
	Hash      Hash
	Algorithm string
}

// AddressOf computes the content address of data under the default
// algorithm.
func AddressOf(data []byte) ContentAddress {
	return ContentAddress{Hash: Compute(data), Algorithm: Algorithm}
}

// Equal reports whether two addresses name the same algorithm and hash.
func (a ContentAddress) Equal(o ContentAddress) bool {
	return a.Algorithm == o.Algorithm && a.Hash == o.Hash
}

func (a ContentAddress) String() string {
	return fmt.Sprintf("%s:%s", a.Algorithm, a.Hash)
}

// ParseAddress parses the "algo:hex" string form.
func ParseAddress(s string) (ContentAddress, error) {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			h, err := FromHex(s[i+1:])
			if err != nil {
				return ContentAddress{}, err
			}
			return ContentAddress{Hash: h, Algorithm: s[:i]}, nil
		}
	}
	return ContentAddress{}, xerrors.New(xerrors.Serialization, "invalid content address", xerrors.F("value", s))
}

// HashChain is an ordered sequence of hashes linked by Chain(a,b), with an
// expected-prior cursor enforcing append-only, one-writer extension
// (spec §4.3, §4.6).
type HashChain struct {
	hashes        []Hash
	expectedPrior *Hash
}

// NewChain starts a fresh chain. If genesis is non-nil, the first Push
// must extend from *genesis rather than from Zero.
func NewChain(genesis *Hash) *HashChain {
	c := &HashChain{}
	if genesis != nil {
		g := *genesis
		c.expectedPrior = &g
	}
	return c
}

// Cursor returns the current expected-prior hash, or Zero if the chain
// is fresh and ungenesised.
func (c *HashChain) Cursor() Hash {
	if c.expectedPrior == nil {
		return Zero
	}
	return *c.expectedPrior
}

// Push appends h. If a cursor is set, h must equal it (BrokenChain
// otherwise); after success the cursor advances to h.
func (c *HashChain) Push(h Hash) error {
	if c.expectedPrior != nil && h != *c.expectedPrior {
		return xerrors.BrokenChainf(len(c.hashes), c.expectedPrior.String(), h.String())
	}
	c.hashes = append(c.hashes, h)
	next := h
	c.expectedPrior = &next
	return nil
}

// Len returns the number of hashes pushed so far.
func (c *HashChain) Len() int { return len(c.hashes) }

// At returns the hash at position i.
func (c *HashChain) At(i int) Hash { return c.hashes[i] }

// Root is the left-fold of Chain starting from the first element: for
// [h0, h1, h2, ...] it is Chain(Chain(h0, h1), h2), ....
func (c *HashChain) Root() Hash {
	if len(c.hashes) == 0 {
		return Zero
	}
	acc := c.hashes[0]
	for _, h := range c.hashes[1:] {
		acc = Chain(acc, h)
	}
	return acc
}

// Validate reports whether the stored sequence respects prior-hash
// linkage: since Push already enforces this at append time and Push is
// the only way to add a hash, Validate always returns true and performs
// no re-check (see ValidateSequence in the eventlog package for the
// check over a stored event sequence).
func (c *HashChain) Validate() bool { return true }
