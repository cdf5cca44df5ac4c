// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package store

import (
	"sort"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/cathedral-fabric/cathedral/canon"
	"github.com/cathedral-fabric/cathedral/id"
	"github.com/cathedral-fabric/cathedral/internal/xerrors"
	"github.com/cathedral-fabric/cathedral/xhash"
)

// SnapshotEntry is a single key's location and size within a snapshot.
type SnapshotEntry struct {
	BlobID xhash.ContentAddress `cbor:"blob_id"`
	Size   uint64               `cbor:"size"`
}

// SnapshotMetadata describes a snapshot without its entry payload.
type SnapshotMetadata struct {
	ID          id.ID      `cbor:"id"`
	Version     uint16     `cbor:"version"`
	Timestamp   time.Time  `cbor:"timestamp"`
	ParentID    *id.ID     `cbor:"parent_id,omitempty"`
	EventID     *id.ID     `cbor:"event_id,omitempty"`
	EntryCount  uint64     `cbor:"entry_count"`
	TotalBytes  uint64     `cbor:"total_bytes"`
}

// Snapshot is a point-in-time, content-addressed view of a key space.
type Snapshot struct {
	Metadata SnapshotMetadata         `cbor:"metadata"`
	Entries  map[string]SnapshotEntry `cbor:"entries"`
}

// sortedKeys returns the snapshot's entry keys in sorted order, the
// form canonical encoding must use (spec §5: "keyed by their (sorted)
// key" when canonically encoded).
func (s *Snapshot) sortedKeys() []string {
	keys := make([]string, 0, len(s.Entries))
	for k := range s.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// canonicalEntry is the wire shape for one (key, entry) pair, used so
// Encode emits entries as a sorted list rather than relying on map
// iteration order (Go maps have none).
type canonicalEntry struct {
	Key   string        `cbor:"key"`
	Entry SnapshotEntry `cbor:"entry"`
}

type canonicalSnapshot struct {
	Metadata SnapshotMetadata `cbor:"metadata"`
	Entries  []canonicalEntry `cbor:"entries"`
}

// Encode renders s through the canonical codec with entries ordered by
// sorted key.
func (s *Snapshot) Encode() ([]byte, error) {
	cs := canonicalSnapshot{Metadata: s.Metadata}
	for _, k := range s.sortedKeys() {
		cs.Entries = append(cs.Entries, canonicalEntry{Key: k, Entry: s.Entries[k]})
	}
	return canon.Encode(cs)
}

// DecodeSnapshot inverts Encode.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var cs canonicalSnapshot
	if err := canon.Decode(data, &cs); err != nil {
		return nil, err
	}
	s := &Snapshot{Metadata: cs.Metadata, Entries: make(map[string]SnapshotEntry, len(cs.Entries))}
	for _, e := range cs.Entries {
		s.Entries[e.Key] = e.Entry
	}
	return s, nil
}

// SnapshotStore manages snapshot creation/restore against a companion
// ContentStore. Persist canonically encodes a snapshot, compresses the
// encoded bytes with zstd (github.com/klauspost/compress, a teacher
// dependency), and writes the result as a single content-store blob.
type SnapshotStore struct {
	content *ContentStore
	enc     *zstd.Encoder
	dec     *zstd.Decoder
}

// NewSnapshotStore builds a SnapshotStore backed by content.
func NewSnapshotStore(content *ContentStore) (*SnapshotStore, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.IO, err, "snapshot: zstd encoder")
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.IO, err, "snapshot: zstd decoder")
	}
	return &SnapshotStore{content: content, enc: enc, dec: dec}, nil
}

// Create builds a Snapshot from a key->bytes map, writing each value as
// a blob into the companion content store first, then verifying every
// referenced blob exists (MissingBlob otherwise).
func (s *SnapshotStore) Create(meta SnapshotMetadata, data map[string][]byte) (*Snapshot, error) {
	snap := &Snapshot{Metadata: meta, Entries: make(map[string]SnapshotEntry, len(data))}
	var total uint64
	for k, v := range data {
		addr, err := s.content.Write(v, "application/octet-stream")
		if err != nil {
			return nil, err
		}
		snap.Entries[k] = SnapshotEntry{BlobID: addr, Size: uint64(len(v))}
		total += uint64(len(v))
	}
	snap.Metadata.EntryCount = uint64(len(data))
	snap.Metadata.TotalBytes = total

	for k, e := range snap.Entries {
		if !s.content.Has(e.BlobID) {
			return nil, xerrors.NotFoundf("blob", k+"->"+e.BlobID.String())
		}
	}
	return snap, nil
}

// Restore loads every blob a snapshot references back into a
// key->bytes map.
func (s *SnapshotStore) Restore(snap *Snapshot) (map[string][]byte, error) {
	out := make(map[string][]byte, len(snap.Entries))
	for k, e := range snap.Entries {
		b, err := s.content.Read(e.BlobID)
		if err != nil {
			return nil, xerrors.Wrap(xerrors.NotFound, err, "snapshot: missing referenced blob", xerrors.F("key", k))
		}
		out[k] = b
	}
	return out, nil
}

// Persist compresses and canonically encodes snap, writing it as a
// single blob in the content store; returns that blob's address.
func (s *SnapshotStore) Persist(snap *Snapshot) (xhash.ContentAddress, error) {
	enc, err := snap.Encode()
	if err != nil {
		return xhash.ContentAddress{}, err
	}
	compressed := s.enc.EncodeAll(enc, nil)
	return s.content.Write(compressed, "application/zstd+cbor")
}

// Load reads a persisted snapshot blob back by address.
func (s *SnapshotStore) Load(addr xhash.ContentAddress) (*Snapshot, error) {
	compressed, err := s.content.Read(addr)
	if err != nil {
		return nil, err
	}
	raw, err := s.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.Serialization, err, "snapshot: zstd decode")
	}
	return DecodeSnapshot(raw)
}
