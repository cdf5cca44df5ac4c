// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package store

import (
	"encoding/binary"

	"github.com/cockroachdb/pebble"

	"github.com/cathedral-fabric/cathedral/internal/xerrors"
	"github.com/cathedral-fabric/cathedral/xhash"
)

// PebbleIndex is a durable address -> (size, content type) index backed
// by github.com/cockroachdb/pebble, an embedded KV store (a teacher
// dependency). A ContentStore opened WithIndex rebuilds its in-memory
// blob metadata from this index on startup instead of walking its
// storage directory, and keeps the index current on every Write/Delete.
// The index stores metadata only; blob bytes themselves always live in
// the per-hash files under the store's directory.
type PebbleIndex struct {
	db *pebble.DB
}

// OpenPebbleIndex opens (creating if absent) a PebbleIndex rooted at
// dir.
func OpenPebbleIndex(dir string) (*PebbleIndex, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, xerrors.Wrap(xerrors.IO, err, "store: open pebble index")
	}
	return &PebbleIndex{db: db}, nil
}

// Close releases the underlying pebble database.
func (p *PebbleIndex) Close() error {
	if err := p.db.Close(); err != nil {
		return xerrors.Wrap(xerrors.IO, err, "store: close pebble index")
	}
	return nil
}

func indexKey(addr xhash.ContentAddress) []byte {
	return []byte(addr.Hash.String())
}

func encodeIndexValue(size uint64, contentType string) []byte {
	buf := make([]byte, 8+len(contentType))
	binary.LittleEndian.PutUint64(buf[:8], size)
	copy(buf[8:], contentType)
	return buf
}

func decodeIndexValue(v []byte) (size uint64, contentType string) {
	if len(v) < 8 {
		return 0, ""
	}
	return binary.LittleEndian.Uint64(v[:8]), string(v[8:])
}

// Put records addr's size and content type.
func (p *PebbleIndex) Put(addr xhash.ContentAddress, size uint64, contentType string) error {
	if err := p.db.Set(indexKey(addr), encodeIndexValue(size, contentType), pebble.Sync); err != nil {
		return xerrors.Wrap(xerrors.IO, err, "store: pebble index put")
	}
	return nil
}

// Delete removes addr's index entry, a benign no-op if absent.
func (p *PebbleIndex) Delete(addr xhash.ContentAddress) error {
	if err := p.db.Delete(indexKey(addr), pebble.Sync); err != nil {
		return xerrors.Wrap(xerrors.IO, err, "store: pebble index delete")
	}
	return nil
}

// indexEntry is one restored (address, size, content type) row.
type indexEntry struct {
	Address     xhash.ContentAddress
	Size        uint64
	ContentType string
}

// All iterates every indexed entry, for rebuilding a ContentStore's
// in-memory metadata without a directory walk.
func (p *PebbleIndex) All() ([]indexEntry, error) {
	iter, err := p.db.NewIter(nil)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.IO, err, "store: pebble index iterate")
	}
	defer iter.Close()

	var out []indexEntry
	for iter.First(); iter.Valid(); iter.Next() {
		hash, err := xhash.FromHex(string(iter.Key()))
		if err != nil {
			continue
		}
		size, contentType := decodeIndexValue(iter.Value())
		out = append(out, indexEntry{
			Address:     xhash.ContentAddress{Hash: hash, Algorithm: xhash.Algorithm},
			Size:        size,
			ContentType: contentType,
		})
	}
	return out, nil
}
