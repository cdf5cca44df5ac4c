// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package store implements the content-addressed blob store of spec
// §4.5: writes are keyed by content address, idempotent on identical
// bytes, capped by per-blob and total storage limits; reads and
// deletes are address-keyed; Stats reports the running totals. Blobs
// are persisted one file per hash under a storage directory
// ("<hash>.blob", per spec §6). A ContentStore opened WithIndex keeps
// a PebbleIndex (github.com/cockroachdb/pebble, a teacher dependency)
// current on every Write/Delete and rebuilds Stats plus each blob's
// metadata from it at startup, so a restart doesn't require a full
// directory walk.
package store

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/cathedral-fabric/cathedral/internal/xerrors"
	"github.com/cathedral-fabric/cathedral/internal/xlog"
	"github.com/cathedral-fabric/cathedral/internal/xmetrics"
	"github.com/cathedral-fabric/cathedral/xhash"
)

// Stats reports the content store's running totals.
type Stats struct {
	BlobCount  uint64
	TotalBytes uint64
	ReadCount  uint64
	WriteCount uint64
}

// Limits bounds how much a ContentStore will accept.
type Limits struct {
	MaxBlobSize uint64 // 0 = unbounded
	MaxStorage  uint64 // 0 = unbounded
}

// Blob is an immutable byte array plus its declared content type. Data
// is nil for a blob whose metadata was rebuilt from a PebbleIndex but
// whose bytes haven't been read back from disk yet (see Read).
type Blob struct {
	Address     xhash.ContentAddress
	Data        []byte
	ContentType string
	Size        uint64
}

// ContentStore is a directory-backed, content-addressed blob store.
type ContentStore struct {
	mu      sync.RWMutex
	dir     string
	limits  Limits
	blobs   map[xhash.ContentAddress]*Blob
	stats   Stats
	log     xlog.Logger
	metrics *xmetrics.Store
	index   *PebbleIndex
}

// Option configures a ContentStore at construction.
type Option func(*ContentStore)

func WithLogger(l xlog.Logger) Option { return func(c *ContentStore) { c.log = xlog.OrNoOp(l) } }
func WithMetrics(m *xmetrics.Store) Option {
	return func(c *ContentStore) { c.metrics = m }
}

// WithIndex has the store keep a PebbleIndex current on every
// Write/Delete and rebuild its in-memory metadata (Stats and each
// blob's address/size/content type, though not its bytes, which are
// read back from disk lazily) from the index at construction instead
// of walking dir.
func WithIndex(idx *PebbleIndex) Option {
	return func(c *ContentStore) { c.index = idx }
}

// New opens (creating if absent) a ContentStore rooted at dir.
func New(dir string, limits Limits, opts ...Option) (*ContentStore, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, xerrors.Wrap(xerrors.IO, err, "store: mkdir")
		}
	}
	c := &ContentStore{
		dir:    dir,
		limits: limits,
		blobs:  make(map[xhash.ContentAddress]*Blob),
		log:    xlog.NoOp(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.index != nil {
		entries, err := c.index.All()
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			c.blobs[e.Address] = &Blob{Address: e.Address, ContentType: e.ContentType, Size: e.Size}
			c.stats.BlobCount++
			c.stats.TotalBytes += e.Size
		}
	}
	return c, nil
}

func (c *ContentStore) blobPath(addr xhash.ContentAddress) string {
	return filepath.Join(c.dir, addr.Hash.String()+".blob")
}

// Write stores data, returning its content address. A repeated write of
// identical bytes is idempotent: it does not double-count statistics
// and the second call's address equals the first's.
func (c *ContentStore) Write(data []byte, contentType string) (xhash.ContentAddress, error) {
	addr := xhash.AddressOf(data)

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.blobs[addr]; ok {
		_ = existing
		c.stats.WriteCount++
		return addr, nil
	}

	if c.limits.MaxBlobSize > 0 && uint64(len(data)) > c.limits.MaxBlobSize {
		return xhash.ContentAddress{}, xerrors.CapacityExceededf("blob_size", c.limits.MaxBlobSize, uint64(len(data)))
	}
	if c.limits.MaxStorage > 0 && c.stats.TotalBytes+uint64(len(data)) > c.limits.MaxStorage {
		return xhash.ContentAddress{}, xerrors.CapacityExceededf("storage", c.limits.MaxStorage, c.stats.TotalBytes+uint64(len(data)))
	}

	if c.dir != "" {
		if err := os.WriteFile(c.blobPath(addr), data, 0o644); err != nil {
			return xhash.ContentAddress{}, xerrors.Wrap(xerrors.IO, err, "store: write blob")
		}
	}

	cp := make([]byte, len(data))
	copy(cp, data)
	c.blobs[addr] = &Blob{Address: addr, Data: cp, ContentType: contentType, Size: uint64(len(data))}
	c.stats.BlobCount++
	c.stats.TotalBytes += uint64(len(data))
	c.stats.WriteCount++

	if c.index != nil {
		if err := c.index.Put(addr, uint64(len(data)), contentType); err != nil {
			c.log.Warn("pebble index put failed")
		}
	}

	if c.metrics != nil {
		c.metrics.BlobBytes.Set(float64(c.stats.TotalBytes))
		c.metrics.BlobCount.Set(float64(c.stats.BlobCount))
	}
	c.log.Debug("blob written", zap.Uint64("bytes", uint64(len(data))), xlog.HumanBytes(uint64(len(data))))
	return addr, nil
}

// Read returns the bytes for addr, NotFound if absent. A blob whose
// metadata was rebuilt from a PebbleIndex (Data nil) is read back from
// its on-disk file and cached in memory on first access.
func (c *ContentStore) Read(addr xhash.ContentAddress) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.blobs[addr]
	if !ok {
		return nil, xerrors.NotFoundf("blob", addr.String())
	}
	if b.Data == nil {
		if c.dir == "" {
			return nil, xerrors.NotFoundf("blob", addr.String())
		}
		data, err := os.ReadFile(c.blobPath(addr))
		if err != nil {
			return nil, xerrors.Wrap(xerrors.IO, err, "store: read blob")
		}
		b.Data = data
	}
	c.stats.ReadCount++
	out := make([]byte, len(b.Data))
	copy(out, b.Data)
	return out, nil
}

// Has reports whether addr is present without counting a read.
func (c *ContentStore) Has(addr xhash.ContentAddress) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.blobs[addr]
	return ok
}

// Delete removes addr, reclaiming its counted bytes. A delete of a
// missing address is a benign no-op (the compactor relies on this).
func (c *ContentStore) Delete(addr xhash.ContentAddress) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.blobs[addr]
	if !ok {
		return nil
	}
	delete(c.blobs, addr)
	c.stats.BlobCount--
	c.stats.TotalBytes -= b.Size
	if c.dir != "" {
		_ = os.Remove(c.blobPath(addr))
	}
	if c.index != nil {
		if err := c.index.Delete(addr); err != nil {
			c.log.Warn("pebble index delete failed")
		}
	}
	if c.metrics != nil {
		c.metrics.BlobBytes.Set(float64(c.stats.TotalBytes))
		c.metrics.BlobCount.Set(float64(c.stats.BlobCount))
	}
	return nil
}

// Stats returns a snapshot of the store's running totals.
func (c *ContentStore) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// Addresses returns every address currently stored, for use by a
// compactor computing `known`.
func (c *ContentStore) Addresses() []xhash.ContentAddress {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]xhash.ContentAddress, 0, len(c.blobs))
	for a := range c.blobs {
		out = append(out, a)
	}
	return out
}
