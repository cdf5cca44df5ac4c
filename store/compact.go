// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package store

import (
	"sync"

	"go.uber.org/zap"

	"github.com/cathedral-fabric/cathedral/internal/xlog"
	"github.com/cathedral-fabric/cathedral/internal/xmetrics"
	"github.com/cathedral-fabric/cathedral/xhash"
)

// CompactionPlan is the result of analyzing a content store against a
// referenced set R: keep = R ∩ known, delete = known \ R, reclaim is
// the total size of everything in delete.
type CompactionPlan struct {
	Keep    []xhash.ContentAddress
	Delete  []xhash.ContentAddress
	Reclaim uint64
}

// Compactor plans and executes garbage collection over a ContentStore.
type Compactor struct {
	content *ContentStore
	log     xlog.Logger
	metrics *xmetrics.Store
}

func NewCompactor(content *ContentStore, log xlog.Logger, metrics *xmetrics.Store) *Compactor {
	return &Compactor{content: content, log: xlog.OrNoOp(log), metrics: metrics}
}

// Analyze computes the CompactionPlan for the given referenced set.
func (c *Compactor) Analyze(referenced map[xhash.ContentAddress]struct{}) (CompactionPlan, error) {
	known := c.content.Addresses()
	plan := CompactionPlan{}
	for _, addr := range known {
		if _, ref := referenced[addr]; ref {
			plan.Keep = append(plan.Keep, addr)
			continue
		}
		plan.Delete = append(plan.Delete, addr)
		b, err := c.content.Read(addr)
		if err == nil {
			plan.Reclaim += uint64(len(b))
		}
	}
	return plan, nil
}

// Execute deletes every blob named in plan.Delete. Non-existent
// deletions are benign (ContentStore.Delete already treats them so);
// per-blob errors are tallied and never abort the batch.
func (c *Compactor) Execute(plan CompactionPlan) (deleted int, errCount int) {
	for _, addr := range plan.Delete {
		if err := c.content.Delete(addr); err != nil {
			errCount++
			if c.metrics != nil {
				c.metrics.CompactErrors.Inc()
			}
			c.log.Warn("compaction: delete failed")
			continue
		}
		deleted++
	}
	if c.metrics != nil {
		c.metrics.CompactReclaim.Add(float64(plan.Reclaim))
	}
	c.log.Debug("compaction executed", zap.Int("deleted", deleted), xlog.HumanBytes(plan.Reclaim))
	return deleted, errCount
}

// ReferenceTracker maintains a multi-count of references per blob
// address; a zero count means "not referenced" and is eligible for
// compaction.
type ReferenceTracker struct {
	mu     sync.Mutex
	counts map[xhash.ContentAddress]int
}

func NewReferenceTracker() *ReferenceTracker {
	return &ReferenceTracker{counts: make(map[xhash.ContentAddress]int)}
}

// Ref increments addr's reference count.
func (r *ReferenceTracker) Ref(addr xhash.ContentAddress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[addr]++
}

// Unref decrements addr's reference count, floored at zero.
func (r *ReferenceTracker) Unref(addr xhash.ContentAddress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts[addr] > 0 {
		r.counts[addr]--
	}
}

// Count returns addr's current reference count.
func (r *ReferenceTracker) Count(addr xhash.ContentAddress) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[addr]
}

// Referenced reports whether addr has a non-zero reference count.
func (r *ReferenceTracker) Referenced(addr xhash.ContentAddress) bool {
	return r.Count(addr) > 0
}

// Snapshot returns the set of currently-referenced addresses, in the
// shape Compactor.Analyze expects.
func (r *ReferenceTracker) Snapshot() map[xhash.ContentAddress]struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[xhash.ContentAddress]struct{})
	for addr, n := range r.counts {
		if n > 0 {
			out[addr] = struct{}{}
		}
	}
	return out
}
