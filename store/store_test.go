// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package store_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cathedral-fabric/cathedral/store"
	"github.com/cathedral-fabric/cathedral/xhash"
)

func TestWriteIdempotent(t *testing.T) {
	dir := t.TempDir()
	cs, err := store.New(dir, store.Limits{})
	require.NoError(t, err)

	addr1, err := cs.Write([]byte("hello"), "")
	require.NoError(t, err)
	addr2, err := cs.Write([]byte("hello"), "")
	require.NoError(t, err)
	require.Equal(t, addr1, addr2)
	require.Equal(t, uint64(1), cs.Stats().BlobCount)
}

func TestReadNotFound(t *testing.T) {
	cs, err := store.New(t.TempDir(), store.Limits{})
	require.NoError(t, err)
	_, err = cs.Read(xhash.AddressOf([]byte("missing")))
	require.Error(t, err)
}

func TestMaxBlobSize(t *testing.T) {
	cs, err := store.New(t.TempDir(), store.Limits{MaxBlobSize: 2})
	require.NoError(t, err)
	_, err = cs.Write([]byte("abc"), "")
	require.Error(t, err)
}

// TestCompaction is scenario S6.
func TestCompaction(t *testing.T) {
	cs, err := store.New(t.TempDir(), store.Limits{})
	require.NoError(t, err)

	a1, err := cs.Write([]byte("b1"), "")
	require.NoError(t, err)
	a2, err := cs.Write([]byte("b2-longer"), "")
	require.NoError(t, err)
	a3, err := cs.Write([]byte("b3-longer-still"), "")
	require.NoError(t, err)

	comp := store.NewCompactor(cs, nil, nil)
	plan, err := comp.Analyze(map[xhash.ContentAddress]struct{}{a1: {}})
	require.NoError(t, err)
	require.ElementsMatch(t, []xhash.ContentAddress{a1}, plan.Keep)
	require.ElementsMatch(t, []xhash.ContentAddress{a2, a3}, plan.Delete)
	require.Equal(t, uint64(len("b2-longer")+len("b3-longer-still")), plan.Reclaim)

	deleted, errs := comp.Execute(plan)
	require.Equal(t, 2, deleted)
	require.Equal(t, 0, errs)
	require.True(t, cs.Has(a1))
	require.False(t, cs.Has(a2))
	require.False(t, cs.Has(a3))
	require.Equal(t, uint64(1), cs.Stats().BlobCount)
}

// TestPebbleIndexRebuildsAcrossRestart exercises WithIndex: a store
// reopened against the same directory and index recovers its blob
// metadata without any bytes read from disk up front, and can still
// fetch blob contents lazily by address.
func TestPebbleIndexRebuildsAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	idx, err := store.OpenPebbleIndex(dir + "/index")
	require.NoError(t, err)

	cs, err := store.New(dir, store.Limits{}, store.WithIndex(idx))
	require.NoError(t, err)
	addr, err := cs.Write([]byte("persisted"), "text/plain")
	require.NoError(t, err)

	require.NoError(t, idx.Close())

	idx2, err := store.OpenPebbleIndex(dir + "/index")
	require.NoError(t, err)
	cs2, err := store.New(dir, store.Limits{}, store.WithIndex(idx2))
	require.NoError(t, err)

	require.Equal(t, uint64(1), cs2.Stats().BlobCount)
	require.True(t, cs2.Has(addr))
	data, err := cs2.Read(addr)
	require.NoError(t, err)
	require.Equal(t, []byte("persisted"), data)
	require.NoError(t, idx2.Close())
}
