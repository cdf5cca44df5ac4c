// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package sandbox_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cathedral-fabric/cathedral/capability"
	"github.com/cathedral-fabric/cathedral/sandbox"
)

func TestFuelExhaustion(t *testing.T) {
	m := sandbox.NewFuelMeter(100)
	require.NoError(t, m.Consume(60))
	require.NoError(t, m.Consume(40))
	require.Error(t, m.Consume(1))
}

func TestMemoryRegionOverlap(t *testing.T) {
	m := sandbox.NewMemoryRegionMap()
	require.NoError(t, m.AddRegion(sandbox.MemoryRegion{Start: 0, End: 100, Name: "a"}))
	err := m.AddRegion(sandbox.MemoryRegion{Start: 50, End: 150, Name: "b"})
	require.Error(t, err)
}

func TestMemoryReadOnlyWrite(t *testing.T) {
	m := sandbox.NewMemoryRegionMap()
	require.NoError(t, m.AddRegion(sandbox.MemoryRegion{Start: 0, End: 100, Name: "ro", ReadOnly: true}))
	require.Error(t, m.CheckWrite(50))
}

func TestLifecycle(t *testing.T) {
	caps := capability.NewSet(capability.WasmExecCap(1000, 1<<20))
	sb := sandbox.New(caps)
	require.Equal(t, sandbox.Uninitialized, sb.State())
	require.NoError(t, sb.LoadModule([]byte("module"), sandbox.MemoryLimit{MaxBytes: 1 << 20}, 1000))
	require.Equal(t, sandbox.Ready, sb.State())
	_, err := sb.Execute()
	require.NoError(t, err)
	require.Equal(t, sandbox.Finished, sb.State())
}

func TestHostCallCapabilityDenied(t *testing.T) {
	abi := sandbox.NewABI()
	hosts := sandbox.DefaultHostRegistry(abi)
	caps := capability.NewSet() // no FsRead granted
	sb := sandbox.New(caps, sandbox.WithHostRegistry(hosts), sandbox.WithRunner(func(s *sandbox.Sandbox) ([]byte, error) {
		_, err := s.HostCall(sandbox.Call{Name: "fs_read", Args: []sandbox.AbiValue{
			{Type: sandbox.TypeString, String: "/x"}, {Type: sandbox.TypeI32, I32: 10},
		}})
		return nil, err
	}))
	require.NoError(t, sb.LoadModule([]byte("m"), sandbox.MemoryLimit{MaxBytes: 1024}, 1000))
	_, err := sb.Execute()
	require.Error(t, err)
	require.Equal(t, sandbox.Error, sb.State())
}

func TestAbiValidateLengthMismatch(t *testing.T) {
	abi := sandbox.NewABI()
	_, err := abi.Validate(sandbox.Call{Name: "log_write", Args: []sandbox.AbiValue{{Type: sandbox.TypeString, String: "x"}}})
	require.Error(t, err)
}
