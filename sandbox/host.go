// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package sandbox

import (
	"github.com/cathedral-fabric/cathedral/capability"
	"github.com/cathedral-fabric/cathedral/internal/xerrors"
)

// HostFunc is a single host function implementation bound to an ABI
// entry: its required capabilities are checked against the calling
// context before fuel is consumed and the implementation is dispatched.
type HostFunc struct {
	Name                string
	RequiredCapabilities []capability.Capability
	FuelCost            uint64
	Impl                func(ctx *CallContext, args []AbiValue) (AbiValue, error)
}

// CallContext is passed to a HostFunc implementation.
type CallContext struct {
	Capabilities *capability.Set
}

// HostRegistry maps ABI function names to their host implementation.
// The default set (DefaultHostRegistry) returns fixed constants so the
// sandbox stays deterministic without a simulation harness backing it;
// production and the simulation harness both install their own
// implementations that still honor determinism (spec §4.12).
type HostRegistry struct {
	funcs map[string]HostFunc
}

func NewHostRegistry() *HostRegistry {
	return &HostRegistry{funcs: make(map[string]HostFunc)}
}

// Register installs fn, overwriting any existing entry of the same
// name — callers (the simulation harness in particular) use this to
// replace a default stub with a deterministic-but-seeded implementation.
func (r *HostRegistry) Register(fn HostFunc) {
	r.funcs[fn.Name] = fn
}

// Lookup returns the HostFunc registered under name.
func (r *HostRegistry) Lookup(name string) (HostFunc, bool) {
	f, ok := r.funcs[name]
	return f, ok
}

// Dispatch checks capabilities, consumes fuel, then invokes fn.Impl.
func (r *HostRegistry) Dispatch(ctx *CallContext, meter *FuelMeter, name string, args []AbiValue) (AbiValue, error) {
	fn, ok := r.funcs[name]
	if !ok {
		return AbiValue{}, xerrors.NotFoundf("host_func", name)
	}
	for _, req := range fn.RequiredCapabilities {
		if !ctx.Capabilities.Allows(req) {
			return AbiValue{}, xerrors.InvalidCapabilityf(req.Kind.String())
		}
	}
	if err := meter.Consume(fn.FuelCost); err != nil {
		return AbiValue{}, err
	}
	return fn.Impl(ctx, args)
}

// DefaultHostRegistry returns the standard ABI's functions implemented
// as deterministic constants (clock_read always returns 0, fs_read /
// net_http return empty bytes, etc). Production deployments and the
// simulation harness replace entries with real implementations.
func DefaultHostRegistry(abi *ABI) *HostRegistry {
	r := NewHostRegistry()
	reg := func(name string, caps []capability.Capability, impl func(*CallContext, []AbiValue) (AbiValue, error)) {
		f, _ := abi.Lookup(name)
		r.Register(HostFunc{Name: name, RequiredCapabilities: caps, FuelCost: f.FuelCost, Impl: impl})
	}

	reg("clock_read", []capability.Capability{capability.ClockReadCap()}, func(*CallContext, []AbiValue) (AbiValue, error) {
		return AbiValue{Type: TypeI64, I64: 0}, nil
	})
	reg("log_write", nil, func(_ *CallContext, _ []AbiValue) (AbiValue, error) {
		return AbiValue{Type: TypeI32, I32: 0}, nil
	})
	reg("has_capability", nil, func(ctx *CallContext, args []AbiValue) (AbiValue, error) {
		return AbiValue{Type: TypeBool, Bool: false}, nil
	})
	reg("fs_read", []capability.Capability{capability.FsReadCap("*")}, func(*CallContext, []AbiValue) (AbiValue, error) {
		return AbiValue{Type: TypeBytes, Bytes: nil}, nil
	})
	reg("fs_write", []capability.Capability{capability.FsWriteCap("*")}, func(*CallContext, []AbiValue) (AbiValue, error) {
		return AbiValue{Type: TypeI32, I32: 0}, nil
	})
	reg("net_http", []capability.Capability{capability.NetReadCap("*")}, func(*CallContext, []AbiValue) (AbiValue, error) {
		return AbiValue{Type: TypeBytes, Bytes: nil}, nil
	})
	return r
}
