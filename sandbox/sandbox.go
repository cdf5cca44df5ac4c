// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package sandbox

import (
	"github.com/cathedral-fabric/cathedral/capability"
	"github.com/cathedral-fabric/cathedral/internal/xerrors"
	"github.com/cathedral-fabric/cathedral/internal/xmetrics"
	"github.com/cathedral-fabric/cathedral/xhash"
)

// State is the sandbox's lifecycle state: Uninitialized -> Ready (after
// LoadModule) -> Running -> Finished | Error.
type State uint8

const (
	Uninitialized State = iota
	Ready
	Running
	Finished
	Error
)

// CompiledModule is the result of compiling WASM bytes. The actual
// compiler is out of scope (spec §1); this is the contract a compiler
// must produce.
type CompiledModule struct {
	Bytes  []byte
	Hash   xhash.Hash
	Config MemoryLimit
	Size   int
}

// ModuleCompiler is the pluggable compile step the sandbox invokes
// from LoadModule. A production implementation wraps a real WASM
// compiler; tests supply a no-op compiler that treats the input bytes
// as already-compiled.
type ModuleCompiler func(bytes []byte, limit MemoryLimit) (*CompiledModule, error)

// ModuleRunner executes a compiled module's entry point. A production
// implementation wraps a real WASM runtime host loop; the sandbox
// contract only requires that Run consult the sandbox's FuelMeter,
// HostRegistry, and MemoryRegionMap via the supplied *Sandbox.
type ModuleRunner func(sb *Sandbox) ([]byte, error)

// IdentityCompiler treats bytes as an already-compiled module, for
// tests and for tool/map/reduce nodes that never touch real WASM.
func IdentityCompiler(bytes []byte, limit MemoryLimit) (*CompiledModule, error) {
	return &CompiledModule{Bytes: bytes, Hash: xhash.Compute(bytes), Config: limit, Size: len(bytes)}, nil
}

// Sandbox is one execution envelope: fuel meter, memory regions, ABI,
// host registry, and the compiled module it will run.
type Sandbox struct {
	state    State
	module   *CompiledModule
	fuel     *FuelMeter
	memory   *MemoryRegionMap
	abi      *ABI
	hosts    *HostRegistry
	caps     *capability.Set
	compiler ModuleCompiler
	runner   ModuleRunner
	metrics  *xmetrics.Sandbox
}

// Option configures a Sandbox at construction.
type Option func(*Sandbox)

func WithCompiler(c ModuleCompiler) Option { return func(s *Sandbox) { s.compiler = c } }
func WithRunner(r ModuleRunner) Option     { return func(s *Sandbox) { s.runner = r } }
func WithHostRegistry(h *HostRegistry) Option { return func(s *Sandbox) { s.hosts = h } }
func WithMetrics(m *xmetrics.Sandbox) Option  { return func(s *Sandbox) { s.metrics = m } }

// New returns an Uninitialized sandbox scoped to caps.
func New(caps *capability.Set, opts ...Option) *Sandbox {
	abi := NewABI()
	s := &Sandbox{
		state:    Uninitialized,
		abi:      abi,
		hosts:    DefaultHostRegistry(abi),
		caps:     caps,
		compiler: IdentityCompiler,
		memory:   NewMemoryRegionMap(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// State returns the sandbox's current lifecycle state.
func (s *Sandbox) State() State { return s.state }

// LoadModule compiles bytes under limit, priming a fresh fuel meter and
// memory region map, and transitions Uninitialized -> Ready.
func (s *Sandbox) LoadModule(bytes []byte, limit MemoryLimit, fuelLimit uint64) error {
	if s.state != Uninitialized {
		return xerrors.Validationf("state", "load_module requires Uninitialized")
	}
	mod, err := s.compiler(bytes, limit)
	if err != nil {
		return err
	}
	s.module = mod
	s.fuel = NewFuelMeter(fuelLimit)
	s.memory = NewMemoryRegionMap()
	s.state = Ready
	return nil
}

// Execute must be called from Ready; it transitions to Running, runs
// the module within the fuel/memory envelope via the configured
// ModuleRunner, then transitions to Finished or Error.
func (s *Sandbox) Execute() ([]byte, error) {
	if s.state != Ready {
		return nil, xerrors.Validationf("state", "execute requires Ready")
	}
	s.state = Running
	if s.runner == nil {
		s.state = Finished
		return nil, nil
	}
	out, err := s.runner(s)
	if err != nil {
		s.state = Error
		return nil, err
	}
	s.state = Finished
	if s.metrics != nil {
		s.metrics.FuelConsumed.Add(float64(s.fuel.Consumed()))
	}
	return out, nil
}

// HostCall validates call against the ABI, consumes the declared fuel,
// then dispatches to the host registry. Callable only while Running.
func (s *Sandbox) HostCall(call Call) (AbiValue, error) {
	if s.state != Running {
		return AbiValue{}, xerrors.Validationf("state", "host_call requires Running")
	}
	if _, err := s.abi.Validate(call); err != nil {
		return AbiValue{}, err
	}
	ctx := &CallContext{Capabilities: s.caps}
	out, err := s.hosts.Dispatch(ctx, s.fuel, call.Name, call.Args)
	if s.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		s.metrics.HostCalls.WithLabelValues(call.Name, outcome).Inc()
	}
	return out, err
}

// Fuel exposes the sandbox's fuel meter (for ModuleRunner implementations).
func (s *Sandbox) Fuel() *FuelMeter { return s.fuel }

// Memory exposes the sandbox's memory region map.
func (s *Sandbox) Memory() *MemoryRegionMap { return s.memory }

// Module returns the compiled module loaded into this sandbox.
func (s *Sandbox) Module() *CompiledModule { return s.module }
