// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package sandbox

import (
	"math"

	"github.com/cathedral-fabric/cathedral/internal/xerrors"
)

// AbiType tags the variant of an AbiValue's slot.
type AbiType uint8

const (
	TypeI32 AbiType = iota
	TypeI64
	TypeU32
	TypeU64
	TypeBool
	TypeString
	TypeBytes
)

// AbiValue carries a value whose shape is declared by an AbiType. Float
// values are never represented natively: callers carry IEEE-754 bit
// patterns through TypeU32/TypeU64 to keep encoding boundaries
// deterministic across platforms (spec §4.8, §9).
type AbiValue struct {
	Type   AbiType
	I32    int32
	I64    int64
	U32    uint32
	U64    uint64
	Bool   bool
	String string
	Bytes  []byte
}

// F32Bits packs a float32 into a U32-typed AbiValue.
func F32Bits(f float32) AbiValue {
	return AbiValue{Type: TypeU32, U32: math.Float32bits(f)}
}

// F64Bits packs a float64 into a U64-typed AbiValue.
func F64Bits(f float64) AbiValue {
	return AbiValue{Type: TypeU64, U64: math.Float64bits(f)}
}

func (v AbiValue) typeMatches(t AbiType) bool { return v.Type == t }

// AbiFunc describes a host-callable function's signature and cost.
type AbiFunc struct {
	Name          string
	Params        []AbiType
	Returns       AbiType
	Deterministic bool
	FuelCost      uint64
}

// ABI is the closed registry of host-callable functions.
type ABI struct {
	funcs map[string]AbiFunc
}

// NewABI returns the standard ABI table of spec §4.8.
func NewABI() *ABI {
	a := &ABI{funcs: make(map[string]AbiFunc)}
	for _, f := range []AbiFunc{
		{Name: "clock_read", Params: nil, Returns: TypeI64, Deterministic: false, FuelCost: 10},
		{Name: "log_write", Params: []AbiType{TypeString, TypeI32}, Returns: TypeI32, Deterministic: true, FuelCost: 50},
		{Name: "has_capability", Params: []AbiType{TypeString}, Returns: TypeBool, Deterministic: true, FuelCost: 20},
		{Name: "fs_read", Params: []AbiType{TypeString, TypeI32}, Returns: TypeBytes, Deterministic: false, FuelCost: 100},
		{Name: "fs_write", Params: []AbiType{TypeString, TypeBytes}, Returns: TypeI32, Deterministic: false, FuelCost: 100},
		{Name: "net_http", Params: []AbiType{TypeString, TypeString}, Returns: TypeBytes, Deterministic: false, FuelCost: 500},
	} {
		a.funcs[f.Name] = f
	}
	return a
}

// Lookup returns the AbiFunc registered under name.
func (a *ABI) Lookup(name string) (AbiFunc, bool) {
	f, ok := a.funcs[name]
	return f, ok
}

// Call is a single invocation request against the ABI.
type Call struct {
	Name string
	Args []AbiValue
}

// Validate checks call against the registered signature: the function
// must exist, argument count must match, and each argument's type must
// match the declared parameter type.
func (a *ABI) Validate(call Call) (AbiFunc, error) {
	f, ok := a.Lookup(call.Name)
	if !ok {
		return AbiFunc{}, xerrors.NotFoundf("abi_func", call.Name)
	}
	if len(call.Args) != len(f.Params) {
		return AbiFunc{}, xerrors.Validationf("args", "length mismatch")
	}
	for i, arg := range call.Args {
		if !arg.typeMatches(f.Params[i]) {
			return AbiFunc{}, xerrors.Validationf("args", "type mismatch")
		}
	}
	return f, nil
}
