// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package remoteexec is the transport-agnostic contract for executing a
// DAG node on a remote worker (spec §4.11): a Request/Response pair
// wire-framed with protobuf varint/length-delimited encoding via
// google.golang.org/protobuf/encoding/protowire (no .proto toolchain
// step required, since this package hand-encodes the wire format
// directly rather than through generated message types).
package remoteexec

import (
	"github.com/cathedral-fabric/cathedral/id"
	"github.com/cathedral-fabric/cathedral/internal/xerrors"
	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers for the Request wire format.
const (
	fieldRequestRunID uint32 = iota + 1
	fieldRequestNodeID
	fieldRequestLogicalTime
	fieldRequestInputs // repeated, length-delimited map-entry style pairs
)

// Field numbers for the Response wire format.
const (
	fieldResponseOK uint32 = iota + 1
	fieldResponseOutput
	fieldResponseError
)

// Request is what a caller sends to execute one node remotely.
type Request struct {
	RunID       id.ID
	NodeID      id.ID
	LogicalTime uint64
	Inputs      map[string][]byte
}

// Response is what a remote worker returns.
type Response struct {
	OK     bool
	Output []byte
	Error  string
}

// EncodeRequest wire-encodes r using length-delimited protobuf framing.
func EncodeRequest(r Request) []byte {
	var b []byte
	runIDBytes, _ := r.RunID.MarshalBinary()
	nodeIDBytes, _ := r.NodeID.MarshalBinary()
	b = protowire.AppendTag(b, fieldRequestRunID, protowire.BytesType)
	b = protowire.AppendBytes(b, runIDBytes)
	b = protowire.AppendTag(b, fieldRequestNodeID, protowire.BytesType)
	b = protowire.AppendBytes(b, nodeIDBytes)
	b = protowire.AppendTag(b, fieldRequestLogicalTime, protowire.VarintType)
	b = protowire.AppendVarint(b, r.LogicalTime)
	for k, v := range r.Inputs {
		entry := encodeInputEntry(k, v)
		b = protowire.AppendTag(b, fieldRequestInputs, protowire.BytesType)
		b = protowire.AppendBytes(b, entry)
	}
	return b
}

func encodeInputEntry(k string, v []byte) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte(k))
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendBytes(b, v)
	return b
}

func decodeInputEntry(b []byte) (string, []byte, error) {
	var key string
	var val []byte
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return "", nil, xerrors.New(xerrors.Serialization, "remoteexec: bad input entry tag")
		}
		b = b[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return "", nil, xerrors.New(xerrors.Serialization, "remoteexec: bad input key")
			}
			key = string(v)
			b = b[m:]
		case num == 2 && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return "", nil, xerrors.New(xerrors.Serialization, "remoteexec: bad input value")
			}
			val = append([]byte{}, v...)
			b = b[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return "", nil, xerrors.New(xerrors.Serialization, "remoteexec: bad input field")
			}
			b = b[m:]
		}
	}
	return key, val, nil
}

// DecodeRequest inverts EncodeRequest.
func DecodeRequest(b []byte) (Request, error) {
	var r Request
	r.Inputs = make(map[string][]byte)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Request{}, xerrors.New(xerrors.Serialization, "remoteexec: bad request tag")
		}
		b = b[n:]
		switch num {
		case fieldRequestRunID:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return Request{}, xerrors.New(xerrors.Serialization, "remoteexec: bad run_id")
			}
			if err := r.RunID.UnmarshalBinary(v); err != nil {
				return Request{}, err
			}
			b = b[m:]
		case fieldRequestNodeID:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return Request{}, xerrors.New(xerrors.Serialization, "remoteexec: bad node_id")
			}
			if err := r.NodeID.UnmarshalBinary(v); err != nil {
				return Request{}, err
			}
			b = b[m:]
		case fieldRequestLogicalTime:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return Request{}, xerrors.New(xerrors.Serialization, "remoteexec: bad logical_time")
			}
			r.LogicalTime = v
			b = b[m:]
		case fieldRequestInputs:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return Request{}, xerrors.New(xerrors.Serialization, "remoteexec: bad input entry")
			}
			k, val, err := decodeInputEntry(v)
			if err != nil {
				return Request{}, err
			}
			r.Inputs[k] = val
			b = b[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return Request{}, xerrors.New(xerrors.Serialization, "remoteexec: bad field")
			}
			b = b[m:]
		}
	}
	return r, nil
}

// EncodeResponse wire-encodes r.
func EncodeResponse(r Response) []byte {
	var b []byte
	ok := uint64(0)
	if r.OK {
		ok = 1
	}
	b = protowire.AppendTag(b, fieldResponseOK, protowire.VarintType)
	b = protowire.AppendVarint(b, ok)
	b = protowire.AppendTag(b, fieldResponseOutput, protowire.BytesType)
	b = protowire.AppendBytes(b, r.Output)
	b = protowire.AppendTag(b, fieldResponseError, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte(r.Error))
	return b
}

// DecodeResponse inverts EncodeResponse.
func DecodeResponse(b []byte) (Response, error) {
	var r Response
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Response{}, xerrors.New(xerrors.Serialization, "remoteexec: bad response tag")
		}
		b = b[n:]
		switch num {
		case fieldResponseOK:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return Response{}, xerrors.New(xerrors.Serialization, "remoteexec: bad ok flag")
			}
			r.OK = v != 0
			b = b[m:]
		case fieldResponseOutput:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return Response{}, xerrors.New(xerrors.Serialization, "remoteexec: bad output")
			}
			r.Output = append([]byte{}, v...)
			b = b[m:]
		case fieldResponseError:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return Response{}, xerrors.New(xerrors.Serialization, "remoteexec: bad error")
			}
			r.Error = string(v)
			b = b[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return Response{}, xerrors.New(xerrors.Serialization, "remoteexec: bad field")
			}
			b = b[m:]
		}
	}
	return r, nil
}
