// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package canon implements the execution core's canonical codec (spec
// §4.1): byte-stable encode/decode for any value, plus length-prefixed
// stream framing for sequences of records. Backed by
// github.com/fxamacker/cbor/v2's canonical encoding mode, which already
// sorts map keys and emits shortest-form integers — exactly the
// byte-stability the spec requires.
package canon

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/cathedral-fabric/cathedral/internal/xerrors"
)

var encMode cbor.EncMode
var decMode cbor.DecMode

func init() {
	opts := cbor.CanonicalEncOptions()
	m, err := opts.EncMode()
	if err != nil {
		panic(err)
	}
	encMode = m
	dm, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(err)
	}
	decMode = dm
}

// Encode produces the canonical byte representation of v. Calling
// Encode twice on logically identical values yields identical bytes
// (the determinism law of §4.1).
func Encode(v interface{}) ([]byte, error) {
	b, err := encMode.Marshal(v)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.Serialization, err, "canon: encode failed")
	}
	return b, nil
}

// Decode inverts Encode into v (a pointer).
func Decode(data []byte, v interface{}) error {
	if err := decMode.Unmarshal(data, v); err != nil {
		return xerrors.Wrap(xerrors.Serialization, err, "canon: decode failed")
	}
	return nil
}

// lengthPrefixSize is the width of the big-endian record-length prefix
// in the streaming frame format.
const lengthPrefixSize = 4

// StreamWriter writes a sequence of canonically-encoded records, each
// preceded by a 4-byte big-endian length.
type StreamWriter struct {
	w io.Writer
}

func NewStreamWriter(w io.Writer) *StreamWriter { return &StreamWriter{w: w} }

// WriteRecord encodes v canonically and writes it length-prefixed.
func (s *StreamWriter) WriteRecord(v interface{}) error {
	b, err := Encode(v)
	if err != nil {
		return err
	}
	var lenBuf [lengthPrefixSize]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
	if _, err := s.w.Write(lenBuf[:]); err != nil {
		return xerrors.Wrap(xerrors.IO, err, "canon: write length prefix")
	}
	if _, err := s.w.Write(b); err != nil {
		return xerrors.Wrap(xerrors.IO, err, "canon: write record body")
	}
	return nil
}

// StreamReader reads back records written by StreamWriter.
type StreamReader struct {
	r *bufio.Reader
}

func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{r: bufio.NewReader(r)}
}

// ErrNoMore is returned by ReadRecord when the stream ends cleanly
// between records (EOF before any length-prefix bytes).
var ErrNoMore = io.EOF

// ReadRecord reads the next length-prefixed record into v (a pointer).
// Returns ErrNoMore at a clean stream boundary; any EOF encountered
// mid-record is reported as an InvalidEncoding Serialization error.
func (s *StreamReader) ReadRecord(v interface{}) error {
	var lenBuf [lengthPrefixSize]byte
	n, err := io.ReadFull(s.r, lenBuf[:])
	if err != nil {
		if n == 0 && err == io.EOF {
			return ErrNoMore
		}
		return xerrors.Wrap(xerrors.Serialization, err, "canon: truncated length prefix")
	}
	length := binary.BigEndian.Uint32(lenBuf[:])
	body := make([]byte, length)
	if _, err := io.ReadFull(s.r, body); err != nil {
		return xerrors.Wrap(xerrors.Serialization, err, "canon: truncated record body")
	}
	return Decode(body, v)
}
