// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package xerrors defines the error taxonomy shared by every component of
// the execution core. Errors carry a Kind so callers can branch on the
// category without string matching, and wrap github.com/cockroachdb/errors
// so stack traces and safe-detail redaction survive across package
// boundaries.
package xerrors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Kind classifies an error into the taxonomy the core propagates.
type Kind int

const (
	// Unknown is the zero value; never returned by constructors below.
	Unknown Kind = iota
	NotFound
	AlreadyExists
	Validation
	BrokenChain
	PermissionDenied
	InvalidCapability
	CapacityExceeded
	Timeout
	IO
	Serialization
	RemoteFailure
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case AlreadyExists:
		return "already_exists"
	case Validation:
		return "validation"
	case BrokenChain:
		return "broken_chain"
	case PermissionDenied:
		return "permission_denied"
	case InvalidCapability:
		return "invalid_capability"
	case CapacityExceeded:
		return "capacity_exceeded"
	case Timeout:
		return "timeout"
	case IO:
		return "io"
	case Serialization:
		return "serialization"
	case RemoteFailure:
		return "remote_failure"
	default:
		return "unknown"
	}
}

// Error is the concrete error type every constructor in this package
// returns. Fields is an ordered list of (name, value) pairs so messages
// stay stable across platforms when logged or hashed for diagnostics.
type Error struct {
	Kind    Kind
	Msg     string
	Fields  []Field
	wrapped error
}

// Field is a single structured attribute attached to an Error.
type Field struct {
	Name  string
	Value interface{}
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s %s", e.Kind, e.Msg, formatFields(e.Fields))
}

func (e *Error) Unwrap() error { return e.wrapped }

func formatFields(fs []Field) string {
	out := "{"
	for i, f := range fs {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s=%v", f.Name, f.Value)
	}
	return out + "}"
}

// New builds an Error of the given kind, recording fields as cockroachdb
// safe-details so they're preserved through Wrap/redaction.
func New(kind Kind, msg string, fields ...Field) error {
	e := &Error{Kind: kind, Msg: msg, Fields: fields}
	args := make([]interface{}, 0, len(fields))
	for _, f := range fields {
		args = append(args, errors.Safe(fmt.Sprintf("%s=%v", f.Name, f.Value)))
	}
	e.wrapped = errors.NewWithDepthf(1, msg, args...)
	return e
}

// Wrap attaches kind/context to an existing error without discarding its
// stack trace.
func Wrap(kind Kind, err error, msg string, fields ...Field) error {
	if err == nil {
		return nil
	}
	e := &Error{Kind: kind, Msg: msg, Fields: fields, wrapped: errors.Wrap(err, msg)}
	return e
}

// Is reports whether err (or any error in its chain) has the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if as, ok := err.(*Error); ok {
			e = as
			if e.Kind == kind {
				return true
			}
			err = errors.Unwrap(err)
			continue
		}
		err = errors.Unwrap(err)
	}
	return false
}

func F(name string, value interface{}) Field { return Field{Name: name, Value: value} }

// Constructors mirroring §7 of the spec, one per named error.

func NotFoundf(entity, id string) error {
	return New(NotFound, "not found", F("entity", entity), F("id", id))
}

func AlreadyExistsf(entity, id string) error {
	return New(AlreadyExists, "already exists", F("entity", entity), F("id", id))
}

func Validationf(field, reason string) error {
	return New(Validation, reason, F("field", field))
}

func BrokenChainf(position int, expected, actual string) error {
	return New(BrokenChain, "hash chain linkage broken",
		F("position", position), F("expected", expected), F("actual", actual))
}

func PermissionDeniedf(subject string) error {
	return New(PermissionDenied, "permission denied", F("subject", subject))
}

func InvalidCapabilityf(cap string) error {
	return New(InvalidCapability, "capability check failed", F("capability", cap))
}

func CapacityExceededf(resource string, limit, requested uint64) error {
	return New(CapacityExceeded, "capacity exceeded",
		F("resource", resource), F("limit", limit), F("requested", requested))
}

func Timeoutf(budget uint64) error {
	return New(Timeout, "tick budget exhausted", F("budget", budget))
}
