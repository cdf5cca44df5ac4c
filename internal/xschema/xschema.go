// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package xschema implements a minimal shape checker for tool input and
// output validation, grounded on the original Rust workspace's
// cathedral_tool/src/schema.rs — not a full JSON-Schema implementation, just
// enough to reject the obviously wrong shape before a tool runs.
package xschema

import (
	"encoding/json"

	"github.com/cathedral-fabric/cathedral/internal/xerrors"
)

// Kind enumerates the JSON value shapes a Schema can require.
type Kind int

const (
	Any Kind = iota
	Object
	Array
	String
	Number
	Bool
	Null
)

// Schema describes the required shape of a JSON value and, for Object,
// the required presence of named fields; a field listed in Fields has
// its own shape checked recursively when present. Array elements are
// not checked.
type Schema struct {
	Kind     Kind
	Required []string
	Fields   map[string]Schema
}

// Validate checks data against s. A nil Schema always passes.
func Validate(s *Schema, data []byte) error {
	if s == nil || s.Kind == Any {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return xerrors.New(xerrors.Validation, "invalid json", xerrors.F("error", err.Error()))
	}
	return validate(s, v, "$")
}

func validate(s *Schema, v interface{}, path string) error {
	switch s.Kind {
	case Object:
		m, ok := v.(map[string]interface{})
		if !ok {
			return xerrors.New(xerrors.Validation, "expected object", xerrors.F("path", path))
		}
		for _, req := range s.Required {
			if _, ok := m[req]; !ok {
				return xerrors.New(xerrors.Validation, "missing required field",
					xerrors.F("path", path), xerrors.F("field", req))
			}
		}
		for name, fs := range s.Fields {
			if fv, ok := m[name]; ok {
				if err := validate(&fs, fv, path+"."+name); err != nil {
					return err
				}
			}
		}
		return nil
	case Array:
		if _, ok := v.([]interface{}); !ok {
			return xerrors.New(xerrors.Validation, "expected array", xerrors.F("path", path))
		}
		return nil
	case String:
		if _, ok := v.(string); !ok {
			return xerrors.New(xerrors.Validation, "expected string", xerrors.F("path", path))
		}
		return nil
	case Number:
		if _, ok := v.(float64); !ok {
			return xerrors.New(xerrors.Validation, "expected number", xerrors.F("path", path))
		}
		return nil
	case Bool:
		if _, ok := v.(bool); !ok {
			return xerrors.New(xerrors.Validation, "expected bool", xerrors.F("path", path))
		}
		return nil
	case Null:
		if v != nil {
			return xerrors.New(xerrors.Validation, "expected null", xerrors.F("path", path))
		}
		return nil
	default:
		return nil
	}
}
