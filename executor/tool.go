// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Tool registry and the built-in Resolver, grounded on the original
// Rust workspace's cathedral_tool/src/registry.rs and schema.rs (see
// original_source/): the distilled spec names Tool(name,version) as a
// NodeKind but never specifies lookup or I/O validation, so this
// supplements it per SPEC_FULL.md §11.
package executor

import (
	"sort"

	"github.com/cathedral-fabric/cathedral/dag"
	"github.com/cathedral-fabric/cathedral/internal/xerrors"
	"github.com/cathedral-fabric/cathedral/internal/xschema"
)

// ToolFunc implements one (name, version) tool.
type ToolFunc func(ctx *ExecutionContext) ([]byte, error)

type toolEntry struct {
	fn     ToolFunc
	input  *xschema.Schema
	output *xschema.Schema
}

// ToolRegistry is a name+version keyed registry of tool implementations
// with optional input/output schema validation.
type ToolRegistry struct {
	tools map[string]toolEntry
}

func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]toolEntry)}
}

func key(name, version string) string { return name + "@" + version }

// Register installs fn under (name, version), with optional input and
// output schemas (either may be nil to skip that check).
func (r *ToolRegistry) Register(name, version string, fn ToolFunc, input, output *xschema.Schema) {
	r.tools[key(name, version)] = toolEntry{fn: fn, input: input, output: output}
}

// Lookup finds the registered tool, NotFound otherwise.
func (r *ToolRegistry) Lookup(name, version string) (ToolFunc, *xschema.Schema, *xschema.Schema, error) {
	e, ok := r.tools[key(name, version)]
	if !ok {
		return nil, nil, nil, xerrors.NotFoundf("tool", key(name, version))
	}
	return e.fn, e.input, e.output, nil
}

// DefaultResolver resolves dag.Node kinds to executor Actions: KindTool
// looks up the ToolRegistry (validating input/output schema when
// present); KindMap/KindFilter/KindReduce each resolve to their own
// registered function by n.Name, looked up in the same registry (a
// Map/Filter/Reduce "fn" or "pred" is just a tool with no version, per
// the spec's own phrasing "Map(fn)"/"Filter(pred)"). KindInput/
// KindOutput and the structural kinds KindParallel/KindSequence/
// KindCondition/KindLoop are not looked up: they concatenate their
// inputs in sorted-key order. A Tool/Map/Filter/Reduce node with no
// registered function returns empty bytes — the §8 S1 stub-executor
// behavior.
type DefaultResolver struct {
	tools *ToolRegistry
}

func NewDefaultResolver(tools *ToolRegistry) *DefaultResolver {
	return &DefaultResolver{tools: tools}
}

func (r *DefaultResolver) Resolve(n *dag.Node) (Action, error) {
	switch n.Kind {
	case dag.KindInput, dag.KindOutput:
		return passthroughAction, nil
	case dag.KindTool:
		fn, input, output, err := r.tools.Lookup(n.Name, n.Version)
		if err != nil {
			// No tool registered: the spec's stub executor returns
			// empty output rather than failing (scenario S1).
			return emptyAction, nil
		}
		return wrapSchema(fn, input, output), nil
	case dag.KindMap, dag.KindFilter, dag.KindReduce:
		fn, input, output, err := r.tools.Lookup(n.Name, "")
		if err != nil {
			return emptyAction, nil
		}
		return wrapSchema(fn, input, output), nil
	case dag.KindParallel, dag.KindSequence, dag.KindCondition, dag.KindLoop:
		// Structural kinds: the engine interleaves their dependency
		// subgraph; the node's own action is a pass-through that
		// concatenates its inputs in input-name sorted order (map
		// iteration order is not stable across runs, so the sort is
		// required for byte-for-byte determinism, not cosmetic).
		return passthroughAction, nil
	default:
		return emptyAction, nil
	}
}

func emptyAction(ctx *ExecutionContext) ([]byte, error) { return nil, nil }

// passthroughAction concatenates ctx.Inputs in sorted-by-key order. Map
// iteration order is randomized per Go process, so combining inputs by
// ranging the map directly would make output non-reproducible across
// runs; sorting keys first restores the determinism every node action
// in this package is required to have.
func passthroughAction(ctx *ExecutionContext) ([]byte, error) {
	if len(ctx.Inputs) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(ctx.Inputs))
	for k := range ctx.Inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out []byte
	for _, k := range keys {
		out = append(out, ctx.Inputs[k]...)
	}
	return out, nil
}

func wrapSchema(fn ToolFunc, input, output *xschema.Schema) Action {
	return func(ctx *ExecutionContext) ([]byte, error) {
		for _, v := range ctx.Inputs {
			if err := xschema.Validate(input, v); err != nil {
				return nil, err
			}
		}
		out, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		if err := xschema.Validate(output, out); err != nil {
			return nil, err
		}
		return out, nil
	}
}
