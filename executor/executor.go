// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package executor implements the per-node execution contract of spec
// §4.7: capability enforcement, NodeStarted/NodeCompleted/NodeFailed
// event emission, and dispatch into a node's action (tool, map,
// filter, reduce, parallel, condition, loop) within its sandbox.
package executor

import (
	"sync"

	"github.com/cathedral-fabric/cathedral/capability"
	"github.com/cathedral-fabric/cathedral/dag"
	"github.com/cathedral-fabric/cathedral/eventlog"
	"github.com/cathedral-fabric/cathedral/id"
	"github.com/cathedral-fabric/cathedral/internal/xerrors"
	"github.com/cathedral-fabric/cathedral/internal/xlog"
	"github.com/cathedral-fabric/cathedral/xhash"
)

// ExecutionContext is handed to a node's action.
type ExecutionContext struct {
	RunID         id.ID
	NodeID        id.ID
	LogicalTime   uint64
	ParentEventID *id.ID
	Capabilities  *capability.Set
	Inputs        map[string][]byte // keyed by dependency NodeId.String()
}

// Action is the function a DAG node's kind resolves to. It receives
// the execution context and returns the node's output bytes or an
// error.
type Action func(ctx *ExecutionContext) ([]byte, error)

// Resolver maps a dag.Node to the Action that implements its kind.
// The engine supplies one resolver per run; see this package's
// DefaultResolver for a resolver built from a ToolRegistry plus the
// built-in Map/Filter/Reduce/Parallel/Sequence/Condition/Loop shapes.
type Resolver interface {
	Resolve(n *dag.Node) (Action, error)
}

// Outcome is the result of executing one node.
type Outcome struct {
	Kind       OutcomeKind
	Output     []byte
	OutputHash xhash.Hash
	Err        error
	Missing    []string // capabilities missing, for OutcomeSkipped
}

type OutcomeKind uint8

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeFailed
	OutcomeSkipped
)

// Executor runs a single node's execution contract against the event
// log, strict-mode toggling whether a missing capability is a Skipped
// outcome or a hard Failed outcome. It also owns the per-run
// prior/post state-hash cursor threaded through each emitted event, so
// the log's hash-chain invariant (spec §4.6) is satisfied by
// construction rather than by the caller precomputing hashes.
type Executor struct {
	resolver Resolver
	log      *eventlog.Log
	strict   bool
	logger   xlog.Logger

	mu      sync.Mutex
	cursors map[id.ID]xhash.Hash
}

func New(resolver Resolver, log *eventlog.Log, strict bool, logger xlog.Logger) *Executor {
	return &Executor{
		resolver: resolver, log: log, strict: strict, logger: xlog.OrNoOp(logger),
		cursors: make(map[id.ID]xhash.Hash),
	}
}

func (e *Executor) cursor(runID id.ID) xhash.Hash {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursors[runID]
}

func (e *Executor) advance(runID id.ID, next xhash.Hash) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cursors[runID] = next
}

// Run executes node n under ctx, per spec §4.7 steps 1-5:
//  1. verify every node-required capability;
//  2. emit NodeStarted at ctx.LogicalTime;
//  3. invoke the node's action;
//  4. on success emit NodeCompleted at LogicalTime+1 and return Success;
//  5. on failure emit NodeFailed at LogicalTime+1 and return Failed.
func (e *Executor) Run(n *dag.Node, ctx *ExecutionContext) Outcome {
	if missing := e.missingCapabilities(n, ctx); len(missing) > 0 {
		if e.strict {
			return e.fail(ctx, xerrors.PermissionDeniedf("node"), missing)
		}
		e.emitSkipped(ctx, missing)
		return Outcome{Kind: OutcomeSkipped, Missing: missing}
	}

	e.emitStarted(ctx)

	action, err := e.resolver.Resolve(n)
	if err != nil {
		return e.fail(ctx, err, nil)
	}

	out, err := action(ctx)
	if err != nil {
		return e.fail(ctx, err, nil)
	}

	outHash := xhash.Compute(out)
	e.emitCompleted(ctx, outHash)
	return Outcome{Kind: OutcomeSuccess, Output: out, OutputHash: outHash}
}

func (e *Executor) missingCapabilities(n *dag.Node, ctx *ExecutionContext) []string {
	if n.Caps == nil {
		return nil
	}
	var missing []string
	for _, required := range n.Caps.Ordered() {
		if !ctx.Capabilities.Allows(required) {
			missing = append(missing, required.Kind.String())
		}
	}
	return missing
}

// append computes the next post_state_hash as Chain(cursor, content)
// and appends the event, advancing the run's cursor on success.
func (e *Executor) append(runID id.ID, ev eventlog.Event, content []byte) {
	prior := e.cursor(runID)
	post := xhash.Chain(prior, xhash.Compute(content))
	ev.PriorStateHash = prior
	ev.PostStateHash = post
	if err := e.log.Append(ev); err != nil {
		e.logger.Error("event append failed")
		return
	}
	e.advance(runID, post)
}

func (e *Executor) emitStarted(ctx *ExecutionContext) {
	e.append(ctx.RunID, eventlog.Event{
		ID: id.New(id.Event), RunID: ctx.RunID, NodeID: ctx.NodeID,
		LogicalTime: ctx.LogicalTime, Kind: eventlog.NodeStarted,
		ParentID: ctx.ParentEventID,
	}, []byte("started:"+ctx.NodeID.String()))
}

func (e *Executor) emitCompleted(ctx *ExecutionContext, outHash xhash.Hash) {
	oh := outHash
	e.append(ctx.RunID, eventlog.Event{
		ID: id.New(id.Event), RunID: ctx.RunID, NodeID: ctx.NodeID,
		LogicalTime: ctx.LogicalTime + 1, Kind: eventlog.NodeCompleted,
		OutputHash: &oh,
	}, append([]byte("completed:"), outHash[:]...))
}

func (e *Executor) emitSkipped(ctx *ExecutionContext, missing []string) {
	e.logger.Warn("node skipped: missing capability")
	e.append(ctx.RunID, eventlog.Event{
		ID: id.New(id.Event), RunID: ctx.RunID, NodeID: ctx.NodeID,
		LogicalTime: ctx.LogicalTime, Kind: eventlog.NodeSkipped,
	}, []byte("skipped:"+ctx.NodeID.String()))
}

func (e *Executor) fail(ctx *ExecutionContext, err error, missing []string) Outcome {
	code := int32(1)
	e.append(ctx.RunID, eventlog.Event{
		ID: id.New(id.Event), RunID: ctx.RunID, NodeID: ctx.NodeID,
		LogicalTime: ctx.LogicalTime + 1, Kind: eventlog.NodeFailed,
		ExitCode: &code,
	}, []byte("failed:"+ctx.NodeID.String()))
	return Outcome{Kind: OutcomeFailed, Err: err, Missing: missing}
}
