// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package engine owns a scheduler, an executor, the event log, and the
// map of per-node outputs, and drives the tick loop of spec §4.7's
// Engine contract: while time < max_ticks, decide, run, mark, repeat.
// When constructed WithContentStore, every successful node output is
// also persisted to the content-addressed store under its hash so a
// later replay or certification pass can fetch bytes that are no
// longer held in the in-memory outputs map.
package engine

import (
	"github.com/cathedral-fabric/cathedral/capability"
	"github.com/cathedral-fabric/cathedral/dag"
	"github.com/cathedral-fabric/cathedral/eventlog"
	"github.com/cathedral-fabric/cathedral/executor"
	"github.com/cathedral-fabric/cathedral/id"
	"github.com/cathedral-fabric/cathedral/internal/xlog"
	"github.com/cathedral-fabric/cathedral/internal/xmetrics"
	"github.com/cathedral-fabric/cathedral/scheduler"
	"github.com/cathedral-fabric/cathedral/store"
	"github.com/cathedral-fabric/cathedral/xhash"
)

// Status is the final outcome of an engine Run.
type Status uint8

const (
	Success Status = iota
	PartialFailure
	Timeout
	CycleDetected
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case PartialFailure:
		return "partial_failure"
	case Timeout:
		return "timeout"
	case CycleDetected:
		return "cycle_detected"
	default:
		return "unknown"
	}
}

// Config bounds a single run.
type Config struct {
	MaxTicks uint64
	Strict   bool // capability denial is a hard Failed rather than Skipped
	// MaxInFlightBlobs softly bounds content-store writes queued per
	// tick; purely a metrics/backpressure signal since execution is
	// single-threaded (see SPEC_FULL.md §11, adapted from the original
	// Rust workspace's cathedral_runtime/src/backpressure.rs). Zero
	// disables the signal.
	MaxInFlightBlobs uint64
}

// Result is the outcome of a completed Run.
type Result struct {
	Status    Status
	Completed []id.ID
	Failed    []id.ID
	Ticks     uint64
}

// Engine executes one DAG to completion (or timeout) under a given run
// ID and default capability set.
type Engine struct {
	graph   *dag.DAG
	sched   *scheduler.Scheduler
	exec    *executor.Executor
	log     *eventlog.Log
	cfg     Config
	logger  xlog.Logger
	metrics *xmetrics.Engine
	outputs map[id.ID][]byte
	blobs   map[id.ID]xhash.ContentAddress
	store   *store.ContentStore

	inFlightBlobs uint64
}

// Option configures an Engine at construction beyond its required
// arguments.
type Option func(*Engine)

// WithContentStore has every successfully completed node's output
// written through to cs, addressed by content hash, in addition to
// being held in the in-memory outputs map for the duration of Run.
func WithContentStore(cs *store.ContentStore) Option {
	return func(e *Engine) { e.store = cs }
}

// New builds an Engine for graph, wiring a fresh Scheduler from the
// graph's dependency structure.
func New(graph *dag.DAG, resolver executor.Resolver, log *eventlog.Log, cfg Config, logger xlog.Logger, metrics *xmetrics.Engine, opts ...Option) (*Engine, error) {
	logger = xlog.OrNoOp(logger)
	sched := scheduler.New()
	for _, nid := range graph.AllNodes() {
		deps := graph.Dependencies(nid)
		if err := sched.AddNode(nid, deps); err != nil {
			return nil, err
		}
	}
	e := &Engine{
		graph:   graph,
		sched:   sched,
		exec:    executor.New(resolver, log, cfg.Strict, logger),
		log:     log,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		outputs: make(map[id.ID][]byte),
		blobs:   make(map[id.ID]xhash.ContentAddress),
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Run drives the scheduler/executor loop to completion, Timeout, or
// CycleDetected.
func (e *Engine) Run(runID id.ID, defaultCaps *capability.Set) Result {
	for e.sched.Time() < e.cfg.MaxTicks {
		dec := e.sched.Decide()
		switch dec.Kind {
		case scheduler.RunKind:
			e.runOne(runID, dec.Node, defaultCaps)
		case scheduler.WaitKind:
			if len(e.sched.FailedSet()) > 0 {
				return e.result(PartialFailure)
			}
			// A validated, acyclic DAG never reaches Wait with nothing
			// ready and nothing failed; this branch is a defensive
			// diagnostic for a DAG that slipped validation, not a
			// reachable path for well-formed input.
			return e.result(CycleDetected)
		case scheduler.CompleteKind:
			if len(e.sched.FailedSet()) > 0 {
				return e.result(PartialFailure)
			}
			return e.result(Success)
		}
	}
	return e.result(Timeout)
}

func (e *Engine) runOne(runID, nodeID id.ID, defaultCaps *capability.Set) {
	node, ok := e.graph.Node(nodeID)
	if !ok {
		e.sched.MarkFailed(nodeID)
		return
	}

	inputs := make(map[string][]byte)
	for _, dep := range e.graph.Dependencies(nodeID) {
		if out, ok := e.outputs[dep]; ok {
			inputs[dep.String()] = out
		}
	}

	ctx := &executor.ExecutionContext{
		RunID: runID, NodeID: nodeID, LogicalTime: e.sched.Time(),
		Capabilities: defaultCaps, Inputs: inputs,
	}

	if e.cfg.MaxInFlightBlobs > 0 && e.inFlightBlobs >= e.cfg.MaxInFlightBlobs {
		e.logger.Warn("max in-flight blobs reached; executing synchronously regardless")
	}
	e.inFlightBlobs++

	outcome := e.exec.Run(node, ctx)
	e.inFlightBlobs--

	switch outcome.Kind {
	case executor.OutcomeSuccess:
		e.outputs[nodeID] = outcome.Output
		if e.store != nil {
			if addr, err := e.store.Write(outcome.Output, "application/octet-stream"); err != nil {
				e.logger.Warn("content store write failed")
			} else {
				e.blobs[nodeID] = addr
			}
		}
		e.sched.MarkComplete(nodeID)
		if e.metrics != nil {
			e.metrics.NodesExecuted.WithLabelValues("success").Inc()
		}
	case executor.OutcomeSkipped:
		e.sched.MarkComplete(nodeID) // skipped nodes still unblock dependents
		if e.metrics != nil {
			e.metrics.NodesExecuted.WithLabelValues("skipped").Inc()
		}
	case executor.OutcomeFailed:
		e.sched.MarkFailed(nodeID)
		if e.metrics != nil {
			e.metrics.NodesExecuted.WithLabelValues("failed").Inc()
		}
	}
	if e.metrics != nil {
		e.metrics.TicksElapsed.Inc()
	}
}

func (e *Engine) result(status Status) Result {
	if e.metrics != nil {
		e.metrics.RunsCompleted.WithLabelValues(status.String()).Inc()
	}
	return Result{
		Status:    status,
		Completed: e.sched.CompletedSet(),
		Failed:    e.sched.FailedSet(),
		Ticks:     e.sched.Time(),
	}
}

// Output returns the stored output for a completed node.
func (e *Engine) Output(nodeID id.ID) ([]byte, bool) {
	out, ok := e.outputs[nodeID]
	return out, ok
}

// BlobAddress returns the content address a completed node's output
// was written under, if the Engine was constructed WithContentStore.
func (e *Engine) BlobAddress(nodeID id.ID) (xhash.ContentAddress, bool) {
	addr, ok := e.blobs[nodeID]
	return addr, ok
}
