// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package xmetrics wires Prometheus collectors for the execution core the
// way the teacher repo's metrics/metrics.go does: one struct per
// component, registered against a caller-supplied registerer, falling
// back to a private registry so concurrent tests never collide on the
// default global registry.
package xmetrics

import "github.com/prometheus/client_golang/prometheus"

// Engine holds the scheduler/executor/engine collectors.
type Engine struct {
	NodesExecuted   *prometheus.CounterVec
	NodeDuration    prometheus.Histogram
	TicksElapsed    prometheus.Counter
	RunsCompleted   *prometheus.CounterVec
}

// NewEngine registers engine collectors against reg, or a private
// registry if reg is nil.
func NewEngine(reg prometheus.Registerer) *Engine {
	reg = orPrivate(reg)
	e := &Engine{
		NodesExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cathedral", Subsystem: "engine", Name: "nodes_executed_total",
			Help: "Nodes executed, partitioned by outcome.",
		}, []string{"outcome"}),
		NodeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cathedral", Subsystem: "engine", Name: "node_ticks",
			Help: "Logical ticks consumed per node execution.",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		}),
		TicksElapsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cathedral", Subsystem: "engine", Name: "ticks_elapsed_total",
			Help: "Total logical ticks consumed across all runs.",
		}),
		RunsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cathedral", Subsystem: "engine", Name: "runs_completed_total",
			Help: "Runs completed, partitioned by final status.",
		}, []string{"status"}),
	}
	reg.MustRegister(e.NodesExecuted, e.NodeDuration, e.TicksElapsed, e.RunsCompleted)
	return e
}

// Sandbox holds the WASM sandbox collectors.
type Sandbox struct {
	FuelConsumed prometheus.Counter
	HostCalls    *prometheus.CounterVec
}

func NewSandbox(reg prometheus.Registerer) *Sandbox {
	reg = orPrivate(reg)
	s := &Sandbox{
		FuelConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cathedral", Subsystem: "sandbox", Name: "fuel_consumed_total",
			Help: "Fuel units consumed across all sandbox executions.",
		}),
		HostCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cathedral", Subsystem: "sandbox", Name: "host_calls_total",
			Help: "Host function invocations, partitioned by name and outcome.",
		}, []string{"name", "outcome"}),
	}
	reg.MustRegister(s.FuelConsumed, s.HostCalls)
	return s
}

// Store holds the content-store and compactor collectors.
type Store struct {
	BlobBytes       prometheus.Gauge
	BlobCount       prometheus.Gauge
	CompactReclaim  prometheus.Counter
	CompactErrors   prometheus.Counter
}

func NewStore(reg prometheus.Registerer) *Store {
	reg = orPrivate(reg)
	s := &Store{
		BlobBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cathedral", Subsystem: "store", Name: "blob_bytes",
			Help: "Total bytes currently held in the content store.",
		}),
		BlobCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cathedral", Subsystem: "store", Name: "blob_count",
			Help: "Number of blobs currently held in the content store.",
		}),
		CompactReclaim: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cathedral", Subsystem: "store", Name: "compact_reclaimed_bytes_total",
			Help: "Bytes reclaimed by compaction.",
		}),
		CompactErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cathedral", Subsystem: "store", Name: "compact_errors_total",
			Help: "Per-blob deletion errors encountered during compaction.",
		}),
	}
	reg.MustRegister(s.BlobBytes, s.BlobCount, s.CompactReclaim, s.CompactErrors)
	return s
}

// Sim holds the simulation-harness collectors.
type Sim struct {
	TicksRun       prometheus.Counter
	FailuresInject *prometheus.CounterVec
}

func NewSim(reg prometheus.Registerer) *Sim {
	reg = orPrivate(reg)
	s := &Sim{
		TicksRun: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cathedral", Subsystem: "sim", Name: "ticks_run_total",
			Help: "Simulated ticks executed.",
		}),
		FailuresInject: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cathedral", Subsystem: "sim", Name: "failures_injected_total",
			Help: "Failures injected, partitioned by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(s.TicksRun, s.FailuresInject)
	return s
}

// Certifier holds the certification collectors.
type Certifier struct {
	CertificatesIssued prometheus.Counter
	ValidationFailures *prometheus.CounterVec
}

func NewCertifier(reg prometheus.Registerer) *Certifier {
	reg = orPrivate(reg)
	c := &Certifier{
		CertificatesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cathedral", Subsystem: "certifier", Name: "certificates_issued_total",
			Help: "Certificates successfully issued.",
		}),
		ValidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cathedral", Subsystem: "certifier", Name: "validation_failures_total",
			Help: "Validation check failures, partitioned by check name.",
		}, []string{"check"}),
	}
	reg.MustRegister(c.CertificatesIssued, c.ValidationFailures)
	return c
}

func orPrivate(reg prometheus.Registerer) prometheus.Registerer {
	if reg != nil {
		return reg
	}
	return prometheus.NewRegistry()
}
