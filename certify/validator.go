// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package certify

import (
	"sort"

	"github.com/cathedral-fabric/cathedral/eventlog"
	"github.com/cathedral-fabric/cathedral/internal/xerrors"
)

// CheckName identifies one of the Validator's ordered consistency
// checks.
type CheckName string

const (
	// CheckHasRuns is spec §4.10's "has_runs: at least one run
	// provided" — the first ordered check, since every later check is
	// meaningless over an empty run set.
	CheckHasRuns                  CheckName = "has_runs"
	CheckSeedConsistency          CheckName = "seed_consistency"
	CheckTickConsistency          CheckName = "tick_consistency"
	CheckEventCountConsistency    CheckName = "event_count_consistency"
	CheckEventSequenceConsistency CheckName = "event_sequence_consistency"
	CheckHashChainConsistency     CheckName = "hash_chain_consistency"
	// CheckFinalStateConsistency is added beyond the five the distilled
	// spec names: it compares the set of final-state keys pairwise
	// across runs being cross-validated, grounded on the original Rust
	// workspace's cathedral_certify/src/validator.rs, which performs an
	// equivalent key-set comparison before accepting a replay as
	// equivalent to its original.
	CheckFinalStateConsistency CheckName = "final_state_consistency"
)

// CheckResult is the outcome of one named check.
type CheckResult struct {
	Name CheckName
	OK   bool
	Detail string
}

// Report is the full ordered outcome of validating a set of run
// records against each other (an original and N replays, or any set
// of runs expected to be pairwise equivalent).
type Report struct {
	Checks []CheckResult
}

// Passed reports whether every check in the report succeeded.
func (r *Report) Passed() bool {
	for _, c := range r.Checks {
		if !c.OK {
			return false
		}
	}
	return true
}

// RunRecord is one run's certifiable state: its body plus the event
// sequence and final-state key set that produced it. Validate accepts
// any number of these (≥1), generalizing the two-run reference/
// candidate comparison to an N-way pairwise one.
type RunRecord struct {
	Body           CertificateBody
	Events         []eventlog.Event
	FinalStateKeys []string
}

// Validator runs the ordered consistency checks across a set of run
// records, typically an original run plus one or more replays expected
// to be equivalent to it.
type Validator struct{}

func NewValidator() *Validator { return &Validator{} }

// Validate runs all seven ordered checks against runs and returns the
// full report; Report.Passed reports overall success. has_runs runs
// first and, if it fails, every later check reports failure too rather
// than panicking on an empty slice.
func (v *Validator) Validate(runs []RunRecord) *Report {
	report := &Report{}

	hasRuns := len(runs) > 0
	report.Checks = append(report.Checks, CheckResult{Name: CheckHasRuns, OK: hasRuns, Detail: emptyDetail(hasRuns)})
	if !hasRuns {
		for _, name := range []CheckName{
			CheckSeedConsistency, CheckTickConsistency, CheckEventCountConsistency,
			CheckEventSequenceConsistency, CheckHashChainConsistency, CheckFinalStateConsistency,
		} {
			report.Checks = append(report.Checks, CheckResult{Name: name, OK: false, Detail: "no runs provided"})
		}
		return report
	}

	ref := runs[0]
	report.Checks = append(report.Checks, checkSeedAll(runs, ref))
	report.Checks = append(report.Checks, checkTickAll(runs, ref))
	report.Checks = append(report.Checks, checkEventCountAll(runs, ref))
	report.Checks = append(report.Checks, checkEventSequenceAll(runs, ref))
	report.Checks = append(report.Checks, checkHashChainAll(runs))
	report.Checks = append(report.Checks, checkFinalStateAll(runs, ref))
	return report
}

func emptyDetail(ok bool) string {
	if ok {
		return ""
	}
	return "no runs provided"
}

func checkSeedAll(runs []RunRecord, ref RunRecord) CheckResult {
	for _, r := range runs[1:] {
		if r.Body.Seed != ref.Body.Seed {
			return CheckResult{Name: CheckSeedConsistency, OK: false, Detail: "seed mismatch"}
		}
	}
	return CheckResult{Name: CheckSeedConsistency, OK: true}
}

func checkTickAll(runs []RunRecord, ref RunRecord) CheckResult {
	for _, r := range runs[1:] {
		if r.Body.Ticks != ref.Body.Ticks {
			return CheckResult{Name: CheckTickConsistency, OK: false, Detail: "tick count mismatch"}
		}
	}
	return CheckResult{Name: CheckTickConsistency, OK: true}
}

func checkEventCountAll(runs []RunRecord, ref RunRecord) CheckResult {
	for _, r := range runs[1:] {
		if r.Body.EventCount != ref.Body.EventCount {
			return CheckResult{Name: CheckEventCountConsistency, OK: false, Detail: "event count mismatch"}
		}
	}
	return CheckResult{Name: CheckEventCountConsistency, OK: true}
}

func checkEventSequenceAll(runs []RunRecord, ref RunRecord) CheckResult {
	for _, r := range runs[1:] {
		if res := checkEventSequence(ref.Events, r.Events); !res.OK {
			return res
		}
	}
	return CheckResult{Name: CheckEventSequenceConsistency, OK: true}
}

func checkEventSequence(refEvents, candEvents []eventlog.Event) CheckResult {
	if len(refEvents) != len(candEvents) {
		return CheckResult{Name: CheckEventSequenceConsistency, OK: false, Detail: "sequence length mismatch"}
	}
	for i := range refEvents {
		if refEvents[i].Kind != candEvents[i].Kind || !refEvents[i].NodeID.Equal(candEvents[i].NodeID) {
			return CheckResult{Name: CheckEventSequenceConsistency, OK: false, Detail: "sequence diverged"}
		}
	}
	return CheckResult{Name: CheckEventSequenceConsistency, OK: true}
}

func checkHashChainAll(runs []RunRecord) CheckResult {
	for _, r := range runs {
		if broken := eventlog.ValidateSequence(r.Events); broken != nil {
			return CheckResult{Name: CheckHashChainConsistency, OK: false, Detail: "chain broken"}
		}
	}
	return CheckResult{Name: CheckHashChainConsistency, OK: true}
}

func checkFinalStateAll(runs []RunRecord, ref RunRecord) CheckResult {
	for _, r := range runs[1:] {
		if res := checkFinalState(ref.FinalStateKeys, r.FinalStateKeys); !res.OK {
			return res
		}
	}
	return CheckResult{Name: CheckFinalStateConsistency, OK: true}
}

func checkFinalState(refKeys, candKeys []string) CheckResult {
	a := append([]string{}, refKeys...)
	b := append([]string{}, candKeys...)
	sort.Strings(a)
	sort.Strings(b)
	if len(a) != len(b) {
		return CheckResult{Name: CheckFinalStateConsistency, OK: false, Detail: "key set size mismatch"}
	}
	for i := range a {
		if a[i] != b[i] {
			return CheckResult{Name: CheckFinalStateConsistency, OK: false, Detail: "key set diverged"}
		}
	}
	return CheckResult{Name: CheckFinalStateConsistency, OK: true}
}

// AsError converts a failed Report into a single Validation error
// naming the first failing check, or nil if the report passed.
func (r *Report) AsError() error {
	for _, c := range r.Checks {
		if !c.OK {
			return xerrors.Validationf(string(c.Name), c.Detail)
		}
	}
	return nil
}
