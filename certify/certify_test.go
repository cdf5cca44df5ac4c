// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package certify_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cathedral-fabric/cathedral/certify"
	"github.com/cathedral-fabric/cathedral/eventlog"
	"github.com/cathedral-fabric/cathedral/id"
	"github.com/cathedral-fabric/cathedral/xhash"
)

func sampleEvents(runID id.ID) []eventlog.Event {
	nodeID := id.NodeIDFromName("a")
	e0 := eventlog.Event{
		ID: id.New(id.Event), RunID: runID, NodeID: nodeID,
		LogicalTime: 0, Kind: eventlog.NodeStarted,
		PriorStateHash: xhash.Zero, PostStateHash: xhash.Compute([]byte("s")),
	}
	e1 := eventlog.Event{
		ID: id.New(id.Event), RunID: runID, NodeID: nodeID,
		LogicalTime: 1, Kind: eventlog.NodeCompleted,
		PriorStateHash: e0.PostStateHash, PostStateHash: xhash.Chain(e0.PostStateHash, xhash.Compute([]byte("c"))),
	}
	return []eventlog.Event{e0, e1}
}

func TestIssueAndVerify(t *testing.T) {
	c, err := certify.GenerateCertifier()
	require.NoError(t, err)

	runID := id.New(id.Run)
	events := sampleEvents(runID)
	body := certify.BuildBody(runID, 42, events, []string{"a", "b"})
	require.NotEmpty(t, body.ID)
	require.Contains(t, body.LogHash, "blake3:")

	cert, err := c.Issue(body)
	require.NoError(t, err)
	require.Equal(t, c.PublicKeyHex(), cert.Body.Validator.PublicKeyHex)
	require.NoError(t, certify.Verify(cert))
}

func TestVerifyRejectsTamperedBody(t *testing.T) {
	c, err := certify.GenerateCertifier()
	require.NoError(t, err)

	runID := id.New(id.Run)
	body := certify.BuildBody(runID, 42, sampleEvents(runID), nil)
	cert, err := c.Issue(body)
	require.NoError(t, err)

	cert.Body.Seed = 99
	require.Error(t, certify.Verify(cert))
}

func TestVerifyRejectsMalformedPublicKey(t *testing.T) {
	c, err := certify.GenerateCertifier()
	require.NoError(t, err)

	body := certify.BuildBody(id.New(id.Run), 1, nil, nil)
	cert, err := c.Issue(body)
	require.NoError(t, err)

	cert.Body.Validator.PublicKeyHex = "not-hex"
	require.Error(t, certify.Verify(cert))
}

func TestValidatorRejectsEmptyRunSet(t *testing.T) {
	v := certify.NewValidator()
	report := v.Validate(nil)
	require.False(t, report.Passed())
	require.Equal(t, certify.CheckHasRuns, report.Checks[0].Name)
	require.False(t, report.Checks[0].OK)
}

func TestValidatorAllChecksPassAcrossThreeRuns(t *testing.T) {
	runID := id.New(id.Run)
	events := sampleEvents(runID)
	body := certify.BuildBody(runID, 7, events, []string{"x", "y"})

	runs := []certify.RunRecord{
		{Body: body, Events: events, FinalStateKeys: []string{"x", "y"}},
		{Body: body, Events: events, FinalStateKeys: []string{"y", "x"}},
		{Body: body, Events: events, FinalStateKeys: []string{"x", "y"}},
	}

	v := certify.NewValidator()
	report := v.Validate(runs)
	require.True(t, report.Passed())

	certified := certify.WithClaims(body, report, uint64(len(runs)))
	require.Contains(t, certified.Claims, certify.IdenticalRuns(3))
	require.Contains(t, certified.Claims, certify.ValidHashChain())
	require.Contains(t, certified.Claims, certify.SeededRandomness())
}

func TestValidatorSingleRunNoIdenticalRunsClaim(t *testing.T) {
	runID := id.New(id.Run)
	events := sampleEvents(runID)
	body := certify.BuildBody(runID, 7, events, nil)

	v := certify.NewValidator()
	report := v.Validate([]certify.RunRecord{{Body: body, Events: events}})
	require.True(t, report.Passed())

	certified := certify.WithClaims(body, report, 1)
	for _, c := range certified.Claims {
		require.NotEqual(t, certify.ClaimIdenticalRuns, c.Kind)
	}
}

func TestValidatorDetectsSeedMismatch(t *testing.T) {
	runID := id.New(id.Run)
	events := sampleEvents(runID)
	ref := certify.BuildBody(runID, 7, events, nil)
	cand := certify.BuildBody(runID, 8, events, nil)

	v := certify.NewValidator()
	report := v.Validate([]certify.RunRecord{
		{Body: ref, Events: events},
		{Body: cand, Events: events},
	})
	require.False(t, report.Passed())
	require.Error(t, report.AsError())

	certified := certify.WithClaims(ref, report, 2)
	require.Empty(t, certified.Claims)
}

func TestValidatorDetectsFinalStateDivergence(t *testing.T) {
	runID := id.New(id.Run)
	events := sampleEvents(runID)
	body := certify.BuildBody(runID, 7, events, nil)

	v := certify.NewValidator()
	report := v.Validate([]certify.RunRecord{
		{Body: body, Events: events, FinalStateKeys: []string{"a"}},
		{Body: body, Events: events, FinalStateKeys: []string{"b"}},
	})
	require.False(t, report.Passed())
}
