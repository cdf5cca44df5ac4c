// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package policy_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cathedral-fabric/cathedral/capability"
	"github.com/cathedral-fabric/cathedral/id"
	"github.com/cathedral-fabric/cathedral/policy"
	"github.com/cathedral-fabric/cathedral/xhash"
)

func TestEvalAndOrNot(t *testing.T) {
	ev := policy.NewEvaluator(func(string) bool { return false })
	expr := policy.And(policy.Lit(true), policy.Or(policy.Lit(false), policy.Not(policy.Lit(false))))
	require.NoError(t, policy.ValidateShape(expr))
	v, err := ev.Eval(expr, nil)
	require.NoError(t, err)
	require.True(t, v.Bool)
}

func TestEvalShortCircuitAnd(t *testing.T) {
	ev := policy.NewEvaluator(func(string) bool { return false })
	// Right side would fail type-checking if evaluated (number, not bool);
	// And must short-circuit on a false left operand without evaluating it.
	expr := policy.And(policy.Lit(false), policy.Num(1))
	v, err := ev.Eval(expr, nil)
	require.NoError(t, err)
	require.False(t, v.Bool)
}

func TestEvalCompare(t *testing.T) {
	ev := policy.NewEvaluator(func(string) bool { return false })
	expr := policy.Compare(policy.Num(3), policy.OpLessThan, policy.Num(5))
	v, err := ev.Eval(expr, nil)
	require.NoError(t, err)
	require.True(t, v.Bool)
}

func TestEvalVar(t *testing.T) {
	ev := policy.NewEvaluator(func(string) bool { return false })
	vars := policy.Vars{"x": {Kind: policy.ExprNumber, Number: 10}}
	expr := policy.Compare(policy.Var("x"), policy.OpGreaterOrEqual, policy.Num(10))
	v, err := ev.Eval(expr, vars)
	require.NoError(t, err)
	require.True(t, v.Bool)
}

func TestEvalCapabilityCheck(t *testing.T) {
	ev := policy.NewEvaluator(func(key string) bool { return key == "net_read" })
	expr := policy.CapabilityCheck(capability.NetReadCap("example.com"))
	v, err := ev.Eval(expr, nil)
	require.NoError(t, err)
	require.True(t, v.Bool)
}

func TestEvalCallStartsWith(t *testing.T) {
	ev := policy.NewEvaluator(func(string) bool { return false })
	expr := policy.Call(policy.CallStartsWith, policy.Str("hello world"), policy.Str("hello"))
	v, err := ev.Eval(expr, nil)
	require.NoError(t, err)
	require.True(t, v.Bool)
}

func TestValidateShapeRejectsMissingOperand(t *testing.T) {
	expr := &policy.Expr{Kind: policy.ExprNot}
	require.Error(t, policy.ValidateShape(expr))
}

func TestProofLogRecordAndVerify(t *testing.T) {
	key := xhash.Compute([]byte("run-seed"))
	log := policy.NewProofLog(key)
	eventID := id.New(id.Event)
	nodeID := id.NodeIDFromName("n")
	p := log.Record(&eventID, nodeID, "policy-v1", "allow-net", true, []policy.Field{
		policy.StringField("requested_capability", "net_read"),
	})
	require.NoError(t, policy.Verify(key, p))
}

func TestProofVerifyRejectsWrongKey(t *testing.T) {
	key := xhash.Compute([]byte("run-seed"))
	log := policy.NewProofLog(key)
	nodeID := id.NodeIDFromName("n")
	p := log.Record(nil, nodeID, "policy-v1", "allow-net", true, nil)
	require.Error(t, policy.Verify(xhash.Compute([]byte("other-seed")), p))
}

func TestProofLogIndexesByEventAndNode(t *testing.T) {
	key := xhash.Compute([]byte("run-seed"))
	log := policy.NewProofLog(key)
	eventID := id.New(id.Event)
	nodeA := id.NodeIDFromName("a")
	nodeB := id.NodeIDFromName("b")

	p1 := log.Record(&eventID, nodeA, "policy-v1", "allow-net", true, nil)
	p2 := log.Record(nil, nodeA, "policy-v1", "deny-fs", false, nil)
	log.Record(nil, nodeB, "policy-v1", "allow-net", true, nil)

	byEvent := log.ByEvent(eventID)
	require.Len(t, byEvent, 1)
	require.Equal(t, p1.ID, byEvent[0].ID)

	byNode := log.ByNode(nodeA)
	require.Len(t, byNode, 2)
	require.Equal(t, p1.ID, byNode[0].ID)
	require.Equal(t, p2.ID, byNode[1].ID)

	require.Len(t, log.ByNode(nodeB), 1)
	require.Empty(t, log.ByEvent(id.New(id.Event)))
}

func TestPolicyEvaluateAllowThenDeny(t *testing.T) {
	ev := policy.NewEvaluator(func(string) bool { return false })
	p := &policy.Policy{Rules: []policy.Rule{
		{Name: "allow-all", Expr: policy.Lit(true), IsAllow: true},
		{Name: "deny-write", Expr: policy.Lit(true), IsAllow: false},
	}}
	result, err := p.Evaluate(ev, policy.Context{})
	require.NoError(t, err)
	require.False(t, result.Allowed)
	require.Equal(t, []string{"allow-all", "deny-write"}, result.MatchedRuleNames)
}

func TestPolicyEvaluateAllowDoesNotShortCircuit(t *testing.T) {
	ev := policy.NewEvaluator(func(string) bool { return false })
	p := &policy.Policy{Rules: []policy.Rule{
		{Name: "allow-one", Expr: policy.Lit(true), IsAllow: true},
		{Name: "no-match", Expr: policy.Lit(false), IsAllow: false},
		{Name: "allow-two", Expr: policy.Lit(true), IsAllow: true},
	}}
	result, err := p.Evaluate(ev, policy.Context{})
	require.NoError(t, err)
	require.True(t, result.Allowed)
	require.Equal(t, []string{"allow-one", "allow-two"}, result.MatchedRuleNames)
}

func TestPolicyEvaluateDefaultDeny(t *testing.T) {
	ev := policy.NewEvaluator(func(string) bool { return false })
	p := &policy.Policy{Rules: []policy.Rule{
		{Name: "never", Expr: policy.Lit(false), IsAllow: true},
	}}
	result, err := p.Evaluate(ev, policy.Context{})
	require.NoError(t, err)
	require.False(t, result.Allowed)
	require.Empty(t, result.MatchedRuleNames)
	require.Equal(t, "no rule matched; default deny", result.Reason)
}

func TestPolicyRuleScopedToCapabilitySkipsWhenUnrequested(t *testing.T) {
	ev := policy.NewEvaluator(func(string) bool { return false })
	netCaps := capability.NewSet(capability.NetReadCap("example.com"))
	p := &policy.Policy{Rules: []policy.Rule{
		{Name: "net-only", Expr: policy.Lit(true), IsAllow: true, Capabilities: netCaps},
	}}

	result, err := p.Evaluate(ev, policy.Context{})
	require.NoError(t, err)
	require.False(t, result.Allowed)
	require.Empty(t, result.MatchedRuleNames)

	fsCap := capability.FsReadCap("/tmp")
	result, err = p.Evaluate(ev, policy.Context{RequestedCapability: &fsCap})
	require.NoError(t, err)
	require.False(t, result.Allowed)

	netCap := capability.NetReadCap("example.com")
	result, err = p.Evaluate(ev, policy.Context{RequestedCapability: &netCap})
	require.NoError(t, err)
	require.True(t, result.Allowed)
	require.Equal(t, []string{"net-only"}, result.MatchedRuleNames)
}
