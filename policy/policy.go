// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package policy

import (
	"fmt"

	"github.com/cathedral-fabric/cathedral/capability"
	"github.com/cathedral-fabric/cathedral/id"
	"github.com/cathedral-fabric/cathedral/internal/xerrors"
)

// Rule is one entry in a compiled Policy: an expression guard, whether
// a match allows or denies, and the capability set the rule governs.
// Capabilities is optional (nil/empty matches any requested
// capability); when non-empty, the rule only participates in
// evaluation for a Context whose RequestedCapability is itself allowed
// by Capabilities, letting a policy scope an expression to e.g.
// "net read rules" without repeating a capability check inside every
// rule's Expr.
type Rule struct {
	Name         string
	Expr         *Expr
	IsAllow      bool
	Capabilities *capability.Set
}

// Policy is an ordered sequence of Rules evaluated per spec §4.11: a
// matching Deny rule short-circuits the decision to {allowed:false};
// a matching Allow rule sets allowed=true but does not short-circuit,
// so a later Deny can still veto it. Absent any match, the policy
// defaults to deny.
type Policy struct {
	Rules []Rule
}

// Context is the evaluation environment a Policy is run against:
// optional node/event identity, an optional capability being
// requested, and the variable environment Expr.Var nodes resolve
// against.
type Context struct {
	NodeID              *id.ID
	EventID             *id.ID
	RequestedCapability *capability.Capability
	Vars                Vars
}

// Result is the outcome of evaluating a Policy against a Context.
type Result struct {
	Allowed          bool
	MatchedRuleNames []string
	Reason           string
}

// Evaluate runs every rule in order against ctx using ev, short
// -circuiting on the first matching Deny. Rules are skipped (not
// "matched") when Capabilities is set and ctx.RequestedCapability is
// either unset or not allowed by that set.
func (p *Policy) Evaluate(ev *Evaluator, ctx Context) (Result, error) {
	result := Result{}
	for i, rule := range p.Rules {
		if !p.ruleApplies(rule, ctx) {
			continue
		}
		if err := ValidateShape(rule.Expr); err != nil {
			return Result{}, err
		}
		v, err := ev.Eval(rule.Expr, ctx.Vars)
		if err != nil {
			return Result{}, err
		}
		if v.Kind != ExprBool {
			return Result{}, xerrors.Validationf("policy_rule", "rule expression must evaluate to bool")
		}
		if !v.Bool {
			continue
		}

		name := rule.Name
		if name == "" {
			name = fmt.Sprintf("rule_%d", i)
		}
		result.MatchedRuleNames = append(result.MatchedRuleNames, name)

		if !rule.IsAllow {
			result.Allowed = false
			result.Reason = fmt.Sprintf("denied by rule %q", name)
			return result, nil
		}
		result.Allowed = true
		result.Reason = fmt.Sprintf("allowed by rule %q", name)
	}
	if len(result.MatchedRuleNames) == 0 {
		result.Reason = "no rule matched; default deny"
	}
	return result, nil
}

func (p *Policy) ruleApplies(rule Rule, ctx Context) bool {
	if rule.Capabilities == nil {
		return true
	}
	if ctx.RequestedCapability == nil {
		return false
	}
	return rule.Capabilities.Allows(*ctx.RequestedCapability)
}
