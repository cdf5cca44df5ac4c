// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package policy

import (
	"strings"

	"github.com/cathedral-fabric/cathedral/internal/xerrors"
)

// Value is the tagged runtime value an Expr evaluates to.
type Value struct {
	Kind   ExprKind // ExprBool, ExprString, or ExprNumber
	Bool   bool
	String string
	Number float64
}

// Evaluator recursively evaluates the closed Expr grammar against a
// variable environment. It never calls into arbitrary Go code: every
// Call name is one of the fixed CallName constants, and capability
// checks are delegated to the allows function supplied at construction
// rather than importing capability.Set directly, keeping the grammar
// reusable outside the execution core.
type Evaluator struct {
	caps capabilitySet
}

type capabilitySet interface {
	AllowsCapability(kindKey string) bool
}

// NewEvaluator builds an Evaluator bound to a capability-checking
// function (typically *capability.Set.Allows adapted by the caller,
// since policy does not import capability's concrete type to keep this
// package's grammar reusable outside the execution core).
func NewEvaluator(allows func(requiredCapabilityKey string) bool) *Evaluator {
	return &Evaluator{caps: adaptAllower(allows)}
}

type adaptedAllower func(string) bool

func (a adaptedAllower) AllowsCapability(k string) bool { return a(k) }

func adaptAllower(f func(string) bool) capabilitySet { return adaptedAllower(f) }

// Vars is the variable environment for evaluation.
type Vars map[string]Value

// Eval evaluates e against vars, assuming e already passed
// ValidateShape.
func (ev *Evaluator) Eval(e *Expr, vars Vars) (Value, error) {
	switch e.Kind {
	case ExprBool:
		return Value{Kind: ExprBool, Bool: e.Bool}, nil
	case ExprString:
		return Value{Kind: ExprString, String: e.String}, nil
	case ExprNumber:
		return Value{Kind: ExprNumber, Number: e.Number}, nil
	case ExprVar:
		v, ok := vars[e.Var]
		if !ok {
			return Value{}, xerrors.NotFoundf("policy_var", e.Var)
		}
		return v, nil
	case ExprNot:
		v, err := ev.Eval(e.Operand, vars)
		if err != nil {
			return Value{}, err
		}
		if v.Kind != ExprBool {
			return Value{}, xerrors.Validationf("expr", "not requires a bool operand")
		}
		return Value{Kind: ExprBool, Bool: !v.Bool}, nil
	case ExprAnd:
		l, err := ev.Eval(e.Left, vars)
		if err != nil {
			return Value{}, err
		}
		if l.Kind != ExprBool {
			return Value{}, xerrors.Validationf("expr", "and requires bool operands")
		}
		if !l.Bool {
			return Value{Kind: ExprBool, Bool: false}, nil // short-circuit
		}
		r, err := ev.Eval(e.Right, vars)
		if err != nil {
			return Value{}, err
		}
		if r.Kind != ExprBool {
			return Value{}, xerrors.Validationf("expr", "and requires bool operands")
		}
		return Value{Kind: ExprBool, Bool: r.Bool}, nil
	case ExprOr:
		l, err := ev.Eval(e.Left, vars)
		if err != nil {
			return Value{}, err
		}
		if l.Kind != ExprBool {
			return Value{}, xerrors.Validationf("expr", "or requires bool operands")
		}
		if l.Bool {
			return Value{Kind: ExprBool, Bool: true}, nil // short-circuit
		}
		r, err := ev.Eval(e.Right, vars)
		if err != nil {
			return Value{}, err
		}
		if r.Kind != ExprBool {
			return Value{}, xerrors.Validationf("expr", "or requires bool operands")
		}
		return Value{Kind: ExprBool, Bool: r.Bool}, nil
	case ExprCompare:
		l, err := ev.Eval(e.Left, vars)
		if err != nil {
			return Value{}, err
		}
		r, err := ev.Eval(e.Right, vars)
		if err != nil {
			return Value{}, err
		}
		return compareValues(l, r, e.Op)
	case ExprCapabilityCheck:
		key := e.RequiredCapability.Kind.String()
		return Value{Kind: ExprBool, Bool: ev.caps.AllowsCapability(key)}, nil
	case ExprCall:
		return ev.evalCall(e, vars)
	default:
		return Value{}, xerrors.Validationf("expr", "unknown expression kind")
	}
}

func (ev *Evaluator) evalCall(e *Expr, vars Vars) (Value, error) {
	args := make([]Value, len(e.Args))
	for i, a := range e.Args {
		v, err := ev.Eval(a, vars)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}
	switch e.Call {
	case CallStartsWith:
		if len(args) != 2 || args[0].Kind != ExprString || args[1].Kind != ExprString {
			return Value{}, xerrors.Validationf("expr", "starts_with(string, string)")
		}
		return Value{Kind: ExprBool, Bool: strings.HasPrefix(args[0].String, args[1].String)}, nil
	case CallContains:
		if len(args) != 2 || args[0].Kind != ExprString || args[1].Kind != ExprString {
			return Value{}, xerrors.Validationf("expr", "contains(string, string)")
		}
		return Value{Kind: ExprBool, Bool: strings.Contains(args[0].String, args[1].String)}, nil
	default:
		return Value{}, xerrors.Validationf("expr", "unknown call")
	}
}

func compareValues(l, r Value, op CompareOp) (Value, error) {
	if l.Kind != r.Kind {
		return Value{}, xerrors.Validationf("expr", "compare requires matching operand kinds")
	}
	var eq, lt bool
	switch l.Kind {
	case ExprBool:
		eq = l.Bool == r.Bool
	case ExprString:
		eq = l.String == r.String
		lt = l.String < r.String
	case ExprNumber:
		eq = l.Number == r.Number
		lt = l.Number < r.Number
	default:
		return Value{}, xerrors.Validationf("expr", "uncomparable value kind")
	}
	var result bool
	switch op {
	case OpEqual:
		result = eq
	case OpNotEqual:
		result = !eq
	case OpLessThan:
		result = lt
	case OpLessOrEqual:
		result = lt || eq
	case OpGreaterThan:
		result = !lt && !eq
	case OpGreaterOrEqual:
		result = !lt
	default:
		return Value{}, xerrors.Validationf("expr", "unknown compare operator")
	}
	return Value{Kind: ExprBool, Bool: result}, nil
}
