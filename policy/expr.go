// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package policy implements a closed-grammar expression evaluator for
// capability-gated decisions (spec §4.2's policy layer). The expression
// tree is a fixed sum type, not a general-purpose language: no
// user-supplied functions, no loops, no recursion into external
// libraries. A hand-written recursive evaluator over this closed
// grammar is deliberately used in place of a general CEL-style engine
// (cel-go) — see the DESIGN.md entry for this package for the
// rationale.
package policy

import (
	"github.com/cathedral-fabric/cathedral/capability"
	"github.com/cathedral-fabric/cathedral/internal/xerrors"
)

// ExprKind tags the variant of an Expr node.
type ExprKind uint8

const (
	ExprBool ExprKind = iota
	ExprString
	ExprNumber
	ExprVar
	ExprNot
	ExprAnd
	ExprOr
	ExprCompare
	ExprCapabilityCheck
	ExprCall
)

// CompareOp is the comparison operator for ExprCompare nodes.
type CompareOp uint8

const (
	OpEqual CompareOp = iota
	OpNotEqual
	OpLessThan
	OpLessOrEqual
	OpGreaterThan
	OpGreaterOrEqual
)

// CallName is the closed set of built-in calls ExprCall may invoke.
type CallName string

const (
	CallStartsWith CallName = "starts_with"
	CallContains   CallName = "contains"
)

// Expr is one node of the closed expression grammar. Only the fields
// relevant to Kind are meaningful.
type Expr struct {
	Kind ExprKind

	Bool   bool
	String string
	Number float64
	Var    string

	Operand *Expr   // Not
	Left    *Expr   // And, Or, Compare
	Right   *Expr   // And, Or, Compare
	Op      CompareOp

	RequiredCapability capability.Capability // CapabilityCheck

	Call CallName // Call
	Args []*Expr  // Call
}

// Bool constructors for building expression trees without exposing the
// zero-value struct literal shape.

func Lit(b bool) *Expr               { return &Expr{Kind: ExprBool, Bool: b} }
func Str(s string) *Expr             { return &Expr{Kind: ExprString, String: s} }
func Num(n float64) *Expr            { return &Expr{Kind: ExprNumber, Number: n} }
func Var(name string) *Expr          { return &Expr{Kind: ExprVar, Var: name} }
func Not(e *Expr) *Expr              { return &Expr{Kind: ExprNot, Operand: e} }
func And(l, r *Expr) *Expr           { return &Expr{Kind: ExprAnd, Left: l, Right: r} }
func Or(l, r *Expr) *Expr            { return &Expr{Kind: ExprOr, Left: l, Right: r} }
func Compare(l *Expr, op CompareOp, r *Expr) *Expr {
	return &Expr{Kind: ExprCompare, Left: l, Right: r, Op: op}
}
func CapabilityCheck(c capability.Capability) *Expr {
	return &Expr{Kind: ExprCapabilityCheck, RequiredCapability: c}
}
func Call(name CallName, args ...*Expr) *Expr { return &Expr{Kind: ExprCall, Call: name, Args: args} }

// ValidateShape rejects structurally malformed nodes (missing operands
// for the node's kind) before evaluation, so Eval can assume well-formed
// input.
func ValidateShape(e *Expr) error {
	if e == nil {
		return xerrors.Validationf("expr", "nil expression")
	}
	switch e.Kind {
	case ExprBool, ExprString, ExprNumber, ExprVar, ExprCapabilityCheck:
		return nil
	case ExprNot:
		if e.Operand == nil {
			return xerrors.Validationf("expr", "not requires an operand")
		}
		return ValidateShape(e.Operand)
	case ExprAnd, ExprOr, ExprCompare:
		if e.Left == nil || e.Right == nil {
			return xerrors.Validationf("expr", "binary node requires two operands")
		}
		if err := ValidateShape(e.Left); err != nil {
			return err
		}
		return ValidateShape(e.Right)
	case ExprCall:
		for _, a := range e.Args {
			if err := ValidateShape(a); err != nil {
				return err
			}
		}
		return nil
	default:
		return xerrors.Validationf("expr", "unknown expression kind")
	}
}
