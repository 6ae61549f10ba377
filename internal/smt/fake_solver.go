// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package smt

import (
	"context"
	"fmt"
	"time"

	"github.com/aare-ai/aare-core/internal/compiler"
)

// FakeSolver evaluates the asserted expressions directly in Go rather
// than through a real SMT engine. It supports only the closed,
// variable-free conjunctions the verifier ever builds (every Declare is
// immediately pinned by an equality assertion), which is sufficient to
// exercise the verifier's control flow without a solver dependency.
type FakeSolver struct {
	// Delay, if set, is slept before returning from Check, so tests can
	// exercise the timeout path deterministically.
	Delay time.Duration
	// ForceUnknown makes every Check report Unknown regardless of the
	// asserted formulas, to test the indeterminate path explicitly.
	ForceUnknown bool
}

func (*FakeSolver) Identity() (string, string) { return "fake", "test" }

func (f *FakeSolver) FreshContext() (Session, error) {
	return &fakeSession{parent: f, bindings: map[string]compiler.Expr{}}, nil
}

type fakeSession struct {
	parent    *FakeSolver
	bindings  map[string]compiler.Expr
	asserted  []compiler.Expr
	sorts     map[string]compiler.Sort
}

func (s *fakeSession) Declare(name string, sort compiler.Sort) error {
	if s.sorts == nil {
		s.sorts = map[string]compiler.Sort{}
	}
	s.sorts[name] = sort
	return nil
}

func (s *fakeSession) Assert(e compiler.Expr) error {
	// A top-level equality between a declared var and a constant is
	// treated as a pinning binding; everything else is a plain conjunct.
	if e.Op == compiler.OpEq && len(e.Args) == 2 {
		if e.Args[0].Op == compiler.OpVar && isConst(e.Args[1]) {
			s.bindings[e.Args[0].VarName] = e.Args[1]
			return nil
		}
		if e.Args[1].Op == compiler.OpVar && isConst(e.Args[0]) {
			s.bindings[e.Args[1].VarName] = e.Args[0]
			return nil
		}
	}
	s.asserted = append(s.asserted, e)
	return nil
}

func isConst(e compiler.Expr) bool {
	switch e.Op {
	case compiler.OpConstBool, compiler.OpConstInt, compiler.OpConstReal:
		return true
	}
	return false
}

func (s *fakeSession) Check(ctx context.Context, timeout time.Duration) (Result, error) {
	if s.parent.Delay > 0 {
		select {
		case <-time.After(s.parent.Delay):
		case <-time.After(timeout):
			return Unknown, fmt.Errorf("solver timed out after %s", timeout)
		case <-ctx.Done():
			return Unknown, ctx.Err()
		}
	}
	if s.parent.ForceUnknown {
		return Unknown, nil
	}

	for _, e := range s.asserted {
		v, err := s.eval(e)
		if err != nil {
			return Unknown, err
		}
		if !v {
			return Unsat, nil
		}
	}
	return Sat, nil
}

func (s *fakeSession) eval(e compiler.Expr) (bool, error) {
	v, err := s.evalValue(e)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("fake solver: expected Boolean result")
	}
	return b, nil
}

func (s *fakeSession) evalValue(e compiler.Expr) (interface{}, error) {
	switch e.Op {
	case compiler.OpConstBool:
		return e.BoolVal, nil
	case compiler.OpConstInt:
		return float64(e.IntVal), nil
	case compiler.OpConstReal:
		return e.RealVal, nil
	case compiler.OpVar:
		bound, ok := s.bindings[e.VarName]
		if !ok {
			return nil, fmt.Errorf("fake solver: %q never pinned by an equality assertion", e.VarName)
		}
		return s.evalValue(bound)
	}

	vals := make([]interface{}, len(e.Args))
	for i, a := range e.Args {
		v, err := s.evalValue(a)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}

	switch e.Op {
	case compiler.OpNot:
		return !vals[0].(bool), nil
	case compiler.OpAnd:
		for _, v := range vals {
			if !v.(bool) {
				return false, nil
			}
		}
		return true, nil
	case compiler.OpOr:
		for _, v := range vals {
			if v.(bool) {
				return true, nil
			}
		}
		return false, nil
	case compiler.OpIte:
		if vals[0].(bool) {
			return vals[1], nil
		}
		return vals[2], nil
	case compiler.OpEq:
		return numEq(vals[0], vals[1]) || vals[0] == vals[1], nil
	case compiler.OpNe:
		return !(numEq(vals[0], vals[1]) || vals[0] == vals[1]), nil
	case compiler.OpLt:
		return asFloat(vals[0]) < asFloat(vals[1]), nil
	case compiler.OpLe:
		return asFloat(vals[0]) <= asFloat(vals[1]), nil
	case compiler.OpGt:
		return asFloat(vals[0]) > asFloat(vals[1]), nil
	case compiler.OpGe:
		return asFloat(vals[0]) >= asFloat(vals[1]), nil
	case compiler.OpAdd:
		sum := 0.0
		for _, v := range vals {
			sum += asFloat(v)
		}
		return sum, nil
	case compiler.OpMul:
		prod := 1.0
		for _, v := range vals {
			prod *= asFloat(v)
		}
		return prod, nil
	case compiler.OpSub:
		return asFloat(vals[0]) - asFloat(vals[1]), nil
	case compiler.OpDiv:
		return asFloat(vals[0]) / asFloat(vals[1]), nil
	case compiler.OpMin:
		if asFloat(vals[0]) < asFloat(vals[1]) {
			return vals[0], nil
		}
		return vals[1], nil
	case compiler.OpMax:
		if asFloat(vals[0]) > asFloat(vals[1]) {
			return vals[0], nil
		}
		return vals[1], nil
	default:
		return nil, fmt.Errorf("fake solver: unsupported op %v", e.Op)
	}
}

func asFloat(v interface{}) float64 {
	if f, ok := v.(float64); ok {
		return f
	}
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return 0
}

func numEq(a, b interface{}) bool {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	return aok && bok && af == bf
}

func (s *fakeSession) Close() error { return nil }
