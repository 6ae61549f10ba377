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

	z3 "github.com/mitchellh/go-z3"

	"github.com/aare-ai/aare-core/internal/compiler"
)

// z3Version is reported in verification reports' proof.version field.
// go-z3 does not expose the linked libz3's version string, so this is a
// fixed label for the binding itself.
const z3Version = "z3-4.x (go-z3 binding)"

// Z3Solver is the production Solver, backed by Microsoft's Z3 through
// github.com/mitchellh/go-z3's cgo bindings.
type Z3Solver struct{}

func NewZ3Solver() *Z3Solver { return &Z3Solver{} }

func (*Z3Solver) Identity() (string, string) { return "z3", z3Version }

func (*Z3Solver) FreshContext() (Session, error) {
	cfg := z3.NewConfig()
	ctx := z3.NewContext(cfg)
	cfg.Close()

	return &z3Session{
		ctx:     ctx,
		solver:  ctx.NewSolver(),
		symbols: map[string]*z3.AST{},
		sorts:   map[string]compiler.Sort{},
	}, nil
}

type z3Session struct {
	ctx     *z3.Context
	solver  *z3.Solver
	symbols map[string]*z3.AST
	sorts   map[string]compiler.Sort
	closed  bool
}

func (s *z3Session) Declare(name string, sort compiler.Sort) error {
	if _, exists := s.symbols[name]; exists {
		return fmt.Errorf("z3 session: %q already declared", name)
	}
	var zsort *z3.Sort
	switch sort {
	case compiler.SortBool:
		zsort = s.ctx.BoolSort()
	case compiler.SortInt:
		zsort = s.ctx.IntSort()
	case compiler.SortReal:
		zsort = s.ctx.RealSort()
	default:
		return fmt.Errorf("z3 session: unknown sort %v", sort)
	}
	sym := s.ctx.Symbol(name)
	c := s.ctx.Const(sym, zsort)
	s.symbols[name] = c
	s.sorts[name] = sort
	return nil
}

func (s *z3Session) Assert(e compiler.Expr) error {
	ast, err := s.lower(e)
	if err != nil {
		return err
	}
	s.solver.Assert(ast)
	return nil
}

func (s *z3Session) lower(e compiler.Expr) (*z3.AST, error) {
	switch e.Op {
	case compiler.OpConstBool:
		if e.BoolVal {
			return s.ctx.True(), nil
		}
		return s.ctx.False(), nil
	case compiler.OpConstInt:
		return s.ctx.Int(int(e.IntVal), s.ctx.IntSort()), nil
	case compiler.OpConstReal:
		return s.ctx.Real(e.RealVal, s.ctx.RealSort()), nil
	case compiler.OpVar:
		ast, ok := s.symbols[e.VarName]
		if !ok {
			return nil, fmt.Errorf("z3 session: variable %q referenced before Declare", e.VarName)
		}
		return ast, nil
	}

	args := make([]*z3.AST, len(e.Args))
	for i, a := range e.Args {
		lowered, err := s.lower(a)
		if err != nil {
			return nil, err
		}
		args[i] = lowered
	}

	switch e.Op {
	case compiler.OpAnd:
		return s.ctx.And(args...), nil
	case compiler.OpOr:
		return s.ctx.Or(args...), nil
	case compiler.OpNot:
		return args[0].Not(), nil
	case compiler.OpIte:
		return args[0].Ite(args[1], args[2]), nil
	case compiler.OpEq:
		return args[0].Eq(args[1]), nil
	case compiler.OpNe:
		return args[0].Eq(args[1]).Not(), nil
	case compiler.OpLt:
		return args[0].Lt(args[1]), nil
	case compiler.OpLe:
		return args[0].Le(args[1]), nil
	case compiler.OpGt:
		return args[0].Gt(args[1]), nil
	case compiler.OpGe:
		return args[0].Ge(args[1]), nil
	case compiler.OpAdd:
		return s.ctx.Add(args...), nil
	case compiler.OpMul:
		return s.ctx.Mul(args...), nil
	case compiler.OpSub:
		return args[0].Sub(args[1]), nil
	case compiler.OpDiv:
		return args[0].Div(args[1]), nil
	case compiler.OpMin:
		return args[0].Lt(args[1]).Ite(args[0], args[1]), nil
	case compiler.OpMax:
		return args[0].Gt(args[1]).Ite(args[0], args[1]), nil
	default:
		return nil, fmt.Errorf("z3 session: unsupported op %v", e.Op)
	}
}

// Check runs z3's decision procedure on a background goroutine so a
// wall-clock timeout can be enforced even though go-z3's Check() call
// itself is not cancelable mid-flight. On timeout or context cancellation
// Check returns Unknown with an error while the background Check keeps
// running; the z3 context is released only when the caller calls Close.
func (s *z3Session) Check(ctx context.Context, timeout time.Duration) (Result, error) {
	type outcome struct {
		sat z3.Lbool
	}
	done := make(chan outcome, 1)
	go func() {
		done <- outcome{sat: s.solver.Check()}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case o := <-done:
		switch o.sat {
		case z3.True:
			return Sat, nil
		case z3.False:
			return Unsat, nil
		default:
			return Unknown, nil
		}
	case <-timer.C:
		return Unknown, fmt.Errorf("solver timed out after %s", timeout)
	case <-ctx.Done():
		return Unknown, ctx.Err()
	}
}

func (s *z3Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.solver.Close()
	s.ctx.Close()
	return nil
}
