// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package smt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aare-ai/aare-core/internal/compiler"
)

func pinVar(name string, sort compiler.Sort, val compiler.Expr) compiler.Expr {
	return compiler.Expr{
		Op:   compiler.OpEq,
		Sort: compiler.SortBool,
		Args: []compiler.Expr{{Op: compiler.OpVar, Sort: sort, VarName: name}, val},
	}
}

func TestFakeSolver_Identity(t *testing.T) {
	name, version := (&FakeSolver{}).Identity()
	assert.Equal(t, "fake", name)
	assert.Equal(t, "test", version)
}

func TestFakeSolver_EvaluatesPinnedComparison(t *testing.T) {
	solver := &FakeSolver{}
	session, err := solver.FreshContext()
	require.NoError(t, err)
	defer session.Close()

	require.NoError(t, session.Declare("rent", compiler.SortReal))
	require.NoError(t, session.Assert(pinVar("rent", compiler.SortReal, compiler.Expr{Op: compiler.OpConstReal, Sort: compiler.SortReal, RealVal: 6000})))

	negated := compiler.Expr{
		Op:   compiler.OpNot,
		Sort: compiler.SortBool,
		Args: []compiler.Expr{{
			Op:   compiler.OpLe,
			Sort: compiler.SortBool,
			Args: []compiler.Expr{
				{Op: compiler.OpVar, Sort: compiler.SortReal, VarName: "rent"},
				{Op: compiler.OpConstReal, Sort: compiler.SortReal, RealVal: 5000},
			},
		}},
	}
	require.NoError(t, session.Assert(negated))

	result, err := session.Check(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, Sat, result, "6000 > 5000, so the negated <=5000 constraint is satisfiable")
}

func TestFakeSolver_UnsatWhenNegationIsUnsatisfiable(t *testing.T) {
	solver := &FakeSolver{}
	session, err := solver.FreshContext()
	require.NoError(t, err)
	defer session.Close()

	require.NoError(t, session.Declare("rent", compiler.SortReal))
	require.NoError(t, session.Assert(pinVar("rent", compiler.SortReal, compiler.Expr{Op: compiler.OpConstReal, Sort: compiler.SortReal, RealVal: 4000})))

	negated := compiler.Expr{
		Op:   compiler.OpNot,
		Sort: compiler.SortBool,
		Args: []compiler.Expr{{
			Op:   compiler.OpLe,
			Sort: compiler.SortBool,
			Args: []compiler.Expr{
				{Op: compiler.OpVar, Sort: compiler.SortReal, VarName: "rent"},
				{Op: compiler.OpConstReal, Sort: compiler.SortReal, RealVal: 5000},
			},
		}},
	}
	require.NoError(t, session.Assert(negated))

	result, err := session.Check(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, Unsat, result, "4000 <= 5000, so the negation is unsatisfiable")
}

func TestFakeSolver_ForceUnknown(t *testing.T) {
	solver := &FakeSolver{ForceUnknown: true}
	session, err := solver.FreshContext()
	require.NoError(t, err)
	defer session.Close()

	result, err := session.Check(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, Unknown, result)
}

func TestFakeSolver_DelayPastTimeoutReturnsUnknown(t *testing.T) {
	solver := &FakeSolver{Delay: 50 * time.Millisecond}
	session, err := solver.FreshContext()
	require.NoError(t, err)
	defer session.Close()

	_, err = session.Check(context.Background(), 5*time.Millisecond)
	assert.Error(t, err)
}

func TestFakeSolver_UnpinnedVariableErrors(t *testing.T) {
	solver := &FakeSolver{}
	session, err := solver.FreshContext()
	require.NoError(t, err)
	defer session.Close()

	require.NoError(t, session.Declare("rent", compiler.SortReal))
	require.NoError(t, session.Assert(compiler.Expr{
		Op:   compiler.OpLe,
		Sort: compiler.SortBool,
		Args: []compiler.Expr{
			{Op: compiler.OpVar, Sort: compiler.SortReal, VarName: "rent"},
			{Op: compiler.OpConstReal, Sort: compiler.SortReal, RealVal: 5000},
		},
	}))

	_, err = session.Check(context.Background(), time.Second)
	assert.Error(t, err)
}
