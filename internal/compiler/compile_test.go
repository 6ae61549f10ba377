// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package compiler

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aare-ai/aare-core/internal/ontology"
)

func mustFormula(t *testing.T, js string) ontology.FormulaNode {
	t.Helper()
	var n ontology.FormulaNode
	require.NoError(t, json.Unmarshal([]byte(js), &n))
	return n
}

func TestCompile_SimpleComparison(t *testing.T) {
	node := mustFormula(t, `{"<=": ["rent", 5000]}`)
	decls := []ontology.VariableDecl{{Name: "rent", Sort: "real"}}

	expr, free, err := Compile("rent-cap", node, decls)
	require.NoError(t, err)
	assert.Equal(t, OpLe, expr.Op)
	assert.Equal(t, SortBool, expr.Sort)
	require.Len(t, free, 1)
	assert.Equal(t, "rent", free[0].Name)
	assert.Equal(t, SortReal, free[0].Sort)
}

func TestCompile_MixedIntRealPromotesToReal(t *testing.T) {
	node := mustFormula(t, `{"+": ["rent", 1.5]}`)
	decls := []ontology.VariableDecl{{Name: "rent", Sort: "int"}}

	expr, _, err := Compile("c1", node, decls)
	require.NoError(t, err)
	assert.Equal(t, SortReal, expr.Sort)
}

func TestCompile_UndeclaredVariableFails(t *testing.T) {
	node := mustFormula(t, `{"<": ["rent", 5000]}`)
	_, _, err := Compile("c1", node, nil)
	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "c1", ce.ConstraintID)
}

func TestCompile_DuplicateVariableDeclarationFails(t *testing.T) {
	node := mustFormula(t, `{"<": ["rent", 5000]}`)
	decls := []ontology.VariableDecl{
		{Name: "rent", Sort: "int"},
		{Name: "rent", Sort: "real"},
	}
	_, _, err := Compile("c1", node, decls)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declared more than once")
}

func TestCompile_ImpliesDesugarsToOrNot(t *testing.T) {
	node := mustFormula(t, `{"implies": [true, false]}`)
	expr, _, err := Compile("c1", node, nil)
	require.NoError(t, err)
	assert.Equal(t, OpOr, expr.Op)
	require.Len(t, expr.Args, 2)
	assert.Equal(t, OpNot, expr.Args[0].Op)
}

func TestCompile_IteUnifiesBranchSorts(t *testing.T) {
	node := mustFormula(t, `{"ite": [true, 1, 2.5]}`)
	expr, _, err := Compile("c1", node, nil)
	require.NoError(t, err)
	assert.Equal(t, SortReal, expr.Sort)
	assert.Equal(t, OpConstReal, expr.Args[1].Op)
}

func TestCompile_ComparingBoolToNumericFails(t *testing.T) {
	node := mustFormula(t, `{"==": [true, 1]}`)
	_, _, err := Compile("c1", node, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot compare")
}

func TestCompile_NonBooleanTopLevelFormulaFails(t *testing.T) {
	node := mustFormula(t, `5`)
	_, _, err := Compile("c1", node, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Boolean-sorted")
}

func TestCompile_AndRequiresBooleanOperands(t *testing.T) {
	node := mustFormula(t, `{"and": [true, 5]}`)
	_, _, err := Compile("c1", node, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be Boolean")
}
