// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package compiler

import (
	"fmt"

	"github.com/aare-ai/aare-core/internal/ontology"
)

// Compile translates a validated formula tree into a sort-checked Expr,
// using decls to resolve the sort of every bare variable reference.
// Compile is a pure function of (node, decls): it does not read an
// environment, so well-formedness can be checked once at ontology load
// time without a verification request in hand. Binding the resulting
// Expr's free variables to concrete values is the verifier's job (it
// asserts pinning equalities in a fresh solver session).
//
// Compile rejects any bare variable name absent from decls, and any
// operator used with the wrong arity or incompatible operand sorts.
func Compile(constraintID string, node ontology.FormulaNode, decls []ontology.VariableDecl) (Expr, []FreeVar, error) {
	declIndex, err := indexDecls(decls)
	if err != nil {
		return Expr{}, nil, &CompileError{ConstraintID: constraintID, Reason: err.Error()}
	}
	free := map[string]FreeVar{}
	expr, err := compileNode(node, declIndex, free)
	if err != nil {
		return Expr{}, nil, &CompileError{ConstraintID: constraintID, Reason: err.Error()}
	}
	if expr.Sort != SortBool {
		return Expr{}, nil, &CompileError{ConstraintID: constraintID, Reason: "constraint formula must be Boolean-sorted"}
	}
	out := make([]FreeVar, 0, len(free))
	for _, fv := range free {
		out = append(out, fv)
	}
	return expr, out, nil
}

func indexDecls(decls []ontology.VariableDecl) (map[string]Sort, error) {
	idx := make(map[string]Sort, len(decls))
	for _, d := range decls {
		sort, ok := sortFromDecl(d.Sort)
		if !ok {
			return nil, fmt.Errorf("variable %q: unknown sort %q", d.Name, d.Sort)
		}
		if existing, seen := idx[d.Name]; seen {
			return nil, fmt.Errorf("variable %q declared more than once (sorts %s and %s)", d.Name, existing, sort)
		}
		idx[d.Name] = sort
	}
	return idx, nil
}

func compileNode(n ontology.FormulaNode, decls map[string]Sort, free map[string]FreeVar) (Expr, error) {
	switch n.Op {
	case "var":
		sort, ok := decls[n.Operand]
		if !ok {
			return Expr{}, fmt.Errorf("variable %q is not declared for this constraint", n.Operand)
		}
		free[n.Operand] = FreeVar{Name: n.Operand, Sort: sort}
		return Expr{Op: OpVar, Sort: sort, VarName: n.Operand}, nil

	case "const":
		switch {
		case n.Lit.IsBool:
			return constBool(n.Lit.Bool), nil
		case n.Lit.IsReal:
			return constReal(n.Lit.Real), nil
		default:
			return constInt(n.Lit.Int), nil
		}

	case "and", "or":
		if len(n.Args) < 1 {
			return Expr{}, fmt.Errorf("%q requires at least one operand", n.Op)
		}
		args, err := compileAll(n.Args, decls, free)
		if err != nil {
			return Expr{}, err
		}
		for i, a := range args {
			if a.Sort != SortBool {
				return Expr{}, fmt.Errorf("%q operand %d must be Boolean", n.Op, i)
			}
		}
		op := OpAnd
		if n.Op == "or" {
			op = OpOr
		}
		return Expr{Op: op, Sort: SortBool, Args: args}, nil

	case "not":
		if len(n.Args) != 1 {
			return Expr{}, fmt.Errorf("%q requires exactly one operand, got %d", n.Op, len(n.Args))
		}
		args, err := compileAll(n.Args, decls, free)
		if err != nil {
			return Expr{}, err
		}
		if args[0].Sort != SortBool {
			return Expr{}, fmt.Errorf("%q operand must be Boolean", n.Op)
		}
		return Expr{Op: OpNot, Sort: SortBool, Args: args}, nil

	case "implies":
		if len(n.Args) != 2 {
			return Expr{}, fmt.Errorf("%q requires exactly two operands, got %d", n.Op, len(n.Args))
		}
		args, err := compileAll(n.Args, decls, free)
		if err != nil {
			return Expr{}, err
		}
		if args[0].Sort != SortBool || args[1].Sort != SortBool {
			return Expr{}, fmt.Errorf("%q operands must be Boolean", n.Op)
		}
		// implies(a, b) == or(not(a), b), per the algebraic law in spec.md §8.7.
		return Expr{Op: OpOr, Sort: SortBool, Args: []Expr{
			{Op: OpNot, Sort: SortBool, Args: []Expr{args[0]}},
			args[1],
		}}, nil

	case "ite", "if":
		if len(n.Args) != 3 {
			return Expr{}, fmt.Errorf("%q requires exactly three operands, got %d", n.Op, len(n.Args))
		}
		args, err := compileAll(n.Args, decls, free)
		if err != nil {
			return Expr{}, err
		}
		if args[0].Sort != SortBool {
			return Expr{}, fmt.Errorf("%q condition must be Boolean", n.Op)
		}
		then, els := args[1], args[2]
		branchSort, err := unifySort(then.Sort, els.Sort)
		if err != nil {
			return Expr{}, fmt.Errorf("%q branches: %w", n.Op, err)
		}
		then = promote(then, branchSort)
		els = promote(els, branchSort)
		return Expr{Op: OpIte, Sort: branchSort, Args: []Expr{args[0], then, els}}, nil

	case "==", "!=":
		if len(n.Args) != 2 {
			return Expr{}, fmt.Errorf("%q requires exactly two operands, got %d", n.Op, len(n.Args))
		}
		args, err := compileAll(n.Args, decls, free)
		if err != nil {
			return Expr{}, err
		}
		a, b := args[0], args[1]
		if a.Sort == SortBool || b.Sort == SortBool {
			if a.Sort != SortBool || b.Sort != SortBool {
				return Expr{}, fmt.Errorf("%q: cannot compare Boolean with numeric", n.Op)
			}
		} else {
			target, err := unifySort(a.Sort, b.Sort)
			if err != nil {
				return Expr{}, fmt.Errorf("%q: %w", n.Op, err)
			}
			a, b = promote(a, target), promote(b, target)
		}
		op := OpEq
		if n.Op == "!=" {
			op = OpNe
		}
		return Expr{Op: op, Sort: SortBool, Args: []Expr{a, b}}, nil

	case "<", "<=", ">", ">=":
		if len(n.Args) != 2 {
			return Expr{}, fmt.Errorf("%q requires exactly two operands, got %d", n.Op, len(n.Args))
		}
		args, err := compileAll(n.Args, decls, free)
		if err != nil {
			return Expr{}, err
		}
		if args[0].Sort == SortBool || args[1].Sort == SortBool {
			return Expr{}, fmt.Errorf("%q: operands must be numeric", n.Op)
		}
		target, err := unifySort(args[0].Sort, args[1].Sort)
		if err != nil {
			return Expr{}, fmt.Errorf("%q: %w", n.Op, err)
		}
		a, b := promote(args[0], target), promote(args[1], target)
		var op Op
		switch n.Op {
		case "<":
			op = OpLt
		case "<=":
			op = OpLe
		case ">":
			op = OpGt
		default:
			op = OpGe
		}
		return Expr{Op: op, Sort: SortBool, Args: []Expr{a, b}}, nil

	case "+", "*":
		if len(n.Args) < 1 {
			return Expr{}, fmt.Errorf("%q requires at least one operand", n.Op)
		}
		args, err := compileAll(n.Args, decls, free)
		if err != nil {
			return Expr{}, err
		}
		target := SortInt
		for _, a := range args {
			if a.Sort == SortBool {
				return Expr{}, fmt.Errorf("%q: operands must be numeric", n.Op)
			}
			if a.Sort == SortReal {
				target = SortReal
			}
		}
		for i := range args {
			args[i] = promote(args[i], target)
		}
		op := OpAdd
		if n.Op == "*" {
			op = OpMul
		}
		return Expr{Op: op, Sort: target, Args: args}, nil

	case "-", "/", "min", "max":
		if len(n.Args) != 2 {
			return Expr{}, fmt.Errorf("%q requires exactly two operands, got %d", n.Op, len(n.Args))
		}
		args, err := compileAll(n.Args, decls, free)
		if err != nil {
			return Expr{}, err
		}
		if args[0].Sort == SortBool || args[1].Sort == SortBool {
			return Expr{}, fmt.Errorf("%q: operands must be numeric", n.Op)
		}
		target, err := unifySort(args[0].Sort, args[1].Sort)
		if err != nil {
			return Expr{}, fmt.Errorf("%q: %w", n.Op, err)
		}
		a, b := promote(args[0], target), promote(args[1], target)
		var op Op
		switch n.Op {
		case "-":
			op = OpSub
		case "/":
			op = OpDiv
		case "min":
			op = OpMin
		default:
			op = OpMax
		}
		return Expr{Op: op, Sort: target, Args: []Expr{a, b}}, nil

	default:
		return Expr{}, fmt.Errorf("unrecognized operator %q", n.Op)
	}
}

func compileAll(nodes []ontology.FormulaNode, decls map[string]Sort, free map[string]FreeVar) ([]Expr, error) {
	out := make([]Expr, len(nodes))
	for i, n := range nodes {
		e, err := compileNode(n, decls, free)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

// unifySort implements "mixed-sort arithmetic promotes to Real": two
// numeric sorts unify to the wider of the two; Bool never unifies.
func unifySort(a, b Sort) (Sort, error) {
	if a == SortBool || b == SortBool {
		return 0, fmt.Errorf("cannot unify Boolean with numeric sort")
	}
	if a == SortReal || b == SortReal {
		return SortReal, nil
	}
	return SortInt, nil
}

func promote(e Expr, target Sort) Expr {
	if e.Sort == target {
		return e
	}
	// Only Int -> Real widening is ever needed; Bool never reaches here.
	if e.Op == OpConstInt && target == SortReal {
		return constReal(float64(e.IntVal))
	}
	return Expr{Op: e.Op, Sort: target, VarName: e.VarName, BoolVal: e.BoolVal, IntVal: e.IntVal, RealVal: e.RealVal, Args: e.Args}
}
