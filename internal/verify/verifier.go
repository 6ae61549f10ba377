// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package verify

import (
	"context"
	"fmt"
	"time"

	"github.com/aare-ai/aare-core/internal/apperr"
	"github.com/aare-ai/aare-core/internal/compiler"
	"github.com/aare-ai/aare-core/internal/extract"
	"github.com/aare-ai/aare-core/internal/ontology"
	"github.com/aare-ai/aare-core/internal/smt"
	"github.com/aare-ai/aare-core/internal/value"
)

// Verifier ties the extraction engine and a solver oracle together to
// produce Reports. It holds no per-request state; every field is
// read-only configuration shared across concurrent requests.
type Verifier struct {
	Solver         smt.Solver
	ConstraintTimeout time.Duration
}

// DefaultConstraintTimeout bounds how long a single constraint's solver
// check may run before the verifier reports it indeterminate rather than
// block the whole request on one hard formula.
const DefaultConstraintTimeout = 2 * time.Second

// New builds a Verifier with the given solver and default timeout.
func New(solver smt.Solver) *Verifier {
	return &Verifier{Solver: solver, ConstraintTimeout: DefaultConstraintTimeout}
}

// Verify extracts an Environment from text using o's extractors,
// compiles and checks every constraint in o independently (one fresh
// solver session per constraint, so one constraint's timeout or failure
// never contaminates another's), and assembles a Report.
//
// Per the concurrency model, constraints within one request are checked
// strictly sequentially — only ontology-list loading and cross-request
// handling are ever parallelized.
func (v *Verifier) Verify(ctx context.Context, o *ontology.Ontology, text string) (*Report, error) {
	return v.VerifyStream(ctx, o, text, nil)
}

// VerifyStream behaves exactly like Verify, but additionally invokes
// onViolation once a constraint's verdict is ready, before moving on to
// the next one — the hook the streaming websocket handler uses to push
// per-constraint progress to a connected client as soon as it is known,
// rather than waiting on the whole ontology to finish. onViolation may
// be nil, in which case this is Verify.
func (v *Verifier) VerifyStream(ctx context.Context, o *ontology.Ontology, text string, onViolation func(Violation)) (*Report, error) {
	start := time.Now()

	env, warnings := extract.Extract(text, o.Extractors)

	results := make([]Violation, 0, len(o.Constraints))
	violations := make([]Violation, 0, len(o.Constraints))
	for _, c := range o.Constraints {
		verdict, coercionWarnings := v.verifyOne(ctx, c, env)
		warnings = append(warnings, coercionWarnings...)
		results = append(results, verdict)
		if verdict.Status != StatusSatisfied {
			violations = append(violations, verdict)
		}
		if onViolation != nil {
			onViolation(verdict)
		}
	}

	name, version := v.Solver.Identity()
	report := &Report{
		VerificationID: newVerificationID(),
		Verified:       len(violations) == 0,
		Violations:     violations,
		Results:        results,
		ParsedData:     map[string]value.Value(env),
		Ontology: OntologyInfo{
			Name:               o.Name,
			Version:            o.Version,
			ConstraintsChecked: len(o.Constraints),
		},
		Proof:           ProofInfo{Method: name, Version: version},
		Timestamp:       time.Now().UTC(),
		ExecutionTimeMS: time.Since(start).Milliseconds(),
		Warnings:        warnings,
	}
	return report, nil
}

// verifyOne decides one constraint's verdict and reports any warnings
// raised while pinning its free variables to the environment.
func (v *Verifier) verifyOne(ctx context.Context, c ontology.Constraint, env extract.Environment) (Violation, []extract.Warning) {
	base := Violation{
		ConstraintID: c.ID,
		Category:     c.Category,
		ErrorMessage: c.ErrorMessage,
		Citation:     c.Citation,
		Readable:     c.Readable,
		Formula:      c.Formula,
		Bindings:     bindingsFor(c.Variables, env),
	}

	expr, free, err := compiler.Compile(c.ID, c.Formula, c.Variables)
	if err != nil {
		base.Status = StatusIndeterminate
		base.Reason = apperr.Wrap(apperr.KindCompileError, c.ID, err).Error()
		return base, nil
	}

	session, err := v.Solver.FreshContext()
	if err != nil {
		base.Status = StatusIndeterminate
		base.Reason = apperr.Wrap(apperr.KindInternal, c.ID, err).Error()
		return base, nil
	}
	defer session.Close()

	pinWarnings, err := pinEnvironment(session, c.ID, free, env)
	if err != nil {
		base.Status = StatusIndeterminate
		base.Reason = apperr.Wrap(apperr.KindInternal, c.ID, err).Error()
		return base, pinWarnings
	}

	// Assert the negation of the constraint: if the negation is
	// unsatisfiable, the constraint holds for every value consistent with
	// the pinned bindings (here, exactly one, since every free variable is
	// pinned to its extracted value).
	negated := compiler.Expr{Op: compiler.OpNot, Sort: compiler.SortBool, Args: []compiler.Expr{expr}}
	if err := session.Assert(negated); err != nil {
		base.Status = StatusIndeterminate
		base.Reason = apperr.Wrap(apperr.KindInternal, c.ID, err).Error()
		return base, pinWarnings
	}

	result, err := session.Check(ctx, v.ConstraintTimeout)
	if err != nil {
		base.Status = StatusIndeterminate
		base.Reason = apperr.Wrap(apperr.KindIndeterminate, c.ID, err).Error()
		return base, pinWarnings
	}

	switch result {
	case smt.Unsat:
		base.Status = StatusSatisfied
	case smt.Sat:
		base.Status = StatusViolated
	default:
		base.Status = StatusIndeterminate
		base.Reason = "solver returned unknown"
	}
	return base, pinWarnings
}

// pinEnvironment declares every free variable the compiled constraint
// references and asserts it equal to the extracted Value coerced to the
// variable's declared sort, closing the formula under the environment.
// A variable missing from the environment, or whose value can't coerce
// to the declared sort, is pinned to the sort's typed default instead —
// and reported back as a warning rather than silently substituted.
func pinEnvironment(session smt.Session, constraintID string, free []compiler.FreeVar, env extract.Environment) ([]extract.Warning, error) {
	var warnings []extract.Warning

	for _, fv := range free {
		if err := session.Declare(fv.Name, fv.Sort); err != nil {
			return warnings, err
		}

		v, ok := env[fv.Name]
		if !ok {
			warnings = append(warnings, extract.Warning{
				Extractor: fv.Name,
				Message:   fmt.Sprintf("constraint %s: %q was never extracted, substituting the %s default", constraintID, fv.Name, fv.Sort),
			})
			v = value.Default(fv.Sort.String())
		}
		coerced, ok := v.CoerceSort(fv.Sort.String())
		if !ok {
			warnings = append(warnings, extract.Warning{
				Extractor: fv.Name,
				Message:   fmt.Sprintf("constraint %s: %q could not be coerced to sort %s, substituting the default", constraintID, fv.Name, fv.Sort),
			})
			coerced = value.Default(fv.Sort.String())
		}

		var constExpr compiler.Expr
		switch fv.Sort {
		case compiler.SortBool:
			constExpr = compiler.Expr{Op: compiler.OpConstBool, Sort: compiler.SortBool, BoolVal: coerced.Bool}
		case compiler.SortInt:
			constExpr = compiler.Expr{Op: compiler.OpConstInt, Sort: compiler.SortInt, IntVal: coerced.Int}
		case compiler.SortReal:
			f, _ := coerced.Real.Float64()
			constExpr = compiler.Expr{Op: compiler.OpConstReal, Sort: compiler.SortReal, RealVal: f}
		}

		varExpr := compiler.Expr{Op: compiler.OpVar, Sort: fv.Sort, VarName: fv.Name}
		eq := compiler.Expr{Op: compiler.OpEq, Sort: compiler.SortBool, Args: []compiler.Expr{varExpr, constExpr}}
		if err := session.Assert(eq); err != nil {
			return warnings, err
		}
	}
	return warnings, nil
}

func bindingsFor(decls []ontology.VariableDecl, env extract.Environment) map[string]interface{} {
	out := make(map[string]interface{}, len(decls))
	for _, d := range decls {
		v, ok := env[d.Name]
		if !ok {
			out[d.Name] = nil
			continue
		}
		out[d.Name] = v
	}
	return out
}
