// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package smt defines the black-box solver oracle the verifier drives —
// fresh_context/declare/assert/check — and the one production binding
// (Z3Solver, over github.com/mitchellh/go-z3). The verifier never
// imports go-z3 directly; it only ever sees the Solver interface, so its
// control flow (timeout handling, reset-between-constraints) is testable
// against FakeSolver without a real solver present.
package smt

import (
	"context"
	"time"

	"github.com/aare-ai/aare-core/internal/compiler"
)

// Result is the solver's verdict for one check() call.
type Result int

const (
	Unsat Result = iota
	Sat
	Unknown
)

// Session is one logical solver context, scoped to a single constraint
// check. The verifier MUST NOT share a Session across goroutines; it
// opens a fresh one for each constraint and releases it on every exit
// path (success, violation, timeout, panic).
type Session interface {
	// Declare introduces a free constant of the given sort into this
	// session. Names must be unique within a session.
	Declare(name string, sort compiler.Sort) error

	// Assert adds e (which must be Boolean-sorted) as a hard constraint.
	Assert(e compiler.Expr) error

	// Check decides satisfiability of the conjunction of all asserted
	// expressions, aborting with Unknown if timeout elapses first.
	Check(ctx context.Context, timeout time.Duration) (Result, error)

	// Close releases solver-native resources. Safe to call more than once.
	Close() error
}

// Solver is the oracle the verifier is coupled to.
type Solver interface {
	// FreshContext opens a new, empty Session.
	FreshContext() (Session, error)

	// Identity names the solver and its version, echoed in the
	// verification report's proof.method/proof.version fields.
	Identity() (name, version string)
}
