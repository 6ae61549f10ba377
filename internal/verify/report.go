// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package verify implements the SMT Verifier: it drives extraction and
// compilation for one ontology against one document, proves or refutes
// each constraint in a fresh solver session, and assembles the result
// into a Report.
package verify

import (
	"time"

	"github.com/google/uuid"

	"github.com/aare-ai/aare-core/internal/extract"
	"github.com/aare-ai/aare-core/internal/ontology"
	"github.com/aare-ai/aare-core/internal/value"
)

// Status is the per-constraint verdict.
type Status string

const (
	StatusSatisfied    Status = "satisfied"
	StatusViolated      Status = "violated"
	StatusIndeterminate Status = "indeterminate"
)

// Violation describes the verdict on one constraint. The verifier builds
// one for every constraint, satisfied ones included (they appear in
// Results and in the stream callback); Violations holds only the
// violated and indeterminate ones.
type Violation struct {
	ConstraintID string                 `json:"constraint_id"`
	Category     string                 `json:"category"`
	Status       Status                 `json:"status"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	Citation     string                 `json:"citation,omitempty"`
	Readable     string                 `json:"readable,omitempty"`
	Formula      ontology.FormulaNode   `json:"formula"`
	Bindings     map[string]interface{} `json:"bindings"`
	Reason       string                 `json:"reason,omitempty"`
}

// OntologyInfo is the report's nested ontology metadata: the name and
// version of the document checked, and how many of its constraints were
// evaluated.
type OntologyInfo struct {
	Name               string `json:"name"`
	Version            string `json:"version"`
	ConstraintsChecked int    `json:"constraints_checked"`
}

// ProofInfo names the solver backend that decided every constraint in
// this report.
type ProofInfo struct {
	Method  string `json:"method"`
	Version string `json:"version"`
}

// Report is the full result of one verification request.
type Report struct {
	VerificationID string    `json:"verification_id"`
	Verified       bool      `json:"verified"`
	Violations     []Violation `json:"violations"`
	ParsedData     map[string]value.Value `json:"parsed_data"`
	Ontology       OntologyInfo `json:"ontology"`
	Proof          ProofInfo    `json:"proof"`
	Timestamp      time.Time    `json:"timestamp"`
	ExecutionTimeMS int64       `json:"execution_time_ms"`
	Warnings       []extract.Warning `json:"warnings,omitempty"`

	// Results carries every constraint's verdict, satisfied included —
	// unlike Violations, which per spec only ever holds the
	// violated/indeterminate subset. Not part of the wire format; it
	// exists for callers (the CLI's report printer, Summary below) that
	// want the full per-constraint breakdown.
	Results []Violation `json:"-"`
}

// Summary counts every constraint's verdict by status, for a quick
// pass/fail read of a Report without walking Results by hand.
func (r *Report) Summary() (satisfied, violated, indeterminate int) {
	for _, v := range r.Results {
		switch v.Status {
		case StatusSatisfied:
			satisfied++
		case StatusViolated:
			violated++
		case StatusIndeterminate:
			indeterminate++
		}
	}
	return
}

func newVerificationID() string {
	return uuid.NewString()
}
