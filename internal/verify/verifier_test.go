// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package verify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aare-ai/aare-core/internal/ontology"
	"github.com/aare-ai/aare-core/internal/smt"
)

func mustOntology(t *testing.T, js string) *ontology.Ontology {
	t.Helper()
	var o ontology.Ontology
	require.NoError(t, json.Unmarshal([]byte(js), &o))
	require.NoError(t, ontology.Validate(&o))
	return &o
}

const rentCapOntology = `{
	"name": "lease-terms",
	"version": "1.0.0",
	"extractors": {
		"rent": {"kind": "money", "pattern": "rent of (\\$[0-9,.]+)"}
	},
	"constraints": [
		{
			"id": "rent-below-cap",
			"category": "financial",
			"formula": {"<=": ["rent", 5000]},
			"variables": [{"name": "rent", "sort": "real"}],
			"error_message": "rent exceeds the $5,000 cap"
		}
	]
}`

func TestVerify_SatisfiedConstraint(t *testing.T) {
	o := mustOntology(t, rentCapOntology)
	v := New(&smt.FakeSolver{})

	report, err := v.Verify(context.Background(), o, "The monthly rent of $2,500.00 is due on the first.")
	require.NoError(t, err)
	assert.True(t, report.Verified)
	assert.Empty(t, report.Violations)
	require.Len(t, report.Results, 1)
	assert.Equal(t, StatusSatisfied, report.Results[0].Status)
	satisfied, violated, indeterminate := report.Summary()
	assert.Equal(t, 1, satisfied)
	assert.Equal(t, 0, violated)
	assert.Equal(t, 0, indeterminate)
}

func TestVerify_ViolatedConstraint(t *testing.T) {
	o := mustOntology(t, rentCapOntology)
	v := New(&smt.FakeSolver{})

	report, err := v.Verify(context.Background(), o, "The monthly rent of $8,500.00 is due on the first.")
	require.NoError(t, err)
	assert.False(t, report.Verified)
	require.Len(t, report.Violations, 1)
	assert.Equal(t, StatusViolated, report.Violations[0].Status)
	assert.Equal(t, "rent exceeds the $5,000 cap", report.Violations[0].ErrorMessage)
}

func TestVerify_MissingExtractionUsesTypedDefault(t *testing.T) {
	o := mustOntology(t, rentCapOntology)
	v := New(&smt.FakeSolver{})

	// No rent figure anywhere in the text: rent defaults to 0, which
	// satisfies "<= 5000".
	report, err := v.Verify(context.Background(), o, "This document mentions no monetary figures.")
	require.NoError(t, err)
	assert.True(t, report.Verified)
	require.Len(t, report.Results, 1)
	assert.Equal(t, StatusSatisfied, report.Results[0].Status)
}

func TestVerify_MissingVariablePinWarnsWithoutExtractor(t *testing.T) {
	o := mustOntology(t, `{
		"name": "lease-terms",
		"version": "1.0.0",
		"extractors": {},
		"constraints": [
			{
				"id": "rent-below-cap",
				"category": "financial",
				"formula": {"<=": ["rent", 5000]},
				"variables": [{"name": "rent", "sort": "real"}],
				"error_message": "rent exceeds the $5,000 cap"
			}
		]
	}`)
	v := New(&smt.FakeSolver{})

	report, err := v.Verify(context.Background(), o, "no extractor declares rent at all")
	require.NoError(t, err)
	require.NotEmpty(t, report.Warnings)
	found := false
	for _, w := range report.Warnings {
		if w.Extractor == "rent" {
			found = true
		}
	}
	assert.True(t, found, "expected a pinning warning naming the undeclared variable")
}

func TestVerify_TimeoutYieldsIndeterminate(t *testing.T) {
	o := mustOntology(t, rentCapOntology)
	v := New(&smt.FakeSolver{Delay: 10 * time.Second}) // longer than the constraint timeout
	v.ConstraintTimeout = time.Millisecond

	report, err := v.Verify(context.Background(), o, "The monthly rent of $1,000.00 is due.")
	require.NoError(t, err)
	assert.False(t, report.Verified)
	require.Len(t, report.Violations, 1)
	assert.Equal(t, StatusIndeterminate, report.Violations[0].Status)
}

func TestVerify_ForcedUnknownYieldsIndeterminate(t *testing.T) {
	o := mustOntology(t, rentCapOntology)
	v := New(&smt.FakeSolver{ForceUnknown: true})

	report, err := v.Verify(context.Background(), o, "The monthly rent of $1,000.00 is due.")
	require.NoError(t, err)
	require.Len(t, report.Violations, 1)
	assert.Equal(t, StatusIndeterminate, report.Violations[0].Status)
	assert.Equal(t, "solver returned unknown", report.Violations[0].Reason)
}

func TestVerify_ReportIncludesProofIdentity(t *testing.T) {
	o := mustOntology(t, rentCapOntology)
	v := New(&smt.FakeSolver{})

	report, err := v.Verify(context.Background(), o, "rent of $1,000.00")
	require.NoError(t, err)
	assert.Equal(t, "fake", report.Proof.Method)
	assert.Equal(t, "test", report.Proof.Version)
	assert.NotEmpty(t, report.VerificationID)
	assert.Equal(t, "lease-terms", report.Ontology.Name)
	assert.Equal(t, "1.0.0", report.Ontology.Version)
	assert.Equal(t, 1, report.Ontology.ConstraintsChecked)
	assert.Contains(t, report.ParsedData, "rent")
}
