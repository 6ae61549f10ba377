// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ontology

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustOntology(t *testing.T, js string) *Ontology {
	t.Helper()
	var o Ontology
	require.NoError(t, json.Unmarshal([]byte(js), &o))
	return &o
}

func TestValidate_RequiresName(t *testing.T) {
	o := mustOntology(t, `{"version": "1.0.0"}`)
	err := Validate(o)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestValidate_RejectsBadSemver(t *testing.T) {
	o := mustOntology(t, `{"name": "lease-terms", "version": "not-a-version"}`)
	err := Validate(o)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid semantic version")
}

func TestValidate_AcceptsBareSemver(t *testing.T) {
	o := mustOntology(t, `{"name": "lease-terms", "version": "1.2.3"}`)
	assert.NoError(t, Validate(o))
}

func TestValidate_DuplicateConstraintID(t *testing.T) {
	js := `{
		"name": "lease-terms",
		"version": "1.0.0",
		"constraints": [
			{"id": "c1", "formula": true, "variables": []},
			{"id": "c1", "formula": true, "variables": []}
		]
	}`
	o := mustOntology(t, js)
	err := Validate(o)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not unique")
}

func TestValidate_UnknownExtractorKind(t *testing.T) {
	js := `{
		"name": "lease-terms",
		"version": "1.0.0",
		"extractors": {"rent": {"kind": "currency"}}
	}`
	o := mustOntology(t, js)
	err := Validate(o)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized kind")
}

func TestValidate_ComputedExtractorCycle(t *testing.T) {
	js := `{
		"name": "lease-terms",
		"version": "1.0.0",
		"extractors": {
			"a": {"kind": "computed", "formula": {"op": "+", "args": [{"op": "var", "var": "b"}]}},
			"b": {"kind": "computed", "formula": {"op": "+", "args": [{"op": "var", "var": "a"}]}}
		}
	}`
	o := mustOntology(t, js)
	err := Validate(o)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestValidate_EnumRequiresChoices(t *testing.T) {
	js := `{
		"name": "lease-terms",
		"version": "1.0.0",
		"extractors": {"term_type": {"kind": "enum"}}
	}`
	o := mustOntology(t, js)
	err := Validate(o)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one choice")
}

func TestValidate_FormulaReferencesUndeclaredVariable(t *testing.T) {
	js := `{
		"name": "lease-terms",
		"version": "1.0.0",
		"constraints": [
			{"id": "c1", "formula": {"<": ["rent", 5000]}, "variables": []}
		]
	}`
	o := mustOntology(t, js)
	err := Validate(o)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile_error")
}

func TestValidate_WellFormedOntology(t *testing.T) {
	js := `{
		"name": "lease-terms",
		"version": "2.1.0",
		"description": "basic lease term checks",
		"extractors": {
			"rent": {"kind": "money", "pattern": "rent of (\\$[0-9,.]+)"},
			"term_type": {"kind": "enum", "choices": {"fixed": ["fixed term"], "periodic": ["month-to-month"]}}
		},
		"constraints": [
			{
				"id": "rent-below-cap",
				"formula": {"<=": ["rent", 500000]},
				"variables": [{"name": "rent", "sort": "real"}]
			}
		]
	}`
	o := mustOntology(t, js)
	assert.NoError(t, Validate(o))
}
