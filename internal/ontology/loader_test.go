// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ontology

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeOntologyFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644))
}

const validLeaseOntology = `{
	"name": "lease-terms",
	"version": "1.0.0",
	"constraints": [
		{"id": "rent-cap", "formula": {"<=": ["rent", 500000]}, "variables": [{"name": "rent", "sort": "real"}]}
	]
}`

const validDepositOntology = `{
	"name": "deposit-terms",
	"version": "1.0.0",
	"constraints": [
		{"id": "deposit-cap", "formula": {"<=": ["deposit", 200000]}, "variables": [{"name": "deposit", "sort": "real"}]}
	]
}`

func TestDirSource_ListsOnlyJSON(t *testing.T) {
	dir := t.TempDir()
	writeOntologyFile(t, dir, "lease.json", validLeaseOntology)
	writeOntologyFile(t, dir, "README.md", "not an ontology")

	ids, err := DirSource{Dir: dir}.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"lease.json"}, ids)
}

func TestLoadAll_ParsesAndValidatesEveryDocument(t *testing.T) {
	dir := t.TempDir()
	writeOntologyFile(t, dir, "lease.json", validLeaseOntology)
	writeOntologyFile(t, dir, "deposit.json", validDepositOntology)

	docs, err := LoadAll(context.Background(), DirSource{Dir: dir}, DefaultLoadConcurrency)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Contains(t, docs, "lease-terms")
	assert.Contains(t, docs, "deposit-terms")
}

func TestLoadAll_RejectsDuplicateOntologyName(t *testing.T) {
	dir := t.TempDir()
	writeOntologyFile(t, dir, "lease.json", validLeaseOntology)
	writeOntologyFile(t, dir, "lease-copy.json", validLeaseOntology)

	_, err := LoadAll(context.Background(), DirSource{Dir: dir}, DefaultLoadConcurrency)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than one document")
}

func TestLoadAll_PropagatesValidationErrors(t *testing.T) {
	dir := t.TempDir()
	writeOntologyFile(t, dir, "broken.json", `{"name": "broken", "version": "not-semver"}`)

	_, err := LoadAll(context.Background(), DirSource{Dir: dir}, DefaultLoadConcurrency)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid semantic version")
}
