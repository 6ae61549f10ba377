// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "./ontologies", cfg.OntologyDir)
}

func TestLoad_RejectsBothOntologySources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ontology_dir: ./o\ngcs_bucket: my-bucket\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestLoad_EnvOverridesPort(t *testing.T) {
	t.Setenv("ONTOLOGYVERIFIER_PORT", "9999")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Port)
}

func TestGet_CachesAcrossCalls(t *testing.T) {
	Reset()
	defer Reset()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 1234\nontology_dir: ./o\n"), 0o644))

	cfg1, err := Get(path)
	require.NoError(t, err)
	assert.Equal(t, 1234, cfg1.Port)

	cfg2, err := Get("/some/other/path/never/read.yaml")
	require.NoError(t, err)
	assert.Equal(t, 1234, cfg2.Port, "Get must return the cached config regardless of a later path argument")
}
