// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ontology

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_GetAndList(t *testing.T) {
	dir := t.TempDir()
	writeOntologyFile(t, dir, "lease.json", validLeaseOntology)
	writeOntologyFile(t, dir, "deposit.json", validDepositOntology)

	reg, err := NewRegistry(context.Background(), DirSource{Dir: dir})
	require.NoError(t, err)

	o, ok := reg.Get("lease-terms")
	require.True(t, ok)
	assert.Equal(t, "1.0.0", o.Version)

	_, ok = reg.Get("not-loaded")
	assert.False(t, ok)

	list := reg.List()
	require.Len(t, list, 2)
	assert.Equal(t, "deposit-terms", list[0].Name) // sorted
	assert.Equal(t, "lease-terms", list[1].Name)
}

func TestRegistry_ReloadKeepsPreviousSnapshotOnError(t *testing.T) {
	dir := t.TempDir()
	writeOntologyFile(t, dir, "lease.json", validLeaseOntology)

	reg, err := NewRegistry(context.Background(), DirSource{Dir: dir})
	require.NoError(t, err)

	writeOntologyFile(t, dir, "broken.json", `{"name": "broken", "version": "nope"}`)
	err = reg.Reload(context.Background())
	require.Error(t, err)

	o, ok := reg.Get("lease-terms")
	require.True(t, ok, "previous snapshot must survive a failed reload")
	assert.Equal(t, "1.0.0", o.Version)
}

func TestRegistry_WatchDirReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	writeOntologyFile(t, dir, "lease.json", validLeaseOntology)

	reg, err := NewRegistry(context.Background(), DirSource{Dir: dir})
	require.NoError(t, err)
	defer reg.Close()

	require.NoError(t, reg.WatchDir(context.Background(), dir))

	writeOntologyFile(t, dir, "deposit.json", validDepositOntology)

	require.Eventually(t, func() bool {
		_, ok := reg.Get("deposit-terms")
		return ok
	}, 2*time.Second, 20*time.Millisecond)
}
