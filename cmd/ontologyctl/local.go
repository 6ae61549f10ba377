// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"

	"github.com/aare-ai/aare-core/internal/ontology"
	"github.com/aare-ai/aare-core/internal/smt"
	"github.com/aare-ai/aare-core/internal/verify"
)

// openLocalRegistry loads --ontology-dir into a one-shot Registry. It does
// not watch for changes: a CLI invocation reads the directory once and
// exits, unlike the long-lived server process.
func openLocalRegistry(ctx context.Context) (*ontology.Registry, error) {
	reg, err := ontology.NewRegistry(ctx, ontology.DirSource{Dir: ontologyDir})
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", ontologyDir, err)
	}
	return reg, nil
}

// openLocalVerifier builds a Verifier backed by Z3, or the FakeSolver when
// --fake-solver is set.
func openLocalVerifier() *verify.Verifier {
	var solver smt.Solver = smt.NewZ3Solver()
	if localFakeSolver {
		solver = &smt.FakeSolver{}
	}
	return verify.New(solver)
}
