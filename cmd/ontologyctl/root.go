// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command ontologyctl is the operator CLI for the ontology verifier
// service: verify text against a running server, list loaded
// ontologies, and scaffold new ontology documents interactively.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// serverURL is the shared --server flag value every subcommand talks to,
// when --ontology-dir is not set.
var serverURL string

// ontologyDir, when set, bypasses the HTTP server entirely: verify, list,
// and get load ontologies directly from this directory and run in-process
// instead of making a network call.
var ontologyDir string

// localFakeSolver forces the in-process FakeSolver rather than Z3 when
// running against --ontology-dir, for smoke-testing without a Z3 build.
var localFakeSolver bool

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ontologyctl",
		Short: "Operate an ontology verification server",
		Long: "ontologyctl talks to a running ontologyverifier server to verify text against " +
			"an ontology, list what's loaded, and scaffold new ontology documents. Pass " +
			"--ontology-dir to skip the server entirely and run against a local directory " +
			"of ontology documents in-process.",
	}

	root.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Base URL of the ontology verifier server")
	root.PersistentFlags().StringVar(&ontologyDir, "ontology-dir", "", "Run in-process against this local directory of ontology documents instead of calling --server")
	root.PersistentFlags().BoolVar(&localFakeSolver, "fake-solver", false, "With --ontology-dir, use the FakeSolver instead of Z3")

	root.AddCommand(newVerifyCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newGetCmd())
	root.AddCommand(newNewCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
