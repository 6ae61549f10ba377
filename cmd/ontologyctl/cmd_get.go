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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/aare-ai/aare-core/internal/ontology"
)

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Print a single ontology's document as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runGet,
	}
}

func runGet(cmd *cobra.Command, args []string) error {
	name := args[0]
	var o *ontology.Ontology

	if ontologyDir != "" {
		registry, err := openLocalRegistry(cmd.Context())
		if err != nil {
			return err
		}
		defer registry.Close()
		found, ok := registry.Get(name)
		if !ok {
			return fmt.Errorf("unknown ontology %q in %s", name, ontologyDir)
		}
		o = found
	} else {
		client := &http.Client{Timeout: 10 * time.Second}
		resp, err := client.Get(serverURL + "/v1/ontologies/" + url.PathEscape(name))
		if err != nil {
			return fmt.Errorf("calling %s: %w", serverURL, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
		}
		var fetched ontology.Ontology
		if err := json.Unmarshal(body, &fetched); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		o = &fetched
	}

	data, err := json.MarshalIndent(o, "", "\t")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
