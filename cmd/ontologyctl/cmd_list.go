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
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/aare-ai/aare-core/internal/ontology"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List ontologies loaded on the server",
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, _ []string) error {
	var summaries []ontology.Summary

	if ontologyDir != "" {
		registry, err := openLocalRegistry(cmd.Context())
		if err != nil {
			return err
		}
		defer registry.Close()
		summaries = registry.List()
	} else {
		client := &http.Client{Timeout: 10 * time.Second}
		resp, err := client.Get(serverURL + "/v1/ontologies")
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
		if err := json.Unmarshal(body, &summaries); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tCONSTRAINTS\tDESCRIPTION")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.Name, s.Version, s.Constraints, s.Description)
	}
	return w.Flush()
}
