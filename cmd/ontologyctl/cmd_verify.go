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
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/aare-ai/aare-core/internal/verify"
)

var (
	verifyOntology string
	verifyText     string
	verifyFile     string
)

var (
	styleSatisfied    = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	styleViolated     = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	styleIndeterminate = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
)

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify text against an ontology's constraints",
		RunE:  runVerify,
	}
	cmd.Flags().StringVar(&verifyOntology, "ontology", "", "Name of the ontology to verify against (required)")
	cmd.Flags().StringVar(&verifyText, "text", "", "Text to verify (mutually exclusive with --file)")
	cmd.Flags().StringVar(&verifyFile, "file", "", "Read the text to verify from this file")
	cmd.MarkFlagRequired("ontology")
	return cmd
}

type verifyRequestBody struct {
	Ontology string `json:"ontology"`
	Text     string `json:"text"`
}

func runVerify(cmd *cobra.Command, _ []string) error {
	if verifyText != "" && verifyFile != "" {
		return fmt.Errorf("--text and --file are mutually exclusive")
	}
	text := verifyText
	if verifyFile != "" {
		data, err := os.ReadFile(verifyFile)
		if err != nil {
			return fmt.Errorf("reading --file: %w", err)
		}
		text = string(data)
	}
	if text == "" {
		return fmt.Errorf("one of --text or --file is required")
	}

	if ontologyDir != "" {
		return runVerifyLocal(cmd, text)
	}

	payload, err := json.Marshal(verifyRequestBody{Ontology: verifyOntology, Text: text})
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Post(serverURL+"/v1/verify", "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("calling %s: %w", serverURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	var report verify.Report
	if err := json.Unmarshal(body, &report); err != nil {
		return fmt.Errorf("decoding report: %w", err)
	}

	printReport(cmd, &report)
	return nil
}

// runVerifyLocal verifies text against --ontology-dir in-process, with no
// HTTP hop: the same Registry/Verifier types the server uses, loaded and
// run directly inside this process.
func runVerifyLocal(cmd *cobra.Command, text string) error {
	ctx := cmd.Context()

	registry, err := openLocalRegistry(ctx)
	if err != nil {
		return err
	}
	defer registry.Close()

	o, ok := registry.Get(verifyOntology)
	if !ok {
		return fmt.Errorf("unknown ontology %q in %s", verifyOntology, ontologyDir)
	}

	report, err := openLocalVerifier().Verify(ctx, o, text)
	if err != nil {
		return fmt.Errorf("verifying: %w", err)
	}

	printReport(cmd, report)
	return nil
}

func printReport(cmd *cobra.Command, report *verify.Report) {
	out := cmd.OutOrStdout()
	satisfied, violated, indeterminate := report.Summary()
	fmt.Fprintf(out, "%s v%s — %d satisfied, %d violated, %d indeterminate (%dms)\n\n",
		report.Ontology.Name, report.Ontology.Version, satisfied, violated, indeterminate, report.ExecutionTimeMS)

	for _, v := range report.Results {
		label := string(v.Status)
		switch v.Status {
		case verify.StatusSatisfied:
			label = styleSatisfied.Render(label)
		case verify.StatusViolated:
			label = styleViolated.Render(label)
		case verify.StatusIndeterminate:
			label = styleIndeterminate.Render(label)
		}
		fmt.Fprintf(out, "[%s] %s\n", label, v.ConstraintID)
		if v.ErrorMessage != "" && v.Status == verify.StatusViolated {
			fmt.Fprintf(out, "    %s\n", v.ErrorMessage)
		}
		if v.Reason != "" {
			fmt.Fprintf(out, "    reason: %s\n", v.Reason)
		}
	}

	if len(report.Warnings) > 0 {
		fmt.Fprintln(out, "\nExtraction warnings:")
		for _, w := range report.Warnings {
			fmt.Fprintf(out, "  - %s: %s\n", w.Extractor, w.Message)
		}
	}
}
