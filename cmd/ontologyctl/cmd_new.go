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
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/aare-ai/aare-core/internal/ontology"
)

var (
	newOutput         string
	newName           string
	newVersion        string
	newDescription    string
	newExtractorName  string
	newExtractorKind  string
	newPattern        string
	newConstraintID   string
	newComparisonOp   string
	newThreshold      float64
	newErrorMessage   string
)

func newNewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Scaffold a new ontology document with one extractor and one comparison constraint",
		Long: "Scaffolds a minimal ontology document: one numeric extractor and one threshold " +
			"constraint against it. Run interactively in a terminal, or pass every flag for " +
			"scripted/non-interactive use (e.g. in CI).",
		RunE: runNew,
	}
	cmd.Flags().StringVarP(&newOutput, "output", "o", "ontology.json", "Path to write the scaffolded document to")
	cmd.Flags().StringVar(&newName, "name", "", "Ontology name")
	cmd.Flags().StringVar(&newVersion, "version", "1.0.0", "Ontology semantic version")
	cmd.Flags().StringVar(&newDescription, "description", "", "Ontology description")
	cmd.Flags().StringVar(&newExtractorName, "extractor-name", "amount", "Output name of the scaffolded extractor")
	cmd.Flags().StringVar(&newExtractorKind, "extractor-kind", "money", "Extractor kind: int|float|money|percentage")
	cmd.Flags().StringVar(&newPattern, "pattern", "", "Regex pattern for the extractor (first capture group, or whole match)")
	cmd.Flags().StringVar(&newConstraintID, "constraint-id", "", "Constraint identifier")
	cmd.Flags().StringVar(&newComparisonOp, "comparison", "<=", "Comparison operator: <|<=|>|>=|==|!=")
	cmd.Flags().Float64Var(&newThreshold, "threshold", 0, "Threshold the extracted value is compared against")
	cmd.Flags().StringVar(&newErrorMessage, "error-message", "", "Message reported when the constraint is violated")
	return cmd
}

// runInteractiveWizard prompts for the new* globals through an interactive
// huh form; every field is asked, prefilled with its flag value, except
// the threshold, which comes only from --threshold. Skipped entirely when stdout
// is not a terminal, so scripted invocations with every flag set never
// block waiting on a TTY that isn't there.
func runInteractiveWizard() error {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return nil
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Ontology name").Value(&newName).Validate(requireNonEmpty),
			huh.NewInput().Title("Version").Value(&newVersion),
			huh.NewInput().Title("Description").Value(&newDescription),
		),
		huh.NewGroup(
			huh.NewInput().Title("Extractor output name").Value(&newExtractorName).Validate(requireNonEmpty),
			huh.NewSelect[string]().
				Title("Extractor kind").
				Options(
					huh.NewOption("money", "money"),
					huh.NewOption("int", "int"),
					huh.NewOption("float", "float"),
					huh.NewOption("percentage", "percentage"),
				).
				Value(&newExtractorKind),
			huh.NewInput().Title("Extraction regex pattern").Value(&newPattern).Validate(requireNonEmpty),
		),
		huh.NewGroup(
			huh.NewInput().Title("Constraint ID").Value(&newConstraintID).Validate(requireNonEmpty),
			huh.NewSelect[string]().
				Title("Comparison").
				Options(
					huh.NewOption("<=", "<="),
					huh.NewOption("<", "<"),
					huh.NewOption(">=", ">="),
					huh.NewOption(">", ">"),
					huh.NewOption("==", "=="),
					huh.NewOption("!=", "!="),
				).
				Value(&newComparisonOp),
			huh.NewInput().Title("Error message on violation").Value(&newErrorMessage).Validate(requireNonEmpty),
		),
	)
	return form.Run()
}

func requireNonEmpty(s string) error {
	if s == "" {
		return fmt.Errorf("required")
	}
	return nil
}

func runNew(cmd *cobra.Command, _ []string) error {
	if err := runInteractiveWizard(); err != nil {
		return fmt.Errorf("wizard: %w", err)
	}
	if newName == "" || newPattern == "" || newConstraintID == "" {
		return fmt.Errorf("--name, --pattern, and --constraint-id are required (or run interactively in a terminal)")
	}

	doc := scaffoldDocument()

	data, err := json.MarshalIndent(doc, "", "\t")
	if err != nil {
		return fmt.Errorf("marshaling ontology document: %w", err)
	}

	var o ontology.Ontology
	if err := json.Unmarshal(data, &o); err != nil {
		return fmt.Errorf("scaffolded document failed to round-trip: %w", err)
	}
	if err := ontology.Validate(&o); err != nil {
		return fmt.Errorf("scaffolded document is invalid: %w", err)
	}

	if err := os.WriteFile(newOutput, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", newOutput, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d constraints, %d extractors)\n", newOutput, len(o.Constraints), len(o.Extractors))
	return nil
}

// scaffoldedDocument mirrors the ontology JSON shape directly (rather
// than building an ontology.Ontology in memory) since FormulaNode's
// fields are all json:"-" and only round-trip through its hand-written
// MarshalJSON — easier to author the intended document shape once, as
// JSON, and let Validate check it the same way a hand-authored document
// would be checked.
type scaffoldedDocument struct {
	Name        string                     `json:"name"`
	Version     string                     `json:"version"`
	Description string                     `json:"description"`
	Extractors  map[string]scaffoldedSpec  `json:"extractors"`
	Constraints []scaffoldedConstraint     `json:"constraints"`
}

type scaffoldedSpec struct {
	Kind    string `json:"kind"`
	Pattern string `json:"pattern"`
}

type scaffoldedConstraint struct {
	ID           string                    `json:"id"`
	Category     string                    `json:"category"`
	Formula      map[string][]interface{}  `json:"formula"`
	Variables    []scaffoldedVariable      `json:"variables"`
	ErrorMessage string                    `json:"error_message"`
}

type scaffoldedVariable struct {
	Name string `json:"name"`
	Sort string `json:"sort"`
}

func scaffoldDocument() scaffoldedDocument {
	return scaffoldedDocument{
		Name:        newName,
		Version:     newVersion,
		Description: newDescription,
		Extractors: map[string]scaffoldedSpec{
			newExtractorName: {Kind: newExtractorKind, Pattern: newPattern},
		},
		Constraints: []scaffoldedConstraint{
			{
				ID:       newConstraintID,
				Category: "general",
				Formula: map[string][]interface{}{
					newComparisonOp: {newExtractorName, newThreshold},
				},
				Variables:    []scaffoldedVariable{{Name: newExtractorName, Sort: "real"}},
				ErrorMessage: newErrorMessage,
			},
		},
	}
}
