// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ontology

import (
	"fmt"

	"golang.org/x/mod/semver"

	"github.com/aare-ai/aare-core/internal/apperr"
	"github.com/aare-ai/aare-core/internal/compiler"
)

// Validate performs every load-time check named in spec §4.4: required
// fields, unique constraint ids, every formula variable declared exactly
// once, well-formed formula trees (a dry-run compile), and an acyclic
// computed-extractor dependency graph. It does not require text or an
// environment — every check here is a function of the document alone.
func Validate(o *Ontology) error {
	if o.Name == "" {
		return apperr.New(apperr.KindLoadError, "", "ontology: name is required")
	}
	if o.Version == "" {
		return apperr.New(apperr.KindLoadError, o.Name, "ontology: version is required")
	}
	if !semver.IsValid(normalizeSemver(o.Version)) {
		return apperr.New(apperr.KindLoadError, o.Name, fmt.Sprintf("ontology: version %q is not a valid semantic version", o.Version))
	}

	if err := validateConstraintIDs(o); err != nil {
		return err
	}
	if err := validateExtractorNames(o); err != nil {
		return err
	}
	if err := validateExtractorKinds(o); err != nil {
		return err
	}
	if err := validateComputedAcyclic(o); err != nil {
		return err
	}
	if err := validateFormulas(o); err != nil {
		return err
	}
	return nil
}

// normalizeSemver accepts bare "1.2.3" as well as "v1.2.3", since
// authors of a JSON ontology document would not naturally prefix a
// version field with "v".
func normalizeSemver(v string) string {
	if len(v) > 0 && v[0] == 'v' {
		return v
	}
	return "v" + v
}

func validateConstraintIDs(o *Ontology) error {
	seen := make(map[string]bool, len(o.Constraints))
	for _, c := range o.Constraints {
		if c.ID == "" {
			return apperr.New(apperr.KindLoadError, o.Name, "constraint: id is required")
		}
		if seen[c.ID] {
			return apperr.New(apperr.KindLoadError, o.Name, fmt.Sprintf("constraint id %q is not unique within this ontology", c.ID))
		}
		seen[c.ID] = true
	}
	return nil
}

func validateExtractorNames(o *Ontology) error {
	seen := make(map[string]bool, len(o.Extractors))
	for _, ne := range o.Extractors {
		if ne.Name == "" {
			return apperr.New(apperr.KindLoadError, o.Name, "extractor: output name is required")
		}
		if seen[ne.Name] {
			return apperr.New(apperr.KindLoadError, o.Name, fmt.Sprintf("extractor name %q is not unique within this ontology", ne.Name))
		}
		seen[ne.Name] = true
	}
	return nil
}

func validateExtractorKinds(o *Ontology) error {
	for _, ne := range o.Extractors {
		if !ne.Spec.Kind.Valid() {
			return apperr.New(apperr.KindLoadError, o.Name, fmt.Sprintf("extractor %q: unrecognized kind %q", ne.Name, ne.Spec.Kind))
		}
		if ne.Spec.Kind == ExtractorComputed && ne.Spec.Formula == nil {
			return apperr.New(apperr.KindLoadError, o.Name, fmt.Sprintf("extractor %q: kind computed requires a formula", ne.Name))
		}
		if ne.Spec.Kind == ExtractorEnum && len(ne.Spec.Choices) == 0 {
			return apperr.New(apperr.KindLoadError, o.Name, fmt.Sprintf("extractor %q: kind enum requires at least one choice", ne.Name))
		}
	}
	return nil
}

// validateComputedAcyclic rejects documents whose computed extractors
// reference each other in a cycle, per spec §4.1's "cycles are rejected
// at load time."
func validateComputedAcyclic(o *Ontology) error {
	computed := map[string]*ComputedFormula{}
	for _, ne := range o.Extractors {
		if ne.Spec.Kind == ExtractorComputed {
			computed[ne.Name] = ne.Spec.Formula
		}
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(computed))

	var visit func(name string, chain []string) error
	visit = func(name string, chain []string) error {
		switch color[name] {
		case black:
			return nil
		case gray:
			return apperr.New(apperr.KindLoadError, o.Name, fmt.Sprintf("computed extractor cycle: %v", append(chain, name)))
		}
		color[name] = gray
		for _, dep := range referencedVars(computed[name]) {
			if _, isComputed := computed[dep]; isComputed {
				if err := visit(dep, append(chain, name)); err != nil {
					return err
				}
			}
		}
		color[name] = black
		return nil
	}

	for name := range computed {
		if err := visit(name, nil); err != nil {
			return err
		}
	}
	return nil
}

func referencedVars(f *ComputedFormula) []string {
	if f == nil {
		return nil
	}
	var out []string
	if f.Var != "" {
		out = append(out, f.Var)
	}
	for _, a := range f.Args {
		out = append(out, referencedVars(a)...)
	}
	return out
}

// validateFormulas dry-run compiles every constraint's formula, which
// exercises arity/sort checking and the "every referenced name must be
// declared" rule without needing an environment.
func validateFormulas(o *Ontology) error {
	for _, c := range o.Constraints {
		if _, _, err := compiler.Compile(c.ID, c.Formula, c.Variables); err != nil {
			return apperr.Wrap(apperr.KindLoadError, fmt.Sprintf("%s/%s", o.Name, c.ID), err)
		}
	}
	return nil
}
