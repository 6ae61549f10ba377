// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package extract implements the Extraction Engine: it lifts a typed
// Environment of named Values out of unstructured text, driven entirely
// by an ontology's declarative ExtractorSpecs. Every extractor kind is a
// pure function of (text, spec) except for the computed kind, which is a
// pure function of the rest of the environment.
package extract

import (
	"fmt"
	"regexp"

	"github.com/aare-ai/aare-core/internal/ontology"
	"github.com/aare-ai/aare-core/internal/value"
)

// Warning records a non-fatal condition encountered while extracting one
// named value — a pattern that never matched, a computed extractor whose
// dependency never resolved, an enum with no matching choice. Warnings never
// abort extraction; the affected output falls back to its kind's typed
// default value.
type Warning struct {
	Extractor string `json:"extractor"`
	Message   string `json:"message"`
}

// Environment is the typed result of extraction: every extractor name
// declared in the ontology maps to a Value, defaulted where nothing
// matched.
type Environment map[string]value.Value

// Extract runs every extractor in document order against text, resolving
// computed extractors after their dependencies, and returns the
// resulting Environment together with any warnings raised along the way.
// Extract itself never returns an error: an ontology's extractor set was
// already validated at load time, so a failure to match at runtime is
// always degraded to a default value plus a warning, not an extraction
// failure.
func Extract(text string, extractors ontology.ExtractorSpecs) (Environment, []Warning) {
	env := make(Environment, len(extractors))
	var warnings []Warning

	// Simple (non-computed) extractors first, so computed extractors can
	// reference them regardless of document order.
	pending := make([]ontology.NamedExtractor, 0, len(extractors))
	for _, ne := range extractors {
		if ne.Spec.Kind == ontology.ExtractorComputed {
			pending = append(pending, ne)
			continue
		}
		v, warn := extractOne(text, ne.Spec)
		env[ne.Name] = v
		if warn != "" {
			warnings = append(warnings, Warning{Extractor: ne.Name, Message: warn})
		}
	}

	resolved, compWarnings := resolveComputed(pending, env)
	for name, v := range resolved {
		env[name] = v
	}
	warnings = append(warnings, compWarnings...)

	return env, warnings
}

func extractOne(text string, spec ontology.ExtractorSpec) (value.Value, string) {
	switch spec.Kind {
	case ontology.ExtractorInt:
		return extractInt(text, spec)
	case ontology.ExtractorFloat:
		return extractFloat(text, spec)
	case ontology.ExtractorMoney:
		return extractMoney(text, spec)
	case ontology.ExtractorPercentage:
		return extractPercentage(text, spec)
	case ontology.ExtractorBoolean:
		return extractBoolean(text, spec)
	case ontology.ExtractorString:
		return extractString(text, spec)
	case ontology.ExtractorDate:
		return extractDate(text, spec, false)
	case ontology.ExtractorDatetime:
		return extractDate(text, spec, true)
	case ontology.ExtractorList:
		return extractList(text, spec)
	case ontology.ExtractorEnum:
		return extractEnum(text, spec)
	default:
		return value.Null(), fmt.Sprintf("unsupported extractor kind %q", spec.Kind)
	}
}

// compilePattern is the single place spec.Pattern is turned into a
// *regexp.Regexp; a malformed pattern degrades to a no-match warning
// instead of a panic, since patterns are author-supplied ontology data.
// Every pattern match is case-insensitive, so an author writing "DTI:"
// still matches a document's "dti:".
func compilePattern(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, fmt.Errorf("pattern is empty")
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	return re, nil
}

// firstSubmatch returns the first capture group if the pattern has one,
// else the whole match.
func firstSubmatch(re *regexp.Regexp, text string) (string, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	if len(m) > 1 {
		return m[1], true
	}
	return m[0], true
}
