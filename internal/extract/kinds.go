// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package extract

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/aare-ai/aare-core/internal/ontology"
	"github.com/aare-ai/aare-core/internal/value"
)

func extractInt(text string, spec ontology.ExtractorSpec) (value.Value, string) {
	re, err := compilePattern(spec.Pattern)
	if err != nil {
		return value.Int(0), err.Error()
	}
	raw, ok := firstSubmatch(re, text)
	if !ok {
		return value.Int(0), "pattern did not match"
	}
	cleaned := strings.ReplaceAll(raw, ",", "")
	i, err := strconv.ParseInt(strings.TrimSpace(cleaned), 10, 64)
	if err != nil {
		// On overflow ParseInt returns the int64 bound in i; keep it.
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return value.Int(i), fmt.Sprintf("matched %q exceeds representable range, saturated to %d", raw, i)
		}
		return value.Int(0), fmt.Sprintf("matched %q but could not parse as int: %v", raw, err)
	}
	return value.Int(i), ""
}

func extractFloat(text string, spec ontology.ExtractorSpec) (value.Value, string) {
	re, err := compilePattern(spec.Pattern)
	if err != nil {
		return value.Real(decimal.Zero), err.Error()
	}
	raw, ok := firstSubmatch(re, text)
	if !ok {
		return value.Real(decimal.Zero), "pattern did not match"
	}
	d, saturated, err := parseDecimalWithSuffix(raw)
	if err != nil {
		return value.Real(decimal.Zero), fmt.Sprintf("matched %q but could not parse as float: %v", raw, err)
	}
	if saturated {
		return value.Real(d), fmt.Sprintf("matched %q exceeds representable range, saturated to %s", raw, d.String())
	}
	return value.Real(d), ""
}

// extractMoney parses a currency amount, stripping symbols and grouping
// commas, honoring k/m/b magnitude suffixes, and saturating at the
// maximum representable int64 magnitude rather than overflowing, per the
// saturate-on-overflow resolution for unbounded monetary text.
func extractMoney(text string, spec ontology.ExtractorSpec) (value.Value, string) {
	re, err := compilePattern(spec.Pattern)
	if err != nil {
		return value.Real(decimal.Zero), err.Error()
	}
	raw, ok := firstSubmatch(re, text)
	if !ok {
		return value.Real(decimal.Zero), "pattern did not match"
	}
	cleaned := stripCurrencySymbols(raw)
	d, saturated, err := parseDecimalWithSuffix(cleaned)
	if err != nil {
		return value.Real(decimal.Zero), fmt.Sprintf("matched %q but could not parse as money: %v", raw, err)
	}
	if saturated {
		return value.Real(d), fmt.Sprintf("matched %q exceeds representable range, saturated to %s", raw, d.String())
	}
	return value.Real(d), ""
}

func extractPercentage(text string, spec ontology.ExtractorSpec) (value.Value, string) {
	re, err := compilePattern(spec.Pattern)
	if err != nil {
		return value.Real(decimal.Zero), err.Error()
	}
	raw, ok := firstSubmatch(re, text)
	if !ok {
		return value.Real(decimal.Zero), "pattern did not match"
	}
	cleaned := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	d, saturated, err := parseDecimalWithSuffix(cleaned)
	if err != nil {
		return value.Real(decimal.Zero), fmt.Sprintf("matched %q but could not parse as percentage: %v", raw, err)
	}
	if saturated {
		return value.Real(d), fmt.Sprintf("matched %q exceeds representable range, saturated to %s", raw, d.String())
	}
	return value.Real(d), ""
}

// extractBoolean reports true if any keyword is present, false if a
// negation word appears within the same sentence as a keyword and
// CheckNegation is set, else false with a warning when nothing matched.
func extractBoolean(text string, spec ontology.ExtractorSpec) (value.Value, string) {
	if len(spec.Keywords) == 0 {
		return value.Bool(false), "no keywords configured"
	}
	lower := strings.ToLower(text)
	found := false
	for _, kw := range spec.Keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			found = true
			break
		}
	}
	if !found {
		return value.Bool(false), "no keyword matched"
	}
	if spec.CheckNegation && containsNegation(lower, spec.Keywords, spec.NegationWords) {
		return value.Bool(false), ""
	}
	return value.Bool(true), ""
}

// containsNegation reports whether a negation word shares a sentence
// with a matched keyword — the granularity spec.md settles on in place
// of a fixed word-distance window, since sentence boundaries are a more
// stable proxy for "refers to the same clause" than a token count.
func containsNegation(lowerText string, keywords, negationWords []string) bool {
	if len(negationWords) == 0 {
		return false
	}
	for _, sentence := range splitSentences(lowerText) {
		hasKeyword := false
		for _, kw := range keywords {
			if strings.Contains(sentence, strings.ToLower(kw)) {
				hasKeyword = true
				break
			}
		}
		if !hasKeyword {
			continue
		}
		for _, neg := range negationWords {
			if strings.Contains(sentence, strings.ToLower(neg)) {
				return true
			}
		}
	}
	return false
}

func splitSentences(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
}

func extractString(text string, spec ontology.ExtractorSpec) (value.Value, string) {
	re, err := compilePattern(spec.Pattern)
	if err != nil {
		return value.String(""), err.Error()
	}
	raw, ok := firstSubmatch(re, text)
	if !ok {
		return value.String(""), "pattern did not match"
	}
	return value.String(strings.TrimSpace(raw)), ""
}

// dateFormats is tried in this fixed priority order: spec.md settles its
// Open Question about date ambiguity ("03/04/2025") by always preferring
// the earlier-listed, more explicit format over a looser one, rather than
// guessing from locale.
var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"01-02-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2006-01-02T15:04:05Z07:00",
	"01/02/2006 15:04:05",
}

func extractDate(text string, spec ontology.ExtractorSpec, isDatetime bool) (value.Value, string) {
	re, err := compilePattern(spec.Pattern)
	if err != nil {
		return value.Date(time.Time{}), err.Error()
	}
	raw, ok := firstSubmatch(re, text)
	if !ok {
		return value.Date(time.Time{}), "pattern did not match"
	}
	raw = strings.TrimSpace(raw)
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return value.Date(t), ""
		}
	}
	return value.Date(time.Time{}), fmt.Sprintf("matched %q but it matches no recognized date format", raw)
}

func extractList(text string, spec ontology.ExtractorSpec) (value.Value, string) {
	re, err := compilePattern(spec.Pattern)
	if err != nil {
		return value.List(nil), err.Error()
	}
	matches := re.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return value.List(nil), "pattern did not match"
	}
	items := make([]value.Value, 0, len(matches))
	var warn string
	for _, m := range matches {
		raw := m[0]
		if len(m) > 1 {
			raw = m[1]
		}
		raw = strings.TrimSpace(raw)
		items = append(items, coerceListItem(raw, spec.ItemType))
	}
	return value.List(items), warn
}

func coerceListItem(raw, itemType string) value.Value {
	switch itemType {
	case "int":
		if i, err := strconv.ParseInt(strings.ReplaceAll(raw, ",", ""), 10, 64); err == nil {
			return value.Int(i)
		}
	case "float", "money", "percentage":
		if d, _, err := parseDecimalWithSuffix(stripCurrencySymbols(raw)); err == nil {
			return value.Real(d)
		}
	}
	return value.String(raw)
}

// extractEnum walks spec.Choices in authored order and returns the first
// label whose keyword list matches text; order is load-bearing here
// (see ontology.EnumChoices), not an implementation detail.
func extractEnum(text string, spec ontology.ExtractorSpec) (value.Value, string) {
	lower := strings.ToLower(text)
	for _, choice := range spec.Choices {
		for _, kw := range choice.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				return value.Enum(choice.Label), ""
			}
		}
	}
	if spec.Default != nil {
		return value.Enum(*spec.Default), "no choice matched, used configured default"
	}
	return value.Enum(""), "no choice matched and no default configured"
}

// stripCurrencySymbols removes common currency glyphs and thousands
// separators so the remaining text parses as a plain decimal.
func stripCurrencySymbols(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == ',' {
			continue
		}
		if unicode.IsDigit(r) || r == '.' || r == '-' || r == 'k' || r == 'K' ||
			r == 'm' || r == 'M' || r == 'b' || r == 'B' || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// maxSafeMagnitude bounds saturation: beyond this, a parsed amount is
// clamped to the signed bound rather than allowed to overflow int64 once
// downstream code converts for solver use.
var maxSafeMagnitude = decimal.NewFromInt(math.MaxInt64)

// parseDecimalWithSuffix parses s as a decimal.Decimal, honoring a
// trailing k/K (10^3), m/M (10^6), or b/B (10^9) magnitude suffix, and
// reports whether the result was saturated to the representable bound.
func parseDecimalWithSuffix(s string) (d decimal.Decimal, saturated bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false, fmt.Errorf("empty numeric text")
	}

	multiplier := decimal.NewFromInt(1)
	last := s[len(s)-1]
	switch last {
	case 'k', 'K':
		multiplier = decimal.NewFromInt(1_000)
		s = s[:len(s)-1]
	case 'm', 'M':
		multiplier = decimal.NewFromInt(1_000_000)
		s = s[:len(s)-1]
	case 'b', 'B':
		multiplier = decimal.NewFromInt(1_000_000_000)
		s = s[:len(s)-1]
	}

	base, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, false, err
	}

	result := base.Mul(multiplier)
	if result.Abs().GreaterThan(maxSafeMagnitude) {
		if result.IsNegative() {
			return maxSafeMagnitude.Neg(), true, nil
		}
		return maxSafeMagnitude, true, nil
	}
	return result, false, nil
}
