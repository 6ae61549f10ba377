// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package extract

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aare-ai/aare-core/internal/ontology"
	"github.com/aare-ai/aare-core/internal/value"
)

func TestExtractMoney_StripsSymbolsAndCommas(t *testing.T) {
	spec := ontology.ExtractorSpec{Kind: ontology.ExtractorMoney, Pattern: `rent of (\$[0-9,]+(?:\.[0-9]+)?)`}
	v, warn := extractMoney("The rent of $2,500.00 is due monthly.", spec)
	require.Empty(t, warn)
	assert.True(t, v.Real.Equal(decimal.NewFromFloat(2500.00)), "got %s", v.Real)
}

func TestExtractMoney_SuffixMultiplier(t *testing.T) {
	spec := ontology.ExtractorSpec{Kind: ontology.ExtractorMoney, Pattern: `cap of (\$[0-9.]+[kKmMbB]?)`}
	v, warn := extractMoney("Liability cap of $2.5M applies.", spec)
	require.Empty(t, warn)
	assert.True(t, v.Real.Equal(decimal.NewFromFloat(2_500_000)), "got %s", v.Real)
}

func TestExtractMoney_SaturatesOnOverflow(t *testing.T) {
	spec := ontology.ExtractorSpec{Kind: ontology.ExtractorMoney, Pattern: `cap of (\$[0-9.]+[kKmMbB]?)`}
	v, warn := extractMoney("Liability cap of $999999999999999999999b applies.", spec)
	assert.Contains(t, warn, "saturated")
	assert.True(t, v.Real.Equal(maxSafeMagnitude))
}

func TestExtractMoney_NoMatch(t *testing.T) {
	spec := ontology.ExtractorSpec{Kind: ontology.ExtractorMoney, Pattern: `rent of (\$[0-9,]+)`}
	v, warn := extractMoney("No dollar figures here.", spec)
	assert.Equal(t, "pattern did not match", warn)
	assert.True(t, v.Real.IsZero())
}

func TestExtractBoolean_KeywordPresent(t *testing.T) {
	spec := ontology.ExtractorSpec{Kind: ontology.ExtractorBoolean, Keywords: []string{"automatically renew"}}
	v, warn := extractBoolean("This lease will automatically renew each year.", spec)
	require.Empty(t, warn)
	assert.True(t, v.Bool)
}

func TestExtractBoolean_NegationInSameSentenceFlipsResult(t *testing.T) {
	spec := ontology.ExtractorSpec{
		Kind:          ontology.ExtractorBoolean,
		Keywords:      []string{"renew"},
		NegationWords: []string{"not", "will not"},
		CheckNegation: true,
	}
	v, warn := extractBoolean("This lease will not renew automatically. Other clauses follow.", spec)
	require.Empty(t, warn)
	assert.False(t, v.Bool)
}

func TestExtractBoolean_NegationInDifferentSentenceDoesNotFlip(t *testing.T) {
	spec := ontology.ExtractorSpec{
		Kind:          ontology.ExtractorBoolean,
		Keywords:      []string{"renew"},
		NegationWords: []string{"not"},
		CheckNegation: true,
	}
	v, warn := extractBoolean("This lease will renew automatically. It is not transferable.", spec)
	require.Empty(t, warn)
	assert.True(t, v.Bool)
}

func TestExtractEnum_FirstMatchWinsInAuthoredOrder(t *testing.T) {
	spec := ontology.ExtractorSpec{
		Kind: ontology.ExtractorEnum,
		Choices: ontology.EnumChoices{
			{Label: "fixed", Keywords: []string{"fixed term", "fixed-term"}},
			{Label: "periodic", Keywords: []string{"month-to-month", "periodic"}},
		},
	}
	v, warn := extractEnum("This is a month-to-month periodic tenancy, not fixed-term.", spec)
	require.Empty(t, warn)
	assert.Equal(t, "fixed", v.Enum)
}

func TestExtractEnum_FallsBackToDefault(t *testing.T) {
	d := "unspecified"
	spec := ontology.ExtractorSpec{
		Kind:    ontology.ExtractorEnum,
		Choices: ontology.EnumChoices{{Label: "fixed", Keywords: []string{"fixed term"}}},
		Default: &d,
	}
	v, warn := extractEnum("No relevant keywords here.", spec)
	assert.Contains(t, warn, "default")
	assert.Equal(t, "unspecified", v.Enum)
}

func TestExtractDate_TriesFormatsInPriorityOrder(t *testing.T) {
	spec := ontology.ExtractorSpec{Kind: ontology.ExtractorDate, Pattern: `effective (\d{4}-\d{2}-\d{2})`}
	v, warn := extractDate("This lease is effective 2025-03-04 onward.", spec, false)
	require.Empty(t, warn)
	assert.Equal(t, 2025, v.Date.Year())
	assert.Equal(t, 3, int(v.Date.Month()))
	assert.Equal(t, 4, v.Date.Day())
}

func TestExtractList_CoercesItemType(t *testing.T) {
	spec := ontology.ExtractorSpec{Kind: ontology.ExtractorList, Pattern: `\$([0-9]+)`, ItemType: "int"}
	v, warn := extractList("Fees of $100, $250, and $75 apply.", spec)
	require.Empty(t, warn)
	require.Len(t, v.List, 3)
	assert.Equal(t, int64(100), v.List[0].Int)
	assert.Equal(t, int64(250), v.List[1].Int)
}

func TestExtract_ComputedExtractorSumsSimpleExtractors(t *testing.T) {
	extractors := ontology.ExtractorSpecs{
		{Name: "base_rent", Spec: ontology.ExtractorSpec{Kind: ontology.ExtractorMoney, Pattern: `base rent of (\$[0-9,.]+)`}},
		{Name: "parking_fee", Spec: ontology.ExtractorSpec{Kind: ontology.ExtractorMoney, Pattern: `parking fee of (\$[0-9,.]+)`}},
		{Name: "total_rent", Spec: ontology.ExtractorSpec{
			Kind: ontology.ExtractorComputed,
			Formula: &ontology.ComputedFormula{
				Op: "+",
				Args: []*ontology.ComputedFormula{
					{Op: "var", Var: "base_rent"},
					{Op: "var", Var: "parking_fee"},
				},
			},
		}},
	}

	env, warnings := Extract("The base rent of $2,000.00 and parking fee of $150.00 are both due.", extractors)
	assert.Empty(t, warnings)
	require.Contains(t, env, "total_rent")
	assert.True(t, env["total_rent"].Real.Equal(decimal.NewFromFloat(2150.00)), "got %s", env["total_rent"].Real)
}

func TestExtract_ChainedComputedExtractorsResolveAcrossPasses(t *testing.T) {
	extractors := ontology.ExtractorSpecs{
		{Name: "a", Spec: ontology.ExtractorSpec{
			Kind:    ontology.ExtractorComputed,
			Formula: &ontology.ComputedFormula{Op: "const", Const: []byte("10")},
		}},
		{Name: "b", Spec: ontology.ExtractorSpec{
			Kind: ontology.ExtractorComputed,
			Formula: &ontology.ComputedFormula{
				Op:   "+",
				Args: []*ontology.ComputedFormula{{Op: "var", Var: "a"}, {Op: "const", Const: []byte("5")}},
			},
		}},
		{Name: "c", Spec: ontology.ExtractorSpec{
			Kind: ontology.ExtractorComputed,
			Formula: &ontology.ComputedFormula{
				Op:   "*",
				Args: []*ontology.ComputedFormula{{Op: "var", Var: "b"}, {Op: "const", Const: []byte("2")}},
			},
		}},
	}

	env, warnings := Extract("irrelevant text", extractors)
	assert.Empty(t, warnings)
	assert.True(t, env["c"].Real.Equal(decimal.NewFromFloat(30)), "got %s", env["c"].Real)
}

func TestExtract_UnresolvedComputedDependencyWarns(t *testing.T) {
	extractors := ontology.ExtractorSpecs{
		{Name: "orphan", Spec: ontology.ExtractorSpec{
			Kind: ontology.ExtractorComputed,
			Formula: &ontology.ComputedFormula{
				Op:   "+",
				Args: []*ontology.ComputedFormula{{Op: "var", Var: "never_declared"}, {Op: "const", Const: []byte("1")}},
			},
		}},
	}
	env, warnings := Extract("irrelevant", extractors)
	require.Len(t, warnings, 1)
	assert.Equal(t, value.Null(), env["orphan"])
}
