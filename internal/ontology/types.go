// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ontology defines the document model for ontologies — the JSON
// bundles of constraints, variable declarations, and extractors that the
// verification core consumes — and the loader/registry that discovers,
// validates, and caches them.
package ontology

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Ontology is the root document, immutable once loaded.
type Ontology struct {
	Name        string       `json:"name"`
	Version     string       `json:"version"`
	Description string       `json:"description"`
	Constraints []Constraint `json:"constraints"`
	Extractors  ExtractorSpecs `json:"extractors"`
}

// NamedExtractor pairs an extractor's output name with its spec, in
// document order.
type NamedExtractor struct {
	Name string
	Spec ExtractorSpec
}

// ExtractorSpecs preserves the authored order of an ontology's extractor
// map, per the data model's "ordered map of extractor specs" — needed so
// a computed extractor's dependency-resolution pass and the warnings
// list have a deterministic order to fall back on.
type ExtractorSpecs []NamedExtractor

// Get looks up an extractor spec by output name.
func (l ExtractorSpecs) Get(name string) (ExtractorSpec, bool) {
	for _, ne := range l {
		if ne.Name == name {
			return ne.Spec, true
		}
	}
	return ExtractorSpec{}, false
}

func (l *ExtractorSpecs) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("extractors: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("extractors: expected a JSON object")
	}
	var out ExtractorSpecs
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("extractors: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("extractors: key must be a string")
		}
		var spec ExtractorSpec
		if err := dec.Decode(&spec); err != nil {
			return fmt.Errorf("extractors: %q: %w", key, err)
		}
		out = append(out, NamedExtractor{Name: key, Spec: spec})
	}
	*l = out
	return nil
}

func (l ExtractorSpecs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, ne := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(ne.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := json.Marshal(ne.Spec)
		if err != nil {
			return nil, err
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Constraint is one individually verifiable logical assertion.
type Constraint struct {
	ID           string             `json:"id"`
	Category     string             `json:"category"`
	Description  string             `json:"description"`
	Readable     string             `json:"readable"`
	Formula      FormulaNode        `json:"formula"`
	Variables    []VariableDecl     `json:"variables"`
	ErrorMessage string             `json:"error_message"`
	Citation     string             `json:"citation"`
}

// VariableDecl scopes the sort of a free name inside a constraint's formula.
type VariableDecl struct {
	Name string `json:"name"`
	Sort string `json:"sort"` // "bool" | "int" | "real"
}

// ExtractorKind enumerates the recognized extractor kinds. Unknown kinds
// are rejected at load time, not at first use, per the "explicit
// capability set" design note.
type ExtractorKind string

const (
	ExtractorInt        ExtractorKind = "int"
	ExtractorFloat      ExtractorKind = "float"
	ExtractorMoney      ExtractorKind = "money"
	ExtractorPercentage ExtractorKind = "percentage"
	ExtractorBoolean    ExtractorKind = "boolean"
	ExtractorString     ExtractorKind = "string"
	ExtractorDate       ExtractorKind = "date"
	ExtractorDatetime   ExtractorKind = "datetime"
	ExtractorList       ExtractorKind = "list"
	ExtractorEnum       ExtractorKind = "enum"
	ExtractorComputed   ExtractorKind = "computed"
)

func (k ExtractorKind) Valid() bool {
	switch k {
	case ExtractorInt, ExtractorFloat, ExtractorMoney, ExtractorPercentage,
		ExtractorBoolean, ExtractorString, ExtractorDate, ExtractorDatetime,
		ExtractorList, ExtractorEnum, ExtractorComputed:
		return true
	}
	return false
}

// ExtractorSpec is the declarative, kind-tagged rule for lifting one
// named value out of text. Only the options relevant to Kind are set;
// the rest are read from the same JSON object (kind-specific options
// live alongside "kind"; the output name is the spec's key in the
// ontology's "extractors" object).
type ExtractorSpec struct {
	Kind ExtractorKind `json:"kind"`

	Pattern string `json:"pattern,omitempty"` // regex, for int/float/money/percentage/string/date/datetime/list

	Keywords        []string `json:"keywords,omitempty"`
	NegationWords   []string `json:"negation_words,omitempty"`
	CheckNegation   bool     `json:"check_negation,omitempty"`

	ItemType string `json:"item_type,omitempty"` // for list

	Choices EnumChoices `json:"choices,omitempty"` // for enum: ordered label -> keywords
	Default *string     `json:"default,omitempty"` // for enum

	Formula *ComputedFormula `json:"formula,omitempty"` // for computed
}

// EnumChoice is one labeled keyword set in an enum extractor, in
// authored order — order matters because the first matching label wins.
type EnumChoice struct {
	Label    string
	Keywords []string
}

// EnumChoices preserves choice order the same way ExtractorSpecs
// preserves extractor order, and for the same reason.
type EnumChoices []EnumChoice

func (c *EnumChoices) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("choices: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("choices: expected a JSON object")
	}
	var out EnumChoices
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("choices: %w", err)
		}
		label, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("choices: label must be a string")
		}
		var kws []string
		if err := dec.Decode(&kws); err != nil {
			return fmt.Errorf("choices: %q: %w", label, err)
		}
		out = append(out, EnumChoice{Label: label, Keywords: kws})
	}
	*c = out
	return nil
}

func (c EnumChoices) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, ch := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(ch.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := json.Marshal(ch.Keywords)
		if err != nil {
			return nil, err
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ComputedFormula is the small, independent dialect used by computed
// extractors. It is deliberately not unified with the main formula
// compiler's AST because the two operate over different value domains:
// computed extractors manipulate arbitrary Values (including strings,
// dates, lists), while the main compiler only ever sees Bool/Int/Real.
type ComputedFormula struct {
	Op       string             `json:"op"`
	Var      string             `json:"var,omitempty"`
	Const    json.RawMessage    `json:"const,omitempty"`
	Args     []*ComputedFormula `json:"args,omitempty"`
}

// FormulaNode is the tagged-variant AST of a constraint's logical
// assertion, as authored in the ontology document. See compiler.Expr for
// the compiled SMT-facing counterpart.
type FormulaNode struct {
	Op  string          `json:"-"`
	Raw json.RawMessage `json:"-"`

	// Populated variants depending on Op; only the relevant one is set.
	Args    []FormulaNode `json:"-"` // and/or/not/implies/+/*/ite operands
	Operand string        `json:"-"` // bare variable reference
	Lit     *Literal      `json:"-"`
}

// Literal is an explicit {"const": v} node, or the parsed form of a bare
// JSON literal (true/false/number).
type Literal struct {
	IsBool bool
	Bool   bool
	IsReal bool
	Real   float64
	IsInt  bool
	Int    int64
}
