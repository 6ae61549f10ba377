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
	"encoding/json"
	"fmt"
	"strings"
)

// recognizedOps is the full operator vocabulary accepted at the JSON
// layer. Arity and sort checking happen later, in compiler.Compile's
// well-formedness pass and in the loader's dry-run validation — this
// layer only recognizes shape.
var recognizedOps = map[string]bool{
	"and": true, "or": true, "not": true, "implies": true,
	"ite": true, "if": true,
	"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
	"+": true, "-": true, "*": true, "/": true, "min": true, "max": true,
	"const": true,
}

// UnmarshalJSON implements the tagged-variant decode for a formula node.
// A node is one of:
//
//	true | false                 -> boolean literal
//	123 | 1.5                    -> numeric literal (int if no fractional part)
//	"name"                       -> bare variable reference
//	{"const": <value>}           -> explicit literal
//	{"<op>": [...]}              -> operator application, n-ary per op
func (n *FormulaNode) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))

	switch trimmed {
	case "true":
		n.Op = "const"
		n.Lit = &Literal{IsBool: true, Bool: true}
		return nil
	case "false":
		n.Op = "const"
		n.Lit = &Literal{IsBool: true, Bool: false}
		return nil
	}

	if len(trimmed) > 0 && (trimmed[0] == '"') {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("formula node: %w", err)
		}
		n.Op = "var"
		n.Operand = s
		return nil
	}

	if len(trimmed) > 0 && (trimmed[0] == '-' || (trimmed[0] >= '0' && trimmed[0] <= '9')) {
		return n.unmarshalNumber(data)
	}

	// Must be a single-key object: either {"const": v} or {"<op>": [...]}.
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("formula node: not a literal, variable, or operator object: %w", err)
	}
	if len(obj) != 1 {
		return fmt.Errorf("formula node: operator object must have exactly one key, got %d", len(obj))
	}

	for op, raw := range obj {
		if !recognizedOps[op] {
			return fmt.Errorf("formula node: unrecognized operator %q", op)
		}
		n.Op = op
		if op == "const" {
			var inner FormulaNode
			if err := inner.unmarshalConstValue(raw); err != nil {
				return err
			}
			n.Lit = inner.Lit
			n.Op = "const"
			return nil
		}

		var args []FormulaNode
		if err := json.Unmarshal(raw, &args); err != nil {
			return fmt.Errorf("formula node: operator %q: operands must be an array: %w", op, err)
		}
		n.Args = args
	}
	return nil
}

func (n *FormulaNode) unmarshalNumber(data []byte) error {
	s := strings.TrimSpace(string(data))
	n.Op = "const"
	if strings.ContainsAny(s, ".eE") {
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("formula node: numeric literal: %w", err)
		}
		n.Lit = &Literal{IsReal: true, Real: f}
		return nil
	}
	var i int64
	if err := json.Unmarshal(data, &i); err != nil {
		return fmt.Errorf("formula node: numeric literal: %w", err)
	}
	n.Lit = &Literal{IsInt: true, Int: i}
	return nil
}

// unmarshalConstValue parses the payload of an explicit {"const": v} node.
func (n *FormulaNode) unmarshalConstValue(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch trimmed {
	case "true":
		n.Lit = &Literal{IsBool: true, Bool: true}
		return nil
	case "false":
		n.Lit = &Literal{IsBool: true, Bool: false}
		return nil
	}
	return n.unmarshalNumber(data)
}

// MarshalJSON round-trips a FormulaNode back to its authored shape, used
// when a Violation echoes the constraint's "structural form".
func (n FormulaNode) MarshalJSON() ([]byte, error) {
	switch n.Op {
	case "var":
		return json.Marshal(n.Operand)
	case "const":
		switch {
		case n.Lit.IsBool:
			return json.Marshal(n.Lit.Bool)
		case n.Lit.IsReal:
			return json.Marshal(n.Lit.Real)
		default:
			return json.Marshal(n.Lit.Int)
		}
	default:
		return json.Marshal(map[string][]FormulaNode{n.Op: n.Args})
	}
}
