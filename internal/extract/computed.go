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
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/aare-ai/aare-core/internal/ontology"
	"github.com/aare-ai/aare-core/internal/value"
)

// resolveComputed evaluates every computed extractor against env (which
// already holds every simple extractor's output), resolving
// computed-on-computed dependencies in as many passes as needed. The
// ontology loader already rejected cyclic dependency graphs, so a fixed
// number of passes bounded by len(pending) always suffices; any name
// still unresolved after that many passes is a defect in validation, not
// a legitimate runtime state, and is reported as a warning rather than a
// panic so one bad ontology never takes down a request.
func resolveComputed(pending []ontology.NamedExtractor, env Environment) (map[string]value.Value, []Warning) {
	out := make(map[string]value.Value, len(pending))
	remaining := append([]ontology.NamedExtractor(nil), pending...)
	var warnings []Warning

	for pass := 0; pass < len(pending)+1 && len(remaining) > 0; pass++ {
		next := remaining[:0]
		for _, ne := range remaining {
			v, err := evalComputed(ne.Spec.Formula, env, out)
			if err != nil {
				if isUnresolvedDependency(err) {
					next = append(next, ne)
					continue
				}
				out[ne.Name] = value.Null()
				warnings = append(warnings, Warning{Extractor: ne.Name, Message: err.Error()})
				continue
			}
			out[ne.Name] = v
			env[ne.Name] = v
		}
		remaining = next
	}

	for _, ne := range remaining {
		out[ne.Name] = value.Null()
		warnings = append(warnings, Warning{Extractor: ne.Name, Message: "computed extractor dependency never resolved"})
	}

	return out, warnings
}

type unresolvedDependencyError struct{ name string }

func (e *unresolvedDependencyError) Error() string {
	return fmt.Sprintf("depends on %q, not yet resolved", e.name)
}

func isUnresolvedDependency(err error) bool {
	_, ok := err.(*unresolvedDependencyError)
	return ok
}

// evalComputed interprets the small computed-extractor dialect over
// Values, rather than the Bool/Int/Real-only compiler.Expr, because
// computed extractors may reference strings, dates, and lists from
// simple extractors (e.g. concatenating two string fields).
func evalComputed(f *ontology.ComputedFormula, env, resolved map[string]value.Value) (value.Value, error) {
	if f == nil {
		return value.Null(), fmt.Errorf("computed extractor: empty formula")
	}

	if f.Op == "var" {
		if v, ok := env[f.Var]; ok {
			return v, nil
		}
		if v, ok := resolved[f.Var]; ok {
			return v, nil
		}
		return value.Null(), &unresolvedDependencyError{name: f.Var}
	}

	if f.Op == "const" {
		return decodeConstValue(f.Const)
	}

	args := make([]value.Value, len(f.Args))
	for i, a := range f.Args {
		v, err := evalComputed(a, env, resolved)
		if err != nil {
			return value.Null(), err
		}
		args[i] = v
	}

	switch f.Op {
	case "+":
		return sumReal(args)
	case "-":
		return binaryReal(args, func(a, b decimal.Decimal) decimal.Decimal { return a.Sub(b) })
	case "*":
		return productReal(args)
	case "/":
		return binaryReal(args, func(a, b decimal.Decimal) decimal.Decimal {
			if b.IsZero() {
				return decimal.Zero
			}
			return a.Div(b)
		})
	case "min":
		return binaryReal(args, func(a, b decimal.Decimal) decimal.Decimal {
			if a.LessThan(b) {
				return a
			}
			return b
		})
	case "max":
		return binaryReal(args, func(a, b decimal.Decimal) decimal.Decimal {
			if a.GreaterThan(b) {
				return a
			}
			return b
		})
	case "concat":
		var s string
		for _, a := range args {
			s += a.String_()
		}
		return value.String(s), nil
	case "and":
		for _, a := range args {
			if !a.Bool {
				return value.Bool(false), nil
			}
		}
		return value.Bool(true), nil
	case "or":
		for _, a := range args {
			if a.Bool {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	case "not":
		if len(args) != 1 {
			return value.Null(), fmt.Errorf("computed extractor: %q requires exactly one operand", f.Op)
		}
		return value.Bool(!args[0].Bool), nil
	default:
		return value.Null(), fmt.Errorf("computed extractor: unrecognized op %q", f.Op)
	}
}

func asReal(v value.Value) decimal.Decimal {
	switch v.Kind {
	case value.KindReal:
		return v.Real
	case value.KindInt:
		return decimal.NewFromInt(v.Int)
	default:
		return decimal.Zero
	}
}

func sumReal(args []value.Value) (value.Value, error) {
	sum := decimal.Zero
	for _, a := range args {
		sum = sum.Add(asReal(a))
	}
	return value.Real(sum), nil
}

func productReal(args []value.Value) (value.Value, error) {
	prod := decimal.NewFromInt(1)
	for _, a := range args {
		prod = prod.Mul(asReal(a))
	}
	return value.Real(prod), nil
}

func binaryReal(args []value.Value, fn func(a, b decimal.Decimal) decimal.Decimal) (value.Value, error) {
	if len(args) != 2 {
		return value.Null(), fmt.Errorf("computed extractor: operator requires exactly two operands, got %d", len(args))
	}
	return value.Real(fn(asReal(args[0]), asReal(args[1]))), nil
}

func decodeConstValue(raw json.RawMessage) (value.Value, error) {
	if len(raw) == 0 {
		return value.Null(), fmt.Errorf("computed extractor: empty const")
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return value.Bool(b), nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return value.Real(decimal.NewFromFloat(f)), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return value.String(s), nil
	}
	return value.Null(), fmt.Errorf("computed extractor: unsupported const shape %s", string(raw))
}
