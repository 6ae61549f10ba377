// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package value defines the tagged-variant Value produced by the
// extraction engine and consumed by the formula compiler.
package value

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindReal
	KindString
	KindDate
	KindEnum
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindReal:
		return "real"
	case KindString:
		return "string"
	case KindDate:
		return "date"
	case KindEnum:
		return "enum"
	case KindList:
		return "list"
	default:
		return "null"
	}
}

// Value is the tagged union produced by an extractor. Only the field
// matching Kind is meaningful; the rest are zero.
type Value struct {
	Kind Kind

	Bool   bool
	Int    int64
	Real   decimal.Decimal
	String string
	Date   time.Time
	Enum   string
	List   []Value
}

func Null() Value                { return Value{Kind: KindNull} }
func Bool(b bool) Value           { return Value{Kind: KindBool, Bool: b} }
func Int(i int64) Value           { return Value{Kind: KindInt, Int: i} }
func Real(d decimal.Decimal) Value { return Value{Kind: KindReal, Real: d} }
func String(s string) Value       { return Value{Kind: KindString, String: s} }
func Date(t time.Time) Value      { return Value{Kind: KindDate, Date: t} }
func Enum(label string) Value     { return Value{Kind: KindEnum, Enum: label} }
func List(items []Value) Value    { return Value{Kind: KindList, List: items} }

// IsNull reports whether v is the null variant.
func (v Value) IsNull() bool { return v.Kind == KindNull }

func (v Value) String_() string {
	switch v.Kind {
	case KindBool:
		return fmt.Sprintf("%v", v.Bool)
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindReal:
		return v.Real.String()
	case KindString:
		return v.String
	case KindDate:
		return v.Date.Format(time.RFC3339)
	case KindEnum:
		return v.Enum
	case KindList:
		return fmt.Sprintf("%v", v.List)
	default:
		return "null"
	}
}

// MarshalJSON renders the Value the way a debugging `parsed_data` snapshot
// should: a bare JSON scalar/array per kind, not a {"kind":...} envelope.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindBool:
		if v.Bool {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case KindInt:
		return []byte(fmt.Sprintf("%d", v.Int)), nil
	case KindReal:
		return []byte(v.Real.String()), nil
	case KindString:
		return quoteJSON(v.String), nil
	case KindDate:
		return quoteJSON(v.Date.Format(time.RFC3339)), nil
	case KindEnum:
		return quoteJSON(v.Enum), nil
	case KindList:
		out := []byte("[")
		for i, item := range v.List {
			if i > 0 {
				out = append(out, ',')
			}
			b, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			out = append(out, b...)
		}
		out = append(out, ']')
		return out, nil
	default:
		return []byte("null"), nil
	}
}

func quoteJSON(s string) []byte {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')
	for _, r := range s {
		switch r {
		case '"':
			out = append(out, '\\', '"')
		case '\\':
			out = append(out, '\\', '\\')
		case '\n':
			out = append(out, '\\', 'n')
		default:
			out = append(out, string(r)...)
		}
	}
	out = append(out, '"')
	return out
}

// CoerceSort attempts to coerce v to the solver sort named by sort
// ("bool", "int", or "real"), per the rules in the data model: bool->0/1,
// int truncation for float, int->real widening. Strings, dates, enums,
// lists, and null have no coercion path and report ok=false.
func (v Value) CoerceSort(sort string) (out Value, ok bool) {
	switch sort {
	case "bool":
		switch v.Kind {
		case KindBool:
			return v, true
		default:
			return Null(), false
		}
	case "int":
		switch v.Kind {
		case KindInt:
			return v, true
		case KindReal:
			return Int(v.Real.IntPart()), true
		case KindBool:
			if v.Bool {
				return Int(1), true
			}
			return Int(0), true
		default:
			return Null(), false
		}
	case "real":
		switch v.Kind {
		case KindReal:
			return v, true
		case KindInt:
			return Real(decimal.NewFromInt(v.Int)), true
		case KindBool:
			if v.Bool {
				return Real(decimal.NewFromInt(1)), true
			}
			return Real(decimal.NewFromInt(0)), true
		default:
			return Null(), false
		}
	default:
		return Null(), false
	}
}

// Default returns the typed zero value for a declared sort, used when an
// extractor misses or produces an incompatible Value.
func Default(sort string) Value {
	switch sort {
	case "bool":
		return Bool(false)
	case "int":
		return Int(0)
	case "real":
		return Real(decimal.Zero)
	default:
		return Null()
	}
}
