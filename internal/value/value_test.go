// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package value

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalJSON_ScalarKinds(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want string
	}{
		{"bool true", Bool(true), "true"},
		{"bool false", Bool(false), "false"},
		{"int", Int(42), "42"},
		{"real", Real(decimal.NewFromFloat(5000.50)), "5000.5"},
		{"string", String(`has "quotes"`), `"has \"quotes\""`},
		{"enum", Enum("tier_one"), `"tier_one"`},
		{"null", Null(), "null"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			data, err := c.v.MarshalJSON()
			require.NoError(t, err)
			assert.JSONEq(t, c.want, string(data))
		})
	}
}

func TestMarshalJSON_ListNestsBareElements(t *testing.T) {
	v := List([]Value{Int(1), Int(2), String("x")})
	data, err := v.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `[1,2,"x"]`, string(data))

	var round []json.RawMessage
	require.NoError(t, json.Unmarshal(data, &round))
	assert.Len(t, round, 3)
}

func TestCoerceSort_IntToReal(t *testing.T) {
	out, ok := Int(7).CoerceSort("real")
	require.True(t, ok)
	assert.Equal(t, KindReal, out.Kind)
	assert.True(t, decimal.NewFromInt(7).Equal(out.Real))
}

func TestCoerceSort_RealToIntTruncates(t *testing.T) {
	out, ok := Real(decimal.NewFromFloat(5.9)).CoerceSort("int")
	require.True(t, ok)
	assert.Equal(t, int64(5), out.Int)
}

func TestCoerceSort_BoolWidensToNumeric(t *testing.T) {
	out, ok := Bool(true).CoerceSort("int")
	require.True(t, ok)
	assert.Equal(t, int64(1), out.Int)

	out, ok = Bool(false).CoerceSort("real")
	require.True(t, ok)
	assert.True(t, decimal.Zero.Equal(out.Real))
}

func TestCoerceSort_StringHasNoCoercionPath(t *testing.T) {
	for _, sort := range []string{"bool", "int", "real"} {
		_, ok := String("hello").CoerceSort(sort)
		assert.False(t, ok, "sort=%s", sort)
	}
}

func TestDefault_PerDeclaredSort(t *testing.T) {
	assert.Equal(t, KindBool, Default("bool").Kind)
	assert.Equal(t, KindInt, Default("int").Kind)
	assert.Equal(t, KindReal, Default("real").Kind)
	assert.True(t, decimal.Zero.Equal(Default("real").Real))
	assert.Equal(t, KindNull, Default("unknown").Kind)
}

func TestIsNull(t *testing.T) {
	assert.True(t, Null().IsNull())
	assert.False(t, Int(0).IsNull())
}
