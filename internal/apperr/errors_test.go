// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_MessageFormatting(t *testing.T) {
	withSubject := New(KindCompileError, "rent-cap", "undeclared variable")
	assert.Equal(t, "compile_error: rent-cap: undeclared variable", withSubject.Error())

	withoutSubject := New(KindInternal, "", "boom")
	assert.Equal(t, "internal_error: boom", withoutSubject.Error())
}

func TestWrap_PreservesCauseForUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	wrapped := Wrap(KindLoadError, "lease-terms.json", cause)

	assert.Equal(t, cause, errors.Unwrap(wrapped))
	assert.Contains(t, wrapped.Error(), "connection refused")
}

func TestHTTPStatus_MapsKnownKinds(t *testing.T) {
	assert.Equal(t, 422, KindLoadError.HTTPStatus())
	assert.Equal(t, 404, KindUnknownOntology.HTTPStatus())
	assert.Equal(t, 500, KindCompileError.HTTPStatus())
	assert.Equal(t, 500, KindExtractionWarn.HTTPStatus())
	assert.Equal(t, 500, KindIndeterminate.HTTPStatus())
	assert.Equal(t, 500, KindInternal.HTTPStatus())
}

func TestIs_MatchesThroughWrappedErrors(t *testing.T) {
	inner := New(KindUnknownOntology, "lease-terms", "not registered")
	outer := fmt.Errorf("resolving ontology: %w", inner)

	assert.True(t, Is(outer, KindUnknownOntology))
	assert.False(t, Is(outer, KindLoadError))
}

func TestIs_FalseForPlainErrors(t *testing.T) {
	assert.False(t, Is(errors.New("plain"), KindInternal))
	assert.False(t, Is(nil, KindInternal))
}
