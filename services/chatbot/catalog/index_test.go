// Copyright (C) 2025 Atlas Chat Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlasbot/atlaschat/services/chatbot/datatypes"
)

// =============================================================================
// Test Setup
// =============================================================================

func action(name string) datatypes.Action {
	return datatypes.Action{Type: name}
}

func writeCatalogFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "atlas.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

// =============================================================================
// Load Tests
// =============================================================================

func TestLoad_Success(t *testing.T) {
	path := writeCatalogFile(t, `{
		"result": [
			{"type": "addLeadV1", "requiredArguments": [{"name": "leadUuid"}], "optionalArguments": []},
			{"type": "refundEaterV1", "requiredArguments": [], "optionalArguments": [{"name": "reason"}]}
		]
	}`)

	ix, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, ix.Count())

	a, err := ix.FindByName("addLeadV1")
	require.NoError(t, err)
	assert.Len(t, a.RequiredArguments, 1)
	assert.Equal(t, "leadUuid", a.RequiredArguments[0].Name)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)

	var loadErr *LoadError
	assert.True(t, errors.As(err, &loadErr))
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := writeCatalogFile(t, `{"result": [`)

	_, err := Load(path)
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, path, loadErr.Source)
}

func TestLoad_MissingResultArray(t *testing.T) {
	path := writeCatalogFile(t, `{"actions": []}`)

	_, err := Load(path)
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Contains(t, err.Error(), "missing result array")
}

func TestLoad_EmptyResultIsValid(t *testing.T) {
	path := writeCatalogFile(t, `{"result": []}`)

	ix, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, ix.Count())
}

// =============================================================================
// New Tests
// =============================================================================

func TestNew_DuplicateType(t *testing.T) {
	_, err := New([]datatypes.Action{action("addLeadV1"), action("addLeadV1")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate action type")
}

func TestNew_EmptyType(t *testing.T) {
	_, err := New([]datatypes.Action{action("addLeadV1"), {}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no type")
}

func TestNew_CopiesInput(t *testing.T) {
	src := []datatypes.Action{action("addLeadV1")}
	ix, err := New(src)
	require.NoError(t, err)

	src[0].Type = "mutated"
	a, err := ix.FindByName("addLeadV1")
	require.NoError(t, err)
	assert.Equal(t, "addLeadV1", a.Type)
}

// =============================================================================
// Lookup and Iteration Tests
// =============================================================================

func TestFindByName_NotFound(t *testing.T) {
	ix, err := New([]datatypes.Action{action("addLeadV1")})
	require.NoError(t, err)

	_, err = ix.FindByName("addleadv1") // lookups are exact, not case-folded
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAll_PreservesInsertionOrder(t *testing.T) {
	ix, err := New([]datatypes.Action{action("c"), action("a"), action("b")})
	require.NoError(t, err)

	var got []string
	for a := range ix.All() {
		got = append(got, a.Type)
	}
	assert.Equal(t, []string{"c", "a", "b"}, got)
}

func TestAll_IsRestartable(t *testing.T) {
	ix, err := New([]datatypes.Action{action("a"), action("b")})
	require.NoError(t, err)

	seq := ix.All()
	first := 0
	for range seq {
		first++
	}
	second := 0
	for range seq {
		second++
	}
	assert.Equal(t, first, second)
}

func TestSearch_CaseInsensitiveContainment(t *testing.T) {
	ix, err := New([]datatypes.Action{
		action("addLeadV1"),
		action("refundEaterV1"),
		action("addMessageV1"),
	})
	require.NoError(t, err)

	var got []string
	for a := range ix.Search("ADD") {
		got = append(got, a.Type)
	}
	assert.Equal(t, []string{"addLeadV1", "addMessageV1"}, got)
}

func TestSearch_EmptyTokenMatchesEverything(t *testing.T) {
	ix, err := New([]datatypes.Action{action("a"), action("b")})
	require.NoError(t, err)

	count := 0
	for range ix.Search("") {
		count++
	}
	assert.Equal(t, 2, count)
}
