// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

package framecheck_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/framelab/framecheck"
	"github.com/framelab/framecheck/pkg/check"
	"github.com/framelab/framecheck/pkg/dtype"
)

func facadeFixture() *framecheck.Schema {
	s := framecheck.NewSchema()
	s.AddColumn("id", framecheck.Column{
		DType:           dtype.Int64,
		Checks:          []check.Check{check.GreaterThan(0)},
		AllowDuplicates: true,
		Required:        true,
	})
	s.Strict = true
	return s
}

func TestFacadeYAMLRoundTrip(t *testing.T) {
	s := facadeFixture()

	doc, err := framecheck.ToYAML(s)
	require.NoError(t, err)

	loaded, err := framecheck.FromYAML([]byte(doc))
	require.NoError(t, err)
	require.True(t, s.Equal(loaded))

	// re-encoding the decoded schema changes nothing
	again, err := framecheck.ToYAML(loaded)
	require.NoError(t, err)
	require.Equal(t, doc, again)
}

func TestFacadeJSONRoundTrip(t *testing.T) {
	s := facadeFixture()

	doc, err := framecheck.ToJSON(s)
	require.NoError(t, err)

	loaded, err := framecheck.FromJSON([]byte(doc))
	require.NoError(t, err)
	require.True(t, s.Equal(loaded))
}

func TestFacadeScriptRoundTrip(t *testing.T) {
	s := facadeFixture()

	src, err := framecheck.ToScript(s)
	require.NoError(t, err)

	loaded, err := framecheck.ExecuteScript("schema.star", src)
	require.NoError(t, err)
	require.True(t, s.Equal(loaded))
}

func TestFacadeDestinations(t *testing.T) {
	s := facadeFixture()
	dir := t.TempDir()

	var buf bytes.Buffer
	require.NoError(t, framecheck.WriteYAML(s, &buf))
	fromStream, err := framecheck.ReadYAML(&buf)
	require.NoError(t, err)
	require.True(t, s.Equal(fromStream))

	yamlPath := filepath.Join(dir, "schema.yaml")
	require.NoError(t, framecheck.WriteYAMLFile(s, yamlPath))
	fromFile, err := framecheck.ReadYAMLFile(yamlPath)
	require.NoError(t, err)
	require.True(t, s.Equal(fromFile))

	scriptPath := filepath.Join(dir, "schema.star")
	require.NoError(t, framecheck.WriteScriptFile(s, scriptPath))
	fromScript, err := framecheck.ExecuteScriptFile(scriptPath)
	require.NoError(t, err)
	require.True(t, s.Equal(fromScript))
}
