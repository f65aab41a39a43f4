// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

// Package framecheck validates tabular data against declarative
// schemas. A schema names its columns, their types and the checks each
// must satisfy; it serializes to a YAML document or to an executable
// schema script, and either form deserializes back to an equal schema.
//
// This package is the facade over the library: it re-exports the model
// types and offers the serialization entry points with their default
// configuration (the process-wide check registry, warnings to stderr).
// Callers that need an injected registry or a captured warning stream
// use pkg/schemaio and pkg/script directly.
package framecheck

import (
	"io"

	"github.com/framelab/framecheck/pkg/schema"
	"github.com/framelab/framecheck/pkg/schemaio"
	"github.com/framelab/framecheck/pkg/script"
)

// Model types, re-exported so most callers import one package.
type (
	Schema     = schema.Schema
	Column     = schema.Column
	Index      = schema.Index
	MultiIndex = schema.MultiIndex
)

// NewSchema returns an empty schema.
func NewSchema() *Schema { return schema.New() }

// ToYAML renders the schema as a YAML document.
func ToYAML(s *Schema) (string, error) {
	return schemaio.ToYAML(s, schemaio.Opts{})
}

// WriteYAML renders the schema as a YAML document onto w.
func WriteYAML(s *Schema, w io.Writer) error {
	return schemaio.Write(s, w, schemaio.Opts{})
}

// WriteYAMLFile renders the schema as a YAML document into the named
// file.
func WriteYAMLFile(s *Schema, path string) error {
	return schemaio.WriteFile(s, path, schemaio.Opts{})
}

// FromYAML builds a schema from a YAML document. Empty input yields an
// empty schema; every check the document names must be registered.
func FromYAML(data []byte) (*Schema, error) {
	return schemaio.FromYAML(data, schemaio.Opts{})
}

// ReadYAML builds a schema from a YAML document read off r.
func ReadYAML(r io.Reader) (*Schema, error) {
	return schemaio.Read(r, schemaio.Opts{})
}

// ReadYAMLFile builds a schema from the named YAML document.
func ReadYAMLFile(path string) (*Schema, error) {
	return schemaio.ReadFile(path, schemaio.Opts{})
}

// ToJSON renders the schema as a JSON document.
func ToJSON(s *Schema) (string, error) {
	return schemaio.ToJSON(s, schemaio.Opts{})
}

// FromJSON builds a schema from a JSON document.
func FromJSON(data []byte) (*Schema, error) {
	return schemaio.FromJSON(data, schemaio.Opts{})
}

// ToScript renders the schema as an executable script binding a global
// named `schema`.
func ToScript(s *Schema) (string, error) {
	return script.Generate(s, script.Opts{})
}

// WriteScript renders the schema as an executable script onto w.
func WriteScript(s *Schema, w io.Writer) error {
	return script.Write(s, w, script.Opts{})
}

// WriteScriptFile renders the schema as an executable script into the
// named file.
func WriteScriptFile(s *Schema, path string) error {
	return script.WriteFile(s, path, script.Opts{})
}

// ExecuteScript runs a schema script and returns the schema it binds.
// The name labels error positions.
func ExecuteScript(name, src string) (*Schema, error) {
	return script.Execute(name, src, script.Opts{})
}

// ExecuteScriptFile runs the named schema script.
func ExecuteScriptFile(path string) (*Schema, error) {
	return script.ExecuteFile(path, script.Opts{})
}
