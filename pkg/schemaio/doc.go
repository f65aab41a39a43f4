// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

// Package schemaio reads and writes schema documents.
//
// The document format is a mapping with the keys schema_type, version,
// columns, checks, index, coerce and strict, serialized as YAML (or
// JSON, which shares the same shape). Encoding is deterministic: the
// same schema always produces the same bytes. Decoding is strict about
// structure, lenient about producer version, and fails hard on check
// names the registry cannot rebuild.
package schemaio
