// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package pkg is the collection of packages that make up the implementation
of framecheck.

The codebase is organized into well-defined layers: each package has one
concern and depends on other packages only to the degree absolutely
required.

# Entry Points

framecheck is built into two executable formats:

	./cmd/framecheck          // a command-line tool
	./cmd/framecheck-lambda   // an AWS Lambda function serving the playground API

# Commands

The cobra commands: validate, convert, fmt, website and version.

	pkg/cmd
	pkg/website

# Serialization

The heart of the library is the round-trip contract: a schema encodes to
a YAML (or JSON) document, or to an executable schema script, and either
form decodes back to an equal schema.

	pkg/schemaio       // document encoder/decoder
	pkg/script         // script generator and in-process executor
	pkg/script/core    // Go <-> Starlark value bridge

# The Model

	pkg/schema         // Schema, Column, Index, MultiIndex; validation engine
	pkg/check          // checks, builtin methods, the registry
	pkg/dtype          // column type vocabulary
	pkg/dataframe      // the in-memory table validation runs against

# Utilities

	pkg/orderedmap     // insertion-ordered mappings (the encoding contract)
	pkg/cmd/ui         // user-facing output, the warning channel
	pkg/version        // the version tag written into documents
*/
package pkg
