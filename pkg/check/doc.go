// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

// Package check describes validation rules for columns, index levels
// and whole tables.
//
// A check is either registered (a name plus statistics that a Registry
// can rebuild it from), an expression (Starlark source evaluated over
// the column), or opaque (wraps an arbitrary Go function). Only
// registered checks survive serialization; the other kinds run during
// validation and are reported with a warning when a schema is written
// out.
package check
