// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

// Package schema models table schemas: named, typed columns with
// checks and flags, optional index levels, and table-wide settings.
// Schemas are plain values; serialization lives in schemaio and script.
package schema
