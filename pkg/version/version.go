// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

// Package version records the library version written into serialized
// schema documents.
package version

// Version of the framecheck library. Serialized documents carry this
// value in their `version` key; it is advisory and never enforced on read.
const Version = "0.5.0"
