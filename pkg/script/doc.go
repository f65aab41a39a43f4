// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

// Package script renders schemas as executable Starlark scripts and
// runs such scripts back into schemas.
//
// A generated script loads the framecheck module and assigns a global
// named `schema`; executing it under Execute yields a schema equal to
// the one it was generated from, provided every check it names is
// registered. Generation mirrors the document encoder: checks the
// registry cannot rebuild are dropped with a warning, except
// expression checks, which embed their source literally.
package script
