// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"github.com/k14s/starlark-go/resolve"
)

// ConfigureResolver widens the starlark dialect for schema scripts and
// check expressions: floats, sets, lambdas, bitwise ops, recursion and
// global reassignment are all allowed. The flags are package globals in
// starlark-go, so this applies process-wide.
func ConfigureResolver() {
	resolve.AllowFloat = true
	resolve.AllowSet = true
	resolve.AllowLambda = true
	resolve.AllowNestedDef = true
	resolve.AllowBitwise = true
	resolve.AllowRecursion = true
	resolve.AllowGlobalReassign = true
}
