// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

// Package core converts values between their Go and Starlark
// representations and carries shared plumbing for builtins exposed to
// Starlark programs.
package core
