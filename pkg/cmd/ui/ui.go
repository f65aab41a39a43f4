// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"io"
)

// UI is where user-visible output lands. Serialization soft failures
// (unrepresentable checks) surface through Warnf; hard failures are
// returned as errors and are never printed here.
type UI interface {
	Printf(string, ...interface{})
	Debugf(string, ...interface{})
	Warnf(str string, args ...interface{})
	DebugWriter() io.Writer
}
