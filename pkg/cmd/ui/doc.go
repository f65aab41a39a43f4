// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package ui provides a thin abstraction over user-facing output (typically,
a tty device). Library code receives a UI to emit warnings without deciding
where they land.
*/
package ui
