// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package cmd is home to the full set of framecheck's "commands" -- instances
of cobra.Command (not to be confused with ./cmd which contains the
bootstrapping for executing framecheck in various environments).

A cobra.Command is the starting point of execution.

For a list of commands run:

	$ framecheck help
*/
package cmd
