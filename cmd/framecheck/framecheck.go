// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	uierrs "github.com/cppforlife/go-cli-ui/errors"

	"github.com/framelab/framecheck/pkg/cmd"
)

func main() {
	command := cmd.NewDefaultFramecheckCmd()

	err := command.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "framecheck: Error: %s\n", uierrs.NewMultiLineError(err))
		os.Exit(1)
	}
}
