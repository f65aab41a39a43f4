// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/cppforlife/cobrautil"
	"github.com/spf13/cobra"

	"github.com/framelab/framecheck/pkg/version"
)

type FramecheckOptions struct{}

func NewDefaultFramecheckOptions() *FramecheckOptions {
	return &FramecheckOptions{}
}

func NewDefaultFramecheckCmd() *cobra.Command {
	return NewFramecheckCmd(NewDefaultFramecheckOptions())
}

func NewFramecheckCmd(o *FramecheckOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "framecheck",
		Version: version.Version,
		Short:   "framecheck validates tabular data against declarative schemas",
		Long: `framecheck validates tabular data against declarative schemas.

Schemas are carried as YAML documents or as executable schema scripts;
both forms decode back to an equal schema.`,
	}

	// Affects children as well
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	// Disable docs header
	cmd.DisableAutoGenTag = true

	cmd.AddCommand(NewVersionCmd(NewVersionOptions()))
	cmd.AddCommand(NewValidateCmd(NewValidateOptions()))
	cmd.AddCommand(NewConvertCmd(NewConvertOptions()))
	cmd.AddCommand(NewFmtCmd(NewFmtOptions()))
	cmd.AddCommand(NewWebsiteCmd(NewWebsiteOptions()))

	// Reconfigure Commands
	cobrautil.VisitCommands(cmd, cobrautil.ReconfigureCmdWithSubcmd,
		cobrautil.DisallowExtraArgs, cobrautil.WrapRunEForCmd(cobrautil.ResolveFlagsForCmd))

	return cmd
}
