// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/framelab/framecheck/pkg/cmd/ui"
	"github.com/framelab/framecheck/pkg/schemaio"
)

type FmtOptions struct {
	InPlace bool
	Debug   bool
}

func NewFmtOptions() *FmtOptions {
	return &FmtOptions{}
}

func NewFmtCmd(o *FmtOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fmt SCHEMA-FILE",
		Short: "Canonicalize a schema document",
		Long: `Canonicalize a schema document: decode it, then re-encode with the
fixed key order, canonical type names and current version tag. '-'
reads from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error { return o.Run(args[0]) },
	}
	cmd.Flags().BoolVarP(&o.InPlace, "in-place", "i", false, "Rewrite the file instead of printing")
	cmd.Flags().BoolVar(&o.Debug, "debug", false, "Include debug output")
	return cmd
}

func (o *FmtOptions) Run(path string) error {
	u := ui.NewTTY(o.Debug)

	data, err := readInput(path)
	if err != nil {
		return err
	}
	s, err := schemaio.FromYAML(data, schemaio.Opts{UI: u})
	if err != nil {
		return err
	}
	out, err := schemaio.ToYAML(s, schemaio.Opts{UI: u})
	if err != nil {
		return err
	}

	if o.InPlace && path != "-" {
		return os.WriteFile(path, []byte(out), 0644)
	}
	u.Printf("%s", out)
	return nil
}
