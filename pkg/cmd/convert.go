// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/framelab/framecheck/pkg/cmd/ui"
	"github.com/framelab/framecheck/pkg/schema"
	"github.com/framelab/framecheck/pkg/schemaio"
	"github.com/framelab/framecheck/pkg/script"
)

type ConvertOptions struct {
	To         string
	OutputPath string
	Debug      bool
}

func NewConvertOptions() *ConvertOptions {
	return &ConvertOptions{}
}

func NewConvertCmd(o *ConvertOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert SCHEMA-FILE",
		Short: "Convert a schema between its document and script forms",
		Long: `Convert a schema between its document and script forms.

The input may be a YAML document, a JSON document or a schema script
(.star), picked by extension; '-' reads a document from stdin. Checks
the registry cannot rebuild are dropped with a warning on re-encode.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error { return o.Run(args[0]) },
	}
	cmd.Flags().StringVar(&o.To, "to", "yaml", "Output form (yaml, json or script)")
	cmd.Flags().StringVarP(&o.OutputPath, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().BoolVar(&o.Debug, "debug", false, "Include debug output")
	return cmd
}

func (o *ConvertOptions) Run(inputPath string) error {
	u := ui.NewTTY(o.Debug)

	var s *schema.Schema
	var err error
	if inputPath == "-" {
		var data []byte
		data, err = io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		// JSON is a YAML subset, so one parse covers both documents
		s, err = schemaio.FromYAML(data, schemaio.Opts{UI: u})
	} else {
		s, err = loadSchemaFile(inputPath, u)
	}
	if err != nil {
		return err
	}

	out, err := o.encode(s, u)
	if err != nil {
		return err
	}

	if o.OutputPath == "" {
		u.Printf("%s", out)
		return nil
	}
	return os.WriteFile(o.OutputPath, []byte(out), 0644)
}

func (o *ConvertOptions) encode(s *schema.Schema, u ui.UI) (string, error) {
	switch o.To {
	case "yaml":
		return schemaio.ToYAML(s, schemaio.Opts{UI: u})
	case "json":
		return schemaio.ToJSON(s, schemaio.Opts{UI: u})
	case "script":
		return script.Generate(s, script.Opts{UI: u})
	default:
		return "", fmt.Errorf("unknown output form '%s' (expected yaml, json or script)", o.To)
	}
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
