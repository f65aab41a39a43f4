// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/framelab/framecheck/pkg/cmd/ui"
	"github.com/framelab/framecheck/pkg/dataframe"
	"github.com/framelab/framecheck/pkg/schema"
	"github.com/framelab/framecheck/pkg/schemaio"
	"github.com/framelab/framecheck/pkg/script"
)

type ValidateOptions struct {
	SchemaPath string
	Watch      bool
	Debug      bool
}

func NewValidateOptions() *ValidateOptions {
	return &ValidateOptions{}
}

func NewValidateCmd(o *ValidateOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate DATA-FILE",
		Short: "Validate a data file against a schema",
		Long: `Validate a data file against a schema.

The schema file may be a YAML document, a JSON document or a schema
script (.star). The data file holds records as YAML, JSON or TOML,
picked by extension.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error { return o.Run(args[0]) },
	}
	cmd.Flags().StringVarP(&o.SchemaPath, "schema", "s", "", "Schema file (required)")
	cmd.MarkFlagRequired("schema")
	cmd.Flags().BoolVarP(&o.Watch, "watch", "w", false, "Re-validate when either file changes")
	cmd.Flags().BoolVar(&o.Debug, "debug", false, "Include debug output")
	return cmd
}

func (o *ValidateOptions) Run(dataPath string) error {
	u := ui.NewTTY(o.Debug)

	if !o.Watch {
		return o.validateOnce(u, dataPath)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// watch the directories; editors replace files rather than write
	// them in place, which drops watches on the files themselves
	for _, dir := range watchDirs(o.SchemaPath, dataPath) {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %s", dir, err)
		}
	}

	if err := o.validateOnce(u, dataPath); err != nil {
		u.Printf("%s\n", err)
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !sameFile(event.Name, o.SchemaPath) && !sameFile(event.Name, dataPath) {
				continue
			}
			u.Printf("---\n")
			if err := o.validateOnce(u, dataPath); err != nil {
				u.Printf("%s\n", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			u.Printf("watch error: %s\n", err)
		}
	}
}

func (o *ValidateOptions) validateOnce(u ui.UI, dataPath string) error {
	s, err := loadSchemaFile(o.SchemaPath, u)
	if err != nil {
		return err
	}
	df, err := dataframe.LoadFile(dataPath)
	if err != nil {
		return err
	}

	report := s.Check(df)
	if report.HasViolations() {
		u.Printf("%s: %d violation(s)\n", dataPath, len(report.Violations))
		for _, violation := range report.Violations {
			u.Printf("  - %s\n", violation)
		}
		return fmt.Errorf("validation failed")
	}
	u.Printf("%s: ok\n", dataPath)
	return nil
}

// loadSchemaFile picks the schema codec by extension: schema scripts
// execute, everything else parses as a document.
func loadSchemaFile(path string, u ui.UI) (*schema.Schema, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".star", ".script":
		return script.ExecuteFile(path, script.Opts{UI: u})
	case ".json":
		data, err := readInput(path)
		if err != nil {
			return nil, err
		}
		return schemaio.FromJSON(data, schemaio.Opts{UI: u})
	default:
		data, err := readInput(path)
		if err != nil {
			return nil, err
		}
		return schemaio.FromYAML(data, schemaio.Opts{UI: u})
	}
}

func watchDirs(paths ...string) []string {
	var dirs []string
	seen := map[string]bool{}
	for _, path := range paths {
		dir := filepath.Dir(path)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

func sameFile(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}
