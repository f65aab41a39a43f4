// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

package schemaio

import (
	"io"
	"os"

	"github.com/framelab/framecheck/pkg/check"
	"github.com/framelab/framecheck/pkg/cmd/ui"
	"github.com/framelab/framecheck/pkg/schema"
)

// Opts adjusts serialization behavior. The zero value resolves check
// names against the default registry and prints warnings to stderr.
type Opts struct {
	Registry check.Registry
	UI       ui.UI
}

func (o Opts) registry() check.Registry {
	if o.Registry != nil {
		return o.Registry
	}
	return check.DefaultRegistry()
}

func (o Opts) ui() ui.UI {
	if o.UI != nil {
		return o.UI
	}
	return ui.NewTTY(false)
}

// Write renders the schema as a YAML document onto w.
func Write(s *schema.Schema, w io.Writer, opts Opts) error {
	doc, err := ToYAML(s, opts)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, doc)
	return err
}

// WriteFile renders the schema as a YAML document into the named file.
func WriteFile(s *schema.Schema, path string, opts Opts) error {
	doc, err := ToYAML(s, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(doc), 0644)
}

// Read decodes a YAML schema document from r.
func Read(r io.Reader, opts Opts) (*schema.Schema, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return FromYAML(data, opts)
}

// ReadFile decodes the named YAML schema document.
func ReadFile(path string, opts Opts) (*schema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data, opts)
}
