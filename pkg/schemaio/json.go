// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

package schemaio

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/framelab/framecheck/pkg/orderedmap"
	"github.com/framelab/framecheck/pkg/schema"
)

// ToJSON renders the schema as a JSON document with the same shape and
// key order as the YAML form.
func ToJSON(s *schema.Schema, opts Opts) (string, error) {
	if s == nil {
		return "", fmt.Errorf("cannot encode a nil schema")
	}
	var buf bytes.Buffer
	if err := appendJSON(&buf, schemaObject(s, opts.registry(), opts.ui())); err != nil {
		return "", fmt.Errorf("encoding schema: %s", err)
	}
	buf.WriteByte('\n')
	return buf.String(), nil
}

// FromJSON builds a schema from a JSON document. JSON parses as YAML,
// so decoding shares the YAML path once the syntax is vetted.
func FromJSON(data []byte, opts Opts) (*schema.Schema, error) {
	if strings.TrimSpace(string(data)) == "" {
		return schema.New(), nil
	}
	if !json.Valid(data) {
		return nil, schema.NewSchemaDefinitionError("schema document is not valid JSON")
	}
	return FromYAML(data, opts)
}

func appendJSON(buf *bytes.Buffer, val interface{}) error {
	switch v := val.(type) {
	case *orderedmap.Map:
		buf.WriteByte('{')
		first := true
		err := v.IterateErr(func(key string, item interface{}) error {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			keyJSON, err := json.Marshal(key)
			if err != nil {
				return err
			}
			buf.Write(keyJSON)
			buf.WriteByte(':')
			return appendJSON(buf, item)
		})
		if err != nil {
			return err
		}
		buf.WriteByte('}')
		return nil
	case []interface{}:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return fmt.Errorf("cannot represent %v in JSON", v)
		}
		buf.WriteString(formatFloat(v))
		return nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(raw)
		return nil
	}
}
