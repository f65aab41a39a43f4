// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

package dataframe

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// LoadFile reads tabular records from a file, picking the format by
// extension: .yml/.yaml (sequence of mappings), .json (array of objects),
// .toml ([[rows]] array of tables).
func LoadFile(path string) (*DataFrame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading '%s': %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return FromYAMLRecords(data)
	case ".json":
		return FromJSONRecords(data)
	case ".toml":
		return FromTOMLRecords(data)
	default:
		return nil, fmt.Errorf("unsupported data format '%s' (want .yaml, .json or .toml)", filepath.Ext(path))
	}
}

// FromYAMLRecords parses a YAML sequence of mappings. Column order follows
// first appearance in the document, which the YAML node tree preserves.
func FromYAMLRecords(data []byte) (*DataFrame, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing records: %w", err)
	}
	if len(doc.Content) == 0 {
		return New()
	}

	root := doc.Content[0]
	if root.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("records document must be a sequence of mappings")
	}

	var order []string
	var records []map[string]interface{}
	for _, item := range root.Content {
		if item.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("record %d is not a mapping", len(records)+1)
		}
		record := map[string]interface{}{}
		for i := 0; i+1 < len(item.Content); i += 2 {
			key := item.Content[i].Value
			var val interface{}
			if err := item.Content[i+1].Decode(&val); err != nil {
				return nil, fmt.Errorf("record %d, key '%s': %w", len(records)+1, key, err)
			}
			if _, seen := record[key]; !seen {
				if !contains(order, key) {
					order = append(order, key)
				}
			}
			record[key] = normalizeCell(val, false)
		}
		records = append(records, record)
	}
	return fromRecords(order, records)
}

// FromJSONRecords parses a JSON array of objects. Object key order is not
// observable, so columns come out name-sorted.
func FromJSONRecords(data []byte) (*DataFrame, error) {
	var records []map[string]interface{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing records: %w", err)
	}
	return fromRecords(sortedKeys(records), normalizeRecords(records, true))
}

// FromTOMLRecords parses a TOML document with a [[rows]] array of tables.
func FromTOMLRecords(data []byte) (*DataFrame, error) {
	var doc struct {
		Rows []map[string]interface{} `toml:"rows"`
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing records: %w", err)
	}
	return fromRecords(sortedKeys(doc.Rows), normalizeRecords(doc.Rows, false))
}

func fromRecords(order []string, records []map[string]interface{}) (*DataFrame, error) {
	df, err := New()
	if err != nil {
		return nil, err
	}
	for _, name := range order {
		values := make([]interface{}, 0, len(records))
		for _, record := range records {
			values = append(values, record[name])
		}
		if err := df.AddColumn(NewSeries(name, "", values...)); err != nil {
			return nil, err
		}
	}
	return df, nil
}

// normalizeCell settles loader-dependent numeric representations: every
// integer arrives as int64 so dtype checks see one shape regardless of
// source format. foldFloats additionally turns integral floats into int64,
// for formats whose only number type is a float (JSON).
func normalizeCell(val interface{}, foldFloats bool) interface{} {
	switch typedVal := val.(type) {
	case int:
		return int64(typedVal)
	case int32:
		return int64(typedVal)
	case float64:
		if foldFloats && typedVal == float64(int64(typedVal)) {
			return int64(typedVal)
		}
		return typedVal
	case []interface{}:
		for i, item := range typedVal {
			typedVal[i] = normalizeCell(item, foldFloats)
		}
		return typedVal
	default:
		return val
	}
}

func normalizeRecords(records []map[string]interface{}, foldFloats bool) []map[string]interface{} {
	for _, record := range records {
		for k, v := range record {
			record[k] = normalizeCell(v, foldFloats)
		}
	}
	return records
}

func sortedKeys(records []map[string]interface{}) []string {
	var keys []string
	for _, record := range records {
		for k := range record {
			if !contains(keys, k) {
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
