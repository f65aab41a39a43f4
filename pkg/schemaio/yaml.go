// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

package schemaio

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	goversion "github.com/hashicorp/go-version"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/framelab/framecheck/pkg/check"
	"github.com/framelab/framecheck/pkg/cmd/ui"
	"github.com/framelab/framecheck/pkg/dtype"
	"github.com/framelab/framecheck/pkg/orderedmap"
	"github.com/framelab/framecheck/pkg/schema"
	"github.com/framelab/framecheck/pkg/version"
)

// ToYAML renders the schema as a YAML document. Output is
// deterministic: keys keep a fixed order and integral floats carry a
// decimal point so they read back as floats.
func ToYAML(s *schema.Schema, opts Opts) (string, error) {
	if s == nil {
		return "", fmt.Errorf("cannot encode a nil schema")
	}
	node := yamlNode(schemaObject(s, opts.registry(), opts.ui()))

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return "", fmt.Errorf("encoding schema: %s", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encoding schema: %s", err)
	}
	return buf.String(), nil
}

func yamlNode(val interface{}) *yaml.Node {
	switch v := val.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case *orderedmap.Map:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		v.Iterate(func(key string, item interface{}) {
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
				yamlNode(item))
		})
		return node
	case []interface{}:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v {
			node.Content = append(node.Content, yamlNode(item))
		}
		return node
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v)}
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
	case int64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(v, 10)}
	case float64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: formatFloat(v)}
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: fmt.Sprintf("%v", v)}
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEIN") {
		s += ".0"
	}
	return s
}

// FromYAML builds a schema from a YAML document. Empty or null input
// parses to an empty schema. A check name the registry cannot resolve
// aborts with check.UnknownMethodError so a forgotten registration
// never silently drops a check.
func FromYAML(data []byte, opts Opts) (*schema.Schema, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, schema.NewSchemaDefinitionError("parsing schema document: %s", err)
	}
	if len(doc.Content) == 0 {
		return schema.New(), nil
	}
	root := deref(doc.Content[0])
	if isNullNode(root) {
		return schema.New(), nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, schema.NewSchemaDefinitionError("schema document must be a mapping, found %s", kindName(root))
	}
	return decodeSchema(root, opts)
}

type schemaDescriptor struct {
	SchemaType string `mapstructure:"schema_type"`
	Version    string `mapstructure:"version"`
	Coerce     bool   `mapstructure:"coerce"`
	Strict     bool   `mapstructure:"strict"`
}

type columnDescriptor struct {
	PandasDtype     interface{} `mapstructure:"pandas_dtype"`
	Nullable        bool        `mapstructure:"nullable"`
	AllowDuplicates bool        `mapstructure:"allow_duplicates"`
	Coerce          bool        `mapstructure:"coerce"`
	Required        bool        `mapstructure:"required"`
	Regex           bool        `mapstructure:"regex"`
}

type indexDescriptor struct {
	PandasDtype interface{} `mapstructure:"pandas_dtype"`
	Nullable    bool        `mapstructure:"nullable"`
	Name        *string     `mapstructure:"name"`
	Coerce      bool        `mapstructure:"coerce"`
}

func decodeSchema(root *yaml.Node, opts Opts) (*schema.Schema, error) {
	var columnsNode, checksNode, indexNode *yaml.Node
	scalars := map[string]interface{}{}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		valNode := deref(root.Content[i+1])
		switch key {
		case keyColumns:
			columnsNode = valNode
		case keyChecks:
			checksNode = valNode
		case keyIndex:
			indexNode = valNode
		case keySchemaType, keyVersion, keyCoerce, keyStrict:
			var raw interface{}
			if err := valNode.Decode(&raw); err != nil {
				return nil, schema.NewSchemaDefinitionError("reading '%s': %s", key, err)
			}
			scalars[key] = raw
		default:
			// tolerate keys written by other producers
		}
	}

	var desc schemaDescriptor
	if err := decodeDescriptor(scalars, &desc); err != nil {
		return nil, schema.NewSchemaDefinitionError("%s", err)
	}
	if desc.SchemaType != "" && desc.SchemaType != docSchemaType {
		return nil, schema.NewSchemaDefinitionError("unsupported schema_type '%s', expected '%s'", desc.SchemaType, docSchemaType)
	}
	advertiseVersionSkew(desc.Version, opts.ui())

	s := schema.New()
	s.Coerce = desc.Coerce
	s.Strict = desc.Strict

	if err := decodeColumns(columnsNode, s, opts.registry()); err != nil {
		return nil, err
	}
	tableChecks, err := decodeChecks(checksNode, dtype.Untyped, "table checks", opts.registry())
	if err != nil {
		return nil, err
	}
	s.Checks = tableChecks
	if err := decodeIndex(indexNode, s, opts.registry()); err != nil {
		return nil, err
	}
	return s, nil
}

func decodeColumns(node *yaml.Node, s *schema.Schema, reg check.Registry) error {
	if node == nil || isNullNode(node) {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return schema.NewSchemaDefinitionError("columns must be a mapping, found %s", kindName(node))
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		col, err := decodeColumn(name, deref(node.Content[i+1]), reg)
		if err != nil {
			return err
		}
		s.AddColumn(name, col)
	}
	return nil
}

func decodeColumn(name string, node *yaml.Node, reg check.Registry) (schema.Column, error) {
	where := fmt.Sprintf("column '%s'", name)

	// absent fields keep the document defaults
	desc := columnDescriptor{AllowDuplicates: true, Required: true}
	checksNode, err := descriptorFields(node, where, &desc)
	if err != nil {
		return schema.Column{}, err
	}
	d, err := parseDType(desc.PandasDtype)
	if err != nil {
		return schema.Column{}, schema.NewSchemaDefinitionError("%s: %s", where, err)
	}
	checks, err := decodeChecks(checksNode, d, where, reg)
	if err != nil {
		return schema.Column{}, err
	}
	return schema.Column{
		DType:           d,
		Nullable:        desc.Nullable,
		Checks:          checks,
		AllowDuplicates: desc.AllowDuplicates,
		Coerce:          desc.Coerce,
		Required:        desc.Required,
		Regex:           desc.Regex,
	}, nil
}

func decodeIndex(node *yaml.Node, s *schema.Schema, reg check.Registry) error {
	if node == nil || isNullNode(node) {
		return nil
	}
	switch node.Kind {
	case yaml.MappingNode:
		idx, err := decodeIndexEntry(node, "the index", reg)
		if err != nil {
			return err
		}
		s.Index = &idx
		return nil
	case yaml.SequenceNode:
		switch len(node.Content) {
		case 0:
			return nil
		case 1:
			// older documents wrap a lone index in a sequence
			idx, err := decodeIndexEntry(deref(node.Content[0]), "the index", reg)
			if err != nil {
				return err
			}
			s.Index = &idx
			return nil
		default:
			mi := &schema.MultiIndex{}
			for i, entry := range node.Content {
				idx, err := decodeIndexEntry(deref(entry), fmt.Sprintf("index level %d", i), reg)
				if err != nil {
					return err
				}
				mi.Indexes = append(mi.Indexes, idx)
			}
			s.MultiIndex = mi
			return nil
		}
	default:
		return schema.NewSchemaDefinitionError("index must be a mapping or a sequence, found %s", kindName(node))
	}
}

func decodeIndexEntry(node *yaml.Node, where string, reg check.Registry) (schema.Index, error) {
	var desc indexDescriptor
	checksNode, err := descriptorFields(node, where, &desc)
	if err != nil {
		return schema.Index{}, err
	}
	d, err := parseDType(desc.PandasDtype)
	if err != nil {
		return schema.Index{}, schema.NewSchemaDefinitionError("%s: %s", where, err)
	}
	checks, err := decodeChecks(checksNode, d, where, reg)
	if err != nil {
		return schema.Index{}, err
	}
	return schema.Index{
		DType:    d,
		Nullable: desc.Nullable,
		Checks:   checks,
		Name:     desc.Name,
		Coerce:   desc.Coerce,
	}, nil
}

// descriptorFields decodes a component mapping into dst, keeping the
// checks value aside since its mapping order matters. A null body
// leaves dst at its defaults.
func descriptorFields(node *yaml.Node, where string, dst interface{}) (*yaml.Node, error) {
	if node == nil || isNullNode(node) {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, schema.NewSchemaDefinitionError("%s must be a mapping, found %s", where, kindName(node))
	}
	fields := map[string]interface{}{}
	var checksNode *yaml.Node
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		valNode := deref(node.Content[i+1])
		if key == keyChecks {
			checksNode = valNode
			continue
		}
		var raw interface{}
		if err := valNode.Decode(&raw); err != nil {
			return nil, schema.NewSchemaDefinitionError("%s: reading '%s': %s", where, key, err)
		}
		fields[key] = raw
	}
	if err := decodeDescriptor(fields, dst); err != nil {
		return nil, schema.NewSchemaDefinitionError("%s: %s", where, err)
	}
	return checksNode, nil
}

func decodeChecks(node *yaml.Node, d dtype.DType, where string, reg check.Registry) ([]check.Check, error) {
	if node == nil || isNullNode(node) {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, schema.NewSchemaDefinitionError("%s: checks must be a mapping, found %s", where, kindName(node))
	}
	// a repeated name keeps its first position and last statistics,
	// same as the formatter
	built := orderedmap.NewMap()
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		method, found := reg.Resolve(name)
		if !found {
			return nil, check.UnknownMethodError{Name: name}
		}
		params, err := decodeCheckParams(deref(node.Content[i+1]), method, d, where)
		if err != nil {
			return nil, err
		}
		chk, err := method.Build(params...)
		if err != nil {
			return nil, schema.NewSchemaDefinitionError("%s: %s", where, err)
		}
		built.Set(name, chk)
	}
	var checks []check.Check
	built.Iterate(func(_ string, v interface{}) {
		checks = append(checks, v.(check.Check))
	})
	return checks, nil
}

func decodeCheckParams(node *yaml.Node, method check.Method, d dtype.DType, where string) ([]check.Param, error) {
	if isNullNode(node) {
		return nil, nil
	}
	switch node.Kind {
	case yaml.MappingNode:
		var params []check.Param
		for i := 0; i+1 < len(node.Content); i += 2 {
			statName := node.Content[i].Value
			val, err := decodeStat(deref(node.Content[i+1]), d, where, method.Name)
			if err != nil {
				return nil, err
			}
			params = append(params, check.NewParam(statName, val))
		}
		return params, nil
	case yaml.ScalarNode, yaml.SequenceNode:
		if len(method.Statistics) != 1 {
			return nil, schema.NewSchemaDefinitionError("%s: check '%s' expects statistics %v, give them as a mapping",
				where, method.Name, method.Statistics)
		}
		val, err := decodeStat(node, d, where, method.Name)
		if err != nil {
			return nil, err
		}
		return []check.Param{check.NewParam(method.Statistics[0], val)}, nil
	default:
		return nil, schema.NewSchemaDefinitionError("%s: check '%s' has an unreadable statistics node", where, method.Name)
	}
}

// decodeStat reads one statistic value, restoring the native form for
// time-typed columns (text timestamps, integral nanoseconds).
func decodeStat(node *yaml.Node, d dtype.DType, where, checkName string) (interface{}, error) {
	var raw interface{}
	if err := node.Decode(&raw); err != nil {
		return nil, schema.NewSchemaDefinitionError("%s: reading statistics of check '%s': %s", where, checkName, err)
	}
	val, err := restoreStat(raw, d)
	if err != nil {
		return nil, schema.NewSchemaDefinitionError("%s: check '%s': %s", where, checkName, err)
	}
	return val, nil
}

func restoreStat(val interface{}, d dtype.DType) (interface{}, error) {
	if val == nil {
		return nil, nil
	}
	if list, ok := val.([]interface{}); ok {
		out := make([]interface{}, len(list))
		for i, item := range list {
			restored, err := restoreStat(item, d)
			if err != nil {
				return nil, err
			}
			out[i] = restored
		}
		return out, nil
	}
	switch d {
	case dtype.DateTime, dtype.Timedelta:
		return d.Coerce(val)
	default:
		return val, nil
	}
}

func parseDType(val interface{}) (dtype.DType, error) {
	switch v := val.(type) {
	case nil:
		return dtype.Untyped, nil
	case string:
		return dtype.Parse(v)
	default:
		return dtype.Untyped, fmt.Errorf("pandas_dtype must be a string or null, found %T", v)
	}
}

func decodeDescriptor(src map[string]interface{}, dst interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{Result: dst, ErrorUnused: true})
	if err != nil {
		return err
	}
	return dec.Decode(src)
}

// advertiseVersionSkew mentions documents written by a newer library
// version. The version field is advisory, so nothing here is fatal.
func advertiseVersionSkew(docVersion string, u ui.UI) {
	if docVersion == "" {
		return
	}
	docVer, err := goversion.NewVersion(docVersion)
	if err != nil {
		return
	}
	ourVer, err := goversion.NewVersion(version.Version)
	if err != nil {
		return
	}
	if docVer.GreaterThan(ourVer) {
		u.Debugf("schema document was written by version %s, newer than %s; fields it added are ignored\n",
			docVersion, version.Version)
	}
}

func deref(node *yaml.Node) *yaml.Node {
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		return node.Alias
	}
	return node
}

func isNullNode(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}

func kindName(node *yaml.Node) string {
	switch node.Kind {
	case yaml.MappingNode:
		return "a mapping"
	case yaml.SequenceNode:
		return "a sequence"
	case yaml.ScalarNode:
		return "a scalar"
	case yaml.AliasNode:
		return "an alias"
	default:
		return "an unreadable node"
	}
}
