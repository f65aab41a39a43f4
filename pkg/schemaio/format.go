// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

package schemaio

import (
	"fmt"
	"time"

	"github.com/framelab/framecheck/pkg/check"
	"github.com/framelab/framecheck/pkg/cmd/ui"
	"github.com/framelab/framecheck/pkg/dtype"
	"github.com/framelab/framecheck/pkg/orderedmap"
	"github.com/framelab/framecheck/pkg/schema"
	"github.com/framelab/framecheck/pkg/version"
)

const (
	keySchemaType      = "schema_type"
	keyVersion         = "version"
	keyColumns         = "columns"
	keyChecks          = "checks"
	keyIndex           = "index"
	keyCoerce          = "coerce"
	keyStrict          = "strict"
	keyDType           = "pandas_dtype"
	keyNullable        = "nullable"
	keyAllowDuplicates = "allow_duplicates"
	keyRequired        = "required"
	keyRegex           = "regex"
	keyName            = "name"

	docSchemaType = "dataframe"
)

// schemaObject renders a schema as an ordered tree of maps, slices and
// scalars. Both document encoders work from this one shape, so key
// order is decided here and nowhere else.
func schemaObject(s *schema.Schema, reg check.Registry, u ui.UI) *orderedmap.Map {
	root := orderedmap.NewMap()
	root.Set(keySchemaType, docSchemaType)
	root.Set(keyVersion, version.Version)
	root.Set(keyColumns, columnsObject(s, reg, u))
	root.Set(keyChecks, checksObject(s.Checks, "the table", reg, u))
	root.Set(keyIndex, indexObject(s, reg, u))
	root.Set(keyCoerce, s.Coerce)
	root.Set(keyStrict, s.Strict)
	return root
}

func columnsObject(s *schema.Schema, reg check.Registry, u ui.UI) interface{} {
	if s == nil || s.NumColumns() == 0 {
		return nil
	}
	cols := orderedmap.NewMap()
	s.IterateColumns(func(name string, col schema.Column) {
		obj := orderedmap.NewMap()
		obj.Set(keyDType, dtypeValue(col.DType))
		obj.Set(keyNullable, col.Nullable)
		obj.Set(keyChecks, checksObject(col.Checks, fmt.Sprintf("column '%s'", name), reg, u))
		obj.Set(keyAllowDuplicates, col.AllowDuplicates)
		obj.Set(keyCoerce, col.Coerce)
		obj.Set(keyRequired, col.Required)
		obj.Set(keyRegex, col.Regex)
		cols.Set(name, obj)
	})
	return cols
}

func indexObject(s *schema.Schema, reg check.Registry, u ui.UI) interface{} {
	switch {
	case s.Index != nil:
		return indexEntryObject(*s.Index, "the index", reg, u)
	case s.MultiIndex != nil:
		entries := []interface{}{}
		for i, idx := range s.MultiIndex.Indexes {
			entries = append(entries, indexEntryObject(idx, fmt.Sprintf("index level %d", i), reg, u))
		}
		return entries
	default:
		return nil
	}
}

func indexEntryObject(idx schema.Index, where string, reg check.Registry, u ui.UI) *orderedmap.Map {
	obj := orderedmap.NewMap()
	obj.Set(keyDType, dtypeValue(idx.DType))
	obj.Set(keyNullable, idx.Nullable)
	obj.Set(keyChecks, checksObject(idx.Checks, where, reg, u))
	if idx.Name == nil {
		obj.Set(keyName, nil)
	} else {
		obj.Set(keyName, *idx.Name)
	}
	obj.Set(keyCoerce, idx.Coerce)
	return obj
}

// checksObject renders checks as a mapping of method name to
// statistics. Exactly one statistic collapses to its bare value;
// several become a sub-mapping in the order the method declares them.
// Checks the registry cannot rebuild later (opaque functions,
// expressions, unknown names) are dropped with a warning so the
// document stays loadable. Returns nil when nothing survives.
func checksObject(checks []check.Check, where string, reg check.Registry, u ui.UI) interface{} {
	if len(checks) == 0 {
		return nil
	}
	result := orderedmap.NewMap()
	for _, chk := range checks {
		method, found := check.Method{}, false
		if chk.Name() != "" {
			method, found = reg.Resolve(chk.Name())
		}
		if !found {
			u.Warnf("Dropping check %s on %s: only registered checks survive serialization\n", chk.String(), where)
			continue
		}
		result.Set(chk.Name(), checkStatsObject(chk, method))
	}
	if result.Len() == 0 {
		return nil
	}
	return result
}

func checkStatsObject(chk check.Check, method check.Method) interface{} {
	params := method.OrderedParams(chk.Params())
	if len(params) == 0 {
		return nil
	}
	if len(params) == 1 {
		return statValue(params[0].Value)
	}
	stats := orderedmap.NewMap()
	for _, p := range params {
		stats.Set(p.Name, statValue(p.Value))
	}
	return stats
}

// statValue prepares one statistic for a document. Times flatten to
// the canonical text form, durations to integral nanoseconds. Other
// values pass through and the codec layer renders them.
func statValue(val interface{}) interface{} {
	switch v := val.(type) {
	case time.Time:
		return v.Format(dtype.TimeLayout)
	case time.Duration:
		return int64(v)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = statValue(item)
		}
		return out
	default:
		return val
	}
}

func dtypeValue(d dtype.DType) interface{} {
	if d == dtype.Untyped {
		return nil
	}
	return d.String()
}
