// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"github.com/framelab/framecheck/pkg/check"
	"github.com/framelab/framecheck/pkg/dtype"
	"github.com/framelab/framecheck/pkg/orderedmap"
)

// Column describes one column of a table.
type Column struct {
	DType    dtype.DType
	Nullable bool
	Checks   []check.Check
	// AllowDuplicates permits repeated values. On by default when
	// columns are decoded from a document.
	AllowDuplicates bool
	Coerce          bool
	// Required demands the column's presence. On by default when
	// columns are decoded from a document.
	Required bool
	// Regex treats the column name as a regular expression matching
	// any number of table columns.
	Regex bool
}

// NewColumn returns a column with the document defaults: not null,
// duplicates allowed, required, no coercion, plain (non-regex) name.
func NewColumn(d dtype.DType, checks ...check.Check) Column {
	return Column{DType: d, Checks: checks, AllowDuplicates: true, Required: true}
}

// Index describes a single index level.
type Index struct {
	DType    dtype.DType
	Nullable bool
	Checks   []check.Check
	// Name is nil for an unnamed level; "" is a real (empty) name.
	Name   *string
	Coerce bool
}

// MultiIndex is an ordered run of index levels forming a composite key.
type MultiIndex struct {
	Indexes []Index
}

// Schema describes a whole table. Column order is part of the schema:
// it decides encoding order and the order violations are reported in.
// At most one of Index and MultiIndex may be set.
type Schema struct {
	columns *orderedmap.Map

	// Checks apply to the table as a whole.
	Checks     []check.Check
	Index      *Index
	MultiIndex *MultiIndex
	// Coerce turns on value coercion for every column and index level.
	Coerce bool
	// Strict rejects table columns the schema does not mention.
	Strict bool
}

func New() *Schema {
	return &Schema{columns: orderedmap.NewMap()}
}

// AddColumn adds or replaces a column definition. Replacing keeps the
// column's original position.
func (s *Schema) AddColumn(name string, col Column) {
	s.columns.Set(name, col)
}

func (s *Schema) Column(name string) (Column, bool) {
	val, found := s.columns.Get(name)
	if !found {
		return Column{}, false
	}
	return val.(Column), true
}

func (s *Schema) ColumnNames() []string { return s.columns.Keys() }

func (s *Schema) NumColumns() int { return s.columns.Len() }

// IterateColumns walks columns in schema order.
func (s *Schema) IterateColumns(iterFunc func(name string, col Column)) {
	s.columns.Iterate(func(k string, v interface{}) {
		iterFunc(k, v.(Column))
	})
}

// Equal reports value equality, including column order.
func (s *Schema) Equal(other *Schema) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.Coerce != other.Coerce || s.Strict != other.Strict {
		return false
	}
	if !checksEqual(s.Checks, other.Checks) {
		return false
	}

	names, otherNames := s.ColumnNames(), other.ColumnNames()
	if len(names) != len(otherNames) {
		return false
	}
	for i, name := range names {
		if name != otherNames[i] {
			return false
		}
		col, _ := s.Column(name)
		otherCol, _ := other.Column(name)
		if !col.Equal(otherCol) {
			return false
		}
	}

	if (s.Index == nil) != (other.Index == nil) {
		return false
	}
	if s.Index != nil && !s.Index.Equal(*other.Index) {
		return false
	}
	if (s.MultiIndex == nil) != (other.MultiIndex == nil) {
		return false
	}
	if s.MultiIndex != nil && !s.MultiIndex.Equal(*other.MultiIndex) {
		return false
	}
	return true
}

func (c Column) Equal(other Column) bool {
	return c.DType == other.DType &&
		c.Nullable == other.Nullable &&
		c.AllowDuplicates == other.AllowDuplicates &&
		c.Coerce == other.Coerce &&
		c.Required == other.Required &&
		c.Regex == other.Regex &&
		checksEqual(c.Checks, other.Checks)
}

func (i Index) Equal(other Index) bool {
	if (i.Name == nil) != (other.Name == nil) {
		return false
	}
	if i.Name != nil && *i.Name != *other.Name {
		return false
	}
	return i.DType == other.DType &&
		i.Nullable == other.Nullable &&
		i.Coerce == other.Coerce &&
		checksEqual(i.Checks, other.Checks)
}

func (m MultiIndex) Equal(other MultiIndex) bool {
	if len(m.Indexes) != len(other.Indexes) {
		return false
	}
	for i := range m.Indexes {
		if !m.Indexes[i].Equal(other.Indexes[i]) {
			return false
		}
	}
	return true
}

func checksEqual(a, b []check.Check) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
