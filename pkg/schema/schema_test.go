// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

package schema_test

import (
	"testing"

	"github.com/framelab/framecheck/pkg/check"
	"github.com/framelab/framecheck/pkg/dtype"
	"github.com/framelab/framecheck/pkg/schema"
)

func strPtr(s string) *string { return &s }

func TestSchemaEqual(t *testing.T) {
	build := func() *schema.Schema {
		s := schema.New()
		s.AddColumn("n", schema.NewColumn(dtype.Int64, check.GreaterThan(0)))
		s.AddColumn("s", schema.NewColumn(dtype.String))
		s.Index = &schema.Index{DType: dtype.Int64, Name: strPtr("id")}
		s.Coerce = true
		return s
	}

	if !build().Equal(build()) {
		t.Fatalf("Expected identically built schemas to be equal")
	}

	other := build()
	other.Strict = true
	if build().Equal(other) {
		t.Fatalf("Expected schemas differing in strict to not be equal")
	}

	other = build()
	other.AddColumn("n", schema.NewColumn(dtype.Int64, check.GreaterThan(1)))
	if build().Equal(other) {
		t.Fatalf("Expected schemas differing in a check statistic to not be equal")
	}

	other = build()
	other.Index = &schema.Index{DType: dtype.Int64}
	if build().Equal(other) {
		t.Fatalf("Expected schemas differing in index name to not be equal")
	}
}

func TestSchemaEqualColumnOrderMatters(t *testing.T) {
	s1 := schema.New()
	s1.AddColumn("a", schema.NewColumn(dtype.Int64))
	s1.AddColumn("b", schema.NewColumn(dtype.Int64))

	s2 := schema.New()
	s2.AddColumn("b", schema.NewColumn(dtype.Int64))
	s2.AddColumn("a", schema.NewColumn(dtype.Int64))

	if s1.Equal(s2) {
		t.Fatalf("Expected schemas with different column order to not be equal")
	}
}

func TestAddColumnReplaceKeepsPosition(t *testing.T) {
	s := schema.New()
	s.AddColumn("a", schema.NewColumn(dtype.Int64))
	s.AddColumn("b", schema.NewColumn(dtype.Int64))
	s.AddColumn("a", schema.NewColumn(dtype.String))

	names := s.ColumnNames()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("Expected column order [a b], but got %v", names)
	}
	col, _ := s.Column("a")
	if col.DType != dtype.String {
		t.Fatalf("Expected replaced column to win, but got dtype %s", col.DType)
	}
}

func TestMultiIndexEqual(t *testing.T) {
	m1 := schema.MultiIndex{Indexes: []schema.Index{
		{DType: dtype.Int64, Name: strPtr("a")},
		{DType: dtype.String},
	}}
	m2 := schema.MultiIndex{Indexes: []schema.Index{
		{DType: dtype.Int64, Name: strPtr("a")},
		{DType: dtype.String},
	}}

	if !m1.Equal(m2) {
		t.Fatalf("Expected identical multi indexes to be equal")
	}

	m2.Indexes = m2.Indexes[:1]
	if m1.Equal(m2) {
		t.Fatalf("Expected multi indexes of different width to not be equal")
	}
}
