// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

package dataframe

import (
	"fmt"

	"github.com/framelab/framecheck/pkg/dtype"
)

// Series is one named column (or index level) of values.
type Series struct {
	Name   string
	DType  dtype.DType
	Values []interface{}
}

func NewSeries(name string, d dtype.DType, values ...interface{}) *Series {
	return &Series{Name: name, DType: d, Values: values}
}

func (s *Series) Len() int { return len(s.Values) }

// DataFrame is an ordered collection of equally sized columns with
// optional index levels. It is the value the validation engine runs
// against; the serialization core never touches it.
type DataFrame struct {
	columns []*Series
	byName  map[string]int
	index   []*Series
}

func New(columns ...*Series) (*DataFrame, error) {
	df := &DataFrame{byName: map[string]int{}}
	for _, col := range columns {
		if err := df.AddColumn(col); err != nil {
			return nil, err
		}
	}
	return df, nil
}

func MustNew(columns ...*Series) *DataFrame {
	df, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return df
}

func (df *DataFrame) AddColumn(col *Series) error {
	if _, found := df.byName[col.Name]; found {
		return fmt.Errorf("duplicate column '%s'", col.Name)
	}
	if len(df.columns) > 0 && col.Len() != df.NumRows() {
		return fmt.Errorf("column '%s' has %d values, expected %d", col.Name, col.Len(), df.NumRows())
	}
	df.byName[col.Name] = len(df.columns)
	df.columns = append(df.columns, col)
	return nil
}

// SetIndex replaces the index levels. One level is a plain index, more
// form a composite index.
func (df *DataFrame) SetIndex(levels ...*Series) {
	df.index = levels
}

func (df *DataFrame) Column(name string) (*Series, bool) {
	i, found := df.byName[name]
	if !found {
		return nil, false
	}
	return df.columns[i], true
}

func (df *DataFrame) Columns() []*Series { return df.columns }

func (df *DataFrame) ColumnNames() []string {
	names := make([]string, 0, len(df.columns))
	for _, col := range df.columns {
		names = append(names, col.Name)
	}
	return names
}

func (df *DataFrame) Index() []*Series { return df.index }

func (df *DataFrame) NumColumns() int { return len(df.columns) }

func (df *DataFrame) NumRows() int {
	if len(df.columns) == 0 {
		return 0
	}
	return df.columns[0].Len()
}
