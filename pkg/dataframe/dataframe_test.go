// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

package dataframe_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/framelab/framecheck/pkg/dataframe"
	"github.com/framelab/framecheck/pkg/dtype"
)

func TestNewRejectsRaggedColumns(t *testing.T) {
	_, err := dataframe.New(
		dataframe.NewSeries("a", dtype.Int64, int64(1), int64(2)),
		dataframe.NewSeries("b", dtype.String, "x"),
	)
	require.EqualError(t, err, "column 'b' has 1 values, expected 2")
}

func TestAddColumnRejectsDuplicateName(t *testing.T) {
	df := dataframe.MustNew(dataframe.NewSeries("a", dtype.Int64, int64(1)))

	err := df.AddColumn(dataframe.NewSeries("a", dtype.Int64, int64(2)))
	require.EqualError(t, err, "duplicate column 'a'")
}

func TestColumnLookup(t *testing.T) {
	df := dataframe.MustNew(
		dataframe.NewSeries("a", dtype.Int64, int64(1)),
		dataframe.NewSeries("b", dtype.String, "x"),
	)

	col, found := df.Column("b")
	require.True(t, found)
	require.Equal(t, []interface{}{"x"}, col.Values)

	_, found = df.Column("missing")
	require.False(t, found)

	require.Equal(t, []string{"a", "b"}, df.ColumnNames())
	require.Equal(t, 2, df.NumColumns())
	require.Equal(t, 1, df.NumRows())
}

func TestFromYAMLRecordsKeepsColumnOrder(t *testing.T) {
	df, err := dataframe.FromYAMLRecords([]byte(`
- zebra: 1
  apple: "x"
- zebra: 2
  apple: "y"
  extra: 3.5
`))
	require.NoError(t, err)

	require.Equal(t, []string{"zebra", "apple", "extra"}, df.ColumnNames())

	col, _ := df.Column("zebra")
	require.Equal(t, []interface{}{int64(1), int64(2)}, col.Values)

	col, _ = df.Column("extra")
	require.Equal(t, []interface{}{nil, 3.5}, col.Values)
}

func TestFromYAMLRecordsRejectsNonSequence(t *testing.T) {
	_, err := dataframe.FromYAMLRecords([]byte(`key: value`))
	require.EqualError(t, err, "records document must be a sequence of mappings")
}

func TestFromJSONRecordsFoldsIntegralFloats(t *testing.T) {
	df, err := dataframe.FromJSONRecords([]byte(`[{"n": 3, "f": 1.5}, {"n": 4, "f": 2.0}]`))
	require.NoError(t, err)

	col, _ := df.Column("n")
	require.Equal(t, []interface{}{int64(3), int64(4)}, col.Values)

	col, _ = df.Column("f")
	require.Equal(t, []interface{}{1.5, int64(2)}, col.Values)
}

func TestFromTOMLRecords(t *testing.T) {
	df, err := dataframe.FromTOMLRecords([]byte(`
[[rows]]
n = 1
s = "a"

[[rows]]
n = 2
s = "b"
`))
	require.NoError(t, err)

	col, _ := df.Column("n")
	require.Equal(t, []interface{}{int64(1), int64(2)}, col.Values)

	col, _ = df.Column("s")
	require.Equal(t, []interface{}{"a", "b"}, col.Values)
}
