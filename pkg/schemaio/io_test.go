// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

package schemaio_test

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	fuzz "github.com/google/gofuzz"
	"github.com/k14s/difflib"
	"github.com/stretchr/testify/require"

	"github.com/framelab/framecheck/pkg/check"
	"github.com/framelab/framecheck/pkg/cmd/ui"
	"github.com/framelab/framecheck/pkg/dataframe"
	"github.com/framelab/framecheck/pkg/dtype"
	"github.com/framelab/framecheck/pkg/schema"
	"github.com/framelab/framecheck/pkg/schemaio"
)

const expectedFixtureYAML = `schema_type: dataframe
version: 0.5.0
columns:
  int_column:
    pandas_dtype: int64
    nullable: false
    checks:
      greater_than: 0
      less_than: 10
      in_range:
        min_value: 0
        max_value: 10
    allow_duplicates: true
    coerce: false
    required: true
    regex: false
  float_column:
    pandas_dtype: float64
    nullable: false
    checks:
      greater_than: -10.0
      less_than: 20.0
      in_range:
        min_value: -10.0
        max_value: 20.0
    allow_duplicates: true
    coerce: false
    required: true
    regex: false
  str_column:
    pandas_dtype: str
    nullable: false
    checks:
      isin:
        - foo
        - bar
        - x
        - xy
      str_length:
        min_value: 1
        max_value: 3
    allow_duplicates: true
    coerce: false
    required: true
    regex: false
  optional_props_column:
    pandas_dtype: str
    nullable: true
    checks:
      str_length:
        min_value: 1
        max_value: 3
    allow_duplicates: true
    coerce: true
    required: false
    regex: true
checks: null
index:
  pandas_dtype: int64
  nullable: false
  checks:
    greater_than: -1
  name: int_index
  coerce: false
coerce: false
strict: false
`

const expectedEmptyYAML = `schema_type: dataframe
version: 0.5.0
columns: null
checks: null
index: null
coerce: false
strict: false
`

const expectedEmptyJSON = `{"schema_type":"dataframe","version":"0.5.0",` +
	`"columns":null,"checks":null,"index":null,"coerce":false,"strict":false}` + "\n"

func fixtureSchema() *schema.Schema {
	s := schema.New()
	s.AddColumn("int_column", schema.NewColumn(dtype.Int64,
		check.GreaterThan(0),
		check.LessThan(10),
		check.InRange(0, 10)))
	s.AddColumn("float_column", schema.NewColumn(dtype.Float64,
		check.GreaterThan(-10.0),
		check.LessThan(20.0),
		check.InRange(-10.0, 20.0)))
	s.AddColumn("str_column", schema.NewColumn(dtype.String,
		check.IsIn("foo", "bar", "x", "xy"),
		check.StrLength(1, 3)))
	s.AddColumn("optional_props_column", schema.Column{
		DType:           dtype.String,
		Nullable:        true,
		Checks:          []check.Check{check.StrLength(1, 3)},
		AllowDuplicates: true,
		Coerce:          true,
		Required:        false,
		Regex:           true,
	})
	s.Index = &schema.Index{
		DType:  dtype.Int64,
		Checks: []check.Check{check.GreaterThan(-1)},
		Name:   strPtr("int_index"),
	}
	return s
}

func timeFixtureSchema() *schema.Schema {
	s := fixtureSchema()
	s.AddColumn("datetime_column", schema.NewColumn(dtype.DateTime,
		check.GreaterThan(time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)),
		check.LessThan(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))))
	s.AddColumn("timedelta_column", schema.NewColumn(dtype.Timedelta,
		check.GreaterThan(1000*time.Nanosecond),
		check.LessThan(10000*time.Nanosecond)))
	return s
}

func strPtr(s string) *string { return &s }

func assertDocEqual(t *testing.T, expected, actual string) {
	t.Helper()
	if expected != actual {
		t.Fatalf("Not equal; diff expected...actual:\n%v",
			difflib.PPDiff(strings.Split(expected, "\n"), strings.Split(actual, "\n")))
	}
}

func TestToYAML(t *testing.T) {
	out, err := schemaio.ToYAML(fixtureSchema(), schemaio.Opts{})
	require.NoError(t, err)
	assertDocEqual(t, expectedFixtureYAML, out)
}

func TestToYAMLEmptySchema(t *testing.T) {
	out, err := schemaio.ToYAML(schema.New(), schemaio.Opts{})
	require.NoError(t, err)
	assertDocEqual(t, expectedEmptyYAML, out)
}

func TestToYAMLIsDeterministic(t *testing.T) {
	s := timeFixtureSchema()
	first, err := schemaio.ToYAML(s, schemaio.Opts{})
	require.NoError(t, err)
	second, err := schemaio.ToYAML(s, schemaio.Opts{})
	require.NoError(t, err)
	assertDocEqual(t, first, second)
}

func TestToYAMLNilSchema(t *testing.T) {
	_, err := schemaio.ToYAML(nil, schemaio.Opts{})
	require.EqualError(t, err, "cannot encode a nil schema")
}

func TestYAMLRoundTrip(t *testing.T) {
	s := timeFixtureSchema()
	out, err := schemaio.ToYAML(s, schemaio.Opts{})
	require.NoError(t, err)

	require.Contains(t, out, "2010-01-01 00:00:00")
	require.Contains(t, out, "greater_than: 1000")
	require.Contains(t, out, "less_than: 10000")

	loaded, err := schemaio.FromYAML([]byte(out), schemaio.Opts{})
	require.NoError(t, err)
	require.True(t, s.Equal(loaded), "round-tripped schema differs from the original")
}

func TestYAMLRoundTripMultiIndex(t *testing.T) {
	s := fixtureSchema()
	s.Index = nil
	s.MultiIndex = &schema.MultiIndex{Indexes: []schema.Index{
		{DType: dtype.Int64, Checks: []check.Check{check.GreaterThan(-1)}, Name: strPtr("int_index0")},
		{DType: dtype.String, Name: nil},
	}}

	out, err := schemaio.ToYAML(s, schemaio.Opts{})
	require.NoError(t, err)
	require.Contains(t, out, "- pandas_dtype: int64")

	loaded, err := schemaio.FromYAML([]byte(out), schemaio.Opts{})
	require.NoError(t, err)
	require.True(t, s.Equal(loaded), "round-tripped schema differs from the original")
	require.Nil(t, loaded.Index)
	require.NotNil(t, loaded.MultiIndex)
	require.Nil(t, loaded.MultiIndex.Indexes[1].Name)
}

func TestYAMLRoundTripNoIndex(t *testing.T) {
	s := fixtureSchema()
	s.Index = nil

	out, err := schemaio.ToYAML(s, schemaio.Opts{})
	require.NoError(t, err)
	require.Contains(t, out, "index: null")

	loaded, err := schemaio.FromYAML([]byte(out), schemaio.Opts{})
	require.NoError(t, err)
	require.True(t, s.Equal(loaded))
	require.Nil(t, loaded.Index)
	require.Nil(t, loaded.MultiIndex)
}

func TestFromYAMLEmptyDocument(t *testing.T) {
	for _, doc := range []string{"", "   \n\n", "# only a comment\n", "null\n"} {
		s, err := schemaio.FromYAML([]byte(doc), schemaio.Opts{})
		require.NoError(t, err, "input %q", doc)
		require.Equal(t, 0, s.NumColumns())
		require.Nil(t, s.Index)
		require.Nil(t, s.MultiIndex)
		require.Empty(t, s.Checks)
	}
}

func TestFromYAMLRejectsNonMapping(t *testing.T) {
	_, err := schemaio.FromYAML([]byte("- value\n"), schemaio.Opts{})
	require.Error(t, err)

	var defErr schema.SchemaDefinitionError
	require.True(t, errors.As(err, &defErr))
	require.Contains(t, err.Error(), "must be a mapping")
}

func TestFromYAMLUnknownCheckAborts(t *testing.T) {
	columnLevel := `
schema_type: dataframe
columns:
  a:
    pandas_dtype: int64
    checks:
      unknown_check: 1
`
	tableLevel := `
schema_type: dataframe
checks:
  unknown_check: 1
`
	for _, doc := range []string{columnLevel, tableLevel} {
		_, err := schemaio.FromYAML([]byte(doc), schemaio.Opts{})
		require.Error(t, err)
		require.IsType(t, check.UnknownMethodError{}, err)
		require.Contains(t, err.Error(), "custom checks")
	}
}

func TestFromYAMLColumnDefaults(t *testing.T) {
	doc := `
schema_type: dataframe
columns:
  a:
    pandas_dtype: int64
`
	s, err := schemaio.FromYAML([]byte(doc), schemaio.Opts{})
	require.NoError(t, err)

	col, found := s.Column("a")
	require.True(t, found)
	require.Equal(t, dtype.Int64, col.DType)
	require.False(t, col.Nullable)
	require.True(t, col.AllowDuplicates)
	require.False(t, col.Coerce)
	require.True(t, col.Required)
	require.False(t, col.Regex)
	require.Empty(t, col.Checks)
}

func TestFromYAMLRejectsUnknownColumnField(t *testing.T) {
	doc := `
schema_type: dataframe
columns:
  a:
    pandas_dtype: int64
    flavor: hot
`
	_, err := schemaio.FromYAML([]byte(doc), schemaio.Opts{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "column 'a'")
	require.Contains(t, err.Error(), "invalid keys")
}

func TestFromYAMLRejectsUnknownDtype(t *testing.T) {
	doc := `
schema_type: dataframe
columns:
  a:
    pandas_dtype: complex256
`
	_, err := schemaio.FromYAML([]byte(doc), schemaio.Opts{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown data type 'complex256'")
}

func TestFromYAMLRejectsForeignSchemaType(t *testing.T) {
	_, err := schemaio.FromYAML([]byte("schema_type: series\n"), schemaio.Opts{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported schema_type 'series'")
}

func TestFromYAMLAcceptsDtypeAliases(t *testing.T) {
	doc := `
schema_type: dataframe
columns:
  a:
    pandas_dtype: int
  b:
    pandas_dtype: float
  c:
    pandas_dtype: string
`
	s, err := schemaio.FromYAML([]byte(doc), schemaio.Opts{})
	require.NoError(t, err)

	a, _ := s.Column("a")
	b, _ := s.Column("b")
	c, _ := s.Column("c")
	require.Equal(t, dtype.Int64, a.DType)
	require.Equal(t, dtype.Float64, b.DType)
	require.Equal(t, dtype.String, c.DType)
}

func TestFromYAMLSingleEntrySequenceIndex(t *testing.T) {
	doc := `
schema_type: dataframe
index:
  - pandas_dtype: int64
    nullable: false
    checks: null
    name: int_index
    coerce: false
`
	s, err := schemaio.FromYAML([]byte(doc), schemaio.Opts{})
	require.NoError(t, err)
	require.NotNil(t, s.Index)
	require.Nil(t, s.MultiIndex)
	require.Equal(t, "int_index", *s.Index.Name)
}

func TestFromYAMLCheckStatShapes(t *testing.T) {
	doc := `
schema_type: dataframe
columns:
  a:
    pandas_dtype: int64
    checks:
      greater_than: 5
      isin:
        - 1
        - 2
`
	s, err := schemaio.FromYAML([]byte(doc), schemaio.Opts{})
	require.NoError(t, err)

	col, _ := s.Column("a")
	require.Len(t, col.Checks, 2)

	gt := col.Checks[0]
	require.Equal(t, "greater_than", gt.Name())
	require.Equal(t, []check.Param{{Name: "min_value", Value: int64(5)}}, gt.Params())

	isin := col.Checks[1]
	require.Equal(t, "isin", isin.Name())
	require.Equal(t, []check.Param{{Name: "allowed_values", Value: []interface{}{int64(1), int64(2)}}}, isin.Params())
}

func TestFromYAMLRestoresTimeStats(t *testing.T) {
	doc := `
schema_type: dataframe
columns:
  ts:
    pandas_dtype: datetime64[ns]
    checks:
      greater_than: '2010-01-01 00:00:00'
  delta:
    pandas_dtype: timedelta64[ns]
    checks:
      less_than: 10000
`
	s, err := schemaio.FromYAML([]byte(doc), schemaio.Opts{})
	require.NoError(t, err)

	ts, _ := s.Column("ts")
	gotTime, ok := ts.Checks[0].Params()[0].Value.(time.Time)
	require.True(t, ok, "stat should decode as a time, got %T", ts.Checks[0].Params()[0].Value)
	require.True(t, gotTime.Equal(time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)))

	delta, _ := s.Column("delta")
	require.Equal(t, 10000*time.Nanosecond, delta.Checks[0].Params()[0].Value)
}

func TestFromYAMLDuplicateCheckNameLastWins(t *testing.T) {
	doc := `
schema_type: dataframe
columns:
  a:
    pandas_dtype: int64
    checks:
      greater_than: 1
      less_than: 10
      greater_than: 2
`
	s, err := schemaio.FromYAML([]byte(doc), schemaio.Opts{})
	require.NoError(t, err)

	col, _ := s.Column("a")
	require.Len(t, col.Checks, 2)
	require.Equal(t, "greater_than", col.Checks[0].Name())
	require.Equal(t, int64(2), col.Checks[0].Params()[0].Value)
	require.Equal(t, "less_than", col.Checks[1].Name())
}

func TestEncodeWarnsOnUnserializableChecks(t *testing.T) {
	var stderr bytes.Buffer
	opts := schemaio.Opts{UI: ui.NewCustomWriterTTY(false, nil, &stderr)}

	s := schema.New()
	s.AddColumn("scores", schema.NewColumn(dtype.Int64,
		check.New(func(series *dataframe.Series) (bool, error) { return true, nil }),
		check.GreaterThan(0)))
	s.Checks = []check.Check{check.Expr("mean(s) > 0")}

	out, err := schemaio.ToYAML(s, opts)
	require.NoError(t, err)

	warnings := stderr.String()
	require.Contains(t, warnings, "registered checks")
	require.Contains(t, warnings, "column 'scores'")
	require.Contains(t, warnings, "the table")
	require.Contains(t, warnings, "<function>")
	require.Contains(t, warnings, `expr("mean(s) > 0")`)

	require.Contains(t, out, "greater_than: 0")
	require.Contains(t, out, "checks: null")

	loaded, err := schemaio.FromYAML([]byte(out), schemaio.Opts{})
	require.NoError(t, err)
	require.Empty(t, loaded.Checks)
	col, _ := loaded.Column("scores")
	require.Len(t, col.Checks, 1)
}

func TestFromYAMLVersionSkewIsAdvisory(t *testing.T) {
	var stderr bytes.Buffer
	opts := schemaio.Opts{UI: ui.NewCustomWriterTTY(true, nil, &stderr)}

	doc := "schema_type: dataframe\nversion: 99.0.0\n"
	_, err := schemaio.FromYAML([]byte(doc), opts)
	require.NoError(t, err)
	require.Contains(t, stderr.String(), "newer")

	// junk versions are ignored outright
	_, err = schemaio.FromYAML([]byte("schema_type: dataframe\nversion: not-a-version\n"), opts)
	require.NoError(t, err)
}

func TestWriteFileReadFile(t *testing.T) {
	s := timeFixtureSchema()
	path := filepath.Join(t.TempDir(), "schema.yaml")

	require.NoError(t, schemaio.WriteFile(s, path, schemaio.Opts{}))

	loaded, err := schemaio.ReadFile(path, schemaio.Opts{})
	require.NoError(t, err)
	require.True(t, s.Equal(loaded))
}

func TestWriteReadStream(t *testing.T) {
	s := fixtureSchema()

	var buf bytes.Buffer
	require.NoError(t, schemaio.Write(s, &buf, schemaio.Opts{}))

	loaded, err := schemaio.Read(&buf, schemaio.Opts{})
	require.NoError(t, err)
	require.True(t, s.Equal(loaded))
}

func TestToJSON(t *testing.T) {
	out, err := schemaio.ToJSON(schema.New(), schemaio.Opts{})
	require.NoError(t, err)
	assertDocEqual(t, expectedEmptyJSON, out)

	out, err = schemaio.ToJSON(timeFixtureSchema(), schemaio.Opts{})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, `{"schema_type":"dataframe","version":"0.5.0","columns":{"int_column":`))
	require.Contains(t, out, `"greater_than":-10.0`)
	require.Contains(t, out, `"2010-01-01 00:00:00"`)
}

func TestJSONRoundTrip(t *testing.T) {
	s := timeFixtureSchema()
	out, err := schemaio.ToJSON(s, schemaio.Opts{})
	require.NoError(t, err)

	loaded, err := schemaio.FromJSON([]byte(out), schemaio.Opts{})
	require.NoError(t, err)
	require.True(t, s.Equal(loaded), "round-tripped schema differs from the original")
}

func TestFromJSONRejectsInvalidJSON(t *testing.T) {
	_, err := schemaio.FromJSON([]byte("{not json"), schemaio.Opts{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "not valid JSON")
}

func TestRegisteredFrameCheckRoundTrip(t *testing.T) {
	check.MustRegisterMethod("all_positive_io_test", nil,
		func(series *dataframe.Series, stats []interface{}) (bool, error) {
			for _, val := range series.Values {
				num, ok := val.(int64)
				if !ok || num <= 0 {
					return false, nil
				}
			}
			return true, nil
		})
	t.Cleanup(func() { check.UnregisterMethod("all_positive_io_test") })

	check.MustRegisterFrameMethod("ncols_gt_io_test", []string{"column_count"},
		func(df *dataframe.DataFrame, stats []interface{}) (bool, error) {
			want, ok := stats[0].(int64)
			if !ok {
				return false, nil
			}
			return int64(df.NumColumns()) > want, nil
		})
	t.Cleanup(func() { check.UnregisterMethod("ncols_gt_io_test") })

	colChk, err := check.Materialize(check.Named("all_positive_io_test"), check.DefaultRegistry())
	require.NoError(t, err)
	tableChk, err := check.Materialize(
		check.Named("ncols_gt_io_test", check.NewParam("column_count", 5)), check.DefaultRegistry())
	require.NoError(t, err)

	s := schema.New()
	s.AddColumn("a", schema.NewColumn(dtype.Int64, colChk))
	s.Checks = []check.Check{tableChk}

	out, err := schemaio.ToYAML(s, schemaio.Opts{})
	require.NoError(t, err)
	require.Contains(t, out, "all_positive_io_test: null")
	require.Contains(t, out, "ncols_gt_io_test: 5")

	loaded, err := schemaio.FromYAML([]byte(out), schemaio.Opts{})
	require.NoError(t, err)
	require.True(t, s.Equal(loaded))
	require.Len(t, loaded.Checks, 1)

	narrow := dataframe.MustNew(dataframe.NewSeries("a", dtype.Int64, int64(1), int64(2)))
	err = loaded.Validate(narrow)
	require.Error(t, err)

	var schemaErr *schema.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	require.Contains(t, err.Error(), "ncols_gt_io_test")
}

func TestFromYAMLFuzzedInputDoesNotPanic(t *testing.T) {
	docs := []string{
		"schema_type: 12\n",
		"columns: 3\n",
		"columns:\n  a: 1\n",
		"checks: [1, 2]\n",
		"index: wat\n",
		"index:\n  - 1\n  - 2\n",
		"columns:\n  a:\n    checks: [x]\n",
		"columns:\n  a:\n    nullable: maybe\n",
	}
	f := fuzz.New().NumElements(0, 64)
	for i := 0; i < 200; i++ {
		var doc string
		f.Fuzz(&doc)
		docs = append(docs, doc)
	}
	for _, doc := range docs {
		// errors are fine, panics are not
		_, _ = schemaio.FromYAML([]byte(doc), schemaio.Opts{})
	}
}
