// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

package script_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/k14s/difflib"
	"github.com/stretchr/testify/require"

	"github.com/framelab/framecheck/pkg/check"
	"github.com/framelab/framecheck/pkg/cmd/ui"
	"github.com/framelab/framecheck/pkg/dataframe"
	"github.com/framelab/framecheck/pkg/dtype"
	"github.com/framelab/framecheck/pkg/schema"
	"github.com/framelab/framecheck/pkg/script"
)

const expectedFixtureScript = `load("@framecheck:schema", "framecheck")

schema = framecheck.schema(
    columns = {
        "int_column": framecheck.column(
            dtype = "int64",
            nullable = False,
            checks = [
                framecheck.check.greater_than(0),
                framecheck.check.in_range(min_value = 0, max_value = 10),
            ],
            allow_duplicates = True,
            coerce = False,
            required = True,
            regex = False,
        ),
        "str_column": framecheck.column(
            dtype = "str",
            nullable = True,
            checks = [
                framecheck.check.isin(["foo", "bar"]),
            ],
            allow_duplicates = True,
            coerce = False,
            required = True,
            regex = False,
        ),
    },
    checks = None,
    index = framecheck.index(
        dtype = "int64",
        nullable = False,
        checks = [
            framecheck.check.greater_than(-1),
        ],
        name = "int_index",
        coerce = False,
    ),
    coerce = False,
    strict = False,
)
`

func fixtureSchema() *schema.Schema {
	s := schema.New()
	s.AddColumn("int_column", schema.NewColumn(dtype.Int64,
		check.GreaterThan(0),
		check.InRange(0, 10)))

	strCol := schema.NewColumn(dtype.String, check.IsIn("foo", "bar"))
	strCol.Nullable = true
	s.AddColumn("str_column", strCol)

	s.Index = &schema.Index{
		DType:  dtype.Int64,
		Checks: []check.Check{check.GreaterThan(-1)},
		Name:   strPtr("int_index"),
	}
	return s
}

func strPtr(s string) *string { return &s }

func assertScriptEqual(t *testing.T, expected, actual string) {
	t.Helper()
	if expected != actual {
		t.Fatalf("Not equal; diff expected...actual:\n%v",
			difflib.PPDiff(strings.Split(expected, "\n"), strings.Split(actual, "\n")))
	}
}

func TestGenerate(t *testing.T) {
	out, err := script.Generate(fixtureSchema(), script.Opts{})
	require.NoError(t, err)
	assertScriptEqual(t, expectedFixtureScript, out)
}

func TestGenerateNilSchema(t *testing.T) {
	_, err := script.Generate(nil, script.Opts{})
	require.EqualError(t, err, "cannot generate a script for a nil schema")
}

func TestGenerateEmptySchema(t *testing.T) {
	out, err := script.Generate(schema.New(), script.Opts{})
	require.NoError(t, err)
	require.Contains(t, out, "columns = None")
	require.Contains(t, out, "index = None")

	loaded, err := script.Execute("schema.star", out, script.Opts{})
	require.NoError(t, err)
	require.True(t, schema.New().Equal(loaded))
}

func TestScriptRoundTrip(t *testing.T) {
	s := fixtureSchema()
	out, err := script.Generate(s, script.Opts{})
	require.NoError(t, err)

	loaded, err := script.Execute("schema.star", out, script.Opts{})
	require.NoError(t, err)
	require.True(t, s.Equal(loaded), "executed script bound a different schema")
}

func TestScriptRoundTripMultiIndex(t *testing.T) {
	s := fixtureSchema()
	s.Index = nil
	s.MultiIndex = &schema.MultiIndex{Indexes: []schema.Index{
		{DType: dtype.Int64, Name: strPtr("level0")},
		{DType: dtype.String, Name: nil, Nullable: true},
	}}

	out, err := script.Generate(s, script.Opts{})
	require.NoError(t, err)
	require.Contains(t, out, "framecheck.multi_index(")

	loaded, err := script.Execute("schema.star", out, script.Opts{})
	require.NoError(t, err)
	require.True(t, s.Equal(loaded))
	require.Nil(t, loaded.Index)
	require.Nil(t, loaded.MultiIndex.Indexes[1].Name)
}

func TestScriptRoundTripTimeStats(t *testing.T) {
	s := schema.New()
	s.AddColumn("ts", schema.NewColumn(dtype.DateTime,
		check.GreaterThan(time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC))))
	s.AddColumn("delta", schema.NewColumn(dtype.Timedelta,
		check.LessThan(10000*time.Nanosecond)))

	out, err := script.Generate(s, script.Opts{})
	require.NoError(t, err)
	require.Contains(t, out, `framecheck.timestamp("2010-01-01 00:00:00")`)
	require.Contains(t, out, "framecheck.timedelta(10000)")

	loaded, err := script.Execute("schema.star", out, script.Opts{})
	require.NoError(t, err)
	require.True(t, s.Equal(loaded))
}

func TestScriptRoundTripFloatStats(t *testing.T) {
	s := schema.New()
	s.AddColumn("ratio", schema.NewColumn(dtype.Float64,
		check.InRange(-10.0, 20.0)))

	out, err := script.Generate(s, script.Opts{})
	require.NoError(t, err)
	// integral floats keep their decimal point so they read back as floats
	require.Contains(t, out, "min_value = -10.0")
	require.Contains(t, out, "max_value = 20.0")

	loaded, err := script.Execute("schema.star", out, script.Opts{})
	require.NoError(t, err)
	require.True(t, s.Equal(loaded))
}

func TestScriptRoundTripRegisteredCustomCheck(t *testing.T) {
	check.MustRegisterFrameMethod("ncols_gt_script_test", []string{"column_count"},
		func(df *dataframe.DataFrame, stats []interface{}) (bool, error) {
			want, ok := stats[0].(int64)
			if !ok {
				return false, nil
			}
			return int64(df.NumColumns()) > want, nil
		})
	t.Cleanup(func() { check.UnregisterMethod("ncols_gt_script_test") })

	tableChk, err := check.Materialize(
		check.Named("ncols_gt_script_test", check.NewParam("column_count", 5)), check.DefaultRegistry())
	require.NoError(t, err)

	s := schema.New()
	s.AddColumn("a", schema.NewColumn(dtype.Int64))
	s.Checks = []check.Check{tableChk}

	out, err := script.Generate(s, script.Opts{})
	require.NoError(t, err)
	require.Contains(t, out, "framecheck.check.ncols_gt_script_test(5)")

	loaded, err := script.Execute("schema.star", out, script.Opts{})
	require.NoError(t, err)
	require.True(t, s.Equal(loaded))

	narrow := dataframe.MustNew(dataframe.NewSeries("a", dtype.Int64, int64(1)))
	require.Error(t, loaded.Validate(narrow))
}

func TestGenerateWarnsOnUnrepresentableChecks(t *testing.T) {
	var stderr bytes.Buffer
	opts := script.Opts{UI: ui.NewCustomWriterTTY(false, nil, &stderr)}

	s := schema.New()
	s.AddColumn("scores", schema.NewColumn(dtype.Int64,
		check.New(func(series *dataframe.Series) (bool, error) { return true, nil }),
		check.GreaterThan(0)))
	s.Checks = []check.Check{
		check.NewFrame(func(df *dataframe.DataFrame) (bool, error) { return true, nil }),
	}

	out, err := script.Generate(s, opts)
	require.NoError(t, err)

	warnings := stderr.String()
	require.Contains(t, warnings, "registered checks")
	require.Contains(t, warnings, "column 'scores'")
	require.Contains(t, warnings, "the table")

	require.Contains(t, out, "framecheck.check.greater_than(0)")
	require.Contains(t, out, "checks = None")

	loaded, err := script.Execute("schema.star", out, script.Opts{})
	require.NoError(t, err)
	require.Empty(t, loaded.Checks)
	col, _ := loaded.Column("scores")
	require.Len(t, col.Checks, 1)
}

func TestGenerateCarriesExpressionChecksLiterally(t *testing.T) {
	var stderr bytes.Buffer
	opts := script.Opts{UI: ui.NewCustomWriterTTY(false, nil, &stderr)}

	s := schema.New()
	s.AddColumn("scores", schema.NewColumn(dtype.Int64, check.Expr("min(s) > 0")))

	out, err := script.Generate(s, opts)
	require.NoError(t, err)
	require.Contains(t, out, `framecheck.check.expr("min(s) > 0")`)
	require.Contains(t, stderr.String(), "best effort")

	loaded, err := script.Execute("schema.star", out, script.Opts{})
	require.NoError(t, err)
	require.True(t, s.Equal(loaded))
}

func TestWriteDestinationsMatch(t *testing.T) {
	s := fixtureSchema()

	direct, err := script.Generate(s, script.Opts{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, script.Write(s, &buf, script.Opts{}))
	require.Equal(t, direct, buf.String())

	path := filepath.Join(t.TempDir(), "schema.star")
	require.NoError(t, script.WriteFile(s, path, script.Opts{}))
	written, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, direct, string(written))

	loaded, err := script.ExecuteFile(path, script.Opts{})
	require.NoError(t, err)
	require.True(t, s.Equal(loaded))
}

func TestExecuteRejectsSyntaxErrors(t *testing.T) {
	_, err := script.Execute("broken.star", "schema = (", script.Opts{})
	require.Error(t, err)
	require.IsType(t, script.ExecError{}, err)
	require.Contains(t, err.Error(), "broken.star")
}

func TestExecuteRequiresSchemaBinding(t *testing.T) {
	_, err := script.Execute("nothing.star", "x = 1\n", script.Opts{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "must assign a global named 'schema'")

	_, err = script.Execute("wrong.star", "schema = 42\n", script.Opts{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "must be framecheck.schema(...)")
}

func TestExecuteRejectsForeignLoads(t *testing.T) {
	_, err := script.Execute("foreign.star", `load("@other:module", "other")`+"\n", script.Opts{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown module '@other:module'")
}

func TestExecuteUnknownCheckMentionsCustomChecks(t *testing.T) {
	src := `load("@framecheck:schema", "framecheck")

schema = framecheck.schema(
    columns = {
        "a": framecheck.column(
            dtype = "int64",
            checks = [
                framecheck.check.never_registered(1),
            ],
        ),
    },
)
`
	_, err := script.Execute("schema.star", src, script.Opts{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "custom checks")
}
