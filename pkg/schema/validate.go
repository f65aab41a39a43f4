// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/framelab/framecheck/pkg/check"
	"github.com/framelab/framecheck/pkg/dataframe"
	"github.com/framelab/framecheck/pkg/dtype"
)

// Report is the result of checking a table against a schema.
type Report struct {
	Violations []error
}

// HasViolations indicates whether the table failed at least one rule.
func (r *Report) HasViolations() bool { return len(r.Violations) > 0 }

// Check walks df against the schema and collects every violation,
// resolving named checks through the default registry.
func (s *Schema) Check(df *dataframe.DataFrame) Report {
	return s.CheckWithRegistry(df, check.DefaultRegistry())
}

// CheckWithRegistry is Check with an explicit check registry.
func (s *Schema) CheckWithRegistry(df *dataframe.DataFrame, reg check.Registry) Report {
	var report Report

	matched := map[string]bool{}

	s.IterateColumns(func(name string, col Column) {
		if col.Regex {
			report.Violations = append(report.Violations, s.checkRegexColumn(df, name, col, reg, matched)...)
			return
		}
		series, found := df.Column(name)
		if !found {
			if col.Required {
				report.Violations = append(report.Violations,
					fmt.Errorf("column '%s' is required but missing from the table", name))
			}
			return
		}
		matched[name] = true
		report.Violations = append(report.Violations, s.checkColumn(name, col, series, reg)...)
	})

	if s.Strict {
		for _, name := range df.ColumnNames() {
			if !matched[name] {
				report.Violations = append(report.Violations,
					fmt.Errorf("column '%s' is not in the schema and strict mode is on", name))
			}
		}
	}

	report.Violations = append(report.Violations, s.checkIndex(df, reg)...)
	report.Violations = append(report.Violations, s.checkTable(df, reg)...)

	return report
}

// Validate returns nil when df conforms to the schema, else a
// *SchemaError carrying every violation.
func (s *Schema) Validate(df *dataframe.DataFrame) error {
	report := s.Check(df)
	if report.HasViolations() {
		return &SchemaError{Violations: report.Violations}
	}
	return nil
}

func (s *Schema) checkRegexColumn(df *dataframe.DataFrame, pattern string, col Column, reg check.Registry, matched map[string]bool) []error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return []error{fmt.Errorf("column pattern '%s' does not compile: %s", pattern, err)}
	}

	var violations []error
	found := false
	for _, name := range df.ColumnNames() {
		if !re.MatchString(name) {
			continue
		}
		found = true
		matched[name] = true
		series, _ := df.Column(name)
		violations = append(violations, s.checkColumn(name, col, series, reg)...)
	}
	if !found && col.Required {
		violations = append(violations,
			fmt.Errorf("no table columns match the required column pattern '%s'", pattern))
	}
	return violations
}

func (s *Schema) checkColumn(name string, col Column, series *dataframe.Series, reg check.Registry) []error {
	label := fmt.Sprintf("column '%s'", name)
	values, violations := conformValues(label, series.Values, col.DType, col.Coerce || s.Coerce)

	if !col.Nullable {
		for row, val := range values {
			if val == nil {
				violations = append(violations,
					fmt.Errorf("%s: null value at row %d, column is not nullable", label, row))
			}
		}
	}

	if !col.AllowDuplicates {
		violations = append(violations, findDuplicates(label, values)...)
	}

	effective := dataframe.NewSeries(series.Name, col.DType, values...)
	violations = append(violations, runChecks(label, col.Checks, effective, reg)...)
	return violations
}

func (s *Schema) checkIndex(df *dataframe.DataFrame, reg check.Registry) []error {
	var expected []Index
	switch {
	case s.Index != nil:
		expected = []Index{*s.Index}
	case s.MultiIndex != nil:
		expected = s.MultiIndex.Indexes
	default:
		return nil
	}

	levels := df.Index()
	if len(levels) != len(expected) {
		return []error{fmt.Errorf("table has %d index level(s), schema expects %d", len(levels), len(expected))}
	}

	var violations []error
	for i, idx := range expected {
		level := levels[i]
		label := indexLabel(i, idx, len(expected))

		if idx.Name != nil && level.Name != *idx.Name {
			violations = append(violations,
				fmt.Errorf("%s is named '%s' in the table", label, level.Name))
		}

		values, conformViolations := conformValues(label, level.Values, idx.DType, idx.Coerce || s.Coerce)
		violations = append(violations, conformViolations...)

		if !idx.Nullable {
			for row, val := range values {
				if val == nil {
					violations = append(violations,
						fmt.Errorf("%s: null value at row %d, index is not nullable", label, row))
				}
			}
		}

		effective := dataframe.NewSeries(level.Name, idx.DType, values...)
		violations = append(violations, runChecks(label, idx.Checks, effective, reg)...)
	}
	return violations
}

func indexLabel(i int, idx Index, total int) string {
	name := ""
	if idx.Name != nil {
		name = fmt.Sprintf(" '%s'", *idx.Name)
	}
	if total == 1 {
		return "index" + name
	}
	return fmt.Sprintf("index level %d%s", i, name)
}

func (s *Schema) checkTable(df *dataframe.DataFrame, reg check.Registry) []error {
	var violations []error
	for _, chk := range s.Checks {
		bound, err := check.Materialize(chk, reg)
		if err != nil {
			violations = append(violations, fmt.Errorf("table: %s", err))
			continue
		}
		if !bound.Bound() {
			violations = append(violations, fmt.Errorf("table: check %s has no function to run", bound))
			continue
		}

		switch bound.Target() {
		case check.TargetFrame:
			ok, err := bound.RunFrame(df)
			if err != nil {
				violations = append(violations, fmt.Errorf("table: check %s: %s", describeCheck(bound), err))
			} else if !ok {
				violations = append(violations, fmt.Errorf("table: check %s failed", describeCheck(bound)))
			}
		case check.TargetSeries:
			// series checks at table level run over every column
			for _, series := range df.Columns() {
				ok, err := bound.RunSeries(series)
				if err != nil {
					violations = append(violations,
						fmt.Errorf("column '%s': check %s: %s", series.Name, describeCheck(bound), err))
				} else if !ok {
					violations = append(violations,
						fmt.Errorf("column '%s': check %s failed", series.Name, describeCheck(bound)))
				}
			}
		case check.TargetElement:
			for _, series := range df.Columns() {
				label := fmt.Sprintf("column '%s'", series.Name)
				violations = append(violations, runElementCheck(label, bound, series.Values)...)
			}
		}
	}
	return violations
}

// conformValues applies optional coercion, then type conformance. It
// returns the values later passes should see: coerced where coercion
// succeeded, originals elsewhere.
func conformValues(label string, values []interface{}, d dtype.DType, coerce bool) ([]interface{}, []error) {
	var violations []error
	out := make([]interface{}, len(values))
	copy(out, values)

	for row, val := range out {
		if val == nil {
			continue
		}
		if coerce {
			coerced, err := d.Coerce(val)
			if err != nil {
				violations = append(violations,
					fmt.Errorf("%s: value at row %d cannot be coerced to %s: %s", label, row, d, err))
				continue
			}
			out[row] = coerced
			continue
		}
		if !d.Conforms(val) {
			violations = append(violations,
				fmt.Errorf("%s: value at row %d is %T, expected %s", label, row, val, d))
		}
	}
	return out, violations
}

func findDuplicates(label string, values []interface{}) []error {
	var violations []error
	seen := map[interface{}]bool{}
	for row, val := range values {
		if val == nil || !reflect.TypeOf(val).Comparable() {
			continue
		}
		if seen[val] {
			violations = append(violations, fmt.Errorf("%s: duplicate value at row %d", label, row))
			continue
		}
		seen[val] = true
	}
	return violations
}

func runChecks(label string, checks []check.Check, series *dataframe.Series, reg check.Registry) []error {
	var violations []error
	for _, chk := range checks {
		bound, err := check.Materialize(chk, reg)
		if err != nil {
			violations = append(violations, fmt.Errorf("%s: %s", label, err))
			continue
		}
		if !bound.Bound() {
			violations = append(violations, fmt.Errorf("%s: check %s has no function to run", label, bound))
			continue
		}

		switch bound.Target() {
		case check.TargetElement:
			violations = append(violations, runElementCheck(label, bound, series.Values)...)
		case check.TargetSeries:
			ok, err := bound.RunSeries(series)
			if err != nil {
				violations = append(violations, fmt.Errorf("%s: check %s: %s", label, describeCheck(bound), err))
			} else if !ok {
				violations = append(violations, fmt.Errorf("%s: check %s failed", label, describeCheck(bound)))
			}
		case check.TargetFrame:
			violations = append(violations,
				fmt.Errorf("%s: table-level check %s cannot run on a single column", label, describeCheck(bound)))
		}
	}
	return violations
}

func runElementCheck(label string, chk check.Check, values []interface{}) []error {
	var violations []error
	for row, val := range values {
		if val == nil {
			continue
		}
		ok, err := chk.RunElement(val)
		if err != nil {
			violations = append(violations,
				fmt.Errorf("%s: check %s at row %d: %s", label, describeCheck(chk), row, err))
			continue
		}
		if !ok {
			violations = append(violations,
				fmt.Errorf("%s: value at row %d (%v) fails check %s", label, row, val, describeCheck(chk)))
		}
	}
	return violations
}

// describeCheck renders a check with its statistics, e.g.
// greater_than(min_value=0).
func describeCheck(chk check.Check) string {
	if chk.Name() == "" || len(chk.Params()) == 0 {
		return chk.String()
	}
	args := ""
	for i, p := range chk.Params() {
		if i > 0 {
			args += ", "
		}
		args += fmt.Sprintf("%s=%v", p.Name, p.Value)
	}
	return fmt.Sprintf("%s(%s)", chk.Name(), args)
}
