// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

package check

import (
	"fmt"
	"reflect"
	"time"

	"github.com/framelab/framecheck/pkg/dataframe"
)

// Target tells what a check judges.
type Target int

const (
	// TargetElement checks apply to every value of a column or index
	// level separately.
	TargetElement Target = iota
	// TargetSeries checks judge a whole column or index level at once.
	TargetSeries
	// TargetFrame checks judge the whole table.
	TargetFrame
)

// ElementFn judges a single value. Null values are dropped before it
// runs.
type ElementFn func(val interface{}) (bool, error)

// SeriesFn judges a whole column or index level.
type SeriesFn func(s *dataframe.Series) (bool, error)

// FrameFn judges the whole table.
type FrameFn func(df *dataframe.DataFrame) (bool, error)

// Param is one named statistic of a check.
type Param struct {
	Name  string
	Value interface{}
}

// NewParam normalizes the value (see NormalizeValue) so checks compare
// by value across construction and decoding.
func NewParam(name string, value interface{}) Param {
	return Param{Name: name, Value: NormalizeValue(value)}
}

// Check is one validation rule. The zero value is not useful; use the
// builtin constructors, New/NewElementWise/NewFrame, Expr, Named, or a
// Method from a Registry.
type Check struct {
	name   string
	params []Param
	expr   string
	target Target

	elementFn ElementFn
	seriesFn  SeriesFn
	frameFn   FrameFn
}

// New wraps a Go predicate over a whole column. The check runs during
// validation but has no name, so it cannot be serialized.
func New(fn SeriesFn) Check {
	return Check{target: TargetSeries, seriesFn: fn}
}

// NewElementWise wraps a per-value Go predicate.
func NewElementWise(fn ElementFn) Check {
	return Check{target: TargetElement, elementFn: fn}
}

// NewFrame wraps a Go predicate over the whole table.
func NewFrame(fn FrameFn) Check {
	return Check{target: TargetFrame, frameFn: fn}
}

// Named describes a check by registry name alone, without binding a
// function. Serialization resolves the name against a Registry;
// Materialize rebuilds a runnable version.
func Named(name string, params ...Param) Check {
	normalized := make([]Param, len(params))
	for i, p := range params {
		normalized[i] = Param{Name: p.Name, Value: NormalizeValue(p.Value)}
	}
	return Check{name: name, params: normalized}
}

func (c Check) Name() string { return c.name }

// Params returns the statistics in declared order. Callers must not
// mutate the returned slice.
func (c Check) Params() []Param { return c.params }

// Expression returns the Starlark source of an expression check, or "".
func (c Check) Expression() string { return c.expr }

// Target is meaningful once the check is bound to a function.
func (c Check) Target() Target { return c.target }

// Bound reports whether the check carries a runnable function.
func (c Check) Bound() bool {
	return c.elementFn != nil || c.seriesFn != nil || c.frameFn != nil
}

// String renders the check for warnings and errors.
func (c Check) String() string {
	switch {
	case c.name != "":
		return c.name
	case c.expr != "":
		return fmt.Sprintf("expr(%q)", c.expr)
	default:
		return "<function>"
	}
}

// RunElement applies an element-wise check to one value.
func (c Check) RunElement(val interface{}) (bool, error) {
	if c.elementFn == nil {
		return false, fmt.Errorf("check %s is not element-wise", c.String())
	}
	return c.elementFn(val)
}

// RunSeries applies a series-level check to a column or index level.
func (c Check) RunSeries(s *dataframe.Series) (bool, error) {
	if c.seriesFn == nil {
		return false, fmt.Errorf("check %s is not series-level", c.String())
	}
	return c.seriesFn(s)
}

// RunFrame applies a table-level check to the whole table.
func (c Check) RunFrame(df *dataframe.DataFrame) (bool, error) {
	if c.frameFn == nil {
		return false, fmt.Errorf("check %s is not table-level", c.String())
	}
	return c.frameFn(df)
}

// Equal reports value equality. Functions do not participate for named
// and expression checks: their identity is the name or source plus
// statistics. Two opaque checks are equal only when they wrap the very
// same functions.
func (c Check) Equal(other Check) bool {
	if c.name != other.name || c.expr != other.expr || c.target != other.target {
		return false
	}
	if len(c.params) != len(other.params) {
		return false
	}
	for i, p := range c.params {
		if p.Name != other.params[i].Name || !valuesEqual(p.Value, other.params[i].Value) {
			return false
		}
	}
	if c.name == "" && c.expr == "" {
		return sameFn(c.elementFn, other.elementFn) &&
			sameFn(c.seriesFn, other.seriesFn) &&
			sameFn(c.frameFn, other.frameFn)
	}
	return true
}

// NormalizeValue settles a statistic value into the fixed set of types
// {nil, bool, string, int64, float64, time.Time, time.Duration} plus
// []interface{} of those, so value equality is well defined. Times are
// shifted to UTC; unrecognized types pass through untouched.
func NormalizeValue(val interface{}) interface{} {
	switch v := val.(type) {
	case nil:
		return nil
	case bool, string, int64, float64, time.Duration:
		return v
	case time.Time:
		return v.UTC()
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return int64(v)
	case float32:
		return float64(v)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = NormalizeValue(item)
		}
		return out
	}

	rv := reflect.ValueOf(val)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]interface{}, rv.Len())
		for i := range out {
			out[i] = NormalizeValue(rv.Index(i).Interface())
		}
		return out
	}
	return val
}

// valuesEqual compares normalized statistic values: times by instant,
// slices element-wise, everything else deeply.
func valuesEqual(a, b interface{}) bool {
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	}
	if as, ok := a.([]interface{}); ok {
		bs, ok := b.([]interface{})
		if !ok || len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !valuesEqual(as[i], bs[i]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

func sameFn(a, b interface{}) bool {
	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	if av.IsNil() || bv.IsNil() {
		return av.IsNil() == bv.IsNil()
	}
	return av.Pointer() == bv.Pointer()
}
