// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

package check

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// builtins is the fixed method set every Registry starts from. Names
// and statistic names are part of the schema document format.
var builtins = newBuiltins()

func newBuiltins() *methodSet {
	set := newMethodSet()
	for _, m := range []Method{
		{Name: "equal_to", Statistics: []string{"value"}, build: buildEqualTo},
		{Name: "not_equal_to", Statistics: []string{"value"}, build: buildNotEqualTo},
		{Name: "greater_than", Statistics: []string{"min_value"}, build: buildGreaterThan},
		{Name: "greater_than_or_equal_to", Statistics: []string{"min_value"}, build: buildGreaterThanOrEqualTo},
		{Name: "less_than", Statistics: []string{"max_value"}, build: buildLessThan},
		{Name: "less_than_or_equal_to", Statistics: []string{"max_value"}, build: buildLessThanOrEqualTo},
		{Name: "in_range", Statistics: []string{"min_value", "max_value"}, build: buildInRange},
		{Name: "isin", Statistics: []string{"allowed_values"}, build: buildIsIn},
		{Name: "notin", Statistics: []string{"forbidden_values"}, build: buildNotIn},
		{Name: "str_matches", Statistics: []string{"pattern"}, build: buildStrMatches},
		{Name: "str_contains", Statistics: []string{"pattern"}, build: buildStrContains},
		{Name: "str_startswith", Statistics: []string{"string"}, build: buildStrStartsWith},
		{Name: "str_endswith", Statistics: []string{"string"}, build: buildStrEndsWith},
		{Name: "str_length", Statistics: []string{"min_value", "max_value"}, build: buildStrLength},
	} {
		set.methods.Set(m.Name, m)
	}
	return set
}

// EqualTo requires every value to equal the given one.
func EqualTo(value interface{}) Check { return mustBuild("equal_to", NewParam("value", value)) }

// NotEqualTo requires every value to differ from the given one.
func NotEqualTo(value interface{}) Check {
	return mustBuild("not_equal_to", NewParam("value", value))
}

// GreaterThan requires values strictly above minValue.
func GreaterThan(minValue interface{}) Check {
	return mustBuild("greater_than", NewParam("min_value", minValue))
}

// GreaterThanOrEqualTo requires values at or above minValue.
func GreaterThanOrEqualTo(minValue interface{}) Check {
	return mustBuild("greater_than_or_equal_to", NewParam("min_value", minValue))
}

// LessThan requires values strictly below maxValue.
func LessThan(maxValue interface{}) Check {
	return mustBuild("less_than", NewParam("max_value", maxValue))
}

// LessThanOrEqualTo requires values at or below maxValue.
func LessThanOrEqualTo(maxValue interface{}) Check {
	return mustBuild("less_than_or_equal_to", NewParam("max_value", maxValue))
}

// InRange requires minValue <= value <= maxValue.
func InRange(minValue, maxValue interface{}) Check {
	return mustBuild("in_range", NewParam("min_value", minValue), NewParam("max_value", maxValue))
}

// IsIn requires every value to be one of allowedValues.
func IsIn(allowedValues ...interface{}) Check {
	return mustBuild("isin", NewParam("allowed_values", allowedValues))
}

// NotIn forbids every one of forbiddenValues.
func NotIn(forbiddenValues ...interface{}) Check {
	return mustBuild("notin", NewParam("forbidden_values", forbiddenValues))
}

// StrMatches requires string values to match the regular expression.
func StrMatches(pattern string) (Check, error) {
	method, _ := builtins.Resolve("str_matches")
	return method.Build(NewParam("pattern", pattern))
}

// StrContains requires string values to contain the substring.
func StrContains(pattern string) Check {
	return mustBuild("str_contains", NewParam("pattern", pattern))
}

// StrStartsWith requires string values to start with the prefix.
func StrStartsWith(prefix string) Check {
	return mustBuild("str_startswith", NewParam("string", prefix))
}

// StrEndsWith requires string values to end with the suffix.
func StrEndsWith(suffix string) Check {
	return mustBuild("str_endswith", NewParam("string", suffix))
}

// StrLength requires string lengths within [minValue, maxValue]. Either
// bound may be nil to leave that side open.
func StrLength(minValue, maxValue interface{}) Check {
	return mustBuild("str_length", NewParam("min_value", minValue), NewParam("max_value", maxValue))
}

func mustBuild(name string, params ...Param) Check {
	method, found := builtins.Resolve(name)
	if !found {
		panic(fmt.Sprintf("no builtin check method '%s'", name))
	}
	chk, err := method.Build(params...)
	if err != nil {
		panic(err.Error())
	}
	return chk
}

func elementCheck(fn ElementFn) Check {
	return Check{target: TargetElement, elementFn: fn}
}

func buildEqualTo(stats []interface{}) (Check, error) {
	value := stats[0]
	return elementCheck(func(val interface{}) (bool, error) {
		return elementEquals(val, value), nil
	}), nil
}

func buildNotEqualTo(stats []interface{}) (Check, error) {
	value := stats[0]
	return elementCheck(func(val interface{}) (bool, error) {
		return !elementEquals(val, value), nil
	}), nil
}

func buildGreaterThan(stats []interface{}) (Check, error) {
	minValue := stats[0]
	return elementCheck(func(val interface{}) (bool, error) {
		cmp, err := compareValues(val, minValue)
		if err != nil {
			return false, err
		}
		return cmp > 0, nil
	}), nil
}

func buildGreaterThanOrEqualTo(stats []interface{}) (Check, error) {
	minValue := stats[0]
	return elementCheck(func(val interface{}) (bool, error) {
		cmp, err := compareValues(val, minValue)
		if err != nil {
			return false, err
		}
		return cmp >= 0, nil
	}), nil
}

func buildLessThan(stats []interface{}) (Check, error) {
	maxValue := stats[0]
	return elementCheck(func(val interface{}) (bool, error) {
		cmp, err := compareValues(val, maxValue)
		if err != nil {
			return false, err
		}
		return cmp < 0, nil
	}), nil
}

func buildLessThanOrEqualTo(stats []interface{}) (Check, error) {
	maxValue := stats[0]
	return elementCheck(func(val interface{}) (bool, error) {
		cmp, err := compareValues(val, maxValue)
		if err != nil {
			return false, err
		}
		return cmp <= 0, nil
	}), nil
}

func buildInRange(stats []interface{}) (Check, error) {
	minValue, maxValue := stats[0], stats[1]
	return elementCheck(func(val interface{}) (bool, error) {
		low, err := compareValues(val, minValue)
		if err != nil {
			return false, err
		}
		high, err := compareValues(val, maxValue)
		if err != nil {
			return false, err
		}
		return low >= 0 && high <= 0, nil
	}), nil
}

func buildIsIn(stats []interface{}) (Check, error) {
	allowed, err := valueList(stats[0])
	if err != nil {
		return Check{}, err
	}
	return elementCheck(func(val interface{}) (bool, error) {
		for _, a := range allowed {
			if elementEquals(val, a) {
				return true, nil
			}
		}
		return false, nil
	}), nil
}

func buildNotIn(stats []interface{}) (Check, error) {
	forbidden, err := valueList(stats[0])
	if err != nil {
		return Check{}, err
	}
	return elementCheck(func(val interface{}) (bool, error) {
		for _, f := range forbidden {
			if elementEquals(val, f) {
				return false, nil
			}
		}
		return true, nil
	}), nil
}

func buildStrMatches(stats []interface{}) (Check, error) {
	pattern, err := stringValue(stats[0])
	if err != nil {
		return Check{}, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Check{}, fmt.Errorf("compiling pattern: %s", err)
	}
	return elementCheck(func(val interface{}) (bool, error) {
		s, err := stringValue(val)
		if err != nil {
			return false, err
		}
		return re.MatchString(s), nil
	}), nil
}

func buildStrContains(stats []interface{}) (Check, error) {
	pattern, err := stringValue(stats[0])
	if err != nil {
		return Check{}, err
	}
	return elementCheck(func(val interface{}) (bool, error) {
		s, err := stringValue(val)
		if err != nil {
			return false, err
		}
		return strings.Contains(s, pattern), nil
	}), nil
}

func buildStrStartsWith(stats []interface{}) (Check, error) {
	prefix, err := stringValue(stats[0])
	if err != nil {
		return Check{}, err
	}
	return elementCheck(func(val interface{}) (bool, error) {
		s, err := stringValue(val)
		if err != nil {
			return false, err
		}
		return strings.HasPrefix(s, prefix), nil
	}), nil
}

func buildStrEndsWith(stats []interface{}) (Check, error) {
	suffix, err := stringValue(stats[0])
	if err != nil {
		return Check{}, err
	}
	return elementCheck(func(val interface{}) (bool, error) {
		s, err := stringValue(val)
		if err != nil {
			return false, err
		}
		return strings.HasSuffix(s, suffix), nil
	}), nil
}

func buildStrLength(stats []interface{}) (Check, error) {
	minValue, maxValue := stats[0], stats[1]
	return elementCheck(func(val interface{}) (bool, error) {
		s, err := stringValue(val)
		if err != nil {
			return false, err
		}
		length := int64(utf8.RuneCountInString(s))
		if minValue != nil {
			cmp, err := compareValues(length, minValue)
			if err != nil {
				return false, err
			}
			if cmp < 0 {
				return false, nil
			}
		}
		if maxValue != nil {
			cmp, err := compareValues(length, maxValue)
			if err != nil {
				return false, err
			}
			if cmp > 0 {
				return false, nil
			}
		}
		return true, nil
	}), nil
}

// compareValues orders two values: numbers numerically across int and
// float, strings lexically, times chronologically. Returns -1, 0 or 1.
func compareValues(a, b interface{}) (int, error) {
	if af, aok := asFloat(a); aok {
		bf, bok := asFloat(b)
		if !bok {
			return 0, fmt.Errorf("cannot compare %T with %T", a, b)
		}
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	}

	if as, aok := a.(string); aok {
		bs, bok := b.(string)
		if !bok {
			return 0, fmt.Errorf("cannot compare %T with %T", a, b)
		}
		return strings.Compare(as, bs), nil
	}

	if at, aok := a.(time.Time); aok {
		bt, bok := b.(time.Time)
		if !bok {
			return 0, fmt.Errorf("cannot compare %T with %T", a, b)
		}
		switch {
		case at.Before(bt):
			return -1, nil
		case at.After(bt):
			return 1, nil
		default:
			return 0, nil
		}
	}

	return 0, fmt.Errorf("cannot compare %T with %T", a, b)
}

func asFloat(val interface{}) (float64, bool) {
	switch v := val.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case int:
		return float64(v), true
	case time.Duration:
		return float64(v), true
	default:
		return 0, false
	}
}

// elementEquals is the equality used by equal_to/isin: numerically
// tolerant across int and float, otherwise the same as statistic
// equality.
func elementEquals(a, b interface{}) bool {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
		return false
	}
	return valuesEqual(a, b)
}

func valueList(val interface{}) ([]interface{}, error) {
	if list, ok := val.([]interface{}); ok {
		return list, nil
	}
	return nil, fmt.Errorf("expected a sequence of values, got %T", val)
}

func stringValue(val interface{}) (string, error) {
	if s, ok := val.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("expected a string, got %T", val)
}
