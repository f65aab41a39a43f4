// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

package check

import (
	"fmt"
	"time"

	"github.com/k14s/starlark-go/starlark"

	"github.com/framelab/framecheck/pkg/dataframe"
	"github.com/framelab/framecheck/pkg/dtype"
	"github.com/framelab/framecheck/pkg/script/core"
)

// Expr builds a check from a Starlark boolean expression. The column's
// values are bound as the list `s` (nulls dropped); `len`, `min` and
// `max` come from the Starlark universe, `sum` and `mean` are provided
// on top.
//
//	check.Expr("min(s) > 0 and max(s) < 100")
//
// Expression checks run during validation and are carried by the
// script generator as literal source, but cannot be stored in a schema
// document.
func Expr(src string) Check {
	return Check{
		expr:   src,
		target: TargetSeries,
		seriesFn: func(s *dataframe.Series) (bool, error) {
			return evalExpr(src, s)
		},
	}
}

func evalExpr(src string, s *dataframe.Series) (bool, error) {
	core.ConfigureResolver()

	vals := make([]interface{}, 0, s.Len())
	for _, v := range s.Values {
		if v == nil {
			continue
		}
		vals = append(vals, exprValue(v))
	}

	env := starlark.StringDict{
		"s":    core.NewGoValue(vals).AsStarlarkValue(),
		"sum":  starlark.NewBuiltin("sum", core.ErrWrapper(sumBuiltin)),
		"mean": starlark.NewBuiltin("mean", core.ErrWrapper(meanBuiltin)),
	}

	thread := &starlark.Thread{Name: "check-expr"}
	result, err := starlark.Eval(thread, "check", src, env)
	if err != nil {
		return false, fmt.Errorf("evaluating expression '%s': %s", src, err)
	}

	b, ok := result.(starlark.Bool)
	if !ok {
		return false, fmt.Errorf("expression '%s' produced %s, expected a bool", src, result.Type())
	}
	return bool(b), nil
}

// exprValue flattens times so expressions see comparable primitives.
func exprValue(v interface{}) interface{} {
	switch tv := v.(type) {
	case time.Time:
		return tv.Format(dtype.TimeLayout)
	case time.Duration:
		return int64(tv)
	default:
		return v
	}
}

func sumBuiltin(thread *starlark.Thread, f *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if args.Len() != 1 {
		return starlark.None, fmt.Errorf("expected exactly one argument")
	}
	total, _, err := floatItems(args.Index(0))
	if err != nil {
		return starlark.None, err
	}
	return starlark.Float(total), nil
}

func meanBuiltin(thread *starlark.Thread, f *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if args.Len() != 1 {
		return starlark.None, fmt.Errorf("expected exactly one argument")
	}
	total, count, err := floatItems(args.Index(0))
	if err != nil {
		return starlark.None, err
	}
	if count == 0 {
		return starlark.None, fmt.Errorf("mean of an empty sequence")
	}
	return starlark.Float(total / float64(count)), nil
}

func floatItems(val starlark.Value) (total float64, count int, err error) {
	iterable, ok := val.(starlark.Iterable)
	if !ok {
		return 0, 0, fmt.Errorf("expected an iterable, got %s", val.Type())
	}

	iter := iterable.Iterate()
	defer iter.Done()

	var x starlark.Value
	for iter.Next(&x) {
		switch tv := x.(type) {
		case starlark.Int:
			i, ok := tv.Int64()
			if !ok {
				return 0, 0, fmt.Errorf("int item does not fit 64 bits")
			}
			total += float64(i)
			count++
		case starlark.Float:
			total += float64(tv)
			count++
		case starlark.NoneType:
			// nulls do not contribute
		default:
			return 0, 0, fmt.Errorf("expected numeric items, got %s", x.Type())
		}
	}
	return total, count, nil
}
