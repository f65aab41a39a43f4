// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

package script

import (
	"fmt"
	"strconv"
	"time"

	"github.com/k14s/starlark-go/starlark"
	"github.com/k14s/starlark-go/starlarkstruct"

	"github.com/framelab/framecheck/pkg/check"
	"github.com/framelab/framecheck/pkg/dtype"
	"github.com/framelab/framecheck/pkg/schema"
	"github.com/framelab/framecheck/pkg/script/core"
)

// NewAPI builds the `framecheck` Starlark module that schema scripts
// load. Check constructors resolve against reg at call time, so custom
// methods registered before execution are visible inside scripts.
func NewAPI(reg check.Registry) starlark.StringDict {
	m := apiModule{}
	return starlark.StringDict{
		"framecheck": &starlarkstruct.Module{
			Name: "framecheck",
			Members: starlark.StringDict{
				"schema":      starlark.NewBuiltin("framecheck.schema", core.ErrWrapper(m.Schema)),
				"column":      starlark.NewBuiltin("framecheck.column", core.ErrWrapper(m.Column)),
				"index":       starlark.NewBuiltin("framecheck.index", core.ErrWrapper(m.Index)),
				"multi_index": starlark.NewBuiltin("framecheck.multi_index", core.ErrWrapper(m.MultiIndex)),
				"timestamp":   starlark.NewBuiltin("framecheck.timestamp", core.ErrWrapper(m.Timestamp)),
				"timedelta":   starlark.NewBuiltin("framecheck.timedelta", core.ErrWrapper(m.Timedelta)),
				"check":       checkNamespace{registry: reg},
			},
		},
	}
}

type apiModule struct{}

func (m apiModule) Schema(thread *starlark.Thread, f *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if args.Len() != 0 {
		return starlark.None, fmt.Errorf("expected keyword arguments only")
	}
	err := core.CheckArgNames(kwargs, "columns", "checks", "index", "coerce", "strict")
	if err != nil {
		return starlark.None, err
	}

	s := schema.New()

	if val, found, err := core.KwargValue(kwargs, "columns"); err != nil {
		return starlark.None, err
	} else if found {
		if err := columnsArg(val, s); err != nil {
			return starlark.None, err
		}
	}

	if val, found, err := core.KwargValue(kwargs, "checks"); err != nil {
		return starlark.None, err
	} else if found {
		checks, err := checksArg(val)
		if err != nil {
			return starlark.None, err
		}
		s.Checks = checks
	}

	if val, found, err := core.KwargValue(kwargs, "index"); err != nil {
		return starlark.None, err
	} else if found {
		switch typed := val.(type) {
		case starlark.NoneType:
		case indexValue:
			idx := typed.idx
			s.Index = &idx
		case multiIndexValue:
			mi := typed.mi
			s.MultiIndex = &mi
		default:
			return starlark.None, fmt.Errorf(
				"index must be framecheck.index(...), framecheck.multi_index(...) or None, got %s", val.Type())
		}
	}

	if err := boolKwarg(kwargs, "coerce", &s.Coerce); err != nil {
		return starlark.None, err
	}
	if err := boolKwarg(kwargs, "strict", &s.Strict); err != nil {
		return starlark.None, err
	}
	return schemaValue{s: s}, nil
}

func (m apiModule) Column(thread *starlark.Thread, f *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if args.Len() > 1 {
		return starlark.None, fmt.Errorf("expected at most one positional argument (the dtype)")
	}
	err := core.CheckArgNames(kwargs, "dtype", "nullable", "checks", "allow_duplicates", "coerce", "required", "regex")
	if err != nil {
		return starlark.None, err
	}

	col := schema.NewColumn(dtype.Untyped)
	if args.Len() == 1 {
		col.DType, err = dtypeArg(args.Index(0))
		if err != nil {
			return starlark.None, err
		}
	}
	if val, found, err := core.KwargValue(kwargs, "dtype"); err != nil {
		return starlark.None, err
	} else if found {
		col.DType, err = dtypeArg(val)
		if err != nil {
			return starlark.None, err
		}
	}
	if val, found, err := core.KwargValue(kwargs, "checks"); err != nil {
		return starlark.None, err
	} else if found {
		col.Checks, err = checksArg(val)
		if err != nil {
			return starlark.None, err
		}
	}
	for _, flag := range []struct {
		name string
		dst  *bool
	}{
		{"nullable", &col.Nullable},
		{"allow_duplicates", &col.AllowDuplicates},
		{"coerce", &col.Coerce},
		{"required", &col.Required},
		{"regex", &col.Regex},
	} {
		if err := boolKwarg(kwargs, flag.name, flag.dst); err != nil {
			return starlark.None, err
		}
	}
	return columnValue{col: col}, nil
}

func (m apiModule) Index(thread *starlark.Thread, f *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if args.Len() > 1 {
		return starlark.None, fmt.Errorf("expected at most one positional argument (the dtype)")
	}
	err := core.CheckArgNames(kwargs, "dtype", "nullable", "checks", "name", "coerce")
	if err != nil {
		return starlark.None, err
	}

	var idx schema.Index
	if args.Len() == 1 {
		idx.DType, err = dtypeArg(args.Index(0))
		if err != nil {
			return starlark.None, err
		}
	}
	if val, found, err := core.KwargValue(kwargs, "dtype"); err != nil {
		return starlark.None, err
	} else if found {
		idx.DType, err = dtypeArg(val)
		if err != nil {
			return starlark.None, err
		}
	}
	if val, found, err := core.KwargValue(kwargs, "checks"); err != nil {
		return starlark.None, err
	} else if found {
		idx.Checks, err = checksArg(val)
		if err != nil {
			return starlark.None, err
		}
	}
	if val, found, err := core.KwargValue(kwargs, "name"); err != nil {
		return starlark.None, err
	} else if found {
		if _, isNone := val.(starlark.NoneType); !isNone {
			nameStr, err := core.NewStarlarkValue(val).AsString()
			if err != nil {
				return starlark.None, fmt.Errorf("name must be a string or None: %s", err)
			}
			idx.Name = &nameStr
		}
	}
	if err := boolKwarg(kwargs, "nullable", &idx.Nullable); err != nil {
		return starlark.None, err
	}
	if err := boolKwarg(kwargs, "coerce", &idx.Coerce); err != nil {
		return starlark.None, err
	}
	return indexValue{idx: idx}, nil
}

func (m apiModule) MultiIndex(thread *starlark.Thread, f *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) != 0 {
		return starlark.None, fmt.Errorf("expected positional framecheck.index(...) arguments only")
	}
	if args.Len() == 0 {
		return starlark.None, fmt.Errorf("expected at least one index level")
	}
	var mi schema.MultiIndex
	for i := 0; i < args.Len(); i++ {
		iv, ok := args.Index(i).(indexValue)
		if !ok {
			return starlark.None, fmt.Errorf("argument %d must be framecheck.index(...), got %s",
				i+1, args.Index(i).Type())
		}
		mi.Indexes = append(mi.Indexes, iv.idx)
	}
	return multiIndexValue{mi: mi}, nil
}

func (m apiModule) Timestamp(thread *starlark.Thread, f *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if args.Len() != 1 || len(kwargs) != 0 {
		return starlark.None, fmt.Errorf("expected exactly one argument")
	}
	coerced, err := dtype.DateTime.Coerce(core.NewStarlarkValue(args.Index(0)).AsGoValue())
	if err != nil {
		return starlark.None, err
	}
	return timeValue{t: coerced.(time.Time)}, nil
}

func (m apiModule) Timedelta(thread *starlark.Thread, f *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if args.Len() != 1 || len(kwargs) != 0 {
		return starlark.None, fmt.Errorf("expected exactly one argument")
	}
	coerced, err := dtype.Timedelta.Coerce(core.NewStarlarkValue(args.Index(0)).AsGoValue())
	if err != nil {
		return starlark.None, err
	}
	return durValue{d: coerced.(time.Duration)}, nil
}

// checkNamespace resolves attribute access against the check registry,
// so framecheck.check.<name> works for builtins and custom methods
// without a fixed member table.
type checkNamespace struct {
	registry check.Registry
}

var (
	_ starlark.Value    = checkNamespace{}
	_ starlark.HasAttrs = checkNamespace{}
)

func (ns checkNamespace) String() string       { return "framecheck.check" }
func (ns checkNamespace) Type() string         { return "framecheck.check" }
func (ns checkNamespace) Freeze()              {}
func (ns checkNamespace) Truth() starlark.Bool { return starlark.True }
func (ns checkNamespace) Hash() (uint32, error) {
	return 0, fmt.Errorf("unhashable type: framecheck.check")
}

func (ns checkNamespace) Attr(name string) (starlark.Value, error) {
	if name == "expr" {
		return starlark.NewBuiltin("framecheck.check.expr", core.ErrWrapper(exprCheck)), nil
	}
	method, found := ns.registry.Resolve(name)
	if !found {
		return nil, check.UnknownMethodError{Name: name}
	}
	return starlark.NewBuiltin("framecheck.check."+name, core.ErrWrapper(methodCall(method))), nil
}

func (ns checkNamespace) AttrNames() []string {
	return append(ns.registry.Methods(), "expr")
}

func methodCall(method check.Method) core.StarlarkFunc {
	return func(thread *starlark.Thread, f *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if args.Len() > len(method.Statistics) {
			return starlark.None, fmt.Errorf("check '%s' accepts at most %d positional argument(s) %v",
				method.Name, len(method.Statistics), method.Statistics)
		}
		var params []check.Param
		for i := 0; i < args.Len(); i++ {
			params = append(params, check.NewParam(method.Statistics[i],
				core.NewStarlarkValue(args.Index(i)).AsGoValue()))
		}
		for _, kw := range kwargs {
			name, err := core.NewStarlarkValue(kw.Index(0)).AsString()
			if err != nil {
				return starlark.None, err
			}
			params = append(params, check.NewParam(name,
				core.NewStarlarkValue(kw.Index(1)).AsGoValue()))
		}
		chk, err := method.Build(params...)
		if err != nil {
			return starlark.None, err
		}
		return checkValue{chk: chk}, nil
	}
}

func exprCheck(thread *starlark.Thread, f *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if args.Len() != 1 || len(kwargs) != 0 {
		return starlark.None, fmt.Errorf("expected exactly one argument (the expression)")
	}
	src, err := core.NewStarlarkValue(args.Index(0)).AsString()
	if err != nil {
		return starlark.None, err
	}
	return checkValue{chk: check.Expr(src)}, nil
}

func columnsArg(val starlark.Value, s *schema.Schema) error {
	if _, isNone := val.(starlark.NoneType); isNone {
		return nil
	}
	dict, ok := val.(*starlark.Dict)
	if !ok {
		return fmt.Errorf("columns must be a dict of name to framecheck.column(...), got %s", val.Type())
	}
	for _, key := range dict.Keys() {
		name, err := core.NewStarlarkValue(key).AsString()
		if err != nil {
			return fmt.Errorf("column names must be strings: %s", err)
		}
		item, _, err := dict.Get(key)
		if err != nil {
			return err
		}
		colVal, ok := item.(columnValue)
		if !ok {
			return fmt.Errorf("column '%s' must be framecheck.column(...), got %s", name, item.Type())
		}
		s.AddColumn(name, colVal.col)
	}
	return nil
}

func checksArg(val starlark.Value) ([]check.Check, error) {
	if _, isNone := val.(starlark.NoneType); isNone {
		return nil, nil
	}
	iterable, ok := val.(starlark.Iterable)
	if !ok {
		return nil, fmt.Errorf("checks must be a list or None, got %s", val.Type())
	}
	iter := iterable.Iterate()
	defer iter.Done()

	var checks []check.Check
	var item starlark.Value
	for iter.Next(&item) {
		cv, ok := item.(checkValue)
		if !ok {
			return nil, fmt.Errorf("checks must contain framecheck.check values, got %s", item.Type())
		}
		checks = append(checks, cv.chk)
	}
	return checks, nil
}

func dtypeArg(val starlark.Value) (dtype.DType, error) {
	if _, isNone := val.(starlark.NoneType); isNone {
		return dtype.Untyped, nil
	}
	name, err := core.NewStarlarkValue(val).AsString()
	if err != nil {
		return dtype.Untyped, fmt.Errorf("dtype must be a string or None: %s", err)
	}
	return dtype.Parse(name)
}

func boolKwarg(kwargs []starlark.Tuple, name string, dst *bool) error {
	val, found, err := core.KwargValue(kwargs, name)
	if err != nil || !found {
		return err
	}
	b, err := core.NewStarlarkValue(val).AsBool()
	if err != nil {
		return fmt.Errorf("%s: %s", name, err)
	}
	*dst = b
	return nil
}

// schemaValue, columnValue, indexValue, multiIndexValue and checkValue
// carry built descriptors through a script run.

type schemaValue struct {
	s *schema.Schema
}

var _ starlark.Value = schemaValue{}

func (v schemaValue) String() string {
	return fmt.Sprintf("schema(%d columns)", v.s.NumColumns())
}
func (v schemaValue) Type() string          { return "schema" }
func (v schemaValue) Freeze()               {}
func (v schemaValue) Truth() starlark.Bool  { return starlark.True }
func (v schemaValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: schema") }

type columnValue struct {
	col schema.Column
}

var _ starlark.Value = columnValue{}

func (v columnValue) String() string        { return "column" }
func (v columnValue) Type() string          { return "column" }
func (v columnValue) Freeze()               {}
func (v columnValue) Truth() starlark.Bool  { return starlark.True }
func (v columnValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: column") }

type indexValue struct {
	idx schema.Index
}

var _ starlark.Value = indexValue{}

func (v indexValue) String() string        { return "index" }
func (v indexValue) Type() string          { return "index" }
func (v indexValue) Freeze()               {}
func (v indexValue) Truth() starlark.Bool  { return starlark.True }
func (v indexValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: index") }

type multiIndexValue struct {
	mi schema.MultiIndex
}

var _ starlark.Value = multiIndexValue{}

func (v multiIndexValue) String() string        { return "multi_index" }
func (v multiIndexValue) Type() string          { return "multi_index" }
func (v multiIndexValue) Freeze()               {}
func (v multiIndexValue) Truth() starlark.Bool  { return starlark.True }
func (v multiIndexValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: multi_index") }

type checkValue struct {
	chk check.Check
}

var _ starlark.Value = checkValue{}

func (v checkValue) String() string        { return v.chk.String() }
func (v checkValue) Type() string          { return "check" }
func (v checkValue) Freeze()               {}
func (v checkValue) Truth() starlark.Bool  { return starlark.True }
func (v checkValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: check") }

// timeValue and durValue make time statistics expressible in scripts;
// both unwrap to their native Go values during conversion.

type timeValue struct {
	t time.Time
}

var (
	_ starlark.Value                        = timeValue{}
	_ core.StarlarkValueToGoValueConversion = timeValue{}
)

func (v timeValue) String() string         { return v.t.Format(dtype.TimeLayout) }
func (v timeValue) Type() string           { return "timestamp" }
func (v timeValue) Freeze()                {}
func (v timeValue) Truth() starlark.Bool   { return starlark.True }
func (v timeValue) Hash() (uint32, error)  { return starlark.String(v.String()).Hash() }
func (v timeValue) AsGoValue() interface{} { return v.t }

type durValue struct {
	d time.Duration
}

var (
	_ starlark.Value                        = durValue{}
	_ core.StarlarkValueToGoValueConversion = durValue{}
)

func (v durValue) String() string         { return strconv.FormatInt(int64(v.d), 10) }
func (v durValue) Type() string           { return "timedelta" }
func (v durValue) Freeze()                {}
func (v durValue) Truth() starlark.Bool   { return starlark.True }
func (v durValue) Hash() (uint32, error)  { return starlark.String(v.String()).Hash() }
func (v durValue) AsGoValue() interface{} { return v.d }
