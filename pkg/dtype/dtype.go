// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

package dtype

import (
	"fmt"
	"strconv"
	"time"
)

// DType is the semantic data type tag carried by columns and index levels.
// The zero value means "untyped": the column matches any value type and
// serializes its type field as null.
type DType string

const (
	Untyped DType = ""

	Bool      DType = "bool"
	Int8      DType = "int8"
	Int16     DType = "int16"
	Int32     DType = "int32"
	Int64     DType = "int64"
	Float32   DType = "float32"
	Float64   DType = "float64"
	String    DType = "str"
	Object    DType = "object"
	Category  DType = "category"
	DateTime  DType = "datetime64[ns]"
	Timedelta DType = "timedelta64[ns]"
)

// TimeLayout is how DateTime-typed check statistics are rendered in
// documents.
const TimeLayout = "2006-01-02 15:04:05"

var canonical = map[DType]struct{}{
	Bool: {}, Int8: {}, Int16: {}, Int32: {}, Int64: {},
	Float32: {}, Float64: {}, String: {}, Object: {}, Category: {},
	DateTime: {}, Timedelta: {},
}

// Aliases accepted on the wire; values always re-encode canonically.
var aliases = map[string]DType{
	"int":       Int64,
	"integer":   Int64,
	"float":     Float64,
	"double":    Float64,
	"string":    String,
	"text":      String,
	"datetime":  DateTime,
	"timedelta": Timedelta,
}

// Parse resolves a serialized type name to a DType. An empty name is the
// untyped tag.
func Parse(name string) (DType, error) {
	if name == "" {
		return Untyped, nil
	}
	if d := DType(name); d.Known() {
		return d, nil
	}
	if d, ok := aliases[name]; ok {
		return d, nil
	}
	return Untyped, fmt.Errorf("unknown data type '%s'", name)
}

func (d DType) Known() bool {
	_, found := canonical[d]
	return found
}

func (d DType) String() string { return string(d) }

// Conforms reports whether a single value is acceptable for this type
// without coercion. Untyped and Object accept anything; nil is handled by
// nullability, not here.
func (d DType) Conforms(val interface{}) bool {
	if val == nil {
		return true
	}
	switch d {
	case Untyped, Object:
		return true
	case Bool:
		_, ok := val.(bool)
		return ok
	case Int8, Int16, Int32, Int64:
		switch val.(type) {
		case int, int8, int16, int32, int64:
			return true
		}
		return false
	case Float32, Float64:
		switch val.(type) {
		case float32, float64:
			return true
		}
		return false
	case String, Category:
		_, ok := val.(string)
		return ok
	case DateTime:
		_, ok := val.(time.Time)
		return ok
	case Timedelta:
		_, ok := val.(time.Duration)
		return ok
	}
	return false
}

// Coerce converts a value into this type's canonical Go representation.
// Used by validation when a schema or column sets the coerce flag.
func (d DType) Coerce(val interface{}) (interface{}, error) {
	if val == nil {
		return nil, nil
	}
	switch d {
	case Untyped, Object:
		return val, nil

	case Bool:
		switch typedVal := val.(type) {
		case bool:
			return typedVal, nil
		case string:
			b, err := strconv.ParseBool(typedVal)
			if err != nil {
				return nil, coerceErr(val, d)
			}
			return b, nil
		}

	case Int8, Int16, Int32, Int64:
		switch typedVal := val.(type) {
		case int:
			return int64(typedVal), nil
		case int8:
			return int64(typedVal), nil
		case int16:
			return int64(typedVal), nil
		case int32:
			return int64(typedVal), nil
		case int64:
			return typedVal, nil
		case float64:
			if typedVal == float64(int64(typedVal)) {
				return int64(typedVal), nil
			}
		case string:
			i, err := strconv.ParseInt(typedVal, 10, 64)
			if err != nil {
				return nil, coerceErr(val, d)
			}
			return i, nil
		}

	case Float32, Float64:
		switch typedVal := val.(type) {
		case float32:
			return float64(typedVal), nil
		case float64:
			return typedVal, nil
		case int:
			return float64(typedVal), nil
		case int64:
			return float64(typedVal), nil
		case string:
			f, err := strconv.ParseFloat(typedVal, 64)
			if err != nil {
				return nil, coerceErr(val, d)
			}
			return f, nil
		}

	case String, Category:
		switch typedVal := val.(type) {
		case string:
			return typedVal, nil
		default:
			return fmt.Sprintf("%v", typedVal), nil
		}

	case DateTime:
		switch typedVal := val.(type) {
		case time.Time:
			return typedVal, nil
		case string:
			for _, layout := range []string{TimeLayout, time.RFC3339, "2006-01-02"} {
				if t, err := time.Parse(layout, typedVal); err == nil {
					return t.UTC(), nil
				}
			}
		}

	case Timedelta:
		switch typedVal := val.(type) {
		case time.Duration:
			return typedVal, nil
		case int:
			return time.Duration(typedVal), nil
		case int64:
			return time.Duration(typedVal), nil
		case string:
			dur, err := time.ParseDuration(typedVal)
			if err != nil {
				return nil, coerceErr(val, d)
			}
			return dur, nil
		}
	}
	return nil, coerceErr(val, d)
}

func coerceErr(val interface{}, d DType) error {
	return fmt.Errorf("cannot coerce %v (%T) to %s", val, val, d)
}
