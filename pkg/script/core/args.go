// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

package core

import (
	"fmt"

	"github.com/k14s/starlark-go/starlark"
)

// KwargValue finds the named keyword argument.
func KwargValue(kwargs []starlark.Tuple, keyToFind string) (starlark.Value, bool, error) {
	for _, arg := range kwargs {
		key, err := NewStarlarkValue(arg.Index(0)).AsString()
		if err != nil {
			return nil, false, err
		}
		if key == keyToFind {
			return arg.Index(1), true, nil
		}
	}
	return nil, false, nil
}

// BoolArg returns the named keyword argument as a bool, or false when
// it is absent.
func BoolArg(kwargs []starlark.Tuple, keyToFind string) (bool, error) {
	val, found, err := KwargValue(kwargs, keyToFind)
	if err != nil || !found {
		return false, err
	}
	return NewStarlarkValue(val).AsBool()
}

// CheckArgNames errors on keyword arguments outside the allowed set.
func CheckArgNames(kwargs []starlark.Tuple, allowed ...string) error {
	for _, arg := range kwargs {
		key, err := NewStarlarkValue(arg.Index(0)).AsString()
		if err != nil {
			return err
		}
		known := false
		for _, name := range allowed {
			if key == name {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unexpected keyword argument '%s'", key)
		}
	}
	return nil
}
