// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

package script

import (
	"fmt"
	"os"
	"strings"

	"github.com/k14s/starlark-go/resolve"
	"github.com/k14s/starlark-go/starlark"
	"github.com/k14s/starlark-go/syntax"

	"github.com/framelab/framecheck/pkg/check"
	"github.com/framelab/framecheck/pkg/schema"
	"github.com/framelab/framecheck/pkg/script/core"
)

// SchemaBinding is the global a schema script must assign.
const SchemaBinding = "schema"

// Execute runs a schema script and returns the schema it binds. The
// script may load the framecheck module by its well-known name; no
// other load target resolves. Scripts produced by Generate always
// execute cleanly against the registry they were generated with.
func Execute(name, src string, opts Opts) (s *schema.Schema, resultErr error) {
	core.ConfigureResolver()

	// conversion helpers panic on unsupported values; surface that as
	// a regular error like any other script failure
	defer func() {
		if err := recover(); err != nil {
			if typedErr, ok := err.(error); ok {
				resultErr = NewExecError(name, typedErr)
			} else {
				resultErr = NewExecError(name, fmt.Errorf("%s", err))
			}
		}
	}()

	file, err := syntax.Parse(name, src, syntax.BlockScanner)
	if err != nil {
		return nil, NewExecError(name, err)
	}

	prog, err := starlark.FileProgram(file, func(string) bool { return false })
	if err != nil {
		return nil, NewExecError(name, err)
	}

	thread := &starlark.Thread{
		Name: "framecheck-script",
		Load: loadModule(opts.registry()),
	}
	globals, err := prog.Init(thread, nil)
	if err != nil {
		return nil, NewExecError(name, err)
	}
	globals.Freeze()

	bound, found := globals[SchemaBinding]
	if !found {
		return nil, NewExecError(name, fmt.Errorf("script must assign a global named '%s'", SchemaBinding))
	}
	sv, ok := bound.(schemaValue)
	if !ok {
		return nil, NewExecError(name, fmt.Errorf(
			"global '%s' must be framecheck.schema(...), got %s", SchemaBinding, bound.Type()))
	}
	return sv.s, nil
}

// ExecuteFile is Execute over the contents of the named file.
func ExecuteFile(path string, opts Opts) (*schema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Execute(path, string(data), opts)
}

func loadModule(reg check.Registry) func(*starlark.Thread, string) (starlark.StringDict, error) {
	return func(_ *starlark.Thread, module string) (starlark.StringDict, error) {
		if module != ModuleName {
			return nil, fmt.Errorf("unknown module '%s' (only %s can be loaded)", module, ModuleName)
		}
		return NewAPI(reg), nil
	}
}

// ExecError reports a script failure with whatever positions the
// interpreter can attribute it to.
type ExecError struct {
	Name      string
	Positions []string
	Msg       string
}

func NewExecError(name string, err error) ExecError {
	e := ExecError{Name: name}

	switch typedErr := err.(type) {
	case syntax.Error:
		e.Positions = []string{typedErr.Pos.String()}
		e.Msg = typedErr.Msg

	case resolve.ErrorList:
		for _, resolveErr := range typedErr {
			e.Positions = append(e.Positions, resolveErr.Pos.String())
			if e.Msg == "" {
				e.Msg = resolveErr.Msg
			}
		}

	case *starlark.EvalError:
		for _, frame := range typedErr.CallStack {
			e.Positions = append(e.Positions, frame.Pos.String())
		}
		e.Msg = typedErr.Msg

	default:
		e.Msg = err.Error()
	}

	return e
}

func (e ExecError) Error() string {
	if len(e.Positions) == 0 {
		return fmt.Sprintf("executing script '%s': %s", e.Name, e.Msg)
	}
	return fmt.Sprintf("executing script '%s': %s (at %s)",
		e.Name, e.Msg, strings.Join(e.Positions, ", "))
}
