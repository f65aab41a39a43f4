// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

package script

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/framelab/framecheck/pkg/check"
	"github.com/framelab/framecheck/pkg/cmd/ui"
	"github.com/framelab/framecheck/pkg/dtype"
	"github.com/framelab/framecheck/pkg/schema"
)

// ModuleName is the load()able module generated scripts depend on.
const ModuleName = "@framecheck:schema"

// Opts adjusts generation and execution. The zero value resolves check
// names against the default registry and prints warnings to stderr.
type Opts struct {
	Registry check.Registry
	UI       ui.UI
}

func (o Opts) registry() check.Registry {
	if o.Registry != nil {
		return o.Registry
	}
	return check.DefaultRegistry()
}

func (o Opts) ui() ui.UI {
	if o.UI != nil {
		return o.UI
	}
	return ui.NewTTY(false)
}

// Generate renders the schema as a Starlark script binding a global
// named `schema`. Output is deterministic and always parseable:
// checks that cannot be rendered are dropped with a warning.
func Generate(s *schema.Schema, opts Opts) (string, error) {
	if s == nil {
		return "", fmt.Errorf("cannot generate a script for a nil schema")
	}
	file := scriptFile{
		module:  ModuleName,
		symbol:  "framecheck",
		binding: "schema",
		value:   schemaExpr(s, opts.registry(), opts.ui()),
	}
	return file.render(), nil
}

// Write renders the schema as a Starlark script onto w.
func Write(s *schema.Schema, w io.Writer, opts Opts) error {
	src, err := Generate(s, opts)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, src)
	return err
}

// WriteFile renders the schema as a Starlark script into the named file.
func WriteFile(s *schema.Schema, path string, opts Opts) error {
	src, err := Generate(s, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(src), 0644)
}

func schemaExpr(s *schema.Schema, reg check.Registry, u ui.UI) expr {
	return call{
		fn:    "framecheck.schema",
		block: true,
		kwargs: []kwarg{
			{"columns", columnsExpr(s, reg, u)},
			{"checks", checksExpr(s.Checks, "the table", reg, u)},
			{"index", indexExpr(s, reg, u)},
			{"coerce", boolExpr(s.Coerce)},
			{"strict", boolExpr(s.Strict)},
		},
	}
}

func columnsExpr(s *schema.Schema, reg check.Registry, u ui.UI) expr {
	if s.NumColumns() == 0 {
		return lit("None")
	}
	cols := dict{}
	s.IterateColumns(func(name string, col schema.Column) {
		cols.entries = append(cols.entries, dictEntry{
			key: name,
			val: columnExpr(name, col, reg, u),
		})
	})
	return cols
}

func columnExpr(name string, col schema.Column, reg check.Registry, u ui.UI) expr {
	return call{
		fn:    "framecheck.column",
		block: true,
		kwargs: []kwarg{
			{"dtype", dtypeExpr(col.DType)},
			{"nullable", boolExpr(col.Nullable)},
			{"checks", checksExpr(col.Checks, fmt.Sprintf("column '%s'", name), reg, u)},
			{"allow_duplicates", boolExpr(col.AllowDuplicates)},
			{"coerce", boolExpr(col.Coerce)},
			{"required", boolExpr(col.Required)},
			{"regex", boolExpr(col.Regex)},
		},
	}
}

func indexExpr(s *schema.Schema, reg check.Registry, u ui.UI) expr {
	switch {
	case s.Index != nil:
		return indexEntryExpr(*s.Index, "the index", reg, u)
	case s.MultiIndex != nil:
		multi := call{fn: "framecheck.multi_index", block: true}
		for i, idx := range s.MultiIndex.Indexes {
			multi.args = append(multi.args, indexEntryExpr(idx, fmt.Sprintf("index level %d", i), reg, u))
		}
		return multi
	default:
		return lit("None")
	}
}

func indexEntryExpr(idx schema.Index, where string, reg check.Registry, u ui.UI) expr {
	name := lit("None")
	if idx.Name != nil {
		name = lit(strconv.Quote(*idx.Name))
	}
	return call{
		fn:    "framecheck.index",
		block: true,
		kwargs: []kwarg{
			{"dtype", dtypeExpr(idx.DType)},
			{"nullable", boolExpr(idx.Nullable)},
			{"checks", checksExpr(idx.Checks, where, reg, u)},
			{"name", name},
			{"coerce", boolExpr(idx.Coerce)},
		},
	}
}

// checksExpr renders a check list. Registered checks become
// framecheck.check.<name>(...) calls, expression checks stay as literal
// framecheck.check.expr(...) best effort, and opaque functions are
// dropped with a warning since no source can reproduce them.
func checksExpr(checks []check.Check, where string, reg check.Registry, u ui.UI) expr {
	if len(checks) == 0 {
		return lit("None")
	}
	rendered := list{block: true}
	for _, chk := range checks {
		if chk.Expression() != "" {
			u.Warnf("Rendering check %s on %s as a literal expression, best effort\n", chk.String(), where)
			rendered.items = append(rendered.items, call{
				fn:   "framecheck.check.expr",
				args: []expr{lit(strconv.Quote(chk.Expression()))},
			})
			continue
		}
		method, found := check.Method{}, false
		if chk.Name() != "" {
			method, found = reg.Resolve(chk.Name())
		}
		if !found {
			u.Warnf("Dropping check %s on %s: only registered checks survive script generation\n", chk.String(), where)
			continue
		}
		rendered.items = append(rendered.items, checkCallExpr(chk, method))
	}
	if len(rendered.items) == 0 {
		return lit("None")
	}
	return rendered
}

func checkCallExpr(chk check.Check, method check.Method) expr {
	out := call{fn: "framecheck.check." + chk.Name()}
	params := chk.Params()
	if len(params) == 1 {
		out.args = []expr{statExpr(params[0].Value)}
		return out
	}
	for _, p := range method.OrderedParams(params) {
		out.kwargs = append(out.kwargs, kwarg{p.Name, statExpr(p.Value)})
	}
	return out
}

func statExpr(val interface{}) expr {
	switch v := val.(type) {
	case nil:
		return lit("None")
	case bool:
		return boolExpr(v)
	case string:
		return lit(strconv.Quote(v))
	case int64:
		return lit(strconv.FormatInt(v, 10))
	case float64:
		return lit(formatFloat(v))
	case time.Time:
		return call{
			fn:   "framecheck.timestamp",
			args: []expr{lit(strconv.Quote(v.Format(dtype.TimeLayout)))},
		}
	case time.Duration:
		return call{
			fn:   "framecheck.timedelta",
			args: []expr{lit(strconv.FormatInt(int64(v), 10))},
		}
	case []interface{}:
		items := list{}
		for _, item := range v {
			items.items = append(items.items, statExpr(item))
		}
		return items
	default:
		return lit(strconv.Quote(fmt.Sprintf("%v", v)))
	}
}

func dtypeExpr(d dtype.DType) expr {
	if d == dtype.Untyped {
		return lit("None")
	}
	return lit(strconv.Quote(d.String()))
}

// formatFloat keeps a decimal point on integral floats so the literal
// parses back as a float.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEIN") {
		s += ".0"
	}
	return s
}

func boolExpr(b bool) expr {
	if b {
		return lit("True")
	}
	return lit("False")
}
