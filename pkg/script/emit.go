// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

package script

import (
	"strconv"
	"strings"
)

// Generated source is assembled as a small expression tree and rendered
// in one pass. Keeping the tree explicit (instead of concatenating
// strings at each call site) pins down indentation, trailing commas and
// quoting in exactly one place.

const indentUnit = "    "

type expr interface {
	render(out *strings.Builder, indent string)
}

// lit is a pre-rendered token: None, True, 42, "quoted".
type lit string

func (l lit) render(out *strings.Builder, _ string) { out.WriteString(string(l)) }

type kwarg struct {
	name string
	val  expr
}

// call renders fn(...). Block calls place one argument per line with a
// trailing comma, the layout buildifier settles on for long calls.
type call struct {
	fn     string
	args   []expr
	kwargs []kwarg
	block  bool
}

func (c call) render(out *strings.Builder, indent string) {
	out.WriteString(c.fn)
	out.WriteString("(")
	if !c.block {
		for i, arg := range c.args {
			if i > 0 {
				out.WriteString(", ")
			}
			arg.render(out, indent)
		}
		for i, kw := range c.kwargs {
			if i > 0 || len(c.args) > 0 {
				out.WriteString(", ")
			}
			out.WriteString(kw.name)
			out.WriteString(" = ")
			kw.val.render(out, indent)
		}
		out.WriteString(")")
		return
	}
	inner := indent + indentUnit
	for _, arg := range c.args {
		out.WriteString("\n")
		out.WriteString(inner)
		arg.render(out, inner)
		out.WriteString(",")
	}
	for _, kw := range c.kwargs {
		out.WriteString("\n")
		out.WriteString(inner)
		out.WriteString(kw.name)
		out.WriteString(" = ")
		kw.val.render(out, inner)
		out.WriteString(",")
	}
	out.WriteString("\n")
	out.WriteString(indent)
	out.WriteString(")")
}

type dictEntry struct {
	key string
	val expr
}

// dict renders a block dict literal with string keys.
type dict struct {
	entries []dictEntry
}

func (d dict) render(out *strings.Builder, indent string) {
	if len(d.entries) == 0 {
		out.WriteString("{}")
		return
	}
	inner := indent + indentUnit
	out.WriteString("{")
	for _, entry := range d.entries {
		out.WriteString("\n")
		out.WriteString(inner)
		out.WriteString(strconv.Quote(entry.key))
		out.WriteString(": ")
		entry.val.render(out, inner)
		out.WriteString(",")
	}
	out.WriteString("\n")
	out.WriteString(indent)
	out.WriteString("}")
}

type list struct {
	items []expr
	block bool
}

func (l list) render(out *strings.Builder, indent string) {
	if len(l.items) == 0 {
		out.WriteString("[]")
		return
	}
	if !l.block {
		out.WriteString("[")
		for i, item := range l.items {
			if i > 0 {
				out.WriteString(", ")
			}
			item.render(out, indent)
		}
		out.WriteString("]")
		return
	}
	inner := indent + indentUnit
	out.WriteString("[")
	for _, item := range l.items {
		out.WriteString("\n")
		out.WriteString(inner)
		item.render(out, inner)
		out.WriteString(",")
	}
	out.WriteString("\n")
	out.WriteString(indent)
	out.WriteString("]")
}

// scriptFile is one load statement plus one assignment, the whole of a
// generated script.
type scriptFile struct {
	module  string
	symbol  string
	binding string
	value   expr
}

func (f scriptFile) render() string {
	var out strings.Builder
	out.WriteString("load(")
	out.WriteString(strconv.Quote(f.module))
	out.WriteString(", ")
	out.WriteString(strconv.Quote(f.symbol))
	out.WriteString(")\n\n")
	out.WriteString(f.binding)
	out.WriteString(" = ")
	f.value.render(&out, "")
	out.WriteString("\n")
	return out.String()
}
