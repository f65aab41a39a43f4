// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"
)

// SchemaDefinitionError reports a malformed schema document: the
// document cannot be understood as a schema at all, as opposed to a
// table failing validation.
type SchemaDefinitionError struct {
	Reason string
}

func NewSchemaDefinitionError(format string, args ...interface{}) SchemaDefinitionError {
	return SchemaDefinitionError{Reason: fmt.Sprintf(format, args...)}
}

func (e SchemaDefinitionError) Error() string {
	return fmt.Sprintf("invalid schema definition: %s", e.Reason)
}

// SchemaError reports that a table failed validation. Violations keep
// the order they were found in: columns in schema order, then
// unexpected columns, then index levels, then table-wide checks.
type SchemaError struct {
	Violations []error
}

func (e *SchemaError) Error() string {
	noun := "violations"
	if len(e.Violations) == 1 {
		noun = "violation"
	}
	msg := fmt.Sprintf("table does not conform to the schema (%d %s)", len(e.Violations), noun)
	for _, violation := range e.Violations {
		msg += "\n  - " + violation.Error()
	}
	return msg
}
