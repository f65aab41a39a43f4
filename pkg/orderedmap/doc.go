// Copyright 2024 The Framecheck Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package orderedmap provides a string-keyed map that remembers insertion
order. Schema documents are ordered mappings (column order and check order
are part of the encoding contract), so every mapping that crosses the wire
is carried as a *Map rather than a Go map.
*/
package orderedmap
