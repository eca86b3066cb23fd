/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Taxinomia Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package tables holds the state of one mounted data table: pagination,
// sorting, free-text search and column visibility, and derives the rows the
// renderer shows from it.
//
// Each concern is either computed here from the full row set (client mode) or
// delegated to the caller (manual mode), in which case transitions are only
// recorded and forwarded through the matching callback.
package tables

import (
	"fmt"
	"time"
)

// Row is one opaque record. Columns read it through their accessor.
type Row map[string]any

// ColumnDef describes one column. Definitions are immutable once handed to a Coordinator.
type ColumnDef struct {
	ID     string
	Header string
	// Accessor derives the cell value. Nil reads Row[ID].
	Accessor func(row Row) any
	// Format renders the value. Nil uses FormatValue.
	Format   func(value any) string
	Sortable bool
	Hideable bool
	Width    int // preferred width in pixels, 0 = auto
	MinWidth int
	MaxWidth int
}

// Value returns the column's value for row.
func (c ColumnDef) Value(row Row) any {
	if c.Accessor != nil {
		return c.Accessor(row)
	}
	return row[c.ID]
}

// Cell returns the display string for row.
func (c ColumnDef) Cell(row Row) string {
	v := c.Value(row)
	if c.Format != nil {
		return c.Format(v)
	}
	return FormatValue(v)
}

// FormatValue is the default cell formatting. Nil renders as empty.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return val.Format("2006-01-02")
	case float32:
		return fmt.Sprintf("%.2f", val)
	case float64:
		return fmt.Sprintf("%.2f", val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
