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

package tables

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// searchFolder folds case so "AL" matches "Alpha" and "STRASSE" matches "Straße".
var searchFolder = cases.Fold()

// searchValue returns the value a search field reads from row: the column
// accessor when a column has the field's id, otherwise the raw row entry.
func searchValue(row Row, field string, byID map[string]ColumnDef) any {
	if col, ok := byID[field]; ok && col.Accessor != nil {
		return col.Accessor(row)
	}
	return row[field]
}

// filterIndices keeps the rows where any search field contains query.
// Without search fields every row matches.
func filterIndices(rows []Row, columns []ColumnDef, fields []string, query string) []int {
	indices := make([]int, 0, len(rows))
	if query == "" || len(fields) == 0 {
		for i := range rows {
			indices = append(indices, i)
		}
		return indices
	}

	byID := make(map[string]ColumnDef, len(columns))
	for _, c := range columns {
		byID[c.ID] = c
	}
	needle := searchFolder.String(query)

	for i, row := range rows {
		if rowMatches(row, fields, needle, byID) {
			indices = append(indices, i)
		}
	}
	return indices
}

// searchText is the text a value is searched by. Floats keep every digit
// instead of the two decimals shown in cells.
func searchText(v any) string {
	switch f := v.(type) {
	case float64:
		return strconv.FormatFloat(f, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(f), 'f', -1, 32)
	}
	return FormatValue(v)
}

func rowMatches(row Row, fields []string, needle string, byID map[string]ColumnDef) bool {
	for _, field := range fields {
		v := searchValue(row, field, byID)
		if v == nil {
			continue
		}
		if strings.Contains(searchFolder.String(searchText(v)), needle) {
			return true
		}
	}
	return false
}
