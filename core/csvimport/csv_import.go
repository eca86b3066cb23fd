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

package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/gridstate/core/tables"
)

// DateLayout is the only date format recognized by type detection.
const DateLayout = "2006-01-02"

// ErrNoRows is returned for input without data rows.
var ErrNoRows = errors.New("csvimport: no data rows")

// ColumnType specifies the value type produced for a column
type ColumnType int

const (
	// ColumnTypeAuto detects the type from sampled values (default)
	ColumnTypeAuto ColumnType = iota
	ColumnTypeString
	ColumnTypeInt
	ColumnTypeFloat
	ColumnTypeBool
	ColumnTypeDate
)

func (t ColumnType) String() string {
	switch t {
	case ColumnTypeString:
		return "string"
	case ColumnTypeInt:
		return "int"
	case ColumnTypeFloat:
		return "float"
	case ColumnTypeBool:
		return "bool"
	case ColumnTypeDate:
		return "date"
	}
	return "auto"
}

// ColumnSource overrides how one CSV column is imported
type ColumnSource struct {
	// Name is the row field (defaults to the header)
	Name string
	// Header is the column title (defaults to the header)
	Header string
	// Type forces a value type instead of detecting it
	Type ColumnType
}

// ImportOptions configures CSV import behavior
type ImportOptions struct {
	// HasHeader indicates whether the first row contains column headers
	HasHeader bool
	// Delimiter is the field delimiter (defaults to comma)
	Delimiter rune
	// ColumnSources provides configuration for specific columns by header name
	ColumnSources map[string]ColumnSource
	// SampleSize is the number of rows to sample for type detection (default: 100)
	SampleSize int
}

// DefaultOptions returns default import options
func DefaultOptions() ImportOptions {
	return ImportOptions{
		HasHeader:     true,
		Delimiter:     ',',
		ColumnSources: make(map[string]ColumnSource),
		SampleSize:    100,
	}
}

// Result is the imported data: one column per CSV column and a row per record.
// Empty cells become nil so they count as missing values.
type Result struct {
	Columns []tables.ColumnDef
	Types   []ColumnType
	Rows    []tables.Row
}

// ImportFromFile imports a CSV file
func ImportFromFile(filepath string, options ImportOptions) (*Result, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ImportFromReader(file, options)
}

// ImportFromReader imports CSV data from an io.Reader
func ImportFromReader(reader io.Reader, options ImportOptions) (*Result, error) {
	csvReader := csv.NewReader(reader)
	if options.Delimiter != 0 {
		csvReader.Comma = options.Delimiter
	}
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV input is empty: %w", ErrNoRows)
	}

	var headers []string
	var dataRows [][]string
	if options.HasHeader {
		headers = records[0]
		dataRows = records[1:]
	} else {
		// Generate column names if no header
		headers = make([]string, len(records[0]))
		for i := range headers {
			headers[i] = fmt.Sprintf("column_%d", i+1)
		}
		dataRows = records
	}
	if len(dataRows) == 0 {
		return nil, ErrNoRows
	}

	sampleSize := options.SampleSize
	if sampleSize <= 0 {
		sampleSize = 100
	}
	types := detectColumnTypes(headers, dataRows, sampleSize, options.ColumnSources)

	result := &Result{
		Columns: make([]tables.ColumnDef, len(headers)),
		Types:   types,
		Rows:    make([]tables.Row, 0, len(dataRows)),
	}
	for i, header := range headers {
		source := getColumnSource(header, options.ColumnSources)
		col := tables.ColumnDef{ID: header, Header: header, Sortable: true, Hideable: true}
		if source.Name != "" {
			col.ID = source.Name
		}
		if source.Header != "" {
			col.Header = source.Header
		}
		result.Columns[i] = col
	}

	for line, record := range dataRows {
		row := make(tables.Row, len(headers))
		for i, col := range result.Columns {
			value := ""
			if i < len(record) {
				value = strings.TrimSpace(record[i])
			}
			parsed, err := parseValue(value, types[i])
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", line+1, headers[i], err)
			}
			row[col.ID] = parsed
		}
		result.Rows = append(result.Rows, row)
	}
	return result, nil
}

// parseValue converts one trimmed cell. Empty cells are nil for every type.
func parseValue(value string, t ColumnType) (any, error) {
	if value == "" {
		return nil, nil
	}
	switch t {
	case ColumnTypeInt:
		return strconv.Atoi(value)
	case ColumnTypeFloat:
		return strconv.ParseFloat(value, 64)
	case ColumnTypeBool:
		return parseBool(value)
	case ColumnTypeDate:
		return time.Parse(DateLayout, value)
	}
	return value, nil
}

// parseBool accepts the usual spellings in any case.
func parseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "true", "yes", "y", "1":
		return true, nil
	case "false", "no", "n", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid bool %q", value)
}

// detectColumnTypes samples data and picks the narrowest type every
// non-empty sampled value parses as
func detectColumnTypes(headers []string, dataRows [][]string, sampleSize int, configs map[string]ColumnSource) []ColumnType {
	types := make([]ColumnType, len(headers))
	rowsToSample := min(sampleSize, len(dataRows))

	for i, header := range headers {
		if config, ok := configs[header]; ok && config.Type != ColumnTypeAuto {
			types[i] = config.Type
			continue
		}

		candidates := []ColumnType{ColumnTypeInt, ColumnTypeFloat, ColumnTypeBool, ColumnTypeDate}
		hasNonEmpty := false
		for j := 0; j < rowsToSample && len(candidates) > 0; j++ {
			if i >= len(dataRows[j]) {
				continue
			}
			value := strings.TrimSpace(dataRows[j][i])
			if value == "" {
				continue
			}
			hasNonEmpty = true

			kept := candidates[:0]
			for _, c := range candidates {
				if _, err := parseValue(value, c); err == nil {
					kept = append(kept, c)
				}
			}
			candidates = kept
		}

		if hasNonEmpty && len(candidates) > 0 {
			types[i] = candidates[0]
		} else {
			types[i] = ColumnTypeString
		}
	}
	return types
}

// getColumnSource returns the config for a column, or an empty config if not specified
func getColumnSource(header string, configs map[string]ColumnSource) ColumnSource {
	if configs == nil {
		return ColumnSource{}
	}
	return configs[header]
}
