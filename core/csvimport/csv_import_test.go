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
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportBasicCSV(t *testing.T) {
	csvData := `name,age,city
Alice,30,New York
Bob,25,Los Angeles
Charlie,35,Chicago`

	result, err := ImportFromReader(strings.NewReader(csvData), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to import CSV: %v", err)
	}

	if len(result.Rows) != 3 {
		t.Errorf("expected 3 rows, got %d", len(result.Rows))
	}
	if len(result.Columns) != 3 {
		t.Errorf("expected 3 columns, got %d", len(result.Columns))
	}
	if result.Rows[0]["name"] != "Alice" {
		t.Errorf("expected 'Alice', got '%v'", result.Rows[0]["name"])
	}
	if result.Rows[0]["age"] != 30 {
		t.Errorf("expected 30, got %v", result.Rows[0]["age"])
	}
	assert.Equal(t, []ColumnType{ColumnTypeString, ColumnTypeInt, ColumnTypeString}, result.Types)
	assert.True(t, result.Columns[1].Sortable)
}

func TestImportWithoutHeader(t *testing.T) {
	csvData := `Alice,30,New York
Bob,25,Los Angeles`

	options := DefaultOptions()
	options.HasHeader = false

	result, err := ImportFromReader(strings.NewReader(csvData), options)
	if err != nil {
		t.Fatalf("failed to import CSV: %v", err)
	}

	if result.Columns[0].ID != "column_1" {
		t.Fatalf("expected column_1, got %s", result.Columns[0].ID)
	}
	if result.Rows[0]["column_1"] != "Alice" {
		t.Errorf("expected 'Alice', got '%v'", result.Rows[0]["column_1"])
	}
}

func TestImportWithColumnSource(t *testing.T) {
	csvData := `id,region,amount
1,North,100
2,South,200`

	options := DefaultOptions()
	options.ColumnSources = map[string]ColumnSource{
		"region": {Name: "area", Header: "Area"},
		"id":     {Header: "Order ID", Type: ColumnTypeString}, // Force string even though it looks numeric
	}

	result, err := ImportFromReader(strings.NewReader(csvData), options)
	if err != nil {
		t.Fatalf("failed to import CSV: %v", err)
	}

	assert.Equal(t, "Order ID", result.Columns[0].Header)
	assert.Equal(t, "area", result.Columns[1].ID)
	assert.Equal(t, "1", result.Rows[0]["id"])
	assert.Equal(t, "North", result.Rows[0]["area"])
	assert.Equal(t, 100, result.Rows[0]["amount"])
}

func TestImportWithDelimiter(t *testing.T) {
	csvData := `name;age;city
Alice;30;New York
Bob;25;Los Angeles`

	options := DefaultOptions()
	options.Delimiter = ';'

	result, err := ImportFromReader(strings.NewReader(csvData), options)
	if err != nil {
		t.Fatalf("failed to import CSV: %v", err)
	}
	if len(result.Rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(result.Rows))
	}
	if result.Rows[1]["city"] != "Los Angeles" {
		t.Errorf("expected 'Los Angeles', got '%v'", result.Rows[1]["city"])
	}
}

func TestImportEmptyCSV(t *testing.T) {
	_, err := ImportFromReader(strings.NewReader(""), DefaultOptions())
	if !errors.Is(err, ErrNoRows) {
		t.Errorf("expected ErrNoRows for empty CSV, got %v", err)
	}
}

func TestImportHeaderOnly(t *testing.T) {
	_, err := ImportFromReader(strings.NewReader("name,age,city"), DefaultOptions())
	if !errors.Is(err, ErrNoRows) {
		t.Errorf("expected ErrNoRows for header-only CSV, got %v", err)
	}
}

func TestImportDetectsTypes(t *testing.T) {
	csvData := `code,value,price,active,until
ABC,100,9.5,yes,2024-03-01
DEF,200,10,no,2024-04-01
123,300,11.25,YES,`

	result, err := ImportFromReader(strings.NewReader(csvData), DefaultOptions())
	require.NoError(t, err)

	tests := []struct {
		column string
		want   ColumnType
	}{
		{"code", ColumnTypeString},
		{"value", ColumnTypeInt},
		{"price", ColumnTypeFloat},
		{"active", ColumnTypeBool},
		{"until", ColumnTypeDate},
	}
	for i, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			if result.Types[i] != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, result.Types[i])
			}
		})
	}

	last := result.Rows[2]
	assert.Equal(t, "123", last["code"])
	assert.Equal(t, 11.25, last["price"])
	assert.Equal(t, true, last["active"])
	assert.Nil(t, last["until"])
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), result.Rows[0]["until"])
}

func TestImportWithEmptyValues(t *testing.T) {
	csvData := `name,count
Alice,10
Bob,
Charlie,20`

	result, err := ImportFromReader(strings.NewReader(csvData), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to import CSV: %v", err)
	}

	if result.Rows[1]["count"] != nil {
		t.Errorf("expected nil for empty numeric, got '%v'", result.Rows[1]["count"])
	}
	if result.Types[1] != ColumnTypeInt {
		t.Errorf("expected int column, got %s", result.Types[1])
	}
}

func TestImportRejectsBadForcedValue(t *testing.T) {
	options := DefaultOptions()
	options.ColumnSources = map[string]ColumnSource{"count": {Type: ColumnTypeInt}}
	_, err := ImportFromReader(strings.NewReader("count\nmany\n"), options)
	assert.ErrorContains(t, err, `row 1 column "count"`)
}

func TestImportFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,price\nBasic,39\n"), 0o644))

	result, err := ImportFromFile(path, DefaultOptions())
	require.NoError(t, err)
	assert.Len(t, result.Rows, 1)

	_, err = ImportFromFile(filepath.Join(t.TempDir(), "missing.csv"), DefaultOptions())
	assert.Error(t, err)
}
