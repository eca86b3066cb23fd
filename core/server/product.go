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

package server

import (
	"context"
	"errors"

	"github.com/google/gridstate/core/actions"
	"github.com/google/gridstate/core/tables"
	"github.com/google/gridstate/core/users"
	"github.com/google/gridstate/core/views"
)

// ErrPending is returned by a DataSource whose result is not ready yet.
// The table renders its loading state.
var ErrPending = errors.New("data not ready")

// ErrRowNotFound is returned by a DataSource when a row id does not exist.
var ErrRowNotFound = errors.New("row not found")

// FetchRequest asks a DataSource for rows. For tables served in manual mode
// the source applies pagination, sorting and search itself.
type FetchRequest struct {
	Tenant     string
	Manual     bool
	Pagination tables.Pagination
	Sorting    tables.Sorting
	Search     string
}

// FetchResult is one response of a DataSource.
type FetchResult struct {
	Rows  []tables.Row
	Total int // rows at the source, used in manual mode
}

// DataSource is the remote collaborator that owns the records of a table.
type DataSource interface {
	Fetch(ctx context.Context, req FetchRequest) (FetchResult, error)
	Row(ctx context.Context, tenant, id string) (tables.Row, error)
}

// TableDef describes one resource served as a table.
type TableDef struct {
	Info              views.TableInfo
	Columns           []tables.ColumnDef
	SearchFields      []string
	SearchPlaceholder string
	EmptyMessage      string

	// Manual delegates pagination, sorting and search to Source.
	Manual bool
	// ColumnVisibility enables the column menu and persists its state.
	ColumnVisibility bool

	Source DataSource
	RowID  func(tables.Row) string

	// Actions returns the row actions for a user with caps. Nil means no actions column.
	Actions func(caps users.Capabilities) *actions.Config[tables.Row]
}

// ProductConfig defines the configuration interface for a product.
// Products provide their own tables and landing page settings.
type ProductConfig interface {
	GetName() string
	GetTitle() string
	GetSubtitle() string
	GetTables() []*TableDef
	GetTable(name string) *TableDef
}
