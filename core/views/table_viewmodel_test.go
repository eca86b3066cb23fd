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

package views

import (
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/google/gridstate/core/actions"
	"github.com/google/gridstate/core/query"
	"github.com/google/gridstate/core/tables"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staffColumns() []tables.ColumnDef {
	return []tables.ColumnDef{
		{ID: "name", Header: "Name", Sortable: true},
		{ID: "email", Header: "Email", Sortable: true, Hideable: true},
		{ID: "role", Header: "Role", Hideable: true},
	}
}

func staffRows(n int) []tables.Row {
	rows := make([]tables.Row, n)
	for i := range rows {
		rows[i] = tables.Row{
			"id":    fmt.Sprintf("s%02d", i),
			"name":  fmt.Sprintf("Person %02d", i),
			"email": fmt.Sprintf("p%02d@example.com", i),
			"role":  "coach",
		}
	}
	return rows
}

func staffQuery(t *testing.T, raw string) *query.Query {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return query.NewQuery(u)
}

func rowID(r tables.Row) string { return r["id"].(string) }

func editableActions(canEdit bool) *actions.Config[tables.Row] {
	return &actions.Config[tables.Row]{
		Actions: []actions.RowAction[tables.Row]{
			actions.BuiltIn[tables.Row]{Type: actions.Edit},
			actions.BuiltIn[tables.Row]{Type: actions.Delete},
		},
		CanEdit: canEdit,
	}
}

func TestStatusPrecedence(t *testing.T) {
	c := tables.New(staffRows(3), tables.Options{Columns: staffColumns(), EnablePagination: true})
	defer c.Close()

	t.Run("loading wins over error", func(t *testing.T) {
		vm := BuildTableViewModel(TableInput{Coordinator: c, Loading: true, Err: errors.New("boom")})
		assert.Equal(t, StatusLoading, vm.Status)
		assert.True(t, vm.IsLoading)
		assert.Len(t, vm.SkeletonRows, DefaultSkeletonRows)
		assert.Nil(t, vm.Pager)
		assert.Empty(t, vm.Rows)
	})

	t.Run("error wins over rows", func(t *testing.T) {
		vm := BuildTableViewModel(TableInput{Coordinator: c, Err: errors.New("backend unavailable")})
		assert.Equal(t, StatusError, vm.Status)
		assert.Equal(t, "backend unavailable", vm.ErrorMessage)
		assert.Nil(t, vm.Pager)
	})

	t.Run("populated", func(t *testing.T) {
		vm := BuildTableViewModel(TableInput{Coordinator: c})
		assert.Equal(t, StatusPopulated, vm.Status)
		assert.Len(t, vm.Rows, 3)
		require.NotNil(t, vm.Pager)
	})
}

func TestEmptyHasNoPager(t *testing.T) {
	c := tables.New(nil, tables.Options{Columns: staffColumns(), EnablePagination: true})
	defer c.Close()

	vm := BuildTableViewModel(TableInput{Coordinator: c, Actions: editableActions(true)})
	assert.Equal(t, StatusEmpty, vm.Status)
	assert.Equal(t, "No results.", vm.EmptyMessage)
	assert.Nil(t, vm.Pager)
	// Status rows span the data columns plus actions
	assert.Equal(t, 4, vm.ColSpan)
}

func TestHeadersCarrySortGlyphs(t *testing.T) {
	c := tables.New(staffRows(2), tables.Options{Columns: staffColumns()})
	defer c.Close()
	c.SetSorting(tables.Value(tables.Sorting{{ID: "name", Desc: true}}))

	vm := BuildTableViewModel(TableInput{Coordinator: c, Query: staffQuery(t, "/table?table=staff&sort=name:desc")})
	require.Len(t, vm.Headers, 3)

	assert.Equal(t, GlyphDescending, vm.Headers[0].Glyph)
	assert.Equal(t, GlyphUnsorted, vm.Headers[1].Glyph)
	assert.Equal(t, "", vm.Headers[2].Glyph, "non sortable columns have no indicator")

	next := staffQuery(t, vm.Headers[0].SortURL.String())
	assert.Empty(t, next.Sort, "descending cycles back to unsorted")
	next = staffQuery(t, vm.Headers[1].SortURL.String())
	assert.Equal(t, "email:asc", query.FormatSort(next.Sort))
}

func TestMultiSortRanks(t *testing.T) {
	c := tables.New(staffRows(2), tables.Options{Columns: staffColumns()})
	defer c.Close()
	c.SetSorting(tables.Value(tables.Sorting{{ID: "email"}, {ID: "name"}}))

	vm := BuildTableViewModel(TableInput{Coordinator: c, Query: staffQuery(t, "/table?table=staff&multi=1")})
	assert.Equal(t, 2, vm.Headers[0].SortRank)
	assert.Equal(t, 1, vm.Headers[1].SortRank)
	next := staffQuery(t, vm.Headers[0].SortURL.String())
	assert.Equal(t, "email:asc,name:desc", query.FormatSort(next.Sort))
}

func TestHiddenColumnsAndToggles(t *testing.T) {
	c := tables.New(staffRows(2), tables.Options{Columns: staffColumns(), EnableColumnVisibility: true})
	defer c.Close()
	c.ToggleColumn("email")

	vm := BuildTableViewModel(TableInput{Coordinator: c, RowID: rowID})
	require.Len(t, vm.Headers, 2)
	assert.Equal(t, "name", vm.Headers[0].ID)
	assert.Equal(t, "role", vm.Headers[1].ID)
	assert.Equal(t, []string{"Person 00", "coach"}, vm.Rows[0].Cells)

	require.Len(t, vm.Toggles, 2)
	assert.False(t, vm.Toggles[0].Visible)
	assert.True(t, vm.Toggles[1].Visible)
	assert.Equal(t, "email", staffQuery(t, vm.Toggles[0].URL.String()).Toggle)
}

func TestRowActionsFollowCapabilities(t *testing.T) {
	c := tables.New(staffRows(1), tables.Options{Columns: staffColumns()})
	defer c.Close()
	q := staffQuery(t, "/table?table=staff&user=alice")

	vm := BuildTableViewModel(TableInput{Coordinator: c, Query: q, RowID: rowID, Actions: editableActions(false)})
	require.Len(t, vm.Rows[0].Actions, 1)
	view := vm.Rows[0].Actions[0]
	assert.Equal(t, "view", view.Key)
	assert.Equal(t, "View", view.Label)
	u, err := url.Parse(view.URL.String())
	require.NoError(t, err)
	assert.Equal(t, "/action", u.Path)
	assert.Equal(t, "s00", u.Query().Get("row"))
	assert.Equal(t, "alice", u.Query().Get("user"))

	vm = BuildTableViewModel(TableInput{Coordinator: c, Query: q, RowID: rowID, Actions: editableActions(true)})
	keys := []string{}
	for _, a := range vm.Rows[0].Actions {
		keys = append(keys, a.Key)
	}
	assert.Equal(t, []string{"edit", "delete"}, keys)
	assert.True(t, vm.Rows[0].Actions[1].Destructive)
}

func TestEmptyActionListAddsNoColumn(t *testing.T) {
	c := tables.New(staffRows(2), tables.Options{Columns: staffColumns()})
	defer c.Close()

	tests := []struct {
		name    string
		actions *actions.Config[tables.Row]
		want    bool
	}{
		{"nil config", nil, false},
		{"empty list", &actions.Config[tables.Row]{CanEdit: true}, false},
		{"declared actions", editableActions(true), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := BuildTableViewModel(TableInput{Coordinator: c, RowID: rowID, Actions: tt.actions})
			if vm.HasActions != tt.want {
				t.Errorf("Expected HasActions %v, got %v", tt.want, vm.HasActions)
			}
			wantCols := 3
			if tt.want {
				wantCols = 4
			}
			assert.Len(t, vm.Headers, wantCols)
			assert.Equal(t, wantCols, vm.ColSpan)
			if !tt.want {
				assert.Empty(t, vm.Rows[0].Actions)
			}
		})
	}
}

func TestPager(t *testing.T) {
	c := tables.New(staffRows(25), tables.Options{Columns: staffColumns(), EnablePagination: true, PageSize: 10})
	defer c.Close()
	c.SetPageIndex(2)

	vm := BuildTableViewModel(TableInput{
		Coordinator: c,
		Query:       staffQuery(t, "/table?table=staff&page=3"),
		PageSizes:   []int{10, 25, 50, 100},
	})
	p := vm.Pager
	require.NotNil(t, p)
	assert.Equal(t, 3, p.PageNumber)
	assert.Equal(t, 3, p.PageCount)
	assert.Equal(t, 21, p.FirstRow)
	assert.Equal(t, 25, p.LastRow)
	assert.Equal(t, 25, p.TotalRows)
	assert.True(t, p.HasPrev)
	assert.False(t, p.HasNext)
	assert.Equal(t, 1, staffQuery(t, p.PrevURL.String()).Page)
	assert.Equal(t, 0, staffQuery(t, p.FirstURL.String()).Page)

	require.Len(t, p.PageSizes, 4)
	assert.True(t, p.PageSizes[0].Selected)
	assert.Equal(t, 0, staffQuery(t, p.PageSizes[1].URL.String()).Page)
}

func TestSearchBox(t *testing.T) {
	c := tables.New(staffRows(3), tables.Options{Columns: staffColumns(), SearchFields: []string{"name"}})
	defer c.Close()
	c.SetGlobalFilter("01")

	vm := BuildTableViewModel(TableInput{Coordinator: c, SearchPlaceholder: "Search staff"})
	require.NotNil(t, vm.Search)
	assert.Equal(t, "01", vm.Search.Value)
	assert.Len(t, vm.Rows, 1)

	vm = BuildTableViewModel(TableInput{Coordinator: c})
	assert.Nil(t, vm.Search)
}
