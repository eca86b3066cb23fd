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
	"github.com/google/gridstate/core/actions"
	"github.com/google/gridstate/core/query"
	"github.com/google/gridstate/core/tables"
	"github.com/google/safehtml"
)

// Sort indicator glyphs
const (
	GlyphAscending  = "▲"
	GlyphDescending = "▼"
	GlyphUnsorted   = "↕"
)

// DefaultSkeletonRows is the number of placeholder rows shown while loading.
const DefaultSkeletonRows = 5

// Status is the display state of a table. Exactly one applies, checked in
// the order Loading, Error, Empty, Populated.
type Status int

const (
	StatusPopulated Status = iota
	StatusLoading
	StatusError
	StatusEmpty
)

// TableViewModel contains the data from the table formatted for template consumption
type TableViewModel struct {
	Title    string
	Table    string
	UserName string
	Tenant   string

	Status       Status
	IsLoading    bool
	IsError      bool
	IsEmpty      bool
	ErrorMessage string
	EmptyMessage string

	Headers      []HeaderCell
	Rows         []RowView
	HasActions   bool
	ColSpan      int   // columns spanned by status rows, including the actions column
	SkeletonRows []int // placeholder row numbers while loading

	Toggles []ColumnToggle
	Search  *SearchBox
	Pager   *Pager

	CurrentURL      safehtml.URL
	RenderTimeMs    string
	TimingBreakdown []TimingEntry
}

// HeaderCell is one column header.
type HeaderCell struct {
	ID        string
	Label     string
	Sortable  bool
	Glyph     string       // sort indicator, empty for non sortable columns
	SortRank  int          // one based position in a multi-column sort, 0 otherwise
	SortURL   safehtml.URL // URL after clicking the header
	WidthPx   int
	MinWidth  int
	MaxWidth  int
	IsActions bool
}

// RowView is one body row.
type RowView struct {
	ID      string
	Cells   []string
	Actions []ActionLink
}

// ActionLink is one entry of a row's action menu.
type ActionLink struct {
	Key             string
	Label           string
	Icon            string
	URL             safehtml.URL
	Destructive     bool
	SeparatorBefore bool
}

// ColumnToggle is one entry of the column visibility menu.
type ColumnToggle struct {
	ID      string
	Label   string
	Visible bool
	URL     safehtml.URL
}

// SearchBox is the free-text search input.
type SearchBox struct {
	Value       string
	Placeholder string
	Pending     bool // typed text not yet applied
}

// Pager is the pagination footer.
type Pager struct {
	PageNumber int // one based
	PageCount  int
	FirstRow   int
	LastRow    int
	TotalRows  int

	FirstURL safehtml.URL
	PrevURL  safehtml.URL
	NextURL  safehtml.URL
	LastURL  safehtml.URL
	HasPrev  bool
	HasNext  bool

	PageSizes []PageSizeOption
}

// PageSizeOption is one entry of the page size selector.
type PageSizeOption struct {
	Size     int
	URL      safehtml.URL
	Selected bool
}

// TableInput is everything needed to render one table.
type TableInput struct {
	Title       string
	Coordinator *tables.Coordinator
	Query       *query.Query

	// Actions adds an actions column when set.
	Actions *actions.Config[tables.Row]
	// RowID identifies rows in action links.
	RowID func(tables.Row) string

	Loading      bool
	Err          error
	EmptyMessage string
	SkeletonRows int

	// SearchPlaceholder enables the search box when not empty.
	SearchPlaceholder string
	PageSizes         []int
}

// BuildTableViewModel derives the view model for the current state of in.Coordinator.
func BuildTableViewModel(in TableInput) TableViewModel {
	c := in.Coordinator
	opts := c.Options()
	state := c.State()
	q := in.Query
	if q == nil {
		q = &query.Query{Path: "/table"}
	}

	vm := TableViewModel{
		Title:        in.Title,
		Table:        q.Table,
		UserName:     q.User,
		Tenant:       q.Tenant,
		EmptyMessage: in.EmptyMessage,
		HasActions:   in.Actions != nil && len(in.Actions.Actions) > 0,
		CurrentURL:   q.ToSafeURL(),
	}
	if vm.EmptyMessage == "" {
		vm.EmptyMessage = "No results."
	}

	visible := c.VisibleColumns()
	vm.Headers = buildHeaders(visible, state.Sorting, q)
	if vm.HasActions {
		vm.Headers = append(vm.Headers, HeaderCell{ID: "actions", Label: "Actions", IsActions: true})
	}
	vm.ColSpan = len(vm.Headers)

	if opts.EnableColumnVisibility {
		for _, col := range c.Columns() {
			if !col.Hideable {
				continue
			}
			vm.Toggles = append(vm.Toggles, ColumnToggle{
				ID:      col.ID,
				Label:   col.Header,
				Visible: state.ColumnVisibility.IsVisible(col.ID),
				URL:     q.WithColumnToggled(col.ID),
			})
		}
	}

	if in.SearchPlaceholder != "" {
		vm.Search = &SearchBox{
			Value:       c.SearchInput(),
			Placeholder: in.SearchPlaceholder,
			Pending:     c.SearchPending(),
		}
	}

	switch {
	case in.Loading:
		vm.Status = StatusLoading
		n := in.SkeletonRows
		if n <= 0 {
			n = DefaultSkeletonRows
		}
		vm.SkeletonRows = make([]int, n)
		for i := range vm.SkeletonRows {
			vm.SkeletonRows[i] = i
		}
		vm.IsLoading = true
		return vm
	case in.Err != nil:
		vm.Status = StatusError
		vm.IsError = true
		vm.ErrorMessage = in.Err.Error()
		return vm
	}

	model := c.Model()
	if len(model.Rows) == 0 {
		vm.Status = StatusEmpty
		vm.IsEmpty = true
		return vm
	}

	vm.Status = StatusPopulated
	vm.Rows = make([]RowView, 0, len(model.Rows))
	for _, row := range model.Rows {
		vm.Rows = append(vm.Rows, buildRow(row, visible, in, q))
	}

	if opts.EnablePagination {
		vm.Pager = buildPager(model, q, in.PageSizes)
	}
	return vm
}

func buildHeaders(visible []tables.ColumnDef, sorting tables.Sorting, q *query.Query) []HeaderCell {
	headers := make([]HeaderCell, 0, len(visible)+1)
	for _, col := range visible {
		h := HeaderCell{
			ID:       col.ID,
			Label:    col.Header,
			Sortable: col.Sortable,
			WidthPx:  col.Width,
			MinWidth: col.MinWidth,
			MaxWidth: col.MaxWidth,
		}
		if h.Label == "" {
			h.Label = col.ID
		}
		if col.Sortable {
			dir, pos := sorting.Direction(col.ID)
			h.Glyph = SortGlyph(dir)
			if pos >= 0 && len(sorting) > 1 {
				h.SortRank = pos + 1
			}
			h.SortURL = q.WithSort(tables.ToggleSort(sorting, col.ID, q.Multi))
		}
		headers = append(headers, h)
	}
	return headers
}

// SortGlyph returns the indicator for a sort direction.
func SortGlyph(dir tables.SortDirection) string {
	switch dir {
	case tables.Ascending:
		return GlyphAscending
	case tables.Descending:
		return GlyphDescending
	default:
		return GlyphUnsorted
	}
}

func buildRow(row tables.Row, visible []tables.ColumnDef, in TableInput, q *query.Query) RowView {
	rv := RowView{Cells: make([]string, 0, len(visible))}
	if in.RowID != nil {
		rv.ID = in.RowID(row)
	}
	for _, col := range visible {
		rv.Cells = append(rv.Cells, col.Cell(row))
	}
	if in.Actions == nil || len(in.Actions.Actions) == 0 {
		return rv
	}
	for _, a := range actions.Resolve(row, *in.Actions) {
		rv.Actions = append(rv.Actions, ActionLink{
			Key:             a.Key,
			Label:           a.Label,
			Icon:            a.Icon,
			URL:             q.ActionURL(rv.ID, a.Key),
			Destructive:     a.Destructive,
			SeparatorBefore: a.SeparatorBefore,
		})
	}
	return rv
}

func buildPager(model tables.RowModel, q *query.Query, sizes []int) *Pager {
	pg := model.Pagination
	last := max(model.PageCount-1, 0)
	p := &Pager{
		PageNumber: pg.PageIndex + 1,
		PageCount:  model.PageCount,
		FirstRow:   model.FirstRow,
		LastRow:    model.LastRow,
		TotalRows:  model.TotalRows,
		HasPrev:    pg.PageIndex > 0,
		HasNext:    pg.PageIndex < last,
		FirstURL:   q.WithPage(0),
		PrevURL:    q.WithPage(pg.PageIndex - 1),
		NextURL:    q.WithPage(min(pg.PageIndex+1, last)),
		LastURL:    q.WithPage(last),
	}
	for _, size := range sizes {
		p.PageSizes = append(p.PageSizes, PageSizeOption{
			Size:     size,
			URL:      q.WithPageSize(size, pg),
			Selected: size == pg.PageSize,
		})
	}
	return p
}
