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
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/gridstate/core/storage"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// DefaultPageSize is used when Options.PageSize is not positive.
const DefaultPageSize = 10

// Options configures a Coordinator. The zero value is a client-side table
// without pagination, search or persistence.
type Options struct {
	Columns []ColumnDef

	// EnablePagination turns on slicing and the pager.
	EnablePagination bool
	PageSize         int

	// Manual modes delegate the concern to the caller. The coordinator only
	// records the requested state and reports it through the callback.
	ManualPagination bool
	ManualSorting    bool
	ManualSearch     bool

	// SearchFields are the row fields matched by the global filter.
	// Empty means every row matches.
	SearchFields []string

	// StorageKey namespaces persisted column visibility.
	StorageKey             string
	EnableColumnVisibility bool
	Persistence            *storage.Adapter

	// RowCount is the total number of rows at the source in manual pagination mode.
	RowCount int

	// SearchDebounce is the quiet period for TypeSearch. Zero uses
	// DefaultSearchDebounce, negative applies every keystroke immediately.
	SearchDebounce time.Duration
	Clock          clockwork.Clock
	Logger         *zap.Logger

	OnPaginationChange func(Pagination)
	OnSortingChange    func(Sorting)
	OnSearchChange     func(string)
}

// RowModel is the derived view of the rows for the current state.
type RowModel struct {
	Rows       []Row
	TotalRows  int // rows after filtering, or the source total in manual mode
	PageCount  int
	Pagination Pagination // page index clamped to the available pages
	FirstRow   int        // one based, 0 when there are no rows
	LastRow    int
}

// Coordinator owns the state of one mounted table.
type Coordinator struct {
	id        string
	opts      Options
	logger    *zap.Logger
	debouncer *Debouncer
	persisted *storage.PersistedVisibility

	mu          sync.Mutex
	rows        []Row
	rowCount    int
	state       TableState
	searchInput string
	closed      bool
}

// New creates a coordinator over rows.
func New(rows []Row, opts Options) *Coordinator {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	delay := opts.SearchDebounce
	if delay == 0 {
		delay = DefaultSearchDebounce
	}

	c := &Coordinator{
		id:       uuid.NewString(),
		opts:     opts,
		rows:     rows,
		rowCount: opts.RowCount,
		state: TableState{
			Pagination:       Pagination{PageIndex: 0, PageSize: opts.PageSize},
			ColumnVisibility: Visibility{},
		},
	}
	c.logger = logger.With(zap.String("table", opts.StorageKey), zap.String("mount", c.id))
	if delay > 0 {
		c.debouncer = NewDebouncer(opts.Clock, delay)
	}
	if opts.EnableColumnVisibility && opts.StorageKey != "" && opts.Persistence != nil {
		c.persisted = storage.NewPersistedVisibility(opts.Persistence, opts.StorageKey, map[string]bool{})
	}
	return c
}

// ID identifies this mount.
func (c *Coordinator) ID() string {
	return c.id
}

// Options returns the configuration the coordinator was created with.
func (c *Coordinator) Options() Options {
	return c.opts
}

// State returns a snapshot of the current state.
func (c *Coordinator) State() TableState {
	c.mu.Lock()
	s := c.state.clone()
	c.mu.Unlock()
	if c.persisted != nil {
		s.ColumnVisibility = c.persisted.Get()
	}
	return s
}

// SearchInput is the text typed so far, which may be ahead of the applied filter.
func (c *Coordinator) SearchInput() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.searchInput
}

// SetRows replaces the row set, typically after a fetch completes.
func (c *Coordinator) SetRows(rows []Row) {
	c.mu.Lock()
	c.rows = rows
	c.mu.Unlock()
}

// SetRowCount records the source total for manual pagination.
func (c *Coordinator) SetRowCount(n int) {
	c.mu.Lock()
	c.rowCount = n
	c.mu.Unlock()
}

// SetPagination applies update to the pagination state. A non-positive page
// size is ignored and a negative page index becomes 0.
func (c *Coordinator) SetPagination(update Update[Pagination]) Pagination {
	c.mu.Lock()
	prev := c.state.Pagination
	next := update(prev)
	if next.PageSize <= 0 {
		next.PageSize = prev.PageSize
	}
	if next.PageIndex < 0 {
		next.PageIndex = 0
	}
	c.state.Pagination = next
	c.mu.Unlock()

	if next != prev {
		c.logger.Debug("pagination changed", zap.Int("pageIndex", next.PageIndex), zap.Int("pageSize", next.PageSize))
		if c.opts.ManualPagination && c.opts.OnPaginationChange != nil {
			c.opts.OnPaginationChange(next)
		}
	}
	return next
}

// SetPageIndex moves to page.
func (c *Coordinator) SetPageIndex(page int) Pagination {
	return c.SetPagination(func(prev Pagination) Pagination {
		prev.PageIndex = page
		return prev
	})
}

// SetPageSize changes the page size, keeping the first row of the current
// page on screen.
func (c *Coordinator) SetPageSize(size int) Pagination {
	return c.SetPagination(func(prev Pagination) Pagination {
		if size <= 0 {
			return prev
		}
		top := prev.PageIndex * prev.PageSize
		return Pagination{PageIndex: top / size, PageSize: size}
	})
}

// SetSorting applies update to the sort order. Duplicate column entries keep
// the first occurrence.
func (c *Coordinator) SetSorting(update Update[Sorting]) Sorting {
	c.mu.Lock()
	prev := c.state.Sorting.clone()
	next := dedupeSorting(update(c.state.Sorting.clone()))
	c.state.Sorting = next
	c.mu.Unlock()

	if !slices.Equal(prev, next) {
		c.logger.Debug("sorting changed", zap.Any("sorting", next))
		if c.opts.ManualSorting && c.opts.OnSortingChange != nil {
			c.opts.OnSortingChange(next.clone())
		}
	}
	return next.clone()
}

// ToggleSorting cycles a column through ascending, descending and unsorted.
// With multi the column is added to or updated within the existing order,
// otherwise it replaces the order.
func (c *Coordinator) ToggleSorting(id string, multi bool) Sorting {
	return c.SetSorting(func(prev Sorting) Sorting {
		return ToggleSort(prev, id, multi)
	})
}

// ToggleSort returns the order after one header click on id, leaving prev untouched.
func ToggleSort(prev Sorting, id string, multi bool) Sorting {
	prev = prev.clone()
	dir, pos := prev.Direction(id)
	var next SortColumn
	switch dir {
	case Unsorted:
		next = SortColumn{ID: id}
	case Ascending:
		next = SortColumn{ID: id, Desc: true}
	case Descending:
		if !multi {
			return Sorting{}
		}
		return slices.Delete(prev, pos, pos+1)
	}
	if !multi {
		return Sorting{next}
	}
	if pos >= 0 {
		prev[pos] = next
		return prev
	}
	return append(prev, next)
}

func dedupeSorting(s Sorting) Sorting {
	seen := make(map[string]bool, len(s))
	out := make(Sorting, 0, len(s))
	for _, sc := range s {
		if sc.ID == "" || seen[sc.ID] {
			continue
		}
		seen[sc.ID] = true
		out = append(out, sc)
	}
	return out
}

// SetGlobalFilter applies the search text immediately. With client-side
// pagination a changed filter also returns to the first page.
func (c *Coordinator) SetGlobalFilter(text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.searchInput = text
	changed := c.state.GlobalFilter != text
	c.state.GlobalFilter = text
	c.mu.Unlock()

	if !changed {
		return
	}
	c.logger.Debug("search changed", zap.String("query", text))
	if !c.opts.ManualPagination {
		c.SetPagination(func(prev Pagination) Pagination {
			prev.PageIndex = 0
			return prev
		})
	}
	if c.opts.ManualSearch && c.opts.OnSearchChange != nil {
		c.opts.OnSearchChange(text)
	}
}

// TypeSearch records a keystroke and applies it once typing pauses.
func (c *Coordinator) TypeSearch(text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.searchInput = text
	c.mu.Unlock()

	if c.debouncer == nil {
		c.SetGlobalFilter(text)
		return
	}
	c.debouncer.Call(func() { c.SetGlobalFilter(text) })
}

// SearchPending reports whether typed text is waiting to be applied.
func (c *Coordinator) SearchPending() bool {
	return c.debouncer != nil && c.debouncer.Pending()
}

// SetColumnVisibility applies update to the visibility map and persists it
// when persistence is enabled.
func (c *Coordinator) SetColumnVisibility(update Update[Visibility]) Visibility {
	if c.persisted != nil {
		next := c.persisted.Set(func(prev map[string]bool) map[string]bool {
			return update(prev)
		})
		return next
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	next := update(maps.Clone(c.state.ColumnVisibility))
	if next == nil {
		next = Visibility{}
	}
	c.state.ColumnVisibility = next
	return maps.Clone(next)
}

// ToggleColumn flips a hideable column. Other columns cannot be hidden.
func (c *Coordinator) ToggleColumn(id string) Visibility {
	col, ok := c.column(id)
	if !ok || !col.Hideable {
		return c.State().ColumnVisibility
	}
	return c.SetColumnVisibility(func(prev Visibility) Visibility {
		if prev == nil {
			prev = Visibility{}
		}
		prev[id] = !prev.IsVisible(id)
		return prev
	})
}

func (c *Coordinator) column(id string) (ColumnDef, bool) {
	for _, col := range c.opts.Columns {
		if col.ID == id {
			return col, true
		}
	}
	return ColumnDef{}, false
}

// Columns returns every column definition in declaration order.
func (c *Coordinator) Columns() []ColumnDef {
	return slices.Clone(c.opts.Columns)
}

// VisibleColumns returns the columns currently shown. Columns that are not
// hideable are always shown.
func (c *Coordinator) VisibleColumns() []ColumnDef {
	vis := c.State().ColumnVisibility
	out := make([]ColumnDef, 0, len(c.opts.Columns))
	for _, col := range c.opts.Columns {
		if !col.Hideable || vis.IsVisible(col.ID) {
			out = append(out, col)
		}
	}
	return out
}

// Model derives the rows to display from the current state.
func (c *Coordinator) Model() RowModel {
	c.mu.Lock()
	rows := c.rows
	rowCount := c.rowCount
	state := c.state.clone()
	c.mu.Unlock()

	opts := c.opts
	pg := state.Pagination

	indices := make([]int, 0, len(rows))
	if opts.ManualSearch {
		for i := range rows {
			indices = append(indices, i)
		}
	} else {
		indices = filterIndices(rows, opts.Columns, opts.SearchFields, state.GlobalFilter)
	}
	total := len(indices)

	var sortCols []sortableColumn
	if !opts.ManualSorting {
		sortCols = buildSortColumns(opts.Columns, state.Sorting)
	}
	cmp := &rowComparator{rows: rows, cols: sortCols}

	if opts.EnablePagination && opts.ManualPagination {
		// Rows are exactly one page supplied by the caller: filter and sort
		// it locally when those are not manual, but never slice it
		if len(sortCols) > 0 {
			indices = sortIndices(indices, cmp)
		}
		offset := pg.PageIndex * pg.PageSize
		remote := max(rowCount, offset+len(indices))
		model := RowModel{
			Rows:       pick(rows, indices),
			TotalRows:  remote,
			PageCount:  pageCount(remote, pg.PageSize),
			Pagination: pg,
		}
		if len(indices) > 0 {
			model.FirstRow = offset + 1
			model.LastRow = offset + len(indices)
		}
		return model
	}

	if !opts.EnablePagination {
		if len(sortCols) > 0 {
			indices = sortIndices(indices, cmp)
		}
		model := RowModel{Rows: pick(rows, indices), TotalRows: total, Pagination: pg}
		if total > 0 {
			model.PageCount = 1
			model.FirstRow = 1
			model.LastRow = total
		}
		return model
	}

	pages := pageCount(total, pg.PageSize)
	pg.PageIndex = min(pg.PageIndex, max(pages-1, 0))
	start := pg.PageIndex * pg.PageSize
	end := min(start+pg.PageSize, total)

	if len(sortCols) > 0 {
		indices = sortedTopK(indices, cmp, end)
	}
	model := RowModel{
		Rows:       pick(rows, indices[start:end]),
		TotalRows:  total,
		PageCount:  pages,
		Pagination: pg,
	}
	if end > start {
		model.FirstRow = start + 1
		model.LastRow = end
	}
	return model
}

func pageCount(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

func pick(rows []Row, indices []int) []Row {
	out := make([]Row, len(indices))
	for i, idx := range indices {
		out[i] = rows[idx]
	}
	return out
}

// Close cancels pending search input and stops following persisted state.
// The coordinator ignores further search input afterwards.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	if c.debouncer != nil {
		c.debouncer.Stop()
	}
	if c.persisted != nil {
		c.persisted.Close()
	}
}
