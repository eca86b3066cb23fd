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
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/gridstate/core/actions"
	"github.com/google/gridstate/core/config"
	"github.com/google/gridstate/core/query"
	"github.com/google/gridstate/core/rendering"
	"github.com/google/gridstate/core/storage"
	"github.com/google/gridstate/core/tables"
	"github.com/google/gridstate/core/users"
	"github.com/google/gridstate/core/views"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Options configures a Server.
type Options struct {
	Table       config.TableConfig
	Persistence *storage.Adapter // nil keeps column visibility in memory
	Clock       clockwork.Clock
	Logger      *zap.Logger
}

// Server represents the application server with all its dependencies
type Server struct {
	product     ProductConfig
	renderer    *rendering.TableRenderer
	userStore   users.UserStore
	persistence *storage.Adapter
	tableCfg    config.TableConfig
	clock       clockwork.Clock
	logger      *zap.Logger

	mu     sync.Mutex
	mounts map[string]*mount
}

// mount is the state of one table as seen by one user in one tenant.
type mount struct {
	table  *TableDef
	tenant string
	coord  *tables.Coordinator
	stale  atomic.Bool // the rows no longer match the requested state

	mu     sync.Mutex // serializes fetches
	loaded bool
}

// NewServer creates a new server for product
func NewServer(product ProductConfig, opts Options) (*Server, error) {
	renderer, err := rendering.NewTableRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	tableCfg := opts.Table
	if tableCfg.PageSize <= 0 {
		tableCfg.PageSize = tables.DefaultPageSize
	}

	return &Server{
		product:     product,
		renderer:    renderer,
		persistence: opts.Persistence,
		tableCfg:    tableCfg,
		clock:       clock,
		logger:      opts.Logger,
		mounts:      make(map[string]*mount),
	}, nil
}

// SetUserStore sets the user store for authentication
func (s *Server) SetUserStore(store users.UserStore) {
	s.userStore = store
}

// Close releases every table mount.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, m := range s.mounts {
		m.coord.Close()
		delete(s.mounts, key)
	}
}

// makeCacheKey creates a cache key combining user, tenant and table name
// This ensures each user has their own table state
func (s *Server) makeCacheKey(userName, tenant, tableName string) string {
	return strings.Join([]string{userName, tenant, tableName}, "|")
}

// storageKey namespaces persisted preferences per user and table.
func storageKey(userName, tableName string) string {
	if userName == "" {
		return tableName
	}
	return userName + "." + tableName
}

// TableHandlerResult represents the result of handling a request that did
// not render a page: an error, a rejection or a redirect.
type TableHandlerResult struct {
	Error      error
	StatusCode int
	Message    string
	Location   string // redirect target for 3xx results
}

// TimingCollector collects timing measurements for various operations
type TimingCollector struct {
	clock   clockwork.Clock
	entries []views.TimingEntry
	start   time.Time
}

// NewTimingCollector creates a new timing collector
func NewTimingCollector(clock clockwork.Clock) *TimingCollector {
	return &TimingCollector{clock: clock, start: clock.Now()}
}

// Since returns the time elapsed since t on the collector's clock
func (tc *TimingCollector) Since(t time.Time) time.Duration {
	return tc.clock.Since(t)
}

// Record records a timing entry
func (tc *TimingCollector) Record(operation string, duration time.Duration) {
	tc.entries = append(tc.entries, views.TimingEntry{
		Operation:  operation,
		DurationMs: fmt.Sprintf("%.2f", float64(duration.Microseconds())/1000.0),
	})
}

// GetEntries returns all timing entries
func (tc *TimingCollector) GetEntries() []views.TimingEntry {
	return tc.entries
}

// TotalMs returns total elapsed time in milliseconds as formatted string
func (tc *TimingCollector) TotalMs() string {
	return fmt.Sprintf("%.2f", float64(tc.clock.Since(tc.start).Microseconds())/1000.0)
}

// resolve validates the table, user and tenant of q.
func (s *Server) resolve(q *query.Query) (*TableDef, *users.UserProfile, string, *TableHandlerResult) {
	if q.Table == "" {
		return nil, nil, "", &TableHandlerResult{StatusCode: http.StatusBadRequest, Message: "Table parameter is required"}
	}
	table := s.product.GetTable(q.Table)
	if table == nil {
		return nil, nil, "", &TableHandlerResult{StatusCode: http.StatusNotFound, Message: fmt.Sprintf("Table '%s' not found", q.Table)}
	}
	if s.userStore == nil {
		return table, nil, q.Tenant, nil
	}

	user := s.userStore.GetUser(q.User)
	if user == nil {
		return nil, nil, "", &TableHandlerResult{StatusCode: http.StatusForbidden, Message: fmt.Sprintf("Unknown user '%s'", q.User)}
	}
	if !users.HasAnyDomain(user, table.Info.Domains) {
		return nil, nil, "", &TableHandlerResult{StatusCode: http.StatusForbidden, Message: fmt.Sprintf("User '%s' may not open '%s'", q.User, q.Table)}
	}
	tenant := q.Tenant
	if tenant == "" {
		tenant = users.DefaultTenant(user)
	}
	if tenant == "" || !users.TenantAllowed(user, tenant) {
		return nil, nil, "", &TableHandlerResult{StatusCode: http.StatusForbidden, Message: fmt.Sprintf("User '%s' has no access to tenant '%s'", q.User, tenant)}
	}
	return table, user, tenant, nil
}

// capabilities derives row rights. Without a user store every action is allowed.
func (s *Server) capabilities(user *users.UserProfile, table *TableDef) users.Capabilities {
	if s.userStore == nil {
		return users.Capabilities{CanEdit: true, CanDelete: true}
	}
	return users.CapabilitiesFor(user, table.Info.Name)
}

// getOrCreateMount returns the table state for user, tenant and table.
func (s *Server) getOrCreateMount(userName, tenant string, table *TableDef) *mount {
	key := s.makeCacheKey(userName, tenant, table.Info.Name)

	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.mounts[key]; ok {
		return m
	}

	m := &mount{table: table, tenant: tenant}
	m.stale.Store(true)
	markStale := func() { m.stale.Store(true) }
	logger := s.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m.coord = tables.New(nil, tables.Options{
		Columns:                table.Columns,
		EnablePagination:       true,
		PageSize:               s.tableCfg.PageSize,
		ManualPagination:       table.Manual,
		ManualSorting:          table.Manual,
		ManualSearch:           table.Manual,
		SearchFields:           table.SearchFields,
		StorageKey:             storageKey(userName, table.Info.Name),
		EnableColumnVisibility: table.ColumnVisibility,
		Persistence:            s.persistence,
		SearchDebounce:         s.tableCfg.SearchDebounce.Duration,
		Clock:                  s.clock,
		Logger:                 logger.With(zap.String("user", userName), zap.String("tenant", tenant)),
		OnPaginationChange:     func(tables.Pagination) { markStale() },
		OnSortingChange:        func(tables.Sorting) { markStale() },
		OnSearchChange:         func(string) { markStale() },
	})
	s.mounts[key] = m
	return m
}

// invalidate marks every mount of table as stale, typically after an action changed its rows.
func (s *Server) invalidate(tableName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.mounts {
		if m.table.Info.Name == tableName {
			m.stale.Store(true)
		}
	}
}

// syncState applies the state carried by the URL to the coordinator.
// Search goes first since a changed filter returns to the first page.
func (s *Server) syncState(c *tables.Coordinator, q *query.Query) {
	if q.HasSearch {
		c.SetGlobalFilter(q.Search)
	}
	size := q.Size
	if size <= 0 {
		size = s.tableCfg.PageSize
	}
	c.SetPagination(tables.Value(tables.Pagination{PageIndex: q.Page, PageSize: size}))
	c.SetSorting(tables.Value(q.Sort))
}

// load fetches rows when the mount is stale. It reports true while the
// source is still pending.
func (s *Server) load(ctx context.Context, m *mount) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loaded && !m.stale.Load() {
		return false, nil
	}

	state := m.coord.State()
	// Clear before fetching so a transition during the fetch marks it again
	m.stale.Store(false)
	res, err := m.table.Source.Fetch(ctx, FetchRequest{
		Tenant:     m.tenant,
		Manual:     m.table.Manual,
		Pagination: state.Pagination,
		Sorting:    state.Sorting,
		Search:     state.GlobalFilter,
	})
	if err != nil {
		m.stale.Store(true)
		if errors.Is(err, ErrPending) {
			return true, nil
		}
		return false, fmt.Errorf("fetch %s: %w", m.table.Info.Name, err)
	}
	m.coord.SetRows(res.Rows)
	m.coord.SetRowCount(res.Total)
	m.loaded = true
	return false, nil
}

// BuildTableView resolves a table request into its view model. A non-nil
// result means no page should be rendered: an error, a rejection or a redirect.
func (s *Server) BuildTableView(ctx context.Context, requestURL *url.URL) (views.TableViewModel, *TableHandlerResult) {
	timing := NewTimingCollector(s.clock)

	// Parse URL into Query
	parseStart := s.clock.Now()
	q := query.NewQuery(requestURL)
	timing.Record("Parse Query", timing.Since(parseStart))

	table, user, tenant, result := s.resolve(q)
	if result != nil {
		return views.TableViewModel{}, result
	}
	q.Tenant = tenant

	m := s.getOrCreateMount(q.User, tenant, table)
	if q.Toggle != "" {
		m.coord.ToggleColumn(q.Toggle)
		return views.TableViewModel{}, &TableHandlerResult{StatusCode: http.StatusSeeOther, Location: q.WithoutToggle().String()}
	}

	syncStart := s.clock.Now()
	s.syncState(m.coord, q)
	timing.Record("Sync State", timing.Since(syncStart))

	fetchStart := s.clock.Now()
	loading, fetchErr := s.load(ctx, m)
	timing.Record("Fetch", timing.Since(fetchStart))
	if fetchErr != nil {
		s.log().Warn("table fetch failed", zap.String("table", table.Info.Name), zap.String("tenant", tenant), zap.Error(fetchErr))
	}

	vmStart := s.clock.Now()
	viewModel := views.BuildTableViewModel(views.TableInput{
		Title:             table.Info.DisplayName,
		Coordinator:       m.coord,
		Query:             q,
		Actions:           s.actionsFor(user, table),
		RowID:             table.RowID,
		Loading:           loading,
		Err:               fetchErr,
		EmptyMessage:      table.EmptyMessage,
		SearchPlaceholder: table.SearchPlaceholder,
		PageSizes:         s.tableCfg.PageSizes,
	})
	timing.Record("Build ViewModel", timing.Since(vmStart))

	viewModel.RenderTimeMs = timing.TotalMs()
	viewModel.TimingBreakdown = timing.GetEntries()
	return viewModel, nil
}

// HandleTableRequest processes a table request and writes the response
// Returns an error result if the request is invalid, nil on success
func (s *Server) HandleTableRequest(ctx context.Context, w io.Writer, requestURL *url.URL, setHeader func(key, value string)) *TableHandlerResult {
	viewModel, result := s.BuildTableView(ctx, requestURL)
	if result != nil {
		return result
	}

	setHeader("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.Render(w, viewModel); err != nil {
		s.log().Error("template rendering failed", zap.Error(err))
		return &TableHandlerResult{Error: err}
	}
	return nil
}

func (s *Server) actionsFor(user *users.UserProfile, table *TableDef) *actions.Config[tables.Row] {
	if table.Actions == nil {
		return nil
	}
	return table.Actions(s.capabilities(user, table))
}

// HandleActionRequest runs a row action and redirects back to the table.
// The action is resolved again for the row, so hidden actions cannot run.
func (s *Server) HandleActionRequest(ctx context.Context, requestURL *url.URL) *TableHandlerResult {
	q := query.NewQuery(requestURL)
	rowID := requestURL.Query().Get("row")
	key := requestURL.Query().Get("action")
	if rowID == "" || key == "" {
		return &TableHandlerResult{StatusCode: http.StatusBadRequest, Message: "row and action parameters are required"}
	}

	table, user, tenant, result := s.resolve(q)
	if result != nil {
		return result
	}
	q.Tenant = tenant
	cfg := s.actionsFor(user, table)
	if cfg == nil {
		return &TableHandlerResult{StatusCode: http.StatusNotFound, Message: fmt.Sprintf("Table '%s' has no actions", table.Info.Name)}
	}

	row, err := table.Source.Row(ctx, tenant, rowID)
	if errors.Is(err, ErrRowNotFound) {
		return &TableHandlerResult{StatusCode: http.StatusNotFound, Message: fmt.Sprintf("Row '%s' not found", rowID)}
	}
	if err != nil {
		return &TableHandlerResult{Error: fmt.Errorf("load row %s: %w", rowID, err)}
	}

	action, err := actions.Find(row, *cfg, key)
	if errors.Is(err, actions.ErrActionNotFound) {
		s.log().Warn("rejected row action", zap.String("table", table.Info.Name), zap.String("user", q.User), zap.String("action", key))
		return &TableHandlerResult{StatusCode: http.StatusForbidden, Message: fmt.Sprintf("Action '%s' is not available", key)}
	}
	if err != nil {
		return &TableHandlerResult{Error: err}
	}

	action.Click(row)
	s.invalidate(table.Info.Name)
	s.log().Info("row action",
		zap.String("table", table.Info.Name),
		zap.String("user", q.User),
		zap.String("tenant", tenant),
		zap.String("row", rowID),
		zap.String("action", action.Key),
		zap.Bool("demoted", action.Demoted))
	return &TableHandlerResult{StatusCode: http.StatusSeeOther, Location: q.TableURL().String()}
}

// HandleSearchInput records a search keystroke. The filter is applied once
// typing pauses, and the next table request shows the result.
func (s *Server) HandleSearchInput(requestURL *url.URL) *TableHandlerResult {
	q := query.NewQuery(requestURL)
	table, _, tenant, result := s.resolve(q)
	if result != nil {
		return result
	}
	m := s.getOrCreateMount(q.User, tenant, table)
	m.coord.TypeSearch(q.Search)
	return &TableHandlerResult{StatusCode: http.StatusAccepted}
}

// HandleLandingRequest processes the landing page request
func (s *Server) HandleLandingRequest(w io.Writer, requestURL *url.URL, setHeader func(key, value string)) error {
	setHeader("Content-Type", "text/html; charset=utf-8")

	// Get user from URL parameter (for testing)
	userName := requestURL.Query().Get("user")

	vm := views.LandingViewModel{
		Title:    s.product.GetTitle(),
		Subtitle: s.product.GetSubtitle(),
	}

	var visible []*TableDef
	// If we have a user store and a user parameter, filter tables by domain
	if s.userStore != nil && userName != "" {
		user := s.userStore.GetUser(userName)
		if user != nil {
			vm.UserName = userName
			vm.Tenant = users.DefaultTenant(user)

			// Filter tables to only those matching user's domains
			for _, table := range s.product.GetTables() {
				if users.HasAnyDomain(user, table.Info.Domains) {
					visible = append(visible, table)
				}
			}
		} else {
			// Unknown user - show no tables
			vm.UserName = userName + " (unknown)"
		}
	} else {
		// No user filtering - show all tables
		visible = s.product.GetTables()
	}

	for _, table := range visible {
		info := table.Info
		info.URL = (&query.Query{Path: "/table", Table: info.Name, User: vm.UserName, Tenant: vm.Tenant}).ToSafeURL()
		vm.Tables = append(vm.Tables, info)
	}

	if err := s.renderer.RenderLanding(w, vm); err != nil {
		s.log().Error("landing page rendering failed", zap.Error(err))
		return err
	}
	return nil
}

func (s *Server) log() *zap.Logger {
	if s.logger == nil {
		return zap.NewNop()
	}
	return s.logger
}
