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

package demo

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/gridstate/core/server"
	"github.com/google/gridstate/core/tables"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// TenantField is the row field naming the company a record belongs to.
const TenantField = "company"

// MemorySource plays the remote backend for one resource. Reads can be
// delayed to exercise the loading state, and in manual mode it applies
// search, sorting and pagination itself.
type MemorySource struct {
	columns      []tables.ColumnDef
	searchFields []string
	clock        clockwork.Clock

	mu      sync.Mutex
	rows    []tables.Row
	latency time.Duration
	readyAt map[string]time.Time // pending requests by request key
	failure error
}

// NewMemorySource creates a source over rows. Columns and search fields are
// used when serving manual requests.
func NewMemorySource(rows []tables.Row, columns []tables.ColumnDef, searchFields []string, clock clockwork.Clock) *MemorySource {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemorySource{
		columns:      columns,
		searchFields: searchFields,
		clock:        clock,
		rows:         rows,
		readyAt:      make(map[string]time.Time),
	}
}

// SetLatency delays each distinct request by d. Until then Fetch returns server.ErrPending.
func (s *MemorySource) SetLatency(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latency = d
}

// SetFailure makes every Fetch fail with err. Nil restores normal operation.
func (s *MemorySource) SetFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = err
}

func requestKey(req server.FetchRequest) string {
	return fmt.Sprintf("%s|%v|%d|%d|%v|%s", req.Tenant, req.Manual, req.Pagination.PageIndex, req.Pagination.PageSize, req.Sorting, req.Search)
}

// Fetch returns the rows of req.Tenant.
func (s *MemorySource) Fetch(ctx context.Context, req server.FetchRequest) (server.FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return server.FetchResult{}, err
	}

	s.mu.Lock()
	if s.failure != nil {
		err := s.failure
		s.mu.Unlock()
		return server.FetchResult{}, err
	}
	if s.latency > 0 {
		key := requestKey(req)
		ready, ok := s.readyAt[key]
		if !ok {
			s.readyAt[key] = s.clock.Now().Add(s.latency)
			s.mu.Unlock()
			return server.FetchResult{}, server.ErrPending
		}
		if s.clock.Now().Before(ready) {
			s.mu.Unlock()
			return server.FetchResult{}, server.ErrPending
		}
		delete(s.readyAt, key)
	}
	rows := s.tenantRows(req.Tenant)
	s.mu.Unlock()

	if !req.Manual {
		return server.FetchResult{Rows: rows, Total: len(rows)}, nil
	}

	// Serve one page the way a backend would
	c := tables.New(rows, tables.Options{
		Columns:          s.columns,
		EnablePagination: true,
		PageSize:         req.Pagination.PageSize,
		SearchFields:     s.searchFields,
		SearchDebounce:   -1,
	})
	defer c.Close()
	c.SetGlobalFilter(req.Search)
	c.SetSorting(tables.Value(req.Sorting))
	c.SetPagination(tables.Value(req.Pagination))
	model := c.Model()
	if model.Pagination.PageIndex != req.Pagination.PageIndex {
		// Past the last page: nothing to show, the caller keeps its total
		return server.FetchResult{Total: model.TotalRows}, nil
	}
	return server.FetchResult{Rows: model.Rows, Total: model.TotalRows}, nil
}

// tenantRows copies the rows of tenant. Callers hold s.mu.
func (s *MemorySource) tenantRows(tenant string) []tables.Row {
	rows := make([]tables.Row, 0, len(s.rows))
	for _, r := range s.rows {
		if r[TenantField] == tenant {
			rows = append(rows, maps.Clone(r))
		}
	}
	return rows
}

func (s *MemorySource) index(id string) int {
	return slices.IndexFunc(s.rows, func(r tables.Row) bool { return r["id"] == id })
}

// Row returns the row with id if it belongs to tenant.
func (s *MemorySource) Row(_ context.Context, tenant, id string) (tables.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 || s.rows[i][TenantField] != tenant {
		return nil, fmt.Errorf("%w: %s", server.ErrRowNotFound, id)
	}
	return maps.Clone(s.rows[i]), nil
}

// Delete removes the row with id.
func (s *MemorySource) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.rows = slices.Delete(s.rows, i, i+1)
	return true
}

// Duplicate copies the row with id under a new id, right after the original.
func (s *MemorySource) Duplicate(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return "", false
	}
	dup := maps.Clone(s.rows[i])
	dup["id"] = uuid.NewString()
	s.rows = slices.Insert(s.rows, i+1, dup)
	return dup["id"].(string), true
}

// Set updates one field of the row with id.
func (s *MemorySource) Set(id, field string, value any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.rows[i][field] = value
	return true
}

// Len returns the number of rows across all tenants.
func (s *MemorySource) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
