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
	"bytes"
	"context"
	"errors"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/gridstate/core/actions"
	"github.com/google/gridstate/core/config"
	"github.com/google/gridstate/core/storage"
	"github.com/google/gridstate/core/tables"
	"github.com/google/gridstate/core/users"
	"github.com/google/gridstate/core/views"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSource struct {
	mu       sync.Mutex
	rows     []tables.Row
	err      error
	requests []FetchRequest
}

func (f *fakeSource) Fetch(_ context.Context, req FetchRequest) (FetchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return FetchResult{}, f.err
	}
	var rows []tables.Row
	for _, r := range f.rows {
		if r["tenant"] == req.Tenant {
			rows = append(rows, maps.Clone(r))
		}
	}
	return FetchResult{Rows: rows, Total: len(rows)}, nil
}

func (f *fakeSource) Row(_ context.Context, tenant, id string) (tables.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r["id"] == id && r["tenant"] == tenant {
			return maps.Clone(r), nil
		}
	}
	return nil, ErrRowNotFound
}

func (f *fakeSource) lastRequest() FetchRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

type fakeProduct struct {
	tables []*TableDef
}

func (p *fakeProduct) GetName() string     { return "test" }
func (p *fakeProduct) GetTitle() string    { return "Test Studio" }
func (p *fakeProduct) GetSubtitle() string { return "tables under test" }
func (p *fakeProduct) GetTables() []*TableDef {
	return p.tables
}
func (p *fakeProduct) GetTable(name string) *TableDef {
	for _, t := range p.tables {
		if t.Info.Name == name {
			return t
		}
	}
	return nil
}

type fakeUsers map[string]*users.UserProfile

func (f fakeUsers) GetUser(name string) *users.UserProfile { return f[name] }

type fixture struct {
	srv     *Server
	source  *fakeSource
	adapter *storage.Adapter
	clock   *clockwork.FakeClock
	clicked []string
}

func newFixture(t *testing.T, manual bool) *fixture {
	t.Helper()
	f := &fixture{
		source: &fakeSource{rows: []tables.Row{
			{"id": "s1", "tenant": "acme", "name": "Ada", "email": "ada@acme.test"},
			{"id": "s2", "tenant": "acme", "name": "Brian", "email": "brian@acme.test"},
			{"id": "s3", "tenant": "globex", "name": "Chen", "email": "chen@globex.test"},
		}},
		adapter: storage.NewAdapter(storage.NewMemoryStore(), zap.NewNop()),
		clock:   clockwork.NewFakeClock(),
	}
	staff := &TableDef{
		Info: views.TableInfo{Name: "staff", DisplayName: "Staff", Domains: []string{"people"}},
		Columns: []tables.ColumnDef{
			{ID: "name", Header: "Name", Sortable: true},
			{ID: "email", Header: "Email", Sortable: true, Hideable: true},
		},
		SearchFields:      []string{"name", "email"},
		SearchPlaceholder: "Search staff",
		Manual:            manual,
		ColumnVisibility:  true,
		Source:            f.source,
		RowID:             func(r tables.Row) string { return r["id"].(string) },
		Actions: func(caps users.Capabilities) *actions.Config[tables.Row] {
			click := func(key string) func(tables.Row) {
				return func(r tables.Row) { f.clicked = append(f.clicked, key+":"+r["id"].(string)) }
			}
			return &actions.Config[tables.Row]{
				Actions: []actions.RowAction[tables.Row]{
					actions.BuiltIn[tables.Row]{Type: actions.Edit, OnClick: click("edit")},
					actions.BuiltIn[tables.Row]{Type: actions.Delete, OnClick: click("delete")},
				},
				CanEdit:   caps.CanEdit,
				CanDelete: actions.Bool(caps.CanDelete),
			}
		},
	}
	srv, err := NewServer(&fakeProduct{tables: []*TableDef{staff}}, Options{
		Table: config.TableConfig{
			PageSize:       10,
			PageSizes:      []int{10, 25},
			SearchDebounce: config.Duration{Duration: 300 * time.Millisecond},
		},
		Persistence: f.adapter,
		Clock:       f.clock,
		Logger:      zap.NewNop(),
	})
	require.NoError(t, err)
	srv.SetUserStore(fakeUsers{
		"alice": {Domains: []string{"people"}, Tenants: []string{"acme", "globex"}, Permissions: []string{"*"}},
		"bob":   {Domains: []string{"people"}, Tenants: []string{"acme"}, Permissions: []string{"staff:edit"}},
		"erin":  {Domains: []string{"billing"}, Tenants: []string{"acme"}},
	})
	f.srv = srv
	t.Cleanup(srv.Close)
	return f
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func (f *fixture) get(t *testing.T, raw string) (string, *TableHandlerResult) {
	t.Helper()
	var buf bytes.Buffer
	result := f.srv.HandleTableRequest(context.Background(), &buf, mustURL(t, raw), func(string, string) {})
	return buf.String(), result
}

func TestTableRequestValidation(t *testing.T) {
	f := newFixture(t, false)
	tests := []struct {
		name string
		url  string
		code int
	}{
		{"missing table", "/table?user=alice", http.StatusBadRequest},
		{"unknown table", "/table?table=nope&user=alice", http.StatusNotFound},
		{"unknown user", "/table?table=staff&user=mallory", http.StatusForbidden},
		{"wrong domain", "/table?table=staff&user=erin", http.StatusForbidden},
		{"foreign tenant", "/table?table=staff&user=bob&tenant=globex", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, result := f.get(t, tt.url)
			require.NotNil(t, result)
			if result.StatusCode != tt.code {
				t.Errorf("Expected status %d, got %d (%s)", tt.code, result.StatusCode, result.Message)
			}
		})
	}
}

func TestTableRequestRendersTenantRows(t *testing.T) {
	f := newFixture(t, false)

	body, result := f.get(t, "/table?table=staff&user=alice")
	require.Nil(t, result)
	assert.Contains(t, body, "Ada")
	assert.Contains(t, body, "Brian")
	assert.NotContains(t, body, "Chen", "rows of other tenants are not shown")
	assert.Contains(t, body, "Showing 1-2 of 2")

	body, result = f.get(t, "/table?table=staff&user=alice&tenant=globex")
	require.Nil(t, result)
	assert.Contains(t, body, "Chen")
	assert.NotContains(t, body, "Ada")
}

func TestTableRequestClientSearchAndSort(t *testing.T) {
	f := newFixture(t, false)

	body, result := f.get(t, "/table?table=staff&user=alice&q=BRI")
	require.Nil(t, result)
	assert.Contains(t, body, "Brian")
	assert.NotContains(t, body, "ada@acme.test")

	body, result = f.get(t, "/table?table=staff&user=alice&q=&sort=name:desc")
	require.Nil(t, result)
	assert.Less(t, strings.Index(body, "Brian"), strings.Index(body, "ada@acme.test"))

	// Client tables fetch once and work locally afterwards
	assert.Len(t, f.source.requests, 1)
}

func TestTableRequestManualForwardsState(t *testing.T) {
	f := newFixture(t, true)

	_, result := f.get(t, "/table?table=staff&user=alice&page=2&size=25&sort=email:desc&q=ada")
	require.Nil(t, result)

	req := f.source.lastRequest()
	assert.True(t, req.Manual)
	assert.Equal(t, "acme", req.Tenant)
	assert.Equal(t, tables.Pagination{PageIndex: 1, PageSize: 25}, req.Pagination)
	assert.Equal(t, tables.Sorting{{ID: "email", Desc: true}}, req.Sorting)
	assert.Equal(t, "ada", req.Search)

	// Same state again does not refetch
	_, result = f.get(t, "/table?table=staff&user=alice&page=2&size=25&sort=email:desc&q=ada")
	require.Nil(t, result)
	assert.Len(t, f.source.requests, 1)

	_, result = f.get(t, "/table?table=staff&user=alice&page=3&size=25&sort=email:desc&q=ada")
	require.Nil(t, result)
	assert.Len(t, f.source.requests, 2)
	assert.Equal(t, 2, f.source.lastRequest().Pagination.PageIndex)
}

func TestTableRequestPendingAndError(t *testing.T) {
	f := newFixture(t, false)

	f.source.err = ErrPending
	body, result := f.get(t, "/table?table=staff&user=alice")
	require.Nil(t, result)
	assert.Contains(t, body, `class="skeleton"`)
	assert.NotContains(t, body, "Showing")

	f.source.err = errors.New("backend unavailable")
	body, result = f.get(t, "/table?table=staff&user=alice")
	require.Nil(t, result)
	assert.Contains(t, body, "backend unavailable")

	f.source.err = nil
	body, result = f.get(t, "/table?table=staff&user=alice")
	require.Nil(t, result)
	assert.Contains(t, body, "Ada")
}

func TestColumnToggleRedirectsAndPersists(t *testing.T) {
	f := newFixture(t, false)

	_, result := f.get(t, "/table?table=staff&user=alice&toggle=email")
	require.NotNil(t, result)
	assert.Equal(t, http.StatusSeeOther, result.StatusCode)
	assert.Equal(t, "/table?table=staff&tenant=acme&user=alice", result.Location)

	assert.Equal(t, map[string]bool{"email": false}, f.adapter.Load(storage.VisibilityKey("alice.staff"), nil))

	body, result := f.get(t, result.Location)
	require.Nil(t, result)
	assert.Contains(t, body, "Ada")
	assert.NotContains(t, body, "ada@acme.test")
}

func TestActionDispatch(t *testing.T) {
	f := newFixture(t, false)
	dispatch := func(raw string) *TableHandlerResult {
		return f.srv.HandleActionRequest(context.Background(), mustURL(t, raw))
	}

	result := dispatch("/action?table=staff&user=bob&row=s1&action=edit&page=1")
	require.NotNil(t, result)
	assert.Equal(t, http.StatusSeeOther, result.StatusCode)
	assert.Equal(t, "/table?table=staff&tenant=acme&user=bob", result.Location)
	assert.Equal(t, []string{"edit:s1"}, f.clicked)

	result = dispatch("/action?table=staff&user=bob&row=s1&action=delete")
	assert.Equal(t, http.StatusForbidden, result.StatusCode, "bob may not delete")

	result = dispatch("/action?table=staff&user=bob&row=s3&action=edit")
	assert.Equal(t, http.StatusNotFound, result.StatusCode, "rows of other tenants do not resolve")

	result = dispatch("/action?table=staff&user=bob&row=s1")
	assert.Equal(t, http.StatusBadRequest, result.StatusCode)

	result = dispatch("/action?table=staff&user=alice&row=s2&action=delete")
	assert.Equal(t, http.StatusSeeOther, result.StatusCode)
	assert.Equal(t, []string{"edit:s1", "delete:s2"}, f.clicked)
}

func TestActionMenuFollowsPermissions(t *testing.T) {
	f := newFixture(t, false)

	body, result := f.get(t, "/table?table=staff&user=bob")
	require.Nil(t, result)
	assert.Contains(t, body, "action=edit")
	assert.NotContains(t, body, "action=delete")

	body, result = f.get(t, "/table?table=staff&user=alice")
	require.Nil(t, result)
	assert.Contains(t, body, "action=delete")
}

func TestSearchInputIsDebounced(t *testing.T) {
	f := newFixture(t, false)
	_, result := f.get(t, "/table?table=staff&user=alice")
	require.Nil(t, result)

	for _, text := range []string{"c", "ch", "bri"} {
		result := f.srv.HandleSearchInput(mustURL(t, "/search?table=staff&user=alice&q="+text))
		require.Equal(t, http.StatusAccepted, result.StatusCode)
	}
	f.clock.Advance(300 * time.Millisecond)

	require.Eventually(t, func() bool {
		body, _ := f.get(t, "/table?table=staff&user=alice")
		return strings.Contains(body, "Brian") && !strings.Contains(body, "ada@acme.test")
	}, time.Second, 10*time.Millisecond)
}

func TestLandingFiltersByDomain(t *testing.T) {
	f := newFixture(t, false)
	render := func(raw string) string {
		var buf bytes.Buffer
		require.NoError(t, f.srv.HandleLandingRequest(&buf, mustURL(t, raw), func(string, string) {}))
		return buf.String()
	}

	assert.Contains(t, render("/?user=alice"), "Staff")
	assert.Contains(t, render("/?user=erin"), "No tables available.")
	assert.Contains(t, render("/?user=mallory"), "mallory (unknown)")
}
