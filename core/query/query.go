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

package query

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/google/gridstate/core/tables"
	"github.com/google/safehtml"
)

// Query represents the parsed state of a table view URL
type Query struct {
	// Base path (e.g., "/table")
	Path string

	// Core parameters
	Table     string         // The resource being viewed
	User      string         // Acting user, carried on every link
	Tenant    string         // Tenant scope, empty for the user's first tenant
	Page      int            // Zero based page index (the URL carries it one based)
	Size      int            // Page size, 0 = table default
	Sort      tables.Sorting // Sort order (format: col:asc,col2:desc)
	Search    string         // Applied free-text search
	HasSearch bool           // The URL carries a search parameter, possibly empty
	Toggle    string         // Column whose visibility should flip before rendering
	Multi     bool           // Header clicks extend the sort instead of replacing it
}

// NewQuery creates a Query from a URL
func NewQuery(u *url.URL) *Query {
	state := &Query{
		Path: u.Path,
		Sort: tables.Sorting{},
	}

	q := u.Query()
	state.Table = q.Get("table")
	state.User = q.Get("user")
	state.Tenant = q.Get("tenant")
	state.Search = q.Get("q")
	state.HasSearch = q.Has("q")
	state.Toggle = q.Get("toggle")
	state.Multi = q.Get("multi") == "1"

	if pageStr := q.Get("page"); pageStr != "" {
		if page, err := strconv.Atoi(pageStr); err == nil && page >= 1 {
			state.Page = page - 1
		}
	}

	if sizeStr := q.Get("size"); sizeStr != "" {
		if size, err := strconv.Atoi(sizeStr); err == nil && size > 0 {
			state.Size = size
		}
	}

	state.Sort = ParseSort(q.Get("sort"))
	return state
}

// ParseSort parses "col:asc,col2:desc". A missing direction means ascending,
// an unknown direction or a repeated column drops the entry.
func ParseSort(s string) tables.Sorting {
	sorting := tables.Sorting{}
	if s == "" {
		return sorting
	}
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		name, dir, _ := strings.Cut(part, ":")
		if name == "" || seen[name] {
			continue
		}
		switch dir {
		case "", "asc":
			sorting = append(sorting, tables.SortColumn{ID: name})
		case "desc":
			sorting = append(sorting, tables.SortColumn{ID: name, Desc: true})
		default:
			continue
		}
		seen[name] = true
	}
	return sorting
}

// FormatSort is the inverse of ParseSort.
func FormatSort(sorting tables.Sorting) string {
	parts := make([]string, 0, len(sorting))
	for _, sc := range sorting {
		dir := "asc"
		if sc.Desc {
			dir = "desc"
		}
		parts = append(parts, sc.ID+":"+dir)
	}
	return strings.Join(parts, ",")
}

// Clone creates a deep copy of the Query
func (s *Query) Clone() *Query {
	clone := *s
	clone.Sort = make(tables.Sorting, len(s.Sort))
	copy(clone.Sort, s.Sort)
	return &clone
}

// ToURL converts the Query back to a URL string
func (s *Query) ToURL() string {
	u := &url.URL{
		Path:     s.Path,
		RawQuery: s.values().Encode(),
	}
	return u.String()
}

// values holds the non-default state parameters in URL form.
func (s *Query) values() url.Values {
	q := url.Values{}
	if s.Table != "" {
		q.Set("table", s.Table)
	}
	if s.User != "" {
		q.Set("user", s.User)
	}
	if s.Tenant != "" {
		q.Set("tenant", s.Tenant)
	}
	if s.Page > 0 {
		q.Set("page", strconv.Itoa(s.Page+1))
	}
	if s.Size > 0 {
		q.Set("size", strconv.Itoa(s.Size))
	}
	if len(s.Sort) > 0 {
		q.Set("sort", FormatSort(s.Sort))
	}
	if s.Search != "" || s.HasSearch {
		q.Set("q", s.Search)
	}
	if s.Toggle != "" {
		q.Set("toggle", s.Toggle)
	}
	if s.Multi {
		q.Set("multi", "1")
	}
	return q
}

// ToSafeURL converts the Query to a safehtml.URL
func (s *Query) ToSafeURL() safehtml.URL {
	// URLSanitized sanitizes the input string and returns a URL
	return safehtml.URLSanitized(s.ToURL())
}

// WithPage returns a URL for another page
func (s *Query) WithPage(page int) safehtml.URL {
	newState := s.Clone()
	newState.Page = max(page, 0)
	newState.Toggle = ""
	return newState.ToSafeURL()
}

// WithPageSize returns a URL with a different page size, keeping the first
// row of the current page on screen
func (s *Query) WithPageSize(size int, current tables.Pagination) safehtml.URL {
	newState := s.Clone()
	newState.Size = size
	newState.Toggle = ""
	if size > 0 {
		newState.Page = current.PageIndex * current.PageSize / size
	}
	return newState.ToSafeURL()
}

// WithSort returns a URL with the sort order replaced
func (s *Query) WithSort(sorting tables.Sorting) safehtml.URL {
	newState := s.Clone()
	newState.Sort = sorting
	newState.Toggle = ""
	return newState.ToSafeURL()
}

// WithSearch returns a URL with the search text replaced. The page is reset
// since the result set changes.
func (s *Query) WithSearch(text string) safehtml.URL {
	newState := s.Clone()
	newState.Search = text
	newState.HasSearch = true
	newState.Page = 0
	newState.Toggle = ""
	return newState.ToSafeURL()
}

// WithColumnToggled returns a URL that flips the visibility of column
func (s *Query) WithColumnToggled(column string) safehtml.URL {
	newState := s.Clone()
	newState.Toggle = column
	return newState.ToSafeURL()
}

// WithMultiSort returns a URL with multi-column sorting switched on or off
func (s *Query) WithMultiSort(multi bool) safehtml.URL {
	newState := s.Clone()
	newState.Multi = multi
	newState.Toggle = ""
	return newState.ToSafeURL()
}

// WithoutToggle returns the URL to redirect to once a toggle is applied
func (s *Query) WithoutToggle() safehtml.URL {
	newState := s.Clone()
	newState.Toggle = ""
	return newState.ToSafeURL()
}

// ActionURL returns the dispatch URL for a row action. The table state is
// carried along so the dispatcher can return to the same view.
func (s *Query) ActionURL(rowID, action string) safehtml.URL {
	newState := s.Clone()
	newState.Path = "/action"
	newState.Toggle = ""
	q := newState.values()
	q.Set("row", rowID)
	q.Set("action", action)
	u := &url.URL{Path: newState.Path, RawQuery: q.Encode()}
	return safehtml.URLSanitized(u.String())
}

// TableURL returns the table view URL for the same state, used after an
// action is dispatched.
func (s *Query) TableURL() safehtml.URL {
	newState := s.Clone()
	newState.Path = "/table"
	newState.Toggle = ""
	return newState.ToSafeURL()
}
