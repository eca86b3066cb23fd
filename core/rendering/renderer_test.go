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

package rendering

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/gridstate/core/views"
	"github.com/google/safehtml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func populatedModel() views.TableViewModel {
	return views.TableViewModel{
		Title:      "Staff",
		Table:      "staff",
		UserName:   "alice",
		Status:     views.StatusPopulated,
		HasActions: true,
		Headers: []views.HeaderCell{
			{ID: "name", Label: "Name", Sortable: true, Glyph: views.GlyphAscending, SortURL: safehtml.URLSanitized("/table?table=staff&sort=name:desc")},
			{ID: "role", Label: "Role"},
			{ID: "actions", Label: "Actions", IsActions: true},
		},
		ColSpan: 3,
		Rows: []views.RowView{{
			ID:    "s1",
			Cells: []string{"<b>Ada</b>", "coach"},
			Actions: []views.ActionLink{
				{Key: "edit", Label: "Edit", URL: safehtml.URLSanitized("/action?row=s1&action=edit")},
				{Key: "delete", Label: "Delete", Destructive: true, SeparatorBefore: true, URL: safehtml.URLSanitized("/action?row=s1&action=delete")},
			},
		}},
		Search: &views.SearchBox{Value: "ad", Placeholder: "Search staff"},
		Pager: &views.Pager{
			PageNumber: 3, PageCount: 3, FirstRow: 21, LastRow: 25, TotalRows: 25,
			HasPrev:  true,
			FirstURL: safehtml.URLSanitized("/table?table=staff"),
			PrevURL:  safehtml.URLSanitized("/table?table=staff&page=2"),
			PageSizes: []views.PageSizeOption{
				{Size: 10, Selected: true, URL: safehtml.URLSanitized("/table?size=10")},
				{Size: 25, URL: safehtml.URLSanitized("/table?size=25")},
			},
		},
	}
}

func TestRenderTable(t *testing.T) {
	r, err := NewTableRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, populatedModel()))
	out := buf.String()

	assert.Contains(t, out, "Showing 21-25 of 25")
	assert.Contains(t, out, "Page 3 of 3")
	assert.Contains(t, out, views.GlyphAscending)
	assert.Contains(t, out, `class="destructive"`)
	assert.Contains(t, out, `class="separator"`)
	assert.Contains(t, out, "&lt;b&gt;Ada&lt;/b&gt;", "cell text must be escaped")
	assert.NotContains(t, out, "<b>Ada</b>")
	assert.Contains(t, out, `placeholder="Search staff"`)
}

func TestRenderStatusRows(t *testing.T) {
	r, err := NewTableRenderer()
	require.NoError(t, err)

	tests := []struct {
		name string
		vm   views.TableViewModel
		want string
	}{
		{"error", views.TableViewModel{Status: views.StatusError, IsError: true, ErrorMessage: "backend unavailable"}, "backend unavailable"},
		{"empty", views.TableViewModel{Status: views.StatusEmpty, IsEmpty: true, EmptyMessage: "No staff yet."}, "No staff yet."},
		{"loading", views.TableViewModel{Status: views.StatusLoading, IsLoading: true, SkeletonRows: []int{0, 1}, Headers: []views.HeaderCell{{Label: "Name"}}}, `class="skeleton"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, r.Render(&buf, tt.vm))
			assert.Contains(t, buf.String(), tt.want)
			assert.NotContains(t, buf.String(), "Showing")
		})
	}
}

func TestRenderLanding(t *testing.T) {
	r, err := NewTableRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	err = r.RenderLanding(&buf, views.LandingViewModel{
		Title:  "Studio",
		Tables: []views.TableInfo{{Name: "staff", DisplayName: "Staff", URL: safehtml.URLSanitized("/table?table=staff")}},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Staff")

	buf.Reset()
	require.NoError(t, r.RenderLanding(&buf, views.LandingViewModel{Title: "Studio"}))
	assert.Contains(t, buf.String(), "No tables available.")
}

func TestASCIIRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewASCIIRenderer(false).Render(&buf, populatedModel()))
	out := buf.String()

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "Staff", lines[0])
	assert.Equal(t, "Search: ad", lines[1])
	assert.Equal(t, "+------------+-------+---------------+", lines[2])
	assert.Contains(t, lines[3], "Name "+views.GlyphAscending)
	assert.Equal(t, "| <b>Ada</b> | coach | Edit / Delete |", lines[5])
	assert.Contains(t, lines[7], "Showing 21-25 of 25")
	for _, line := range lines[2:7] {
		assert.Equal(t, displayWidth(lines[2]), displayWidth(line), line)
	}
	assert.NotContains(t, out, "\x1b[")
}

func TestASCIIRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	vm := views.TableViewModel{
		Status:       views.StatusEmpty,
		IsEmpty:      true,
		EmptyMessage: "No results.",
		Headers:      []views.HeaderCell{{Label: "Name"}, {Label: "Email"}},
	}
	require.NoError(t, NewASCIIRenderer(false).Render(&buf, vm))
	assert.Contains(t, buf.String(), "| No results.  |")
}

func TestFitTruncatesWideText(t *testing.T) {
	got := fit("日本語のテキスト", 7)
	if displayWidth(got) != 7 {
		t.Errorf("Expected width 7, got %d (%q)", displayWidth(got), got)
	}
	if !strings.HasSuffix(strings.TrimRight(got, " "), ellipsis) {
		t.Errorf("Expected ellipsis suffix, got %q", got)
	}
}
