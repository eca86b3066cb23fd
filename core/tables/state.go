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

import "maps"

// Pagination is the current page and its size.
type Pagination struct {
	PageIndex int // zero based
	PageSize  int
}

// SortColumn is one entry of the sort order.
type SortColumn struct {
	ID   string
	Desc bool
}

// Sorting is the ordered comparator list: earlier entries take precedence,
// later entries break their ties.
type Sorting []SortColumn

// SortDirection is the state of a single column within a Sorting.
type SortDirection int

const (
	Unsorted SortDirection = iota
	Ascending
	Descending
)

// Direction reports how id is sorted and its position in the order (-1 when unsorted).
func (s Sorting) Direction(id string) (SortDirection, int) {
	for i, sc := range s {
		if sc.ID == id {
			if sc.Desc {
				return Descending, i
			}
			return Ascending, i
		}
	}
	return Unsorted, -1
}

func (s Sorting) clone() Sorting {
	if s == nil {
		return nil
	}
	return append(Sorting(nil), s...)
}

// Visibility maps a column id to whether it is shown. Absent means visible.
type Visibility map[string]bool

// IsVisible reports whether the column is shown.
func (v Visibility) IsVisible(id string) bool {
	shown, ok := v[id]
	return !ok || shown
}

// TableState is everything a Coordinator tracks for one mounted table.
type TableState struct {
	Pagination       Pagination
	Sorting          Sorting
	GlobalFilter     string
	ColumnVisibility Visibility
}

func (s TableState) clone() TableState {
	return TableState{
		Pagination:       s.Pagination,
		Sorting:          s.Sorting.clone(),
		GlobalFilter:     s.GlobalFilter,
		ColumnVisibility: maps.Clone(s.ColumnVisibility),
	}
}

// Update computes the next value of a piece of state from the previous one.
// Transitions always receive the latest value, so several updates issued in a
// row compose instead of overwriting each other.
type Update[T any] func(prev T) T

// Value returns an Update that replaces the previous value with v.
func Value[T any](v T) Update[T] {
	return func(T) T { return v }
}
