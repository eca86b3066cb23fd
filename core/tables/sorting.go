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
	"container/heap"
	"sort"
)

// sortableColumn holds a column reference and its sort direction
type sortableColumn struct {
	col        ColumnDef
	descending bool
}

// rowComparator compares rows by position using a chain of sort columns.
// Each column only decides when all previous ones tie; the original position
// breaks the final tie so the order is deterministic.
type rowComparator struct {
	rows []Row
	cols []sortableColumn
}

// compare returns negative if row i sorts before row j.
func (rc *rowComparator) compare(i, j int) int {
	for _, sc := range rc.cols {
		vi := sc.col.Value(rc.rows[i])
		vj := sc.col.Value(rc.rows[j])
		if vi == nil || vj == nil {
			// Missing values stay at the end in both directions
			if cmp := compareNils(vi == nil, vj == nil); cmp != 0 {
				return cmp
			}
			continue
		}
		cmp := CompareValues(vi, vj)
		if cmp != 0 {
			if sc.descending {
				return -cmp
			}
			return cmp
		}
	}
	return i - j
}

// buildSortColumns resolves the sort order against the column definitions.
// Unknown and non-sortable columns are ignored.
func buildSortColumns(columns []ColumnDef, sorting Sorting) []sortableColumn {
	byID := make(map[string]ColumnDef, len(columns))
	for _, c := range columns {
		byID[c.ID] = c
	}
	cols := make([]sortableColumn, 0, len(sorting))
	for _, so := range sorting {
		col, ok := byID[so.ID]
		if !ok || !col.Sortable {
			continue
		}
		cols = append(cols, sortableColumn{col: col, descending: so.Desc})
	}
	return cols
}

// topKHeap implements a max-heap for top-K selection
// When we want the smallest K elements, we use a max-heap:
// - If new element is smaller than max, pop max and push new element
// - At the end, heap contains K smallest elements
type topKHeap struct {
	indices []int
	cmp     *rowComparator
}

func (h *topKHeap) Len() int { return len(h.indices) }

// Less keeps the worst of the K best rows at the top of the heap.
func (h *topKHeap) Less(i, j int) bool {
	return h.cmp.compare(h.indices[i], h.indices[j]) > 0
}

func (h *topKHeap) Swap(i, j int) {
	h.indices[i], h.indices[j] = h.indices[j], h.indices[i]
}

func (h *topKHeap) Push(x interface{}) {
	h.indices = append(h.indices, x.(int))
}

func (h *topKHeap) Pop() interface{} {
	old := h.indices
	n := len(old)
	x := old[n-1]
	h.indices = old[0 : n-1]
	return x
}

// sortedTopK returns the first limit indices of the sorted order.
// Uses heap-based selection: O(n log k) instead of O(n log n) for full sort,
// which matters when only an early page of a large table is displayed.
func sortedTopK(indices []int, cmp *rowComparator, limit int) []int {
	if len(indices) == 0 || limit <= 0 {
		return []int{}
	}
	if limit >= len(indices) {
		return sortIndices(indices, cmp)
	}

	h := &topKHeap{
		indices: make([]int, 0, limit),
		cmp:     cmp,
	}
	h.indices = append(h.indices, indices[:limit]...)
	heap.Init(h)

	for _, idx := range indices[limit:] {
		// Compare with heap top (the "worst" of current K best)
		if cmp.compare(idx, h.indices[0]) < 0 {
			heap.Pop(h)
			heap.Push(h, idx)
		}
	}
	return sortIndices(h.indices, cmp)
}

// sortIndices sorts a copy of indices with the comparator chain.
func sortIndices(indices []int, cmp *rowComparator) []int {
	sorted := append([]int(nil), indices...)
	sort.Slice(sorted, func(i, j int) bool {
		return cmp.compare(sorted[i], sorted[j]) < 0
	})
	return sorted
}
