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
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/google/gridstate/core/views"
	"github.com/mattn/go-runewidth"
)

const (
	maxCellWidth = 40
	ellipsis     = "…"
	skeletonCell = "···"
)

// ASCIIRenderer writes a table view model as a bordered text table.
type ASCIIRenderer struct {
	header      *color.Color
	destructive *color.Color
	muted       *color.Color
}

// NewASCIIRenderer creates a text renderer. Without useColor the output is plain.
func NewASCIIRenderer(useColor bool) *ASCIIRenderer {
	r := &ASCIIRenderer{
		header:      color.New(color.Bold, color.FgCyan),
		destructive: color.New(color.FgRed),
		muted:       color.New(color.FgHiBlack),
	}
	for _, c := range []*color.Color{r.header, r.destructive, r.muted} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

// Render writes vm to w.
func (r *ASCIIRenderer) Render(w io.Writer, vm views.TableViewModel) error {
	var sb strings.Builder

	headers := make([]string, len(vm.Headers))
	for i, h := range vm.Headers {
		headers[i] = h.Label
		if h.Glyph != "" {
			headers[i] += " " + h.Glyph
		}
		if h.SortRank > 0 {
			headers[i] += fmt.Sprint(h.SortRank)
		}
	}

	body := r.bodyCells(vm)
	widths := columnWidths(headers, body)

	if vm.Title != "" {
		sb.WriteString(r.header.Sprint(vm.Title))
		sb.WriteString("\n")
	}
	if vm.Search != nil && vm.Search.Value != "" {
		fmt.Fprintf(&sb, "Search: %s\n", vm.Search.Value)
	}

	border := borderLine(widths)
	sb.WriteString(border)
	writeLine(&sb, headers, widths, r.header)
	sb.WriteString(border)

	switch {
	case vm.IsError:
		writeSpanning(&sb, "Error: "+vm.ErrorMessage, widths, r.destructive)
	case vm.IsEmpty:
		writeSpanning(&sb, vm.EmptyMessage, widths, r.muted)
	default:
		for _, cells := range body {
			writeLine(&sb, cells, widths, nil)
		}
	}
	sb.WriteString(border)

	if p := vm.Pager; p != nil {
		fmt.Fprintf(&sb, "Showing %d-%d of %d · Page %d of %d\n", p.FirstRow, p.LastRow, p.TotalRows, p.PageNumber, p.PageCount)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// bodyCells returns the text of each body row, skeleton rows while loading.
func (r *ASCIIRenderer) bodyCells(vm views.TableViewModel) [][]string {
	if vm.IsLoading {
		rows := make([][]string, len(vm.SkeletonRows))
		for i := range rows {
			rows[i] = make([]string, len(vm.Headers))
			for j := range rows[i] {
				rows[i][j] = r.muted.Sprint(skeletonCell)
			}
		}
		return rows
	}
	if vm.IsError || vm.IsEmpty {
		return nil
	}
	rows := make([][]string, 0, len(vm.Rows))
	for _, row := range vm.Rows {
		cells := append([]string(nil), row.Cells...)
		if vm.HasActions {
			labels := make([]string, 0, len(row.Actions))
			for _, a := range row.Actions {
				label := a.Label
				if a.Destructive {
					label = r.destructive.Sprint(label)
				}
				if a.SeparatorBefore {
					label = "/ " + label
				}
				labels = append(labels, label)
			}
			cells = append(cells, strings.Join(labels, " "))
		}
		rows = append(rows, cells)
	}
	return rows
}

// columnWidths measures display width, ignoring color escapes.
func columnWidths(headers []string, rows [][]string) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = min(displayWidth(h), maxCellWidth)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], min(displayWidth(cell), maxCellWidth))
			}
		}
	}
	return widths
}

func displayWidth(s string) int {
	return runewidth.StringWidth(stripANSI(s))
}

// stripANSI removes SGR escape sequences written by the color package.
func stripANSI(s string) string {
	if !strings.Contains(s, "\x1b[") {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == 0x1b && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && s[j] != 'm' {
				j++
			}
			i = j
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

func borderLine(widths []int) string {
	var sb strings.Builder
	sb.WriteString("+")
	for _, w := range widths {
		sb.WriteString(strings.Repeat("-", w+2))
		sb.WriteString("+")
	}
	sb.WriteString("\n")
	return sb.String()
}

// fit truncates or pads cell to exactly width columns.
func fit(cell string, width int) string {
	if displayWidth(cell) > width {
		cell = runewidth.Truncate(stripANSI(cell), width, ellipsis)
	}
	return cell + strings.Repeat(" ", width-displayWidth(cell))
}

func writeLine(sb *strings.Builder, cells []string, widths []int, c *color.Color) {
	sb.WriteString("|")
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		cell = fit(cell, w)
		if c != nil {
			cell = c.Sprint(cell)
		}
		sb.WriteString(" " + cell + " |")
	}
	sb.WriteString("\n")
}

func writeSpanning(sb *strings.Builder, text string, widths []int, c *color.Color) {
	total := 0
	for _, w := range widths {
		total += w + 3
	}
	inner := max(total-3, 0)
	if inner == 0 {
		inner = displayWidth(text)
	}
	sb.WriteString("| " + c.Sprint(fit(text, inner)) + " |\n")
}
