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

// Package virtual computes which rows of a fixed-row-height list must be
// materialized for a viewport.
package virtual

// Row is one materialized row: its index and absolute offset.
type Row struct {
	Index int `json:"index"`
	Start int `json:"start"`
	Size  int `json:"size"`
}

// Window is the result of a window computation.
type Window struct {
	Rows      []Row `json:"rows"`
	TotalSize int   `json:"totalSize"`
	first     int
	last      int
}

// Range returns the half-open index range [first, last) of the window.
func (w Window) Range() (first, last int) {
	return w.first, w.last
}

// Len is the number of materialized rows.
func (w Window) Len() int {
	return w.last - w.first
}

// TotalSize is the extent of all rows.
func TotalSize(rowCount, rowSize int) int {
	if rowCount <= 0 || rowSize <= 0 {
		return 0
	}
	return rowCount * rowSize
}

// ComputeWindow returns the rows whose extent intersects
// [scrollOffset - overscan*rowSize, scrollOffset + viewportSize + overscan*rowSize].
// Indices are always within [0, rowCount).
func ComputeWindow(rowCount, rowSize, scrollOffset, viewportSize, overscan int) []Row {
	return New(rowCount, rowSize, scrollOffset, viewportSize, overscan).Rows
}

// New computes the window and its total size.
func New(rowCount, rowSize, scrollOffset, viewportSize, overscan int) Window {
	w := Window{Rows: []Row{}, TotalSize: TotalSize(rowCount, rowSize)}
	if w.TotalSize == 0 {
		return w
	}
	if overscan < 0 {
		overscan = 0
	}
	if viewportSize < 0 {
		viewportSize = 0
	}
	lo := scrollOffset - overscan*rowSize
	hi := scrollOffset + viewportSize + overscan*rowSize

	first := max(floorDiv(lo, rowSize), 0)
	last := min(ceilDiv(hi, rowSize), rowCount)
	if first >= last {
		return w
	}
	w.first, w.last = first, last
	w.Rows = make([]Row, 0, last-first)
	for i := first; i < last; i++ {
		w.Rows = append(w.Rows, Row{Index: i, Start: i * rowSize, Size: rowSize})
	}
	return w
}

// Align selects where ScrollToIndex places the target row.
type Align int

const (
	// AlignAuto scrolls only as far as needed to make the row visible.
	AlignAuto Align = iota
	AlignStart
	AlignCenter
	AlignEnd
)

// ScrollToIndex returns the scroll offset that brings index into view,
// clamped to the scrollable range.
func ScrollToIndex(index, rowCount, rowSize, viewportSize, current int, align Align) int {
	total := TotalSize(rowCount, rowSize)
	if total == 0 {
		return 0
	}
	index = min(max(index, 0), rowCount-1)
	start := index * rowSize
	end := start + rowSize

	var offset int
	switch align {
	case AlignStart:
		offset = start
	case AlignEnd:
		offset = end - viewportSize
	case AlignCenter:
		offset = start - (viewportSize-rowSize)/2
	default:
		switch {
		case start < current:
			offset = start
		case end > current+viewportSize:
			offset = end - viewportSize
		default:
			offset = current
		}
	}
	return ClampOffset(offset, total, viewportSize)
}

// ClampOffset bounds offset to [0, totalSize-viewportSize].
func ClampOffset(offset, totalSize, viewportSize int) int {
	maxOffset := max(totalSize-viewportSize, 0)
	return min(max(offset, 0), maxOffset)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func ceilDiv(a, b int) int {
	return -floorDiv(-a, b)
}
