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
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/safehtml"
	"github.com/google/tabula/core/grouping"
)

// Query represents the parsed state of a view URL. Unset parameters leave
// the corresponding field nil so the view config's value applies.
type Query struct {
	// Base path (e.g., "/views/orders")
	Path string

	View         string           // The view being rendered
	Columns      []string         // Visible columns in order; nil means all
	ColumnWidths map[string]int   // Column widths (columnName -> width)
	Grouped      []grouping.Field // Grouping fields, from "field:desc:collapsed"
	Filter       SpecFilter       // Wire filter, JSON encoded in the URL
	Sort         []SortItem       // Sort keys, from "field:desc"
	Scroll       int              // Scroll offset in rows
	Viewport     int              // Viewport height in rows (0 = default)
	Limit        int              // Row limit (0 = view default)
	Format       string           // Output format: json, html or text
}

// NewQuery creates a Query from a URL
func NewQuery(u *url.URL) *Query {
	state := &Query{
		Path:         u.Path,
		ColumnWidths: make(map[string]int),
	}
	q := u.Query()

	state.View = q.Get("view")
	state.Format = strings.ToLower(q.Get("format"))

	// Extract columns parameter (format: col1:width,col2,col3:width)
	if q.Has("columns") {
		state.Columns = []string{}
		for _, part := range splitList(q.Get("columns")) {
			if colonIdx := strings.LastIndex(part, ":"); colonIdx != -1 {
				colName := part[:colonIdx]
				if width, err := strconv.Atoi(part[colonIdx+1:]); err == nil && width > 0 {
					state.Columns = append(state.Columns, colName)
					state.ColumnWidths[colName] = width
					continue
				}
			}
			state.Columns = append(state.Columns, part)
		}
	}

	if q.Has("grouped") {
		state.Grouped = []grouping.Field{}
		for _, part := range splitList(q.Get("grouped")) {
			state.Grouped = append(state.Grouped, parseGroupParam(part))
		}
	}

	// Filter is the JSON wire form; unparseable JSON degrades to no filter.
	if q.Has("filter") {
		var f SpecFilter
		if err := json.Unmarshal([]byte(q.Get("filter")), &f); err != nil || f == nil {
			f = SpecFilter{}
		}
		state.Filter = f
	}

	if q.Has("sort") {
		state.Sort = []SortItem{}
		for _, part := range splitList(q.Get("sort")) {
			field, dir, _ := strings.Cut(part, ":")
			if field != "" {
				state.Sort = append(state.Sort, NewSortItem(field, ParseOrder(dir)))
			}
		}
	}

	state.Scroll = nonNegative(q.Get("scroll"))
	state.Viewport = nonNegative(q.Get("viewport"))
	state.Limit = nonNegative(q.Get("limit"))

	state.reorderColumns()
	return state
}

func parseGroupParam(part string) grouping.Field {
	pieces := strings.Split(part, ":")
	f := grouping.Field{Field: pieces[0]}
	for _, p := range pieces[1:] {
		switch strings.ToLower(p) {
		case "asc", "desc":
			f.Order = strings.ToLower(p)
		case "collapsed":
			f.Collapsed = true
		}
	}
	return f
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func nonNegative(s string) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return 0
}

// Clone creates a deep copy of the Query
func (s *Query) Clone() *Query {
	clone := *s
	if s.Columns != nil {
		clone.Columns = append([]string{}, s.Columns...)
	}
	clone.ColumnWidths = make(map[string]int, len(s.ColumnWidths))
	for colName, width := range s.ColumnWidths {
		clone.ColumnWidths[colName] = width
	}
	if s.Grouped != nil {
		clone.Grouped = append([]grouping.Field{}, s.Grouped...)
	}
	if s.Filter != nil {
		clone.Filter = append(SpecFilter{}, s.Filter...)
	}
	if s.Sort != nil {
		clone.Sort = append([]SortItem{}, s.Sort...)
	}
	return &clone
}

// reorderColumns keeps grouped columns first, in grouping order, followed by
// the remaining visible columns.
func (s *Query) reorderColumns() {
	if len(s.Columns) == 0 || len(s.Grouped) == 0 {
		return
	}
	visible := make(map[string]bool, len(s.Columns))
	for _, col := range s.Columns {
		visible[col] = true
	}
	grouped := make(map[string]bool, len(s.Grouped))
	ordered := make([]string, 0, len(s.Columns))
	for _, g := range s.Grouped {
		grouped[g.Field] = true
		if visible[g.Field] {
			ordered = append(ordered, g.Field)
		}
	}
	for _, col := range s.Columns {
		if !grouped[col] {
			ordered = append(ordered, col)
		}
	}
	s.Columns = ordered
}

// ToURL converts the Query back to a URL string
func (s *Query) ToURL() string {
	u := &url.URL{Path: s.Path}
	q := u.Query()

	if s.View != "" {
		q.Set("view", s.View)
	}
	if s.Columns != nil {
		columnStrs := make([]string, 0, len(s.Columns))
		for _, col := range s.Columns {
			if width, hasWidth := s.ColumnWidths[col]; hasWidth {
				columnStrs = append(columnStrs, col+":"+strconv.Itoa(width))
			} else {
				columnStrs = append(columnStrs, col)
			}
		}
		q.Set("columns", strings.Join(columnStrs, ","))
	}
	if s.Grouped != nil {
		parts := make([]string, 0, len(s.Grouped))
		for _, g := range s.Grouped {
			part := g.Field
			if g.Descending() {
				part += ":desc"
			}
			if g.Collapsed {
				part += ":collapsed"
			}
			parts = append(parts, part)
		}
		q.Set("grouped", strings.Join(parts, ","))
	}
	if s.Filter != nil {
		if b, err := json.Marshal(s.Filter); err == nil {
			q.Set("filter", string(b))
		}
	}
	if s.Sort != nil {
		parts := make([]string, 0, len(s.Sort))
		for _, it := range s.Sort {
			parts = append(parts, it.Field+":"+string(it.Order))
		}
		q.Set("sort", strings.Join(parts, ","))
	}
	if s.Scroll > 0 {
		q.Set("scroll", strconv.Itoa(s.Scroll))
	}
	if s.Viewport > 0 {
		q.Set("viewport", strconv.Itoa(s.Viewport))
	}
	if s.Limit > 0 {
		q.Set("limit", strconv.Itoa(s.Limit))
	}
	if s.Format != "" {
		q.Set("format", s.Format)
	}

	u.RawQuery = q.Encode()
	return u.String()
}

// ToSafeURL converts the Query to a safehtml.URL
func (s *Query) ToSafeURL() safehtml.URL {
	return safehtml.URLSanitized(s.ToURL())
}

// IsColumnGrouped checks if a column is in the grouped columns list
func (s *Query) IsColumnGrouped(column string) bool {
	for _, g := range s.Grouped {
		if g.Field == column {
			return true
		}
	}
	return false
}

// WithGroupedColumnToggled returns a URL with the grouped column toggled.
// A grouped column is removed; otherwise it is appended to the grouping.
func (s *Query) WithGroupedColumnToggled(column string) safehtml.URL {
	newState := s.Clone()
	found := false
	newGrouped := make([]grouping.Field, 0, len(s.Grouped)+1)
	for _, g := range s.Grouped {
		if g.Field == column {
			found = true
		} else {
			newGrouped = append(newGrouped, g)
		}
	}
	if !found {
		newGrouped = append(newGrouped, grouping.Field{Field: column})
	}
	newState.Grouped = newGrouped
	newState.reorderColumns()
	return newState.ToSafeURL()
}

// WithSort returns a URL sorting by column, cycling asc -> desc -> unsorted
// when column is already the primary key.
func (s *Query) WithSort(column string) safehtml.URL {
	newState := s.Clone()
	var next []SortItem
	switch {
	case len(s.Sort) > 0 && s.Sort[0].Field == column && s.Sort[0].Order == Asc:
		next = []SortItem{NewSortItem(column, Desc)}
	case len(s.Sort) > 0 && s.Sort[0].Field == column:
		next = []SortItem{}
	default:
		next = []SortItem{NewSortItem(column, Asc)}
	}
	newState.Sort = next
	newState.Scroll = 0
	return newState.ToSafeURL()
}

// SortOrder returns the direction column is sorted in, or "".
func (s *Query) SortOrder(column string) Order {
	for _, it := range s.Sort {
		if it.Field == column {
			return it.Order
		}
	}
	return ""
}

// WithScroll returns a URL with a different scroll offset.
func (s *Query) WithScroll(offset int) safehtml.URL {
	newState := s.Clone()
	if offset < 0 {
		offset = 0
	}
	newState.Scroll = offset
	return newState.ToSafeURL()
}

// WithLimit returns a URL with a different row limit
func (s *Query) WithLimit(limit int) safehtml.URL {
	newState := s.Clone()
	newState.Limit = limit
	return newState.ToSafeURL()
}

// WithFormat returns a URL requesting a different output format.
func (s *Query) WithFormat(format string) safehtml.URL {
	newState := s.Clone()
	newState.Format = format
	return newState.ToSafeURL()
}
