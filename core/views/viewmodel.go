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

package views

import (
	"net/url"
	"sort"

	"github.com/google/safehtml"

	"github.com/google/tabula/core/aggregates"
	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/grouping"
	"github.com/google/tabula/core/query"
	"github.com/google/tabula/core/virtual"
)

// Viewport describes the visible part of the item list. Sizes share one
// unit: pixels, lines or rows.
type Viewport struct {
	ScrollOffset int
	// Height is the visible extent; <= 0 shows every item.
	Height    int
	RowHeight int
	// Overscan is the number of extra items on each side; 0 takes the
	// view's setting, a negative value materializes the viewport only.
	Overscan int
}

// TableViewModel contains the view formatted for template consumption
type TableViewModel struct {
	Name       string           `json:"name"`
	Title      string           `json:"title"`
	Columns    []ColumnHeader   `json:"columns"`
	Groups     []GroupHeader    `json:"groups,omitempty"`
	Items      []ItemView       `json:"items"`
	Summaries  []SummaryCell    `json:"summaries,omitempty"`
	Window     virtual.Window   `json:"window"`
	TotalItems int              `json:"totalItems"` // Header and row lines before windowing
	TotalRows  int              `json:"totalRows"`  // Rows fetched from the source
	Selected   []string         `json:"selected,omitempty"`
	Grouped    bool             `json:"grouped"`
	Loaded     bool             `json:"loaded"`
	Pagination Pagination       `json:"pagination"`
	Sort       []query.SortItem `json:"sort,omitempty"`

	// Navigation, set by WithLinks
	CurrentURL safehtml.URL `json:"-"`
	PrevURL    safehtml.URL `json:"-"`
	NextURL    safehtml.URL `json:"-"`
	HasPrev    bool         `json:"-"`
	HasNext    bool         `json:"-"`
}

// ColumnHeader contains information about a column for UI display
type ColumnHeader struct {
	Key       string               `json:"key"`
	Header    string               `json:"header"`
	Type      columns.SemanticType `json:"type"`
	Align     columns.Align        `json:"align"`
	Sortable  bool                 `json:"sortable"`
	Pinned    columns.Pin          `json:"pinned,omitempty"`
	Width     int                  `json:"width,omitempty"`
	Wrap      bool                 `json:"wrap,omitempty"`
	SortOrder query.Order          `json:"sortOrder,omitempty"` // Empty when not sorted
	IsGrouped bool                 `json:"grouped,omitempty"`

	SortURL  safehtml.URL `json:"-"` // URL cycling the sort on this column
	GroupURL safehtml.URL `json:"-"` // URL toggling grouping by this column
}

// GroupHeader is the header line of one group
type GroupHeader struct {
	Index     int           `json:"index"`
	Key       string        `json:"key"`
	Label     string        `json:"label"`
	Count     int           `json:"count"`
	Collapsed bool          `json:"collapsed"`
	Summaries []SummaryCell `json:"summaries,omitempty"`

	ToggleURL safehtml.URL `json:"-"` // POST target collapsing or expanding the group
}

// ItemView is one materialized line of the window: a group header or a row.
type ItemView struct {
	Index    int                    `json:"index"` // Position in the flattened item list
	Start    int                    `json:"start"`
	Header   bool                   `json:"header,omitempty"`
	Group    int                    `json:"group"`
	RowKey   string                 `json:"rowKey,omitempty"`
	Selected bool                   `json:"selected,omitempty"`
	Cells    []columns.DisplayValue `json:"cells,omitempty"`

	SelectURL safehtml.URL `json:"-"` // POST target toggling the selection
}

// SummaryCell is the aggregate shown under one column. Text is empty for
// columns without a summary.
type SummaryCell struct {
	Key    string          `json:"key"`
	Type   aggregates.Type `json:"type,omitempty"`
	Symbol string          `json:"symbol,omitempty"`
	Text   string          `json:"text,omitempty"`
	Value  *float64        `json:"value,omitempty"`
}

// ViewModel derives the renderable view for vp.
func (s *Session) ViewModel(vp Viewport) TableViewModel {
	s.mu.Lock()
	defer s.mu.Unlock()

	defs := s.columnsLocked()
	fields := s.cfg.Grouping.Fields
	sortItems := s.cfg.SortItems()

	vm := TableViewModel{
		Name:       s.cfg.Name,
		Title:      s.cfg.DisplayTitle(),
		Columns:    make([]ColumnHeader, len(defs)),
		Items:      []ItemView{},
		TotalRows:  len(s.rows),
		Grouped:    len(fields) > 0,
		Loaded:     s.loaded,
		Pagination: s.cfg.Pagination,
		Sort:       sortItems,
	}
	for k := range s.selected {
		vm.Selected = append(vm.Selected, k)
	}
	sort.Strings(vm.Selected)

	orders := make(map[string]query.Order, len(sortItems))
	for _, it := range sortItems {
		orders[it.Field] = it.Order
	}
	grouped := make(map[string]bool, len(fields))
	for _, f := range fields {
		grouped[f.Field] = true
	}
	for i, d := range defs {
		vm.Columns[i] = ColumnHeader{
			Key:       d.Key,
			Header:    d.Header,
			Type:      d.Type,
			Align:     d.Align,
			Sortable:  d.Sortable,
			Pinned:    d.Pinned,
			Width:     d.Width,
			Wrap:      d.Wrap,
			SortOrder: orders[d.Key],
			IsGrouped: grouped[d.Key],
		}
	}

	specs := aggregates.SpecsFromColumns(defs)
	var items []grouping.Item
	var groups []grouping.Entry
	if vm.Grouped {
		groups = grouping.Group(s.rows, fields, s.collapse)
		items = grouping.Flatten(groups)
		perGroup, total := aggregates.SummarizeGroups(specs, groups)
		vm.Groups = make([]GroupHeader, len(groups))
		for i, g := range groups {
			vm.Groups[i] = GroupHeader{
				Index:     i,
				Key:       g.Key,
				Label:     g.Label,
				Count:     g.Length(),
				Collapsed: g.Collapsed,
				Summaries: summaryCells(defs, perGroup[i], len(specs) > 0),
			}
		}
		vm.Summaries = summaryCells(defs, total, len(specs) > 0)
	} else {
		items = grouping.FlattenRows(s.rows)
		vm.Summaries = summaryCells(defs, aggregates.SummarizeGroup(specs, s.rows), len(specs) > 0)
	}
	vm.TotalItems = len(items)

	rowHeight := vp.RowHeight
	if rowHeight <= 0 {
		rowHeight = max(s.cfg.Virtual.RowHeight, 1)
	}
	overscan := vp.Overscan
	switch {
	case overscan < 0:
		overscan = 0
	case overscan == 0:
		overscan = s.cfg.Virtual.Overscan
	}
	height := vp.Height
	if height <= 0 {
		height = len(items) * rowHeight
	}
	vm.Window = virtual.New(len(items), rowHeight, vp.ScrollOffset, height, overscan)

	for _, r := range vm.Window.Rows {
		item := items[r.Index]
		view := ItemView{Index: r.Index, Start: r.Start, Header: item.Header, Group: item.Group}
		if !item.Header {
			view.RowKey = s.rowKeyLocked(item.Row)
			view.Selected = s.selected[view.RowKey]
			view.Cells = make([]columns.DisplayValue, len(defs))
			for i, d := range defs {
				view.Cells[i] = d.Cell(item.Row)
			}
		}
		vm.Items = append(vm.Items, view)
	}
	return vm
}

// summaryCells aligns results with the columns. It returns nil when no
// column has a summary.
func summaryCells(defs []columns.ColumnDef, results []aggregates.Result, enabled bool) []SummaryCell {
	if !enabled {
		return nil
	}
	byKey := make(map[string]aggregates.Result, len(results))
	for _, r := range results {
		byKey[r.Key] = r
	}
	cells := make([]SummaryCell, len(defs))
	for i, d := range defs {
		cells[i] = SummaryCell{Key: d.Key}
		if r, ok := byKey[d.Key]; ok {
			cells[i].Type = r.Type
			cells[i].Symbol = r.Type.Symbol()
			cells[i].Text = r.Format()
			cells[i].Value = r.Value
		}
	}
	return cells
}

// WithLinks fills the navigation URLs from the query the view was
// requested with.
func (vm *TableViewModel) WithLinks(q *query.Query) {
	if q == nil {
		return
	}
	vm.CurrentURL = q.ToSafeURL()
	for i := range vm.Columns {
		c := &vm.Columns[i]
		if c.Sortable {
			c.SortURL = q.WithSort(c.Key)
		}
		c.GroupURL = q.WithGroupedColumnToggled(c.Key)
	}
	for i := range vm.Groups {
		vm.Groups[i].ToggleURL = safehtml.URLSanitized(q.Path + "/groups/toggle?key=" + url.QueryEscape(vm.Groups[i].Key))
	}
	for i := range vm.Items {
		if !vm.Items[i].Header {
			vm.Items[i].SelectURL = safehtml.URLSanitized(q.Path + "/select?row=" + url.QueryEscape(vm.Items[i].RowKey))
		}
	}
	if q.Viewport > 0 {
		vm.HasPrev = q.Scroll > 0
		vm.HasNext = q.Scroll+q.Viewport < vm.TotalItems
		vm.PrevURL = q.WithScroll(q.Scroll - q.Viewport)
		vm.NextURL = q.WithScroll(q.Scroll + q.Viewport)
	}
}

// Header returns the group header of a header item.
func (vm *TableViewModel) Header(item ItemView) GroupHeader {
	if !item.Header || item.Group < 0 || item.Group >= len(vm.Groups) {
		return GroupHeader{}
	}
	return vm.Groups[item.Group]
}
