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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/grouping"
	"github.com/google/tabula/core/query"
	"github.com/google/tabula/datasources"
)

// ErrMissingTransport is returned when a view has no row source to fetch from.
var ErrMissingTransport = errors.New("view has no row source")

// DefaultRowKey is the field identifying rows for selection when a view
// declares none.
const DefaultRowKey = "id"

// sampleSize bounds the rows used for column type inference.
const sampleSize = 100

// Session is one open view: its config, the fetched rows and the state the
// user changes while browsing. It is safe for concurrent use.
type Session struct {
	mu sync.Mutex

	cfg     ViewConfig
	source  datasources.RowSource
	builder *columns.Builder
	logger  *slog.Logger

	schema *datasources.Schema
	rows   []columns.Row
	loaded bool

	// Column definitions, nil until built for the current specs and schema.
	defs []columns.ColumnDef

	collapse grouping.CollapseState
	selected map[string]bool

	// Last-request-wins bookkeeping.
	seq    uint64
	cancel context.CancelFunc
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRegistry sets the cell renderer registry columns are built with.
func WithRegistry(registry columns.CellRendererRegistry) SessionOption {
	return func(s *Session) {
		s.builder = columns.NewBuilder(registry)
	}
}

// NewSession opens a view over source. source may be nil, in which case
// Refresh fails with ErrMissingTransport.
func NewSession(cfg ViewConfig, source datasources.RowSource, opts ...SessionOption) *Session {
	s := &Session{
		cfg:      cfg,
		source:   source,
		builder:  columns.NewBuilder(nil),
		logger:   slog.Default(),
		collapse: grouping.NewCollapseState(),
		selected: map[string]bool{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("view", cfg.Name)
	return s
}

// Config returns the current view config.
func (s *Session) Config() ViewConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Loaded reports whether a fetch has completed.
func (s *Session) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Rows returns the fetched rows. The slice is replaced, never modified, by
// later fetches.
func (s *Session) Rows() []columns.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows
}

// Columns returns the column definitions for the current config and schema.
func (s *Session) Columns() []columns.ColumnDef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.columnsLocked()
}

// findParams must be called with mu held.
func (s *Session) findParams() datasources.FindParams {
	return datasources.FindParams{
		Top:     s.cfg.Limit,
		Filter:  s.cfg.Filter,
		OrderBy: query.OrderBy(s.cfg.SortItems()),
	}
}

// Refresh fetches schema and rows for the current config. A refresh
// started while another is in flight cancels it; whichever response
// belongs to an older request is discarded.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.source == nil {
		s.mu.Unlock()
		return fmt.Errorf("view %q: %w", s.cfg.Name, ErrMissingTransport)
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	seq := s.seq
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	source, object, params := s.source, s.cfg.ObjectName(), s.findParams()
	s.mu.Unlock()
	defer cancel()

	var schema *datasources.Schema
	var result *datasources.FindResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		schema, err = source.GetSchema(gctx, object)
		return err
	})
	g.Go(func() error {
		var err error
		result, err = source.Find(gctx, object, params)
		return err
	})
	err := g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		s.logger.Debug("discarding stale response", "seq", seq, "latest", s.seq)
		return nil
	}
	if err != nil {
		return fmt.Errorf("refresh view %q: %w", s.cfg.Name, err)
	}
	// Inference samples the rows, so definitions built without any are stale.
	if len(s.rows) == 0 || !reflect.DeepEqual(schema, s.schema) {
		s.defs = nil
	}
	s.schema = schema
	s.rows = result.Data
	s.loaded = true
	s.logger.Debug("view refreshed", "object", object, "rows", len(result.Data))
	return nil
}

// SetConfig replaces the whole config, as when its file is reloaded.
// Collapse overrides and the selection are kept.
func (s *Session) SetConfig(cfg ViewConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	s.defs = nil
}

// Fork returns a new session over the same source with cfg in place of
// the config. It starts with this session's collapse overrides and
// selection but fetches and refreshes on its own, so concurrent forks
// never see each other's config or rows.
func (s *Session) Fork(cfg ViewConfig) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &Session{
		cfg:      cfg,
		source:   s.source,
		builder:  s.builder,
		logger:   s.logger,
		collapse: s.collapse,
		selected: s.selected,
	}
}

// SetSource rebinds the session to another row source.
func (s *Session) SetSource(source datasources.RowSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = source
}

// SetFilter replaces the filter. It takes effect on the next Refresh.
func (s *Session) SetFilter(group query.ConditionGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Filter = group.Spec()
}

// SetFilterSpec replaces the filter from its wire form. Malformed entries
// are dropped and logged; the remaining conditions are stored normalized.
func (s *Session) SetFilterSpec(raw any) query.ConditionGroup {
	group, diags := query.ParseSpecFilterReport(raw)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range diags {
		s.logger.Warn("malformed filter entry dropped", "path", d.Path, "reason", d.Reason)
	}
	s.cfg.Filter = group.Spec()
	return group
}

// SetSort replaces the sort keys. It takes effect on the next Refresh.
func (s *Session) SetSort(items []query.SortItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Sort = query.ToSpecSort(items)
}

// SetGrouping replaces the grouping fields. Collapse overrides survive.
func (s *Session) SetGrouping(fields []grouping.Field) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Grouping.Fields = append([]grouping.Field{}, fields...)
}

// SetColumns replaces the column specs in their wire form.
func (s *Session) SetColumns(specs []any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Columns = specs
	s.defs = nil
}

// ToggleGroup flips the collapsed state of the group with key and returns
// the new state.
func (s *Session) ToggleGroup(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collapse = s.collapse.Toggle(key, s.cfg.Grouping.Fields)
	return s.collapse.IsCollapsed(key, s.cfg.Grouping.Fields)
}

// ToggleSelect flips the selection of the row with rowKey and returns
// whether it is now selected.
func (s *Session) ToggleSelect(rowKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make(map[string]bool, len(s.selected)+1)
	for k := range s.selected {
		next[k] = true
	}
	on := !next[rowKey]
	if on {
		next[rowKey] = true
	} else {
		delete(next, rowKey)
	}
	s.selected = next
	return on
}

// Selected returns the selected row keys, sorted.
func (s *Session) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.selected))
	for k := range s.selected {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ClearSelection deselects every row.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = map[string]bool{}
}

// RowKey returns the selection key of row.
func (s *Session) RowKey(row columns.Row) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rowKeyLocked(row)
}

func (s *Session) rowKeyLocked(row columns.Row) string {
	field := s.cfg.RowKey
	if field == "" {
		field = DefaultRowKey
	}
	return columns.Stringify(row[field])
}

func (s *Session) columnsLocked() []columns.ColumnDef {
	if s.defs != nil {
		return s.defs
	}
	var fields map[string]columns.FieldDescriptor
	var order []string
	if s.schema != nil {
		fields, order = s.schema.Fields, s.schema.Order
	}
	sample := s.rows
	if len(sample) > sampleSize {
		sample = sample[:sampleSize]
	}
	specs := s.cfg.ColumnSpecs()
	if len(specs) == 0 {
		if len(order) == 0 {
			return nil
		}
		s.defs = s.builder.BuildFromSchema(order, fields, sample)
	} else {
		s.defs = s.builder.Build(specs, fields, sample)
	}
	return s.defs
}
