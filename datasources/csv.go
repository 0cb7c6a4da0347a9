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

package datasources

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/tabula/core/csvimport"
)

// CSVSource serves one object per *.csv file in a directory. Files are
// read lazily on first access and cached until invalidated.
//
// Header names become field names; types are detected per file.
type CSVSource struct {
	dir     string
	options csvimport.ImportOptions

	mu     sync.RWMutex
	tables map[string]*memTable
}

// NewCSVSource creates a source over dir.
func NewCSVSource(dir string, options csvimport.ImportOptions) *CSVSource {
	return &CSVSource{dir: dir, options: options, tables: make(map[string]*memTable)}
}

// Dir is the directory the source reads.
func (s *CSVSource) Dir() string {
	return s.dir
}

func (s *CSVSource) load(object string) (*memTable, error) {
	s.mu.RLock()
	if t, ok := s.tables[object]; ok {
		s.mu.RUnlock()
		return t, nil
	}
	s.mu.RUnlock()

	if object == "" || strings.ContainsAny(object, `/\`) || strings.HasPrefix(object, ".") {
		return nil, fmt.Errorf("%w: %q", ErrObjectNotFound, object)
	}
	path := filepath.Join(s.dir, object+".csv")
	table, err := csvimport.ImportFromFile(path, s.options)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrObjectNotFound, object)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	t := &memTable{schema: inferSchema(table.Order, table.Fields, table.Rows), rows: table.Rows}

	s.mu.Lock()
	s.tables[object] = t
	s.mu.Unlock()
	return t, nil
}

// Find implements RowSource.
func (s *CSVSource) Find(ctx context.Context, object string, params FindParams) (*FindResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := s.load(object)
	if err != nil {
		return nil, err
	}
	return &FindResult{Data: applyParams(t.rows, params)}, nil
}

// GetSchema implements RowSource.
func (s *CSVSource) GetSchema(ctx context.Context, object string) (*Schema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := s.load(object)
	if err != nil {
		return nil, err
	}
	return t.schema, nil
}

// Objects implements Lister.
func (s *CSVSource) Objects(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			names = append(names, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
		}
	}
	sort.Strings(names)
	return names, nil
}

// Invalidate drops a cached object, forcing a reload on next access.
func (s *CSVSource) Invalidate(object string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tables, object)
}

// InvalidateAll drops every cached object.
func (s *CSVSource) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = make(map[string]*memTable)
}
