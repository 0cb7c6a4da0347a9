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
	"fmt"
	"sort"
	"sync"

	"github.com/google/tabula/core/columns"
)

// MemorySource serves rows held in memory.
type MemorySource struct {
	mu     sync.RWMutex
	tables map[string]*memTable
}

type memTable struct {
	schema *Schema
	rows   []columns.Row
}

// NewMemorySource creates an empty in-memory source.
func NewMemorySource() *MemorySource {
	return &MemorySource{tables: make(map[string]*memTable)}
}

// AddTable registers (or replaces) an object. order may be nil, in which
// case it is derived from the rows. Fields without a descriptor are
// inferred from the rows.
func (s *MemorySource) AddTable(name string, order []string, fields map[string]columns.FieldDescriptor, rows []columns.Row) {
	if order == nil {
		order = fieldOrder(rows)
	}
	t := &memTable{schema: inferSchema(order, fields, rows), rows: rows}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[name] = t
}

// RemoveTable drops an object.
func (s *MemorySource) RemoveTable(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tables, name)
}

func (s *MemorySource) table(object string) (*memTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[object]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrObjectNotFound, object)
	}
	return t, nil
}

// Find implements RowSource.
func (s *MemorySource) Find(ctx context.Context, object string, params FindParams) (*FindResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := s.table(object)
	if err != nil {
		return nil, err
	}
	return &FindResult{Data: applyParams(t.rows, params)}, nil
}

// GetSchema implements RowSource.
func (s *MemorySource) GetSchema(ctx context.Context, object string) (*Schema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := s.table(object)
	if err != nil {
		return nil, err
	}
	return t.schema, nil
}

// Objects implements Lister.
func (s *MemorySource) Objects(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
