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

// Package datasources provides the row sources a view reads from: an
// in-memory store, a directory of CSV files and any database/sql database.
package datasources

import (
	"context"
	"errors"
	"sort"

	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/query"
)

// ErrObjectNotFound is returned for an object a source does not have.
var ErrObjectNotFound = errors.New("object not found")

// FindParams narrows a Find request. Filter is the wire filter form and
// OrderBy the "field desc,other" form.
type FindParams struct {
	Select  []string         `json:"select,omitempty"`
	Top     int              `json:"top,omitempty"`
	Filter  query.SpecFilter `json:"filter,omitempty"`
	OrderBy string           `json:"orderby,omitempty"`
}

// FindResult holds the rows of a Find request.
type FindResult struct {
	Data []columns.Row `json:"data"`
}

// Schema describes an object's fields. Order lists field names in their
// natural order.
type Schema struct {
	Fields map[string]columns.FieldDescriptor `json:"fields"`
	Order  []string                           `json:"order"`
}

// RowSource is the data-fetch capability a view session depends on.
type RowSource interface {
	Find(ctx context.Context, object string, params FindParams) (*FindResult, error)
	GetSchema(ctx context.Context, object string) (*Schema, error)
}

// Lister is implemented by sources that can enumerate their objects.
type Lister interface {
	Objects(ctx context.Context) ([]string, error)
}

// inferSchema fills descriptors for fields that have none from a row sample.
func inferSchema(order []string, fields map[string]columns.FieldDescriptor, rows []columns.Row) *Schema {
	schema := &Schema{Fields: make(map[string]columns.FieldDescriptor, len(order)), Order: append([]string{}, order...)}
	sample := rows
	if len(sample) > 100 {
		sample = sample[:100]
	}
	for _, name := range order {
		fd, ok := fields[name]
		if !ok || fd.Type == "" {
			t, options := columns.InferField(name, columns.SampleField(sample, name), columns.DefaultSelectThreshold)
			fd.Name = name
			fd.Type = string(t)
			if fd.Options == nil {
				fd.Options = options
			}
		}
		schema.Fields[name] = fd
	}
	return schema
}

// fieldOrder returns the keys of rows in first-seen order, sorting the keys
// of each row since map order is random.
func fieldOrder(rows []columns.Row) []string {
	seen := make(map[string]bool)
	var order []string
	for _, row := range rows {
		keys := make([]string, 0, len(row))
		for k := range row {
			if !seen[k] {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			seen[k] = true
			order = append(order, k)
		}
	}
	return order
}

// applyParams evaluates params over rows in memory: filter, order-by, top,
// then projection. The input slice is not modified.
func applyParams(rows []columns.Row, params FindParams) []columns.Row {
	group := query.ParseSpecFilter(params.Filter)
	out := make([]columns.Row, 0, len(rows))
	for _, row := range rows {
		if query.Match(group, row) {
			out = append(out, row)
		}
	}

	if items := query.ParseOrderBy(params.OrderBy); len(items) > 0 {
		collator := columns.NewCollator()
		sort.SliceStable(out, func(i, j int) bool {
			for _, it := range items {
				a, b := out[i][it.Field], out[j][it.Field]
				// Blank values stay last in both directions.
				if columns.IsBlank(a) != columns.IsBlank(b) {
					return columns.IsBlank(b)
				}
				cmp := columns.CompareValues(collator, a, b)
				if cmp == 0 {
					continue
				}
				if it.Order == query.Desc {
					return cmp > 0
				}
				return cmp < 0
			}
			return false
		})
	}

	if params.Top > 0 && len(out) > params.Top {
		out = out[:params.Top]
	}
	if len(params.Select) > 0 {
		projected := make([]columns.Row, len(out))
		for i, row := range out {
			p := make(columns.Row, len(params.Select))
			for _, f := range params.Select {
				p[f] = row[f]
			}
			projected[i] = p
		}
		out = projected
	}
	return out
}
