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

package grouping

import "github.com/google/tabula/core/columns"

// Item is one line of the display list: a group header or a row.
type Item struct {
	Header bool
	// Group indexes the groups slice; -1 for ungrouped rows.
	Group int
	Row   columns.Row
}

// Flatten produces the display list: each group header followed by the rows
// of expanded groups.
func Flatten(groups []Entry) []Item {
	n := len(groups)
	for _, g := range groups {
		if !g.Collapsed {
			n += len(g.Rows)
		}
	}
	items := make([]Item, 0, n)
	for i, g := range groups {
		items = append(items, Item{Header: true, Group: i})
		if g.Collapsed {
			continue
		}
		for _, row := range g.Rows {
			items = append(items, Item{Group: i, Row: row})
		}
	}
	return items
}

// FlattenRows wraps ungrouped rows as display items.
func FlattenRows(rows []columns.Row) []Item {
	items := make([]Item, len(rows))
	for i, row := range rows {
		items[i] = Item{Group: -1, Row: row}
	}
	return items
}
