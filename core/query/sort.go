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
	"strings"

	"github.com/google/uuid"
)

// Order is a sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// ParseOrder reads a direction token. Anything but desc/descending is asc.
func ParseOrder(s string) Order {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "desc", "descending":
		return Desc
	}
	return Asc
}

// SortItem is one sort key.
type SortItem struct {
	ID    string `json:"id"`
	Field string `json:"field"`
	Order Order  `json:"order"`
}

// NewSortItem returns a sort item with a fresh id.
func NewSortItem(field string, order Order) SortItem {
	return SortItem{ID: uuid.NewString(), Field: field, Order: order}
}

// ToSortItems converts the wire sort list. Each entry's order is read from
// "order", then "direction", defaulting to asc. Non-array input and entries
// without a field are ignored.
func ToSortItems(raw any) []SortItem {
	if items, ok := raw.([]SortItem); ok {
		return items
	}
	list, ok := asList(raw)
	if !ok {
		return []SortItem{}
	}
	items := make([]SortItem, 0, len(list))
	for _, entry := range list {
		switch e := entry.(type) {
		case SortItem:
			if e.Field != "" {
				items = append(items, e)
			}
		case string:
			if item, ok := parseOrderTerm(e); ok {
				items = append(items, item)
			}
		case map[string]any:
			field, _ := e["field"].(string)
			if strings.TrimSpace(field) == "" {
				continue
			}
			order, _ := e["order"].(string)
			if order == "" {
				order, _ = e["direction"].(string)
			}
			item := NewSortItem(field, ParseOrder(order))
			if id, ok := e["id"].(string); ok && id != "" {
				item.ID = id
			}
			items = append(items, item)
		}
	}
	return items
}

// ToSpecSort serializes sort items to the wire form [{field, order}].
func ToSpecSort(items []SortItem) []any {
	out := make([]any, 0, len(items))
	for _, it := range items {
		if it.Field == "" {
			continue
		}
		order := it.Order
		if order != Desc {
			order = Asc
		}
		out = append(out, map[string]any{"field": it.Field, "order": string(order)})
	}
	return out
}

// OrderBy renders items as a transport orderby string: "amount desc,name".
func OrderBy(items []SortItem) string {
	terms := make([]string, 0, len(items))
	for _, it := range items {
		if it.Field == "" {
			continue
		}
		if it.Order == Desc {
			terms = append(terms, it.Field+" desc")
		} else {
			terms = append(terms, it.Field)
		}
	}
	return strings.Join(terms, ",")
}

// ParseOrderBy is the inverse of OrderBy. A leading "-" also means desc.
func ParseOrderBy(s string) []SortItem {
	items := []SortItem{}
	for _, term := range strings.Split(s, ",") {
		if item, ok := parseOrderTerm(term); ok {
			items = append(items, item)
		}
	}
	return items
}

func parseOrderTerm(term string) (SortItem, bool) {
	parts := strings.Fields(term)
	if len(parts) == 0 {
		return SortItem{}, false
	}
	field, order := parts[0], Asc
	if strings.HasPrefix(field, "-") {
		field, order = strings.TrimPrefix(field, "-"), Desc
	}
	if len(parts) > 1 {
		order = ParseOrder(parts[1])
	}
	if field == "" {
		return SortItem{}, false
	}
	return NewSortItem(field, order), true
}
