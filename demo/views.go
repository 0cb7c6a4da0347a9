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

package demo

import (
	"github.com/google/tabula/core/grouping"
	"github.com/google/tabula/core/views"
)

// regionLink opens the regions view filtered to the row's region.
const regionLink = `/views/regions?format=html&filter=%5B%22region%22%2C%22%3D%22%2C%22{region}%22%5D`

// Views returns the demo view configs.
func Views() []views.ViewConfig {
	return []views.ViewConfig{
		{
			Name:   "orders",
			Title:  "Orders",
			Source: SourceName,
			Columns: []any{
				"order_id",
				"status",
				map[string]any{"field": "region", "link": regionLink},
				"category",
				map[string]any{"field": "amount", "summary": "sum"},
				map[string]any{"field": "is_paid", "summary": "count"},
				"created_at",
			},
			Sort:       []any{map[string]any{"field": "created_at", "order": "desc"}},
			RowKey:     "order_id",
			Grouping:   views.Grouping{Fields: []grouping.Field{{Field: "status"}}},
			Pagination: views.Pagination{PageSize: 25, PageSizeOptions: []int{10, 25, 50}},
		},
		{
			Name:   "regions",
			Title:  "Regions",
			Source: SourceName,
			Columns: []any{
				"region",
				"capital",
				map[string]any{"field": "population", "summary": "sum"},
				"area_km2",
				"timezone",
				map[string]any{"field": "gdp_billions", "summary": "avg"},
			},
			RowKey: "region",
		},
		{
			Name:   "transactions",
			Title:  "Transactions",
			Source: SourceName,
			Columns: []any{
				map[string]any{"field": "txn_id", "label": "Transaction", "pinned": "left"},
				"user",
				"product",
				"category",
				map[string]any{"field": "amount", "summary": "avg"},
				"status",
				"is_flagged",
				"created_at",
			},
			RowKey:  "txn_id",
			Virtual: views.Virtual{RowHeight: 1, Overscan: 10},
		},
	}
}
