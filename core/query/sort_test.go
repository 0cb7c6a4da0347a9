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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldsAndOrders(items []SortItem) [][2]string {
	out := make([][2]string, len(items))
	for i, it := range items {
		out[i] = [2]string{it.Field, string(it.Order)}
	}
	return out
}

func TestToSortItems(t *testing.T) {
	assert.Empty(t, ToSortItems(nil))
	assert.Empty(t, ToSortItems("amount"))
	assert.Empty(t, ToSortItems(map[string]any{"field": "x"}))

	items := ToSortItems([]any{
		map[string]any{"field": "a"},
		map[string]any{"field": "b", "direction": "desc"},
		map[string]any{"field": "c", "order": "asc", "direction": "desc"},
		map[string]any{"field": "d", "order": "DESC"},
		map[string]any{"order": "desc"},
		"e desc",
	})
	assert.Equal(t, [][2]string{
		{"a", "asc"}, {"b", "desc"}, {"c", "asc"}, {"d", "desc"}, {"e", "desc"},
	}, fieldsAndOrders(items))
	for _, it := range items {
		assert.NotEmpty(t, it.ID)
	}
}

func TestToSpecSort(t *testing.T) {
	items := []SortItem{NewSortItem("a", Desc), NewSortItem("b", ""), {Field: ""}}
	assert.Equal(t, []any{
		map[string]any{"field": "a", "order": "desc"},
		map[string]any{"field": "b", "order": "asc"},
	}, ToSpecSort(items))

	back := ToSortItems(ToSpecSort(items))
	assert.Equal(t, [][2]string{{"a", "desc"}, {"b", "asc"}}, fieldsAndOrders(back))
}

func TestOrderBy(t *testing.T) {
	items := []SortItem{NewSortItem("amount", Desc), NewSortItem("name", Asc)}
	assert.Equal(t, "amount desc,name", OrderBy(items))

	parsed := ParseOrderBy("amount desc, -name ,id,, ")
	require.Len(t, parsed, 3)
	assert.Equal(t, [][2]string{{"amount", "desc"}, {"name", "desc"}, {"id", "asc"}}, fieldsAndOrders(parsed))
	assert.Empty(t, ParseOrderBy(""))
}
