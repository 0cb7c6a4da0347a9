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
	"net/url"
	"testing"

	"github.com/google/tabula/core/grouping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustQuery(t *testing.T, raw string) *Query {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return NewQuery(u)
}

func TestNewQuery(t *testing.T) {
	q := mustQuery(t, `/views/orders?columns=status,region:120,amount&grouped=region:desc:collapsed&sort=amount:desc,name&scroll=40&viewport=20&limit=100&format=HTML&filter=["status","=","open"]`)

	assert.Equal(t, "/views/orders", q.Path)
	assert.Equal(t, []string{"region", "status", "amount"}, q.Columns)
	assert.Equal(t, 120, q.ColumnWidths["region"])
	assert.Equal(t, []grouping.Field{{Field: "region", Order: "desc", Collapsed: true}}, q.Grouped)
	assert.Equal(t, SpecFilter{"status", "=", "open"}, q.Filter)
	require.Len(t, q.Sort, 2)
	assert.Equal(t, Desc, q.Sort[0].Order)
	assert.Equal(t, Asc, q.Sort[1].Order)
	assert.Equal(t, 40, q.Scroll)
	assert.Equal(t, 20, q.Viewport)
	assert.Equal(t, 100, q.Limit)
	assert.Equal(t, "html", q.Format)
}

func TestNewQueryUnsetParameters(t *testing.T) {
	q := mustQuery(t, "/views/orders?scroll=-5&filter=not-json")
	assert.Nil(t, q.Columns)
	assert.Nil(t, q.Grouped)
	assert.Nil(t, q.Sort)
	assert.Equal(t, SpecFilter{}, q.Filter)
	assert.Equal(t, 0, q.Scroll)
}

// TestColumnReorderingOnGrouping tests that columns are reordered when grouping is toggled
func TestColumnReorderingOnGrouping(t *testing.T) {
	t.Run("Group middle column", func(t *testing.T) {
		q := mustQuery(t, "/views/test?columns=status,region,category,amount")
		next := mustQuery(t, q.WithGroupedColumnToggled("region").String())

		assert.Equal(t, []string{"region"}, groupedFields(next))
		assert.Equal(t, []string{"region", "status", "category", "amount"}, next.Columns)
	})

	t.Run("Group multiple columns", func(t *testing.T) {
		q := mustQuery(t, "/views/test?columns=status,region,category,amount")
		q1 := mustQuery(t, q.WithGroupedColumnToggled("status").String())
		q2 := mustQuery(t, q1.WithGroupedColumnToggled("category").String())

		assert.Equal(t, []string{"status", "category"}, groupedFields(q2))
		assert.Equal(t, []string{"status", "category", "region", "amount"}, q2.Columns)
	})

	t.Run("Ungroup middle grouped column", func(t *testing.T) {
		q := mustQuery(t, "/views/test?columns=status,region,category,amount&grouped=status,region,category")
		next := mustQuery(t, q.WithGroupedColumnToggled("region").String())

		assert.Equal(t, []string{"status", "category"}, groupedFields(next))
		assert.Equal(t, []string{"status", "category", "region", "amount"}, next.Columns)
	})
}

func groupedFields(q *Query) []string {
	out := make([]string, len(q.Grouped))
	for i, g := range q.Grouped {
		out[i] = g.Field
	}
	return out
}

func TestWithSortCycles(t *testing.T) {
	q := mustQuery(t, "/views/test")
	asc := mustQuery(t, q.WithSort("amount").String())
	assert.Equal(t, Asc, asc.SortOrder("amount"))

	desc := mustQuery(t, asc.WithSort("amount").String())
	assert.Equal(t, Desc, desc.SortOrder("amount"))

	none := mustQuery(t, desc.WithSort("amount").String())
	assert.NotNil(t, none.Sort)
	assert.Empty(t, none.Sort)
}

func TestQueryRoundTrip(t *testing.T) {
	q := mustQuery(t, `/views/test?grouped=a:desc,b&filter=["or",["x",">",1]]&scroll=3&format=text`)
	back := mustQuery(t, q.ToURL())
	assert.Equal(t, q.Grouped, back.Grouped)
	assert.Equal(t, q.Filter, back.Filter)
	assert.Equal(t, 3, back.Scroll)
	assert.Equal(t, "text", back.Format)

	scrolled := mustQuery(t, q.WithScroll(-1).String())
	assert.Equal(t, 0, scrolled.Scroll)
}

func TestCloneIsDeep(t *testing.T) {
	q := mustQuery(t, "/views/test?columns=a,b&grouped=a")
	c := q.Clone()
	c.Columns[0] = "z"
	c.Grouped[0].Field = "z"
	c.ColumnWidths["a"] = 9
	assert.Equal(t, "a", q.Columns[0])
	assert.Equal(t, "a", q.Grouped[0].Field)
	assert.NotContains(t, q.ColumnWidths, "a")
}
