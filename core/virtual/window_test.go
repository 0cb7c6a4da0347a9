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

package virtual

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeWindowExample(t *testing.T) {
	rows := ComputeWindow(1000, 40, 2000, 600, 5)
	require.NotEmpty(t, rows)

	first, last := rows[0], rows[len(rows)-1]
	assert.Equal(t, 45, first.Index)
	assert.Equal(t, 69, last.Index)
	assert.LessOrEqual(t, first.Start, 2000-5*40)
	assert.GreaterOrEqual(t, last.Start+last.Size, 2600+5*40)

	for i, r := range rows {
		assert.Equal(t, first.Index+i, r.Index, "window must be contiguous")
		assert.Equal(t, r.Index*40, r.Start)
		assert.Equal(t, 40, r.Size)
	}
	assert.Equal(t, 40000, TotalSize(1000, 40))
}

func TestComputeWindowBounds(t *testing.T) {
	tests := []struct {
		name                                    string
		count, size, offset, viewport, overscan int
		wantFirst, wantLast                     int
	}{
		{"top", 100, 10, 0, 50, 3, 0, 8},
		{"bottom", 100, 10, 950, 50, 3, 92, 100},
		{"past end", 100, 10, 5000, 50, 0, 0, 0},
		{"negative offset", 100, 10, -100, 50, 2, 0, 0},
		{"short list", 3, 10, 0, 500, 10, 0, 3},
		{"partial rows", 100, 10, 15, 20, 0, 1, 4},
		{"no rows", 0, 10, 0, 50, 5, 0, 0},
		{"zero size", 10, 0, 0, 50, 5, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New(tt.count, tt.size, tt.offset, tt.viewport, tt.overscan)
			first, last := w.Range()
			assert.Equal(t, tt.wantFirst, first)
			assert.Equal(t, tt.wantLast, last)
			assert.Len(t, w.Rows, last-first)
			for _, r := range w.Rows {
				assert.GreaterOrEqual(t, r.Index, 0)
				assert.Less(t, r.Index, tt.count)
			}
		})
	}
}

func TestScrollToIndex(t *testing.T) {
	// 100 rows of 10, viewport 50, currently showing rows 10..14.
	assert.Equal(t, 200, ScrollToIndex(20, 100, 10, 50, 100, AlignStart))
	assert.Equal(t, 160, ScrollToIndex(20, 100, 10, 50, 100, AlignEnd))
	assert.Equal(t, 180, ScrollToIndex(20, 100, 10, 50, 100, AlignCenter))

	assert.Equal(t, 100, ScrollToIndex(12, 100, 10, 50, 100, AlignAuto))
	assert.Equal(t, 50, ScrollToIndex(5, 100, 10, 50, 100, AlignAuto))
	assert.Equal(t, 160, ScrollToIndex(20, 100, 10, 50, 100, AlignAuto))

	assert.Equal(t, 950, ScrollToIndex(500, 100, 10, 50, 0, AlignStart))
	assert.Equal(t, 0, ScrollToIndex(3, 0, 10, 50, 0, AlignStart))
}

func TestClampOffset(t *testing.T) {
	assert.Equal(t, 0, ClampOffset(-5, 100, 20))
	assert.Equal(t, 80, ClampOffset(500, 100, 20))
	assert.Equal(t, 0, ClampOffset(10, 10, 20))
	assert.Equal(t, 42, ClampOffset(42, 100, 20))
}
