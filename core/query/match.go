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

	"github.com/google/tabula/core/columns"
)

// Match evaluates the group against a row. An empty group matches every row.
func Match(g ConditionGroup, row columns.Row) bool {
	if len(g.Conditions) == 0 {
		return true
	}
	if g.Logic == LogicOr {
		for _, c := range g.Conditions {
			if MatchCondition(c, row) {
				return true
			}
		}
		return false
	}
	for _, c := range g.Conditions {
		if !MatchCondition(c, row) {
			return false
		}
	}
	return true
}

// MatchCondition evaluates one condition. Values compare numerically when
// both sides are numbers, chronologically when both are dates and as
// case-insensitive strings otherwise.
func MatchCondition(c Condition, row columns.Row) bool {
	v := row[c.Field]
	switch c.Operator {
	case OpEquals:
		return valuesEqual(v, c.Value)
	case OpNotEquals:
		return !valuesEqual(v, c.Value)
	case OpGreaterThan:
		cmp, ok := compareOrdered(v, c.Value)
		return ok && cmp > 0
	case OpLessThan:
		cmp, ok := compareOrdered(v, c.Value)
		return ok && cmp < 0
	case OpGreaterOrEqual:
		cmp, ok := compareOrdered(v, c.Value)
		return ok && cmp >= 0
	case OpLessOrEqual:
		cmp, ok := compareOrdered(v, c.Value)
		return ok && cmp <= 0
	case OpContains:
		return containsFold(v, c.Value)
	case OpNotContains:
		return !containsFold(v, c.Value)
	case OpIsEmpty:
		return columns.IsBlank(v)
	case OpIsNotEmpty:
		return !columns.IsBlank(v)
	case OpIn:
		return inList(v, c.Value)
	case OpNotIn:
		return !inList(v, c.Value)
	case OpBefore:
		cmp, ok := compareDates(v, c.Value)
		return ok && cmp < 0
	case OpAfter:
		cmp, ok := compareDates(v, c.Value)
		return ok && cmp > 0
	case OpBetween:
		bounds := ListValue(c.Value)
		if len(bounds) != 2 {
			return false
		}
		lo, okLo := compareOrdered(v, bounds[0])
		hi, okHi := compareOrdered(v, bounds[1])
		return okLo && okHi && lo >= 0 && hi <= 0
	}
	return false
}

// ListValue reads a list-valued operand: a slice, or a comma-separated string.
func ListValue(v any) []any {
	if list, ok := asList(v); ok {
		return list
	}
	s, ok := v.(string)
	if !ok {
		if v == nil {
			return nil
		}
		return []any{v}
	}
	var out []any
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func valuesEqual(a, b any) bool {
	if columns.IsBlank(a) || columns.IsBlank(b) {
		return columns.IsBlank(a) && columns.IsBlank(b)
	}
	if fa, ok := columns.ToFloat(a); ok {
		if fb, ok := columns.ToFloat(b); ok {
			return fa == fb
		}
	}
	if ta, ok := columns.ToTime(a); ok {
		if tb, ok := columns.ToTime(b); ok {
			return ta.Equal(tb)
		}
	}
	return strings.EqualFold(columns.Stringify(a), columns.Stringify(b))
}

// compareOrdered returns ok=false when the row value is blank.
func compareOrdered(a, b any) (int, bool) {
	if columns.IsBlank(a) {
		return 0, false
	}
	if fa, ok := columns.ToFloat(a); ok {
		if fb, ok := columns.ToFloat(b); ok {
			return cmpFloat(fa, fb), true
		}
	}
	if cmp, ok := compareDates(a, b); ok {
		return cmp, true
	}
	return strings.Compare(strings.ToLower(columns.Stringify(a)), strings.ToLower(columns.Stringify(b))), true
}

func compareDates(a, b any) (int, bool) {
	ta, ok := columns.ToTime(a)
	if !ok {
		return 0, false
	}
	tb, ok := columns.ToTime(b)
	if !ok {
		return 0, false
	}
	return ta.Compare(tb), true
}

func containsFold(v, needle any) bool {
	return strings.Contains(strings.ToLower(columns.Stringify(v)), strings.ToLower(columns.Stringify(needle)))
}

func inList(v, list any) bool {
	for _, candidate := range ListValue(list) {
		if valuesEqual(v, candidate) {
			return true
		}
	}
	return false
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
