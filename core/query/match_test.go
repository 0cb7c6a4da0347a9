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
	"time"

	"github.com/google/tabula/core/columns"
	"github.com/stretchr/testify/assert"
)

func TestMatchCondition(t *testing.T) {
	row := columns.Row{
		"name":    "Blue Widget",
		"amount":  25.5,
		"qty":     "3",
		"status":  "open",
		"created": time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		"notes":   "",
	}
	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"equals fold", Condition{Field: "status", Operator: OpEquals, Value: "OPEN"}, true},
		{"equals numeric string", Condition{Field: "qty", Operator: OpEquals, Value: 3}, true},
		{"not equals", Condition{Field: "status", Operator: OpNotEquals, Value: "closed"}, true},
		{"greater than", Condition{Field: "amount", Operator: OpGreaterThan, Value: "20"}, true},
		{"less than", Condition{Field: "amount", Operator: OpLessThan, Value: 20}, false},
		{"greater or equal", Condition{Field: "amount", Operator: OpGreaterOrEqual, Value: 25.5}, true},
		{"less or equal", Condition{Field: "qty", Operator: OpLessOrEqual, Value: 2}, false},
		{"contains", Condition{Field: "name", Operator: OpContains, Value: "widget"}, true},
		{"not contains", Condition{Field: "name", Operator: OpNotContains, Value: "gadget"}, true},
		{"is empty", Condition{Field: "notes", Operator: OpIsEmpty}, true},
		{"is empty missing", Condition{Field: "missing", Operator: OpIsEmpty}, true},
		{"is not empty", Condition{Field: "name", Operator: OpIsNotEmpty}, true},
		{"in slice", Condition{Field: "status", Operator: OpIn, Value: []any{"open", "pending"}}, true},
		{"in csv", Condition{Field: "status", Operator: OpIn, Value: "closed, pending"}, false},
		{"not in", Condition{Field: "status", Operator: OpNotIn, Value: []string{"closed"}}, true},
		{"before", Condition{Field: "created", Operator: OpBefore, Value: "2024-04-01"}, true},
		{"after", Condition{Field: "created", Operator: OpAfter, Value: "2024-04-01"}, false},
		{"between", Condition{Field: "amount", Operator: OpBetween, Value: []any{20, 30}}, true},
		{"between bad bounds", Condition{Field: "amount", Operator: OpBetween, Value: []any{20}}, false},
		{"ordered on blank", Condition{Field: "notes", Operator: OpGreaterThan, Value: ""}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchCondition(tt.cond, row))
		})
	}
}

func TestMatchGroup(t *testing.T) {
	row := columns.Row{"a": 1, "b": 2}
	yes := Condition{Field: "a", Operator: OpEquals, Value: 1}
	no := Condition{Field: "b", Operator: OpEquals, Value: 3}

	assert.True(t, Match(NewGroup(LogicAnd), row))
	assert.False(t, Match(NewGroup(LogicAnd, yes, no), row))
	assert.True(t, Match(NewGroup(LogicOr, yes, no), row))
	assert.False(t, Match(NewGroup(LogicOr, no), row))
}
