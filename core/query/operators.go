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

import "strings"

// Operator is a canonical condition operator.
type Operator string

const (
	OpEquals         Operator = "equals"
	OpNotEquals      Operator = "notEquals"
	OpGreaterThan    Operator = "greaterThan"
	OpLessThan       Operator = "lessThan"
	OpGreaterOrEqual Operator = "greaterOrEqual"
	OpLessOrEqual    Operator = "lessOrEqual"
	OpContains       Operator = "contains"
	OpNotContains    Operator = "notContains"
	OpIsEmpty        Operator = "isEmpty"
	OpIsNotEmpty     Operator = "isNotEmpty"
	OpIn             Operator = "in"
	OpNotIn          Operator = "notIn"
	OpBefore         Operator = "before"
	OpAfter          Operator = "after"
	OpBetween        Operator = "between"
)

// Operators lists the closed canonical operator set.
var Operators = []Operator{
	OpEquals, OpNotEquals, OpGreaterThan, OpLessThan, OpGreaterOrEqual, OpLessOrEqual,
	OpContains, OpNotContains, OpIsEmpty, OpIsNotEmpty, OpIn, OpNotIn,
	OpBefore, OpAfter, OpBetween,
}

// SpecToBuilderOp maps wire operator tokens to canonical operators.
var SpecToBuilderOp = map[string]Operator{
	"=":            OpEquals,
	"!=":           OpNotEquals,
	"<>":           OpNotEquals,
	">":            OpGreaterThan,
	"<":            OpLessThan,
	">=":           OpGreaterOrEqual,
	"<=":           OpLessOrEqual,
	"contains":     OpContains,
	"not_contains": OpNotContains,
	"is_empty":     OpIsEmpty,
	"is_not_empty": OpIsNotEmpty,
	"in":           OpIn,
	"not_in":       OpNotIn,
	"not in":       OpNotIn,
	"before":       OpBefore,
	"after":        OpAfter,
	"between":      OpBetween,
}

// BuilderToSpecOp maps canonical operators to their preferred wire token.
var BuilderToSpecOp = map[Operator]string{
	OpEquals:         "=",
	OpNotEquals:      "!=",
	OpGreaterThan:    ">",
	OpLessThan:       "<",
	OpGreaterOrEqual: ">=",
	OpLessOrEqual:    "<=",
	OpContains:       "contains",
	OpNotContains:    "not_contains",
	OpIsEmpty:        "is_empty",
	OpIsNotEmpty:     "is_not_empty",
	OpIn:             "in",
	OpNotIn:          "not_in",
	OpBefore:         "before",
	OpAfter:          "after",
	OpBetween:        "between",
}

var canonicalOps = func() map[string]Operator {
	m := make(map[string]Operator, len(Operators))
	for _, op := range Operators {
		m[strings.ToLower(string(op))] = op
	}
	return m
}()

// NormalizeOperator translates a wire token or an already canonical name
// into a canonical operator. ok is false for unknown tokens.
func NormalizeOperator(token string) (Operator, bool) {
	key := strings.ToLower(strings.TrimSpace(token))
	if op, ok := canonicalOps[key]; ok {
		return op, true
	}
	op, ok := SpecToBuilderOp[key]
	return op, ok
}

// Token returns the wire token for op. Unknown operators are returned as is.
func (op Operator) Token() string {
	if t, ok := BuilderToSpecOp[op]; ok {
		return t
	}
	return string(op)
}

// Unary reports whether the operator ignores its value.
func (op Operator) Unary() bool {
	return op == OpIsEmpty || op == OpIsNotEmpty
}

// takesList reports whether the operator's value is a list.
func (op Operator) takesList() bool {
	return op == OpIn || op == OpNotIn || op == OpBetween
}
