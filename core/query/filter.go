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

// Package query bridges the compact filter and sort wire formats and the
// condition model used by the engine and by editors.
package query

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/google/uuid"
)

// Logic joins the conditions of a group.
type Logic string

const (
	LogicAnd Logic = "and"
	LogicOr  Logic = "or"
)

// Condition is a single field predicate.
type Condition struct {
	ID       string   `json:"id"`
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// ConditionGroup is a flat list of conditions under one logic operator.
type ConditionGroup struct {
	ID         string      `json:"id"`
	Logic      Logic       `json:"logic"`
	Conditions []Condition `json:"conditions"`
}

// SpecFilter is the array wire form of a filter: a triplet
// [field, op, value], a group ["and"|"or", entries...], or an implicit AND
// list of entries.
type SpecFilter = []any

// Diagnostic records one degradation applied while parsing a wire value.
type Diagnostic struct {
	Path   string
	Reason string
}

func (d Diagnostic) String() string {
	return d.Path + ": " + d.Reason
}

// NewCondition returns a condition with a fresh id.
func NewCondition(field string, op Operator, value any) Condition {
	return Condition{ID: uuid.NewString(), Field: field, Operator: op, Value: value}
}

// NewGroup returns a group with a fresh id.
func NewGroup(logic Logic, conditions ...Condition) ConditionGroup {
	if conditions == nil {
		conditions = []Condition{}
	}
	return ConditionGroup{ID: uuid.NewString(), Logic: logic, Conditions: conditions}
}

// IsEmpty reports whether the group has no conditions.
func (g ConditionGroup) IsEmpty() bool {
	return len(g.Conditions) == 0
}

// Spec serializes the group to its wire form.
func (g ConditionGroup) Spec() SpecFilter {
	return ToSpecFilter(g.Logic, g.Conditions)
}

// ParseSpecFilter converts a wire filter into a condition group. It never
// fails: malformed input yields an empty AND group.
func ParseSpecFilter(raw any) ConditionGroup {
	g, _ := ParseSpecFilterReport(raw)
	return g
}

// ParseSpecFilterReport is ParseSpecFilter that also reports every entry
// it dropped.
func ParseSpecFilterReport(raw any) (ConditionGroup, []Diagnostic) {
	p := &parser{}
	g := p.parseRoot(raw)
	return g, p.diags
}

type parser struct {
	diags []Diagnostic
}

func (p *parser) report(path, format string, args ...any) {
	p.diags = append(p.diags, Diagnostic{Path: path, Reason: fmt.Sprintf(format, args...)})
}

func (p *parser) parseRoot(raw any) ConditionGroup {
	group := NewGroup(LogicAnd)
	if g, ok := raw.(ConditionGroup); ok {
		return g
	}
	list, ok := asList(raw)
	if !ok {
		if raw != nil {
			p.report("filter", "expected an array, got %T", raw)
		}
		return group
	}
	if len(list) == 0 {
		return group
	}

	if logic, ok := logicToken(list[0]); ok {
		group.Logic = logic
		group.Conditions = p.parseEntries(list[1:], logic, "filter", 1)
		return group
	}
	if isFlatTriplet(list) {
		if c, ok := p.parseCondition(list, "filter"); ok {
			group.Conditions = append(group.Conditions, c)
		}
		return group
	}
	if isEntry(list[0]) {
		group.Conditions = p.parseEntries(list, LogicAnd, "filter", 0)
		return group
	}
	p.report("filter", "unrecognized filter shape")
	return group
}

// parseEntries parses a list of condition entries. A nested group is
// flattened when it shares the parent's logic or holds a single
// condition, and dropped otherwise.
func (p *parser) parseEntries(entries []any, logic Logic, path string, offset int) []Condition {
	conditions := []Condition{}
	for i, entry := range entries {
		at := fmt.Sprintf("%s[%d]", path, i+offset)
		if list, ok := asList(entry); ok && len(list) > 0 {
			if nested, ok := logicToken(list[0]); ok {
				inner := p.parseEntries(list[1:], nested, at, 1)
				if nested == logic || len(inner) <= 1 {
					conditions = append(conditions, inner...)
				} else {
					p.report(at, "nested %q group under %q is not supported", nested, logic)
				}
				continue
			}
		}
		if c, ok := p.parseCondition(entry, at); ok {
			conditions = append(conditions, c)
		}
	}
	return conditions
}

func (p *parser) parseCondition(entry any, path string) (Condition, bool) {
	switch e := entry.(type) {
	case Condition:
		if strings.TrimSpace(e.Field) == "" {
			p.report(path, "condition has no field")
			return Condition{}, false
		}
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		return e, true
	case map[string]any:
		return p.parseObject(e, path)
	}

	list, ok := asList(entry)
	if !ok {
		p.report(path, "expected a condition, got %T", entry)
		return Condition{}, false
	}
	if len(list) < 2 || len(list) > 3 {
		p.report(path, "condition must have 2 or 3 elements, got %d", len(list))
		return Condition{}, false
	}
	field, _ := list[0].(string)
	token, _ := list[1].(string)
	if strings.TrimSpace(field) == "" {
		p.report(path, "condition has no field")
		return Condition{}, false
	}
	op, ok := NormalizeOperator(token)
	if !ok {
		p.report(path, "unknown operator %q", token)
		return Condition{}, false
	}
	var value any = ""
	if len(list) == 3 && list[2] != nil {
		value = list[2]
	}
	return NewCondition(field, op, value), true
}

func (p *parser) parseObject(m map[string]any, path string) (Condition, bool) {
	field, _ := m["field"].(string)
	if strings.TrimSpace(field) == "" {
		p.report(path, "condition has no field")
		return Condition{}, false
	}
	token, _ := m["operator"].(string)
	if token == "" {
		token, _ = m["op"].(string)
	}
	if token == "" {
		token = string(OpEquals)
	}
	op, ok := NormalizeOperator(token)
	if !ok {
		p.report(path, "unknown operator %q", token)
		return Condition{}, false
	}
	c := NewCondition(field, op, "")
	if id, ok := m["id"].(string); ok && id != "" {
		c.ID = id
	}
	if v, ok := m["value"]; ok && v != nil {
		c.Value = v
	}
	return c, true
}

// ToSpecFilter serializes conditions to the wire form. Conditions without a
// field are dropped. A single AND condition is written as a bare triplet;
// OR always keeps its leading token.
//
// A bare triplet whose field is literally "or" or "and" cannot be told
// apart from a group on the way back in. The shape is kept for
// compatibility with existing configs.
func ToSpecFilter(logic Logic, conditions []Condition) SpecFilter {
	triplets := make([]any, 0, len(conditions))
	for _, c := range conditions {
		if strings.TrimSpace(c.Field) == "" {
			continue
		}
		value := c.Value
		if value == nil {
			value = ""
		}
		triplets = append(triplets, SpecFilter{c.Field, c.Operator.Token(), value})
	}
	if len(triplets) == 0 {
		return SpecFilter{}
	}
	if logic == LogicOr {
		return append(SpecFilter{string(LogicOr)}, triplets...)
	}
	if len(triplets) == 1 {
		return triplets[0].(SpecFilter)
	}
	return triplets
}

func logicToken(v any) (Logic, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	switch Logic(s) {
	case LogicAnd, LogicOr:
		return Logic(s), true
	}
	return "", false
}

// isFlatTriplet matches [field, op] and [field, op, value] where value is
// not an array. List-valued operators (in, notIn, between) may carry an
// array value so a serialized single condition reads back the same.
func isFlatTriplet(list []any) bool {
	if len(list) < 2 || len(list) > 3 {
		return false
	}
	if _, ok := list[0].(string); !ok {
		return false
	}
	token, ok := list[1].(string)
	if !ok {
		return false
	}
	if len(list) == 2 {
		return true
	}
	if _, isList := asList(list[2]); !isList {
		return true
	}
	op, known := NormalizeOperator(token)
	return known && op.takesList()
}

func isEntry(v any) bool {
	switch v.(type) {
	case map[string]any, Condition:
		return true
	}
	_, ok := asList(v)
	return ok
}

// asList views any slice or array value as []any. Strings and byte slices
// are not lists.
func asList(v any) ([]any, bool) {
	switch x := v.(type) {
	case nil:
		return nil, false
	case []any:
		return x, true
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, true
	case string, []byte:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
