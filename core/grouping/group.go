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

// Package grouping partitions rows into ordered, collapsible groups.
//
// Terminology:
// * the fields rows are grouped by are called grouping fields
// * a group's key joins its stringified grouping values with KeySeparator
// * only the first grouping field orders groups; later fields refine the key
// * collapse overrides are tracked per key and survive regrouping
package grouping

import (
	"sort"
	"strings"

	"github.com/google/tabula/core/columns"
)

const (
	// KeySeparator joins grouping values into a key and a label.
	KeySeparator = " / "
	// EmptyLabel is shown for a missing or empty grouping value.
	EmptyLabel = "(empty)"
)

// Field is one grouping field with its direction and default collapse.
type Field struct {
	Field     string `json:"field" yaml:"field" toml:"field"`
	Order     string `json:"order,omitempty" yaml:"order,omitempty" toml:"order,omitempty"`
	Collapsed bool   `json:"collapsed,omitempty" yaml:"collapsed,omitempty" toml:"collapsed,omitempty"`
}

// Descending reports whether the field orders groups in reverse.
func (f Field) Descending() bool {
	return strings.EqualFold(strings.TrimSpace(f.Order), "desc")
}

// Entry is one group of rows.
type Entry struct {
	Key       string
	Label     string
	Values    []any
	Rows      []columns.Row
	Collapsed bool
}

// Length is the number of rows in the group.
func (e *Entry) Length() int {
	return len(e.Rows)
}

// CollapseState holds per-key collapse overrides. It is a value: Toggle
// returns a new state and never mutates the receiver.
type CollapseState struct {
	overrides map[string]bool
}

// NewCollapseState returns a state with no overrides.
func NewCollapseState() CollapseState {
	return CollapseState{}
}

// DefaultCollapsed is true when any grouping field is collapsed by default.
func DefaultCollapsed(fields []Field) bool {
	for _, f := range fields {
		if f.Collapsed {
			return true
		}
	}
	return false
}

// IsCollapsed returns the effective state of key: its override, or the
// default derived from fields.
func (s CollapseState) IsCollapsed(key string, fields []Field) bool {
	if v, ok := s.overrides[key]; ok {
		return v
	}
	return DefaultCollapsed(fields)
}

// Override returns the explicit override for key, if any.
func (s CollapseState) Override(key string) (collapsed, ok bool) {
	collapsed, ok = s.overrides[key]
	return collapsed, ok
}

// Toggle flips the effective state of key.
func (s CollapseState) Toggle(key string, fields []Field) CollapseState {
	next := make(map[string]bool, len(s.overrides)+1)
	for k, v := range s.overrides {
		next[k] = v
	}
	next[key] = !s.IsCollapsed(key, fields)
	return CollapseState{overrides: next}
}

// Set returns a state with key's override set to collapsed.
func (s CollapseState) Set(key string, collapsed bool) CollapseState {
	next := make(map[string]bool, len(s.overrides)+1)
	for k, v := range s.overrides {
		next[k] = v
	}
	next[key] = collapsed
	return CollapseState{overrides: next}
}

// Len is the number of overrides.
func (s CollapseState) Len() int {
	return len(s.overrides)
}

// Key builds the group key of row for fields. Blank values (nil or
// whitespace only) all key on "".
func Key(row columns.Row, fields []Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		if v := row[f.Field]; !columns.IsBlank(v) {
			parts[i] = columns.Stringify(v)
		}
	}
	return strings.Join(parts, KeySeparator)
}

// Group partitions rows by fields. Groups are ordered by the first field's
// direction using numeric-aware collation; the order of rows within a group
// and of groups with the same first value follows the input. Groups whose
// first value is empty sort last. With no fields Group returns nil.
func Group(rows []columns.Row, fields []Field, state CollapseState) []Entry {
	if len(fields) == 0 {
		return nil
	}
	index := make(map[string]int)
	var groups []Entry
	for _, row := range rows {
		key := Key(row, fields)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, newEntry(key, row, fields, state))
		}
		groups[i].Rows = append(groups[i].Rows, row)
	}

	collator := columns.NewCollator()
	desc := fields[0].Descending()
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := first(groups[i]), first(groups[j])
		switch {
		case a == "" || b == "":
			return a != "" && b == ""
		case desc:
			return collator.CompareString(b, a) < 0
		default:
			return collator.CompareString(a, b) < 0
		}
	})
	return groups
}

func newEntry(key string, row columns.Row, fields []Field, state CollapseState) Entry {
	values := make([]any, len(fields))
	labels := make([]string, len(fields))
	for i, f := range fields {
		values[i] = row[f.Field]
		labels[i] = columns.Stringify(values[i])
		if strings.TrimSpace(labels[i]) == "" {
			labels[i] = EmptyLabel
		}
	}
	return Entry{
		Key:       key,
		Label:     strings.Join(labels, KeySeparator),
		Values:    values,
		Collapsed: state.IsCollapsed(key, fields),
	}
}

func first(e Entry) string {
	if len(e.Values) == 0 {
		return ""
	}
	return strings.TrimSpace(columns.Stringify(e.Values[0]))
}
