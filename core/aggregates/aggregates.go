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

// Package aggregates computes per-column and per-group summaries.
// States are accumulated per group and combined up to the total, so the
// grand total never re-reads rows.
package aggregates

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/grouping"
)

// Type is an aggregate function.
type Type string

const (
	Count Type = "count"
	Sum   Type = "sum"
	Avg   Type = "avg"
	Min   Type = "min"
	Max   Type = "max"
)

// Types lists the supported aggregates.
var Types = []Type{Count, Sum, Avg, Min, Max}

// ParseType reads an aggregate name, case-insensitively. "average" is
// accepted for avg.
func ParseType(s string) (Type, bool) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case Count, Sum, Avg, Min, Max:
		return t, true
	case "average":
		return Avg, true
	}
	return "", false
}

// Symbol is the compact label shown next to a summary value.
func (t Type) Symbol() string {
	switch t {
	case Count:
		return "#"
	case Sum:
		return "Σ"
	case Avg:
		return "μ"
	case Min:
		return "↓"
	case Max:
		return "↑"
	}
	return ""
}

// NumericAggState stores intermediate state for numeric aggregates.
// It can derive sum, avg, min, max, and count.
type NumericAggState struct {
	Count int64   // Number of values
	Sum   float64 // Sum of values
	Min   float64 // Minimum value
	Max   float64 // Maximum value
}

// NewNumericAggState creates a new empty numeric aggregate state.
func NewNumericAggState() *NumericAggState {
	return &NumericAggState{
		Min: math.MaxFloat64,
		Max: -math.MaxFloat64,
	}
}

// Add adds a single value to the aggregate state.
func (s *NumericAggState) Add(value float64) {
	s.Count++
	s.Sum += value
	if value < s.Min {
		s.Min = value
	}
	if value > s.Max {
		s.Max = value
	}
}

// Combine merges another numeric state into this one.
func (s *NumericAggState) Combine(o *NumericAggState) {
	if o == nil || o.Count == 0 {
		return
	}
	s.Count += o.Count
	s.Sum += o.Sum
	if o.Min < s.Min {
		s.Min = o.Min
	}
	if o.Max > s.Max {
		s.Max = o.Max
	}
}

// Avg returns the average (mean) of the values.
func (s *NumericAggState) Avg() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

// State accumulates one field: Present counts non-empty values for count,
// Numeric holds the coerced numbers for the other aggregates.
type State struct {
	Present int64
	Numeric *NumericAggState
}

// NewState creates an empty state.
func NewState() *State {
	return &State{Numeric: NewNumericAggState()}
}

// Add accumulates one row value. Values that do not coerce to a number
// only count towards Present.
func (s *State) Add(v any) {
	if columns.IsBlank(v) {
		return
	}
	s.Present++
	if f, ok := columns.ToFloat(v); ok {
		if _, isBool := v.(bool); !isBool {
			s.Numeric.Add(f)
		}
	}
}

// Combine merges another state into this one.
func (s *State) Combine(o *State) {
	if o == nil {
		return
	}
	s.Present += o.Present
	s.Numeric.Combine(o.Numeric)
}

// Value derives the aggregate. It is nil when t needs numbers and none were
// seen.
func (s *State) Value(t Type) *float64 {
	var v float64
	switch t {
	case Count:
		v = float64(s.Present)
		return &v
	case Sum:
		v = s.Numeric.Sum
	case Avg:
		v = s.Numeric.Avg()
	case Min:
		v = s.Numeric.Min
	case Max:
		v = s.Numeric.Max
	default:
		return nil
	}
	if s.Numeric.Count == 0 {
		return nil
	}
	return &v
}

// Spec is one summary to compute: Type over Field, displayed under Key.
type Spec struct {
	Key   string
	Field string
	Type  Type
}

// Result is one computed summary. Value is nil when there was no numeric
// input, which is distinct from a computed zero.
type Result struct {
	Key   string   `json:"key"`
	Field string   `json:"field"`
	Type  Type     `json:"type"`
	Value *float64 `json:"value"`
}

// Format renders the value for display; "-" when there is none.
func (r Result) Format() string {
	if r.Value == nil {
		return "-"
	}
	if r.Type == Count {
		return fmt.Sprintf("%d", int64(*r.Value))
	}
	return FormatNumber(*r.Value)
}

// SpecsFromColumns collects the summaries configured on columns. Columns
// without a summary, or with an unknown type, contribute nothing.
func SpecsFromColumns(defs []columns.ColumnDef) []Spec {
	var specs []Spec
	for _, d := range defs {
		if d.Summary == nil {
			continue
		}
		t, ok := ParseType(d.Summary.Type)
		if !ok {
			continue
		}
		field := d.Summary.Field
		if field == "" {
			field = d.Key
		}
		specs = append(specs, Spec{Key: d.Key, Field: field, Type: t})
	}
	return specs
}

// Summarize computes the configured summary of every column over rows,
// keyed by column key.
func Summarize(defs []columns.ColumnDef, rows []columns.Row) map[string]Result {
	results := SummarizeGroup(SpecsFromColumns(defs), rows)
	out := make(map[string]Result, len(results))
	for _, r := range results {
		out[r.Key] = r
	}
	return out
}

// SummarizeGroup computes specs over one group's rows, in spec order.
func SummarizeGroup(specs []Spec, rows []columns.Row) []Result {
	return results(specs, accumulate(specs, rows))
}

// SummarizeGroups computes specs for every group and the grand total. The
// total combines the group states.
func SummarizeGroups(specs []Spec, groups []grouping.Entry) (perGroup [][]Result, total []Result) {
	totals := newStates(specs)
	perGroup = make([][]Result, len(groups))
	for i, g := range groups {
		states := accumulate(specs, g.Rows)
		for field, st := range states {
			totals[field].Combine(st)
		}
		perGroup[i] = results(specs, states)
	}
	return perGroup, results(specs, totals)
}

func newStates(specs []Spec) map[string]*State {
	states := make(map[string]*State, len(specs))
	for _, s := range specs {
		if _, ok := states[s.Field]; !ok {
			states[s.Field] = NewState()
		}
	}
	return states
}

// accumulate reads each distinct source field once.
func accumulate(specs []Spec, rows []columns.Row) map[string]*State {
	states := newStates(specs)
	for _, row := range rows {
		for field, st := range states {
			st.Add(row[field])
		}
	}
	return states
}

func results(specs []Spec, states map[string]*State) []Result {
	out := make([]Result, len(specs))
	for i, s := range specs {
		out[i] = Result{Key: s.Key, Field: s.Field, Type: s.Type, Value: states[s.Field].Value(s.Type)}
	}
	return out
}

// FormatNumber formats a float64 for display, using appropriate precision.
func FormatNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	// Show up to 2 decimal places, trimming trailing zeros
	formatted := fmt.Sprintf("%.2f", v)
	formatted = strings.TrimRight(formatted, "0")
	return strings.TrimSuffix(formatted, ".")
}
