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

// Package columns turns column specifications and field metadata into the
// canonical, typed column model a table view renders from.
package columns

import (
	"github.com/google/safehtml"
)

// Option is one member of an enumerated value set.
type Option struct {
	Value string `json:"value" yaml:"value" toml:"value"`
	Label string `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
	Color string `json:"color,omitempty" yaml:"color,omitempty" toml:"color,omitempty"`
}

// FieldDescriptor is read-only field metadata supplied by a row source schema.
type FieldDescriptor struct {
	Name    string   `json:"name"`
	Label   string   `json:"label,omitempty"`
	Type    string   `json:"type,omitempty"`
	Options []Option `json:"options,omitempty"`
}

// Align is the horizontal alignment of a column's cells.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Pin relocates a column to an edge of the column list.
type Pin string

const (
	PinNone  Pin = ""
	PinLeft  Pin = "left"
	PinRight Pin = "right"
)

// Summary configures the aggregate shown under a column. Field, when set,
// names the column the aggregate is computed over.
type Summary struct {
	Type  string `json:"type"`
	Field string `json:"field,omitempty"`
}

// SpecKind tags the three accepted shapes of a column specification.
type SpecKind int

const (
	// SpecField is a bare field name.
	SpecField SpecKind = iota
	// SpecDescriptor is a field-keyed descriptor to enrich from field metadata.
	SpecDescriptor
	// SpecResolved already carries its renderer and is passed through.
	SpecResolved
)

// ColumnSpec is the input column specification. Link and Action may both be
// set; Link takes rendering priority and Action remains reachable.
type ColumnSpec struct {
	Kind      SpecKind
	Field     string
	Label     string
	Type      string
	Width     int
	Align     Align
	Sortable  *bool
	Resizable *bool
	Wrap      bool
	Link      string // URL template, {field} placeholders are filled from the row
	Action    string
	Hidden    bool
	Pinned    Pin
	Summary   *Summary
	Options   []Option
	Renderer  CellRenderer
}

// FieldSpec returns the spec for a bare field name.
func FieldSpec(field string) ColumnSpec {
	return ColumnSpec{Kind: SpecField, Field: field}
}

// ResolvedSpec returns a spec that already carries its renderer.
func ResolvedSpec(field, label string, renderer CellRenderer) ColumnSpec {
	return ColumnSpec{Kind: SpecResolved, Field: field, Label: label, Renderer: renderer}
}

// DisplayValue is what a cell renders to. When a column declares both a
// link and an action, Link is the primary affordance and Action the
// secondary handler.
type DisplayValue struct {
	Text   string `json:"text"`
	Link   string `json:"link,omitempty"`
	Action string `json:"action,omitempty"`
	Color  string `json:"color,omitempty"`
	Raw    any    `json:"raw,omitempty"`
}

// URL returns the link as a sanitized URL for HTML templates.
func (d DisplayValue) URL() safehtml.URL {
	return safehtml.URLSanitized(d.Link)
}

// HasLink reports whether the value renders as navigation.
func (d DisplayValue) HasLink() bool {
	return d.Link != ""
}

// CellRenderer renders one cell value.
type CellRenderer func(value any, row Row) DisplayValue

// CellRendererRegistry resolves the renderer for a semantic type. A nil
// renderer means the raw stringified value is shown.
type CellRendererRegistry interface {
	Resolve(t SemanticType) CellRenderer
}

// ColumnDef is the canonical column definition. It is built once per
// column-spec change and never mutated afterwards.
type ColumnDef struct {
	Header   string       `json:"header"`
	Key      string       `json:"key"`
	Type     SemanticType `json:"type"`
	Align    Align        `json:"align"`
	Sortable bool         `json:"sortable"`
	Pinned   Pin          `json:"pinned,omitempty"`
	Width    int          `json:"width,omitempty"`
	Wrap     bool         `json:"wrap,omitempty"`
	Summary  *Summary     `json:"summary,omitempty"`
	Options  []Option     `json:"options,omitempty"`
	render   CellRenderer
}

// RenderCell renders value (taken from row) for display.
func (c ColumnDef) RenderCell(value any, row Row) DisplayValue {
	if c.render == nil {
		return RawValue(value)
	}
	return c.render(value, row)
}

// Cell renders the column's value for row.
func (c ColumnDef) Cell(row Row) DisplayValue {
	return c.RenderCell(row[c.Key], row)
}

// RawValue is the fallback rendering: the stringified value.
func RawValue(value any) DisplayValue {
	return DisplayValue{Text: Stringify(value), Raw: value}
}
