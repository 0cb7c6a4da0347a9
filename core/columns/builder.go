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

package columns

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/google/safehtml"
)

// Builder builds canonical column definitions from column specs.
type Builder struct {
	// Registry supplies per-type cell renderers. May be nil.
	Registry CellRendererRegistry
	// SelectThreshold bounds select inference; <= 0 means DefaultSelectThreshold.
	SelectThreshold int
}

// NewBuilder creates a builder using registry for type renderers.
func NewBuilder(registry CellRendererRegistry) *Builder {
	return &Builder{Registry: registry, SelectThreshold: DefaultSelectThreshold}
}

// Build resolves specs into column definitions. fields supplies optional
// metadata keyed by field name and sample is used for type inference.
// Hidden columns are dropped; pinned columns move to their edge with
// relative order preserved.
func (b *Builder) Build(specs []ColumnSpec, fields map[string]FieldDescriptor, sample []Row) []ColumnDef {
	defs := make([]ColumnDef, 0, len(specs))
	for _, spec := range specs {
		if spec.Hidden || strings.TrimSpace(spec.Field) == "" {
			continue
		}
		defs = append(defs, b.buildOne(spec, fields, sample))
	}
	return partitionPinned(defs)
}

// BuildFromSchema builds one column per field in order, used when a view
// declares no columns.
func (b *Builder) BuildFromSchema(order []string, fields map[string]FieldDescriptor, sample []Row) []ColumnDef {
	specs := make([]ColumnSpec, len(order))
	for i, name := range order {
		specs[i] = FieldSpec(name)
	}
	return b.Build(specs, fields, sample)
}

func (b *Builder) buildOne(spec ColumnSpec, fields map[string]FieldDescriptor, sample []Row) ColumnDef {
	fd, hasField := fields[spec.Field]

	header := spec.Label
	if header == "" && hasField {
		header = fd.Label
	}
	if header == "" {
		header = Humanize(spec.Field)
	}

	// Column type and options win over the field descriptor's.
	explicit := spec.Type
	if explicit == "" && hasField {
		explicit = fd.Type
	}
	var t SemanticType
	var inferred []Option
	if explicit != "" {
		t = NormalizeType(explicit)
	} else {
		t, inferred = InferField(spec.Field, SampleField(sample, spec.Field), b.SelectThreshold)
	}
	options := spec.Options
	if options == nil && hasField {
		options = fd.Options
	}
	if options == nil {
		options = inferred
	}

	def := ColumnDef{
		Header:   header,
		Key:      spec.Field,
		Type:     t,
		Align:    resolveAlign(spec.Align, t),
		Sortable: spec.Sortable == nil || *spec.Sortable,
		Pinned:   normalizePin(spec.Pinned),
		Width:    spec.Width,
		Wrap:     spec.Wrap,
		Summary:  spec.Summary,
		Options:  options,
	}
	if spec.Kind == SpecResolved && spec.Renderer != nil {
		def.render = spec.Renderer
		return def
	}
	def.render = b.renderer(spec, t, options)
	return def
}

// renderer composes the cell function: link > action > type > raw.
func (b *Builder) renderer(spec ColumnSpec, t SemanticType, options []Option) CellRenderer {
	base := b.typeRenderer(t, options)
	switch {
	case spec.Link != "":
		link, action := spec.Link, spec.Action
		return func(value any, row Row) DisplayValue {
			dv := base(value, row)
			dv.Link = expandLink(link, row)
			dv.Action = action
			return dv
		}
	case spec.Action != "":
		action := spec.Action
		return func(value any, row Row) DisplayValue {
			dv := base(value, row)
			dv.Action = action
			return dv
		}
	}
	return base
}

func (b *Builder) typeRenderer(t SemanticType, options []Option) CellRenderer {
	var registered CellRenderer
	if b.Registry != nil {
		registered = b.Registry.Resolve(t)
	}
	fallback := registered
	if fallback == nil {
		fallback = func(value any, _ Row) DisplayValue { return RawValue(value) }
	}
	if len(options) == 0 {
		return fallback
	}
	byValue := make(map[string]Option, len(options))
	for _, o := range options {
		byValue[o.Value] = o
	}
	return func(value any, row Row) DisplayValue {
		if o, ok := byValue[Stringify(value)]; ok {
			label := o.Label
			if label == "" {
				label = o.Value
			}
			return DisplayValue{Text: label, Color: o.Color, Raw: value}
		}
		return fallback(value, row)
	}
}

func resolveAlign(a Align, t SemanticType) Align {
	switch Align(strings.ToLower(string(a))) {
	case AlignLeft:
		return AlignLeft
	case AlignCenter:
		return AlignCenter
	case AlignRight:
		return AlignRight
	}
	if t.IsNumeric() {
		return AlignRight
	}
	return AlignLeft
}

func normalizePin(p Pin) Pin {
	switch Pin(strings.ToLower(string(p))) {
	case PinLeft:
		return PinLeft
	case PinRight:
		return PinRight
	}
	return PinNone
}

// partitionPinned is a stable three-way partition: left, unpinned, right.
func partitionPinned(defs []ColumnDef) []ColumnDef {
	out := make([]ColumnDef, 0, len(defs))
	for _, pin := range []Pin{PinLeft, PinNone, PinRight} {
		for _, d := range defs {
			if d.Pinned == pin {
				out = append(out, d)
			}
		}
	}
	return out
}

var placeholderRE = regexp.MustCompile(`\{([A-Za-z0-9_.\-]+)\}`)

// expandLink fills {field} placeholders from row and sanitizes the result.
// Unsafe schemes come back as safehtml's inert invalid URL.
func expandLink(template string, row Row) string {
	expanded := placeholderRE.ReplaceAllStringFunc(template, func(m string) string {
		name := m[1 : len(m)-1]
		return url.PathEscape(Stringify(row[name]))
	})
	return safehtml.URLSanitized(expanded).String()
}
