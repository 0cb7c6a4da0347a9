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

package rendering

import (
	"sync"

	"github.com/google/tabula/core/aggregates"
	"github.com/google/tabula/core/columns"
)

// DateLayout is the display layout of date cells.
const DateLayout = "2006-01-02 15:04"

// Boolean cell texts.
const (
	TrueText  = "✓"
	FalseText = "✗"
)

// Registry maps semantic types to cell renderers. It implements
// columns.CellRendererRegistry.
type Registry struct {
	mu        sync.RWMutex
	renderers map[columns.SemanticType]columns.CellRenderer
}

// NewRegistry returns an empty registry: every cell renders raw.
func NewRegistry() *Registry {
	return &Registry{renderers: make(map[columns.SemanticType]columns.CellRenderer)}
}

// DefaultRegistry returns a registry with the number, date and boolean
// renderers. Select and text cells render through their options or raw.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(columns.TypeNumber, RenderNumber)
	r.Register(columns.TypeDate, RenderDate)
	r.Register(columns.TypeBoolean, RenderBoolean)
	return r
}

// Register sets the renderer for t. A nil renderer removes it.
func (r *Registry) Register(t columns.SemanticType, renderer columns.CellRenderer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if renderer == nil {
		delete(r.renderers, t)
		return
	}
	r.renderers[t] = renderer
}

// Resolve implements columns.CellRendererRegistry.
func (r *Registry) Resolve(t columns.SemanticType) columns.CellRenderer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.renderers[t]
}

// RenderNumber formats numeric values; anything else renders raw.
func RenderNumber(value any, _ columns.Row) columns.DisplayValue {
	f, ok := columns.ToFloat(value)
	if !ok {
		return columns.RawValue(value)
	}
	return columns.DisplayValue{Text: aggregates.FormatNumber(f), Raw: value}
}

// RenderDate formats time values and date strings with DateLayout.
func RenderDate(value any, _ columns.Row) columns.DisplayValue {
	t, ok := columns.ToTime(value)
	if !ok {
		return columns.RawValue(value)
	}
	return columns.DisplayValue{Text: t.Format(DateLayout), Raw: value}
}

// RenderBoolean renders booleans and boolean words as a check or a cross.
// Blank values render empty.
func RenderBoolean(value any, _ columns.Row) columns.DisplayValue {
	if columns.IsBlank(value) {
		return columns.DisplayValue{Raw: value}
	}
	var b bool
	switch x := value.(type) {
	case bool:
		b = x
	case string:
		parsed, err := columns.ParseBool(x)
		if err != nil {
			return columns.RawValue(value)
		}
		b = parsed
	default:
		f, ok := columns.ToFloat(value)
		if !ok {
			return columns.RawValue(value)
		}
		b = f != 0
	}
	if b {
		return columns.DisplayValue{Text: TrueText, Raw: value}
	}
	return columns.DisplayValue{Text: FalseText, Raw: value}
}
