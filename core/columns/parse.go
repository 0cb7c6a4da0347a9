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
	"strings"
)

// ParseColumnSpecs decodes the config form of a column list, as produced by
// the YAML, TOML and JSON decoders: each entry is a field name or a map.
// Entries without a field are skipped.
func ParseColumnSpecs(raw []any) []ColumnSpec {
	specs := make([]ColumnSpec, 0, len(raw))
	for _, entry := range raw {
		switch e := entry.(type) {
		case string:
			if strings.TrimSpace(e) != "" {
				specs = append(specs, FieldSpec(strings.TrimSpace(e)))
			}
		case ColumnSpec:
			specs = append(specs, e)
		case map[string]any:
			if spec, ok := parseDescriptor(e); ok {
				specs = append(specs, spec)
			}
		case map[any]any:
			if spec, ok := parseDescriptor(stringKeys(e)); ok {
				specs = append(specs, spec)
			}
		}
	}
	return specs
}

func parseDescriptor(m map[string]any) (ColumnSpec, bool) {
	field := str(m["field"])
	if field == "" {
		field = str(m["key"])
	}
	if field == "" {
		return ColumnSpec{}, false
	}
	spec := ColumnSpec{
		Kind:    SpecDescriptor,
		Field:   field,
		Label:   str(m["label"]),
		Type:    str(m["type"]),
		Width:   integer(m["width"]),
		Align:   Align(str(m["align"])),
		Wrap:    boolean(m["wrap"]),
		Link:    str(m["link"]),
		Action:  str(m["action"]),
		Hidden:  boolean(m["hidden"]),
		Pinned:  Pin(str(m["pinned"])),
		Summary: parseSummary(m["summary"]),
		Options: parseOptions(m["options"]),
	}
	if v, ok := m["sortable"].(bool); ok {
		spec.Sortable = &v
	}
	if v, ok := m["resizable"].(bool); ok {
		spec.Resizable = &v
	}
	return spec, true
}

// parseSummary accepts "sum" or {type: sum, field: amount}.
func parseSummary(v any) *Summary {
	switch s := v.(type) {
	case string:
		if s != "" {
			return &Summary{Type: s}
		}
	case map[string]any:
		if t := str(s["type"]); t != "" {
			return &Summary{Type: t, Field: str(s["field"])}
		}
	case map[any]any:
		return parseSummary(stringKeys(s))
	case *Summary:
		return s
	}
	return nil
}

func parseOptions(v any) []Option {
	list, ok := v.([]any)
	if !ok {
		if opts, ok := v.([]Option); ok {
			return opts
		}
		return nil
	}
	options := make([]Option, 0, len(list))
	for _, item := range list {
		switch o := item.(type) {
		case string:
			options = append(options, Option{Value: o, Label: Humanize(o)})
		case map[string]any:
			value := Stringify(o["value"])
			label := str(o["label"])
			if label == "" {
				label = value
			}
			options = append(options, Option{Value: value, Label: label, Color: str(o["color"])})
		}
	}
	return options
}

func stringKeys(m map[any]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[Stringify(k)] = v
	}
	return out
}

func str(v any) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func boolean(v any) bool {
	b, _ := v.(bool)
	return b
}

// integer tolerates the numeric kinds the config decoders produce.
func integer(v any) int {
	f, ok := ToFloat(v)
	if !ok || IsBlank(v) {
		return 0
	}
	if _, isString := v.(string); isString {
		return 0
	}
	return int(f)
}
