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
	"reflect"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultSelectThreshold is the largest number of distinct string values a
// sampled field may have and still be inferred as a select.
const DefaultSelectThreshold = 10

// maxSelectValueLen keeps free-form text out of synthesized option lists.
const maxSelectValueLen = 64

var booleanPrefixes = []string{"is_", "has_", "can_", "should_", "allow_", "enable_"}

var booleanNames = map[string]bool{
	"active":    true,
	"enabled":   true,
	"disabled":  true,
	"visible":   true,
	"hidden":    true,
	"deleted":   true,
	"archived":  true,
	"published": true,
	"verified":  true,
	"flag":      true,
}

// InferType maps a field name and a sample to a semantic type. The sample
// may be a single value or a slice of observed values; only a slice can
// infer TypeSelect.
func InferType(fieldName string, sample any) SemanticType {
	t, _ := InferField(fieldName, sampleValues(sample), DefaultSelectThreshold)
	return t
}

// InferField infers the type of a field from its name and observed values.
// When the result is TypeSelect, the synthesized options are returned in
// first-seen order. A threshold <= 0 uses DefaultSelectThreshold.
func InferField(fieldName string, samples []any, threshold int) (SemanticType, []Option) {
	if t, ok := inferFromName(fieldName); ok {
		return t, nil
	}
	if threshold <= 0 {
		threshold = DefaultSelectThreshold
	}
	return inferFromValues(samples, threshold)
}

// ResolveType applies the override rule: an explicit type always wins,
// otherwise the field is inferred from its name and samples.
func ResolveType(explicit, fieldName string, samples []any) (SemanticType, []Option) {
	if t, ok := LookupType(explicit); ok {
		return t, nil
	}
	if strings.TrimSpace(explicit) != "" {
		return TypeText, nil
	}
	return InferField(fieldName, samples, DefaultSelectThreshold)
}

func inferFromName(name string) (SemanticType, bool) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return "", false
	}
	for _, p := range booleanPrefixes {
		if strings.HasPrefix(lower, p) {
			return TypeBoolean, true
		}
	}
	if isCamelBoolean(name) || booleanNames[lower] || strings.HasSuffix(lower, "_flag") {
		return TypeBoolean, true
	}
	if strings.Contains(lower, "date") || strings.Contains(lower, "time") ||
		strings.Contains(lower, "_at") || strings.HasSuffix(name, "At") {
		return TypeDate, true
	}
	return "", false
}

// isCamelBoolean matches isActive, hasChildren and friends.
func isCamelBoolean(name string) bool {
	for _, p := range []string{"is", "has", "can"} {
		if len(name) > len(p) && strings.HasPrefix(name, p) {
			r, _ := utf8.DecodeRuneInString(name[len(p):])
			if r >= 'A' && r <= 'Z' {
				return true
			}
		}
	}
	return false
}

func inferFromValues(samples []any, threshold int) (SemanticType, []Option) {
	var present []any
	for _, v := range samples {
		if !IsBlank(v) {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return TypeText, nil
	}

	allBool, allNumber, allDate, allString := true, true, true, true
	for _, v := range present {
		switch x := v.(type) {
		case bool:
			allNumber, allDate, allString = false, false, false
		case time.Time:
			allBool, allNumber, allString = false, false, false
		case string:
			if !isBoolWord(x) {
				allBool = false
			}
			if _, ok := parseNumeric(x); !ok {
				allNumber = false
			}
			if _, ok := ToTime(x); !ok {
				allDate = false
			}
		default:
			allBool, allDate, allString = false, false, false
			if !IsNumber(v) {
				allNumber = false
			}
		}
	}

	switch {
	case allBool:
		return TypeBoolean, nil
	case allNumber:
		return TypeNumber, nil
	case allDate:
		return TypeDate, nil
	case allString && len(present) > 1:
		if options := synthesizeOptions(present, threshold); options != nil {
			return TypeSelect, options
		}
	}
	return TypeText, nil
}

// synthesizeOptions returns nil when the distinct value count exceeds the
// threshold or a value looks like free text.
func synthesizeOptions(values []any, threshold int) []Option {
	seen := make(map[string]bool)
	var options []Option
	for _, v := range values {
		s := strings.TrimSpace(v.(string))
		if utf8.RuneCountInString(s) > maxSelectValueLen || strings.ContainsRune(s, '\n') {
			return nil
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		if len(seen) > threshold {
			return nil
		}
		options = append(options, Option{Value: s, Label: Humanize(s)})
	}
	return options
}

// sampleValues flattens a sample argument into a value list.
func sampleValues(sample any) []any {
	switch x := sample.(type) {
	case nil:
		return nil
	case []any:
		return x
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	case []byte:
		return []any{string(x)}
	}
	rv := reflect.ValueOf(sample)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}
	return []any{sample}
}

// SampleField collects the values of one field across a row sample.
func SampleField(rows []Row, field string) []any {
	values := make([]any, 0, len(rows))
	for _, row := range rows {
		values = append(values, row[field])
	}
	return values
}
