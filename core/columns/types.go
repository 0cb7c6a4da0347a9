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

// SemanticType is the canonical type every raw field type is normalized into.
type SemanticType string

const (
	TypeText    SemanticType = "text"
	TypeNumber  SemanticType = "number"
	TypeBoolean SemanticType = "boolean"
	TypeDate    SemanticType = "date"
	TypeSelect  SemanticType = "select"
)

// SemanticTypes lists the canonical types in declaration order.
var SemanticTypes = []SemanticType{TypeText, TypeNumber, TypeBoolean, TypeDate, TypeSelect}

// typeSynonyms collapses alternate spellings onto the canonical enum.
// Keys are lower case.
var typeSynonyms = map[string]SemanticType{
	"text":     TypeText,
	"string":   TypeText,
	"textarea": TypeText,
	"url":      TypeText,
	"email":    TypeText,

	"number":   TypeNumber,
	"integer":  TypeNumber,
	"int":      TypeNumber,
	"float":    TypeNumber,
	"currency": TypeNumber,
	"money":    TypeNumber,
	"percent":  TypeNumber,
	"rating":   TypeNumber,

	"date":        TypeDate,
	"datetime":    TypeDate,
	"datetime_tz": TypeDate,
	"timestamp":   TypeDate,

	"boolean":  TypeBoolean,
	"bool":     TypeBoolean,
	"checkbox": TypeBoolean,
	"switch":   TypeBoolean,

	"select":        TypeSelect,
	"picklist":      TypeSelect,
	"enum":          TypeSelect,
	"single_select": TypeSelect,
	"multi_select":  TypeSelect,
}

// NormalizeType maps a raw type spelling to its semantic type.
// Matching is case-insensitive; empty or unknown input yields TypeText.
func NormalizeType(raw string) SemanticType {
	if t, ok := LookupType(raw); ok {
		return t
	}
	return TypeText
}

// LookupType is NormalizeType without the text fallback: ok is false when
// raw is empty or not a known spelling.
func LookupType(raw string) (SemanticType, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return "", false
	}
	t, ok := typeSynonyms[key]
	return t, ok
}

// IsNumeric reports whether values of this type are right-aligned and
// eligible for numeric aggregation by default.
func (t SemanticType) IsNumeric() bool {
	return t == TypeNumber
}

func (t SemanticType) String() string {
	if t == "" {
		return string(TypeText)
	}
	return string(t)
}
