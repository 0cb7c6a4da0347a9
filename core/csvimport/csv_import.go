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

// Package csvimport reads CSV data into typed rows and field descriptors.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/tabula/core/columns"
)

// ErrEmpty is returned for input without any records.
var ErrEmpty = errors.New("CSV file is empty")

// ColumnSource defines source metadata for how a column is imported
type ColumnSource struct {
	// Name is the field name (defaults to header name if not specified)
	Name string
	// Label is the display label for the field
	Label string
	// Type forces a semantic type (any spelling NormalizeType accepts)
	Type string
	// Options overrides the enumerated values of a select field
	Options []columns.Option
}

// ImportOptions configures CSV import behavior
type ImportOptions struct {
	// HasHeader indicates whether the first row contains column headers
	HasHeader bool
	// Delimiter is the field delimiter (defaults to comma)
	Delimiter rune
	// ColumnSources provides configuration for specific columns by header name
	ColumnSources map[string]ColumnSource
	// SampleSize is the number of rows to sample for type detection (default: 100)
	SampleSize int
}

// DefaultOptions returns default import options
func DefaultOptions() ImportOptions {
	return ImportOptions{
		HasHeader:     true,
		Delimiter:     ',',
		ColumnSources: make(map[string]ColumnSource),
		SampleSize:    100,
	}
}

// Table is imported CSV data: typed rows plus one descriptor per field.
type Table struct {
	Order  []string
	Fields map[string]columns.FieldDescriptor
	Rows   []columns.Row
}

// ImportFromFile imports a CSV file.
func ImportFromFile(path string, options ImportOptions) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ImportFromReader(file, options)
}

// ImportFromReader imports CSV data from an io.Reader. Field types are
// detected from the header name and a sample of values unless a
// ColumnSource forces one; cells are converted to the detected type and
// empty cells become nil.
func ImportFromReader(reader io.Reader, options ImportOptions) (*Table, error) {
	csvReader := csv.NewReader(reader)
	if options.Delimiter != 0 {
		csvReader.Comma = options.Delimiter
	}
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmpty
	}

	var headers []string
	var dataRows [][]string
	if options.HasHeader {
		headers = records[0]
		dataRows = records[1:]
	} else {
		// Generate column names if no header
		headers = make([]string, len(records[0]))
		for i := range headers {
			headers[i] = fmt.Sprintf("column_%d", i+1)
		}
		dataRows = records
	}

	sampleSize := options.SampleSize
	if sampleSize <= 0 {
		sampleSize = 100
	}
	sampleSize = min(sampleSize, len(dataRows))

	table := &Table{
		Order:  make([]string, len(headers)),
		Fields: make(map[string]columns.FieldDescriptor, len(headers)),
		Rows:   make([]columns.Row, 0, len(dataRows)),
	}
	types := make([]columns.SemanticType, len(headers))
	for i, header := range headers {
		header = strings.TrimSpace(header)
		source := options.ColumnSources[header]
		name := header
		if source.Name != "" {
			name = source.Name
		}

		samples := make([]any, 0, sampleSize)
		for _, row := range dataRows[:sampleSize] {
			samples = append(samples, cell(row, i))
		}
		t, options := columns.ResolveType(source.Type, name, samples)
		if source.Options != nil {
			options = source.Options
		}
		types[i] = t
		table.Order[i] = name
		table.Fields[name] = columns.FieldDescriptor{
			Name:    name,
			Label:   source.Label,
			Type:    string(t),
			Options: options,
		}
	}

	for _, record := range dataRows {
		row := make(columns.Row, len(headers))
		for i, name := range table.Order {
			row[name] = convert(cell(record, i), types[i])
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func cell(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// convert parses value as t. Values that do not parse are kept as strings.
func convert(value string, t columns.SemanticType) any {
	if value == "" {
		return nil
	}
	switch t {
	case columns.TypeNumber:
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
		if f, ok := columns.ToFloat(value); ok {
			return f
		}
	case columns.TypeBoolean:
		if b, err := columns.ParseBool(value); err == nil {
			return b
		}
	case columns.TypeDate:
		if ts, ok := columns.ToTime(value); ok {
			return ts
		}
	}
	return value
}
