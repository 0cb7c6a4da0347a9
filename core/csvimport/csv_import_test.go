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

package csvimport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/tabula/core/columns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportBasicCSV(t *testing.T) {
	csvData := `name,age,city,is_member,joined_at
Alice,30,New York,yes,2024-01-05
Bob,25.5,Los Angeles,no,2024-02-10
Charlie,,Chicago,true,`

	table, err := ImportFromReader(strings.NewReader(csvData), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, []string{"name", "age", "city", "is_member", "joined_at"}, table.Order)

	assert.Equal(t, "number", table.Fields["age"].Type)
	assert.Equal(t, "boolean", table.Fields["is_member"].Type)
	assert.Equal(t, "date", table.Fields["joined_at"].Type)
	assert.Equal(t, "select", table.Fields["city"].Type)

	assert.Equal(t, "Alice", table.Rows[0]["name"])
	assert.Equal(t, int64(30), table.Rows[0]["age"])
	assert.Equal(t, 25.5, table.Rows[1]["age"])
	assert.Nil(t, table.Rows[2]["age"])
	assert.Equal(t, true, table.Rows[0]["is_member"])
	joined, ok := table.Rows[0]["joined_at"].(time.Time)
	require.True(t, ok)
	assert.True(t, joined.Equal(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)))
	assert.Nil(t, table.Rows[2]["joined_at"])
}

func TestImportWithoutHeader(t *testing.T) {
	options := DefaultOptions()
	options.HasHeader = false

	table, err := ImportFromReader(strings.NewReader("Alice,30\nBob,25"), options)
	require.NoError(t, err)
	assert.Equal(t, []string{"column_1", "column_2"}, table.Order)
	assert.Len(t, table.Rows, 2)
}

func TestImportColumnSources(t *testing.T) {
	options := DefaultOptions()
	options.Delimiter = ';'
	options.ColumnSources["zip"] = ColumnSource{Name: "postal_code", Label: "Postal Code", Type: "text"}
	options.ColumnSources["tier"] = ColumnSource{Options: []columns.Option{{Value: "g", Label: "Gold", Color: "gold"}}}

	table, err := ImportFromReader(strings.NewReader("zip;tier\n02134;g\n10001;s"), options)
	require.NoError(t, err)

	fd := table.Fields["postal_code"]
	assert.Equal(t, "text", fd.Type)
	assert.Equal(t, "Postal Code", fd.Label)
	assert.Equal(t, "02134", table.Rows[0]["postal_code"])
	assert.Equal(t, "Gold", table.Fields["tier"].Options[0].Label)
}

func TestImportRaggedRows(t *testing.T) {
	table, err := ImportFromReader(strings.NewReader("a,b\n1\n2,3,4"), DefaultOptions())
	require.NoError(t, err)
	assert.Nil(t, table.Rows[0]["b"])
	assert.Equal(t, int64(3), table.Rows[1]["b"])
}

func TestImportEmpty(t *testing.T) {
	_, err := ImportFromReader(strings.NewReader(""), DefaultOptions())
	assert.ErrorIs(t, err, ErrEmpty)

	table, err := ImportFromReader(strings.NewReader("a,b\n"), DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, table.Rows)
	assert.Equal(t, "text", table.Fields["a"].Type)
}

func TestImportFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.csv")
	require.NoError(t, os.WriteFile(path, []byte("name\nAda\n"), 0o644))

	table, err := ImportFromFile(path, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "Ada", table.Rows[0]["name"])

	_, err = ImportFromFile(filepath.Join(t.TempDir(), "missing.csv"), DefaultOptions())
	assert.Error(t, err)
}
