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
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/views"
)

// Text output formats.
const (
	FormatTable    = "table"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
)

// RenderText draws the materialized window of vm: group headers as their
// own rows and summaries in the footer. format is table, csv or markdown.
func RenderText(w io.Writer, vm views.TableViewModel, format string) error {
	if len(vm.Columns) == 0 {
		_, _ = fmt.Fprintln(w, "(no columns)")
		return nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	if vm.Title != "" && (format == "" || format == FormatTable) {
		t.SetTitle(vm.Title)
	}

	header := make(table.Row, len(vm.Columns))
	configs := make([]table.ColumnConfig, len(vm.Columns))
	for i, c := range vm.Columns {
		header[i] = headerText(c)
		configs[i] = table.ColumnConfig{Number: i + 1, Align: textAlign(c.Align), AlignHeader: textAlign(c.Align)}
	}
	t.AppendHeader(header)
	t.SetColumnConfigs(configs)

	for _, item := range vm.Items {
		if item.Header {
			t.AppendRow(groupRow(vm, vm.Header(item)))
			continue
		}
		row := make(table.Row, len(item.Cells))
		for i, c := range item.Cells {
			row[i] = c.Text
		}
		if item.Selected && len(row) > 0 {
			row[0] = "* " + fmt.Sprint(row[0])
		}
		t.AppendRow(row)
	}

	if len(vm.Summaries) > 0 {
		footer := make(table.Row, len(vm.Columns))
		for i, s := range vm.Summaries {
			footer[i] = summaryText(s)
		}
		t.AppendFooter(footer)
	}

	var out string
	switch format {
	case FormatCSV:
		out = t.RenderCSV()
	case FormatMarkdown:
		out = t.RenderMarkdown()
	case "", FormatTable:
		out = t.Render()
	default:
		return fmt.Errorf("unknown text format %q", format)
	}
	if _, err := io.WriteString(w, out+"\n"); err != nil {
		return err
	}
	if format == "" || format == FormatTable {
		_, err := fmt.Fprintf(w, "(%d of %d lines, %d rows)\n", len(vm.Items), vm.TotalItems, vm.TotalRows)
		return err
	}
	return nil
}

func headerText(c views.ColumnHeader) string {
	switch c.SortOrder {
	case "asc":
		return c.Header + " ▲"
	case "desc":
		return c.Header + " ▼"
	}
	return c.Header
}

func groupRow(vm views.TableViewModel, g views.GroupHeader) table.Row {
	row := make(table.Row, len(vm.Columns))
	marker := "▾"
	if g.Collapsed {
		marker = "▸"
	}
	row[0] = fmt.Sprintf("%s %s (%d)", marker, g.Label, g.Count)
	for i := 1; i < len(row); i++ {
		row[i] = ""
		if i < len(g.Summaries) {
			row[i] = summaryText(g.Summaries[i])
		}
	}
	return row
}

func summaryText(s views.SummaryCell) string {
	if s.Text == "" {
		return ""
	}
	return strings.TrimSpace(s.Symbol + " " + s.Text)
}

func textAlign(a columns.Align) text.Align {
	switch a {
	case columns.AlignRight:
		return text.AlignRight
	case columns.AlignCenter:
		return text.AlignCenter
	}
	return text.AlignLeft
}
