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

// Package demo provides sample data and views: orders and regions imported
// from embedded CSV files and a large synthetic transactions table.
package demo

import (
	"context"
	_ "embed"
	"fmt"
	"slices"
	"strings"

	"github.com/google/tabula/core/cli"
	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/csvimport"
	"github.com/google/tabula/datasources"
)

// SourceName is the name the demo source is registered under.
const SourceName = "demo"

//go:embed data/orders.csv
var ordersCSV string

//go:embed data/regions.csv
var regionsCSV string

// tableOptions holds the per-table import annotations.
var tableOptions = map[string]csvimport.ImportOptions{
	"orders": withSources(map[string]csvimport.ColumnSource{
		"order_id": {Label: "Order", Type: "text"},
		"amount":   {Type: "currency"},
		"is_paid":  {Label: "Paid"},
		"status": {Options: []columns.Option{
			{Value: "pending", Label: "Pending", Color: "gray"},
			{Value: "shipped", Label: "Shipped", Color: "blue"},
			{Value: "delivered", Label: "Delivered", Color: "green"},
			{Value: "cancelled", Label: "Cancelled", Color: "red"},
		}},
	}),
	"regions": withSources(map[string]csvimport.ColumnSource{
		"area_km2":     {Label: "Area (km²)"},
		"gdp_billions": {Label: "GDP (bn)", Type: "currency"},
	}),
}

func withSources(sources map[string]csvimport.ColumnSource) csvimport.ImportOptions {
	options := csvimport.DefaultOptions()
	options.ColumnSources = sources
	return options
}

// importTable imports an embedded CSV table using its annotations.
func importTable(name, data string) (*csvimport.Table, error) {
	options, ok := tableOptions[name]
	if !ok {
		return nil, fmt.Errorf("no annotations found for table %s", name)
	}
	table, err := csvimport.ImportFromReader(strings.NewReader(data), options)
	if err != nil {
		return nil, fmt.Errorf("failed to import %s CSV: %w", name, err)
	}
	return table, nil
}

// NewSource returns a memory source holding the orders and regions tables
// and transactions synthetic rows.
func NewSource(transactions int) (*datasources.MemorySource, error) {
	src := datasources.NewMemorySource()
	for name, data := range map[string]string{"orders": ordersCSV, "regions": regionsCSV} {
		table, err := importTable(name, data)
		if err != nil {
			return nil, err
		}
		src.AddTable(name, table.Order, table.Fields, table.Rows)
	}
	src.AddTable("transactions", TransactionFields, nil, GenerateTransactions(transactions))
	return src, nil
}

// Setup registers the demo source, unless a source of that name is
// configured, and every demo view whose name is free.
func Setup(_ context.Context, app *cli.App) error {
	if !slices.Contains(app.Sources.Names(), SourceName) {
		src, err := NewSource(DefaultTransactions)
		if err != nil {
			return err
		}
		app.Sources.Register(SourceName, src)
	}
	for _, vc := range Views() {
		if !app.HasView(vc.Name) {
			app.AddView(vc)
		}
	}
	return nil
}
