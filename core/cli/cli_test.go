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

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/server"
	"github.com/google/tabula/core/views"
	"github.com/google/tabula/datasources"
)

func ordersSetup(_ context.Context, app *App) error {
	src := datasources.NewMemorySource()
	src.AddTable("orders", []string{"id", "category", "amount"}, nil, []columns.Row{
		{"id": 1, "category": "A", "amount": 10},
		{"id": 2, "category": "B", "amount": 5},
		{"id": 3, "category": "A", "amount": 20},
	})
	app.Sources.Register("mem", src)
	app.AddView(views.ViewConfig{
		Name:    "orders",
		Source:  "mem",
		Columns: []any{"id", "category", map[string]any{"field": "amount", "summary": "sum"}},
	})
	app.AddView(views.ViewConfig{Name: "orphan", Source: "nowhere"})
	return nil
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd(ordersSetup)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--log-format", "json"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCmd()
	assert.Equal(t, "tabula", cmd.Use)
	for _, name := range []string{"version", "views", "render", "serve", "browse"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
		assert.NotEmpty(t, sub.Short, "%s needs a short description", name)
	}
	for _, flag := range []string{"config", "log-level", "log-format", "views-dir", "default-view"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestVersionCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "tabula v"+Version)
}

func TestViewsCommand(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := execute(t, "views")
	require.NoError(t, err)
	assert.Contains(t, out, "orders")
	assert.Contains(t, out, "Orphan")
	assert.Contains(t, out, "nowhere")

	out, err = execute(t, "views", "--json")
	require.NoError(t, err)
	var landing views.LandingViewModel
	require.NoError(t, json.Unmarshal([]byte(out), &landing))
	require.Len(t, landing.Views, 2)
	assert.Equal(t, "orders", landing.Views[0].Name)
}

func TestViewsDirIsLoaded(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "views"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "views", "big.yaml"),
		[]byte("title: Big orders\nsource: mem\nobject: orders\nfilter: [amount, \">\", 8]\n"), 0o644))

	out, err := execute(t, "views")
	require.NoError(t, err)
	assert.Contains(t, out, "Big orders")

	out, err = execute(t, "render", "big", "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "1,A,10")
	assert.NotContains(t, out, "2,B,5")
}

func TestRenderCommand(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Run("csv", func(t *testing.T) {
		out, err := execute(t, "render", "orders", "--format", "csv")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "Id,Category,Amount"), out)
		assert.Contains(t, out, "2,B,5")
	})

	t.Run("default view", func(t *testing.T) {
		out, err := execute(t, "render")
		require.NoError(t, err)
		assert.Contains(t, out, "Orders")
		assert.Contains(t, out, "(3 of 3 lines, 3 rows)")
	})

	t.Run("grouped table", func(t *testing.T) {
		out, err := execute(t, "render", "orders", "--group", "category")
		require.NoError(t, err)
		assert.Contains(t, out, "▾ A (2)")
		assert.Contains(t, out, "Σ 35")
	})

	t.Run("filter and json", func(t *testing.T) {
		out, err := execute(t, "render", "orders", "--filter", `["category","=","A"]`, "--sort", "amount:desc", "--format", "json")
		require.NoError(t, err)
		var vm views.TableViewModel
		require.NoError(t, json.Unmarshal([]byte(out), &vm))
		assert.Equal(t, 2, vm.TotalRows)
		require.Len(t, vm.Items, 2)
		assert.Equal(t, "20", vm.Items[0].Cells[2].Text)
	})

	t.Run("window", func(t *testing.T) {
		out, err := execute(t, "render", "orders", "--scroll", "1", "--height", "1", "--format", "json")
		require.NoError(t, err)
		var vm views.TableViewModel
		require.NoError(t, json.Unmarshal([]byte(out), &vm))
		require.Len(t, vm.Items, 1)
		assert.Equal(t, 1, vm.Items[0].Index)
	})

	t.Run("html", func(t *testing.T) {
		out, err := execute(t, "render", "orders", "--format", "html")
		require.NoError(t, err)
		assert.Contains(t, out, "<table")
	})
}

func TestRenderErrors(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := execute(t, "render", "missing")
	assert.ErrorIs(t, err, server.ErrViewNotFound)

	_, err = execute(t, "render", "orphan")
	assert.ErrorIs(t, err, views.ErrMissingTransport)

	_, err = execute(t, "render", "orders", "--format", "xml")
	assert.Error(t, err)

	_, err = execute(t, "--log-level", "loud", "views")
	assert.Error(t, err)
}

func TestAppView(t *testing.T) {
	t.Chdir(t.TempDir())
	app, err := loadApp(context.Background(), "", nil, &bytes.Buffer{}, nil)
	require.NoError(t, err)

	_, err = app.View("")
	assert.ErrorIs(t, err, server.ErrViewNotFound)

	app.Config.DefaultView = "b"
	app.AddView(views.ViewConfig{Name: "a"})
	app.AddView(views.ViewConfig{Name: "b", Virtual: views.Virtual{RowHeight: 3}})

	vc, err := app.View("")
	require.NoError(t, err)
	assert.Equal(t, "b", vc.Name)
	assert.Equal(t, 3, vc.Virtual.RowHeight)

	a, err := app.View("a")
	require.NoError(t, err)
	assert.Equal(t, app.Config.RowHeight, a.Virtual.RowHeight)
	assert.Equal(t, app.Config.Overscan, a.Virtual.Overscan)
	assert.True(t, app.HasView("a"))
	require.NoError(t, app.Close())
}

func TestRenderOptionsQuery(t *testing.T) {
	q := renderOptions{sort: "amount:desc", group: "region", limit: 5, height: 10}.query("orders")
	assert.Equal(t, "/views/orders", q.Path)
	require.Len(t, q.Sort, 1)
	assert.Equal(t, "amount", q.Sort[0].Field)
	require.Len(t, q.Grouped, 1)
	assert.Equal(t, "region", q.Grouped[0].Field)
	assert.Equal(t, 5, q.Limit)
	assert.Equal(t, 10, q.Viewport)
	assert.Nil(t, q.Columns)
	assert.Nil(t, q.Filter)
}
