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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/tabula/datasources"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "tabula.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("addr", "", "")
	fs.String("log-level", "", "")
	fs.String("views-dir", "", "")
	fs.Int("viewport", 0, "")
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultLogFormat, cfg.LogFormat)
	assert.Equal(t, DefaultViewsDir, cfg.ViewsDir)
	assert.Equal(t, DefaultViewport, cfg.Viewport)
	assert.Equal(t, 1, cfg.RowHeight)
	assert.Empty(t, cfg.File)
	assert.Empty(t, cfg.Sources)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
addr: ":9000"
log_level: debug
views_dir: defs
default_view: orders
row_height: 2
sources:
  - name: files
    type: csv
    path: data
  - name: db
    type: sql
    driver: sqlite
    dsn: /tmp/x.db
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "orders", cfg.DefaultView)
	assert.Equal(t, 2, cfg.RowHeight)
	assert.Equal(t, path, cfg.File)
	assert.Equal(t, filepath.Join(dir, "defs"), cfg.ViewsDir)
	require.Len(t, cfg.Sources, 2)
	assert.Equal(t, datasources.SourceConfig{Name: "files", Type: "csv", Path: filepath.Join(dir, "data")}, cfg.Sources[0])
	assert.Equal(t, "sqlite", cfg.Sources[1].Driver)
}

func TestLoad_DefaultFileInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "title: Found\n")
	t.Chdir(dir)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "Found", cfg.Title)
	assert.Equal(t, "tabula.yaml", cfg.File)
}

func TestLoad_Precedence(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, ".", "addr: from-file\nlog_level: warn\nviewport: 10\n")
	t.Setenv("TABULA_ADDR", "from-env")
	t.Setenv("TABULA_LOG_LEVEL", "error")

	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--addr", "from-flag"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.Addr, "flags beat env")
	assert.Equal(t, "error", cfg.LogLevel, "env beats file")
	assert.Equal(t, 10, cfg.Viewport, "unset flags do not override")
}

func TestLoad_FlagNamesMapToKeys(t *testing.T) {
	t.Chdir(t.TempDir())
	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--views-dir", "elsewhere", "--viewport", "7"}))

	cfg, err := Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, "elsewhere", cfg.ViewsDir)
	assert.Equal(t, 7, cfg.Viewport)
}

func TestLoad_Errors(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load("missing.yaml", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")

	path := writeConfig(t, ".", "log_format: xml\n")
	_, err = Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_format")
}

func TestConfig_Validate(t *testing.T) {
	base := func() Config {
		return Config{LogFormat: "auto", RowHeight: 1}
	}
	tests := []struct {
		name      string
		mutate    func(*Config)
		errSubstr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "json format", mutate: func(c *Config) { c.LogFormat = "JSON" }},
		{name: "bad format", mutate: func(c *Config) { c.LogFormat = "xml" }, errSubstr: "log_format"},
		{name: "negative viewport", mutate: func(c *Config) { c.Viewport = -1 }, errSubstr: "viewport"},
		{name: "zero row height", mutate: func(c *Config) { c.RowHeight = 0 }, errSubstr: "row_height"},
		{name: "negative overscan", mutate: func(c *Config) { c.Overscan = -2 }, errSubstr: "overscan"},
		{
			name: "unnamed source",
			mutate: func(c *Config) {
				c.Sources = []datasources.SourceConfig{{Type: "csv"}}
			},
			errSubstr: "source without name",
		},
		{
			name: "duplicate source",
			mutate: func(c *Config) {
				c.Sources = []datasources.SourceConfig{{Name: "a", Type: "csv"}, {Name: "a", Type: "memory"}}
			},
			errSubstr: "duplicate source",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}
