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

// Package views binds a declarative view config to a row source and derives
// everything a table needs to render: columns, groups, summaries and the
// visible window.
package views

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/grouping"
	"github.com/google/tabula/core/query"
)

// ErrUnknownFormat is returned for a config file extension with no decoder.
var ErrUnknownFormat = errors.New("unknown view config format")

// Pagination holds the persisted page size settings.
type Pagination struct {
	PageSize        int   `yaml:"pageSize,omitempty" toml:"pageSize,omitempty" json:"pageSize,omitempty"`
	PageSizeOptions []int `yaml:"pageSizeOptions,omitempty" toml:"pageSizeOptions,omitempty" json:"pageSizeOptions,omitempty"`
}

// Grouping holds the persisted grouping fields.
type Grouping struct {
	Fields []grouping.Field `yaml:"fields,omitempty" toml:"fields,omitempty" json:"fields,omitempty"`
}

// Virtual configures the window calculator. Sizes are in pixels for HTML
// and lines for the terminal browser.
type Virtual struct {
	RowHeight int `yaml:"rowHeight,omitempty" toml:"rowHeight,omitempty" json:"rowHeight,omitempty"`
	Overscan  int `yaml:"overscan,omitempty" toml:"overscan,omitempty" json:"overscan,omitempty"`
}

// ViewConfig is a persisted table view. Columns, Filter and Sort are kept
// in their wire form and only interpreted when the view is built.
type ViewConfig struct {
	Name       string           `yaml:"name" toml:"name" json:"name"`
	Title      string           `yaml:"title,omitempty" toml:"title,omitempty" json:"title,omitempty"`
	Source     string           `yaml:"source" toml:"source" json:"source"`
	Object     string           `yaml:"object" toml:"object" json:"object"`
	Columns    []any            `yaml:"columns,omitempty" toml:"columns,omitempty" json:"columns,omitempty"`
	Filter     query.SpecFilter `yaml:"filter,omitempty" toml:"filter,omitempty" json:"filter,omitempty"`
	Sort       []any            `yaml:"sort,omitempty" toml:"sort,omitempty" json:"sort,omitempty"`
	Limit      int              `yaml:"limit,omitempty" toml:"limit,omitempty" json:"limit,omitempty"`
	RowKey     string           `yaml:"rowKey,omitempty" toml:"rowKey,omitempty" json:"rowKey,omitempty"`
	Pagination Pagination       `yaml:"pagination,omitempty" toml:"pagination,omitempty" json:"pagination,omitempty"`
	Grouping   Grouping         `yaml:"grouping,omitempty" toml:"grouping,omitempty" json:"grouping,omitempty"`
	Virtual    Virtual          `yaml:"virtual,omitempty" toml:"virtual,omitempty" json:"virtual,omitempty"`
}

// DisplayTitle returns the title, falling back to the humanized name.
func (c ViewConfig) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return columns.Humanize(c.Name)
}

// ObjectName returns the object to read, defaulting to the view name.
func (c ViewConfig) ObjectName() string {
	if c.Object != "" {
		return c.Object
	}
	return c.Name
}

// ColumnSpecs parses the column wire form.
func (c ViewConfig) ColumnSpecs() []columns.ColumnSpec {
	return columns.ParseColumnSpecs(c.Columns)
}

// SortItems parses the sort wire form.
func (c ViewConfig) SortItems() []query.SortItem {
	return query.ToSortItems(c.Sort)
}

// Validate reports configs that cannot be bound to a source.
func (c ViewConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("view config has no name")
	}
	if strings.TrimSpace(c.Source) == "" {
		return fmt.Errorf("view %q: no source", c.Name)
	}
	return nil
}

// WithQuery returns a copy with the parameters set in q applied on top.
func (c ViewConfig) WithQuery(q *query.Query) ViewConfig {
	if q == nil {
		return c
	}
	out := c
	if q.Columns != nil {
		out.Columns = make([]any, len(q.Columns))
		for i, name := range q.Columns {
			if w := q.ColumnWidths[name]; w > 0 {
				out.Columns[i] = map[string]any{"field": name, "width": w}
				continue
			}
			out.Columns[i] = name
		}
	}
	if q.Filter != nil {
		out.Filter = q.Filter
	}
	if q.Sort != nil {
		out.Sort = query.ToSpecSort(q.Sort)
	}
	if q.Grouped != nil {
		out.Grouping.Fields = append([]grouping.Field{}, q.Grouped...)
	}
	if q.Limit > 0 {
		out.Limit = q.Limit
	}
	return out
}

// DecodeViewConfig decodes data in the given format: yaml, toml or json.
func DecodeViewConfig(data []byte, format string) (ViewConfig, error) {
	var cfg ViewConfig
	var err error
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &cfg)
	case "toml":
		_, err = toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg)
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		err = dec.Decode(&cfg)
	default:
		return cfg, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to decode view config: %w", err)
	}
	return cfg, nil
}

// LoadViewConfig reads a view config file, decoding by extension. A config
// without a name is named after the file.
func LoadViewConfig(path string) (ViewConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ViewConfig{}, fmt.Errorf("failed to read view config: %w", err)
	}
	cfg, err := DecodeViewConfig(data, filepath.Ext(path))
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Name == "" {
		cfg.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return cfg, nil
}

// LoadViewConfigs reads every view config in dir, sorted by name. Files
// with other extensions are ignored.
func LoadViewConfigs(dir string) ([]ViewConfig, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list view configs: %w", err)
	}
	var configs []ViewConfig
	for _, e := range entries {
		if e.IsDir() || !IsConfigFile(e.Name()) {
			continue
		}
		cfg, err := LoadViewConfig(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	sort.Slice(configs, func(i, j int) bool { return configs[i].Name < configs[j].Name })
	return configs, nil
}

// IsConfigFile reports whether name has a view config extension.
func IsConfigFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".toml", ".json":
		return true
	}
	return false
}
