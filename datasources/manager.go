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

package datasources

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/tabula/core/csvimport"
)

// SourceConfig declares a named row source.
//
// Types:
//   - memory: an empty in-memory source, filled programmatically
//   - csv: Path is a directory of *.csv files
//   - sql: Driver and DSN are passed to sql.Open
//
// Further types can be added with Manager.RegisterOpener.
type SourceConfig struct {
	Name   string `koanf:"name" yaml:"name" json:"name"`
	Type   string `koanf:"type" yaml:"type" json:"type"`
	Path   string `koanf:"path" yaml:"path,omitempty" json:"path,omitempty"`
	Driver string `koanf:"driver" yaml:"driver,omitempty" json:"driver,omitempty"`
	DSN    string `koanf:"dsn" yaml:"dsn,omitempty" json:"dsn,omitempty"`
}

// Opener creates a row source from its config.
type Opener func(ctx context.Context, cfg SourceConfig) (RowSource, error)

// Manager resolves named row sources. Configs are registered eagerly;
// sources are opened lazily on first use and cached.
type Manager struct {
	mu sync.RWMutex

	// Source configs indexed by name
	configs map[string]SourceConfig

	// Opened sources indexed by name - populated lazily
	sources map[string]RowSource

	// Registered openers indexed by source type
	openers map[string]Opener

	// Base directory for resolving relative paths
	baseDir string

	logger *slog.Logger
}

// NewManager creates a manager with the built-in memory, csv and sql openers.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		configs: make(map[string]SourceConfig),
		sources: make(map[string]RowSource),
		openers: make(map[string]Opener),
		logger:  logger,
	}
	m.RegisterOpener("memory", openMemory)
	m.RegisterOpener("csv", openCSV)
	m.RegisterOpener("sql", openSQL)
	return m
}

// RegisterOpener registers an opener for a source type.
// If an opener is already registered for this type, it will be replaced.
func (m *Manager) RegisterOpener(sourceType string, opener Opener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openers[sourceType] = opener
}

// SetBaseDir sets the base directory for resolving relative paths in config.
func (m *Manager) SetBaseDir(dir string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseDir = dir
}

// Configure registers source configs. Their sources open on first use.
func (m *Manager) Configure(configs []SourceConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cfg := range configs {
		if cfg.Name == "" {
			return errors.New("source config without a name")
		}
		if _, ok := m.openers[cfg.Type]; !ok {
			return fmt.Errorf("source %q: no opener registered for type %q", cfg.Name, cfg.Type)
		}
		m.configs[cfg.Name] = cfg
	}
	return nil
}

// Register adds an already opened source under name.
func (m *Manager) Register(name string, source RowSource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources[name] = source
}

// Names returns all configured or registered source names, sorted.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]bool)
	for name := range m.configs {
		seen[name] = true
	}
	for name := range m.sources {
		seen[name] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsOpen returns whether a source has been opened.
func (m *Manager) IsOpen(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sources[name]
	return ok
}

// Source returns the named source, opening it if needed.
func (m *Manager) Source(ctx context.Context, name string) (RowSource, error) {
	// Check cache first (with read lock)
	m.mu.RLock()
	if src, ok := m.sources[name]; ok {
		m.mu.RUnlock()
		return src, nil
	}
	cfg, ok := m.configs[name]
	if !ok {
		m.mu.RUnlock()
		return nil, fmt.Errorf("source %q not found", name)
	}
	opener := m.openers[cfg.Type]
	baseDir := m.baseDir
	m.mu.RUnlock()

	if cfg.Path != "" && baseDir != "" && !filepath.IsAbs(cfg.Path) {
		cfg.Path = filepath.Join(baseDir, cfg.Path)
	}
	src, err := opener(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open source %q: %w", name, err)
	}
	m.logger.Debug("opened source", "name", name, "type", cfg.Type)

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another caller may have opened it meanwhile; keep the first.
	if existing, ok := m.sources[name]; ok {
		closeSource(src)
		return existing, nil
	}
	m.sources[name] = src
	return src, nil
}

// Close closes every opened source that holds resources.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	for name, src := range m.sources {
		if err := closeSource(src); err != nil {
			errs = append(errs, fmt.Errorf("close %q: %w", name, err))
		}
	}
	m.sources = make(map[string]RowSource)
	return errors.Join(errs...)
}

func closeSource(src RowSource) error {
	if c, ok := src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func openMemory(_ context.Context, _ SourceConfig) (RowSource, error) {
	return NewMemorySource(), nil
}

func openCSV(_ context.Context, cfg SourceConfig) (RowSource, error) {
	if cfg.Path == "" {
		return nil, errors.New("path is required")
	}
	return NewCSVSource(cfg.Path, csvimport.DefaultOptions()), nil
}

func openSQL(ctx context.Context, cfg SourceConfig) (RowSource, error) {
	if cfg.Driver == "" || cfg.DSN == "" {
		return nil, errors.New("driver and dsn are required")
	}
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return NewSQLSource(db, cfg.Driver), nil
}
