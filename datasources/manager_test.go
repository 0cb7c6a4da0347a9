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
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closingSource struct {
	*MemorySource
	closed bool
	err    error
}

func (c *closingSource) Close() error {
	c.closed = true
	return c.err
}

func TestManagerOpensLazily(t *testing.T) {
	m := NewManager(nil)
	var opened atomic.Int32
	m.RegisterOpener("test", func(ctx context.Context, cfg SourceConfig) (RowSource, error) {
		opened.Add(1)
		return NewMemorySource(), nil
	})
	require.NoError(t, m.Configure([]SourceConfig{{Name: "a", Type: "test"}}))

	assert.False(t, m.IsOpen("a"))
	assert.Equal(t, int32(0), opened.Load())

	first, err := m.Source(context.Background(), "a")
	require.NoError(t, err)
	second, err := m.Source(context.Background(), "a")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.True(t, m.IsOpen("a"))
	assert.Equal(t, int32(1), opened.Load())
}

func TestManagerConcurrentSourceReturnsOneInstance(t *testing.T) {
	m := NewManager(nil)
	require.NoError(t, m.Configure([]SourceConfig{{Name: "mem", Type: "memory"}}))

	var wg sync.WaitGroup
	got := make([]RowSource, 8)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			src, err := m.Source(context.Background(), "mem")
			assert.NoError(t, err)
			got[i] = src
		}(i)
	}
	wg.Wait()
	for _, src := range got[1:] {
		assert.Same(t, got[0], src)
	}
}

func TestManagerConfigureErrors(t *testing.T) {
	m := NewManager(nil)
	assert.Error(t, m.Configure([]SourceConfig{{Type: "memory"}}))
	assert.Error(t, m.Configure([]SourceConfig{{Name: "x", Type: "nope"}}))

	_, err := m.Source(context.Background(), "unknown")
	assert.Error(t, err)
}

func TestManagerOpenerError(t *testing.T) {
	m := NewManager(nil)
	require.NoError(t, m.Configure([]SourceConfig{
		{Name: "nocsv", Type: "csv"},
		{Name: "nosql", Type: "sql"},
	}))

	_, err := m.Source(context.Background(), "nocsv")
	assert.ErrorContains(t, err, "path is required")
	_, err = m.Source(context.Background(), "nosql")
	assert.ErrorContains(t, err, "driver and dsn are required")
	assert.False(t, m.IsOpen("nocsv"))
}

func TestManagerResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "orders.csv", "id\n1\n")

	m := NewManager(nil)
	m.SetBaseDir(filepath.Dir(dir))
	require.NoError(t, m.Configure([]SourceConfig{{Name: "files", Type: "csv", Path: filepath.Base(dir)}}))

	src, err := m.Source(context.Background(), "files")
	require.NoError(t, err)
	assert.Equal(t, dir, src.(*CSVSource).Dir())
}

func TestManagerOpensSQLite(t *testing.T) {
	m := NewManager(nil)
	dsn := filepath.Join(t.TempDir(), "m.db")
	require.NoError(t, m.Configure([]SourceConfig{{Name: "db", Type: "sql", Driver: "sqlite", DSN: dsn}}))

	src, err := m.Source(context.Background(), "db")
	require.NoError(t, err)
	_, ok := src.(*SQLSource)
	assert.True(t, ok)
	assert.NoError(t, m.Close())
	assert.False(t, m.IsOpen("db"))
}

func TestManagerNamesAndClose(t *testing.T) {
	m := NewManager(nil)
	require.NoError(t, m.Configure([]SourceConfig{{Name: "zeta", Type: "memory"}}))
	ok := &closingSource{MemorySource: NewMemorySource()}
	bad := &closingSource{MemorySource: NewMemorySource(), err: errors.New("boom")}
	m.Register("alpha", ok)
	m.Register("beta", bad)

	assert.Equal(t, []string{"alpha", "beta", "zeta"}, m.Names())

	err := m.Close()
	assert.ErrorContains(t, err, "boom")
	assert.True(t, ok.closed)
	assert.True(t, bad.closed)
}
