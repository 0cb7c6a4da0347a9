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

package views

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchViewConfigReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orders.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source: shop\nlimit: 1\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []ViewConfig
	done := make(chan error, 1)
	go func() {
		done <- WatchViewConfig(ctx, path, nil, func(cfg ViewConfig) {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, cfg)
		})
	}()

	// Writes repeat until one is seen, since the watcher starts asynchronously.
	n := 1
	assert.Eventually(t, func() bool {
		n++
		_ = os.WriteFile(path, []byte(fmt.Sprintf("source: shop\nlimit: %d\n", n)), 0o644)
		mu.Lock()
		defer mu.Unlock()
		for _, cfg := range got {
			if cfg.Limit > 1 {
				return true
			}
		}
		return false
	}, 5*time.Second, 200*time.Millisecond)

	mu.Lock()
	require.NotEmpty(t, got)
	assert.Equal(t, "orders", got[0].Name)
	mu.Unlock()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchViewConfigMissingDir(t *testing.T) {
	err := WatchViewConfig(context.Background(), filepath.Join(t.TempDir(), "nope", "v.yaml"), nil, func(ViewConfig) {})
	assert.Error(t, err)
}
