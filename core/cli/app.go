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
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"sort"

	"github.com/spf13/pflag"

	"github.com/google/tabula/core/config"
	"github.com/google/tabula/core/logging"
	"github.com/google/tabula/core/rendering"
	"github.com/google/tabula/core/server"
	"github.com/google/tabula/core/views"
	"github.com/google/tabula/datasources"
)

// App holds what every command needs: the loaded configuration, a logger,
// the named row sources and the view configs.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Sources  *datasources.Manager
	Registry *rendering.Registry

	views map[string]views.ViewConfig
}

// Setup runs after the configuration is loaded and before the command.
// It may register sources and views.
type Setup func(ctx context.Context, app *App) error

// NewApp builds the app for cfg: it configures the named sources and loads
// the view configs found in cfg.ViewsDir. A missing views directory is not
// an error.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	sources := datasources.NewManager(logger)
	if err := sources.Configure(cfg.Sources); err != nil {
		return nil, err
	}
	app := &App{
		Config:   cfg,
		Logger:   logger,
		Sources:  sources,
		Registry: rendering.DefaultRegistry(),
		views:    make(map[string]views.ViewConfig),
	}
	if cfg.ViewsDir != "" {
		loaded, err := views.LoadViewConfigs(cfg.ViewsDir)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logger.Debug("views directory not found", "dir", cfg.ViewsDir)
		case err != nil:
			return nil, err
		}
		for _, vc := range loaded {
			app.AddView(vc)
		}
	}
	return app, nil
}

func loadApp(ctx context.Context, cfgFile string, flags *pflag.FlagSet, stderr io.Writer, setups []Setup) (*App, error) {
	cfg, err := config.Load(cfgFile, flags)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	if cfg.File != "" {
		logger.Debug("using config file", "file", cfg.File)
	}

	app, err := NewApp(cfg, logger)
	if err != nil {
		return nil, err
	}
	for _, setup := range setups {
		if err := setup(ctx, app); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// AddView adds or replaces a view config. Unset window sizes take the
// configured defaults.
func (a *App) AddView(vc views.ViewConfig) {
	if vc.Virtual.RowHeight == 0 {
		vc.Virtual.RowHeight = a.Config.RowHeight
	}
	if vc.Virtual.Overscan == 0 {
		vc.Virtual.Overscan = a.Config.Overscan
	}
	a.views[vc.Name] = vc
}

// HasView reports whether a view named name exists.
func (a *App) HasView(name string) bool {
	_, ok := a.views[name]
	return ok
}

// Views returns the view configs sorted by name.
func (a *App) Views() []views.ViewConfig {
	out := make([]views.ViewConfig, 0, len(a.views))
	for _, vc := range a.views {
		out = append(out, vc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// View resolves a view by name. An empty name picks the configured default
// view, then the first view by name.
func (a *App) View(name string) (views.ViewConfig, error) {
	if name == "" {
		name = a.Config.DefaultView
	}
	if name == "" {
		if all := a.Views(); len(all) > 0 {
			return all[0], nil
		}
		return views.ViewConfig{}, fmt.Errorf("%w: no views configured", server.ErrViewNotFound)
	}
	vc, ok := a.views[name]
	if !ok {
		return views.ViewConfig{}, fmt.Errorf("%w: %q", server.ErrViewNotFound, name)
	}
	return vc, nil
}

// Session opens the view's source and returns a new session over it. A
// source that cannot be opened is logged and leaves the session without a
// transport, so Refresh reports views.ErrMissingTransport.
func (a *App) Session(ctx context.Context, vc views.ViewConfig) *views.Session {
	var src datasources.RowSource
	if opened, err := a.Sources.Source(ctx, vc.Source); err != nil {
		a.Logger.Warn("view source unavailable", "view", vc.Name, "source", vc.Source, "error", err)
	} else {
		src = opened
	}
	return views.NewSession(vc, src, views.WithLogger(a.Logger), views.WithRegistry(a.Registry))
}

// Close releases the opened sources.
func (a *App) Close() error {
	return a.Sources.Close()
}
