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

// Package config loads application settings from defaults, a YAML file,
// TABULA_* environment variables and command-line flags, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/google/tabula/datasources"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "TABULA_"

// DefaultFiles are the config files searched in the working directory when
// no explicit path is given.
var DefaultFiles = []string{"tabula.yaml", "tabula.yml"}

const (
	DefaultAddr      = "127.0.0.1:8097"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "auto"
	DefaultViewsDir  = "views"
	DefaultTitle     = "Tabula"
	DefaultViewport  = 50
	DefaultOverscan  = 5
)

// Config is the application configuration.
type Config struct {
	LogLevel    string                     `koanf:"log_level"`
	LogFormat   string                     `koanf:"log_format"`
	Addr        string                     `koanf:"addr"`
	Title       string                     `koanf:"title"`
	ViewsDir    string                     `koanf:"views_dir"`
	DefaultView string                     `koanf:"default_view"`
	Watch       bool                       `koanf:"watch"`
	Viewport    int                        `koanf:"viewport"`
	RowHeight   int                        `koanf:"row_height"`
	Overscan    int                        `koanf:"overscan"`
	Sources     []datasources.SourceConfig `koanf:"sources"`

	// File is the config file that was read, empty when none was found.
	File string `koanf:"-"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() map[string]any {
	return map[string]any{
		"log_level":  DefaultLogLevel,
		"log_format": DefaultLogFormat,
		"addr":       DefaultAddr,
		"title":      DefaultTitle,
		"views_dir":  DefaultViewsDir,
		"watch":      false,
		"viewport":   DefaultViewport,
		"row_height": 1,
		"overscan":   DefaultOverscan,
	}
}

// findConfigFile returns explicit when set, otherwise the first default
// file that exists.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range DefaultFiles {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load builds the configuration. cfgFile may be empty; flags may be nil.
// Only flags that were explicitly set override lower layers, and flag names
// map to keys by replacing dashes with underscores.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// TABULA_VIEWS_DIR -> views_dir
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = used

	// Paths in a config file are relative to the file.
	if used != "" {
		base := filepath.Dir(used)
		cfg.ViewsDir = resolvePathRelativeTo(cfg.ViewsDir, base)
		for i := range cfg.Sources {
			cfg.Sources[i].Path = resolvePathRelativeTo(cfg.Sources[i].Path, base)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values the loader cannot type-check.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.LogFormat) {
	case "auto", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be auto, text or json, got %q", c.LogFormat))
	}
	if c.Viewport < 0 {
		errs = append(errs, fmt.Errorf("viewport must not be negative, got %d", c.Viewport))
	}
	if c.RowHeight <= 0 {
		errs = append(errs, fmt.Errorf("row_height must be positive, got %d", c.RowHeight))
	}
	if c.Overscan < 0 {
		errs = append(errs, fmt.Errorf("overscan must not be negative, got %d", c.Overscan))
	}
	seen := make(map[string]bool)
	for _, s := range c.Sources {
		if s.Name == "" {
			errs = append(errs, errors.New("source without name"))
			continue
		}
		if seen[s.Name] {
			errs = append(errs, fmt.Errorf("duplicate source %q", s.Name))
		}
		seen[s.Name] = true
	}
	return errors.Join(errs...)
}

func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
