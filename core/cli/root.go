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

// Package cli provides the tabula command line: rendering views to the
// terminal, serving them over HTTP and browsing them interactively.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// appKey is used to store the App in the command context.
type appKey struct{}

// NewRootCmd creates the root command. setups run, in order, once the
// configuration is loaded.
func NewRootCmd(setups ...Setup) *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "tabula",
		Short: "Tabula - declarative table views",
		Long: `Tabula renders declarative table views over row sources.

A view names a source and object, the columns to show, and optional
filters, sort keys, grouping and summaries. Views render as text, CSV,
Markdown, JSON or HTML, and can be served over HTTP or browsed in the
terminal.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch cmd.Name() {
			case "help", "completion", "__complete", "version":
				return nil
			}
			app, err := loadApp(cmd.Context(), cfgFile, cmd.Flags(), cmd.ErrOrStderr(), setups)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, app))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if app := appFrom(cmd.Context()); app != nil {
				return app.Close()
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./tabula.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (auto|text|json)")
	rootCmd.PersistentFlags().String("views-dir", "", "Directory of view config files")
	rootCmd.PersistentFlags().String("default-view", "", "View used when none is named")

	_ = rootCmd.RegisterFlagCompletionFunc("log-format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "text", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(NewVersionCommand(Version))
	rootCmd.AddCommand(NewViewsCommand())
	rootCmd.AddCommand(NewRenderCommand())
	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewBrowseCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute(ctx context.Context, setups ...Setup) error {
	rootCmd := NewRootCmd(setups...)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func appFrom(ctx context.Context) *App {
	if ctx == nil {
		return nil
	}
	app, _ := ctx.Value(appKey{}).(*App)
	return app
}
