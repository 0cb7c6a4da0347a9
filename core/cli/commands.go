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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/google/tabula/core/browser"
	"github.com/google/tabula/core/query"
	"github.com/google/tabula/core/rendering"
	"github.com/google/tabula/core/server"
	"github.com/google/tabula/core/views"
)

var errNoApp = errors.New("configuration not loaded")

func requireApp(cmd *cobra.Command) (*App, error) {
	app := appFrom(cmd.Context())
	if app == nil {
		return nil, errNoApp
	}
	return app, nil
}

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the tabula version and build information.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "tabula v%s\n", version)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "commit %s\n", GitCommit)
		},
	}
}

// NewViewsCommand creates the views command.
func NewViewsCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "views",
		Short: "List the configured views",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := requireApp(cmd)
			if err != nil {
				return err
			}
			all := app.Views()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(views.BuildLandingViewModel(app.Config.Title, "/views", all))
			}
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Name", "Title", "Source", "Object"})
			for _, vc := range all {
				t.AppendRow(table.Row{vc.Name, vc.DisplayTitle(), vc.Source, vc.ObjectName()})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

// renderOptions are the view overrides accepted by render. They are
// passed through the same query parser the HTTP server uses.
type renderOptions struct {
	format  string
	columns string
	filter  string
	sort    string
	group   string
	limit   int
	scroll  int
	height  int
}

func (o renderOptions) query(view string) *query.Query {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set("columns", o.columns)
	set("filter", o.filter)
	set("sort", o.sort)
	set("grouped", o.group)
	if o.limit > 0 {
		v.Set("limit", strconv.Itoa(o.limit))
	}
	if o.scroll > 0 {
		v.Set("scroll", strconv.Itoa(o.scroll))
	}
	if o.height > 0 {
		v.Set("viewport", strconv.Itoa(o.height))
	}
	return query.NewQuery(&url.URL{Path: "/views/" + view, RawQuery: v.Encode()})
}

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	var opts renderOptions
	cmd := &cobra.Command{
		Use:   "render [view]",
		Short: "Render a view once and exit",
		Long: `Fetch the rows of a view and print them.

Without a view name the default view is rendered. Filters use the JSON
wire form; sort and group take comma separated field[:desc] lists.`,
		Example: `  # Render a view as a table
  tabula render orders

  # Group by region, largest amounts first, as CSV
  tabula render orders --group region --sort amount:desc --format csv

  # Only paid orders, as JSON
  tabula render orders --filter '["paid","=",true]' --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(cmd)
			if err != nil {
				return err
			}
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return runRender(cmd, app, name, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.format, "format", "f", rendering.FormatTable, "Output format (table|csv|markdown|json|html)")
	cmd.Flags().StringVar(&opts.columns, "columns", "", "Columns to show, comma separated, with optional :width")
	cmd.Flags().StringVar(&opts.filter, "filter", "", "Filter in JSON wire form")
	cmd.Flags().StringVar(&opts.sort, "sort", "", "Sort keys, e.g. amount:desc,name")
	cmd.Flags().StringVar(&opts.group, "group", "", "Group fields, e.g. region,status:desc")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Row limit (0 = view default)")
	cmd.Flags().IntVar(&opts.scroll, "scroll", 0, "First line to show")
	cmd.Flags().IntVar(&opts.height, "height", 0, "Lines to show (0 = all)")
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "csv", "markdown", "json", "html"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func runRender(cmd *cobra.Command, app *App, name string, opts renderOptions) error {
	vc, err := app.View(name)
	if err != nil {
		return err
	}
	q := opts.query(vc.Name)
	sess := app.Session(cmd.Context(), vc.WithQuery(q))
	if err := sess.Refresh(cmd.Context()); err != nil {
		return err
	}

	rowHeight := max(vc.Virtual.RowHeight, 1)
	vm := sess.ViewModel(views.Viewport{
		ScrollOffset: q.Scroll * rowHeight,
		Height:       q.Viewport * rowHeight,
		RowHeight:    rowHeight,
		Overscan:     -1,
	})
	return writeViewModel(cmd.OutOrStdout(), vm, opts.format)
}

func writeViewModel(w io.Writer, vm views.TableViewModel, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(vm)
	case "html":
		r, err := rendering.NewHTMLRenderer()
		if err != nil {
			return err
		}
		return r.Render(w, vm)
	case "", "text":
		return rendering.RenderText(w, vm, rendering.FormatTable)
	}
	return rendering.RenderText(w, vm, format)
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve views over HTTP",
		Long: `Serve every configured view as JSON, HTML and text.

  GET  /views                       view list (?format=html for a page)
  GET  /views/{name}                a view (?format=json|html|text|csv|markdown)
  POST /views/{name}/groups/toggle  collapse or expand a group (?key=)
  POST /views/{name}/select         toggle a row selection (?row=)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := requireApp(cmd)
			if err != nil {
				return err
			}
			cfg := app.Config
			srv, err := server.NewServer(server.Config{
				Addr:     cfg.Addr,
				Title:    cfg.Title,
				Views:    app.Views(),
				Sources:  app.Sources,
				Registry: app.Registry,
				Logger:   app.Logger,
				Viewport: cfg.Viewport,
				ViewsDir: cfg.ViewsDir,
				Watch:    cfg.Watch,
			})
			if err != nil {
				return err
			}
			return srv.Serve(cmd.Context())
		},
	}
	cmd.Flags().String("addr", "", "Listen address")
	cmd.Flags().Bool("watch", false, "Reload view configs when their files change")
	cmd.Flags().Int("viewport", 0, "Default page height in rows (0 = all)")
	return cmd
}

// NewBrowseCommand creates the browse command.
func NewBrowseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [view]",
		Short: "Browse a view in the terminal",
		Long: `Open a view in an interactive terminal browser.

Keys: up/down or j/k move, pgup/pgdown page, enter collapses or expands
the group under the cursor, space toggles the selection of a row, r
refetches and q quits.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(cmd)
			if err != nil {
				return err
			}
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			vc, err := app.View(name)
			if err != nil {
				return err
			}
			sess := app.Session(cmd.Context(), vc)
			return browser.Run(cmd.Context(), sess, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
