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

// Package server exposes views over HTTP as JSON, HTML and text.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/query"
	"github.com/google/tabula/core/rendering"
	"github.com/google/tabula/core/views"
	"github.com/google/tabula/datasources"
)

// ErrViewNotFound is returned for a view name with no config.
var ErrViewNotFound = errors.New("view not found")

// Config holds configuration for the server.
type Config struct {
	Addr     string
	Title    string
	Views    []views.ViewConfig
	Sources  *datasources.Manager
	Registry columns.CellRendererRegistry
	Logger   *slog.Logger

	// Viewport is the default page height in rows; 0 shows every row.
	Viewport int

	// ViewsDir, when Watch is set, is watched for view config changes.
	ViewsDir string
	Watch    bool
}

// Server represents the application server with all its dependencies
type Server struct {
	addr     string
	title    string
	sources  *datasources.Manager
	registry columns.CellRendererRegistry
	renderer *rendering.HTMLRenderer
	logger   *slog.Logger
	viewport int
	viewsDir string
	watch    bool

	mu       sync.RWMutex
	configs  map[string]views.ViewConfig
	sessions map[string]*views.Session
}

// NewServer creates a new server for the configured views.
func NewServer(cfg Config) (*Server, error) {
	renderer, err := rendering.NewHTMLRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Sources == nil {
		cfg.Sources = datasources.NewManager(cfg.Logger)
	}
	if cfg.Registry == nil {
		cfg.Registry = rendering.DefaultRegistry()
	}
	if cfg.Title == "" {
		cfg.Title = "Views"
	}

	s := &Server{
		addr:     cfg.Addr,
		title:    cfg.Title,
		sources:  cfg.Sources,
		registry: cfg.Registry,
		renderer: renderer,
		logger:   cfg.Logger,
		viewport: cfg.Viewport,
		viewsDir: cfg.ViewsDir,
		watch:    cfg.Watch,
		configs:  make(map[string]views.ViewConfig),
		sessions: make(map[string]*views.Session),
	}
	for _, vc := range cfg.Views {
		if err := vc.Validate(); err != nil {
			return nil, err
		}
		s.configs[vc.Name] = vc
	}
	return s, nil
}

// SetViewConfig adds or replaces a view config. An open session of the
// view picks it up on its next request.
func (s *Server) SetViewConfig(vc views.ViewConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[vc.Name] = vc
	if sess, ok := s.sessions[vc.Name]; ok {
		sess.SetConfig(vc)
	}
	s.logger.Info("view config updated", "view", vc.Name)
}

// ViewConfigs returns the view configs sorted by name.
func (s *Server) ViewConfigs() []views.ViewConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]views.ViewConfig, 0, len(s.configs))
	for _, vc := range s.configs {
		out = append(out, vc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Session returns the session of view name, opening it on first use. A
// view whose source cannot be opened gets a session without a source,
// which fails on refresh with views.ErrMissingTransport.
func (s *Server) Session(ctx context.Context, name string) (*views.Session, views.ViewConfig, error) {
	s.mu.RLock()
	vc, ok := s.configs[name]
	sess := s.sessions[name]
	s.mu.RUnlock()
	if !ok {
		return nil, vc, fmt.Errorf("%w: %q", ErrViewNotFound, name)
	}
	if sess != nil {
		return sess, vc, nil
	}

	var src datasources.RowSource
	if opened, err := s.sources.Source(ctx, vc.Source); err != nil {
		s.logger.Warn("view source unavailable", "view", name, "source", vc.Source, "error", err)
	} else {
		src = opened
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[name]; ok {
		return existing, vc, nil
	}
	sess = views.NewSession(vc, src, views.WithLogger(s.logger), views.WithRegistry(s.registry))
	s.sessions[name] = sess
	return sess, vc, nil
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(s.logger),
		middleware.Recoverer,
	)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/views?format=html", http.StatusFound)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Route("/views", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Get("/{name}", s.handleView)
		r.Post("/{name}/groups/toggle", s.handleToggleGroup)
		r.Post("/{name}/select", s.handleSelect)
	})
	return r
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch && s.viewsDir != "" {
		if err := s.watchViews(egctx, eg); err != nil {
			s.logger.Error("failed to watch views directory", "dir", s.viewsDir, "error", err)
		}
	}

	eg.Go(func() error {
		s.logger.Info("starting server", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func (s *Server) watchViews(ctx context.Context, eg *errgroup.Group) error {
	entries, err := os.ReadDir(s.viewsDir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !views.IsConfigFile(e.Name()) {
			continue
		}
		path := filepath.Join(s.viewsDir, e.Name())
		eg.Go(func() error {
			return views.WatchViewConfig(ctx, path, s.logger, s.SetViewConfig)
		})
	}
	return nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	vm := views.BuildLandingViewModel(s.title, "/views", s.ViewConfigs())
	if query.NewQuery(r.URL).Format == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := s.renderer.Render(w, vm); err != nil {
			s.logger.Error("failed to render view list", "error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, vm)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	q := query.NewQuery(r.URL)

	sess, vc, err := s.Session(r.Context(), name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	// The shared session keeps collapse and selection state; each request
	// fetches through its own fork.
	sess = sess.Fork(vc.WithQuery(q))
	if err := sess.Refresh(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}

	height := q.Viewport
	if height == 0 {
		height = s.viewport
	}
	vm := sess.ViewModel(views.Viewport{ScrollOffset: q.Scroll, Height: height, RowHeight: 1})
	if q.Viewport == 0 && height > 0 {
		q.Viewport = height
	}
	vm.WithLinks(q)

	switch q.Format {
	case "", "json":
		writeJSON(w, http.StatusOK, vm)
	case "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := s.renderer.Render(w, vm); err != nil {
			s.logger.Error("failed to render view", "view", name, "error", err)
		}
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_ = rendering.RenderText(w, vm, rendering.FormatTable)
	case rendering.FormatCSV:
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		_ = rendering.RenderText(w, vm, rendering.FormatCSV)
	case rendering.FormatMarkdown:
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_ = rendering.RenderText(w, vm, rendering.FormatMarkdown)
	default:
		writeJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("unknown format %q", q.Format)})
	}
}

func (s *Server) handleToggleGroup(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	sess, _, err := s.Session(r.Context(), name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	key := r.URL.Query().Get("key")
	collapsed := sess.ToggleGroup(key)
	if redirectBack(w, r, viewPath(name)) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"key": key, "collapsed": collapsed})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	sess, _, err := s.Session(r.Context(), name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	row := r.URL.Query().Get("row")
	if row == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "row parameter is required"})
		return
	}
	selected := sess.ToggleSelect(row)
	if redirectBack(w, r, viewPath(name)) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"row": row, "selected": selected, "rows": sess.Selected()})
}

// redirectBack sends form posts from the HTML view back to the page. Only
// a referer on this host is followed; any other goes to fallback.
func redirectBack(w http.ResponseWriter, r *http.Request, fallback string) bool {
	ref := r.Referer()
	if ref == "" {
		return false
	}
	http.Redirect(w, r, sameHostTarget(ref, r.Host, fallback), http.StatusSeeOther)
	return true
}

// sameHostTarget returns the path and query of ref when it points at host.
func sameHostTarget(ref, host, fallback string) string {
	u, err := url.Parse(ref)
	if err != nil || u.Opaque != "" || u.User != nil {
		return fallback
	}
	if u.Host != "" && !strings.EqualFold(u.Host, host) {
		return fallback
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return fallback
	}
	target := u.RequestURI()
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}
	return target
}

func viewPath(name string) string {
	return "/views/" + url.PathEscape(name) + "?format=html"
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrViewNotFound), errors.Is(err, datasources.ErrObjectNotFound):
		status = http.StatusNotFound
	case errors.Is(err, views.ErrMissingTransport):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled):
		// The client went away.
		return
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// requestLogger logs one line per request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Debug("request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
