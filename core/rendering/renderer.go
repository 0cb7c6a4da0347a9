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

// Package rendering turns table view models into HTML and text, and
// supplies the default per-type cell renderers.
package rendering

import (
	"embed"
	"errors"
	"fmt"
	"io"

	"github.com/google/safehtml/template"

	"github.com/google/tabula/core/views"
)

//go:embed templates/*.html
var templateFS embed.FS

// ErrUnsupportedModel is returned by Render for a value no template renders.
var ErrUnsupportedModel = errors.New("no template for view model")

// HTMLRenderer renders view models to HTML pages. One template set holds
// every page; the model's kind picks the page.
type HTMLRenderer struct {
	pages *template.Template
}

// NewHTMLRenderer parses the embedded page templates.
func NewHTMLRenderer() (*HTMLRenderer, error) {
	pages, err := template.ParseFS(template.TrustedFSFromEmbed(templateFS), "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &HTMLRenderer{pages: pages}, nil
}

// Render writes the page for vm, a views.TableViewModel or a
// views.LandingViewModel (or a pointer to one).
func (r *HTMLRenderer) Render(w io.Writer, vm any) error {
	var page string
	switch m := vm.(type) {
	case views.TableViewModel:
		page, vm = "view.html", &m
	case *views.TableViewModel:
		page = "view.html"
	case views.LandingViewModel, *views.LandingViewModel:
		page = "landing.html"
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedModel, vm)
	}
	return r.pages.ExecuteTemplate(w, page, vm)
}
