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
	"net/url"

	"github.com/google/safehtml"
)

// LandingViewModel lists the configured views.
type LandingViewModel struct {
	Title string     `json:"title"`
	Views []ViewLink `json:"views"`
}

// ViewLink is one entry of the view list.
type ViewLink struct {
	Name   string       `json:"name"`
	Title  string       `json:"title"`
	Source string       `json:"source"`
	Object string       `json:"object"`
	URL    safehtml.URL `json:"-"`
}

// BuildLandingViewModel links every config under basePath.
func BuildLandingViewModel(title, basePath string, configs []ViewConfig) LandingViewModel {
	vm := LandingViewModel{Title: title, Views: make([]ViewLink, len(configs))}
	for i, cfg := range configs {
		vm.Views[i] = ViewLink{
			Name:   cfg.Name,
			Title:  cfg.DisplayTitle(),
			Source: cfg.Source,
			Object: cfg.ObjectName(),
			URL:    safehtml.URLSanitized(basePath + "/" + url.PathEscape(cfg.Name) + "?format=html"),
		}
	}
	return vm
}
