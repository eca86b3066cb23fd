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

package rendering

import (
	"embed"
	"fmt"
	"io"

	"github.com/google/gridstate/core/views"
	"github.com/google/safehtml/template"
)

//go:embed templates/*
var templateFS embed.FS

// TableRenderer turns view models into HTML pages. The table page switches on
// the view model status (loading skeleton, error, empty or rows with pager).
type TableRenderer struct {
	tableTemplate   *template.Template
	landingTemplate *template.Template
}

// parsePage loads one page template from the embedded templates directory.
func parsePage(fs template.TrustedFS, name string) (*template.Template, error) {
	tmpl, err := template.New(name).ParseFS(fs, "templates/"+name)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return tmpl, nil
}

// NewTableRenderer parses the table and landing page templates.
func NewTableRenderer() (*TableRenderer, error) {
	trustedFS := template.TrustedFSFromEmbed(templateFS)

	tableTemplate, err := parsePage(trustedFS, "table.html")
	if err != nil {
		return nil, err
	}
	landingTemplate, err := parsePage(trustedFS, "landing.html")
	if err != nil {
		return nil, err
	}

	return &TableRenderer{
		tableTemplate:   tableTemplate,
		landingTemplate: landingTemplate,
	}, nil
}

// Render writes the table page for vm.
func (r *TableRenderer) Render(w io.Writer, vm views.TableViewModel) error {
	if err := r.tableTemplate.Execute(w, vm); err != nil {
		return fmt.Errorf("render table %q: %w", vm.Table, err)
	}
	return nil
}

// RenderLanding writes the list of tables the user may open.
func (r *TableRenderer) RenderLanding(w io.Writer, vm views.LandingViewModel) error {
	if err := r.landingTemplate.Execute(w, vm); err != nil {
		return fmt.Errorf("render landing page: %w", err)
	}
	return nil
}
