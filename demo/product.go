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

package demo

import (
	"cmp"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/google/gridstate/core/server"
	"github.com/google/gridstate/core/users"
	"gopkg.in/yaml.v3"
)

//go:embed products.yaml
var defaultProducts []byte

// Product is a dashboard showing the resources of some domains.
type Product struct {
	// Name is the identifier used on the command line.
	Name string `yaml:"name"`

	// Title is displayed on the landing page.
	Title string `yaml:"title"`

	// Subtitle is displayed below the title.
	Subtitle string `yaml:"subtitle"`

	// Domains this product includes. Tables matching any of these domains are shown.
	// Empty includes every table.
	Domains []string `yaml:"domains"`

	// registry is a reference to the parent registry for accessing all tables.
	registry *ProductRegistry
}

// GetName returns the product name.
func (p *Product) GetName() string {
	return p.Name
}

// GetTitle returns the product title.
func (p *Product) GetTitle() string {
	return p.Title
}

// GetSubtitle returns the product subtitle.
func (p *Product) GetSubtitle() string {
	return p.Subtitle
}

// GetTables returns tables filtered by the product's domains.
func (p *Product) GetTables() []*server.TableDef {
	if p.registry == nil {
		return nil
	}
	return p.registry.GetTablesForDomains(p.Domains)
}

// GetTable returns the named table if the product includes it.
func (p *Product) GetTable(name string) *server.TableDef {
	for _, t := range p.GetTables() {
		if t.Info.Name == name {
			return t
		}
	}
	return nil
}

// ProductRegistry manages multiple products over one set of tables.
type ProductRegistry struct {
	products  map[string]*Product
	fallback  string // Name of the default product
	allTables []*server.TableDef
}

// NewProductRegistry creates a new product registry.
func NewProductRegistry() *ProductRegistry {
	return &ProductRegistry{
		products: make(map[string]*Product),
		fallback: "dashboard",
	}
}

// SetTables sets the tables shared by all products.
func (r *ProductRegistry) SetTables(tables []*server.TableDef) {
	r.allTables = tables
}

// GetTablesForDomains returns tables that match any of the given domains.
func (r *ProductRegistry) GetTablesForDomains(domains []string) []*server.TableDef {
	if len(domains) == 0 {
		return r.allTables
	}

	probe := &users.UserProfile{Domains: domains}
	var result []*server.TableDef
	for _, table := range r.allTables {
		if users.HasAnyDomain(probe, table.Info.Domains) {
			result = append(result, table)
		}
	}
	return result
}

// Register adds a product to the registry.
func (r *ProductRegistry) Register(product *Product) {
	product.registry = r
	r.products[product.Name] = product
}

// SetFallback sets the product returned for unknown names.
func (r *ProductRegistry) SetFallback(name string) {
	r.fallback = name
}

// Get returns a product by name, or the fallback product if not found.
func (r *ProductRegistry) Get(name string) *Product {
	if name == "" {
		name = r.fallback
	}
	if product, ok := r.products[name]; ok {
		return product
	}
	return r.products[r.fallback]
}

// GetAll returns all registered products sorted by name.
func (r *ProductRegistry) GetAll() []*Product {
	result := make([]*Product, 0, len(r.products))
	for _, p := range r.products {
		result = append(result, p)
	}
	slices.SortFunc(result, func(a, b *Product) int { return cmp.Compare(a.Name, b.Name) })
	return result
}

// LoadDefaults registers the products shipped with the demo.
func (r *ProductRegistry) LoadDefaults() error {
	products, err := ParseProducts(defaultProducts)
	if err != nil {
		return fmt.Errorf("failed to parse built-in products: %w", err)
	}
	for _, p := range products {
		r.Register(p)
	}
	return nil
}

// LoadFromDirectory registers the products of every *.yaml file in dir.
func (r *ProductRegistry) LoadFromDirectory(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return fmt.Errorf("failed to list products directory: %w", err)
	}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		products, err := ParseProducts(data)
		if err != nil {
			return fmt.Errorf("failed to load products %s: %w", filepath.Base(file), err)
		}
		for _, p := range products {
			r.Register(p)
		}
	}
	return nil
}

// ParseProducts decodes a YAML list of products.
func ParseProducts(data []byte) ([]*Product, error) {
	var products []*Product
	if err := yaml.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	for i, p := range products {
		if p == nil || p.Name == "" {
			return nil, fmt.Errorf("product %d has no name", i)
		}
	}
	return products, nil
}
