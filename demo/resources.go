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
	"fmt"
	"time"

	"github.com/google/gridstate/core/actions"
	"github.com/google/gridstate/core/server"
	"github.com/google/gridstate/core/tables"
	"github.com/google/gridstate/core/users"
	"github.com/google/gridstate/core/views"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Domains group resources on the landing page and in user profiles.
const (
	DomainOrganization = "organization"
	DomainPeople       = "people"
	DomainBilling      = "billing"
)

var (
	lowerCaser = cases.Lower(language.Und)
	titleCaser = cases.Title(language.English)
	printer    = message.NewPrinter(language.English)
)

func lower(s string) string { return lowerCaser.String(s) }

func formatMoney(v any) string {
	f, ok := v.(float64)
	if !ok {
		return tables.FormatValue(v)
	}
	return printer.Sprintf("%.2f", f)
}

func formatPercent(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v%%", v)
}

func formatYesNo(v any) string {
	if b, ok := v.(bool); ok && b {
		return "Yes"
	}
	return "No"
}

func formatTitle(v any) string {
	return titleCaser.String(tables.FormatValue(v))
}

func formatDateTime(v any) string {
	if t, ok := v.(time.Time); ok {
		return t.Format("2006-01-02 15:04")
	}
	return tables.FormatValue(v)
}

func idOf(row tables.Row) string {
	id, _ := row["id"].(string)
	return id
}

// Resources builds the dashboard tables over fresh demo data.
type Resources struct {
	logger  *zap.Logger
	clock   clockwork.Clock
	sources map[string]*MemorySource
	tables  []*server.TableDef
}

// NewResources creates every resource with its own MemorySource.
func NewResources(clock clockwork.Clock, logger *zap.Logger) *Resources {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Resources{
		logger:  logger,
		clock:   clock,
		sources: make(map[string]*MemorySource),
	}
	r.tables = []*server.TableDef{
		r.companies(),
		r.locations(),
		r.staff(),
		r.membershipPlans(),
		r.discounts(),
		r.penalties(),
		r.users(),
	}
	return r
}

// Tables returns the table definitions in landing page order.
func (r *Resources) Tables() []*server.TableDef {
	return r.tables
}

// Source returns the backend of resource, or nil.
func (r *Resources) Source(resource string) *MemorySource {
	return r.sources[resource]
}

func (r *Resources) define(def *server.TableDef, rows []tables.Row) *server.TableDef {
	source := NewMemorySource(rows, def.Columns, def.SearchFields, r.clock)
	r.sources[def.Info.Name] = source
	def.Source = source
	def.RowID = idOf
	def.ColumnVisibility = true
	if def.EmptyMessage == "" {
		def.EmptyMessage = fmt.Sprintf("No %s yet.", lower(def.Info.DisplayName))
	}
	return def
}

// logClick returns a handler that only records the click; forms are out of scope.
func (r *Resources) logClick(resource, action string) func(tables.Row) {
	return func(row tables.Row) {
		r.logger.Info("row action requested", zap.String("resource", resource), zap.String("action", action), zap.String("row", idOf(row)))
	}
}

func (r *Resources) deleteRow(resource string) func(tables.Row) {
	return func(row tables.Row) {
		if r.sources[resource].Delete(idOf(row)) {
			r.logger.Info("row deleted", zap.String("resource", resource), zap.String("row", idOf(row)))
		}
	}
}

func (r *Resources) duplicateRow(resource string) func(tables.Row) {
	return func(row tables.Row) {
		if id, ok := r.sources[resource].Duplicate(idOf(row)); ok {
			r.logger.Info("row duplicated", zap.String("resource", resource), zap.String("row", idOf(row)), zap.String("copy", id))
		}
	}
}

func (r *Resources) setField(resource, field string, value any) func(tables.Row) {
	return func(row tables.Row) {
		r.sources[resource].Set(idOf(row), field, value)
	}
}

// standardActions is view, edit and delete with the usual capability rules.
func (r *Resources) standardActions(resource string) func(users.Capabilities) *actions.Config[tables.Row] {
	return func(caps users.Capabilities) *actions.Config[tables.Row] {
		return &actions.Config[tables.Row]{
			Actions: []actions.RowAction[tables.Row]{
				actions.BuiltIn[tables.Row]{Type: actions.View, OnClick: r.logClick(resource, "view")},
				actions.BuiltIn[tables.Row]{Type: actions.Edit, OnClick: r.logClick(resource, "edit")},
				actions.BuiltIn[tables.Row]{Type: actions.Delete, OnClick: r.deleteRow(resource)},
			},
			CanEdit:   caps.CanEdit,
			CanDelete: actions.Bool(caps.CanDelete),
		}
	}
}

func (r *Resources) companies() *server.TableDef {
	return r.define(&server.TableDef{
		Info: views.TableInfo{
			Name:        "companies",
			DisplayName: "Companies",
			Description: "Tenants of the dashboard with their subscription plan.",
			Domains:     []string{DomainOrganization},
		},
		Columns: []tables.ColumnDef{
			{ID: "name", Header: "Name", Sortable: true},
			{ID: "country", Header: "Country", Sortable: true, Hideable: true},
			{ID: "plan", Header: "Plan", Sortable: true, Hideable: true, Format: formatTitle},
			{ID: "created", Header: "Customer since", Sortable: true, Hideable: true},
		},
		SearchFields:      []string{"name", "country"},
		SearchPlaceholder: "Search companies",
		Actions:           r.standardActions("companies"),
	}, CompanyRows())
}

func (r *Resources) locations() *server.TableDef {
	return r.define(&server.TableDef{
		Info: views.TableInfo{
			Name:        "locations",
			DisplayName: "Locations",
			Description: "Gyms and studios operated by the company.",
			Domains:     []string{DomainOrganization},
		},
		Columns: []tables.ColumnDef{
			{ID: "name", Header: "Name", Sortable: true, MinWidth: 160},
			{ID: "city", Header: "City", Sortable: true, Hideable: true},
			{ID: "capacity", Header: "Capacity", Sortable: true, Hideable: true, Width: 90},
			{ID: "opened", Header: "Opened", Sortable: true, Hideable: true},
		},
		SearchFields:      []string{"name", "city"},
		SearchPlaceholder: "Search locations",
		Actions: func(caps users.Capabilities) *actions.Config[tables.Row] {
			return &actions.Config[tables.Row]{
				Actions: []actions.RowAction[tables.Row]{
					actions.BuiltIn[tables.Row]{Type: actions.Edit, OnClick: r.logClick("locations", "edit")},
					actions.BuiltIn[tables.Row]{Type: actions.Duplicate, OnClick: r.duplicateRow("locations")},
					actions.BuiltIn[tables.Row]{Type: actions.Delete, OnClick: r.deleteRow("locations")},
				},
				CanEdit:   caps.CanEdit,
				CanDelete: actions.Bool(caps.CanDelete),
			}
		},
	}, LocationRows())
}

func (r *Resources) staff() *server.TableDef {
	return r.define(&server.TableDef{
		Info: views.TableInfo{
			Name:        "staff",
			DisplayName: "Staff",
			Description: "Employees across all locations, searched and paged by the backend.",
			Domains:     []string{DomainPeople},
		},
		Columns: []tables.ColumnDef{
			{
				ID:       "fullName",
				Header:   "Name",
				Accessor: func(row tables.Row) any { return fmt.Sprintf("%s %s", row["firstName"], row["lastName"]) },
				Sortable: true,
			},
			{ID: "email", Header: "Email", Sortable: true, Hideable: true, MaxWidth: 260},
			{ID: "role", Header: "Role", Sortable: true, Hideable: true, Format: formatTitle},
			{ID: "location", Header: "Location", Sortable: true, Hideable: true},
			{ID: "hired", Header: "Hired", Sortable: true, Hideable: true},
		},
		SearchFields:      []string{"fullName", "email", "role"},
		SearchPlaceholder: "Search staff by name, email or role",
		Manual:            true,
		Actions: func(caps users.Capabilities) *actions.Config[tables.Row] {
			return &actions.Config[tables.Row]{
				Actions: []actions.RowAction[tables.Row]{
					actions.BuiltIn[tables.Row]{Type: actions.Edit, OnClick: r.logClick("staff", "edit")},
					actions.BuiltIn[tables.Row]{Type: actions.Delete, Label: "Remove", OnClick: r.deleteRow("staff")},
					actions.Custom[tables.Row]{
						ID:           "send-invite",
						Label:        "Send invite",
						Icon:         "mail",
						HasSeparator: true,
						OnClick:      r.logClick("staff", "send-invite"),
						IsVisible:    func(row tables.Row) bool { return row["email"] != nil },
					},
				},
				CanEdit:   caps.CanEdit,
				CanDelete: actions.Bool(caps.CanDelete),
			}
		},
	}, StaffRows())
}

func (r *Resources) membershipPlans() *server.TableDef {
	return r.define(&server.TableDef{
		Info: views.TableInfo{
			Name:        "membership_plans",
			DisplayName: "Membership plans",
			Description: "Plans members can subscribe to.",
			Domains:     []string{DomainBilling},
		},
		Columns: []tables.ColumnDef{
			{ID: "name", Header: "Plan", Sortable: true},
			{ID: "price", Header: "Price", Sortable: true, Format: formatMoney},
			{ID: "billing", Header: "Billing", Sortable: true, Hideable: true, Format: formatTitle},
			{ID: "months", Header: "Months", Sortable: true, Hideable: true},
			{ID: "active", Header: "Active", Sortable: true, Hideable: true, Format: formatYesNo},
		},
		SearchFields:      []string{"name", "billing"},
		SearchPlaceholder: "Search plans",
		Actions: func(caps users.Capabilities) *actions.Config[tables.Row] {
			return &actions.Config[tables.Row]{
				Actions: []actions.RowAction[tables.Row]{
					actions.BuiltIn[tables.Row]{Type: actions.Edit, OnClick: r.logClick("membership_plans", "edit")},
					actions.BuiltIn[tables.Row]{Type: actions.Duplicate, OnClick: r.duplicateRow("membership_plans")},
					actions.Custom[tables.Row]{
						ID:        "archive",
						Label:     "Archive",
						Icon:      "archive",
						OnClick:   r.setField("membership_plans", "active", false),
						IsVisible: func(row tables.Row) bool { return caps.CanEdit && row["active"] == true },
					},
					actions.BuiltIn[tables.Row]{Type: actions.Delete, OnClick: r.deleteRow("membership_plans")},
				},
				CanEdit:   caps.CanEdit,
				CanDelete: actions.Bool(caps.CanDelete),
			}
		},
	}, MembershipPlanRows())
}

func (r *Resources) discounts() *server.TableDef {
	return r.define(&server.TableDef{
		Info: views.TableInfo{
			Name:        "discounts",
			DisplayName: "Discounts",
			Description: "Promotion codes and their validity.",
			Domains:     []string{DomainBilling},
		},
		Columns: []tables.ColumnDef{
			{ID: "code", Header: "Code", Sortable: true},
			{ID: "percent", Header: "Discount", Sortable: true, Format: formatPercent},
			{ID: "validUntil", Header: "Valid until", Sortable: true, Hideable: true},
			{ID: "active", Header: "Active", Sortable: true, Hideable: true, Format: formatYesNo},
		},
		SearchFields:      []string{"code"},
		SearchPlaceholder: "Search codes",
		Actions: func(caps users.Capabilities) *actions.Config[tables.Row] {
			cfg := r.standardActions("discounts")(caps)
			cfg.Actions = append(cfg.Actions, actions.Custom[tables.Row]{
				ID:            "deactivate",
				Label:         "Deactivate",
				Icon:          "pause",
				HasSeparator:  true,
				IsDestructive: true,
				OnClick:       r.setField("discounts", "active", false),
				IsVisible:     func(row tables.Row) bool { return caps.CanEdit && row["active"] == true },
			})
			return cfg
		},
	}, DiscountRows())
}

func (r *Resources) penalties() *server.TableDef {
	return r.define(&server.TableDef{
		Info: views.TableInfo{
			Name:        "penalties",
			DisplayName: "Penalties",
			Description: "Fees charged to members, served page by page.",
			Domains:     []string{DomainBilling},
		},
		Columns: []tables.ColumnDef{
			{ID: "member", Header: "Member", Sortable: true},
			{ID: "reason", Header: "Reason", Sortable: true, Hideable: true},
			{ID: "amount", Header: "Amount", Sortable: true, Format: formatMoney},
			{ID: "issued", Header: "Issued", Sortable: true, Hideable: true},
			{ID: "paid", Header: "Paid", Sortable: true, Hideable: true, Format: formatYesNo},
		},
		SearchFields:      []string{"member", "reason"},
		SearchPlaceholder: "Search penalties",
		Manual:            true,
		Actions: func(caps users.Capabilities) *actions.Config[tables.Row] {
			return &actions.Config[tables.Row]{
				Actions: []actions.RowAction[tables.Row]{
					actions.BuiltIn[tables.Row]{Type: actions.View, OnClick: r.logClick("penalties", "view")},
					actions.Custom[tables.Row]{
						ID:        "mark-paid",
						Label:     "Mark as paid",
						Icon:      "check",
						OnClick:   r.setField("penalties", "paid", true),
						IsVisible: func(row tables.Row) bool { return caps.CanEdit && row["paid"] == false },
					},
					actions.BuiltIn[tables.Row]{Type: actions.Delete, Label: "Waive", OnClick: r.deleteRow("penalties")},
				},
				CanEdit:   caps.CanEdit,
				CanDelete: actions.Bool(caps.CanDelete),
			}
		},
	}, PenaltyRows())
}

func (r *Resources) users() *server.TableDef {
	return r.define(&server.TableDef{
		Info: views.TableInfo{
			Name:        "users",
			DisplayName: "Users",
			Description: "Dashboard accounts and their roles.",
			Domains:     []string{DomainOrganization, DomainPeople},
		},
		Columns: []tables.ColumnDef{
			{ID: "email", Header: "Email", Sortable: true},
			{ID: "role", Header: "Role", Sortable: true, Hideable: true, Format: formatTitle},
			{ID: "lastLogin", Header: "Last login", Sortable: true, Hideable: true, Format: formatDateTime},
		},
		SearchFields:      []string{"email", "role"},
		SearchPlaceholder: "Search users",
		Actions:           r.standardActions("users"),
	}, UserRows())
}
