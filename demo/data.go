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
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/gridstate/core/csvimport"
	"github.com/google/gridstate/core/tables"
	"github.com/google/uuid"
)

//go:embed seed/discounts.csv
var discountsCSV []byte

// Company is one tenant of the dashboard.
type Company struct {
	Slug    string
	Name    string
	Country string
	Plan    string
}

// Companies are the demo tenants.
var Companies = []Company{
	{Slug: "acme", Name: "Acme Fitness", Country: "Switzerland", Plan: "enterprise"},
	{Slug: "globex", Name: "Globex Gyms", Country: "Germany", Plan: "growth"},
	{Slug: "initech", Name: "Initech Wellness", Country: "United States", Plan: "starter"},
}

var (
	firstNames = []string{"Ada", "Brian", "Chen", "Dalia", "Emil", "Fatou", "Greta", "Hiro", "Ines", "Jonas", "Kemal", "Lea", "Mateo", "Nora", "Oskar", "Priya"}
	lastNames  = []string{"Keller", "Okafor", "Rossi", "Nakamura", "Schmid", "Larsen", "Moreau", "Novak", "Silva", "Weber", "Yilmaz"}
	cities     = []string{"Zürich", "Bern", "Basel", "Berlin", "München", "Hamburg", "Austin", "Denver"}
	roles      = []string{"coach", "front desk", "manager", "physio", "cleaner"}
	planNames  = []string{"Basic", "Flex", "Premium", "Student", "Family", "Off-Peak"}
	reasons    = []string{"Late cancellation", "No show", "Equipment damage", "Locker overdue", "Guest pass misuse"}
)

// baseDate anchors generated dates so the data is stable across runs.
var baseDate = time.Date(2024, time.January, 8, 9, 0, 0, 0, time.UTC)

// rowID derives a stable id so links and persisted state survive restarts.
func rowID(resource string, n int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("gridstate/%s/%d", resource, n))).String()
}

func pick[T any](values []T, n int) T {
	return values[n%len(values)]
}

// CompanyRows returns one row per tenant.
func CompanyRows() []tables.Row {
	rows := make([]tables.Row, 0, len(Companies))
	for i, c := range Companies {
		rows = append(rows, tables.Row{
			"id":        rowID("companies", i),
			TenantField: c.Slug,
			"name":      c.Name,
			"country":   c.Country,
			"plan":      c.Plan,
			"created":   baseDate.AddDate(-2+i, i*2, 0),
		})
	}
	return rows
}

// LocationRows returns the gyms of every tenant.
func LocationRows() []tables.Row {
	var rows []tables.Row
	n := 0
	for ci, c := range Companies {
		for i := 0; i < 3+ci; i++ {
			city := pick(cities, ci*3+i)
			rows = append(rows, tables.Row{
				"id":        rowID("locations", n),
				TenantField: c.Slug,
				"name":      fmt.Sprintf("%s %s", c.Name, city),
				"city":      city,
				"capacity":  80 + (n*37)%220,
				"opened":    baseDate.AddDate(-i, -n, 0),
			})
			n++
		}
	}
	return rows
}

// StaffRows returns the employees of every tenant.
func StaffRows() []tables.Row {
	var rows []tables.Row
	n := 0
	for ci, c := range Companies {
		for i := 0; i < 30+ci*12; i++ {
			first := pick(firstNames, n*7+ci)
			last := pick(lastNames, n*3+i)
			row := tables.Row{
				"id":        rowID("staff", n),
				TenantField: c.Slug,
				"firstName": first,
				"lastName":  last,
				"email":     fmt.Sprintf("%s.%s%d@%s.example", lower(first), lower(last), n, c.Slug),
				"role":      pick(roles, n),
				"location":  pick(cities, ci*3+n%3),
				"hired":     baseDate.AddDate(0, -n%40, -n),
			}
			// Some staff have not been given an email address yet
			if n%9 == 4 {
				row["email"] = nil
			}
			rows = append(rows, row)
			n++
		}
	}
	return rows
}

// MembershipPlanRows returns the plans every tenant sells.
func MembershipPlanRows() []tables.Row {
	var rows []tables.Row
	n := 0
	for ci, c := range Companies {
		for i, name := range planNames {
			yearly := (i+ci)%2 == 1
			price := 39.0 + float64(i*15+ci*5)
			billing, months := "monthly", 1
			if yearly {
				price *= 10
				billing, months = "yearly", 12
			}
			rows = append(rows, tables.Row{
				"id":        rowID("membership_plans", n),
				TenantField: c.Slug,
				"name":      name,
				"price":     price,
				"billing":   billing,
				"months":    months,
				"active":    (n % 5) != 3,
			})
			n++
		}
	}
	return rows
}

// DiscountRows returns promotion codes, imported from the embedded CSV seed.
func DiscountRows() []tables.Row {
	options := csvimport.DefaultOptions()
	options.ColumnSources = map[string]csvimport.ColumnSource{
		"company":     {Name: TenantField},
		"valid_until": {Name: "validUntil"},
	}
	result, err := csvimport.ImportFromReader(bytes.NewReader(discountsCSV), options)
	if err != nil {
		panic(fmt.Sprintf("demo: bad discounts seed: %v", err))
	}
	for i, row := range result.Rows {
		row["id"] = rowID("discounts", i)
	}
	return result.Rows
}

// PenaltyRows returns fees charged to members.
func PenaltyRows() []tables.Row {
	var rows []tables.Row
	n := 0
	for ci, c := range Companies {
		for i := 0; i < 60+ci*20; i++ {
			rows = append(rows, tables.Row{
				"id":        rowID("penalties", n),
				TenantField: c.Slug,
				"member":    fmt.Sprintf("%s %s", pick(firstNames, n*5+1), pick(lastNames, n)),
				"reason":    pick(reasons, n*3+ci),
				"amount":    float64(5 + (n*13)%95),
				"issued":    baseDate.AddDate(0, 0, -n*2),
				"paid":      n%4 == 0,
			})
			n++
		}
	}
	return rows
}

// UserRows returns dashboard accounts.
func UserRows() []tables.Row {
	var rows []tables.Row
	n := 0
	for ci, c := range Companies {
		for i := 0; i < 5; i++ {
			first := pick(firstNames, n*3+ci)
			rows = append(rows, tables.Row{
				"id":        rowID("users", n),
				TenantField: c.Slug,
				"email":     fmt.Sprintf("%s@%s.example", lower(first), c.Slug),
				"role":      pick([]string{"owner", "manager", "staff", "viewer"}, i),
				"lastLogin": baseDate.Add(-time.Duration(n*17) * time.Hour),
			})
			n++
		}
	}
	return rows
}
