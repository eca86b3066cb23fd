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

package users

import "testing"

func TestHasPermission(t *testing.T) {
	user := &UserProfile{Permissions: []string{"staff:edit", "discounts:*"}}
	tests := []struct {
		permission string
		want       bool
	}{
		{"staff:edit", true},
		{"staff:delete", false},
		{"discounts:delete", true},
		{"companies:edit", false},
	}
	for _, tt := range tests {
		t.Run(tt.permission, func(t *testing.T) {
			if got := HasPermission(user, tt.permission); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}

	if !HasPermission(&UserProfile{Permissions: []string{"*"}}, "anything:delete") {
		t.Error("Expected global wildcard to grant every permission")
	}
	if HasPermission(nil, "staff:edit") {
		t.Error("Expected nil user to have no permissions")
	}
}

func TestCapabilitiesFor(t *testing.T) {
	user := &UserProfile{Permissions: []string{"staff:edit"}}
	caps := CapabilitiesFor(user, "staff")
	if !caps.CanEdit || caps.CanDelete {
		t.Errorf("Expected edit only, got %+v", caps)
	}
	if caps := CapabilitiesFor(user, "penalties"); caps.CanEdit || caps.CanDelete {
		t.Errorf("Expected no rights on penalties, got %+v", caps)
	}
}

func TestDomainsAndTenants(t *testing.T) {
	user := &UserProfile{Domains: []string{"people"}, Tenants: []string{"acme", "globex"}}

	if !HasDomain(user, "people") || HasDomain(user, "billing") {
		t.Error("Expected only the people domain")
	}
	if !HasAnyDomain(user, []string{"billing", "people"}) {
		t.Error("Expected a match on people")
	}
	if !TenantAllowed(user, "globex") || TenantAllowed(user, "initech") {
		t.Error("Expected acme and globex only")
	}
	if got := DefaultTenant(user); got != "acme" {
		t.Errorf("Expected default tenant acme, got %q", got)
	}

	admin := &UserProfile{Tenants: []string{"*"}}
	if !TenantAllowed(admin, "initech") {
		t.Error("Expected wildcard tenant access")
	}
	if got := DefaultTenant(admin); got != "" {
		t.Errorf("Expected no default tenant, got %q", got)
	}
}
