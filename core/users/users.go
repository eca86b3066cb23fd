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

import (
	"slices"
	"strings"
)

// Wildcard grants every permission or every tenant.
const Wildcard = "*"

// UserProfile describes one dashboard user.
type UserProfile struct {
	Name        string   `yaml:"name"`
	Email       string   `yaml:"email"`
	Domains     []string `yaml:"domains"`     // resource groups shown on the landing page
	Tenants     []string `yaml:"tenants"`     // tenants whose records the user may see
	Permissions []string `yaml:"permissions"` // e.g. "staff:edit", "staff:delete", "*"
}

// UserStore defines the interface for accessing user profiles.
// Implementations handle loading and storing user data.
type UserStore interface {
	// GetUser returns a user profile by name, or nil if not found.
	GetUser(name string) *UserProfile
}

// HasDomain checks if a user has access to a given domain.
func HasDomain(user *UserProfile, domain string) bool {
	if user == nil {
		return false
	}
	return slices.Contains(user.Domains, domain)
}

// HasAnyDomain checks if a user has access to any of the given domains.
func HasAnyDomain(user *UserProfile, domains []string) bool {
	if user == nil {
		return false
	}
	userDomains := make(map[string]bool)
	for _, d := range user.Domains {
		userDomains[d] = true
	}
	for _, d := range domains {
		if userDomains[d] {
			return true
		}
	}
	return false
}

// HasPermission reports whether user holds permission, directly, through
// the resource wildcard ("staff:*") or the global wildcard.
func HasPermission(user *UserProfile, permission string) bool {
	if user == nil {
		return false
	}
	resource, _, _ := strings.Cut(permission, ":")
	for _, p := range user.Permissions {
		if p == Wildcard || p == permission || p == resource+":"+Wildcard {
			return true
		}
	}
	return false
}

// Capabilities are the row-level rights a user has on one resource.
type Capabilities struct {
	CanEdit   bool
	CanDelete bool
}

// CapabilitiesFor derives the edit and delete rights on resource.
func CapabilitiesFor(user *UserProfile, resource string) Capabilities {
	return Capabilities{
		CanEdit:   HasPermission(user, resource+":edit"),
		CanDelete: HasPermission(user, resource+":delete"),
	}
}

// TenantAllowed reports whether user may see records of tenant.
func TenantAllowed(user *UserProfile, tenant string) bool {
	if user == nil {
		return false
	}
	return slices.Contains(user.Tenants, Wildcard) || slices.Contains(user.Tenants, tenant)
}

// DefaultTenant is the tenant a user lands on, or "" when none is assigned.
func DefaultTenant(user *UserProfile) string {
	if user == nil {
		return ""
	}
	for _, t := range user.Tenants {
		if t != Wildcard {
			return t
		}
	}
	return ""
}
