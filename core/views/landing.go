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

import "github.com/google/safehtml"

// TableInfo describes a table for the landing page
type TableInfo struct {
	Name        string
	DisplayName string
	Description string
	Domains     []string // user domains that may open the table
	URL         safehtml.URL
}

// LandingViewModel contains data for the landing page
type LandingViewModel struct {
	Title    string
	Subtitle string
	UserName string
	Tenant   string
	Tables   []TableInfo
}

// TimingEntry is one measured step of building a page
type TimingEntry struct {
	Operation  string
	DurationMs string
}
