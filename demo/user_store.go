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
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/gridstate/core/users"
	"gopkg.in/yaml.v3"
)

//go:embed users.yaml
var defaultUsers []byte

// UserStore manages user profiles loaded from YAML.
type UserStore struct {
	users map[string]*users.UserProfile
}

// NewUserStore creates a new empty UserStore.
func NewUserStore() *UserStore {
	return &UserStore{
		users: make(map[string]*users.UserProfile),
	}
}

// LoadDefaults adds the profiles shipped with the demo.
func (s *UserStore) LoadDefaults() error {
	profiles, err := ParseUsers(defaultUsers)
	if err != nil {
		return fmt.Errorf("failed to parse built-in users: %w", err)
	}
	for name, profile := range profiles {
		s.users[name] = profile
	}
	return nil
}

// LoadFromDirectory loads one profile per *.yaml file in dir.
// The file name without extension is the user identifier.
func (s *UserStore) LoadFromDirectory(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read users directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		profile, err := LoadUserProfile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to load user profile %s: %w", entry.Name(), err)
		}

		s.users[strings.TrimSuffix(entry.Name(), ".yaml")] = profile
	}

	return nil
}

// GetUser returns a user profile by name, or nil if not found.
func (s *UserStore) GetUser(name string) *users.UserProfile {
	return s.users[name]
}

// Names returns the known user identifiers in order.
func (s *UserStore) Names() []string {
	names := make([]string, 0, len(s.users))
	for name := range s.users {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetAllUsers returns all loaded user profiles.
func (s *UserStore) GetAllUsers() []*users.UserProfile {
	result := make([]*users.UserProfile, 0, len(s.users))
	for _, name := range s.Names() {
		result = append(result, s.users[name])
	}
	return result
}

// LoadUserProfile loads a single user profile from a YAML file.
func LoadUserProfile(filePath string) (*users.UserProfile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	profile := &users.UserProfile{}
	if err := yaml.Unmarshal(data, profile); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	return profile, nil
}

// ParseUsers decodes a YAML mapping of user identifier to profile.
func ParseUsers(data []byte) (map[string]*users.UserProfile, error) {
	profiles := make(map[string]*users.UserProfile)
	if err := yaml.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	return profiles, nil
}
