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

package storage

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
)

// PebbleStore keeps preferences in an embedded pebble database.
// Subscribers are notified for writes made through this instance only.
type PebbleStore struct {
	notifier
	db *pebble.DB
}

// OpenPebbleStore opens (or creates) a pebble database in dir.
func OpenPebbleStore(dir string) (*PebbleStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble store at %s: %w", dir, err)
	}
	return &PebbleStore{db: db}, nil
}

// Get implements Store.
func (s *PebbleStore) Get(key string) (string, error) {
	value, closer, err := s.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	// value is only valid until closer is closed
	result := string(value)
	if err := closer.Close(); err != nil {
		return "", fmt.Errorf("failed to release %s: %w", key, err)
	}
	return result, nil
}

// Set implements Store. Writes are synced before returning.
func (s *PebbleStore) Set(key, value string) error {
	if err := s.db.Set([]byte(key), []byte(value), pebble.Sync); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	s.notify(key, value)
	return nil
}

// Subscribe implements Store.
func (s *PebbleStore) Subscribe(key string, fn func(value string)) func() {
	return s.subscribe(key, fn)
}

// Close implements Store.
func (s *PebbleStore) Close() error {
	return s.db.Close()
}
