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

// Package storage persists small UI preferences (such as column visibility)
// in a synchronous key-value store.
//
// The store is always injected: there is no package level instance, so tests
// substitute a MemoryStore and two tables only share state through their keys.
package storage

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/google/gridstate/core/config"
)

// ErrNotFound is returned by Store.Get when the key has never been written.
var ErrNotFound = errors.New("storage: key not found")

// Store is a synchronous string key-value store with change notification.
type Store interface {
	// Get returns the stored value or ErrNotFound.
	Get(key string) (string, error)
	// Set writes value under key and notifies subscribers of key.
	Set(key, value string) error
	// Subscribe registers fn for writes to key made through this store.
	// The returned function removes the subscription.
	Subscribe(key string, fn func(value string)) (unsubscribe func())
	// Close releases the underlying resources.
	Close() error
}

// Open creates the store selected by the storage configuration.
func Open(cfg config.StorageConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case "", config.BackendMemory:
		return NewMemoryStore(), nil
	case config.BackendFile:
		return NewFileStore(cfg.Dir, logger)
	case config.BackendPebble:
		return OpenPebbleStore(cfg.Dir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// notifier fans out writes to the subscribers of a key.
type notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]func(string)
}

func (n *notifier) subscribe(key string, fn func(string)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[string]map[int]func(string))
	}
	if n.subs[key] == nil {
		n.subs[key] = make(map[int]func(string))
	}
	id := n.nextID
	n.nextID++
	n.subs[key][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.subs[key], id)
			if len(n.subs[key]) == 0 {
				delete(n.subs, key)
			}
		})
	}
}

// notify calls subscribers outside the lock so they may read or write the store.
func (n *notifier) notify(key, value string) {
	n.mu.Lock()
	fns := make([]func(string), 0, len(n.subs[key]))
	for _, fn := range n.subs[key] {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(value)
	}
}

// MemoryStore keeps values in a map. It is the default backend and the test fake.
type MemoryStore struct {
	notifier
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get implements Store.
func (s *MemoryStore) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set implements Store.
func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	s.notify(key, value)
	return nil
}

// Subscribe implements Store.
func (s *MemoryStore) Subscribe(key string, fn func(value string)) func() {
	return s.subscribe(key, fn)
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

// Keys returns the stored keys, mostly for tests and diagnostics.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys
}
