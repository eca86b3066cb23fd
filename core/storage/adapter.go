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
	"maps"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/google/gridstate/core/logging"
)

// VisibilityKey returns the namespaced key under which a table's column
// visibility is stored.
func VisibilityKey(storageKey string) string {
	return "table-" + storageKey + "-column-visibility"
}

// Adapter reads and writes column visibility maps through a Store.
// Persistence is best effort: failures are logged and never returned.
type Adapter struct {
	store  Store
	logger *zap.Logger
}

// NewAdapter wraps store. A nil logger discards failure reports.
func NewAdapter(store Store, logger *zap.Logger) *Adapter {
	return &Adapter{
		store:  store,
		logger: logging.OrNop(logger),
	}
}

// Load returns the visibility stored under key, or def when the key is
// missing, the store fails, or the payload cannot be decoded.
func (a *Adapter) Load(key string, def map[string]bool) map[string]bool {
	raw, err := a.store.Get(key)
	if errors.Is(err, ErrNotFound) {
		return maps.Clone(def)
	}
	if err != nil {
		a.logger.Warn("failed to read persisted preference, using default",
			zap.String("key", key), zap.Error(err))
		return maps.Clone(def)
	}
	value, err := decodeVisibility(raw)
	if err != nil {
		a.logger.Warn("malformed persisted preference, using default",
			zap.String("key", key), zap.Error(err))
		return maps.Clone(def)
	}
	return value
}

// Save writes value under key. Failures are logged.
func (a *Adapter) Save(key string, value map[string]bool) {
	raw, err := encodeVisibility(value)
	if err != nil {
		a.logger.Warn("failed to encode preference", zap.String("key", key), zap.Error(err))
		return
	}
	if err := a.store.Set(key, raw); err != nil {
		a.logger.Warn("failed to persist preference", zap.String("key", key), zap.Error(err))
	}
}

// Subscribe calls fn with every decodable value written to key.
func (a *Adapter) Subscribe(key string, fn func(map[string]bool)) func() {
	return a.store.Subscribe(key, func(raw string) {
		value, err := decodeVisibility(raw)
		if err != nil {
			a.logger.Warn("ignoring malformed preference update", zap.String("key", key), zap.Error(err))
			return
		}
		fn(value)
	})
}

// encodeVisibility renders the map as a JSON object through google.protobuf.Struct.
func encodeVisibility(value map[string]bool) (string, error) {
	fields := make(map[string]interface{}, len(value))
	for k, v := range value {
		fields[k] = v
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return "", err
	}
	data, err := protojson.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeVisibility accepts a JSON object whose values are all booleans.
func decodeVisibility(raw string) (map[string]bool, error) {
	var s structpb.Struct
	if err := protojson.Unmarshal([]byte(raw), &s); err != nil {
		return nil, err
	}
	result := make(map[string]bool, len(s.GetFields()))
	for k, v := range s.GetFields() {
		b, ok := v.GetKind().(*structpb.Value_BoolValue)
		if !ok {
			return nil, fmt.Errorf("column %q: expected boolean visibility", k)
		}
		result[k] = b.BoolValue
	}
	return result, nil
}

// PersistedVisibility is one table mount's view of a persisted visibility map.
// It reads once on construction, writes through on every change, and follows
// writes made by other mounts of the same key through the store.
type PersistedVisibility struct {
	adapter     *Adapter
	key         string
	unsubscribe func()

	mu    sync.Mutex
	value map[string]bool
}

// NewPersistedVisibility loads the value for storageKey, falling back to def.
func NewPersistedVisibility(adapter *Adapter, storageKey string, def map[string]bool) *PersistedVisibility {
	key := VisibilityKey(storageKey)
	p := &PersistedVisibility{
		adapter: adapter,
		key:     key,
		value:   adapter.Load(key, def),
	}
	p.unsubscribe = adapter.Subscribe(key, func(value map[string]bool) {
		p.mu.Lock()
		p.value = value
		p.mu.Unlock()
	})
	return p
}

// Key returns the namespaced storage key.
func (p *PersistedVisibility) Key() string {
	return p.key
}

// Get returns a copy of the current value.
func (p *PersistedVisibility) Get() map[string]bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return maps.Clone(p.value)
}

// Set applies update to the current value and persists the result.
// Unchanged values are not written again.
func (p *PersistedVisibility) Set(update func(prev map[string]bool) map[string]bool) map[string]bool {
	p.mu.Lock()
	next := update(maps.Clone(p.value))
	if next == nil {
		next = map[string]bool{}
	}
	changed := !maps.Equal(next, p.value)
	p.value = next
	p.mu.Unlock()

	// The store notifies subscribers synchronously, including this one, so
	// the write must happen after the lock is released.
	if changed {
		p.adapter.Save(p.key, next)
	}
	return maps.Clone(next)
}

// Close stops following changes from the store.
func (p *PersistedVisibility) Close() {
	if p.unsubscribe != nil {
		p.unsubscribe()
	}
}
