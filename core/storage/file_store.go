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
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/google/gridstate/core/logging"
)

const fileSuffix = ".json"

// FileStore keeps one file per key inside a directory.
//
// Writes made through the store notify subscribers directly. Writes made by
// other processes are only seen after Watch has been started.
type FileStore struct {
	notifier
	dir    string
	logger *zap.Logger

	mu   sync.Mutex
	last map[string]string // last value delivered per key, to drop echo events
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStore{
		dir:    dir,
		logger: logging.OrNop(logger),
		last:   make(map[string]string),
	}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+fileSuffix)
}

func (s *FileStore) keyFromPath(path string) (string, bool) {
	name := filepath.Base(path)
	if !strings.HasSuffix(name, fileSuffix) {
		return "", false
	}
	key, err := url.PathUnescape(strings.TrimSuffix(name, fileSuffix))
	if err != nil {
		return "", false
	}
	return key, true
}

// Get implements Store.
func (s *FileStore) Get(key string) (string, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return string(data), nil
}

// Set implements Store. The value is written to a temporary file and renamed
// into place so readers never observe a partial payload.
func (s *FileStore) Set(key, value string) error {
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", key, err)
	}
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file for %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace %s: %w", key, err)
	}
	s.deliver(key, value)
	return nil
}

// deliver notifies subscribers unless value was already delivered for key.
func (s *FileStore) deliver(key, value string) {
	s.mu.Lock()
	if prev, ok := s.last[key]; ok && prev == value {
		s.mu.Unlock()
		return
	}
	s.last[key] = value
	s.mu.Unlock()
	s.notify(key, value)
}

// Subscribe implements Store.
func (s *FileStore) Subscribe(key string, fn func(value string)) func() {
	return s.subscribe(key, fn)
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }

// Watch delivers writes made by other processes to subscribers until ctx is done.
// It blocks, so callers usually run it in a goroutine.
func (s *FileStore) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			key, ok := s.keyFromPath(event.Name)
			if !ok {
				continue
			}
			value, err := s.Get(key)
			if err != nil {
				s.logger.Warn("failed to read changed preference", zap.String("key", key), zap.Error(err))
				continue
			}
			s.deliver(key, value)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("storage watcher error", zap.Error(err))
		}
	}
}
