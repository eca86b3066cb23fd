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
	"fmt"
	"net/http"
	"time"

	"github.com/google/gridstate/core/config"
	"github.com/google/gridstate/core/server"
	"github.com/google/gridstate/core/storage"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Setup configures the demo server.
type Setup struct {
	Config      *config.Config
	Product     string           // product name, empty for the default
	Persistence *storage.Adapter // nil keeps preferences in memory
	Latency     time.Duration    // simulated backend delay per request
	Clock       clockwork.Clock
	Logger      *zap.Logger
}

// SetupDemoServer creates and configures a server with demo data.
func SetupDemoServer(setup Setup) (*server.Server, *Resources, error) {
	cfg := setup.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := setup.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := setup.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	resources := NewResources(clock, logger)
	for _, t := range resources.Tables() {
		resources.Source(t.Info.Name).SetLatency(setup.Latency)
	}

	products := NewProductRegistry()
	products.SetTables(resources.Tables())
	if err := products.LoadDefaults(); err != nil {
		return nil, nil, err
	}
	product := products.Get(setup.Product)
	if setup.Product != "" && product.Name != setup.Product {
		return nil, nil, fmt.Errorf("unknown product %q", setup.Product)
	}

	srv, err := server.NewServer(product, server.Options{
		Table:       cfg.Table,
		Persistence: setup.Persistence,
		Clock:       clock,
		Logger:      logger,
	})
	if err != nil {
		return nil, nil, err
	}

	userStore := NewUserStore()
	if cfg.Users.Dir != "" {
		err = userStore.LoadFromDirectory(cfg.Users.Dir)
	} else {
		err = userStore.LoadDefaults()
	}
	if err != nil {
		srv.Close()
		return nil, nil, err
	}
	srv.SetUserStore(userStore)

	logger.Info("demo server ready",
		zap.String("product", product.Name),
		zap.Int("tables", len(product.GetTables())),
		zap.Int("users", len(userStore.Names())),
		zap.Duration("latency", setup.Latency))
	return srv, resources, nil
}

// NewHandler routes HTTP requests to srv.
func NewHandler(srv *server.Server, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()

	mux.HandleFunc("/table", func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		result := srv.HandleTableRequest(r.Context(), &buf, r.URL, w.Header().Set)
		if result != nil {
			writeResult(w, r, result, logger)
			return
		}
		if _, err := buf.WriteTo(w); err != nil {
			logger.Debug("response write failed", zap.Error(err))
		}
	})

	mux.HandleFunc("/action", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeResult(w, r, srv.HandleActionRequest(r.Context(), r.URL), logger)
	})

	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, r, srv.HandleSearchInput(r.URL), logger)
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		var buf bytes.Buffer
		if err := srv.HandleLandingRequest(&buf, r.URL, w.Header().Set); err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if _, err := buf.WriteTo(w); err != nil {
			logger.Debug("response write failed", zap.Error(err))
		}
	})

	return mux
}

// writeResult turns a handler result into an HTTP response.
func writeResult(w http.ResponseWriter, r *http.Request, result *server.TableHandlerResult, logger *zap.Logger) {
	switch {
	case result == nil:
		w.WriteHeader(http.StatusNoContent)
	case result.Error != nil:
		logger.Error("request failed", zap.String("url", r.URL.String()), zap.Error(result.Error))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	case result.Location != "":
		http.Redirect(w, r, result.Location, result.StatusCode)
	case result.StatusCode >= http.StatusBadRequest:
		http.Error(w, result.Message, result.StatusCode)
	default:
		w.WriteHeader(result.StatusCode)
	}
}
