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

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/gridstate/core/config"
	"github.com/google/gridstate/core/logging"
	"github.com/google/gridstate/core/query"
	"github.com/google/gridstate/core/rendering"
	"github.com/google/gridstate/core/storage"
	"github.com/google/gridstate/demo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:          "gridstate",
		Short:        "Multi-tenant admin tables with persisted view state",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML configuration file")
	cmd.AddCommand(serveCommand(&configPath), renderCommand(&configPath))
	return cmd
}

// environment is what both commands need before building the demo server.
type environment struct {
	cfg    *config.Config
	logger *zap.Logger
	store  storage.Store
}

func setup(configPath string) (*environment, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(cfg.Storage, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	return &environment{cfg: cfg, logger: logger, store: store}, nil
}

func (e *environment) close() {
	if err := e.store.Close(); err != nil {
		e.logger.Warn("failed to close storage", zap.Error(err))
	}
	_ = e.logger.Sync()
}

func serveCommand(configPath *string) *cobra.Command {
	var (
		listen  string
		product string
		latency time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer env.close()
			if listen != "" {
				env.cfg.Listen = listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if fs, ok := env.store.(*storage.FileStore); ok && env.cfg.Storage.Watch {
				go func() {
					if err := fs.Watch(ctx); err != nil {
						env.logger.Warn("storage watch stopped", zap.Error(err))
					}
				}()
			}

			srv, _, err := demo.SetupDemoServer(demo.Setup{
				Config:      env.cfg,
				Product:     product,
				Persistence: storage.NewAdapter(env.store, env.logger),
				Latency:     latency,
				Logger:      env.logger,
			})
			if err != nil {
				return err
			}
			defer srv.Close()

			httpServer := &http.Server{
				Addr:              env.cfg.Listen,
				Handler:           demo.NewHandler(srv, env.logger),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errc := make(chan error, 1)
			go func() {
				env.logger.Info("listening", zap.String("addr", "http://"+env.cfg.Listen))
				errc <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			env.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "address to listen on, overrides the configuration")
	cmd.Flags().StringVar(&product, "product", "", "product to serve (dashboard, billing, people)")
	cmd.Flags().DurationVar(&latency, "latency", 0, "simulated backend delay per request")
	return cmd
}

func renderCommand(configPath *string) *cobra.Command {
	var (
		q        query.Query
		page     int
		sortSpec string
		useColor bool
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print one table page as text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer env.close()

			srv, _, err := demo.SetupDemoServer(demo.Setup{
				Config:      env.cfg,
				Persistence: storage.NewAdapter(env.store, env.logger),
				Logger:      env.logger,
			})
			if err != nil {
				return err
			}
			defer srv.Close()

			q.Path = "/table"
			if page > 0 {
				q.Page = page - 1
			}
			q.Sort = query.ParseSort(sortSpec)
			q.HasSearch = cmd.Flags().Changed("search")
			u, err := url.Parse(q.ToURL())
			if err != nil {
				return err
			}

			vm, result := srv.BuildTableView(cmd.Context(), u)
			if result != nil {
				if result.Error != nil {
					return result.Error
				}
				return fmt.Errorf("%d: %s", result.StatusCode, result.Message)
			}
			return rendering.NewASCIIRenderer(useColor).Render(cmd.OutOrStdout(), vm)
		},
	}
	cmd.Flags().StringVar(&q.Table, "table", "", "table to render")
	cmd.Flags().StringVar(&q.User, "user", "alice", "acting user")
	cmd.Flags().StringVar(&q.Tenant, "tenant", "", "tenant, defaults to the user's first tenant")
	cmd.Flags().IntVar(&page, "page", 1, "page number, one based")
	cmd.Flags().IntVar(&q.Size, "size", 0, "page size, 0 for the configured default")
	cmd.Flags().StringVar(&sortSpec, "sort", "", "sort order, e.g. name:asc,hired:desc")
	cmd.Flags().StringVar(&q.Search, "search", "", "free-text search")
	cmd.Flags().BoolVar(&useColor, "color", false, "colorize output")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}
