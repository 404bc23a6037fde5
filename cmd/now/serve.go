package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/Simpactsoft/now-core/internal/api"
	"github.com/Simpactsoft/now-core/internal/domain/services"
	"github.com/Simpactsoft/now-core/internal/infrastructure/config"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  "Serves the REST API under /api/v1 until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")

	return cmd
}

func runServe(cmd *cobra.Command, addr string) error {
	ctx := cmd.Context()

	return withInternalDeps(ctx, func(d *internalDeps) error {
		if addr == "" {
			addr = d.Config.Server.Addr
		}
		if d.Config.Environment == "production" {
			gin.SetMode(gin.ReleaseMode)
		}
		if err := ensureBootstrapKey(ctx, d.Config, d.apiKeyService, d.Logger); err != nil {
			return err
		}

		router := api.NewRouter(api.Options{
			Entities:      d.EntityHandler,
			Relationships: d.RelationshipHandler,
			Schema:        d.SchemaHandler,
			Keys:          d.apiKeyService,
			Pagination:    d.Pagination,
			Environment:   d.Config.Environment,
			Logger:        d.Logger,
		})

		srv := &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  d.Config.Server.ReadTimeout,
			WriteTimeout: d.Config.Server.WriteTimeout,
		}

		errCh := make(chan error, 1)
		go func() {
			d.Logger.Info("listening", "addr", addr, "environment", d.Config.Environment, "driver", d.Config.Database.Driver)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("serving http: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		d.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	})
}

// ensureBootstrapKey registers the configured bootstrap key. The memory store
// starts without keys, so when none is configured a fresh admin key is
// generated and printed once.
func ensureBootstrapKey(ctx context.Context, cfg *config.Config, keys *services.APIKeyService, logger *slog.Logger) error {
	if cfg.Auth.BootstrapKey == "" && cfg.Database.Driver != config.DriverMemory {
		return nil
	}

	key, raw, err := keys.Bootstrap(ctx, cfg.Auth.BootstrapKey)
	if err != nil {
		return fmt.Errorf("bootstrapping api key: %w", err)
	}
	if !key.IsActive() {
		logger.Warn("bootstrap api key is revoked", "key_id", key.ID)
		return nil
	}
	logger.Info("bootstrap api key ready", "key_id", key.ID, "prefix", key.KeyPrefix)
	if raw != "" {
		fmt.Fprintf(stdout, "Bootstrap API key (shown once): %s\n", raw)
	}
	return nil
}
