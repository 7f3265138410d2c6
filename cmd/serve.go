package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/dilemma/internal/adapters/coordinator"
	"github.com/okian/dilemma/internal/adapters/editor"
	"github.com/okian/dilemma/internal/adapters/http/api"
	"github.com/okian/dilemma/internal/adapters/http/swagger"
	"github.com/okian/dilemma/internal/adapters/repository"
	service "github.com/okian/dilemma/internal/app"
	"github.com/okian/dilemma/internal/livesync"
	"github.com/okian/dilemma/pkg/logger"
)

const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func newServeCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tournament dashboard and API",
		Long: `Serve runs the editor source on startup, re-runs it whenever it changes
or the classroom coordinator sends new merged source, and serves the
results over HTTP.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				c.cfg.Addr = addr
			}
			noSync, _ := cmd.Flags().GetBool("no-sync")
			return c.serve(cmd.Context(), !noSync)
		},
	}
	cmd.Flags().String("addr", "", "Override the listen address")
	cmd.Flags().Bool("no-sync", false, "Do not connect to the classroom coordinator")
	return cmd
}

// openStore opens the SQLite archive, or an in-memory one when no path is
// configured.
func (c *cli) openStore(ctx context.Context) (repository.Store, error) {
	if c.cfg.DBPath == "" {
		return repository.NewMemoryStore(repository.WithHistoryLimit(c.cfg.HistoryLimit)), nil
	}
	return repository.NewSQLiteStore(ctx, c.cfg.DBPath, repository.WithHistoryLimit(c.cfg.HistoryLimit))
}

// syncController builds the coordinator client from configuration.
func (c *cli) syncController() *livesync.Controller {
	dialer := coordinator.NewDialer(c.cfg.CoordinatorURL, coordinator.WithWriteTimeout(c.cfg.WriteTimeout()))
	return livesync.New(dialer,
		livesync.WithIdentity(c.cfg.Identity),
		livesync.WithPrivilegedIdentity(c.cfg.PrivilegedIdentity),
		livesync.WithFirstConnectDelay(c.cfg.FirstConnectDelay()),
		livesync.WithStreamInterval(c.cfg.StreamInterval()),
	)
}

func (c *cli) serve(ctx context.Context, withSync bool) error {
	log := logger.Get().Named("serve")

	src, err := editor.NewFileSource(c.cfg.SourcePath)
	if err != nil {
		return err
	}
	store, err := c.openStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open run archive: %w", err)
	}

	opts := []service.Option{
		service.WithRunner(c.engine()),
		service.WithStore(store),
		service.WithSource(src),
		service.WithQueueSize(c.cfg.RunQueueSize),
		service.WithIterations(c.cfg.Iterations),
		service.WithStartupRun(true),
	}
	if withSync {
		opts = append(opts, service.WithSync(c.syncController()))
	}
	svc := service.New(opts...)
	if err := svc.Start(ctx); err != nil {
		_ = store.Close()
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, c.cfg.HistoryLimit).Register(ctx, mux)

	srv := &http.Server{
		Addr:              c.cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "http server starting",
			logger.String("addr", c.cfg.Addr),
			logger.String("source", src.Path()),
			logger.Bool("sync", withSync),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info(ctx, "shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "http server shutdown error", logger.Error(err))
		return err
	}
	log.Info(ctx, "http server stopped")
	return nil
}
