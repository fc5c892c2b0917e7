package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	pg "pet-adoption-web/internal/adapters/storage/postgres"
	"pet-adoption-web/internal/config"
	"pet-adoption-web/internal/platform/logger"
	"pet-adoption-web/internal/platform/tracing"
	"pet-adoption-web/internal/router"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "petweb",
		Short:         "Pet adoption web frontend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file")

	root.AddCommand(
		newServeCmd(&configFile),
		newMigrateCmd(&configFile),
		newHealthcheckCmd(&configFile),
	)
	return root
}

func newServeCmd(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configFile, cmd.Flags())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().String("port", "", "listen port (overrides PORT)")
	cmd.Flags().String("catalog", "", "catalog source: api, memory or postgres")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})

	tcfg := tracing.DefaultConfig()
	tcfg.Enabled = cfg.TracingEnabled
	tcfg.Exporter = cfg.TracingExporter
	tcfg.OTLPEndpoint = cfg.OTLPEndpoint
	tcfg.ServiceName = cfg.AppName
	tp, err := tracing.NewProvider(tcfg)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(sctx); err != nil {
			log.Warn("tracing shutdown failed", map[string]any{"error": err.Error()})
		}
	}()

	var db *sql.DB
	if cfg.CatalogSource == config.SourcePostgres {
		if err := pg.RunMigrations(cfg.DBDSN); err != nil {
			return err
		}
		db, err = pg.Open(ctx, cfg.DBDSN, pg.PoolOptions{})
		if err != nil {
			return err
		}
		defer db.Close()
	}

	rt, err := router.NewRouter(router.Options{
		Config: cfg,
		Log:    log,
		Tracer: tp.Tracer(),
		DB:     db,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           rt,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.BackendTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{
			"addr":    srv.Addr,
			"catalog": cfg.CatalogSource,
			"backend": cfg.BackendURL,
			"tracing": tp.Enabled(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newMigrateCmd(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the catalog database schema",
	}

	dsn := func(cmd *cobra.Command) (string, error) {
		cfg, err := config.Load(*configFile, cmd.Flags())
		if err != nil {
			return "", err
		}
		if cfg.DBDSN == "" {
			return "", config.ErrMissingDSN
		}
		return cfg.DBDSN, nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				url, err := dsn(cmd)
				if err != nil {
					return err
				}
				return pg.RunMigrations(url)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			RunE: func(cmd *cobra.Command, _ []string) error {
				url, err := dsn(cmd)
				if err != nil {
					return err
				}
				return pg.RollbackMigrations(url)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied migration version",
			RunE: func(cmd *cobra.Command, _ []string) error {
				url, err := dsn(cmd)
				if err != nil {
					return err
				}
				v, dirty, err := pg.MigrationVersion(url)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", v, dirty)
				return nil
			},
		},
	)
	return cmd
}

// healthcheck pega contra /health del proceso local; exit 1 si no responde 200.
func newHealthcheckCmd(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Probe the local /health endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configFile, cmd.Flags())
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Second)
			defer cancel()

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://127.0.0.1"+cfg.Addr()+"/health", nil)
			if err != nil {
				return err
			}
			res, err := http.DefaultClient.Do(req)
			if err != nil {
				return fmt.Errorf("healthcheck: %w", err)
			}
			defer res.Body.Close()
			if res.StatusCode != http.StatusOK {
				return fmt.Errorf("healthcheck: unexpected status %d", res.StatusCode)
			}
			return nil
		},
	}
	cmd.Flags().String("port", "", "port the server listens on")
	return cmd
}
