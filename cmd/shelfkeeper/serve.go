package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cimillas/shelfkeeper/internal/app"
	"github.com/cimillas/shelfkeeper/internal/clock"
	"github.com/cimillas/shelfkeeper/internal/config"
	"github.com/cimillas/shelfkeeper/internal/observability"
	"github.com/cimillas/shelfkeeper/internal/storage/postgres"
	transporthttp "github.com/cimillas/shelfkeeper/internal/transport/http"
	"github.com/cimillas/shelfkeeper/migrations"
)

const serviceName = "shelfkeeper"

func newServeCommand(opts *rootOptions) *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts.cfg, opts.logger, !skipMigrations)
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply pending migrations on startup")
	return cmd
}

func serve(ctx context.Context, cfg config.Config, logger *zap.Logger, migrate bool) error {
	pool, err := openPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	if migrate {
		startupCtx, cancel := context.WithTimeout(ctx, cfg.Database.StartupTimeout)
		applied, err := migrations.Apply(startupCtx, pool)
		cancel()
		if err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		if len(applied) > 0 {
			logger.Info("applied migrations", zap.Strings("names", applied))
		}
	}

	meterProvider := observability.NewMeterProvider(serviceName)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := observability.ShutdownMeterProvider(shutdownCtx, meterProvider); err != nil {
			logger.Warn("meter provider shutdown", zap.Error(err))
		}
	}()
	metrics := observability.NewMetricsCollector(meterProvider.Meter(observability.MeterName), logger)

	clk := clock.NewSystem()
	volumes := app.NewVolumeRegistry(postgres.NewVolumeRepository(pool), clk)
	policies := app.NewBorrowerPolicyResolver(
		postgres.NewBorrowerRepository(pool),
		app.WithDefaultLoanDuration(cfg.Loans.DefaultDurationDays),
	)
	loans := app.NewLoanService(
		postgres.NewLoanRepository(pool),
		volumes,
		policies,
		clk,
		app.WithLogger(logger.Named("ledger")),
		app.WithMetrics(metrics),
	)
	catalog := app.NewCatalogService(postgres.NewCatalogRepository(pool), clk)

	handler := transporthttp.NewRouter(transporthttp.RouterConfig{
		Loans:              loans,
		Volumes:            volumes,
		Catalog:            catalog,
		DB:                 pool,
		Logger:             logger.Named("http"),
		CORSOrigins:        cfg.HTTP.CORSOrigins,
		ExposeErrorDetails: cfg.HTTP.ExposeErrorDetails,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	logger.Info("api listening", zap.String("addr", server.Addr))

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
	return nil
}

func openPool(ctx context.Context, db config.DatabaseConfig) (*pgxpool.Pool, error) {
	startupCtx, cancel := context.WithTimeout(ctx, db.StartupTimeout)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, db.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}
	if err := pool.Ping(startupCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return pool, nil
}
