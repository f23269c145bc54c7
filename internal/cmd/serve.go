package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/sqllens/sqllens/internal/config"
	"github.com/sqllens/sqllens/internal/core/engine"
	"github.com/sqllens/sqllens/internal/core/store"
	errwrap "github.com/sqllens/sqllens/internal/errors"
	"github.com/sqllens/sqllens/internal/observability"
	"github.com/sqllens/sqllens/internal/server"
	"github.com/sqllens/sqllens/internal/server/handlers"
)

var (
	serverPort int
	serverHost string
)

// storeHealthChecker pings the job store
type storeHealthChecker struct {
	db *store.Store
}

func (s storeHealthChecker) CheckHealth(ctx context.Context) error {
	if s.db == nil {
		return errwrap.NewInternalError("store not initialized")
	}
	return s.db.Ping(ctx)
}

// backendHealthChecker verifies at least one scoring backend is enabled
type backendHealthChecker struct {
	enabled []string
}

func (b backendHealthChecker) CheckHealth(ctx context.Context) error {
	if len(b.enabled) == 0 {
		return errwrap.NewConfigInvalidError("no scoring backends enabled")
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server with graceful shutdown support.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • SIGHUP: Config reload (re-reads the config file)

The server will cleanly shut down the HTTP server and flush logs on shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Initialize server logger
		logLevel := viper.GetString("logging.level")
		observability.InitServerLogger(appName, logLevel)
		logger := observability.ServerLogger

		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return errwrap.WrapConfigInvalid(cmd.Context(), err, "config load failed")
		}

		logger.Info("Initializing server",
			zap.String("service", appName),
			zap.String("version", versionInfo.Version),
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
			zap.Strings("backends", cfg.Backends.Enabled))

		db, err := store.Open(cmd.Context(), cfg.Store)
		if err != nil {
			return errwrap.WrapDatabaseError(cmd.Context(), err, "store open failed")
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup; errors logged internally

		if err := db.Migrate(cmd.Context()); err != nil {
			return errwrap.WrapDatabaseError(cmd.Context(), err, "store migration failed")
		}

		svc, err := buildService(cfg, db, logger)
		if err != nil {
			return errwrap.WrapConfigInvalid(cmd.Context(), err, "backend configuration failed")
		}

		// Initialize health manager
		handlers.InitHealthManager(versionInfo.Version)
		hm := handlers.GetHealthManager()
		hm.RegisterChecker("store", storeHealthChecker{db: db})
		hm.RegisterChecker("backends", backendHealthChecker{enabled: cfg.Backends.Enabled})

		handlers.SetAppName(appName)

		srv := server.New(cfg.Server, svc)

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if shutdownTimeout == 0 {
			shutdownTimeout = 10 * time.Second
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// Retention cleanup loop
		if cfg.Store.CleanupEvery > 0 {
			go runRetentionLoop(ctx, svc, cfg, logger)
		}

		// Config reload on SIGHUP
		reload := make(chan os.Signal, 1)
		signal.Notify(reload, syscall.SIGHUP)
		defer signal.Stop(reload)
		go func() {
			for range reload {
				logger.Info("Received SIGHUP: attempting config reload")
				if err := viper.ReadInConfig(); err != nil {
					if _, ok := err.(viper.ConfigFileNotFoundError); ok {
						logger.Info("No config file found - using defaults and environment variables")
						continue
					}
					logger.Error("Failed to reload config file",
						zap.String("file", viper.ConfigFileUsed()),
						zap.Error(err))
					continue
				}
				if _, err := config.Load(viper.GetViper()); err != nil {
					logger.Error("Reloaded config is invalid", zap.Error(err))
					continue
				}
				logger.Info("Configuration reloaded successfully",
					zap.String("file", viper.ConfigFileUsed()))
			}
		}()

		// Start server in background goroutine
		errChan := make(chan error, 1)
		go func() {
			logger.Info("Starting HTTP server...",
				zap.String("host", cfg.Server.Host),
				zap.Int("port", cfg.Server.Port))
			if err := srv.Start(); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()

		select {
		case err := <-errChan:
			return errwrap.WrapInternal(cmd.Context(), err, "server error")
		case <-ctx.Done():
		}

		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errwrap.WrapInternal(cmd.Context(), err, "server shutdown failed")
		}
		logger.Info("HTTP server stopped gracefully")

		if err := logger.Sync(); err != nil {
			// Sync errors are often benign (stdout/stderr already closed)
			logger.Warn("Logger sync returned error (may be benign)", zap.Error(err))
		}
		return nil
	},
}

// runRetentionLoop periodically removes jobs past the retention window.
func runRetentionLoop(ctx context.Context, svc *engine.Service, cfg *config.Config, logger *zap.Logger) {
	window := time.Duration(cfg.Store.RetentionDays) * 24 * time.Hour
	if window <= 0 {
		return
	}

	ticker := time.NewTicker(cfg.Store.CleanupEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := svc.Cleanup(ctx, window)
			if err != nil {
				logger.Warn("Retention cleanup failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				logger.Info("Retention cleanup removed jobs", zap.Int64("removed", removed))
			}
		}
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "localhost", "server host")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "server port")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}
