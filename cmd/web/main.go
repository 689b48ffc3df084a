package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atharvakonge/quantumpool-web/internal/api"
	"github.com/atharvakonge/quantumpool-web/internal/config"
	"github.com/atharvakonge/quantumpool-web/internal/guard"
	"github.com/atharvakonge/quantumpool-web/internal/handlers"
	"github.com/atharvakonge/quantumpool-web/internal/logger"
	"github.com/atharvakonge/quantumpool-web/internal/session"
	"github.com/atharvakonge/quantumpool-web/internal/state"
	"github.com/atharvakonge/quantumpool-web/internal/transfer"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 10 * time.Second

var (
	envFile string
	port    string
)

var rootCmd = &cobra.Command{
	Use:   "quantumpool-web",
	Short: "QuantumPool web frontend",
	Long: `Serves the QuantumPool pages and the live investment dashboard.

All data comes from the QuantumPool backend API; this server keeps nothing
but the session cookie.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	serveCmd.Flags().StringVar(&port, "port", "", "listen port, overrides PORT")
	rootCmd.AddCommand(serveCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, loaded, err := config.Load(envFile)
	if err != nil {
		return err
	}
	if port != "" {
		cfg.Port = port
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if !loaded {
		log.Info("no .env file found, using environment variables", zap.String("file", envFile))
	}

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	client := api.New(cfg.BackendURL, api.WithTimeout(cfg.BackendTimeout), api.WithLogger(log))

	processor := transfer.NewProcessor(cfg.TransferWorkers, log)
	processor.Start()
	defer processor.Stop()

	h, err := handlers.New(handlers.Config{
		Client:         client,
		Transfers:      processor,
		Registry:       state.NewRegistry(),
		Cookie:         session.Options{TTL: cfg.SessionTTL, Secure: cfg.Production()},
		GoogleClientID: cfg.GoogleClientID,
		CoinLimit:      cfg.MaxCoins,
		TrendDays:      cfg.ProfitTrendDays,
		Log:            log,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Router(guard.DefaultRules),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.String("addr", "http://localhost:"+cfg.Port),
			zap.String("backend", cfg.BackendURL),
			zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
