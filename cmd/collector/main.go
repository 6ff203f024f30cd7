// Package main is the entry point for the pcstatus collector: the HTTP
// service agents push snapshots to and operators read machine records from.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Guliveer/pcstatus/internal/config"
	"github.com/Guliveer/pcstatus/internal/logging"
	"github.com/Guliveer/pcstatus/internal/machines"
	"github.com/Guliveer/pcstatus/internal/server"
	"github.com/Guliveer/pcstatus/internal/store"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	configPath  string
	listenAddr  string
	showVersion bool
)

var rootCmd = &cobra.Command{
	Use:           "pcstatus-collector",
	Short:         "Receive agent snapshots and serve machine records",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&configPath, "config", "collector.yaml", "Path to configuration file")
	flags.StringVar(&listenAddr, "listen", "", "Listen address (overrides config and PSS_LISTEN_ADDR)")
	flags.BoolVar(&showVersion, "version", false, "Show version and exit")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(_ *cobra.Command, _ []string) error {
	if showVersion {
		fmt.Printf("pcstatus-collector %s\n", version)
		return nil
	}

	cfg, err := config.LoadCollector(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if listenAddr != "" {
		cfg.HTTP.ListenAddr = listenAddr
	}

	logger := logging.New(cfg.Logging)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}
	if cfg.Auth.AdminToken == "" {
		logger.Warn("Admin token not configured, deletes will be refused")
	}

	st, err := store.OpenBolt(cfg.Store.Path, cfg.Store.Collection, logger)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer st.Close()

	svc := machines.NewService(st, time.Now, logger)
	srv := server.New(*cfg, svc, logger)

	logger.Info("Starting pcstatus collector",
		zap.String("version", version),
		zap.String("store", cfg.Store.Path),
		zap.String("collection", cfg.Store.Collection))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server failed", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout.Duration)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
		return err
	}
	logger.Info("Collector stopped")
	return nil
}
