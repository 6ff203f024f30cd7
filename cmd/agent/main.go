// Package main is the entry point for the pcstatus agent. It samples the
// host, checks the configured targets and pushes a snapshot to the collector
// once per interval, either in the foreground or as a Windows service.
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
	"github.com/Guliveer/pcstatus/internal/detector"
	"github.com/Guliveer/pcstatus/internal/logging"
	"github.com/Guliveer/pcstatus/internal/machines"
	"github.com/Guliveer/pcstatus/internal/models"
	"github.com/Guliveer/pcstatus/internal/sampler"
	"github.com/Guliveer/pcstatus/internal/scheduler"
	"github.com/Guliveer/pcstatus/internal/sender"
	"github.com/Guliveer/pcstatus/internal/service"
	"github.com/Guliveer/pcstatus/internal/store"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	configPath  string
	showVersion bool
	runOnce     bool
	writeConfig string
	cli         config.CLIOverrides
)

var rootCmd = &cobra.Command{
	Use:           "pcstatus-agent",
	Short:         "Report host health and target status to a pcstatus collector",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&configPath, "config", "", "Path to configuration file (default: auto-detect)")
	flags.BoolVar(&showVersion, "version", false, "Show version and exit")
	flags.BoolVar(&runOnce, "once", false, "Push a single snapshot and exit")
	flags.StringVar(&writeConfig, "write-config", "", "Save the resolved configuration to this path and exit")
	flags.StringVar(&cli.URL, "url", "", "Collector URL (overrides config and PSS_SERVER_URL)")
	flags.StringVar(&cli.Token, "token", "", "Agent token (overrides config and PSS_AGENT_TOKEN)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	if showVersion {
		fmt.Printf("pcstatus-agent %s\n", version)
		return nil
	}

	cfg, err := config.LoadAgent(configPath, cli)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if writeConfig != "" {
		return saveConfig(cmd, cfg, writeConfig)
	}

	logger := logging.New(cfg.Logging)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	machineID, err := cfg.MachineID(sampler.Hostname)
	if err != nil {
		logger.Fatal("Cannot determine machine ID", zap.Error(err))
	}

	logger.Info("Starting pcstatus agent",
		zap.String("version", version),
		zap.String("machine_id", machineID),
		zap.String("mode", string(cfg.Mode())),
		zap.Strings("targets", cfg.TargetNames()),
		zap.String("transport", cfg.Transport.Mode))

	smp := sampler.New(logger)
	if err := smp.Probe(context.Background()); err != nil {
		logger.Fatal("System metrics are not readable on this host", zap.Error(err))
	}

	det, closeRuntime := newDetector(cfg, logger)
	defer closeRuntime()

	pub, closePublisher, err := newPublisher(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize transport", zap.Error(err))
	}
	defer closePublisher()

	sched := scheduler.New(scheduler.Options{
		MachineID: machineID,
		Interval:  cfg.Collection.Interval.Duration,
		Mode:      cfg.Mode(),
		Targets:   cfg.TargetNames(),
	}, smp, det, pub, logger)

	if runOnce {
		return sched.RunOnce(context.Background())
	}

	if service.IsWindowsService() {
		logger.Info("Running as Windows service")
		if err := service.New(logger, sched.Start).Run(); err != nil {
			logger.Fatal("Service failed", zap.Error(err))
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Agent running", zap.Duration("interval", cfg.Collection.Interval.Duration))
	sched.Start(ctx)
	logger.Info("Agent stopped")
	return nil
}

// newDetector builds the target detector. The container runtime is only
// contacted in SERVER mode; when it cannot be reached every cycle reports
// an empty status map.
func newDetector(cfg *config.AgentConfig, logger *zap.Logger) (*detector.Detector, func()) {
	procs := detector.NewHostProcesses(logger)
	if cfg.Mode() != models.ModeServer {
		return detector.New(procs, nil, logger), func() {}
	}

	rt, err := detector.NewDockerRuntime(detector.DefaultRuntimeTimeout)
	if err != nil {
		logger.Warn("Container runtime unavailable, target status will be empty", zap.Error(err))
		return detector.New(procs, nil, logger), func() {}
	}
	return detector.New(procs, rt, logger), func() { rt.Close() }
}

// newPublisher picks the snapshot transport.
func newPublisher(cfg *config.AgentConfig, logger *zap.Logger) (sender.Publisher, func(), error) {
	if cfg.Transport.Mode != config.TransportDirect {
		return sender.NewHTTP(cfg.Server.URL, cfg.Server.AgentToken, version, logger), func() {}, nil
	}

	st, err := store.OpenBolt(cfg.Transport.StorePath, cfg.Transport.Collection, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Warn("Direct transport: last_seen is stamped with this host's clock",
		zap.String("store_path", cfg.Transport.StorePath))
	svc := machines.NewService(st, time.Now, logger)
	return sender.NewDirect(svc), func() { st.Close() }, nil
}

// saveConfig writes the merged file, environment and flag settings so a
// machine can be provisioned once and then run without overrides.
func saveConfig(cmd *cobra.Command, cfg *config.AgentConfig, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := config.WriteConfig(cfg, path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
	return nil
}
