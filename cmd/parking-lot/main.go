package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"parking-grid/internal/config"
	"parking-grid/internal/logging"
	"parking-grid/internal/parking"
	"parking-grid/internal/server"
)

type flags struct {
	port       string
	configPath string
	strict     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	rootCmd := &cobra.Command{
		Use:   "parking-lot",
		Short: "Parking lot grid tracker with an interactive shell and an HTTP API",
		Long: `Tracks vehicles parked in a rows x spaces grid. Run the interactive shell, ` +
			`the HTTP server, or both against the same lot.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&f.port, "port", "", "Port for HTTP server (overrides PORT)")
	rootCmd.PersistentFlags().StringVar(&f.configPath, "config", "", "Lot config file to load at startup (overrides LOT_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&f.strict, "strict", false, "Reject layouts where rows does not divide total spaces")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "cli",
			Short: "Run the interactive shell",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd.Context(), f, runCLI)
			},
		},
		&cobra.Command{
			Use:   "server",
			Short: "Run the HTTP server",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd.Context(), f, runServer)
			},
		},
		&cobra.Command{
			Use:   "both",
			Short: "Run the HTTP server and the interactive shell on one lot",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd.Context(), f, runBoth)
			},
		},
	)

	return rootCmd
}

type app struct {
	cfg       *config.Config
	telemetry *parking.TelemetryProvider
	garage    *parking.Garage
}

type runFunc func(ctx context.Context, cancel context.CancelFunc, a *app, sigChan chan os.Signal) error

func run(parent context.Context, f *flags, fn runFunc) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	cfg := config.Load()
	if f.port != "" {
		cfg.Port = f.port
	}
	if f.configPath != "" {
		cfg.LotConfigPath = f.configPath
	}
	if f.strict {
		cfg.StrictLayout = true
	}

	telemetryProvider, err := newTelemetry(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer shutdownTelemetry(telemetryProvider)

	// stdout belongs to the shell; logs always go to stderr.
	logger := logging.Init(telemetryProvider.ServiceName(), cfg.Environment, os.Stderr, telemetryProvider.LoggerProvider())

	var opts []parking.Option
	if cfg.StrictLayout {
		opts = append(opts, parking.WithStrictLayout())
	}
	garage := parking.NewGarage(telemetryProvider, logger, opts...)

	if cfg.LotConfigPath != "" {
		lot, err := config.LoadLotFile(cfg.LotConfigPath)
		if err != nil {
			return fmt.Errorf("loading lot config: %w", err)
		}
		if _, err := garage.Configure(ctx, lot.TotalSpaces, lot.Rows); err != nil {
			return fmt.Errorf("creating parking lot from %s: %w", cfg.LotConfigPath, err)
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	return fn(ctx, cancel, &app{cfg: cfg, telemetry: telemetryProvider, garage: garage}, sigChan)
}

func newTelemetry(ctx context.Context, cfg *config.Config) (*parking.TelemetryProvider, error) {
	if !cfg.OTelConfig.Enabled {
		return parking.NewLocalTelemetryProvider(cfg.OTelConfig.ServiceName, nil, nil), nil
	}
	return parking.NewTelemetryProvider(ctx, cfg.OTelConfig, cfg.Environment)
}

func runCLI(ctx context.Context, cancel context.CancelFunc, a *app, sigChan chan os.Signal) error {
	go func() {
		select {
		case <-sigChan:
			slog.Info("shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	cliDone := make(chan struct{})
	go func() {
		shell := parking.NewInstrumentedShell(a.garage, os.Stdin, os.Stdout)
		shell.Run(ctx)
		close(cliDone)
	}()

	select {
	case <-cliDone:
	case <-ctx.Done():
	}
	return nil
}

func runServer(ctx context.Context, cancel context.CancelFunc, a *app, sigChan chan os.Signal) error {
	srv := server.NewServer(a.cfg.Port, a.garage)

	go func() {
		select {
		case <-sigChan:
			slog.Info("received shutdown signal")
		case <-ctx.Done():
		}
		shutdownServer(srv)
		cancel()
	}()

	slog.Info("starting server mode", "port", a.cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runBoth(ctx context.Context, cancel context.CancelFunc, a *app, sigChan chan os.Signal) error {
	srv := server.NewServer(a.cfg.Port, a.garage)
	defer shutdownServer(srv)

	serverDone := make(chan error, 1)
	go func() {
		slog.Info("starting HTTP server", "port", a.cfg.Port)
		serverDone <- srv.Start()
	}()

	cliDone := make(chan struct{})
	go func() {
		shell := parking.NewInstrumentedShell(a.garage, os.Stdin, os.Stdout)
		shell.Run(ctx)
		close(cliDone)
	}()

	select {
	case err := <-serverDone:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-cliDone:
		slog.Info("CLI exited")
	case <-sigChan:
		slog.Info("received shutdown signal")
	case <-ctx.Done():
		slog.Info("context cancelled")
	}
	return nil
}

func shutdownServer(srv *server.Server) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
}

func shutdownTelemetry(telemetryProvider *parking.TelemetryProvider) {
	slog.Info("shutting down telemetry")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := telemetryProvider.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down telemetry: %v", err)
	}
}
