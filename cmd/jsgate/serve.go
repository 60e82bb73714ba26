package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/jsgate/internal/infrastructure/config"
	"github.com/GriffinCanCode/jsgate/internal/infrastructure/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and WebSocket server",
		Long: `Start an HTTP server exposing the gateway.

Endpoints:
  POST /eval      Evaluate code, returns {"result": ...}
  POST /call      Call a global function with JSON arguments
  POST /reset     Discard the engine
  GET  /stream    WebSocket evaluation stream
  GET  /health    Health check
  GET  /metrics   Prometheus metrics

Configuration is read from the environment (and .env), or from a YAML,
TOML or JSON file given with --config. --preload adds to the configured
preload patterns.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().String("config", "", "Configuration file (.yaml, .toml or .json)")
	cmd.Flags().String("port", "", "Port to listen on (overrides configuration)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadServeConfig(cmd)
	if err != nil {
		return err
	}

	srv, err := server.NewServer(cfg, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	select {
	case err := <-errCh:
		_ = srv.Shutdown(context.Background())
		return err
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	}
}

func loadServeConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	port, _ := cmd.Flags().GetString("port")
	preload, _ := cmd.Flags().GetStringSlice("preload")

	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if port != "" {
		cfg.Server.Port = port
	}
	cfg.Engine.Preload = append(cfg.Engine.Preload, preload...)
	return cfg, nil
}
