package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/jsgate/internal/codec"
	"github.com/GriffinCanCode/jsgate/internal/engine"
	"github.com/GriffinCanCode/jsgate/internal/gateway"
	"github.com/GriffinCanCode/jsgate/internal/infrastructure/config"
	"github.com/GriffinCanCode/jsgate/internal/infrastructure/logging"
	"github.com/GriffinCanCode/jsgate/internal/infrastructure/server"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "jsgate",
		Short: "Embedded JavaScript evaluation gateway",
		Long: `jsgate - Evaluate JavaScript in a supervised goja engine.

Results are converted to plain JSON values. Runaway scripts are stopped
after a timeout and the engine is rebuilt from its preload scripts on
the next request.`,
		Version:       server.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringSlice("preload", nil, "Preload script glob, run on every fresh engine (repeatable)")
	root.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn, error")

	root.AddCommand(newEvalCmd(), newCallCmd(), newReplCmd(), newServeCmd())
	return root
}

// addTimeoutFlag registers --timeout on commands that evaluate code.
func addTimeoutFlag(cmd *cobra.Command) {
	cmd.Flags().Duration("timeout", 30*time.Second, "Evaluation timeout (0 disables)")
	cmd.Flags().Int("max-call-stack", 0, "Maximum guest call stack depth (0 keeps the engine default)")
}

// newGateway builds a gateway from the persistent flags. Guest console
// output goes to the logger on stderr.
func newGateway(cmd *cobra.Command) (*gateway.Gateway, *logging.Logger, error) {
	level, _ := cmd.Flags().GetString("log-level")
	patterns, _ := cmd.Flags().GetStringSlice("preload")
	maxStack, _ := cmd.Flags().GetInt("max-call-stack")

	logger, err := logging.New(logging.Config{
		Level:       level,
		Development: true,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	paths, err := config.ExpandPreload(patterns)
	if err != nil {
		return nil, nil, err
	}
	scripts, err := engine.ReadScripts(paths...)
	if err != nil {
		return nil, nil, err
	}

	opts := engine.DefaultOptions()
	opts.MaxCallStackSize = maxStack

	gw, err := gateway.New(
		gateway.WithScripts(scripts...),
		gateway.WithEngineOptions(opts),
		gateway.WithLogger(logger.Component("engine")),
	)
	if err != nil {
		return nil, nil, err
	}
	return gw, logger, nil
}

// printResult writes v as a single line of JSON.
func printResult(w io.Writer, v any) error {
	wire, err := codec.HostToWire(v)
	if err != nil {
		return fmt.Errorf("result is not representable as JSON: %w", err)
	}
	out, err := sonic.ConfigStd.MarshalToString(wire)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

// parseArgs decodes each command line argument as a JSON value. Arguments
// that are not valid JSON are passed as strings.
func parseArgs(raw []string) []any {
	args := make([]any, len(raw))
	for i, s := range raw {
		var v any
		if err := sonic.ConfigStd.UnmarshalFromString(strings.TrimSpace(s), &v); err != nil {
			v = s
		}
		args[i] = v
	}
	return args
}
