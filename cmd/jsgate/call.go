package main

import (
	"github.com/spf13/cobra"
)

func newCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <function> [json-args...]",
		Short: "Call a global function defined by the preload scripts",
		Long: `Call a global guest function and print its return value as JSON.

Each argument is parsed as JSON; anything that does not parse is passed
as a string:

  jsgate call --preload 'lib/*.js' add 1 2
  jsgate call --preload lib.js greet '"world"' '{"loud": true}'`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCall,
	}
	addTimeoutFlag(cmd)
	return cmd
}

func runCall(cmd *cobra.Command, args []string) error {
	timeout, _ := cmd.Flags().GetDuration("timeout")

	gw, logger, err := newGateway(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer gw.Close()

	result, err := gw.Call(cmd.Context(), args[0], timeout, parseArgs(args[1:])...)
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), result)
}
