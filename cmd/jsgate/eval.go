package main

import (
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval [file]",
		Short: "Evaluate a script and print its completion value",
		Long: `Evaluate JavaScript and print the completion value as JSON.

Code can be provided via:
  - File argument: jsgate eval script.js
  - Inline flag: jsgate eval -c '1 + 1'
  - Stdin: echo '1 + 1' | jsgate eval`,
		Args: cobra.MaximumNArgs(1),
		RunE: runEval,
	}
	cmd.Flags().StringP("code", "c", "", "Code to evaluate")
	addTimeoutFlag(cmd)
	return cmd
}

func runEval(cmd *cobra.Command, args []string) error {
	code, _ := cmd.Flags().GetString("code")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	var source string
	switch {
	case code != "":
		source = code
	case len(args) > 0:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		source = string(data)
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return err
		}
		source = string(data)
	}
	if source == "" {
		return errors.New("no code given: pass a file, -c or stdin")
	}

	gw, logger, err := newGateway(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer gw.Close()

	result, err := gw.Eval(cmd.Context(), source, timeout)
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), result)
}
