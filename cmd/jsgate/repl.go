package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/jsgate/internal/gateway"
)

const (
	promptMain = ">>> "
	promptMore = "... "
)

func newReplCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive REPL with persistent state",
		Long: `Start an interactive REPL (Read-Eval-Print Loop) session.

Features:
  - Command history (up/down arrows)
  - History search (Ctrl+R)
  - Multi-line input (end line with \)
  - .reset discards the engine and replays the preload scripts

Type 'exit' or 'quit' to end the session, or press Ctrl+D.`,
		Args: cobra.NoArgs,
		RunE: runRepl,
	}
	addTimeoutFlag(cmd)
	cmd.Flags().String("history", "", "History file path (default: ~/.jsgate_history)")
	return cmd
}

func runRepl(cmd *cobra.Command, args []string) error {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	historyFile, _ := cmd.Flags().GetString("history")

	if historyFile == "" {
		if home, err := os.UserHomeDir(); err == nil {
			historyFile = filepath.Join(home, ".jsgate_history")
		}
	}

	gw, logger, err := newGateway(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer gw.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            promptMain,
		HistoryFile:       historyFile,
		HistoryLimit:      1000,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintln(cmd.ErrOrStderr(), "jsgate REPL (type 'exit' to quit, Ctrl+D to exit)")

	return repl(cmd.Context(), rl, gw, timeout, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// lineReader is the part of readline the loop depends on.
type lineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

func repl(ctx context.Context, rl lineReader, gw *gateway.Gateway, timeout time.Duration, stdout, stderr io.Writer) error {
	var pending strings.Builder

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			pending.Reset()
			rl.SetPrompt(promptMain)
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(stdout)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		if strings.HasSuffix(line, "\\") {
			pending.WriteString(strings.TrimSuffix(line, "\\"))
			pending.WriteString("\n")
			rl.SetPrompt(promptMore)
			continue
		}
		if pending.Len() > 0 {
			pending.WriteString(line)
			line = pending.String()
			pending.Reset()
			rl.SetPrompt(promptMain)
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		case ".reset":
			if err := gw.Reset(); err != nil {
				fmt.Fprintf(stderr, "Error: %v\n", err)
			}
			continue
		}

		result, err := gw.Eval(ctx, line, timeout)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			continue
		}
		if err := printResult(stdout, result); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
	}
}
