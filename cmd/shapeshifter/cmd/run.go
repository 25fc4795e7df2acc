package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/humlab-sead/sead-shape-shifter-sub001/internal/cliapp"
)

var bestEffort bool

var runCmd = &cobra.Command{
	Use:   "run <project.yaml>",
	Short: "Run normalization once against a project document",
	Args:  cobra.ExactArgs(1),
	RunE:  runNormalize,
}

func init() {
	runCmd.Flags().BoolVar(&bestEffort, "best-effort", false,
		"continue past per-entity errors instead of halting the whole run")
}

func runNormalize(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	format, err := parseOutputFormat()
	if err != nil {
		return err
	}
	if bestEffort {
		cfg.Run.BestEffort = true
	}

	result, err := cliapp.Run(ctx, cfg, args[0])
	if err != nil {
		return err
	}
	if err := cliapp.PrintResult(result, format); err != nil {
		return err
	}

	cmd.SilenceErrors = true
	if result.ExitCode != 0 {
		return &exitCodeError{code: result.ExitCode}
	}
	return nil
}

// exitCodeError lets RunE signal a non-zero process exit without printing a
// second "Error: ..." line — the report has already been rendered.
type exitCodeError struct{ code int }

func (e *exitCodeError) Error() string { return "" }

// ExitCode implements the informal interface cobra's caller (main.go)
// checks for when deciding the process exit status.
func (e *exitCodeError) ExitCode() int { return e.code }
