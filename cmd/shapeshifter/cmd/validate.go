package cmd

import (
	"github.com/spf13/cobra"

	"github.com/humlab-sead/sead-shape-shifter-sub001/internal/normalize"
	"github.com/humlab-sead/sead-shape-shifter-sub001/internal/projectio"
	"github.com/humlab-sead/sead-shape-shifter-sub001/internal/reportfmt"
)

var validateCmd = &cobra.Command{
	Use:   "validate <project.yaml>",
	Short: "Check a project document for configuration errors without running it",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	format, err := parseOutputFormat()
	if err != nil {
		return err
	}

	project, err := projectio.Load(args[0])
	if err != nil {
		return err
	}

	report := normalize.ValidateProject(project)
	if err := reportfmt.NewFormatter(format).Print(report); err != nil {
		return err
	}

	if report.HasErrors() {
		cmd.SilenceErrors = true
		return &exitCodeError{code: 1}
	}
	return nil
}
