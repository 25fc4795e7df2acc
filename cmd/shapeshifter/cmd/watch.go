package cmd

import (
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/humlab-sead/sead-shape-shifter-sub001/internal/cliapp"
	"github.com/humlab-sead/sead-shape-shifter-sub001/internal/reportfmt"
)

var watchSchedule string

var watchCmd = &cobra.Command{
	Use:   "watch <project.yaml>",
	Short: "Re-run normalization on a cron schedule",
	Long: `watch re-runs normalization against a project document on a cron
schedule, for projects whose sql data sources may change between runs.

Each tick is a complete, independent normalization run: watch does not
track what changed upstream and does not attempt incremental recomputation.
A tick that halts with errors is logged and the schedule keeps running;
use "shapeshifter run" instead for a one-shot invocation that exits non-zero
on failure.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "@every 1h",
		"cron expression, or a descriptor like @hourly / @every 30m")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	format, err := parseOutputFormat()
	if err != nil {
		return err
	}

	projectPath := args[0]

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(watchSchedule)
	if err != nil {
		return err
	}

	tick := func() {
		result, err := cliapp.Run(ctx, cfg, projectPath)
		if err != nil {
			log.Error().Err(err).Str("project", projectPath).Msg("watch tick failed to run")
			return
		}
		if err := cliapp.PrintResult(result, format); err != nil {
			log.Error().Err(err).Msg("watch tick failed to print report")
		}
		if result.ExitCode != 0 {
			log.Warn().Int("exit_code", result.ExitCode).Str("project", projectPath).
				Msg("watch tick finished with errors, schedule continues")
		}
	}

	c := cron.New(cron.WithParser(parser))
	c.Schedule(schedule, cron.FuncJob(tick))

	log.Info().Str("project", projectPath).Str("schedule", watchSchedule).Msg("starting watch")
	c.Start()
	defer c.Stop()

	if format == reportfmt.FormatTable {
		cmd.Println("watching", projectPath, "on schedule", watchSchedule, "(ctrl-c to stop)")
	}

	<-ctx.Done()
	log.Info().Msg("watch stopped")
	return nil
}
