// Package cmd provides the Cobra commands for the shapeshifter CLI.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/humlab-sead/sead-shape-shifter-sub001/internal/config"
	"github.com/humlab-sead/sead-shape-shifter-sub001/internal/reportfmt"
)

var (
	// Version information (set via ldflags during build)
	Version = "dev"

	outputFmt string
	cfg       *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "shapeshifter",
	Short: "shapeshifter normalizes a declarative project into linked tables",
	Long: `shapeshifter reads a declarative project document describing a set of
entities, their data sources, and the relationships between them, and
produces a consistent set of tabular results with surrogate identifiers
assigned and foreign keys resolved.

Get started:
  shapeshifter run project.yaml     Run normalization once
  shapeshifter watch project.yaml   Re-run on a schedule`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(loadConfig)

	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table",
		"output format: table, json, yaml")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(validateCmd)
}

func loadConfig() {
	loaded, err := config.Load()
	if err != nil {
		// Fall back to a zero-value Config so --help and version still work
		// even with a broken environment. The load error is not reported;
		// run/watch/validate proceed with that zero-value Config.
		loaded = &config.Config{}
	}
	cfg = loaded
}

func parseOutputFormat() (reportfmt.Format, error) {
	return reportfmt.ParseFormat(outputFmt)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the shapeshifter version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.Println(Version)
		return nil
	},
}
