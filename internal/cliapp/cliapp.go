// Package cliapp wires config, projectio, normalize, and reportfmt together
// for the shapeshifter CLI, and owns its exit-code policy: 0 when the
// project is valid, 1 when Normalize halts with errors.
package cliapp

import (
	"context"
	"fmt"

	"github.com/humlab-sead/sead-shape-shifter-sub001/internal/config"
	"github.com/humlab-sead/sead-shape-shifter-sub001/internal/loaders/file"
	"github.com/humlab-sead/sead-shape-shifter-sub001/internal/loaders/fixed"
	loadersql "github.com/humlab-sead/sead-shape-shifter-sub001/internal/loaders/sql"
	"github.com/humlab-sead/sead-shape-shifter-sub001/internal/normalize"
	"github.com/humlab-sead/sead-shape-shifter-sub001/internal/normlog"
	"github.com/humlab-sead/sead-shape-shifter-sub001/internal/projectio"
	"github.com/humlab-sead/sead-shape-shifter-sub001/internal/reportfmt"
)

// BuildRegistry returns a loader Registry with every built-in driver
// registered. Entities with type "entity" (source: another entity's
// already-produced output) have no driver here — the orchestrator resolves
// those directly against the run's Store, since a Loader only ever sees a
// DataSourceConfig.
func BuildRegistry() (*normalize.Registry, *loadersql.Loader) {
	registry := normalize.NewRegistry()
	registry.Register("fixed", fixed.New())

	sqlLoader := loadersql.New()
	registry.Register("postgres", sqlLoader)

	fileLoader := file.New()
	registry.Register("csv", fileLoader)
	registry.Register("xlsx", fileLoader)
	registry.Register("docx", fileLoader)
	registry.Register("pdf", fileLoader)

	return registry, sqlLoader
}

// Result is what a single Run produces: the processed tables, the
// accumulated report, and the process exit code the caller should use.
type Result struct {
	Store    *normalize.Store
	Report   *normalize.Report
	ExitCode int
}

// Run loads the project at projectPath, applies cfg's default data source
// and run policy, executes Normalize, and returns the combined result.
func Run(ctx context.Context, cfg *config.Config, projectPath string) (*Result, error) {
	project, err := projectio.Load(projectPath)
	if err != nil {
		return nil, fmt.Errorf("loading project: %w", err)
	}

	applyDefaults(project, cfg)

	registry, sqlLoader := BuildRegistry()
	defer sqlLoader.Close()

	logger := newRunLogger(cfg)
	store, report := normalize.Normalize(ctx, project, registry)
	logRunOutcome(logger, project, store, report)

	return &Result{Store: store, Report: report, ExitCode: report.ExitCode()}, nil
}

func newRunLogger(cfg *config.Config) *normlog.Logger {
	if cfg.Logging.Format == "json" {
		return normlog.NewJSON(cfg.Logging.Level, 256)
	}
	return normlog.New(cfg.Logging.Level, 256)
}

// logRunOutcome replays the accumulated Report through the run logger so a
// CLI invocation gets structured per-entity events even though Normalize
// itself only accumulates a Report rather than logging as it goes.
func logRunOutcome(logger *normlog.Logger, project *normalize.Project, store *normalize.Store, report *normalize.Report) {
	for _, name := range project.EntityNames() {
		if table := store.Get(name); table != nil {
			logger.EntityProcessed(name, table.NumRows())
		}
	}
	for _, issue := range report.Warnings {
		logger.EntityDeferred(issue.Entity, issue.Message)
	}
	if report.HasErrors() {
		logger.RunHalted(report.Errors[len(report.Errors)-1].Message)
	}
}

// applyDefaults fills in run-policy fields the project document left unset,
// and gives every "postgres" data source with no explicit dsn option the
// CLI's configured default connection.
func applyDefaults(project *normalize.Project, cfg *config.Config) {
	if project.MaxRounds == 0 {
		project.MaxRounds = cfg.Run.MaxRounds
	}
	if !project.BestEffort {
		project.BestEffort = cfg.Run.BestEffort
	}
	for name, ds := range project.DataSources {
		if ds.Driver != "postgres" {
			continue
		}
		if _, ok := ds.Options["dsn"]; ok {
			continue
		}
		if ds.Options == nil {
			ds.Options = map[string]any{}
		}
		ds.Options["dsn"] = cfg.Database.DSN()
		project.DataSources[name] = ds
	}
}

// PrintResult renders r's report in format to standard output.
func PrintResult(r *Result, format reportfmt.Format) error {
	return reportfmt.NewFormatter(format).Print(r.Report)
}
