// Package cmd contains the salaryctl commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"salaryreport/internal/backend"
	"salaryreport/internal/cli"
	"salaryreport/internal/config"
	"salaryreport/internal/core"
	applog "salaryreport/internal/log"
	"salaryreport/internal/output"
	"salaryreport/internal/store"
)

// Exit codes returned by salaryctl.
const (
	ExitFailure  = 1
	ExitBadInput = 2
	ExitNotFound = 3
)

// App holds what the commands share. Tests replace OpenStore and the writers.
type App struct {
	Out io.Writer
	Err io.Writer

	// OpenStore returns the report store for commands that read or persist
	// reports. It is only called when a command needs one.
	OpenStore func(ctx context.Context, cfg *config.Config, logger *applog.Logger) (store.ReportStore, error)

	format    output.Format
	withChart bool
	logLevel  string
	config    *config.Config
	logger    *applog.Logger
}

func NewApp() *App {
	return &App{Out: os.Stdout, Err: os.Stderr, OpenStore: openConfiguredStore}
}

// openConfiguredStore opens the backend named by DATA_BACKEND. Each command
// runs once, so the read cache is left off.
func openConfiguredStore(ctx context.Context, cfg *config.Config, logger *applog.Logger) (store.ReportStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	backendCfg.CacheSize = 0
	if backendCfg.Type == backend.MemoryBackend {
		logger.Warn("DATA_BACKEND is memory: reports do not outlive this command")
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, err
	}
	return res.Store, nil
}

// NewRootCmd builds the salaryctl command tree.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "salaryctl",
		Short: "Compute and inspect salary reports",
		Long: `salaryctl computes salary reports from five monthly amounts and reads
reports stored by the salary report API.

Output Format:
  Results are printed as YAML by default. Use --format json for the same
  shape the HTTP API returns. Charts are omitted unless --chart is given.

Examples:
  salaryctl compute --basic-salary 5000 --incentives 500 --spends 1000 --recharge 200 --grocery 300
  salaryctl compute --input month.yaml --save --chart-out month.png
  salaryctl reports list --limit 10
  salaryctl reports get 65f1c2a9e4b0a1d2c3f4e5a6`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			app.config = config.Load()
			app.logger = applog.New(applog.Config{
				Component: applog.ComponentCLI,
				Handler:   cli.NewHandler(app.Err, app.logLevel, "text"),
			})
			return nil
		},
	}
	root.SetOut(app.Out)
	root.SetErr(app.Err)

	app.format = output.FormatYAML
	root.PersistentFlags().Var(&app.format, "format", "Output format (yaml|json)")
	root.PersistentFlags().BoolVar(&app.withChart, "chart", false, "Include the base64 chart in printed output")
	root.PersistentFlags().StringVar(&app.logLevel, "log-level", "warn", "Log level for diagnostics on stderr")

	root.AddCommand(newComputeCmd(app), newReportsCmd(app))
	return root
}

// Execute runs salaryctl and exits with a code matching the failure kind.
func Execute() {
	if err := NewRootCmd(NewApp()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(ExitCode(err))
	}
}

// ExitCode maps an error onto the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, core.ErrValidation), errors.Is(err, core.ErrInvalidID):
		return ExitBadInput
	case errors.Is(err, core.ErrNotFound):
		return ExitNotFound
	default:
		return ExitFailure
	}
}

func (app *App) context(cmd *cobra.Command) context.Context {
	return applog.WithContext(cmd.Context(), app.logger)
}

// print writes v in the selected format.
func (app *App) print(v any) error {
	return output.Write(app.Out, app.format, v)
}

// view drops the chart from printed reports unless --chart was given.
func (app *App) view(rec core.StoredReport) core.StoredReport {
	if !app.withChart {
		rec.Chart = ""
	}
	return rec
}
