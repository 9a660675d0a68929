package cmd

import (
	"github.com/spf13/cobra"

	"salaryreport/internal/chart"
	"salaryreport/internal/core"
	"salaryreport/internal/services"
)

func newReportsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Read stored reports",
	}
	cmd.AddCommand(newReportsListCmd(app), newReportsGetCmd(app))
	return cmd
}

func (app *App) openService(cmd *cobra.Command) (*services.ReportService, error) {
	st, err := app.OpenStore(app.context(cmd), app.config, app.logger)
	if err != nil {
		return nil, err
	}
	return services.NewReportService(st, chart.NewRenderer(), nil, app.config.StoreTimeout), nil
}

func newReportsListCmd(app *App) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent reports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.openService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			reports, err := svc.List(app.context(cmd), limit)
			if err != nil {
				return err
			}
			out := make([]core.StoredReport, len(reports))
			for i, rec := range reports {
				out[i] = app.view(rec)
			}
			return app.print(out)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", core.MaxRecentReports, "Maximum number of reports (capped at 50)")
	return cmd
}

func newReportsGetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one stored report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := app.openService(cmd)
			if err != nil {
				return err
			}
			defer svc.Close()

			rec, err := svc.Get(app.context(cmd), args[0])
			if err != nil {
				return err
			}
			return app.print(app.view(rec))
		},
	}
}
