package cmd

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"salaryreport/internal/chart"
	"salaryreport/internal/core"
	"salaryreport/internal/services"
	"salaryreport/internal/store"
)

func newComputeCmd(app *App) *cobra.Command {
	var (
		inputFile string
		chartOut  string
		save      bool
		amounts   = make(map[string]*float64, len(core.InputFields))
	)

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute a salary report",
		Long: `Compute a salary report from the five monthly amounts.

Amounts come from flags, from a YAML or JSON file given with --input, or both;
flags win over the file. Every amount is required.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := map[string]any{}
			if inputFile != "" {
				var err error
				if raw, err = readInputFile(inputFile); err != nil {
					return err
				}
			}
			for _, name := range core.InputFields {
				if cmd.Flags().Changed(flagName(name)) {
					raw[name] = *amounts[name]
				}
			}

			in, err := core.ParseInput(raw)
			if err != nil {
				return err
			}

			ctx := app.context(cmd)
			var st store.ReportStore
			if save {
				if st, err = app.OpenStore(ctx, app.config, app.logger); err != nil {
					return err
				}
			}
			svc := services.NewReportService(st, chart.NewRenderer(), nil, app.config.StoreTimeout)
			defer svc.Close()

			var rec core.StoredReport
			if save {
				rec, err = svc.Generate(ctx, in, "")
			} else {
				rec.SalaryReport, err = svc.Compute(ctx, in)
				rec.Input = in
			}
			if err != nil {
				return err
			}

			if chartOut != "" {
				if err := writeChart(chartOut, rec.SalaryReport); err != nil {
					return err
				}
			}

			if save {
				return app.print(app.view(rec))
			}
			return app.print(app.view(rec).SalaryReport)
		},
	}

	for _, name := range core.InputFields {
		v := new(float64)
		amounts[name] = v
		cmd.Flags().Float64Var(v, flagName(name), 0, "Monthly "+strings.ReplaceAll(name, "_", " "))
	}
	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "YAML or JSON file with the amounts")
	cmd.Flags().BoolVar(&save, "save", false, "Persist the report in the configured store")
	cmd.Flags().StringVar(&chartOut, "chart-out", "", "Write the chart PNG to this file")
	return cmd
}

func flagName(field string) string {
	return strings.ReplaceAll(field, "_", "-")
}

// readInputFile decodes a mapping of amounts. JSON is valid YAML, so one
// decoder reads both.
func readInputFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &core.ValidationError{Reason: fmt.Sprintf("input file %s is not a mapping: %v", path, err)}
	}
	return raw, nil
}

func writeChart(path string, report core.SalaryReport) error {
	if !report.HasChart() {
		return fmt.Errorf("no chart to write: %s", report.ChartError)
	}
	png, err := base64.StdEncoding.DecodeString(report.Chart)
	if err != nil {
		return fmt.Errorf("decode chart: %w", err)
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	return nil
}
