package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/heatctl/heatctl/app"
	"github.com/heatctl/heatctl/config"
	"github.com/heatctl/heatctl/pkg/export"
)

var planFormat string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Run a single planning pass and print the strategy slots",
	RunE:  planOnce,
}

func init() {
	planCmd.Flags().StringVarP(&planFormat, "format", "f", "json", "output format: json or csv")
	rootCmd.AddCommand(planCmd)
}

func planOnce(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	f, err := svc.Forecast.Hourly(time.Now())
	if err != nil {
		return fmt.Errorf("forecast: %w", err)
	}
	if err := svc.Scheduler.Plan(f); err != nil {
		return fmt.Errorf("plan: %w", err)
	}

	slots := svc.Scheduler.Slots()
	switch planFormat {
	case "json":
		return export.WriteJSON(os.Stdout, slots)
	case "csv":
		return export.WriteCSV(os.Stdout, slots)
	default:
		return fmt.Errorf("unsupported format: %s", planFormat)
	}
}
