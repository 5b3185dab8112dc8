package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"MacroMonitor/internal/collector"
	"MacroMonitor/internal/render"
	"MacroMonitor/internal/report"
)

var endDate string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate the report once",
	Long:  `Fetches every configured series, builds the report and writes all enabled outputs.`,
	RunE:  runReport,
}

func init() {
	runCmd.Flags().StringVar(&endDate, "end", "", "report end date (YYYY-MM-DD, default today)")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	end := time.Now().UTC().Truncate(24 * time.Hour)
	if endDate != "" {
		if end, err = time.Parse("2006-01-02", endDate); err != nil {
			return fmt.Errorf("--end: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	renderers, err := render.FromConfig(cfg, log)
	if err != nil {
		return err
	}

	rec := openRecorder(cfg, log)
	defer rec.Close()

	opts := []report.Option{report.WithRecorder(rec)}
	if tn := telegram(cfg, log); tn != nil {
		opts = append(opts, report.WithNotifier(tn))
	}

	builder := report.NewBuilder(cfg, collector.NewFromConfig(cfg, log), log)
	pipeline := report.NewPipeline(builder, renderers, log, opts...)

	summary, err := pipeline.Run(ctx, end)
	if err != nil {
		log.Error().Err(err).Msg("report run failed")
		return err
	}

	fmt.Printf("Fetched %d of %d series, %d failed\n", summary.Fetched, summary.Total, len(summary.FailedIDs))
	for _, out := range summary.Outputs {
		fmt.Printf("  wrote %s\n", out)
	}
	if len(summary.RendererErrors) > 0 {
		return fmt.Errorf("%d renderer(s) failed", len(summary.RendererErrors))
	}
	return nil
}
