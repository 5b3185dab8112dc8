package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"MacroMonitor/internal/scheduler"
)

var runOnStart bool

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Regenerate the report periodically during market hours",
	Long:  `Polls at the configured interval and, inside the market-hours window, runs report generation as a separate process. Telegram commands are served when a bot token is configured.`,
	RunE:  runSchedule,
}

func init() {
	scheduleCmd.Flags().BoolVar(&runOnStart, "now", false, "generate a report immediately on start")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	interval, err := cfg.ScheduleInterval()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	openMin, closeMin, err := cfg.OpenClose()
	if err != nil {
		return err
	}

	runner, err := scheduler.NewExecRunner(cfg.Schedule.Command, []string{"--config", cfgPath}, log)
	if err != nil {
		return err
	}

	rec := openRecorder(cfg, log)
	defer rec.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hours := scheduler.NewMarketHours(loc, openMin, closeMin)
	sched := scheduler.New(ctx, hours, interval, runner, log, scheduler.WithRecorder(rec))
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	if tn := telegram(cfg, log); tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	if runOnStart {
		go func() {
			if err := sched.RunNow(); err != nil {
				log.Error().Err(err).Msg("initial report failed")
			}
		}()
	}

	log.Info().
		Str("interval", interval.String()).
		Str("timezone", loc.String()).
		Str("open", cfg.Schedule.Open).
		Str("close", cfg.Schedule.Close).
		Msg("macromonitor scheduler running, press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping")
	cancel()
	return nil
}
