package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"MacroMonitor/internal/config"
	"MacroMonitor/internal/logger"
	"MacroMonitor/internal/notifier"
	"MacroMonitor/internal/recorder"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "macromonitor",
	Short:         "Macro market monitor report generator",
	Long:          `MacroMonitor fetches market and macro series, computes horizon returns and valuation statistics, and writes an HTML dashboard, a JSON data file, a PDF report and an Excel workbook.`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath(), "configuration file path")
	rootCmd.AddCommand(runCmd, scheduleCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "configs/config.yaml"
}

// setup loads and validates the configuration and installs the logger.
func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	logger.SetGlobalLogger(log)
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Str("path", cfgPath).Msg("invalid configuration")
		return nil, log, err
	}
	return cfg, log, nil
}

// openRecorder falls back to the no-op recorder when SQLite is not
// configured or cannot be opened.
func openRecorder(cfg *config.Config, log zerolog.Logger) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	rec, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
	if err != nil {
		log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return rec
}

// telegram returns nil when no bot token is configured.
func telegram(cfg *config.Config, log zerolog.Logger) *notifier.TelegramNotifier {
	if cfg.Telegram.BotToken == "" {
		return nil
	}
	return notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
}
