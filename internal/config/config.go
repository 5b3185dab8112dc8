package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"MacroMonitor/internal/model"
)

const dateLayout = "2006-01-02"

// SeriesEntry maps an identifier ("SOURCE:CODE") to a display name.
type SeriesEntry struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// Section is an ordered group of series rendered together.
type Section struct {
	Title  string        `yaml:"title"`
	Kind   string        `yaml:"kind"`
	Series []SeriesEntry `yaml:"series"`
}

// Config holds all application configuration.
type Config struct {
	Report struct {
		Start            string   `yaml:"start"`
		HistoryStart     string   `yaml:"history_start"`
		TrendDays        int      `yaml:"trend_days"`
		OutputDir        string   `yaml:"output_dir"`
		HTMLFile         string   `yaml:"html_file"`
		JSONFile         string   `yaml:"json_file"`
		PDFFile          string   `yaml:"pdf_file"`
		ExcelFile        string   `yaml:"excel_file"`
		MaxSeriesPerPage int      `yaml:"max_series_per_page"`
		Renderers        []string `yaml:"renderers"`
	} `yaml:"report"`
	Sections        []Section `yaml:"sections"`
	DifferenceCodes []string  `yaml:"difference_codes"`
	Providers       struct {
		FRED struct {
			APIKey   string `yaml:"api_key"`
			BaseURL  string `yaml:"base_url"`
			GraphURL string `yaml:"graph_url"`
		} `yaml:"fred"`
		Stooq struct {
			BaseURL string `yaml:"base_url"`
		} `yaml:"stooq"`
		Yahoo struct {
			BaseURL string `yaml:"base_url"`
		} `yaml:"yahoo"`
		Multpl struct {
			URL         string `yaml:"url"`
			FallbackCSV string `yaml:"fallback_csv"`
		} `yaml:"multpl"`
		RateLimit      float64 `yaml:"rate_limit"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
	} `yaml:"providers"`
	Schedule struct {
		Interval string   `yaml:"interval"`
		Timezone string   `yaml:"timezone"`
		Open     string   `yaml:"open"`
		Close    string   `yaml:"close"`
		Command  []string `yaml:"command"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides and fills defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("FRED_API_KEY"); v != "" {
		c.Providers.FRED.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		c.Report.OutputDir = v
	}
	if v := os.Getenv("SCHEDULE_INTERVAL"); v != "" {
		c.Schedule.Interval = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOG_PRETTY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Log.Pretty = b
		}
	}
}

func (c *Config) applyDefaults() {
	r := &c.Report
	if r.Start == "" {
		r.Start = "2018-01-01"
	}
	if r.HistoryStart == "" {
		r.HistoryStart = "1900-01-01"
	}
	if r.TrendDays == 0 {
		r.TrendDays = 730
	}
	if r.OutputDir == "" {
		r.OutputDir = "."
	}
	if r.HTMLFile == "" {
		r.HTMLFile = "index.html"
	}
	if r.JSONFile == "" {
		r.JSONFile = "data.json"
	}
	if r.PDFFile == "" {
		r.PDFFile = "macro_monitor.pdf"
	}
	if r.ExcelFile == "" {
		r.ExcelFile = "macro_tracker.xlsx"
	}
	if r.MaxSeriesPerPage == 0 {
		r.MaxSeriesPerPage = 2
	}
	if len(r.Renderers) == 0 {
		r.Renderers = []string{"html", "json", "pdf", "excel"}
	}
	if len(c.Sections) == 0 {
		c.Sections = DefaultSections()
	}
	for i := range c.Sections {
		if c.Sections[i].Kind == "" {
			c.Sections[i].Kind = string(model.SectionReturns)
		}
	}
	if len(c.DifferenceCodes) == 0 {
		c.DifferenceCodes = DefaultDifferenceCodes()
	}

	p := &c.Providers
	if p.FRED.BaseURL == "" {
		p.FRED.BaseURL = "https://api.stlouisfed.org/fred"
	}
	if p.FRED.GraphURL == "" {
		p.FRED.GraphURL = "https://fred.stlouisfed.org/graph/fredgraph.csv"
	}
	if p.Stooq.BaseURL == "" {
		p.Stooq.BaseURL = "https://stooq.com"
	}
	if p.Yahoo.BaseURL == "" {
		p.Yahoo.BaseURL = "https://query1.finance.yahoo.com"
	}
	if p.Multpl.URL == "" {
		p.Multpl.URL = "https://www.multpl.com/shiller-pe/table/by-month"
	}
	if p.Multpl.FallbackCSV == "" {
		p.Multpl.FallbackCSV = "data/cape.csv"
	}
	if p.RateLimit == 0 {
		p.RateLimit = 2
	}
	if p.TimeoutSeconds == 0 {
		p.TimeoutSeconds = 30
	}

	s := &c.Schedule
	if s.Interval == "" {
		s.Interval = "10m"
	}
	if s.Timezone == "" {
		s.Timezone = "America/Los_Angeles"
	}
	if s.Open == "" {
		s.Open = "06:30"
	}
	if s.Close == "" {
		s.Close = "13:00"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if _, err := c.StartDate(); err != nil {
		return err
	}
	if _, err := c.HistoryStartDate(); err != nil {
		return err
	}
	if c.Report.MaxSeriesPerPage <= 0 {
		return fmt.Errorf("report.max_series_per_page must be positive")
	}
	if c.Report.TrendDays <= 0 {
		return fmt.Errorf("report.trend_days must be positive")
	}
	for _, name := range c.Report.Renderers {
		switch name {
		case "html", "json", "pdf", "excel":
		default:
			return fmt.Errorf("report.renderers: unknown renderer %q", name)
		}
	}
	if len(c.Sections) == 0 {
		return fmt.Errorf("at least one section is required")
	}
	for _, sec := range c.Sections {
		if sec.Title == "" {
			return fmt.Errorf("section title is required")
		}
		switch model.SectionKind(sec.Kind) {
		case model.SectionReturns, model.SectionValuation:
		default:
			return fmt.Errorf("section %q: unknown kind %q", sec.Title, sec.Kind)
		}
		for _, e := range sec.Series {
			if _, err := model.ParseSeriesID(e.ID); err != nil {
				return fmt.Errorf("section %q: %w", sec.Title, err)
			}
			if e.Name == "" {
				return fmt.Errorf("section %q: series %q needs a name", sec.Title, e.ID)
			}
		}
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if _, err := c.ScheduleInterval(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, _, err := parseClock(c.Schedule.Open); err != nil {
		return fmt.Errorf("schedule.open: %w", err)
	}
	if _, _, err := parseClock(c.Schedule.Close); err != nil {
		return fmt.Errorf("schedule.close: %w", err)
	}
	return nil
}

// StartDate is the first date of the report window.
func (c *Config) StartDate() (time.Time, error) {
	t, err := time.Parse(dateLayout, c.Report.Start)
	if err != nil {
		return time.Time{}, fmt.Errorf("report.start: %w", err)
	}
	return t, nil
}

// HistoryStartDate is where full-history fetches for valuation stats begin.
func (c *Config) HistoryStartDate() (time.Time, error) {
	t, err := time.Parse(dateLayout, c.Report.HistoryStart)
	if err != nil {
		return time.Time{}, fmt.Errorf("report.history_start: %w", err)
	}
	return t, nil
}

// TrendWindow is the lookback used for sparklines.
func (c *Config) TrendWindow() time.Duration {
	return time.Duration(c.Report.TrendDays) * 24 * time.Hour
}

// OutputPath joins a file name onto the output directory.
func (c *Config) OutputPath(name string) string {
	return filepath.Join(c.Report.OutputDir, name)
}

// ScheduleInterval is the polling interval of the scheduler.
func (c *Config) ScheduleInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Schedule.Interval)
	if err != nil {
		return 0, fmt.Errorf("schedule.interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("schedule.interval must be positive")
	}
	return d, nil
}

// Location is the scheduler's time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("schedule.timezone: %w", err)
	}
	return loc, nil
}

// OpenClose returns the market window bounds as minutes after midnight.
func (c *Config) OpenClose() (openMin, closeMin int, err error) {
	oh, om, err := parseClock(c.Schedule.Open)
	if err != nil {
		return 0, 0, fmt.Errorf("schedule.open: %w", err)
	}
	ch, cm, err := parseClock(c.Schedule.Close)
	if err != nil {
		return 0, 0, fmt.Errorf("schedule.close: %w", err)
	}
	return oh*60 + om, ch*60 + cm, nil
}

// DifferenceSet returns the upper-cased difference allow-list.
func (c *Config) DifferenceSet() map[string]bool {
	set := make(map[string]bool, len(c.DifferenceCodes))
	for _, code := range c.DifferenceCodes {
		set[strings.ToUpper(strings.TrimSpace(code))] = true
	}
	return set
}

func parseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q", s)
	}
	return t.Hour(), t.Minute(), nil
}
