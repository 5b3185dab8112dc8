package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "2018-01-01", cfg.Report.Start)
	assert.Equal(t, 2, cfg.Report.MaxSeriesPerPage)
	assert.Equal(t, []string{"html", "json", "pdf", "excel"}, cfg.Report.Renderers)
	assert.Equal(t, "10m", cfg.Schedule.Interval)
	assert.Equal(t, "America/Los_Angeles", cfg.Schedule.Timezone)
	assert.NotEmpty(t, cfg.Sections)
	assert.True(t, cfg.DifferenceSet()["DGS10"])
	assert.False(t, cfg.DifferenceSet()["SP500"])
}

func TestLoad_FileOverridesSections(t *testing.T) {
	path := writeConfig(t, `
report:
  start: "2020-01-01"
  max_series_per_page: 3
sections:
  - title: Rates
    series:
      - id: FRED:DGS10
        name: 10Y
      - id: FRED:DGS2
        name: 2Y
  - title: Valuation
    kind: valuation
    series:
      - id: MULTPL:CAPE
        name: CAPE
difference_codes: [dgs10]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Len(t, cfg.Sections, 2)
	assert.Equal(t, "returns", cfg.Sections[0].Kind)
	assert.Equal(t, "FRED:DGS10", cfg.Sections[0].Series[0].ID)
	assert.Equal(t, "2Y", cfg.Sections[0].Series[1].Name)
	assert.Equal(t, "valuation", cfg.Sections[1].Kind)
	assert.Equal(t, 3, cfg.Report.MaxSeriesPerPage)
	assert.True(t, cfg.DifferenceSet()["DGS10"])

	start, err := cfg.StartDate()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), start)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FRED_API_KEY", "k")
	t.Setenv("OUTPUT_DIR", "/tmp/out")
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("SCHEDULE_INTERVAL", "5m")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "k", cfg.Providers.FRED.APIKey)
	assert.Equal(t, filepath.Join("/tmp/out", "index.html"), cfg.OutputPath(cfg.Report.HTMLFile))
	assert.True(t, cfg.Log.Pretty)
	d, err := cfg.ScheduleInterval()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, d)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "report: [unclosed")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad start", func(c *Config) { c.Report.Start = "01/01/2018" }},
		{"unknown renderer", func(c *Config) { c.Report.Renderers = []string{"docx"} }},
		{"unknown kind", func(c *Config) { c.Sections[0].Kind = "heatmap" }},
		{"bad id", func(c *Config) { c.Sections[0].Series[0].ID = "FRED:" }},
		{"missing name", func(c *Config) { c.Sections[0].Series[0].Name = "" }},
		{"half telegram", func(c *Config) { c.Telegram.BotToken = "t" }},
		{"bad interval", func(c *Config) { c.Schedule.Interval = "often" }},
		{"bad timezone", func(c *Config) { c.Schedule.Timezone = "Mars/Olympus" }},
		{"bad open", func(c *Config) { c.Schedule.Open = "6.30" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestOpenClose(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	open, closeMin, err := cfg.OpenClose()
	require.NoError(t, err)
	assert.Equal(t, 6*60+30, open)
	assert.Equal(t, 13*60, closeMin)
}
