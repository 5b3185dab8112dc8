package render

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"MacroMonitor/internal/config"
	"MacroMonitor/internal/report"
)

// FromConfig builds the configured renderers in order and makes sure the
// output directory exists.
func FromConfig(cfg *config.Config, log zerolog.Logger) ([]report.Renderer, error) {
	if err := os.MkdirAll(cfg.Report.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	enabled := make(map[string]bool, len(cfg.Report.Renderers))
	for _, name := range cfg.Report.Renderers {
		enabled[name] = true
	}
	link := func(name, file string) string {
		if enabled[name] {
			return file
		}
		return ""
	}

	var out []report.Renderer
	for _, name := range cfg.Report.Renderers {
		switch name {
		case "html":
			out = append(out, NewHTML(cfg.OutputPath(cfg.Report.HTMLFile),
				link("pdf", cfg.Report.PDFFile), link("excel", cfg.Report.ExcelFile),
				cfg.TrendWindow(), log))
		case "json":
			out = append(out, NewJSON(cfg.OutputPath(cfg.Report.JSONFile), log))
		case "pdf":
			out = append(out, NewPDF(cfg.OutputPath(cfg.Report.PDFFile), cfg.Report.MaxSeriesPerPage, log))
		case "excel":
			out = append(out, NewExcel(cfg.OutputPath(cfg.Report.ExcelFile), log))
		default:
			return nil, fmt.Errorf("unknown renderer %q", name)
		}
	}
	return out, nil
}
