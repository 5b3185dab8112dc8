package render

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"os"
	"time"

	"github.com/rs/zerolog"

	"MacroMonitor/internal/model"
)

//go:embed templates/index.html.tmpl
var indexTemplate string

var pageTmpl = template.Must(template.New("index").Parse(indexTemplate))

// RefreshSeconds is the dashboard's meta refresh interval.
const RefreshSeconds = 300

type htmlCell struct {
	Text  string
	Class string
}

type htmlRow struct {
	Name       string
	Available  bool
	Current    string
	Cells      []htmlCell
	Trend      template.URL
	Normalized template.URL
}

type htmlValuation struct {
	Name      string
	Available bool
	Current   string
	Median    string
	Premium   htmlCell
	Sigma     string
	Trend     template.URL
}

type htmlSection struct {
	Title      string
	Valuation  bool
	Rows       []htmlRow
	Valuations []htmlValuation
}

type htmlPage struct {
	Updated        string
	Horizons       []string
	Colspan        int
	Total          int
	Fetched        int
	Failed         int
	Sections       []htmlSection
	PDFFile        string
	ExcelFile      string
	Refresh        int
	RefreshMinutes int
}

// HTML writes the self-contained dashboard page.
type HTML struct {
	Path      string
	PDFFile   string // link target, empty hides the button
	ExcelFile string
	Trend     time.Duration // sparkline lookback
	log       zerolog.Logger
}

// NewHTML creates the dashboard renderer.
func NewHTML(path, pdfFile, excelFile string, trend time.Duration, log zerolog.Logger) *HTML {
	return &HTML{
		Path:      path,
		PDFFile:   pdfFile,
		ExcelFile: excelFile,
		Trend:     trend,
		log:       log.With().Str("renderer", "html").Logger(),
	}
}

func (h *HTML) Name() string   { return "html" }
func (h *HTML) Output() string { return h.Path }

func (h *HTML) Render(_ context.Context, r *model.Report) error {
	page := h.page(r)

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, page); err != nil {
		return fmt.Errorf("execute template: %w", err)
	}
	if err := os.WriteFile(h.Path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write %s: %w", h.Path, err)
	}
	h.log.Info().Str("path", h.Path).Msg("dashboard written")
	return nil
}

func (h *HTML) page(r *model.Report) htmlPage {
	page := htmlPage{
		Updated:        r.GeneratedAt.Format("January 02, 2006 at 03:04 PM MST"),
		Horizons:       r.Horizons,
		Colspan:        len(r.Horizons) + 3,
		Total:          r.Total,
		Fetched:        r.Fetched,
		Failed:         r.Failed(),
		PDFFile:        h.PDFFile,
		ExcelFile:      h.ExcelFile,
		Refresh:        RefreshSeconds,
		RefreshMinutes: RefreshSeconds / 60,
	}

	for _, sec := range r.Sections {
		hs := htmlSection{Title: sec.Title, Valuation: sec.Kind == model.SectionValuation}
		charts := chartsByID(sec.Charts)

		for _, row := range sec.Rows {
			hr := htmlRow{Name: row.Name, Available: row.Available}
			if row.Available {
				hr.Current = FormatValue(row.Current)
				for _, label := range r.Horizons {
					v := row.Return(label)
					hr.Cells = append(hr.Cells, htmlCell{Text: FormatReturn(v, row.Difference), Class: Class(v)})
				}
				if c, ok := charts[row.ID]; ok {
					trend := c.Window.Since(h.Trend)
					hr.Trend = h.dataURI(row.ID, trend, false)
					hr.Normalized = h.dataURI(row.ID, trend, true)
				}
			}
			hs.Rows = append(hs.Rows, hr)
		}

		for _, v := range sec.Valuations {
			hv := htmlValuation{Name: v.Name, Available: v.Available}
			if v.Available {
				hv.Current = FormatValue(v.Current)
				hv.Median = FormatValue(v.LongRunMedian)
				hv.Premium = htmlCell{Text: FormatReturn(v.DiscountPremium, false), Class: Class(v.DiscountPremium)}
				hv.Sigma = FormatValue(v.Sigma)
				if c, ok := charts[v.ID]; ok {
					hv.Trend = h.dataURI(v.ID, c.Window.Since(h.Trend), false)
				}
			}
			hs.Valuations = append(hs.Valuations, hv)
		}
		page.Sections = append(page.Sections, hs)
	}
	return page
}

// dataURI renders a sparkline as an inline PNG. A chart failure leaves the
// cell empty.
func (h *HTML) dataURI(id model.SeriesID, s model.Series, normalized bool) template.URL {
	img, err := Sparkline(s, normalized)
	if err != nil {
		if !errors.Is(err, ErrNoPoints) {
			h.log.Warn().Err(err).Str("series", id.String()).Msg("sparkline failed")
		}
		return ""
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(img))
}

func chartsByID(charts []model.ChartData) map[model.SeriesID]model.ChartData {
	m := make(map[model.SeriesID]model.ChartData, len(charts))
	for _, c := range charts {
		m[c.ID] = c
	}
	return m
}
