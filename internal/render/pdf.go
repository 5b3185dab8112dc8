package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/rs/zerolog"
	"gonum.org/v1/plot/vg"

	"MacroMonitor/internal/calculator"
	"MacroMonitor/internal/model"
)

const (
	pageW      = 297.0 // A4 landscape, mm
	pageH      = 210.0
	margin     = 10.0
	headerH    = 14.0
	rowH       = 7.0
	nameColW   = 60.0
	currColW   = 30.0
	chartGap   = 6.0
	chartTitle = 6.0
)

// PDF writes the multi-page chart report: per section a summary table,
// then each series as a normalized price panel beside a valuation panel.
type PDF struct {
	Path       string
	PerPage    int
	log        zerolog.Logger
	imageCount int
}

// NewPDF creates the PDF renderer. perPage bounds the series per chart page.
func NewPDF(path string, perPage int, log zerolog.Logger) *PDF {
	if perPage <= 0 {
		perPage = 2
	}
	return &PDF{Path: path, PerPage: perPage, log: log.With().Str("renderer", "pdf").Logger()}
}

func (p *PDF) Name() string   { return "pdf" }
func (p *PDF) Output() string { return p.Path }

func (p *PDF) Render(ctx context.Context, r *model.Report) error {
	doc := fpdf.New("L", "mm", "A4", "")
	doc.SetMargins(margin, margin, margin)
	doc.SetAutoPageBreak(false, margin)
	doc.SetTitle("Macro Monitor", true)
	tr := doc.UnicodeTranslatorFromDescriptor("")
	p.imageCount = 0

	for _, sec := range r.Sections {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.summaryPage(doc, tr, r, sec)

		var drawable []model.ChartData
		for _, c := range sec.Charts {
			if !c.Window.Empty() {
				drawable = append(drawable, c)
			}
		}
		for i := 0; i < len(drawable); i += p.PerPage {
			end := min(i+p.PerPage, len(drawable))
			p.chartPage(doc, tr, sec.Title, drawable[i:end])
		}
	}

	if len(r.Sections) == 0 {
		doc.AddPage()
		p.header(doc, tr, "Macro Monitor", r)
		p.noData(doc, "No data available")
	}

	if err := doc.OutputFileAndClose(p.Path); err != nil {
		return fmt.Errorf("write %s: %w", p.Path, err)
	}
	p.log.Info().Str("path", p.Path).Int("pages", doc.PageNo()).Msg("pdf written")
	return nil
}

func (p *PDF) header(doc *fpdf.Fpdf, tr func(string) string, title string, r *model.Report) {
	doc.SetFillColor(26, 31, 58)
	doc.Rect(0, 0, pageW, headerH+margin/2, "F")
	doc.SetTextColor(241, 250, 238)
	doc.SetFont("Helvetica", "B", 14)
	doc.SetXY(margin, margin/2)
	doc.CellFormat(pageW-2*margin-60, headerH, tr(title), "", 0, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 9)
	doc.CellFormat(60, headerH, fmt.Sprintf("%s to %s", FormatDate(r.Start), FormatDate(r.End)), "", 0, "R", false, 0, "")
	doc.SetTextColor(0, 0, 0)
	doc.SetY(headerH + margin)
}

func (p *PDF) noData(doc *fpdf.Fpdf, msg string) {
	doc.SetFont("Helvetica", "I", 11)
	doc.SetTextColor(107, 122, 161)
	doc.CellFormat(pageW-2*margin, 20, msg, "", 1, "C", false, 0, "")
	doc.SetTextColor(0, 0, 0)
}

func (p *PDF) summaryPage(doc *fpdf.Fpdf, tr func(string) string, r *model.Report, sec model.SectionReport) {
	doc.AddPage()
	p.header(doc, tr, sec.Title, r)

	if sec.Empty() {
		p.noData(doc, "No data available")
		return
	}

	var head []string
	var widths []float64
	if sec.Kind == model.SectionValuation {
		head = []string{"Series", "Current", "Long-run Median", "Discount/Premium", "Sigma"}
		widths = []float64{nameColW, currColW, 40, 40, 30}
	} else {
		head = append([]string{"Series", "Current"}, r.Horizons...)
		widths = []float64{nameColW, currColW}
		hw := (pageW - 2*margin - nameColW - currColW) / float64(len(r.Horizons))
		for range r.Horizons {
			widths = append(widths, hw)
		}
	}

	doc.SetFont("Helvetica", "B", 9)
	doc.SetFillColor(42, 52, 80)
	doc.SetTextColor(184, 212, 227)
	for i, h := range head {
		doc.CellFormat(widths[i], rowH, h, "", 0, "C", true, 0, "")
	}
	doc.Ln(rowH)
	doc.SetTextColor(0, 0, 0)
	doc.SetFont("Helvetica", "", 9)

	cell := func(w float64, text string, align string) {
		doc.CellFormat(w, rowH, tr(text), "B", 0, align, false, 0, "")
	}
	if sec.Kind == model.SectionValuation {
		for _, v := range sec.Valuations {
			cell(widths[0], v.Name, "L")
			if !v.Available {
				cell(pageW-2*margin-widths[0], "No data available", "C")
				doc.Ln(rowH)
				continue
			}
			cell(widths[1], FormatValue(v.Current), "R")
			cell(widths[2], FormatValue(v.LongRunMedian), "R")
			cell(widths[3], FormatReturn(v.DiscountPremium, false), "R")
			cell(widths[4], FormatValue(v.Sigma), "R")
			doc.Ln(rowH)
		}
		return
	}
	for _, row := range sec.Rows {
		cell(widths[0], row.Name, "L")
		if !row.Available {
			cell(pageW-2*margin-widths[0], "No data available", "C")
			doc.Ln(rowH)
			continue
		}
		cell(widths[1], FormatValue(row.Current), "R")
		for i, label := range r.Horizons {
			cell(widths[2+i], FormatReturn(row.Return(label), row.Difference), "R")
		}
		doc.Ln(rowH)
	}
}

func (p *PDF) chartPage(doc *fpdf.Fpdf, tr func(string) string, title string, charts []model.ChartData) {
	doc.AddPage()
	doc.SetFillColor(26, 31, 58)
	doc.Rect(0, 0, pageW, headerH, "F")
	doc.SetTextColor(241, 250, 238)
	doc.SetFont("Helvetica", "B", 12)
	doc.SetXY(margin, 2)
	doc.CellFormat(pageW-2*margin, headerH-4, tr(title), "", 0, "L", false, 0, "")
	doc.SetTextColor(0, 0, 0)

	top := headerH + 4
	slotH := (pageH - top - margin) / float64(p.PerPage)
	panelW := (pageW - 2*margin - chartGap) / 2
	panelH := slotH - chartTitle - 2

	for i, c := range charts {
		y := top + float64(i)*slotH
		doc.SetFont("Helvetica", "B", 10)
		doc.SetXY(margin, y)
		doc.CellFormat(pageW-2*margin, chartTitle, tr(fmt.Sprintf("%s (%s)", c.Name, c.ID)), "", 0, "L", false, 0, "")

		price, err := LineChart("Normalized (start = 100)", calculator.Normalize(c.Window), mm(panelW), mm(panelH))
		p.place(doc, c.ID, price, err, margin, y+chartTitle, panelW, panelH)

		ratio := calculator.ValuationRatio(c.Window, c.Median)
		val, err := ValuationChart("Valuation ratio vs long-run median", ratio, c.Sigma, mm(panelW), mm(panelH))
		p.place(doc, c.ID, val, err, margin+panelW+chartGap, y+chartTitle, panelW, panelH)
	}
}

// place draws a PNG panel, or a placeholder when the chart could not be
// produced.
func (p *PDF) place(doc *fpdf.Fpdf, id model.SeriesID, img []byte, err error, x, y, w, h float64) {
	if err != nil {
		if !errors.Is(err, ErrNoPoints) {
			p.log.Warn().Err(err).Str("series", id.String()).Msg("chart failed")
		}
		doc.SetXY(x, y)
		doc.SetFont("Helvetica", "I", 9)
		doc.CellFormat(w, h, "No data available", "1", 0, "C", false, 0, "")
		return
	}
	p.imageCount++
	name := fmt.Sprintf("chart-%d", p.imageCount)
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(img))
	doc.ImageOptions(name, x, y, w, h, false, opts, 0, "")
}

func mm(v float64) vg.Length {
	return vg.Length(v) * vg.Millimeter
}
