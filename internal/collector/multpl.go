package collector

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog"

	"MacroMonitor/internal/model"
)

// Multpl serves the Shiller CAPE ratio. It scrapes the monthly table from
// multpl.com and falls back to a local CSV with Date and PE10 columns when
// the scrape fails.
type Multpl struct {
	http        *HTTP
	url         string
	fallbackCSV string
	log         zerolog.Logger
}

// NewMultpl creates a CAPE provider.
func NewMultpl(h *HTTP, pageURL, fallbackCSV string, log zerolog.Logger) *Multpl {
	return &Multpl{
		http:        h,
		url:         pageURL,
		fallbackCSV: fallbackCSV,
		log:         log.With().Str("component", "multpl").Logger(),
	}
}

func (m *Multpl) Name() string { return "multpl" }

type capeRow struct {
	Date string `csv:"Date"`
	PE10 string `csv:"PE10"`
}

// Fetch returns the full monthly history; the window is applied by the
// collector.
func (m *Multpl) Fetch(ctx context.Context, code string, _, _ time.Time) (model.Series, error) {
	if !strings.EqualFold(code, "CAPE") {
		return nil, fmt.Errorf("multpl: unsupported code %q", code)
	}

	s, err := m.scrape(ctx)
	if err == nil && len(s) > 0 {
		return s, nil
	}
	m.log.Warn().Err(err).Str("fallback", m.fallbackCSV).Msg("CAPE scrape failed, using local CSV")

	s, csvErr := m.loadCSV()
	if csvErr != nil {
		return nil, fmt.Errorf("multpl: scrape: %v; fallback: %w", err, csvErr)
	}
	return s, nil
}

func (m *Multpl) scrape(ctx context.Context) (model.Series, error) {
	body, err := m.http.Get(ctx, m.url, nil)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var s model.Series
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		t, err := parseDate(cells.Eq(0).Text())
		if err != nil {
			return
		}
		s = append(s, model.Observation{Time: t, Value: zeroAbsent(parseValue(numericText(cells.Eq(1).Text())))})
	})
	if len(s) == 0 {
		return nil, ErrNoData
	}
	return s, nil
}

func (m *Multpl) loadCSV() (model.Series, error) {
	data, err := os.ReadFile(m.fallbackCSV)
	if err != nil {
		return nil, err
	}
	var rows []*capeRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, fmt.Errorf("parse %s: %w", m.fallbackCSV, err)
	}
	s := make(model.Series, 0, len(rows))
	for _, r := range rows {
		t, err := parseDate(r.Date)
		if err != nil {
			continue
		}
		s = append(s, model.Observation{Time: t, Value: zeroAbsent(parseValue(r.PE10))})
	}
	if len(s) == 0 {
		return nil, ErrNoData
	}
	return s, nil
}

// numericText keeps the characters of a number, dropping labels such as
// "estimate" and non-breaking spaces that the table cells carry.
func numericText(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func zeroAbsent(v float64) float64 {
	if v == 0 {
		return math.NaN()
	}
	return v
}
