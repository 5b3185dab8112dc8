package collector

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"MacroMonitor/internal/model"
)

// Stooq fetches daily closes from the stooq.com CSV endpoint.
type Stooq struct {
	http    *HTTP
	baseURL string
}

// NewStooq creates a Stooq provider.
func NewStooq(h *HTTP, baseURL string) *Stooq {
	return &Stooq{http: h, baseURL: baseURL}
}

func (s *Stooq) Name() string { return "stooq" }

type stooqRow struct {
	Date  string `csv:"Date"`
	Close string `csv:"Close"`
}

// stooqSymbol maps a bare US ticker to stooq's "<ticker>.us" form.
func stooqSymbol(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if strings.Contains(code, ".") || strings.HasPrefix(code, "^") {
		return code
	}
	return code + ".us"
}

func (s *Stooq) Fetch(ctx context.Context, code string, start, end time.Time) (model.Series, error) {
	q := url.Values{}
	q.Set("s", stooqSymbol(code))
	q.Set("d1", start.Format("20060102"))
	q.Set("d2", end.Format("20060102"))
	q.Set("i", "d")

	body, err := s.http.Get(ctx, strings.TrimRight(s.baseURL, "/")+"/q/d/l/", q)
	if err != nil {
		return nil, fmt.Errorf("stooq %s: %w", code, err)
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.HasPrefix(bytes.ToLower(trimmed), []byte("no data")) {
		return nil, fmt.Errorf("stooq %s: %w", code, ErrNoData)
	}

	var rows []*stooqRow
	if err := gocsv.UnmarshalBytes(trimmed, &rows); err != nil {
		return nil, fmt.Errorf("stooq %s: parse csv: %w", code, err)
	}

	series := make(model.Series, 0, len(rows))
	for _, r := range rows {
		t, err := parseDate(r.Date)
		if err != nil {
			continue
		}
		series = append(series, model.Observation{Time: t, Value: parseValue(r.Close)})
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("stooq %s: %w", code, ErrNoData)
	}
	return series, nil
}
