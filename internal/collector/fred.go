package collector

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gocarina/gocsv"

	"MacroMonitor/internal/model"
)

// FRED fetches Federal Reserve economic data. With an API key it uses the
// observations JSON API; without one it downloads the public graph CSV.
type FRED struct {
	http     *HTTP
	apiKey   string
	baseURL  string
	graphURL string
}

// NewFRED creates a FRED provider.
func NewFRED(h *HTTP, apiKey, baseURL, graphURL string) *FRED {
	return &FRED{http: h, apiKey: apiKey, baseURL: baseURL, graphURL: graphURL}
}

func (f *FRED) Name() string { return "fred" }

type fredResponse struct {
	ObservationStart string            `json:"observation_start"`
	ObservationEnd   string            `json:"observation_end"`
	Count            int               `json:"count"`
	Observations     []fredObservation `json:"observations"`
}

type fredObservation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

func (f *FRED) Fetch(ctx context.Context, code string, start, end time.Time) (model.Series, error) {
	if f.apiKey != "" {
		return f.fetchJSON(ctx, code, start, end)
	}
	return f.fetchCSV(ctx, code, start, end)
}

func (f *FRED) fetchJSON(ctx context.Context, code string, start, end time.Time) (model.Series, error) {
	req, err := f.http.request(ctx)
	if err != nil {
		return nil, err
	}

	var result fredResponse
	endpoint := f.baseURL + "/series/observations"
	resp, err := req.
		SetQueryParams(map[string]string{
			"series_id":         code,
			"api_key":           f.apiKey,
			"file_type":         "json",
			"observation_start": start.Format("2006-01-02"),
			"observation_end":   end.Format("2006-01-02"),
		}).
		SetResult(&result).
		Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("fred %s: %w", code, err)
	}
	if resp.StatusCode() >= http.StatusMultipleChoices {
		return nil, &StatusError{StatusCode: resp.StatusCode(), URL: endpoint, Body: string(resp.Body())}
	}

	s := make(model.Series, 0, len(result.Observations))
	for _, obs := range result.Observations {
		t, err := parseDate(obs.Date)
		if err != nil {
			continue
		}
		s = append(s, model.Observation{Time: t, Value: parseValue(obs.Value)})
	}
	if len(s) == 0 {
		return nil, fmt.Errorf("fred %s: %w", code, ErrNoData)
	}
	return s, nil
}

func (f *FRED) fetchCSV(ctx context.Context, code string, start, end time.Time) (model.Series, error) {
	q := url.Values{}
	q.Set("id", code)
	q.Set("cosd", start.Format("2006-01-02"))
	q.Set("coed", end.Format("2006-01-02"))

	body, err := f.http.Get(ctx, f.graphURL, q)
	if err != nil {
		return nil, fmt.Errorf("fred %s: %w", code, err)
	}

	rows, err := gocsv.CSVToMaps(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("fred %s: parse csv: %w", code, err)
	}

	s := make(model.Series, 0, len(rows))
	for _, row := range rows {
		date, ok := row["observation_date"]
		if !ok {
			date, ok = row["DATE"]
		}
		if !ok {
			return nil, fmt.Errorf("fred %s: csv has no date column", code)
		}
		t, err := parseDate(date)
		if err != nil {
			continue
		}
		s = append(s, model.Observation{Time: t, Value: parseValue(valueColumn(row, code))})
	}
	if len(s) == 0 {
		return nil, fmt.Errorf("fred %s: %w", code, ErrNoData)
	}
	return s, nil
}

// valueColumn picks the series column: the code itself, else the only
// non-date column.
func valueColumn(row map[string]string, code string) string {
	if v, ok := row[code]; ok {
		return v
	}
	for k, v := range row {
		if k != "DATE" && k != "observation_date" {
			return v
		}
	}
	return ""
}
