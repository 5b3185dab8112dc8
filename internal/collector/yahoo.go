package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"MacroMonitor/internal/model"
)

// Yahoo fetches daily closes from the Yahoo Finance chart API.
type Yahoo struct {
	http      *HTTP
	baseURL   string
	SymbolMap map[string]string // maps internal code to Yahoo ticker
}

// NewYahoo creates a Yahoo Finance provider.
func NewYahoo(h *HTTP, baseURL string) *Yahoo {
	return &Yahoo{
		http:      h,
		baseURL:   baseURL,
		SymbolMap: map[string]string{
			"SPX":   "^GSPC",
			"SP500": "^GSPC",
			"NDX":   "^NDX",
			"DJI":   "^DJI",
			"VIX":   "^VIX",
			"RUT":   "^RUT",
			"TNX":   "^TNX",
		},
	}
}

func (y *Yahoo) Name() string { return "yahoo" }

func (y *Yahoo) yahooSymbol(code string) string {
	if mapped, ok := y.SymbolMap[strings.ToUpper(code)]; ok {
		return mapped
	}
	return code
}

// yahooChart is the response structure from the chart API. Closes are
// pointers because holidays come back as null.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (y *Yahoo) Fetch(ctx context.Context, code string, start, end time.Time) (model.Series, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s", strings.TrimRight(y.baseURL, "/"), url.PathEscape(y.yahooSymbol(code)))
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(start.Unix(), 10))
	// period2 is exclusive; include the whole end day.
	q.Set("period2", strconv.FormatInt(end.AddDate(0, 0, 1).Unix(), 10))
	q.Set("interval", "1d")

	body, err := y.http.Get(ctx, u, q)
	if err != nil {
		return nil, fmt.Errorf("yahoo %s: %w", code, err)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo %s: decode: %w", code, err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo %s: api error: %s", code, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", code, ErrNoData)
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", code, ErrNoData)
	}
	closes := result.Indicators.Quote[0].Close

	s := make(model.Series, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		v := math.NaN()
		if i < len(closes) && closes[i] != nil {
			v = *closes[i]
		}
		s = append(s, model.Observation{Time: dayOf(time.Unix(ts, 0)), Value: v})
	}
	return s, nil
}
