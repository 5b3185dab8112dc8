package collector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"MacroMonitor/internal/model"
)

var (
	// ErrUnknownSource is returned for an identifier whose source tag has no
	// registered provider.
	ErrUnknownSource = errors.New("unknown series source")
	// ErrNoData is returned when a provider answered but had no observations.
	ErrNoData = errors.New("no data")
)

// Provider fetches raw observations for one source. Returned series may be
// unsorted, contain duplicates, and carry NaN for absent values; the
// collector normalizes them.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, code string, start, end time.Time) (model.Series, error)
}

var dateLayouts = []string{
	"2006-01-02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-01",
	"2006.01",
	"1/2/2006",
}

// parseDate accepts the date formats seen across providers and returns a
// UTC midnight.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// parseValue parses a numeric cell. Empty cells, "." and unparseable text
// are absent and come back as NaN.
func parseValue(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" || s == "." {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
