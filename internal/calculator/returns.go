package calculator

import (
	"math"
	"strings"
	"time"

	"github.com/guregu/null/v5"

	"MacroMonitor/internal/model"
)

// Horizon is a named lookback window. Boundary derives the comparison date
// from the end date.
type Horizon struct {
	Label    string
	Boundary func(end time.Time) time.Time
}

func startOfYear(end time.Time) time.Time {
	return time.Date(end.Year(), time.January, 1, 0, 0, 0, 0, end.Location())
}

func daysBefore(n int) func(time.Time) time.Time {
	return func(end time.Time) time.Time { return end.AddDate(0, 0, -n) }
}

// Horizons is the fixed horizon set, in display order.
var Horizons = []Horizon{
	{Label: "YTD", Boundary: startOfYear},
	{Label: "1M", Boundary: daysBefore(30)},
	{Label: "3M", Boundary: daysBefore(90)},
	{Label: "1Y", Boundary: daysBefore(365)},
	{Label: "3Y", Boundary: daysBefore(3 * 365)},
	{Label: "5Y", Boundary: daysBefore(5 * 365)},
	{Label: "10Y", Boundary: daysBefore(10 * 365)},
}

// HorizonLabels returns the horizon labels in order.
func HorizonLabels() []string {
	labels := make([]string, len(Horizons))
	for i, h := range Horizons {
		labels[i] = h.Label
	}
	return labels
}

// CurrentValue is the latest observation at or before end.
func CurrentValue(s model.Series, end time.Time) null.Float {
	obs, ok := s.AtOrBefore(end)
	if !ok {
		return null.Float{}
	}
	return null.FloatFrom(obs.Value)
}

// ComputeReturns computes the change from each horizon boundary to end.
// diff selects absolute differences instead of percentage returns.
func ComputeReturns(s model.Series, end time.Time, diff bool) []model.HorizonReturn {
	current := CurrentValue(s, end)
	out := make([]model.HorizonReturn, len(Horizons))
	for i, h := range Horizons {
		base := CurrentValue(s, h.Boundary(end))
		v := PctReturn(current, base)
		if diff {
			v = DiffReturn(current, base)
		}
		out[i] = model.HorizonReturn{Label: h.Label, Value: v}
	}
	return out
}

// PctReturn is (current/base - 1) * 100, undefined for a zero base.
func PctReturn(current, base null.Float) null.Float {
	if !current.Valid || !base.Valid || base.Float64 == 0 {
		return null.Float{}
	}
	return finite((current.Float64/base.Float64 - 1.0) * 100.0)
}

// DiffReturn is current - base.
func DiffReturn(current, base null.Float) null.Float {
	if !current.Valid || !base.Valid {
		return null.Float{}
	}
	return finite(current.Float64 - base.Float64)
}

// UsesDifference reports whether the series is a level/yield series.
func UsesDifference(id model.SeriesID, differenceCodes map[string]bool) bool {
	return differenceCodes[strings.ToUpper(id.Code)]
}

func finite(v float64) null.Float {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return null.Float{}
	}
	return null.FloatFrom(v)
}
