package calculator

import (
	"math"
	"sort"

	"github.com/guregu/null/v5"
	"gonum.org/v1/gonum/stat"

	"MacroMonitor/internal/model"
)

// Median returns the median of the finite values, averaging the two middle
// values for an even count.
func Median(values []float64) null.Float {
	xs := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			xs = append(xs, v)
		}
	}
	if len(xs) == 0 {
		return null.Float{}
	}
	sort.Float64s(xs)
	n := len(xs)
	if n%2 == 1 {
		return null.FloatFrom(xs[n/2])
	}
	return null.FloatFrom((xs[n/2-1] + xs[n/2]) / 2)
}

// ValuationRatio divides s by median. A zero or undefined median yields an
// all-undefined ratio.
func ValuationRatio(s model.Series, median null.Float) []model.Point {
	out := make([]model.Point, len(s))
	for i, o := range s {
		out[i].Time = o.Time
		if median.Valid && median.Float64 != 0 {
			out[i].Value = finite(o.Value / median.Float64)
		}
	}
	return out
}

// ValuationStats returns the long-run median of s and the sample standard
// deviation of s relative to that median.
func ValuationStats(s model.Series) (median, sigma null.Float) {
	median = Median(s.Values())
	if !median.Valid || median.Float64 == 0 {
		return median, null.Float{}
	}
	ratios := make([]float64, 0, len(s))
	for _, p := range ValuationRatio(s, median) {
		if p.Value.Valid {
			ratios = append(ratios, p.Value.Float64)
		}
	}
	if len(ratios) < 2 {
		return median, null.Float{}
	}
	return median, finite(stat.StdDev(ratios, nil))
}

// DiscountPremium is the percentage by which current sits above the median.
func DiscountPremium(current, median null.Float) null.Float {
	return PctReturn(current, median)
}
