package calculator

import (
	"github.com/guregu/null/v5"

	"MacroMonitor/internal/model"
)

// Normalize rescales s so the first value is 100. If the first value is zero
// or not finite every point is undefined.
func Normalize(s model.Series) []model.Point {
	out := make([]model.Point, len(s))
	first, ok := s.First()
	base := null.Float{}
	if ok && first.Value != 0 {
		base = finite(first.Value)
	}
	for i, o := range s {
		out[i].Time = o.Time
		if base.Valid {
			out[i].Value = finite(o.Value / base.Float64 * 100.0)
		}
	}
	return out
}

// Points lifts a series into chart points.
func Points(s model.Series) []model.Point {
	out := make([]model.Point, len(s))
	for i, o := range s {
		out[i] = model.Point{Time: o.Time, Value: finite(o.Value)}
	}
	return out
}
