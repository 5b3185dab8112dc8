package calculator

import (
	"MacroMonitor/internal/model"
)

// Extremes scans s and returns its lowest and highest observations.
func Extremes(s model.Series) (low, high model.Observation, ok bool) {
	if len(s) == 0 {
		return model.Observation{}, model.Observation{}, false
	}
	low, high = s[0], s[0]
	for _, o := range s[1:] {
		if o.Value > high.Value {
			high = o
		}
		if o.Value < low.Value {
			low = o
		}
	}
	return low, high, true
}
