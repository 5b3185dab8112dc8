package render

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/guregu/null/v5"
)

// NA marks an undefined value in every output.
const NA = "n/a"

// FormatReturn renders a horizon value: "+1.2%" for percentage returns,
// "+0.25" for differences.
func FormatReturn(v null.Float, diff bool) string {
	if !v.Valid {
		return NA
	}
	if diff {
		return fmt.Sprintf("%+.2f", v.Float64)
	}
	return fmt.Sprintf("%+.1f%%", v.Float64)
}

// FormatValue renders a level with thousands separators and two decimals.
func FormatValue(v null.Float) string {
	if !v.Valid {
		return NA
	}
	return humanize.FormatFloat("#,###.##", v.Float64)
}

// FormatDate renders a date, or NA for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return NA
	}
	return t.Format("2006-01-02")
}

// Class maps a value to the positive/negative/neutral CSS class.
func Class(v null.Float) string {
	switch {
	case !v.Valid || v.Float64 == 0:
		return "neutral"
	case v.Float64 > 0:
		return "positive"
	default:
		return "negative"
	}
}
