package scheduler

import (
	"slices"
	"time"
)

// MarketHours is a daily trading window on a set of weekdays. Both bounds
// are inclusive and measured from local midnight.
type MarketHours struct {
	Location *time.Location
	Weekdays []time.Weekday
	Open     time.Duration
	Close    time.Duration
}

// DefaultMarketHours is Monday to Friday, 06:30 to 13:00 Pacific.
func DefaultMarketHours() MarketHours {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		loc = time.UTC
	}
	return MarketHours{
		Location: loc,
		Weekdays: []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		Open:     6*time.Hour + 30*time.Minute,
		Close:    13 * time.Hour,
	}
}

// NewMarketHours builds a weekday window from minutes after midnight.
func NewMarketHours(loc *time.Location, openMin, closeMin int) MarketHours {
	h := DefaultMarketHours()
	h.Location = loc
	h.Open = time.Duration(openMin) * time.Minute
	h.Close = time.Duration(closeMin) * time.Minute
	return h
}

// Contains reports whether t falls inside the window, after converting t
// into the window's location.
func (h MarketHours) Contains(t time.Time) bool {
	if h.Location != nil {
		t = t.In(h.Location)
	}
	if !h.tradingDay(t.Weekday()) {
		return false
	}
	// wall clock, not elapsed time, so DST days keep the same window
	sinceMidnight := time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
	return sinceMidnight >= h.Open && sinceMidnight <= h.Close
}

func (h MarketHours) tradingDay(d time.Weekday) bool {
	return slices.Contains(h.Weekdays, d)
}
