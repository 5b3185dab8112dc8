package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Source tags understood by the collector.
const (
	SourceFRED   = "FRED"
	SourceStooq  = "STQ"
	SourceYahoo  = "YF"
	SourceMultpl = "MULTPL"
	SourceMock   = "MOCK"
)

// SeriesID identifies a series as (source tag, source-specific code).
type SeriesID struct {
	Source string
	Code   string
}

// ParseSeriesID parses "SOURCE:CODE". A bare code resolves to FRED.
func ParseSeriesID(s string) (SeriesID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return SeriesID{}, fmt.Errorf("empty series identifier")
	}
	src, code, found := strings.Cut(s, ":")
	if !found {
		return SeriesID{Source: SourceFRED, Code: s}, nil
	}
	src = strings.ToUpper(strings.TrimSpace(src))
	code = strings.TrimSpace(code)
	if src == "" || code == "" {
		return SeriesID{}, fmt.Errorf("malformed series identifier %q", s)
	}
	return SeriesID{Source: src, Code: code}, nil
}

func (id SeriesID) String() string {
	return id.Source + ":" + id.Code
}

// Observation is a single dated sample.
type Observation struct {
	Time  time.Time
	Value float64
}

// Series is an ordered observation sequence: strictly increasing timestamps,
// no duplicates, no absent values.
type Series []Observation

func (s Series) Empty() bool { return len(s) == 0 }

// First returns the earliest observation.
func (s Series) First() (Observation, bool) {
	if len(s) == 0 {
		return Observation{}, false
	}
	return s[0], true
}

// Last returns the latest observation.
func (s Series) Last() (Observation, bool) {
	if len(s) == 0 {
		return Observation{}, false
	}
	return s[len(s)-1], true
}

// AtOrBefore returns the latest observation with timestamp <= t.
func (s Series) AtOrBefore(t time.Time) (Observation, bool) {
	i := sort.Search(len(s), func(i int) bool { return s[i].Time.After(t) })
	if i == 0 {
		return Observation{}, false
	}
	return s[i-1], true
}

// Window returns the sub-sequence with start <= time <= end. A zero start or
// end leaves that side open. The result shares the backing array.
func (s Series) Window(start, end time.Time) Series {
	lo := 0
	if !start.IsZero() {
		lo = sort.Search(len(s), func(i int) bool { return !s[i].Time.Before(start) })
	}
	hi := len(s)
	if !end.IsZero() {
		hi = sort.Search(len(s), func(i int) bool { return s[i].Time.After(end) })
	}
	if lo >= hi {
		return nil
	}
	return s[lo:hi]
}

// Since returns observations within d of the last observation.
func (s Series) Since(d time.Duration) Series {
	last, ok := s.Last()
	if !ok {
		return nil
	}
	return s.Window(last.Time.Add(-d), time.Time{})
}

// Values returns the observation values in order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, o := range s {
		out[i] = o.Value
	}
	return out
}
