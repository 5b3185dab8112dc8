package model

import (
	"time"

	"github.com/guregu/null/v5"
)

// SectionKind selects how a section is summarized.
type SectionKind string

const (
	SectionReturns   SectionKind = "returns"
	SectionValuation SectionKind = "valuation"
)

// HorizonReturn is the change over one horizon; Value is undefined when
// history is insufficient or the denominator is zero.
type HorizonReturn struct {
	Label string
	Value null.Float
}

// Point is a chart sample whose value may be undefined.
type Point struct {
	Time  time.Time
	Value null.Float
}

// SeriesRow is one line of a returns table.
type SeriesRow struct {
	ID         SeriesID
	Name       string
	Available  bool
	Current    null.Float
	LastDate   time.Time
	Difference bool
	Returns    []HorizonReturn
}

// Return looks up a horizon by label.
func (r *SeriesRow) Return(label string) null.Float {
	for _, h := range r.Returns {
		if h.Label == label {
			return h.Value
		}
	}
	return null.Float{}
}

// ValuationRow summarizes a valuation ratio against its long-run median.
type ValuationRow struct {
	ID              SeriesID
	Name            string
	Available       bool
	Current         null.Float
	LastDate        time.Time
	LongRunMedian   null.Float
	DiscountPremium null.Float
	Sigma           null.Float
}

// ChartData carries what the renderers need to draw a series.
type ChartData struct {
	ID      SeriesID
	Name    string
	Window  Series // report window
	History Series // full history, valuation sections only
	Median  null.Float
	Sigma   null.Float
}

// SectionReport is one rendered section.
type SectionReport struct {
	Title      string
	Kind       SectionKind
	Rows       []SeriesRow
	Valuations []ValuationRow
	Charts     []ChartData
}

// Empty reports whether no series of the section returned data.
func (s *SectionReport) Empty() bool {
	for _, r := range s.Rows {
		if r.Available {
			return false
		}
	}
	for _, v := range s.Valuations {
		if v.Available {
			return false
		}
	}
	return true
}

// Report is the full output of one pipeline run.
type Report struct {
	RunID       string
	GeneratedAt time.Time
	Start       time.Time
	End         time.Time
	Horizons    []string
	Sections    []SectionReport
	Total       int
	Fetched     int
	FailedIDs   []string
}

// Failed is the number of identifiers that produced no data.
func (r *Report) Failed() int { return len(r.FailedIDs) }

// RunSummary is the outcome of a pipeline run, recorded and notified.
type RunSummary struct {
	RunID          string
	StartedAt      time.Time
	Duration       time.Duration
	Total          int
	Fetched        int
	FailedIDs      []string
	Outputs        []string // files written
	RendererErrors []string
}
