package recorder

import (
	"time"

	"github.com/guregu/null/v5"

	"MacroMonitor/internal/model"
)

// RunRecord is one report run.
type RunRecord struct {
	RunID          string
	StartedAt      time.Time
	Duration       time.Duration
	Total          int
	Fetched        int
	FailedIDs      []string
	Outputs        []string
	RendererErrors []string
}

// Snapshot is the headline state of one series in one run. Raw observations
// are not stored.
type Snapshot struct {
	RunID    string
	Section  string
	SeriesID string
	Name     string
	LastDate time.Time
	Current  null.Float
	Returns  map[string]null.Float // horizon label -> value

	// valuation sections only
	Median          null.Float
	DiscountPremium null.Float
	Sigma           null.Float
}

// Recorder persists run history for later analysis.
type Recorder interface {
	RecordRun(rec *RunRecord) error
	RecordSnapshots(snaps []Snapshot) error
	LastRun() (*RunRecord, error)
	Close() error
}

// RunRecordFromSummary converts a pipeline summary.
func RunRecordFromSummary(s *model.RunSummary) *RunRecord {
	return &RunRecord{
		RunID:          s.RunID,
		StartedAt:      s.StartedAt,
		Duration:       s.Duration,
		Total:          s.Total,
		Fetched:        s.Fetched,
		FailedIDs:      s.FailedIDs,
		Outputs:        s.Outputs,
		RendererErrors: s.RendererErrors,
	}
}

// SnapshotsFromReport flattens every available row of a report.
func SnapshotsFromReport(r *model.Report) []Snapshot {
	var out []Snapshot
	for _, sec := range r.Sections {
		for _, row := range sec.Rows {
			if !row.Available {
				continue
			}
			rets := make(map[string]null.Float, len(row.Returns))
			for _, h := range row.Returns {
				rets[h.Label] = h.Value
			}
			out = append(out, Snapshot{
				RunID:    r.RunID,
				Section:  sec.Title,
				SeriesID: row.ID.String(),
				Name:     row.Name,
				LastDate: row.LastDate,
				Current:  row.Current,
				Returns:  rets,
			})
		}
		for _, v := range sec.Valuations {
			if !v.Available {
				continue
			}
			out = append(out, Snapshot{
				RunID:    r.RunID,
				Section:  sec.Title,
				SeriesID: v.ID.String(),
				Name:     v.Name,
				LastDate: v.LastDate,
				Current:  v.Current,

				Median:          v.LongRunMedian,
				DiscountPremium: v.DiscountPremium,
				Sigma:           v.Sigma,
			})
		}
	}
	return out
}
