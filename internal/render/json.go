package render

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/guregu/null/v5"
	"github.com/rs/zerolog"

	"MacroMonitor/internal/model"
)

// Document is the machine-readable snapshot written next to the dashboard.
type Document struct {
	Updated  string                            `json:"updated"`
	Start    string                            `json:"start"`
	End      string                            `json:"end"`
	Summary  DocumentSummary                   `json:"summary"`
	Sections map[string]map[string]SeriesEntry `json:"sections"`
}

// DocumentSummary counts fetched and failed series.
type DocumentSummary struct {
	Total     int      `json:"total"`
	Fetched   int      `json:"fetched"`
	Failed    int      `json:"failed"`
	FailedIDs []string `json:"failed_ids"`
}

// SeriesEntry is one available series. Valuation is set only for
// valuation sections.
type SeriesEntry struct {
	ID         string                `json:"id"`
	Current    null.Float            `json:"current"`
	LastDate   string                `json:"last_date"`
	Difference bool                  `json:"difference"`
	Returns    map[string]null.Float `json:"returns,omitempty"`
	Valuation  *ValuationFields      `json:"valuation,omitempty"`
}

// ValuationFields compares a ratio with its long-run median. Undefined
// values are written as null.
type ValuationFields struct {
	LongRunMedian   null.Float `json:"long_run_median"`
	DiscountPremium null.Float `json:"discount_premium"`
	Sigma           null.Float `json:"sigma"`
}

// JSON writes the report as a Document.
type JSON struct {
	Path string
	log  zerolog.Logger
}

// NewJSON creates the JSON renderer.
func NewJSON(path string, log zerolog.Logger) *JSON {
	return &JSON{Path: path, log: log.With().Str("renderer", "json").Logger()}
}

func (j *JSON) Name() string   { return "json" }
func (j *JSON) Output() string { return j.Path }

func (j *JSON) Render(_ context.Context, r *model.Report) error {
	if err := SaveDocument(j.Path, NewDocument(r)); err != nil {
		return err
	}
	j.log.Info().Str("path", j.Path).Msg("data file written")
	return nil
}

// NewDocument converts a report. Unavailable series are left out; undefined
// values are null.
func NewDocument(r *model.Report) *Document {
	failedIDs := r.FailedIDs
	if failedIDs == nil {
		failedIDs = []string{}
	}
	doc := &Document{
		Updated: r.GeneratedAt.Format(time.RFC3339),
		Start:   r.Start.Format("2006-01-02"),
		End:     r.End.Format("2006-01-02"),
		Summary: DocumentSummary{
			Total:     r.Total,
			Fetched:   r.Fetched,
			Failed:    r.Failed(),
			FailedIDs: failedIDs,
		},
		Sections: make(map[string]map[string]SeriesEntry, len(r.Sections)),
	}

	for _, sec := range r.Sections {
		entries := make(map[string]SeriesEntry)
		for _, row := range sec.Rows {
			if !row.Available {
				continue
			}
			rets := make(map[string]null.Float, len(row.Returns))
			for _, h := range row.Returns {
				rets[h.Label] = h.Value
			}
			entries[row.Name] = SeriesEntry{
				ID:         row.ID.String(),
				Current:    row.Current,
				LastDate:   row.LastDate.Format("2006-01-02"),
				Difference: row.Difference,
				Returns:    rets,
			}
		}
		for _, v := range sec.Valuations {
			if !v.Available {
				continue
			}
			entries[v.Name] = SeriesEntry{
				ID:       v.ID.String(),
				Current:  v.Current,
				LastDate: v.LastDate.Format("2006-01-02"),
				Valuation: &ValuationFields{
					LongRunMedian:   v.LongRunMedian,
					DiscountPremium: v.DiscountPremium,
					Sigma:           v.Sigma,
				},
			}
		}
		doc.Sections[sec.Title] = entries
	}
	return doc
}

// SaveDocument writes doc as indented JSON.
func SaveDocument(path string, doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// LoadDocument reads a document written by SaveDocument.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &doc, nil
}
