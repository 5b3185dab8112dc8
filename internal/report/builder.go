package report

import (
	"context"
	"time"

	"github.com/guregu/null/v5"
	"github.com/rs/zerolog"

	"MacroMonitor/internal/calculator"
	"MacroMonitor/internal/config"
	"MacroMonitor/internal/model"
)

// Fetcher is the slice of the collector the builder needs.
type Fetcher interface {
	Fetch(ctx context.Context, id model.SeriesID, start, end time.Time) model.Series
	Reset()
}

// Builder assembles a Report from configured sections.
type Builder struct {
	cfg     *config.Config
	fetcher Fetcher
	log     zerolog.Logger
	now     func() time.Time
}

// NewBuilder creates a Builder.
func NewBuilder(cfg *config.Config, fetcher Fetcher, log zerolog.Logger) *Builder {
	return &Builder{
		cfg:     cfg,
		fetcher: fetcher,
		log:     log.With().Str("component", "builder").Logger(),
		now:     time.Now,
	}
}

// Build fetches every configured series over [start, end] and computes
// returns, valuation statistics and chart inputs. It fails only on an
// unusable configuration or a cancelled context; fetch failures become
// unavailable rows.
func (b *Builder) Build(ctx context.Context, end time.Time) (*model.Report, error) {
	start, err := b.cfg.StartDate()
	if err != nil {
		return nil, err
	}
	historyStart, err := b.cfg.HistoryStartDate()
	if err != nil {
		return nil, err
	}
	diffCodes := b.cfg.DifferenceSet()

	b.fetcher.Reset()

	rep := &model.Report{
		GeneratedAt: b.now(),
		Start:       start,
		End:         end,
		Horizons:    calculator.HorizonLabels(),
	}
	failed := make(map[string]bool)

	for _, sec := range b.cfg.Sections {
		sr := model.SectionReport{Title: sec.Title, Kind: model.SectionKind(sec.Kind)}

		for _, entry := range sec.Series {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			rep.Total++

			id, err := model.ParseSeriesID(entry.ID)
			if err != nil {
				b.log.Warn().Err(err).Str("series", entry.ID).Msg("skipping malformed identifier")
				if !failed[entry.ID] {
					failed[entry.ID] = true
					rep.FailedIDs = append(rep.FailedIDs, entry.ID)
				}
				if sr.Kind == model.SectionValuation {
					sr.Valuations = append(sr.Valuations, model.ValuationRow{Name: entry.Name})
				} else {
					sr.Rows = append(sr.Rows, model.SeriesRow{Name: entry.Name})
				}
				continue
			}

			// Full history first so the window is served from the memo.
			history := b.fetcher.Fetch(ctx, id, historyStart, end)
			window := b.fetcher.Fetch(ctx, id, start, end)

			if window.Empty() {
				if key := id.String(); !failed[key] {
					failed[key] = true
					rep.FailedIDs = append(rep.FailedIDs, key)
				}
			} else {
				rep.Fetched++
			}

			median, sigma := calculator.ValuationStats(history)
			switch sr.Kind {
			case model.SectionValuation:
				sr.Valuations = append(sr.Valuations, valuationRow(id, entry.Name, window, median, sigma))
			default:
				sr.Rows = append(sr.Rows, returnsRow(id, entry.Name, window, calculator.UsesDifference(id, diffCodes)))
			}
			sr.Charts = append(sr.Charts, model.ChartData{
				ID:      id,
				Name:    entry.Name,
				Window:  window,
				History: history,
				Median:  median,
				Sigma:   sigma,
			})
		}
		rep.Sections = append(rep.Sections, sr)
	}

	ev := b.log.Info()
	if rep.Total > 0 && rep.Fetched == 0 {
		ev = b.log.Error()
	}
	ev.Int("total", rep.Total).
		Int("fetched", rep.Fetched).
		Int("failed", rep.Failed()).
		Msg("report built")
	return rep, nil
}

// returnsRow evaluates every horizon against the series' own last date.
func returnsRow(id model.SeriesID, name string, s model.Series, diff bool) model.SeriesRow {
	row := model.SeriesRow{ID: id, Name: name, Difference: diff}
	last, ok := s.Last()
	if !ok {
		return row
	}
	row.Available = true
	row.LastDate = last.Time
	row.Current = calculator.CurrentValue(s, last.Time)
	row.Returns = calculator.ComputeReturns(s, last.Time, diff)
	return row
}

func valuationRow(id model.SeriesID, name string, s model.Series, median, sigma null.Float) model.ValuationRow {
	row := model.ValuationRow{ID: id, Name: name, LongRunMedian: median, Sigma: sigma}
	last, ok := s.Last()
	if !ok {
		return row
	}
	row.Available = true
	row.LastDate = last.Time
	row.Current = calculator.CurrentValue(s, last.Time)
	row.DiscountPremium = calculator.DiscountPremium(row.Current, median)
	return row
}
