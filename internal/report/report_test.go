package report

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroMonitor/internal/collector"
	"MacroMonitor/internal/config"
	"MacroMonitor/internal/model"
	"MacroMonitor/internal/recorder"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testSetup(t *testing.T) (*config.Config, *collector.Mock, *collector.Collector) {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	cfg.Sections = []config.Section{
		{Title: "Indices", Kind: "returns", Series: []config.SeriesEntry{
			{ID: "MOCK:AAA", Name: "Alpha"},
			{ID: "MOCK:BAD", Name: "Broken"},
		}},
		{Title: "Valuation", Kind: "valuation", Series: []config.SeriesEntry{
			{ID: "MOCK:CAPE", Name: "CAPE"},
		}},
	}
	require.NoError(t, cfg.Validate())

	m := &collector.Mock{
		Data: map[string]model.Series{
			"AAA": {
				{Time: day(2023, 1, 1), Value: 50},
				{Time: day(2023, 6, 1), Value: 55},
				{Time: day(2024, 1, 1), Value: 60},
			},
			"CAPE": {
				{Time: day(1950, 1, 1), Value: 10},
				{Time: day(2000, 1, 1), Value: 20},
				{Time: day(2023, 1, 1), Value: 30},
			},
		},
		Errs: map[string]error{"BAD": errors.New("upstream down")},
	}
	c := collector.New(zerolog.Nop())
	c.Register(model.SourceMock, m)
	return cfg, m, c
}

func TestBuilder_Build(t *testing.T) {
	cfg, m, c := testSetup(t)
	b := NewBuilder(cfg, c, zerolog.Nop())

	rep, err := b.Build(context.Background(), day(2024, 1, 1))
	require.NoError(t, err)

	assert.Equal(t, 3, rep.Total)
	assert.Equal(t, 2, rep.Fetched)
	assert.Equal(t, []string{"MOCK:BAD"}, rep.FailedIDs)
	assert.Equal(t, []string{"YTD", "1M", "3M", "1Y", "3Y", "5Y", "10Y"}, rep.Horizons)
	require.Len(t, rep.Sections, 2)

	idx := rep.Sections[0]
	require.Len(t, idx.Rows, 2)
	alpha := idx.Rows[0]
	assert.True(t, alpha.Available)
	assert.Equal(t, day(2024, 1, 1), alpha.LastDate)
	assert.Equal(t, 60.0, alpha.Current.Float64)
	assert.True(t, alpha.Return("YTD").Valid)
	assert.Equal(t, 0.0, alpha.Return("YTD").Float64)
	assert.InDelta(t, 20.0, alpha.Return("1Y").Float64, 1e-9)
	assert.False(t, alpha.Return("5Y").Valid)
	assert.False(t, idx.Rows[1].Available)
	assert.False(t, idx.Empty())

	val := rep.Sections[1]
	require.Len(t, val.Valuations, 1)
	cape := val.Valuations[0]
	assert.True(t, cape.Available)
	assert.Equal(t, 30.0, cape.Current.Float64)
	assert.Equal(t, 20.0, cape.LongRunMedian.Float64)
	assert.InDelta(t, 50.0, cape.DiscountPremium.Float64, 1e-9)
	assert.InDelta(t, 0.5, cape.Sigma.Float64, 1e-9)

	require.Len(t, val.Charts, 1)
	assert.Len(t, val.Charts[0].History, 3)
	assert.Len(t, val.Charts[0].Window, 1)

	// History and window share one upstream fetch.
	assert.Equal(t, 1, m.Calls("AAA"))
	assert.Equal(t, 1, m.Calls("BAD"))
}

func TestBuilder_AllFailedStillProducesReport(t *testing.T) {
	cfg, _, _ := testSetup(t)
	c := collector.New(zerolog.Nop()) // no providers registered

	rep, err := NewBuilder(cfg, c, zerolog.Nop()).Build(context.Background(), day(2024, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Fetched)
	assert.Equal(t, 3, rep.Failed())
	for _, sec := range rep.Sections {
		assert.True(t, sec.Empty(), sec.Title)
	}
}

func TestBuilder_CancelledContext(t *testing.T) {
	cfg, _, c := testSetup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBuilder(cfg, c, zerolog.Nop()).Build(ctx, day(2024, 1, 1))
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeRenderer struct {
	name  string
	err   error
	calls int
}

func (f *fakeRenderer) Name() string   { return f.name }
func (f *fakeRenderer) Output() string { return filepath.Join("out", f.name+".out") }

func (f *fakeRenderer) Render(_ context.Context, r *model.Report) error {
	f.calls++
	return f.err
}

type memRecorder struct {
	recorder.NoopRecorder
	runs  []*recorder.RunRecord
	snaps []recorder.Snapshot
}

func (m *memRecorder) RecordRun(r *recorder.RunRecord) error {
	m.runs = append(m.runs, r)
	return nil
}

func (m *memRecorder) RecordSnapshots(s []recorder.Snapshot) error {
	m.snaps = append(m.snaps, s...)
	return nil
}

type fakeNotifier struct{ got *model.RunSummary }

func (f *fakeNotifier) NotifyRun(_ context.Context, s *model.RunSummary) error {
	f.got = s
	return nil
}

func TestPipeline_RendererFailureDoesNotStopOthers(t *testing.T) {
	cfg, _, c := testSetup(t)
	broken := &fakeRenderer{name: "pdf", err: errors.New("disk full")}
	html := &fakeRenderer{name: "html"}
	js := &fakeRenderer{name: "json"}
	rec := &memRecorder{}
	n := &fakeNotifier{}

	p := NewPipeline(NewBuilder(cfg, c, zerolog.Nop()), []Renderer{html, broken, js}, zerolog.Nop(),
		WithRecorder(rec), WithNotifier(n))

	summary, err := p.Run(context.Background(), day(2024, 1, 1))
	require.NoError(t, err)

	assert.Equal(t, 1, html.calls)
	assert.Equal(t, 1, broken.calls)
	assert.Equal(t, 1, js.calls)
	assert.Equal(t, []string{filepath.Join("out", "html.out"), filepath.Join("out", "json.out")}, summary.Outputs)
	require.Len(t, summary.RendererErrors, 1)
	assert.Contains(t, summary.RendererErrors[0], "disk full")
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, []string{"MOCK:BAD"}, summary.FailedIDs)

	require.Len(t, rec.runs, 1)
	assert.Equal(t, summary.RunID, rec.runs[0].RunID)
	assert.Len(t, rec.snaps, 2)
	assert.Same(t, summary, n.got)
}
