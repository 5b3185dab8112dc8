package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"MacroMonitor/internal/model"
	"MacroMonitor/internal/recorder"
)

// Renderer writes one output artifact from a finished report.
type Renderer interface {
	Name() string
	Output() string // file written by Render
	Render(ctx context.Context, r *model.Report) error
}

// Notifier is told about each finished run.
type Notifier interface {
	NotifyRun(ctx context.Context, s *model.RunSummary) error
}

// Pipeline builds a report once and hands it to every renderer.
type Pipeline struct {
	builder   *Builder
	renderers []Renderer
	recorder  recorder.Recorder
	notifier  Notifier
	log       zerolog.Logger
	now       func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRecorder persists each run.
func WithRecorder(r recorder.Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithNotifier sends a summary after each run.
func WithNotifier(n Notifier) Option {
	return func(p *Pipeline) { p.notifier = n }
}

// NewPipeline creates a Pipeline.
func NewPipeline(builder *Builder, renderers []Renderer, log zerolog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		builder:   builder,
		renderers: renderers,
		recorder:  recorder.NewNoopRecorder(),
		log:       log.With().Str("component", "pipeline").Logger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run produces every output for the given end date. A renderer failure is
// logged and reported in the summary; the remaining renderers still run.
func (p *Pipeline) Run(ctx context.Context, end time.Time) (*model.RunSummary, error) {
	started := p.now()
	runID := uuid.NewString()
	log := p.log.With().Str("run_id", runID).Logger()
	log.Info().Str("end", end.Format("2006-01-02")).Msg("report run started")

	rep, err := p.builder.Build(ctx, end)
	if err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}
	rep.RunID = runID

	summary := &model.RunSummary{
		RunID:     runID,
		StartedAt: started,
		Total:     rep.Total,
		Fetched:   rep.Fetched,
		FailedIDs: rep.FailedIDs,
	}

	for _, r := range p.renderers {
		if err := r.Render(ctx, rep); err != nil {
			log.Error().Err(err).Str("renderer", r.Name()).Msg("render failed")
			summary.RendererErrors = append(summary.RendererErrors, fmt.Sprintf("%s: %v", r.Name(), err))
			continue
		}
		summary.Outputs = append(summary.Outputs, r.Output())
	}
	summary.Duration = p.now().Sub(started)

	if err := p.recorder.RecordRun(recorder.RunRecordFromSummary(summary)); err != nil {
		log.Error().Err(err).Msg("record run failed")
	}
	if err := p.recorder.RecordSnapshots(recorder.SnapshotsFromReport(rep)); err != nil {
		log.Error().Err(err).Msg("record snapshots failed")
	}
	if p.notifier != nil {
		if err := p.notifier.NotifyRun(ctx, summary); err != nil {
			log.Error().Err(err).Msg("notify failed")
		}
	}

	log.Info().
		Int("fetched", summary.Fetched).
		Int("failed", len(summary.FailedIDs)).
		Strs("outputs", summary.Outputs).
		Dur("duration", summary.Duration).
		Msg("report run finished")
	return summary, nil
}
