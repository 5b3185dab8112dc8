package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"MacroMonitor/internal/notifier"
	"MacroMonitor/internal/recorder"
)

// ErrAlreadyRunning is returned when a report is still being generated.
var ErrAlreadyRunning = errors.New("report generation already running")

// Scheduler regenerates the report at a fixed interval during market hours.
type Scheduler struct {
	cron     *cron.Cron
	hours    MarketHours
	interval time.Duration
	runner   Runner
	recorder recorder.Recorder
	running  atomic.Bool
	ctx      context.Context
	log      zerolog.Logger
	now      func() time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithRecorder lets /status report the last recorded run.
func WithRecorder(r recorder.Recorder) Option {
	return func(s *Scheduler) { s.recorder = r }
}

// New creates a Scheduler. ctx bounds every report run.
func New(ctx context.Context, hours MarketHours, interval time.Duration, runner Runner, log zerolog.Logger, opts ...Option) *Scheduler {
	l := log.With().Str("component", "scheduler").Logger()
	s := &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger{l}),
			cron.SkipIfStillRunning(cronLogger{l}),
		)),
		hours:    hours,
		interval: interval,
		runner:   runner,
		recorder: recorder.NewNoopRecorder(),
		ctx:      ctx,
		log:      l,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start registers the polling job, starts the cron scheduler and polls once
// right away. The first poll still honours market hours.
func (s *Scheduler) Start() error {
	spec := "@every " + s.interval.String()
	id, err := s.cron.AddFunc(spec, s.tick)
	if err != nil {
		return fmt.Errorf("register report job: %w", err)
	}
	s.cron.Start()
	s.log.Info().Str("schedule", spec).Msg("scheduler started")

	// wrapped job, so the first poll goes through the same skip chain
	go s.cron.Entry(id).WrappedJob.Run()
	return nil
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) tick() {
	now := s.now()
	if !s.hours.Contains(now) {
		s.log.Info().Time("now", now.In(s.location())).Msg("outside market hours, skipping report generation")
		return
	}
	if err := s.run(); err != nil {
		s.log.Error().Err(err).Msg("scheduled report failed")
	}
}

// RunNow generates a report immediately, ignoring market hours.
func (s *Scheduler) RunNow() error {
	s.log.Info().Msg("running report immediately")
	return s.run()
}

// Running reports whether a report is being generated.
func (s *Scheduler) Running() bool { return s.running.Load() }

func (s *Scheduler) run() error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)
	return s.runner.Run(s.ctx)
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	name, _, _ := strings.Cut(strings.TrimSpace(command), "@")
	switch strings.ToLower(name) {
	case "/run":
		if s.Running() {
			return "⏳ A report is already being generated."
		}
		go func() {
			if err := s.RunNow(); err != nil && !errors.Is(err, ErrAlreadyRunning) {
				s.log.Error().Err(err).Msg("manual report failed")
			}
		}()
		return "🚀 Report generation started."
	case "/status":
		rec, err := s.recorder.LastRun()
		if err != nil {
			s.log.Error().Err(err).Msg("load last run")
			return "❌ Could not load the last run."
		}
		return notifier.FormatStatus(rec, s.now())
	default:
		return notifier.HelpText()
	}
}

func (s *Scheduler) location() *time.Location {
	if s.hours.Location != nil {
		return s.hours.Location
	}
	return time.Local
}

// cronLogger routes cron's internal logging through zerolog.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
