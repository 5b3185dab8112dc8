package scheduler

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroMonitor/internal/recorder"
)

func pacific(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)
	return loc
}

func TestMarketHours_Contains(t *testing.T) {
	loc := pacific(t)
	h := DefaultMarketHours()

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"monday open", time.Date(2024, 3, 4, 6, 30, 0, 0, loc), true},
		{"monday midday", time.Date(2024, 3, 4, 10, 0, 0, 0, loc), true},
		{"friday close inclusive", time.Date(2024, 3, 8, 13, 0, 0, 0, loc), true},
		{"just after close", time.Date(2024, 3, 8, 13, 0, 1, 0, loc), false},
		{"just before open", time.Date(2024, 3, 4, 6, 29, 59, 0, loc), false},
		{"saturday", time.Date(2024, 3, 9, 10, 0, 0, 0, loc), false},
		{"sunday", time.Date(2024, 3, 10, 10, 0, 0, 0, loc), false},
		// 15:00 UTC is 07:00 PST
		{"utc input converted", time.Date(2024, 1, 8, 15, 0, 0, 0, time.UTC), true},
		// 04:00 UTC Saturday is Friday 20:00 PST
		{"utc weekend converted", time.Date(2024, 1, 13, 4, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.Contains(tt.at))
		})
	}
}

func TestNewMarketHours(t *testing.T) {
	h := NewMarketHours(time.UTC, 9*60, 17*60)
	assert.True(t, h.Contains(time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)))
	assert.False(t, h.Contains(time.Date(2024, 3, 4, 8, 59, 0, 0, time.UTC)))
	assert.Len(t, h.Weekdays, 5)
}

type countingRunner struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
}

func (r *countingRunner) Run(ctx context.Context) error {
	r.calls.Add(1)
	if r.release != nil {
		<-r.release
	}
	return r.err
}

func newTestScheduler(runner Runner, now time.Time, opts ...Option) *Scheduler {
	s := New(context.Background(), DefaultMarketHours(), 10*time.Minute, runner, zerolog.Nop(), opts...)
	s.now = func() time.Time { return now }
	return s
}

func TestTick_RunsInsideMarketHours(t *testing.T) {
	r := &countingRunner{}
	s := newTestScheduler(r, time.Date(2024, 3, 4, 10, 0, 0, 0, pacific(t)))
	s.tick()
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestTick_SkipsOutsideMarketHours(t *testing.T) {
	r := &countingRunner{}
	s := newTestScheduler(r, time.Date(2024, 3, 9, 10, 0, 0, 0, pacific(t)))
	s.tick()
	assert.Zero(t, r.calls.Load())
}

func TestRunNow_IgnoresMarketHoursAndReturnsError(t *testing.T) {
	boom := errors.New("boom")
	r := &countingRunner{err: boom}
	s := newTestScheduler(r, time.Date(2024, 3, 9, 23, 0, 0, 0, pacific(t)))
	assert.ErrorIs(t, s.RunNow(), boom)
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestRun_NeverOverlaps(t *testing.T) {
	r := &countingRunner{release: make(chan struct{})}
	s := newTestScheduler(r, time.Date(2024, 3, 4, 10, 0, 0, 0, pacific(t)))

	done := make(chan error, 1)
	go func() { done <- s.RunNow() }()
	require.Eventually(t, s.Running, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, s.RunNow(), ErrAlreadyRunning)
	assert.Contains(t, s.HandleCommand("/run"), "already")

	close(r.release)
	require.NoError(t, <-done)
	assert.False(t, s.Running())
	assert.Equal(t, int32(1), r.calls.Load())
}

type lastRunRecorder struct {
	recorder.NoopRecorder
	rec *recorder.RunRecord
}

func (l *lastRunRecorder) LastRun() (*recorder.RunRecord, error) { return l.rec, nil }

func TestHandleCommand(t *testing.T) {
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, pacific(t))
	rec := &lastRunRecorder{rec: &recorder.RunRecord{RunID: "abc", StartedAt: now.Add(-time.Hour), Total: 4, Fetched: 3}}
	r := &countingRunner{}
	s := newTestScheduler(r, now, WithRecorder(rec))

	assert.Contains(t, s.HandleCommand("/status"), "Run: abc")
	assert.Contains(t, s.HandleCommand("/help"), "/status")
	assert.Contains(t, s.HandleCommand("hello"), "Available commands")

	assert.Contains(t, s.HandleCommand("/run@macro_bot"), "started")
	require.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestHandleCommand_StatusWithoutHistory(t *testing.T) {
	s := newTestScheduler(&countingRunner{}, time.Now())
	assert.Contains(t, s.HandleCommand("/status"), "No report")
}

func TestStart_PollsImmediatelyInsideMarketHours(t *testing.T) {
	var calls atomic.Int32
	runner := RunnerFunc(func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})
	s := newTestScheduler(runner, time.Date(2024, 3, 4, 10, 0, 0, 0, pacific(t)))

	require.NoError(t, s.Start())
	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return !s.Running() }, 2*time.Second, 5*time.Millisecond)
	s.Stop()
	assert.Equal(t, int32(1), calls.Load(), "next tick is one interval away")
}

func TestStart_FirstPollHonoursMarketHours(t *testing.T) {
	r := &countingRunner{}
	s := newTestScheduler(r, time.Date(2024, 3, 9, 10, 0, 0, 0, pacific(t)))

	require.NoError(t, s.Start())
	time.Sleep(50 * time.Millisecond)
	s.Stop()
	assert.Zero(t, r.calls.Load())
}

func TestExecRunner(t *testing.T) {
	var out bytes.Buffer
	ok := &ExecRunner{Command: []string{"sh", "-c", "echo generated"}, Stdout: &out, Stderr: &out, log: zerolog.Nop()}
	require.NoError(t, ok.Run(context.Background()))
	assert.Equal(t, "generated\n", out.String())

	fail := &ExecRunner{Command: []string{"sh", "-c", "exit 3"}, Stdout: &out, Stderr: &out, log: zerolog.Nop()}
	err := fail.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 3")

	missing := &ExecRunner{Command: []string{"/nonexistent/macromonitor"}, Stdout: &out, Stderr: &out, log: zerolog.Nop()}
	assert.Error(t, missing.Run(context.Background()))
}

func TestNewExecRunner_DefaultsToSelf(t *testing.T) {
	r, err := NewExecRunner(nil, []string{"--config", "c.yaml"}, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, r.Command, 4)
	assert.Equal(t, []string{"run", "--config", "c.yaml"}, r.Command[1:])

	custom, err := NewExecRunner([]string{"make", "report"}, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"make", "report"}, custom.Command)
}
