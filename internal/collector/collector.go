package collector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"MacroMonitor/internal/config"
	"MacroMonitor/internal/model"
)

type cacheEntry struct {
	start, end time.Time
	series     model.Series
	failed     bool
}

// Collector resolves series identifiers to providers, normalizes what they
// return, and memoizes results for the duration of a run. Fetch never
// fails: problems are logged and yield an empty series.
type Collector struct {
	log       zerolog.Logger
	providers map[string]Provider

	mu     sync.Mutex
	cache  map[string]*cacheEntry
	failed []string
}

// New creates a Collector with no providers.
func New(log zerolog.Logger) *Collector {
	return &Collector{
		log:       log.With().Str("component", "collector").Logger(),
		providers: make(map[string]Provider),
		cache:     make(map[string]*cacheEntry),
	}
}

// NewFromConfig creates a Collector with every built-in provider registered.
func NewFromConfig(cfg *config.Config, log zerolog.Logger) *Collector {
	p := cfg.Providers
	h := NewHTTP(
		WithTimeout(time.Duration(p.TimeoutSeconds)*time.Second),
		WithProxy(cfg.Proxy),
		WithRateLimit(p.RateLimit),
	)

	c := New(log)
	c.Register(model.SourceFRED, NewFRED(h, p.FRED.APIKey, p.FRED.BaseURL, p.FRED.GraphURL))
	c.Register(model.SourceStooq, NewStooq(h, p.Stooq.BaseURL))
	c.Register(model.SourceYahoo, NewYahoo(h, p.Yahoo.BaseURL))
	c.Register(model.SourceMultpl, NewMultpl(h, p.Multpl.URL, p.Multpl.FallbackCSV, log))
	c.Register(model.SourceMock, &Mock{})
	return c
}

// Register binds a provider to a source tag.
func (c *Collector) Register(source string, p Provider) {
	c.providers[source] = p
}

// Fetch returns the normalized series for id restricted to [start, end].
func (c *Collector) Fetch(ctx context.Context, id model.SeriesID, start, end time.Time) model.Series {
	key := id.String()

	c.mu.Lock()
	entry, ok := c.cache[key]
	c.mu.Unlock()

	if ok && (entry.failed || covers(entry, start, end)) {
		return entry.series.Window(start, end)
	}

	fetchStart, fetchEnd := start, end
	if ok {
		if entry.start.Before(fetchStart) {
			fetchStart = entry.start
		}
		if entry.end.After(fetchEnd) {
			fetchEnd = entry.end
		}
	}

	series, err := c.fetch(ctx, id, fetchStart, fetchEnd)
	next := &cacheEntry{start: fetchStart, end: fetchEnd, series: series}
	if err != nil {
		c.log.Warn().Err(err).Str("series", key).Msg("failed to fetch series")
		if ok {
			// Keep the narrower data, but do not retry the wider window.
			next.series = entry.series
		} else {
			next.failed = true
		}
	}
	entry = next

	c.mu.Lock()
	c.cache[key] = entry
	if entry.failed {
		c.failed = append(c.failed, key)
	}
	c.mu.Unlock()

	return entry.series.Window(start, end)
}

func (c *Collector) fetch(ctx context.Context, id model.SeriesID, start, end time.Time) (model.Series, error) {
	p, ok := c.providers[id.Source]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id.Source, ErrUnknownSource)
	}
	raw, err := p.Fetch(ctx, id.Code, start, end)
	if err != nil {
		return nil, err
	}
	s := Normalize(raw, start, end)
	if s.Empty() {
		return nil, fmt.Errorf("%s: %w", p.Name(), ErrNoData)
	}
	c.log.Debug().Str("series", id.String()).Int("observations", len(s)).Msg("fetched series")
	return s, nil
}

func covers(e *cacheEntry, start, end time.Time) bool {
	return !e.start.After(start) && !e.end.Before(end)
}

// FailedIDs lists identifiers that produced no data since the last Reset,
// in the order they failed.
func (c *Collector) FailedIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.failed))
	copy(out, c.failed)
	return out
}

// Reset drops the memo cache and failure list.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*cacheEntry)
	c.failed = nil
}

// Normalize sorts raw by time, keeps the last reported value for duplicate
// timestamps, restricts to [start, end], forward-fills absent values and
// drops any leading absent values. A zero start or end is open.
func Normalize(raw model.Series, start, end time.Time) model.Series {
	s := make(model.Series, len(raw))
	copy(s, raw)
	sort.SliceStable(s, func(i, j int) bool { return s[i].Time.Before(s[j].Time) })

	dedup := s[:0]
	for _, o := range s {
		if n := len(dedup); n > 0 && dedup[n-1].Time.Equal(o.Time) {
			dedup[n-1] = o
			continue
		}
		dedup = append(dedup, o)
	}

	window := dedup.Window(start, end)
	out := make(model.Series, 0, len(window))
	last := math.NaN()
	for _, o := range window {
		if isAbsent(o.Value) {
			if isAbsent(last) {
				continue
			}
			o.Value = last
		}
		last = o.Value
		out = append(out, o)
	}
	return out
}

func isAbsent(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
