package collector

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"MacroMonitor/internal/model"
)

// Mock is a deterministic in-memory provider for development and tests.
// Codes listed in Data return that series, codes in Errs fail, and any other
// code gets a generated daily series.
type Mock struct {
	Data map[string]model.Series
	Errs map[string]error

	mu    sync.Mutex
	calls map[string]int
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Fetch(_ context.Context, code string, start, end time.Time) (model.Series, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[code]++
	m.mu.Unlock()

	if err, ok := m.Errs[code]; ok {
		return nil, fmt.Errorf("mock %s: %w", code, err)
	}
	if s, ok := m.Data[code]; ok {
		out := make(model.Series, len(s))
		copy(out, s)
		return out, nil
	}
	return generateMockSeries(code, start, end), nil
}

// Calls reports how many times code was fetched.
func (m *Mock) Calls(code string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[code]
}

// generateMockSeries builds a gently trending daily series whose base level
// is derived from the code.
func generateMockSeries(code string, start, end time.Time) model.Series {
	h := fnv.New32a()
	_, _ = h.Write([]byte(code))
	base := 50 + float64(h.Sum32()%450)

	start, end = dayOf(start), dayOf(end)
	var s model.Series
	for i, t := 0, start; !t.After(end); i, t = i+1, t.AddDate(0, 0, 1) {
		s = append(s, model.Observation{Time: t, Value: base * (1 + float64(i)*0.0005)})
	}
	return s
}
