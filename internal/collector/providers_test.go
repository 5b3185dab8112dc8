package collector

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHTTP() *HTTP {
	return NewHTTP(WithRateLimit(1000), WithTimeout(5*time.Second))
}

func TestFRED_JSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fred/series/observations", r.URL.Path)
		assert.Equal(t, "DGS10", r.URL.Query().Get("series_id"))
		assert.Equal(t, "secret", r.URL.Query().Get("api_key"))
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("observation_start"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"observations":[
			{"date":"2024-01-02","value":"3.95"},
			{"date":"2024-01-03","value":"."},
			{"date":"2024-01-04","value":"3.99"}]}`))
	}))
	defer srv.Close()

	f := NewFRED(testHTTP(), "secret", srv.URL+"/fred", "")
	s, err := f.Fetch(context.Background(), "DGS10", day(2024, 1, 1), day(2024, 1, 31))
	require.NoError(t, err)
	require.Len(t, s, 3)
	assert.Equal(t, 3.95, s[0].Value)
	assert.True(t, math.IsNaN(s[1].Value))
	assert.Equal(t, day(2024, 1, 4), s[2].Time)
}

func TestFRED_CSV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "SP500", r.URL.Query().Get("id"))
		_, _ = w.Write([]byte("observation_date,SP500\n2024-01-02,4742.83\n2024-01-03,\n2024-01-04,4688.68\n"))
	}))
	defer srv.Close()

	f := NewFRED(testHTTP(), "", "", srv.URL)
	s, err := f.Fetch(context.Background(), "SP500", day(2024, 1, 1), day(2024, 1, 31))
	require.NoError(t, err)
	require.Len(t, s, 3)
	assert.Equal(t, 4742.83, s[0].Value)
	assert.True(t, math.IsNaN(s[1].Value))
}

func TestFRED_CSVLegacyDateHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("DATE,VIXCLS\n2024-01-02,13.2\n"))
	}))
	defer srv.Close()

	s, err := NewFRED(testHTTP(), "", "", srv.URL).Fetch(context.Background(), "VIXCLS", day(2024, 1, 1), day(2024, 1, 31))
	require.NoError(t, err)
	require.Len(t, s, 1)
	assert.Equal(t, 13.2, s[0].Value)
}

func TestFRED_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad series", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewFRED(testHTTP(), "", "", srv.URL).Fetch(context.Background(), "NOPE", day(2024, 1, 1), day(2024, 1, 31))
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
}

func TestStooq(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/q/d/l/", r.URL.Path)
		assert.Equal(t, "spy.us", r.URL.Query().Get("s"))
		assert.Equal(t, "20240101", r.URL.Query().Get("d1"))
		assert.Equal(t, "d", r.URL.Query().Get("i"))
		_, _ = w.Write([]byte("Date,Open,High,Low,Close,Volume\n2024-01-02,472.16,473.67,470.49,472.65,123\n2024-01-03,470.43,471.19,468.17,468.79,456\n"))
	}))
	defer srv.Close()

	s, err := NewStooq(testHTTP(), srv.URL).Fetch(context.Background(), "SPY", day(2024, 1, 1), day(2024, 1, 31))
	require.NoError(t, err)
	require.Len(t, s, 2)
	assert.Equal(t, 472.65, s[0].Value)
	assert.Equal(t, day(2024, 1, 3), s[1].Time)
}

func TestStooq_NoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("No data"))
	}))
	defer srv.Close()

	_, err := NewStooq(testHTTP(), srv.URL).Fetch(context.Background(), "ZZZZ", day(2024, 1, 1), day(2024, 1, 31))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestYahoo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/^GSPC", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.NotEmpty(t, r.URL.Query().Get("period1"))
		_, _ = w.Write([]byte(`{"chart":{"result":[{"timestamp":[1704205800,1704292200,1704378600],
			"indicators":{"quote":[{"close":[4742.83,null,4688.68]}]}}],"error":null}}`))
	}))
	defer srv.Close()

	s, err := NewYahoo(testHTTP(), srv.URL).Fetch(context.Background(), "SP500", day(2024, 1, 1), day(2024, 1, 31))
	require.NoError(t, err)
	require.Len(t, s, 3)
	assert.Equal(t, day(2024, 1, 2), s[0].Time)
	assert.True(t, math.IsNaN(s[1].Value))
	assert.Equal(t, 4688.68, s[2].Value)
}

func TestYahoo_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer srv.Close()

	_, err := NewYahoo(testHTTP(), srv.URL).Fetch(context.Background(), "NOPE", day(2024, 1, 1), day(2024, 1, 31))
	assert.ErrorContains(t, err, "No data found")
}

const multplPage = `<html><body><table id="datatable">
<tr><th>Date</th><th>Value</th></tr>
<tr><td>Feb 1, 2024</td><td>&#x2002;estimate 33.12</td></tr>
<tr><td>Jan 1, 2024</td><td>31.85</td></tr>
<tr><td>Dec 1, 2023</td><td>0</td></tr>
</table></body></html>`

func TestMultpl_Scrape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(multplPage))
	}))
	defer srv.Close()

	m := NewMultpl(testHTTP(), srv.URL, "", zerolog.Nop())
	s, err := m.Fetch(context.Background(), "CAPE", day(2020, 1, 1), day(2024, 12, 31))
	require.NoError(t, err)
	require.Len(t, s, 3)
	assert.Equal(t, day(2024, 2, 1), s[0].Time)
	assert.Equal(t, 33.12, s[0].Value)
	assert.True(t, math.IsNaN(s[2].Value), "zero is absent")
}

func TestMultpl_FallsBackToCSV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "cape.csv")
	require.NoError(t, os.WriteFile(path, []byte("Date,SP,PE10\n2023-08-01,4500,30.1\n2023-09-01,4400,0\n"), 0644))

	m := NewMultpl(testHTTP(), srv.URL, path, zerolog.Nop())
	s, err := m.Fetch(context.Background(), "cape", day(2020, 1, 1), day(2024, 12, 31))
	require.NoError(t, err)
	require.Len(t, s, 2)
	assert.Equal(t, 30.1, s[0].Value)
	assert.True(t, math.IsNaN(s[1].Value))
}

func TestMultpl_UnsupportedCode(t *testing.T) {
	m := NewMultpl(testHTTP(), "", "", zerolog.Nop())
	_, err := m.Fetch(context.Background(), "PE", day(2020, 1, 1), day(2024, 12, 31))
	assert.Error(t, err)
}
