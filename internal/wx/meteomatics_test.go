package wx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/glideplan/pkg/logger"
)

const sampleCSV = `lat;lon;validdate;t_2m:C;msl_pressure:hPa;wind_speed_10m:ms;wind_dir_10m:d;cape:Jkg;global_rad:W
45.000000;5.000000;2026-08-29T12:00:00Z;24.1;1015.2;3.4;210.0;850.0;620.0
45.070000;5.250000;2026-08-29T12:00:00Z;22.8;1014.8;4.1;220.0;610.0;540.0
`

func TestFetchPoints(t *testing.T) {
	var gotPath string
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	client := NewMeteomaticsClient(srv.URL, "user", "pass", 5*time.Second, logger.Nop())

	ts := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	rows, err := client.FetchPoints(context.Background(), ts,
		[]float64{45.0, 45.07}, []float64{5.0, 5.25})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Contains(t, gotPath, "2026-08-29T12:00:00Z")
	assert.Contains(t, gotPath, "wind_speed_10m:ms")
	assert.Contains(t, gotPath, "45.000000,5.000000+45.070000,5.250000")
	assert.True(t, strings.HasPrefix(gotAuth, "Basic "), "expected basic auth, got %q", gotAuth)

	assert.InDelta(t, 24.1, rows[0].Temp2mC, 1e-9)
	assert.InDelta(t, 850.0, rows[0].CAPEJkg, 1e-9)
	assert.InDelta(t, 4.1, rows[1].WindSpeed10m, 1e-9)
	assert.InDelta(t, 220.0, rows[1].WindDir10m, 1e-9)
}

func TestFetchPointsLengthMismatch(t *testing.T) {
	client := NewMeteomaticsClient("http://example.invalid", "u", "p", time.Second, logger.Nop())
	_, err := client.FetchPoints(context.Background(), time.Now(), []float64{1}, nil)
	assert.Error(t, err)
}

func TestFetchPointsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewMeteomaticsClient(srv.URL, "u", "p", time.Second, logger.Nop())
	_, err := client.FetchPoints(context.Background(), time.Now(), []float64{45.0}, []float64{5.0})
	assert.ErrorContains(t, err, "unexpected status code")
}

func TestDecodePointCSVCommaSeparated(t *testing.T) {
	csvText := strings.ReplaceAll(sampleCSV, ";", ",")
	rows, err := decodePointCSV(csvText)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.InDelta(t, 1015.2, rows[0].PressureHPa, 1e-9)
}
