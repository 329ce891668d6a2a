package datasource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/greensat/internal/timerange"
)

func TestClient_History(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"date_time":"2024-06-12 00:00:00","temp":14.1,"hum":70,"gaz_pct":3.2,"lux":0,"press":1011.2}]`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", srv.Client())
	r := timerange.Compute(timerange.ModeWeek, time.Date(2024, time.June, 12, 0, 0, 0, 0, time.UTC), time.Now())

	records, err := c.History(context.Background(), r, timerange.ModeWeek)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 14.1, records[0].Temp)

	require.NotNil(t, got)
	assert.Equal(t, "/api/history", got.URL.Path)
	assert.Equal(t, "2024-06-10 00:00:00", got.URL.Query().Get("start"))
	assert.Equal(t, "2024-06-16 23:59:59", got.URL.Query().Get("end"))
	assert.Equal(t, "week", got.URL.Query().Get("mode"))
	assert.Empty(t, got.URL.Query().Get("resolution"))
}

func TestClient_HistoryYearAsksForDailyRows(t *testing.T) {
	var resolution string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resolution = r.URL.Query().Get("resolution")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client())
	r := timerange.Compute(timerange.ModeYear, time.Date(2024, time.June, 12, 0, 0, 0, 0, time.UTC), time.Now())
	records, err := c.History(context.Background(), r, timerange.ModeYear)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, "day", resolution)
}

func TestClient_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Empty"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, srv.Client()).Latest(context.Background())
	assert.ErrorIs(t, err, ErrBadStatus)
	assert.Contains(t, err.Error(), "404")
}

func TestClient_LimitsAndLatest(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/limits", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"first_date":"2023-06-12 00:00:00","last_date":null}`))
	})
	mux.HandleFunc("/api/data", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"date_time":"2024-06-12 14:30:00","gaz_pct":22.5,"air_pct":77.5}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	c := New(srv.URL, srv.Client())

	limits, err := c.Limits(context.Background())
	require.NoError(t, err)
	require.NotNil(t, limits.FirstDate)
	assert.Equal(t, "2023-06-12 00:00:00", *limits.FirstDate)
	assert.Nil(t, limits.LastDate)

	snap, err := c.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 22.5, snap.GazPct)
	require.NotNil(t, snap.AirPct)
	assert.Equal(t, 77.5, *snap.AirPct)
}

func TestClient_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, srv.Client()).Limits(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrBadStatus)
}
