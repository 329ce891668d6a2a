package circuitbreaker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func fail(context.Context) error { return errBoom }
func succeed(context.Context) error { return nil }

func newTestBreaker(probe func(context.Context) error) (*Breaker, *time.Time) {
	clock := time.Date(2024, time.June, 12, 12, 0, 0, 0, time.UTC)
	b := New("test", Config{MaxFailures: 2, ResetTimeout: time.Minute}, probe)
	b.now = func() time.Time { return clock }
	return b, &clock
}

func TestBreaker_OpensAfterMaxFailures(t *testing.T) {
	b, _ := newTestBreaker(nil)
	ctx := context.Background()

	assert.ErrorIs(t, b.Execute(ctx, fail), errBoom)
	assert.Equal(t, Closed, b.State())

	assert.ErrorIs(t, b.Execute(ctx, fail), ErrOpen)
	assert.Equal(t, Open, b.State())

	called := false
	err := b.Execute(ctx, func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called, "open breaker must not run the operation")
}

func TestBreaker_SuccessResetsFailures(t *testing.T) {
	b, _ := newTestBreaker(nil)
	ctx := context.Background()

	assert.Error(t, b.Execute(ctx, fail))
	assert.NoError(t, b.Execute(ctx, succeed))
	assert.ErrorIs(t, b.Execute(ctx, fail), errBoom)
	assert.Equal(t, Closed, b.State())
}

func TestBreaker_ProbeAfterResetTimeout(t *testing.T) {
	probeErr := errBoom
	b, clock := newTestBreaker(func(context.Context) error { return probeErr })
	ctx := context.Background()

	_ = b.Execute(ctx, fail)
	_ = b.Execute(ctx, fail)
	require.Equal(t, Open, b.State())

	*clock = clock.Add(2 * time.Minute)
	assert.ErrorIs(t, b.Execute(ctx, succeed), ErrOpen)
	assert.Equal(t, Open, b.State(), "failed probe reopens")

	*clock = clock.Add(2 * time.Minute)
	probeErr = nil
	assert.NoError(t, b.Execute(ctx, succeed))
	assert.Equal(t, Closed, b.State())
}

func TestBreaker_SingleProbeWhileHalfOpen(t *testing.T) {
	probing := make(chan struct{})
	release := make(chan struct{})
	b, clock := newTestBreaker(func(context.Context) error {
		close(probing)
		<-release
		return nil
	})
	ctx := context.Background()

	_ = b.Execute(ctx, fail)
	_ = b.Execute(ctx, fail)
	require.Equal(t, Open, b.State())
	*clock = clock.Add(2 * time.Minute)

	done := make(chan error, 1)
	go func() { done <- b.Execute(ctx, succeed) }()
	<-probing
	assert.Equal(t, HalfOpen, b.State())

	var ran atomic.Bool
	err := b.Execute(ctx, func(context.Context) error { ran.Store(true); return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, ran.Load(), "concurrent caller must not reach the backend while probing")

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, Closed, b.State())
	assert.NoError(t, b.Execute(ctx, succeed))
}

func TestHTTPClient_TransportFailuresTrip(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	url := srv.URL
	srv.Close()

	c := NewHTTPClient("http", Config{MaxFailures: 1, ResetTimeout: time.Hour}, url, nil)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)

	_, err = c.Do(req)
	assert.ErrorIs(t, err, ErrOpen)
	assert.Equal(t, Open, c.Breaker().State())
	assert.Zero(t, hits.Load())
}

func TestHTTPClient_ServerErrorsAreResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPClient("http", Config{MaxFailures: 1, ResetTimeout: time.Hour}, srv.URL, srv.Client())
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, Closed, c.Breaker().State())
}
