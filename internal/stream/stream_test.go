package stream

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/greensat/internal/circuitbreaker"
	"github.com/thatsimonsguy/greensat/internal/model"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	calls  int
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestPublish(t *testing.T) {
	fw := &fakeWriter{}
	p := newPublisher(fw, "greensat.measurements", circuitbreaker.Config{MaxFailures: 2, ResetTimeout: time.Minute})

	m := model.Measurement{DateTime: "2024-06-12 14:30:00", Temp: 21, GazPct: 4}
	require.NoError(t, p.Publish(context.Background(), m))
	require.Len(t, fw.msgs, 1)
	assert.Equal(t, "2024-06-12", string(fw.msgs[0].Key))

	var decoded model.Measurement
	require.NoError(t, json.Unmarshal(fw.msgs[0].Value, &decoded))
	assert.Equal(t, m.DateTime, decoded.DateTime)
	assert.Equal(t, 21.0, decoded.Temp)

	require.NoError(t, p.Close())
	assert.True(t, fw.closed)
}

func TestPublish_BreakerFastFails(t *testing.T) {
	fw := &fakeWriter{err: errors.New("no brokers")}
	p := newPublisher(fw, "greensat.measurements", circuitbreaker.Config{MaxFailures: 2, ResetTimeout: time.Hour})
	m := model.Measurement{DateTime: "2024-06-12 14:30:00"}

	assert.Error(t, p.Publish(context.Background(), m))
	assert.ErrorIs(t, p.Publish(context.Background(), m), circuitbreaker.ErrOpen)
	assert.ErrorIs(t, p.Publish(context.Background(), m), circuitbreaker.ErrOpen)
	assert.Equal(t, 2, fw.calls, "open breaker skips the writer")
}
