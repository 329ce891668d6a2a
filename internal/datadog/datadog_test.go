package datadog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thatsimonsguy/greensat/internal/model"
)

type fakeClient struct {
	gauges map[string]float64
	incrs  []string
	err    error
}

func (f *fakeClient) Gauge(name string, value float64, tags []string, rate float64) error {
	f.gauges[name] = value
	return f.err
}

func (f *fakeClient) Incr(name string, tags []string, rate float64) error {
	f.incrs = append(f.incrs, name)
	return f.err
}

func TestMeasurementGauges(t *testing.T) {
	fc := &fakeClient{gauges: map[string]float64{}}
	SetClient(fc)
	defer SetClient(nil)

	Measurement(model.Measurement{Temp: 21.5, Hum: 40, GazPct: 4, Lux: 120, Press: 1008})
	assert.Equal(t, 21.5, fc.gauges["sensor.temp"])
	assert.Equal(t, 1008.0, fc.gauges["sensor.press"])
	assert.Equal(t, 6.0, fc.gauges["sensor.aqi"])
	assert.Len(t, fc.gauges, 6)

	fc.err = errors.New("udp closed")
	Incr("bridge.dropped")
	assert.Equal(t, []string{"bridge.dropped"}, fc.incrs)
}

func TestNilClientIsNoop(t *testing.T) {
	SetClient(nil)
	assert.NotPanics(t, func() {
		Gauge("sensor.temp", 1)
		Incr("bridge.dropped")
	})
}
