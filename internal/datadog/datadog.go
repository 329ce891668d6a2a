package datadog

import (
	"github.com/DataDog/datadog-go/statsd"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/greensat/internal/env"
	"github.com/thatsimonsguy/greensat/internal/model"
	"github.com/thatsimonsguy/greensat/internal/status"
)

// Client is the subset of statsd.Client used here.
type Client interface {
	Gauge(name string, value float64, tags []string, rate float64) error
	Incr(name string, tags []string, rate float64) error
}

var dogstatsd Client

func InitMetrics() {
	if !env.Cfg.EnableDatadog {
		log.Debug().Msg("Datadog metrics disabled")
		return
	}
	c, err := statsd.New(env.Cfg.DDAgentAddr)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create DogStatsD client")
		return
	}

	c.Namespace = env.Cfg.DDNamespace
	c.Tags = env.Cfg.DDTags
	dogstatsd = c

	log.Info().
		Str("addr", env.Cfg.DDAgentAddr).
		Str("namespace", env.Cfg.DDNamespace).
		Strs("tags", env.Cfg.DDTags).
		Msg("Datadog metrics initialized")
}

// SetClient swaps the backing client; nil disables emission.
func SetClient(c Client) { dogstatsd = c }

func Gauge(name string, value float64, tags ...string) {
	if dogstatsd != nil {
		if err := dogstatsd.Gauge(name, value, tags, 1); err != nil {
			log.Warn().Err(err).Str("metric", name).Msg("Failed to emit gauge metric")
		}
	}
}

func Incr(name string, tags ...string) {
	if dogstatsd != nil {
		if err := dogstatsd.Incr(name, tags, 1); err != nil {
			log.Warn().Err(err).Str("metric", name).Msg("Failed to emit counter metric")
		}
	}
}

// Measurement emits one gauge per sensor channel plus the derived AQI.
func Measurement(m model.Measurement, tags ...string) {
	Gauge("sensor.temp", m.Temp, tags...)
	Gauge("sensor.hum", m.Hum, tags...)
	Gauge("sensor.gaz_pct", m.GazPct, tags...)
	Gauge("sensor.lux", m.Lux, tags...)
	Gauge("sensor.press", m.Press, tags...)
	Gauge("sensor.aqi", status.AQI(m), tags...)
}
