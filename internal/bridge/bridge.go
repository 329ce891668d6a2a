package bridge

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/greensat/db"
	"github.com/thatsimonsguy/greensat/internal/config"
	"github.com/thatsimonsguy/greensat/internal/datadog"
	"github.com/thatsimonsguy/greensat/internal/model"
	"github.com/thatsimonsguy/greensat/internal/status"
)

// ErrIgnoredPayload marks device output that is not a reading: boot banners,
// partial lines and sensor error reports.
var ErrIgnoredPayload = errors.New("payload is not a reading")

type Publisher interface {
	Publish(ctx context.Context, m model.Measurement) error
}

// Notifier delivers an alert, e.g. notifications.Send.
type Notifier func(title, message string) error

type Options struct {
	Publisher    Publisher
	Notify       Notifier
	GasThreshold float64
	Location     *time.Location
	Now          func() time.Time
}

// Bridge turns raw device payloads into stored measurements.
type Bridge struct {
	db        *sql.DB
	pub       Publisher
	notify    Notifier
	threshold float64
	loc       *time.Location
	now       func() time.Time

	mu    sync.Mutex
	alert status.Transition
}

func New(database *sql.DB, opts Options) *Bridge {
	if opts.GasThreshold <= 0 {
		opts.GasThreshold = status.DefaultGasThreshold
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Bridge{
		db:        database,
		pub:       opts.Publisher,
		notify:    opts.Notify,
		threshold: opts.GasThreshold,
		loc:       opts.Location,
		now:       opts.Now,
	}
}

type payload struct {
	Temp   float64         `json:"temp"`
	Hum    float64         `json:"hum"`
	GazPct float64         `json:"gaz_pct"`
	Lux    float64         `json:"lux"`
	Press  float64         `json:"press"`
	AirPct *float64        `json:"air_pct"`
	Error  json.RawMessage `json:"error"`
}

// Parse decodes one device line and stamps it with ts. Missing air quality is
// derived from the gas reading.
func Parse(raw []byte, ts time.Time) (model.Measurement, error) {
	raw = bytes.TrimSpace(raw)
	if !bytes.HasPrefix(raw, []byte("{")) {
		return model.Measurement{}, ErrIgnoredPayload
	}
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return model.Measurement{}, fmt.Errorf("%w: %v", ErrIgnoredPayload, err)
	}
	if len(p.Error) > 0 {
		return model.Measurement{}, fmt.Errorf("%w: device reported %s", ErrIgnoredPayload, string(p.Error))
	}

	m := model.Measurement{
		DateTime: ts.Format("2006-01-02 15:04:05"),
		Temp:     p.Temp,
		Hum:      p.Hum,
		GazPct:   p.GazPct,
		Lux:      p.Lux,
		Press:    p.Press,
		AirPct:   p.AirPct,
	}
	if m.AirPct == nil {
		m.AirPct = model.Float(math.Round((100-p.GazPct)*10) / 10)
	}
	return m, nil
}

// Handle stores one payload and fans it out to metrics, Kafka and alerts.
// Only the database write is fatal for the reading; the rest is best effort.
func (b *Bridge) Handle(ctx context.Context, raw []byte) (model.Measurement, error) {
	m, err := Parse(raw, b.now().In(b.loc))
	if err != nil {
		datadog.Incr("bridge.ignored")
		return m, err
	}

	id, err := db.InsertMeasurement(b.db, m)
	if err != nil {
		datadog.Incr("bridge.store_failed")
		return m, fmt.Errorf("store reading: %w", err)
	}
	m.ID = id
	datadog.Measurement(m)

	if b.pub != nil {
		if err := b.pub.Publish(ctx, m); err != nil {
			log.Warn().Err(err).Str("date_time", m.DateTime).Msg("Failed to publish reading")
		}
	}

	level := status.Classify(m.GazPct, b.threshold)
	b.mu.Lock()
	raise := b.alert.Observe(level)
	b.mu.Unlock()
	if raise {
		log.Warn().Float64("gaz_pct", m.GazPct).Str("date_time", m.DateTime).Msg("Gas level critical")
		if b.notify != nil {
			msg := fmt.Sprintf("Gas at %.1f%% (threshold %.0f%%) at %s", m.GazPct, b.threshold, m.DateTime)
			if err := b.notify("GreenSat gas alert", msg); err != nil {
				log.Warn().Err(err).Msg("Failed to send gas alert")
			}
		}
	}

	log.Debug().Int64("id", id).Str("date_time", m.DateTime).Float64("temp", m.Temp).Msg("Reading stored")
	return m, nil
}

// Run subscribes to the configured topic and handles messages until ctx is done.
func (b *Bridge) Run(ctx context.Context, cfg config.MQTT) error {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)

	handler := func(_ mqtt.Client, msg mqtt.Message) {
		if _, err := b.Handle(ctx, msg.Payload()); err != nil {
			if errors.Is(err, ErrIgnoredPayload) {
				log.Debug().Err(err).Str("topic", msg.Topic()).Msg("Ignored payload")
				return
			}
			log.Error().Err(err).Str("topic", msg.Topic()).Msg("Failed to handle reading")
		}
	}
	// Resubscribe on every (re)connect; the broker forgets non-persistent sessions.
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		if token := c.Subscribe(cfg.Topic, 1, handler); token.Wait() && token.Error() != nil {
			log.Error().Err(token.Error()).Str("topic", cfg.Topic).Msg("MQTT subscribe failed")
			return
		}
		log.Info().Str("broker", cfg.Broker).Str("topic", cfg.Topic).Msg("MQTT bridge subscribed")
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect %s: %w", cfg.Broker, token.Error())
	}

	<-ctx.Done()
	client.Disconnect(250)
	log.Info().Msg("MQTT bridge stopped")
	return nil
}
