package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/thatsimonsguy/greensat/internal/circuitbreaker"
	"github.com/thatsimonsguy/greensat/internal/model"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher forwards stored measurements to a Kafka topic behind a circuit
// breaker so a dead cluster costs one fast failure per reading.
type Publisher struct {
	w     messageWriter
	brk   *circuitbreaker.Breaker
	topic string
}

func New(brokers []string, topic string, cb circuitbreaker.Config) *Publisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	log.Info().Strs("brokers", brokers).Str("topic", topic).Msg("Kafka publisher configured")
	return newPublisher(w, topic, cb)
}

func newPublisher(w messageWriter, topic string, cb circuitbreaker.Config) *Publisher {
	return &Publisher{w: w, brk: circuitbreaker.New("kafka:"+topic, cb, nil), topic: topic}
}

// Publish writes m keyed by its day so one day's readings stay on one partition.
func (p *Publisher) Publish(ctx context.Context, m model.Measurement) error {
	value, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal measurement: %w", err)
	}
	key := m.DateTime
	if len(key) >= 10 {
		key = key[:10]
	}
	msg := kafka.Message{Key: []byte(key), Value: value, Time: time.Now()}

	return p.brk.Execute(ctx, func(ctx context.Context) error {
		if err := p.w.WriteMessages(ctx, msg); err != nil {
			return fmt.Errorf("write to %s: %w", p.topic, err)
		}
		return nil
	})
}

func (p *Publisher) Close() error {
	return p.w.Close()
}
