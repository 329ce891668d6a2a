package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var ErrOpen = errors.New("circuit breaker is open")

type Config struct {
	MaxFailures  int
	ResetTimeout time.Duration
}

// Breaker opens after MaxFailures consecutive failures and fast-fails until
// ResetTimeout has elapsed, then lets a single probe decide whether to close.
type Breaker struct {
	name  string
	cfg   Config
	probe func(ctx context.Context) error
	now   func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
}

func New(name string, cfg Config, probe func(ctx context.Context) error) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	log.Debug().
		Str("breaker", name).
		Int("max_failures", cfg.MaxFailures).
		Dur("reset_timeout", cfg.ResetTimeout).
		Msg("circuit breaker created")
	return &Breaker{name: name, cfg: cfg, probe: probe, now: time.Now}
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Execute runs op unless the breaker is open. Once ResetTimeout has elapsed
// exactly one caller probes; everyone else fails fast until it finishes.
func (b *Breaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	b.mu.Lock()
	switch b.state {
	case HalfOpen:
		b.mu.Unlock()
		return ErrOpen
	case Open:
		if b.now().Sub(b.openedAt) < b.cfg.ResetTimeout {
			b.mu.Unlock()
			return ErrOpen
		}
		b.state = HalfOpen
		b.mu.Unlock()
		return b.probeThenRun(ctx, op)
	}
	b.mu.Unlock()

	if err := op(ctx); err != nil {
		if b.recordFailure(err) {
			return ErrOpen
		}
		return err
	}
	b.recordSuccess()
	return nil
}

// probeThenRun is only entered by the caller that moved the breaker to HalfOpen.
func (b *Breaker) probeThenRun(ctx context.Context, op func(ctx context.Context) error) error {
	if b.probe != nil {
		if err := b.probe(ctx); err != nil {
			log.Warn().Err(err).Str("breaker", b.name).Msg("circuit breaker probe failed")
			b.trip()
			return ErrOpen
		}
	}
	if err := op(ctx); err != nil {
		log.Warn().Err(err).Str("breaker", b.name).Msg("operation failed while half-open")
		b.trip()
		return err
	}
	b.recordSuccess()
	return nil
}

func (b *Breaker) trip() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Open
	b.openedAt = b.now()
}

// recordFailure reports whether this failure opened the breaker.
func (b *Breaker) recordFailure(err error) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	log.Debug().Err(err).Str("breaker", b.name).Int("failures", b.failures).Msg("operation failed")
	if b.failures < b.cfg.MaxFailures {
		return false
	}
	b.state = Open
	b.openedAt = b.now()
	log.Error().Str("breaker", b.name).Int("failures", b.failures).Msg("circuit breaker opened")
	return true
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Closed {
		log.Info().Str("breaker", b.name).Str("from", b.state.String()).Msg("circuit breaker closed")
	}
	b.state = Closed
	b.failures = 0
}
