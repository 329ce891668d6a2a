package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/greensat/db"
	"github.com/thatsimonsguy/greensat/internal/api"
	"github.com/thatsimonsguy/greensat/internal/bridge"
	"github.com/thatsimonsguy/greensat/internal/circuitbreaker"
	"github.com/thatsimonsguy/greensat/internal/config"
	"github.com/thatsimonsguy/greensat/internal/datadog"
	"github.com/thatsimonsguy/greensat/internal/env"
	"github.com/thatsimonsguy/greensat/internal/logging"
	"github.com/thatsimonsguy/greensat/internal/notifications"
	"github.com/thatsimonsguy/greensat/internal/stream"
	"github.com/thatsimonsguy/greensat/system/shutdown"
)

func main() {
	cfg := config.Load()
	env.Cfg = &cfg
	logging.Init(cfg.LogLevel, cfg.LogFile)

	log.Info().
		Str("db", cfg.DBPath).
		Int("port", cfg.Port).
		Msg("Starting GreenSat server")

	datadog.InitMetrics()
	notifications.Init()

	conn, err := db.Open(cfg.DBPath)
	if err != nil {
		shutdown.ShutdownWithError(err, "Failed to open database")
	}

	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	loc := cfg.Location()
	srv := api.NewServer(conn, loc).HTTPServer(cfg.Port)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			shutdown.ShutdownWithError(err, "HTTP server failed")
		}
	}()

	closers := []io.Closer{}
	opts := bridge.Options{
		GasThreshold: cfg.GasAlertThreshold,
		Location:     loc,
	}
	if len(cfg.Kafka.Brokers) > 0 {
		pub := stream.New(cfg.Kafka.Brokers, cfg.Kafka.Topic, circuitbreaker.Config{
			MaxFailures:  cfg.Breaker.MaxFailures,
			ResetTimeout: cfg.BreakerReset(),
		})
		opts.Publisher = pub
		closers = append(closers, pub)
	}
	if notifications.Enabled() {
		opts.Notify = notifications.Send
	}

	bridgeDone := make(chan struct{})
	if cfg.MQTT.Broker != "" {
		b := bridge.New(conn, opts)
		go func() {
			defer close(bridgeDone)
			if err := b.Run(ctx, cfg.MQTT); err != nil {
				log.Error().Err(err).Msg("MQTT bridge stopped with error")
			}
		}()
	} else {
		log.Info().Msg("No MQTT broker configured, ingest bridge disabled")
		close(bridgeDone)
	}

	<-ctx.Done()
	log.Info().Msg("Shutdown requested")

	select {
	case <-bridgeDone:
	case <-time.After(2 * time.Second):
		log.Warn().Msg("MQTT bridge did not stop in time")
	}
	shutdown.Graceful(srv, 5*time.Second, append(closers, conn)...)
	log.Info().Msg("GreenSat server stopped")
}
