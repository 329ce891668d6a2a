package shutdown

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

// NotifyContext returns a context cancelled on SIGINT or SIGTERM.
func NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// Graceful drains srv within timeout and then closes the extra resources in order.
func Graceful(srv *http.Server, timeout time.Duration, closers ...io.Closer) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("HTTP server did not drain cleanly")
		} else {
			log.Info().Msg("HTTP server stopped")
		}
	}
	for _, c := range closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("Error while closing resource")
		}
	}
}

// ShutdownWithError logs and exits non-zero.
func ShutdownWithError(err error, msg string) {
	log.Error().Err(err).Msg(msg)
	os.Exit(1)
}
