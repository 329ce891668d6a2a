package main

import (
	"fmt"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/greensat/internal/circuitbreaker"
	"github.com/thatsimonsguy/greensat/internal/config"
	"github.com/thatsimonsguy/greensat/internal/dashboard"
	"github.com/thatsimonsguy/greensat/internal/datadog"
	"github.com/thatsimonsguy/greensat/internal/datasource"
	"github.com/thatsimonsguy/greensat/internal/env"
	"github.com/thatsimonsguy/greensat/internal/logging"
	"github.com/thatsimonsguy/greensat/internal/model"
	"github.com/thatsimonsguy/greensat/internal/store"
)

const defaultLogFile = "greensat-console.log"

func main() {
	cfg := config.Load()
	env.Cfg = &cfg

	// The terminal belongs to the UI, so logs always go to a file.
	logFile := cfg.LogFile
	if logFile == "" {
		logFile = defaultLogFile
	}
	logging.Init(cfg.LogLevel, logFile)
	datadog.InitMetrics()

	log.Info().Str("base_url", cfg.BaseURL).Msg("Starting GreenSat console")

	httpClient := circuitbreaker.NewHTTPClient("greensat-api", circuitbreaker.Config{
		MaxFailures:  cfg.Breaker.MaxFailures,
		ResetTimeout: cfg.BreakerReset(),
	}, cfg.BaseURL+"/health", &http.Client{Timeout: cfg.HTTPTimeout()})

	ctrl := dashboard.New(datasource.New(cfg.BaseURL, httpClient), dashboard.Options{
		Location:     cfg.Location(),
		Window:       cfg.LiveWindow,
		GasThreshold: cfg.GasAlertThreshold,
	})

	st := store.New(cfg.PrefsFile)
	prefs, err := st.Load()
	if err != nil {
		log.Debug().Err(err).Str("file", cfg.PrefsFile).Msg("No saved preferences, using defaults")
		prefs = &model.Prefs{Theme: model.ThemeDark}
	}

	p := tea.NewProgram(
		newModel(ctrl, st, prefs, cfg.LivePollInterval(), cfg.HTTPTimeout()),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("Console closed")
}
