package main

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/greensat/internal/dashboard"
	"github.com/thatsimonsguy/greensat/internal/datadog"
	"github.com/thatsimonsguy/greensat/internal/model"
	"github.com/thatsimonsguy/greensat/internal/series"
	"github.com/thatsimonsguy/greensat/internal/timerange"
)

type tickMsg time.Time

type historyMsg dashboard.HistoryResult

type liveMsg dashboard.LiveResult

type boundaryMsg struct{}

type prefsStore interface {
	Save(prefs *model.Prefs) error
}

type consoleModel struct {
	ctrl    *dashboard.Controller
	store   prefsStore
	prefs   *model.Prefs
	styles  styles
	poll    time.Duration
	timeout time.Duration

	initial dashboard.HistoryRequest
	pending uint64
	loading bool

	viewport viewport.Model
	ready    bool
	width    int
	height   int
}

func newModel(ctrl *dashboard.Controller, st prefsStore, prefs *model.Prefs, poll, timeout time.Duration) consoleModel {
	if prefs.Theme == "" {
		prefs.Theme = model.ThemeDark
	}
	if chart, ok := series.ParseChartMode(prefs.ChartMode); ok {
		ctrl.SwitchChart(chart)
	}
	req := ctrl.Current()
	return consoleModel{
		ctrl:    ctrl,
		store:   st,
		prefs:   prefs,
		styles:  stylesFor(prefs.Theme),
		poll:    poll,
		timeout: timeout,
		initial: req,
		pending: req.Token,
		loading: true,
	}
}

func tickCmd(every time.Duration) tea.Cmd {
	return tea.Tick(every, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m consoleModel) boundaryCmd() tea.Cmd {
	ctrl, timeout := m.ctrl, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		ctrl.LoadBoundary(ctx)
		return boundaryMsg{}
	}
}

func (m consoleModel) fetchCmd(req dashboard.HistoryRequest) tea.Cmd {
	ctrl, timeout := m.ctrl, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return historyMsg(ctrl.FetchHistory(ctx, req))
	}
}

func (m consoleModel) pollCmd() tea.Cmd {
	ctrl, timeout := m.ctrl, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return liveMsg(ctrl.PollLive(ctx))
	}
}

func (m consoleModel) Init() tea.Cmd {
	return tea.Batch(m.boundaryCmd(), m.fetchCmd(m.initial), m.pollCmd(), tickCmd(m.poll))
}

// request marks req as the one the screen is waiting for.
func (m consoleModel) request(req dashboard.HistoryRequest) (consoleModel, tea.Cmd) {
	m.pending = req.Token
	m.loading = true
	return m.refresh(), m.fetchCmd(req)
}

func (m consoleModel) refresh() consoleModel {
	if m.ready {
		m.viewport.SetContent(m.renderContent(m.ctrl.View()))
	}
	return m
}

var modeKeys = map[string]timerange.ViewMode{
	"d": timerange.ModeDay,
	"w": timerange.ModeWeek,
	"m": timerange.ModeMonth,
	"y": timerange.ModeYear,
}

var chartKeys = map[string]series.ChartMode{
	"1": series.ChartThermal,
	"2": series.ChartAir,
	"3": series.ChartLight,
}

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		if mode, ok := modeKeys[key]; ok {
			return m.request(m.ctrl.SwitchTimeRange(mode))
		}
		if chart, ok := chartKeys[key]; ok {
			m.ctrl.SwitchChart(chart)
			m.prefs.ChartMode = string(chart)
			m.savePrefs()
			return m.refresh(), nil
		}
		switch key {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "left", "h":
			return m.navigate(dashboard.Backward)
		case "right", "l":
			return m.navigate(dashboard.Forward)
		case "t":
			m.prefs.Theme = m.prefs.Theme.Toggle()
			m.styles = stylesFor(m.prefs.Theme)
			m.savePrefs()
			return m.refresh(), nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := m.height - headerHeight - footerHeight
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.MouseWheelEnabled = true
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		return m.refresh(), nil

	case historyMsg:
		res := dashboard.HistoryResult(msg)
		if res.Request.Token == m.pending {
			m.loading = false
		}
		if m.ctrl.ApplyHistory(res) {
			m.viewport.GotoTop()
		}
		return m.refresh(), nil

	case liveMsg:
		res := dashboard.LiveResult(msg)
		if res.Err == nil {
			datadog.Measurement(res.Snapshot, "source:console")
		}
		m.ctrl.ApplyLive(res)
		return m.refresh(), nil

	case boundaryMsg:
		return m.refresh(), nil

	case tickMsg:
		return m, tea.Batch(m.pollCmd(), tickCmd(m.poll))
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// navigate never blocks on the limiter; the arrows only hint at it.
func (m consoleModel) navigate(dir dashboard.Direction) (consoleModel, tea.Cmd) {
	req, err := m.ctrl.ChangeDate(dir)
	if err != nil {
		log.Error().Err(err).Msg("Date change rejected")
		return m, nil
	}
	return m.request(req)
}

func (m consoleModel) savePrefs() {
	if m.store == nil {
		return
	}
	if err := m.store.Save(m.prefs); err != nil {
		log.Warn().Err(err).Msg("Failed to save console preferences")
	}
}
