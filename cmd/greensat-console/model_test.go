package main

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/greensat/internal/dashboard"
	"github.com/thatsimonsguy/greensat/internal/model"
	"github.com/thatsimonsguy/greensat/internal/timerange"
)

type fakeSource struct {
	history []model.Measurement
	latest  model.Measurement
	liveErr error
}

func (f *fakeSource) Limits(context.Context) (model.Limits, error) {
	first := "2024-01-01 00:00:00"
	return model.Limits{FirstDate: &first}, nil
}

func (f *fakeSource) Latest(context.Context) (model.Measurement, error) {
	return f.latest, f.liveErr
}

func (f *fakeSource) History(context.Context, timerange.DateRange, timerange.ViewMode) ([]model.Measurement, error) {
	return f.history, nil
}

type fakeStore struct {
	saved []model.Prefs
}

func (s *fakeStore) Save(p *model.Prefs) error {
	s.saved = append(s.saved, *p)
	return nil
}

var testNow = time.Date(2024, time.June, 12, 14, 30, 5, 0, time.UTC)

func newTestModel(t *testing.T, src *fakeSource) (consoleModel, *fakeStore) {
	t.Helper()
	ctrl := dashboard.New(src, dashboard.Options{
		Location: time.UTC,
		Now:      func() time.Time { return testNow },
	})
	st := &fakeStore{}
	m := newModel(ctrl, st, &model.Prefs{}, time.Second, time.Second)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(consoleModel), st
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModeKeyIssuesHistoryLoad(t *testing.T) {
	src := &fakeSource{history: []model.Measurement{
		{DateTime: "2024-06-10 08:00:00", Temp: 19.5, Hum: 60},
		{DateTime: "2024-06-11 08:00:00", Temp: 20.5, Hum: 58},
	}}
	m, _ := newTestModel(t, src)

	updated, cmd := m.Update(runes("w"))
	m = updated.(consoleModel)
	require.NotNil(t, cmd)
	assert.True(t, m.loading)
	assert.Equal(t, timerange.ModeWeek, m.ctrl.Mode())

	msg := cmd()
	res, ok := msg.(historyMsg)
	require.True(t, ok)
	assert.Equal(t, m.pending, res.Request.Token)

	updated, _ = m.Update(msg)
	m = updated.(consoleModel)
	assert.False(t, m.loading)
	assert.Equal(t, []string{"10/6 8h", "11/6 8h"}, m.ctrl.View().Labels)
}

func TestStaleHistoryIsIgnored(t *testing.T) {
	src := &fakeSource{history: []model.Measurement{{DateTime: "2024-06-12 08:00:00", Temp: 20}}}
	m, _ := newTestModel(t, src)

	updated, slow := m.Update(runes("m"))
	m = updated.(consoleModel)
	updated, fast := m.Update(runes("y"))
	m = updated.(consoleModel)

	updated, _ = m.Update(fast())
	m = updated.(consoleModel)
	labels := m.ctrl.View().Labels

	updated, _ = m.Update(slow())
	m = updated.(consoleModel)
	assert.Equal(t, labels, m.ctrl.View().Labels)
	assert.False(t, m.loading)
	assert.Equal(t, timerange.ModeYear, m.ctrl.Mode())
}

func TestArrowKeysChangeDate(t *testing.T) {
	m, _ := newTestModel(t, &fakeSource{})

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m = updated.(consoleModel)
	require.NotNil(t, cmd)
	assert.Equal(t, "2024-06-11", m.ctrl.Reference().Format("2006-01-02"))

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m = updated.(consoleModel)
	assert.Equal(t, "2024-06-12", m.ctrl.Reference().Format("2006-01-02"))
}

func TestThemeAndChartArePersisted(t *testing.T) {
	m, st := newTestModel(t, &fakeSource{})

	updated, _ := m.Update(runes("t"))
	m = updated.(consoleModel)
	updated, _ = m.Update(runes("2"))
	m = updated.(consoleModel)

	require.Len(t, st.saved, 2)
	assert.Equal(t, model.ThemeLight, st.saved[0].Theme)
	assert.Equal(t, "air", st.saved[1].ChartMode)
	assert.Equal(t, model.ThemeLight, m.prefs.Theme)
}

func TestLivePollUpdatesStatus(t *testing.T) {
	src := &fakeSource{latest: model.Measurement{DateTime: "2024-06-12 14:30:00", GazPct: 25}}
	m, _ := newTestModel(t, src)

	updated, _ := m.Update(m.pollCmd()())
	m = updated.(consoleModel)
	v := m.ctrl.View()
	assert.True(t, v.Connected)
	assert.Contains(t, m.renderStatus(v), "CRITICAL")

	src.liveErr = errors.New("connection refused")
	updated, _ = m.Update(m.pollCmd()())
	m = updated.(consoleModel)
	assert.Contains(t, m.renderStatus(m.ctrl.View()), "OFFLINE")
}

func TestPadOrTrunc(t *testing.T) {
	assert.Equal(t, "ab  ", padOrTrunc("ab", 4))
	assert.Equal(t, "abc", padOrTrunc("abcdef", 3))
	assert.Equal(t, "", padOrTrunc("abc", 0))
}
