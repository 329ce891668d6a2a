package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/thatsimonsguy/greensat/internal/dashboard"
	"github.com/thatsimonsguy/greensat/internal/model"
	"github.com/thatsimonsguy/greensat/internal/series"
	"github.com/thatsimonsguy/greensat/internal/status"
)

const (
	headerHeight = 1
	footerHeight = 1
	columnWidth  = 12
)

type styles struct {
	header   lipgloss.Style
	footer   lipgloss.Style
	label    lipgloss.Style
	dim      lipgloss.Style
	ok       lipgloss.Style
	critical lipgloss.Style
	offline  lipgloss.Style
}

func stylesFor(theme model.Theme) styles {
	if theme == model.ThemeLight {
		return styles{
			header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("254")),
			footer:   lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("250")),
			label:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")),
			dim:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
			ok:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("28")),
			critical: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("160")),
			offline:  lipgloss.NewStyle().Foreground(lipgloss.Color("130")),
		}
	}
	return styles{
		header:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4")),
		footer:   lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8")),
		label:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")),
		dim:      lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		ok:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ffa3")),
		critical: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff2e5c")),
		offline:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	}
}

func (m consoleModel) View() string {
	if !m.ready {
		return "Loading..."
	}
	v := m.ctrl.View()

	back, fwd := "<", ">"
	if !v.CanGoBackward {
		back = " "
	}
	if !v.CanGoForward {
		fwd = " "
	}
	loading := ""
	if m.loading {
		loading = "  loading..."
	}
	headerText := fmt.Sprintf(" GREENSAT  %s %s %s    %s / %s%s ",
		back, v.Range.Label, fwd, strings.ToUpper(string(v.Mode)), strings.ToUpper(string(v.Chart)), loading)
	headerBar := m.styles.header.Render(padOrTrunc(headerText, m.width))

	footerLeft := " q quit  d/w/m/y range  left/right date  1/2/3 chart  t theme"
	footerRight := fmt.Sprintf("%.0f%% ", m.viewport.ScrollPercent()*100)
	gap := m.width - len(footerLeft) - len(footerRight)
	if gap < 0 {
		gap = 0
	}
	footerBar := m.styles.footer.Render(padOrTrunc(footerLeft+strings.Repeat(" ", gap)+footerRight, m.width))

	return headerBar + "\n" + m.viewport.View() + "\n" + footerBar
}

func (m consoleModel) renderContent(v dashboard.View) string {
	var b strings.Builder
	b.WriteString(m.renderStatus(v))
	b.WriteString("\n\n")
	b.WriteString(m.renderTable(v))
	return b.String()
}

func (m consoleModel) renderStatus(v dashboard.View) string {
	conn := m.styles.offline.Render("OFFLINE")
	if v.Connected {
		conn = m.styles.ok.Render("CONNECTED")
	}
	level := m.styles.ok.Render(v.Level.Display())
	if v.Level == status.Danger {
		level = m.styles.critical.Render(v.Level.Display())
	}

	lines := []string{fmt.Sprintf(" %s   %s", conn, level)}
	if v.Latest != nil {
		s := v.Latest
		lines = append(lines,
			fmt.Sprintf(" AQI %.0f   %s", v.AQI, m.styles.dim.Render(s.DateTime)),
			fmt.Sprintf(" TEMP %.1f°C  HUM %.1f%%  GAS %.1f%%  PRES %.1f hPa  LUX %.0f",
				s.Temp, s.Hum, s.GazPct, s.Press, s.Lux),
		)
	} else {
		lines = append(lines, m.styles.dim.Render(" waiting for live data"))
	}
	if v.Skipped > 0 {
		lines = append(lines, m.styles.dim.Render(fmt.Sprintf(" %d malformed records skipped", v.Skipped)))
	}
	return strings.Join(lines, "\n")
}

// renderTable lists the projected points newest first.
func (m consoleModel) renderTable(v dashboard.View) string {
	if len(v.Labels) == 0 {
		return m.styles.dim.Render(" no data for this period")
	}

	var b strings.Builder
	b.WriteString(" " + m.styles.label.Render(padOrTrunc("TIME", columnWidth)))
	for _, ds := range v.Datasets {
		name := ds.Name()
		if ds.Axis == series.AxisSecondary {
			name += " (R)"
		}
		b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ds.Color)).Render(padOrTrunc(name, columnWidth)))
	}
	b.WriteString("\n")

	for i := len(v.Labels) - 1; i >= 0; i-- {
		b.WriteString(" " + padOrTrunc(v.Labels[i], columnWidth))
		for _, ds := range v.Datasets {
			b.WriteString(padOrTrunc(fmt.Sprintf("%.1f", ds.Values[i]), columnWidth))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func padOrTrunc(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) > width {
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-len(r))
}
