package series

import (
	"fmt"
	"strings"
	"time"

	"github.com/thatsimonsguy/greensat/internal/model"
	"github.com/thatsimonsguy/greensat/internal/timerange"
)

type Metric int

const (
	Temp Metric = iota
	Hum
	Gas
	Press
	Lux
	numMetrics
)

var metricNames = [numMetrics]string{"TEMP", "HUM", "GAS", "PRES", "LUX"}

func (m Metric) String() string {
	if m < 0 || m >= numMetrics {
		return fmt.Sprintf("Metric(%d)", int(m))
	}
	return metricNames[m]
}

// Series holds index-aligned labels and per-metric values. Every mutation goes
// through append/evictOldest so the slices never drift apart.
type Series struct {
	labels []string
	values [numMetrics][]float64
}

func New() *Series { return &Series{} }

func (s *Series) Len() int { return len(s.labels) }

// LastLabel returns the newest label, or false when the series is empty.
func (s *Series) LastLabel() (string, bool) {
	if len(s.labels) == 0 {
		return "", false
	}
	return s.labels[len(s.labels)-1], true
}

func (s *Series) Labels() []string {
	return append([]string(nil), s.labels...)
}

func (s *Series) Values(m Metric) []float64 {
	if m < 0 || m >= numMetrics {
		return nil
	}
	return append([]float64(nil), s.values[m]...)
}

// Append adds one aligned point.
func (s *Series) Append(label string, rec model.Measurement) {
	s.labels = append(s.labels, label)
	s.values[Temp] = append(s.values[Temp], rec.Temp)
	s.values[Hum] = append(s.values[Hum], rec.Hum)
	s.values[Gas] = append(s.values[Gas], rec.GazPct)
	s.values[Press] = append(s.values[Press], rec.Press)
	s.values[Lux] = append(s.values[Lux], rec.Lux)
}

// EvictOldest drops the first entry of every aligned sequence.
func (s *Series) EvictOldest() {
	if len(s.labels) == 0 {
		return
	}
	s.labels = s.labels[1:]
	for i := range s.values {
		s.values[i] = s.values[i][1:]
	}
}

// LabelFor formats a record timestamp for the x axis of the given mode.
func LabelFor(mode timerange.ViewMode, t time.Time) string {
	switch mode {
	case timerange.ModeWeek:
		return fmt.Sprintf("%d/%d %dh", t.Day(), int(t.Month()), t.Hour())
	case timerange.ModeMonth:
		return fmt.Sprintf("%d/%d", t.Day(), int(t.Month()))
	case timerange.ModeYear:
		return fmt.Sprintf("%d/%d", int(t.Month()), t.Year())
	default:
		return t.Format("15:04")
	}
}

// Rebuild builds a fresh series from records in the order received. Records
// that fail validation are skipped and counted instead of corrupting the axis.
func Rebuild(mode timerange.ViewMode, records []model.Measurement, loc *time.Location) (*Series, int) {
	s := &Series{labels: make([]string, 0, len(records))}
	skipped := 0
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			skipped++
			continue
		}
		t, _ := rec.Time(loc)
		s.Append(LabelFor(mode, t), rec)
	}
	return s, skipped
}

// MergeLive appends a live snapshot when the view is the current day. It is a
// no-op for any other view, for a snapshot whose label equals the last label,
// and for a malformed snapshot (reported through the error). When the series
// grows past window the single oldest entry is evicted.
func MergeLive(s *Series, mode timerange.ViewMode, ref, now time.Time, snap model.Measurement, window int) (bool, error) {
	if mode != timerange.ModeDay || !timerange.SameDay(ref, now) {
		return false, nil
	}
	if err := snap.Validate(); err != nil {
		return false, err
	}
	t, _ := snap.Time(ref.Location())
	label := LabelFor(timerange.ModeDay, t)
	if last, ok := s.LastLabel(); ok && last == label {
		return false, nil
	}
	s.Append(label, snap)
	if window > 0 && s.Len() > window {
		s.EvictOldest()
	}
	return true, nil
}

type ChartMode string

const (
	ChartThermal ChartMode = "thermal"
	ChartAir     ChartMode = "air"
	ChartLight   ChartMode = "light"
)

var ChartModes = []ChartMode{ChartThermal, ChartAir, ChartLight}

func ParseChartMode(s string) (ChartMode, bool) {
	c := ChartMode(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case ChartThermal, ChartAir, ChartLight:
		return c, true
	}
	return ChartThermal, false
}

type Axis int

const (
	AxisPrimary Axis = iota
	AxisSecondary
)

// Dataset is one line handed to the renderer.
type Dataset struct {
	Metric Metric
	Color  string
	Axis   Axis
	Values []float64
}

func (d Dataset) Name() string { return d.Metric.String() }

// Project selects the metrics shown for chart. Pressure sits on its own axis
// because its magnitude dwarfs gas percentages.
func Project(s *Series, chart ChartMode) []Dataset {
	switch chart {
	case ChartAir:
		return []Dataset{
			{Metric: Gas, Color: "#00ffa3", Values: s.Values(Gas)},
			{Metric: Press, Color: "#b0b0b0", Axis: AxisSecondary, Values: s.Values(Press)},
		}
	case ChartLight:
		return []Dataset{
			{Metric: Lux, Color: "#ffb800", Values: s.Values(Lux)},
		}
	default:
		return []Dataset{
			{Metric: Temp, Color: "#ff2e5c", Values: s.Values(Temp)},
			{Metric: Hum, Color: "#2e5cff", Values: s.Values(Hum)},
		}
	}
}
