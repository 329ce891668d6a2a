package dashboard

import (
	"time"

	"github.com/thatsimonsguy/greensat/internal/model"
	"github.com/thatsimonsguy/greensat/internal/series"
	"github.com/thatsimonsguy/greensat/internal/status"
	"github.com/thatsimonsguy/greensat/internal/timerange"
)

// View is a copy of everything a renderer needs, safe to use after the lock
// is released.
type View struct {
	Mode     timerange.ViewMode
	Chart    series.ChartMode
	Range    timerange.DateRange
	Boundary timerange.Boundary

	CanGoBackward bool
	CanGoForward  bool

	Labels   []string
	Datasets []series.Dataset
	Skipped  int

	Latest    *model.Measurement
	Connected bool
	Level     status.Level
	AQI       float64
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	r := timerange.Compute(c.mode, c.ref, now)
	v := View{
		Mode:          c.mode,
		Chart:         c.chart,
		Range:         r,
		Boundary:      c.boundary,
		CanGoBackward: timerange.CanGoBackward(r, c.boundary),
		CanGoForward:  timerange.CanGoForward(r, now),
		Labels:        c.series.Labels(),
		Datasets:      series.Project(c.series, c.chart),
		Skipped:       c.skipped,
		Connected:     c.connected,
		Level:         c.level,
	}
	if c.latest != nil {
		snap := *c.latest
		v.Latest = &snap
		v.AQI = status.AQI(snap)
	}
	return v
}

// Mode and Reference are exposed for callers that only need the anchor.
func (c *Controller) Mode() timerange.ViewMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Controller) Reference() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ref
}
