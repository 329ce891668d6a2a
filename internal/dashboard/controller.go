package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/greensat/internal/model"
	"github.com/thatsimonsguy/greensat/internal/series"
	"github.com/thatsimonsguy/greensat/internal/status"
	"github.com/thatsimonsguy/greensat/internal/timerange"
)

var ErrInvalidDirection = errors.New("direction must be -1 or +1")

type Direction int

const (
	Backward Direction = -1
	Forward  Direction = 1
)

// Source is the read side of the data source API.
type Source interface {
	Limits(ctx context.Context) (model.Limits, error)
	Latest(ctx context.Context) (model.Measurement, error)
	History(ctx context.Context, r timerange.DateRange, mode timerange.ViewMode) ([]model.Measurement, error)
}

type Options struct {
	Location     *time.Location
	Window       int
	GasThreshold float64
	Now          func() time.Time
}

// HistoryRequest captures everything a history load needs at the moment it
// was issued. Only the request carrying the latest token may replace the series.
type HistoryRequest struct {
	Token uint64
	Mode  timerange.ViewMode
	Range timerange.DateRange
}

type HistoryResult struct {
	Request HistoryRequest
	Records []model.Measurement
	Err     error
}

type LiveResult struct {
	Snapshot model.Measurement
	Err      error
}

// Controller owns the navigation state and the series shown for it. Mode,
// reference date and chart selection change only through its methods; the
// series is replaced by ApplyHistory and extended by ApplyLive.
type Controller struct {
	src       Source
	loc       *time.Location
	now       func() time.Time
	window    int
	threshold float64

	boundaryOnce sync.Once

	mu       sync.Mutex
	boundary timerange.Boundary
	mode     timerange.ViewMode
	ref      time.Time
	chart    series.ChartMode
	series   *series.Series
	token    uint64
	built    uint64 // token of the request that produced series
	builtFor HistoryRequest
	skipped  int

	latest    *model.Measurement
	connected bool
	level     status.Level
}

func New(src Source, opts Options) *Controller {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Window <= 0 {
		opts.Window = 200
	}
	if opts.GasThreshold <= 0 {
		opts.GasThreshold = status.DefaultGasThreshold
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	c := &Controller{
		src:       src,
		loc:       opts.Location,
		now:       opts.Now,
		window:    opts.Window,
		threshold: opts.GasThreshold,
		mode:      timerange.ModeDay,
		chart:     series.ChartThermal,
		series:    series.New(),
		level:     status.Normal,
	}
	c.ref = c.clock()
	return c
}

func (c *Controller) clock() time.Time {
	return c.now().In(c.loc)
}

// Init loads the dataset boundary and the initial day view.
func (c *Controller) Init(ctx context.Context) bool {
	c.LoadBoundary(ctx)
	return c.Reload(ctx, c.Current())
}

// LoadBoundary fetches the earliest record date once per controller. Failures
// leave the boundary unknown, which never blocks backward navigation.
func (c *Controller) LoadBoundary(ctx context.Context) {
	c.boundaryOnce.Do(func() {
		limits, err := c.src.Limits(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to load dataset limits, backward navigation unrestricted")
			return
		}
		if limits.FirstDate == nil {
			log.Info().Msg("Data source is empty, no backward limit")
			return
		}
		first, err := timerange.ParseTimestamp(*limits.FirstDate, c.loc)
		if err != nil {
			log.Warn().Err(err).Msg("Ignoring unparsable first_date")
			return
		}
		c.mu.Lock()
		c.boundary = timerange.KnownBoundary(first)
		c.mu.Unlock()
		log.Info().Str("first_date", first.Format(timerange.WireLayout)).Msg("Dataset boundary loaded")
	})
}

// Current issues a request for the state as it is now, superseding any
// request still in flight.
func (c *Controller) Current() HistoryRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.issueLocked()
}

func (c *Controller) issueLocked() HistoryRequest {
	c.token++
	return HistoryRequest{
		Token: c.token,
		Mode:  c.mode,
		Range: timerange.Compute(c.mode, c.ref, c.clock()),
	}
}

// SwitchTimeRange changes the view mode and resets the reference date to now.
func (c *Controller) SwitchTimeRange(mode timerange.ViewMode) HistoryRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !mode.Valid() {
		log.Warn().Str("mode", string(mode)).Msg("Unknown view mode, falling back to day")
		mode = timerange.ModeDay
	}
	c.mode = mode
	c.ref = c.clock()
	req := c.issueLocked()
	log.Debug().Str("mode", string(mode)).Str("label", req.Range.Label).Msg("View mode switched")
	return req
}

// ChangeDate moves the reference date one unit of the current mode. Dataset
// limits are advisory and are not checked here.
func (c *Controller) ChangeDate(dir Direction) (HistoryRequest, error) {
	if dir != Backward && dir != Forward {
		return HistoryRequest{}, fmt.Errorf("%w: got %d", ErrInvalidDirection, int(dir))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ref = timerange.Shift(c.mode, c.ref, int(dir))
	req := c.issueLocked()
	log.Debug().Str("mode", string(c.mode)).Str("label", req.Range.Label).Int("direction", int(dir)).Msg("Date changed")
	return req, nil
}

// SwitchChart only changes the projection; no reload is needed.
func (c *Controller) SwitchChart(chart series.ChartMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chart = chart
}

// FetchHistory performs the network half of a history load. It touches no
// controller state so it can run off the event loop.
func (c *Controller) FetchHistory(ctx context.Context, req HistoryRequest) HistoryResult {
	records, err := c.src.History(ctx, req.Range, req.Mode)
	return HistoryResult{Request: req, Records: records, Err: err}
}

// ApplyHistory replaces the series with the fetched records. Results from a
// superseded request are dropped. A failed fetch leaves the series untouched,
// except on today's day view where the live feed takes over the series.
func (c *Controller) ApplyHistory(res HistoryResult) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if res.Request.Token != c.token {
		log.Debug().Uint64("token", res.Request.Token).Uint64("latest", c.token).Msg("Discarding stale history response")
		return false
	}
	if res.Err != nil {
		log.Error().Err(res.Err).
			Str("start", res.Request.Range.StartWire()).
			Str("end", res.Request.Range.EndWire()).
			Msg("History load failed")
		c.adoptForLiveLocked(res.Request)
		return false
	}

	s, skipped := series.Rebuild(res.Request.Mode, res.Records, c.loc)
	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Int("received", len(res.Records)).Msg("Skipped malformed history records")
	}
	c.series = s
	c.built = res.Request.Token
	c.builtFor = res.Request
	c.skipped = skipped
	log.Debug().Int("points", s.Len()).Str("label", res.Request.Range.Label).Msg("History loaded")
	return true
}

// adoptForLiveLocked lets live snapshots fill today's day view after its
// history load failed. A series already built for the same window is kept;
// anything else is replaced by an empty one.
func (c *Controller) adoptForLiveLocked(req HistoryRequest) {
	if req.Mode != timerange.ModeDay || !timerange.SameDay(req.Range.Start, c.clock()) {
		return
	}
	sameWindow := c.builtFor.Mode == req.Mode && c.builtFor.Range.Start.Equal(req.Range.Start)
	if c.built == 0 || !sameWindow {
		c.series = series.New()
		c.skipped = 0
	}
	c.built = req.Token
	c.builtFor = req
	log.Info().Msg("Live feed will fill today's view until history is reloaded")
}

// Reload fetches and applies in one call.
func (c *Controller) Reload(ctx context.Context, req HistoryRequest) bool {
	return c.ApplyHistory(c.FetchHistory(ctx, req))
}

func (c *Controller) PollLive(ctx context.Context) LiveResult {
	snap, err := c.src.Latest(ctx)
	return LiveResult{Snapshot: snap, Err: err}
}

// ApplyLive records the snapshot for the status panel and merges it into the
// series when the current day is on screen. A failure only flips the
// connectivity flag; the next poll gets another chance.
func (c *Controller) ApplyLive(res LiveResult) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if res.Err != nil {
		if c.connected {
			log.Warn().Err(res.Err).Msg("Live feed lost")
		} else {
			log.Debug().Err(res.Err).Msg("Live poll failed")
		}
		c.connected = false
		return false
	}

	snap := res.Snapshot
	c.latest = &snap
	c.connected = true
	c.level = status.Classify(snap.GazPct, c.threshold)

	// The series on screen must belong to the current request, otherwise a
	// history load for a different view is still pending.
	if c.built != c.token {
		return false
	}
	appended, err := series.MergeLive(c.series, c.mode, c.ref, c.clock(), snap, c.window)
	if err != nil {
		log.Warn().Err(err).Msg("Ignoring malformed live snapshot")
		return false
	}
	return appended
}
