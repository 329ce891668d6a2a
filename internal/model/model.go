package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const wireLayout = "2006-01-02 15:04:05"

var ErrMalformedRecord = errors.New("malformed record")

// Measurement is one row of the mesures table as exchanged over HTTP.
// Snapshots from /api/data use the same shape; AirPct is optional there.
type Measurement struct {
	ID       int64    `json:"id,omitempty"`
	DateTime string   `json:"date_time"`
	Temp     float64  `json:"temp"`
	Hum      float64  `json:"hum"`
	GazPct   float64  `json:"gaz_pct"`
	Lux      float64  `json:"lux"`
	Press    float64  `json:"press"`
	AirPct   *float64 `json:"air_pct,omitempty"`
}

// Time parses DateTime as local wall-clock time in loc.
func (m Measurement) Time(loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(wireLayout, m.DateTime, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date_time %q", ErrMalformedRecord, m.DateTime)
	}
	return t, nil
}

// Validate checks the record shape before it reaches the series or the database.
func (m Measurement) Validate() error {
	if _, err := m.Time(time.UTC); err != nil {
		return err
	}
	for name, v := range map[string]float64{
		"temp":    m.Temp,
		"hum":     m.Hum,
		"gaz_pct": m.GazPct,
		"lux":     m.Lux,
		"press":   m.Press,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrMalformedRecord, name)
		}
	}
	if m.AirPct != nil && (math.IsNaN(*m.AirPct) || math.IsInf(*m.AirPct, 0)) {
		return fmt.Errorf("%w: air_pct is not finite", ErrMalformedRecord)
	}
	return nil
}

// Float is a convenience for filling optional fields.
func Float(v float64) *float64 { return &v }

// Limits is the /api/limits payload. Both dates are null on an empty table.
type Limits struct {
	FirstDate *string `json:"first_date"`
	LastDate  *string `json:"last_date"`
}

type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

// Prefs are the console preferences persisted between sessions.
type Prefs struct {
	Theme     Theme  `json:"theme"`
	ChartMode string `json:"chart_mode,omitempty"`
}
