package status

import (
	"math"

	"github.com/thatsimonsguy/greensat/internal/model"
)

// DefaultGasThreshold is the gas percentage above which the device is in danger.
const DefaultGasThreshold = 20.0

type Level string

const (
	Normal Level = "normal"
	Danger Level = "danger"
)

// Classify returns Danger only when gas strictly exceeds threshold.
func Classify(gas, threshold float64) Level {
	if gas > threshold {
		return Danger
	}
	return Normal
}

// Display is the console wording for a level.
func (l Level) Display() string {
	if l == Danger {
		return "CRITICAL"
	}
	return "NOMINAL"
}

// AQI prefers the device-reported air quality and falls back to gas * 1.5.
func AQI(m model.Measurement) float64 {
	if m.AirPct != nil {
		return *m.AirPct
	}
	return math.Round(m.GazPct * 1.5)
}

// Transition tracks the last classification so callers can react to edges only.
type Transition struct {
	last Level
}

// Observe records level and reports whether it is a fresh normal to danger edge.
func (t *Transition) Observe(level Level) bool {
	prev := t.last
	t.last = level
	return level == Danger && prev != Danger
}
