package timerange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanGoForward(t *testing.T) {
	r := Compute(ModeDay, date(2024, time.June, 12), date(2024, time.June, 12))

	assert.False(t, CanGoForward(r, r.End.Add(-time.Second)), "window still open")
	assert.False(t, CanGoForward(r, r.End), "window ends exactly now")
	assert.True(t, CanGoForward(r, r.End.Add(time.Second)))
	assert.True(t, CanGoForward(r, date(2025, time.January, 1)))
}

func TestCanGoBackward(t *testing.T) {
	r := Compute(ModeMonth, date(2024, time.February, 15), date(2026, time.January, 1))

	assert.True(t, CanGoBackward(r, Boundary{}), "unknown boundary never blocks")
	assert.True(t, CanGoBackward(Compute(ModeYear, date(1970, time.January, 1), date(2026, time.January, 1)), Boundary{}))

	assert.True(t, CanGoBackward(r, KnownBoundary(r.Start.Add(-time.Second))))
	assert.False(t, CanGoBackward(r, KnownBoundary(r.Start)))
	assert.False(t, CanGoBackward(r, KnownBoundary(r.Start.Add(48*time.Hour))))
}
