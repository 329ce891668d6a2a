package timerange

import "time"

// Boundary is the earliest record the data source knows about. The zero value
// is an unknown boundary, which never blocks backward navigation.
type Boundary struct {
	Earliest time.Time
	Known    bool
}

func KnownBoundary(earliest time.Time) Boundary {
	return Boundary{Earliest: earliest, Known: true}
}

// CanGoForward is false once the displayed window reaches the current moment.
func CanGoForward(r DateRange, now time.Time) bool {
	return r.End.Before(now)
}

// CanGoBackward is false once the window starts at or before the earliest record.
func CanGoBackward(r DateRange, b Boundary) bool {
	return !b.Known || r.Start.After(b.Earliest)
}
