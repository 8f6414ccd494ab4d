package report

import (
	"fmt"
	"time"

	"cgm-mcp/internal/eventlog"
)

// Window bounds the analysed period. Zero values leave a side open; both
// bounds are inclusive.
type Window struct {
	Start time.Time `json:"start,omitzero"`
	End   time.Time `json:"end,omitzero"`
}

// ParseWindow parses optional start and end bounds. A bare date as end covers
// the whole day.
func ParseWindow(start, end string) (Window, error) {
	var w Window
	var err error
	if start != "" {
		if w.Start, err = parseBound(start); err != nil {
			return Window{}, fmt.Errorf("invalid start: %w", err)
		}
	}
	if end != "" {
		if w.End, err = parseBound(end); err != nil {
			return Window{}, fmt.Errorf("invalid end: %w", err)
		}
		if len(end) == len(time.DateOnly) {
			w.End = w.End.Add(24*time.Hour - time.Microsecond)
		}
	}
	if !w.Start.IsZero() && !w.End.IsZero() && w.End.Before(w.Start) {
		return Window{}, fmt.Errorf("window end %s is before start %s", end, start)
	}
	return w, nil
}

func parseBound(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return eventlog.ParseTime(s)
}
