package stats

import (
	"testing"
	"time"

	"cgm-mcp/internal/cgm"
	"cgm-mcp/internal/profile"
)

var day0 = time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)

// seriesAt builds a series with one reading every step starting at start.
func seriesAt(start time.Time, step time.Duration, values ...float64) cgm.Series {
	s := make(cgm.Series, len(values))
	for i, v := range values {
		s[i] = cgm.Reading{Timestamp: start.Add(time.Duration(i) * step), Value: v}
	}
	return s
}

func mustProfile(t *testing.T, key string) profile.PatientProfile {
	t.Helper()
	c, err := profile.Builtin()
	if err != nil {
		t.Fatalf("Builtin() failed: %v", err)
	}
	p, err := c.Lookup(key)
	if err != nil {
		t.Fatalf("Lookup(%s) failed: %v", key, err)
	}
	return p
}

func allProfiles(t *testing.T) []profile.PatientProfile {
	t.Helper()
	c, err := profile.Builtin()
	if err != nil {
		t.Fatalf("Builtin() failed: %v", err)
	}
	return c.Profiles()
}
