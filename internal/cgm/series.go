package cgm

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Reading is a single sensor glucose sample in mg/dL.
type Reading struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Series is a time-ordered sequence of readings.
// Duplicate timestamps are allowed and kept.
type Series []Reading

// RawReading is a reading as delivered by ingestion, before coercion.
// Value wins over Raw when both are present.
type RawReading struct {
	Timestamp time.Time
	Value     *float64
	Raw       string
}

// InsulinEvent is a recorded insulin injection.
type InsulinEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Dose      float64   `json:"dose"`
}

// MealEvent is a recorded meal. Carbs is optional.
type MealEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Carbs     *float64  `json:"carbs,omitempty"`
}

// NewSeries coerces raw readings to numeric values, drops the ones that
// cannot be used and orders the rest by time. Equal timestamps keep their
// input order.
func NewSeries(raw []RawReading) Series {
	series := make(Series, 0, len(raw))
	for _, r := range raw {
		if r.Timestamp.IsZero() {
			continue
		}

		var value float64
		var ok bool
		if r.Value != nil {
			value, ok = *r.Value, usable(*r.Value)
		} else {
			value, ok = ParseValue(r.Raw)
		}
		if !ok {
			continue
		}

		series = append(series, Reading{Timestamp: r.Timestamp, Value: value})
	}

	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Timestamp.Before(series[j].Timestamp)
	})
	return series
}

// ParseValue converts a textual glucose value to mg/dL.
// Empty, non-numeric, non-finite and non-positive values are rejected.
func ParseValue(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, usable(v)
}

func usable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

// Values returns the glucose values in series order.
func (s Series) Values() []float64 {
	values := make([]float64, len(s))
	for i, r := range s {
		values[i] = r.Value
	}
	return values
}

// Span returns the first and last timestamps of the series.
func (s Series) Span() (time.Time, time.Time) {
	if len(s) == 0 {
		return time.Time{}, time.Time{}
	}
	return s[0].Timestamp, s[len(s)-1].Timestamp
}

// SortInsulin returns a time-ordered copy of the insulin events.
func SortInsulin(events []InsulinEvent) []InsulinEvent {
	out := make([]InsulinEvent, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// SortMeals returns a time-ordered copy of the meal events.
func SortMeals(events []MealEvent) []MealEvent {
	out := make([]MealEvent, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// HourOfDay returns the clock position of t as fractional hours in [0, 24).
func HourOfDay(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60.0 + float64(t.Second())/3600.0
}

// DateKey returns the calendar date of t in its own location.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
