package profile

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

var (
	// ErrUnknownProfile is returned when a profile key is not in the catalog.
	ErrUnknownProfile = errors.New("unknown profile")
	// ErrInvalidPartition is returned when a profile's ranges leave a gap or overlap.
	ErrInvalidPartition = errors.New("ranges do not partition the glucose domain")
)

// RangeDefinition is one glucose band of a profile. A missing bound means the
// band is unbounded on that side.
type RangeDefinition struct {
	MetricLabel  string   `yaml:"metric_label" json:"metricLabel"`
	DailyLabel   string   `yaml:"daily_label" json:"dailyLabel"`
	Min          *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max          *float64 `yaml:"max,omitempty" json:"max,omitempty"`
	IncludeLower bool     `yaml:"include_lower" json:"includeLower"`
	IncludeUpper bool     `yaml:"include_upper" json:"includeUpper"`
	Color        string   `yaml:"color" json:"color"`
}

// Contains reports whether v falls inside the band.
func (r RangeDefinition) Contains(v float64) bool {
	if r.Min != nil {
		if r.IncludeLower && v < *r.Min {
			return false
		}
		if !r.IncludeLower && v <= *r.Min {
			return false
		}
	}
	if r.Max != nil {
		if r.IncludeUpper && v > *r.Max {
			return false
		}
		if !r.IncludeUpper && v >= *r.Max {
			return false
		}
	}
	return true
}

func (r RangeDefinition) lower() float64 {
	if r.Min == nil {
		return math.Inf(-1)
	}
	return *r.Min
}

func (r RangeDefinition) clone() RangeDefinition {
	c := r
	if r.Min != nil {
		v := *r.Min
		c.Min = &v
	}
	if r.Max != nil {
		v := *r.Max
		c.Max = &v
	}
	return c
}

// TargetRange is the clinical target band of a profile in mg/dL.
type TargetRange struct {
	Lower float64 `yaml:"lower" json:"lower"`
	Upper float64 `yaml:"upper" json:"upper"`
}

// PatientProfile describes a patient population and its glucose bands.
type PatientProfile struct {
	Key            string            `yaml:"key" json:"key"`
	DisplayName    string            `yaml:"display_name" json:"displayName"`
	TargetRange    TargetRange       `yaml:"target_range" json:"targetRange"`
	Ranges         []RangeDefinition `yaml:"ranges" json:"ranges"`
	TargetsSummary string            `yaml:"targets_summary" json:"targetsSummary"`
	Recommendation string            `yaml:"recommendation" json:"recommendation"`
}

// Match returns the index of the range containing v, or -1.
func (p PatientProfile) Match(v float64) int {
	for i, r := range p.Ranges {
		if r.Contains(v) {
			return i
		}
	}
	return -1
}

// TargetBand returns the band that starts at the lower target bound.
func (p PatientProfile) TargetBand() (RangeDefinition, bool) {
	for _, r := range p.Ranges {
		if r.Min != nil && *r.Min == p.TargetRange.Lower {
			return r.clone(), true
		}
	}
	return RangeDefinition{}, false
}

// Validate checks that the ranges cover the whole real line exactly once:
// sorted by lower bound, each band must start where the previous one ends
// and exactly one of the two must include the shared boundary.
func (p PatientProfile) Validate() error {
	if p.Key == "" {
		return fmt.Errorf("profile without key")
	}
	if p.TargetRange.Lower >= p.TargetRange.Upper {
		return fmt.Errorf("profile %s: target range %.0f-%.0f is empty", p.Key, p.TargetRange.Lower, p.TargetRange.Upper)
	}
	if len(p.Ranges) == 0 {
		return fmt.Errorf("profile %s: %w: no ranges defined", p.Key, ErrInvalidPartition)
	}

	sorted := slices.Clone(p.Ranges)
	slices.SortStableFunc(sorted, func(a, b RangeDefinition) int {
		switch {
		case a.lower() < b.lower():
			return -1
		case a.lower() > b.lower():
			return 1
		}
		return 0
	})

	if sorted[0].Min != nil {
		return fmt.Errorf("profile %s: %w: nothing covers values below %.1f", p.Key, ErrInvalidPartition, *sorted[0].Min)
	}
	last := sorted[len(sorted)-1]
	if last.Max != nil {
		return fmt.Errorf("profile %s: %w: nothing covers values above %.1f", p.Key, ErrInvalidPartition, *last.Max)
	}

	for i, r := range sorted {
		if r.Min != nil && r.Max != nil && *r.Min >= *r.Max {
			return fmt.Errorf("profile %s: %w: range %q is empty", p.Key, ErrInvalidPartition, r.MetricLabel)
		}
		if i == 0 {
			continue
		}
		prev := sorted[i-1]
		if prev.Max == nil || r.Min == nil {
			return fmt.Errorf("profile %s: %w: %q overlaps %q", p.Key, ErrInvalidPartition, prev.MetricLabel, r.MetricLabel)
		}
		if *prev.Max != *r.Min {
			return fmt.Errorf("profile %s: %w: %q ends at %.1f but %q starts at %.1f", p.Key, ErrInvalidPartition, prev.MetricLabel, *prev.Max, r.MetricLabel, *r.Min)
		}
		if prev.IncludeUpper == r.IncludeLower {
			return fmt.Errorf("profile %s: %w: boundary %.1f between %q and %q must belong to exactly one range", p.Key, ErrInvalidPartition, *r.Min, prev.MetricLabel, r.MetricLabel)
		}
	}
	return nil
}

func (p PatientProfile) clone() PatientProfile {
	c := p
	c.Ranges = make([]RangeDefinition, len(p.Ranges))
	for i, r := range p.Ranges {
		c.Ranges[i] = r.clone()
	}
	return c
}
