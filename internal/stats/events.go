package stats

import (
	"slices"
	"strings"

	"cgm-mcp/internal/cgm"
)

// Fixed event thresholds in mg/dL. Comparisons are strict.
const (
	LowThreshold      = 70.0
	VeryLowThreshold  = 54.0
	HighThreshold     = 180.0
	VeryHighThreshold = 250.0
)

// DateCount is the number of matching readings on a calendar day.
type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// EventTier holds the readings beyond one threshold and their distribution.
type EventTier struct {
	Label     string      `json:"label"`
	Threshold float64     `json:"threshold"`
	Total     int         `json:"total"`
	ByDate    []DateCount `json:"byDate"`
	ByHour    [24]int     `json:"byHour"`
	Readings  cgm.Series  `json:"-"`
}

// HypoglycemiaEvents groups readings below the low and very low thresholds.
type HypoglycemiaEvents struct {
	Low     EventTier `json:"low"`
	VeryLow EventTier `json:"veryLow"`
}

// HyperglycemiaEvents groups readings above the high and very high thresholds.
type HyperglycemiaEvents struct {
	High     EventTier `json:"high"`
	VeryHigh EventTier `json:"veryHigh"`
}

// ExtractHypoglycemia isolates readings strictly below 70 and 54 mg/dL.
func ExtractHypoglycemia(series cgm.Series) HypoglycemiaEvents {
	return HypoglycemiaEvents{
		Low:     extractTier(series, "< 70 mg/dL", LowThreshold, func(v float64) bool { return v < LowThreshold }),
		VeryLow: extractTier(series, "< 54 mg/dL", VeryLowThreshold, func(v float64) bool { return v < VeryLowThreshold }),
	}
}

// ExtractHyperglycemia isolates readings strictly above 180 and 250 mg/dL.
func ExtractHyperglycemia(series cgm.Series) HyperglycemiaEvents {
	return HyperglycemiaEvents{
		High:     extractTier(series, "> 180 mg/dL", HighThreshold, func(v float64) bool { return v > HighThreshold }),
		VeryHigh: extractTier(series, "> 250 mg/dL", VeryHighThreshold, func(v float64) bool { return v > VeryHighThreshold }),
	}
}

func extractTier(series cgm.Series, label string, threshold float64, match func(float64) bool) EventTier {
	tier := EventTier{Label: label, Threshold: threshold, ByDate: []DateCount{}}

	byDate := make(map[string]int)
	for _, r := range series {
		if !match(r.Value) {
			continue
		}
		tier.Readings = append(tier.Readings, r)
		tier.ByHour[r.Timestamp.Hour()]++
		byDate[cgm.DateKey(r.Timestamp)]++
	}
	tier.Total = len(tier.Readings)

	for d, c := range byDate {
		tier.ByDate = append(tier.ByDate, DateCount{Date: d, Count: c})
	}
	slices.SortFunc(tier.ByDate, func(a, b DateCount) int {
		return strings.Compare(a.Date, b.Date)
	})
	return tier
}
