package stats

import (
	"slices"

	"cgm-mcp/internal/cgm"
	"cgm-mcp/internal/profile"
)

// DailyShare is the percentage of one day's readings inside one band.
type DailyShare struct {
	Label   string  `json:"label"`
	Color   string  `json:"color"`
	Percent float64 `json:"percent"`
}

// DailyRanges is the per-band breakdown of a single calendar day.
type DailyRanges struct {
	Date     string       `json:"date"`
	Readings int          `json:"readings"`
	Shares   []DailyShare `json:"shares"`
}

// CalculateDailyRanges computes, for every date present in the series, the
// percentage of readings in each profile band. Bands are listed in reverse
// profile order so the highest band comes first when stacked.
func CalculateDailyRanges(series cgm.Series, p profile.PatientProfile) []DailyRanges {
	byDate := make(map[string][]float64)
	for _, r := range series {
		key := cgm.DateKey(r.Timestamp)
		byDate[key] = append(byDate[key], r.Value)
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	slices.Sort(dates)

	result := make([]DailyRanges, 0, len(dates))
	for _, d := range dates {
		values := byDate[d]
		counts := make([]int, len(p.Ranges))
		for _, v := range values {
			if idx := p.Match(v); idx >= 0 {
				counts[idx]++
			}
		}

		shares := make([]DailyShare, 0, len(p.Ranges))
		for i := len(p.Ranges) - 1; i >= 0; i-- {
			r := p.Ranges[i]
			shares = append(shares, DailyShare{
				Label:   r.DailyLabel,
				Color:   r.Color,
				Percent: float64(counts[i]) / float64(len(values)) * 100,
			})
		}

		result = append(result, DailyRanges{Date: d, Readings: len(values), Shares: shares})
	}
	return result
}
