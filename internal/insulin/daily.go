package insulin

import (
	"slices"
	"strings"

	"cgm-mcp/internal/cgm"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DailyDose is the insulin given on one calendar day.
type DailyDose struct {
	Date  string  `json:"date"`
	Total float64 `json:"total"`
	Mean  float64 `json:"mean"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// DailyStats summarises insulin use across days.
type DailyStats struct {
	Days              []DailyDose `json:"days"`
	DaysAnalysed      int         `json:"daysAnalysed"`
	AverageDailyTotal float64     `json:"averageDailyTotal"`
	AverageDose       float64     `json:"averageDose"`
	AverageDailyMax   float64     `json:"averageDailyMax"`
	AverageDailyCount float64     `json:"averageDailyCount"`
	MaxDailyTotal     float64     `json:"maxDailyTotal"`
	MaxSingleDose     float64     `json:"maxSingleDose"`
	MaxDailyCount     int         `json:"maxDailyCount"`
}

// SummarizeDaily groups doses by calendar date. It returns nil when there are
// no doses.
func SummarizeDaily(doses []cgm.InsulinEvent) *DailyStats {
	if len(doses) == 0 {
		return nil
	}

	byDate := make(map[string][]float64)
	for _, d := range doses {
		key := cgm.DateKey(d.Timestamp)
		byDate[key] = append(byDate[key], d.Dose)
	}

	res := &DailyStats{}
	for date, values := range byDate {
		res.Days = append(res.Days, DailyDose{
			Date:  date,
			Total: floats.Sum(values),
			Mean:  stat.Mean(values, nil),
			Max:   floats.Max(values),
			Count: len(values),
		})
	}
	slices.SortFunc(res.Days, func(a, b DailyDose) int {
		return strings.Compare(a.Date, b.Date)
	})

	n := len(res.Days)
	totals, means, maxima, counts := make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
	for i, d := range res.Days {
		totals[i], means[i], maxima[i], counts[i] = d.Total, d.Mean, d.Max, float64(d.Count)
		res.MaxDailyCount = max(res.MaxDailyCount, d.Count)
	}

	res.DaysAnalysed = n
	res.AverageDailyTotal = stat.Mean(totals, nil)
	res.AverageDose = stat.Mean(means, nil)
	res.AverageDailyMax = stat.Mean(maxima, nil)
	res.AverageDailyCount = stat.Mean(counts, nil)
	res.MaxDailyTotal = floats.Max(totals)
	res.MaxSingleDose = floats.Max(maxima)
	return res
}

func eventsOf(doses []ClassifiedDose) []cgm.InsulinEvent {
	out := make([]cgm.InsulinEvent, len(doses))
	for i, d := range doses {
		out[i] = d.InsulinEvent
	}
	return out
}
