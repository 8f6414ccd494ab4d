package insulin

import (
	"fmt"
	"math"
	"sort"

	"cgm-mcp/internal/cgm"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// ClusterSpan is the widest span in hours of one injection-time cluster.
	ClusterSpan = 2
	// MinClusterShare is the share of a category's injections a cluster needs
	// to be reported.
	MinClusterShare = 0.10
	// UnknownDoseStep is the rounding step in units for unknown dose groups.
	UnknownDoseStep = 5.0
)

// TimeCluster is a group of injections given around the same time of day.
type TimeCluster struct {
	Time     string  `json:"time"`
	Count    int     `json:"count"`
	Share    float64 `json:"share"`
	MeanDose float64 `json:"meanDose"`
}

// CategoryStats summarises the doses of one category.
type CategoryStats struct {
	Category Category      `json:"category"`
	Count    int           `json:"count"`
	MeanDose float64       `json:"meanDose"`
	MinDose  float64       `json:"minDose"`
	MaxDose  float64       `json:"maxDose"`
	Clusters []TimeCluster `json:"clusters"`
}

// DoseGroup counts unknown doses sharing a rounded size and hour of day.
type DoseGroup struct {
	Dose  float64 `json:"dose"`
	Hour  int     `json:"hour"`
	Count int     `json:"count"`
}

// Usage is the complete insulin usage summary.
type Usage struct {
	Source        Source           `json:"source"`
	Doses         []ClassifiedDose `json:"doses"`
	Categories    []CategoryStats  `json:"categories"`
	UnknownGroups []DoseGroup      `json:"unknownGroups"`
	Daily         *DailyStats      `json:"daily"`
}

// Summarize aggregates classified doses per category and per day.
// It returns nil when there are no doses.
func Summarize(doses []ClassifiedDose) *Usage {
	if len(doses) == 0 {
		return nil
	}

	return &Usage{
		Source:        doses[0].Source,
		Doses:         doses,
		Categories:    Aggregate(doses),
		UnknownGroups: GroupUnknown(doses),
		Daily:         SummarizeDaily(eventsOf(doses)),
	}
}

// Aggregate computes count, dose statistics and time clusters per category.
// Empty categories are omitted.
func Aggregate(doses []ClassifiedDose) []CategoryStats {
	var out []CategoryStats
	for _, cat := range Categories {
		var members []ClassifiedDose
		for _, d := range doses {
			if d.Category == cat {
				members = append(members, d)
			}
		}
		if len(members) == 0 {
			continue
		}

		values := make([]float64, len(members))
		for i, m := range members {
			values[i] = m.Dose
		}
		out = append(out, CategoryStats{
			Category: cat,
			Count:    len(members),
			MeanDose: stat.Mean(values, nil),
			MinDose:  floats.Min(values),
			MaxDose:  floats.Max(values),
			Clusters: ClusterTimes(members),
		})
	}
	return out
}

// ClusterTimes groups injections by hour bucket. Buckets are merged while
// they lie within ClusterSpan hours of the first bucket of the cluster. The
// sweep starts after the widest gap around the clock, so a cluster may cross
// midnight. Clusters below MinClusterShare are dropped; the rest are ordered
// by count.
func ClusterTimes(doses []ClassifiedDose) []TimeCluster {
	clusters := []TimeCluster{}
	if len(doses) == 0 {
		return clusters
	}

	var buckets [24][]ClassifiedDose
	for _, d := range doses {
		h := d.Timestamp.Hour()
		buckets[h] = append(buckets[h], d)
	}
	var used []int
	for h := range buckets {
		if len(buckets[h]) > 0 {
			used = append(used, h)
		}
	}

	// Rotate so the sweep starts right after the widest gap.
	start, widest := 0, -1
	for i, h := range used {
		next := used[(i+1)%len(used)]
		gap := next - h
		if gap <= 0 {
			gap += 24
		}
		if gap > widest {
			widest, start = gap, (i+1)%len(used)
		}
	}
	order := make([]int, len(used))
	for i := range used {
		h := used[(start+i)%len(used)]
		if h < used[start] {
			h += 24
		}
		order[i] = h
	}

	total := len(doses)
	for i := 0; i < len(order); {
		first := order[i]
		var hours, values []float64
		for ; i < len(order) && order[i]-first <= ClusterSpan; i++ {
			for _, d := range buckets[order[i]%24] {
				offset := 0.0
				if order[i] >= 24 {
					offset = 24
				}
				hours = append(hours, cgm.HourOfDay(d.Timestamp)+offset)
				values = append(values, d.Dose)
			}
		}

		share := float64(len(values)) / float64(total)
		if share < MinClusterShare {
			continue
		}
		clusters = append(clusters, TimeCluster{
			Time:     clockLabel(stat.Mean(hours, nil)),
			Count:    len(values),
			Share:    share,
			MeanDose: stat.Mean(values, nil),
		})
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].Count > clusters[j].Count
	})
	return clusters
}

// GroupUnknown groups unknown doses by size rounded to UnknownDoseStep and by
// hour of day, most frequent first.
func GroupUnknown(doses []ClassifiedDose) []DoseGroup {
	type key struct {
		dose float64
		hour int
	}
	counts := make(map[key]int)
	for _, d := range doses {
		if d.Category != CategoryUnknown {
			continue
		}
		k := key{math.Round(d.Dose/UnknownDoseStep) * UnknownDoseStep, d.Timestamp.Hour()}
		counts[k]++
	}

	groups := make([]DoseGroup, 0, len(counts))
	for k, n := range counts {
		groups = append(groups, DoseGroup{Dose: k.dose, Hour: k.hour, Count: n})
	}
	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.Hour != b.Hour {
			return a.Hour < b.Hour
		}
		return a.Dose < b.Dose
	})
	return groups
}

// clockLabel formats fractional hours as "HH:MM", wrapping at midnight.
func clockLabel(hours float64) string {
	minutes := int(math.Round(hours*60)) % (24 * 60)
	if minutes < 0 {
		minutes += 24 * 60
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
