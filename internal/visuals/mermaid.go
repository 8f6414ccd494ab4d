package visuals

import (
	"fmt"
	"math"
	"strings"

	"cgm-mcp/internal/stats"
)

// maxDays caps the number of days drawn in a daily chart.
const maxDays = 31

// GenerateAGPChart creates a Mermaid xychart-beta for the AGP envelope. Buckets
// are averaged per hour of day; the lines are P5, P25, P50, P75 and P95.
func GenerateAGPChart(res *stats.EnvelopeResult) string {
	if res == nil || len(res.Buckets) == 0 {
		return ""
	}

	type acc struct {
		n    int
		sums [5]float64 // P5, P25, P50, P75, P95
	}
	var hours [24]acc
	for _, b := range res.Buckets {
		var h int
		if _, err := fmt.Sscanf(b.TimeOfDay, "%d:", &h); err != nil || h < 0 || h > 23 {
			continue
		}
		a := &hours[h]
		a.n++
		for i, v := range []float64{b.P5, b.P25, b.P50, b.P75, b.P95} {
			a.sums[i] += v
		}
	}

	var labels []string
	lines := make([][]string, 5)
	maxY := 0.0
	for h, a := range hours {
		if a.n == 0 {
			continue
		}
		labels = append(labels, fmt.Sprintf("\"%02d\"", h))
		for i, sum := range a.sums {
			lines[i] = append(lines[i], fmt.Sprintf("%.1f", sum/float64(a.n)))
		}
		maxY = math.Max(maxY, a.sums[4]/float64(a.n))
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Ambulatory Glucose Profile (P5/P25/P50/P75/P95)\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Glucose (mg/dL)\" 0 --> %d\n", int(math.Ceil(math.Max(maxY, 180)*1.1))))
	for _, line := range lines {
		sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(line, ", ")))
	}
	sb.WriteString("```")
	return sb.String()
}

// GenerateDailyRangeChart creates a Mermaid bar chart with the share of each
// day spent in the band with the given label (usually the target range).
func GenerateDailyRangeChart(days []stats.DailyRanges, label string) string {
	if len(days) == 0 {
		return ""
	}
	if len(days) > maxDays {
		days = days[len(days)-maxDays:]
	}

	var labels []string
	var values []string
	for _, d := range days {
		pct := 0.0
		for _, s := range d.Shares {
			if s.Label == label {
				pct = s.Percent
			}
		}
		// "2024-05-06" -> "05-06"
		labels = append(labels, fmt.Sprintf("\"%s\"", d.Date[5:]))
		values = append(values, fmt.Sprintf("%.1f", pct))
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"Daily %s\"\n", label))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString("    y-axis \"Percent of Readings\" 0 --> 100\n")
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateHourlyEventChart creates a Mermaid bar chart of event readings per
// hour of day.
func GenerateHourlyEventChart(tier stats.EventTier) string {
	if tier.Total == 0 {
		return ""
	}

	var labels []string
	var values []string
	maxVal := 0
	for h, count := range tier.ByHour {
		labels = append(labels, fmt.Sprintf("\"%02d\"", h))
		values = append(values, fmt.Sprintf("%d", count))
		maxVal = max(maxVal, count)
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"Readings %s by Hour of Day\"\n", tier.Label))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Readings\" 0 --> %d\n", maxVal+int(math.Max(1, float64(maxVal)*0.2))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}
