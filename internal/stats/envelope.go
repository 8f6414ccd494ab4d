package stats

import (
	"fmt"
	"slices"
	"strings"

	"cgm-mcp/internal/cgm"
)

// Variability classifies the average width of an AGP band.
type Variability string

const (
	VariabilityLow      Variability = "low"
	VariabilityModerate Variability = "moderate"
	VariabilityHigh     Variability = "high"
)

// Band width thresholds in mg/dL. Values on a threshold belong to the outer class.
const (
	IQRLowThreshold  = 30.0
	IQRHighThreshold = 45.0
	IDRLowThreshold  = 80.0
	IDRHighThreshold = 120.0
)

// EnvelopeBranch identifies which interpretation applies to a pair of band classes.
type EnvelopeBranch string

const (
	BranchBothWide EnvelopeBranch = "both-wide"
	BranchIQRWide  EnvelopeBranch = "iqr-wide"
	BranchIDRWide  EnvelopeBranch = "idr-wide"
	BranchStable   EnvelopeBranch = "stable"
)

// EnvelopeBucket holds the AGP percentiles of one minute of the day.
type EnvelopeBucket struct {
	TimeOfDay string  `json:"timeOfDay"`
	Count     int     `json:"count"`
	P5        float64 `json:"p5"`
	P25       float64 `json:"p25"`
	P50       float64 `json:"p50"`
	P75       float64 `json:"p75"`
	P95       float64 `json:"p95"`
	IQR       float64 `json:"iqr"`
	IDR       float64 `json:"idr"`
}

// PeakWindow is the time of day where a band is widest.
type PeakWindow struct {
	TimeOfDay string  `json:"timeOfDay"`
	Width     float64 `json:"width"`
}

// EnvelopeResult is the Ambulatory Glucose Profile of a series.
type EnvelopeResult struct {
	Buckets    []EnvelopeBucket `json:"buckets"`
	IQRAverage float64          `json:"iqrAverage"`
	IDRAverage float64          `json:"idrAverage"`
	IQRStatus  Variability      `json:"iqrStatus"`
	IDRStatus  Variability      `json:"idrStatus"`
	IQRPeak    PeakWindow       `json:"iqrPeak"`
	IDRPeak    PeakWindow       `json:"idrPeak"`
	Branch     EnvelopeBranch   `json:"branch"`
	Summary    string           `json:"summary"`
}

// AnalyzeEnvelope buckets readings by "HH:MM" across all days and derives the
// percentile bands, their widths and the variability classification.
// It returns nil when the series is empty.
func AnalyzeEnvelope(series cgm.Series) *EnvelopeResult {
	if len(series) == 0 {
		return nil
	}

	groups := make(map[string][]float64)
	for _, r := range series {
		key := r.Timestamp.Format("15:04")
		groups[key] = append(groups[key], r.Value)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	buckets := make([]EnvelopeBucket, 0, len(keys))
	var iqrSum, idrSum float64
	for _, k := range keys {
		sorted := sortedCopy(groups[k])
		b := EnvelopeBucket{
			TimeOfDay: k,
			Count:     len(sorted),
			P5:        Percentile(sorted, 0.05),
			P25:       Percentile(sorted, 0.25),
			P50:       Percentile(sorted, 0.50),
			P75:       Percentile(sorted, 0.75),
			P95:       Percentile(sorted, 0.95),
		}
		b.IQR = b.P75 - b.P25
		b.IDR = b.P95 - b.P5
		iqrSum += b.IQR
		idrSum += b.IDR
		buckets = append(buckets, b)
	}

	res := &EnvelopeResult{
		Buckets:    buckets,
		IQRAverage: iqrSum / float64(len(buckets)),
		IDRAverage: idrSum / float64(len(buckets)),
		IQRPeak:    widest(buckets, func(b EnvelopeBucket) float64 { return b.IQR }),
		IDRPeak:    widest(buckets, func(b EnvelopeBucket) float64 { return b.IDR }),
	}
	res.IQRStatus = ClassifyIQR(res.IQRAverage)
	res.IDRStatus = ClassifyIDR(res.IDRAverage)
	res.Branch = SelectBranch(res.IQRStatus, res.IDRStatus)
	res.Summary = DescribeEnvelope(res)
	return res
}

// widest returns the first bucket, in chronological order, with the largest width.
func widest(buckets []EnvelopeBucket, width func(EnvelopeBucket) float64) PeakWindow {
	var peak PeakWindow
	for i, b := range buckets {
		if w := width(b); i == 0 || w > peak.Width {
			peak = PeakWindow{TimeOfDay: b.TimeOfDay, Width: w}
		}
	}
	return peak
}

func classify(value, low, high float64) Variability {
	if value <= low {
		return VariabilityLow
	}
	if value >= high {
		return VariabilityHigh
	}
	return VariabilityModerate
}

// ClassifyIQR maps an average interquartile width to a variability class.
func ClassifyIQR(avg float64) Variability {
	return classify(avg, IQRLowThreshold, IQRHighThreshold)
}

// ClassifyIDR maps an average 5-95 width to a variability class.
func ClassifyIDR(avg float64) Variability {
	return classify(avg, IDRLowThreshold, IDRHighThreshold)
}

// SelectBranch picks the interpretation for a pair of band classes.
func SelectBranch(iqr, idr Variability) EnvelopeBranch {
	switch {
	case iqr == VariabilityHigh && idr == VariabilityHigh:
		return BranchBothWide
	case iqr == VariabilityHigh:
		return BranchIQRWide
	case idr == VariabilityHigh:
		return BranchIDRWide
	default:
		return BranchStable
	}
}

var widthLabels = map[Variability]string{
	VariabilityLow:      "narrow",
	VariabilityModerate: "moderate",
	VariabilityHigh:     "wide",
}

var branchObservations = map[EnvelopeBranch][]string{
	BranchBothWide: {
		"• IQR and IDR are both wide: treatment settings and lifestyle are jointly driving large swings.",
		"  - Treatment: check basal and bolus totals, carbohydrate ratios and correction factors.",
		"  - Behaviour: strengthen meal coverage, regular meal times and compensation for exercise and alcohol.",
	},
	BranchIQRWide: {
		"• IQR is wide while IDR is contained: treatment parameters likely need fine-tuning.",
		"  - Review whether basal and pre-meal doses match requirements.",
		"  - Check whether carbohydrate ratios and correction factors are too weak or too strong.",
		"  - Assess whether injection timing, schedule changes or shift work reshape the daily pattern.",
	},
	BranchIDRWide: {
		"• IQR is stable but IDR is wide: sporadic events cause spikes.",
		"  - Confirm meals are fully covered and injection timing fits the meal.",
		"  - Look for irregular meals, extra snacks, exercise or alcohol without matching adjustments.",
		"  - Record occasional medication (such as steroids) or stress episodes and adapt the plan.",
	},
	BranchStable: {
		"• IQR and IDR are both contained: the pattern is stable.",
		"• Keep the current treatment and routine and continue regular reviews.",
	},
}

// DescribeEnvelope renders the fixed interpretation of an envelope result.
func DescribeEnvelope(res *EnvelopeResult) string {
	lines := []string{
		fmt.Sprintf("**IQR/IDR observation**: IQR about %.0f mg/dL (%s), IDR about %.0f mg/dL (%s).",
			res.IQRAverage, widthLabels[res.IQRStatus], res.IDRAverage, widthLabels[res.IDRStatus]),
	}
	if res.IQRPeak.TimeOfDay != "" {
		lines = append(lines, fmt.Sprintf("- Widest IQR window: %s (about %.0f mg/dL)", res.IQRPeak.TimeOfDay, res.IQRPeak.Width))
	}
	if res.IDRPeak.TimeOfDay != "" {
		lines = append(lines, fmt.Sprintf("- Widest IDR window: %s (about %.0f mg/dL)", res.IDRPeak.TimeOfDay, res.IDRPeak.Width))
	}
	lines = append(lines, branchObservations[res.Branch]...)
	return strings.Join(lines, "\n")
}
