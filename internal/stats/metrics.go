package stats

import (
	"math"

	"cgm-mcp/internal/cgm"
	"cgm-mcp/internal/profile"
)

const (
	// GRILabel names the single GRI formulation reported by this package.
	GRILabel = "GRI (log-ratio): 100 x mean(ln(glucose/100)^2)"

	// DefaultMAGEThreshold is the multiple of the standard deviation an
	// excursion must exceed to count towards MAGE.
	DefaultMAGEThreshold = 1.0

	griHypoThreshold  = 70.0
	griHyperThreshold = 180.0
)

// RangeFraction is the share of readings that fell inside one profile band.
type RangeFraction struct {
	Label    string  `json:"label"`
	Color    string  `json:"color"`
	Count    int     `json:"count"`
	Fraction float64 `json:"fraction"`
}

// GlycemicMetrics summarises a glucose series against a patient profile.
type GlycemicMetrics struct {
	Profile           string          `json:"profile"`
	Readings          int             `json:"readings"`
	MeanGlucose       float64         `json:"meanGlucose"`
	StdDev            float64         `json:"stdDev"`
	Ranges            []RangeFraction `json:"ranges"`
	CV                Float           `json:"cv"`
	GMI               float64         `json:"gmi"`
	GRI               Float           `json:"gri"`
	GRILabel          string          `json:"griLabel"`
	GRIHypoComponent  float64         `json:"griHypoComponent"`
	GRIHyperComponent float64         `json:"griHyperComponent"`
	MAGE              float64         `json:"mage"`
	MAGEThreshold     float64         `json:"mageThreshold"`
}

// Fraction returns the share recorded for the given range label.
func (m *GlycemicMetrics) Fraction(label string) (float64, bool) {
	for _, r := range m.Ranges {
		if r.Label == label {
			return r.Fraction, true
		}
	}
	return 0, false
}

// CalculateGlycemicMetrics computes time in ranges, CV, GMI, GRI and MAGE.
// It returns nil when the series holds no readings.
func CalculateGlycemicMetrics(series cgm.Series, p profile.PatientProfile, mageThreshold float64) *GlycemicMetrics {
	if len(series) == 0 {
		return nil
	}

	values := series.Values()
	n := float64(len(values))
	mean := Mean(values)
	std := PopulationStdDev(values)

	ranges := make([]RangeFraction, len(p.Ranges))
	for i, r := range p.Ranges {
		ranges[i] = RangeFraction{Label: r.MetricLabel, Color: r.Color}
	}

	var logSum float64
	hypo, hyper := 0, 0
	for _, v := range values {
		if idx := p.Match(v); idx >= 0 {
			ranges[idx].Count++
		}

		l := math.Log(v / 100)
		logSum += l * l

		if v < griHypoThreshold {
			hypo++
		}
		if v > griHyperThreshold {
			hyper++
		}
	}
	for i := range ranges {
		ranges[i].Fraction = float64(ranges[i].Count) / n
	}

	cv := NaN()
	if mean != 0 {
		cv = Float(std / mean)
	}

	return &GlycemicMetrics{
		Profile:           p.Key,
		Readings:          len(values),
		MeanGlucose:       mean,
		StdDev:            std,
		Ranges:            ranges,
		CV:                cv,
		GMI:               3.31 + 0.02392*mean,
		GRI:               Float(logSum / n * 100),
		GRILabel:          GRILabel,
		GRIHypoComponent:  float64(hypo) / n,
		GRIHyperComponent: float64(hyper) / n,
		MAGE:              CalculateMAGE(values, mageThreshold),
		MAGEThreshold:     mageThreshold,
	}
}

// CalculateMAGE averages the absolute successive differences that exceed
// threshold times the population standard deviation of values.
// It returns 0 when no difference qualifies.
func CalculateMAGE(values []float64, threshold float64) float64 {
	if len(values) < 2 {
		return 0
	}

	cutoff := threshold * PopulationStdDev(values)

	var sum float64
	count := 0
	for i := 1; i < len(values); i++ {
		d := math.Abs(values[i] - values[i-1])
		if d > cutoff {
			sum += d
			count++
		}
	}

	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
