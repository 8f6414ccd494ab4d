package stats

import (
	"encoding/json"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Float is a float64 that encodes NaN and infinities as JSON null.
// It carries results that are undefined for degenerate input.
type Float float64

// NaN returns an undefined Float.
func NaN() Float {
	return Float(math.NaN())
}

// Valid reports whether f holds a finite value.
func (f Float) Valid() bool {
	v := float64(f)
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}

func (f *Float) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = NaN()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// Percentile returns the p-quantile (0..1) of an ascending slice using linear
// interpolation between closest ranks. It returns NaN for an empty slice.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 || p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// sortedCopy returns an ascending copy of values.
func sortedCopy(values []float64) []float64 {
	temp := slices.Clone(values)
	slices.Sort(temp)
	return temp
}

// Mean returns the arithmetic mean, or NaN for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return stat.Mean(values, nil)
}

// PopulationStdDev returns the standard deviation with an n denominator.
func PopulationStdDev(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	_, std := stat.PopMeanStdDev(values, nil)
	return std
}

// meanIgnoringNaN averages the defined values, or returns NaN when none are.
func meanIgnoringNaN(values []float64) float64 {
	defined := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			defined = append(defined, v)
		}
	}
	return Mean(defined)
}
