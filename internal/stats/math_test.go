package stats

import (
	"encoding/json"
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		p        float64
		expected float64
	}{
		{"SingleItem", []float64{5.5}, 0.95, 5.5},
		{"Median", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"Quartile", []float64{1, 2, 3, 4, 5}, 0.25, 2},
		{"Interpolated", []float64{10, 20, 30, 40, 50}, 0.05, 12},
		{"Top", []float64{10, 20, 30, 40, 50}, 0.95, 48},
		{"Constant", []float64{120, 120, 120}, 0.75, 120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percentile(tt.values, tt.p); math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Percentile() = %v, want %v", got, tt.expected)
			}
		})
	}

	if !math.IsNaN(Percentile(nil, 0.5)) {
		t.Errorf("expected NaN for empty input")
	}
}

func TestPopulationStdDev(t *testing.T) {
	got := PopulationStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if math.Abs(got-2.0) > 1e-9 {
		t.Errorf("PopulationStdDev() = %v, want 2", got)
	}
	if got := PopulationStdDev([]float64{120, 120, 120}); got != 0 {
		t.Errorf("PopulationStdDev(constant) = %v, want 0", got)
	}
}

func TestFloat_JSON(t *testing.T) {
	payload := struct {
		A Float `json:"a"`
		B Float `json:"b"`
	}{A: 1.5, B: NaN()}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `{"a":1.5,"b":null}` {
		t.Errorf("unexpected encoding: %s", data)
	}

	var back struct {
		A Float `json:"a"`
		B Float `json:"b"`
	}
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if back.A != 1.5 || back.B.Valid() {
		t.Errorf("unexpected decode: %+v", back)
	}
}
