package stats

import (
	"math"
	"reflect"
	"testing"
	"time"

	"cgm-mcp/internal/cgm"
)

func TestCorrelateInsulin_SingleDose(t *testing.T) {
	t0 := day0.Add(8 * time.Hour)
	series := seriesAt(t0.Add(-time.Hour), time.Hour, 200, 200, 200, 160, 160)
	doses := []cgm.InsulinEvent{{Timestamp: t0, Dose: 10}}

	pk := CorrelateInsulin(series, doses, DefaultCorrelationOptions())
	if pk.Status != StatusOK {
		t.Fatalf("expected ok, got %s (%s)", pk.Status, pk.Reason)
	}
	if pk.Matched != 1 {
		t.Errorf("matched = %d, want 1", pk.Matched)
	}
	if pk.PeakTime != 2 {
		t.Errorf("peak time = %v, want 2", pk.PeakTime)
	}
	if pk.Sensitivity != -4 {
		t.Errorf("sensitivity = %v, want -4", pk.Sensitivity)
	}
	if pk.ActionTime != 0 {
		t.Errorf("action time = %v, want 0", pk.ActionTime)
	}
	if pk.Duration != 3 {
		t.Errorf("duration = %v, want 3", pk.Duration)
	}
}

func TestCorrelateInsulin_WindowsEndAtNextDose(t *testing.T) {
	t0 := day0.Add(7 * time.Hour)
	series := seriesAt(t0, 30*time.Minute, 180, 170, 150, 140, 140, 135, 120, 100, 90)
	doses := []cgm.InsulinEvent{
		{Timestamp: t0.Add(2 * time.Hour), Dose: 5},
		{Timestamp: t0, Dose: 20},
	}

	pk := CorrelateInsulin(series, doses, DefaultCorrelationOptions())
	if pk.Matched != 2 {
		t.Fatalf("matched = %d, want 2", pk.Matched)
	}

	first, second := pk.Events[0], pk.Events[1]
	if first.Dose != 20 || second.Dose != 5 {
		t.Fatalf("events are not in chronological order: %+v", pk.Events)
	}
	// 07:00-08:30 belongs to the first dose; largest drop is -20 at 08:00
	if first.Readings != 4 || first.PeakTime != 1 || first.Sensitivity != -1 {
		t.Errorf("first dose: %+v", first)
	}
	// 09:00-11:00; largest drop is -20 at 10:30
	if second.Readings != 5 || second.PeakTime != 1.5 || second.Sensitivity != -4 {
		t.Errorf("second dose: %+v", second)
	}
	if math.Abs(float64(pk.Sensitivity)-(-2.5)) > 1e-12 {
		t.Errorf("mean sensitivity = %v, want -2.5", pk.Sensitivity)
	}
}

func TestCorrelateInsulin_InsufficientData(t *testing.T) {
	t0 := day0.Add(8 * time.Hour)
	series := seriesAt(t0, time.Hour, 150, 140)

	tests := []struct {
		name   string
		series cgm.Series
		doses  []cgm.InsulinEvent
	}{
		{"NoDoses", series, nil},
		{"NoGlucose", nil, []cgm.InsulinEvent{{Timestamp: t0, Dose: 4}}},
		// First reading after the dose is two hours later
		{"OutsideTolerance", series, []cgm.InsulinEvent{{Timestamp: t0.Add(-2 * time.Hour), Dose: 4}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pk := CorrelateInsulin(tt.series, tt.doses, DefaultCorrelationOptions())
			if pk.Status != StatusInsufficientData || pk.Reason == "" {
				t.Errorf("expected insufficient data with a reason, got %+v", pk)
			}
		})
	}
}

func TestCorrelateInsulin_NoGlucoseChange(t *testing.T) {
	t0 := day0.Add(8 * time.Hour)
	// The only reading opens the series, so no change is defined
	pk := CorrelateInsulin(seriesAt(t0, time.Hour, 150), []cgm.InsulinEvent{{Timestamp: t0, Dose: 3}}, DefaultCorrelationOptions())

	if pk.Status != StatusOK {
		t.Fatalf("expected ok (onset and duration are defined), got %s", pk.Status)
	}
	if pk.PeakTime.Valid() || pk.Sensitivity.Valid() {
		t.Errorf("expected undefined peak and sensitivity, got %v / %v", pk.PeakTime, pk.Sensitivity)
	}
}

func TestCorrelateInsulin_ZeroDoseSensitivityIsNaN(t *testing.T) {
	t0 := day0.Add(8 * time.Hour)
	series := seriesAt(t0.Add(-time.Hour), time.Hour, 200, 190, 170)
	pk := CorrelateInsulin(series, []cgm.InsulinEvent{{Timestamp: t0, Dose: 0}}, DefaultCorrelationOptions())

	if pk.Status != StatusOK {
		t.Fatalf("expected ok, got %s", pk.Status)
	}
	if pk.Sensitivity.Valid() {
		t.Errorf("sensitivity = %v, want NaN", pk.Sensitivity)
	}
	if pk.PeakTime != 1 {
		t.Errorf("peak time = %v, want 1", pk.PeakTime)
	}
}

func TestCorrelateMeals(t *testing.T) {
	t0 := day0.Add(12 * time.Hour)
	carbs := 60.0
	series := seriesAt(t0.Add(-30*time.Minute), 30*time.Minute, 110, 112, 140, 190, 200, 180, 150)
	meals := []cgm.MealEvent{{Timestamp: t0, Carbs: &carbs}}

	impact := CorrelateMeals(series, meals, DefaultCorrelationOptions())
	if impact.Status != StatusOK {
		t.Fatalf("expected ok, got %s (%s)", impact.Status, impact.Reason)
	}
	// changes in window: +2 (0h), +28 (0.5h), +50 (1h), +10 (1.5h), -20 (2h), -30 (2.5h)
	if impact.PeakTime != 1 || impact.PeakChange != 50 {
		t.Errorf("peak = %v h / %v mg/dL, want 1 h / 50", impact.PeakTime, impact.PeakChange)
	}
	if impact.ReturnToBaseline != 0 {
		t.Errorf("return to baseline = %v, want 0", impact.ReturnToBaseline)
	}
	if impact.Events[0].Carbs == nil || *impact.Events[0].Carbs != 60 {
		t.Errorf("carbs not carried through: %+v", impact.Events[0])
	}
}

func TestCorrelateMeals_Empty(t *testing.T) {
	impact := CorrelateMeals(seriesAt(day0, time.Hour, 100), nil, DefaultCorrelationOptions())
	if impact.Status != StatusInsufficientData {
		t.Errorf("expected insufficient data, got %s", impact.Status)
	}
}

func TestCorrelation_HorizonBoundsWindow(t *testing.T) {
	t0 := day0.Add(6 * time.Hour)
	series := seriesAt(t0, time.Hour, 150, 140, 130, 120, 110)
	opts := CorrelationOptions{Tolerance: time.Hour, Horizon: 2 * time.Hour}

	pk := CorrelateInsulin(series, []cgm.InsulinEvent{{Timestamp: t0, Dose: 2}}, opts)
	if pk.Duration != 2 {
		t.Errorf("duration = %v, want 2 (bounded by horizon)", pk.Duration)
	}
}

func TestCorrelation_Idempotent(t *testing.T) {
	t0 := day0.Add(6 * time.Hour)
	series := seriesAt(t0, 15*time.Minute, 150, 148, 140, 132, 120, 118, 119, 125, 160, 170, 150, 130)
	doses := []cgm.InsulinEvent{{Timestamp: t0, Dose: 6}, {Timestamp: t0.Add(2 * time.Hour), Dose: 4}}
	snapshot := append([]cgm.InsulinEvent(nil), doses...)

	a := CorrelateInsulin(series, doses, DefaultCorrelationOptions())
	b := CorrelateInsulin(series, doses, DefaultCorrelationOptions())
	if !reflect.DeepEqual(a, b) {
		t.Errorf("repeated calls differ")
	}
	if !reflect.DeepEqual(doses, snapshot) {
		t.Errorf("input doses were mutated")
	}
}

func TestCorrelateInsulin_SimultaneousDosesIgnoreOrder(t *testing.T) {
	t0 := day0.Add(8 * time.Hour)
	series := seriesAt(t0.Add(-time.Hour), time.Hour, 200, 200, 200, 160, 160)
	small := cgm.InsulinEvent{Timestamp: t0, Dose: 10}
	large := cgm.InsulinEvent{Timestamp: t0, Dose: 20}

	a := CorrelateInsulin(series, []cgm.InsulinEvent{small, large}, DefaultCorrelationOptions())
	b := CorrelateInsulin(series, []cgm.InsulinEvent{large, small}, DefaultCorrelationOptions())
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("result depends on input order:\n%+v\n%+v", a, b)
	}
	if a.Doses != 1 || a.Matched != 1 {
		t.Errorf("doses/matched = %d/%d, want 1/1", a.Doses, a.Matched)
	}
	if a.Events[0].Dose != 20 || a.Sensitivity != -2 {
		t.Errorf("dose %v sensitivity %v, want 20 and -2", a.Events[0].Dose, a.Sensitivity)
	}
}

func TestCorrelateMeals_SimultaneousMealsIgnoreOrder(t *testing.T) {
	t0 := day0.Add(12 * time.Hour)
	series := seriesAt(t0, 30*time.Minute, 110, 140, 190, 170)
	thirty, sixty := 30.0, 60.0
	meals := []cgm.MealEvent{{Timestamp: t0, Carbs: &thirty}, {Timestamp: t0}, {Timestamp: t0, Carbs: &sixty}}
	reversed := []cgm.MealEvent{meals[2], meals[1], meals[0]}

	a := CorrelateMeals(series, meals, DefaultCorrelationOptions())
	b := CorrelateMeals(series, reversed, DefaultCorrelationOptions())
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("result depends on input order:\n%+v\n%+v", a, b)
	}
	if a.Meals != 1 || a.Matched != 1 {
		t.Errorf("meals/matched = %d/%d, want 1/1", a.Meals, a.Matched)
	}
	if c := a.Events[0].Carbs; c == nil || *c != 60 {
		t.Errorf("expected the largest carbs to be kept, got %v", c)
	}
}
