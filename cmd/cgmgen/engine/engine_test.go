package engine

import (
	"reflect"
	"testing"
	"time"

	"cgm-mcp/internal/eventlog"
	"cgm-mcp/internal/profile"
	"cgm-mcp/internal/stats"
)

var now = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func generate(t *testing.T, scenario string, days int) eventlog.Dataset {
	t.Helper()
	events, err := Generate(GeneratorConfig{Scenario: scenario, Days: days, Seed: 7, Now: now})
	if err != nil {
		t.Fatalf("Generate(%s) failed: %v", scenario, err)
	}
	return eventlog.BuildDataset(events)
}

func TestGenerate_Shape(t *testing.T) {
	ds := generate(t, "stable", 3)

	if len(ds.Glucose) != 3*288 {
		t.Errorf("expected %d readings, got %d", 3*288, len(ds.Glucose))
	}
	if len(ds.Meals) != 9 {
		t.Errorf("expected 3 meals per day, got %d", len(ds.Meals))
	}
	// Stable scenario never skips a bolus: 3 boluses and 1 basal per day.
	if len(ds.Insulin) != 12 {
		t.Errorf("expected 12 doses, got %d", len(ds.Insulin))
	}

	first, last := ds.Glucose.Span()
	if !first.Equal(time.Date(2024, 5, 29, 0, 0, 0, 0, time.UTC)) || !last.Before(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected span %v - %v", first, last)
	}
	for _, r := range ds.Glucose {
		if r.Value < 40 || r.Value > 400 {
			t.Fatalf("reading out of sensor range: %+v", r)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	cfg := GeneratorConfig{Scenario: "variable", Days: 2, Seed: 42, Now: now}
	a, _ := Generate(cfg)
	b, _ := Generate(cfg)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("same seed must produce the same events")
	}
}

func TestGenerate_ScenariosDiffer(t *testing.T) {
	catalog, err := profile.Builtin()
	if err != nil {
		t.Fatal(err)
	}
	p, _ := catalog.Lookup("T1DM")

	stable := stats.CalculateGlycemicMetrics(generate(t, "stable", 14).Glucose, p, stats.DefaultMAGEThreshold)
	variable := stats.CalculateGlycemicMetrics(generate(t, "variable", 14).Glucose, p, stats.DefaultMAGEThreshold)
	hypo := stats.ExtractHypoglycemia(generate(t, "hypo", 14).Glucose)

	if float64(stable.CV) >= float64(variable.CV) {
		t.Errorf("expected variable CV above stable CV, got %.3f vs %.3f", float64(variable.CV), float64(stable.CV))
	}
	if hypo.Low.Total == 0 {
		t.Errorf("expected readings below 70 mg/dL in the hypo scenario")
	}
}

func TestGenerate_UnknownScenario(t *testing.T) {
	if _, err := Generate(GeneratorConfig{Scenario: "chaos"}); err == nil {
		t.Errorf("expected an error for an unknown scenario")
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	events, _ := Generate(GeneratorConfig{Scenario: "hypo", Days: 1, Seed: 1, Now: now})

	n, err := Save(dir, "CGMTEST_hypo", events)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if n != len(events) {
		t.Errorf("expected %d events written, got %d", len(events), n)
	}

	provider := eventlog.NewLogProvider(eventlog.NewEventStore(), dir)
	ds, err := provider.Dataset("CGMTEST_hypo", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Dataset failed: %v", err)
	}
	if len(ds.Glucose) != 288 {
		t.Errorf("expected 288 readings from the cache, got %d", len(ds.Glucose))
	}

	// Saving again replaces the log instead of merging.
	if n, err := Save(dir, "CGMTEST_hypo", events[:10]); err != nil || n != 10 {
		t.Errorf("expected 10 events after overwrite, got %d (%v)", n, err)
	}
}
