package engine

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"cgm-mcp/internal/eventlog"
)

// Scenarios lists the supported scenario names.
var Scenarios = []string{"stable", "variable", "hypo"}

type GeneratorConfig struct {
	Scenario string
	Days     int
	Interval time.Duration // sensor sampling interval
	Seed     int64
	Now      time.Time // the last generated day ends before Now's date
}

// scenarioParams holds the parameters of a scenario.
type scenarioParams struct {
	baseline   float64 // fasting glucose, mg/dL
	amplitude  float64 // circadian swing
	mealRise   float64 // peak rise per 50 g carbs
	noise      float64 // sensor noise SD
	basal      float64 // long-acting units at bedtime
	ratio      float64 // grams per rapid-acting unit
	nightDip   float64 // depth of the overnight dip
	dipChance  float64 // share of nights with a dip
	missedDose float64 // share of meals without a bolus
}

var scenarios = map[string]scenarioParams{
	"stable":   {baseline: 115, amplitude: 10, mealRise: 45, noise: 6, basal: 18, ratio: 10, dipChance: 0},
	"variable": {baseline: 150, amplitude: 25, mealRise: 110, noise: 18, basal: 22, ratio: 12, missedDose: 0.25},
	"hypo":     {baseline: 100, amplitude: 15, mealRise: 55, noise: 8, basal: 26, ratio: 8, nightDip: 55, dipChance: 0.5},
}

type meal struct {
	hour  float64
	carbs float64
}

var mealPlan = []meal{{7.5, 45}, {12.5, 60}, {19, 70}}

// Generate produces glucose, insulin and meal events for the scenario.
// The same seed yields the same events.
func Generate(cfg GeneratorConfig) ([]eventlog.Event, error) {
	p, ok := scenarios[cfg.Scenario]
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q (available: %v)", cfg.Scenario, Scenarios)
	}
	if cfg.Days <= 0 {
		cfg.Days = 14
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	// Wall-clock days in UTC, matching the event log's convention.
	end := time.Date(cfg.Now.Year(), cfg.Now.Month(), cfg.Now.Day(), 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, 0, -cfg.Days)

	var events []eventlog.Event
	for d := 0; d < cfg.Days; d++ {
		day := start.AddDate(0, 0, d)

		// 1. Meals and boluses for the day
		var eaten []meal
		for _, m := range mealPlan {
			at := m.hour + rng.NormFloat64()*0.4
			carbs := math.Round(m.carbs * (0.7 + rng.Float64()*0.6))
			eaten = append(eaten, meal{hour: at, carbs: carbs})
			events = append(events, eventlog.Event{Kind: eventlog.Meal, Timestamp: clock(day, at).UnixMicro(), Carbs: &carbs})

			if rng.Float64() >= p.missedDose {
				dose := math.Round(carbs/p.ratio*2) / 2
				events = append(events, eventlog.Event{Kind: eventlog.Insulin, Timestamp: clock(day, at-0.2).UnixMicro(), Dose: dose})
			}
		}

		// 2. Bedtime basal
		basal := p.basal + math.Round(rng.NormFloat64()*2)
		events = append(events, eventlog.Event{Kind: eventlog.Insulin, Timestamp: clock(day, 22+rng.Float64()*0.5).UnixMicro(), Dose: basal})

		// 3. Sensor readings
		dip := rng.Float64() < p.dipChance
		for t := day; t.Before(day.AddDate(0, 0, 1)); t = t.Add(cfg.Interval) {
			h := float64(t.Sub(day)) / float64(time.Hour)
			v := p.baseline + p.amplitude*math.Sin((h-10)/24*2*math.Pi)
			for _, m := range eaten {
				v += mealCurve(h-m.hour) * p.mealRise * m.carbs / 50
			}
			if dip {
				v -= p.nightDip * math.Exp(-math.Pow(h-3, 2)/2)
			}
			v += rng.NormFloat64() * p.noise
			v = math.Round(math.Min(400, math.Max(40, v)))
			events = append(events, eventlog.Event{Kind: eventlog.Glucose, Timestamp: t.UnixMicro(), Value: &v})
		}
	}

	return events, nil
}

// mealCurve is the relative glucose excursion dt hours after a meal: a rise
// peaking after about one hour and fading within four.
func mealCurve(dt float64) float64 {
	if dt <= 0 || dt > 5 {
		return 0
	}
	return dt * math.Exp(1-dt)
}

func clock(day time.Time, hours float64) time.Time {
	return day.Add(time.Duration(hours * float64(time.Hour))).Truncate(time.Minute)
}

// Save writes the events to the cache log of sourceID, replacing any
// previous log of that source.
func Save(outDir string, sourceID string, events []eventlog.Event) (int, error) {
	if err := eventlog.DeleteCache(outDir, sourceID); err != nil {
		return 0, err
	}
	store := eventlog.NewEventStore()
	added := store.Append(sourceID, events)
	if err := store.Save(outDir, sourceID); err != nil {
		return 0, err
	}
	return added, nil
}
