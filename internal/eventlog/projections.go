package eventlog

import (
	"fmt"
	"math"
	"os"
	"time"

	"cgm-mcp/internal/cgm"
)

// Dataset is the analysis input projected from an event log.
type Dataset struct {
	Glucose cgm.Series
	Insulin []cgm.InsulinEvent
	Meals   []cgm.MealEvent
	// Dropped counts glucose events whose value could not be used.
	Dropped int
}

// Empty reports whether the dataset holds no observation at all.
func (d Dataset) Empty() bool {
	return len(d.Glucose) == 0 && len(d.Insulin) == 0 && len(d.Meals) == 0
}

// BuildDataset projects events into glucose, insulin and meal series.
// Glucose values are coerced and invalid ones dropped.
func BuildDataset(events []Event) Dataset {
	var raw []cgm.RawReading
	var ds Dataset

	for _, e := range events {
		ts := eventTime(e)
		switch e.Kind {
		case Glucose:
			raw = append(raw, cgm.RawReading{Timestamp: ts, Value: e.Value, Raw: e.Raw})
		case Insulin:
			if e.Dose < 0 || math.IsNaN(e.Dose) || math.IsInf(e.Dose, 0) {
				continue
			}
			ds.Insulin = append(ds.Insulin, cgm.InsulinEvent{Timestamp: ts, Dose: e.Dose})
		case Meal:
			m := cgm.MealEvent{Timestamp: ts}
			if e.Carbs != nil {
				carbs := *e.Carbs
				m.Carbs = &carbs
			}
			ds.Meals = append(ds.Meals, m)
		}
	}

	ds.Glucose = cgm.NewSeries(raw)
	ds.Dropped = len(raw) - len(ds.Glucose)
	ds.Insulin = cgm.SortInsulin(ds.Insulin)
	ds.Meals = cgm.SortMeals(ds.Meals)
	return ds
}

// ReadDataset projects the records of a JSONL file within an optional window
// without storing them in any source log. A zero start or end leaves that
// side open.
func ReadDataset(path string, start, end time.Time) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to open event file: %w", err)
	}
	defer f.Close()

	records, err := DecodeRecords(f)
	if err != nil {
		return Dataset{}, fmt.Errorf("failed to read event file: %w", err)
	}
	events, _ := TransformRecords(records)

	inWindow := events[:0]
	for _, e := range events {
		ts := eventTime(e)
		if (start.IsZero() || !ts.Before(start)) && (end.IsZero() || !ts.After(end)) {
			inWindow = append(inWindow, e)
		}
	}
	return BuildDataset(inWindow), nil
}

// eventTime restores the wall-clock timestamp of an event.
func eventTime(e Event) time.Time {
	return time.UnixMicro(e.Timestamp).UTC()
}
