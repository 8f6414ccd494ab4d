package eventlog

import (
	"strings"
	"testing"
	"time"
)

func TestParseTime(t *testing.T) {
	want := time.Date(2024, 5, 6, 7, 30, 0, 0, time.UTC)

	for _, s := range []string{
		"2024-05-06T07:30:00Z",
		"2024-05-06T07:30:00+08:00",
		"2024-05-06T07:30:00",
		"2024-05-06 07:30:00",
		"2024-05-06 07:30",
		"2024/05/06 07:30",
	} {
		got, err := ParseTime(s)
		if err != nil {
			t.Errorf("%s: unexpected error %v", s, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("%s: got %v, want wall clock %v", s, got, want)
		}
	}

	if _, err := ParseTime("yesterday"); err == nil {
		t.Errorf("expected an error for an unknown format")
	}
}

func TestTransformRecords(t *testing.T) {
	dose := 4.0
	negative := -1.0
	records := []Record{
		{Kind: Glucose, Time: "2024-05-06 08:00", Value: 120.0},
		{Kind: Glucose, Time: "2024-05-06 08:00", Value: "LOW"},
		{Kind: Insulin, Time: "2024-05-06 08:05", Dose: &dose},
		{Kind: Insulin, Time: "2024-05-06 08:10"},
		{Kind: Insulin, Time: "2024-05-06 08:10", Dose: &negative},
		{Kind: Meal, Time: "2024-05-06 08:15"},
		{Kind: "exercise", Time: "2024-05-06 09:00"},
		{Kind: Glucose, Time: "not a time", Value: 100.0},
	}

	events, skipped := TransformRecords(records)
	if skipped != 4 {
		t.Errorf("skipped = %d, want 4", skipped)
	}
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}

	if events[0].Seq != 0 || events[1].Seq != 1 {
		t.Errorf("same-time readings must be numbered: %d, %d", events[0].Seq, events[1].Seq)
	}
	if events[0].Value == nil || *events[0].Value != 120 {
		t.Errorf("unexpected numeric value %+v", events[0])
	}
	if events[1].Value != nil || events[1].Raw != "LOW" {
		t.Errorf("unexpected raw value %+v", events[1])
	}
	if events[2].Dose != 4 || events[3].Carbs != nil {
		t.Errorf("unexpected insulin/meal events %+v %+v", events[2], events[3])
	}
}

func TestDecodeRecords(t *testing.T) {
	input := `{"kind":"glucose","time":"2024-05-06 08:00","value":110}

{"kind":"meal","time":"2024-05-06 08:15","carbs":50}
{broken
`
	records, err := DecodeRecords(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[1].Carbs == nil || *records[1].Carbs != 50 {
		t.Errorf("unexpected meal record %+v", records[1])
	}
}
