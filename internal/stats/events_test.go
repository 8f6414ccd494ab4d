package stats

import (
	"testing"
	"time"

	"cgm-mcp/internal/cgm"
)

func TestExtractHypoglycemia(t *testing.T) {
	series := cgm.Series{
		{Timestamp: day0.Add(2 * time.Hour), Value: 50},
		{Timestamp: day0.Add(2*time.Hour + 5*time.Minute), Value: 54},
		{Timestamp: day0.Add(2*time.Hour + 10*time.Minute), Value: 69.9},
		{Timestamp: day0.Add(2*time.Hour + 15*time.Minute), Value: 70},
		{Timestamp: day0.AddDate(0, 0, 1).Add(23 * time.Hour), Value: 45},
	}

	ev := ExtractHypoglycemia(series)

	if ev.Low.Total != 4 {
		t.Errorf("low total = %d, want 4", ev.Low.Total)
	}
	if ev.VeryLow.Total != 2 {
		t.Errorf("very low total = %d, want 2 (54 is not below 54)", ev.VeryLow.Total)
	}
	if ev.Low.ByHour[2] != 3 || ev.Low.ByHour[23] != 1 {
		t.Errorf("unexpected hourly counts %v", ev.Low.ByHour)
	}

	want := []DateCount{{"2024-05-06", 3}, {"2024-05-07", 1}}
	if len(ev.Low.ByDate) != len(want) {
		t.Fatalf("by date = %v, want %v", ev.Low.ByDate, want)
	}
	for i, dc := range want {
		if ev.Low.ByDate[i] != dc {
			t.Errorf("by date[%d] = %v, want %v", i, ev.Low.ByDate[i], dc)
		}
	}
}

func TestExtractHyperglycemia(t *testing.T) {
	series := cgm.Series{
		{Timestamp: day0.Add(13 * time.Hour), Value: 180},
		{Timestamp: day0.Add(13*time.Hour + 5*time.Minute), Value: 181},
		{Timestamp: day0.Add(13*time.Hour + 10*time.Minute), Value: 250},
		{Timestamp: day0.Add(14 * time.Hour), Value: 251},
	}

	ev := ExtractHyperglycemia(series)
	if ev.High.Total != 3 {
		t.Errorf("high total = %d, want 3", ev.High.Total)
	}
	if ev.VeryHigh.Total != 1 {
		t.Errorf("very high total = %d, want 1", ev.VeryHigh.Total)
	}
	if ev.High.ByHour[13] != 2 || ev.High.ByHour[14] != 1 {
		t.Errorf("unexpected hourly counts %v", ev.High.ByHour)
	}
	if len(ev.VeryHigh.Readings) != 1 || ev.VeryHigh.Readings[0].Value != 251 {
		t.Errorf("unexpected very high readings %v", ev.VeryHigh.Readings)
	}
}

func TestExtract_NoEvents(t *testing.T) {
	ev := ExtractHypoglycemia(seriesAt(day0, time.Hour, 100, 120))
	if ev.Low.Total != 0 || len(ev.Low.ByDate) != 0 {
		t.Errorf("expected no events, got %+v", ev.Low)
	}
	if ev.Low.ByDate == nil {
		t.Errorf("expected an empty, non-nil date table")
	}
}
