package narrative

import (
	"context"
	"strings"
	"testing"
	"time"

	"cgm-mcp/internal/cgm"
	"cgm-mcp/internal/eventlog"
	"cgm-mcp/internal/profile"
	"cgm-mcp/internal/report"
	"cgm-mcp/internal/stats"
)

var day0 = time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)

func t1dm(t *testing.T) profile.PatientProfile {
	t.Helper()
	c, err := profile.Builtin()
	if err != nil {
		t.Fatalf("builtin catalog: %v", err)
	}
	p, err := c.Lookup("T1DM")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	return p
}

func runReport(t *testing.T, ds eventlog.Dataset) (*report.Report, profile.PatientProfile) {
	t.Helper()
	p := t1dm(t)
	r, err := report.NewSessionFromDataset(ds, "alice", p, nil, report.Window{}, report.DefaultOptions()).Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	return r, p
}

func sampleDataset() eventlog.Dataset {
	var series cgm.Series
	for i, v := range []float64{110, 160, 220, 180, 140, 90, 65, 120} {
		series = append(series, cgm.Reading{Timestamp: day0.Add(time.Duration(6+i) * time.Hour), Value: v})
	}
	return eventlog.Dataset{
		Glucose: series,
		Insulin: []cgm.InsulinEvent{
			{Timestamp: day0.Add(7 * time.Hour), Dose: 20},
			{Timestamp: day0.Add(12 * time.Hour), Dose: 5},
		},
	}
}

func TestSummarizeMetrics(t *testing.T) {
	r, p := runReport(t, sampleDataset())

	text := SummarizeMetrics(r.Metrics, p)
	for _, fragment := range []string{
		"target range is `70-180 mg/dL`",
		"Time in target range is **75.0%**",
		"Time below target totals **12.5%**",
		"Time above target totals **12.5%**",
		"TIR (70-180 mg/dL): 75.0%",
	} {
		if !strings.Contains(text, fragment) {
			t.Errorf("metrics summary missing %q:\n%s", fragment, text)
		}
	}

	if got := SummarizeMetrics(nil, p); got != "No valid CGM metrics available." {
		t.Errorf("unexpected empty summary: %q", got)
	}
}

func TestSummarizeInsulin_Heuristic(t *testing.T) {
	r, _ := runReport(t, sampleDataset())

	text := SummarizeInsulin(r.Insulin)
	if !strings.Contains(text, "best-effort guesses") {
		t.Errorf("expected heuristic note:\n%s", text)
	}
	if !strings.Contains(text, "**long-acting**: mean 20.0 U, 1 injections") {
		t.Errorf("expected long-acting stats:\n%s", text)
	}
	if SummarizeInsulin(nil) != "No valid insulin statistics available." {
		t.Errorf("expected placeholder for missing insulin")
	}
}

func TestSummarizePharmacokinetics_Insufficient(t *testing.T) {
	resp := report.InsulinResponse{Overall: stats.PharmacokineticSummary{
		Status: stats.StatusInsufficientData,
		Reason: "no insulin doses",
	}}
	text := SummarizePharmacokinetics(resp)
	if text != "Not enough data to describe insulin action (no insulin doses)." {
		t.Errorf("unexpected text: %q", text)
	}
}

func TestSummarizeEvents(t *testing.T) {
	r, _ := runReport(t, sampleDataset())

	text := SummarizeEvents(r.Hypoglycemia, r.Hyperglycemia)
	for _, fragment := range []string{
		"1 readings < 70 mg/dL on 1 days, most often around 12:00.",
		"No readings < 54 mg/dL.",
		"1 readings > 180 mg/dL on 1 days, most often around 08:00.",
	} {
		if !strings.Contains(text, fragment) {
			t.Errorf("events summary missing %q:\n%s", fragment, text)
		}
	}
}

func TestSummarizeProfile(t *testing.T) {
	if SummarizeProfile(report.ProfileSummary{}) != "No patient profile loaded." {
		t.Errorf("expected placeholder for missing profile")
	}
	text := SummarizeProfile(report.ProfileSummary{
		Key:         "GDM",
		DisplayName: "Gestational Diabetes (GDM)",
		TargetRange: profile.TargetRange{Lower: 63, Upper: 140},
	})
	if !strings.Contains(text, "`63-140 mg/dL`") {
		t.Errorf("unexpected profile text:\n%s", text)
	}
}

func TestBuild(t *testing.T) {
	r, p := runReport(t, sampleDataset())

	ctx := Build(r, p)
	if !strings.HasPrefix(ctx, "# CGM analysis context") {
		t.Errorf("missing header:\n%s", ctx)
	}
	for _, fragment := range []string{
		"- Source: `alice`",
		"- Profile: Type 1 Diabetes (T1DM) (T1DM)",
		"- Readings: 8 (2024-05-06 06:00 to 2024-05-06 13:00)",
		"## CGM metrics",
		"## Insulin action",
		"### Meal impact data\n```json",
		"## Profile guidance",
	} {
		if !strings.Contains(ctx, fragment) {
			t.Errorf("context missing %q", fragment)
		}
	}
	if n := strings.Count(ctx, "```json"); n != len(Sections(r, p)) {
		t.Errorf("expected one JSON block per section, got %d", n)
	}
}

func TestBuild_EmptyReport(t *testing.T) {
	r, p := runReport(t, eventlog.Dataset{})

	ctx := Build(r, p)
	if !strings.Contains(ctx, "- Readings: none") {
		t.Errorf("expected empty readings line:\n%s", ctx)
	}
	if !strings.Contains(ctx, "No valid CGM metrics available.") {
		t.Errorf("expected metrics placeholder:\n%s", ctx)
	}
}
