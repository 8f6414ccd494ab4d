package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cgm-mcp/internal/config"
	"cgm-mcp/internal/narrative"
	"cgm-mcp/internal/profile"
	"cgm-mcp/internal/report"
)

func TestPrintProfiles(t *testing.T) {
	catalog, err := profile.Builtin()
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := printProfiles(&buf, catalog.Profiles(), "GDM"); err != nil {
		t.Fatalf("printProfiles failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected header and 5 profiles, got:\n%s", buf.String())
	}
	if !strings.HasPrefix(lines[0], "KEY") {
		t.Errorf("missing header: %q", lines[0])
	}
	if !strings.Contains(buf.String(), "GDM *") || strings.Contains(buf.String(), "T1DM *") {
		t.Errorf("default marker on the wrong profile:\n%s", buf.String())
	}
	if !strings.Contains(lines[3], "63-140") {
		t.Errorf("expected GDM target range, got %q", lines[3])
	}
}

func TestWriteJSON_WithNarrative(t *testing.T) {
	r := &report.Report{RunID: "run-1", Source: "alice", Readings: 3}
	reply := narrative.NewReply("[fallback] Mostly in range.", "[fallback]")

	var buf bytes.Buffer
	if err := writeJSON(&buf, r, &reply); err != nil {
		t.Fatalf("writeJSON failed: %v", err)
	}

	var decoded struct {
		RunID     string `json:"runId"`
		Source    string `json:"source"`
		Narrative struct {
			Text   string `json:"text"`
			Notice string `json:"notice"`
		} `json:"narrative"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.RunID != "run-1" || decoded.Source != "alice" {
		t.Errorf("report fields not promoted: %+v", decoded)
	}
	if decoded.Narrative.Text != "Mostly in range." || decoded.Narrative.Notice != "[fallback]" {
		t.Errorf("unexpected narrative %+v", decoded.Narrative)
	}

	buf.Reset()
	if err := writeJSON(&buf, r, nil); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "narrative") {
		t.Errorf("narrative must be omitted when absent")
	}
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	reply := narrative.Reply{Text: "Mostly in range."}
	if err := writeMarkdown(&buf, "# CGM analysis context\n", &reply); err != nil {
		t.Fatal(err)
	}
	want := "# CGM analysis context\n\n## Narrative\n\nMostly in range.\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestAnalyze_File(t *testing.T) {
	catalog, err := profile.Builtin()
	if err != nil {
		t.Fatal(err)
	}
	cfg = &config.AppConfig{
		Profiles:   catalog,
		ProfileKey: catalog.DefaultKey(),
		Analysis:   report.DefaultOptions(),
	}
	t.Cleanup(func() {
		cfg = nil
		analyzeOpts.file, analyzeOpts.format, analyzeOpts.end = "", "json", ""
	})

	path := filepath.Join(t.TempDir(), "clinic-visit.jsonl")
	input := `{"kind":"glucose","time":"2024-05-06 08:00","value":110}
{"kind":"glucose","time":"2024-05-06 09:00","value":180}
{"kind":"glucose","time":"2024-05-07 08:00","value":95}
{"kind":"insulin","time":"2024-05-06 08:00","dose":4}
`
	if err := os.WriteFile(path, []byte(input), 0644); err != nil {
		t.Fatal(err)
	}
	analyzeOpts.file, analyzeOpts.format, analyzeOpts.end = path, "json", "2024-05-06"

	var buf bytes.Buffer
	analyzeCmd.SetOut(&buf)
	if err := analyzeCmd.RunE(analyzeCmd, nil); err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if got["source"] != "clinic-visit" || got["readings"] != float64(2) {
		t.Errorf("unexpected report header: source=%v readings=%v", got["source"], got["readings"])
	}
}

func TestAnalyze_FileAndImportConflict(t *testing.T) {
	analyzeOpts.file, analyzeOpts.importFile = "a.jsonl", "b.jsonl"
	t.Cleanup(func() { analyzeOpts.file, analyzeOpts.importFile = "", "" })

	if err := analyzeCmd.RunE(analyzeCmd, nil); err == nil || !strings.Contains(err.Error(), "cannot be combined") {
		t.Errorf("expected a conflict error, got %v", err)
	}
}
