package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"cgm-mcp/internal/profile"
	"cgm-mcp/internal/report"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// Response wraps analysis data with the context it was computed in.
type Response struct {
	Source   string        `json:"source"`
	Profile  string        `json:"profile"`
	Window   report.Window `json:"window"`
	Data     any           `json:"data"`
	Warnings []string      `json:"warnings,omitempty"`
}

// WrapResponse builds the response envelope of an analysis tool.
func WrapResponse(sess *report.AnalysisSession, data any) Response {
	resp := Response{
		Source:  sess.SourceID(),
		Profile: sess.Profile().Key,
		Window:  sess.Window(),
		Data:    data,
	}

	ds := sess.Dataset()
	if len(ds.Glucose) == 0 {
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("no glucose readings for source %q in the selected window; import events first", sess.SourceID()))
	}
	if ds.Dropped > 0 {
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("%d glucose values were unusable and ignored", ds.Dropped))
	}
	return resp
}

// session prepares an analysis session for the tool arguments.
func (s *Server) session(in SourceArgs) (*report.AnalysisSession, profile.PatientProfile, error) {
	source := strings.TrimSpace(in.Source)
	if source == "" {
		return nil, profile.PatientProfile{}, fmt.Errorf("source is required")
	}

	p, err := s.cfg.Profile(in.Profile)
	if err != nil {
		return nil, profile.PatientProfile{}, fmt.Errorf("%w (available: %s)", err, strings.Join(s.cfg.Profiles.Keys(), ", "))
	}

	w, err := report.ParseWindow(in.Start, in.End)
	if err != nil {
		return nil, profile.PatientProfile{}, err
	}

	sess := report.NewAnalysisSession(s.provider, source, p, s.cfg.Regimen, w, s.cfg.Analysis)
	if err := sess.Project(); err != nil {
		return nil, profile.PatientProfile{}, err
	}

	log.Debug().Str("source", source).Str("profile", p.Key).Int("readings", len(sess.Dataset().Glucose)).Msg("Session prepared")
	return sess, p, nil
}

// textResult renders data as indented JSON text content, followed by the
// non-empty charts when charts are enabled.
func (s *Server) textResult(data any, charts ...string) (*sdk.CallToolResult, error) {
	text, err := formatResult(data)
	if err != nil {
		return nil, err
	}
	if s.cfg.EnableMermaidCharts {
		for _, c := range charts {
			if c != "" {
				text += "\n\n" + c
			}
		}
	}
	return plainResult(text), nil
}

func plainResult(text string) *sdk.CallToolResult {
	return &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{Text: text}},
	}
}

func formatResult(data any) (string, error) {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(out), nil
}
