package mcp

import (
	"context"
	"fmt"
	"strings"

	"cgm-mcp/internal/eventlog"
	"cgm-mcp/internal/narrative"
	"cgm-mcp/internal/profile"
	"cgm-mcp/internal/stats"
	"cgm-mcp/internal/visuals"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// SourceInfo describes one source in the event log.
type SourceInfo struct {
	Source  string `json:"source"`
	Events  int    `json:"events"`
	Glucose int    `json:"glucose"`
	Insulin int    `json:"insulin"`
	Meals   int    `json:"meals"`
	Latest  string `json:"latest,omitempty"`
}

func (s *Server) handleListProfiles(_ context.Context, _ *sdk.CallToolRequest, _ NoArgs) (*sdk.CallToolResult, any, error) {
	res, err := s.textResult(map[string]any{
		"default":  s.cfg.ProfileKey,
		"profiles": s.cfg.Profiles.Profiles(),
	})
	return res, nil, err
}

func (s *Server) handleListSources(_ context.Context, _ *sdk.CallToolRequest, _ NoArgs) (*sdk.CallToolResult, any, error) {
	ids, err := s.provider.Sources()
	if err != nil {
		return nil, nil, err
	}

	infos := make([]SourceInfo, 0, len(ids))
	for _, id := range ids {
		if err := s.provider.Hydrate(id); err != nil {
			return nil, nil, err
		}
		info := SourceInfo{
			Source:  id,
			Events:  s.provider.GetEventCount(id),
			Glucose: s.provider.GetKindCount(id, eventlog.Glucose),
			Insulin: s.provider.GetKindCount(id, eventlog.Insulin),
			Meals:   s.provider.GetKindCount(id, eventlog.Meal),
		}
		if latest := s.provider.GetLatestTimestamp(id); !latest.IsZero() {
			info.Latest = latest.Format("2006-01-02T15:04:05")
		}
		infos = append(infos, info)
	}

	res, err := s.textResult(infos)
	return res, nil, err
}

func (s *Server) handleImportEvents(_ context.Context, _ *sdk.CallToolRequest, in ImportArgs) (*sdk.CallToolResult, any, error) {
	source := strings.TrimSpace(in.Source)
	if source == "" {
		return nil, nil, fmt.Errorf("source is required")
	}
	if in.Path == "" {
		return nil, nil, fmt.Errorf("path is required")
	}

	if in.Reset {
		if err := s.provider.Reset(source); err != nil {
			return nil, nil, err
		}
	}

	result, err := s.provider.ImportFile(source, in.Path)
	if err != nil {
		return nil, nil, err
	}
	res, err := s.textResult(result)
	return res, nil, err
}

func (s *Server) handleGetGlucoseMetrics(_ context.Context, _ *sdk.CallToolRequest, in SourceArgs) (*sdk.CallToolResult, any, error) {
	sess, _, err := s.session(in)
	if err != nil {
		return nil, nil, err
	}
	res, err := s.textResult(WrapResponse(sess, sess.Metrics()))
	return res, nil, err
}

func (s *Server) handleGetAGPEnvelope(_ context.Context, _ *sdk.CallToolRequest, in SourceArgs) (*sdk.CallToolResult, any, error) {
	sess, _, err := s.session(in)
	if err != nil {
		return nil, nil, err
	}
	env := sess.Envelope()
	res, err := s.textResult(WrapResponse(sess, env), visuals.GenerateAGPChart(env))
	return res, nil, err
}

func (s *Server) handleGetDailyRanges(_ context.Context, _ *sdk.CallToolRequest, in SourceArgs) (*sdk.CallToolResult, any, error) {
	sess, p, err := s.session(in)
	if err != nil {
		return nil, nil, err
	}
	days := sess.DailyRanges()
	res, err := s.textResult(WrapResponse(sess, days), dailyChart(days, p))
	return res, nil, err
}

func (s *Server) handleGetGlycemicEvents(_ context.Context, _ *sdk.CallToolRequest, in SourceArgs) (*sdk.CallToolResult, any, error) {
	sess, _, err := s.session(in)
	if err != nil {
		return nil, nil, err
	}
	hypo, hyper := sess.Hypoglycemia(), sess.Hyperglycemia()
	data := map[string]any{
		"hypoglycemia":  hypo,
		"hyperglycemia": hyper,
	}
	res, err := s.textResult(WrapResponse(sess, data),
		visuals.GenerateHourlyEventChart(hypo.Low),
		visuals.GenerateHourlyEventChart(hyper.High))
	return res, nil, err
}

func (s *Server) handleGetInsulinUsage(_ context.Context, _ *sdk.CallToolRequest, in SourceArgs) (*sdk.CallToolResult, any, error) {
	sess, _, err := s.session(in)
	if err != nil {
		return nil, nil, err
	}
	res, err := s.textResult(WrapResponse(sess, sess.InsulinUsage()))
	return res, nil, err
}

func (s *Server) handleGetInsulinResponse(_ context.Context, _ *sdk.CallToolRequest, in SourceArgs) (*sdk.CallToolResult, any, error) {
	sess, _, err := s.session(in)
	if err != nil {
		return nil, nil, err
	}
	res, err := s.textResult(WrapResponse(sess, sess.InsulinResponse()))
	return res, nil, err
}

func (s *Server) handleGetMealResponse(_ context.Context, _ *sdk.CallToolRequest, in SourceArgs) (*sdk.CallToolResult, any, error) {
	sess, _, err := s.session(in)
	if err != nil {
		return nil, nil, err
	}
	data := map[string]any{
		"meals":    sess.Meals(),
		"response": sess.MealResponse(),
	}
	res, err := s.textResult(WrapResponse(sess, data))
	return res, nil, err
}

func (s *Server) handleGetFullReport(ctx context.Context, _ *sdk.CallToolRequest, in SourceArgs) (*sdk.CallToolResult, any, error) {
	sess, p, err := s.session(in)
	if err != nil {
		return nil, nil, err
	}
	r, err := sess.Run(ctx)
	if err != nil {
		return nil, nil, err
	}
	res, err := s.textResult(WrapResponse(sess, r),
		visuals.GenerateAGPChart(r.Envelope),
		dailyChart(r.DailyRanges, p))
	return res, nil, err
}

func (s *Server) handleGetNarrativeContext(ctx context.Context, _ *sdk.CallToolRequest, in SourceArgs) (*sdk.CallToolResult, any, error) {
	sess, p, err := s.session(in)
	if err != nil {
		return nil, nil, err
	}
	r, err := sess.Run(ctx)
	if err != nil {
		return nil, nil, err
	}
	return plainResult(narrative.Build(r, p)), nil, nil
}

func dailyChart(days []stats.DailyRanges, p profile.PatientProfile) string {
	band, ok := p.TargetBand()
	if !ok {
		return ""
	}
	return visuals.GenerateDailyRangeChart(days, band.DailyLabel)
}
