package report

import (
	"context"
	"fmt"
	"time"

	"cgm-mcp/internal/insulin"
	"cgm-mcp/internal/profile"
	"cgm-mcp/internal/stats"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ProfileSummary identifies the profile a report was computed against.
type ProfileSummary struct {
	Key            string              `json:"key"`
	DisplayName    string              `json:"displayName"`
	TargetRange    profile.TargetRange `json:"targetRange"`
	TargetsSummary string              `json:"targetsSummary"`
	Recommendation string              `json:"recommendation"`
}

// Report bundles every analysis of one source.
type Report struct {
	RunID       string         `json:"runId"`
	Source      string         `json:"source"`
	GeneratedAt time.Time      `json:"generatedAt"`
	Profile     ProfileSummary `json:"profile"`
	Window      Window         `json:"window"`
	Readings    int            `json:"readings"`
	Dropped     int            `json:"dropped"`
	First       time.Time      `json:"first,omitzero"`
	Last        time.Time      `json:"last,omitzero"`

	Metrics         *stats.GlycemicMetrics    `json:"metrics"`
	Envelope        *stats.EnvelopeResult     `json:"envelope"`
	DailyRanges     []stats.DailyRanges       `json:"dailyRanges"`
	Hypoglycemia    stats.HypoglycemiaEvents  `json:"hypoglycemia"`
	Hyperglycemia   stats.HyperglycemiaEvents `json:"hyperglycemia"`
	Insulin         *insulin.Usage            `json:"insulin"`
	InsulinResponse InsulinResponse           `json:"insulinResponse"`
	Meals           *stats.MealStats          `json:"meals"`
	MealResponse    stats.MealImpactSummary   `json:"mealResponse"`
}

// Run computes every analysis of the session. The analyses are independent
// and run concurrently over the shared read-only dataset.
func (s *AnalysisSession) Run(ctx context.Context) (*Report, error) {
	if err := s.Project(); err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	start := time.Now()
	ds := s.dataset
	p := s.profile
	r := &Report{
		RunID:       uuid.NewString(),
		Source:      s.sourceID,
		GeneratedAt: start.UTC(),
		Profile: ProfileSummary{
			Key:            p.Key,
			DisplayName:    p.DisplayName,
			TargetRange:    p.TargetRange,
			TargetsSummary: p.TargetsSummary,
			Recommendation: p.Recommendation,
		},
		Window:   s.window,
		Readings: len(ds.Glucose),
		Dropped:  ds.Dropped,
	}
	r.First, r.Last = ds.Glucose.Span()

	g, ctx := errgroup.WithContext(ctx)
	step := func(fn func()) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn()
			return nil
		})
	}

	step(func() { r.Metrics = s.Metrics() })
	step(func() { r.Envelope = s.Envelope() })
	step(func() { r.DailyRanges = s.DailyRanges() })
	step(func() { r.Hypoglycemia = s.Hypoglycemia() })
	step(func() { r.Hyperglycemia = s.Hyperglycemia() })
	step(func() { r.Insulin = s.InsulinUsage() })
	step(func() { r.InsulinResponse = s.InsulinResponse() })
	step(func() { r.Meals = s.Meals() })
	step(func() { r.MealResponse = s.MealResponse() })

	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Info().
		Str("run", r.RunID).
		Str("source", r.Source).
		Str("profile", p.Key).
		Int("readings", r.Readings).
		Dur("elapsed", time.Since(start)).
		Msg("Analysis complete")
	return r, nil
}
