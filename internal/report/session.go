package report

import (
	"cgm-mcp/internal/eventlog"
	"cgm-mcp/internal/insulin"
	"cgm-mcp/internal/profile"
	"cgm-mcp/internal/stats"
)

// Options tunes the analytics of a session.
type Options struct {
	MAGEThreshold float64
	Correlation   stats.CorrelationOptions
}

// DefaultOptions returns the default MAGE threshold and join settings.
func DefaultOptions() Options {
	return Options{
		MAGEThreshold: stats.DefaultMAGEThreshold,
		Correlation:   stats.DefaultCorrelationOptions(),
	}
}

// InsulinResponse holds the pharmacokinetic estimates for all doses and per
// inferred insulin category.
type InsulinResponse struct {
	Overall    stats.PharmacokineticSummary                      `json:"overall"`
	ByCategory map[insulin.Category]stats.PharmacokineticSummary `json:"byCategory"`
}

// AnalysisSession orchestrates the analytical pipeline for a single request.
// It loads the dataset of a source once and exposes every analysis over it.
type AnalysisSession struct {
	provider *eventlog.LogProvider
	sourceID string
	profile  profile.PatientProfile
	regimen  *insulin.Regimen
	window   Window
	opts     Options

	dataset     eventlog.Dataset
	classified  []insulin.ClassifiedDose
	isProjected bool
}

// NewAnalysisSession creates a new orchestration session. A nil regimen
// selects heuristic insulin classification.
func NewAnalysisSession(provider *eventlog.LogProvider, sourceID string, p profile.PatientProfile, regimen *insulin.Regimen, window Window, opts Options) *AnalysisSession {
	return &AnalysisSession{
		provider: provider,
		sourceID: sourceID,
		profile:  p,
		regimen:  regimen,
		window:   window,
		opts:     opts,
	}
}

// NewSessionFromDataset creates a session over a dataset already projected
// for window.
func NewSessionFromDataset(ds eventlog.Dataset, sourceID string, p profile.PatientProfile, regimen *insulin.Regimen, window Window, opts Options) *AnalysisSession {
	return &AnalysisSession{
		sourceID:    sourceID,
		profile:     p,
		regimen:     regimen,
		window:      window,
		opts:        opts,
		dataset:     ds,
		classified:  insulin.ClassifyAll(ds.Insulin, regimen),
		isProjected: true,
	}
}

// Project loads the dataset for the session's window. Later calls are no-ops.
func (s *AnalysisSession) Project() error {
	if s.isProjected {
		return nil
	}

	ds, err := s.provider.Dataset(s.sourceID, s.window.Start, s.window.End)
	if err != nil {
		return err
	}
	s.dataset = ds
	s.classified = insulin.ClassifyAll(ds.Insulin, s.regimen)
	s.isProjected = true
	return nil
}

// Dataset returns the projected analysis input.
func (s *AnalysisSession) Dataset() eventlog.Dataset {
	_ = s.Project()
	return s.dataset
}

// Metrics computes the glycemic metrics, or nil without readings.
func (s *AnalysisSession) Metrics() *stats.GlycemicMetrics {
	_ = s.Project()
	return stats.CalculateGlycemicMetrics(s.dataset.Glucose, s.profile, s.opts.MAGEThreshold)
}

// Envelope computes the AGP envelope, or nil without readings.
func (s *AnalysisSession) Envelope() *stats.EnvelopeResult {
	_ = s.Project()
	return stats.AnalyzeEnvelope(s.dataset.Glucose)
}

// DailyRanges computes the per-day range table.
func (s *AnalysisSession) DailyRanges() []stats.DailyRanges {
	_ = s.Project()
	return stats.CalculateDailyRanges(s.dataset.Glucose, s.profile)
}

// Hypoglycemia extracts the low and very low tiers.
func (s *AnalysisSession) Hypoglycemia() stats.HypoglycemiaEvents {
	_ = s.Project()
	return stats.ExtractHypoglycemia(s.dataset.Glucose)
}

// Hyperglycemia extracts the high and very high tiers.
func (s *AnalysisSession) Hyperglycemia() stats.HyperglycemiaEvents {
	_ = s.Project()
	return stats.ExtractHyperglycemia(s.dataset.Glucose)
}

// InsulinUsage classifies and aggregates the doses, or nil without doses.
func (s *AnalysisSession) InsulinUsage() *insulin.Usage {
	_ = s.Project()
	return insulin.Summarize(s.classified)
}

// InsulinResponse correlates glucose with all doses and with the doses of
// each category present.
func (s *AnalysisSession) InsulinResponse() InsulinResponse {
	_ = s.Project()

	res := InsulinResponse{
		Overall:    stats.CorrelateInsulin(s.dataset.Glucose, s.dataset.Insulin, s.opts.Correlation),
		ByCategory: make(map[insulin.Category]stats.PharmacokineticSummary),
	}
	for _, cat := range insulin.Categories {
		doses := insulin.ByCategory(s.classified, cat)
		if len(doses) == 0 {
			continue
		}
		res.ByCategory[cat] = stats.CorrelateInsulin(s.dataset.Glucose, doses, s.opts.Correlation)
	}
	return res
}

// Meals summarises meal frequency and amounts, or nil without meals.
func (s *AnalysisSession) Meals() *stats.MealStats {
	_ = s.Project()
	return stats.SummarizeMeals(s.dataset.Meals)
}

// MealResponse correlates glucose with the meals.
func (s *AnalysisSession) MealResponse() stats.MealImpactSummary {
	_ = s.Project()
	return stats.CorrelateMeals(s.dataset.Glucose, s.dataset.Meals, s.opts.Correlation)
}

// SourceID returns the ID of the data source.
func (s *AnalysisSession) SourceID() string {
	return s.sourceID
}

// Profile returns the profile the session analyses against.
func (s *AnalysisSession) Profile() profile.PatientProfile {
	return s.profile
}

// Window returns the analysis window.
func (s *AnalysisSession) Window() Window {
	return s.window
}
