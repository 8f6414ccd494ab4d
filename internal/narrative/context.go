package narrative

import (
	"fmt"
	"strings"

	"cgm-mcp/internal/profile"
	"cgm-mcp/internal/report"
)

// Section is one titled block of the integrated context.
type Section struct {
	Title   string
	Summary string
	Data    any
}

// Sections renders each analysis of the report as a text summary paired with
// its raw data. p must be the profile the report was computed against.
func Sections(r *report.Report, p profile.PatientProfile) []Section {
	return []Section{
		{Title: "CGM metrics", Summary: SummarizeMetrics(r.Metrics, p), Data: r.Metrics},
		{Title: "AGP variability", Summary: SummarizeVariability(r.Envelope, r.Metrics), Data: r.Envelope},
		{Title: "Glycemic risk index", Summary: SummarizeGRI(r.Metrics), Data: griData(r)},
		{Title: "Hypo- and hyperglycemia", Summary: SummarizeEvents(r.Hypoglycemia, r.Hyperglycemia), Data: map[string]any{
			"hypoglycemia":  r.Hypoglycemia,
			"hyperglycemia": r.Hyperglycemia,
		}},
		{Title: "Insulin usage", Summary: SummarizeInsulin(r.Insulin), Data: r.Insulin},
		{Title: "Insulin action", Summary: SummarizePharmacokinetics(r.InsulinResponse), Data: r.InsulinResponse},
		{Title: "Meal impact", Summary: SummarizeMealImpact(r.MealResponse, r.Meals), Data: map[string]any{
			"meals":    r.Meals,
			"response": r.MealResponse,
		}},
		{Title: "Profile guidance", Summary: SummarizeProfile(r.Profile), Data: r.Profile},
	}
}

func griData(r *report.Report) any {
	if r.Metrics == nil {
		return nil
	}
	return map[string]any{
		"label":              r.Metrics.GRILabel,
		"value":              r.Metrics.GRI,
		"hypoglycemiaShare":  r.Metrics.GRIHypoComponent,
		"hyperglycemiaShare": r.Metrics.GRIHyperComponent,
		"hypoglycemiaLimit":  70,
		"hyperglycemiaLimit": 180,
	}
}

// Build assembles the integrated narrative context: a header describing the
// source and profile followed by one summary and JSON block per analysis.
func Build(r *report.Report, p profile.PatientProfile) string {
	var sb strings.Builder

	sb.WriteString("# CGM analysis context\n\n")
	sb.WriteString(fmt.Sprintf("- Source: `%s`\n", r.Source))
	sb.WriteString(fmt.Sprintf("- Profile: %s (%s)\n", r.Profile.DisplayName, r.Profile.Key))
	sb.WriteString(fmt.Sprintf("- Target range: %.0f-%.0f mg/dL\n", r.Profile.TargetRange.Lower, r.Profile.TargetRange.Upper))
	if r.Readings > 0 {
		sb.WriteString(fmt.Sprintf("- Readings: %d (%s to %s)\n",
			r.Readings, r.First.Format("2006-01-02 15:04"), r.Last.Format("2006-01-02 15:04")))
	} else {
		sb.WriteString("- Readings: none\n")
	}
	if r.Dropped > 0 {
		sb.WriteString(fmt.Sprintf("- Dropped readings: %d\n", r.Dropped))
	}

	for _, s := range Sections(r, p) {
		sb.WriteString("\n## ")
		sb.WriteString(s.Title)
		sb.WriteString("\n\n")
		sb.WriteString(s.Summary)
		sb.WriteString("\n\n")
		sb.WriteString(JSONBlock(s.Title+" data", s.Data))
		sb.WriteString("\n")
	}
	return sb.String()
}
