package narrative

import (
	"fmt"
	"strings"

	"cgm-mcp/internal/insulin"
	"cgm-mcp/internal/profile"
	"cgm-mcp/internal/report"
	"cgm-mcp/internal/stats"
)

// cvThreshold is the commonly used stability limit for the CV.
const cvThreshold = 0.36

// SummarizeMetrics describes the glycemic metrics against the profile targets.
func SummarizeMetrics(m *stats.GlycemicMetrics, p profile.PatientProfile) string {
	if m == nil || m.Readings == 0 {
		return "No valid CGM metrics available."
	}

	lines := []string{
		fmt.Sprintf("- Mean glucose is about **%s**; the target range is `%.0f-%.0f mg/dL`.",
			FormatFloat(m.MeanGlucose, "mg/dL", 1), p.TargetRange.Lower, p.TargetRange.Upper),
	}

	below, within, above := targetShares(m, p)
	lines = append(lines,
		fmt.Sprintf("- Time in target range is **%s**.", FormatPercentage(within, 1)))
	if below > 0 {
		lines = append(lines, fmt.Sprintf("- Time below target totals **%s**; check it against the hypoglycemia limits.", FormatPercentage(below, 1)))
	}
	if above > 0 {
		lines = append(lines, fmt.Sprintf("- Time above target totals **%s**.", FormatPercentage(above, 1)))
	}
	for _, r := range m.Ranges {
		lines = append(lines, fmt.Sprintf("  • %s: %s", r.Label, FormatPercentage(r.Fraction, 1)))
	}

	cvNote := "within"
	if !m.CV.Valid() || float64(m.CV) > cvThreshold {
		cvNote = "above"
	}
	lines = append(lines,
		fmt.Sprintf("- Coefficient of variation (CV) is **%s**, %s the 36%% stability limit.", FormatPercentage(float64(m.CV), 1), cvNote),
		fmt.Sprintf("- GMI (estimated A1c) is about **%s%%**.", FormatFloat(m.GMI, "", 2)),
		fmt.Sprintf("- MAGE is **%s** (threshold %.1f SD).", FormatFloat(m.MAGE, "mg/dL", 1), m.MAGEThreshold),
	)
	return strings.Join(lines, "\n")
}

// targetShares splits the range fractions into below, within and above the
// profile's target range.
func targetShares(m *stats.GlycemicMetrics, p profile.PatientProfile) (below, within, above float64) {
	for i, r := range m.Ranges {
		if i >= len(p.Ranges) {
			break
		}
		def := p.Ranges[i]
		switch {
		case def.Max != nil && *def.Max <= p.TargetRange.Lower:
			below += r.Fraction
		case def.Min != nil && *def.Min >= p.TargetRange.Upper:
			above += r.Fraction
		default:
			within += r.Fraction
		}
	}
	return below, within, above
}

// SummarizeInsulin describes insulin usage per category.
func SummarizeInsulin(u *insulin.Usage) string {
	if u == nil || len(u.Doses) == 0 {
		return "No valid insulin statistics available."
	}

	var lines []string
	if u.Source == insulin.SourceHeuristic {
		lines = append(lines, "- Categories are best-effort guesses from dose size and time of day (no regimen configured).")
	}

	for _, cs := range u.Categories {
		lines = append(lines, fmt.Sprintf("- **%s**: mean %.1f U, %d injections, range %.1f-%.1f U",
			cs.Category, cs.MeanDose, cs.Count, cs.MinDose, cs.MaxDose))

		var slots []string
		for _, c := range cs.Clusters {
			slots = append(slots, fmt.Sprintf("around %s ~ %.1f U (%d injections)", c.Time, c.MeanDose, c.Count))
		}
		if len(slots) > 0 {
			lines = append(lines, "  • Common times: "+strings.Join(slots, "; "))
		}

		if cs.Category == insulin.CategoryUnknown && len(u.UnknownGroups) > 0 {
			var groups []string
			for _, g := range u.UnknownGroups {
				groups = append(groups, fmt.Sprintf("~%.0f U at %02d:00 (%d)", g.Dose, g.Hour, g.Count))
			}
			lines = append(lines, "  • Unexplained dose groups for review: "+strings.Join(groups, "; "))
		}
	}

	if d := u.Daily; d != nil {
		lines = append(lines, fmt.Sprintf(
			"- Daily: average total %.2f U over %d days, %.1f injections per day, largest single dose %.2f U, largest daily total %.2f U.",
			d.AverageDailyTotal, d.DaysAnalysed, d.AverageDailyCount, d.MaxSingleDose, d.MaxDailyTotal))
	}
	return strings.Join(lines, "\n")
}

// SummarizeVariability combines the AGP interpretation with SD, CV and MAGE.
func SummarizeVariability(env *stats.EnvelopeResult, m *stats.GlycemicMetrics) string {
	var lines []string
	if env != nil {
		lines = append(lines, stats.DescribeEnvelope(env))
	} else {
		lines = append(lines, "- AGP envelope: "+InsufficientData+".")
	}

	sd, cv, mage := stats.NaN(), stats.NaN(), stats.NaN()
	if m != nil {
		sd, cv, mage = stats.Float(m.StdDev), m.CV, stats.Float(m.MAGE)
	}
	lines = append(lines, fmt.Sprintf("- Variability: SD %s | CV %s | MAGE %s",
		FormatFloat(float64(sd), "mg/dL", 1), FormatPercentage(float64(cv), 1), FormatFloat(float64(mage), "", 1)))
	return strings.Join(lines, "\n")
}

// SummarizeEvents describes how often and when glucose left the safe tiers.
func SummarizeEvents(hypo stats.HypoglycemiaEvents, hyper stats.HyperglycemiaEvents) string {
	var lines []string
	for _, tier := range []stats.EventTier{hypo.Low, hypo.VeryLow, hyper.High, hyper.VeryHigh} {
		if tier.Total == 0 {
			lines = append(lines, fmt.Sprintf("- No readings %s.", tier.Label))
			continue
		}
		peak := 0
		for h, n := range tier.ByHour {
			if n > tier.ByHour[peak] {
				peak = h
			}
		}
		lines = append(lines, fmt.Sprintf("- %d readings %s on %d days, most often around %02d:00.",
			tier.Total, tier.Label, len(tier.ByDate), peak))
	}
	return strings.Join(lines, "\n")
}

// SummarizeGRI describes the glycemic risk index and its components.
func SummarizeGRI(m *stats.GlycemicMetrics) string {
	if m == nil {
		return "No GRI available."
	}
	return strings.Join([]string{
		fmt.Sprintf("- %s is about **%s**.", m.GRILabel, FormatFloat(float64(m.GRI), "", 1)),
		fmt.Sprintf("- Hypoglycemia component: %s, hyperglycemia component: %s.",
			FormatPercentage(m.GRIHypoComponent, 1), FormatPercentage(m.GRIHyperComponent, 1)),
	}, "\n")
}

// SummarizePharmacokinetics describes the averaged insulin action estimates.
func SummarizePharmacokinetics(resp report.InsulinResponse) string {
	lines := pkLines(resp.Overall)
	for _, cat := range insulin.Categories {
		pk, ok := resp.ByCategory[cat]
		if !ok || pk.Status != stats.StatusOK {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: peak after %s, sensitivity %s (%d of %d doses matched).",
			cat, FormatFloat(float64(pk.PeakTime), "h", 1), FormatFloat(float64(pk.Sensitivity), "mg/dL per U", 1), pk.Matched, pk.Doses))
	}
	return strings.Join(lines, "\n")
}

func pkLines(pk stats.PharmacokineticSummary) []string {
	if pk.Status != stats.StatusOK {
		return []string{fmt.Sprintf("Not enough data to describe insulin action (%s).", pk.Reason)}
	}
	return []string{
		fmt.Sprintf("- Average onset of action about `%s`.", FormatFloat(float64(pk.ActionTime), "h", 1)),
		fmt.Sprintf("- Estimated peak at `%s`.", FormatFloat(float64(pk.PeakTime), "h", 1)),
		fmt.Sprintf("- Observed duration about `%s`.", FormatFloat(float64(pk.Duration), "h", 1)),
		fmt.Sprintf("- Estimated insulin sensitivity: %s (glucose change per unit).", FormatFloat(float64(pk.Sensitivity), "mg/dL per U", 1)),
	}
}

// SummarizeMealImpact describes the glucose response to meals.
func SummarizeMealImpact(impact stats.MealImpactSummary, meals *stats.MealStats) string {
	var lines []string
	if meals != nil {
		lines = append(lines, fmt.Sprintf("- %d meals recorded, %d with carbohydrates; average %s per day.",
			meals.Meals, meals.MealsWithCarbs, FormatFloat(float64(meals.AverageDailyGrams), "g", 0)))
	}
	if impact.Status != stats.StatusOK {
		lines = append(lines, fmt.Sprintf("Not enough data to analyse meal impact (%s).", impact.Reason))
		return strings.Join(lines, "\n")
	}
	lines = append(lines,
		fmt.Sprintf("- Glucose usually peaks `%s` after eating.", FormatFloat(float64(impact.PeakTime), "h", 1)),
		fmt.Sprintf("- The peak rise is about `%s`.", FormatFloat(float64(impact.PeakChange), "mg/dL", 1)),
		fmt.Sprintf("- Glucose levels out after about `%s`.", FormatFloat(float64(impact.ReturnToBaseline), "h", 1)),
	)
	return strings.Join(lines, "\n")
}

// SummarizeProfile restates the population targets.
func SummarizeProfile(p report.ProfileSummary) string {
	if p.Key == "" {
		return "No patient profile loaded."
	}
	lines := []string{
		fmt.Sprintf("- Population: **%s**", p.DisplayName),
		fmt.Sprintf("- Target range: `%.0f-%.0f mg/dL`", p.TargetRange.Lower, p.TargetRange.Upper),
	}
	if p.TargetsSummary != "" {
		lines = append(lines, "- Key targets: "+p.TargetsSummary)
	}
	if p.Recommendation != "" {
		lines = append(lines, "- Recommendations:\n"+p.Recommendation)
	}
	return strings.Join(lines, "\n")
}
