package mcp

import (
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// NoArgs is the input of tools without parameters.
type NoArgs struct{}

// SourceArgs selects the data and profile an analysis runs on.
type SourceArgs struct {
	Source  string `json:"source" jsonschema:"source id (patient or device) of an imported event log"`
	Profile string `json:"profile,omitempty" jsonschema:"patient profile key, e.g. T1DM or GDM; defaults to the configured profile"`
	Start   string `json:"start,omitempty" jsonschema:"optional inclusive window start, YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS"`
	End     string `json:"end,omitempty" jsonschema:"optional inclusive window end; a bare date covers the whole day"`
}

// ImportArgs names a JSONL file to load into a source log.
type ImportArgs struct {
	Source string `json:"source" jsonschema:"source id to import into"`
	Path   string `json:"path" jsonschema:"path of a JSONL file with one {kind, time, value|dose|carbs} record per line"`
	Reset  bool   `json:"reset,omitempty" jsonschema:"drop the existing events of the source before importing"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "list_profiles",
		Description: "List the patient profiles (populations) with their target range and glucose bands. The profile decides which bands the time-in-range metrics use.",
	}, s.handleListProfiles)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "list_sources",
		Description: "List the sources (patients or devices) with imported events and their event counts.",
	}, s.handleListSources)

	sdk.AddTool(s.server, &sdk.Tool{
		Name: "import_events",
		Description: "Import glucose, insulin and meal records from a JSONL file into the event log of a source. " +
			"Re-importing the same records is a no-op. Call this before any analysis tool.",
	}, s.handleImportEvents)

	sdk.AddTool(s.server, &sdk.Tool{
		Name: "get_glucose_metrics",
		Description: "Compute time in each profile band, mean glucose, SD, CV, GMI, GRI and MAGE for a source. " +
			"Values that cannot be computed are null.",
	}, s.handleGetGlucoseMetrics)

	sdk.AddTool(s.server, &sdk.Tool{
		Name: "get_agp_envelope",
		Description: "Compute the Ambulatory Glucose Profile: P5/P25/P50/P75/P95 per time of day across all days, " +
			"the IQR and IDR widths, their variability classification and a textual interpretation.",
	}, s.handleGetAGPEnvelope)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "get_daily_ranges",
		Description: "Compute the share of readings in each profile band for every calendar day.",
	}, s.handleGetDailyRanges)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "get_glycemic_events",
		Description: "List readings below 70 and 54 mg/dL and above 180 and 250 mg/dL with their distribution by date and hour of day.",
	}, s.handleGetGlycemicEvents)

	sdk.AddTool(s.server, &sdk.Tool{
		Name: "get_insulin_usage",
		Description: "Classify insulin doses as long-acting, rapid-acting, premixed or unknown (from the configured regimen, " +
			"otherwise from dose size and time of day) and summarise counts, doses, usual injection times and daily totals.",
	}, s.handleGetInsulinUsage)

	sdk.AddTool(s.server, &sdk.Tool{
		Name: "get_insulin_response",
		Description: "Estimate insulin action from the glucose readings following each dose: onset, peak, duration and " +
			"sensitivity (mg/dL per unit), overall and per insulin category. These are observational estimates, not clinical parameters.",
	}, s.handleGetInsulinResponse)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "get_meal_response",
		Description: "Summarise meals and carbohydrates and estimate the glucose response after meals: time to peak, peak rise and time to return to baseline.",
	}, s.handleGetMealResponse)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "get_full_report",
		Description: "Run every analysis for a source and return them as one report.",
	}, s.handleGetFullReport)

	sdk.AddTool(s.server, &sdk.Tool{
		Name: "get_narrative_context",
		Description: "Build the integrated analysis context for writing a patient-facing narrative: a text summary and the raw data of every analysis. " +
			"Describe observations only; do not give dosing advice.",
	}, s.handleGetNarrativeContext)
}
