package stats

import (
	"math"
	"sort"
	"time"

	"cgm-mcp/internal/cgm"
)

const (
	// DefaultJoinTolerance is how soon after an event the first glucose
	// reading must appear for the event to be matched.
	DefaultJoinTolerance = time.Hour
	// DefaultObservationHorizon bounds how long readings are attributed to an event.
	DefaultObservationHorizon = 6 * time.Hour
)

// CorrelationStatus tells whether a correlation summary carries estimates.
type CorrelationStatus string

const (
	StatusOK               CorrelationStatus = "ok"
	StatusInsufficientData CorrelationStatus = "insufficient_data"
)

// CorrelationOptions tunes the as-of join between glucose and events.
type CorrelationOptions struct {
	Tolerance time.Duration
	Horizon   time.Duration
}

// DefaultCorrelationOptions returns a one hour tolerance and a six hour horizon.
func DefaultCorrelationOptions() CorrelationOptions {
	return CorrelationOptions{Tolerance: DefaultJoinTolerance, Horizon: DefaultObservationHorizon}
}

func (o CorrelationOptions) withDefaults() CorrelationOptions {
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultJoinTolerance
	}
	if o.Horizon <= 0 {
		o.Horizon = DefaultObservationHorizon
	}
	if o.Horizon < o.Tolerance {
		o.Horizon = o.Tolerance
	}
	return o
}

// InsulinResponse is the glucose response observed after one dose.
type InsulinResponse struct {
	Timestamp   time.Time `json:"timestamp"`
	Dose        float64   `json:"dose"`
	Readings    int       `json:"readings"`
	ActionTime  Float     `json:"actionTimeHours"`
	PeakTime    Float     `json:"peakTimeHours"`
	Duration    Float     `json:"durationHours"`
	Sensitivity Float     `json:"sensitivity"`
}

// PharmacokineticSummary averages the responses of all matched doses.
// Doses logged at the same time count as one dose of the largest amount.
type PharmacokineticSummary struct {
	Status      CorrelationStatus `json:"status"`
	Reason      string            `json:"reason,omitempty"`
	Doses       int               `json:"doses"`
	Matched     int               `json:"matched"`
	ActionTime  Float             `json:"actionTimeHours"`
	PeakTime    Float             `json:"peakTimeHours"`
	Duration    Float             `json:"durationHours"`
	Sensitivity Float             `json:"sensitivity"`
	Events      []InsulinResponse `json:"events,omitempty"`
}

// MealResponse is the glucose response observed after one meal.
type MealResponse struct {
	Timestamp  time.Time `json:"timestamp"`
	Carbs      *float64  `json:"carbs,omitempty"`
	Readings   int       `json:"readings"`
	PeakTime   Float     `json:"peakTimeHours"`
	PeakChange Float     `json:"peakChange"`
	ReturnTime Float     `json:"returnToBaselineHours"`
}

// MealImpactSummary averages the responses of all matched meals.
// Meals logged at the same time count as one meal with the largest carbs.
type MealImpactSummary struct {
	Status           CorrelationStatus `json:"status"`
	Reason           string            `json:"reason,omitempty"`
	Meals            int               `json:"meals"`
	Matched          int               `json:"matched"`
	PeakTime         Float             `json:"peakTimeHours"`
	PeakChange       Float             `json:"peakChange"`
	ReturnToBaseline Float             `json:"returnToBaselineHours"`
	Events           []MealResponse    `json:"events,omitempty"`
}

// eventWindow lists the readings attributed to one event.
type eventWindow struct {
	indices []int
	elapsed []float64 // hours since the event
	matched bool
}

// attribute assigns every reading to the latest event at or before it. The
// window of an event ends at the next event or after the horizon. An event is
// matched when its first reading lies within the tolerance. Event times must
// be strictly increasing.
func attribute(series cgm.Series, events []time.Time, opts CorrelationOptions) []eventWindow {
	windows := make([]eventWindow, len(events))
	for i, at := range events {
		end := at.Add(opts.Horizon)
		if i+1 < len(events) && events[i+1].Before(end) {
			end = events[i+1]
		}

		start := sort.Search(len(series), func(j int) bool {
			return !series[j].Timestamp.Before(at)
		})

		w := eventWindow{}
		for j := start; j < len(series); j++ {
			ts := series[j].Timestamp
			if i+1 < len(events) && !ts.Before(events[i+1]) {
				break
			}
			if ts.After(end) {
				break
			}
			w.indices = append(w.indices, j)
			w.elapsed = append(w.elapsed, ts.Sub(at).Hours())
		}
		w.matched = len(w.elapsed) > 0 && w.elapsed[0] <= opts.Tolerance.Hours()
		windows[i] = w
	}
	return windows
}

// mergeSimultaneousDoses collapses time-ordered doses sharing a timestamp
// into the largest of them.
func mergeSimultaneousDoses(doses []cgm.InsulinEvent) []cgm.InsulinEvent {
	out := make([]cgm.InsulinEvent, 0, len(doses))
	for _, d := range doses {
		if n := len(out); n > 0 && out[n-1].Timestamp.Equal(d.Timestamp) {
			out[n-1].Dose = math.Max(out[n-1].Dose, d.Dose)
			continue
		}
		out = append(out, d)
	}
	return out
}

// mergeSimultaneousMeals collapses time-ordered meals sharing a timestamp
// into one meal carrying the largest known carbs.
func mergeSimultaneousMeals(meals []cgm.MealEvent) []cgm.MealEvent {
	out := make([]cgm.MealEvent, 0, len(meals))
	for _, m := range meals {
		n := len(out)
		if n == 0 || !out[n-1].Timestamp.Equal(m.Timestamp) {
			out = append(out, m)
			continue
		}
		if m.Carbs != nil && (out[n-1].Carbs == nil || *m.Carbs > *out[n-1].Carbs) {
			out[n-1].Carbs = m.Carbs
		}
	}
	return out
}

// firstDifferences returns v[i]-v[i-1] for the whole series, NaN at index 0.
func firstDifferences(series cgm.Series) []float64 {
	diffs := make([]float64, len(series))
	for i := range series {
		if i == 0 {
			diffs[i] = math.NaN()
			continue
		}
		diffs[i] = series[i].Value - series[i-1].Value
	}
	return diffs
}

// CorrelateInsulin estimates onset, peak, duration and sensitivity of the
// glucose response to each dose and averages them over matched doses.
func CorrelateInsulin(series cgm.Series, doses []cgm.InsulinEvent, opts CorrelationOptions) PharmacokineticSummary {
	opts = opts.withDefaults()
	summary := PharmacokineticSummary{Status: StatusInsufficientData, Doses: len(doses)}

	switch {
	case len(series) == 0:
		summary.Reason = "no glucose readings"
		return summary
	case len(doses) == 0:
		summary.Reason = "no insulin doses"
		return summary
	}

	sorted := mergeSimultaneousDoses(cgm.SortInsulin(doses))
	summary.Doses = len(sorted)
	times := make([]time.Time, len(sorted))
	for i, d := range sorted {
		times[i] = d.Timestamp
	}

	diffs := firstDifferences(series)
	windows := attribute(series, times, opts)

	var actions, peaks, durations, sensitivities []float64
	for i, w := range windows {
		if !w.matched {
			continue
		}
		dose := sorted[i]
		resp := InsulinResponse{
			Timestamp:   dose.Timestamp,
			Dose:        dose.Dose,
			Readings:    len(w.indices),
			ActionTime:  Float(w.elapsed[0]),
			Duration:    Float(w.elapsed[len(w.elapsed)-1]),
			PeakTime:    NaN(),
			Sensitivity: NaN(),
		}

		if k, minDiff := extremeDiff(w, diffs, func(d, best float64) bool { return d < best }); k >= 0 {
			resp.PeakTime = Float(w.elapsed[k])
			if dose.Dose > 0 {
				resp.Sensitivity = Float(minDiff / dose.Dose)
			}
		}

		summary.Events = append(summary.Events, resp)
		actions = append(actions, float64(resp.ActionTime))
		peaks = append(peaks, float64(resp.PeakTime))
		durations = append(durations, float64(resp.Duration))
		sensitivities = append(sensitivities, float64(resp.Sensitivity))
	}

	summary.Matched = len(summary.Events)
	if summary.Matched == 0 {
		summary.Reason = "no insulin dose has glucose readings within the join tolerance"
		return summary
	}

	summary.ActionTime = Float(meanIgnoringNaN(actions))
	summary.PeakTime = Float(meanIgnoringNaN(peaks))
	summary.Duration = Float(meanIgnoringNaN(durations))
	summary.Sensitivity = Float(meanIgnoringNaN(sensitivities))

	if !summary.ActionTime.Valid() && !summary.PeakTime.Valid() && !summary.Duration.Valid() && !summary.Sensitivity.Valid() {
		summary.Reason = "all estimates are undefined"
		return summary
	}
	summary.Status = StatusOK
	return summary
}

// CorrelateMeals estimates when glucose peaks after each meal, by how much,
// and when it settles, then averages over matched meals.
func CorrelateMeals(series cgm.Series, meals []cgm.MealEvent, opts CorrelationOptions) MealImpactSummary {
	opts = opts.withDefaults()
	summary := MealImpactSummary{Status: StatusInsufficientData, Meals: len(meals)}

	switch {
	case len(series) == 0:
		summary.Reason = "no glucose readings"
		return summary
	case len(meals) == 0:
		summary.Reason = "no meals"
		return summary
	}

	sorted := mergeSimultaneousMeals(cgm.SortMeals(meals))
	summary.Meals = len(sorted)
	times := make([]time.Time, len(sorted))
	for i, m := range sorted {
		times[i] = m.Timestamp
	}

	diffs := firstDifferences(series)
	windows := attribute(series, times, opts)

	var peakTimes, peakChanges, returns []float64
	for i, w := range windows {
		if !w.matched {
			continue
		}
		resp := MealResponse{
			Timestamp:  sorted[i].Timestamp,
			Carbs:      sorted[i].Carbs,
			Readings:   len(w.indices),
			PeakTime:   NaN(),
			PeakChange: NaN(),
			ReturnTime: NaN(),
		}

		if k, maxDiff := extremeDiff(w, diffs, func(d, best float64) bool { return d > best }); k >= 0 {
			resp.PeakTime = Float(w.elapsed[k])
			resp.PeakChange = Float(maxDiff)
		}
		if k, _ := extremeDiff(w, diffs, func(d, best float64) bool { return math.Abs(d) < math.Abs(best) }); k >= 0 {
			resp.ReturnTime = Float(w.elapsed[k])
		}

		summary.Events = append(summary.Events, resp)
		peakTimes = append(peakTimes, float64(resp.PeakTime))
		peakChanges = append(peakChanges, float64(resp.PeakChange))
		returns = append(returns, float64(resp.ReturnTime))
	}

	summary.Matched = len(summary.Events)
	if summary.Matched == 0 {
		summary.Reason = "no meal has glucose readings within the join tolerance"
		return summary
	}

	summary.PeakTime = Float(meanIgnoringNaN(peakTimes))
	summary.PeakChange = Float(meanIgnoringNaN(peakChanges))
	summary.ReturnToBaseline = Float(meanIgnoringNaN(returns))

	if !summary.PeakTime.Valid() && !summary.PeakChange.Valid() && !summary.ReturnToBaseline.Valid() {
		summary.Reason = "all estimates are undefined"
		return summary
	}
	summary.Status = StatusOK
	return summary
}

// extremeDiff returns the window position and value of the first defined
// difference preferred by better, or -1 when no difference is defined.
func extremeDiff(w eventWindow, diffs []float64, better func(d, best float64) bool) (int, float64) {
	pos, best := -1, math.NaN()
	for k, j := range w.indices {
		d := diffs[j]
		if math.IsNaN(d) {
			continue
		}
		if pos < 0 || better(d, best) {
			pos, best = k, d
		}
	}
	return pos, best
}
