package insulin

import (
	"fmt"
	"math"

	"cgm-mcp/internal/cgm"
)

// Category is the inferred insulin type of a dose.
type Category string

const (
	CategoryLongActing  Category = "long-acting"
	CategoryRapidActing Category = "rapid-acting"
	CategoryPremixed    Category = "premixed"
	CategoryUnknown     Category = "unknown"
)

// Categories lists the categories in reporting order.
var Categories = []Category{CategoryLongActing, CategoryRapidActing, CategoryPremixed, CategoryUnknown}

// Source tells how a classification was obtained.
type Source string

const (
	SourceRegimen Source = "regimen"
	// SourceHeuristic marks best-effort guesses made without a regimen.
	// They are not authoritative.
	SourceHeuristic Source = "heuristic"
)

// Meal names a meal-time injection window.
type Meal string

const (
	MealBreakfast Meal = "breakfast"
	MealLunch     Meal = "lunch"
	MealDinner    Meal = "dinner"
)

const (
	// DoseTolerance is the allowed distance in units from a configured dose.
	DoseTolerance = 2.0
	// SlotTolerance is the allowed distance in hours from a long-acting slot.
	SlotTolerance = 1.0

	heuristicLongDose = 10.0
)

type mealWindow struct {
	meal     Meal
	slot     Slot
	from, to float64
}

// Bounds are inclusive.
var mealWindows = []mealWindow{
	{MealBreakfast, SlotMorning, 6, 10},
	{MealLunch, SlotNoon, 11, 14},
	{MealDinner, SlotEvening, 17, 21},
}

// ClassifiedDose is an insulin dose with its inferred category.
type ClassifiedDose struct {
	cgm.InsulinEvent
	Category Category `json:"category"`
	Meal     Meal     `json:"meal,omitempty"`
	Source   Source   `json:"source"`
}

// Label renders the category with its meal window, e.g. "rapid-acting (lunch)".
func (d ClassifiedDose) Label() string {
	if d.Meal == "" {
		return string(d.Category)
	}
	return fmt.Sprintf("%s (%s)", d.Category, d.Meal)
}

// Classify assigns a dose to a category. Without a regimen it falls back to
// time and magnitude heuristics.
func Classify(dose cgm.InsulinEvent, r *Regimen) ClassifiedDose {
	if r.Empty() {
		return classifyHeuristic(dose)
	}

	out := ClassifiedDose{InsulinEvent: dose, Category: CategoryUnknown, Source: SourceRegimen}
	hour := cgm.HourOfDay(dose.Timestamp)

	if p := r.LongActing; p != nil {
		for _, s := range Slots {
			expected := p.Dose(s)
			if expected <= 0 {
				continue
			}
			if math.Abs(dose.Dose-expected) <= DoseTolerance && clockDistance(hour, p.Time(s)) <= SlotTolerance {
				out.Category = CategoryLongActing
				return out
			}
		}
	}

	for _, c := range []struct {
		cat  Category
		plan *Plan
	}{
		{CategoryRapidActing, r.RapidActing},
		{CategoryPremixed, r.Premixed},
	} {
		if c.plan == nil {
			continue
		}
		for _, w := range mealWindows {
			expected := c.plan.Dose(w.slot)
			if expected <= 0 || hour < w.from || hour > w.to {
				continue
			}
			if math.Abs(dose.Dose-expected) <= DoseTolerance {
				out.Category = c.cat
				out.Meal = w.meal
				return out
			}
		}
	}
	return out
}

func classifyHeuristic(dose cgm.InsulinEvent) ClassifiedDose {
	out := ClassifiedDose{InsulinEvent: dose, Category: CategoryUnknown, Source: SourceHeuristic}
	hour := cgm.HourOfDay(dose.Timestamp)

	if dose.Dose >= heuristicLongDose {
		if (hour >= 4 && hour < 9) || hour >= 20 {
			out.Category = CategoryLongActing
		}
		return out
	}
	for _, w := range mealWindows {
		if hour >= w.from && hour <= w.to {
			out.Category = CategoryRapidActing
			out.Meal = w.meal
			break
		}
	}
	return out
}

// ClassifyAll classifies every dose and returns them in time order.
func ClassifyAll(doses []cgm.InsulinEvent, r *Regimen) []ClassifiedDose {
	sorted := cgm.SortInsulin(doses)
	out := make([]ClassifiedDose, len(sorted))
	for i, d := range sorted {
		out[i] = Classify(d, r)
	}
	return out
}

// ByCategory returns the plain events of one category, in input order.
func ByCategory(doses []ClassifiedDose, cat Category) []cgm.InsulinEvent {
	var out []cgm.InsulinEvent
	for _, d := range doses {
		if d.Category == cat {
			out = append(out, d.InsulinEvent)
		}
	}
	return out
}

// clockDistance is the distance in hours between two clock positions,
// wrapping at midnight.
func clockDistance(a, b float64) float64 {
	d := math.Abs(a - b)
	return math.Min(d, 24-d)
}
