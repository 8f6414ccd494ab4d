package stats

import (
	"slices"
	"strings"

	"cgm-mcp/internal/cgm"
)

// MealDay aggregates the meals recorded on one calendar day.
type MealDay struct {
	Date       string  `json:"date"`
	Meals      int     `json:"meals"`
	TotalGrams float64 `json:"totalGrams"`
	MeanGrams  Float   `json:"meanGrams"`
	MinGrams   Float   `json:"minGrams"`
	MaxGrams   Float   `json:"maxGrams"`
}

// MealStats summarises meal frequency and carbohydrate amounts.
type MealStats struct {
	Meals             int       `json:"meals"`
	MealsWithCarbs    int       `json:"mealsWithCarbs"`
	AverageDailyGrams Float     `json:"averageDailyGrams"`
	MaxMealGrams      Float     `json:"maxMealGrams"`
	MinMealGrams      Float     `json:"minMealGrams"`
	Days              []MealDay `json:"days"`
}

// SummarizeMeals computes daily and overall meal statistics. Meals without a
// carbohydrate amount count towards frequency only. It returns nil when there
// are no meals.
func SummarizeMeals(meals []cgm.MealEvent) *MealStats {
	if len(meals) == 0 {
		return nil
	}

	type dayAcc struct {
		meals int
		grams []float64
	}
	byDate := make(map[string]*dayAcc)
	var all []float64
	for _, m := range meals {
		key := cgm.DateKey(m.Timestamp)
		acc, ok := byDate[key]
		if !ok {
			acc = &dayAcc{}
			byDate[key] = acc
		}
		acc.meals++
		if m.Carbs != nil {
			acc.grams = append(acc.grams, *m.Carbs)
			all = append(all, *m.Carbs)
		}
	}

	res := &MealStats{
		Meals:             len(meals),
		MealsWithCarbs:    len(all),
		AverageDailyGrams: NaN(),
		MaxMealGrams:      NaN(),
		MinMealGrams:      NaN(),
	}

	var dailyTotals []float64
	for d, acc := range byDate {
		day := MealDay{Date: d, Meals: acc.meals, MeanGrams: NaN(), MinGrams: NaN(), MaxGrams: NaN()}
		if len(acc.grams) > 0 {
			for _, g := range acc.grams {
				day.TotalGrams += g
			}
			day.MeanGrams = Float(day.TotalGrams / float64(len(acc.grams)))
			day.MinGrams = Float(slices.Min(acc.grams))
			day.MaxGrams = Float(slices.Max(acc.grams))
			dailyTotals = append(dailyTotals, day.TotalGrams)
		}
		res.Days = append(res.Days, day)
	}
	slices.SortFunc(res.Days, func(a, b MealDay) int {
		return strings.Compare(a.Date, b.Date)
	})

	if len(all) > 0 {
		res.AverageDailyGrams = Float(Mean(dailyTotals))
		res.MaxMealGrams = Float(slices.Max(all))
		res.MinMealGrams = Float(slices.Min(all))
	}
	return res
}
