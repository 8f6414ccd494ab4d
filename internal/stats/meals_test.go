package stats

import (
	"testing"
	"time"

	"cgm-mcp/internal/cgm"
)

func TestSummarizeMeals(t *testing.T) {
	g := func(v float64) *float64 { return &v }
	meals := []cgm.MealEvent{
		{Timestamp: day0.Add(7 * time.Hour), Carbs: g(40)},
		{Timestamp: day0.Add(12 * time.Hour), Carbs: g(60)},
		{Timestamp: day0.Add(19 * time.Hour)},
		{Timestamp: day0.AddDate(0, 0, 1).Add(8 * time.Hour), Carbs: g(50)},
	}

	res := SummarizeMeals(meals)
	if res == nil {
		t.Fatal("expected meal stats")
	}
	if res.Meals != 4 || res.MealsWithCarbs != 3 {
		t.Errorf("counts = %d / %d, want 4 / 3", res.Meals, res.MealsWithCarbs)
	}
	// daily totals 100 and 50
	if res.AverageDailyGrams != 75 {
		t.Errorf("average daily grams = %v, want 75", res.AverageDailyGrams)
	}
	if res.MaxMealGrams != 60 || res.MinMealGrams != 40 {
		t.Errorf("max/min = %v / %v, want 60 / 40", res.MaxMealGrams, res.MinMealGrams)
	}

	if len(res.Days) != 2 || res.Days[0].Date != "2024-05-06" {
		t.Fatalf("unexpected days %+v", res.Days)
	}
	first := res.Days[0]
	if first.Meals != 3 || first.TotalGrams != 100 || first.MeanGrams != 50 {
		t.Errorf("first day = %+v", first)
	}
}

func TestSummarizeMeals_WithoutCarbs(t *testing.T) {
	res := SummarizeMeals([]cgm.MealEvent{{Timestamp: day0}})
	if res.Meals != 1 || res.AverageDailyGrams.Valid() || res.Days[0].MeanGrams.Valid() {
		t.Errorf("expected frequency only, got %+v", res)
	}

	if SummarizeMeals(nil) != nil {
		t.Errorf("expected nil for no meals")
	}
}
