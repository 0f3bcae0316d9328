package nutrition_test

import (
	"testing"
	"time"

	"nutrition-bot/internal/models"
	"nutrition-bot/internal/nutrition"
)

// historyMeals returns perDay meals on each of days consecutive days, most recent first.
func historyMeals(days, perDay int, totals models.MealTotals, score int) []models.Meal {
	var meals []models.Meal
	for d := 0; d < days; d++ {
		for i := 0; i < perDay; i++ {
			m := models.Meal{
				UserID:   "user-1",
				LoggedAt: insightsNow.AddDate(0, 0, -d).Add(-time.Duration(i) * time.Hour),
				Totals:   totals,
			}
			if score > 0 {
				m.Grade = &models.GradeData{Score: score}
			}
			meals = append(meals, m)
		}
	}
	return meals
}

func suggestionTypes(list []models.Suggestion) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, s.Type)
	}
	return out
}

func TestBuildSuggestionsInsufficientData(t *testing.T) {
	t.Parallel()

	meals := historyMeals(9, 3, models.MealTotals{Calories: 500, Protein: 30, Carbs: 50, Fat: 15}, 80)
	res := nutrition.BuildSuggestions(meals, models.UserProfile{Goal: models.GoalMaintain}, time.UTC)
	if res.Reason != models.ReasonInsufficientData {
		t.Fatalf("expected insufficient_data, got %q", res.Reason)
	}
	if len(res.Suggestions) != 0 || res.DaysTracked != 9 {
		t.Fatalf("expected no suggestions over 9 days, got %+v", res)
	}
}

func TestBuildSuggestionsRankingAndCap(t *testing.T) {
	t.Parallel()

	meals := historyMeals(12, 2, models.MealTotals{Calories: 700, Protein: 10, Carbs: 50, Fat: 40}, 50)
	profile := models.UserProfile{Goal: models.GoalBuildMuscle, DailyCalorieTarget: 1500}

	res := nutrition.BuildSuggestions(meals, profile, time.UTC)
	if res.Reason != "" {
		t.Fatalf("unexpected reason %q", res.Reason)
	}
	got := suggestionTypes(res.Suggestions)
	want := []string{"protein_low", "calories_over", "fat_high"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if res.Averages == nil || res.Averages.Calories != 700 || res.Averages.GradeScore != 50 {
		t.Fatalf("unexpected averages %+v", res.Averages)
	}
}

func TestBuildSuggestionsPerMealAverage(t *testing.T) {
	t.Parallel()

	// Three meals a day at 600 kcal estimate 1800 kcal a day. A per-day
	// average would have been 1800 and estimated 5400.
	meals := historyMeals(10, 3, models.MealTotals{Calories: 600, Protein: 45, Carbs: 60, Fat: 20}, 90)
	profile := models.UserProfile{Goal: models.GoalMaintain, DailyCalorieTarget: 1800}

	res := nutrition.BuildSuggestions(meals, profile, time.UTC)
	if res.Averages.Calories != 600 {
		t.Fatalf("expected per-meal average 600, got %v", res.Averages.Calories)
	}
	for _, s := range res.Suggestions {
		if s.Type == "calories_over" || s.Type == "calories_under" {
			t.Fatalf("calories are on target, got %+v", s)
		}
	}
	got := suggestionTypes(res.Suggestions)
	if len(got) != 2 || got[0] != "protein_good" || got[1] != "grade_high" {
		t.Fatalf("expected protein_good and grade_high, got %v", got)
	}
}

func TestBuildSuggestionsSampleCap(t *testing.T) {
	t.Parallel()

	recent := historyMeals(20, 5, models.MealTotals{Calories: 500, Protein: 30, Carbs: 50, Fat: 15}, 0)
	older := historyMeals(5, 4, models.MealTotals{Calories: 5000, Protein: 30, Carbs: 50, Fat: 15}, 0)
	meals := append(recent, older...)

	res := nutrition.BuildSuggestions(meals, models.UserProfile{Goal: models.GoalMaintain}, time.UTC)
	if res.MealsUsed != nutrition.SuggestionSampleSize {
		t.Fatalf("expected %d meals, got %d", nutrition.SuggestionSampleSize, res.MealsUsed)
	}
	if res.Averages.Calories != 500 {
		t.Fatalf("meals beyond the sample leaked into averages: %v", res.Averages.Calories)
	}
}

func TestBuildSuggestionsPregnancy(t *testing.T) {
	t.Parallel()

	meals := historyMeals(10, 3, models.MealTotals{Calories: 600, Protein: 30, Carbs: 80, Fat: 20}, 0)
	cases := []struct {
		trimester models.Trimester
		want      []string
	}{
		{models.TrimesterFirst, []string{"pregnancy_folate", "pregnancy_foods_to_avoid", "pregnancy_calcium"}},
		{models.TrimesterSecond, []string{"pregnancy_iron", "pregnancy_foods_to_avoid", "pregnancy_calcium"}},
		{models.TrimesterThird, []string{"pregnancy_iron", "pregnancy_foods_to_avoid", "pregnancy_calcium"}},
	}
	for _, tc := range cases {
		profile := models.UserProfile{Goal: models.GoalLoseWeight, IsPregnant: true, Trimester: tc.trimester}
		got := suggestionTypes(nutrition.BuildSuggestions(meals, profile, time.UTC).Suggestions)
		if len(got) != 3 {
			t.Fatalf("%s: expected 3 suggestions, got %v", tc.trimester, got)
		}
		for i := range tc.want {
			if got[i] != tc.want[i] {
				t.Fatalf("%s: expected %v, got %v", tc.trimester, tc.want, got)
			}
		}
	}
}

func TestPregnancySuggestionsByTrimester(t *testing.T) {
	t.Parallel()

	has := func(list []models.Suggestion, kind string) bool {
		for _, s := range list {
			if s.Type == kind {
				return true
			}
		}
		return false
	}
	first := nutrition.PregnancySuggestions(models.TrimesterFirst)
	third := nutrition.PregnancySuggestions(models.TrimesterThird)
	if !has(first, "pregnancy_folate") || !has(first, "pregnancy_small_meals") || has(first, "pregnancy_iron") {
		t.Fatalf("unexpected first trimester set %v", suggestionTypes(first))
	}
	if !has(third, "pregnancy_iron") || !has(third, "pregnancy_dha") || has(third, "pregnancy_folate") {
		t.Fatalf("unexpected third trimester set %v", suggestionTypes(third))
	}
	for _, always := range []string{"pregnancy_calcium", "pregnancy_hydration", "pregnancy_foods_to_avoid"} {
		if !has(first, always) || !has(third, always) {
			t.Fatalf("expected %s in every trimester", always)
		}
	}
}

func TestRankSuggestionsStable(t *testing.T) {
	t.Parallel()

	in := []models.Suggestion{
		{Type: "p1", Priority: models.PriorityPositive},
		{Type: "m1", Priority: models.PriorityMedium},
		{Type: "h1", Priority: models.PriorityHigh},
		{Type: "m2", Priority: models.PriorityMedium},
		{Type: "h2", Priority: models.PriorityHigh},
	}
	got := suggestionTypes(nutrition.RankSuggestions(in))
	want := []string{"h1", "h2", "m1"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if len(nutrition.RankSuggestions(in[:2])) != 2 {
		t.Fatalf("short lists must not be padded")
	}
	if in[0].Type != "p1" {
		t.Fatalf("input must not be reordered")
	}
}
