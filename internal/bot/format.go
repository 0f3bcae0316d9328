package bot

import (
	"fmt"
	"strings"

	"nutrition-bot/internal/models"
	"nutrition-bot/internal/nutrition"
)

var goalLabels = map[models.Goal]string{
	models.GoalLoseWeight:  "lose weight",
	models.GoalMaintain:    "maintain weight",
	models.GoalBuildMuscle: "build muscle",
}

func formatSummary(in models.BiometricInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sex: %s\n", strings.ToLower(string(in.Sex)))
	fmt.Fprintf(&b, "Born: %02d/%d\n", in.BirthMonth, in.BirthYear)
	fmt.Fprintf(&b, "Height: %.0f cm\n", in.HeightCm)
	fmt.Fprintf(&b, "Weight: %.1f kg\n", in.WeightKg)
	if in.WorkoutsPerWeek != nil {
		fmt.Fprintf(&b, "Workouts: %d per week\n", *in.WorkoutsPerWeek)
	}
	fmt.Fprintf(&b, "Goal: %s", goalLabels[in.Goal])
	if in.TargetWeightKg != nil {
		fmt.Fprintf(&b, " (target %.1f kg)", *in.TargetWeightKg)
	}
	if in.IsPregnant {
		fmt.Fprintf(&b, "\nPregnant: %s trimester", strings.ToLower(string(in.Trimester)))
	}
	return b.String()
}

func formatPlan(plan models.NutritionPlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎯 Your daily target: %d kcal\n\n", plan.TargetCalories)
	fmt.Fprintf(&b, "Protein: %d g\nCarbs: %d g\nFat: %d g\n\n", plan.ProteinG, plan.CarbsG, plan.FatG)
	fmt.Fprintf(&b, "BMR %.0f kcal, maintenance %.0f kcal.\n", plan.BMR, plan.TDEE)
	if plan.WeeksToGoal > 0 {
		fmt.Fprintf(&b, "Timeline: about %d weeks at %.2f kg per week.\n", plan.WeeksToGoal, plan.WeeklyWeightChange)
	}
	b.WriteString("\n")
	b.WriteString(plan.Reasoning)
	return b.String()
}

func formatProfile(p models.UserProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎯 Daily target: %d kcal\n", p.DailyCalorieTarget)
	fmt.Fprintf(&b, "Protein: %d g, carbs: %d g, fat: %d g\n", p.ProteinTarget, p.CarbsTarget, p.FatTarget)
	fmt.Fprintf(&b, "Goal: %s", goalLabels[p.Goal])
	if p.IsPregnant {
		fmt.Fprintf(&b, "\nPregnancy plan, %s trimester", strings.ToLower(string(p.Trimester)))
	}
	if p.IsPremium {
		b.WriteString("\n⭐ Premium")
	}
	return b.String()
}

func formatMeal(meal models.Meal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🍽 %s logged\n", meal.MealType)
	for _, it := range meal.Items {
		fmt.Fprintf(&b, "• %s", it.FoodName)
		if it.Quantity != "" {
			fmt.Fprintf(&b, " (%s)", it.Quantity)
		}
		fmt.Fprintf(&b, ": %.0f kcal\n", it.Calories)
	}
	fmt.Fprintf(&b, "\nTotal: %.0f kcal, P %.0f g, C %.0f g, F %.0f g\n",
		meal.Totals.Calories, meal.Totals.Protein, meal.Totals.Carbs, meal.Totals.Fat)

	if g := meal.Grade; g != nil {
		fmt.Fprintf(&b, "\nGrade: %s (%d/100)\n%s\n", g.Grade, g.Score, g.Summary)
		for _, p := range g.Positives {
			fmt.Fprintf(&b, "✅ %s\n", p)
		}
		for _, f := range g.Feedback {
			fmt.Fprintf(&b, "⚠️ %s\n", f)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatInsights(res models.InsightsResult) string {
	if !res.HasEnoughData {
		return fmt.Sprintf("📊 You have logged meals on %d of the last %d days. Insights unlock after %d days.",
			res.DaysWithData, nutrition.InsightWindowDays, nutrition.MinInsightDays)
	}

	var b strings.Builder
	b.WriteString("📊 Your week\n")
	for _, in := range res.Insights {
		fmt.Fprintf(&b, "\n%s %s\n%s\n", in.Icon, in.Title, in.Description)
	}
	b.WriteString("\nCalories by day:\n")
	for _, p := range res.WeeklyChart {
		fmt.Fprintf(&b, "%s %.0f\n", p.Day, p.Calories)
	}
	if len(res.MacroChart) > 0 {
		parts := make([]string, 0, len(res.MacroChart))
		for _, m := range res.MacroChart {
			parts = append(parts, fmt.Sprintf("%s %.1f%%", m.Name, m.Percent))
		}
		fmt.Fprintf(&b, "\nMacros: %s", strings.Join(parts, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatSuggestions(res models.SuggestionsResult) string {
	switch res.Reason {
	case models.ReasonInsufficientData:
		return fmt.Sprintf("💡 Keep logging! Suggestions need %d days of meals; you have %d so far.",
			nutrition.MinSuggestionDays, res.DaysTracked)
	case models.ReasonIndexNeeded:
		return "💡 Suggestions are temporarily unavailable. Please try again later."
	}
	if len(res.Suggestions) == 0 {
		return "💡 Nothing to change right now. Keep it up!"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "💡 Based on %d meals over %d days:\n", res.MealsUsed, res.DaysTracked)
	for i, s := range res.Suggestions {
		fmt.Fprintf(&b, "\n%d. %s %s\n%s\n👉 %s\n", i+1, s.Icon, s.Title, s.Description, s.Action)
	}
	return strings.TrimRight(b.String(), "\n")
}
