package nutrition

import (
	"fmt"
	"math"
	"time"

	"nutrition-bot/internal/models"
)

const (
	InsightWindowDays      = 7
	MinInsightDays         = 5
	DefaultProteinTarget   = 150
	DefaultCalorieTarget   = 2000
	proteinOpportunityRate = 0.8
)

// StartOfDay returns local midnight of t in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DailyTotals buckets meals into the given number of local calendar days
// ending today, oldest first. Meals outside the window are ignored.
func DailyTotals(meals []models.Meal, days int, now time.Time, loc *time.Location) []models.DailyTotal {
	today := StartOfDay(now, loc)
	buckets := make([]models.DailyTotal, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		d := today.AddDate(0, 0, i-(days-1))
		buckets[i].Date = d
		index[d.Format(time.DateOnly)] = i
	}
	for _, m := range meals {
		i, ok := index[m.LoggedAt.In(loc).Format(time.DateOnly)]
		if !ok {
			continue
		}
		b := &buckets[i]
		b.Calories += m.Totals.Calories
		b.Protein += m.Totals.Protein
		b.Carbs += m.Totals.Carbs
		b.Fat += m.Totals.Fat
		b.MealCount++
	}
	return buckets
}

// BuildInsights derives the weekly trend view. Fewer than MinInsightDays days
// with calories yields HasEnoughData=false and nothing else.
func BuildInsights(meals []models.Meal, profile models.UserProfile, now time.Time, loc *time.Location) models.InsightsResult {
	buckets := DailyTotals(meals, InsightWindowDays, now, loc)

	var withData []models.DailyTotal
	for _, b := range buckets {
		if b.Calories > 0 {
			withData = append(withData, b)
		}
	}
	res := models.InsightsResult{
		DaysWithData: len(withData),
		Insights:     []models.Insight{},
		WeeklyChart:  []models.ChartPoint{},
		MacroChart:   []models.MacroSlice{},
	}
	if len(withData) < MinInsightDays {
		return res
	}
	res.HasEnoughData = true

	target := profile.DailyCalorieTarget
	if target <= 0 {
		target = DefaultCalorieTarget
	}

	best, worst := withData[0], withData[0]
	for _, b := range withData[1:] {
		if b.Calories < best.Calories {
			best = b
		}
		if b.Calories > worst.Calories {
			worst = b
		}
	}
	res.Insights = append(res.Insights, bestDayInsight(best, target))
	if worst.Calories > float64(target) {
		res.Insights = append(res.Insights, models.Insight{
			Type:        "watch_out",
			Icon:        "⚠️",
			Title:       "Watch Out",
			Description: fmt.Sprintf("%s went %d kcal over your %d kcal target.", worst.Date.Weekday(), int(math.Round(worst.Calories))-target, target),
		})
	}

	proteinTarget := profile.ProteinTarget
	if proteinTarget <= 0 {
		proteinTarget = DefaultProteinTarget
	}
	var proteinSum float64
	for _, b := range withData {
		proteinSum += b.Protein
	}
	avgProtein := proteinSum / float64(len(withData))
	switch {
	case avgProtein < float64(proteinTarget)*proteinOpportunityRate:
		res.Insights = append(res.Insights, models.Insight{
			Type:        "protein_opportunity",
			Icon:        "🥩",
			Title:       "Protein Opportunity",
			Description: fmt.Sprintf("You averaged %.0fg of protein a day against a %dg target. Add a protein source to each meal.", avgProtein, proteinTarget),
		})
	case avgProtein >= float64(proteinTarget):
		res.Insights = append(res.Insights, models.Insight{
			Type:        "protein_champion",
			Icon:        "💪",
			Title:       "Protein Champion",
			Description: fmt.Sprintf("You averaged %.0fg of protein a day and hit your %dg target.", avgProtein, proteinTarget),
		})
	}

	res.Insights = append(res.Insights, consistencyInsight(len(withData)))

	for _, b := range buckets {
		res.WeeklyChart = append(res.WeeklyChart, models.ChartPoint{
			Day:      b.Date.Format("Mon"),
			Calories: b.Calories,
		})
	}
	res.MacroChart = macroChart(buckets)
	return res
}

func bestDayInsight(best models.DailyTotal, target int) models.Insight {
	desc := fmt.Sprintf("%s was your lightest day at %.0f kcal.", best.Date.Weekday(), best.Calories)
	if best.Calories < float64(target) {
		desc = fmt.Sprintf("%s was your most disciplined day at %.0f kcal, under target!", best.Date.Weekday(), best.Calories)
	}
	return models.Insight{
		Type:        "best_day",
		Icon:        "🏆",
		Title:       "Best Day",
		Description: desc,
	}
}

func consistencyInsight(daysLogged int) models.Insight {
	switch {
	case daysLogged >= InsightWindowDays:
		return models.Insight{
			Type:        "consistency",
			Icon:        "🔥",
			Title:       "Perfect Week",
			Description: "You logged meals every day this week. Keep the streak going!",
		}
	case daysLogged >= MinInsightDays:
		return models.Insight{
			Type:        "consistency",
			Icon:        "📅",
			Title:       "Great Consistency",
			Description: fmt.Sprintf("You logged meals on %d of the last 7 days.", daysLogged),
		}
	default:
		return models.Insight{
			Type:        "consistency",
			Icon:        "📝",
			Title:       "Log More Often",
			Description: "Logging every day gives you more accurate insights.",
		}
	}
}

func macroChart(buckets []models.DailyTotal) []models.MacroSlice {
	var protein, carbs, fat float64
	for _, b := range buckets {
		protein += b.Protein * kcalPerGramProtein
		carbs += b.Carbs * kcalPerGramCarbs
		fat += b.Fat * kcalPerGramFat
	}
	total := protein + carbs + fat
	if total == 0 {
		return []models.MacroSlice{}
	}
	slice := func(name string, kcal float64) models.MacroSlice {
		return models.MacroSlice{Name: name, Calories: kcal, Percent: math.Round(kcal/total*1000) / 10}
	}
	return []models.MacroSlice{
		slice("Protein", protein),
		slice("Carbs", carbs),
		slice("Fat", fat),
	}
}
