package nutrition

import (
	"fmt"
	"math"
	"sort"
	"time"

	"nutrition-bot/internal/models"
)

const (
	SuggestionSampleSize  = 100
	MinSuggestionDays     = 10
	MaxSuggestions        = 3
	calorieDriftTolerance = 0.20
	highFatAverage        = 40.0
	lowGradeAverage       = 70.0
	highGradeAverage      = 85.0
)

var priorityRank = map[models.Priority]int{
	models.PriorityHigh:     0,
	models.PriorityMedium:   1,
	models.PriorityPositive: 2,
}

// RankSuggestions orders candidates high, medium, positive, keeping the
// generation order within a priority, and keeps the first MaxSuggestions.
func RankSuggestions(candidates []models.Suggestion) []models.Suggestion {
	out := make([]models.Suggestion, len(candidates))
	copy(out, candidates)
	sort.SliceStable(out, func(i, j int) bool {
		return priorityRank[out[i].Priority] < priorityRank[out[j].Priority]
	})
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}

// Averages computes per-meal (not per-day) means across the sample, plus the
// mean grade score over the meals that carry a grade.
func Averages(meals []models.Meal) models.NutritionAverages {
	var avg models.NutritionAverages
	if len(meals) == 0 {
		return avg
	}
	var gradeSum float64
	for _, m := range meals {
		avg.Calories += m.Totals.Calories
		avg.Protein += m.Totals.Protein
		avg.Carbs += m.Totals.Carbs
		avg.Fat += m.Totals.Fat
		if m.Grade != nil {
			gradeSum += float64(m.Grade.Score)
			avg.GradedMeal++
		}
	}
	n := float64(len(meals))
	avg.Calories /= n
	avg.Protein /= n
	avg.Carbs /= n
	avg.Fat /= n
	if avg.GradedMeal > 0 {
		avg.GradeScore = gradeSum / float64(avg.GradedMeal)
	}
	return avg
}

// DistinctDays counts the local calendar dates that have at least one meal.
func DistinctDays(meals []models.Meal, loc *time.Location) int {
	seen := make(map[string]struct{})
	for _, m := range meals {
		seen[m.LoggedAt.In(loc).Format(time.DateOnly)] = struct{}{}
	}
	return len(seen)
}

// BuildSuggestions turns recent meal history (most recent first) into at most
// three ranked suggestions.
func BuildSuggestions(meals []models.Meal, profile models.UserProfile, loc *time.Location) models.SuggestionsResult {
	if len(meals) > SuggestionSampleSize {
		meals = meals[:SuggestionSampleSize]
	}
	res := models.SuggestionsResult{
		Suggestions: []models.Suggestion{},
		DaysTracked: DistinctDays(meals, loc),
		MealsUsed:   len(meals),
	}
	if res.DaysTracked < MinSuggestionDays {
		res.Reason = models.ReasonInsufficientData
		return res
	}

	avg := Averages(meals)
	res.Averages = &avg

	var candidates []models.Suggestion
	if profile.IsPregnant {
		candidates = append(candidates, PregnancySuggestions(profile.Trimester)...)
	} else {
		candidates = append(candidates, goalSuggestions(profile.Goal, avg)...)
	}
	candidates = append(candidates, balanceSuggestions(profile, avg)...)

	res.Suggestions = RankSuggestions(candidates)
	return res
}

func goalSuggestions(goal models.Goal, avg models.NutritionAverages) []models.Suggestion {
	proteinPct, carbsPct, _ := macroShares(avg.Protein, avg.Carbs, avg.Fat)
	var out []models.Suggestion

	switch goal {
	case models.GoalBuildMuscle:
		switch {
		case proteinPct < 20:
			out = append(out, models.Suggestion{
				Type:        "protein_low",
				Icon:        "🥩",
				Title:       "Boost Your Protein",
				Description: fmt.Sprintf("Only %.0f%% of your calories come from protein. Muscle growth needs at least 25%%.", proteinPct),
				Action:      "Add chicken, fish, eggs, Greek yogurt or tofu to every meal.",
				Priority:    models.PriorityHigh,
			})
		case proteinPct < 25:
			out = append(out, models.Suggestion{
				Type:        "protein_moderate",
				Icon:        "🍗",
				Title:       "A Little More Protein",
				Description: fmt.Sprintf("Protein is at %.0f%% of calories. Push it past 25%% for better muscle gain.", proteinPct),
				Action:      "Add a protein shake or an extra portion of lean meat each day.",
				Priority:    models.PriorityMedium,
			})
		case proteinPct >= 30:
			out = append(out, models.Suggestion{
				Type:        "protein_excellent",
				Icon:        "💪",
				Title:       "Protein On Point",
				Description: fmt.Sprintf("%.0f%% of your calories come from protein. Excellent for building muscle.", proteinPct),
				Action:      "Keep it up and spread protein evenly across meals.",
				Priority:    models.PriorityPositive,
			})
		default:
			out = append(out, models.Suggestion{
				Type:        "protein_good",
				Icon:        "👍",
				Title:       "Good Protein Intake",
				Description: fmt.Sprintf("Protein is at %.0f%% of calories, a solid base for muscle gain.", proteinPct),
				Action:      "Keep including a protein source in every meal.",
				Priority:    models.PriorityPositive,
			})
		}
		if carbsPct < 30 {
			out = append(out, models.Suggestion{
				Type:        "carbs_low",
				Icon:        "🍠",
				Title:       "Fuel Your Training",
				Description: fmt.Sprintf("Carbs are only %.0f%% of your calories. Training performance suffers without them.", carbsPct),
				Action:      "Add oats, rice, potatoes or fruit around your workouts.",
				Priority:    models.PriorityMedium,
			})
		}

	case models.GoalLoseWeight:
		switch {
		case proteinPct < 15:
			out = append(out, models.Suggestion{
				Type:        "protein_low",
				Icon:        "🥚",
				Title:       "More Protein, Less Hunger",
				Description: fmt.Sprintf("Only %.0f%% of your calories come from protein. Protein keeps you full and protects muscle while cutting.", proteinPct),
				Action:      "Start each meal with a lean protein source.",
				Priority:    models.PriorityHigh,
			})
		case proteinPct >= 25:
			out = append(out, models.Suggestion{
				Type:        "protein_excellent",
				Icon:        "💪",
				Title:       "Great Protein Balance",
				Description: fmt.Sprintf("%.0f%% of your calories come from protein, ideal while losing weight.", proteinPct),
				Action:      "Keep prioritizing protein at every meal.",
				Priority:    models.PriorityPositive,
			})
		default:
			out = append(out, models.Suggestion{
				Type:        "protein_good",
				Icon:        "👍",
				Title:       "Good Protein Intake",
				Description: fmt.Sprintf("Protein is at %.0f%% of calories.", proteinPct),
				Action:      "Aim for 25% to stay fuller on fewer calories.",
				Priority:    models.PriorityPositive,
			})
		}
		if carbsPct > 50 {
			out = append(out, models.Suggestion{
				Type:        "carbs_high",
				Icon:        "🍞",
				Title:       "Ease Up On Carbs",
				Description: fmt.Sprintf("Carbs make up %.0f%% of your calories, which can stall weight loss.", carbsPct),
				Action:      "Swap refined carbs for vegetables and lean protein.",
				Priority:    models.PriorityMedium,
			})
		}

	default:
		switch {
		case proteinPct < 12:
			out = append(out, models.Suggestion{
				Type:        "protein_low",
				Icon:        "🥜",
				Title:       "Add More Protein",
				Description: fmt.Sprintf("Only %.0f%% of your calories come from protein.", proteinPct),
				Action:      "Include beans, dairy, eggs or meat in more meals.",
				Priority:    models.PriorityMedium,
			})
		case proteinPct >= 20:
			out = append(out, models.Suggestion{
				Type:        "protein_good",
				Icon:        "👍",
				Title:       "Balanced Protein",
				Description: fmt.Sprintf("Protein is at %.0f%% of calories, a healthy balance.", proteinPct),
				Action:      "Keep it up.",
				Priority:    models.PriorityPositive,
			})
		}
	}
	return out
}

func balanceSuggestions(profile models.UserProfile, avg models.NutritionAverages) []models.Suggestion {
	var out []models.Suggestion

	if profile.DailyCalorieTarget > 0 {
		target := float64(profile.DailyCalorieTarget)
		estimated := avg.Calories * 3
		drift := (estimated - target) / target
		if math.Abs(drift) > calorieDriftTolerance {
			if drift > 0 {
				out = append(out, models.Suggestion{
					Type:        "calories_over",
					Icon:        "🔥",
					Title:       "Calories Above Target",
					Description: fmt.Sprintf("Your meals point to about %.0f kcal a day, %.0f%% above your %d kcal target.", estimated, drift*100, profile.DailyCalorieTarget),
					Action:      "Trim portions slightly or swap one calorie-dense item per meal.",
					Priority:    models.PriorityHigh,
				})
			} else {
				out = append(out, models.Suggestion{
					Type:        "calories_under",
					Icon:        "🍽️",
					Title:       "Eating Below Target",
					Description: fmt.Sprintf("Your meals point to about %.0f kcal a day, %.0f%% below your %d kcal target.", estimated, -drift*100, profile.DailyCalorieTarget),
					Action:      "Add a snack or a slightly larger portion to reach your target.",
					Priority:    models.PriorityMedium,
				})
			}
		}
	}

	_, _, fatPct := macroShares(avg.Protein, avg.Carbs, avg.Fat)
	if fatPct > highFatAverage {
		out = append(out, models.Suggestion{
			Type:        "fat_high",
			Icon:        "🧈",
			Title:       "Watch The Fat",
			Description: fmt.Sprintf("Fat makes up %.0f%% of your calories on average.", fatPct),
			Action:      "Choose grilled over fried and go easy on oils, cheese and sauces.",
			Priority:    models.PriorityMedium,
		})
	}

	if avg.GradedMeal > 0 {
		switch {
		case avg.GradeScore < lowGradeAverage:
			out = append(out, models.Suggestion{
				Type:        "grade_low",
				Icon:        "📈",
				Title:       "Raise Your Meal Scores",
				Description: fmt.Sprintf("Your meals average a score of %.0f.", avg.GradeScore),
				Action:      "Check the feedback on your lowest-graded meals and fix one thing at a time.",
				Priority:    models.PriorityMedium,
			})
		case avg.GradeScore >= highGradeAverage:
			out = append(out, models.Suggestion{
				Type:        "grade_high",
				Icon:        "⭐",
				Title:       "Top Quality Meals",
				Description: fmt.Sprintf("Your meals average a score of %.0f. Outstanding!", avg.GradeScore),
				Action:      "Keep doing what you're doing.",
				Priority:    models.PriorityPositive,
			})
		}
	}
	return out
}
