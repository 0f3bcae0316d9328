package nutrition

import "nutrition-bot/internal/models"

type pregnancyTip struct {
	trimesters []models.Trimester // nil means every trimester
	suggestion models.Suggestion
}

var pregnancyTips = []pregnancyTip{
	{
		trimesters: []models.Trimester{models.TrimesterFirst},
		suggestion: models.Suggestion{
			Type:        "pregnancy_folate",
			Icon:        "🥬",
			Title:       "Folate Is Key",
			Description: "Folate supports your baby's neural tube development in the first trimester.",
			Action:      "Eat leafy greens, lentils and fortified cereals, and take your prenatal vitamin.",
			Priority:    models.PriorityHigh,
		},
	},
	{
		trimesters: []models.Trimester{models.TrimesterSecond, models.TrimesterThird},
		suggestion: models.Suggestion{
			Type:        "pregnancy_iron",
			Icon:        "🫘",
			Title:       "Keep Iron Up",
			Description: "Your blood volume is growing and iron needs rise to about 27mg a day.",
			Action:      "Pair lean red meat, beans or spinach with vitamin C for better absorption.",
			Priority:    models.PriorityHigh,
		},
	},
	{
		suggestion: models.Suggestion{
			Type:        "pregnancy_calcium",
			Icon:        "🥛",
			Title:       "Calcium For Two",
			Description: "Calcium builds your baby's bones and protects your own.",
			Action:      "Have 3 servings of dairy or fortified alternatives a day.",
			Priority:    models.PriorityMedium,
		},
	},
	{
		trimesters: []models.Trimester{models.TrimesterThird},
		suggestion: models.Suggestion{
			Type:        "pregnancy_dha",
			Icon:        "🐟",
			Title:       "Omega-3 DHA",
			Description: "Your baby's brain grows rapidly in the third trimester.",
			Action:      "Eat 2 servings a week of low-mercury fish like salmon or sardines.",
			Priority:    models.PriorityMedium,
		},
	},
	{
		trimesters: []models.Trimester{models.TrimesterFirst},
		suggestion: models.Suggestion{
			Type:        "pregnancy_small_meals",
			Icon:        "🍽️",
			Title:       "Small, Frequent Meals",
			Description: "Smaller meals every few hours can ease nausea.",
			Action:      "Keep crackers or fruit handy and avoid long gaps between meals.",
			Priority:    models.PriorityMedium,
		},
	},
	{
		suggestion: models.Suggestion{
			Type:        "pregnancy_hydration",
			Icon:        "💧",
			Title:       "Stay Hydrated",
			Description: "You need more fluid during pregnancy, about 10 cups a day.",
			Action:      "Keep a water bottle with you and sip throughout the day.",
			Priority:    models.PriorityMedium,
		},
	},
	{
		suggestion: models.Suggestion{
			Type:        "pregnancy_foods_to_avoid",
			Icon:        "🚫",
			Title:       "Foods To Avoid",
			Description: "Some foods carry risks of listeria, mercury or toxins.",
			Action:      "Skip raw fish, unpasteurized cheese, deli meats, high-mercury fish and alcohol.",
			Priority:    models.PriorityHigh,
		},
	},
}

// PregnancySuggestions returns the nutrition tips that apply to a trimester,
// in their fixed order.
func PregnancySuggestions(t models.Trimester) []models.Suggestion {
	var out []models.Suggestion
	for _, tip := range pregnancyTips {
		if tip.trimesters == nil || hasTrimester(tip.trimesters, t) {
			out = append(out, tip.suggestion)
		}
	}
	return out
}

func hasTrimester(ts []models.Trimester, t models.Trimester) bool {
	for _, x := range ts {
		if x == t {
			return true
		}
	}
	return false
}
