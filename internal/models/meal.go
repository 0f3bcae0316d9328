package models

import "time"

type MealType string

const (
	MealBreakfast MealType = "Breakfast"
	MealLunch     MealType = "Lunch"
	MealDinner    MealType = "Dinner"
	MealSnack     MealType = "Snack"
)

type MealItem struct {
	FoodName string  `json:"food_name"`
	Quantity string  `json:"quantity"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

type MealTotals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// SumItems derives meal totals from its items.
func SumItems(items []MealItem) MealTotals {
	var t MealTotals
	for _, it := range items {
		t.Calories += it.Calories
		t.Protein += it.Protein
		t.Carbs += it.Carbs
		t.Fat += it.Fat
	}
	return t
}

type MacroBreakdown struct {
	ProteinPct int `json:"protein_pct"`
	CarbsPct   int `json:"carbs_pct"`
	FatPct     int `json:"fat_pct"`
}

type GradeData struct {
	Grade     string         `json:"grade"`
	Score     int            `json:"score"`
	Feedback  []string       `json:"feedback"`
	Positives []string       `json:"positives"`
	Color     string         `json:"color"`
	Macros    MacroBreakdown `json:"macro_breakdown"`
	Summary   string         `json:"summary"`
	GradedAt  time.Time      `json:"graded_at"`
}

type Meal struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	LoggedAt    time.Time  `json:"timestamp"`
	MealType    MealType   `json:"meal_type"`
	Description string     `json:"description"`
	Items       []MealItem `json:"items"`
	Totals      MealTotals `json:"totals"`
	Grade       *GradeData `json:"grade,omitempty"`
}
