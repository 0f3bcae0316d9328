package models

import "time"

type DailyTotal struct {
	Date      time.Time `json:"date"`
	Calories  float64   `json:"calories"`
	Protein   float64   `json:"protein"`
	Carbs     float64   `json:"carbs"`
	Fat       float64   `json:"fat"`
	MealCount int       `json:"meal_count"`
}

type Insight struct {
	Type        string `json:"type"`
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type ChartPoint struct {
	Day      string  `json:"day"`
	Calories float64 `json:"calories"`
}

type MacroSlice struct {
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
	Percent  float64 `json:"percent"`
}

type InsightsResult struct {
	HasEnoughData bool         `json:"has_enough_data"`
	DaysWithData  int          `json:"days_with_data"`
	Insights      []Insight    `json:"insights"`
	WeeklyChart   []ChartPoint `json:"weekly_chart"`
	MacroChart    []MacroSlice `json:"macro_chart"`
}

type Priority string

const (
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityPositive Priority = "positive"
)

type Suggestion struct {
	Type        string   `json:"type"`
	Icon        string   `json:"icon"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Action      string   `json:"action"`
	Priority    Priority `json:"priority"`
}

const (
	ReasonInsufficientData = "insufficient_data"
	ReasonIndexNeeded      = "index_needed"
)

type NutritionAverages struct {
	Calories   float64 `json:"avg_calories"`
	Protein    float64 `json:"avg_protein"`
	Carbs      float64 `json:"avg_carbs"`
	Fat        float64 `json:"avg_fat"`
	GradeScore float64 `json:"avg_grade_score"`
	GradedMeal int     `json:"graded_meals"`
}

type SuggestionsResult struct {
	Suggestions []Suggestion       `json:"suggestions"`
	Reason      string             `json:"reason,omitempty"`
	DaysTracked int                `json:"days_tracked"`
	MealsUsed   int                `json:"meals_used"`
	Averages    *NutritionAverages `json:"averages,omitempty"`
}

// WeeklyReport bundles insights and suggestions for one user.
type WeeklyReport struct {
	UserID      string            `json:"user_id"`
	Insights    InsightsResult    `json:"insights"`
	Suggestions SuggestionsResult `json:"suggestions"`
}
