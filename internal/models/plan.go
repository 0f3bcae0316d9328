package models

import "time"

// BiometricInput carries everything the plan calculator needs. Weight and
// height are metric; callers convert imperial units beforehand.
type BiometricInput struct {
	BirthMonth      int        `json:"birth_month"`
	BirthYear       int        `json:"birth_year"`
	Sex             Sex        `json:"sex"`
	WeightKg        float64    `json:"weight_kg"`
	TargetWeightKg  *float64   `json:"target_weight_kg,omitempty"`
	HeightCm        float64    `json:"height_cm"`
	WorkoutsPerWeek *int       `json:"workouts_per_week,omitempty"`
	Goal            Goal       `json:"goal"`
	IsPregnant      bool       `json:"is_pregnant"`
	Trimester       Trimester  `json:"trimester,omitempty"`
	TargetDate      *time.Time `json:"target_date,omitempty"`
}

type NutritionPlan struct {
	Age                int     `json:"age"`
	BMR                float64 `json:"bmr"`
	TDEE               float64 `json:"tdee"`
	TargetCalories     int     `json:"target_calories"`
	ProteinG           int     `json:"protein"`
	CarbsG             int     `json:"carbs"`
	FatG               int     `json:"fat"`
	WeeksToGoal        int     `json:"weeks_to_goal,omitempty"`
	WeeklyWeightChange float64 `json:"weekly_weight_change,omitempty"`
	Reasoning          string  `json:"reasoning"`
}
