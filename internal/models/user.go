package models

import (
	"time"
)

type Sex string

const (
	SexMale   Sex = "MALE"
	SexFemale Sex = "FEMALE"
)

type Goal string

const (
	GoalLoseWeight  Goal = "LOSE_WEIGHT"
	GoalMaintain    Goal = "MAINTAIN"
	GoalBuildMuscle Goal = "BUILD_MUSCLE"
)

type Trimester string

const (
	TrimesterFirst  Trimester = "FIRST"
	TrimesterSecond Trimester = "SECOND"
	TrimesterThird  Trimester = "THIRD"
)

// UserProfile is the slice of the user record the engine reads. It is only
// written back when a user confirms a freshly computed NutritionPlan.
type UserProfile struct {
	UserID             string    `json:"user_id"`
	ChatID             int64     `json:"chat_id,omitempty"`
	Username           string    `json:"username,omitempty"`
	Goal               Goal      `json:"goal"`
	DailyCalorieTarget int       `json:"daily_calorie_target"`
	ProteinTarget      int       `json:"protein_target"`
	CarbsTarget        int       `json:"carbs_target"`
	FatTarget          int       `json:"fat_target"`
	IsPregnant         bool      `json:"is_pregnant"`
	Trimester          Trimester `json:"trimester,omitempty"`
	IsPremium          bool      `json:"is_premium"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ApplyPlan copies the targets of a confirmed plan onto the profile.
func (p *UserProfile) ApplyPlan(in BiometricInput, plan NutritionPlan) {
	p.Goal = in.Goal
	p.DailyCalorieTarget = plan.TargetCalories
	p.ProteinTarget = plan.ProteinG
	p.CarbsTarget = plan.CarbsG
	p.FatTarget = plan.FatG
	p.IsPregnant = in.IsPregnant
	p.Trimester = ""
	if in.IsPregnant {
		p.Trimester = in.Trimester
	}
}

type Payment struct {
	ID              int64     `json:"id"`
	UserID          string    `json:"user_id"`
	Amount          int       `json:"amount"`
	Currency        string    `json:"currency"`
	StripePaymentID string    `json:"stripe_payment_id"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type UserState struct {
	TelegramID      int64          `json:"telegram_id"`
	CurrentState    string         `json:"current_state"`
	Input           BiometricInput `json:"input"`
	StripeSessionID string         `json:"stripe_session_id"`
}
