package nutrition

import (
	"fmt"
	"math"
	"strings"
	"time"

	"nutrition-bot/internal/models"
)

const (
	kcalPerGramProtein = 4.0
	kcalPerGramCarbs   = 4.0
	kcalPerGramFat     = 9.0

	lbToKg = 0.453592
	inToCm = 2.54

	deficitFactor = 0.85
	surplusFactor = 1.10
)

// ValidationError reports biometric input that cannot be turned into a plan.
type ValidationError struct {
	Missing []string
	Reason  string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
	}
	return e.Reason
}

// MacroSplit is the calorie share assigned to each macronutrient.
type MacroSplit struct {
	Protein float64
	Carbs   float64
	Fat     float64
}

var (
	StandardSplit  = MacroSplit{Protein: 0.30, Carbs: 0.40, Fat: 0.30}
	PregnancySplit = MacroSplit{Protein: 0.25, Carbs: 0.50, Fat: 0.25}
)

var trimesterCalories = map[models.Trimester]float64{
	models.TrimesterFirst:  0,
	models.TrimesterSecond: 340,
	models.TrimesterThird:  452,
}

var activityMultipliers = map[int]float64{
	0: 1.20,
	1: 1.375,
	2: 1.375,
	3: 1.55,
	4: 1.55,
	5: 1.725,
	6: 1.725,
	7: 1.90,
}

func PoundsToKg(lb float64) float64 { return lb * lbToKg }

func InchesToCm(in float64) float64 { return in * inToCm }

// Age counts whole years, treating the birthday as the first of the birth month.
func Age(birthMonth, birthYear int, now time.Time) int {
	age := now.Year() - birthYear
	if int(now.Month()) < birthMonth {
		age--
	}
	return age
}

// BMR is the Mifflin-St Jeor basal metabolic rate.
func BMR(sex models.Sex, weightKg, heightCm float64, age int) float64 {
	base := 10*weightKg + 6.25*heightCm - 5*float64(age)
	if sex == models.SexMale {
		return base + 5
	}
	return base - 161
}

// ActivityMultiplier maps workouts per week to a TDEE multiplier. Counts
// above 7 are treated as 7.
func ActivityMultiplier(workoutsPerWeek int) float64 {
	if workoutsPerWeek > 7 {
		workoutsPerWeek = 7
	}
	if m, ok := activityMultipliers[workoutsPerWeek]; ok {
		return m
	}
	return 1.55
}

func TDEE(bmr float64, workoutsPerWeek int) float64 {
	return bmr * ActivityMultiplier(workoutsPerWeek)
}

// MacroGrams splits target calories into grams. Each macro is rounded on its
// own, so the grams need not add back up to the exact target.
func MacroGrams(targetCalories int, split MacroSplit) (protein, carbs, fat int) {
	c := float64(targetCalories)
	protein = int(math.Round(c * split.Protein / kcalPerGramProtein))
	carbs = int(math.Round(c * split.Carbs / kcalPerGramCarbs))
	fat = int(math.Round(c * split.Fat / kcalPerGramFat))
	return protein, carbs, fat
}

// Validate checks the input before any computation happens.
func Validate(in models.BiometricInput) error {
	var missing []string
	if in.BirthMonth == 0 {
		missing = append(missing, "birth_month")
	}
	if in.BirthYear == 0 {
		missing = append(missing, "birth_year")
	}
	if in.WeightKg <= 0 {
		missing = append(missing, "weight_kg")
	}
	if in.HeightCm <= 0 {
		missing = append(missing, "height_cm")
	}
	if in.WorkoutsPerWeek == nil {
		missing = append(missing, "workouts_per_week")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}

	if in.BirthMonth < 1 || in.BirthMonth > 12 {
		return &ValidationError{Reason: fmt.Sprintf("invalid birth_month %d", in.BirthMonth)}
	}
	if in.Sex != models.SexMale && in.Sex != models.SexFemale {
		return &ValidationError{Reason: fmt.Sprintf("sex must be %s or %s, got %q", models.SexMale, models.SexFemale, in.Sex)}
	}
	if in.IsPregnant {
		if in.Sex != models.SexFemale {
			return &ValidationError{Reason: "pregnancy is only valid for sex FEMALE"}
		}
		if _, ok := trimesterCalories[in.Trimester]; !ok {
			return &ValidationError{Reason: fmt.Sprintf("invalid trimester %q", in.Trimester)}
		}
	}
	return nil
}

// ComputePlan turns biometric input into calorie and macro targets.
func ComputePlan(in models.BiometricInput, now time.Time) (models.NutritionPlan, error) {
	if err := Validate(in); err != nil {
		return models.NutritionPlan{}, err
	}

	age := Age(in.BirthMonth, in.BirthYear, now)
	bmr := BMR(in.Sex, in.WeightKg, in.HeightCm, age)
	tdee := TDEE(bmr, *in.WorkoutsPerWeek)

	plan := models.NutritionPlan{
		Age:  age,
		BMR:  bmr,
		TDEE: tdee,
	}

	if in.IsPregnant {
		extra := trimesterCalories[in.Trimester]
		plan.TargetCalories = int(math.Round(tdee + extra))
		plan.ProteinG, plan.CarbsG, plan.FatG = MacroGrams(plan.TargetCalories, PregnancySplit)
		plan.Reasoning = pregnancyReasoning(in.Trimester, tdee, extra, plan.TargetCalories)
		return plan, nil
	}

	delta := 0.0
	if in.TargetWeightKg != nil {
		delta = *in.TargetWeightKg - in.WeightKg
	}

	// the direction of the target weight wins over the goal label
	factor := 1.0
	switch {
	case delta < 0:
		factor = deficitFactor
	case delta > 0:
		factor = surplusFactor
	case in.Goal == models.GoalLoseWeight:
		factor = deficitFactor
	case in.Goal == models.GoalBuildMuscle:
		factor = surplusFactor
	}
	plan.TargetCalories = int(math.Round(tdee * factor))
	plan.ProteinG, plan.CarbsG, plan.FatG = MacroGrams(plan.TargetCalories, StandardSplit)

	if in.TargetDate != nil && delta != 0 {
		weeksUntil := in.TargetDate.Sub(now).Hours() / 24 / 7
		if weeksUntil > 0 {
			plan.WeeksToGoal = int(math.Round(math.Max(1, weeksUntil)))
			plan.WeeklyWeightChange = math.Abs(delta) / weeksUntil
		}
	}

	plan.Reasoning = goalReasoning(tdee, factor, plan.TargetCalories)
	return plan, nil
}

func goalReasoning(tdee, factor float64, target int) string {
	maintenance := int(math.Round(tdee))
	pct := int(math.Round(math.Abs(factor-1) * 100))
	switch {
	case factor < 1:
		return fmt.Sprintf("Your maintenance calories are about %d kcal/day. A %d%% deficit puts your daily target at %d kcal for steady fat loss.", maintenance, pct, target)
	case factor > 1:
		return fmt.Sprintf("Your maintenance calories are about %d kcal/day. A %d%% surplus puts your daily target at %d kcal to support muscle gain.", maintenance, pct, target)
	default:
		return fmt.Sprintf("Your maintenance calories are about %d kcal/day, so your daily target is %d kcal to hold your current weight.", maintenance, target)
	}
}

func pregnancyReasoning(t models.Trimester, tdee, extra float64, target int) string {
	name := strings.ToLower(string(t))
	if extra == 0 {
		return fmt.Sprintf("During the %s trimester no extra calories are needed yet. Your daily target stays at %d kcal with extra room for carbohydrates.", name, target)
	}
	return fmt.Sprintf("During the %s trimester you need about %d extra kcal/day on top of %d kcal maintenance, for a daily target of %d kcal.", name, int(extra), int(math.Round(tdee)), target)
}
