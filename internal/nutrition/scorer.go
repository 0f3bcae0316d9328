package nutrition

import (
	"fmt"
	"math"
	"time"

	"nutrition-bot/internal/models"
)

const (
	startingScore       = 100
	defaultIdealMealCal = 600.0
	largeItemCalories   = 800.0
)

// mealFacts holds everything the scoring rules look at, computed once per meal.
type mealFacts struct {
	goal        models.Goal
	calories    float64
	calorieRate float64
	proteinPct  float64
	carbsPct    float64
	fatPct      float64
	vegetables  int
	fruits      int
	itemCount   int
	largestItem float64
}

// scoringRule is one row of the grading table. A negative delta is a
// deduction and its message goes to feedback; a zero delta is a positive note.
// Rules are independent: every matching row applies.
type scoringRule struct {
	name    string
	when    func(f mealFacts) bool
	delta   int
	message func(f mealFacts) string
}

func text(s string) func(mealFacts) string {
	return func(mealFacts) string { return s }
}

var scoringRules = []scoringRule{
	// calories
	{
		name:  "calories_high",
		when:  func(f mealFacts) bool { return f.calorieRate > 1.5 },
		delta: -25,
		message: func(f mealFacts) string {
			return fmt.Sprintf("High calories: this meal is %.0f%% of a typical meal for your target", f.calorieRate*100)
		},
	},
	{
		name:    "calories_low",
		when:    func(f mealFacts) bool { return f.calorieRate < 0.5 && f.goal != models.GoalLoseWeight },
		delta:   -15,
		message: text("This meal is quite small; you may fall short of your daily energy needs"),
	},
	{
		name:    "calories_on_target",
		when:    func(f mealFacts) bool { return f.calorieRate >= 0.8 && f.calorieRate <= 1.2 },
		message: text("Perfect calorie amount for this meal"),
	},

	// protein, muscle gain
	{
		name:    "protein_muscle_low",
		when:    func(f mealFacts) bool { return f.goal == models.GoalBuildMuscle && f.proteinPct < 20 },
		delta:   -30,
		message: proteinMessage("Too little protein for muscle building"),
	},
	{
		name:    "protein_muscle_fair",
		when:    func(f mealFacts) bool { return f.goal == models.GoalBuildMuscle && f.proteinPct >= 20 && f.proteinPct < 25 },
		delta:   -10,
		message: proteinMessage("Protein is a bit low for muscle building"),
	},
	{
		name:    "protein_muscle_good",
		when:    func(f mealFacts) bool { return f.goal == models.GoalBuildMuscle && f.proteinPct >= 25 && f.proteinPct < 30 },
		message: proteinMessage("Good protein for muscle building"),
	},
	{
		name:    "protein_muscle_excellent",
		when:    func(f mealFacts) bool { return f.goal == models.GoalBuildMuscle && f.proteinPct >= 30 },
		message: proteinMessage("Excellent protein for muscle building"),
	},

	// protein, weight loss
	{
		name:    "protein_loss_low",
		when:    func(f mealFacts) bool { return f.goal == models.GoalLoseWeight && f.proteinPct < 15 },
		delta:   -25,
		message: proteinMessage("Low protein; protein keeps you full while cutting"),
	},
	{
		name:    "protein_loss_good",
		when:    func(f mealFacts) bool { return f.goal == models.GoalLoseWeight && f.proteinPct >= 15 && f.proteinPct < 25 },
		message: proteinMessage("Good protein content"),
	},
	{
		name:    "protein_loss_high",
		when:    func(f mealFacts) bool { return f.goal == models.GoalLoseWeight && f.proteinPct >= 25 },
		message: proteinMessage("High protein keeps you satisfied while losing weight"),
	},

	// protein, everything else
	{
		name:    "protein_general_low",
		when:    func(f mealFacts) bool { return !goalSpecific(f.goal) && f.proteinPct < 12 },
		delta:   -15,
		message: proteinMessage("Protein is low"),
	},
	{
		name:    "protein_general_good",
		when:    func(f mealFacts) bool { return !goalSpecific(f.goal) && f.proteinPct >= 20 },
		message: proteinMessage("Solid protein content"),
	},

	// fat
	{
		name:  "fat_high",
		when:  func(f mealFacts) bool { return f.fatPct > 45 },
		delta: -20,
		message: func(f mealFacts) string {
			return fmt.Sprintf("High in fat (%.0f%% of calories)", f.fatPct)
		},
	},
	{
		name:    "fat_low",
		when:    func(f mealFacts) bool { return f.fatPct < 15 && f.goal != models.GoalLoseWeight },
		delta:   -10,
		message: text("Very little fat; healthy fats support hormones and absorption"),
	},
	{
		name:    "fat_balanced",
		when:    func(f mealFacts) bool { return f.fatPct >= 25 && f.fatPct <= 35 },
		message: text("Well-balanced fat content"),
	},

	// carbs
	{
		name:  "carbs_loss_high",
		when:  func(f mealFacts) bool { return f.goal == models.GoalLoseWeight && f.carbsPct > 50 },
		delta: -15,
		message: func(f mealFacts) string {
			return fmt.Sprintf("Carb-heavy for weight loss (%.0f%% of calories)", f.carbsPct)
		},
	},
	{
		name:    "carbs_muscle_low",
		when:    func(f mealFacts) bool { return f.goal == models.GoalBuildMuscle && f.carbsPct < 30 },
		delta:   -10,
		message: text("Add some carbs to fuel your training"),
	},

	// produce
	{
		name:    "produce_missing",
		when:    func(f mealFacts) bool { return f.vegetables == 0 && f.fruits == 0 },
		delta:   -12,
		message: text("No fruits or vegetables; add some produce for fiber and micronutrients"),
	},
	{
		name:    "vegetables_variety",
		when:    func(f mealFacts) bool { return f.vegetables >= 2 },
		message: text("Great vegetable variety"),
	},
	{
		name:    "vegetables_present",
		when:    func(f mealFacts) bool { return f.vegetables == 1 },
		message: text("Includes vegetables"),
	},
	{
		name:    "fruit_present",
		when:    func(f mealFacts) bool { return f.vegetables == 0 && f.fruits > 0 },
		message: text("Includes fruit"),
	},

	// portions
	{
		name:  "portion_large_item",
		when:  func(f mealFacts) bool { return f.largestItem > largeItemCalories },
		delta: -10,
		message: func(f mealFacts) string {
			return fmt.Sprintf("One item alone has %.0f calories; consider a smaller portion", f.largestItem)
		},
	},
	{
		name:    "items_variety",
		when:    func(f mealFacts) bool { return f.itemCount >= 3 },
		message: text("Good variety of foods"),
	},
}

func goalSpecific(g models.Goal) bool {
	return g == models.GoalBuildMuscle || g == models.GoalLoseWeight
}

func proteinMessage(prefix string) func(mealFacts) string {
	return func(f mealFacts) string {
		return fmt.Sprintf("%s (%.0f%% of calories)", prefix, f.proteinPct)
	}
}

// macroShares returns calorie-share percentages of protein, carbs and fat.
// All shares are zero when the meal has no macro calories.
func macroShares(protein, carbs, fat float64) (p, c, f float64) {
	pc := protein * kcalPerGramProtein
	cc := carbs * kcalPerGramCarbs
	fc := fat * kcalPerGramFat
	total := pc + cc + fc
	if total <= 0 {
		return 0, 0, 0
	}
	return pc / total * 100, cc / total * 100, fc / total * 100
}

func collectFacts(meal models.Meal, profile models.UserProfile) mealFacts {
	ideal := defaultIdealMealCal
	if profile.DailyCalorieTarget > 0 {
		ideal = float64(profile.DailyCalorieTarget) / 3
	}
	f := mealFacts{
		goal:        profile.Goal,
		calories:    meal.Totals.Calories,
		calorieRate: meal.Totals.Calories / ideal,
		itemCount:   len(meal.Items),
	}
	f.proteinPct, f.carbsPct, f.fatPct = macroShares(meal.Totals.Protein, meal.Totals.Carbs, meal.Totals.Fat)
	f.vegetables, f.fruits = countProduce(meal.Items)
	for _, it := range meal.Items {
		if it.Calories > f.largestItem {
			f.largestItem = it.Calories
		}
	}
	return f
}

// GradeMeal scores a parsed meal against the user's goal. The result only
// depends on the meal, the profile and the supplied timestamp.
func GradeMeal(meal models.Meal, profile models.UserProfile, now time.Time) models.GradeData {
	facts := collectFacts(meal, profile)

	score := startingScore
	feedback := []string{}
	positives := []string{}
	for _, r := range scoringRules {
		if !r.when(facts) {
			continue
		}
		score += r.delta
		if r.delta < 0 {
			feedback = append(feedback, r.message(facts))
		} else {
			positives = append(positives, r.message(facts))
		}
	}
	score = ClampScore(score)
	grade := LetterGrade(score)

	return models.GradeData{
		Grade:     grade,
		Score:     score,
		Feedback:  feedback,
		Positives: positives,
		Color:     gradeColor(grade),
		Macros: models.MacroBreakdown{
			ProteinPct: int(math.Round(facts.proteinPct)),
			CarbsPct:   int(math.Round(facts.carbsPct)),
			FatPct:     int(math.Round(facts.fatPct)),
		},
		Summary:  gradeSummary(grade, profile.Goal),
		GradedAt: now,
	}
}

func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

var gradeBreakpoints = []struct {
	min   int
	grade string
}{
	{95, "A+"}, {90, "A"}, {85, "A-"},
	{80, "B+"}, {75, "B"}, {70, "B-"},
	{65, "C+"}, {60, "C"}, {55, "C-"},
	{50, "D+"}, {45, "D"}, {40, "D-"},
}

// Grades lists every letter a meal can receive, best first.
var Grades = []string{"A+", "A", "A-", "B+", "B", "B-", "C+", "C", "C-", "D+", "D", "D-", "F"}

func LetterGrade(score int) string {
	for _, bp := range gradeBreakpoints {
		if score >= bp.min {
			return bp.grade
		}
	}
	return "F"
}

func gradeBand(grade string) byte {
	return grade[0]
}

var bandColors = map[byte]string{
	'A': "green",
	'B': "lime",
	'C': "yellow",
	'D': "orange",
	'F': "red",
}

func gradeColor(grade string) string {
	return bandColors[gradeBand(grade)]
}

var summaryTemplates = map[byte]map[models.Goal]string{
	'A': {
		models.GoalLoseWeight:  "Excellent choice! This meal fits your weight loss plan perfectly.",
		models.GoalBuildMuscle: "Excellent choice! This meal is great fuel for building muscle.",
		"":                     "Excellent choice! A well-balanced, nutritious meal.",
	},
	'B': {
		models.GoalLoseWeight:  "Good meal for weight loss with a little room to improve.",
		models.GoalBuildMuscle: "Good meal for muscle gain with a little room to improve.",
		"":                     "Good, balanced meal with a little room to improve.",
	},
	'C': {
		models.GoalLoseWeight:  "Decent meal, but a few tweaks would support your weight loss better.",
		models.GoalBuildMuscle: "Decent meal, but more protein would support your muscle goals.",
		"":                     "Decent meal, but the balance could be better.",
	},
	'D': {
		models.GoalLoseWeight:  "This meal works against your weight loss goal. Check the tips below.",
		models.GoalBuildMuscle: "This meal falls short for muscle building. Check the tips below.",
		"":                     "This meal is out of balance. Check the tips below.",
	},
	'F': {
		models.GoalLoseWeight:  "This meal is far off your weight loss plan. Try a lighter, protein-rich option next time.",
		models.GoalBuildMuscle: "This meal does little for your muscle goals. Aim for lean protein and complex carbs next time.",
		"":                     "This meal is far from balanced. Aim for protein, produce and whole grains next time.",
	},
}

func gradeSummary(grade string, goal models.Goal) string {
	byGoal := summaryTemplates[gradeBand(grade)]
	if s, ok := byGoal[goal]; ok {
		return s
	}
	return byGoal[""]
}
