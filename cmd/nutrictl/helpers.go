package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"nutrition-bot/internal/models"
)

func parseSex(value string) (models.Sex, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "male", "m":
		return models.SexMale, nil
	case "female", "f":
		return models.SexFemale, nil
	}
	return "", fmt.Errorf("invalid --sex %q (expected male or female)", value)
}

func parseGoal(value string) (models.Goal, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "lose", "lose_weight":
		return models.GoalLoseWeight, nil
	case "maintain", "":
		return models.GoalMaintain, nil
	case "build", "build_muscle":
		return models.GoalBuildMuscle, nil
	}
	return "", fmt.Errorf("invalid --goal %q (expected lose, maintain or build)", value)
}

func parseTrimester(value string) (models.Trimester, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "first", "1":
		return models.TrimesterFirst, nil
	case "second", "2":
		return models.TrimesterSecond, nil
	case "third", "3":
		return models.TrimesterThird, nil
	}
	return "", fmt.Errorf("invalid --trimester %q (expected first, second or third)", value)
}

// profileFlags are the profile fields the grading and history commands need.
type profileFlags struct {
	goal      string
	calories  int
	protein   int
	pregnant  bool
	trimester string
}

func (p *profileFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.goal, "goal", "maintain", "Goal: lose, maintain or build")
	cmd.Flags().IntVar(&p.calories, "calories", 0, "Daily calorie target")
	cmd.Flags().IntVar(&p.protein, "protein", 0, "Daily protein target in grams")
	cmd.Flags().BoolVar(&p.pregnant, "pregnant", false, "Use pregnancy guidance")
	cmd.Flags().StringVar(&p.trimester, "trimester", "first", "Trimester when --pregnant is set")
}

func (p *profileFlags) profile() (models.UserProfile, error) {
	goal, err := parseGoal(p.goal)
	if err != nil {
		return models.UserProfile{}, err
	}
	if p.calories < 0 || p.protein < 0 {
		return models.UserProfile{}, fmt.Errorf("--calories and --protein must be >= 0")
	}
	profile := models.UserProfile{
		UserID:             "local",
		Goal:               goal,
		DailyCalorieTarget: p.calories,
		ProteinTarget:      p.protein,
		IsPregnant:         p.pregnant,
	}
	if p.pregnant {
		if profile.Trimester, err = parseTrimester(p.trimester); err != nil {
			return models.UserProfile{}, err
		}
	}
	return profile, nil
}

func location() (*time.Location, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid --tz %q: %w", timezone, err)
	}
	return loc, nil
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// loadMeals reads a JSON array of meals and fills in missing totals.
func loadMeals(cmd *cobra.Command, path string) ([]models.Meal, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return nil, err
	}
	var meals []models.Meal
	if err := json.Unmarshal(data, &meals); err != nil {
		return nil, fmt.Errorf("decode meals: %w", err)
	}
	for i := range meals {
		fillTotals(&meals[i])
	}
	return meals, nil
}

func fillTotals(m *models.Meal) {
	if m.Totals == (models.MealTotals{}) {
		m.Totals = models.SumItems(m.Items)
	}
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
