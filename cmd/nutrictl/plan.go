package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"nutrition-bot/internal/models"
	"nutrition-bot/internal/nutrition"
)

var (
	planSex          string
	planBirthMonth   int
	planBirthYear    int
	planHeight       float64
	planWeight       float64
	planTargetWeight float64
	planWorkouts     int
	planGoal         string
	planTargetDate   string
	planPregnant     bool
	planTrimester    string
	planImperial     bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute daily calorie and macro targets from body stats",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := planInput(cmd)
		if err != nil {
			return err
		}
		plan, err := nutrition.ComputePlan(in, time.Now())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, plan)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Age: %d\nBMR: %.0f kcal\nTDEE: %.0f kcal\n", plan.Age, plan.BMR, plan.TDEE)
		fmt.Fprintf(out, "Target: %d kcal\nProtein: %dg\nCarbs: %dg\nFat: %dg\n", plan.TargetCalories, plan.ProteinG, plan.CarbsG, plan.FatG)
		if plan.WeeksToGoal > 0 {
			fmt.Fprintf(out, "Timeline: %d weeks (%.2f kg/week)\n", plan.WeeksToGoal, plan.WeeklyWeightChange)
		}
		fmt.Fprintf(out, "\n%s\n", plan.Reasoning)
		return nil
	},
}

func planInput(cmd *cobra.Command) (models.BiometricInput, error) {
	sex, err := parseSex(planSex)
	if err != nil {
		return models.BiometricInput{}, err
	}
	goal, err := parseGoal(planGoal)
	if err != nil {
		return models.BiometricInput{}, err
	}

	height, weight, target := planHeight, planWeight, planTargetWeight
	if planImperial {
		height = nutrition.InchesToCm(height)
		weight = nutrition.PoundsToKg(weight)
		target = nutrition.PoundsToKg(target)
	}

	in := models.BiometricInput{
		BirthMonth: planBirthMonth,
		BirthYear:  planBirthYear,
		Sex:        sex,
		WeightKg:   weight,
		HeightCm:   height,
		Goal:       goal,
		IsPregnant: planPregnant,
	}
	if cmd.Flags().Changed("workouts") {
		workouts := planWorkouts
		in.WorkoutsPerWeek = &workouts
	}
	if cmd.Flags().Changed("target-weight") {
		in.TargetWeightKg = &target
	}
	if planTargetDate != "" {
		d, err := time.Parse("2006-01-02", planTargetDate)
		if err != nil {
			return models.BiometricInput{}, fmt.Errorf("invalid --target-date %q (expected YYYY-MM-DD)", planTargetDate)
		}
		in.TargetDate = &d
	}
	if planPregnant {
		if in.Trimester, err = parseTrimester(planTrimester); err != nil {
			return models.BiometricInput{}, err
		}
	}
	return in, nil
}

func init() {
	planCmd.Flags().StringVar(&planSex, "sex", "", "Sex: male or female")
	planCmd.Flags().IntVar(&planBirthMonth, "birth-month", 0, "Birth month (1-12)")
	planCmd.Flags().IntVar(&planBirthYear, "birth-year", 0, "Birth year")
	planCmd.Flags().Float64Var(&planHeight, "height", 0, "Height in cm (inches with --imperial)")
	planCmd.Flags().Float64Var(&planWeight, "weight", 0, "Weight in kg (pounds with --imperial)")
	planCmd.Flags().Float64Var(&planTargetWeight, "target-weight", 0, "Target weight in kg (pounds with --imperial)")
	planCmd.Flags().IntVar(&planWorkouts, "workouts", 0, "Workouts per week")
	planCmd.Flags().StringVar(&planGoal, "goal", "maintain", "Goal: lose, maintain or build")
	planCmd.Flags().StringVar(&planTargetDate, "target-date", "", "Target date YYYY-MM-DD")
	planCmd.Flags().BoolVar(&planPregnant, "pregnant", false, "Apply pregnancy adjustments")
	planCmd.Flags().StringVar(&planTrimester, "trimester", "first", "Trimester: first, second or third")
	planCmd.Flags().BoolVar(&planImperial, "imperial", false, "Read height in inches and weights in pounds")
	rootCmd.AddCommand(planCmd)
}
