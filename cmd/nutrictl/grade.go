package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"nutrition-bot/internal/models"
	"nutrition-bot/internal/nutrition"
)

var (
	gradeMealPath string
	gradeProfile  profileFlags
)

var gradeCmd = &cobra.Command{
	Use:   "grade",
	Short: "Grade a meal from a JSON file",
	Long:  "Grade a meal read from --meal (or stdin). The file holds a meal object with an items array; totals are derived from items when absent.",
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := gradeProfile.profile()
		if err != nil {
			return err
		}
		data, err := readInput(cmd, gradeMealPath)
		if err != nil {
			return err
		}
		var meal models.Meal
		if err := json.Unmarshal(data, &meal); err != nil {
			return fmt.Errorf("decode meal: %w", err)
		}
		if len(meal.Items) == 0 {
			return fmt.Errorf("meal has no items")
		}
		fillTotals(&meal)

		grade := nutrition.GradeMeal(meal, profile, time.Now())
		if jsonOutput {
			return printJSON(cmd, grade)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Grade: %s (%d/100, %s)\n%s\n", grade.Grade, grade.Score, grade.Color, grade.Summary)
		fmt.Fprintf(out, "Macros: P %d%% C %d%% F %d%%\n", grade.Macros.ProteinPct, grade.Macros.CarbsPct, grade.Macros.FatPct)
		for _, p := range grade.Positives {
			fmt.Fprintf(out, "+ %s\n", p)
		}
		for _, f := range grade.Feedback {
			fmt.Fprintf(out, "- %s\n", f)
		}
		return nil
	},
}

func init() {
	gradeCmd.Flags().StringVar(&gradeMealPath, "meal", "", "Path to meal JSON (default stdin)")
	gradeProfile.register(gradeCmd)
	rootCmd.AddCommand(gradeCmd)
}
