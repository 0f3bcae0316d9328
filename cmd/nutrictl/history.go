package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"nutrition-bot/internal/nutrition"
)

var (
	insightsMealsPath string
	insightsProfile   profileFlags

	suggestionsMealsPath string
	suggestionsProfile   profileFlags
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Summarize the last 7 days of an exported meal history",
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := insightsProfile.profile()
		if err != nil {
			return err
		}
		loc, err := location()
		if err != nil {
			return err
		}
		meals, err := loadMeals(cmd, insightsMealsPath)
		if err != nil {
			return err
		}

		res := nutrition.BuildInsights(meals, profile, time.Now(), loc)
		if jsonOutput {
			return printJSON(cmd, res)
		}

		out := cmd.OutOrStdout()
		if !res.HasEnoughData {
			fmt.Fprintf(out, "Not enough data: %d of %d days logged (need %d)\n", res.DaysWithData, nutrition.InsightWindowDays, nutrition.MinInsightDays)
			return nil
		}
		for _, in := range res.Insights {
			fmt.Fprintf(out, "%s %s: %s\n", in.Icon, in.Title, in.Description)
		}
		fmt.Fprintln(out, "\nDAY\tKCAL")
		for _, p := range res.WeeklyChart {
			fmt.Fprintf(out, "%s\t%.0f\n", p.Day, p.Calories)
		}
		return nil
	},
}

var suggestionsCmd = &cobra.Command{
	Use:   "suggestions",
	Short: "Rank nutrition suggestions from an exported meal history",
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := suggestionsProfile.profile()
		if err != nil {
			return err
		}
		loc, err := location()
		if err != nil {
			return err
		}
		meals, err := loadMeals(cmd, suggestionsMealsPath)
		if err != nil {
			return err
		}
		// most recent first, as the sample is taken from the head
		sort.SliceStable(meals, func(i, j int) bool { return meals[i].LoggedAt.After(meals[j].LoggedAt) })

		res := nutrition.BuildSuggestions(meals, profile, loc)
		if jsonOutput {
			return printJSON(cmd, res)
		}

		out := cmd.OutOrStdout()
		if res.Reason != "" {
			fmt.Fprintf(out, "No suggestions: %s (%d days tracked, need %d)\n", res.Reason, res.DaysTracked, nutrition.MinSuggestionDays)
			return nil
		}
		for i, s := range res.Suggestions {
			fmt.Fprintf(out, "%d. [%s] %s %s\n   %s\n   -> %s\n", i+1, s.Priority, s.Icon, s.Title, s.Description, s.Action)
		}
		return nil
	},
}

func init() {
	insightsCmd.Flags().StringVar(&insightsMealsPath, "meals", "", "Path to meal history JSON array (default stdin)")
	insightsProfile.register(insightsCmd)
	suggestionsCmd.Flags().StringVar(&suggestionsMealsPath, "meals", "", "Path to meal history JSON array (default stdin)")
	suggestionsProfile.register(suggestionsCmd)
	rootCmd.AddCommand(insightsCmd, suggestionsCmd)
}
