package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	jsonOutput bool
	timezone   string
)

var rootCmd = &cobra.Command{
	Use:           "nutrictl",
	Short:         "nutrictl computes nutrition plans and grades meals offline",
	Long:          "nutrictl runs the nutrition engine locally: plans from body stats, meal grades, and weekly insights and suggestions from exported meal history.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
	rootCmd.PersistentFlags().StringVar(&timezone, "tz", "UTC", "Timezone used for calendar days")
}
