package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"nutrition-bot/internal/models"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	jsonOutput, timezone = false, "UTC"
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootHelp(t *testing.T) {
	out, err := run(t, "", "--help")
	if err != nil {
		t.Fatalf("execute root help: %v", err)
	}
	for _, sub := range []string{"plan", "grade", "insights", "suggestions"} {
		if !strings.Contains(out, sub) {
			t.Fatalf("expected %q in help output:\n%s", sub, out)
		}
	}
}

func TestPlanCommandJSON(t *testing.T) {
	year := time.Now().Year() - 30
	out, err := run(t, "", "plan", "--json",
		"--sex", "male", "--birth-month", "1", "--birth-year", fmt.Sprint(year),
		"--height", "175", "--weight", "70", "--workouts", "3", "--goal", "lose")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	var plan models.NutritionPlan
	if err := json.Unmarshal([]byte(out), &plan); err != nil {
		t.Fatalf("decode plan %q: %v", out, err)
	}
	if plan.TargetCalories != 2172 || plan.ProteinG != 163 || plan.CarbsG != 217 || plan.FatG != 72 {
		t.Fatalf("unexpected plan %+v", plan)
	}
}

func TestPlanCommandRejectsBadSex(t *testing.T) {
	if _, err := run(t, "", "plan", "--sex", "robot"); err == nil {
		t.Fatalf("expected invalid --sex error")
	}
}

func TestGradeCommandFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meal.json")
	meal := `{"items":[
		{"food_name":"Grilled chicken breast","quantity":"200g","calories":330,"protein":62,"carbs":0,"fat":7},
		{"food_name":"Brown rice","quantity":"1 cup","calories":215,"protein":5,"carbs":45,"fat":2},
		{"food_name":"Broccoli","quantity":"1 cup","calories":55,"protein":4,"carbs":11,"fat":1}
	]}`
	if err := os.WriteFile(path, []byte(meal), 0o600); err != nil {
		t.Fatalf("write meal: %v", err)
	}

	out, err := run(t, "", "grade", "--json", "--meal", path, "--goal", "build", "--calories", "2700")
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	var grade models.GradeData
	if err := json.Unmarshal([]byte(out), &grade); err != nil {
		t.Fatalf("decode grade %q: %v", out, err)
	}
	if grade.Grade == "" || grade.Score < 0 || grade.Score > 100 {
		t.Fatalf("unexpected grade %+v", grade)
	}

	if _, err := run(t, `{"items":[]}`, "grade", "--meal", "-"); err == nil {
		t.Fatalf("expected error for a meal without items")
	}
}

func TestHistoryCommandsWithThinData(t *testing.T) {
	now := time.Now().UTC()
	meals := fmt.Sprintf(`[{"user_id":"local","timestamp":%q,"items":[{"food_name":"Apple","calories":95,"protein":0.5,"carbs":25,"fat":0.3}]}]`,
		now.Add(-time.Hour).Format(time.RFC3339))

	out, err := run(t, meals, "insights", "--meals", "-", "--tz", "UTC")
	if err != nil {
		t.Fatalf("insights: %v", err)
	}
	if !strings.Contains(out, "Not enough data") {
		t.Fatalf("expected thin-data message, got %q", out)
	}

	out, err = run(t, meals, "suggestions", "--meals", "-", "--tz", "UTC")
	if err != nil {
		t.Fatalf("suggestions: %v", err)
	}
	if !strings.Contains(out, models.ReasonInsufficientData) {
		t.Fatalf("expected insufficient_data, got %q", out)
	}

	if _, err := run(t, "[]", "insights", "--meals", "-", "--tz", "Mars/Olympus"); err == nil {
		t.Fatalf("expected invalid timezone error")
	}
}
