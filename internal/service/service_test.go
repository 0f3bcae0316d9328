package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"nutrition-bot/internal/db"
	"nutrition-bot/internal/models"
	"nutrition-bot/internal/service"
	"nutrition-bot/pkg/logger"
)

var serviceNow = time.Date(2026, 10, 18, 8, 30, 0, 0, time.UTC)

type fakeParser struct {
	items []models.MealItem
	err   error
}

func (p fakeParser) ParseMeal(context.Context, string) ([]models.MealItem, error) {
	return p.items, p.err
}

// brokenHistory fails every history query.
type brokenHistory struct {
	*db.MemoryStore
}

func (brokenHistory) MealsSince(context.Context, string, time.Time) ([]models.Meal, error) {
	return nil, errors.New("missing composite index")
}

func (brokenHistory) RecentMeals(context.Context, string, int) ([]models.Meal, error) {
	return nil, errors.New("missing composite index")
}

// gradeless rejects grade updates, so meals must arrive already graded.
type gradeless struct {
	*db.MemoryStore
}

func (gradeless) SaveGrade(context.Context, string, models.GradeData) error {
	return errors.New("grade column is read-only")
}

func newService(t *testing.T, parser service.MealParser) (*service.Service, *db.MemoryStore) {
	t.Helper()
	store := db.NewMemoryStore()
	svc := service.New(store, store, parser, logger.NewNop(), service.Options{
		Now: func() time.Time { return serviceNow },
	})
	return svc, store
}

func intPtr(v int) *int { return &v }

func planInput() *models.BiometricInput {
	return &models.BiometricInput{
		BirthMonth:      5,
		BirthYear:       1996,
		Sex:             models.SexMale,
		WeightKg:        70,
		HeightCm:        175,
		WorkoutsPerWeek: intPtr(3),
		Goal:            models.GoalLoseWeight,
	}
}

func expectCode(t *testing.T, err error, want codes.Code) {
	t.Helper()
	if got := status.Code(err); got != want {
		t.Fatalf("expected %s, got %s (%v)", want, got, err)
	}
}

func TestComputeNutritionPlanValidation(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t, nil)

	_, err := svc.ComputeNutritionPlan(context.Background(), nil)
	expectCode(t, err, codes.InvalidArgument)

	in := planInput()
	in.HeightCm = 0
	_, err = svc.ComputeNutritionPlan(context.Background(), in)
	expectCode(t, err, codes.InvalidArgument)

	plan, err := svc.ComputeNutritionPlan(context.Background(), planInput())
	if err != nil {
		t.Fatalf("compute plan: %v", err)
	}
	if plan.TargetCalories != 2172 {
		t.Fatalf("expected 2172 kcal, got %d", plan.TargetCalories)
	}
}

func TestConfirmPlanCreatesProfile(t *testing.T) {
	t.Parallel()
	svc, store := newService(t, nil)
	ctx := context.Background()

	plan, profile, err := svc.ConfirmPlan(ctx, "user-1", planInput())
	if err != nil {
		t.Fatalf("confirm plan: %v", err)
	}
	if profile.DailyCalorieTarget != plan.TargetCalories || profile.ProteinTarget != plan.ProteinG {
		t.Fatalf("profile targets not applied: %+v", profile)
	}

	stored, err := store.GetProfile(ctx, "user-1")
	if err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if stored.Goal != models.GoalLoseWeight || stored.FatTarget != 72 {
		t.Fatalf("unexpected stored profile %+v", stored)
	}

	_, _, err = svc.ConfirmPlan(ctx, " ", planInput())
	expectCode(t, err, codes.InvalidArgument)
}

func TestLogMealParsesAndGrades(t *testing.T) {
	t.Parallel()
	parser := fakeParser{items: []models.MealItem{
		{FoodName: "Oatmeal with berries", Quantity: "1 bowl", Calories: 350, Protein: 12, Carbs: 60, Fat: 7},
		{FoodName: "Greek yogurt", Quantity: "170 g", Calories: 150, Protein: 17, Carbs: 6, Fat: 4},
	}}
	svc, store := newService(t, parser)
	ctx := context.Background()

	if _, _, err := svc.ConfirmPlan(ctx, "user-1", planInput()); err != nil {
		t.Fatalf("confirm plan: %v", err)
	}

	meal, err := svc.LogMeal(ctx, service.LogMealInput{UserID: "user-1", Description: "oatmeal and yogurt"})
	if err != nil {
		t.Fatalf("log meal: %v", err)
	}
	if meal.MealType != models.MealBreakfast {
		t.Fatalf("expected Breakfast at 08:30, got %s", meal.MealType)
	}
	if meal.Totals.Calories != 500 || meal.Totals.Protein != 29 {
		t.Fatalf("unexpected totals %+v", meal.Totals)
	}
	if meal.Grade == nil || meal.Grade.Grade == "" {
		t.Fatalf("expected meal to be graded")
	}

	stored, err := store.GetMeal(ctx, meal.ID)
	if err != nil {
		t.Fatalf("load meal: %v", err)
	}
	if stored.Grade == nil || stored.Grade.Score != meal.Grade.Score {
		t.Fatalf("grade not persisted: %+v", stored.Grade)
	}

	regraded, err := svc.RegradeMeal(ctx, meal.ID)
	if err != nil {
		t.Fatalf("regrade: %v", err)
	}
	if regraded.Score != meal.Grade.Score {
		t.Fatalf("regrade changed score %d -> %d", meal.Grade.Score, regraded.Score)
	}
}

func TestLogMealErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name   string
		parser service.MealParser
		in     service.LogMealInput
		code   codes.Code
	}{
		{"missing user", nil, service.LogMealInput{Description: "toast"}, codes.InvalidArgument},
		{"nothing to log", nil, service.LogMealInput{UserID: "user-1"}, codes.InvalidArgument},
		{"bad meal type", nil, service.LogMealInput{UserID: "user-1", MealType: "Brunch", Items: []models.MealItem{{FoodName: "Toast", Calories: 100}}}, codes.InvalidArgument},
		{"no parser", nil, service.LogMealInput{UserID: "user-1", Description: "toast"}, codes.FailedPrecondition},
		{"parser down", fakeParser{err: errors.New("timeout")}, service.LogMealInput{UserID: "user-1", Description: "toast"}, codes.Unavailable},
		{"nothing recognized", fakeParser{}, service.LogMealInput{UserID: "user-1", Description: "hmm"}, codes.InvalidArgument},
		{"unknown user", nil, service.LogMealInput{UserID: "ghost", Items: []models.MealItem{{FoodName: "Toast", Calories: 100}}}, codes.NotFound},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, _ := newService(t, tt.parser)
			_, err := svc.LogMeal(ctx, tt.in)
			expectCode(t, err, tt.code)
		})
	}
}

func TestGradeMealRequiresArguments(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t, nil)
	ctx := context.Background()

	_, err := svc.GradeMeal(ctx, "", nil, nil)
	expectCode(t, err, codes.InvalidArgument)
	if msg := status.Convert(err).Message(); !strings.Contains(msg, "meal_id") || !strings.Contains(msg, "profile") {
		t.Fatalf("expected all missing fields listed, got %q", status.Convert(err).Message())
	}

	meal := &models.Meal{Items: []models.MealItem{{FoodName: "Salmon", Calories: 400, Protein: 40, Carbs: 0, Fat: 20}}}
	meal.Totals = models.SumItems(meal.Items)
	grade, err := svc.GradeMeal(ctx, "meal-1", meal, &models.UserProfile{Goal: models.GoalMaintain})
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if grade.Score < 0 || grade.Score > 100 {
		t.Fatalf("score out of range: %d", grade.Score)
	}

	_, err = svc.RegradeMeal(ctx, "missing")
	expectCode(t, err, codes.NotFound)
}

func TestHistoryFailuresDegrade(t *testing.T) {
	t.Parallel()
	store := db.NewMemoryStore()
	repo := brokenHistory{store}
	svc := service.New(repo, store, nil, logger.NewNop(), service.Options{
		Now: func() time.Time { return serviceNow },
	})
	profile := &models.UserProfile{UserID: "user-1", Goal: models.GoalMaintain}
	ctx := context.Background()

	insights, err := svc.GenerateInsights(ctx, "user-1", profile)
	if err != nil {
		t.Fatalf("insights: %v", err)
	}
	if insights.HasEnoughData {
		t.Fatalf("expected insufficient data on history failure")
	}

	suggestions, err := svc.GenerateSuggestions(ctx, "user-1", profile)
	if err != nil {
		t.Fatalf("suggestions: %v", err)
	}
	if suggestions.Reason != models.ReasonIndexNeeded || len(suggestions.Suggestions) != 0 {
		t.Fatalf("expected index_needed, got %+v", suggestions)
	}
}

func TestWeeklyReport(t *testing.T) {
	t.Parallel()
	svc, _ := newService(t, nil)
	ctx := context.Background()

	if _, _, err := svc.ConfirmPlan(ctx, "user-1", planInput()); err != nil {
		t.Fatalf("confirm plan: %v", err)
	}
	for d := 0; d < 12; d++ {
		_, err := svc.LogMeal(ctx, service.LogMealInput{
			UserID:   "user-1",
			LoggedAt: serviceNow.AddDate(0, 0, -d).Add(-time.Hour),
			Items: []models.MealItem{
				{FoodName: "Grilled chicken", Quantity: "150 g", Calories: 250, Protein: 45, Carbs: 0, Fat: 6},
				{FoodName: "Brown rice", Quantity: "1 cup", Calories: 220, Protein: 5, Carbs: 45, Fat: 2},
				{FoodName: "Broccoli", Quantity: "1 cup", Calories: 55, Protein: 4, Carbs: 11, Fat: 1},
			},
		})
		if err != nil {
			t.Fatalf("log meal %d: %v", d, err)
		}
	}

	report, err := svc.WeeklyReport(ctx, "user-1")
	if err != nil {
		t.Fatalf("weekly report: %v", err)
	}
	if !report.Insights.HasEnoughData || report.Insights.DaysWithData != 7 {
		t.Fatalf("expected 7 days of insights, got %+v", report.Insights)
	}
	if len(report.Insights.WeeklyChart) != 7 {
		t.Fatalf("expected 7 chart points, got %d", len(report.Insights.WeeklyChart))
	}
	if report.Suggestions.Reason != "" || report.Suggestions.DaysTracked != 12 || report.Suggestions.MealsUsed != 12 {
		t.Fatalf("unexpected suggestions %+v", report.Suggestions)
	}
	if len(report.Suggestions.Suggestions) > 3 {
		t.Fatalf("expected at most 3 suggestions, got %d", len(report.Suggestions.Suggestions))
	}

	_, err = svc.WeeklyReport(ctx, "ghost")
	expectCode(t, err, codes.NotFound)
}

func TestMealTypeAt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		hour int
		want models.MealType
	}{
		{3, models.MealSnack},
		{7, models.MealBreakfast},
		{12, models.MealLunch},
		{16, models.MealSnack},
		{19, models.MealDinner},
		{23, models.MealSnack},
	}
	for _, tt := range tests {
		got := service.MealTypeAt(time.Date(2026, 1, 1, tt.hour, 0, 0, 0, time.UTC))
		if got != tt.want {
			t.Fatalf("hour %d: expected %s, got %s", tt.hour, tt.want, got)
		}
	}
}

func TestLogMealStoresGradeWithMeal(t *testing.T) {
	t.Parallel()
	store := db.NewMemoryStore()
	meals := gradeless{store}
	svc := service.New(meals, store, nil, logger.NewNop(), service.Options{
		Now: func() time.Time { return serviceNow },
	})
	ctx := context.Background()

	if _, _, err := svc.ConfirmPlan(ctx, "user-1", planInput()); err != nil {
		t.Fatalf("confirm plan: %v", err)
	}
	meal, err := svc.LogMeal(ctx, service.LogMealInput{
		UserID: "user-1",
		Items:  []models.MealItem{{FoodName: "Oatmeal with banana", Calories: 400, Protein: 15, Carbs: 65, Fat: 8}},
	})
	if err != nil {
		t.Fatalf("log meal: %v", err)
	}

	stored, err := store.GetMeal(ctx, meal.ID)
	if err != nil {
		t.Fatalf("get meal: %v", err)
	}
	if stored.Grade == nil || stored.Grade.Grade != meal.Grade.Grade {
		t.Fatalf("expected the grade to be stored with the meal, got %+v", stored.Grade)
	}
	if recent, _ := store.RecentMeals(ctx, "user-1", 10); len(recent) != 1 {
		t.Fatalf("expected exactly one stored meal, got %d", len(recent))
	}
}

func TestInsightsUseConfiguredProteinTarget(t *testing.T) {
	t.Parallel()
	store := db.NewMemoryStore()
	svc := service.New(store, store, nil, logger.NewNop(), service.Options{
		Now:           func() time.Time { return serviceNow },
		ProteinTarget: 50,
	})
	ctx := context.Background()

	items := []models.MealItem{{FoodName: "Chicken wrap", Calories: 500, Protein: 54, Carbs: 40, Fat: 12}}
	for d := 0; d < 6; d++ {
		m := &models.Meal{
			ID:       fmt.Sprintf("meal-%d", d),
			UserID:   "user-1",
			MealType: models.MealBreakfast,
			LoggedAt: serviceNow.AddDate(0, 0, -d).Add(-time.Hour),
			Items:    items,
			Totals:   models.SumItems(items),
		}
		if err := store.SaveMeal(ctx, m); err != nil {
			t.Fatalf("save meal %d: %v", d, err)
		}
	}

	profile := &models.UserProfile{UserID: "user-1", Goal: models.GoalMaintain, DailyCalorieTarget: 2000}
	res, err := svc.GenerateInsights(ctx, "user-1", profile)
	if err != nil {
		t.Fatalf("insights: %v", err)
	}
	var champion bool
	for _, in := range res.Insights {
		if in.Type == "protein_champion" && strings.Contains(in.Description, "50g target") {
			champion = true
		}
	}
	if !champion {
		t.Fatalf("expected protein champion against the 50g default, got %+v", res.Insights)
	}
	if profile.ProteinTarget != 0 {
		t.Fatalf("caller's profile was modified: %+v", profile)
	}
}
