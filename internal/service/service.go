package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"nutrition-bot/internal/models"
	"nutrition-bot/internal/nutrition"
	"nutrition-bot/pkg/logger"
)

// MealRepository is the meal history the engine reads and the grades it writes back.
type MealRepository interface {
	SaveMeal(ctx context.Context, meal *models.Meal) error
	GetMeal(ctx context.Context, mealID string) (*models.Meal, error)
	SaveGrade(ctx context.Context, mealID string, grade models.GradeData) error
	MealsSince(ctx context.Context, userID string, since time.Time) ([]models.Meal, error)
	RecentMeals(ctx context.Context, userID string, limit int) ([]models.Meal, error)
}

type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	SaveProfile(ctx context.Context, profile *models.UserProfile) error
}

// MealParser turns a free-text description into structured food items.
type MealParser interface {
	ParseMeal(ctx context.Context, description string) ([]models.MealItem, error)
}

type Options struct {
	Location   *time.Location
	Now        func() time.Time
	SampleSize int

	// used by insights when a profile has no protein target
	ProteinTarget int
}

type Service struct {
	meals    MealRepository
	profiles ProfileRepository
	parser   MealParser
	logger   *logger.Logger
	loc      *time.Location
	now      func() time.Time
	sample   int
	protein  int
}

func New(meals MealRepository, profiles ProfileRepository, parser MealParser, l *logger.Logger, opts Options) *Service {
	s := &Service{
		meals:    meals,
		profiles: profiles,
		parser:   parser,
		logger:   l,
		loc:      opts.Location,
		now:      opts.Now,
		sample:   opts.SampleSize,
		protein:  opts.ProteinTarget,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.sample <= 0 || s.sample > nutrition.SuggestionSampleSize {
		s.sample = nutrition.SuggestionSampleSize
	}
	if s.protein <= 0 {
		s.protein = nutrition.DefaultProteinTarget
	}
	return s
}

// toStatus maps domain and repository errors onto RPC status codes.
func toStatus(err error, op string) error {
	var verr *nutrition.ValidationError
	switch {
	case errors.As(err, &verr):
		return status.Error(codes.InvalidArgument, verr.Error())
	case errors.Is(err, models.ErrNotFound):
		return status.Errorf(codes.NotFound, "%s: %v", op, err)
	case errors.Is(err, context.Canceled):
		return status.Errorf(codes.Canceled, "%s: %v", op, err)
	case errors.Is(err, context.DeadlineExceeded):
		return status.Errorf(codes.DeadlineExceeded, "%s: %v", op, err)
	default:
		return status.Errorf(codes.Internal, "%s: %v", op, err)
	}
}

func (s *Service) ComputeNutritionPlan(ctx context.Context, in *models.BiometricInput) (*models.NutritionPlan, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "biometric input is required")
	}
	plan, err := nutrition.ComputePlan(*in, s.now().In(s.loc))
	if err != nil {
		return nil, toStatus(err, "compute nutrition plan")
	}
	return &plan, nil
}

// ConfirmPlan recomputes the plan and writes its targets onto the user's profile.
func (s *Service) ConfirmPlan(ctx context.Context, userID string, in *models.BiometricInput) (*models.NutritionPlan, *models.UserProfile, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, nil, status.Error(codes.InvalidArgument, "user id is required")
	}
	plan, err := s.ComputeNutritionPlan(ctx, in)
	if err != nil {
		return nil, nil, err
	}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		profile = &models.UserProfile{UserID: userID, CreatedAt: s.now()}
	} else if err != nil {
		return nil, nil, toStatus(err, "load profile")
	}
	profile.ApplyPlan(*in, *plan)
	profile.UpdatedAt = s.now()

	if err := s.profiles.SaveProfile(ctx, profile); err != nil {
		return nil, nil, toStatus(err, "save profile")
	}
	s.logger.Infow("Nutrition plan confirmed",
		"user_id", userID,
		"target_calories", plan.TargetCalories,
		"pregnant", in.IsPregnant)
	return plan, profile, nil
}

// GradeMeal scores a meal. Persisting the result is up to the caller.
func (s *Service) GradeMeal(ctx context.Context, mealID string, meal *models.Meal, profile *models.UserProfile) (*models.GradeData, error) {
	var missing []string
	if strings.TrimSpace(mealID) == "" {
		missing = append(missing, "meal_id")
	}
	if meal == nil {
		missing = append(missing, "meal")
	}
	if profile == nil {
		missing = append(missing, "profile")
	}
	if len(missing) > 0 {
		return nil, status.Errorf(codes.InvalidArgument, "missing required fields: %s", strings.Join(missing, ", "))
	}
	grade := nutrition.GradeMeal(*meal, *profile, s.now())
	return &grade, nil
}

// RegradeMeal grades a stored meal against the owner's current profile and
// overwrites any previous grade.
func (s *Service) RegradeMeal(ctx context.Context, mealID string) (*models.GradeData, error) {
	if strings.TrimSpace(mealID) == "" {
		return nil, status.Error(codes.InvalidArgument, "meal id is required")
	}
	meal, err := s.meals.GetMeal(ctx, mealID)
	if err != nil {
		return nil, toStatus(err, "load meal")
	}
	profile, err := s.profiles.GetProfile(ctx, meal.UserID)
	if err != nil {
		return nil, toStatus(err, "load profile")
	}
	grade, err := s.GradeMeal(ctx, mealID, meal, profile)
	if err != nil {
		return nil, err
	}
	if err := s.meals.SaveGrade(ctx, mealID, *grade); err != nil {
		return nil, toStatus(err, "save grade")
	}
	return grade, nil
}

type LogMealInput struct {
	UserID      string            `json:"user_id"`
	MealType    models.MealType   `json:"meal_type"`
	Description string            `json:"description"`
	Items       []models.MealItem `json:"items,omitempty"`
	LoggedAt    time.Time         `json:"timestamp,omitempty"`
}

var mealTypes = map[models.MealType]bool{
	models.MealBreakfast: true,
	models.MealLunch:     true,
	models.MealDinner:    true,
	models.MealSnack:     true,
}

// MealTypeAt guesses the meal type from the local hour it was logged.
func MealTypeAt(t time.Time) models.MealType {
	switch h := t.Hour(); {
	case h >= 4 && h < 11:
		return models.MealBreakfast
	case h >= 11 && h < 16:
		return models.MealLunch
	case h >= 17 && h < 22:
		return models.MealDinner
	default:
		return models.MealSnack
	}
}

// LogMeal grades a meal and stores it together with its grade in one write.
// When no items are supplied the description is sent to the meal parser first.
func (s *Service) LogMeal(ctx context.Context, in LogMealInput) (*models.Meal, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, status.Error(codes.InvalidArgument, "user id is required")
	}
	if len(in.Items) == 0 && strings.TrimSpace(in.Description) == "" {
		return nil, status.Error(codes.InvalidArgument, "either items or a description is required")
	}
	if in.LoggedAt.IsZero() {
		in.LoggedAt = s.now()
	}
	if in.MealType == "" {
		in.MealType = MealTypeAt(in.LoggedAt.In(s.loc))
	}
	if !mealTypes[in.MealType] {
		return nil, status.Errorf(codes.InvalidArgument, "invalid meal type %q", in.MealType)
	}

	items := in.Items
	if len(items) == 0 {
		if s.parser == nil {
			return nil, status.Error(codes.FailedPrecondition, "meal parsing is not configured")
		}
		parsed, err := s.parser.ParseMeal(ctx, in.Description)
		if err != nil {
			return nil, status.Errorf(codes.Unavailable, "parse meal: %v", err)
		}
		if len(parsed) == 0 {
			return nil, status.Error(codes.InvalidArgument, "no food items recognized in description")
		}
		items = parsed
	}

	profile, err := s.profiles.GetProfile(ctx, in.UserID)
	if err != nil {
		return nil, toStatus(err, "load profile")
	}

	meal := &models.Meal{
		ID:          uuid.NewString(),
		UserID:      in.UserID,
		LoggedAt:    in.LoggedAt,
		MealType:    in.MealType,
		Description: in.Description,
		Items:       items,
		Totals:      models.SumItems(items),
	}
	grade, err := s.GradeMeal(ctx, meal.ID, meal, profile)
	if err != nil {
		return nil, err
	}
	meal.Grade = grade
	if err := s.meals.SaveMeal(ctx, meal); err != nil {
		return nil, toStatus(err, "save meal")
	}

	s.logger.Infow("Meal logged",
		"user_id", in.UserID,
		"meal_id", meal.ID,
		"items", len(items),
		"grade", grade.Grade)
	return meal, nil
}

func (s *Service) profileFor(ctx context.Context, userID string, profile *models.UserProfile) (*models.UserProfile, error) {
	if profile != nil {
		return profile, nil
	}
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, toStatus(err, "load profile")
	}
	return p, nil
}

// GenerateInsights reads the trailing week of meals. When the history cannot
// be read the result degrades to HasEnoughData=false instead of failing.
func (s *Service) GenerateInsights(ctx context.Context, userID string, profile *models.UserProfile) (*models.InsightsResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, status.Error(codes.InvalidArgument, "user id is required")
	}
	profile, err := s.profileFor(ctx, userID, profile)
	if err != nil {
		return nil, err
	}

	now := s.now()
	since := nutrition.StartOfDay(now, s.loc).AddDate(0, 0, -(nutrition.InsightWindowDays - 1))
	meals, err := s.meals.MealsSince(ctx, userID, since)
	if err != nil {
		s.logger.Warnw("Meal history unavailable for insights", "user_id", userID, "error", err)
		meals = nil
	}
	p := *profile
	if p.ProteinTarget <= 0 {
		p.ProteinTarget = s.protein
	}
	res := nutrition.BuildInsights(meals, p, now, s.loc)
	return &res, nil
}

// GenerateSuggestions reads the most recent meals. Thin history or an
// unavailable history query come back as a reason code, not an error.
func (s *Service) GenerateSuggestions(ctx context.Context, userID string, profile *models.UserProfile) (*models.SuggestionsResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, status.Error(codes.InvalidArgument, "user id is required")
	}
	profile, err := s.profileFor(ctx, userID, profile)
	if err != nil {
		return nil, err
	}

	meals, err := s.meals.RecentMeals(ctx, userID, s.sample)
	if err != nil {
		s.logger.Warnw("Meal history unavailable for suggestions", "user_id", userID, "error", err)
		return &models.SuggestionsResult{
			Suggestions: []models.Suggestion{},
			Reason:      models.ReasonIndexNeeded,
		}, nil
	}
	res := nutrition.BuildSuggestions(meals, *profile, s.loc)
	return &res, nil
}

// WeeklyReport builds insights and suggestions for a user concurrently.
func (s *Service) WeeklyReport(ctx context.Context, userID string) (*models.WeeklyReport, error) {
	profile, err := s.profileFor(ctx, userID, nil)
	if err != nil {
		return nil, err
	}

	report := &models.WeeklyReport{UserID: userID}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := s.GenerateInsights(gctx, userID, profile)
		if err != nil {
			return err
		}
		report.Insights = *res
		return nil
	})
	g.Go(func() error {
		res, err := s.GenerateSuggestions(gctx, userID, profile)
		if err != nil {
			return err
		}
		report.Suggestions = *res
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}
