package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"nutrition-bot/internal/models"
	"nutrition-bot/internal/service"
	"nutrition-bot/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Engine is the part of the recommendation service exposed over HTTP.
type Engine interface {
	ComputeNutritionPlan(ctx context.Context, in *models.BiometricInput) (*models.NutritionPlan, error)
	ConfirmPlan(ctx context.Context, userID string, in *models.BiometricInput) (*models.NutritionPlan, *models.UserProfile, error)
	LogMeal(ctx context.Context, in service.LogMealInput) (*models.Meal, error)
	GradeMeal(ctx context.Context, mealID string, meal *models.Meal, profile *models.UserProfile) (*models.GradeData, error)
	RegradeMeal(ctx context.Context, mealID string) (*models.GradeData, error)
	GenerateInsights(ctx context.Context, userID string, profile *models.UserProfile) (*models.InsightsResult, error)
	GenerateSuggestions(ctx context.Context, userID string, profile *models.UserProfile) (*models.SuggestionsResult, error)
	WeeklyReport(ctx context.Context, userID string) (*models.WeeklyReport, error)
}

type API struct {
	engine Engine
	logger *logger.Logger
}

func NewAPI(engine Engine, l *logger.Logger) *API {
	return &API{engine: engine, logger: l}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type confirmResponse struct {
	Plan    *models.NutritionPlan `json:"plan"`
	Profile *models.UserProfile   `json:"profile"`
}

type gradeRequest struct {
	Meal    *models.Meal        `json:"meal"`
	Profile *models.UserProfile `json:"profile"`
}

// httpStatus follows the usual gRPC to HTTP mapping.
func httpStatus(c codes.Code) int {
	switch c {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.Aborted:
		return http.StatusConflict
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Canceled:
		return http.StatusRequestTimeout
	case codes.Unimplemented:
		return http.StatusNotImplemented
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	st := status.Convert(err)
	code := httpStatus(st.Code())
	if code >= http.StatusInternalServerError {
		a.logger.Errorw("Request failed", "path", r.URL.Path, "code", st.Code().String(), "error", st.Message())
	}
	writeJSON(w, code, errorResponse{Code: st.Code().String(), Message: st.Message()})
}

// readBody returns the raw request body, capped at maxBodyBytes.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "failed to read request body: %v", err)
	}
	return bytes.TrimSpace(body), nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return status.Error(codes.InvalidArgument, "request body is required")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid JSON body: %v", err)
	}
	return nil
}

func (a *API) ComputePlan(w http.ResponseWriter, r *http.Request) {
	var in models.BiometricInput
	if err := decodeBody(w, r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	plan, err := a.engine.ComputeNutritionPlan(r.Context(), &in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (a *API) ConfirmPlan(w http.ResponseWriter, r *http.Request) {
	var in models.BiometricInput
	if err := decodeBody(w, r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	plan, profile, err := a.engine.ConfirmPlan(r.Context(), mux.Vars(r)["userID"], &in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, confirmResponse{Plan: plan, Profile: profile})
}

func (a *API) LogMeal(w http.ResponseWriter, r *http.Request) {
	var in service.LogMealInput
	if err := decodeBody(w, r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	in.UserID = mux.Vars(r)["userID"]
	meal, err := a.engine.LogMeal(r.Context(), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, meal)
}

// GradeMeal grades the meal and profile given in the body. With an empty body
// the stored meal is regraded against its owner's profile.
func (a *API) GradeMeal(w http.ResponseWriter, r *http.Request) {
	mealID := mux.Vars(r)["mealID"]
	body, err := readBody(w, r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	var grade *models.GradeData
	if len(body) == 0 {
		grade, err = a.engine.RegradeMeal(r.Context(), mealID)
	} else {
		var req gradeRequest
		if err := json.Unmarshal(body, &req); err != nil {
			a.writeError(w, r, status.Errorf(codes.InvalidArgument, "invalid JSON body: %v", err))
			return
		}
		grade, err = a.engine.GradeMeal(r.Context(), mealID, req.Meal, req.Profile)
	}
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, grade)
}

func (a *API) Insights(w http.ResponseWriter, r *http.Request) {
	res, err := a.engine.GenerateInsights(r.Context(), mux.Vars(r)["userID"], nil)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) Suggestions(w http.ResponseWriter, r *http.Request) {
	res, err := a.engine.GenerateSuggestions(r.Context(), mux.Vars(r)["userID"], nil)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) Report(w http.ResponseWriter, r *http.Request) {
	res, err := a.engine.WeeklyReport(r.Context(), mux.Vars(r)["userID"])
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
