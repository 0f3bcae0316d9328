package server

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v72"
	"google.golang.org/grpc/codes"

	"nutrition-bot/config"
	"nutrition-bot/internal/db"
	"nutrition-bot/internal/models"
	"nutrition-bot/internal/payment"
	"nutrition-bot/internal/service"
	"nutrition-bot/pkg/logger"
)

const testWebhookSecret = "whsec_test"

type recordingNotifier struct {
	mu    sync.Mutex
	users []string
}

func (n *recordingNotifier) NotifyPremium(_ context.Context, userID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.users = append(n.users, userID)
}

type testEnv struct {
	handler  http.Handler
	store    *db.MemoryStore
	notifier *recordingNotifier
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	l := logger.NewNop()
	store := db.NewMemoryStore()
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	svc := service.New(store, store, nil, l, service.Options{Now: func() time.Time { return now }})

	stripeClient := payment.NewStripeClient(config.StripeConfig{SecretKey: "sk_test", WebhookKey: testWebhookSecret, PriceID: "price_1"})
	notifier := &recordingNotifier{}
	webhook := NewStripeWebhook(stripeClient, store, notifier, l)

	return testEnv{
		handler:  NewRouter(NewAPI(svc, l), webhook, nil, l),
		store:    store,
		notifier: notifier,
	}
}

func (e testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

const planBody = `{"birth_month":5,"birth_year":1996,"sex":"MALE","weight_kg":70,"height_cm":175,"workouts_per_week":3,"goal":"LOSE_WEIGHT"}`

func TestHealth(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("unexpected health response %d %q", rec.Code, rec.Body.String())
	}
}

func TestComputePlanEndpoint(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/plan", planBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var plan models.NutritionPlan
	decode(t, rec, &plan)
	if plan.TargetCalories != 2172 || plan.ProteinG != 163 {
		t.Fatalf("unexpected plan %+v", plan)
	}

	rec = env.do(t, http.MethodPost, "/v1/plan", `{"sex":"MALE"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for incomplete input, got %d", rec.Code)
	}
	var errResp errorResponse
	decode(t, rec, &errResp)
	if errResp.Code != codes.InvalidArgument.String() || !strings.Contains(errResp.Message, "height_cm") {
		t.Fatalf("unexpected error body %+v", errResp)
	}

	if rec := env.do(t, http.MethodPost, "/v1/plan", `{not json`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed JSON, got %d", rec.Code)
	}
}

func TestMealLifecycle(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	if rec := env.do(t, http.MethodPost, "/v1/users/user-1/plan/confirm", planBody); rec.Code != http.StatusOK {
		t.Fatalf("confirm plan: %d %s", rec.Code, rec.Body.String())
	}

	rec := env.do(t, http.MethodPost, "/v1/users/user-1/meals",
		`{"meal_type":"Lunch","items":[{"food_name":"Grilled chicken salad","quantity":"1 bowl","calories":450,"protein":40,"carbs":30,"fat":15}]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("log meal: %d %s", rec.Code, rec.Body.String())
	}
	var meal models.Meal
	decode(t, rec, &meal)
	if meal.UserID != "user-1" || meal.Grade == nil {
		t.Fatalf("unexpected meal %+v", meal)
	}

	rec = env.do(t, http.MethodPost, "/v1/meals/"+meal.ID+"/grade", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("regrade: %d %s", rec.Code, rec.Body.String())
	}
	var grade models.GradeData
	decode(t, rec, &grade)
	if grade.Score != meal.Grade.Score {
		t.Fatalf("regrade score %d differs from %d", grade.Score, meal.Grade.Score)
	}

	body := `{"meal":{"items":[{"food_name":"Donut","calories":900,"protein":5,"carbs":100,"fat":50}],"totals":{"calories":900,"protein":5,"carbs":100,"fat":50}},"profile":{"goal":"LOSE_WEIGHT","daily_calorie_target":1800}}`
	rec = env.do(t, http.MethodPost, "/v1/meals/adhoc/grade", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("grade: %d %s", rec.Code, rec.Body.String())
	}
	decode(t, rec, &grade)
	if grade.Score >= 60 {
		t.Fatalf("expected a failing score for a 900 kcal donut, got %d", grade.Score)
	}

	if rec := env.do(t, http.MethodPost, "/v1/meals/adhoc/grade", `{"meal":{}}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without profile, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/v1/meals/missing/grade", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 regrading unknown meal, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/v1/users/user-1/insights", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("insights: %d", rec.Code)
	}
	var insights models.InsightsResult
	decode(t, rec, &insights)
	if insights.HasEnoughData {
		t.Fatalf("one meal must not be enough data")
	}

	rec = env.do(t, http.MethodGet, "/v1/users/user-1/suggestions", "")
	var suggestions models.SuggestionsResult
	decode(t, rec, &suggestions)
	if suggestions.Reason != models.ReasonInsufficientData {
		t.Fatalf("expected insufficient_data, got %q", suggestions.Reason)
	}

	if rec := env.do(t, http.MethodGet, "/v1/users/user-1/report", ""); rec.Code != http.StatusOK {
		t.Fatalf("report: %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/v1/users/ghost/insights", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %d", rec.Code)
	}
}

func signPayload(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func checkoutEvent(userID, sessionID string) []byte {
	return []byte(fmt.Sprintf(`{"id":"evt_1","object":"event","type":%q,"api_version":%q,"data":{"object":{"id":%q,"object":"checkout.session","client_reference_id":%q}}}`,
		payment.EventCheckoutCompleted, stripe.APIVersion, sessionID, userID))
}

func postWebhook(env testEnv, payload []byte, sig string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook/stripe", bytes.NewReader(payload))
	if sig != "" {
		req.Header.Set("Stripe-Signature", sig)
	}
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

func TestStripeWebhookUnlocksPremium(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.store.SaveProfile(ctx, &models.UserProfile{UserID: "42", Goal: models.GoalMaintain}); err != nil {
		t.Fatalf("save profile: %v", err)
	}
	if err := env.store.SavePayment(ctx, &models.Payment{UserID: "42", StripePaymentID: "cs_1", Status: "pending"}); err != nil {
		t.Fatalf("save payment: %v", err)
	}

	payload := checkoutEvent("42", "cs_1")
	rec := postWebhook(env, payload, signPayload(payload, testWebhookSecret))
	if rec.Code != http.StatusOK {
		t.Fatalf("webhook: %d %s", rec.Code, rec.Body.String())
	}

	profile, err := env.store.GetProfile(ctx, "42")
	if err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if !profile.IsPremium {
		t.Fatalf("expected premium after checkout")
	}
	if p, ok := env.store.Payment("cs_1"); !ok || p.Status != "completed" {
		t.Fatalf("expected completed payment, got %+v", p)
	}
	if len(env.notifier.users) != 1 || env.notifier.users[0] != "42" {
		t.Fatalf("expected notification for user 42, got %v", env.notifier.users)
	}
}

func TestStripeWebhookRejects(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	payload := checkoutEvent("42", "cs_1")

	tests := []struct {
		name string
		body []byte
		sig  string
		code int
	}{
		{"missing signature", payload, "", http.StatusBadRequest},
		{"wrong secret", payload, signPayload(payload, "whsec_other"), http.StatusBadRequest},
		{"unknown user", payload, signPayload(payload, testWebhookSecret), http.StatusNotFound},
	}
	for _, tt := range tests {
		if rec := postWebhook(env, tt.body, tt.sig); rec.Code != tt.code {
			t.Fatalf("%s: expected %d, got %d", tt.name, tt.code, rec.Code)
		}
	}
	if len(env.notifier.users) != 0 {
		t.Fatalf("no user should have been notified, got %v", env.notifier.users)
	}
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/v1/plan", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard CORS origin, got %q", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	t.Parallel()

	tests := map[codes.Code]int{
		codes.OK:                 http.StatusOK,
		codes.InvalidArgument:    http.StatusBadRequest,
		codes.FailedPrecondition: http.StatusBadRequest,
		codes.NotFound:           http.StatusNotFound,
		codes.Unavailable:        http.StatusServiceUnavailable,
		codes.DeadlineExceeded:   http.StatusGatewayTimeout,
		codes.Internal:           http.StatusInternalServerError,
		codes.Unknown:            http.StatusInternalServerError,
	}
	for c, want := range tests {
		if got := httpStatus(c); got != want {
			t.Fatalf("%s: expected %d, got %d", c, want, got)
		}
	}
}
