package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v72"

	"nutrition-bot/internal/models"
	"nutrition-bot/internal/payment"
	"nutrition-bot/pkg/logger"
)

// PremiumStore records completed checkouts.
type PremiumStore interface {
	SetPremium(ctx context.Context, userID string, premium bool) error
	UpdatePaymentStatus(ctx context.Context, stripePaymentID string, status string) error
}

// PremiumNotifier is told when a user's premium access was unlocked.
type PremiumNotifier interface {
	NotifyPremium(ctx context.Context, userID string)
}

type StripeWebhook struct {
	stripe   *payment.StripeClient
	store    PremiumStore
	notifier PremiumNotifier
	logger   *logger.Logger
}

func NewStripeWebhook(client *payment.StripeClient, store PremiumStore, notifier PremiumNotifier, l *logger.Logger) *StripeWebhook {
	return &StripeWebhook{stripe: client, store: store, notifier: notifier, logger: l}
}

func (h *StripeWebhook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Errorw("Failed to read webhook body", "error", err)
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	if h.stripe.GetWebhookSecret() == "" {
		h.logger.Error("Webhook secret is not configured")
		http.Error(w, "Webhook not configured", http.StatusInternalServerError)
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		h.logger.Warn("Missing Stripe signature header")
		http.Error(w, "Missing signature", http.StatusBadRequest)
		return
	}

	event, err := h.stripe.VerifyWebhookSignature(body, signature)
	if err != nil {
		h.logger.Warnw("Failed to verify webhook signature", "error", err)
		http.Error(w, "Invalid signature", http.StatusBadRequest)
		return
	}

	switch event.Type {
	case payment.EventCheckoutCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			h.logger.Errorw("Failed to parse checkout session", "error", err)
			http.Error(w, "Failed to parse event data", http.StatusBadRequest)
			return
		}
		if session.ClientReferenceID == "" {
			h.logger.Warnw("Missing client reference ID", "session_id", session.ID)
			http.Error(w, "Missing client reference ID", http.StatusBadRequest)
			return
		}
		if err := h.unlockPremium(r.Context(), session.ClientReferenceID, session.ID); err != nil {
			h.logger.Errorw("Failed to unlock premium", "user_id", session.ClientReferenceID, "error", err)
			code := http.StatusInternalServerError
			if errors.Is(err, models.ErrNotFound) {
				code = http.StatusNotFound
			}
			http.Error(w, "Failed to process checkout", code)
			return
		}

	case "payment_intent.payment_failed":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			h.logger.Errorw("Failed to parse payment intent", "error", err)
			break
		}
		h.logger.Warnw("Payment failed", "payment_id", intent.ID, "error", intent.LastPaymentError)

	default:
		h.logger.Debugw("Ignoring webhook event", "type", event.Type)
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Webhook received"))
}

func (h *StripeWebhook) unlockPremium(ctx context.Context, userID, sessionID string) error {
	if err := h.store.SetPremium(ctx, userID, true); err != nil {
		return err
	}
	if err := h.store.UpdatePaymentStatus(ctx, sessionID, "completed"); err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return err
		}
		h.logger.Warnw("No payment record for checkout session", "session_id", sessionID)
	}
	h.logger.Infow("Premium unlocked", "user_id", userID, "session_id", sessionID)

	if h.notifier != nil {
		h.notifier.NotifyPremium(ctx, userID)
	}
	return nil
}
