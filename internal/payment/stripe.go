package payment

import (
	"fmt"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/checkout/session"
	"github.com/stripe/stripe-go/v72/webhook"

	"nutrition-bot/config"
)

// EventCheckoutCompleted is the webhook event that unlocks premium.
const EventCheckoutCompleted = "checkout.session.completed"

type StripeClient struct {
	secretKey     string
	publicKey     string
	webhookSecret string
	priceID       string
	productID     string
	amount        int
	currency      string
}

func NewStripeClient(cfg config.StripeConfig) *StripeClient {
	stripe.Key = cfg.SecretKey

	return &StripeClient{
		secretKey:     cfg.SecretKey,
		publicKey:     cfg.PublicKey,
		webhookSecret: cfg.WebhookKey,
		priceID:       cfg.PriceID,
		productID:     cfg.ProductID,
		amount:        cfg.Amount,
		currency:      cfg.Currency,
	}
}

// Enabled reports whether checkout can be offered at all.
func (s *StripeClient) Enabled() bool {
	return s != nil && s.secretKey != "" && s.priceID != ""
}

func (s *StripeClient) GetWebhookSecret() string {
	return s.webhookSecret
}

func (s *StripeClient) Amount() int { return s.amount }

func (s *StripeClient) Currency() string { return s.currency }

// CreateCheckoutSession starts a premium checkout for a user and returns the
// session ID and its hosted URL.
func (s *StripeClient) CreateCheckoutSession(userID, successURL, cancelURL string) (string, string, error) {
	if stripe.Key != s.secretKey {
		stripe.Key = s.secretKey
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{
			"card",
		}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(s.priceID),
				Quantity: stripe.Int64(1),
			},
		},
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(successURL),
		CancelURL:         stripe.String(cancelURL),
		ClientReferenceID: stripe.String(userID),
	}

	sess, err := session.New(params)
	if err != nil {
		return "", "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	return sess.ID, sess.URL, nil
}

func (s *StripeClient) VerifyWebhookSignature(payload []byte, sig string) (stripe.Event, error) {
	if s.webhookSecret == "" {
		return stripe.Event{}, fmt.Errorf("webhook secret is not configured")
	}
	return webhook.ConstructEvent(payload, sig, s.webhookSecret)
}
