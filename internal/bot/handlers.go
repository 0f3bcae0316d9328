package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"nutrition-bot/internal/models"
	"nutrition-bot/internal/service"
)

const helpText = `I turn your body stats into daily calorie and macro targets and grade what you eat.

/start - set up or redo your plan
/plan - show your current targets
/log <meal> - log a meal, e.g. /log two eggs and toast
/insights - your last 7 days
/suggestions - personalized tips (premium)
/premium - unlock premium
/help - this message

You can also just send me what you ate.`

func userKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (t *TelegramBot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	userID := message.From.ID
	args := strings.TrimSpace(message.CommandArguments())

	t.logger.Infow("Handling command", "command", message.Command(), "user_id", userID)

	switch message.Command() {
	case "start":
		switch args {
		case "payment_success":
			t.send(chatID, prompt{text: "Thanks for your payment! Premium will be active in a moment."})
			return
		case "payment_cancel":
			t.send(chatID, prompt{text: "Payment was cancelled. You can try again any time with /premium."})
			return
		}
		t.setState(userID, newOnboarding(userID))
		t.send(chatID, startPrompt())

	case "plan":
		profile, err := t.store.GetProfile(ctx, userKey(userID))
		if err != nil {
			t.replyError(chatID, err)
			return
		}
		t.send(chatID, prompt{text: formatProfile(*profile)})

	case "log":
		if args == "" {
			t.send(chatID, prompt{text: "Tell me what you ate, e.g. /log chicken salad and an apple"})
			return
		}
		t.logMeal(ctx, chatID, userID, args)

	case "insights":
		res, err := t.engine.GenerateInsights(ctx, userKey(userID), nil)
		if err != nil {
			t.replyError(chatID, err)
			return
		}
		t.send(chatID, prompt{text: formatInsights(*res)})

	case "suggestions":
		profile, err := t.store.GetProfile(ctx, userKey(userID))
		if err != nil {
			t.replyError(chatID, err)
			return
		}
		if !profile.IsPremium {
			t.send(chatID, prompt{text: "💡 Suggestions are a premium feature. Use /premium to unlock them."})
			return
		}
		res, err := t.engine.GenerateSuggestions(ctx, profile.UserID, profile)
		if err != nil {
			t.replyError(chatID, err)
			return
		}
		t.send(chatID, prompt{text: formatSuggestions(*res)})

	case "premium":
		t.startCheckout(ctx, chatID, userID)

	case "help":
		t.send(chatID, prompt{text: helpText})

	default:
		t.send(chatID, prompt{text: "Unknown command. Use /help to see what I can do."})
	}
}

func (t *TelegramBot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	userID := message.From.ID
	text := strings.TrimSpace(message.Text)
	if text == "" {
		return
	}

	next, st, ok, onboarding, confirming := t.answer(userID, text)
	switch {
	case !onboarding:
		t.logMeal(ctx, chatID, userID, text)
	case confirming:
		t.handleConfirm(ctx, message, st, text)
	case ok && st.CurrentState == StateConfirm:
		t.showPlan(ctx, chatID, st)
	default:
		t.send(chatID, next)
	}
}

func (t *TelegramBot) showPlan(ctx context.Context, chatID int64, st models.UserState) {
	plan, err := t.engine.ComputeNutritionPlan(ctx, &st.Input)
	if err != nil {
		t.logger.Warnw("Plan preview failed", "user_id", st.TelegramID, "error", err)
		t.setState(st.TelegramID, nil)
		t.replyError(chatID, err)
		return
	}
	text := fmt.Sprintf("Here is what you told me:\n\n%s\n\n%s\n\nSave this plan?", formatSummary(st.Input), formatPlan(*plan))
	t.send(chatID, prompt{text, confirmKeyboard})
}

func (t *TelegramBot) handleConfirm(ctx context.Context, message *tgbotapi.Message, st models.UserState, text string) {
	chatID := message.Chat.ID

	switch text {
	case btnRestart:
		t.setState(st.TelegramID, newOnboarding(st.TelegramID))
		t.send(chatID, startPrompt())
		return
	case btnSave:
	default:
		t.send(chatID, prompt{"Please choose one of the options below.", confirmKeyboard})
		return
	}

	_, profile, err := t.engine.ConfirmPlan(ctx, userKey(st.TelegramID), &st.Input)
	if err != nil {
		t.replyError(chatID, err)
		return
	}
	if profile.ChatID != chatID || profile.Username != message.From.UserName {
		profile.ChatID = chatID
		profile.Username = message.From.UserName
		if err := t.store.SaveProfile(ctx, profile); err != nil {
			t.logger.Errorw("Failed to save chat details", "user_id", profile.UserID, "error", err)
		}
	}
	t.setState(st.TelegramID, nil)

	t.send(chatID, prompt{text: "✅ Plan saved!\n\n" + formatProfile(*profile) + "\n\nNow send me what you eat and I'll grade each meal."})
}

func (t *TelegramBot) logMeal(ctx context.Context, chatID, userID int64, description string) {
	meal, err := t.engine.LogMeal(ctx, service.LogMealInput{
		UserID:      userKey(userID),
		Description: description,
	})
	if err != nil {
		t.replyError(chatID, err)
		return
	}
	t.send(chatID, prompt{text: formatMeal(*meal)})
}

func (t *TelegramBot) startCheckout(ctx context.Context, chatID, userID int64) {
	if !t.stripeClient.Enabled() {
		t.send(chatID, prompt{text: "Payments are not available right now."})
		return
	}
	profile, err := t.store.GetProfile(ctx, userKey(userID))
	if err != nil {
		t.replyError(chatID, err)
		return
	}
	if profile.IsPremium {
		t.send(chatID, prompt{text: "⭐ You already have premium."})
		return
	}

	successURL := fmt.Sprintf("https://t.me/%s?start=payment_success", t.bot.Self.UserName)
	cancelURL := fmt.Sprintf("https://t.me/%s?start=payment_cancel", t.bot.Self.UserName)

	sessionID, checkoutURL, err := t.stripeClient.CreateCheckoutSession(profile.UserID, successURL, cancelURL)
	if err != nil {
		t.logger.Errorw("Failed to create Stripe session", "user_id", profile.UserID, "error", err)
		t.send(chatID, prompt{text: "Sorry, I couldn't start the checkout. Please try again later."})
		return
	}

	err = t.store.SavePayment(ctx, &models.Payment{
		UserID:          profile.UserID,
		Amount:          t.stripeClient.Amount(),
		Currency:        t.stripeClient.Currency(),
		StripePaymentID: sessionID,
		Status:          "pending",
	})
	if err != nil {
		// the webhook still unlocks premium without a payment row
		t.logger.Errorw("Failed to save payment record", "session_id", sessionID, "error", err)
	}

	msg := tgbotapi.NewMessage(chatID, "Premium unlocks personalized suggestions from your meal history.")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("Upgrade", checkoutURL),
		),
	)
	if _, err := t.bot.Send(msg); err != nil {
		t.logger.Errorw("Failed to send checkout link", "chat_id", chatID, "error", err)
	}
}

// replyError turns a service error into something a user can act on.
func (t *TelegramBot) replyError(chatID int64, err error) {
	t.send(chatID, prompt{text: errorText(err)})
	if c := status.Code(err); c != codes.InvalidArgument && c != codes.NotFound {
		t.logger.Errorw("Request failed", "chat_id", chatID, "error", err)
	}
}

func errorText(err error) string {
	if errors.Is(err, models.ErrNotFound) {
		return "I don't have a plan for you yet. Use /start to set one up."
	}
	st := status.Convert(err)
	switch st.Code() {
	case codes.NotFound:
		return "I don't have a plan for you yet. Use /start to set one up."
	case codes.InvalidArgument:
		return "I couldn't use that: " + st.Message()
	case codes.Unavailable, codes.FailedPrecondition:
		return "I can't read meals right now. Please try again in a minute."
	default:
		return "Sorry, something went wrong. Please try again later."
	}
}
