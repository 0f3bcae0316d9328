package bot

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"nutrition-bot/internal/models"
	"nutrition-bot/internal/payment"
	"nutrition-bot/internal/service"
	"nutrition-bot/pkg/logger"
)

// Engine is the part of the recommendation service the bot drives.
type Engine interface {
	ComputeNutritionPlan(ctx context.Context, in *models.BiometricInput) (*models.NutritionPlan, error)
	ConfirmPlan(ctx context.Context, userID string, in *models.BiometricInput) (*models.NutritionPlan, *models.UserProfile, error)
	LogMeal(ctx context.Context, in service.LogMealInput) (*models.Meal, error)
	GenerateInsights(ctx context.Context, userID string, profile *models.UserProfile) (*models.InsightsResult, error)
	GenerateSuggestions(ctx context.Context, userID string, profile *models.UserProfile) (*models.SuggestionsResult, error)
}

// Store covers the profile and payment records the bot touches directly.
type Store interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	SaveProfile(ctx context.Context, profile *models.UserProfile) error
	SavePayment(ctx context.Context, payment *models.Payment) error
}

type TelegramBot struct {
	bot          *tgbotapi.BotAPI
	engine       Engine
	store        Store
	stripeClient *payment.StripeClient
	logger       *logger.Logger
	userStates   map[int64]*models.UserState
	stateMutex   sync.RWMutex
	now          func() time.Time
	handlers     sync.WaitGroup
	handlersMu   sync.Mutex
	stopped      bool
}

func NewTelegramBot(token string, engine Engine, store Store, stripeClient *payment.StripeClient, logger *logger.Logger) (*TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	logger.Infow("Authorized on Telegram", "username", bot.Self.UserName)

	return &TelegramBot{
		bot:          bot,
		engine:       engine,
		store:        store,
		stripeClient: stripeClient,
		logger:       logger,
		userStates:   make(map[int64]*models.UserState),
		now:          time.Now,
	}, nil
}

// Start begins receiving updates from Telegram via polling
func (t *TelegramBot) Start(ctx context.Context) error {
	t.logger.Info("Removing any existing webhook")
	_, err := t.bot.Request(tgbotapi.DeleteWebhookConfig{
		DropPendingUpdates: true,
	})
	if err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := t.bot.GetUpdatesChan(updateConfig)
	t.logger.Info("Started receiving Telegram updates")

	go t.handleUpdates(ctx, updates)

	return nil
}

func (t *TelegramBot) handleUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		if !t.track() {
			return
		}
		go func(update tgbotapi.Update) {
			defer t.handlers.Done()
			defer func() {
				if r := recover(); r != nil {
					t.logger.Errorw("Recovered from panic while processing update", "error", r)
				}
			}()

			switch {
			case update.Message != nil:
				t.logger.Debugw("Received message",
					"chat_id", update.Message.Chat.ID,
					"from", update.Message.From.UserName)

				if update.Message.IsCommand() {
					t.handleCommand(ctx, update.Message)
				} else {
					t.handleMessage(ctx, update.Message)
				}
			case update.CallbackQuery != nil:
				t.bot.Request(tgbotapi.NewCallback(update.CallbackQuery.ID, ""))
			}
		}(update)
	}
}

// Stop gracefully shuts down the bot
func (t *TelegramBot) Stop(ctx context.Context) error {
	t.bot.StopReceivingUpdates()
	t.closeHandlers()

	done := make(chan struct{})
	go func() {
		t.handlers.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// track registers one in-flight update handler. It reports false once the
// bot is stopping.
func (t *TelegramBot) track() bool {
	t.handlersMu.Lock()
	defer t.handlersMu.Unlock()
	if t.stopped {
		return false
	}
	t.handlers.Add(1)
	return true
}

func (t *TelegramBot) closeHandlers() {
	t.handlersMu.Lock()
	t.stopped = true
	t.handlersMu.Unlock()
}

// NotifyPremium tells a user their checkout went through.
func (t *TelegramBot) NotifyPremium(ctx context.Context, userID string) {
	chatID, err := t.chatFor(ctx, userID)
	if err != nil {
		t.logger.Warnw("Cannot notify premium user", "user_id", userID, "error", err)
		return
	}
	t.send(chatID, prompt{text: "⭐ Premium unlocked! Try /suggestions for personalized tips from your meal history."})
}

func (t *TelegramBot) chatFor(ctx context.Context, userID string) (int64, error) {
	if p, err := t.store.GetProfile(ctx, userID); err == nil && p.ChatID != 0 {
		return p.ChatID, nil
	}
	// private chats share the user's ID
	return strconv.ParseInt(userID, 10, 64)
}

func (t *TelegramBot) send(chatID int64, p prompt) {
	msg := tgbotapi.NewMessage(chatID, p.text)
	if p.keyboard != nil {
		rows := make([][]tgbotapi.KeyboardButton, 0, len(p.keyboard))
		for _, labels := range p.keyboard {
			row := make([]tgbotapi.KeyboardButton, 0, len(labels))
			for _, l := range labels {
				row = append(row, tgbotapi.NewKeyboardButton(l))
			}
			rows = append(rows, row)
		}
		msg.ReplyMarkup = tgbotapi.NewReplyKeyboard(rows...)
	} else {
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	}

	if _, err := t.bot.Send(msg); err != nil {
		t.logger.Errorw("Failed to send message", "chat_id", chatID, "error", err)
	}
}

// state returns a copy of the user's onboarding state.
func (t *TelegramBot) state(userID int64) (models.UserState, bool) {
	t.stateMutex.RLock()
	defer t.stateMutex.RUnlock()
	st, ok := t.userStates[userID]
	if !ok {
		return models.UserState{}, false
	}
	return *st, true
}

// answer applies one onboarding answer while holding the state lock. The
// stored state is replaced, never changed in place. Answers that arrive in
// the confirm step are not applied; confirming reports that case.
func (t *TelegramBot) answer(userID int64, text string) (next prompt, st models.UserState, ok, onboarding, confirming bool) {
	t.stateMutex.Lock()
	defer t.stateMutex.Unlock()

	cur, found := t.userStates[userID]
	if !found {
		return prompt{}, models.UserState{}, false, false, false
	}
	st = *cur
	if st.CurrentState == StateConfirm {
		return prompt{}, st, false, true, true
	}
	next, ok = advance(&st, text, t.now())
	t.userStates[userID] = &st
	return next, st, ok, true, false
}

func (t *TelegramBot) setState(userID int64, st *models.UserState) {
	t.stateMutex.Lock()
	defer t.stateMutex.Unlock()
	if st == nil {
		delete(t.userStates, userID)
		return
	}
	t.userStates[userID] = st
}
