package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"nutrition-bot/config"
	"nutrition-bot/internal/bot"
	"nutrition-bot/internal/db"
	"nutrition-bot/internal/gpt"
	"nutrition-bot/internal/payment"
	"nutrition-bot/internal/server"
	"nutrition-bot/internal/service"
	"nutrition-bot/pkg/logger"
)

// store is what both the Postgres and the in-memory backends provide.
type store interface {
	service.MealRepository
	service.ProfileRepository
	bot.Store
	server.PremiumStore
}

func main() {
	l := logger.FromEnv()
	defer l.Sync()
	l.Info("Starting nutrition bot...")

	cfg, err := config.Load()
	if err != nil {
		l.Fatalw("Failed to load config", "error", err)
	}

	loc, err := cfg.Engine.Location()
	if err != nil {
		l.Fatalw("Invalid engine config", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var repo store
	if cfg.DB.Host == "" {
		l.Warn("DB host is not configured, keeping data in memory")
		repo = db.NewMemoryStore()
	} else {
		var database *db.PostgresDB
		maxRetries := 5
		for i := 0; i < maxRetries; i++ {
			database, err = db.NewPostgresDB(cfg.DB)
			if err == nil {
				break
			}
			l.Errorw("Failed to connect to database, retrying...", "attempt", i+1, "error", err)
			time.Sleep(time.Duration(i+1) * time.Second)
		}
		if database == nil {
			l.Fatalw("Failed to connect to database after multiple attempts", "error", err)
		}
		defer database.Close()

		if err := database.Migrate(ctx); err != nil {
			l.Fatalw("Failed to apply migrations", "error", err)
		}
		repo = database
	}

	var parser service.MealParser
	if cfg.GPT.APIKey != "" {
		parser = gpt.NewClient(cfg.GPT.APIKey).WithModel(cfg.GPT.Model)
	} else {
		l.Warn("GPT API key is not configured, meals must be logged with items")
	}

	engine := service.New(repo, repo, parser, l.With("component", "engine"), service.Options{
		Location:      loc,
		SampleSize:    cfg.Engine.SuggestionSampleSize,
		ProteinTarget: cfg.Engine.DefaultProteinTarget,
	})

	stripeClient := payment.NewStripeClient(cfg.Stripe)

	var telegramBot *bot.TelegramBot
	var notifier server.PremiumNotifier
	if cfg.Telegram.Token != "" {
		telegramBot, err = bot.NewTelegramBot(cfg.Telegram.Token, engine, repo, stripeClient, l.With("component", "bot"))
		if err != nil {
			l.Fatalw("Failed to create Telegram bot", "error", err)
		}
		if err := telegramBot.Start(ctx); err != nil {
			l.Fatalw("Failed to start Telegram bot", "error", err)
		}
		notifier = telegramBot
		l.Info("Telegram bot started successfully")
	} else {
		l.Warn("Telegram token is not configured, running the HTTP API only")
	}

	var webhook *server.StripeWebhook
	if stripeClient.GetWebhookSecret() != "" {
		webhook = server.NewStripeWebhook(stripeClient, repo, notifier, l.With("component", "stripe"))
	}

	router := server.NewRouter(server.NewAPI(engine, l), webhook, cfg.Server.CORSOrigins, l.With("component", "http"))
	httpServer := server.NewServer(cfg.Server.Port, router, l)
	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Errorw("HTTP server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	l.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		l.Errorw("Error during HTTP server shutdown", "error", err)
	}
	if telegramBot != nil {
		if err := telegramBot.Stop(shutdownCtx); err != nil {
			l.Errorw("Error during bot shutdown", "error", err)
		}
	}

	l.Info("Stopped")
}
