package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type DBConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	ConnLifetime time.Duration
}

type StripeConfig struct {
	SecretKey  string
	PublicKey  string
	WebhookKey string
	ProductID  string
	PriceID    string
	Amount     int
	Currency   string
}

type EngineConfig struct {
	Timezone             string
	DefaultProteinTarget int
	SuggestionSampleSize int
}

type Config struct {
	Telegram struct {
		Token string
	}
	DB     DBConfig
	Stripe StripeConfig
	GPT    struct {
		APIKey string
		Model  string
	}
	Server struct {
		Port        string
		CORSOrigins []string
	}
	Engine          EngineConfig
	ShutdownTimeout time.Duration
}

// Location resolves the engine timezone used for local-date bucketing.
func (e EngineConfig) Location() (*time.Location, error) {
	if e.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid engine timezone %q: %w", e.Timezone, err)
	}
	return loc, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ShutdownTimeout", 10*time.Second)
	v.SetDefault("GPT.Model", "gpt-4o-mini")
	v.SetDefault("Server.Port", "8080")
	v.SetDefault("Server.CORSOrigins", []string{"*"})
	// an empty host keeps data in memory
	v.SetDefault("DB.Host", "")
	v.SetDefault("DB.Port", "5432")
	v.SetDefault("DB.SSLMode", "disable")
	v.SetDefault("DB.MaxOpenConns", 20)
	v.SetDefault("DB.MaxIdleConns", 10)
	v.SetDefault("DB.ConnLifetime", 5*time.Minute)
	v.SetDefault("Stripe.Amount", 499)
	v.SetDefault("Stripe.Currency", "usd")
	v.SetDefault("Engine.Timezone", "UTC")
	v.SetDefault("Engine.DefaultProteinTarget", 150)
	v.SetDefault("Engine.SuggestionSampleSize", 100)
}

// Load reads config.{yaml,json} from the usual places, falling back to
// environment variables when no file is found.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")
	v.AddConfigPath("$HOME/.nutrition-bot")

	setDefaults(v)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		return fromEnv(), nil
	}

	// Expand ${ENV_VAR} placeholders
	for _, key := range v.AllKeys() {
		value := v.GetString(key)
		if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
			envVar := strings.TrimPrefix(strings.TrimSuffix(value, "}"), "${")
			if envValue := os.Getenv(envVar); envValue != "" {
				v.Set(key, envValue)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func fromEnv() *Config {
	cfg := &Config{}
	cfg.Telegram.Token = os.Getenv("TELEGRAM_TOKEN")
	cfg.DB.Host = getEnvOr("DB_HOST", "")
	cfg.DB.Port = getEnvOr("DB_PORT", "5432")
	cfg.DB.User = getEnvOr("DB_USER", "postgres")
	cfg.DB.Password = getEnvOr("DB_PASSWORD", "postgres")
	cfg.DB.DBName = getEnvOr("DB_NAME", "nutrition")
	cfg.DB.SSLMode = getEnvOr("DB_SSL_MODE", "disable")
	cfg.DB.MaxOpenConns = getEnvIntOr("DB_MAX_OPEN_CONNS", 20)
	cfg.DB.MaxIdleConns = getEnvIntOr("DB_MAX_IDLE_CONNS", 10)
	cfg.DB.ConnLifetime = 5 * time.Minute
	cfg.Stripe.SecretKey = os.Getenv("STRIPE_SECRET_KEY")
	cfg.Stripe.PublicKey = os.Getenv("STRIPE_PUBLIC_KEY")
	cfg.Stripe.WebhookKey = os.Getenv("STRIPE_WEBHOOK_KEY")
	cfg.Stripe.ProductID = os.Getenv("STRIPE_PRODUCT_ID")
	cfg.Stripe.PriceID = os.Getenv("STRIPE_PRICE_ID")
	cfg.Stripe.Amount = getEnvIntOr("STRIPE_AMOUNT", 499)
	cfg.Stripe.Currency = getEnvOr("STRIPE_CURRENCY", "usd")
	cfg.GPT.APIKey = os.Getenv("GPT_API_KEY")
	cfg.GPT.Model = getEnvOr("GPT_MODEL", "gpt-4o-mini")
	cfg.Server.Port = getEnvOr("SERVER_PORT", "8080")
	cfg.Server.CORSOrigins = strings.Split(getEnvOr("CORS_ORIGINS", "*"), ",")
	cfg.Engine.Timezone = getEnvOr("ENGINE_TIMEZONE", "UTC")
	cfg.Engine.DefaultProteinTarget = getEnvIntOr("ENGINE_DEFAULT_PROTEIN_TARGET", 150)
	cfg.Engine.SuggestionSampleSize = getEnvIntOr("ENGINE_SUGGESTION_SAMPLE_SIZE", 100)
	cfg.ShutdownTimeout = 10 * time.Second
	return cfg
}

func getEnvOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOr(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
