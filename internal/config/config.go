package config

import (
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	SMTP      SMTPConfig
	Auth      AuthConfig
	Ai        AIConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Port                string
	BaseURL             string
	ClientURL           string
	Environment         string
	LogFilePath         string
	ActivityLogFilePath string
	CorsAllowedOrigins  string
	EventBus            string // "memory" or "nats"
	NatsURL             string
	RedisURL            string
	OtelEnabled         bool
	OtelEndpoint        string
}

type DatabaseConfig struct {
	Driver      string // "postgres" or "sqlite"
	Connection  string
	LogLevel    string
	AutoMigrate bool
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type AuthConfig struct {
	JwtSecret          string
	TokenTTL           time.Duration
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

type AIConfig struct {
	LLMProvider         string // "openai", "huggingface" or "ollama"
	LLMModel            string
	LLMBaseURL          string
	LLMAPIKey           string
	RequestTimeout      time.Duration
	HistoryLimit        int
	SummaryHistoryLimit int
	SummaryCacheTTL     time.Duration
}

type RateLimitConfig struct {
	SendMessages int
	Window       time.Duration
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

var ErrMissingJwtSecret = errors.New("JWT_SECRET must be set")

// Validate rejects settings the server must not start with. An empty HMAC
// key would let anyone mint tokens for any user.
func (c *Config) Validate() error {
	if c.Auth.JwtSecret == "" {
		return ErrMissingJwtSecret
	}
	return nil
}

// Load reads .env (if present), then an optional CONFIG_FILE, then the
// process environment. Later sources win.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			log.Printf("Warn: failed to read config file %s: %v", file, err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "3000")
	v.SetDefault("APP_BASE_URL", "http://localhost:3000")
	v.SetDefault("CLIENT_URL", "http://localhost:5173")
	v.SetDefault("GO_ENV", "development")
	v.SetDefault("LOG_FILE_PATH", "logs/app.log")
	v.SetDefault("ACTIVITY_LOG_FILE_PATH", "logs/activity.log")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("EVENT_BUS", "memory")
	v.SetDefault("NATS_URL", "nats://localhost:4222")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_CONNECTION_STRING", "")
	v.SetDefault("DB_LOG_LEVEL", "warn")
	v.SetDefault("DB_AUTO_MIGRATE", false)

	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_EMAIL", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_SENDER_NAME", "Career Counselor")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("GOOGLE_REDIRECT_URL", "http://localhost:3000/api/auth/oauth/google/callback")

	v.SetDefault("LLM_PROVIDER", "openai")
	v.SetDefault("LLM_MODEL", "gpt-4o-mini")
	v.SetDefault("LLM_BASE_URL", "")
	v.SetDefault("LLM_API_KEY", "")
	v.SetDefault("LLM_REQUEST_TIMEOUT", "60s")
	v.SetDefault("CHAT_HISTORY_LIMIT", 20)
	v.SetDefault("CHAT_SUMMARY_HISTORY_LIMIT", 50)
	v.SetDefault("CHAT_SUMMARY_CACHE_TTL", "30m")

	v.SetDefault("RATE_LIMIT_SEND_MESSAGES", 20)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")
}

func fromViper(v *viper.Viper) *Config {
	apiKey := v.GetString("LLM_API_KEY")
	if apiKey == "" {
		apiKey = v.GetString("OPENAI_API_KEY")
	}

	return &Config{
		App: AppConfig{
			Port:                v.GetString("APP_PORT"),
			BaseURL:             v.GetString("APP_BASE_URL"),
			ClientURL:           v.GetString("CLIENT_URL"),
			Environment:         v.GetString("GO_ENV"),
			LogFilePath:         v.GetString("LOG_FILE_PATH"),
			ActivityLogFilePath: v.GetString("ACTIVITY_LOG_FILE_PATH"),
			CorsAllowedOrigins:  v.GetString("CORS_ALLOWED_ORIGINS"),
			EventBus:            v.GetString("EVENT_BUS"),
			NatsURL:             v.GetString("NATS_URL"),
			RedisURL:            v.GetString("REDIS_URL"),
			OtelEnabled:         v.GetBool("OTEL_ENABLED"),
			OtelEndpoint:        v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		},
		Database: DatabaseConfig{
			Driver:      v.GetString("DB_DRIVER"),
			Connection:  v.GetString("DB_CONNECTION_STRING"),
			LogLevel:    v.GetString("DB_LOG_LEVEL"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		SMTP: SMTPConfig{
			Host:       v.GetString("SMTP_HOST"),
			Port:       v.GetInt("SMTP_PORT"),
			Email:      v.GetString("SMTP_EMAIL"),
			Password:   v.GetString("SMTP_PASSWORD"),
			SenderName: v.GetString("SMTP_SENDER_NAME"),
		},
		Auth: AuthConfig{
			JwtSecret:          v.GetString("JWT_SECRET"),
			TokenTTL:           v.GetDuration("JWT_TTL"),
			GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
			GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
			GoogleRedirectURL:  v.GetString("GOOGLE_REDIRECT_URL"),
		},
		Ai: AIConfig{
			LLMProvider:         v.GetString("LLM_PROVIDER"),
			LLMModel:            v.GetString("LLM_MODEL"),
			LLMBaseURL:          v.GetString("LLM_BASE_URL"),
			LLMAPIKey:           apiKey,
			RequestTimeout:      v.GetDuration("LLM_REQUEST_TIMEOUT"),
			HistoryLimit:        v.GetInt("CHAT_HISTORY_LIMIT"),
			SummaryHistoryLimit: v.GetInt("CHAT_SUMMARY_HISTORY_LIMIT"),
			SummaryCacheTTL:     v.GetDuration("CHAT_SUMMARY_CACHE_TTL"),
		},
		RateLimit: RateLimitConfig{
			SendMessages: v.GetInt("RATE_LIMIT_SEND_MESSAGES"),
			Window:       v.GetDuration("RATE_LIMIT_WINDOW"),
		},
	}
}
