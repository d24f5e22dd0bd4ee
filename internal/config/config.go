package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	PhoneFormatBelarus       = "by"
	PhoneFormatInternational = "international"
)

type Config struct {
	// HTTP
	HTTPAddr          string        `env:"HTTP_ADDR" envDefault:":8000"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	MaxUploadBytes    int64         `env:"MAX_UPLOAD_BYTES" envDefault:"33554432"`
	StaticDir         string        `env:"STATIC_DIR" envDefault:"frontend/src/static"`
	AdminStaticDir    string        `env:"ADMIN_STATIC_DIR" envDefault:"frontend/admin-panel/static"`
	TemplatesDir      string        `env:"TEMPLATES_DIR" envDefault:"frontend/src/templates"`
	AdminTemplatesDir string        `env:"ADMIN_TEMPLATES_DIR" envDefault:"frontend/admin-panel/templates"`

	// Database
	DatabaseURL   string `env:"DATABASE_URL"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Admin
	AdminUsername     string `env:"ADMIN_USERNAME"`
	AdminPassword     string `env:"ADMIN_PASSWORD"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`

	// Mail
	AdminLogin        string `env:"ADMIN_LOGIN"`
	AdminMailPassword string `env:"ADMIN_MAIL_PASSWORD"`
	SMTPHost          string `env:"SMTP_HOST" envDefault:"smtp.mail.ru"`
	SMTPPort          int    `env:"SMTP_PORT" envDefault:"465"`

	// Object storage
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3Bucket    string `env:"S3_BUCKET"`
	S3UseSSL    bool   `env:"S3_USE_SSL" envDefault:"true"`
	S3PublicURL string `env:"S3_PUBLIC_URL"`

	// Weather API
	WeatherAPIKey     string        `env:"WEATHER_API_KEY"`
	WeatherAPIBaseURL string        `env:"WEATHER_API_BASE_URL" envDefault:"http://api.weatherapi.com/v1"`
	WeatherAPITimeout time.Duration `env:"WEATHER_API_TIMEOUT" envDefault:"10s"`

	// Telegram admin alerts
	TelegramToken       string `env:"TELEGRAM_TOKEN"`
	TelegramAdminChatID int64  `env:"TELEGRAM_ADMIN_CHAT_ID"`

	// Notifications
	NotifyWorkers   int `env:"NOTIFY_WORKERS" envDefault:"2"`
	NotifyQueueSize int `env:"NOTIFY_QUEUE_SIZE" envDefault:"100"`

	// Validation and limits
	PhoneFormat    string `env:"PHONE_FORMAT" envDefault:"by"`
	ApplyRateLimit int    `env:"APPLY_RATE_LIMIT" envDefault:"5"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.AdminUsername == "" {
		return fmt.Errorf("ADMIN_USERNAME is required")
	}

	if c.AdminPassword == "" && c.AdminPasswordHash == "" {
		return fmt.Errorf("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH is required")
	}

	if c.PhoneFormat != PhoneFormatBelarus && c.PhoneFormat != PhoneFormatInternational {
		return fmt.Errorf("invalid PHONE_FORMAT: %s", c.PhoneFormat)
	}

	if c.NotifyWorkers < 1 || c.NotifyWorkers > 32 {
		return fmt.Errorf("notify workers must be between 1 and 32")
	}

	if c.NotifyQueueSize < 1 {
		return fmt.Errorf("notify queue size must be positive")
	}

	if c.ApplyRateLimit < 0 {
		return fmt.Errorf("apply rate limit must not be negative")
	}

	if c.TelegramToken != "" && c.TelegramAdminChatID == 0 {
		return fmt.Errorf("TELEGRAM_ADMIN_CHAT_ID is required when TELEGRAM_TOKEN is set")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	return nil
}

func (c *Config) S3Enabled() bool {
	return c.S3Endpoint != "" && c.S3Bucket != ""
}

func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != ""
}
