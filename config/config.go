package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL   string
	MigrationsURL string
	JWTSecretKey  string
	ServerPort    int
	PublicURL     string

	// Cloudflare R2 (team logos and avatars)
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	// SMTP (confirmation, reset and offer notification emails)
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Inbound webhook secrets
	PaymentWebhookSecret   string
	SignatureWebhookSecret string

	// E-signature provider
	ESignBaseURL    string
	ESignAPIKey     string
	ESignTemplateID string
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		MigrationsURL: getEnvOrDefault("MIGRATIONS_URL", "file://migrations"),
		JWTSecretKey:  os.Getenv("JWT_SECRET_KEY"),
		PublicURL:     getEnvOrDefault("PUBLIC_URL", "http://localhost:8080"),

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		SMTPFrom: os.Getenv("SMTP_FROM"),

		PaymentWebhookSecret:   os.Getenv("PAYMENT_WEBHOOK_SECRET"),
		SignatureWebhookSecret: os.Getenv("SIGNATURE_WEBHOOK_SECRET"),

		ESignBaseURL:    os.Getenv("ESIGN_BASE_URL"),
		ESignAPIKey:     os.Getenv("ESIGN_API_KEY"),
		ESignTemplateID: os.Getenv("ESIGN_TEMPLATE_ID"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}
	if cfg.PaymentWebhookSecret == "" {
		return nil, fmt.Errorf("PAYMENT_WEBHOOK_SECRET environment variable is not set")
	}
	if cfg.SignatureWebhookSecret == "" {
		return nil, fmt.Errorf("SIGNATURE_WEBHOOK_SECRET environment variable is not set")
	}

	port, err := parsePort(getEnvOrDefault("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	cfg.ServerPort = port

	smtpPort, err := strconv.Atoi(getEnvOrDefault("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT environment variable: %w", err)
	}
	cfg.SMTPPort = smtpPort

	return cfg, nil
}

func parsePort(raw string) (int, error) {
	port, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if port <= 0 || port > 65535 {
		return 0, fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return port, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
