package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port        string
	Environment string

	// WhatsApp Cloud API
	WhatsApp WhatsAppConfig

	// OpenClaw Gateway
	OpenClaw OpenClawConfig

	// Message relay
	Relay RelayConfig

	// Message log
	Database DatabaseConfig

	// Security
	Security SecurityConfig
}

type WhatsAppConfig struct {
	VerifyToken string
	PhoneID     string
	AccessToken string
	BusinessID  string
	AppSecret   string
	APIVersion  string
}

type OpenClawConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

type RelayConfig struct {
	MessageTimeout   time.Duration
	MaxMessageLength int
	MaxRetries       int
	RetryDelay       time.Duration
	RateLimitPerMin  int
	EnableMedia      bool
}

type DatabaseConfig struct {
	URI  string
	Name string

	MaxConnections int
	MinConnections int
	MaxIdleTime    time.Duration
}

type SecurityConfig struct {
	AllowedOrigins []string
}

var cfg *Config

// Load initializes the configuration
func Load() error {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg = &Config{
		Port:        getEnv("PORT", "8003"),
		Environment: getEnv("ENVIRONMENT", "development"),

		WhatsApp: WhatsAppConfig{
			VerifyToken: getEnv("WHATSAPP_VERIFY_TOKEN", ""),
			PhoneID:     getEnv("WHATSAPP_PHONE_ID", ""),
			AccessToken: getEnv("WHATSAPP_ACCESS_TOKEN", ""),
			BusinessID:  getEnv("WHATSAPP_BUSINESS_ID", ""),
			AppSecret:   getEnv("WHATSAPP_APP_SECRET", ""),
			APIVersion:  getEnv("WHATSAPP_API_VERSION", "v18.0"),
		},

		OpenClaw: OpenClawConfig{
			URL:     strings.TrimRight(getEnv("OPENCLAW_URL", ""), "/"),
			APIKey:  getEnv("OPENCLAW_API_KEY", ""),
			Timeout: getEnvAsDuration("OPENCLAW_TIMEOUT", "60s"),
		},

		Relay: RelayConfig{
			MessageTimeout:   getEnvAsDuration("MESSAGE_TIMEOUT", "30s"),
			MaxMessageLength: getEnvAsInt("MAX_MESSAGE_LENGTH", 4096),
			MaxRetries:       getEnvAsInt("MAX_RETRIES", 3),
			RetryDelay:       getEnvAsDuration("RETRY_DELAY", "1s"),
			RateLimitPerMin:  getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),
			EnableMedia:      getEnvAsBool("ENABLE_MEDIA_HANDLING", true),
		},

		Database: DatabaseConfig{
			URI:  getEnv("DATABASE_URL", ""),
			Name: getEnv("DB_NAME", "whatsapp_bridge"),

			MaxConnections: getEnvAsInt("DB_MAX_CONNECTIONS", 100),
			MinConnections: getEnvAsInt("DB_MIN_CONNECTIONS", 10),
			MaxIdleTime:    getEnvAsDuration("DB_MAX_IDLE_TIME", "30m"),
		},

		Security: SecurityConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ORIGINS", []string{"*"}),
		},
	}

	if err := validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	return nil
}

// Get returns the loaded configuration
func Get() *Config {
	if cfg == nil {
		log.Fatal("Configuration not loaded. Call Load() first")
	}
	return cfg
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// Plain integers are treated as seconds, matching the old deployment
	// scripts that exported MESSAGE_TIMEOUT=30.
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func validate() error {
	if cfg.WhatsApp.VerifyToken == "" {
		return fmt.Errorf("WHATSAPP_VERIFY_TOKEN is required")
	}

	if cfg.WhatsApp.PhoneID == "" || cfg.WhatsApp.AccessToken == "" {
		return fmt.Errorf("WHATSAPP_PHONE_ID and WHATSAPP_ACCESS_TOKEN are required")
	}

	if cfg.OpenClaw.URL == "" {
		log.Println("WARNING: OPENCLAW_URL not set, inbound messages will not be forwarded")
	}

	if cfg.Relay.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must not be negative")
	}

	if cfg.Relay.RateLimitPerMin <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}

	return nil
}
