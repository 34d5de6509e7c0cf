package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Gemini LLM configuration
	GeminiAPIKey  string
	GeminiModelID string

	// Session store. An empty RedisAddr selects the in-memory store.
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	SessionTTL    time.Duration

	// Booking ledger database
	DatabaseURL string

	// Google Calendar configuration
	GoogleCalendarID            string
	GoogleServiceAccountKeyPath string

	// SendGrid email configuration
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	AdvisorEmail      string
	AdvisorName       string

	// Booking registry snapshot file
	BookingsFile string

	SideEffectTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModelID: getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		SessionTTL:    getEnvAsDuration("SESSION_TTL", 24*time.Hour),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		GoogleCalendarID:            getEnv("GOOGLE_CALENDAR_ID", ""),
		GoogleServiceAccountKeyPath: getEnv("GOOGLE_SERVICE_ACCOUNT_KEY_PATH", ""),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", "bookings@advisordesk.in"),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Advisor Desk"),
		AdvisorEmail:      getEnv("ADVISOR_EMAIL", ""),
		AdvisorName:       getEnv("ADVISOR_NAME", "Advisor"),

		BookingsFile: getEnv("BOOKINGS_FILE", "data/bookings.json"),

		SideEffectTimeout: getEnvAsDuration("SIDE_EFFECT_TIMEOUT", 10*time.Second),
		ShutdownTimeout:   getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
