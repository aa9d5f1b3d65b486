package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseFile  string // Optional: path to SQLite database file (default: ./energyd.db)
	PepperFile    string // Optional: path to file containing pepper for password hashing (default: ./pepper)
	SessionSecret string // Required: HMAC secret for session tokens
	BaseURL       string // Public origin used in password reset links (default: http://localhost:<port>)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)

	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
	TokenRetention       time.Duration // How long expired reset tokens stay for audit (default: 30 days)
	ResetTokenTTL        time.Duration // Reset token lifetime (default: 1h)

	PricePerKWh float64 // Electricity price used for the dashboard value estimate

	// SMTP delivery. Leaving MailHost empty switches to the log mailer.
	MailHost     string
	MailPort     int
	MailUsername string
	MailPassword string
	MailFrom     string
}

func LoadConfig() Config {
	cfg := Config{
		DatabaseFile:  getEnvOrDefault("DATABASE_FILE", "energyd.db"),
		PepperFile:    getEnvOrDefault("PEPPER_FILE", "pepper"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		BaseURL:       os.Getenv("BASE_URL"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),

		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
		TokenRetention:       getEnvDurationOrDefault("TOKEN_RETENTION", 30*24*time.Hour),
		ResetTokenTTL:        getEnvDurationOrDefault("RESET_TOKEN_TTL", 1*time.Hour),

		PricePerKWh: getEnvFloatOrDefault("PRICE_PER_KWH", 10.0),

		MailHost:     os.Getenv("MAIL_HOST"),
		MailPort:     getEnvIntOrDefault("MAIL_PORT", 587),
		MailUsername: os.Getenv("MAIL_USERNAME"),
		MailPassword: os.Getenv("MAIL_PASSWORD"),
		MailFrom:     getEnvOrDefault("MAIL_FROM", "noreply@localhost"),
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:" + strconv.Itoa(cfg.Port)
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
