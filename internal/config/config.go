package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	PublicBaseURL string

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Pricing
	PlatformFeeCents int64
	Currency         string

	// Insurance eligibility
	DefaultCopayCents  int64
	EligibilityLatency time.Duration
	EligibilityTimeout time.Duration

	// Slot holds expire after this TTL unless payment completes.
	SlotHoldTTL time.Duration

	// Ended and cancelled bookings are evicted from memory after this
	// long. The archive keeps the durable record.
	TerminalRetention time.Duration

	// Availability rule
	MaintenanceDays []int

	// Payments
	AllowFakePayments bool
	PaymentLatency    time.Duration

	CORSAllowedOrigins []string

	// Session timer cadence. Lower values only make sense in tests.
	SessionTickInterval time.Duration

	// Per-IP cap on booking creation. Zero disables the limiter.
	BookingRateLimit float64
	BookingRateBurst int

	// SendGrid confirmation email
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		PlatformFeeCents: getEnvAsInt64("PLATFORM_FEE_CENTS", 200),
		Currency:         getEnv("CURRENCY", "USD"),

		DefaultCopayCents:  getEnvAsInt64("DEFAULT_COPAY_CENTS", 2500),
		EligibilityLatency: getEnvAsDuration("ELIGIBILITY_LATENCY", 1500*time.Millisecond),
		EligibilityTimeout: getEnvAsDuration("ELIGIBILITY_TIMEOUT", 5*time.Second),

		SlotHoldTTL: getEnvAsDuration("SLOT_HOLD_TTL", 15*time.Minute),

		TerminalRetention: getEnvAsDuration("TERMINAL_RETENTION", 24*time.Hour),

		MaintenanceDays: getEnvAsIntList("MAINTENANCE_DAYS", []int{15, 28}),

		AllowFakePayments: getEnvAsBool("ALLOW_FAKE_PAYMENTS", true),
		PaymentLatency:    getEnvAsDuration("PAYMENT_LATENCY", 500*time.Millisecond),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),

		SessionTickInterval: getEnvAsDuration("SESSION_TICK_INTERVAL", time.Second),

		BookingRateLimit: getEnvAsFloat("BOOKING_RATE_LIMIT", 0),
		BookingRateBurst: getEnvAsInt("BOOKING_RATE_BURST", 10),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Telecare"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt64 retrieves an environment variable as an int64 or returns a default value
func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
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

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvAsIntList(key string, defaultValue []int) []int {
	parts := getEnvAsList(key, nil)
	if parts == nil {
		return defaultValue
	}
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return defaultValue
		}
		out = append(out, v)
	}
	return out
}

// getEnvAsInt retrieves an environment variable as an int or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsFloat retrieves an environment variable as a float64 or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}
