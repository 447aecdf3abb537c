package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration. All values come from the
// environment at process start; nothing is embedded in the binary.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL string

	// Vapi voice-agent webhook. The secret, when set, must match the
	// X-Vapi-Secret header on inbound webhook calls.
	VapiServerSecret string

	// GatewayAPI SMS gateway.
	GatewayAPIToken   string
	GatewayAPIBaseURL string
	SMSSenderName     string
	SMSTimeout        time.Duration

	// Actor tag stamped into modified_by on reschedules.
	RescheduleActor string

	// Notification worker.
	NotifyQueueSize   int
	NotifySendTimeout time.Duration

	AdminJWTSecret     string
	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		VapiServerSecret: getEnv("VAPI_SERVER_SECRET", ""),

		GatewayAPIToken:   getEnv("GATEWAY_API_TOKEN", ""),
		GatewayAPIBaseURL: getEnv("GATEWAY_API_BASE_URL", "https://gatewayapi.com"),
		SMSSenderName:     getEnv("SMS_SENDER_NAME", "AI-Contatori"),
		SMSTimeout:        getEnvAsDuration("SMS_TIMEOUT", 10*time.Second),

		RescheduleActor: getEnv("RESCHEDULE_ACTOR", "voice-agent"),

		NotifyQueueSize:   getEnvAsInt("NOTIFY_QUEUE_SIZE", 128),
		NotifySendTimeout: getEnvAsDuration("NOTIFY_SEND_TIMEOUT", 15*time.Second),

		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
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

func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
