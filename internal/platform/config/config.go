// Package config builds process configuration from environment variables so
// main stays lean. Reminder thresholds and intervals are configuration, not
// hardcoded constants, to allow tuning per deployment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// VoicePolicy selects how the voice channel decides delivery. One policy per
// deployment; mixing policies per document is not supported.
type VoicePolicy string

const (
	// VoiceInteractive requires the recipient to press a key during the
	// call; only the confirmation webhook marks the reminder delivered.
	VoiceInteractive VoicePolicy = "interactive"
	// VoiceFireAndForget marks the reminder delivered as soon as a call is
	// successfully placed.
	VoiceFireAndForget VoicePolicy = "fireforget"
)

// Reminder holds the scheduling engine's tunables.
type Reminder struct {
	ChatThresholdDays  int
	SMSThresholdDays   int
	VoiceThresholdDays int

	// CallRetryInterval is the minimum gap between voice attempts for one
	// document (CALL_RETRY_INTERVAL, expressed in days).
	CallRetryInterval time.Duration

	TickInterval time.Duration
	// StartupDelay postpones the immediate boot tick slightly so transports
	// finish wiring first.
	StartupDelay time.Duration

	VoicePolicy VoicePolicy

	// TransportTimeout bounds every chat/SMS/voice transport call.
	TransportTimeout time.Duration
	// RenderTimeout bounds the text-rendering collaborator, which may block.
	RenderTimeout time.Duration

	CompanyName string
}

// Server captures HTTP server and callback configuration.
type Server struct {
	Addr string
	// CallbackBaseURL is the public base for voice confirmation callbacks.
	CallbackBaseURL string
	// CallbackSigningKey signs confirmation callback tokens.
	CallbackSigningKey string
	CallbackTokenTTL   time.Duration
}

// Transports holds the outbound collaborator endpoints. An empty URL selects
// the log-only implementation for that collaborator.
type Transports struct {
	RendererURL     string
	ChatWebhookURL  string
	SMSGatewayURL   string
	VoiceGatewayURL string
}

// Storage captures backing store configuration. Empty values select the
// in-memory implementations.
type Storage struct {
	PostgresDSN  string
	RedisURL     string
	KafkaBrokers []string
	KafkaTopic   string
}

// Config is the process configuration root.
type Config struct {
	Reminder   Reminder
	Server     Server
	Transports Transports
	Storage    Storage
}

// FromEnv reads DOCWATCH_* environment variables, falling back to defaults
// suited for a single-instance deployment.
func FromEnv() Config {
	return Config{
		Reminder: Reminder{
			ChatThresholdDays:  envInt("DOCWATCH_CHAT_THRESHOLD_DAYS", 30),
			SMSThresholdDays:   envInt("DOCWATCH_SMS_THRESHOLD_DAYS", 21),
			VoiceThresholdDays: envInt("DOCWATCH_VOICE_THRESHOLD_DAYS", 14),
			CallRetryInterval:  time.Duration(envInt("DOCWATCH_CALL_RETRY_DAYS", 3)) * 24 * time.Hour,
			TickInterval:       envDuration("DOCWATCH_TICK_INTERVAL", time.Hour),
			StartupDelay:       envDuration("DOCWATCH_STARTUP_DELAY", 5*time.Second),
			VoicePolicy:        voicePolicy(os.Getenv("DOCWATCH_VOICE_POLICY")),
			TransportTimeout:   envDuration("DOCWATCH_TRANSPORT_TIMEOUT", 30*time.Second),
			RenderTimeout:      envDuration("DOCWATCH_RENDER_TIMEOUT", 20*time.Second),
			CompanyName:        envString("DOCWATCH_COMPANY_NAME", "Document Monitoring Service"),
		},
		Server: Server{
			Addr:               envString("DOCWATCH_ADDR", ":8080"),
			CallbackBaseURL:    envString("DOCWATCH_CALLBACK_BASE_URL", "http://localhost:8080"),
			CallbackSigningKey: envString("DOCWATCH_CALLBACK_SIGNING_KEY", "dev-secret-key-change-in-production"),
			CallbackTokenTTL:   envDuration("DOCWATCH_CALLBACK_TOKEN_TTL", 48*time.Hour),
		},
		Transports: Transports{
			RendererURL:     os.Getenv("DOCWATCH_RENDERER_URL"),
			ChatWebhookURL:  os.Getenv("DOCWATCH_CHAT_WEBHOOK_URL"),
			SMSGatewayURL:   os.Getenv("DOCWATCH_SMS_GATEWAY_URL"),
			VoiceGatewayURL: os.Getenv("DOCWATCH_VOICE_GATEWAY_URL"),
		},
		Storage: Storage{
			PostgresDSN:  os.Getenv("DOCWATCH_POSTGRES_DSN"),
			RedisURL:     os.Getenv("DOCWATCH_REDIS_URL"),
			KafkaBrokers: splitList(os.Getenv("DOCWATCH_KAFKA_BROKERS")),
			KafkaTopic:   envString("DOCWATCH_KAFKA_TOPIC", "docwatch.delivery-events"),
		},
	}
}

func voicePolicy(raw string) VoicePolicy {
	if VoicePolicy(raw) == VoiceFireAndForget {
		return VoiceFireAndForget
	}
	return VoiceInteractive
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return value
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
