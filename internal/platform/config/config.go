// Package config loads service configuration from the environment so main
// stays lean. A local .env file is honored in development.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Server captures process level configuration.
type Server struct {
	Addr        string
	Environment string
	DatabaseURL string

	// Tracing export settings. Endpoint is environment-provided, never
	// hardcoded; an empty endpoint disables export entirely.
	OTLPEndpoint string
	OTLPHeaders  string
	ServiceName  string

	// VIPMemberID routes submissions through a deliberate fixed-latency
	// stage before persistence. Kept as an opt-in demo fixture.
	VIPMemberID string
	VIPDelay    time.Duration

	// SimulatedTimeout is the delay used by the test error entry point.
	SimulatedTimeout time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	_ = godotenv.Load()

	cfg := Server{
		Addr:             envOr("PRIOR_AUTH_ADDR", ":8080"),
		Environment:      envOr("ENV", "development"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		OTLPEndpoint:     os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTLPHeaders:      os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"),
		ServiceName:      envOr("OTEL_SERVICE_NAME", "prior-auth-api"),
		VIPMemberID:      envOr("VIP_MEMBER_ID", "M99999"),
		VIPDelay:         durationOr("VIP_DELAY", 2*time.Second),
		SimulatedTimeout: durationOr("SIMULATED_TIMEOUT", 5*time.Second),
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
