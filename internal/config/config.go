package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config carries all runtime settings for the billbook service.
type Config struct {
	Environment    string
	ServiceName    string
	ServiceVersion string
	HTTPAddr       string

	// DBDriver selects the storage backend: "postgres" for the
	// server deployment, "sqlite" for the embedded/offline one.
	DBDriver string
	DBDSN    string

	LogLevel string

	CORSAllowOrigins []string

	TracingEnabled  bool
	TracingEndpoint string
	TracingProtocol string
	TracingSampling float64
	SeedDemoData    bool
}

// Module provides the configuration to the fx graph.
var Module = fx.Module("config",
	fx.Provide(Load),
)

// Load reads configuration from the environment, honoring a local
// .env file when present.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Environment:      envOr("BILLBOOK_ENV", "development"),
		ServiceName:      envOr("BILLBOOK_SERVICE_NAME", "billbook"),
		ServiceVersion:   envOr("BILLBOOK_SERVICE_VERSION", "dev"),
		HTTPAddr:         envOr("BILLBOOK_HTTP_ADDR", ":8080"),
		DBDriver:         strings.ToLower(envOr("BILLBOOK_DB_DRIVER", "sqlite")),
		DBDSN:            envOr("BILLBOOK_DB_DSN", "billbook.db"),
		LogLevel:         envOr("BILLBOOK_LOG_LEVEL", "info"),
		CORSAllowOrigins: splitList(envOr("BILLBOOK_CORS_ORIGINS", "http://localhost:3000")),
		TracingEnabled:   envBool("BILLBOOK_TRACING_ENABLED", false),
		TracingEndpoint:  envOr("BILLBOOK_TRACING_ENDPOINT", ""),
		TracingProtocol:  envOr("BILLBOOK_TRACING_PROTOCOL", "grpc"),
		TracingSampling:  envFloat("BILLBOOK_TRACING_SAMPLING", 0.1),
		SeedDemoData:     envBool("BILLBOOK_SEED_DEMO_DATA", false),
	}
	return cfg
}

// IsProduction reports whether the service runs in production mode.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
