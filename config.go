package portal

import (
	"os"
	"strconv"
	"time"
)

// Config holds the runtime options for the portal.
type Config struct {
	Addr       string
	DSN        string
	SessionTTL time.Duration
	Debug      bool
}

// LoadConfig reads configuration from the environment, falling back to
// defaults suitable for local development.
func LoadConfig() Config {
	return Config{
		Addr:       readString("PORTAL_ADDR", ":8080"),
		DSN:        readString("PORTAL_DSN", "file:portal.db?cache=shared"),
		SessionTTL: readDuration("PORTAL_SESSION_TTL", 24*time.Hour),
		Debug:      readBool("PORTAL_DEBUG", false),
	}
}

func (c Config) GetAddr() string {
	return c.Addr
}

func (c Config) GetDSN() string {
	return c.DSN
}

// GetSessionTTL is the idle expiry for server-side sessions.
func (c Config) GetSessionTTL() time.Duration {
	if c.SessionTTL <= 0 {
		return 24 * time.Hour
	}
	return c.SessionTTL
}

func (c Config) GetDebug() bool {
	return c.Debug
}

func readString(key, fallback string) string {
	if raw := os.Getenv(key); raw != "" {
		return raw
	}
	return fallback
}

func readDuration(key string, fallback time.Duration) time.Duration {
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

func readBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}
