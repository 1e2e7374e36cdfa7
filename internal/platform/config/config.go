package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Slot backends for the durable session slot.
const (
	SlotBackendMemory = "memory"
	SlotBackendFile   = "file"
	SlotBackendRedis  = "redis"
	SlotBackendSQLite = "sqlite"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"PORTAL_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"PORTAL_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"PORTAL_REQUEST_TIMEOUT" envDefault:"30s"`
	// ClientTokenKey signs the portal_client cookie. The default is for
	// local development only.
	ClientTokenKey string        `env:"PORTAL_CLIENT_TOKEN_KEY" envDefault:"dev-secret-key-change-in-production"`
	ClientTokenTTL time.Duration `env:"PORTAL_CLIENT_TOKEN_TTL" envDefault:"720h"`
	SecureCookies  bool          `env:"PORTAL_SECURE_COOKIES" envDefault:"false"`

	// TrustedProxies lists the CIDRs whose X-Forwarded-For and X-Real-IP
	// headers are believed. Empty trusts none.
	TrustedProxies []string `env:"PORTAL_TRUSTED_PROXIES" envSeparator:","`
}

// Session configures the session manager and its durable slot.
type Session struct {
	LoginLatency time.Duration `env:"PORTAL_LOGIN_LATENCY" envDefault:"1s"`
	SlotBackend  string        `env:"PORTAL_SLOT_BACKEND" envDefault:"memory"`
	SlotDir      string        `env:"PORTAL_SLOT_DIR" envDefault:"./data/slots"`
	SlotDB       string        `env:"PORTAL_SLOT_DB" envDefault:"./data/slots.db"`
	MaxClients   int           `env:"PORTAL_SESSION_MAX_CLIENTS" envDefault:"10000"`
	IdleTTL      time.Duration `env:"PORTAL_SESSION_IDLE_TTL" envDefault:"30m"`
}

// Verification configures the access verifier and artifact uploads.
type Verification struct {
	Latency          time.Duration `env:"PORTAL_VERIFY_LATENCY" envDefault:"2s"`
	MaxArtifactBytes int64         `env:"PORTAL_MAX_ARTIFACT_BYTES" envDefault:"5242880"`
}

// RedisConfig configures the optional Redis slot backend.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// Database selects the catalog source: Postgres when URL is set, a YAML
// document when CatalogFile is set, the built-in fixture otherwise.
type Database struct {
	URL         string `env:"DATABASE_URL"`
	CatalogFile string `env:"PORTAL_CATALOG_FILE"`
}

// Audit configures the optional Kafka audit sink.
type Audit struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"PORTAL_AUDIT_TOPIC" envDefault:"portal.audit"`
}

// RateLimit bounds credential and ID card submissions per client address.
// A zero limit disables that class.
type RateLimit struct {
	Disabled     bool          `env:"PORTAL_RATELIMIT_DISABLED" envDefault:"false"`
	LoginLimit   int           `env:"PORTAL_RATELIMIT_LOGIN" envDefault:"10"`
	LoginWindow  time.Duration `env:"PORTAL_RATELIMIT_LOGIN_WINDOW" envDefault:"1m"`
	VerifyLimit  int           `env:"PORTAL_RATELIMIT_VERIFY" envDefault:"20"`
	VerifyWindow time.Duration `env:"PORTAL_RATELIMIT_VERIFY_WINDOW" envDefault:"1m"`
}

// Telemetry configures OpenTelemetry tracing. Empty endpoint disables export.
type Telemetry struct {
	OTLPEndpoint string `env:"PORTAL_OTEL_ENDPOINT"`
	ServiceName  string `env:"PORTAL_SERVICE_NAME" envDefault:"college-portal"`
}

// Config is the full process configuration.
type Config struct {
	Server       Server
	Session      Session
	Verification Verification
	Redis        RedisConfig
	Database     Database
	Audit        Audit
	RateLimit    RateLimit
	Telemetry    Telemetry
	LogLevel     string `env:"PORTAL_LOG_LEVEL" envDefault:"info"`
}

// FromEnv builds the config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Session.SlotBackend {
	case SlotBackendMemory, SlotBackendFile, SlotBackendSQLite:
	case SlotBackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("slot backend %q requires REDIS_URL", SlotBackendRedis)
		}
	default:
		return fmt.Errorf("unknown slot backend %q", c.Session.SlotBackend)
	}
	if c.Database.URL != "" && c.Database.CatalogFile != "" {
		return fmt.Errorf("DATABASE_URL and PORTAL_CATALOG_FILE are mutually exclusive")
	}
	if c.Session.LoginLatency < 0 || c.Verification.Latency < 0 {
		return fmt.Errorf("simulated latencies must not be negative")
	}
	if c.Session.MaxClients <= 0 || c.Session.IdleTTL <= 0 {
		return fmt.Errorf("session client limit and idle TTL must be positive")
	}
	if c.RateLimit.LoginLimit < 0 || c.RateLimit.VerifyLimit < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}
	if c.Verification.MaxArtifactBytes <= 0 {
		return fmt.Errorf("PORTAL_MAX_ARTIFACT_BYTES must be positive")
	}
	return nil
}
