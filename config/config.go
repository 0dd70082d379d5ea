// Package config loads the process configuration from environment variables.
//
// A .env file is read first when present, followed by .env.<APP_ENV> so a
// developer can keep per-environment overrides next to the shared defaults.
// Real environment variables always win over both files.
package config

import (
	"fmt"
	"net/netip"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Database drivers understood by the tenant registry.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config carries every setting, grouped by concern.
type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Security  SecurityConfig
	Email     EmailConfig
	Telemetry TelemetryConfig
}

// AppConfig identifies the deployment.
type AppConfig struct {
	Name        string
	Env         string // development, production, test
	FrontEndURL string // base URL used in email links, ends with "/"
	LogLevel    string
}

// IsProduction reports whether the process runs with production defaults.
func (c AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host        string
	Port        int
	CORSOrigins []string
}

// DatabaseConfig describes the shared cluster every tenant database lives on.
// The database name itself comes from the request; DefaultName is used
// when the request does not carry one.
type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         int
	User         string
	Password     string
	SSLMode      string
	DefaultName  string
	SQLiteDir    string
	PoolMax      int32
	PoolMin      int32
	PoolIdle     time.Duration
	QueryTimeout time.Duration
	MaxTenants   int // 0 means no cap
	AutoMigrate  bool
}

// JWTConfig holds access token settings.
type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

// SecurityConfig holds password and reset-token settings.
type SecurityConfig struct {
	BcryptCost      int
	HashConcurrency int
	ResetTokenTTL   time.Duration
	LoginAttempts   int
	LoginWindow     time.Duration

	// TrustedProxies are the peers whose X-Forwarded-For and X-Real-IP
	// headers are believed. Empty means the headers are ignored.
	TrustedProxies []netip.Prefix
}

// EmailConfig configures the outbound mail collaborator. An empty APIKey
// disables delivery and emails are only logged.
type EmailConfig struct {
	APIKey string
	From   string
}

// TelemetryConfig configures OpenTelemetry trace export.
type TelemetryConfig struct {
	OTLPEndpoint string
	Insecure     bool
}

// Load builds a Config from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	if env := os.Getenv("APP_ENV"); env != "" {
		_ = godotenv.Load(".env." + env)
	}

	var p parser

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "tenantgate"),
			Env:         getEnv("APP_ENV", "development"),
			FrontEndURL: withTrailingSlash(getEnv("FRONT_END_URL", "http://localhost:3000/")),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			Port:        p.int("SERVER_PORT", 8080),
			CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		},
		Database: DatabaseConfig{
			Driver:       strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         p.int("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			SSLMode:      getEnv("DB_SSLMODE", "require"),
			DefaultName:  getEnv("DB_NAME", ""),
			SQLiteDir:    getEnv("DB_SQLITE_DIR", "./data"),
			PoolMax:      int32(p.int("DB_POOL_MAX", 5)),
			PoolMin:      int32(p.int("DB_POOL_MIN", 0)),
			PoolIdle:     p.duration("DB_POOL_IDLE", 10*time.Second),
			QueryTimeout: p.duration("DB_QUERY_TIMEOUT", 5*time.Second),
			MaxTenants:   p.int("DB_MAX_TENANTS", 0),
			AutoMigrate:  p.bool("DB_AUTO_MIGRATE", false),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
			Expiry: p.duration("JWT_EXPIRY", time.Hour),
		},
		Security: SecurityConfig{
			BcryptCost:      p.int("BCRYPT_COST", 10),
			HashConcurrency: p.int("HASH_CONCURRENCY", runtime.GOMAXPROCS(0)),
			ResetTokenTTL:   p.duration("RESET_TOKEN_TTL", 30*time.Minute),
			LoginAttempts:   p.int("LOGIN_MAX_ATTEMPTS", 5),
			LoginWindow:     p.duration("LOGIN_WINDOW", 2*time.Minute),
			TrustedProxies:  p.prefixes("TRUSTED_PROXIES"),
		},
		Email: EmailConfig{
			APIKey: getEnv("RESEND_API_KEY", ""),
			From:   getEnv("RESEND_FROM", "noreply@example.com"),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure:     p.bool("OTEL_EXPORTER_OTLP_INSECURE", false),
		},
	}

	if p.err != nil {
		return nil, p.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Database.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be positive")
	}
	if c.Database.PoolMin < 0 || c.Database.PoolMin > c.Database.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be between 0 and DB_POOL_MAX")
	}
	if c.Security.BcryptCost < 4 || c.Security.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}
	if c.Security.HashConcurrency < 1 {
		c.Security.HashConcurrency = 1
	}
	return nil
}

// Addr returns the listen address, e.g. "0.0.0.0:8080".
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv reads key or returns fallback when it is unset.
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

// parser keeps the first conversion error so Load can report it once.
type parser struct {
	err error
}

func (p *parser) int(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
	}
	return v
}

func (p *parser) bool(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
	}
	return v
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
	}
	return v
}

// prefixes reads a comma separated list of CIDRs or bare addresses.
func (p *parser) prefixes(key string) []netip.Prefix {
	var out []netip.Prefix
	for _, raw := range splitList(os.Getenv(key)) {
		if !strings.Contains(raw, "/") {
			addr, err := netip.ParseAddr(raw)
			if err != nil {
				p.fail(key, err)
				continue
			}
			out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(raw)
		if err != nil {
			p.fail(key, err)
			continue
		}
		out = append(out, prefix.Masked())
	}
	return out
}

func (p *parser) fail(key string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func withTrailingSlash(s string) string {
	if s == "" || strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}
