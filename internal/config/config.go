package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Token verification modes.
const (
	TokenModeSigned   = "signed"
	TokenModeUnsigned = "unsigned"
)

type Config struct {
	ServiceName    string
	DatabaseURL    string
	HTTPListenAddr string
	LogLevel       string
	CORSOrigins    []string

	TokenMode string
	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration

	DBMaxConns        int32
	MetricsEnabled    bool
	AuthRateLimit     float64
	DefaultSignupMode string

	S3Endpoint  string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Region    string
	S3PublicURL string
}

func Load() (*Config, error) {
	cfg := &Config{
		ServiceName:       getEnv("SERVICE_NAME", "unihub-api"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		HTTPListenAddr:    getEnv("HTTP_LISTEN_ADDR", ":"+getEnv("PORT", "4000")),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "*")),
		TokenMode:         strings.ToLower(getEnv("TOKEN_MODE", TokenModeSigned)),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		JWTIssuer:         getEnv("JWT_ISSUER", "unihub-api"),
		MetricsEnabled:    getEnv("METRICS_ENABLED", "true") == "true",
		DefaultSignupMode: getEnv("DEFAULT_SIGNUP_MODE", "open"),
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3Bucket:          getEnv("S3_BUCKET", "unihub-avatars"),
		S3AccessKey:       getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:       getEnv("S3_SECRET_KEY", ""),
		S3Region:          getEnv("S3_REGION", "us-east-1"),
		S3PublicURL:       getEnv("S3_PUBLIC_URL", ""),
	}

	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "168h"))
	if err != nil {
		return nil, fmt.Errorf("parse TOKEN_TTL: %w", err)
	}
	cfg.TokenTTL = ttl

	maxConns, err := strconv.ParseInt(getEnv("DB_MAX_CONNS", "10"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("parse DB_MAX_CONNS: %w", err)
	}
	cfg.DBMaxConns = int32(maxConns)

	rl, err := strconv.ParseFloat(getEnv("AUTH_RATE_LIMIT", "5"), 64)
	if err != nil {
		return nil, fmt.Errorf("parse AUTH_RATE_LIMIT: %w", err)
	}
	cfg.AuthRateLimit = rl

	return cfg, nil
}

// Validate checks that the configuration is complete enough to serve the API.
func (c *Config) Validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.HTTPListenAddr == "" {
		missing = append(missing, "HTTP_LISTEN_ADDR")
	}
	if c.TokenMode == TokenModeSigned && c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}

	switch c.TokenMode {
	case TokenModeSigned:
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 bytes")
		}
	case TokenModeUnsigned:
	default:
		return fmt.Errorf("TOKEN_MODE must be %q or %q, got %q", TokenModeSigned, TokenModeUnsigned, c.TokenMode)
	}

	switch c.DefaultSignupMode {
	case "open", "approval", "disabled":
	default:
		return fmt.Errorf("DEFAULT_SIGNUP_MODE must be open, approval or disabled, got %q", c.DefaultSignupMode)
	}

	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	return nil
}

// S3Enabled reports whether avatar object storage is configured.
func (c *Config) S3Enabled() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func splitList(v string) []string {
	var out []string
	for _, o := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
