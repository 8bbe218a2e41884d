package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	AvatarStoreDatabase = "database"
	AvatarStoreS3       = "s3"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	Port    string

	// Browser clients allowed to call the API
	CORSAllowedOrigins []string

	// TrustProxy honors X-Forwarded-For and X-Real-IP. Enable only behind a
	// reverse proxy that overwrites them; otherwise clients can pick their own IP.
	TrustProxy bool

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret       string
	JWTExpiry       time.Duration
	BcryptCost      int
	LoginRateLimit  int
	LoginRateWindow time.Duration

	// Email
	EmailFrom    string
	ResendAPIKey string
	EmailTimeout time.Duration
	EmailLogMode bool // log outgoing email instead of sending it

	// Avatars
	AvatarStore    string // "database" or "s3"
	AvatarSize     int
	AvatarMaxBytes int64

	// Observability (optional)
	SentryDSN string

	// Storage (S3-compatible: MinIO, AWS S3, Cloudflare R2, etc.), only read when AvatarStore is "s3"
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		AppName: envString("APP_NAME", "Task Manager"),
		AppEnv:  envRequired("APP_ENV"), // 'development', 'production' or 'test'
		Port:    envString("PORT", "8090"),

		CORSAllowedOrigins: envList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		TrustProxy:         envBool("TRUST_PROXY", false),

		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/taskmanager.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		JWTSecret:       envRequired("JWT_SECRET"),
		JWTExpiry:       envDuration("JWT_EXPIRY", 24*time.Hour),
		BcryptCost:      envInt("BCRYPT_COST", 8),
		LoginRateLimit:  envInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow: envDuration("LOGIN_RATE_WINDOW", 15*time.Minute),

		// RESEND_API_KEY optional in development, required in production
		EmailFrom:    envString("EMAIL_FROM", "noreply@example.com"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),
		EmailTimeout: envDuration("EMAIL_TIMEOUT", 10*time.Second),

		AvatarStore:    envString("AVATAR_STORE", AvatarStoreDatabase),
		AvatarSize:     envInt("AVATAR_SIZE", 250),
		AvatarMaxBytes: int64(envInt("AVATAR_MAX_BYTES", 1_000_000)),

		SentryDSN: envString("SENTRY_DSN", ""),
	}

	cfg.EmailLogMode = !cfg.IsProduction() && envBool("EMAIL_LOG_MODE", cfg.ResendAPIKey == "")

	if cfg.AvatarStore == AvatarStoreS3 {
		cfg.S3Region = envRequired("S3_REGION")
		cfg.S3Bucket = envRequired("S3_BUCKET")
		cfg.S3AccessKey = envRequired("S3_ACCESS_KEY")
		cfg.S3SecretKey = envRequired("S3_SECRET_KEY")
		cfg.S3Endpoint = envString("S3_ENDPOINT", "")
	}

	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures all required services are configured for production deployments.
// Development allows email to run in log mode.
func validateProduction(cfg *Config) {
	if cfg.ResendAPIKey == "" {
		slog.Error("production deployment requires RESEND_API_KEY",
			"hint", "set APP_ENV=development for local testing with email log mode")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

// envList reads a comma separated list, dropping empty items.
func envList(key string, def []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	var out []string
	for item := range strings.SplitSeq(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
