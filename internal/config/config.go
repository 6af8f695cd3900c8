package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	Port    string

	// Security
	AccessCode string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver       string
	DBConnection   string
	DBMaxOpenConns int

	// Sessions
	SessionTTL           time.Duration
	SessionStore         string // "memory" or "badger"
	SessionBadgerPath    string
	SessionSweepInterval time.Duration

	// Images
	MaxUploadSize          int64
	JPEGQuality            int
	PNGRecompressThreshold int64
	ThumbnailSize          int
	ThumbnailStyle         string // "circle" or "square"

	// Observability (optional)
	SentryDSN string

	// Original upload archive (optional, S3-compatible: MinIO, AWS S3, Cloudflare R2, etc.)
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string

	ArchiveOriginals bool
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "Travel Map"),
		AppEnv:  envRequired("APP_ENV"), // Required: 'development' or 'production'
		Port:    envString("PORT", "8090"),

		// Security
		AccessCode: envRequired("ACCESS_CODE"),

		// Database
		DBDriver:       envString("DB_DRIVER", "sqlite"),
		DBConnection:   envString("DB_CONNECTION", "./data/travelmap.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),
		DBMaxOpenConns: envInt("DB_MAX_OPEN_CONNS", 10),

		// Sessions
		SessionTTL:           envDuration("SESSION_TTL", 24*time.Hour),
		SessionStore:         envString("SESSION_STORE", "memory"),
		SessionBadgerPath:    envString("SESSION_BADGER_PATH", "./data/sessions"),
		SessionSweepInterval: envDuration("SESSION_SWEEP_INTERVAL", 10*time.Minute),

		// Images
		MaxUploadSize:          int64(envInt("MAX_UPLOAD_SIZE", 10<<20)), // 10MB
		JPEGQuality:            envInt("JPEG_QUALITY", 80),
		PNGRecompressThreshold: int64(envInt("PNG_RECOMPRESS_THRESHOLD", 1<<20)),
		ThumbnailSize:          envInt("THUMBNAIL_SIZE", 200),
		ThumbnailStyle:         envString("THUMBNAIL_STYLE", "circle"),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Archive (all optional, archive disabled without a bucket)
		S3Region:    envString("S3_REGION", "us-east-1"),
		S3Bucket:    envString("S3_BUCKET", ""),
		S3AccessKey: envString("S3_ACCESS_KEY", ""),
		S3SecretKey: envString("S3_SECRET_KEY", ""),
		S3Endpoint:  envString("S3_ENDPOINT", ""),

		ArchiveOriginals: envBool("ARCHIVE_ORIGINALS", true),
	}

	validate(cfg)

	return cfg
}

// validate exits on settings that would make the image pipeline or the
// session store misbehave at runtime rather than at startup.
func validate(cfg *Config) {
	if cfg.JPEGQuality < 1 || cfg.JPEGQuality > 100 {
		slog.Error("JPEG_QUALITY must be between 1 and 100", "value", cfg.JPEGQuality)
		os.Exit(1)
	}
	if cfg.ThumbnailSize < 8 {
		slog.Error("THUMBNAIL_SIZE is too small", "value", cfg.ThumbnailSize)
		os.Exit(1)
	}
	if cfg.ThumbnailStyle != "circle" && cfg.ThumbnailStyle != "square" {
		slog.Error("THUMBNAIL_STYLE must be 'circle' or 'square'", "value", cfg.ThumbnailStyle)
		os.Exit(1)
	}
	if cfg.SessionStore != "memory" && cfg.SessionStore != "badger" {
		slog.Error("SESSION_STORE must be 'memory' or 'badger'", "value", cfg.SessionStore)
		os.Exit(1)
	}
	if cfg.MaxUploadSize <= 0 {
		slog.Error("MAX_UPLOAD_SIZE must be positive", "value", cfg.MaxUploadSize)
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
	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return i
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

// ArchiveEnabled reports whether original uploads are mirrored to S3.
func (c *Config) ArchiveEnabled() bool {
	return c.ArchiveOriginals && c.S3Bucket != ""
}

// Sanitized returns a copy of the config with only public/safe fields.
// Safe to expose in ctx and templates.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:       c.AppName,
		AppEnv:        c.AppEnv,
		Port:          c.Port,
		MaxUploadSize: c.MaxUploadSize,
	}
}
