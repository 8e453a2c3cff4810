package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string
	LogMode  string

	DBDriver string
	DBDSN    string
	SiteID   string // stamped on event log rows

	AssetBasePath string

	// Optional bootstrap admin; created or updated at startup.
	AdminUsername string
	AdminPassword string

	// Fallback spool for reports that could not be saved: fs|redis
	SpoolDriver   string
	SpoolBasePath string
	RedisURL      string
	DrainInterval time.Duration

	// Optional broker for submission events; empty disables publishing.
	AMQPURL      string
	AMQPExchange string

	EnableLocalAuth bool
	EnableGuestAuth bool
	AuthSecret      string

	CORSOriginsOnline  []string
	CORSOriginsOffline []string

	// Session tuning
	GracePeriod     time.Duration // Idle -> Arming
	SuppressWindow  time.Duration // programmatic fullscreen exit
	FinalizeTimeout time.Duration
	RetainAfterDone time.Duration
	ReapInterval    time.Duration
}

// FromEnv reads .env (if present) and the process environment.
func FromEnv() Config {
	_ = godotenv.Load()

	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	logMode := "development"
	if mode == ModeOnline {
		logMode = "production"
	}
	return Config{
		Mode:     mode,
		HTTPAddr: envOr("HTTP_ADDR", ":8080"),
		LogMode:  envOr("LOG_MODE", logMode),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),
		SiteID:   envOr("SITE_ID", "local"),

		AssetBasePath: envOr("ASSET_BASE_PATH", "./data/assets"),

		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		SpoolDriver:   envOr("SPOOL_DRIVER", "fs"),
		SpoolBasePath: envOr("SPOOL_BASE_PATH", "./data/spool"),
		RedisURL:      envOr("REDIS_URL", "redis://localhost:6379/0"),
		DrainInterval: envDuration("SPOOL_DRAIN_INTERVAL", 30*time.Second),

		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPExchange: envOr("AMQP_EXCHANGE", "quiz.events"),

		EnableLocalAuth: envBool("ENABLE_LOCAL_AUTH", true),
		EnableGuestAuth: envBool("ENABLE_GUEST_AUTH", true),
		AuthSecret:      envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),

		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://quiz.mindengage.ai"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:5173"),

		GracePeriod:     envDuration("SESSION_GRACE_PERIOD", time.Second),
		SuppressWindow:  envDuration("FULLSCREEN_SUPPRESS_WINDOW", 100*time.Millisecond),
		FinalizeTimeout: envDuration("FINALIZE_TIMEOUT", 15*time.Second),
		RetainAfterDone: envDuration("SESSION_RETAIN_AFTER_DONE", 10*time.Minute),
		ReapInterval:    envDuration("SESSION_REAP_INTERVAL", time.Minute),
	}
}

// CORSOrigins picks the origin list for the current mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

// envDuration accepts Go durations ("250ms") or bare milliseconds ("250").
func envDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return def
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
