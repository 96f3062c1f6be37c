package config

import (
	"log"
	"os"
	"strings"
	"time"
)

type Config struct {
	AppName    string
	Port       string
	APIBaseURL string
	DBDSN      string
	LogFile    string

	// SessionSecret seals backend tokens at rest.
	SessionSecret string

	APITimeout           time.Duration
	RefreshCheckInterval time.Duration
	RefreshLeeway        time.Duration
	AccessTokenTTL       time.Duration
}

// Postgres reports whether DBDSN points at a PostgreSQL server rather than a sqlite file.
func (c Config) Postgres() bool {
	return strings.HasPrefix(c.DBDSN, "postgres://") || strings.HasPrefix(c.DBDSN, "postgresql://")
}

func Load() Config {
	cfg := Config{
		AppName:    getEnv("APP_NAME", "Cloth Shop"),
		Port:       getEnv("PORT", "8080"),
		APIBaseURL: strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8000"), "/"),
		DBDSN:      getEnv("DB_DSN", "clothshop.db"), // sqlite file in working dir
		LogFile:    os.Getenv("LOG_FILE"),

		SessionSecret: getEnv("SESSION_SECRET", "dev-session-secret-change"),

		APITimeout:           getDuration("API_TIMEOUT", 0),
		RefreshCheckInterval: getDuration("REFRESH_CHECK_INTERVAL", time.Minute),
		RefreshLeeway:        getDuration("REFRESH_LEEWAY", 5*time.Minute),
		AccessTokenTTL:       getDuration("ACCESS_TOKEN_TTL", 30*time.Minute),
	}
	if cfg.SessionSecret == "dev-session-secret-change" {
		log.Println("[config] WARNING: using development SESSION_SECRET")
	}
	log.Printf("[config] PORT=%s API_BASE_URL=%s DB_POSTGRES=%t LOG_FILE=%s REFRESH_CHECK_INTERVAL=%s REFRESH_LEEWAY=%s",
		cfg.Port, cfg.APIBaseURL, cfg.Postgres(), cfg.LogFile, cfg.RefreshCheckInterval, cfg.RefreshLeeway)
	return cfg
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		log.Printf("[config] ignoring invalid %s=%q", key, raw)
		return def
	}
	return d
}
