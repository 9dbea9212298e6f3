package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ahinestrog/mybookstore-web/Frontend/internal/money"
)

type Config struct {
	HTTPAddr       string
	SellerHTTPAddr string
	HealthGRPCAddr string

	APIBaseURL string
	APITimeout time.Duration
	APIRetry   int
	CacheTTL   time.Duration
	CacheSize  int

	SessionDriver string
	SessionDBPath string
	SessionSecret string
	SessionMaxAge int
	SessionSecure bool

	RabbitURL      string
	RabbitExchange string

	BaseCurrency string
	CORSOrigins  []string

	LogLevel  string
	LogFormat string
}

// Load reads an optional .env file (values already present in the
// environment win) and builds the configuration shared by both frontends.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{
		HTTPAddr:       getenv("HTTP_ADDR", ":8080"),
		SellerHTTPAddr: getenv("SELLER_HTTP_ADDR", ":8090"),
		HealthGRPCAddr: getenv("HEALTH_GRPC_ADDR", ""),
		APIBaseURL:     strings.TrimRight(getenv("API_BASE_URL", "http://localhost:5000/api"), "/"),
		SessionDriver:  getenv("SESSION_DB_DRIVER", "sqlite"),
		SessionDBPath:  getenv("SESSION_DB_PATH", "./data/sessions.db"),
		SessionSecret:  getenv("SESSION_SECRET", ""),
		RabbitURL:      getenv("RABBITMQ_URL", ""),
		RabbitExchange: getenv("RABBIT_EXCHANGE", "domain_events"),
		BaseCurrency:   strings.ToUpper(getenv("BASE_CURRENCY", "USD")),
		CORSOrigins:    splitList(getenv("CORS_ORIGINS", "")),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogFormat:      getenv("LOG_FORMAT", "auto"),
	}

	var err error
	if cfg.APITimeout, err = durationEnv("API_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = durationEnv("CACHE_TTL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.APIRetry, err = intEnv("API_RETRY_MAX", 2); err != nil {
		return nil, err
	}
	if cfg.CacheSize, err = intEnv("CACHE_SIZE", 256); err != nil {
		return nil, err
	}
	if cfg.SessionMaxAge, err = intEnv("SESSION_MAX_AGE", 7*24*3600); err != nil {
		return nil, err
	}
	cfg.SessionSecure = getenv("SESSION_SECURE", "false") == "true"

	switch cfg.SessionDriver {
	case "sqlite", "sqlite3":
	default:
		return nil, fmt.Errorf("SESSION_DB_DRIVER: unsupported driver %q", cfg.SessionDriver)
	}
	if !money.Valid(cfg.BaseCurrency) {
		return nil, fmt.Errorf("BASE_CURRENCY: unsupported currency %q", cfg.BaseCurrency)
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("SESSION_SECRET is required")
	}
	if len(cfg.SessionSecret) < 32 {
		return nil, errors.New("SESSION_SECRET must be at least 32 bytes")
	}
	return cfg, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func durationEnv(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return d, nil
}

func intEnv(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
