package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	defaultJWTSecret    = "dev-secret-change-in-production"
	defaultNovelAPIBase = "https://api.xcvts.cn/api/xiaoshuo/axdzs"
)

type Config struct {
	Port        string
	Env         string
	Store       string
	DatabaseDSN string

	JWTSecret      string
	JWTExpiry      time.Duration
	RequireSession bool

	NovelAPIBaseURL string
	NovelAPIKey     string
	NovelAPITimeout time.Duration
	NovelAPIRPS     float64
	NovelAPIBurst   int
	SearchFallback  bool

	RedisAddr      string
	SearchCacheTTL time.Duration
}

// IsProduction reports whether ENV is "production".
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var errs []error

	cfg := Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		Store:           getEnv("STORE", "memory"),
		DatabaseDSN:     getEnv("DATABASE_DSN", ""),
		JWTSecret:       getEnv("JWT_SECRET", defaultJWTSecret),
		JWTExpiry:       getDuration("JWT_EXPIRY", 24*time.Hour, &errs),
		RequireSession:  getBool("REQUIRE_SESSION", false, &errs),
		NovelAPIBaseURL: getEnv("NOVEL_API_BASE_URL", defaultNovelAPIBase),
		NovelAPIKey:     getEnv("NOVEL_API_KEY", ""),
		NovelAPITimeout: getDuration("NOVEL_API_TIMEOUT", 8*time.Second, &errs),
		NovelAPIRPS:     getFloat("NOVEL_API_RPS", 5, &errs),
		NovelAPIBurst:   getInt("NOVEL_API_BURST", 10, &errs),
		SearchFallback:  getBool("SEARCH_FALLBACK", true, &errs),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		SearchCacheTTL:  getDuration("SEARCH_CACHE_TTL", 10*time.Minute, &errs),
	}

	switch cfg.Store {
	case "memory":
	case "mysql", "sqlite", "postgres":
		if cfg.DatabaseDSN == "" {
			errs = append(errs, fmt.Errorf("DATABASE_DSN is required for STORE=%s", cfg.Store))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE must be one of memory, mysql, sqlite, postgres; got %q", cfg.Store))
	}

	if cfg.JWTExpiry <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRY must be positive"))
	}

	if cfg.IsProduction() {
		if cfg.JWTSecret == defaultJWTSecret {
			errs = append(errs, errors.New("JWT_SECRET must be set in production environment"))
		}
		if cfg.NovelAPIKey == "" {
			errs = append(errs, errors.New("NOVEL_API_KEY must be set in production environment"))
		}
	}

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return fallback
	}
	return d
}

func getBool(key string, fallback bool, errs *[]error) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid boolean %q", key, v))
		return fallback
	}
	return b
}

func getFloat(key string, fallback float64, errs *[]error) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid number %q", key, v))
		return fallback
	}
	return f
}

func getInt(key string, fallback int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return fallback
	}
	return n
}
