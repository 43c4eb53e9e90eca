package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iamasit07/wishplace/backend/pkg/auth"
)

type Config struct {
	Port                 string
	Environment          string
	LogLevel             string
	AllowedOrigins       []string
	OAuthConfig          OAuthConfig
	DatabaseURL          string
	DBMaxOpenConns       int
	DBMaxIdleConns       int
	DBConnMaxLifetimeMin int
	RedisURL             string
	RedisPassword        string
	FrontendURL          string
	JWTSecret            string
	BcryptCost           int
	SessionTokenTTL      time.Duration
	EdgeSessionMaxAge    time.Duration
	ClientSessionMaxAge  time.Duration
	WatchdogInterval     time.Duration
	StaticDir            string
	AuthRatePerMinute    int
	AuthRateBurst        int
	// MetricsAddr is the Prometheus listener; "off" disables it.
	MetricsAddr string
}

func (c *Config) MetricsEnabled() bool {
	return c.MetricsAddr != "off"
}

// IsProduction switches cookies to their __Secure- names.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func LoadConfig() *Config {
	frontendURL := GetEnv("FRONTEND_URL", "http://localhost:3000")

	// Frontend URL + localhost + CSV extras
	allowedOrigins := []string{frontendURL, "http://localhost:3000"}
	for _, origin := range strings.Split(GetEnv("ALLOWED_ORIGINS", ""), ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			allowedOrigins = append(allowedOrigins, trimmed)
		}
	}

	dbURL := GetEnv("DATABASE_URL", GetEnv("DATABASE_URI", ""))
	if dbURL != "" {
		if u, err := url.Parse(dbURL); err == nil && u.Scheme != "" {
			q := u.Query()
			if q.Get("sslmode") == "" {
				q.Set("sslmode", "disable")
				u.RawQuery = q.Encode()
				dbURL = u.String()
			}
		}
	}

	return &Config{
		Port:                 GetEnv("PORT", "8080"),
		Environment:          GetEnv("ENVIRONMENT", "development"),
		LogLevel:             GetEnv("LOG_LEVEL", "info"),
		AllowedOrigins:       allowedOrigins,
		OAuthConfig:          *LoadOAuthConfig(),
		DatabaseURL:          dbURL,
		DBMaxOpenConns:       GetEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:       GetEnvAsInt("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifetimeMin: GetEnvAsInt("DB_CONN_MAX_LIFETIME_MINUTES", 5),
		RedisURL:             GetEnv("REDIS_URL", "localhost:6379"),
		RedisPassword:        GetEnv("REDIS_PASSWORD", ""),
		FrontendURL:          frontendURL,
		JWTSecret:            GetEnv("JWT_SECRET", GetEnv("NEXTAUTH_SECRET", "")),
		BcryptCost:           GetEnvAsInt("BCRYPT_COST", 12),
		SessionTokenTTL:      time.Duration(GetEnvAsInt("SESSION_TOKEN_TTL_HOURS", 30*24)) * time.Hour,
		EdgeSessionMaxAge:    GetEnvAsDuration("EDGE_SESSION_MAX_AGE", auth.DefaultEdgeMaxAge),
		ClientSessionMaxAge:  GetEnvAsDuration("CLIENT_SESSION_MAX_AGE", auth.DefaultClientMaxAge),
		WatchdogInterval:     GetEnvAsDuration("WATCHDOG_INTERVAL", auth.DefaultWatchInterval),
		StaticDir:            GetEnv("STATIC_DIR", "./static"),
		AuthRatePerMinute:    GetEnvAsInt("AUTH_RATE_PER_MINUTE", 10),
		AuthRateBurst:        GetEnvAsInt("AUTH_RATE_BURST", 5),
		MetricsAddr:          GetEnv("METRICS_ADDR", ":9090"),
	}
}

// Validate rejects configurations the session checks cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET (or NEXTAUTH_SECRET) is required"))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.EdgeSessionMaxAge <= 0 || c.ClientSessionMaxAge <= 0 {
		errs = append(errs, errors.New("session max ages must be positive"))
	}
	// The guard is the tighter bound; the watchdog only backs it up.
	if c.ClientSessionMaxAge < c.EdgeSessionMaxAge {
		errs = append(errs, fmt.Errorf("CLIENT_SESSION_MAX_AGE (%s) must not be below EDGE_SESSION_MAX_AGE (%s)",
			c.ClientSessionMaxAge, c.EdgeSessionMaxAge))
	}
	if c.WatchdogInterval <= 0 {
		errs = append(errs, errors.New("WATCHDOG_INTERVAL must be positive"))
	}
	if c.AuthRatePerMinute <= 0 {
		errs = append(errs, errors.New("AUTH_RATE_PER_MINUTE must be positive"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, errors.New("BCRYPT_COST must be between 4 and 31"))
	}
	return errors.Join(errs...)
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Int("default", defaultValue).Msg("invalid integer, using default")
		return defaultValue
	}
	return value
}

// GetEnvAsDuration accepts Go durations ("6h", "90s").
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Dur("default", defaultValue).Msg("invalid duration, using default")
		return defaultValue
	}
	return value
}
