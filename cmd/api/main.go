package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/iamasit07/wishplace/backend/internal/config"
	"github.com/iamasit07/wishplace/backend/internal/metrics"
	"github.com/iamasit07/wishplace/backend/internal/repository/postgres"
	"github.com/iamasit07/wishplace/backend/internal/repository/redis"
	"github.com/iamasit07/wishplace/backend/internal/service/cleanup"
	"github.com/iamasit07/wishplace/backend/internal/service/session"
	transportHttp "github.com/iamasit07/wishplace/backend/internal/transport/http"
	"github.com/iamasit07/wishplace/backend/internal/transport/http/middleware"
	"github.com/iamasit07/wishplace/backend/internal/transport/websocket"
	"github.com/iamasit07/wishplace/backend/internal/watchdog"
	"github.com/iamasit07/wishplace/backend/pkg/auth"
)

const (
	sessionCleanupInterval = 24 * time.Hour
	sessionRetentionDays   = 30
)

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsProduction() {
		return zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
}

func main() {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../.env"); err != nil {
			log.Info().Msg("no .env file found, using environment")
		}
	}

	cfg := config.LoadConfig()
	logger := newLogger(cfg)
	log.Logger = logger

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetimeMin)
	if err != nil {
		logger.Fatal().Err(err).Msg("database unreachable")
	}
	defer db.Close()

	if err := postgres.RunMigrations(ctx, db); err != nil {
		logger.Fatal().Err(err).Msg("migration failed")
	}
	logger.Info().Msg("database migrations applied")

	userRepo := postgres.NewUserRepo(db)
	sessionRepo := postgres.NewSessionRepo(db)
	templeRepo := postgres.NewTempleRepo(db)
	favoriteRepo := postgres.NewFavoriteRepo(db)
	todoRepo := postgres.NewTodoRepo(db)

	// Redis is optional; without it logout relies on the session row alone.
	var (
		cache       session.CacheRepository
		cachePinger transportHttp.CachePinger
	)
	if client := redis.Connect(ctx, cfg.RedisURL, cfg.RedisPassword, logger); client != nil {
		defer client.Close()
		rc := redis.NewRedisCache(client)
		cache, cachePinger = rc, rc
	}

	authService := session.NewAuthService(userRepo, sessionRepo, cache, session.Options{
		Issuer:     auth.NewIssuer(cfg.JWTSecret, cfg.SessionTokenTTL),
		TokenTTL:   cfg.SessionTokenTTL,
		EdgeMaxAge: cfg.EdgeSessionMaxAge,
		BcryptCost: cfg.BcryptCost,
		Logger:     logger,
	})

	go cleanup.NewWorker(sessionRepo, sessionCleanupInterval, sessionRetentionDays, logger).Run(ctx)

	m := metrics.New()

	guard := middleware.NewGuard(middleware.TokenVerifier{Validator: authService}, middleware.GuardConfig{
		Classifier: middleware.DefaultPathClassifier(),
		MaxAge:     cfg.EdgeSessionMaxAge,
		Logger:     logger,
		Decisions:  m.GuardDecisions,
	})

	limiter := middleware.NewRateLimiter(cfg.AuthRatePerMinute, cfg.AuthRateBurst)
	limiter.Rejected = m.RateLimited

	wsHandler := websocket.NewHandler(authService, watchdog.Config{
		MaxAge:   cfg.ClientSessionMaxAge,
		Interval: cfg.WatchdogInterval,
	}, cfg.AllowedOrigins, logger)
	wsHandler.Metrics = m

	deps := transportHttp.RouterDeps{
		Logger:         logger,
		Guard:          guard,
		AllowedOrigins: cfg.AllowedOrigins,
		AuthLimiter:    limiter,
		Auth:           transportHttp.NewAuthHandler(authService, cache, cfg.SessionTokenTTL, cfg.IsProduction()),
		Temples:        transportHttp.NewTempleHandler(templeRepo),
		Favorites:      transportHttp.NewFavoriteHandler(favoriteRepo),
		Todos:          transportHttp.NewTodoHandler(todoRepo),
		Health:         &transportHttp.HealthHandler{DB: db, Cache: cachePinger},
		Watchdog:       wsHandler,
	}
	if cfg.OAuthConfig.Enabled() {
		deps.OAuth = transportHttp.NewOAuthHandler(
			transportHttp.NewGoogleProvider(cfg.OAuthConfig.GoogleLoginConfig),
			authService, cfg.FrontendURL, cfg.SessionTokenTTL, cfg.IsProduction(), []byte(cfg.JWTSecret))
	} else {
		logger.Info().Msg("google login disabled, GOOGLE_CLIENT_ID not set")
	}
	if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
		deps.StaticDir = cfg.StaticDir
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           transportHttp.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var metricsSrv *http.Server
	if cfg.MetricsEnabled() {
		metricsSrv = &http.Server{Addr: cfg.MetricsAddr, Handler: m.Handler(), ReadHeaderTimeout: 10 * time.Second}
		go func() {
			logger.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listening")
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("metrics server error")
			}
		}()
	}

	go func() {
		logger.Info().Str("port", cfg.Port).
			Dur("edge_max_age", cfg.EdgeSessionMaxAge).
			Dur("client_max_age", cfg.ClientSessionMaxAge).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if metricsSrv != nil {
		metricsSrv.Shutdown(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return
	}
	logger.Info().Msg("server exited gracefully")
}
