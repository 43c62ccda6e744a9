package main

import (
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/auth-service/internal/config"
	"github.com/iliyamo/auth-service/internal/database"
	"github.com/iliyamo/auth-service/internal/handler"
	"github.com/iliyamo/auth-service/internal/keys"
	"github.com/iliyamo/auth-service/internal/logger"
	"github.com/iliyamo/auth-service/internal/metrics"
	"github.com/iliyamo/auth-service/internal/middleware"
	"github.com/iliyamo/auth-service/internal/repository"
	"github.com/iliyamo/auth-service/internal/router"
	"github.com/iliyamo/auth-service/internal/token"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.New("auth-service")

	// Signing key material loads once; failure here must prevent startup.
	keyProvider, err := keys.Load(cfg.PrivateKey, cfg.PrivateKeyFile)
	if err != nil {
		log.Fatal().Err(err).Msg("load signing key failed")
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	log.Info().Msg("database connected successfully")

	users := repository.NewUserRepo(db)
	tenants := repository.NewTenantRepo(db)
	tokens := repository.NewTokenRepo(db)
	tokenSvc := token.NewService(keyProvider, cfg.RefreshSecret, tokens)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// Redis may be absent; the limiter degrades to a pass-through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn().Msg("redis unavailable, rate limiting disabled")
	}
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	authHandler := handler.NewAuthHandler(cfg, users, tokenSvc, log, collector)
	userHandler := handler.NewUserHandler(cfg, users, tokens, log)
	tenantHandler := handler.NewTenantHandler(tenants, log)

	e := echo.New()
	e.HideBanner = true
	if cfg.DashboardURL != "" {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins:     []string{cfg.DashboardURL},
			AllowCredentials: true,
		}))
	}

	router.RegisterRoutes(e, keyProvider, cfg.JWKSPath)
	router.RegisterAuth(e, authHandler, tokenSvc, keyProvider, limiter)
	router.RegisterUsers(e, userHandler, keyProvider)
	router.RegisterTenants(e, tenantHandler, keyProvider)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
	if err := e.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
