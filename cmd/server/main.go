package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/yourname/eduflow/internal"
	api "github.com/yourname/eduflow/internal/api"
	"github.com/yourname/eduflow/internal/auth"
	"github.com/yourname/eduflow/internal/config"
	"github.com/yourname/eduflow/internal/mirror"
	"github.com/yourname/eduflow/internal/session"
	"github.com/yourname/eduflow/internal/storage"
	"github.com/yourname/eduflow/internal/tutor"
)

func main() {
	cfg := config.Load()

	logger, err := internal.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatalf("invalid TIME_ZONE %q: %v", cfg.TimeZone, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := storage.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("failed to init %s storage: %v", cfg.StorageBackend, err)
	}
	logger.Infof("storage backend: %s", cfg.StorageBackend)

	sessions := session.NewManager(backend, mirror.Options{
		Location:       loc,
		WriteTimeout:   cfg.WriteTimeout,
		StarterMonster: cfg.Economy.StarterMonster,
		StreakBonus:    cfg.Economy.StreakBonus,
		Seed:           mirror.SeedPolicy{Categories: cfg.Economy.DefaultCategories},
	}, logger)
	go sessions.Run(ctx, cfg.SessionIdleTimeout)

	provider, err := auth.NewProvider(cfg, logger)
	if err != nil {
		logger.Fatalf("failed to init auth: %v", err)
	}

	if cfg.OpenAIKey == "" {
		logger.Warn("OPENAI_API_KEY is not set; chat will answer with the fallback message")
	}
	app := api.NewApp(logger, sessions, tutor.NewOpenAI(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, logger), cfg.Economy)

	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(api.RequestIDMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	api.RegisterRoutes(r, app, provider)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}
	go func() {
		logger.Infof("Server running on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.WriteTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}
	sessions.Shutdown()
	if err := backend.Close(); err != nil {
		logger.Errorf("storage close: %v", err)
	}
}
