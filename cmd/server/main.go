package main

import (
	"context"
	"log/slog"
	mrand "math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"lucky-spin/internal/auth"
	"lucky-spin/internal/cache"
	"lucky-spin/internal/config"
	"lucky-spin/internal/database"
	"lucky-spin/internal/handlers"
	"lucky-spin/internal/payment"
	"lucky-spin/internal/scheduler"
	adminsvc "lucky-spin/internal/services/admin"
	"lucky-spin/internal/services/game"
	"lucky-spin/internal/session"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	jwtMgr := auth.NewManager(cfg.JWTSecret, cfg.JWTIssuer)
	segmentCache := cache.NewSegmentCache(cfg.PrizeCacheTTL, store.LoadPrizeConfig)
	payments := payment.NewClient(cfg.PesapalPageURL)
	envSvc := adminsvc.NewEnvService(cfg.EnvFilePath)
	sessions := session.NewManager(store, cfg.Bounds(), logger)
	rng := mrand.New(mrand.NewSource(time.Now().UnixNano()))
	gameSvc := game.NewService(store, segmentCache, payments, cfg, logger, rng)

	if saved, err := store.LoadUser(ctx); err != nil {
		logger.Warn("saved user lookup failed", "error", err)
	} else if saved != nil {
		logger.Info("saved user record present", "phone", saved.Phone)
	}

	sweeper := scheduler.NewDepositSweeper(payments, cfg.DepositTTL, cfg.SweepTick, logger)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	handler := handlers.NewHandler(cfg, store, gameSvc, sessions, envSvc, jwtMgr, segmentCache, logger)
	handlers.RegisterRoutes(r, handler, jwtMgr, cfg.AdminAllowedIPs)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: r,
	}

	go func() {
		logger.Info("server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("server stopped")
}
