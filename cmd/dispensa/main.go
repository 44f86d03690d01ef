package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"dispensa/internal/api"
	"dispensa/internal/config"
	"dispensa/internal/database"
	"dispensa/internal/logger"
	"dispensa/internal/metrics"
	"dispensa/internal/pantry"
	"dispensa/internal/planner"
	"dispensa/internal/recipe"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		zlog.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	pantryRepo := pantry.NewRepository(db)
	recipeRepo := recipe.NewRepository(db)
	planRepo := planner.NewRepository(db)
	metricsStore := metrics.NewStore(db)
	reconciler := planner.NewReconciler(db, planRepo, pantryRepo, recipeRepo, metricsStore, zlog)

	handler := api.NewHandler(pantryRepo, recipeRepo, planRepo, reconciler, recipe.NewImporter(), metricsStore, zlog)
	router := api.NewRouter(handler, cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		zlog.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("db", cfg.DatabasePath))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}
}
