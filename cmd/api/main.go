package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"crowdfund-advisor/internal/app"
	"crowdfund-advisor/internal/config"
	apihttp "crowdfund-advisor/internal/http"
	"crowdfund-advisor/internal/scheduler"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	a, err := app.New(ctx, cfg, logger, true)
	if err != nil {
		logger.Fatal("app init", zap.Error(err))
	}
	defer a.Close()

	verifyCron, err := scheduler.NewVerificationScheduler(logger, a.Verification, cfg.VerifyCron, 0)
	if err != nil {
		logger.Fatal("scheduler init", zap.Error(err))
	}
	verifyCron.Start()

	router := apihttp.NewRouter(logger, a.JWT, apihttp.Handlers{
		Users:         apihttp.NewUserHandler(logger, a.Users, a.JWT),
		Campaigns:     apihttp.NewCampaignHandler(logger, a.Campaigns),
		Contributions: apihttp.NewContributionHandler(logger, a.Contributions),
		Chat:          apihttp.NewChatHandler(logger, a.Advisor),
		Predictions:   apihttp.NewPredictionHandler(logger, a.Predictions),
		Admin:         apihttp.NewAdminHandler(logger, a.Dashboard, a.Predictions, a.Verification),
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	verifyCron.Stop(shutdownCtx)
}
