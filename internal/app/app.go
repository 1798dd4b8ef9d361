// Package app arma el grafo de dependencias compartido por la API y el CLI.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"crowdfund-advisor/internal/config"
	"crowdfund-advisor/internal/db"
	"crowdfund-advisor/internal/email"
	"crowdfund-advisor/internal/llm"
	"crowdfund-advisor/internal/market"
	"crowdfund-advisor/internal/repository"
	"crowdfund-advisor/internal/service"
)

// App contiene los servicios ya conectados a Postgres, Redis y proveedores externos.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Pool   *pgxpool.Pool
	Redis  *redis.Client

	JWT           *service.JWTService
	Users         *service.UserService
	Campaigns     *service.CampaignService
	Contributions *service.ContributionService
	Predictions   *service.PredictionService
	Advisor       *service.AdvisorService
	Verification  *service.VerificationService
	Dashboard     *service.DashboardService
}

// New conecta la base, aplica el esquema si migrate es true y construye los servicios.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, migrate bool) (*App, error) {
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.Ping(pingCtx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if migrate {
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}

	llmClient, err := llm.New(ctx, cfg.LLMProvider, cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("llm client: %w", err)
	}

	redisClient := connectRedis(ctx, cfg, logger)

	userRepo := repository.NewPgUserRepository(pool)
	campaignRepo := repository.NewPgCampaignRepository(pool)
	contributionRepo := repository.NewPgContributionRepository(pool)
	transactionRepo := repository.NewPgTransactionRepository(pool)
	sessionRepo := repository.NewPgChatSessionRepository(pool)
	predictionRepo := repository.NewPgPredictionRepository(pool)
	statsRepo := repository.NewPgStatsRepository(pool)

	quotes := marketProvider(cfg, redisClient, logger)

	var chatLimiter service.RateLimiter
	if redisClient != nil {
		chatLimiter = service.NewRedisRateLimiter(redisClient, "crowdfund:chat:", time.Minute, cfg.ChatRateLimit)
	} else {
		chatLimiter = service.NewRateLimiter(time.Minute, cfg.ChatRateLimit)
	}

	var tokenStore service.RefreshTokenStore
	if redisClient != nil {
		tokenStore = service.NewRedisRefreshTokenStore(redisClient)
	}
	jwtSvc := service.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	campaignSvc := service.NewCampaignService(logger, campaignRepo)
	predictionSvc := service.NewPredictionService(logger, llmClient, quotes, predictionRepo)
	verificationSvc := service.NewVerificationService(
		logger,
		predictionRepo,
		quotes,
		redisClient,
		time.Duration(cfg.VerifyMinAgeHr)*time.Hour,
	)

	a := &App{
		Config:        cfg,
		Logger:        logger,
		Pool:          pool,
		Redis:         redisClient,
		JWT:           jwtSvc,
		Users:         service.NewUserService(logger, userRepo, cfg.AdminEmails),
		Campaigns:     campaignSvc,
		Contributions: service.NewContributionService(logger, campaignSvc, contributionRepo, transactionRepo, userRepo, emailSender(cfg, logger)),
		Predictions:   predictionSvc,
		Advisor:       service.NewAdvisorService(logger, llmClient, predictionSvc, sessionRepo, chatLimiter),
		Verification:  verificationSvc,
		Dashboard:     service.NewDashboardService(statsRepo, campaignRepo, predictionRepo),
	}
	return a, nil
}

// Close libera conexiones.
func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	a.Pool.Close()
}

func connectRedis(ctx context.Context, cfg *config.Config, logger *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctxPing).Err(); err != nil {
		logger.Warn("redis ping failed, continuing without redis", zap.Error(err))
		_ = client.Close()
		return nil
	}
	return client
}

// marketProvider devuelve nil si no hay API de mercado: la verificacion sintetiza precios
// y el generador de predicciones cae al proveedor sintetico.
func marketProvider(cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) market.QuoteProvider {
	var provider market.QuoteProvider
	switch strings.ToLower(strings.TrimSpace(cfg.MarketProvider)) {
	case "":
		return nil
	case "alphavantage":
		if cfg.MarketAPIKey == "" {
			logger.Warn("alphavantage selected without MARKET_API_KEY, using synthetic prices")
			return nil
		}
		// la cuota gratuita de Alpha Vantage se agota rapido; Yahoo no pide clave
		provider = market.NewFallbackProvider(
			market.NewAlphaVantageClient(cfg.MarketBaseURL, cfg.MarketAPIKey),
			market.NewYahooClient(),
		)
	case "yahoo":
		provider = market.NewYahooClient()
	default:
		logger.Warn("unknown market provider, using synthetic prices", zap.String("provider", cfg.MarketProvider))
		return nil
	}
	ttl := time.Duration(cfg.QuoteCacheTTLMin) * time.Minute
	return market.NewCachedProvider(provider, redisClient, ttl, logger)
}

func emailSender(cfg *config.Config, logger *zap.Logger) email.Sender {
	if cfg.SendGridAPIKey != "" {
		sender, err := email.NewSendGridSender(cfg.SendGridAPIKey, cfg.SMTPFrom, cfg.SMTPFromName)
		if err == nil {
			return sender
		}
		logger.Warn("sendgrid sender init failed", zap.Error(err))
	}
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err == nil {
			return sender
		}
		logger.Warn("smtp sender init failed", zap.Error(err))
	}
	return email.NewDisabledSender("email sender not configured")
}
