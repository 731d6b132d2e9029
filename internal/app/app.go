package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vitalbite/wearable-sync/internal/config"
	"github.com/vitalbite/wearable-sync/internal/handler"
	"github.com/vitalbite/wearable-sync/internal/repository"
	"github.com/vitalbite/wearable-sync/internal/service"
	"github.com/vitalbite/wearable-sync/internal/terra"
	"github.com/vitalbite/wearable-sync/internal/utils"
	"github.com/vitalbite/wearable-sync/pkg/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra  Infrastructure
	config *config.Config
	router *gin.Engine
	server *http.Server
}

func NewApp(infra Infrastructure, cfg *config.Config) (*App, error) {
	repos := repository.NewRepositories(infra.Postgres())

	pipelineMetrics, err := observability.NewPipelineMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	tokenVerifier := utils.NewTokenVerifier(cfg.Auth.TokenSecret)
	terraClient := terra.NewClient(cfg.Terra)
	rateLimiter := service.NewRateLimiter(infra.Redis())
	healthChecker := NewHealthChecker(infra)
	summaryCache := service.NewRedisSummaryCache(infra.Redis(), cfg.Summary.CacheTTL.Duration)

	webhookService := service.NewWebhookService(
		service.NewSignatureVerifier(cfg.Terra.SigningSecret),
		service.NewNormalizer(service.NewReferenceWindowEstimator(), nil),
		repos.Connection,
		repos.Entry,
		summaryCache,
		pipelineMetrics,
		infra.Logger(),
	)
	connectionService := service.NewConnectionService(repos.Connection, terraClient, infra.Logger())
	summaryService := service.NewSummaryService(
		repos.Entry,
		repos.Connection,
		summaryCache,
		cfg.Summary.Strategy(),
		infra.Logger(),
	)

	webhookHandler := handler.NewWebhookHandler(webhookService, infra.Logger())
	connectionHandler := handler.NewConnectionHandler(connectionService)
	summaryHandler := handler.NewSummaryHandler(summaryService)

	router := gin.Default()
	router.Use(otelgin.Middleware("wearable-sync"))
	router.Use(handler.LoggerMiddleware(infra.Logger()))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))

	setupRoutes(router, cfg, tokenVerifier, webhookHandler, connectionHandler, summaryHandler, rateLimiter, healthChecker, infra.MetricsHandler())

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:  infra,
		config: cfg,
		router: router,
		server: srv,
	}, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	tokenVerifier *utils.TokenVerifier,
	webhookHandler *handler.WebhookHandler,
	connectionHandler *handler.ConnectionHandler,
	summaryHandler *handler.SummaryHandler,
	rateLimiter *service.RateLimiter,
	healthChecker *HealthChecker,
	metricsHandler http.Handler,
) {
	router.GET("/metrics", observability.PrometheusHandler(metricsHandler))
	router.GET("/health", healthChecker.Handler)

	api := router.Group("/api/v1")
	{
		// webhook endpoint authenticates by body signature, not bearer token
		api.POST("/webhooks/terra", webhookHandler.Handle)

		wearables := api.Group("/wearables", handler.AuthMiddleware(tokenVerifier))
		{
			wearables.POST("/connect",
				handler.RateLimitMiddleware(rateLimiter, cfg.Security.RateLimitRequests, cfg.Security.RateLimitWindow.Duration, handler.UserBasedKey),
				connectionHandler.Connect,
			)
			wearables.POST("/disconnect",
				handler.RateLimitMiddleware(rateLimiter, cfg.Security.RateLimitRequests, cfg.Security.RateLimitWindow.Duration, handler.UserBasedKey),
				connectionHandler.Disconnect,
			)
			wearables.GET("/connections", connectionHandler.List)
		}

		summary := api.Group("/summary", handler.AuthMiddleware(tokenVerifier))
		{
			summary.GET("/today", summaryHandler.Today)
			summary.GET("/weekly", summaryHandler.Weekly)
		}
	}
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
		)

		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		a.infra.Logger().Error("Shutdown error", zap.Error(err))
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := make(chan error, 2)

	go func() {
		errs <- a.server.Shutdown(ctx)
	}()

	go func() {
		errs <- a.infra.Shutdown(ctx)
	}()

	err := errors.Join(<-errs, <-errs)
	if err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
