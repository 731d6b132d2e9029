package acceptance

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/vitalbite/wearable-sync/internal/config"
	"github.com/vitalbite/wearable-sync/internal/handler"
	"github.com/vitalbite/wearable-sync/internal/repository"
	"github.com/vitalbite/wearable-sync/internal/service"
	"github.com/vitalbite/wearable-sync/internal/terra"
	"github.com/vitalbite/wearable-sync/internal/utils"
	"github.com/vitalbite/wearable-sync/pkg/database"
	"github.com/vitalbite/wearable-sync/pkg/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const signingSecret = "test-webhook-signing-secret"

// FakeProviderClient stands in for the aggregation provider API so tests never
// leave localhost
type FakeProviderClient struct {
	mu          sync.Mutex
	sessionErr  error
	deauthErr   error
	DeauthCalls []string
}

func (f *FakeProviderClient) GenerateWidgetSession(ctx context.Context, referenceID string, providers []string) (*terra.WidgetSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	return &terra.WidgetSession{
		URL:       "https://widget.example.com/session/" + referenceID,
		SessionID: "session-" + referenceID,
		ExpiresIn: 900,
	}, nil
}

func (f *FakeProviderClient) DeauthenticateUser(ctx context.Context, externalUserID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DeauthCalls = append(f.DeauthCalls, externalUserID)
	return f.deauthErr
}

// FailSessions makes widget session generation fail until the next Reset
func (f *FakeProviderClient) FailSessions(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessionErr = err
}

// FailDeauth makes remote deauthorization fail until the next Reset
func (f *FakeProviderClient) FailDeauth(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deauthErr = err
}

func (f *FakeProviderClient) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessionErr = nil
	f.deauthErr = nil
	f.DeauthCalls = nil
}

// TestApp represents a test application instance
type TestApp struct {
	Config       *config.Config
	Router       *gin.Engine
	Server       *http.Server
	Listener     net.Listener
	BaseURL      string
	Provider     *FakeProviderClient
	Repositories *repository.Repositories
	Logger       *zap.Logger
	Postgres     *database.Postgres
	Redis        *database.Redis
}

// NewTestApp creates a new test application instance
func NewTestApp(postgres *database.Postgres, redis *database.Redis) (*TestApp, error) {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:         "localhost",
			Port:         "0", // Use 0 to get a random available port
			ReadTimeout:  config.Duration{Duration: 15 * time.Second},
			WriteTimeout: config.Duration{Duration: 15 * time.Second},
		},
		Auth: config.AuthConfig{
			TokenSecret: "test-secret-key-that-is-at-least-32-characters-long",
		},
		Terra: config.TerraConfig{
			DevID:         "test-dev-id",
			APIKey:        "test-api-key",
			SigningSecret: signingSecret,
		},
		Summary: config.SummaryConfig{
			Reconciliation: "sum",
			CacheTTL:       config.Duration{Duration: 60 * time.Second},
		},
		Security: config.SecurityConfig{
			RateLimitRequests: 100,
			RateLimitWindow:   config.Duration{Duration: 1 * time.Minute},
		},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
		},
		Env: "test",
	}

	gin.SetMode(gin.TestMode)

	logger, err := observability.InitLogger("test")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	_, metricsHandler, err := observability.InitTelemetry("wearable-sync-test")
	if err != nil {
		logger.Sync()
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	repos := repository.NewRepositories(postgres)
	tokenVerifier := utils.NewTokenVerifier(cfg.Auth.TokenSecret)
	provider := &FakeProviderClient{}
	rateLimiter := service.NewRateLimiter(redis)
	summaryCache := service.NewRedisSummaryCache(redis, cfg.Summary.CacheTTL.Duration)

	webhookService := service.NewWebhookService(
		service.NewSignatureVerifier(cfg.Terra.SigningSecret),
		service.NewNormalizer(service.NewReferenceWindowEstimator(), nil),
		repos.Connection,
		repos.Entry,
		summaryCache,
		nil,
		logger,
	)
	connectionService := service.NewConnectionService(repos.Connection, provider, logger)
	summaryService := service.NewSummaryService(repos.Entry, repos.Connection, summaryCache, cfg.Summary.Strategy(), logger)

	webhookHandler := handler.NewWebhookHandler(webhookService, logger)
	connectionHandler := handler.NewConnectionHandler(connectionService)
	summaryHandler := handler.NewSummaryHandler(summaryService)

	router := gin.New()
	router.Use(otelgin.Middleware("wearable-sync-test"))
	router.Use(handler.LoggerMiddleware(logger))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))
	setupRoutes(router, cfg, tokenVerifier, webhookHandler, connectionHandler, summaryHandler, rateLimiter, postgres, redis, metricsHandler)

	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		logger.Sync()
		return nil, fmt.Errorf("failed to create listener: %w", err)
	}

	addr := listener.Addr().(*net.TCPAddr)
	baseURL := fmt.Sprintf("http://localhost:%d", addr.Port)

	srv := &http.Server{
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	app := &TestApp{
		Config:       cfg,
		Router:       router,
		Server:       srv,
		Listener:     listener,
		BaseURL:      baseURL,
		Provider:     provider,
		Repositories: repos,
		Logger:       logger,
		Postgres:     postgres,
		Redis:        redis,
	}

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start test server", zap.Error(err))
		}
	}()
	time.Sleep(100 * time.Millisecond)

	return app, nil
}

// MintToken issues an access token the way the main application does
func (app *TestApp) MintToken(userID string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(15 * time.Minute).Unix(),
		"iat":     time.Now().Unix(),
	})
	signed, err := token.SignedString([]byte(app.Config.Auth.TokenSecret))
	if err != nil {
		panic(err)
	}
	return signed
}

func (app *TestApp) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.Server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	if app.Logger != nil {
		app.Logger.Sync()
	}

	return nil
}

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	tokenVerifier *utils.TokenVerifier,
	webhookHandler *handler.WebhookHandler,
	connectionHandler *handler.ConnectionHandler,
	summaryHandler *handler.SummaryHandler,
	rateLimiter *service.RateLimiter,
	postgres *database.Postgres,
	redis *database.Redis,
	metricsHandler http.Handler,
) {
	router.GET("/metrics", observability.PrometheusHandler(metricsHandler))

	router.GET("/health", func(c *gin.Context) {
		if err := postgres.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "fail", "error": err.Error()})
			return
		}
		if err := redis.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "fail", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "pass"})
	})

	api := router.Group("/api/v1")
	{
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
