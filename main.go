package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/stonefield/resourcing/audit"
	"github.com/stonefield/resourcing/config"
	"github.com/stonefield/resourcing/controller"
	"github.com/stonefield/resourcing/dao"
	"github.com/stonefield/resourcing/db"
	logger "github.com/stonefield/resourcing/logging"
	"github.com/stonefield/resourcing/metrics"
	"github.com/stonefield/resourcing/model"
	"github.com/stonefield/resourcing/router"
	"github.com/stonefield/resourcing/scheduler"
	"github.com/stonefield/resourcing/service"
	"github.com/stonefield/resourcing/util"
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	// Initialize logger
	logger.InitLogger(config.GetString("log.dir"))
	defer logger.Sync()

	metrics.InitMetrics("resourcing")

	// Initialize Postgres
	if err := db.InitDB(); err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.CloseDB()

	// Initialize Redis
	if err := db.InitRedis(); err != nil {
		logger.Fatal("Failed to initialize Redis", zap.Error(err))
	}
	defer db.CloseRedis()

	// Initialize EventBus
	eventBus := util.NewEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eventBus.Start(ctx)

	// Audit trail
	auditRepository, err := audit.NewElasticsearchRepository(config.GetString("elasticsearch.url"))
	if err != nil {
		logger.Fatal("Failed to initialize audit repository", zap.Error(err))
	}
	auditService := audit.NewService(auditRepository)

	// Notification stream; an empty URL means log-only notifications
	js := connectJetStream(config.GetString("nats.url"))

	// Initialize utilities
	validationUtil := util.NewValidationUtil()
	cacheService := util.NewCacheService()
	notificationService := util.NewNotificationService(js)

	// Initialize services
	services, err := service.InitializeServices(
		db.DB,
		auditService,
		validationUtil,
		cacheService,
		notificationService,
		eventBus,
		config.GetInt("agent.usageWindowDays"),
	)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}

	// Job registry: recurring inventory checks and forecast runs per tenant
	registry := scheduler.NewRegistry(services.Monitor.RunInventoryCheck, services.Forecast.GenerateForecasts)
	defer registry.Stop()

	eventBus.Subscribe(util.EventAgentConfigUpdated, func(ctx context.Context, event util.Event) error {
		cfg, ok := event.Payload.(model.AgentConfiguration)
		if !ok {
			return nil
		}
		if cfg.Enabled {
			registry.Schedule(cfg.TenantID, cfg)
		} else {
			registry.Unschedule(cfg.TenantID)
		}
		return nil
	})

	configDAO := dao.NewAgentConfigDAO(db.DB)
	if err := registry.Bootstrap(ctx, configDAO, config.GetInt("agent.bootstrapWorkers")); err != nil {
		logger.Fatal("Failed to bootstrap tenant schedules", zap.Error(err))
	}

	// Initialize controllers
	controllers := controller.InitializeControllers(services, auditService)

	// Set up Gin
	gin.SetMode(gin.ReleaseMode)
	engine := router.SetupRouter(controllers, config.GetInt("server.rateLimit"), config.GetDuration("server.rateLimitWindow"))

	// Set up the server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", config.GetString("server.port")),
		Handler: engine,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", config.GetString("server.port")))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	registry.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}

// connectJetStream dials NATS and makes sure the notification stream exists.
// Returns nil when no URL is configured.
func connectJetStream(url string) nats.JetStreamContext {
	if url == "" {
		logger.Info("NATS not configured, notifications are log-only")
		return nil
	}

	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second))
	if err != nil {
		logger.Fatal("Failed to connect to NATS", zap.Error(err))
	}

	js, err := conn.JetStream()
	if err != nil {
		logger.Fatal("Failed to get JetStream context", zap.Error(err))
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:     "REPLENISH_NOTIFY",
		Subjects: []string{"replenish.notify.>"},
		Storage:  nats.FileStorage,
	})
	if err != nil && err != nats.ErrStreamNameAlreadyInUse {
		logger.Fatal("Failed to ensure notification stream", zap.Error(err))
	}

	logger.Info("Connected to NATS", zap.String("url", url))
	return js
}
