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

	"checkout-service/config"
	"checkout-service/internal/api"
	"checkout-service/internal/broker"
	"checkout-service/internal/redisclient"
	"checkout-service/internal/refdata"
	"checkout-service/internal/service"
	"checkout-service/internal/session"
	"checkout-service/internal/store"
	"checkout-service/internal/util"
	"checkout-service/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, "checkout-service"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting checkout service")

	tp, err := util.InitTracer("checkout-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Error shutting down tracer", zap.Error(err))
		}
	}()

	var tables refdata.TableFetcher
	if cfg.UsesDatabase() {
		db, err := store.NewStore(cfg.Database.URL)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		tables = db
		logger.Info("Database connected")
	}

	catalogSrc, err := refdata.ParseSource(cfg.RefData.CatalogSource, tables, cfg.RefData.Timeout)
	if err != nil {
		logger.Fatal("Invalid catalog source", zap.Error(err))
	}
	rateSrc, err := refdata.ParseSource(cfg.RefData.RateTableSource, tables, cfg.RefData.Timeout)
	if err != nil {
		logger.Fatal("Invalid rate table source", zap.Error(err))
	}

	var sessions service.SessionStore
	var dedup worker.Deduplicator
	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.SessionTTL)
	switch {
	case err == nil:
		defer redisClient.Close()
		sessions = redisClient
		dedup = redisClient
		logger.Info("Redis connected")
	case cfg.Server.Env == "production":
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	default:
		logger.Warn("Redis unavailable, keeping sessions in memory", zap.Error(err))
		sessions = session.NewMemoryStore()
		dedup = worker.NewMemoryDeduplicator()
	}

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicCheckout)
	defer producer.Close()
	logger.Info("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)
	paymentService := service.NewPaymentService()
	checkoutService := service.NewCheckoutService(nil, sessions, eventPublisher, paymentService)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	go loadReferenceData(workerCtx, cfg.RefData, catalogSrc, rateSrc, checkoutService)

	consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicCheckout, cfg.Kafka.ConsumerGroup)
	confirmationWorker := worker.NewConfirmationWorker(consumer, worker.NewLogNotifier(), dedup)
	go func() {
		if err := confirmationWorker.Start(workerCtx); err != nil && err != context.Canceled {
			logger.Error("Confirmation worker error", zap.Error(err))
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(checkoutService)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if err := confirmationWorker.Stop(); err != nil {
		logger.Warn("Error stopping confirmation worker", zap.Error(err))
	}

	logger.Info("Server exited")
}

// loadReferenceData retries until both tables load or ctx ends. The service
// reports not ready in the meantime.
func loadReferenceData(ctx context.Context, cfg config.ReferenceDataConfig, catalogSrc, rateSrc refdata.Source, checkout *service.CheckoutService) {
	logger := util.GetLogger()

	for {
		ref, err := service.LoadReferenceData(ctx, catalogSrc, rateSrc)
		if err == nil {
			checkout.SetReferenceData(ref)
			return
		}

		logger.Error("Failed to load reference data",
			zap.String("catalog", catalogSrc.String()),
			zap.String("rates", rateSrc.String()),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(cfg.RetryInterval):
		}
	}
}
