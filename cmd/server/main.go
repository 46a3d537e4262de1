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

	"github.com/Sivanthsiv/food-ecommerce/config"
	"github.com/Sivanthsiv/food-ecommerce/internal/api"
	"github.com/Sivanthsiv/food-ecommerce/internal/auth"
	"github.com/Sivanthsiv/food-ecommerce/internal/blob"
	"github.com/Sivanthsiv/food-ecommerce/internal/broker"
	"github.com/Sivanthsiv/food-ecommerce/internal/catalog"
	"github.com/Sivanthsiv/food-ecommerce/internal/notify"
	"github.com/Sivanthsiv/food-ecommerce/internal/ratelimit"
	"github.com/Sivanthsiv/food-ecommerce/internal/redisclient"
	"github.com/Sivanthsiv/food-ecommerce/internal/service"
	"github.com/Sivanthsiv/food-ecommerce/internal/store"
	"github.com/Sivanthsiv/food-ecommerce/internal/util"
	"github.com/Sivanthsiv/food-ecommerce/internal/worker"

	"cloud.google.com/go/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serviceName = "storefront-orders"

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, serviceName); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting storefront order service")

	tp, err := util.InitTracer(serviceName, cfg.Observ.JaegerEndpoint, cfg.Server.Env)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Error shutting down tracer", zap.Error(err))
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Database connected")

	if cfg.Database.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := db.Migrate(ctx)
		cancel()
		if err != nil {
			logger.Fatal("Failed to apply schema", zap.Error(err))
		}
		logger.Info("Schema applied")
	}

	// Without Redis the limiter counts per instance.
	var counter ratelimit.Counter
	if cfg.Redis.Addr != "" {
		redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("Redis unavailable, rate limits are per instance", zap.Error(err))
		} else {
			defer redisClient.Close()
			counter = redisClient
			logger.Info("Redis connected")
		}
	}
	limiter := ratelimit.NewLimiter(counter)

	blobs, closeBlobs, err := newBlobStore(cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to initialize proof storage", zap.Error(err))
	}
	defer closeBlobs()

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
	defer producer.Close()
	logger.Info("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	resolver := service.NewProductResolver(db, catalog.Default())
	svc := api.Services{
		Orders:  service.NewOrderService(db, db, resolver, eventPublisher, cfg.Business),
		Proofs:  service.NewProofService(db, blobs, eventPublisher, cfg.Storage.ProofMaxBytes, cfg.Business.OperationTimeout),
		Reviews: service.NewReviewService(db, eventPublisher, cfg.Business.OperationTimeout),
		Queries: service.NewQueryService(db, cfg.Business.OperationTimeout),
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	notificationConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.ConsumerGroup)
	notificationWorker := worker.NewNotificationWorker(notificationConsumer, newMailer(cfg.Mail))
	go func() {
		if err := notificationWorker.Start(workerCtx); err != nil {
			logger.Error("Notification worker error", zap.Error(err))
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.Auth.JWTSecret == "" {
		logger.Warn("JWT_SECRET is not set, every request is anonymous")
	}
	verifier := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.AdminEmail)

	router := gin.New()
	handler := api.NewHandler(svc, verifier, limiter, db, cfg.Limits, cfg.Storage.ProofMaxBytes)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
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
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if err := notificationWorker.Stop(); err != nil {
		logger.Warn("Error stopping notification worker", zap.Error(err))
	}

	logger.Info("Server exited")
}

// newBlobStore picks GCS when a bucket is configured, otherwise a local directory
func newBlobStore(cfg config.StorageConfig) (blob.Store, func(), error) {
	if cfg.ProofGCSBucket == "" {
		local, err := blob.NewLocalStore(cfg.ProofDir)
		if err != nil {
			return nil, nil, err
		}
		util.GetLogger().Info("Storing payment proofs on disk", zap.String("dir", cfg.ProofDir))
		return local, func() {}, nil
	}

	client, err := storage.NewClient(context.Background())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	gcs, err := blob.NewGCSStore(client, cfg.ProofGCSBucket, "payments/")
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	util.GetLogger().Info("Storing payment proofs in GCS", zap.String("bucket", cfg.ProofGCSBucket))
	return gcs, func() { client.Close() }, nil
}

// newMailer uses SendGrid when an API key is configured and logs messages otherwise
func newMailer(cfg config.MailConfig) notify.Mailer {
	if cfg.SendGridAPIKey == "" {
		util.GetLogger().Warn("SENDGRID_API_KEY is not set, notifications are logged only")
		return notify.LogMailer{}
	}
	return notify.NewSendGridMailer(cfg.SendGridAPIKey, cfg.FromAddress, cfg.FromName)
}
