package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"locdecoder/internal/api/router"
	"locdecoder/internal/cache"
	"locdecoder/internal/config"
	"locdecoder/internal/core/repository"
	"locdecoder/internal/core/service"
	"locdecoder/internal/infra/kafka"
	"locdecoder/internal/infra/mq"
	"locdecoder/internal/infra/rabbitmq"
	"locdecoder/internal/logger"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl := logger.New(cfg.Log)
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	positionRepo := newPositionRepository(ctx, cfg.Mongo, zl)

	positionCache := cache.NewPositionCache(ctx, cfg.Redis.URL, cfg.Redis.TTL, zl)
	defer positionCache.Close()

	var dispatcher service.PayloadDispatcher
	if producer := newProducer(cfg.MessageQueue, zl); producer != nil {
		defer producer.Close()
		d := mq.NewDispatcher(producer, "", cfg.MessageQueue.Workers, cfg.MessageQueue.Buffer, zl)
		d.Start()
		defer d.Stop()
		dispatcher = d
	}

	positionService := service.NewPositionService(positionRepo, positionCache, dispatcher, zl)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.NewRouter(positionService, zl),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zl.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Warn("HTTP shutdown incomplete", zap.Error(err))
	}
}

func newPositionRepository(ctx context.Context, cfg config.MongoConfig, zl *zap.Logger) repository.PositionRepository {
	db, err := config.ConnectMongoDB(ctx, cfg, zl)
	if errors.Is(err, config.ErrMongoURIMissing) {
		zl.Warn("MONGODB_URI not set, positions are kept in memory")
		return repository.NewInMemoryPositionRepository()
	}
	if err != nil {
		zl.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}

	repo := repository.NewMongoPositionRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		zl.Warn("Failed to create position indexes", zap.Error(err))
	}
	return repo
}

func newProducer(cfg config.MessageQueueConfig, zl *zap.Logger) mq.Producer {
	var (
		producer mq.Producer
		err      error
	)
	switch cfg.Type {
	case "":
		return nil
	case "kafka":
		producer, err = kafka.NewKafkaProducer(cfg.Kafka, zl)
	case "rabbitmq":
		producer, err = rabbitmq.NewRabbitMQProducer(cfg.RabbitMQ, zl)
	default:
		zl.Warn("Unknown message queue type, publishing disabled", zap.String("type", cfg.Type))
		return nil
	}
	if err != nil {
		zl.Error("Failed to initialize producer, publishing disabled", zap.String("type", cfg.Type), zap.Error(err))
		return nil
	}
	return producer
}
