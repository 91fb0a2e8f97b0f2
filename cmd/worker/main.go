package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/billing-extractor/adapters/event"
	"github.com/khoahotran/billing-extractor/adapters/persistence"
	historyUC "github.com/khoahotran/billing-extractor/internal/application/usecase/history"
	"github.com/khoahotran/billing-extractor/internal/config"
	"github.com/khoahotran/billing-extractor/pkg/logger"
)

func main() {
	fmt.Println("Starting Billing Extractor History Worker...")

	// Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: cannot load config: %v\n", err)
		os.Exit(1)
	}
	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()

	if len(cfg.Kafka.Brokers) == 0 {
		appLogger.Fatal("KAFKA_BROKERS is not configured", nil)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	dbPool, err := persistence.NewPostgresPool(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot connect Postgres", err)
	}
	defer dbPool.Close()

	// Repositories
	extractionRepo := persistence.NewPostgresExtractionRepo(dbPool, appLogger)

	// Worker Use Case
	recordUC := historyUC.NewRecordUseCase(extractionRepo, appLogger)

	// Kafka Consumer
	consumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    event.TopicExtractionEvents,
		GroupID:  cfg.Kafka.GroupID,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	defer consumer.Close()

	appLogger.Info("Worker listening", zap.String("topic", event.TopicExtractionEvents), zap.String("group_id", cfg.Kafka.GroupID))

	handle := func(ctx context.Context, msg kafka.Message) error {
		_, err := recordUC.Execute(ctx, msg.Value)
		if errors.Is(err, historyUC.ErrMalformedEvent) {
			appLogger.Warn("Skipping malformed event", zap.Error(err), zap.Int64("offset", msg.Offset))
			return nil
		}
		return err
	}

	if err := event.NewKafkaConsumer(consumer, handle, appLogger).Run(ctx); err != nil {
		appLogger.Fatal("Worker stopped", err)
	}
	appLogger.Info("Worker stopped")
}
