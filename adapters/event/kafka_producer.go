package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/billing-extractor/internal/config"
	"github.com/khoahotran/billing-extractor/internal/domain/extraction"
	"github.com/khoahotran/billing-extractor/pkg/logger"
)

const TopicExtractionEvents = "extraction.events"

// MessageWriter is the part of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaProducerClient struct {
	ExtractionEventsWriter MessageWriter
	log                    logger.Logger
}

func NewKafkaProducerClient(cfg config.Config, log logger.Logger) (*KafkaProducerClient, error) {
	brokers := cfg.Kafka.Brokers
	if len(brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}

	// writer 'extraction.events'
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        TopicExtractionEvents,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	log.Info("Initialize Kafka Producers successfully.", zap.Strings("brokers", brokers))
	return NewKafkaProducerWithWriter(writer, log), nil
}

func NewKafkaProducerWithWriter(w MessageWriter, log logger.Logger) *KafkaProducerClient {
	return &KafkaProducerClient{ExtractionEventsWriter: w, log: log}
}

// PublishExtraction keys messages by document hash so runs over the same
// document land on the same partition.
func (c *KafkaProducerClient) PublishExtraction(ctx context.Context, e *extraction.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal extraction event: %w", err)
	}

	key := e.DocumentSHA256
	if key == "" {
		key = e.DocumentPath
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("extraction." + string(e.Status))},
		},
	}
	if err := c.ExtractionEventsWriter.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write extraction event: %w", err)
	}
	c.log.Debug("Extraction event published", zap.String("event_id", e.ID.String()), zap.String("status", string(e.Status)))
	return nil
}

func (c *KafkaProducerClient) Close() {
	if c.ExtractionEventsWriter != nil {
		if err := c.ExtractionEventsWriter.Close(); err != nil {
			c.log.Error("Failed to close Kafka writer", err)
		}
	}
	c.log.Info("Closed Kafka Producers")
}
