package event

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/khoahotran/billing-extractor/pkg/logger"
)

// MessageReader is the part of *kafka.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// HandlerFunc processes one message. Returning an error keeps the message
// uncommitted and it is handed to the handler again.
type HandlerFunc func(ctx context.Context, msg kafka.Message) error

type KafkaConsumer struct {
	reader   MessageReader
	handle   HandlerFunc
	log      logger.Logger
	delay    time.Duration
	maxDelay time.Duration
}

func NewKafkaConsumer(reader MessageReader, handle HandlerFunc, log logger.Logger) *KafkaConsumer {
	return &KafkaConsumer{
		reader:   reader,
		handle:   handle,
		log:      log,
		delay:    time.Second,
		maxDelay: time.Minute,
	}
}

// WithBackoff overrides the delays used between failed fetches and handler
// retries.
func (c *KafkaConsumer) WithBackoff(delay, maxDelay time.Duration) *KafkaConsumer {
	c.delay = delay
	c.maxDelay = maxDelay
	return c
}

// Run consumes until ctx is canceled. Commits are cumulative per partition,
// so a message is committed only after its handler succeeded; a failing
// message blocks the loop until it goes through.
func (c *KafkaConsumer) Run(ctx context.Context) error {
	for {
		var msg kafka.Message
		err := retry.Do(
			func() error {
				var err error
				msg, err = c.reader.FetchMessage(ctx)
				return err
			},
			c.backoff(ctx, func(n uint, err error) {
				c.log.Error("Failed to read message from Kafka", err, zap.Uint("attempt", n+1))
			})...,
		)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		l := c.log.With(zap.Int("partition", msg.Partition), zap.Int64("offset", msg.Offset))

		err = retry.Do(
			func() error { return c.handle(ctx, msg) },
			c.backoff(ctx, func(n uint, err error) {
				l.Error("Failed to handle message, retrying", err, zap.Uint("attempt", n+1))
			})...,
		)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if err := c.reader.CommitMessages(context.WithoutCancel(ctx), msg); err != nil {
			l.Error("Failed to commit message", err)
		}
	}
}

func (c *KafkaConsumer) backoff(ctx context.Context, onRetry retry.OnRetryFunc) []retry.Option {
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(0),
		retry.Delay(c.delay),
		retry.MaxDelay(c.maxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}),
		retry.OnRetry(onRetry),
	}
}
