package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/billing-extractor/internal/domain/extraction"
	"github.com/khoahotran/billing-extractor/pkg/logger"
)

// ErrMalformedEvent marks payloads that can never be stored. The worker
// commits and skips them.
var ErrMalformedEvent = errors.New("malformed extraction event")

type RecordUseCase struct {
	repo     extraction.Repository
	logger   logger.Logger
	attempts uint
	delay    time.Duration
}

func NewRecordUseCase(repo extraction.Repository, log logger.Logger) *RecordUseCase {
	return &RecordUseCase{
		repo:     repo,
		logger:   log,
		attempts: 5,
		delay:    500 * time.Millisecond,
	}
}

// WithRetry overrides the save retry policy.
func (uc *RecordUseCase) WithRetry(attempts uint, delay time.Duration) *RecordUseCase {
	uc.attempts = attempts
	uc.delay = delay
	return uc
}

func (uc *RecordUseCase) Execute(ctx context.Context, payload []byte) (*extraction.Event, error) {
	var e extraction.Event
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if err := validateEvent(&e); err != nil {
		return nil, err
	}

	l := uc.logger.With(zap.String("event_id", e.ID.String()), zap.String("status", string(e.Status)))

	err := retry.Do(
		func() error { return uc.repo.Save(ctx, &e) },
		retry.Context(ctx),
		retry.Attempts(uc.attempts),
		retry.Delay(uc.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			l.Warn("Saving extraction failed, retrying", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		l.Error("Failed to save extraction", err)
		return nil, err
	}

	l.Info("Extraction recorded")
	return &e, nil
}

func validateEvent(e *extraction.Event) error {
	switch {
	case e.ID == uuid.Nil:
		return fmt.Errorf("%w: missing id", ErrMalformedEvent)
	case e.Status != extraction.StatusSucceeded && e.Status != extraction.StatusFailed:
		return fmt.Errorf("%w: unknown status %q", ErrMalformedEvent, e.Status)
	case e.OccurredAt.IsZero():
		return fmt.Errorf("%w: missing occurred_at", ErrMalformedEvent)
	}
	return nil
}
