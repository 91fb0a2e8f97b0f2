package service

import (
	"context"

	"github.com/khoahotran/billing-extractor/internal/domain/extraction"
)

type EventPublisher interface {
	PublishExtraction(ctx context.Context, event *extraction.Event) error
}

type NoopPublisher struct{}

func (NoopPublisher) PublishExtraction(context.Context, *extraction.Event) error {
	return nil
}
