package chat

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/khoahotran/billing-extractor/internal/application/registry"
	"github.com/khoahotran/billing-extractor/internal/application/service"
	"github.com/khoahotran/billing-extractor/internal/prompts"
	"github.com/khoahotran/billing-extractor/pkg/apperror"
	"github.com/khoahotran/billing-extractor/pkg/logger"
)

var tracer = otel.Tracer("github.com/khoahotran/billing-extractor/usecase/chat")

type ChatUseCase struct {
	models  *registry.Registry
	message string
	logger  logger.Logger
}

func NewChatUseCase(models *registry.Registry, log logger.Logger) *ChatUseCase {
	return &ChatUseCase{
		models:  models,
		message: prompts.ChatGreeting,
		logger:  log,
	}
}

type ChatInput struct {
	RequestID string
	Model     string
}

type ChatOutput struct {
	Response string
	Model    string
}

// Execute sends the fixed greeting to the model at temperature 0. There is no
// retry: a provider failure is returned as an upstream error.
func (uc *ChatUseCase) Execute(ctx context.Context, input ChatInput) (*ChatOutput, error) {
	if input.Model == "" {
		input.Model = uc.models.Default().Name()
	}
	l := uc.logger.With(zap.String("request_id", input.RequestID), zap.String("model", input.Model))

	handle, err := uc.models.Get(input.Model)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "chat.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", handle.Provider()),
		attribute.String("llm.model", handle.Model()),
	)

	l.Info("Generating chat response...")
	response, err := handle.LLM().GenerateText(ctx, service.GenerateRequest{
		Messages:    []service.Message{service.UserText(uc.message)},
		Temperature: 0,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider call failed")
		l.Error("Chat generation failed", err)
		return nil, apperror.NewUpstream("failed to generate chat response", err)
	}
	l.Info("Chat response generated", zap.Int("length", len(response)))

	return &ChatOutput{Response: response, Model: handle.Name()}, nil
}
