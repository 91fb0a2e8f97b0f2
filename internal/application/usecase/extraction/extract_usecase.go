package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/khoahotran/billing-extractor/internal/application/registry"
	"github.com/khoahotran/billing-extractor/internal/application/schema"
	"github.com/khoahotran/billing-extractor/internal/application/service"
	"github.com/khoahotran/billing-extractor/internal/domain/extraction"
	"github.com/khoahotran/billing-extractor/internal/prompts"
	"github.com/khoahotran/billing-extractor/pkg/apperror"
	"github.com/khoahotran/billing-extractor/pkg/logger"
)

var tracer = otel.Tracer("github.com/khoahotran/billing-extractor/usecase/extraction")

// Prompt is the instruction set sent with every extraction.
type Prompt struct {
	System      string
	Instruction string
	Temperature float64
}

func DefaultPrompt() Prompt {
	return Prompt{
		System:      prompts.BillingSystemPrompt,
		Instruction: prompts.BillingUserInstruction,
		Temperature: 0,
	}
}

type Options struct {
	DocumentPath string
	Prompt       Prompt
}

type ExtractUseCase struct {
	models       *registry.Registry
	documents    service.DocumentSource
	codec        *schema.Codec
	publisher    service.EventPublisher
	documentPath string
	prompt       Prompt
	logger       logger.Logger
	now          func() time.Time
}

func NewExtractUseCase(
	models *registry.Registry,
	documents service.DocumentSource,
	codec *schema.Codec,
	publisher service.EventPublisher,
	opts Options,
	log logger.Logger,
) *ExtractUseCase {
	if publisher == nil {
		publisher = service.NoopPublisher{}
	}
	return &ExtractUseCase{
		models:       models,
		documents:    documents,
		codec:        codec,
		publisher:    publisher,
		documentPath: opts.DocumentPath,
		prompt:       opts.Prompt,
		logger:       log,
		now:          time.Now,
	}
}

type ExtractInput struct {
	RequestID string
	// DocumentPath overrides the configured document. Empty means configured.
	DocumentPath string
	Model        string
}

type ExtractOutput struct {
	Result   *extraction.Result
	Model    string
	Document *service.Document
}

// Execute reads the document, asks the model for a schema-constrained answer
// and validates it. The document is read on every call and nothing is cached.
func (uc *ExtractUseCase) Execute(ctx context.Context, input ExtractInput) (*ExtractOutput, error) {
	if input.Model == "" {
		input.Model = uc.models.Default().Name()
	}
	if input.DocumentPath == "" {
		input.DocumentPath = uc.documentPath
	}
	l := uc.logger.With(
		zap.String("request_id", input.RequestID),
		zap.String("model", input.Model),
		zap.String("document", input.DocumentPath),
	)

	started := uc.now()
	out, err := uc.run(ctx, input, l)

	uc.publish(ctx, input, started, out, err, l)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *ExtractUseCase) run(ctx context.Context, input ExtractInput, l logger.Logger) (*ExtractOutput, error) {
	handle, err := uc.models.Get(input.Model)
	if err != nil {
		return nil, err
	}
	out := &ExtractOutput{Model: handle.Name()}

	doc, err := uc.documents.Load(ctx, input.DocumentPath)
	if err != nil {
		l.Error("Failed to load document", err)
		return out, err
	}
	out.Document = doc
	l.Info("Document loaded", zap.Int("bytes", len(doc.Data)), zap.Int("pages", doc.Pages))

	ctx, span := tracer.Start(ctx, "extraction.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", handle.Provider()),
		attribute.String("llm.model", handle.Model()),
		attribute.String("document.sha256", doc.SHA256),
	)

	req := service.GenerateRequest{
		System: uc.prompt.System,
		Messages: []service.Message{{
			Role: service.RoleUser,
			Parts: []service.Part{
				service.TextPart(uc.prompt.Instruction),
				service.FilePart(doc.Data, doc.MIMEType, doc.Name),
			},
		}},
		Temperature: uc.prompt.Temperature,
	}

	l.Info("Requesting structured extraction from LLM...")
	raw, err := handle.LLM().GenerateObject(ctx, req, uc.codec.OutputSchema())
	if errors.Is(err, service.ErrAttachmentRejected) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "document rejected by model client")
		l.Error("Document cannot be sent to the model", err)
		return out, apperror.NewDocumentIO(doc.Path, err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider call failed")
		l.Error("Structured extraction failed", err)
		return out, apperror.NewUpstream("failed to extract billing details", err)
	}

	validated, err := uc.codec.Validate(raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "schema validation failed")
		l.Error("Model output rejected", err, zap.ByteString("output", truncate(raw, 2048)))
		return out, err
	}

	var result extraction.Result
	if err := json.Unmarshal(validated, &result); err != nil {
		return out, apperror.NewSchemaValidation("validated output does not decode into a billing result", err)
	}
	out.Result = &result
	l.Info("Billing details extracted")

	return out, nil
}

func (uc *ExtractUseCase) publish(ctx context.Context, input ExtractInput, started time.Time, out *ExtractOutput, runErr error, l logger.Logger) {
	event := &extraction.Event{
		ID:           uuid.New(),
		RequestID:    input.RequestID,
		Model:        input.Model,
		DocumentPath: input.DocumentPath,
		Status:       extraction.StatusSucceeded,
		DurationMS:   uc.now().Sub(started).Milliseconds(),
		OccurredAt:   started.UTC(),
	}
	if out != nil && out.Document != nil {
		event.DocumentSHA256 = out.Document.SHA256
		event.Pages = out.Document.Pages
	}
	if runErr != nil {
		event.Status = extraction.StatusFailed
		event.ErrorKind = apperror.Kind(runErr)
		var appErr *apperror.AppError
		if errors.As(runErr, &appErr) {
			event.ErrorMessage = appErr.Message
		} else {
			event.ErrorMessage = runErr.Error()
		}
	} else if out.Result != nil {
		if b, err := json.Marshal(out.Result); err == nil {
			event.Result = b
		}
	}

	// The caller may already be gone; the event still describes what happened.
	if err := uc.publisher.PublishExtraction(context.WithoutCancel(ctx), event); err != nil {
		l.Warn("Failed to publish extraction event", zap.Error(err), zap.String("event_id", event.ID.String()))
	}
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
