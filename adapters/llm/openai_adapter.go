package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"github.com/khoahotran/billing-extractor/internal/application/service"
	"github.com/khoahotran/billing-extractor/pkg/logger"
)

type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type openAIAdapter struct {
	client openai.Client
	model  string
	log    logger.Logger
}

// NewOpenAIAdapter talks to the OpenAI chat completions API with the official
// SDK. SDK-level retries are disabled: a failed call surfaces immediately.
func NewOpenAIAdapter(cfg OpenAIConfig, log logger.Logger) (service.LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is not configured")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("openai model is not configured")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	log.Info("OpenAI Chat Adapter initialized", zap.String("model", cfg.Model))
	return &openAIAdapter{client: openai.NewClient(opts...), model: cfg.Model, log: log}, nil
}

func (a *openAIAdapter) GenerateText(ctx context.Context, req service.GenerateRequest) (string, error) {
	params, err := a.buildParams(req)
	if err != nil {
		return "", err
	}
	return a.complete(ctx, params)
}

func (a *openAIAdapter) GenerateObject(ctx context.Context, req service.GenerateRequest, schema service.OutputSchema) (json.RawMessage, error) {
	params, err := a.buildParams(req)
	if err != nil {
		return nil, err
	}

	var schemaDoc map[string]any
	if err := json.Unmarshal(schema.JSON, &schemaDoc); err != nil {
		return nil, fmt.Errorf("invalid output schema %q: %w", schema.Name, err)
	}
	jsonSchema := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:   schema.Name,
		Schema: schemaDoc,
		Strict: openai.Bool(true),
	}
	if schema.Description != "" {
		jsonSchema.Description = openai.String(schema.Description)
	}
	params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: jsonSchema},
	}

	content, err := a.complete(ctx, params)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(content), nil
}

func (a *openAIAdapter) complete(ctx context.Context, params openai.ChatCompletionNewParams) (string, error) {
	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("openai chat completion failed with status %d: %w", apiErr.StatusCode, err)
		}
		return "", fmt.Errorf("openai chat completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no chat choices")
	}

	msg := resp.Choices[0].Message
	if msg.Refusal != "" {
		return "", fmt.Errorf("openai refused the request: %s", msg.Refusal)
	}
	if strings.TrimSpace(msg.Content) == "" {
		return "", fmt.Errorf("openai returned an empty completion")
	}

	a.log.Debug("OpenAI completion received",
		zap.String("model", resp.Model),
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
	)
	return msg.Content, nil
}

func (a *openAIAdapter) buildParams(req service.GenerateRequest) (openai.ChatCompletionNewParams, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}

	for _, m := range req.Messages {
		switch m.Role {
		case service.RoleUser:
			parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(m.Parts))
			for _, p := range m.Parts {
				part, err := openAIContentPart(p)
				if err != nil {
					return openai.ChatCompletionNewParams{}, err
				}
				parts = append(parts, part)
			}
			messages = append(messages, openai.UserMessage(parts))
		case service.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(joinText(m.Parts)))
		default:
			return openai.ChatCompletionNewParams{}, fmt.Errorf("unsupported message role %q", m.Role)
		}
	}

	return openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(a.model),
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	}, nil
}

func openAIContentPart(p service.Part) (openai.ChatCompletionContentPartUnionParam, error) {
	if !p.IsFile() {
		return openai.TextContentPart(p.Text), nil
	}

	dataURL := "data:" + p.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
	if strings.HasPrefix(p.MIMEType, "image/") {
		return openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}), nil
	}
	if p.MIMEType != "application/pdf" {
		return openai.ChatCompletionContentPartUnionParam{}, fmt.Errorf("%w: %s", ErrUnsupportedAttachment, p.MIMEType)
	}
	return openai.FileContentPart(openai.ChatCompletionContentPartFileFileParam{
		FileData: openai.String(dataURL),
		Filename: openai.String(p.Filename),
	}), nil
}
