package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/khoahotran/billing-extractor/internal/application/service"
	"github.com/khoahotran/billing-extractor/pkg/logger"
)

type OllamaConfig struct {
	Host  string
	Model string
}

type ollamaLLMAdapter struct {
	client *openai.Client
	model  string
	log    logger.Logger
}

// NewOllamaLLMAdapter talks to any OpenAI-compatible endpoint (Ollama, vLLM,
// LM Studio). Such backends do not take file parts, so PDF attachments are
// converted to text and inlined into the user turn.
func NewOllamaLLMAdapter(cfg OllamaConfig, log logger.Logger) (service.LLMService, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("ollama Host is not configured")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("ollama model is not configured")
	}

	config := openai.DefaultConfig("dummy-key")
	config.BaseURL = cfg.Host

	client := openai.NewClientWithConfig(config)

	log.Info("Ollama Chat (LLM) Adapter initialized", zap.String("host", cfg.Host), zap.String("model", cfg.Model))
	return &ollamaLLMAdapter{client: client, model: cfg.Model, log: log}, nil
}

func (a *ollamaLLMAdapter) GenerateText(ctx context.Context, req service.GenerateRequest) (string, error) {
	chatReq, err := a.buildRequest(req)
	if err != nil {
		return "", err
	}
	return a.complete(ctx, chatReq)
}

func (a *ollamaLLMAdapter) GenerateObject(ctx context.Context, req service.GenerateRequest, schema service.OutputSchema) (json.RawMessage, error) {
	chatReq, err := a.buildRequest(req)
	if err != nil {
		return nil, err
	}
	chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:        schema.Name,
			Description: schema.Description,
			Schema:      schema.JSON,
			Strict:      true,
		},
	}

	content, err := a.complete(ctx, chatReq)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(content), nil
}

func (a *ollamaLLMAdapter) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("ollama chat completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("ollama returned no chat choices")
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("ollama returned an empty completion")
	}

	a.log.Debug("Ollama completion received",
		zap.String("model", resp.Model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	return content, nil
}

func (a *ollamaLLMAdapter) buildRequest(req service.GenerateRequest) (openai.ChatCompletionRequest, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}

	for _, m := range req.Messages {
		msg, err := toOllamaMessage(m)
		if err != nil {
			return openai.ChatCompletionRequest{}, err
		}
		messages = append(messages, msg)
	}

	return openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    messages,
		Temperature: ollamaTemperature(req.Temperature),
		Stream:      false,
	}, nil
}

func toOllamaMessage(m service.Message) (openai.ChatCompletionMessage, error) {
	var role string
	switch m.Role {
	case service.RoleUser:
		role = openai.ChatMessageRoleUser
	case service.RoleAssistant:
		role = openai.ChatMessageRoleAssistant
	default:
		return openai.ChatCompletionMessage{}, fmt.Errorf("unsupported message role %q", m.Role)
	}

	var texts []string
	var images []openai.ChatMessagePart
	for _, p := range m.Parts {
		switch {
		case !p.IsFile():
			texts = append(texts, p.Text)
		case p.MIMEType == "application/pdf":
			body, err := pdfPlainText(p.Data)
			if err != nil {
				return openai.ChatCompletionMessage{}, fmt.Errorf("cannot inline %s: %w: %w", p.Filename, service.ErrAttachmentRejected, err)
			}
			texts = append(texts, fmt.Sprintf("--- Document: %s ---\n%s\n--- End of document ---", p.Filename, body))
		case strings.HasPrefix(p.MIMEType, "image/"):
			images = append(images, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL: "data:" + p.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(p.Data),
				},
			})
		default:
			return openai.ChatCompletionMessage{}, fmt.Errorf("%w: %s", ErrUnsupportedAttachment, p.MIMEType)
		}
	}

	text := strings.Join(texts, "\n\n")
	if len(images) == 0 {
		return openai.ChatCompletionMessage{Role: role, Content: text}, nil
	}

	parts := append([]openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: text}}, images...)
	return openai.ChatCompletionMessage{Role: role, MultiContent: parts}, nil
}

// go-openai drops a zero temperature from the payload, which makes the server
// fall back to its own default.
func ollamaTemperature(t float64) float32 {
	if t <= 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}
