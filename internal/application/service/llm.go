package service

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrAttachmentRejected is returned by an LLMService before any provider call
// when an attachment cannot be sent to the model at all.
var ErrAttachmentRejected = errors.New("attachment rejected")

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Part is one piece of message content: either text or a binary attachment.
type Part struct {
	Text     string
	Data     []byte
	MIMEType string
	Filename string
}

func (p Part) IsFile() bool {
	return len(p.Data) > 0
}

func TextPart(text string) Part {
	return Part{Text: text}
}

func FilePart(data []byte, mimeType, filename string) Part {
	return Part{Data: data, MIMEType: mimeType, Filename: filename}
}

type Message struct {
	Role  Role
	Parts []Part
}

func UserText(text string) Message {
	return Message{Role: RoleUser, Parts: []Part{TextPart(text)}}
}

type GenerateRequest struct {
	System      string
	Messages    []Message
	Temperature float64
}

// OutputSchema is a JSON Schema document the provider must conform to.
type OutputSchema struct {
	Name        string
	Description string
	JSON        json.RawMessage
}

// LLMService is the capability a model handle exposes. GenerateObject returns
// the raw JSON produced under the schema constraint; callers validate it.
type LLMService interface {
	GenerateText(ctx context.Context, req GenerateRequest) (string, error)
	GenerateObject(ctx context.Context, req GenerateRequest, schema OutputSchema) (json.RawMessage, error)
}
