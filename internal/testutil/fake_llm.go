// Package testutil holds fakes shared by package tests.
package testutil

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/khoahotran/billing-extractor/internal/application/registry"
	"github.com/khoahotran/billing-extractor/internal/application/service"
	"github.com/khoahotran/billing-extractor/internal/config"
)

// FakeLLM returns canned answers and records every request it receives.
type FakeLLM struct {
	mu sync.Mutex

	Text   string
	Object string
	Err    error

	TextCalls   []service.GenerateRequest
	ObjectCalls []service.GenerateRequest
	Schemas     []service.OutputSchema
}

func (f *FakeLLM) GenerateText(_ context.Context, req service.GenerateRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TextCalls = append(f.TextCalls, req)
	if f.Err != nil {
		return "", f.Err
	}
	return f.Text, nil
}

func (f *FakeLLM) GenerateObject(_ context.Context, req service.GenerateRequest, schema service.OutputSchema) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ObjectCalls = append(f.ObjectCalls, req)
	f.Schemas = append(f.Schemas, schema)
	if f.Err != nil {
		return nil, f.Err
	}
	return json.RawMessage(f.Object), nil
}

func (f *FakeLLM) ObjectCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ObjectCalls)
}

// NewRegistry registers llm as the default model.
func NewRegistry(llm service.LLMService) *registry.Registry {
	r, err := registry.New(registry.NewHandle(config.DefaultModelName, "fake", "fake-model", llm))
	if err != nil {
		panic(err)
	}
	return r
}

// MinimalPDF is enough for content sniffing to report application/pdf. It is
// not a structurally valid PDF.
var MinimalPDF = []byte("%PDF-1.4\n1 0 obj << /Type /Catalog >> endobj\ntrailer << /Root 1 0 R >>\n%%EOF\n")
