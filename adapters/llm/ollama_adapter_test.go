package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/billing-extractor/internal/application/service"
	"github.com/khoahotran/billing-extractor/pkg/logger"
)

func newOllamaTestServer(t *testing.T, body string, payload *map[string]any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		if payload != nil {
			if err := json.Unmarshal(raw, payload); err != nil {
				t.Errorf("unmarshal body: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestOllamaAdapter(t *testing.T, host string) service.LLMService {
	t.Helper()
	adapter, err := NewOllamaLLMAdapter(OllamaConfig{Host: host, Model: "phi3:mini"}, logger.NewNopLogger())
	require.NoError(t, err)
	return adapter
}

func TestOllamaGenerateText(t *testing.T) {
	var payload map[string]any
	server := newOllamaTestServer(t, chatCompletionBody("Hello there"), &payload)
	adapter := newTestOllamaAdapter(t, server.URL)

	text, err := adapter.GenerateText(context.Background(), service.GenerateRequest{
		System:   "Be brief.",
		Messages: []service.Message{service.UserText("Oi mate!")},
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello there", text)
	assert.Equal(t, "phi3:mini", payload["model"])

	temperature, ok := payload["temperature"].(float64)
	require.True(t, ok, "temperature must be sent even when zero is requested")
	assert.Less(t, temperature, 1e-6)

	messages := payload["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "Oi mate!", messages[1].(map[string]any)["content"])
}

func TestOllamaGenerateObjectSetsResponseFormat(t *testing.T) {
	var payload map[string]any
	answer := `{"billingPeriod":null,"billingTerm":null,"contractAmount":null}`
	server := newOllamaTestServer(t, chatCompletionBody(answer), &payload)
	adapter := newTestOllamaAdapter(t, server.URL)

	out, err := adapter.GenerateObject(context.Background(), service.GenerateRequest{
		Messages: []service.Message{service.UserText("Extract.")},
	}, service.OutputSchema{
		Name: "contract_billing",
		JSON: json.RawMessage(`{"type":"object"}`),
	})
	require.NoError(t, err)
	assert.JSONEq(t, answer, string(out))

	format := payload["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
	jsonSchema := format["json_schema"].(map[string]any)
	assert.Equal(t, "contract_billing", jsonSchema["name"])
	assert.Equal(t, map[string]any{"type": "object"}, jsonSchema["schema"])
}

func TestOllamaNoChoices(t *testing.T) {
	server := newOllamaTestServer(t, `{"id":"x","object":"chat.completion","choices":[]}`, nil)
	adapter := newTestOllamaAdapter(t, server.URL)

	_, err := adapter.GenerateText(context.Background(), service.GenerateRequest{
		Messages: []service.Message{service.UserText("Oi mate!")},
	})

	assert.ErrorContains(t, err, "no chat choices")
}

func TestOllamaRejectsUnreadablePDF(t *testing.T) {
	adapter := newTestOllamaAdapter(t, "http://127.0.0.1:0")

	_, err := adapter.GenerateText(context.Background(), service.GenerateRequest{
		Messages: []service.Message{{
			Role:  service.RoleUser,
			Parts: []service.Part{service.FilePart([]byte("not a pdf at all"), "application/pdf", "contract.pdf")},
		}},
	})

	assert.ErrorContains(t, err, "cannot inline contract.pdf")
	assert.ErrorIs(t, err, service.ErrAttachmentRejected)
}

func TestOllamaRejectsUnsupportedAttachment(t *testing.T) {
	adapter := newTestOllamaAdapter(t, "http://127.0.0.1:0")

	_, err := adapter.GenerateText(context.Background(), service.GenerateRequest{
		Messages: []service.Message{{
			Role:  service.RoleUser,
			Parts: []service.Part{service.FilePart([]byte("<xml/>"), "application/xml", "a.xml")},
		}},
	})

	assert.ErrorIs(t, err, ErrUnsupportedAttachment)
	assert.ErrorIs(t, err, service.ErrAttachmentRejected)
}

func TestNewOllamaLLMAdapterRequiresHost(t *testing.T) {
	_, err := NewOllamaLLMAdapter(OllamaConfig{Model: "phi3:mini"}, logger.NewNopLogger())
	assert.ErrorContains(t, err, "Host is not configured")
}
