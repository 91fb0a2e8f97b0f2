// Package llm holds the model provider clients behind service.LLMService.
package llm

import (
	"fmt"
	"strings"

	"github.com/khoahotran/billing-extractor/internal/application/service"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

var ErrUnsupportedAttachment = fmt.Errorf("unsupported attachment type: %w", service.ErrAttachmentRejected)

func joinText(parts []service.Part) string {
	texts := make([]string, 0, len(parts))
	for _, p := range parts {
		if !p.IsFile() && p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n\n")
}
