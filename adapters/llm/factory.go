package llm

import (
	"fmt"

	"github.com/khoahotran/billing-extractor/internal/application/service"
	"github.com/khoahotran/billing-extractor/internal/config"
	"github.com/khoahotran/billing-extractor/pkg/apperror"
	"github.com/khoahotran/billing-extractor/pkg/logger"
)

// Factory builds provider clients from the process configuration. It
// satisfies registry.ProviderFactory.
type Factory struct {
	cfg config.Config
	log logger.Logger
}

func NewFactory(cfg config.Config, log logger.Logger) *Factory {
	return &Factory{cfg: cfg, log: log}
}

func (f *Factory) New(provider, model string) (service.LLMService, error) {
	switch provider {
	case ProviderOpenAI:
		if f.cfg.OpenAI.APIKey == "" {
			return nil, apperror.NewConfiguration("OPENAI_API_KEY is not set", nil)
		}
		client, err := NewOpenAIAdapter(OpenAIConfig{
			APIKey:  f.cfg.OpenAI.APIKey,
			BaseURL: f.cfg.OpenAI.BaseURL,
			Model:   model,
			Timeout: f.cfg.OpenAI.Timeout,
		}, f.log)
		if err != nil {
			return nil, apperror.NewConfiguration("cannot build openai client", err)
		}
		return client, nil
	case ProviderOllama:
		if f.cfg.Ollama.Host == "" {
			return nil, apperror.NewConfiguration("OLLAMA_HOST is not set", nil)
		}
		client, err := NewOllamaLLMAdapter(OllamaConfig{Host: f.cfg.Ollama.Host, Model: model}, f.log)
		if err != nil {
			return nil, apperror.NewConfiguration("cannot build ollama client", err)
		}
		return client, nil
	default:
		return nil, apperror.NewConfiguration(fmt.Sprintf("unknown provider '%s'", provider), nil)
	}
}
