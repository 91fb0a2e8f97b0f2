// Package bootstrap wires the pieces shared by the server and the CLI.
package bootstrap

import (
	"fmt"

	"github.com/khoahotran/billing-extractor/adapters/document"
	"github.com/khoahotran/billing-extractor/adapters/llm"
	"github.com/khoahotran/billing-extractor/internal/application/registry"
	"github.com/khoahotran/billing-extractor/internal/application/schema"
	"github.com/khoahotran/billing-extractor/internal/application/service"
	extractionUC "github.com/khoahotran/billing-extractor/internal/application/usecase/extraction"
	"github.com/khoahotran/billing-extractor/internal/config"
	"github.com/khoahotran/billing-extractor/internal/prompts"
	"github.com/khoahotran/billing-extractor/pkg/logger"
)

type Core struct {
	Models    *registry.Registry
	Codec     *schema.Codec
	Documents service.DocumentSource
}

// NewCore builds the model registry, the billing schema codec and the
// document source. A registry error here means the process must not serve.
func NewCore(cfg config.Config, log logger.Logger) (*Core, error) {
	models, err := registry.FromConfig(cfg, llm.NewFactory(cfg, log), log)
	if err != nil {
		return nil, err
	}

	codec, err := schema.NewCodec(prompts.BillingSchema())
	if err != nil {
		return nil, fmt.Errorf("billing schema: %w", err)
	}

	var pages document.PageCounter
	if cfg.Extraction.InspectPDF {
		pages = document.PDFCPUPageCounter{}
	}

	return &Core{
		Models:    models,
		Codec:     codec,
		Documents: document.NewFileSource(pages, log),
	}, nil
}

func (c *Core) ExtractUseCase(cfg config.Config, publisher service.EventPublisher, log logger.Logger) *extractionUC.ExtractUseCase {
	return extractionUC.NewExtractUseCase(
		c.Models,
		c.Documents,
		c.Codec,
		publisher,
		extractionUC.Options{
			DocumentPath: cfg.Extraction.DocumentPath,
			Prompt:       extractionUC.DefaultPrompt(),
		},
		log,
	)
}
