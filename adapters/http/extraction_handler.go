package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	extractionUC "github.com/khoahotran/billing-extractor/internal/application/usecase/extraction"
	"github.com/khoahotran/billing-extractor/pkg/logger"
)

type ExtractionHandler struct {
	extractUseCase *extractionUC.ExtractUseCase
	logger         logger.Logger
}

func NewExtractionHandler(uc *extractionUC.ExtractUseCase, log logger.Logger) *ExtractionHandler {
	return &ExtractionHandler{
		extractUseCase: uc,
		logger:         log,
	}
}

// Process extracts billing details from the configured contract. The request
// body is ignored.
func (h *ExtractionHandler) Process(c *gin.Context) {
	output, err := h.extractUseCase.Execute(c.Request.Context(), extractionUC.ExtractInput{
		RequestID: GetRequestID(c),
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, ToExtractionResponse(output.Result))
}
