package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	chatUC "github.com/khoahotran/billing-extractor/internal/application/usecase/chat"
	"github.com/khoahotran/billing-extractor/pkg/logger"
)

type ChatHandler struct {
	chatUseCase *chatUC.ChatUseCase
	logger      logger.Logger
}

func NewChatHandler(uc *chatUC.ChatUseCase, log logger.Logger) *ChatHandler {
	return &ChatHandler{
		chatUseCase: uc,
		logger:      log,
	}
}

// Chat ignores the request body: the conversation turn is fixed.
func (h *ChatHandler) Chat(c *gin.Context) {
	output, err := h.chatUseCase.Execute(c.Request.Context(), chatUC.ChatInput{
		RequestID: GetRequestID(c),
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.String(http.StatusOK, output.Response)
}
