package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khoahotran/billing-extractor/internal/application/registry"
	"github.com/khoahotran/billing-extractor/internal/application/service"
	"github.com/khoahotran/billing-extractor/pkg/logger"
)

type RouterDeps struct {
	Models            *registry.Registry
	ChatHandler       *ChatHandler
	ExtractionHandler *ExtractionHandler
	// RateLimiter is optional; nil disables limiting of the model routes.
	RateLimiter service.RateLimiter
	// TrustedProxies may rewrite the client IP through X-Forwarded-For.
	// Nil trusts no proxy.
	TrustedProxies []string
	Logger         logger.Logger
}

func NewRouter(deps RouterDeps) (*gin.Engine, error) {
	router := gin.New()
	if err := router.SetTrustedProxies(deps.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	router.Use(
		gin.Recovery(),
		RequestIDMiddleware(),
		RequestLoggerMiddleware(deps.Logger),
		ErrorMiddleware(deps.Logger),
	)

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Hello Hono!")
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, HealthResponse{Status: "UP", Models: deps.Models.Names()})
	})

	ai := router.Group("/")
	if deps.RateLimiter != nil {
		ai.Use(RateLimitMiddleware(deps.RateLimiter, deps.Logger))
	}
	{
		ai.POST("/simple-ai-example", deps.ChatHandler.Chat)
		ai.POST("/process", deps.ExtractionHandler.Process)
	}

	return router, nil
}
