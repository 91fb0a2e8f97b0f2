package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/billing-extractor/internal/application/service"
	"github.com/khoahotran/billing-extractor/pkg/apperror"
	"github.com/khoahotran/billing-extractor/pkg/logger"
)

const (
	GinContextKeyRequestID = "requestID"
	HeaderRequestID        = "X-Request-ID"
)

func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.New().String()
		}
		c.Set(GinContextKeyRequestID, requestID)
		c.Header(HeaderRequestID, requestID)
		c.Next()
	}
}

func GetRequestID(c *gin.Context) string {
	return c.GetString(GinContextKeyRequestID)
}

func RequestLoggerMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("HTTP request",
			zap.String("request_id", GetRequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// ErrorMiddleware renders the last error pushed with c.Error as a JSON body.
func ErrorMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		status := apperror.ToHTTPStatus(err)

		body := ErrorResponse{
			Error:     apperror.Kind(err),
			Message:   "An internal server error occurred",
			RequestID: GetRequestID(c),
		}
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			body.Message = appErr.Message
		}

		if status >= http.StatusInternalServerError {
			log.Error("Request failed", err, zap.String("request_id", body.RequestID), zap.Int("status", status))
		} else {
			log.Warn("Request rejected", zap.Error(err), zap.String("request_id", body.RequestID), zap.Int("status", status))
		}

		if !c.Writer.Written() {
			c.AbortWithStatusJSON(status, body)
		}
	}
}

// RateLimitMiddleware counts requests per client IP. If the limiter backend is
// unavailable the request is let through.
func RateLimitMiddleware(limiter service.RateLimiter, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, retryAfter, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			log.Warn("Rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			seconds := int(retryAfter.Round(time.Second) / time.Second)
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.Error(apperror.NewRateLimited("request quota for this client is exhausted"))
			c.Abort()
			return
		}
		c.Next()
	}
}
