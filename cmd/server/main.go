package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khoahotran/billing-extractor/adapters/event"
	httpAdapter "github.com/khoahotran/billing-extractor/adapters/http"
	"github.com/khoahotran/billing-extractor/adapters/persistence"
	"github.com/khoahotran/billing-extractor/internal/application/service"
	chatUC "github.com/khoahotran/billing-extractor/internal/application/usecase/chat"
	"github.com/khoahotran/billing-extractor/internal/bootstrap"
	"github.com/khoahotran/billing-extractor/internal/config"
	"github.com/khoahotran/billing-extractor/pkg/logger"
	"github.com/khoahotran/billing-extractor/pkg/tracing"
)

func main() {
	fmt.Println("Start Billing Extractor API Server...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: cannot load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(cfg, appLogger, "billing-extractor-api")
	if err != nil {
		appLogger.Fatal("cannot init tracing", err)
	}

	// Model registry, schema codec, document source
	core, err := bootstrap.NewCore(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("cannot build model registry", err)
	}

	// Optional infrastructure
	var publisher service.EventPublisher = service.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaClient, err := event.NewKafkaProducerClient(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("cannot init Kafka", err)
		}
		defer kafkaClient.Close()
		publisher = kafkaClient
	}

	var limiter service.RateLimiter
	if cfg.Redis.Addr != "" {
		redisClient, err := persistence.NewRedisClient(ctx, cfg, appLogger)
		if err != nil {
			appLogger.Fatal("cannot connect Redis", err)
		}
		defer redisClient.Close()
		limiter = persistence.NewRedisRateLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	// Use Cases
	chatUseCase := chatUC.NewChatUseCase(core.Models, appLogger)
	extractUseCase := core.ExtractUseCase(cfg, publisher, appLogger)

	// HTTP Handlers
	chatHandler := httpAdapter.NewChatHandler(chatUseCase, appLogger)
	extractionHandler := httpAdapter.NewExtractionHandler(extractUseCase, appLogger)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := httpAdapter.NewRouter(httpAdapter.RouterDeps{
		Models:            core.Models,
		ChatHandler:       chatHandler,
		ExtractionHandler: extractionHandler,
		RateLimiter:       limiter,
		TrustedProxies:    cfg.App.TrustedProxies,
		Logger:            appLogger,
	})
	if err != nil {
		appLogger.Fatal("cannot build router", err)
	}

	listener, err := net.Listen("tcp", ":"+cfg.App.Port)
	if err != nil {
		appLogger.Fatal("cannot bind port", err, zap.String("port", cfg.App.Port))
	}
	port := listener.Addr().(*net.TCPAddr).Port

	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		announce(os.Stdout, appLogger, port)
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Cannot run server", err)
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server shutdown failed", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		appLogger.Error("Tracer shutdown failed", err)
	}
}

// announce prints the bound address to w (stdout in production) and logs it.
func announce(w io.Writer, log logger.Logger, port int) {
	msg := fmt.Sprintf("Server is running on http://localhost:%d", port)
	fmt.Fprintln(w, msg)
	log.Info(msg, zap.Int("port", port))
}
