package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/document-chat/internal/bootstrap"
	"github.com/kirillkom/document-chat/internal/config"
	"github.com/kirillkom/document-chat/internal/observability/logging"
)

const pipelineRunTimeout = 5 * time.Minute

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("document-chat", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      app.Handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	// Pipeline subscriber runs in-process; each message is dispatched to the
	// bounded worker pool so the subscription callback never blocks.
	go func() {
		logger.Info("pipeline_subscribed", "subject", cfg.NATSSubject)
		err := app.Queue.SubscribeVectorize(ctx, func(handlerCtx context.Context, documentID string) {
			submitErr := app.Pool.Submit(func() {
				runCtx, cancel := context.WithTimeout(handlerCtx, pipelineRunTimeout)
				defer cancel()
				if runErr := app.Vectorizer.Run(runCtx, documentID); runErr != nil {
					logger.Error("pipeline_dispatch_failed", "document_id", documentID, "error", runErr)
				}
			})
			if submitErr != nil {
				logger.Error("pipeline_submit_failed", "document_id", documentID, "error", submitErr)
			}
		})
		if err != nil && ctx.Err() == nil {
			logger.Error("pipeline_subscribe_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("api_shutdown_error", "error", err)
	}
	logger.Info("server_stopped")
}
