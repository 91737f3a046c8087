package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/document-triage/internal/bootstrap"
	"github.com/kirillkom/document-triage/internal/config"
	"github.com/kirillkom/document-triage/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("classify-worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Service:      "classify-worker",
		Mode:         bootstrap.ModeWorker,
		ConnectQueue: true,
	})
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	mux := http.NewServeMux()
	mux.Handle("/metrics", app.Metrics.Handler())
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: mux,
	}
	go func() {
		slog.Info("metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("metrics server error: %v", err)
		}
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeClassifyRequested(ctx, func(handlerCtx context.Context, documentID string) error {
		taxonomy, err := app.Taxonomies.ListEntries(handlerCtx)
		if err != nil {
			return err
		}

		processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		app.Metrics.StartDocument()
		started := time.Now()
		_, err = app.ClassifyUC.ProcessByID(processCtx, documentID, taxonomy)
		status := "success"
		if err != nil {
			status = "error"
		}
		app.Metrics.FinishDocument(status, time.Since(started))
		return err
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("metrics_shutdown_error", "error", err)
	}
}
