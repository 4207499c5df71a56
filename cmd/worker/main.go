package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/steelhub/parts-matcher/internal/bootstrap"
	"github.com/steelhub/parts-matcher/internal/config"
	"github.com/steelhub/parts-matcher/internal/core/domain"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, "parts-matcher-worker", cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", app.Metrics.Handler())
		log.Printf("worker metrics on :%s", cfg.WorkerMetricsPort)
		if err := http.ListenAndServe(":"+cfg.WorkerMetricsPort, mux); err != nil && err != http.ErrServerClosed {
			log.Printf("worker metrics server error: %v", err)
		}
	}()

	log.Printf("worker subscribed to %s", cfg.NATSSubject)
	err = app.Queue.SubscribeMatchRequested(ctx, func(handlerCtx context.Context, orderID string) error {
		jobCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()
		return matchOrder(jobCtx, app, orderID)
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}

// matchOrder loads an uploaded order's line items, runs the batch match, and
// persists the outcome.
func matchOrder(ctx context.Context, app *bootstrap.App, orderID string) error {
	if err := app.Orders.UpdateOrderStatus(ctx, orderID, domain.OrderStatusMatching, ""); err != nil {
		return fmt.Errorf("set status=matching: %w", err)
	}

	items, err := app.Orders.ListLineItems(ctx, orderID)
	if err != nil {
		return markFailed(ctx, app, orderID, fmt.Errorf("load line items: %w", err))
	}

	result, err := app.Matcher.FindMatches(ctx, items)
	if err != nil {
		return markFailed(ctx, app, orderID, fmt.Errorf("find matches: %w", err))
	}

	if err := app.Results.SaveBatchResult(ctx, orderID, result); err != nil {
		return markFailed(ctx, app, orderID, fmt.Errorf("save batch result: %w", err))
	}
	app.Metrics.ObserveBatchConfidence(result.Confidence)

	if err := app.Orders.UpdateOrderStatus(ctx, orderID, domain.OrderStatusMatched, ""); err != nil {
		return fmt.Errorf("set status=matched: %w", err)
	}
	return nil
}

func markFailed(ctx context.Context, app *bootstrap.App, orderID string, jobErr error) error {
	if statusErr := app.Orders.UpdateOrderStatus(ctx, orderID, domain.OrderStatusFailed, jobErr.Error()); statusErr != nil {
		return fmt.Errorf("%w; mark failed status: %v", jobErr, statusErr)
	}
	return jobErr
}
