// Worker consumes orphaned identity events from Kafka and deletes the identities
// from the authentication provider. Set KAFKA_BROKERS, ORPHAN_KAFKA_TOPIC and
// KAFKA_GROUP_ID. The local provider also needs DATABASE_URL.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/estevao-reis/juntos-por-mais/internal/app"
	"github.com/estevao-reis/juntos-por-mais/internal/config"
	"github.com/estevao-reis/juntos-por-mais/internal/logger"
	"github.com/estevao-reis/juntos-por-mais/internal/signup/orphan"
)

const maxAttempts = 3

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	brokers := cfg.KafkaBrokersList()
	if len(brokers) == 0 {
		log.Fatal("worker: KAFKA_BROKERS is required")
	}
	if cfg.AuthProvider == config.AuthProviderLocal && cfg.DatabaseURL == "" {
		log.Fatal("worker: DATABASE_URL is required with the local auth provider")
	}

	lg := logger.New(logger.Options{Service: "juntos-worker", Level: cfg.LogLevel})
	stores, err := app.OpenStores(cfg, lg)
	if err != nil {
		log.Fatalf("worker: stores: %v", err)
	}
	defer stores.Close()
	reconciler := orphan.NewReconciler(app.NewProvider(cfg, stores, lg), lg)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    cfg.OrphanKafkaTopic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
		MaxWait:  1 * time.Second,
	})
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		lg.Info("worker: shutting down")
		cancel()
	}()

	lg.Info("worker: consuming orphan events", "topic", cfg.OrphanKafkaTopic, "group", cfg.KafkaGroupID)

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				lg.Info("worker: stopped")
				return
			}
			lg.Error("worker: kafka read error", "error", err)
			continue
		}

		handle(ctx, reconciler, msg, lg)
		if ctx.Err() != nil {
			return
		}
		if err := reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			lg.Error("worker: commit failed", "offset", msg.Offset, "error", err)
		}
	}
}

// handle retries the reconcile with a linear backoff. Events still failing after
// maxAttempts are logged for manual cleanup and committed.
func handle(ctx context.Context, r *orphan.Reconciler, msg kafka.Message, lg *slog.Logger) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		callCtx, callCancel := context.WithTimeout(ctx, 10*time.Second)
		err := r.Handle(callCtx, msg.Value)
		callCancel()
		if err == nil {
			return
		}
		if attempt == maxAttempts {
			lg.Error("worker: orphan requires manual cleanup", "offset", msg.Offset, "payload", string(msg.Value), "error", err)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
}
