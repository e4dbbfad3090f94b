// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.uber.org/zap"

	"concierge-workers/internal/assistant/gaps"
	"concierge-workers/internal/common/aws"
	"concierge-workers/internal/common/camunda"
	"concierge-workers/internal/common/config"
	"concierge-workers/internal/common/database"
	"concierge-workers/internal/common/logger"
	"concierge-workers/internal/common/observability"
	"concierge-workers/internal/scheme"

	ne "concierge-workers/internal/workers/assistant/notify-emergency-escalation"
	rag "concierge-workers/internal/workers/assistant/record-assistant-gap"
	rp "concierge-workers/internal/workers/assistant/render-playbook"
	re "concierge-workers/internal/workers/assistant/route-escalation"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func timeout(wcfg config.WorkerConfig) time.Duration {
	return config.GetDuration(wcfg.Timeout)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"env":     cfg.App.Environment,
	})

	zapLog.Info("Starting worker manager...", zap.String("version", cfg.App.Version))

	obs := observability.New(cfg.App.Name, log)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: cfg.Camunda.Plaintext,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()

	if err := pg.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("postgres schema setup failed", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init SNS ---
	var snsAPI aws.SNSAPI
	if cfg.Notifications.SNS.Enabled {
		client, err := aws.NewSNSClient(ctx, cfg.Notifications.SNS.Region)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		snsAPI = client
		zapLog.Info("SNS client initialized", zap.String("region", cfg.Notifications.SNS.Region))
	}

	profiles := scheme.NewStore(pg.DB)
	gapStore := gaps.NewStore(pg.DB)

	// --- Register Workers ---
	var workers []worker.JobWorker
	start := func(taskType string, handler worker.JobHandler) {
		jw := camunda.StartWorker(zeebe.GetClient(), taskType, config.GetWorkerConfig(cfg, taskType), handler, log)
		if jw != nil {
			workers = append(workers, jw)
		}
	}

	{
		wcfg := config.GetWorkerConfig(cfg, re.TaskType)
		handler := re.NewHandler(&re.Config{
			Enabled: cfg.Assistant.ConciergeEscalation,
			Timeout: timeout(wcfg),
		}, profiles, obs, log)
		start(re.TaskType, handler.Handle)
	}

	{
		wcfg := config.GetWorkerConfig(cfg, rp.TaskType)
		handler := rp.NewHandler(&rp.Config{Timeout: timeout(wcfg)}, profiles, obs, log)
		start(rp.TaskType, handler.Handle)
	}

	{
		wcfg := config.GetWorkerConfig(cfg, rag.TaskType)
		handler := rag.NewHandler(&rag.Config{Timeout: timeout(wcfg)}, gapStore, obs, log)
		start(rag.TaskType, handler.Handle)
	}

	{
		wcfg := config.GetWorkerConfig(cfg, ne.TaskType)
		handler := ne.NewHandler(&ne.Config{
			Enabled:      cfg.Notifications.SNS.Enabled,
			TopicARN:     cfg.Notifications.SNS.EmergencyTopicARN,
			DedupeWindow: cfg.Assistant.DedupeWindow(),
			Timeout:      timeout(wcfg),
		}, rdb.GetClient(), snsAPI, obs, log)
		start(ne.TaskType, handler.Handle)
	}

	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	srv := &http.Server{
		Addr: cfg.Server.Address,
		Handler: newRouter(routerDeps{
			checks: map[string]func(context.Context) error{
				"zeebe":    zeebe.HealthCheck,
				"postgres": pg.Ping,
				"redis":    rdb.Ping,
			},
			gaps:   gapStore,
			logger: log,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, jw := range workers {
		jw.Close()
		jw.AwaitClose()
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping Health/Metrics server", zap.Error(err))
	}

	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
