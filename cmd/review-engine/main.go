// cmd/review-engine/main.go
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"servicehub-reviews/internal/common/aws"
	"servicehub-reviews/internal/common/config"
	"servicehub-reviews/internal/common/database"
	commonhttp "servicehub-reviews/internal/common/http"
	"servicehub-reviews/internal/common/logger"
	"servicehub-reviews/internal/common/observability"

	sr "servicehub-reviews/internal/workers/review/submit-review"
	sum "servicehub-reviews/internal/workers/review/summarize-ratings"
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

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})

	zapLog.Info("Starting review engine...", zap.String("environment", cfg.App.Environment))

	var obsOpts []observability.Option
	if cfg.Tracing.Exporter == "log" {
		obsOpts = append(obsOpts, observability.WithLogExporter(log.WithFields(map[string]interface{}{"component": "tracing"})))
	}
	obs, err := observability.New(cfg.App.Name, obsOpts...)
	if err != nil {
		zapLog.Fatal("observability setup failed", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := obs.Shutdown(ctx); err != nil {
			zapLog.Warn("observability shutdown failed", zap.Error(err))
		}
	}()

	ctx := context.Background()

	var zeebeClient zbc.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	var pg *sql.DB
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.PingContext(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	rdb := database.NewRedis(cfg.Database.Redis)
	summaryCache := database.NewSummaryCache(rdb, cfg.SummaryTTL()).WithLogger(log)
	err = retryWithBackoff(func() error {
		return summaryCache.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// The search index is a secondary read model; the engine runs without it.
	var reviewIndex *database.ReviewIndex
	if len(cfg.Database.Elasticsearch.Addresses) > 0 {
		err = retryWithBackoff(func() error {
			es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			reviewIndex = database.NewReviewIndex(es, cfg.Database.Elasticsearch.Index)
			return reviewIndex.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Warn("elasticsearch unavailable, indexing disabled", zap.Error(err))
			reviewIndex = nil
		} else {
			zapLog.Info("Elasticsearch connected successfully")
		}
	}

	var publishers aws.Fanout
	if cfg.Notifications.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.SNS.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		publishers = append(publishers, aws.NewReviewPublisher(snsClient, cfg.Notifications.SNS.TopicARN, log))
	}
	if ses := cfg.Notifications.SES; ses.Enabled {
		sesClient, err := aws.NewSESClient(ctx, ses.Region)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
		publishers = append(publishers, aws.NewModerationMailer(sesClient, ses.From, ses.ModerationAddress, ses.AlertAtOrBelow, log))
	}

	store := commonhttp.NewReviewStoreClient(commonhttp.ReviewStoreOptions{
		BaseURL:   cfg.ReviewStore.BaseURL,
		AuthToken: cfg.ReviewStore.AuthToken,
		Timeout:   cfg.StoreTimeout(),
	}, log)

	zapLog.Info("All external service clients initialized")

	submitDeps := sr.Dependencies{
		Store:         store,
		Audit:         database.NewAuditLog(pg),
		Cache:         summaryCache,
		Observability: obs,
	}
	summaryDeps := sum.Dependencies{
		Store:         store,
		Cache:         summaryCache,
		Observability: obs,
	}
	// only assign non-nil pointers; a typed nil would pass the handlers' nil checks
	if reviewIndex != nil {
		submitDeps.Index = reviewIndex
		summaryDeps.Index = reviewIndex
	}
	if len(publishers) > 0 {
		submitDeps.Events = publishers
	}

	submitHandler := sr.NewHandler(sr.LoadConfig(cfg), submitDeps, log)
	startWorker(zeebeClient, sr.TaskType, config.GetWorkerConfig(cfg, sr.TaskType), submitHandler.Handle, zapLog)

	summaryHandler := sum.NewHandler(sum.LoadConfig(cfg), summaryDeps, log)
	startWorker(zeebeClient, sum.TaskType, config.GetWorkerConfig(cfg, sum.TaskType), summaryHandler.Handle, zapLog)

	zapLog.Info("Review workers registered")

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: healthMux(pg, rdb, reviewIndex),
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Review engine stopped gracefully")
}

func healthMux(pg *sql.DB, rdb *redis.Client, index *database.ReviewIndex) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{"postgres": "ok", "redis": "ok"}
		code := http.StatusOK
		if err := pg.PingContext(ctx); err != nil {
			checks["postgres"] = err.Error()
			code = http.StatusServiceUnavailable
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			checks["redis"] = err.Error()
			code = http.StatusServiceUnavailable
		}
		if index != nil {
			checks["elasticsearch"] = "ok"
			if err := index.Ping(ctx); err != nil {
				// degraded, not unready
				checks["elasticsearch"] = err.Error()
			}
		}
		checks["time"] = time.Now().Format(time.RFC3339)
		writeStatus(w, code, checks)
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeStatus(w http.ResponseWriter, code int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	client.NewJobWorker().
		JobType(taskType).
		Handler(handlerFunc).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}
