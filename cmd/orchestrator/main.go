// cmd/orchestrator/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"investor-research/internal/adapters/airtable"
	"investor-research/internal/adapters/apollo"
	"investor-research/internal/api"
	"investor-research/internal/calendar"
	commonaws "investor-research/internal/common/aws"
	"investor-research/internal/common/config"
	"investor-research/internal/common/database"
	"investor-research/internal/common/logger"
	"investor-research/internal/common/observability"
	"investor-research/internal/dispatch"
	"investor-research/internal/dispatch/csvexport"
	"investor-research/internal/dispatch/emaildraft"
	"investor-research/internal/dispatch/indexer"
	"investor-research/internal/dispatch/notify"
	"investor-research/internal/dispatch/project"
	"investor-research/internal/orchestrator"
	"investor-research/internal/parser"
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

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting investor research orchestrator...")

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

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
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	// --- External collaborators ---
	parserClient, err := parser.New(cfg.Parser, log)
	if err != nil {
		zapLog.Fatal("parser client failed", zap.Error(err))
	}

	primary := airtable.New(cfg.Adapters.Airtable, log)
	secondary := apollo.New(cfg.Adapters.Apollo, log, redisClient)
	calendarClient := calendar.New(cfg.Calendar, log)

	// --- Output dispatchers ---
	dispatchers := []dispatch.Dispatcher{
		csvexport.New(cfg.Export.Dir),
	}

	var sesClient *commonaws.SESClient
	if cfg.Integrations.AWS.SES.Enabled {
		sesClient, err = commonaws.NewSESClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
	}
	if sesClient != nil {
		dispatchers = append(dispatchers, emaildraft.New(
			cfg.Integrations.AWS.SES.FromEmail,
			cfg.Integrations.AWS.SES.ToEmail,
			calendarClient, sesClient, log,
		))
	} else {
		// Draft-only mode: no sending, availability still attached.
		dispatchers = append(dispatchers, emaildraft.New("", "", calendarClient, nil, log))
	}

	dispatchers = append(dispatchers,
		project.New(pg),
		indexer.New(esClient, cfg.Database.Elasticsearch.Index),
	)

	var notifier *notify.Notifier
	if cfg.Integrations.AWS.SNS.Enabled {
		snsClient, err := commonaws.NewSNSClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		notifier = notify.New(snsClient, cfg.Integrations.AWS.SNS.TopicARN, log)
	}

	zapLog.Info("All external service clients initialized")

	// --- Orchestrator ---
	registry := orchestrator.NewRegistry(log, redisClient,
		time.Duration(cfg.Runs.SnapshotTTL)*time.Second)

	params := orchestrator.Params{
		MaxQueryLength:   cfg.Runs.MaxQueryLength,
		MaxResults:       cfg.Runs.MaxResults,
		Parser:           parserClient,
		Primary:          primary,
		Secondary:        secondary,
		PrimaryTimeout:   config.GetDuration(cfg.Adapters.Airtable.Timeout),
		SecondaryTimeout: config.GetDuration(cfg.Adapters.Apollo.Timeout),
		Dispatchers:      dispatchers,
		Registry:         registry,
		Logger:           log,
		Observability:    obs,
	}
	if notifier != nil {
		params.Notifier = notifier
	}

	orch := orchestrator.New(params)

	// --- HTTP server ---
	server := api.NewServer(cfg.Server, orch, secondary, log)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	zapLog.Info("Orchestrator started",
		zap.String("address", cfg.Server.Address),
		zap.String("environment", cfg.App.Environment),
	)

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLog.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http shutdown failed", zap.Error(err))
	}

	zapLog.Info("Shutdown complete")
}
