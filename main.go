package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/riskwatch/risk-engine/pkg/cache"
	"github.com/riskwatch/risk-engine/pkg/cloud"
	"github.com/riskwatch/risk-engine/pkg/config"
	"github.com/riskwatch/risk-engine/pkg/handlers"
	"github.com/riskwatch/risk-engine/pkg/ingest"
	"github.com/riskwatch/risk-engine/pkg/logging"
	"github.com/riskwatch/risk-engine/pkg/middleware"
	"github.com/riskwatch/risk-engine/pkg/retry"
	"github.com/riskwatch/risk-engine/pkg/rules"
	"github.com/riskwatch/risk-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("cloud_provider", cfg.Cloud.Provider),
		zap.Bool("cloud_configured", cfg.Cloud.IsAvailable()),
		zap.Bool("redis_configured", cfg.Redis.Host != ""))

	ruleset := loadRuleset(cfg, logger)
	profileCache := buildCache(cfg, logger)
	remote := buildRemoteClassifier(cfg, logger)

	service := services.NewAssessmentService(
		services.NewKeywordGate(ruleset, logger),
		services.NewEscalationPolicy(),
		remote,
		services.NewFuser(logger),
		services.NewAggregator(cfg.Pipeline.CacheTTL(), logger),
		profileCache,
		cloud.NewWorkerPool(cloud.WorkerPoolConfig{MaxConcurrent: cfg.Cloud.MaxConcurrent}, logger),
		cfg.Pipeline.CacheTTL(),
		logger,
	)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewAssessHandler(service, ingest.NewNormalizer(logger), logger).RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting risk-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version),
		zap.String("ruleset_version", ruleset.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// loadRuleset reads the configured keyword ruleset, falling back to the
// embedded default when no path is set. A configured-but-broken ruleset is
// fatal; silently running with different rules would poison cached verdicts.
func loadRuleset(cfg *config.Config, logger *zap.Logger) *rules.Set {
	if cfg.Pipeline.RulesetPath == "" {
		return rules.Default()
	}
	set, err := rules.Load(cfg.Pipeline.RulesetPath)
	if err != nil {
		logger.Fatal("Failed to load ruleset",
			zap.String("path", cfg.Pipeline.RulesetPath),
			zap.Error(err))
	}
	logger.Info("Loaded ruleset",
		zap.String("path", cfg.Pipeline.RulesetPath),
		zap.String("version", set.Version))
	return set
}

// buildCache connects to Redis when configured, with startup retries for
// slow container orchestration. Without Redis (or when the connection never
// comes up) the engine runs on the in-process cache.
func buildCache(cfg *config.Config, logger *zap.Logger) cache.ProfileCache {
	if cfg.Redis.Host == "" {
		logger.Info("No Redis configured, using in-process cache")
		return cache.NewMemoryCache()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*redis.Client, error) {
		return cache.NewRedisClient(ctx, &cfg.Redis)
	})
	if err != nil {
		logger.Warn("Redis unreachable, falling back to in-process cache",
			zap.String("host", logging.SanitizeConnectionString(cfg.Redis.Host)),
			zap.Error(err))
		return cache.NewMemoryCache()
	}

	logger.Info("Connected to Redis cache", zap.String("host", cfg.Redis.Host))
	return cache.NewRedisCache(client, logger)
}

// buildRemoteClassifier assembles the escalation path: provider client,
// circuit breaker, per-call timeout, and optional caller-side retries.
// Returns nil when no provider is configured; escalations then degrade to
// local fallback verdicts.
func buildRemoteClassifier(cfg *config.Config, logger *zap.Logger) services.CloudClassifier {
	if !cfg.Cloud.IsAvailable() {
		logger.Warn("No cloud classifier configured, low-confidence verdicts will degrade to fallback templates")
		return nil
	}

	client, err := cloud.NewClient(&cfg.Cloud, logger)
	if err != nil {
		logger.Fatal("Failed to build cloud client", zap.Error(err))
	}

	breaker := cloud.NewCircuitBreaker(cloud.DefaultCircuitBreakerConfig())
	classifier := services.NewCloudClassifier(client, breaker, cfg.Cloud.Timeout(), logger)
	return services.WithRetry(classifier, cfg.Pipeline.EscalationRetries, logger)
}
