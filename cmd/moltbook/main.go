package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mereck/moltbook/internal/agent"
	agentconfig "github.com/mereck/moltbook/internal/config"
	"github.com/mereck/moltbook/internal/moltbook"
	"github.com/mereck/moltbook/pkg/llm"
	"github.com/mereck/moltbook/pkg/logging"
	"github.com/mereck/moltbook/pkg/monitoring"
	"github.com/mereck/moltbook/pkg/server"
	"github.com/mereck/moltbook/pkg/version"

	pkgconfig "github.com/mereck/moltbook/pkg/config"
)

const serviceName = "moltbook-agent"

const (
	llmWaitRetries  = 60
	llmWaitInterval = 5 * time.Second
)

func main() {
	logger := logging.NewLoggerWithService(serviceName)
	pkgconfig.LoadEnv(logger)

	logger.WithFields(logging.Fields{
		"version": version.Version,
		"commit":  version.GetShortCommit(),
	}).Info("Starting moltbook agent")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := agentconfig.Load(logger)
	if err != nil {
		logger.WithError(err).Error("Invalid configuration")
		os.Exit(1)
	}

	llmCfg := llm.LoadConfig()
	provider, err := llm.NewProvider(llmCfg)
	if err != nil {
		logger.WithError(err).Error("Invalid LLM configuration")
		os.Exit(1)
	}

	if err := waitForLLM(ctx, provider, logger); err != nil {
		if ctx.Err() != nil {
			logger.Info("Interrupted while waiting for LLM backend")
			return
		}
		logger.WithError(err).Error("LLM backend never became reachable")
		os.Exit(1)
	}

	client := moltbook.NewClient(cfg.BaseURL, cfg.APIKey, logger)

	profile, err := client.Me(ctx)
	if err != nil {
		logger.WithError(err).Error("API key verification failed")
		os.Exit(1)
	}
	if profile != nil {
		logger.WithField("username", profile.Username).Info("Authenticated with moltbook")
	} else {
		logger.Warn("Could not verify API key due to rate limiting, continuing")
	}

	healthChecker := monitoring.NewHealthChecker(serviceName, version.Version)
	healthChecker.AddCheck("configuration", monitoring.ConfigurationHealthCheck(map[string]string{
		"MOLTBOOK_API_KEY": cfg.APIKey,
	}))
	healthChecker.AddCheck("llm", monitoring.ProbeHealthCheck(llmCfg.Provider, provider.Probe))

	metrics := monitoring.NewMetricsCollector(serviceName, version.Version, version.GitCommit)

	router := server.SetupRouter(logger, serviceName)
	router.GET("/health", healthChecker.Handler())
	router.GET("/metrics", metrics.Handler())

	a := agent.New(agent.AgentConfig{
		Config:  cfg,
		API:     client,
		LLM:     provider,
		Logger:  logger,
		Metrics: agent.NewMetrics(metrics),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx, server.DefaultConfig(serviceName, "8080"), router, logger)
	})
	g.Go(func() error {
		a.Run(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("Shutdown with error")
		os.Exit(1)
	}
}

// waitForLLM blocks until the LLM backend answers a probe. Ollama in a
// sidecar can take a while to come up, so this retries for several minutes
// before giving up.
func waitForLLM(ctx context.Context, provider llm.Provider, logger logging.Logger) error {
	var lastErr error
	for attempt := 1; attempt <= llmWaitRetries; attempt++ {
		lastErr = provider.Probe(ctx)
		if lastErr == nil {
			logger.Info("LLM backend is reachable")
			return nil
		}

		logger.WithError(lastErr).WithField("attempt", attempt).Debug("LLM backend not ready")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(llmWaitInterval):
		}
	}
	return lastErr
}
