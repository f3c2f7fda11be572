package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voxlab/promptforge/internal/config"
	"github.com/voxlab/promptforge/internal/llm"
	"github.com/voxlab/promptforge/internal/objectives"
	"github.com/voxlab/promptforge/internal/optimizer"
	"github.com/voxlab/promptforge/internal/store"
	"github.com/voxlab/promptforge/internal/voicemetrics"
)

// Version information (set via ldflags)
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var cfg *config.Config

// initDB opens the connection pool and ensures the schema exists.
func initDB(ctx context.Context) (*pgxpool.Pool, *store.Store, error) {
	if cfg.Database.URL == "" {
		return nil, nil, fmt.Errorf("PostgreSQL connection required. Set PROMPTFORGE_POSTGRES_URL or DATABASE_URL")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	poolConfig.ConnConfig.RuntimeParams["timezone"] = "UTC"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := store.New(pool)
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	return pool, s, nil
}

// buildOptimizer wires the generative client, objective rules and the voice
// metrics fetcher into an optimizer backed by the given store.
func buildOptimizer(s *store.Store) (*optimizer.Optimizer, *llm.Client, error) {
	client := llm.NewClient(llm.Config{
		Provider:    cfg.Generative.Provider,
		Endpoint:    cfg.Generative.Endpoint,
		APIKey:      cfg.Generative.APIKey,
		Model:       cfg.Generative.Model,
		MaxTokens:   cfg.Generative.MaxTokens,
		Temperature: cfg.Generative.Temperature,
		Timeout:     cfg.Generative.Timeout,
	})
	if cfg.Generative.APIKey == "" {
		slog.Warn("no generative API key configured, responses will be mocked")
	}

	rules, err := objectives.Load(cfg.Objectives.RulesPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load objective rules: %w", err)
	}

	opts := []optimizer.Option{
		optimizer.WithRules(rules),
		optimizer.WithScoreConfig(cfg.Score),
	}
	if cfg.IsVoiceMetricsConfigured() {
		fetcher := voicemetrics.NewClient(voicemetrics.Config{
			BaseURL: cfg.VoiceMetrics.BaseURL,
			Timeout: cfg.VoiceMetrics.Timeout,
		}, slog.Default())
		opts = append(opts, optimizer.WithSnapshots(fetcher))
	}

	return optimizer.New(s, client, opts...), client, nil
}

func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
