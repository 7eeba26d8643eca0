package main

import (
	"context"
	"fmt"
	"time"

	"github.com/aman/scriptline/internal/config"
	"github.com/aman/scriptline/internal/llm"
	"github.com/aman/scriptline/internal/pipeline"
	"github.com/aman/scriptline/internal/provider"
	"github.com/aman/scriptline/internal/queue"
	"github.com/aman/scriptline/internal/rewriting"
	"github.com/aman/scriptline/internal/scheduler"
	"github.com/aman/scriptline/internal/store"
)

// app bundles the wired collaborators behind every command.
type app struct {
	cfg       *config.Config
	store     store.Store
	llmClient llm.Client
	queue     *queue.Client
	provider  *provider.Client
	pipeline  *pipeline.Pipeline
	scheduler *scheduler.Scheduler
}

// buildApp loads config and wires the full stack. The store backend is
// Postgres when database_url is set, otherwise the file store.
func buildApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	var st store.Store
	if cfg.DatabaseURL != "" {
		st, err = store.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
	} else {
		st, err = store.NewFileStore(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
	}

	llmCfg := llm.DefaultGeminiConfig()
	if cfg.GeminiModel != "" {
		llmCfg = llmCfg.WithModel(llm.TierStandard, cfg.GeminiModel)
	}
	if cfg.Temperature > 0 {
		llmCfg.Temperature = float32(cfg.Temperature)
	}

	llmClient, err := llm.NewClient(ctx, llmCfg, cfg.GeminiAPIKey)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to create rewrite client: %w", err)
	}

	orch := rewriting.NewOrchestrator(llmClient)
	if cfg.MaxChunkChars > 0 {
		orch.MaxChunkChars = cfg.MaxChunkChars
	}
	if cfg.ChunkDelayMs > 0 {
		orch.ChunkDelay = time.Duration(cfg.ChunkDelayMs) * time.Millisecond
	}

	queueClient := queue.NewClient(cfg.QueueURL, cfg.QueueAPIKey)
	providerClient := provider.NewClient(cfg.TranscriptAPIURL, cfg.TranscriptAPIKey)

	pipe := pipeline.New(orch, st, queueClient, providerClient, cfg)
	sched := scheduler.New(cfg, st, pipe, providerClient)

	return &app{
		cfg:       cfg,
		store:     st,
		llmClient: llmClient,
		queue:     queueClient,
		provider:  providerClient,
		pipeline:  pipe,
		scheduler: sched,
	}, nil
}

// close releases the app's resources.
func (a *app) close() {
	if a.llmClient != nil {
		_ = a.llmClient.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
}
