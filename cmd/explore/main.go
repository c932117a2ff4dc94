package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/avdberg/pvminer/internal/checkpoint"
	"github.com/avdberg/pvminer/internal/config"
	"github.com/avdberg/pvminer/internal/explore"
	"github.com/avdberg/pvminer/internal/graphstore"
	"github.com/avdberg/pvminer/internal/position"
	"github.com/avdberg/pvminer/internal/repository"
	"github.com/avdberg/pvminer/internal/services"
	"github.com/avdberg/pvminer/internal/uci"
)

func main() {
	_ = godotenv.Load()
	config.SetLogLevel()

	cfg := config.LoadExploreConfig()

	if err := run(cfg); err != nil {
		slog.Error("Exploration failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.ExploreConfig) error {
	root, err := rootPosition(cfg)
	if err != nil {
		return err
	}

	svc, err := services.InitServices(cfg.PostgresURL, cfg.RedisURL)
	if err != nil {
		return err
	}

	graphs, err := graphstore.NewStore(cfg.ProjectDir)
	if err != nil {
		return err
	}

	checkpoints, err := checkpoint.NewService(filepath.Join(cfg.ProjectDir, "checkpoints"), cfg.CheckpointRetain)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := uci.NewClient(uci.Config{
		EnginePath: cfg.EnginePath,
		Options:    cfg.EngineOptions,
	})

	if err = engine.Connect(ctx); err != nil {
		return err
	}
	defer engine.Disconnect()

	slog.Info("Engine connected", "name", engine.Name())

	results := repository.NewAnalysisRepositoryFromServices(svc)

	explorer := buildExplorer(ctx, cfg, root, engine, results, graphs, checkpoints)

	if err = explorer.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Info("Exploration interrupted, progress checkpointed")
			return nil
		}
		return err
	}

	stats := explorer.Stats()
	slog.Info("Exploration finished",
		"analyzed", stats.Analyzed,
		"discovered", stats.Discovered,
		"avgSecondsPerPosition", stats.AvgTimePerPosition)

	return nil
}

func rootPosition(cfg *config.ExploreConfig) (position.Fingerprint, error) {
	if cfg.RootFEN == "" {
		return position.Start(), nil
	}

	return position.FromFEN(cfg.RootFEN)
}

// buildExplorer resumes from the most recent checkpoint when a session ID is
// configured; a failed resume degrades to a fresh session instead of
// aborting.
func buildExplorer(
	ctx context.Context,
	cfg *config.ExploreConfig,
	root position.Fingerprint,
	engine *uci.Client,
	results *repository.AnalysisRepository,
	graphs *graphstore.Store,
	checkpoints *checkpoint.Service,
) *explore.Explorer {
	opts := explore.Options{
		SessionID:        cfg.SessionID,
		Project:          cfg.Project,
		Root:             root,
		EnginePath:       cfg.EnginePath,
		SearchDepth:      cfg.SearchDepth,
		MoveTimeMs:       cfg.MoveTimeMs,
		VariationCount:   cfg.MultiPV,
		MaxDepthCap:      cfg.MaxDepth,
		DepthRatio:       cfg.DepthRatio,
		MaxPositions:     cfg.MaxPositions,
		AutoSaveInterval: cfg.CheckpointInterval,
	}

	if opts.SessionID != "" {
		loaded, err := checkpoints.LoadLatest(opts.SessionID)
		if err == nil {
			slog.Info("Resuming session",
				"session", opts.SessionID,
				"analyzed", loaded.State.Stats.Analyzed,
				"discovered", loaded.State.Stats.Discovered)
			opts.Root = position.Fingerprint(loaded.RootPosition)
			return explore.Resume(ctx, opts, loaded, engine, results, graphs, checkpoints)
		}

		slog.Warn("Could not resume session, starting fresh", "session", opts.SessionID, "error", err)
	}

	if opts.SessionID == "" {
		opts.SessionID = uuid.New().String()
	}

	slog.Info("Starting new session", "session", opts.SessionID, "project", opts.Project)
	return explore.New(opts, engine, results, graphs, checkpoints)
}
