package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/avdberg/pvminer/internal/models"
	"github.com/avdberg/pvminer/internal/position"
	"github.com/avdberg/pvminer/internal/services"
	"github.com/avdberg/pvminer/internal/uci"
)

const (
	bestAnalysisKeyPrefix = "best_analysis:"
	bestAnalysisTTL       = 5 * time.Minute
	statsKey              = "exploration_stats"
	statsTTL              = time.Minute
)

// ErrAnalysisNotFound means no stored analysis exists for the position.
var ErrAnalysisNotFound = errors.New("no analysis found for position")

// AnalysisRepository handles database operations for analysis results.
type AnalysisRepository struct {
	services *services.Services
}

// NewAnalysisRepository creates an AnalysisRepository from a request context.
func NewAnalysisRepository(c *fiber.Ctx) *AnalysisRepository {
	services := c.Locals("services").(*services.Services) //nolint: errcheck

	return &AnalysisRepository{
		services: services,
	}
}

func NewAnalysisRepositoryFromServices(services *services.Services) *AnalysisRepository {
	return &AnalysisRepository{
		services: services,
	}
}

// SaveAnalysis upserts one analysis result keyed by (position, engine). The
// upsert is idempotent and deeper analyses win, so replays and concurrent
// writers cannot lose information.
func (repo *AnalysisRepository) SaveAnalysis(
	ctx context.Context,
	fp position.Fingerprint,
	result *uci.AnalysisResult,
	engine string,
) error {
	stored := models.StoredAnalysis{
		Position:       fp.String(),
		Engine:         engine,
		Depth:          result.Depth,
		SelDepth:       result.SelDepth,
		MultiPV:        result.MultiPV,
		ScoreKind:      string(result.Score.Kind),
		ScoreValue:     result.Score.Value,
		BestMove:       result.BestMove,
		PV:             models.MoveList(result.PrincipalVariation()),
		TimeMs:         result.TimeMs,
		Nodes:          result.Nodes,
		NodesPerSecond: result.NodesPerSecond,
	}

	if err := stored.Validate(); err != nil {
		return fmt.Errorf("invalid analysis: %w", err)
	}

	query := `
		INSERT INTO analysis
			(position, engine, depth, seldepth, multipv, score_kind, score_value,
			 best_move, pv, time_ms, nodes, nps, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		ON CONFLICT (position, engine)
		DO UPDATE SET
			depth = EXCLUDED.depth,
			seldepth = EXCLUDED.seldepth,
			multipv = EXCLUDED.multipv,
			score_kind = EXCLUDED.score_kind,
			score_value = EXCLUDED.score_value,
			best_move = EXCLUDED.best_move,
			pv = EXCLUDED.pv,
			time_ms = EXCLUDED.time_ms,
			nodes = EXCLUDED.nodes,
			nps = EXCLUDED.nps,
			updated_at = NOW()
		WHERE EXCLUDED.depth >= analysis.depth
	`

	_, err := repo.services.Postgres.ExecContext(ctx, query,
		stored.Position,
		stored.Engine,
		stored.Depth,
		stored.SelDepth,
		stored.MultiPV,
		stored.ScoreKind,
		stored.ScoreValue,
		stored.BestMove,
		pq.Array([]string(stored.PV)),
		stored.TimeMs,
		stored.Nodes,
		stored.NodesPerSecond,
	)
	if err != nil {
		return fmt.Errorf("error saving analysis: %w", err)
	}

	// The cached best answer for this position may now be stale.
	if err = repo.services.Redis.Del(ctx, bestAnalysisKeyPrefix+stored.Position).Err(); err != nil {
		slog.Warn("Failed to invalidate best analysis cache", "position", stored.Position, "error", err)
	}

	return nil
}

// GetBestAnalysis returns the deepest stored analysis for a position across
// all engines, read through a Redis cache.
func (repo *AnalysisRepository) GetBestAnalysis(ctx context.Context, fp position.Fingerprint) (models.StoredAnalysis, error) {
	cacheKey := bestAnalysisKeyPrefix + fp.String()

	cached, err := repo.services.Redis.Get(ctx, cacheKey).Result()
	if err == nil {
		var analysis models.StoredAnalysis
		if err = json.Unmarshal([]byte(cached), &analysis); err == nil {
			return analysis, nil
		}
		slog.Warn("Discarding unreadable cache entry", "key", cacheKey, "error", err)
	} else if !errors.Is(err, redis.Nil) {
		slog.Warn("Best analysis cache read failed", "key", cacheKey, "error", err)
	}

	query := `
		SELECT position, engine, depth, seldepth, multipv, score_kind, score_value,
			best_move, pv, time_ms, nodes, nps, updated_at
		FROM analysis
		WHERE position = $1
		ORDER BY depth DESC, nodes DESC
		LIMIT 1
	`

	var analysis models.StoredAnalysis
	err = repo.services.Postgres.GetContext(ctx, &analysis, query, fp.String())
	if errors.Is(err, sql.ErrNoRows) {
		return models.StoredAnalysis{}, fmt.Errorf("%w: %s", ErrAnalysisNotFound, fp)
	}
	if err != nil {
		return models.StoredAnalysis{}, fmt.Errorf("error getting best analysis: %w", err)
	}

	if data, err := json.Marshal(analysis); err == nil {
		if err = repo.services.Redis.Set(ctx, cacheKey, data, bestAnalysisTTL).Err(); err != nil {
			slog.Warn("Failed to cache best analysis", "key", cacheKey, "error", err)
		}
	}

	return analysis, nil
}

// GetStats returns aggregate counts over the analysis store, cached briefly
// in Redis.
func (repo *AnalysisRepository) GetStats(ctx context.Context) (models.ExplorationStats, error) {
	cached, err := repo.services.Redis.Get(ctx, statsKey).Result()
	if err == nil {
		var stats models.ExplorationStats
		if err = json.Unmarshal([]byte(cached), &stats); err == nil {
			return stats, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		slog.Warn("Stats cache read failed", "error", err)
	}

	query := `
		SELECT
			COUNT(DISTINCT position) AS positions,
			COUNT(DISTINCT engine) AS engines,
			COALESCE(MAX(depth), 0) AS max_depth
		FROM analysis
	`

	var stats models.ExplorationStats
	if err = repo.services.Postgres.GetContext(ctx, &stats, query); err != nil {
		return models.ExplorationStats{}, fmt.Errorf("error getting stats: %w", err)
	}

	if data, err := json.Marshal(stats); err == nil {
		if err = repo.services.Redis.Set(ctx, statsKey, data, statsTTL).Err(); err != nil {
			slog.Warn("Failed to cache stats", "error", err)
		}
	}

	return stats, nil
}
