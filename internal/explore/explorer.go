// Package explore drives a depth-bounded, breadth-first traversal of the
// game tree reachable from a root position, using an external engine to
// decide which lines matter.
package explore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avdberg/pvminer/internal/graph"
	"github.com/avdberg/pvminer/internal/position"
	"github.com/avdberg/pvminer/internal/session"
	"github.com/avdberg/pvminer/internal/uci"
)

// StrategyName identifies the traversal strategy in checkpoints.
const StrategyName = "breadth-first-pv"

// Analyzer is the engine protocol client seen from the explorer.
type Analyzer interface {
	Analyze(ctx context.Context, fen string, opts uci.AnalyzeOptions) (*uci.AnalysisResult, error)
	Name() string
}

// ResultStore receives every raw analysis result. Failures are non-fatal to
// exploration.
type ResultStore interface {
	SaveAnalysis(ctx context.Context, fp position.Fingerprint, result *uci.AnalysisResult, engine string) error
}

// GraphStore persists the serialized move graph document.
type GraphStore interface {
	SaveGraph(ctx context.Context, doc *graph.Document) error
	LoadGraph(ctx context.Context) (*graph.Document, error)
}

// Checkpointer makes exploration progress durable.
type Checkpointer interface {
	Save(checkpoint *session.Checkpoint) error
	StartAutoSave(sessionID string, provider func() *session.Checkpoint, interval time.Duration)
	StopAutoSave()
}

// Options configures one exploration run.
type Options struct {
	SessionID  string
	Project    string
	Root       position.Fingerprint
	EnginePath string

	// SearchDepth and MoveTimeMs are passed through to the engine;
	// VariationCount controls multipv.
	SearchDepth    int
	MoveTimeMs     int
	VariationCount int

	// MaxDepthCap, when > 0, bounds exploration depth at
	// min(cap, observed root analysis depth). Otherwise the bound is
	// floor(observed depth * DepthRatio).
	MaxDepthCap int
	DepthRatio  float64

	// MaxPositions, when > 0, stops the run after that many analyses.
	MaxPositions int

	AutoSaveInterval time.Duration
}

// Explorer owns one exploration session: its state, its move graph and the
// single engine client driving it.
type Explorer struct {
	opts        Options
	engine      Analyzer
	graph       *graph.Graph
	state       *State
	results     ResultStore
	graphs      GraphStore
	checkpoints Checkpointer
}

// New creates an explorer with a fresh state for the root position.
func New(opts Options, engine Analyzer, results ResultStore, graphs GraphStore, checkpoints Checkpointer) *Explorer {
	return &Explorer{
		opts:        opts,
		engine:      engine,
		graph:       graph.New(opts.Root),
		state:       NewState(),
		results:     results,
		graphs:      graphs,
		checkpoints: checkpoints,
	}
}

// Resume creates an explorer from a checkpoint, reloading the persisted
// graph document. A missing or unloadable graph degrades to an empty graph;
// the state snapshot is authoritative for progress.
func Resume(ctx context.Context, opts Options, checkpoint *session.Checkpoint,
	engine Analyzer, results ResultStore, graphs GraphStore, checkpoints Checkpointer,
) *Explorer {
	e := New(opts, engine, results, graphs, checkpoints)
	e.state = RestoreState(checkpoint.State)

	doc, err := graphs.LoadGraph(ctx)
	if err != nil {
		slog.Warn("Could not reload graph document, starting with an empty graph", "error", err)
		return e
	}

	e.graph = graph.FromDocument(doc)
	return e
}

// Stats returns the current exploration statistics.
func (e *Explorer) Stats() session.Stats {
	return e.state.Stats()
}

// Graph returns a snapshot of the move graph for external readers.
func (e *Explorer) Graph() *graph.Document {
	return e.graph.Snapshot()
}

// Run executes the exploration until the frontier empties or a budget is
// hit. Protocol-level failures on the root analysis are fatal; per-position
// failures afterwards are recovered by marking the position visited.
func (e *Explorer) Run(ctx context.Context) error {
	fresh := e.state.Stats().Analyzed == 0 && e.state.FrontierLen() == 0

	if fresh {
		if err := e.rootPhase(ctx); err != nil {
			return fmt.Errorf("root analysis failed: %w", err)
		}
	}

	if e.opts.AutoSaveInterval > 0 {
		e.checkpoints.StartAutoSave(e.opts.SessionID, e.Checkpoint, e.opts.AutoSaveInterval)
		defer e.checkpoints.StopAutoSave()
	}

	err := e.frontierLoop(ctx)

	if saveErr := e.checkpoints.Save(e.Checkpoint()); saveErr != nil {
		slog.Error("Failed to write final checkpoint", "error", saveErr)
	}

	return err
}

// rootPhase analyzes the root position and derives the depth budget from how
// deep the engine itself searched.
func (e *Explorer) rootPhase(ctx context.Context) error {
	root := e.opts.Root

	e.state.Enqueue(root)
	e.state.RecordDepth(root, 0)

	result, elapsed, err := e.analyze(ctx, root)
	if err != nil {
		return err
	}

	e.state.SetMaxDepth(e.depthBudget(result.Depth))
	slog.Info("Root analyzed", "depth", result.Depth, "maxDepth", e.state.MaxDepth())

	e.state.Dequeue()
	e.state.MarkVisited(root)
	e.mergePV(root, result.PrincipalVariation())
	e.state.RecordAnalysis(elapsed)

	e.storeResult(ctx, root, result)
	e.saveGraph(ctx)

	return nil
}

// depthBudget resolves the two configuration sources for maxDepth: an
// explicit cap wins and is additionally bounded by the observed depth;
// otherwise the ratio of the observed depth applies.
func (e *Explorer) depthBudget(observedDepth int) int {
	if e.opts.MaxDepthCap > 0 {
		return min(e.opts.MaxDepthCap, observedDepth)
	}

	ratio := e.opts.DepthRatio
	if ratio <= 0 {
		return observedDepth
	}

	return int(float64(observedDepth) * ratio)
}

func (e *Explorer) frontierLoop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if e.opts.MaxPositions > 0 && e.state.Stats().Analyzed >= e.opts.MaxPositions {
			slog.Info("Position budget reached", "analyzed", e.state.Stats().Analyzed)
			return nil
		}

		fp, ok := e.state.Dequeue()
		if !ok {
			slog.Info("Frontier empty, exploration complete", "analyzed", e.state.Stats().Analyzed)
			return nil
		}

		if e.state.IsVisited(fp) {
			continue
		}

		if depth, known := e.state.Depth(fp); known && depth >= e.state.MaxDepth() {
			continue
		}

		result, elapsed, err := e.analyze(ctx, fp)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}

			// Mark visited anyway so a bad position cannot loop forever.
			slog.Warn("Analysis failed, skipping position", "position", fp, "error", err)
			e.state.MarkVisited(fp)
			continue
		}

		e.state.MarkVisited(fp)
		e.mergePV(fp, result.PrincipalVariation())
		e.state.RecordAnalysis(elapsed)

		e.storeResult(ctx, fp, result)
		e.saveGraph(ctx)

		stats := e.state.Stats()
		slog.Info("Position processed",
			"analyzed", stats.Analyzed,
			"discovered", stats.Discovered,
			"frontier", e.state.FrontierLen(),
			"avgSeconds", fmt.Sprintf("%.2f", stats.AvgTimePerPosition))
	}
}

func (e *Explorer) analyze(ctx context.Context, fp position.Fingerprint) (*uci.AnalysisResult, time.Duration, error) {
	start := time.Now()

	result, err := e.engine.Analyze(ctx, fp.FEN(), uci.AnalyzeOptions{
		Depth:          e.opts.SearchDepth,
		MoveTimeMs:     e.opts.MoveTimeMs,
		VariationCount: e.opts.VariationCount,
	})
	if err != nil {
		return nil, 0, err
	}

	return result, time.Since(start), nil
}

// mergePV walks the principal variation from a position, inserting every
// move as primary, and queues newly discovered positions that are still
// within the depth budget. An illegal move truncates the walk at that token;
// everything before it is kept.
func (e *Explorer) mergePV(from position.Fingerprint, pv []string) {
	current := from

	for _, move := range pv {
		next, err := position.ApplyMove(current, move)
		if err != nil {
			slog.Warn("Truncating principal variation at illegal move",
				"move", move, "position", current, "error", err)
			return
		}

		e.graph.AddMove(current, graph.Edge{Move: move, ToFen: next}, true)

		depth, _ := e.state.Depth(current)
		childDepth := depth + 1
		e.state.RecordDepth(next, childDepth)

		if recorded, _ := e.state.Depth(next); recorded < e.state.MaxDepth() {
			e.state.Enqueue(next)
		}

		current = next
	}
}

// storeResult hands the raw analysis to the result store. Storage failures
// must not stop exploration.
func (e *Explorer) storeResult(ctx context.Context, fp position.Fingerprint, result *uci.AnalysisResult) {
	if e.results == nil {
		return
	}

	if err := e.results.SaveAnalysis(ctx, fp, result, e.engine.Name()); err != nil {
		slog.Error("Failed to store analysis result", "position", fp, "error", err)
	}
}

// saveGraph persists the graph document so a crash loses at most one
// position's worth of updates.
func (e *Explorer) saveGraph(ctx context.Context) {
	if e.graphs == nil {
		return
	}

	if err := e.graphs.SaveGraph(ctx, e.graph.Snapshot()); err != nil {
		slog.Error("Failed to save graph document", "error", err)
	}
}

// Checkpoint builds the durable record of the current session state.
func (e *Explorer) Checkpoint() *session.Checkpoint {
	return &session.Checkpoint{
		Version:      session.CheckpointVersion,
		SessionID:    e.opts.SessionID,
		Strategy:     StrategyName,
		Project:      e.opts.Project,
		RootPosition: e.opts.Root.String(),
		Config: session.Config{
			EnginePath:   e.opts.EnginePath,
			SearchDepth:  e.opts.SearchDepth,
			MoveTimeMs:   e.opts.MoveTimeMs,
			MultiPV:      e.opts.VariationCount,
			DepthRatio:   e.opts.DepthRatio,
			MaxDepthCap:  e.opts.MaxDepthCap,
			MaxPositions: e.opts.MaxPositions,
		},
		State: e.state.Snapshot(),
	}
}
