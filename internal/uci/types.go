package uci

import "errors"

var (
	// ErrConnection means the engine process could not be spawned or died.
	ErrConnection = errors.New("engine connection failed")

	// ErrEngineBusy means an analysis was requested while one is in flight.
	ErrEngineBusy = errors.New("engine is busy with another analysis")

	// ErrTimeout means expected engine output never arrived.
	ErrTimeout = errors.New("timed out waiting for engine output")

	// ErrNotConnected means the client has no live engine process.
	ErrNotConnected = errors.New("engine is not connected")
)

// ScoreKind discriminates centipawn scores from mate distances.
type ScoreKind string

const (
	ScoreCentipawn ScoreKind = "cp"
	ScoreMate      ScoreKind = "mate"
)

// Score is an engine evaluation.
type Score struct {
	Kind  ScoreKind `json:"kind"`
	Value int       `json:"value"`
}

// Variation is the latest principal-variation update for one multipv rank.
type Variation struct {
	Rank     int      `json:"rank"`
	Depth    int      `json:"depth"`
	SelDepth int      `json:"seldepth"`
	Score    Score    `json:"score"`
	Moves    []string `json:"moves"`
}

// AnalysisResult is the outcome of one analyze call. The top-level fields
// mirror the rank-1 variation; Variations holds one entry per multipv rank,
// ordered by rank.
type AnalysisResult struct {
	Position       string      `json:"position"`
	Depth          int         `json:"depth"`
	SelDepth       int         `json:"seldepth"`
	MultiPV        int         `json:"multipv"`
	Score          Score       `json:"score"`
	Variations     []Variation `json:"variations"`
	BestMove       string      `json:"best_move"`
	Ponder         string      `json:"ponder,omitempty"`
	TimeMs         int64       `json:"time_ms"`
	Nodes          int64       `json:"nodes"`
	NodesPerSecond int64       `json:"nodes_per_second"`
}

// PrincipalVariation returns the rank-1 move sequence, or nil if the engine
// never reported one.
func (r *AnalysisResult) PrincipalVariation() []string {
	if len(r.Variations) == 0 {
		return nil
	}
	return r.Variations[0].Moves
}

// AnalyzeOptions controls one analyze call. Depth and MoveTimeMs are both
// optional; at least one must be set. VariationCount <= 1 means single-pv.
type AnalyzeOptions struct {
	Depth          int
	MoveTimeMs     int
	VariationCount int
}
