package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// StoredAnalysis is one persisted engine analysis, keyed by position
// fingerprint and engine identity.
type StoredAnalysis struct {
	Position       string    `json:"position"         db:"position"`
	Engine         string    `json:"engine"           db:"engine"`
	Depth          int       `json:"depth"            db:"depth"`
	SelDepth       int       `json:"seldepth"         db:"seldepth"`
	MultiPV        int       `json:"multipv"          db:"multipv"`
	ScoreKind      string    `json:"score_kind"       db:"score_kind"`
	ScoreValue     int       `json:"score_value"      db:"score_value"`
	BestMove       string    `json:"best_move"        db:"best_move"`
	PV             MoveList  `json:"pv"               db:"pv"`
	TimeMs         int64     `json:"time_ms"          db:"time_ms"`
	Nodes          int64     `json:"nodes"            db:"nodes"`
	NodesPerSecond int64     `json:"nodes_per_second" db:"nps"`
	UpdatedAt      time.Time `json:"updated_at"       db:"updated_at"`
}

// Validate performs basic sanity checks before a database write.
func (a *StoredAnalysis) Validate() error {
	if a.Position == "" {
		return errors.New("position is empty")
	}

	if a.Engine == "" {
		return errors.New("engine identity is empty")
	}

	if a.Depth < 0 {
		return errors.New("depth is negative")
	}

	if a.ScoreKind != "cp" && a.ScoreKind != "mate" {
		return fmt.Errorf("score kind must be \"cp\" or \"mate\", got %q", a.ScoreKind)
	}

	return nil
}

// MoveList is a slice of moves in UCI notation that implements sql.Scanner
// for Postgres text arrays.
type MoveList []string

// Scan implements the sql.Scanner interface for MoveList.
func (m *MoveList) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into MoveList", value)
	}

	// We should have a string that looks like "{e2e4,e7e5}". UCI moves never
	// contain commas, quotes or braces, so a plain split is enough.
	s := strings.Trim(string(bytes), "{}")
	if s == "" {
		*m = MoveList{}
		return nil
	}

	*m = strings.Split(s, ",")
	return nil
}

// ExplorationStats is the aggregate over the analysis store.
type ExplorationStats struct {
	Positions int `json:"positions" db:"positions"`
	Engines   int `json:"engines"   db:"engines"`
	MaxDepth  int `json:"max_depth" db:"max_depth"`
}

// VersionResponse reports the running build.
type VersionResponse struct {
	Commit string `json:"commit"`
}
