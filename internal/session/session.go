// Package session defines the durable record types shared between the
// exploration state machine and the checkpoint service.
package session

import "time"

// CheckpointVersion is bumped when the checkpoint format changes in a way
// older readers cannot ignore. Unknown JSON fields are ignored on load, so
// additive changes do not need a bump.
const CheckpointVersion = 1

// Stats tracks exploration progress.
type Stats struct {
	Analyzed           int       `json:"analyzed"`
	Discovered         int       `json:"discovered"`
	StartTime          time.Time `json:"start_time"`
	LastUpdate         time.Time `json:"last_update"`
	AvgTimePerPosition float64   `json:"avg_time_per_position"`
}

// DepthEntry is one depthOf map entry in serialized form.
type DepthEntry struct {
	Position string `json:"position"`
	Depth    int    `json:"depth"`
}

// StateSnapshot is the serialized form of an exploration state. The visited
// set becomes a sorted array and the depth map a sorted array of pairs;
// frontier order is preserved verbatim. The conversion is exactly invertible.
type StateSnapshot struct {
	Frontier []string     `json:"frontier"`
	Visited  []string     `json:"visited"`
	Depths   []DepthEntry `json:"depths"`
	MaxDepth int          `json:"max_depth"`
	Stats    Stats        `json:"stats"`
}

// Config records the exploration parameters a checkpoint was taken under.
type Config struct {
	EnginePath   string  `json:"engine_path"`
	SearchDepth  int     `json:"search_depth"`
	MoveTimeMs   int     `json:"move_time_ms"`
	MultiPV      int     `json:"multi_pv"`
	DepthRatio   float64 `json:"depth_ratio"`
	MaxDepthCap  int     `json:"max_depth_cap"`
	MaxPositions int     `json:"max_positions"`
}

// Checkpoint is one immutable, timestamped snapshot of a session.
type Checkpoint struct {
	Version      int               `json:"version"`
	SessionID    string            `json:"session_id"`
	Strategy     string            `json:"strategy"`
	Project      string            `json:"project"`
	RootPosition string            `json:"root_position"`
	Config       Config            `json:"config"`
	State        *StateSnapshot    `json:"state"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	SavedAt      time.Time         `json:"saved_at"`
}

// Summary describes the most recent checkpoint of one session.
type Summary struct {
	SessionID  string    `json:"session_id"`
	Project    string    `json:"project"`
	Strategy   string    `json:"strategy"`
	Analyzed   int       `json:"analyzed"`
	Discovered int       `json:"discovered"`
	Completion float64   `json:"completion"`
	SavedAt    time.Time `json:"saved_at"`
}
