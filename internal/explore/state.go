package explore

import (
	"sort"
	"sync"
	"time"

	"github.com/avdberg/pvminer/internal/position"
	"github.com/avdberg/pvminer/internal/session"
)

// State holds the frontier queue, visited set, depth map and statistics of
// one exploration run. Only one Explorer mutates it, but the checkpoint
// auto-save timer snapshots it from its own goroutine, so every access goes
// through the mutex.
type State struct {
	mu       sync.Mutex
	frontier []position.Fingerprint
	queued   map[position.Fingerprint]struct{}
	visited  map[position.Fingerprint]struct{}
	depthOf  map[position.Fingerprint]int
	maxDepth int
	stats    session.Stats

	totalAnalysisTime time.Duration
}

// NewState creates an empty exploration state.
func NewState() *State {
	return &State{
		queued:  make(map[position.Fingerprint]struct{}),
		visited: make(map[position.Fingerprint]struct{}),
		depthOf: make(map[position.Fingerprint]int),
		stats:   session.Stats{StartTime: time.Now().UTC()},
	}
}

// Enqueue appends a position to the frontier unless it is already queued or
// visited. Returns whether the position was added. The frontier is FIFO, so
// exploration is breadth-first.
func (s *State) Enqueue(fp position.Fingerprint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.queued[fp]; ok {
		return false
	}
	if _, ok := s.visited[fp]; ok {
		return false
	}

	s.frontier = append(s.frontier, fp)
	s.queued[fp] = struct{}{}
	s.stats.Discovered++
	return true
}

// Dequeue pops the oldest frontier entry.
func (s *State) Dequeue() (position.Fingerprint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.frontier) == 0 {
		return "", false
	}

	fp := s.frontier[0]
	s.frontier = s.frontier[1:]
	delete(s.queued, fp)
	return fp, true
}

// FrontierLen returns the number of queued positions.
func (s *State) FrontierLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frontier)
}

// MarkVisited records that a position was processed (or failed and must not
// be retried).
func (s *State) MarkVisited(fp position.Fingerprint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visited[fp] = struct{}{}
}

// IsVisited reports whether a position was already processed.
func (s *State) IsVisited(fp position.Fingerprint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.visited[fp]
	return ok
}

// Depth returns the recorded depth of a position.
func (s *State) Depth(fp position.Fingerprint) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	depth, ok := s.depthOf[fp]
	return depth, ok
}

// RecordDepth records the depth at which a position was first discovered.
// Later sightings via transpositions keep the original depth.
func (s *State) RecordDepth(fp position.Fingerprint, depth int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.depthOf[fp]; !ok {
		s.depthOf[fp] = depth
	}
}

// MaxDepth returns the exploration depth budget.
func (s *State) MaxDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxDepth
}

// SetMaxDepth sets the exploration depth budget, normally once after the
// root analysis.
func (s *State) SetMaxDepth(maxDepth int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxDepth = maxDepth
}

// RecordAnalysis updates the counters after one completed analysis.
func (s *State) RecordAnalysis(elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.Analyzed++
	s.stats.LastUpdate = time.Now().UTC()
	s.totalAnalysisTime += elapsed
	s.stats.AvgTimePerPosition = s.totalAnalysisTime.Seconds() / float64(s.stats.Analyzed)
}

// Stats returns a copy of the current statistics.
func (s *State) Stats() session.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Snapshot converts the state to its serialized form: visited set as a
// sorted array, depth map as a sorted array of pairs, frontier order kept
// verbatim.
func (s *State) Snapshot() *session.StateSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	frontier := make([]string, len(s.frontier))
	for i, fp := range s.frontier {
		frontier[i] = fp.String()
	}

	visited := make([]string, 0, len(s.visited))
	for fp := range s.visited {
		visited = append(visited, fp.String())
	}
	sort.Strings(visited)

	depths := make([]session.DepthEntry, 0, len(s.depthOf))
	for fp, depth := range s.depthOf {
		depths = append(depths, session.DepthEntry{Position: fp.String(), Depth: depth})
	}
	sort.Slice(depths, func(i, j int) bool {
		return depths[i].Position < depths[j].Position
	})

	return &session.StateSnapshot{
		Frontier: frontier,
		Visited:  visited,
		Depths:   depths,
		MaxDepth: s.maxDepth,
		Stats:    s.stats,
	}
}

// RestoreState reconstructs a state from its serialized form.
func RestoreState(snapshot *session.StateSnapshot) *State {
	s := NewState()
	s.maxDepth = snapshot.MaxDepth
	s.stats = snapshot.Stats

	for _, fp := range snapshot.Frontier {
		s.frontier = append(s.frontier, position.Fingerprint(fp))
		s.queued[position.Fingerprint(fp)] = struct{}{}
	}

	for _, fp := range snapshot.Visited {
		s.visited[position.Fingerprint(fp)] = struct{}{}
	}

	for _, entry := range snapshot.Depths {
		s.depthOf[position.Fingerprint(entry.Position)] = entry.Depth
	}

	// Keep the running average stable across the restart.
	s.totalAnalysisTime = time.Duration(snapshot.Stats.AvgTimePerPosition * float64(snapshot.Stats.Analyzed) * float64(time.Second))

	return s
}
