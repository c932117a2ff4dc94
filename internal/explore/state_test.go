package explore

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avdberg/pvminer/internal/position"
	"github.com/avdberg/pvminer/internal/session"
)

func TestStateEnqueueDedup(t *testing.T) {
	s := NewState()

	assert.True(t, s.Enqueue("a"))
	assert.False(t, s.Enqueue("a"))
	assert.Equal(t, 1, s.Stats().Discovered)

	s.MarkVisited("b")
	assert.False(t, s.Enqueue("b"))
	assert.Equal(t, 1, s.Stats().Discovered)
}

func TestStateDequeueFIFO(t *testing.T) {
	s := NewState()
	for _, fp := range []position.Fingerprint{"a", "b", "c"} {
		s.Enqueue(fp)
	}

	got := []position.Fingerprint{}
	for {
		fp, ok := s.Dequeue()
		if !ok {
			break
		}
		got = append(got, fp)
	}

	assert.Equal(t, []position.Fingerprint{"a", "b", "c"}, got)
}

func TestStateDequeuedPositionCanRequeue(t *testing.T) {
	s := NewState()
	s.Enqueue("a")
	s.Dequeue()

	// Not visited yet, so rediscovery through another path queues it again.
	assert.True(t, s.Enqueue("a"))
}

func TestStateRecordDepthKeepsFirst(t *testing.T) {
	s := NewState()
	s.RecordDepth("a", 2)
	s.RecordDepth("a", 5)

	depth, ok := s.Depth("a")
	require.True(t, ok)
	assert.Equal(t, 2, depth)
}

func TestStateRecordAnalysis(t *testing.T) {
	s := NewState()
	s.RecordAnalysis(2 * time.Second)
	s.RecordAnalysis(4 * time.Second)

	stats := s.Stats()
	assert.Equal(t, 2, stats.Analyzed)
	assert.InDelta(t, 3.0, stats.AvgTimePerPosition, 0.001)
	assert.False(t, stats.LastUpdate.IsZero())
}

func TestStateSnapshotRoundTrip(t *testing.T) {
	s := NewState()
	s.SetMaxDepth(7)
	for _, fp := range []position.Fingerprint{"f1", "f2", "f3"} {
		s.Enqueue(fp)
	}
	s.MarkVisited("v1")
	s.MarkVisited("v2")
	s.RecordDepth("f1", 1)
	s.RecordDepth("f2", 2)
	s.RecordDepth("v1", 0)
	s.RecordAnalysis(time.Second)

	snapshot := s.Snapshot()

	// Through JSON, as the checkpoint service stores it.
	raw, err := json.Marshal(snapshot)
	require.NoError(t, err)

	decoded := &session.StateSnapshot{}
	require.NoError(t, json.Unmarshal(raw, decoded))

	restored := RestoreState(decoded)

	assert.Equal(t, 7, restored.MaxDepth())
	assert.Equal(t, s.Stats(), restored.Stats())
	assert.Equal(t, 3, restored.FrontierLen())

	// Frontier order is preserved verbatim.
	first, _ := restored.Dequeue()
	assert.Equal(t, position.Fingerprint("f1"), first)

	// Set membership and depth entries are preserved.
	assert.True(t, restored.IsVisited("v1"))
	assert.True(t, restored.IsVisited("v2"))
	assert.False(t, restored.IsVisited("f1"))

	depth, ok := restored.Depth("f2")
	require.True(t, ok)
	assert.Equal(t, 2, depth)

	// Round-trip identity: snapshotting the restored state yields the same
	// serialized form (minus the dequeued entry).
	restored2 := RestoreState(snapshot)
	assert.Equal(t, snapshot, restored2.Snapshot())
}

func TestStateResumeArithmetic(t *testing.T) {
	// Mid-exploration: 7 discovered, 3 analyzed, 4 still on the frontier.
	s := NewState()
	for _, fp := range []position.Fingerprint{"p1", "p2", "p3", "p4", "p5", "p6", "p7"} {
		s.Enqueue(fp)
	}
	for i := 0; i < 3; i++ {
		fp, ok := s.Dequeue()
		require.True(t, ok)
		s.MarkVisited(fp)
		s.RecordAnalysis(time.Second)
	}

	restored := RestoreState(s.Snapshot())

	stats := restored.Stats()
	assert.Equal(t, 3, stats.Analyzed)
	assert.Equal(t, 7, stats.Discovered)
	assert.Equal(t, stats.Discovered-stats.Analyzed, restored.FrontierLen())
}
