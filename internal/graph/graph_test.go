package graph

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avdberg/pvminer/internal/position"
)

const testRoot = position.Fingerprint("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -")

func edge(move string) Edge {
	return Edge{Move: move, ToFen: position.Fingerprint("after-" + move)}
}

// assertSeqInvariant checks that Seq values are exactly 1..N in list order.
func assertSeqInvariant(t *testing.T, node Node) {
	t.Helper()
	for i, move := range node.Moves {
		assert.Equal(t, i+1, move.Seq)
	}
}

func TestAddMoveFirstEdge(t *testing.T) {
	g := New(testRoot)
	g.AddMove(testRoot, edge("e2e4"), false)

	node, ok := g.FindPosition(testRoot)
	require.True(t, ok)
	require.Len(t, node.Moves, 1)
	assert.Equal(t, "e2e4", node.Moves[0].Move)
	assert.Equal(t, 1, node.Moves[0].Seq)
}

func TestAddMoveAppendsAlternatives(t *testing.T) {
	g := New(testRoot)
	g.AddMove(testRoot, edge("e2e4"), false).
		AddMove(testRoot, edge("d2d4"), false).
		AddMove(testRoot, edge("c2c4"), false)

	node, ok := g.FindPosition(testRoot)
	require.True(t, ok)
	require.Len(t, node.Moves, 3)
	assert.Equal(t, []string{"e2e4", "d2d4", "c2c4"}, moveNames(node))
	assertSeqInvariant(t, node)
}

func TestAddMoveNewPrimaryGoesFirst(t *testing.T) {
	g := New(testRoot)
	g.AddMove(testRoot, edge("e2e4"), false)
	g.AddMove(testRoot, edge("d2d4"), true)

	node, _ := g.FindPosition(testRoot)
	assert.Equal(t, []string{"d2d4", "e2e4"}, moveNames(node))
	assertSeqInvariant(t, node)
}

func TestAddMovePromotion(t *testing.T) {
	// Position has edges [a(seq1), b(seq2)]; promoting b yields [b(seq1), a(seq2)].
	g := New(testRoot)
	g.AddMove(testRoot, edge("a"), false)
	g.AddMove(testRoot, edge("b"), false)

	g.AddMove(testRoot, edge("b"), true)

	node, _ := g.FindPosition(testRoot)
	assert.Equal(t, []string{"b", "a"}, moveNames(node))
	assertSeqInvariant(t, node)
}

func TestAddMovePromotionKeepsRelativeOrder(t *testing.T) {
	g := New(testRoot)
	for _, move := range []string{"a", "b", "c", "d"} {
		g.AddMove(testRoot, edge(move), false)
	}

	g.AddMove(testRoot, edge("c"), true)

	node, _ := g.FindPosition(testRoot)
	assert.Equal(t, []string{"c", "a", "b", "d"}, moveNames(node))
	assertSeqInvariant(t, node)
}

func TestAddMoveIdempotentNonPrimary(t *testing.T) {
	g := New(testRoot)
	g.AddMove(testRoot, edge("e2e4"), false)
	g.AddMove(testRoot, edge("d2d4"), false)

	before, _ := g.FindPosition(testRoot)
	g.AddMove(testRoot, edge("e2e4"), false)
	after, _ := g.FindPosition(testRoot)

	assert.Equal(t, before, after)
}

func TestAddMoveNonPrimaryNeverDemotes(t *testing.T) {
	g := New(testRoot)
	g.AddMove(testRoot, edge("e2e4"), true)
	g.AddMove(testRoot, edge("e2e4"), false)

	node, _ := g.FindPosition(testRoot)
	require.Len(t, node.Moves, 1)
	assert.Equal(t, 1, node.Moves[0].Seq)
}

func TestAddMoveSeqInvariantUnderMixedCalls(t *testing.T) {
	g := New(testRoot)

	calls := []struct {
		move    string
		primary bool
	}{
		{"a", true}, {"b", false}, {"c", true}, {"b", true},
		{"d", false}, {"a", true}, {"c", false}, {"e", true},
		{"e", true}, {"d", true},
	}

	var lastPrimary string
	for i, call := range calls {
		t.Run(fmt.Sprintf("call-%d", i+1), func(t *testing.T) {
			g.AddMove(testRoot, edge(call.move), call.primary)
			if call.primary {
				lastPrimary = call.move
			}

			node, ok := g.FindPosition(testRoot)
			require.True(t, ok)
			assertSeqInvariant(t, node)
			assert.Equal(t, lastPrimary, node.Moves[0].Move)
		})
	}
}

func TestFindPositionUnknown(t *testing.T) {
	g := New(testRoot)
	_, ok := g.FindPosition("unknown")
	assert.False(t, ok)
}

func TestFindPositionReturnsCopy(t *testing.T) {
	g := New(testRoot)
	g.AddMove(testRoot, edge("e2e4"), false)

	node, _ := g.FindPosition(testRoot)
	node.Moves[0].Move = "mutated"

	fresh, _ := g.FindPosition(testRoot)
	assert.Equal(t, "e2e4", fresh.Moves[0].Move)
}

func TestSnapshotRoundTrip(t *testing.T) {
	g := New(testRoot)
	g.AddMove(testRoot, edge("e2e4"), true)
	g.AddMove("after-e2e4", edge("e7e5"), true)
	g.AddMove(testRoot, edge("d2d4"), false)

	doc := g.Snapshot()
	assert.Equal(t, testRoot.String(), doc.RootPosition)
	assert.Len(t, doc.Nodes, 2)

	restored := FromDocument(doc)
	assert.Equal(t, g.Root(), restored.Root())
	assert.Equal(t, g.Len(), restored.Len())

	original, _ := g.FindPosition(testRoot)
	copied, _ := restored.FindPosition(testRoot)
	assert.Equal(t, original, copied)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	g := New(testRoot)
	g.AddMove(testRoot, edge("e2e4"), false)

	doc := g.Snapshot()
	node := doc.Nodes[testRoot.String()]
	node.Moves[0].Move = "mutated"

	fresh, _ := g.FindPosition(testRoot)
	assert.Equal(t, "e2e4", fresh.Moves[0].Move)
}

func moveNames(node Node) []string {
	names := make([]string, len(node.Moves))
	for i, move := range node.Moves {
		names[i] = move.Move
	}
	return names
}
