// Package graph accumulates a directed graph of positions and their ranked
// continuations. One exploration session exclusively owns one Graph; external
// readers only ever get copies or a serialized document.
package graph

import (
	"github.com/avdberg/pvminer/internal/position"
)

// Edge is one outgoing move from a position. Seq is a 1-based rank: seq=1 is
// the primary (best-known) continuation.
type Edge struct {
	Move  string               `json:"move"`
	ToFen position.Fingerprint `json:"to_fen"`
	Seq   int                  `json:"seq"`
}

// Node holds the ordered outgoing edges of one position.
type Node struct {
	Moves []Edge `json:"moves"`
}

// Graph maps position fingerprints to their nodes. Transpositions are
// represented by multiple paths reaching the same fingerprint, never by
// duplicate nodes.
type Graph struct {
	root  position.Fingerprint
	nodes map[position.Fingerprint]*Node
}

// New creates an empty graph rooted at the given position.
func New(root position.Fingerprint) *Graph {
	return &Graph{
		root:  root,
		nodes: make(map[position.Fingerprint]*Node),
	}
}

// Root returns the root position fingerprint.
func (g *Graph) Root() position.Fingerprint {
	return g.root
}

// Len returns the number of positions with at least one outgoing edge.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// AddMove inserts or promotes an edge from a position. A primary insert of a
// known edge promotes it to the front without duplicating it; a non-primary
// insert of a known edge is a no-op. After every call the node's Seq values
// are exactly 1..N in list order. Returns the graph to allow chaining.
func (g *Graph) AddMove(from position.Fingerprint, edge Edge, isPrimary bool) *Graph {
	node, ok := g.nodes[from]
	if !ok {
		edge.Seq = 1
		g.nodes[from] = &Node{Moves: []Edge{edge}}
		return g
	}

	existing := -1
	for i, move := range node.Moves {
		if move.ToFen == edge.ToFen {
			existing = i
			break
		}
	}

	switch {
	case existing >= 0 && !isPrimary:
		// Adding a known move never demotes it.
		return g
	case existing >= 0:
		promoted := node.Moves[existing]
		node.Moves = append(node.Moves[:existing], node.Moves[existing+1:]...)
		node.Moves = append([]Edge{promoted}, node.Moves...)
	case isPrimary:
		node.Moves = append([]Edge{edge}, node.Moves...)
	default:
		node.Moves = append(node.Moves, edge)
	}

	resequence(node.Moves)
	return g
}

// resequence renumbers Seq to match list order, keeping 1..N contiguous.
func resequence(moves []Edge) {
	for i := range moves {
		moves[i].Seq = i + 1
	}
}

// FindPosition returns a copy of the node for a fingerprint, or false if the
// position has no outgoing edges yet.
func (g *Graph) FindPosition(fp position.Fingerprint) (Node, bool) {
	node, ok := g.nodes[fp]
	if !ok {
		return Node{}, false
	}

	moves := make([]Edge, len(node.Moves))
	copy(moves, node.Moves)
	return Node{Moves: moves}, true
}
