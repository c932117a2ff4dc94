package graph

import (
	"github.com/avdberg/pvminer/internal/position"
)

// Document is the serialized form of a graph, as handed to the graph store.
type Document struct {
	RootPosition string          `json:"root_position"`
	Nodes        map[string]Node `json:"nodes"`
}

// Snapshot returns a deep copy of the graph as a Document. Mutating the
// document afterwards does not affect the graph.
func (g *Graph) Snapshot() *Document {
	nodes := make(map[string]Node, len(g.nodes))

	for fp, node := range g.nodes {
		moves := make([]Edge, len(node.Moves))
		copy(moves, node.Moves)
		nodes[fp.String()] = Node{Moves: moves}
	}

	return &Document{
		RootPosition: g.root.String(),
		Nodes:        nodes,
	}
}

// FromDocument reconstructs a graph from a serialized document.
func FromDocument(doc *Document) *Graph {
	g := New(position.Fingerprint(doc.RootPosition))

	for fp, node := range doc.Nodes {
		moves := make([]Edge, len(node.Moves))
		copy(moves, node.Moves)
		g.nodes[position.Fingerprint(fp)] = &Node{Moves: moves}
	}

	return g
}
