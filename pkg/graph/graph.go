// Package graph models the extracted shading network and implements the
// upstream traversal that discovers it.
//
// A [Graph] is an immutable snapshot of every node reachable from the
// conversion roots via upstream connections. Each node appears exactly once
// regardless of fan-out; connections that leave the traversal boundary
// (missing nodes, renderer defaults, edges closing a cycle) are kept as
// unresolved markers rather than dropped, so later stages can report them.
package graph

import (
	"errors"

	"github.com/lookdevkit/shaderbridge/pkg/scene"
)

var (
	// ErrDuplicateNodeID is returned when a node with the same identifier
	// is added twice. Indicates a broken adapter, not bad scene content.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrInvalidNodeID is returned when a node identifier is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")
)

// Input is one upstream connection of a source node.
// Unresolved inputs reference nodes outside the traversal boundary and are
// excluded from the serialized connection list; the target input simply
// keeps its default value.
type Input struct {
	Name         string // local input (destination attribute) name
	UpstreamID   string // identifier of the providing node
	UpstreamPort string // output attribute on the providing node
	Unresolved   bool
}

// SourceNode is an immutable snapshot of one shading node, owned by the
// graph once extracted.
type SourceNode struct {
	ID     string
	Type   string
	Attrs  map[string]scene.Value
	Inputs []Input
}

// Graph holds the extracted network: node snapshots keyed by identifier
// plus the designated roots. Node iteration follows discovery order, which
// is deterministic for a deterministic adapter.
type Graph struct {
	nodes map[string]*SourceNode
	order []string
	roots []string
}

// New creates an empty graph with the given roots.
func New(roots []string) *Graph {
	return &Graph{
		nodes: make(map[string]*SourceNode),
		roots: append([]string(nil), roots...),
	}
}

// Add inserts a node snapshot.
func (g *Graph) Add(n *SourceNode) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	return nil
}

// Node returns the node with the given identifier, or nil.
func (g *Graph) Node(id string) *SourceNode { return g.nodes[id] }

// Has reports whether a node with the identifier exists.
func (g *Graph) Has(id string) bool { _, ok := g.nodes[id]; return ok }

// Nodes returns every node in discovery order.
func (g *Graph) Nodes() []*SourceNode {
	out := make([]*SourceNode, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Order returns node identifiers in discovery order.
func (g *Graph) Order() []string { return append([]string(nil), g.order...) }

// Roots returns the designated root identifiers.
func (g *Graph) Roots() []string { return append([]string(nil), g.roots...) }

// NodeCount returns the number of extracted nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of resolved connections.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, n := range g.nodes {
		for _, in := range n.Inputs {
			if !in.Unresolved {
				count++
			}
		}
	}
	return count
}

// Connection looks up a node's input by name and reports whether it is
// resolved within the graph.
func (n *SourceNode) Connection(input string) (Input, bool) {
	for _, in := range n.Inputs {
		if in.Name == input {
			return in, !in.Unresolved
		}
	}
	return Input{}, false
}
