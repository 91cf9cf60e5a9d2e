package graph

import (
	"encoding/json"
	"fmt"

	"github.com/lookdevkit/shaderbridge/pkg/scene"
)

// wireGraph is the JSON form of a graph. Node order is preserved so a
// round trip keeps discovery order and hashing stays content-stable.
type wireGraph struct {
	Roots []string   `json:"roots"`
	Nodes []wireNode `json:"nodes"`
}

type wireNode struct {
	ID     string                 `json:"id"`
	Type   string                 `json:"type"`
	Attrs  map[string]scene.Value `json:"attrs,omitempty"`
	Inputs []Input                `json:"inputs,omitempty"`
}

// MarshalGraph serializes a graph to JSON. The output is deterministic for
// a given graph, so it doubles as hashing input for cache keys.
func MarshalGraph(g *Graph) ([]byte, error) {
	w := wireGraph{Roots: g.Roots(), Nodes: make([]wireNode, 0, g.NodeCount())}
	for _, n := range g.Nodes() {
		w.Nodes = append(w.Nodes, wireNode{
			ID:     n.ID,
			Type:   n.Type,
			Attrs:  n.Attrs,
			Inputs: n.Inputs,
		})
	}
	return json.Marshal(w)
}

// UnmarshalGraph reconstructs a graph from its JSON form.
func UnmarshalGraph(data []byte) (*Graph, error) {
	var w wireGraph
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode graph: %w", err)
	}
	g := New(w.Roots)
	for _, n := range w.Nodes {
		node := &SourceNode{ID: n.ID, Type: n.Type, Attrs: n.Attrs, Inputs: n.Inputs}
		if err := g.Add(node); err != nil {
			return nil, fmt.Errorf("rebuild node %s: %w", n.ID, err)
		}
	}
	return g, nil
}
