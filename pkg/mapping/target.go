package mapping

import (
	"errors"
	"sort"

	"github.com/lookdevkit/shaderbridge/pkg/scene"
)

// ErrDuplicateTargetID is returned when two target nodes would share an
// identifier. This is an internal invariant violation and aborts the
// conversion rather than producing a malformed document.
var ErrDuplicateTargetID = errors.New("duplicate target node ID")

// Param is one named parameter value on a target node. Parameters keep the
// order their rules declared so repeated conversions serialize identically.
type Param struct {
	Name  string
	Value scene.Value
}

// TargetInput is a resolved connection in target terms: this node's input
// port fed by an upstream target node's output port.
type TargetInput struct {
	Port     string // input port on this node
	FromID   string // upstream target node identifier
	FromPort string // upstream output port, e.g. "out" or "out.r"
}

// TargetNode is one node of the mapped graph, expressed entirely in the
// target tool's vocabulary.
type TargetNode struct {
	ID     string
	Type   string
	Params []Param
	Color  *[3]float64 // optional node color hint for the target UI
	Inputs []TargetInput
}

// Param returns the named parameter and whether it is set.
func (n *TargetNode) Param(name string) (scene.Value, bool) {
	for _, p := range n.Params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return scene.Value{}, false
}

// SetParam appends or replaces a parameter, preserving declaration order
// for existing names.
func (n *TargetNode) SetParam(name string, v scene.Value) {
	for i, p := range n.Params {
		if p.Name == name {
			n.Params[i].Value = v
			return
		}
	}
	n.Params = append(n.Params, Param{Name: name, Value: v})
}

// sortParams orders parameters by name. Used where parameters come out of
// an unordered source, e.g. a map in a rule file.
func sortParams(ps []Param) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].Name < ps[j].Name })
}

// GroupPort is a top-level port declaration of the enclosing group,
// exposing the network's external interface so the document can be pasted
// as one reusable unit.
type GroupPort struct {
	Name   string
	Source string // "nodeID.port"
}

// TargetGraph is the complete mapped network: target nodes in deterministic
// order plus the enclosing group's port declarations. It is constructed
// fresh per conversion and never mutated after serialization.
type TargetGraph struct {
	nodes []*TargetNode
	index map[string]*TargetNode
	Ports []GroupPort
}

// NewTargetGraph creates an empty target graph.
func NewTargetGraph() *TargetGraph {
	return &TargetGraph{index: make(map[string]*TargetNode)}
}

// Add inserts a node, failing on duplicate identifiers.
func (g *TargetGraph) Add(n *TargetNode) error {
	if _, exists := g.index[n.ID]; exists {
		return ErrDuplicateTargetID
	}
	g.nodes = append(g.nodes, n)
	g.index[n.ID] = n
	return nil
}

// Node returns the node with the given identifier, or nil.
func (g *TargetGraph) Node(id string) *TargetNode { return g.index[id] }

// Nodes returns all nodes in insertion order.
func (g *TargetGraph) Nodes() []*TargetNode { return g.nodes }

// NodeCount returns the number of target nodes.
func (g *TargetGraph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of resolved target connections.
func (g *TargetGraph) EdgeCount() int {
	count := 0
	for _, n := range g.nodes {
		count += len(n.Inputs)
	}
	return count
}
