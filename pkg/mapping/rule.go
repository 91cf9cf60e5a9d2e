// Package mapping translates an extracted shading network into the target
// tool's node vocabulary.
//
// Translation is data-driven: a [RuleSet] maps source type tags to [Rule]
// entries describing the target type, per-attribute renames and value
// transforms, a node color hint, and an optional expansion (one source node
// becoming a small connected subgraph of target nodes). New node types are
// supported by adding rules, not by touching the engine.
//
// Rule sets are either built in (see the rulesets subpackages) or loaded
// from TOML files, so per-deployment tables can evolve without a rebuild.
package mapping

import "github.com/lookdevkit/shaderbridge/pkg/graph"

// Policy selects how the engine treats node types without a rule.
// The choice is explicit per deployment; there is no silent default
// behavior difference between them.
type Policy int

const (
	// PolicyPassThrough copies unmapped nodes into the target graph with
	// their source type tag and attributes, marked as unmapped, so the
	// operator can fix them up after pasting. This is the default.
	PolicyPassThrough Policy = iota
	// PolicyDrop omits unmapped nodes entirely; their downstream
	// connections become unresolved.
	PolicyDrop
)

// String returns the policy's configuration name.
func (p Policy) String() string {
	if p == PolicyDrop {
		return "drop"
	}
	return "passthrough"
}

// ParsePolicy converts a configuration string to a Policy.
func ParsePolicy(s string) (Policy, bool) {
	switch s {
	case "passthrough", "":
		return PolicyPassThrough, true
	case "drop":
		return PolicyDrop, true
	}
	return PolicyPassThrough, false
}

// AttrRule translates one source attribute. The same table entry also
// renames the connection port when the attribute is driven by an upstream
// node instead of a literal value.
type AttrRule struct {
	Source string // source attribute / input name
	Target string // target parameter / port name

	// Enum remaps a numeric source value to the label at that index.
	// Applied before Transform.
	Enum []string

	// Scale multiplies numeric and color values. Zero means no scaling.
	Scale float64

	// Transform names a registered value transform, e.g. "extension:.tx".
	Transform string
}

// PortRef addresses a port on one node of an expansion. An empty Node
// refers to the expansion's primary node (the one carrying the source
// node's identifier).
type PortRef struct {
	Node string // expanded node suffix, "" = primary
	Port string
}

// ExpandedNode declares one node of an expansion.
type ExpandedNode struct {
	// Suffix is appended to the source identifier to form the node ID.
	// The empty suffix designates the primary node.
	Suffix string
	Type   string
	Params []Param // static, already target-named parameters
	Color  *[3]float64
}

// ExpandEdge wires two expanded nodes together internally.
type ExpandEdge struct {
	From PortRef // output side; Port is usually "out"
	To   PortRef // input side
}

// Expansion describes one source node decomposing into several connected
// target nodes. Only the declared Inputs and the Terminal's output are
// visible to the rest of the graph; downstream consumers of the source node
// are rewired to the terminal node.
type Expansion struct {
	Nodes    []ExpandedNode
	Edges    []ExpandEdge
	Terminal string             // suffix of the node exposing the output
	Inputs   map[string]PortRef // source input name → receiving port
	// AttrNode is the suffix of the node that receives the rule's
	// attribute transforms. Defaults to the primary node when the
	// expansion has one, otherwise the terminal.
	AttrNode string
	// Attrs, when non-nil, replaces the rule's attribute table. Computed
	// expansions use this when the rename table depends on which target
	// type was chosen.
	Attrs []AttrRule
}

// ExpandFunc computes an expansion for a specific source node. Used when
// the decomposition depends on the node's attribute values or connections
// (e.g. a bump node switching to a space transform for normal maps).
type ExpandFunc func(n *graph.SourceNode) (*Expansion, error)

// Rule describes how one source node type maps into the target vocabulary.
type Rule struct {
	// Target is the target type tag. Ignored when an expansion applies.
	Target string

	// Attrs is the ordered attribute transform list. Attributes without an
	// entry are dropped, never copied verbatim, so source-specific names
	// cannot leak into the target schema.
	Attrs []AttrRule

	// Color is an optional node color hint (ns_color* in the document).
	Color *[3]float64

	// Expansion statically decomposes the node; Expand computes the
	// decomposition per node. Expand wins when both are set.
	Expansion *Expansion
	Expand    ExpandFunc
}

// portFor resolves the target port name for a source input, applying the
// attribute rename table. Inputs without an entry keep their source name.
func portFor(attrs []AttrRule, input string) string {
	for _, ar := range attrs {
		if ar.Source == input {
			return ar.Target
		}
	}
	return input
}

// RuleSet is a named, immutable-after-construction table of rules keyed by
// source type tag. Safe for unsynchronized concurrent reads.
type RuleSet struct {
	Name string

	// Fingerprint is the content hash of a file-loaded rule set, so two
	// files sharing a [meta] name are still told apart. Empty for
	// compiled-in sets, which only change with the binary.
	Fingerprint string

	rules map[string]*Rule
}

// NewRuleSet creates an empty rule set.
func NewRuleSet(name string) *RuleSet {
	return &RuleSet{Name: name, rules: make(map[string]*Rule)}
}

// Add registers the rule for a source type tag, replacing any previous one.
func (rs *RuleSet) Add(typeTag string, r Rule) {
	rule := r
	rs.rules[typeTag] = &rule
}

// Find returns the rule for a type tag.
func (rs *RuleSet) Find(typeTag string) (*Rule, bool) {
	r, ok := rs.rules[typeTag]
	return r, ok
}

// Types returns all mapped source type tags, unordered.
func (rs *RuleSet) Types() []string {
	out := make([]string, 0, len(rs.rules))
	for t := range rs.rules {
		out = append(out, t)
	}
	return out
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int { return len(rs.rules) }
