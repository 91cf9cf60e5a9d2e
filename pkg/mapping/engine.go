package mapping

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/lookdevkit/shaderbridge/pkg/errors"
	"github.com/lookdevkit/shaderbridge/pkg/graph"
	"github.com/lookdevkit/shaderbridge/pkg/scene"
)

// Engine maps extracted graphs through a rule set. It holds no per-call
// state; one engine can serve any number of sequential conversions.
type Engine struct {
	rules  *RuleSet
	policy Policy
}

// NewEngine creates an engine for the given rule set and unmapped-type
// policy.
func NewEngine(rules *RuleSet, policy Policy) *Engine {
	return &Engine{rules: rules, policy: policy}
}

// RuleSet returns the engine's rule set.
func (e *Engine) RuleSet() *RuleSet { return e.rules }

// binding records how one source node materialized in the target graph.
type binding struct {
	attrs    []AttrRule  // effective rename table, nil for pass-through
	exp      *Expansion  // nil for single-node mappings
	terminal *TargetNode // node downstream consumers connect to
	attrNode *TargetNode // node that owns the attribute table
	bysuffix map[string]*TargetNode
}

// Map translates the graph into target terms. The result is deterministic:
// node order follows the graph's discovery order, parameters follow rule
// declaration order, and target identifiers are stable functions of source
// identifiers.
//
// Non-fatal conditions (unmapped types, untransformable values, unresolved
// connections) are reported as warnings; the only hard failure is an
// internal invariant violation such as a duplicate target identifier.
func (e *Engine) Map(g *graph.Graph) (*TargetGraph, []errors.Warning, error) {
	tg := NewTargetGraph()
	var warnings []errors.Warning

	// Seed the namer with every source identifier: primary target nodes
	// reuse source IDs verbatim, expansions claim suffixed variants.
	namer := NewNamer(g.Order())

	bindings := make(map[string]*binding, g.NodeCount())
	for _, n := range g.Nodes() {
		b, warns, err := e.mapNode(n, namer, tg)
		warnings = append(warnings, warns...)
		if err != nil {
			return nil, nil, err
		}
		if b != nil {
			bindings[n.ID] = b
		}
	}

	warnings = append(warnings, e.wireConnections(g, bindings)...)
	e.declareGroupPorts(g, bindings, tg)

	return tg, warnings, nil
}

// mapNode materializes one source node. Returns a nil binding when the
// node is dropped by policy.
func (e *Engine) mapNode(n *graph.SourceNode, namer *Namer, tg *TargetGraph) (*binding, []errors.Warning, error) {
	rule, ok := e.rules.Find(n.Type)
	if !ok {
		warn := errors.Warningf(errors.WarnUnmappedNodeType, n.ID,
			"no rule for type %q in rule set %q (%s policy)", n.Type, e.rules.Name, e.policy)
		if e.policy == PolicyDrop {
			return nil, []errors.Warning{warn}, nil
		}
		tn := passThroughNode(n)
		if err := tg.Add(tn); err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "add node %s", tn.ID)
		}
		return &binding{terminal: tn, attrNode: tn}, []errors.Warning{warn}, nil
	}

	exp, err := ruleExpansion(rule, n)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "expand %s", n.ID)
	}

	attrs := rule.Attrs
	if exp.Attrs != nil {
		attrs = exp.Attrs
	}
	b := &binding{attrs: attrs, exp: exp, bysuffix: map[string]*TargetNode{}}
	var warnings []errors.Warning

	for _, en := range exp.Nodes {
		id := n.ID
		if en.Suffix != "" {
			id = namer.Claim(n.ID + en.Suffix)
		}
		tn := &TargetNode{
			ID:     id,
			Type:   en.Type,
			Params: append([]Param(nil), en.Params...),
			Color:  en.Color,
		}
		if err := tg.Add(tn); err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "add node %s", id)
		}
		b.bysuffix[en.Suffix] = tn
	}

	terminal, ok := b.bysuffix[exp.Terminal]
	if !ok {
		return nil, nil, errors.New(errors.ErrCodeInternal,
			"expansion of %q names unknown terminal %q", n.Type, exp.Terminal)
	}
	b.terminal = terminal

	// Attribute transforms land on the designated node. The empty default
	// resolves to the primary node when the expansion has one.
	attrNode := terminal
	if tn, ok := b.bysuffix[exp.AttrNode]; ok {
		attrNode = tn
	}
	b.attrNode = attrNode
	warnings = append(warnings, applyAttrRules(attrs, n, attrNode)...)

	// Internal wiring between expanded nodes.
	for _, edge := range exp.Edges {
		from, okF := b.bysuffix[edge.From.Node]
		to, okT := b.bysuffix[edge.To.Node]
		if !okF || !okT {
			return nil, nil, errors.New(errors.ErrCodeInternal,
				"expansion of %q wires unknown suffix", n.Type)
		}
		to.Inputs = append(to.Inputs, TargetInput{
			Port:     edge.To.Port,
			FromID:   from.ID,
			FromPort: edge.From.Port,
		})
	}

	return b, warnings, nil
}

// ruleExpansion normalizes every rule to expansion form: simple rules
// become a one-node expansion whose primary node is the terminal.
func ruleExpansion(rule *Rule, n *graph.SourceNode) (*Expansion, error) {
	if rule.Expand != nil {
		return rule.Expand(n)
	}
	if rule.Expansion != nil {
		return rule.Expansion, nil
	}
	return &Expansion{
		Nodes: []ExpandedNode{{Suffix: "", Type: rule.Target, Color: rule.Color}},
	}, nil
}

// applyAttrRules transforms source attributes onto the target node in rule
// order. Attributes that are connection-driven are skipped here; the
// connection pass wires them instead. Attributes absent from the source are
// skipped silently (they keep the target default).
func applyAttrRules(attrs []AttrRule, n *graph.SourceNode, tn *TargetNode) []errors.Warning {
	var warnings []errors.Warning
	for _, ar := range attrs {
		if _, connected := n.Connection(ar.Source); connected {
			continue
		}
		v, ok := n.Attrs[ar.Source]
		if !ok {
			continue
		}
		out, err := applyAttrRule(ar, v)
		if err != nil {
			warnings = append(warnings, errors.Warningf(
				errors.WarnInvalidAttributeValue, n.ID,
				"attribute %q: %v", ar.Source, err))
			continue
		}
		tn.SetParam(ar.Target, out)
	}
	return warnings
}

// wireConnections rewrites every resolved source connection in target
// terms. Connections to dropped or unresolved nodes are omitted; the
// target input keeps its default.
func (e *Engine) wireConnections(g *graph.Graph, bindings map[string]*binding) []errors.Warning {
	var warnings []errors.Warning
	for _, n := range g.Nodes() {
		b, ok := bindings[n.ID]
		if !ok {
			continue
		}
		for _, in := range n.Inputs {
			if in.Unresolved {
				continue
			}
			ub, ok := bindings[in.UpstreamID]
			if !ok {
				warnings = append(warnings, errors.Warningf(
					errors.WarnUnresolvedConnection, n.ID,
					"input %q lost its upstream %q (dropped by policy)",
					in.Name, in.UpstreamID))
				continue
			}
			dest, port := b.inputPort(in.Name)
			dest.Inputs = append(dest.Inputs, TargetInput{
				Port:     port,
				FromID:   ub.terminal.ID,
				FromPort: outPort(in.UpstreamPort),
			})
		}
	}
	return warnings
}

// inputPort resolves which target node and port receive a source input.
// Inputs declared in the expansion's Inputs map go where it says; the rest
// land on the node that owns the attribute table, under the renamed port.
func (b *binding) inputPort(input string) (*TargetNode, string) {
	if b.exp != nil {
		if ref, ok := b.exp.Inputs[input]; ok {
			if tn, found := b.bysuffix[ref.Node]; found {
				return tn, ref.Port
			}
		}
	}
	if b.attrs != nil {
		// The attribute rename table doubles as the port rename table.
		// Inputs without an entry keep their name.
		return b.attrNode, portFor(b.attrs, input)
	}
	return b.attrNode, input
}

// declareGroupPorts exposes each root's terminal output as a port of the
// enclosing group, preserving the original network's external interface.
func (e *Engine) declareGroupPorts(g *graph.Graph, bindings map[string]*binding, tg *TargetGraph) {
	roots := g.Roots()
	for i, root := range roots {
		b, ok := bindings[root]
		if !ok {
			continue
		}
		name := "out"
		if len(roots) > 1 {
			name = fmt.Sprintf("out%d", i)
		}
		tg.Ports = append(tg.Ports, GroupPort{
			Name:   name,
			Source: b.terminal.ID + ".out",
		})
	}
}

// passThroughNode copies an unmapped node into the target graph with its
// source vocabulary intact, flagged so the target UI shows it needs
// attention.
func passThroughNode(n *graph.SourceNode) *TargetNode {
	tn := &TargetNode{ID: n.ID, Type: n.Type}
	tn.SetParam("sourceType", scene.String(n.Type))
	// Deterministic parameter order for pass-through attributes.
	names := make([]string, 0, len(n.Attrs))
	for name := range n.Attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		tn.SetParam(name, n.Attrs[name])
	}
	return tn
}

var outChannelRe = regexp.MustCompile(`^out(?:Color|Value|Alpha|UV)?([RGBAXYZUV])$`)

// outPort translates a source output attribute to the target's output port
// notation: whole outputs become "out", channel outputs become "out.r",
// "out.x" and so on.
func outPort(sourcePort string) string {
	if m := outChannelRe.FindStringSubmatch(sourcePort); m != nil {
		return "out." + strings.ToLower(m[1])
	}
	return "out"
}
