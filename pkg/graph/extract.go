package graph

import (
	stderrors "errors"
	"fmt"

	"github.com/lookdevkit/shaderbridge/pkg/errors"
	"github.com/lookdevkit/shaderbridge/pkg/scene"
)

// DFS colors. An edge into a gray node closes a cycle.
const (
	white = iota
	gray
	black
)

// stack entries come in two phases: enter snapshots the node and pushes its
// upstream nodes, leave finalizes the cycle bookkeeping.
type frame struct {
	id    string
	leave bool
}

// Extract walks the shading network upstream from the given roots and
// returns the discovered graph.
//
// The traversal is an iterative depth-first search with an explicit stack,
// so arbitrarily deep chains cannot overflow the call stack. A visited set
// guarantees each node is snapshotted exactly once; diamond-shaped sharing
// produces one node with multiple referencing edges. An edge reaching a
// node currently on the active path closes a cycle: that edge is recorded
// as unresolved and reported as a warning, never traversed.
//
// Roots that the adapter does not know are skipped with a warning. If no
// root resolves at all, Extract fails with a NO_ROOT error.
func Extract(adapter scene.Adapter, roots ...string) (*Graph, []errors.Warning, error) {
	if len(roots) == 0 {
		return nil, nil, errors.New(errors.ErrCodeNoRoot, "no root nodes given")
	}

	var warnings []errors.Warning
	var live []string
	for _, root := range roots {
		if _, err := adapter.NodeType(root); err != nil {
			warnings = append(warnings, errors.Warningf(
				errors.WarnUnresolvedConnection, root, "root does not exist in scene"))
			continue
		}
		live = append(live, root)
	}
	if len(live) == 0 {
		return nil, nil, errors.New(errors.ErrCodeNoRoot,
			"none of the requested roots exist: %v", roots)
	}

	g := New(live)
	color := make(map[string]int)
	stack := make([]frame, 0, len(live))

	// Roots are pushed in reverse so the first root is visited first.
	for i := len(live) - 1; i >= 0; i-- {
		stack = append(stack, frame{id: live[i]})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if f.leave {
			color[f.id] = black
			continue
		}
		if color[f.id] != white {
			// Reached again through fan-out after being scheduled.
			continue
		}
		color[f.id] = gray
		stack = append(stack, frame{id: f.id, leave: true})

		node, inputs, werr, err := snapshotNode(adapter, f.id)
		if err != nil {
			return nil, nil, err
		}
		warnings = append(warnings, werr...)

		// Children are pushed in reverse so connections are explored in
		// adapter order.
		for i := len(inputs) - 1; i >= 0; i-- {
			in := &inputs[i]
			if in.Unresolved {
				continue
			}
			switch color[in.UpstreamID] {
			case white:
				stack = append(stack, frame{id: in.UpstreamID})
			case gray:
				in.Unresolved = true
				warnings = append(warnings, errors.Warningf(
					errors.WarnCycleDetected, f.id,
					"input %q closes a cycle through %q", in.Name, in.UpstreamID))
			case black:
				// Shared upstream node, already snapshotted. The edge is
				// kept; the node is not re-traversed.
			}
		}
		node.Inputs = inputs

		if err := g.Add(node); err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "add node %s", f.id)
		}
	}

	return g, warnings, nil
}

// snapshotNode reads one node through the adapter and classifies its
// connections. Connections to nodes the adapter does not know become
// unresolved markers with a warning.
func snapshotNode(adapter scene.Adapter, id string) (*SourceNode, []Input, []errors.Warning, error) {
	nodeType, err := adapter.NodeType(id)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("query type of %s: %w", id, err)
	}
	attrs, err := adapter.Attributes(id)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("query attributes of %s: %w", id, err)
	}
	conns, err := adapter.UpstreamConnections(id)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("query connections of %s: %w", id, err)
	}

	var warnings []errors.Warning
	inputs := make([]Input, 0, len(conns))
	for _, c := range conns {
		in := Input{Name: c.Input, UpstreamID: c.UpstreamID, UpstreamPort: c.UpstreamPort}
		if _, err := adapter.NodeType(c.UpstreamID); err != nil {
			if !stderrors.Is(err, scene.ErrNodeNotFound) {
				return nil, nil, nil, fmt.Errorf("query type of %s: %w", c.UpstreamID, err)
			}
			in.Unresolved = true
			warnings = append(warnings, errors.Warningf(
				errors.WarnUnresolvedConnection, id,
				"input %q references %q outside the scene", c.Input, c.UpstreamID))
		}
		inputs = append(inputs, in)
	}

	return &SourceNode{ID: id, Type: nodeType, Attrs: attrs}, inputs, warnings, nil
}
