// Package preview renders mapped networks as diagrams, so a conversion can
// be inspected without pasting the document into the target application.
package preview

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/lookdevkit/shaderbridge/pkg/graph"
	"github.com/lookdevkit/shaderbridge/pkg/mapping"
)

// Options configures diagram rendering.
type Options struct {
	// Detailed includes parameter counts and port names in node labels.
	// When false, only the node ID and type are shown.
	Detailed bool
}

// ToDOT converts a mapped network to Graphviz DOT. Sources render above
// their consumers (same orientation as the target graph view); nodes
// carrying a color hint keep it as their fill.
func ToDOT(tg *mapping.TargetGraph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph shading {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range tg.Nodes() {
		attrs := fmtAttrs(n, fmtLabel(n, opts.Detailed))
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, n := range tg.Nodes() {
		for _, in := range n.Inputs {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", in.FromID, n.ID, in.Port)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *mapping.TargetNode, detailed bool) string {
	label := n.ID + "\n" + n.Type
	if !detailed {
		return label
	}
	parts := []string{fmt.Sprintf("params: %d", len(n.Params))}
	for _, in := range n.Inputs {
		parts = append(parts, fmt.Sprintf("%s <- %s.%s", in.Port, in.FromID, in.FromPort))
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n *mapping.TargetNode, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if n.Color != nil {
		attrs = append(attrs,
			fmt.Sprintf("fillcolor=%q", hexColor(*n.Color)),
			"fontcolor=white")
	}
	return attrs
}

// SourceToDOT renders the extracted source graph, before mapping. Edges
// that the extractor left unresolved are drawn dashed.
func SourceToDOT(g *graph.Graph) string {
	var buf bytes.Buffer
	buf.WriteString("digraph shading {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		fmt.Fprintf(&buf, "  %q [label=%q];\n", n.ID, n.ID+"\n"+n.Type)
	}

	buf.WriteString("\n")
	for _, n := range g.Nodes() {
		for _, in := range n.Inputs {
			if in.Unresolved {
				fmt.Fprintf(&buf, "  %q -> %q [label=%q, style=dashed, color=grey];\n",
					in.UpstreamID, n.ID, in.Name)
				continue
			}
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", in.UpstreamID, n.ID, in.Name)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func hexColor(c [3]float64) string {
	clamp := func(f float64) int {
		v := int(f * 255)
		if v < 0 {
			return 0
		}
		if v > 255 {
			return 255
		}
		return v
	}
	return fmt.Sprintf("#%02x%02x%02x", clamp(c[0]), clamp(c[1]), clamp(c[2]))
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
