// Package layout assigns 2D canvas positions to mapped nodes so pasted
// networks arrive readable instead of stacked at the origin.
//
// Placement is strictly layered: each node's row is the longest downstream
// path to a sink, sinks (the material output) sit at y zero, and sources
// (textures) sit above them. Within a row nodes spread horizontally,
// centered, in identifier order, which keeps repeated conversions of the
// same scene pixel-identical.
package layout

import (
	"sort"

	"github.com/lookdevkit/shaderbridge/pkg/mapping"
)

// Grid pitch in canvas units. Matches the node dimensions of the target
// tool's graph view.
const (
	NodeWidth  = 200
	SpaceWidth = 60
	RowHeight  = 100
)

// Point is a node position on the canvas.
type Point struct {
	X int
	Y int
}

// Positions maps target node identifiers to canvas positions.
type Positions map[string]Point

// Assign computes a position for every node of the graph. Edges whose
// endpoints are missing are ignored; the layout never fails, it only
// degrades for malformed graphs.
func Assign(tg *mapping.TargetGraph) Positions {
	nodes := tg.Nodes()
	rows := assignRows(tg)

	// Bucket nodes per row, deterministic within a row by identifier.
	byRow := map[int][]string{}
	for _, n := range nodes {
		r := rows[n.ID]
		byRow[r] = append(byRow[r], n.ID)
	}
	for _, ids := range byRow {
		sort.Strings(ids)
	}

	pitch := NodeWidth + SpaceWidth
	pos := make(Positions, len(nodes))
	for r, ids := range byRow {
		// Center each row around x zero.
		width := (len(ids) - 1) * pitch
		for i, id := range ids {
			pos[id] = Point{
				X: i*pitch - width/2,
				Y: r * RowHeight,
			}
		}
	}
	return pos
}

// assignRows computes each node's layer as the longest path to a sink,
// Kahn-style over the reversed edges. Sinks get row zero. Nodes on a cycle
// (which the extractor is expected to have broken, but a hand-built graph
// may not) keep row zero rather than looping forever.
func assignRows(tg *mapping.TargetGraph) map[string]int {
	// outdeg counts edges node -> consumer; edges are stored on the
	// consumer as inputs.
	outdeg := map[string]int{}
	suppliers := map[string][]string{}
	for _, n := range tg.Nodes() {
		for _, in := range n.Inputs {
			if tg.Node(in.FromID) == nil {
				continue
			}
			outdeg[in.FromID]++
			suppliers[n.ID] = append(suppliers[n.ID], in.FromID)
		}
	}

	rows := make(map[string]int, tg.NodeCount())
	var queue []string
	for _, n := range tg.Nodes() {
		if outdeg[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, up := range suppliers[id] {
			if rows[id]+1 > rows[up] {
				rows[up] = rows[id] + 1
			}
			outdeg[up]--
			if outdeg[up] == 0 {
				queue = append(queue, up)
			}
		}
	}
	return rows
}
