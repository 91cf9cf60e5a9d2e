// Package scene defines the read-only boundary between the conversion core
// and the source application's shading data.
//
// The core never talks to a live DCC session. Instead it consumes an
// [Adapter]: a narrow, read-only view that answers what type a node is,
// what its attribute values are, and which upstream nodes feed its inputs.
// The shipped implementation is [Snapshot], a JSON
// scene dump produced by an export script inside the source application.
//
// All Adapter calls must be side-effect free with respect to the source
// scene.
package scene

import "errors"

// ErrNodeNotFound is returned by Adapter methods when the identifier does
// not name a node in the source scene. Extraction treats such references as
// unresolved connections, not failures.
var ErrNodeNotFound = errors.New("node not found in scene")

// Connection describes one upstream connection feeding a node input.
type Connection struct {
	// Input is the local input (destination attribute) name on the
	// querying node, e.g. "color" or "normalCamera".
	Input string `json:"input"`
	// UpstreamID is the identifier of the node providing the value.
	UpstreamID string `json:"node"`
	// UpstreamPort is the output attribute on the upstream node,
	// e.g. "outColor" or "outColorR".
	UpstreamPort string `json:"port"`
}

// Adapter is the minimal read interface onto the source scene.
// Implementations must not mutate the scene.
type Adapter interface {
	// NodeType returns the type tag of the node, e.g. "aiStandardSurface".
	NodeType(id string) (string, error)

	// Attributes returns the node's attribute values keyed by name.
	// The returned map is owned by the caller.
	Attributes(id string) (map[string]Value, error)

	// UpstreamConnections lists the connections feeding the node's inputs.
	UpstreamConnections(id string) ([]Connection, error)
}

// RootSelector is implemented by adapters that can report the user's
// current selection. It is consumed by the CLI layer to pick conversion
// roots when none are given explicitly; the conversion core itself never
// calls it.
type RootSelector interface {
	SelectionRoots() []string
}
