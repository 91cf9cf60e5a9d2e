package scene

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/lookdevkit/shaderbridge/pkg/errors"
)

// SnapshotNode is one node record in a scene snapshot.
type SnapshotNode struct {
	Type        string           `json:"type"`
	Attributes  map[string]Value `json:"attributes,omitempty"`
	Connections []Connection     `json:"connections,omitempty"`
}

// Snapshot is a frozen JSON dump of a shading network, exported from the
// source application by a companion script. It implements [Adapter] and
// [RootSelector].
//
// The on-disk format:
//
//	{
//	  "selection": ["blinn1SG"],
//	  "nodes": {
//	    "file1": {
//	      "type": "file",
//	      "attributes": {"fileTextureName": "textures/wood.png"},
//	      "connections": [
//	        {"input": "uvCoord", "node": "place2d1", "port": "outUV"}
//	      ]
//	    }
//	  }
//	}
type Snapshot struct {
	Selection []string                `json:"selection,omitempty"`
	Nodes     map[string]SnapshotNode `json:"nodes"`
}

// ReadSnapshot decodes a snapshot from JSON bytes.
func ReadSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSnapshot, err, "decode scene snapshot")
	}
	if s.Nodes == nil {
		s.Nodes = map[string]SnapshotNode{}
	}
	return &s, nil
}

// ReadSnapshotFile reads and decodes a snapshot file.
func ReadSnapshotFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidSnapshot, err, "read %s", path)
	}
	return ReadSnapshot(data)
}

// NodeType implements Adapter.
func (s *Snapshot) NodeType(id string) (string, error) {
	n, ok := s.Nodes[id]
	if !ok {
		return "", ErrNodeNotFound
	}
	return n.Type, nil
}

// Attributes implements Adapter. The returned map is a copy.
func (s *Snapshot) Attributes(id string) (map[string]Value, error) {
	n, ok := s.Nodes[id]
	if !ok {
		return nil, ErrNodeNotFound
	}
	attrs := make(map[string]Value, len(n.Attributes))
	for k, v := range n.Attributes {
		attrs[k] = v
	}
	return attrs, nil
}

// UpstreamConnections implements Adapter. Connections are returned sorted
// by input name so traversal order is deterministic across runs.
func (s *Snapshot) UpstreamConnections(id string) ([]Connection, error) {
	n, ok := s.Nodes[id]
	if !ok {
		return nil, ErrNodeNotFound
	}
	conns := make([]Connection, len(n.Connections))
	copy(conns, n.Connections)
	sort.Slice(conns, func(i, j int) bool { return conns[i].Input < conns[j].Input })
	return conns, nil
}

// SelectionRoots implements RootSelector, returning the selection recorded
// at export time.
func (s *Snapshot) SelectionRoots() []string {
	return s.Selection
}

// NodesOfType returns the identifiers of all nodes with the given type tag,
// sorted. Used to offer root candidates when nothing was selected.
func (s *Snapshot) NodesOfType(typeTag string) []string {
	var ids []string
	for id, n := range s.Nodes {
		if n.Type == typeTag {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
