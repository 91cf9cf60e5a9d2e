package scene

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	sberrors "github.com/lookdevkit/shaderbridge/pkg/errors"
)

const snapshotJSON = `{
  "selection": ["blinn1SG"],
  "nodes": {
    "file1": {
      "type": "file",
      "attributes": {
        "fileTextureName": "textures/wood.png",
        "colorGain": [1, 0.5, 0.5]
      },
      "connections": [
        {"input": "uvCoord", "node": "place2d1", "port": "outUV"}
      ]
    },
    "place2d1": {"type": "place2dTexture"}
  }
}`

func TestReadSnapshot(t *testing.T) {
	snap, err := ReadSnapshot([]byte(snapshotJSON))
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}

	typ, err := snap.NodeType("file1")
	if err != nil {
		t.Fatalf("NodeType: %v", err)
	}
	if typ != "file" {
		t.Errorf("NodeType = %q, want file", typ)
	}

	attrs, err := snap.Attributes("file1")
	if err != nil {
		t.Fatalf("Attributes: %v", err)
	}
	if !attrs["fileTextureName"].Equal(String("textures/wood.png")) {
		t.Errorf("fileTextureName = %+v", attrs["fileTextureName"])
	}
	if !attrs["colorGain"].Equal(Color(1, 0.5, 0.5)) {
		t.Errorf("colorGain = %+v", attrs["colorGain"])
	}

	conns, err := snap.UpstreamConnections("file1")
	if err != nil {
		t.Fatalf("UpstreamConnections: %v", err)
	}
	want := []Connection{{Input: "uvCoord", UpstreamID: "place2d1", UpstreamPort: "outUV"}}
	if !reflect.DeepEqual(conns, want) {
		t.Errorf("connections = %+v, want %+v", conns, want)
	}

	if got := snap.SelectionRoots(); !reflect.DeepEqual(got, []string{"blinn1SG"}) {
		t.Errorf("SelectionRoots = %v", got)
	}
}

func TestSnapshotMissingNode(t *testing.T) {
	snap, err := ReadSnapshot([]byte(snapshotJSON))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := snap.NodeType("ghost"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("NodeType(ghost) err = %v, want ErrNodeNotFound", err)
	}
	if _, err := snap.Attributes("ghost"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("Attributes(ghost) err = %v, want ErrNodeNotFound", err)
	}
	if _, err := snap.UpstreamConnections("ghost"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("UpstreamConnections(ghost) err = %v, want ErrNodeNotFound", err)
	}
}

func TestAttributesReturnsCopy(t *testing.T) {
	snap, err := ReadSnapshot([]byte(snapshotJSON))
	if err != nil {
		t.Fatal(err)
	}

	first, _ := snap.Attributes("file1")
	first["fileTextureName"] = String("mutated")

	second, _ := snap.Attributes("file1")
	if !second["fileTextureName"].Equal(String("textures/wood.png")) {
		t.Error("mutating the returned map leaked into the snapshot")
	}
}

func TestUpstreamConnectionsSorted(t *testing.T) {
	snap, err := ReadSnapshot([]byte(`{
		"nodes": {
			"s": {
				"type": "aiStandardSurface",
				"connections": [
					{"input": "specularColor", "node": "b", "port": "outColor"},
					{"input": "baseColor", "node": "a", "port": "outColor"}
				]
			}
		}
	}`))
	if err != nil {
		t.Fatal(err)
	}

	conns, err := snap.UpstreamConnections("s")
	if err != nil {
		t.Fatal(err)
	}
	if conns[0].Input != "baseColor" || conns[1].Input != "specularColor" {
		t.Errorf("connections not sorted by input: %+v", conns)
	}
}

func TestNodesOfType(t *testing.T) {
	snap, err := ReadSnapshot([]byte(`{
		"nodes": {
			"zSG": {"type": "shadingEngine"},
			"aSG": {"type": "shadingEngine"},
			"tex": {"type": "file"}
		}
	}`))
	if err != nil {
		t.Fatal(err)
	}

	got := snap.NodesOfType("shadingEngine")
	if !reflect.DeepEqual(got, []string{"aSG", "zSG"}) {
		t.Errorf("NodesOfType = %v, want sorted [aSG zSG]", got)
	}
}

func TestReadSnapshotInvalid(t *testing.T) {
	if _, err := ReadSnapshot([]byte("{nope")); !sberrors.Is(err, sberrors.ErrCodeInvalidSnapshot) {
		t.Errorf("err = %v, want INVALID_SNAPSHOT", err)
	}
}

func TestReadSnapshotFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	if _, err := ReadSnapshotFile(path); !sberrors.Is(err, sberrors.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
}
