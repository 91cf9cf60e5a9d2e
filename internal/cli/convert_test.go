package cli

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeSnapshot(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPickRootsExplicit(t *testing.T) {
	roots, err := pickRoots("ignored.json", []string{"SG1", "SG2"})
	if err != nil {
		t.Fatalf("pickRoots: %v", err)
	}
	if !reflect.DeepEqual(roots, []string{"SG1", "SG2"}) {
		t.Errorf("roots = %v, want [SG1 SG2]", roots)
	}
}

func TestPickRootsDefersToSelection(t *testing.T) {
	path := writeSnapshot(t, `{
		"selection": ["SG1"],
		"nodes": {"SG1": {"type": "shadingEngine"}}
	}`)

	roots, err := pickRoots(path, nil)
	if err != nil {
		t.Fatalf("pickRoots: %v", err)
	}
	// The pipeline reads the selection itself; nil keeps one code path.
	if roots != nil {
		t.Errorf("roots = %v, want nil", roots)
	}
}

func TestPickRootsSingleShadingGroup(t *testing.T) {
	path := writeSnapshot(t, `{
		"nodes": {
			"SG1": {"type": "shadingEngine"},
			"tex": {"type": "file"}
		}
	}`)

	roots, err := pickRoots(path, nil)
	if err != nil {
		t.Fatalf("pickRoots: %v", err)
	}
	if !reflect.DeepEqual(roots, []string{"SG1"}) {
		t.Errorf("roots = %v, want [SG1]", roots)
	}
}

func TestPickRootsNoShadingGroups(t *testing.T) {
	path := writeSnapshot(t, `{"nodes": {"tex": {"type": "file"}}}`)

	roots, err := pickRoots(path, nil)
	if err != nil {
		t.Fatalf("pickRoots: %v", err)
	}
	if roots != nil {
		t.Errorf("roots = %v, want nil", roots)
	}
}

func TestWriteOutputToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xml")
	if err := writeOutput([]byte("<katana/>"), path); err != nil {
		t.Fatalf("writeOutput: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "<katana/>" {
		t.Errorf("file content = %q", data)
	}
}
