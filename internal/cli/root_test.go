package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lookdevkit/shaderbridge/pkg/mapping/rulesets"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	want := filepath.Join(home, ".cache", appName)
	if dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCacheDirXDGOverride(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if dir != filepath.Join("/tmp/xdg", appName) {
		t.Errorf("cacheDir() = %q, want XDG_CACHE_HOME honored", dir)
	}
}

func TestNewCacheDisabled(t *testing.T) {
	c := newCache(true)
	if c == nil {
		t.Fatal("newCache(true) returned nil")
	}
	defer c.Close()
}

func TestNewCacheFileBacked(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	c := newCache(false)
	if c == nil {
		t.Fatal("newCache(false) returned nil")
	}
	defer c.Close()
}

func TestRuleTargetSummaries(t *testing.T) {
	rs, ok := rulesets.Find("arnold")
	if !ok {
		t.Fatal("arnold rule set not registered")
	}

	cases := []struct {
		name string
		typ  string
		want string
	}{
		{"plain rule", "aiColorCorrect", "color_correct"},
		{"computed expansion", "bump2d", "(computed)"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rule, ok := rs.Find(tc.typ)
			if !ok {
				t.Fatalf("no rule for %s", tc.typ)
			}
			if got := ruleTarget(rule); got != tc.want {
				t.Errorf("ruleTarget(%s) = %q, want %q", tc.typ, got, tc.want)
			}
		})
	}
}
