package cache

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullCache.Get should always miss")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if _, hit, _ = c.Get(ctx, "key"); hit {
		t.Error("NullCache should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if _, hit, _ := c.Get(ctx, "missing"); hit {
		t.Error("empty cache should miss")
	}

	want := []byte("<katana/>")
	if err := c.Set(ctx, "doc", want, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, hit, err := c.Get(ctx, "doc")
	if err != nil || !hit {
		t.Fatalf("Get: hit=%v err=%v", hit, err)
	}
	if string(got) != string(want) {
		t.Errorf("Get = %q, want %q", got, want)
	}

	if err := c.Delete(ctx, "doc"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "doc"); hit {
		t.Error("deleted entry still present")
	}
	// Double delete is fine.
	if err := c.Delete(ctx, "doc"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	if err := c.Set(ctx, "k", []byte("v"), -time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry returned as hit")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	g1 := k.SnapshotKey("abc", []string{"mtl1SG"})
	g2 := k.SnapshotKey("abc", []string{"mtl2SG"})
	if g1 == g2 {
		t.Error("different roots should produce different graph keys")
	}
	if !strings.HasPrefix(g1, "graph:") {
		t.Errorf("graph key = %q", g1)
	}

	d1 := k.DocumentKey("abc", DocumentKeyOpts{RuleSet: "arnold", Policy: "passthrough"})
	d2 := k.DocumentKey("abc", DocumentKeyOpts{RuleSet: "prman", Policy: "passthrough"})
	if d1 == d2 {
		t.Error("different rule sets should produce different document keys")
	}
	if !strings.HasPrefix(d1, "doc:") {
		t.Errorf("document key = %q", d1)
	}

	d3 := k.DocumentKey("abc", DocumentKeyOpts{RuleSet: "site", RulesHash: "aaa", Policy: "passthrough"})
	d4 := k.DocumentKey("abc", DocumentKeyOpts{RuleSet: "site", RulesHash: "bbb", Policy: "passthrough"})
	if d3 == d4 {
		t.Error("different rule contents should produce different document keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "site:anim:")
	key := scoped.DocumentKey("abc", DocumentKeyOpts{RuleSet: "arnold"})
	if !strings.HasPrefix(key, "site:anim:doc:") {
		t.Errorf("scoped key = %q", key)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "p:")
	if key := scoped.SnapshotKey("x", nil); !strings.HasPrefix(key, "p:graph:") {
		t.Errorf("key = %q", key)
	}
}
