package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	c := NoopConversionHooks{}
	c.OnExtractStart(ctx, []string{"mtl1SG"})
	c.OnExtractComplete(ctx, 12, 11, time.Second, nil)
	c.OnMapStart(ctx, "arnold", 12)
	c.OnMapComplete(ctx, "arnold", 2, time.Second, nil)
	c.OnSerializeStart(ctx, 12)
	c.OnSerializeComplete(ctx, 4096, time.Second, nil)

	ch := NoopCacheHooks{}
	ch.OnCacheHit(ctx, "doc")
	ch.OnCacheMiss(ctx, "graph")
	ch.OnCacheSet(ctx, "doc", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Conversion().(NoopConversionHooks); !ok {
		t.Error("Conversion() should return NoopConversionHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	customConversion := &testConversionHooks{}
	SetConversionHooks(customConversion)
	if Conversion() != customConversion {
		t.Error("SetConversionHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	Reset()
	if _, ok := Conversion().(NoopConversionHooks); !ok {
		t.Error("Reset() should restore NoopConversionHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testConversionHooks{}
	SetConversionHooks(custom)
	SetConversionHooks(nil)
	if Conversion() != custom {
		t.Error("SetConversionHooks(nil) should be ignored")
	}

	Reset()
}

type testConversionHooks struct{ NoopConversionHooks }
type testCacheHooks struct{ NoopCacheHooks }
