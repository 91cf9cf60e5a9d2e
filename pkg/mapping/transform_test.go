package mapping

import (
	"testing"

	"github.com/lookdevkit/shaderbridge/pkg/scene"
)

func TestRewriteExtension(t *testing.T) {
	cases := []struct {
		name string
		in   scene.Value
		want string
		err  bool
	}{
		{"png", scene.String("textures/wood.png"), "textures/wood.tx", false},
		{"exr", scene.String("maps/hdr.exr"), "maps/hdr.tx", false},
		{"already converted", scene.String("textures/wood.tx"), "textures/wood.tx", false},
		{"no extension", scene.String("textures/wood"), "textures/wood", false},
		{"backslashes", scene.String(`textures\set\wood.png`), "textures/set/wood.tx", false},
		{"not a string", scene.Number(3), "", true},
	}
	fn, err := ResolveTransform("extension:.tx")
	if err != nil {
		t.Fatalf("ResolveTransform: %v", err)
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := fn(tc.in)
			if tc.err {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("transform: %v", err)
			}
			if got.Str != tc.want {
				t.Errorf("got %q, want %q", got.Str, tc.want)
			}
		})
	}
}

func TestScaleTransform(t *testing.T) {
	fn, err := ResolveTransform("scale:0.5")
	if err != nil {
		t.Fatalf("ResolveTransform: %v", err)
	}
	if got, err := fn(scene.Number(4)); err != nil || !got.Equal(scene.Number(2)) {
		t.Errorf("number: got %v, %v", got, err)
	}
	if got, err := fn(scene.Color(1, 0.5, 0)); err != nil || !got.Equal(scene.Color(0.5, 0.25, 0)) {
		t.Errorf("color: got %v, %v", got, err)
	}
	if _, err := fn(scene.String("nope")); err == nil {
		t.Error("string: expected error")
	}
}

func TestInvertTransform(t *testing.T) {
	fn, err := ResolveTransform("invert")
	if err != nil {
		t.Fatalf("ResolveTransform: %v", err)
	}
	if got, err := fn(scene.Number(0.25)); err != nil || !got.Equal(scene.Number(0.75)) {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestResolveTransformUnknown(t *testing.T) {
	if _, err := ResolveTransform("frobnicate"); err == nil {
		t.Error("expected error for unknown transform")
	}
	if _, err := ResolveTransform("scale:abc"); err == nil {
		t.Error("expected error for bad scale factor")
	}
}

func TestRegisterTransform(t *testing.T) {
	RegisterTransform("negate", func(v scene.Value) (scene.Value, error) {
		return scene.Number(-v.Num), nil
	})
	fn, err := ResolveTransform("negate")
	if err != nil {
		t.Fatalf("ResolveTransform: %v", err)
	}
	if got, _ := fn(scene.Number(2)); !got.Equal(scene.Number(-2)) {
		t.Errorf("got %v", got)
	}
}
