package mapping

import (
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/lookdevkit/shaderbridge/pkg/scene"
)

// TransformFunc converts a source attribute value to its target
// representation. Returning an error leaves the target parameter at its
// schema default and records an InvalidAttributeValue warning.
type TransformFunc func(v scene.Value) (scene.Value, error)

var (
	transformMu sync.RWMutex
	transforms  = map[string]TransformFunc{
		"identity": func(v scene.Value) (scene.Value, error) { return v, nil },
		"invert":   invertNumber,
	}
)

// RegisterTransform adds a named transform to the registry. Registration
// happens at init time, before any conversion runs.
func RegisterTransform(name string, fn TransformFunc) {
	transformMu.Lock()
	defer transformMu.Unlock()
	transforms[name] = fn
}

// ResolveTransform looks up a transform by name. Parameterized transforms
// use a "name:arg" form:
//
//	extension:.tx    rewrite a file path's extension
//	scale:0.5        multiply numeric/color values
func ResolveTransform(name string) (TransformFunc, error) {
	transformMu.RLock()
	fn, ok := transforms[name]
	transformMu.RUnlock()
	if ok {
		return fn, nil
	}
	if arg, found := strings.CutPrefix(name, "extension:"); found {
		return rewriteExtension(arg), nil
	}
	if arg, found := strings.CutPrefix(name, "scale:"); found {
		var factor float64
		if _, err := fmt.Sscanf(arg, "%g", &factor); err != nil {
			return nil, fmt.Errorf("bad scale factor %q: %w", arg, err)
		}
		return scaleBy(factor), nil
	}
	return nil, fmt.Errorf("unknown transform %q", name)
}

// rewriteExtension returns a transform that replaces a file path's
// extension with ext. Paths that already carry ext and paths without any
// extension pass through unchanged; backslashes are normalized to forward
// slashes either way.
func rewriteExtension(ext string) TransformFunc {
	return func(v scene.Value) (scene.Value, error) {
		if v.Kind != scene.KindString {
			return v, fmt.Errorf("extension rewrite needs a string, got %s", v.Kind)
		}
		p := strings.ReplaceAll(v.Str, "\\", "/")
		if old := path.Ext(p); old != "" && old != ext {
			p = strings.TrimSuffix(p, old) + ext
		}
		return scene.String(p), nil
	}
}

// scaleBy returns a transform multiplying numeric and color values.
func scaleBy(factor float64) TransformFunc {
	return func(v scene.Value) (scene.Value, error) {
		switch v.Kind {
		case scene.KindNumber:
			return scene.Number(v.Num * factor), nil
		case scene.KindColor:
			return scene.Color(v.Color[0]*factor, v.Color[1]*factor, v.Color[2]*factor), nil
		}
		return v, fmt.Errorf("scale needs a number or color, got %s", v.Kind)
	}
}

func invertNumber(v scene.Value) (scene.Value, error) {
	if v.Kind != scene.KindNumber {
		return v, fmt.Errorf("invert needs a number, got %s", v.Kind)
	}
	return scene.Number(1 - v.Num), nil
}

// applyAttrRule runs the rule's enum remap, scale, and named transform in
// that order.
func applyAttrRule(ar AttrRule, v scene.Value) (scene.Value, error) {
	if len(ar.Enum) > 0 {
		if v.Kind != scene.KindNumber {
			return v, fmt.Errorf("enum remap needs a numeric index, got %s", v.Kind)
		}
		idx := int(v.Num)
		if idx < 0 || idx >= len(ar.Enum) {
			return v, fmt.Errorf("enum index %d out of range [0,%d)", idx, len(ar.Enum))
		}
		v = scene.Enum(idx, ar.Enum[idx])
	}
	if ar.Scale != 0 {
		scaled, err := scaleBy(ar.Scale)(v)
		if err != nil {
			return v, err
		}
		v = scaled
	}
	if ar.Transform != "" {
		fn, err := ResolveTransform(ar.Transform)
		if err != nil {
			return v, err
		}
		return fn(v)
	}
	return v, nil
}
