package scene

import (
	"encoding/json"
	"fmt"
	"math"
)

// Kind discriminates the closed set of attribute value variants.
// Source applications expose loosely typed attributes; modeling them as a
// tagged union lets transform functions match explicitly on value kind
// instead of relying on implicit coercion.
type Kind int

const (
	// KindNumber is a scalar numeric value. Booleans from the source scene
	// are folded to 0/1 at snapshot time.
	KindNumber Kind = iota
	// KindString is a plain string value (names, file paths).
	KindString
	// KindColor is an RGB color triple.
	KindColor
	// KindEnum is a resolved enumeration: the original index plus its
	// target-schema label. Enum values are produced by enum remap transforms;
	// source scenes deliver enum attributes as plain numbers.
	KindEnum
)

// String returns the kind name for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindColor:
		return "color"
	case KindEnum:
		return "enum"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a tagged attribute value. Exactly the field matching Kind is
// meaningful; the zero value is the number 0.
type Value struct {
	Kind  Kind
	Num   float64
	Str   string
	Color [3]float64
}

// Number creates a numeric value.
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// String creates a string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Color creates a color triple value.
func Color(r, g, b float64) Value { return Value{Kind: KindColor, Color: [3]float64{r, g, b}} }

// Enum creates an enum value from an index and its resolved label.
func Enum(index int, label string) Value {
	return Value{Kind: KindEnum, Num: float64(index), Str: label}
}

// epsilon for float comparison, matching the tolerance the original
// exporter used when deciding whether an attribute differs from its default.
const epsilon = 0.001

// Equal compares two values with a small tolerance on numeric components.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNumber:
		return math.Abs(v.Num-o.Num) < epsilon
	case KindString:
		return v.Str == o.Str
	case KindColor:
		for i := range v.Color {
			if math.Abs(v.Color[i]-o.Color[i]) >= epsilon {
				return false
			}
		}
		return true
	case KindEnum:
		return v.Str == o.Str && math.Abs(v.Num-o.Num) < epsilon
	}
	return false
}

// MarshalJSON writes the value in its natural JSON shape: numbers as
// numbers, strings as strings, colors as 3-element arrays, enums as their
// labels.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		return json.Marshal(v.Num)
	case KindString, KindEnum:
		return json.Marshal(v.Str)
	case KindColor:
		return json.Marshal(v.Color[:])
	}
	return nil, fmt.Errorf("unknown value kind %d", v.Kind)
}

// UnmarshalJSON infers the value kind from the JSON shape. Scene snapshots
// carry numbers, bools (folded to 0/1), strings, and color arrays; enum
// values only appear after mapping, never in snapshots.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case float64:
		*v = Number(t)
	case bool:
		if t {
			*v = Number(1)
		} else {
			*v = Number(0)
		}
	case string:
		*v = String(t)
	case []any:
		if len(t) < 3 || len(t) > 4 {
			return fmt.Errorf("array attribute must have 3 or 4 components, got %d", len(t))
		}
		var c [3]float64
		for i := 0; i < 3; i++ {
			f, ok := t[i].(float64)
			if !ok {
				return fmt.Errorf("color component %d is not a number", i)
			}
			c[i] = f
		}
		*v = Value{Kind: KindColor, Color: c}
	default:
		return fmt.Errorf("unsupported attribute value shape %T", raw)
	}
	return nil
}
