package tweak

import (
	"fmt"
	"math"
	"strconv"
)

// Value is a tweak value tagged with its Kind.
//
// Values are built with Bool, Int, Float32, Float64 or ColorValue, so the tag
// always matches the payload. The zero Value is invalid.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	c    Color
}

// Bool returns a bool Value.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Int returns an int Value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float32 returns a float32 Value.
func Float32(v float32) Value { return Value{kind: KindFloat32, f: float64(v)} }

// Float64 returns a float64 Value.
func Float64(v float64) Value { return Value{kind: KindFloat64, f: v} }

// ColorValue returns a color Value.
func ColorValue(v Color) Value { return Value{kind: KindColor, c: v} }

// ValueOf converts a supported Go value (see KindOf) into a Value.
func ValueOf(v any) (Value, error) {
	switch x := v.(type) {
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case float32:
		return Float32(x), nil
	case float64:
		return Float64(x), nil
	case Color:
		return ColorValue(x), nil
	case Value:
		if !x.IsValid() {
			return Value{}, fmt.Errorf("%w: zero Value", ErrConfiguration)
		}
		return x, nil
	default:
		return Value{}, fmt.Errorf("%w: unsupported type %T", ErrConfiguration, v)
	}
}

// Kind returns the value's tag.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v carries a known kind. The zero Value does not.
func (v Value) IsValid() bool { return v.kind.Valid() }

// AsBool returns the payload and whether v is a bool.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the payload and whether v is an int.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat32 returns the payload and whether v is a float32.
func (v Value) AsFloat32() (float32, bool) { return float32(v.f), v.kind == KindFloat32 }

// AsFloat64 returns the payload and whether v is a float64.
func (v Value) AsFloat64() (float64, bool) { return v.f, v.kind == KindFloat64 }

// AsColor returns the payload and whether v is a color.
func (v Value) AsColor() (Color, bool) { return v.c, v.kind == KindColor }

// Interface returns the payload as bool, int64, float32, float64 or Color.
// It returns nil for the zero Value.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat32:
		return float32(v.f)
	case KindFloat64:
		return v.f
	case KindColor:
		return v.c
	default:
		return nil
	}
}

// Equal reports whether both values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat32, KindFloat64:
		return v.f == o.f
	case KindColor:
		return v.c == o.c
	default:
		return true
	}
}

// String returns the canonical text form, parseable by ParseValue.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat32:
		return strconv.FormatFloat(v.f, 'g', -1, 32)
	case KindFloat64:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindColor:
		return v.c.String()
	default:
		return ""
	}
}

// MarshalJSON encodes the payload only (bool, number, or color string).
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool, KindInt, KindFloat32, KindFloat64:
		return []byte(v.String()), nil
	case KindColor:
		return []byte(strconv.Quote(v.c.String())), nil
	default:
		return []byte("null"), nil
	}
}

func (v Value) finite() bool {
	if v.kind != KindFloat32 && v.kind != KindFloat64 {
		return true
	}
	return !math.IsNaN(v.f) && !math.IsInf(v.f, 0)
}

// compare orders two numeric values of the same kind.
func compare(a, b Value) int {
	switch a.kind {
	case KindInt:
		switch {
		case a.i < b.i:
			return -1
		case a.i > b.i:
			return 1
		}
	case KindFloat32, KindFloat64:
		switch {
		case a.f < b.f:
			return -1
		case a.f > b.f:
			return 1
		}
	}
	return 0
}

func (v Value) positive() bool {
	switch v.kind {
	case KindInt:
		return v.i > 0
	case KindFloat32, KindFloat64:
		return v.f > 0
	default:
		return false
	}
}
