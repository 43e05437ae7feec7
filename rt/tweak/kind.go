package tweak

import "fmt"

// Kind is the closed set of value kinds a tweak can hold.
type Kind uint8

const (
	kindInvalid Kind = iota
	KindBool
	KindInt
	KindFloat32
	KindFloat64
	KindColor
)

var kindNames = [...]string{
	kindInvalid: "invalid",
	KindBool:    "bool",
	KindInt:     "int",
	KindFloat32: "float32",
	KindFloat64: "float64",
	KindColor:   "color",
}

// Kinds returns every supported kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindBool, KindInt, KindFloat32, KindFloat64, KindColor}
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Valid reports whether k is one of Kinds().
func (k Kind) Valid() bool { return k >= KindBool && k <= KindColor }

// Numeric reports whether k supports min/max/step.
func (k Kind) Numeric() bool {
	return k == KindInt || k == KindFloat32 || k == KindFloat64
}

// ParseKind parses the String form of a kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if k.String() == s {
			return k, nil
		}
	}
	return kindInvalid, fmt.Errorf("%w: unknown kind %q", ErrConfiguration, s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// KindOf maps a Go value to the kind it would be stored as.
//
// Supported types: bool; int, int8, int16, int32, int64, uint8, uint16, uint32;
// float32; float64; Color; Value. Anything else is ErrConfiguration.
func KindOf(v any) (Kind, error) {
	switch x := v.(type) {
	case bool:
		return KindBool, nil
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return KindInt, nil
	case float32:
		return KindFloat32, nil
	case float64:
		return KindFloat64, nil
	case Color:
		return KindColor, nil
	case Value:
		if !x.IsValid() {
			return kindInvalid, fmt.Errorf("%w: zero Value", ErrConfiguration)
		}
		return x.Kind(), nil
	default:
		return kindInvalid, fmt.Errorf("%w: unsupported type %T", ErrConfiguration, v)
	}
}
