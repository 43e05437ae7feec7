package tweak

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseValue parses s as a value of kind k.
//
// Bool parsing is lenient (case-insensitive): true/false, t/f, 1/0, yes/no,
// y/n, on/off. Ints are base10. Colors are "#rrggbb" or "#rrggbbaa".
func ParseValue(k Kind, s string) (Value, error) {
	switch k {
	case KindBool:
		b, ok := parseBoolLoose(s)
		if !ok {
			return Value{}, fmt.Errorf("%w: expects bool (true/false, t/f, 1/0, yes/no, on/off), got %q", ErrTypeMismatch, s)
		}
		return Bool(b), nil
	case KindInt:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: expects int base10, got %q", ErrTypeMismatch, s)
		}
		return Int(n), nil
	case KindFloat32:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
		if err != nil {
			return Value{}, fmt.Errorf("%w: expects float32, got %q", ErrTypeMismatch, s)
		}
		return Float32(float32(f)), nil
	case KindFloat64:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: expects float64, got %q", ErrTypeMismatch, s)
		}
		return Float64(f), nil
	case KindColor:
		c, err := ParseColor(s)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
		}
		return ColorValue(c), nil
	default:
		return Value{}, fmt.Errorf("%w: unknown kind %d", ErrConfiguration, k)
	}
}

func parseBoolLoose(s string) (bool, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "true", "t", "1", "yes", "y", "on":
		return true, true
	case "false", "f", "0", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
