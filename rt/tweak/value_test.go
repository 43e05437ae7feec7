package tweak

import (
	"errors"
	"math"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		in   any
		want Kind
	}{
		{true, KindBool},
		{3, KindInt},
		{int8(3), KindInt},
		{uint32(3), KindInt},
		{int64(3), KindInt},
		{float32(1.5), KindFloat32},
		{1.5, KindFloat64},
		{RGB(1, 2, 3), KindColor},
		{Float32(2), KindFloat32},
	}
	for _, c := range cases {
		got, err := KindOf(c.in)
		if err != nil {
			t.Fatalf("KindOf(%T): %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("KindOf(%T)=%v, want %v", c.in, got, c.want)
		}
	}

	for _, bad := range []any{"x", uint64(1), nil, []int{1}, Value{}} {
		if _, err := KindOf(bad); !errors.Is(err, ErrConfiguration) {
			t.Fatalf("KindOf(%T): expected ErrConfiguration, got %v", bad, err)
		}
	}
}

func TestValueOfMatchesKindOf(t *testing.T) {
	for _, in := range []any{false, 7, int16(-2), float32(0.25), 0.125, RGB(9, 8, 7)} {
		v, err := ValueOf(in)
		if err != nil {
			t.Fatal(err)
		}
		k, _ := KindOf(in)
		if v.Kind() != k {
			t.Fatalf("ValueOf(%T).Kind()=%v, KindOf=%v", in, v.Kind(), k)
		}
	}
}

func TestValueAccessorsRejectOtherKinds(t *testing.T) {
	v := Int(4)
	if _, ok := v.AsBool(); ok {
		t.Fatalf("AsBool on int should be !ok")
	}
	if n, ok := v.AsInt(); !ok || n != 4 {
		t.Fatalf("AsInt=%d,%v", n, ok)
	}
	if (Value{}).IsValid() {
		t.Fatalf("zero Value must be invalid")
	}
	if (Value{}).Interface() != nil {
		t.Fatalf("zero Value Interface must be nil")
	}
}

func TestValueTextRoundTrip(t *testing.T) {
	for _, v := range []Value{
		Bool(true), Bool(false),
		Int(-42), Int(math.MaxInt64),
		Float32(0.1), Float32(-3.5),
		Float64(0.1), Float64(1e300),
		ColorValue(RGB(0xff, 0x00, 0x80)),
		ColorValue(Color{R: 1, G: 2, B: 3, A: 4}),
	} {
		got, err := ParseValue(v.Kind(), v.String())
		if err != nil {
			t.Fatalf("ParseValue(%v, %q): %v", v.Kind(), v.String(), err)
		}
		if !got.Equal(v) {
			t.Fatalf("round trip %v: got %v", v, got)
		}
	}
}

func TestParseValueLooseBool(t *testing.T) {
	for _, s := range []string{"on", "YES", " t ", "1", "y"} {
		v, err := ParseValue(KindBool, s)
		if err != nil {
			t.Fatal(err)
		}
		if b, _ := v.AsBool(); !b {
			t.Fatalf("%q should parse as true", s)
		}
	}
	if _, err := ParseValue(KindBool, "maybe"); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
	if _, err := ParseValue(KindInt, "1.5"); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
	if _, err := ParseValue(KindFloat32, "1e60"); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch for float32 overflow, got %v", err)
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#FF8000")
	if err != nil {
		t.Fatal(err)
	}
	if c != RGB(0xff, 0x80, 0x00) {
		t.Fatalf("got %+v", c)
	}
	if c.String() != "#ff8000" {
		t.Fatalf("String=%q", c.String())
	}
	c, err = ParseColor("11223344")
	if err != nil {
		t.Fatal(err)
	}
	if c.A != 0x44 || c.String() != "#11223344" {
		t.Fatalf("got %+v %q", c, c.String())
	}
	for _, bad := range []string{"", "#fff", "#gg0000", "#1234567"} {
		if _, err := ParseColor(bad); err == nil {
			t.Fatalf("ParseColor(%q): expected error", bad)
		}
	}
}

func TestValueMarshalJSON(t *testing.T) {
	cases := map[string]Value{
		"true":      Bool(true),
		"8":         Int(8),
		"0.5":       Float64(0.5),
		`"#010203"`: ColorValue(RGB(1, 2, 3)),
		"null":      {},
	}
	for want, v := range cases {
		b, err := v.MarshalJSON()
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != want {
			t.Fatalf("MarshalJSON(%v)=%s, want %s", v, b, want)
		}
	}
}
