package tweak

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestDefinitionKeyValidation(t *testing.T) {
	for _, key := range []string{"", "a\nb", "tab\there", "bad\xff"} {
		if _, err := NewDefinition(key, Bool(false)); !errors.Is(err, ErrConfiguration) {
			t.Fatalf("key %q: expected ErrConfiguration, got %v", key, err)
		}
	}
	for _, key := range []string{"ok.Key_1-x", "Layout-Corner Radius", "layout/cornerRadius", "rayon.coiné", "a$"} {
		if _, err := NewDefinition(key, Int(4), WithBounds(Int(0), Int(20))); err != nil {
			t.Fatalf("key %q: %v", key, err)
		}
	}
}

func TestDefinitionKeyErrorNamesRune(t *testing.T) {
	_, err := NewDefinition("é\u0007", Bool(false))
	if err == nil || !strings.Contains(err.Error(), "U+0007") {
		t.Fatalf("err=%v", err)
	}
}

func TestDefinitionValidation(t *testing.T) {
	cases := []struct {
		name string
		def  Value
		opts []DefinitionOption
	}{
		{"zero default", Value{}, nil},
		{"default below min", Int(1), []DefinitionOption{WithMin(Int(2))}},
		{"default above max", Float64(3), []DefinitionOption{WithMax(Float64(2))}},
		{"min > max", Int(5), []DefinitionOption{WithBounds(Int(10), Int(0))}},
		{"step zero", Int(5), []DefinitionOption{WithStep(Int(0))}},
		{"step negative", Float32(1), []DefinitionOption{WithStep(Float32(-0.5))}},
		{"bounds on bool", Bool(true), []DefinitionOption{WithMin(Bool(false))}},
		{"step on color", ColorValue(RGB(0, 0, 0)), []DefinitionOption{WithStep(Int(1))}},
		{"bound kind mismatch", Int(1), []DefinitionOption{WithMax(Float64(2))}},
		{"nan default", Float64(math.NaN()), nil},
		{"inf max", Float64(1), []DefinitionOption{WithMax(Float64(math.Inf(1)))}},
	}
	for _, c := range cases {
		if _, err := NewDefinition("k", c.def, c.opts...); !errors.Is(err, ErrConfiguration) {
			t.Fatalf("%s: expected ErrConfiguration, got %v", c.name, err)
		}
	}
}

func TestDefinitionAccessors(t *testing.T) {
	d, err := NewDefinition("layout.cornerRadius", Int(4),
		WithDisplayName("Corner radius"),
		WithBounds(Int(0), Int(20)),
		WithStep(Int(2)),
	)
	if err != nil {
		t.Fatal(err)
	}
	if d.Kind() != KindInt || d.DisplayName() != "Corner radius" {
		t.Fatalf("kind=%v name=%q", d.Kind(), d.DisplayName())
	}
	if mn, ok := d.Min(); !ok || !mn.Equal(Int(0)) {
		t.Fatalf("min=%v ok=%v", mn, ok)
	}
	if st, ok := d.Step(); !ok || !st.Equal(Int(2)) {
		t.Fatalf("step=%v ok=%v", st, ok)
	}

	plain := MustDefinition("x", Bool(true))
	if plain.DisplayName() != "x" {
		t.Fatalf("display name should fall back to key, got %q", plain.DisplayName())
	}
	if _, ok := plain.Max(); ok {
		t.Fatalf("bool definition has no max")
	}
}

func TestDefinitionCheck(t *testing.T) {
	d := MustDefinition("f", Float32(0.5), WithBounds(Float32(0), Float32(1)))
	if err := d.Check(Float32(1)); err != nil {
		t.Fatalf("max is inclusive: %v", err)
	}
	if err := d.Check(Float32(1.5)); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
	if err := d.Check(Float64(0.5)); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
	if err := d.Check(Float32(float32(math.NaN()))); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds for NaN, got %v", err)
	}
}

func TestMustDefinitionPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	_ = MustDefinition("", Int(0))
}

func TestCollectionOrderAndDuplicates(t *testing.T) {
	c := NewCollection("Layout")
	for _, k := range []string{"z", "a", "m"} {
		if err := c.Add(MustDefinition(k, Int(0))); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Add(MustDefinition("a", Bool(true))); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
	if c.Len() != 3 {
		t.Fatalf("Len=%d, want 3", c.Len())
	}
	var got []string
	for d := range c.All() {
		got = append(got, d.Key())
	}
	if len(got) != 3 || got[0] != "z" || got[1] != "a" || got[2] != "m" {
		t.Fatalf("order=%v, want insertion order [z a m]", got)
	}
	if err := c.Add(Definition{}); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for zero Definition, got %v", err)
	}
}
