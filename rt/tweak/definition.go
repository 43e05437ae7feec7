package tweak

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type defConfig struct {
	name string

	min, max, step Value
	hasMin         bool
	hasMax         bool
	hasStep        bool
}

// DefinitionOption configures a Definition at construction time.
type DefinitionOption func(*defConfig)

// WithDisplayName sets the human-readable name. It defaults to the key.
func WithDisplayName(name string) DefinitionOption {
	return func(c *defConfig) { c.name = name }
}

// WithMin sets an inclusive lower bound (numeric kinds only).
func WithMin(min Value) DefinitionOption {
	return func(c *defConfig) {
		c.hasMin = true
		c.min = min
	}
}

// WithMax sets an inclusive upper bound (numeric kinds only).
func WithMax(max Value) DefinitionOption {
	return func(c *defConfig) {
		c.hasMax = true
		c.max = max
	}
}

// WithBounds is WithMin(min) plus WithMax(max).
func WithBounds(min, max Value) DefinitionOption {
	return func(c *defConfig) {
		WithMin(min)(c)
		WithMax(max)(c)
	}
}

// WithStep sets the editor step size (numeric kinds only, must be > 0).
//
// Step is display metadata; it is not enforced when setting overrides.
func WithStep(step Value) DefinitionOption {
	return func(c *defConfig) {
		c.hasStep = true
		c.step = step
	}
}

// Definition describes one tweak. It is an immutable value.
type Definition struct {
	key  string
	name string
	def  Value

	min, max, step Value
	hasMin         bool
	hasMax         bool
	hasStep        bool
}

// NewDefinition validates and returns a Definition. The tweak's kind is the
// kind of defaultValue.
//
// All failures wrap ErrConfiguration.
func NewDefinition(key string, defaultValue Value, opts ...DefinitionOption) (Definition, error) {
	if err := validateKey(key); err != nil {
		return Definition{}, err
	}
	if !defaultValue.IsValid() {
		return Definition{}, fmt.Errorf("%w: %q has no default value", ErrConfiguration, key)
	}
	var cfg defConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	k := defaultValue.Kind()
	if !defaultValue.finite() {
		return Definition{}, fmt.Errorf("%w: %q default must be finite, got %v", ErrConfiguration, key, defaultValue)
	}
	if (cfg.hasMin || cfg.hasMax || cfg.hasStep) && !k.Numeric() {
		return Definition{}, fmt.Errorf("%w: %q: %s tweaks take no min/max/step", ErrConfiguration, key, k)
	}
	for _, b := range []struct {
		name string
		set  bool
		v    Value
	}{{"min", cfg.hasMin, cfg.min}, {"max", cfg.hasMax, cfg.max}, {"step", cfg.hasStep, cfg.step}} {
		if !b.set {
			continue
		}
		if b.v.Kind() != k {
			return Definition{}, fmt.Errorf("%w: %q %s is %s, want %s", ErrConfiguration, key, b.name, b.v.Kind(), k)
		}
		if !b.v.finite() {
			return Definition{}, fmt.Errorf("%w: %q %s must be finite", ErrConfiguration, key, b.name)
		}
	}
	if cfg.hasMin && cfg.hasMax && compare(cfg.min, cfg.max) > 0 {
		return Definition{}, fmt.Errorf("%w: %q min(%v) > max(%v)", ErrConfiguration, key, cfg.min, cfg.max)
	}
	if cfg.hasStep && !cfg.step.positive() {
		return Definition{}, fmt.Errorf("%w: %q step must be > 0, got %v", ErrConfiguration, key, cfg.step)
	}

	d := Definition{
		key:     key,
		name:    strings.TrimSpace(cfg.name),
		def:     defaultValue,
		min:     cfg.min,
		max:     cfg.max,
		step:    cfg.step,
		hasMin:  cfg.hasMin,
		hasMax:  cfg.hasMax,
		hasStep: cfg.hasStep,
	}
	if err := d.Check(defaultValue); err != nil {
		return Definition{}, fmt.Errorf("%w: default value: %v", ErrConfiguration, err)
	}
	return d, nil
}

// MustDefinition is like NewDefinition but panics on error.
// It is meant for static definition tables initialized at startup.
func MustDefinition(key string, defaultValue Value, opts ...DefinitionOption) Definition {
	d, err := NewDefinition(key, defaultValue, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

// Key returns the tweak key.
func (d Definition) Key() string { return d.key }

// Kind returns the kind of the default value.
func (d Definition) Kind() Kind { return d.def.Kind() }

// DisplayName returns the display name, falling back to the key.
func (d Definition) DisplayName() string {
	if d.name == "" {
		return d.key
	}
	return d.name
}

// Default returns the default value.
func (d Definition) Default() Value { return d.def }

// Min returns the lower bound, if any.
func (d Definition) Min() (Value, bool) { return d.min, d.hasMin }

// Max returns the upper bound, if any.
func (d Definition) Max() (Value, bool) { return d.max, d.hasMax }

// Step returns the editor step, if any. It is not enforced on set.
func (d Definition) Step() (Value, bool) { return d.step, d.hasStep }

// Check reports whether v is acceptable as an override for d.
//
// It returns ErrTypeMismatch if v's kind differs from d's and ErrOutOfBounds
// if v is non-finite or outside [min, max].
func (d Definition) Check(v Value) error {
	if v.Kind() != d.Kind() {
		return fmt.Errorf("%w: %q expects %s, got %s", ErrTypeMismatch, d.key, d.Kind(), v.Kind())
	}
	if !v.finite() {
		return fmt.Errorf("%w: %q must be finite, got %v", ErrOutOfBounds, d.key, v)
	}
	if d.hasMin && compare(v, d.min) < 0 {
		return fmt.Errorf("%w: %q must be >= %v, got %v", ErrOutOfBounds, d.key, d.min, v)
	}
	if d.hasMax && compare(v, d.max) > 0 {
		return fmt.Errorf("%w: %q must be <= %v, got %v", ErrOutOfBounds, d.key, d.max, v)
	}
	return nil
}

// validateKey accepts any non-empty UTF-8 key without control characters.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrConfiguration)
	}
	if !utf8.ValidString(key) {
		return fmt.Errorf("%w: key %q is not valid UTF-8", ErrConfiguration, key)
	}
	for _, r := range key {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: key %q contains control character %U", ErrConfiguration, key, r)
		}
	}
	return nil
}
