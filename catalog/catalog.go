// Package catalog builds tweak collections from a YAML definitions file.
//
// File format:
//
//	collections:
//	  - title: Layout
//	    tweaks:
//	      - key: layout.cornerRadius
//	        name: Corner radius
//	        kind: int
//	        default: 4
//	        min: 0
//	        max: 20
//	        step: 1
//	      - key: layout.tint
//	        kind: color
//	        default: "#ff8800"
//
// Scalars are read as text and parsed with tweak.ParseValue using the tweak's
// kind. Color values must be quoted because YAML treats '#' as a comment.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/evan-idocoding/tweakkit/rt/tweak"
)

// File is the decoded form of a catalog document.
type File struct {
	Collections []CollectionSpec `yaml:"collections"`
}

// CollectionSpec is one titled group in a catalog file.
type CollectionSpec struct {
	Title  string      `yaml:"title"`
	Tweaks []TweakSpec `yaml:"tweaks"`
}

// TweakSpec is one tweak in a catalog file. Optional scalars are nil when absent.
type TweakSpec struct {
	Key     string  `yaml:"key"`
	Name    string  `yaml:"name,omitempty"`
	Kind    string  `yaml:"kind"`
	Default string  `yaml:"default"`
	Min     *string `yaml:"min,omitempty"`
	Max     *string `yaml:"max,omitempty"`
	Step    *string `yaml:"step,omitempty"`
}

// Load reads and builds the catalog at path.
func Load(path string) ([]*tweak.Collection, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	cs, err := Parse(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return cs, nil
}

// Parse decodes a catalog document from r and builds its collections, in file
// order. Unknown fields are rejected.
//
// Build failures wrap tweak.ErrConfiguration or tweak.ErrDuplicateKey and name
// the collection and key.
func Parse(r io.Reader) ([]*tweak.Collection, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: decode catalog: %v", tweak.ErrConfiguration, err)
	}
	return f.Build()
}

// Build converts the decoded file into collections.
func (f File) Build() ([]*tweak.Collection, error) {
	out := make([]*tweak.Collection, 0, len(f.Collections))
	seen := make(map[string]bool, len(f.Collections))
	for i, cs := range f.Collections {
		if cs.Title == "" {
			return nil, fmt.Errorf("%w: collection #%d has no title", tweak.ErrConfiguration, i+1)
		}
		if seen[cs.Title] {
			return nil, fmt.Errorf("%w: collection %q appears twice", tweak.ErrDuplicateKey, cs.Title)
		}
		seen[cs.Title] = true

		c := tweak.NewCollection(cs.Title)
		for _, ts := range cs.Tweaks {
			d, err := ts.Definition()
			if err != nil {
				return nil, fmt.Errorf("collection %q: %w", cs.Title, err)
			}
			if err := c.Add(d); err != nil {
				return nil, fmt.Errorf("collection %q: %w", cs.Title, err)
			}
		}
		out = append(out, c)
	}
	return out, nil
}

// Definition builds the tweak definition described by ts.
func (ts TweakSpec) Definition() (tweak.Definition, error) {
	k, err := tweak.ParseKind(ts.Kind)
	if err != nil {
		return tweak.Definition{}, fmt.Errorf("tweak %q: %w", ts.Key, err)
	}
	scalar := func(field, s string) (tweak.Value, error) {
		v, err := tweak.ParseValue(k, s)
		if err != nil {
			return tweak.Value{}, fmt.Errorf("%w: tweak %q: %s: %v", tweak.ErrConfiguration, ts.Key, field, err)
		}
		return v, nil
	}

	def, err := scalar("default", ts.Default)
	if err != nil {
		return tweak.Definition{}, err
	}
	var opts []tweak.DefinitionOption
	if ts.Name != "" {
		opts = append(opts, tweak.WithDisplayName(ts.Name))
	}
	for _, o := range []struct {
		field string
		s     *string
		opt   func(tweak.Value) tweak.DefinitionOption
	}{
		{"min", ts.Min, tweak.WithMin},
		{"max", ts.Max, tweak.WithMax},
		{"step", ts.Step, tweak.WithStep},
	} {
		if o.s == nil {
			continue
		}
		v, err := scalar(o.field, *o.s)
		if err != nil {
			return tweak.Definition{}, err
		}
		opts = append(opts, o.opt(v))
	}
	return tweak.NewDefinition(ts.Key, def, opts...)
}

// Encode renders collections in catalog form. Encode followed by Parse
// rebuilds equivalent collections.
func Encode(w io.Writer, cs []tweak.CollectionInfo) error {
	f := File{Collections: make([]CollectionSpec, 0, len(cs))}
	for _, c := range cs {
		spec := CollectionSpec{Title: c.Title}
		for _, d := range c.Definitions {
			ts := TweakSpec{Key: d.Key(), Kind: d.Kind().String(), Default: d.Default().String()}
			if name := d.DisplayName(); name != d.Key() {
				ts.Name = name
			}
			if v, ok := d.Min(); ok {
				ts.Min = ptr(v.String())
			}
			if v, ok := d.Max(); ok {
				ts.Max = ptr(v.String())
			}
			if v, ok := d.Step(); ok {
				ts.Step = ptr(v.String())
			}
			spec.Tweaks = append(spec.Tweaks, ts)
		}
		f.Collections = append(f.Collections, spec)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return err
	}
	return enc.Close()
}

func ptr(s string) *string { return &s }
