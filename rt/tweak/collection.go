package tweak

import (
	"fmt"
	"iter"
	"slices"
)

// Collection is a titled, ordered group of definitions.
//
// A Collection is not safe for concurrent mutation. Build it at startup and
// hand it to Store.Register, which keeps its own copy.
type Collection struct {
	title string
	defs  []Definition
	index map[string]int
}

// NewCollection returns an empty collection.
func NewCollection(title string) *Collection {
	return &Collection{title: title, index: make(map[string]int)}
}

// Title returns the collection title.
func (c *Collection) Title() string { return c.title }

// Len returns the number of definitions.
func (c *Collection) Len() int { return len(c.defs) }

// Add appends d. It fails with ErrDuplicateKey if d's key is already present.
func (c *Collection) Add(d Definition) error {
	if d.key == "" {
		return fmt.Errorf("%w: zero Definition", ErrConfiguration)
	}
	if c.index == nil {
		c.index = make(map[string]int)
	}
	if _, ok := c.index[d.key]; ok {
		return fmt.Errorf("%w: %q already in collection %q", ErrDuplicateKey, d.key, c.title)
	}
	c.index[d.key] = len(c.defs)
	c.defs = append(c.defs, d)
	return nil
}

// MustAdd is like Add but panics on error.
func (c *Collection) MustAdd(defs ...Definition) *Collection {
	for _, d := range defs {
		if err := c.Add(d); err != nil {
			panic(err)
		}
	}
	return c
}

// Lookup returns the definition for key.
func (c *Collection) Lookup(key string) (Definition, bool) {
	i, ok := c.index[key]
	if !ok {
		return Definition{}, false
	}
	return c.defs[i], true
}

// All yields definitions in insertion order.
func (c *Collection) All() iter.Seq[Definition] {
	return slices.Values(c.defs)
}

// Definitions returns a copy of the definitions in insertion order.
func (c *Collection) Definitions() []Definition {
	return slices.Clone(c.defs)
}

func (c *Collection) clone() *Collection {
	out := &Collection{
		title: c.title,
		defs:  slices.Clone(c.defs),
		index: make(map[string]int, len(c.defs)),
	}
	for i, d := range out.defs {
		out.index[d.key] = i
	}
	return out
}
