package tweak

import "time"

// Source indicates where the current effective value comes from.
type Source int

const (
	SourceDefault Source = iota
	SourceOverride
)

func (s Source) String() string {
	switch s {
	case SourceDefault:
		return "default"
	case SourceOverride:
		return "override"
	default:
		return "unknown"
	}
}

func (s Source) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Constraints is the text form of a definition's bounds, for display.
type Constraints struct {
	Min  *string `json:"min,omitempty"`
	Max  *string `json:"max,omitempty"`
	Step *string `json:"step,omitempty"`
}

// Item is a point-in-time view of a single tweak.
type Item struct {
	Key        string `json:"key"`
	Name       string `json:"name"`
	Collection string `json:"collection"`
	Kind       Kind   `json:"kind"`

	// Value is the current effective value.
	Value        Value `json:"value"`
	DefaultValue Value `json:"defaultValue"`

	Source Source `json:"source"`

	// LastUpdatedAt is the time of the last write touching this key
	// (set, clear, reset or load). Zero means never updated.
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`

	Constraints Constraints `json:"constraints"`
}

// Snapshot is a view of all registered tweaks, sorted by key.
type Snapshot struct {
	Items []Item `json:"items"`
}

// OverrideItem is an exported override record.
//
// Value is the canonical text form (see Value.String and ParseValue).
type OverrideItem struct {
	Key   string `json:"key"`
	Kind  Kind   `json:"kind"`
	Value string `json:"value"`
}

// CollectionInfo is the display projection of a registered collection.
type CollectionInfo struct {
	Title       string       `json:"title"`
	Count       int          `json:"count"`
	Definitions []Definition `json:"-"`
}

// SkippedOverride is a persisted override that LoadOverrides did not apply.
type SkippedOverride struct {
	Key string
	Err error
}

// LoadReport summarizes LoadOverrides.
type LoadReport struct {
	// Applied lists keys whose persisted value is now in effect (sorted).
	Applied []string
	// Skipped lists entries rejected for unknown key, kind or bounds.
	Skipped []SkippedOverride
	// Err is the loader error, if any. A failed load is treated as "no overrides".
	Err error
}

// Persister stores overrides durably.
//
// Store calls it after the in-memory mutation has been committed. Calls are
// serialized by the store's write gate.
type Persister interface {
	LoadOverrides() (map[string]Value, error)
	SaveOverride(key string, v Value) error
	DeleteOverride(key string) error
	SaveReset() error
}
