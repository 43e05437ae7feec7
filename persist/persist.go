// Package persist holds the shared record encoding used by tweak.Persister
// implementations.
//
// Every backend stores an override as a (kind, value) text pair, where value is
// the canonical text of tweak.Value.String. Decoding goes through
// tweak.ParseKind and tweak.ParseValue, so a stored record always decodes to a
// value of the recorded kind.
//
// Backends:
//   - persist/yamlfile: a single YAML document, saved atomically.
//   - persist/sqlitestore: a SQLite table (modernc.org/sqlite, no cgo).
package persist

import (
	"errors"
	"fmt"

	"github.com/evan-idocoding/tweakkit/rt/tweak"
)

// ErrCorrupt indicates a stored record cannot be decoded.
var ErrCorrupt = errors.New("persist: corrupt record")

// Record is the storage form of one override.
type Record struct {
	Kind  string `yaml:"kind" json:"kind"`
	Value string `yaml:"value" json:"value"`
}

// Encode converts v to its storage form.
func Encode(v tweak.Value) Record {
	return Record{Kind: v.Kind().String(), Value: v.String()}
}

// Decode converts a stored record back to a value.
func Decode(r Record) (tweak.Value, error) {
	k, err := tweak.ParseKind(r.Kind)
	if err != nil {
		return tweak.Value{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	v, err := tweak.ParseValue(k, r.Value)
	if err != nil {
		return tweak.Value{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return v, nil
}
