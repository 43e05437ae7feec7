package tweak

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type storeConfig struct {
	persister Persister
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Store.
type Option func(*storeConfig)

// WithPersister makes the store save every committed write to p, and lets
// LoadOverrides read from it.
func WithPersister(p Persister) Option {
	return func(c *storeConfig) { c.persister = p }
}

// WithLogger sets the logger used for persistence failures, skipped persisted
// entries and observer panics. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(c *storeConfig) { c.logger = l }
}

// WithClock overrides time.Now for LastUpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(c *storeConfig) { c.now = now }
}

type entry struct {
	def        Definition
	collection string
	updatedAt  time.Time // protected by Store.mu
}

type subscription struct {
	id uint64
	o  Observer
}

// Store is the registry of tweak collections and the current override mapping.
//
// It is safe for concurrent use. The zero value is ready to use (no
// persister, discarding logger).
//
// Writes are serialized, but reads only wait for the in-memory mutation: a
// reader may see a new value before observers of that write have run. This
// lets observers read the store from their callbacks.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*Collection
	entries     map[string]*entry
	overrides   map[string]Value
	subs        []subscription
	nextSubID   uint64

	persister Persister
	logger    *slog.Logger
	now       func() time.Time

	// writeMu serializes writes, including the persist and notify steps.
	writeMu    sync.Mutex
	writeOwner atomic.Uint64
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	var cfg storeConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Store{
		collections: make(map[string]*Collection),
		entries:     make(map[string]*entry),
		overrides:   make(map[string]Value),
		persister:   cfg.persister,
		logger:      cfg.logger,
		now:         cfg.now,
	}
}

// Register adds a collection.
//
// It fails with ErrDuplicateKey if the title is already registered or if any
// key collides with a key anywhere in the store. On failure the store is
// unchanged. The store keeps its own copy of c.
func (s *Store) Register(c *Collection) error {
	if c == nil {
		return fmt.Errorf("%w: nil Collection", ErrConfiguration)
	}
	if err := s.lockWrite(); err != nil {
		return err
	}
	defer s.unlockWrite()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.initLocked()

	if _, ok := s.collections[c.title]; ok {
		return fmt.Errorf("%w: collection %q already registered", ErrDuplicateKey, c.title)
	}
	for _, d := range c.defs {
		if e, ok := s.entries[d.key]; ok {
			return fmt.Errorf("%w: %q in collection %q already registered by collection %q", ErrDuplicateKey, d.key, c.title, e.collection)
		}
	}
	cc := c.clone()
	s.collections[cc.title] = cc
	for _, d := range cc.defs {
		s.entries[d.key] = &entry{def: d, collection: cc.title}
	}
	return nil
}

// MustRegister is like Register but panics on error.
func (s *Store) MustRegister(cs ...*Collection) {
	for _, c := range cs {
		if err := s.Register(c); err != nil {
			panic(err)
		}
	}
}

// Value returns the override for key if set, else its default.
func (s *Store) Value(key string) (Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return Value{}, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	if v, ok := s.overrides[key]; ok {
		return v, nil
	}
	return e.def.def, nil
}

// Definition returns the registered definition for key.
func (s *Store) Definition(key string) (Definition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return Definition{}, false
	}
	return e.def, true
}

// SetOverride sets an override for key.
//
// It fails with ErrUnknownKey, ErrTypeMismatch or ErrOutOfBounds without
// changing anything. On success it commits the value, saves it to the
// persister (if any) and notifies observers with EventSet. A persister failure
// is returned wrapped in ErrPersist; the in-memory value stays committed.
func (s *Store) SetOverride(key string, v Value) error {
	if err := s.lockWrite(); err != nil {
		return err
	}
	defer s.unlockWrite()

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	if err := e.def.Check(v); err != nil {
		return err
	}

	s.mu.Lock()
	s.overrides[key] = v
	e.updatedAt = s.clock()
	s.mu.Unlock()

	err := s.persist("save", key, func(p Persister) error { return p.SaveOverride(key, v) })
	s.notify(Event{Kind: EventSet, Key: key, Value: v})
	return err
}

// Set is SetOverride with a Go value converted by ValueOf.
// An unsupported Go type is reported as ErrTypeMismatch.
func (s *Store) Set(key string, v any) error {
	tv, err := ValueOf(v)
	if err != nil {
		return fmt.Errorf("%w: %q: unsupported type %T", ErrTypeMismatch, key, v)
	}
	return s.SetOverride(key, tv)
}

// SetFromString parses value according to key's kind (see ParseValue) and
// sets it as an override.
func (s *Store) SetFromString(key, value string) error {
	d, ok := s.Definition(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	v, err := ParseValue(d.Kind(), value)
	if err != nil {
		return fmt.Errorf("%q: %w", key, err)
	}
	return s.SetOverride(key, v)
}

// ClearOverride removes the override for key, reverting it to its default,
// and notifies observers with EventClear. Clearing a key without an override
// still succeeds and still notifies.
func (s *Store) ClearOverride(key string) error {
	if err := s.lockWrite(); err != nil {
		return err
	}
	defer s.unlockWrite()

	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	delete(s.overrides, key)
	e.updatedAt = s.clock()
	s.mu.Unlock()

	err := s.persist("delete", key, func(p Persister) error { return p.DeleteOverride(key) })
	s.notify(Event{Kind: EventClear, Key: key, Value: e.def.def})
	return err
}

// Reset clears every override in one step, calls the persister's SaveReset
// once and fires exactly one EventReset.
func (s *Store) Reset() error {
	_, err := s.ResetChecked(nil)
	return err
}

// ResetChecked is like Reset but returns the keys it cleared, sorted.
//
// If check is non-nil it is called with those keys while the write gate is
// held; a non-nil error aborts the reset with nothing cleared and is returned
// as is. check must not call write APIs.
func (s *Store) ResetChecked(check func(keys []string) error) ([]string, error) {
	if err := s.lockWrite(); err != nil {
		return nil, err
	}
	defer s.unlockWrite()

	// Overrides only change under the write gate, so keys stays accurate.
	s.mu.RLock()
	keys := slices.Sorted(maps.Keys(s.overrides))
	s.mu.RUnlock()
	if check != nil {
		if err := check(slices.Clone(keys)); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	s.overrides = make(map[string]Value)
	now := s.clock()
	for _, k := range keys {
		s.entries[k].updatedAt = now
	}
	s.mu.Unlock()

	err := s.persist("reset", "", func(p Persister) error { return p.SaveReset() })
	s.notify(Event{Kind: EventReset, Keys: keys})
	return keys, err
}

// LoadOverrides reads persisted overrides and applies the valid ones.
//
// A loader error is logged and treated as "no overrides yet". Entries with an
// unknown key, wrong kind or out-of-bounds value are skipped and logged.
// Valid entries are applied together, followed by a single EventLoad (only
// if at least one entry was applied). Without a persister it does nothing.
func (s *Store) LoadOverrides() LoadReport {
	if s.persister == nil {
		return LoadReport{}
	}
	if err := s.lockWrite(); err != nil {
		return LoadReport{Err: err}
	}
	defer s.unlockWrite()

	var rep LoadReport
	m, err := s.persister.LoadOverrides()
	if err != nil {
		s.log().Warn("tweak: load overrides failed, starting with defaults", "error", err)
		rep.Err = err
		return rep
	}

	s.mu.Lock()
	now := s.clock()
	for _, k := range slices.Sorted(maps.Keys(m)) {
		e, ok := s.entries[k]
		if !ok {
			rep.Skipped = append(rep.Skipped, SkippedOverride{Key: k, Err: fmt.Errorf("%w: %q", ErrUnknownKey, k)})
			continue
		}
		if err := e.def.Check(m[k]); err != nil {
			rep.Skipped = append(rep.Skipped, SkippedOverride{Key: k, Err: err})
			continue
		}
		s.overrides[k] = m[k]
		e.updatedAt = now
		rep.Applied = append(rep.Applied, k)
	}
	s.mu.Unlock()

	for _, sk := range rep.Skipped {
		s.log().Warn("tweak: skipped persisted override", "key", sk.Key, "error", sk.Err)
	}
	if len(rep.Applied) > 0 {
		s.notify(Event{Kind: EventLoad, Keys: slices.Clone(rep.Applied)})
	}
	return rep
}

// Subscribe registers o for all future events. The returned function
// unsubscribes; calling it more than once is a no-op.
func (s *Store) Subscribe(o Observer) (cancel func()) {
	if o == nil {
		return func() {}
	}
	s.mu.Lock()
	s.nextSubID++
	id := s.nextSubID
	s.subs = append(s.subs, subscription{id: id, o: o})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.subs = slices.DeleteFunc(s.subs, func(sub subscription) bool { return sub.id == id })
			s.mu.Unlock()
		})
	}
}

// SortedCollections returns the registered collections ordered by title
// (byte-wise, case-sensitive).
func (s *Store) SortedCollections() []CollectionInfo {
	s.mu.RLock()
	out := make([]CollectionInfo, 0, len(s.collections))
	for _, c := range s.collections {
		out = append(out, collectionInfo(c))
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b CollectionInfo) int { return strings.Compare(a.Title, b.Title) })
	return out
}

// Collection returns the display projection of one collection.
func (s *Store) Collection(title string) (CollectionInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[title]
	if !ok {
		return CollectionInfo{}, false
	}
	return collectionInfo(c), true
}

// CollectionItems returns point-in-time items of one collection, in
// insertion order.
func (s *Store) CollectionItems(title string) ([]Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[title]
	if !ok {
		return nil, false
	}
	out := make([]Item, 0, len(c.defs))
	for _, d := range c.defs {
		out = append(out, s.itemLocked(s.entries[d.key]))
	}
	return out, true
}

// Lookup returns a point-in-time view of a single key.
func (s *Store) Lookup(key string) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return Item{}, false
	}
	return s.itemLocked(e), true
}

// Snapshot returns a point-in-time view of every tweak, sorted by key.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Item, 0, len(s.entries))
	for _, k := range slices.Sorted(maps.Keys(s.entries)) {
		out = append(out, s.itemLocked(s.entries[k]))
	}
	return Snapshot{Items: out}
}

// Overrides returns the current overrides, sorted by key.
func (s *Store) Overrides() []OverrideItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]OverrideItem, 0, len(s.overrides))
	for _, k := range slices.Sorted(maps.Keys(s.overrides)) {
		v := s.overrides[k]
		out = append(out, OverrideItem{Key: k, Kind: v.Kind(), Value: v.String()})
	}
	return out
}

// ExportOverridesJSON exports Overrides as JSON bytes.
func (s *Store) ExportOverridesJSON() ([]byte, error) {
	return json.Marshal(s.Overrides())
}

// HasOverrides reports whether any override is set.
func (s *Store) HasOverrides() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.overrides) > 0
}

func (s *Store) itemLocked(e *entry) Item {
	d := e.def
	it := Item{
		Key:           d.key,
		Name:          d.DisplayName(),
		Collection:    e.collection,
		Kind:          d.Kind(),
		Value:         d.def,
		DefaultValue:  d.def,
		Source:        SourceDefault,
		LastUpdatedAt: e.updatedAt,
	}
	if v, ok := s.overrides[d.key]; ok {
		it.Value = v
		it.Source = SourceOverride
	}
	if d.hasMin {
		m := d.min.String()
		it.Constraints.Min = &m
	}
	if d.hasMax {
		m := d.max.String()
		it.Constraints.Max = &m
	}
	if d.hasStep {
		m := d.step.String()
		it.Constraints.Step = &m
	}
	return it
}

func collectionInfo(c *Collection) CollectionInfo {
	return CollectionInfo{Title: c.title, Count: len(c.defs), Definitions: slices.Clone(c.defs)}
}

func (s *Store) initLocked() {
	if s.collections == nil {
		s.collections = make(map[string]*Collection)
	}
	if s.entries == nil {
		s.entries = make(map[string]*entry)
	}
	if s.overrides == nil {
		s.overrides = make(map[string]Value)
	}
}

func (s *Store) persist(op, key string, fn func(Persister) error) error {
	if s.persister == nil {
		return nil
	}
	if err := fn(s.persister); err != nil {
		s.log().Error("tweak: persist failed", "op", op, "key", key, "error", err)
		if key == "" {
			return fmt.Errorf("%w: %s: %w", ErrPersist, op, err)
		}
		return fmt.Errorf("%w: %s %q: %w", ErrPersist, op, key, err)
	}
	return nil
}

func (s *Store) notify(e Event) {
	s.mu.RLock()
	subs := slices.Clone(s.subs)
	s.mu.RUnlock()
	for _, sub := range subs {
		s.safeNotify(sub.o, e)
	}
}

func (s *Store) safeNotify(o Observer, e Event) {
	defer func() {
		if r := recover(); r != nil {
			s.log().Error("tweak: observer panic", "event", e.Kind.String(), "key", e.Key, "panic", r)
		}
	}()
	o.OnTweakEvent(e)
}

func (s *Store) log() *slog.Logger {
	if s.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.logger
}

func (s *Store) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}
