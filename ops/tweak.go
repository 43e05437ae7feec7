package ops

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/evan-idocoding/tweakkit/rt/tweak"
)

type tweakConfig struct {
	format Format

	guards []func(key string) bool
	guard  func(key string) bool
}

// TweakOption configures tweak handlers.
type TweakOption func(*tweakConfig)

// WithDefaultFormat sets the default response format for tweak handlers.
//
// This default can be overridden per request by URL query:
//   - ?format=json
//   - ?format=text
//
// Default is FormatText.
func WithDefaultFormat(f Format) TweakOption {
	return func(c *tweakConfig) { c.format = f }
}

// WithKeyGuard appends a key guard.
//
// All guards are combined with AND: a key is allowed only if all guards allow it.
// Read handlers hide disallowed keys; write handlers reject them with 403.
func WithKeyGuard(fn func(key string) bool) TweakOption {
	return func(c *tweakConfig) {
		if fn != nil {
			c.guards = append(c.guards, fn)
		}
	}
}

// WithAllowPrefixes restricts keys to the provided prefixes.
//
// If no non-empty prefix is provided, this option denies all keys.
func WithAllowPrefixes(prefixes ...string) TweakOption {
	var ps []string
	for _, p := range prefixes {
		if p != "" {
			ps = append(ps, p)
		}
	}
	return WithKeyGuard(func(key string) bool {
		for _, p := range ps {
			if strings.HasPrefix(key, p) {
				return true
			}
		}
		return false
	})
}

// WithAllowKeys restricts keys to the provided explicit set.
//
// If no non-empty key is provided, this option denies all keys.
func WithAllowKeys(keys ...string) TweakOption {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k != "" {
			set[k] = struct{}{}
		}
	}
	return WithKeyGuard(func(key string) bool {
		_, ok := set[key]
		return ok
	})
}

func applyTweakOptions(opts []TweakOption) tweakConfig {
	cfg := tweakConfig{format: FormatText}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if !cfg.format.valid() {
		cfg.format = FormatText
	}
	if len(cfg.guards) > 0 {
		gs := cfg.guards
		cfg.guard = func(key string) bool {
			for _, g := range gs {
				if !g(key) {
					return false
				}
			}
			return true
		}
	}
	return cfg
}

func (c tweakConfig) allowed(key string) bool { return c.guard == nil || c.guard(key) }

// CollectionSummary is one row of the collection list.
type CollectionSummary struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}

// CollectionDetail is one collection with its current items, in insertion order.
type CollectionDetail struct {
	Title string       `json:"title"`
	Items []tweak.Item `json:"items"`
}

type tweakResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`

	Collections []CollectionSummary  `json:"collections,omitempty"`
	Collection  *CollectionDetail    `json:"collection,omitempty"`
	Item        *tweak.Item          `json:"item,omitempty"`
	Overrides   []tweak.OverrideItem `json:"overrides,omitempty"`

	Key     string      `json:"key,omitempty"`
	Old     *tweak.Item `json:"old,omitempty"`
	New     *tweak.Item `json:"new,omitempty"`
	Cleared []string    `json:"cleared,omitempty"`
}

func writeTweak(w http.ResponseWriter, r *http.Request, f Format, code int, resp tweakResponse, renderText func() string) {
	writeResponse(w, r, f, code, resp, resp.OK, resp.Error, renderText)
}

func tweakFail(w http.ResponseWriter, r *http.Request, f Format, code int, msg string) {
	writeTweak(w, r, f, code, tweakResponse{OK: false, Error: msg}, nil)
}

func readOnly(w http.ResponseWriter, r *http.Request, f Format) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", "GET, HEAD")
	tweakFail(w, r, f, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

func postOnly(w http.ResponseWriter, r *http.Request, f Format) bool {
	if r.Method == http.MethodPost {
		return true
	}
	w.Header().Set("Allow", "POST")
	tweakFail(w, r, f, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

func mustStore(st *tweak.Store) {
	if st == nil {
		panic("ops: nil tweak.Store")
	}
}

// CollectionsHandler returns a handler that lists collections sorted by title,
// with their tweak counts.
//
// GET/HEAD only; other methods return 405. With a key guard, counts include
// allowed keys only and empty collections are hidden.
func CollectionsHandler(st *tweak.Store, opts ...TweakOption) http.Handler {
	mustStore(st)
	cfg := applyTweakOptions(opts)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		format := formatFromRequest(r, cfg.format)
		if !readOnly(w, r, format) {
			return
		}
		var out []CollectionSummary
		for _, c := range st.SortedCollections() {
			n := c.Count
			if cfg.guard != nil {
				n = 0
				for _, d := range c.Definitions {
					if cfg.guard(d.Key()) {
						n++
					}
				}
				if n == 0 {
					continue
				}
			}
			out = append(out, CollectionSummary{Title: c.Title, Count: n})
		}
		writeTweak(w, r, format, http.StatusOK, tweakResponse{OK: true, Collections: out}, func() string {
			var b strings.Builder
			for _, c := range out {
				textLine(&b, "collection", c.Title, "count", strconv.Itoa(c.Count))
			}
			return b.String()
		})
	})
}

// CollectionHandler returns a handler that renders one collection.
//
// Input:
//   - GET/HEAD only
//   - URL query: ?title=<collection title>
func CollectionHandler(st *tweak.Store, opts ...TweakOption) http.Handler {
	mustStore(st)
	cfg := applyTweakOptions(opts)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		format := formatFromRequest(r, cfg.format)
		if !readOnly(w, r, format) {
			return
		}
		title, ok := getQuery(r, "title")
		if !ok || title == "" {
			tweakFail(w, r, format, http.StatusBadRequest, "missing title")
			return
		}
		items, found := st.CollectionItems(title)
		if !found {
			tweakFail(w, r, format, http.StatusNotFound, "collection not found")
			return
		}
		if cfg.guard != nil {
			kept := items[:0]
			for _, it := range items {
				if cfg.guard(it.Key) {
					kept = append(kept, it)
				}
			}
			items = kept
		}
		detail := CollectionDetail{Title: title, Items: items}
		writeTweak(w, r, format, http.StatusOK, tweakResponse{OK: true, Collection: &detail}, func() string {
			var b strings.Builder
			textLine(&b, "collection", title, "count", strconv.Itoa(len(items)))
			for _, it := range items {
				appendItemLines(&b, "", it)
			}
			return b.String()
		})
	})
}

// LookupHandler returns a handler that looks up a single key.
//
// Input:
//   - GET/HEAD only
//   - URL query: ?key=<tweak key>
func LookupHandler(st *tweak.Store, opts ...TweakOption) http.Handler {
	mustStore(st)
	cfg := applyTweakOptions(opts)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		format := formatFromRequest(r, cfg.format)
		if !readOnly(w, r, format) {
			return
		}
		key, ok := keyFromRequest(w, r, format, cfg)
		if !ok {
			return
		}
		it, found := st.Lookup(key)
		if !found {
			tweakFail(w, r, format, http.StatusNotFound, "key not found")
			return
		}
		writeTweak(w, r, format, http.StatusOK, tweakResponse{OK: true, Item: &it}, func() string {
			var b strings.Builder
			appendItemLines(&b, "", it)
			return b.String()
		})
	})
}

// OverridesHandler returns a handler that outputs the current overrides, sorted by key.
//
// GET/HEAD only; other methods return 405.
func OverridesHandler(st *tweak.Store, opts ...TweakOption) http.Handler {
	mustStore(st)
	cfg := applyTweakOptions(opts)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		format := formatFromRequest(r, cfg.format)
		if !readOnly(w, r, format) {
			return
		}
		ovs := st.Overrides()
		if cfg.guard != nil {
			kept := ovs[:0]
			for _, ov := range ovs {
				if cfg.guard(ov.Key) {
					kept = append(kept, ov)
				}
			}
			ovs = kept
		}
		writeTweak(w, r, format, http.StatusOK, tweakResponse{OK: true, Overrides: ovs}, func() string {
			// Format: tweak_override\t<key>\t<kind>\t<value>\n
			var b strings.Builder
			for _, ov := range ovs {
				textLine(&b, "tweak_override", ov.Key, ov.Kind.String(), ov.Value)
			}
			return b.String()
		})
	})
}

// SetHandler returns a handler that sets an override from its text form
// (see tweak.ParseValue).
//
// Input:
//   - POST only
//   - URL query: ?key=<tweak key>&value=<text>
func SetHandler(st *tweak.Store, opts ...TweakOption) http.Handler {
	mustStore(st)
	cfg := applyTweakOptions(opts)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		format := formatFromRequest(r, cfg.format)
		if !postOnly(w, r, format) {
			return
		}
		key, ok := keyFromRequest(w, r, format, cfg)
		if !ok {
			return
		}
		value, ok := getQuery(r, "value")
		if !ok {
			tweakFail(w, r, format, http.StatusBadRequest, "missing value")
			return
		}
		writeKeyChange(w, r, format, st, key, func() error { return st.SetFromString(key, value) })
	})
}

// ClearHandler returns a handler that removes the override for a key,
// reverting it to its default.
//
// Input:
//   - POST only
//   - URL query: ?key=<tweak key>
func ClearHandler(st *tweak.Store, opts ...TweakOption) http.Handler {
	mustStore(st)
	cfg := applyTweakOptions(opts)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		format := formatFromRequest(r, cfg.format)
		if !postOnly(w, r, format) {
			return
		}
		key, ok := keyFromRequest(w, r, format, cfg)
		if !ok {
			return
		}
		writeKeyChange(w, r, format, st, key, func() error { return st.ClearOverride(key) })
	})
}

var errResetForbidden = errors.New("reset would clear keys not allowed")

// ResetHandler returns a handler that clears every override.
//
// POST only. With a key guard, the reset is refused (403) unless every
// current override is an allowed key. The check and the reset happen under
// one write, so the reported keys are exactly the cleared ones.
func ResetHandler(st *tweak.Store, opts ...TweakOption) http.Handler {
	mustStore(st)
	cfg := applyTweakOptions(opts)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		format := formatFromRequest(r, cfg.format)
		if !postOnly(w, r, format) {
			return
		}
		cleared, err := st.ResetChecked(func(keys []string) error {
			for _, k := range keys {
				if !cfg.allowed(k) {
					return errResetForbidden
				}
			}
			return nil
		})
		if errors.Is(err, errResetForbidden) {
			tweakFail(w, r, format, http.StatusForbidden, errResetForbidden.Error())
			return
		}
		resp := tweakResponse{OK: true, Cleared: cleared}
		code := http.StatusOK
		if err != nil {
			code = mapWriteErrorToStatus(err)
			resp.OK = false
			resp.Error = err.Error()
		}
		writeTweak(w, r, format, code, resp, func() string {
			var b strings.Builder
			textLine(&b, "reset", "cleared", strconv.Itoa(len(cleared)))
			for _, k := range cleared {
				textLine(&b, "reset", "key", k)
			}
			return b.String()
		})
	})
}

func keyFromRequest(w http.ResponseWriter, r *http.Request, f Format, cfg tweakConfig) (string, bool) {
	key, ok := getQuery(r, "key")
	if !ok || key == "" {
		tweakFail(w, r, f, http.StatusBadRequest, "missing key")
		return "", false
	}
	if !cfg.allowed(key) {
		tweakFail(w, r, f, http.StatusForbidden, "key not allowed")
		return "", false
	}
	return key, true
}

// writeKeyChange runs a single-key write and renders the old and new items.
// A persistence failure is reported as 500 with the committed new item.
func writeKeyChange(w http.ResponseWriter, r *http.Request, f Format, st *tweak.Store, key string, write func() error) {
	old, found := st.Lookup(key)
	if !found {
		tweakFail(w, r, f, http.StatusNotFound, "key not found")
		return
	}
	resp := tweakResponse{OK: true, Key: key, Old: &old}
	code := http.StatusOK
	if err := write(); err != nil {
		code = mapWriteErrorToStatus(err)
		resp.OK = false
		resp.Error = err.Error()
		if !errors.Is(err, tweak.ErrPersist) {
			writeTweak(w, r, f, code, resp, nil)
			return
		}
	}
	newIt, _ := st.Lookup(key)
	resp.New = &newIt
	writeTweak(w, r, f, code, resp, func() string {
		var b strings.Builder
		appendItemLines(&b, "old.", old)
		appendItemLines(&b, "new.", newIt)
		return b.String()
	})
}

func appendItemLines(b *strings.Builder, prefix string, it tweak.Item) {
	// One key per line, tab-separated fields.
	// Format: tweak\t<key>\t<field>\t<value>\n
	write := func(field, value string) {
		textLine(b, "tweak", it.Key, prefix+field, value)
	}
	write("name", it.Name)
	write("collection", it.Collection)
	write("kind", it.Kind.String())
	write("value", it.Value.String())
	write("default", it.DefaultValue.String())
	write("source", it.Source.String())
	if it.Constraints.Min != nil {
		write("min", *it.Constraints.Min)
	}
	if it.Constraints.Max != nil {
		write("max", *it.Constraints.Max)
	}
	if it.Constraints.Step != nil {
		write("step", *it.Constraints.Step)
	}
	if !it.LastUpdatedAt.IsZero() {
		write("last_updated_at", it.LastUpdatedAt.Format(time.RFC3339Nano))
	}
}

func mapWriteErrorToStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, tweak.ErrPersist):
		return http.StatusInternalServerError
	case errors.Is(err, tweak.ErrUnknownKey):
		return http.StatusNotFound
	case errors.Is(err, tweak.ErrTypeMismatch), errors.Is(err, tweak.ErrOutOfBounds):
		return http.StatusBadRequest
	case errors.Is(err, tweak.ErrReentrantWrite):
		// Programming error: a write API called from an observer.
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
