package ops

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/evan-idocoding/tweakkit/rt/tweak"
)

func newTestStore(t *testing.T, opts ...tweak.Option) *tweak.Store {
	t.Helper()
	st := tweak.New(opts...)
	st.MustRegister(
		tweak.NewCollection("Layout").MustAdd(
			tweak.MustDefinition("layout.cornerRadius", tweak.Int(4),
				tweak.WithDisplayName("Corner radius"),
				tweak.WithBounds(tweak.Int(0), tweak.Int(20)),
				tweak.WithStep(tweak.Int(1))),
			tweak.MustDefinition("layout.tint", tweak.ColorValue(tweak.Color{R: 0xff, A: 0xff})),
		),
		tweak.NewCollection("Animation").MustAdd(
			tweak.MustDefinition("anim.enabled", tweak.Bool(true)),
		),
	)
	return st
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, "http://example"+target, nil))
	return w
}

func TestCollections_Text_Sorted(t *testing.T) {
	st := newTestStore(t)
	w := serve(CollectionsHandler(st), http.MethodGet, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want=%d", w.Code, http.StatusOK)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
		t.Fatalf("Cache-Control=%q, want no-store", cc)
	}
	want := "collection\tAnimation\tcount\t1\ncollection\tLayout\tcount\t2\n"
	if got := w.Body.String(); got != want {
		t.Fatalf("body=%q, want=%q", got, want)
	}
}

func TestCollections_JSON(t *testing.T) {
	st := newTestStore(t)
	w := serve(CollectionsHandler(st), http.MethodGet, "/?format=json")
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("Content-Type=%q, want application/json", ct)
	}
	var got struct {
		OK          bool                `json:"ok"`
		Collections []CollectionSummary `json:"collections"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !got.OK || len(got.Collections) != 2 || got.Collections[0].Title != "Animation" || got.Collections[1].Count != 2 {
		t.Fatalf("got=%+v", got)
	}
}

func TestCollections_KeyGuardHidesEmpty(t *testing.T) {
	st := newTestStore(t)
	w := serve(CollectionsHandler(st, WithAllowPrefixes("layout.")), http.MethodGet, "/")
	if got := w.Body.String(); got != "collection\tLayout\tcount\t2\n" {
		t.Fatalf("body=%q", got)
	}
}

func TestCollection_Detail(t *testing.T) {
	st := newTestStore(t)
	w := serve(CollectionHandler(st), http.MethodGet, "/?title=Layout")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	body := w.Body.String()
	for _, line := range []string{
		"collection\tLayout\tcount\t2\n",
		"tweak\tlayout.cornerRadius\tname\tCorner radius\n",
		"tweak\tlayout.cornerRadius\tvalue\t4\n",
		"tweak\tlayout.cornerRadius\tmax\t20\n",
		"tweak\tlayout.cornerRadius\tstep\t1\n",
		"tweak\tlayout.tint\tvalue\t#ff0000\n",
		"tweak\tlayout.tint\tsource\tdefault\n",
	} {
		if !strings.Contains(body, line) {
			t.Fatalf("body=%q, want contain %q", body, line)
		}
	}
	// Insertion order within the collection.
	if strings.Index(body, "layout.cornerRadius") > strings.Index(body, "layout.tint") {
		t.Fatalf("items out of insertion order: %q", body)
	}
}

func TestCollection_Errors(t *testing.T) {
	st := newTestStore(t)
	h := CollectionHandler(st)
	if w := serve(h, http.MethodGet, "/"); w.Code != http.StatusBadRequest {
		t.Fatalf("missing title: status=%d", w.Code)
	}
	if w := serve(h, http.MethodGet, "/?title=layout"); w.Code != http.StatusNotFound {
		t.Fatalf("case-sensitive title: status=%d", w.Code)
	}
	w := serve(h, http.MethodPost, "/?title=Layout")
	if w.Code != http.StatusMethodNotAllowed || w.Header().Get("Allow") != "GET, HEAD" {
		t.Fatalf("POST: status=%d allow=%q", w.Code, w.Header().Get("Allow"))
	}
}

func TestLookup(t *testing.T) {
	st := newTestStore(t)
	h := LookupHandler(st)

	w := serve(h, http.MethodGet, "/?key=anim.enabled&format=json")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var got struct {
		OK   bool `json:"ok"`
		Item struct {
			Key    string `json:"key"`
			Kind   string `json:"kind"`
			Value  any    `json:"value"`
			Source string `json:"source"`
		} `json:"item"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Item.Key != "anim.enabled" || got.Item.Kind != "bool" || got.Item.Value != true || got.Item.Source != "default" {
		t.Fatalf("item=%+v", got.Item)
	}

	if w := serve(h, http.MethodGet, "/?key=nope"); w.Code != http.StatusNotFound {
		t.Fatalf("unknown: status=%d", w.Code)
	}
	if w := serve(h, http.MethodGet, "/?key="); w.Code != http.StatusBadRequest {
		t.Fatalf("empty: status=%d", w.Code)
	}
	if w := serve(LookupHandler(st, WithAllowKeys("layout.tint")), http.MethodGet, "/?key=anim.enabled"); w.Code != http.StatusForbidden {
		t.Fatalf("guarded: status=%d", w.Code)
	}
}

func TestHead_NoBody(t *testing.T) {
	st := newTestStore(t)
	w := serve(CollectionsHandler(st), http.MethodHead, "/")
	if w.Code != http.StatusOK || w.Body.Len() != 0 {
		t.Fatalf("HEAD: status=%d body=%q", w.Code, w.Body.String())
	}
}

func TestSet_OK(t *testing.T) {
	st := newTestStore(t)
	w := serve(SetHandler(st), http.MethodPost, "/?key=layout.cornerRadius&value=12")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%q", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, "tweak\tlayout.cornerRadius\told.value\t4\n") ||
		!strings.Contains(body, "tweak\tlayout.cornerRadius\tnew.value\t12\n") ||
		!strings.Contains(body, "tweak\tlayout.cornerRadius\tnew.source\toverride\n") {
		t.Fatalf("body=%q", body)
	}
	v, _ := st.Value("layout.cornerRadius")
	if n, _ := v.AsInt(); n != 12 {
		t.Fatalf("value=%v", v)
	}
}

func TestSet_Errors(t *testing.T) {
	st := newTestStore(t)
	h := SetHandler(st)
	cases := []struct {
		name   string
		method string
		target string
		code   int
	}{
		{"wrong method", http.MethodGet, "/?key=layout.cornerRadius&value=1", http.StatusMethodNotAllowed},
		{"missing key", http.MethodPost, "/?value=1", http.StatusBadRequest},
		{"missing value", http.MethodPost, "/?key=layout.cornerRadius", http.StatusBadRequest},
		{"unknown key", http.MethodPost, "/?key=nope&value=1", http.StatusNotFound},
		{"bad value", http.MethodPost, "/?key=layout.cornerRadius&value=abc", http.StatusBadRequest},
		{"out of bounds", http.MethodPost, "/?key=layout.cornerRadius&value=21", http.StatusBadRequest},
		{"bad color", http.MethodPost, "/?key=layout.tint&value=%23zz0000", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if w := serve(h, tc.method, tc.target); w.Code != tc.code {
				t.Fatalf("status=%d, want=%d body=%q", w.Code, tc.code, w.Body.String())
			}
		})
	}
	if st.HasOverrides() {
		t.Fatalf("failed writes must not change the store: %v", st.Overrides())
	}
}

func TestSet_Guarded(t *testing.T) {
	st := newTestStore(t)
	h := SetHandler(st, WithAllowPrefixes("anim."))
	if w := serve(h, http.MethodPost, "/?key=layout.cornerRadius&value=1"); w.Code != http.StatusForbidden {
		t.Fatalf("status=%d", w.Code)
	}
	if w := serve(h, http.MethodPost, "/?key=anim.enabled&value=off"); w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestClear(t *testing.T) {
	st := newTestStore(t)
	_ = st.Set("layout.cornerRadius", 9)
	w := serve(ClearHandler(st), http.MethodPost, "/?key=layout.cornerRadius")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "tweak\tlayout.cornerRadius\tnew.source\tdefault\n") {
		t.Fatalf("body=%q", w.Body.String())
	}
	if st.HasOverrides() {
		t.Fatalf("override not cleared")
	}
}

func TestReset_FiresOneEvent(t *testing.T) {
	st := newTestStore(t)
	_ = st.Set("layout.cornerRadius", 9)
	_ = st.Set("anim.enabled", false)

	var events atomic.Int32
	st.Subscribe(tweak.ObserverFunc(func(e tweak.Event) {
		if e.Kind == tweak.EventReset {
			events.Add(1)
		}
	}))

	w := serve(ResetHandler(st), http.MethodPost, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	want := "reset\tcleared\t2\nreset\tkey\tanim.enabled\nreset\tkey\tlayout.cornerRadius\n"
	if got := w.Body.String(); got != want {
		t.Fatalf("body=%q, want=%q", got, want)
	}
	if n := events.Load(); n != 1 {
		t.Fatalf("reset events=%d, want 1", n)
	}
}

func TestReset_GuardRefusesForeignKeys(t *testing.T) {
	st := newTestStore(t)
	_ = st.Set("anim.enabled", false)
	w := serve(ResetHandler(st, WithAllowPrefixes("layout.")), http.MethodPost, "/")
	if w.Code != http.StatusForbidden {
		t.Fatalf("status=%d", w.Code)
	}
	if !st.HasOverrides() {
		t.Fatalf("refused reset must not clear")
	}
}

func TestReset_GuardAllowsReportsCleared(t *testing.T) {
	st := newTestStore(t)
	_ = st.Set("layout.cornerRadius", 9)
	w := serve(ResetHandler(st, WithAllowPrefixes("layout."), WithDefaultFormat(FormatJSON)), http.MethodPost, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var got struct {
		OK      bool     `json:"ok"`
		Cleared []string `json:"cleared"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !got.OK || len(got.Cleared) != 1 || got.Cleared[0] != "layout.cornerRadius" {
		t.Fatalf("got=%+v", got)
	}
	if st.HasOverrides() {
		t.Fatalf("override not cleared")
	}
}

type failingPersister struct{}

func (failingPersister) LoadOverrides() (map[string]tweak.Value, error) { return nil, nil }
func (failingPersister) SaveOverride(string, tweak.Value) error       { return errors.New("disk full") }
func (failingPersister) DeleteOverride(string) error                    { return errors.New("disk full") }
func (failingPersister) SaveReset() error                               { return errors.New("disk full") }

func TestSet_PersistFailureKeepsValue(t *testing.T) {
	st := newTestStore(t, tweak.WithPersister(failingPersister{}))
	w := serve(SetHandler(st, WithDefaultFormat(FormatJSON)), http.MethodPost, "/?key=layout.cornerRadius&value=7")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	var got struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
		New   *struct {
			Value any `json:"value"`
		} `json:"new"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.OK || !strings.Contains(got.Error, "disk full") || got.New == nil || got.New.Value != float64(7) {
		t.Fatalf("got=%+v", got)
	}
}

func TestOverrides(t *testing.T) {
	st := newTestStore(t)
	_ = st.SetFromString("layout.tint", "#00ff00")
	w := serve(OverridesHandler(st), http.MethodGet, "/")
	if got := w.Body.String(); got != "tweak_override\tlayout.tint\tcolor\t#00ff00\n" {
		t.Fatalf("body=%q", got)
	}
}

func TestEscapeTextField(t *testing.T) {
	if got := escapeTextField("a\tb\nc\\d\x01"); got != `a\tb\nc\\d\u0001` {
		t.Fatalf("got=%q", got)
	}
	if got := escapeTextField("plain"); got != "plain" {
		t.Fatalf("got=%q", got)
	}
}
