package sqlitestore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/evan-idocoding/tweakkit/rt/tweak"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrations(t *testing.T) {
	s := openTestStore(t)
	versions, err := s.AppliedMigrations()
	if err != nil {
		t.Fatal(err)
	}
	if len(versions) != 2 || versions[0] != 1 || versions[1] != 2 {
		t.Fatalf("applied migrations = %v, want [1 2]", versions)
	}
	// Re-running is a no-op.
	if err := s.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	versions, _ = s.AppliedMigrations()
	if len(versions) != 2 {
		t.Fatalf("applied migrations after rerun = %v", versions)
	}
}

func TestRoundTripEveryKind(t *testing.T) {
	s := openTestStore(t)
	want := map[string]tweak.Value{
		"b":  tweak.Bool(true),
		"i":  tweak.Int(-7),
		"f3": tweak.Float32(0.1),
		"f6": tweak.Float64(2.5),
		"c":  tweak.ColorValue(tweak.Color{R: 0xff, G: 0x80, B: 0, A: 0xff}),
	}
	for k, v := range want {
		if err := s.SaveOverride(k, v); err != nil {
			t.Fatal(err)
		}
	}
	// Upsert.
	if err := s.SaveOverride("i", tweak.Int(9)); err != nil {
		t.Fatal(err)
	}
	want["i"] = tweak.Int(9)

	got, err := s.LoadOverrides()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d rows, want %d", len(got), len(want))
	}
	for k, v := range want {
		if !got[k].Equal(v) {
			t.Fatalf("%s: got %v, want %v", k, got[k], v)
		}
	}

	if err := s.DeleteOverride("b"); err != nil {
		t.Fatal(err)
	}
	got, _ = s.LoadOverrides()
	if _, ok := got["b"]; ok {
		t.Fatalf("deleted key still present")
	}
}

func TestSaveResetClearsAndRecords(t *testing.T) {
	s := openTestStore(t)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return at }

	_ = s.SaveOverride("a", tweak.Int(1))
	_ = s.SaveOverride("b", tweak.Int(2))
	if err := s.SaveReset(); err != nil {
		t.Fatal(err)
	}
	got, _ := s.LoadOverrides()
	if len(got) != 0 {
		t.Fatalf("expected empty after reset, got %v", got)
	}
	resets, err := s.Resets()
	if err != nil {
		t.Fatal(err)
	}
	if len(resets) != 1 || resets[0].Cleared != 2 || !resets[0].At.Equal(at) {
		t.Fatalf("resets = %+v", resets)
	}
}

func TestCorruptRowsSkipped(t *testing.T) {
	s := openTestStore(t)
	_ = s.SaveOverride("ok", tweak.Bool(false))
	if _, err := s.db.Exec(`INSERT INTO overrides (key, kind, value, updated_at) VALUES
		('badkind', 'complex', '1', ''), ('badvalue', 'int', 'x', '')`); err != nil {
		t.Fatal(err)
	}
	got, err := s.LoadOverrides()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %v, want only ok", got)
	}
	if v, ok := got["ok"].AsBool(); !ok || v {
		t.Fatalf("ok = %v", got["ok"])
	}
}

func TestStoreRestartRestoresOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "tweaks.db")
	newStore := func(p tweak.Persister) *tweak.Store {
		st := tweak.New(tweak.WithPersister(p))
		c := tweak.NewCollection("Animation").MustAdd(
			tweak.MustDefinition("anim.speed", tweak.Float32(1), tweak.WithBounds(tweak.Float32(0), tweak.Float32(4))),
			tweak.MustDefinition("anim.enabled", tweak.Bool(true)),
		)
		st.MustRegister(c)
		return st
	}

	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	st := newStore(db)
	if err := st.SetFromString("anim.speed", "2.5"); err != nil {
		t.Fatal(err)
	}
	if err := st.Set("anim.enabled", false); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	db, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	st = newStore(db)
	rep := st.LoadOverrides()
	if rep.Err != nil || len(rep.Applied) != 2 || len(rep.Skipped) != 0 {
		t.Fatalf("report = %+v", rep)
	}
	v, _ := st.Value("anim.speed")
	if f, _ := v.AsFloat32(); f != 2.5 {
		t.Fatalf("anim.speed = %v", v)
	}
	v, _ = st.Value("anim.enabled")
	if b, _ := v.AsBool(); b {
		t.Fatalf("anim.enabled = %v", v)
	}

	if err := st.Reset(); err != nil {
		t.Fatal(err)
	}
	m, _ := db.LoadOverrides()
	if len(m) != 0 {
		t.Fatalf("storage not empty after reset: %v", m)
	}
}
