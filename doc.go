// Package tweakkit is a typed store of runtime-adjustable parameters
// ("tweaks") with an operator-facing HTTP admin surface and CLI.
//
// A tweak is a bool, int, float32, float64 or color value with a default and
// optional bounds. Tweaks are grouped into titled collections and registered
// in a store, which layers overrides on top of the defaults, persists them and
// notifies observers on every change.
//
// # Packages
//
//   - rt/tweak: values, definitions, collections and the Store.
//   - rt/tweak/tweakslog: bind a tweak to a slog.LevelVar; log tweak events.
//   - persist/yamlfile, persist/sqlitestore: durable override storage.
//   - catalog: build collections from a YAML definitions file.
//   - ops: net/http handlers for a Store (text and JSON).
//   - admin: chi router mounting ops handlers behind read/write guards.
//   - cmd/tweakkit: the command-line tool (list, show, get, set, clear,
//     reset, overrides, catalog, serve).
//
// # Quick start
//
//	st := tweak.New(tweak.WithPersister(yamlfile.New("tweaks.state.yaml")))
//	st.MustRegister(tweak.NewCollection("Layout").MustAdd(
//		tweak.MustDefinition("layout.cornerRadius", tweak.Int(4),
//			tweak.WithBounds(tweak.Int(0), tweak.Int(20))),
//	))
//	st.LoadOverrides()
//
//	mux := http.NewServeMux()
//	mux.Handle("/-/", http.StripPrefix("/-", admin.New(
//		admin.EnableTweaks(admin.TweaksSpec{
//			Store:      st,
//			ReadGuard:  admin.AllowAll(),
//			WriteGuard: admin.Tokens([]string{"s3cr3t"}),
//		}),
//	)))
//
// # Security model
//
// Reads and writes are guarded separately. Write endpoints are mounted only
// when a write guard is configured; without one they do not exist.
package tweakkit
