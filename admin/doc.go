// Package admin assembles an explicit, guarded admin subtree (http.Handler)
// for a tweak.Store.
//
// admin is an assembly layer: it mounts the handlers of package ops on a chi
// router behind per-capability guards. Mount the returned handler anywhere:
//
//	h := admin.New(
//		admin.EnableHealthz(admin.HealthzSpec{Guard: admin.AllowAll()}),
//		admin.EnableTweaks(admin.TweaksSpec{
//			Store:      store,
//			ReadGuard:  admin.Tokens([]string{"reader", "writer"}),
//			WriteGuard: admin.Tokens([]string{"writer"}),
//		}),
//	)
//	mux := http.NewServeMux()
//	mux.Handle("/-/", http.StripPrefix("/-", h))
//
// # Core rules
//
// Nothing is mounted unless enabled via EnableXxx options. Every enabled
// capability needs a non-nil Guard. Tweak writes are mounted only when a
// WriteGuard is given; without one they answer 404.
//
// Invalid assembly (nil Guard, invalid or duplicated path) panics.
//
// # Default paths
//
//   - EnableHealthz: "/healthz"
//   - EnableReadyz:  "/readyz"
//   - EnableTweaks:  "/tweaks/..." (see TweaksSpec)
//
// Every path answers with text by default; ?format=json switches to JSON.
package admin
