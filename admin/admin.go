package admin

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/evan-idocoding/tweakkit/ops"
	"github.com/evan-idocoding/tweakkit/rt/tweak"
)

// New assembles and returns the admin subtree handler.
//
// Security & control:
//   - Nothing is mounted unless explicitly enabled via options.
//   - Every enabled capability must have a non-nil Guard (explicit).
//
// Assembly errors are fail-fast and will panic.
func New(opts ...Option) http.Handler {
	b := &builder{router: newRouter(), paths: make(map[string]bool)}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b.router
}

// Option configures admin assembly.
type Option func(*builder)

type builder struct {
	router chi.Router
	paths  map[string]bool
}

func (b *builder) add(path string, g Guard, h http.Handler) {
	if g == nil {
		panic("admin: " + path + ": nil Guard")
	}
	if h == nil {
		panic("admin: " + path + ": nil handler")
	}
	if b.paths[path] {
		panic("admin: duplicated path handler: " + path)
	}
	b.paths[path] = true
	b.router.With(g.Middleware()).Handle(path, h)
}

// newRouter returns the root router with the global middleware stack.
// Recoverer and RequestID apply to every admin path.
func newRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	return r
}

// --- health / ready ---

// HealthzSpec configures the liveness endpoint.
type HealthzSpec struct {
	Guard Guard
	Path  string // default "/healthz"
}

// EnableHealthz mounts ops.HealthzHandler at spec.Path.
func EnableHealthz(spec HealthzSpec) Option {
	return func(b *builder) {
		b.add(resolvePath(spec.Path, "/healthz"), spec.Guard, ops.HealthzHandler())
	}
}

// ReadyCheck is a named readiness check.
type ReadyCheck struct {
	Name    string
	Func    func(context.Context) error
	Timeout time.Duration // <=0 means no extra timeout
}

// ReadyzSpec configures the readiness endpoint and its checks.
type ReadyzSpec struct {
	Guard  Guard
	Path   string // default "/readyz"
	Checks []ReadyCheck
}

// EnableReadyz mounts ops.ReadyzHandler at spec.Path.
func EnableReadyz(spec ReadyzSpec) Option {
	return func(b *builder) {
		checks := make([]ops.ReadyCheck, 0, len(spec.Checks))
		for _, c := range spec.Checks {
			checks = append(checks, ops.ReadyCheck{Name: c.Name, Func: c.Func, Timeout: c.Timeout})
		}
		b.add(resolvePath(spec.Path, "/readyz"), spec.Guard, ops.ReadyzHandler(checks))
	}
}

// --- tweaks ---

// TweaksSpec mounts the tweak store handlers under Prefix:
//
//	GET  <prefix>/collections
//	GET  <prefix>/collection?title=
//	GET  <prefix>/lookup?key=
//	GET  <prefix>/overrides
//	POST <prefix>/set?key=&value=
//	POST <prefix>/clear?key=
//	POST <prefix>/reset
//
// Write endpoints are mounted only when WriteGuard is non-nil.
type TweaksSpec struct {
	Store      *tweak.Store
	ReadGuard  Guard
	WriteGuard Guard
	Prefix     string // default "/tweaks"

	// Options apply to every tweak handler (format, key guards).
	Options []ops.TweakOption
}

// EnableTweaks mounts the tweak handlers described by spec.
// It panics if spec.Store or spec.ReadGuard is nil.
func EnableTweaks(spec TweaksSpec) Option {
	return func(b *builder) {
		if spec.Store == nil {
			panic("admin: tweaks: nil tweak.Store")
		}
		if spec.ReadGuard == nil {
			panic("admin: tweaks: nil ReadGuard")
		}
		p := strings.TrimSuffix(resolvePath(spec.Prefix, "/tweaks"), "/")
		st, o := spec.Store, spec.Options

		b.add(p+"/collections", spec.ReadGuard, ops.CollectionsHandler(st, o...))
		b.add(p+"/collection", spec.ReadGuard, ops.CollectionHandler(st, o...))
		b.add(p+"/lookup", spec.ReadGuard, ops.LookupHandler(st, o...))
		b.add(p+"/overrides", spec.ReadGuard, ops.OverridesHandler(st, o...))
		if spec.WriteGuard == nil {
			return
		}
		b.add(p+"/set", spec.WriteGuard, ops.SetHandler(st, o...))
		b.add(p+"/clear", spec.WriteGuard, ops.ClearHandler(st, o...))
		b.add(p+"/reset", spec.WriteGuard, ops.ResetHandler(st, o...))
	}
}

func resolvePath(specPath, def string) string {
	path := strings.TrimSpace(specPath)
	if path == "" {
		return def
	}
	if !strings.HasPrefix(path, "/") {
		panic("admin: invalid path (must start with '/'): " + path)
	}
	if strings.ContainsAny(path, " \t\r\n?#{}*") || strings.Contains(path, "//") {
		panic("admin: invalid path: " + path)
	}
	return path
}
