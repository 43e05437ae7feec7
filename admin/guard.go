package admin

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Guard enforces request admission for a capability.
//
// Implementations must be fast and must not block; they must not do I/O.
type Guard interface {
	// Middleware returns a net/http middleware that enforces this guard.
	//
	// Denied requests must respond with HTTP 403.
	Middleware() func(http.Handler) http.Handler
}

type checkGuard struct{ allow func(r *http.Request) bool }

func (g checkGuard) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if next == nil {
			panic("admin: guard: nil next handler")
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if g.allow == nil || !g.allow(r) {
				forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func forbidden(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte("forbidden\n"))
}

// DenyAll returns a guard that denies all requests with HTTP 403.
func DenyAll() Guard {
	return checkGuard{allow: func(*http.Request) bool { return false }}
}

// AllowAll returns a guard that allows all requests.
func AllowAll() Guard {
	return checkGuard{allow: func(*http.Request) bool { return true }}
}

// Check returns a guard backed by a custom fast predicate.
//
// fn == nil is an assembly error and will panic.
func Check(fn func(r *http.Request) bool) Guard {
	if fn == nil {
		panic("admin: Check: nil func")
	}
	return checkGuard{allow: fn}
}

// DefaultTokenHeader is the default header used by token-based guards when not overridden.
const DefaultTokenHeader = "X-Access-Token"

// TokenOption configures Tokens.
type TokenOption func(*tokenConfig)

type tokenConfig struct {
	header string
}

// WithTokenHeader overrides the token header name for token-based guards.
//
// Empty/blank names are ignored (default is DefaultTokenHeader).
func WithTokenHeader(name string) TokenOption {
	return func(c *tokenConfig) {
		if name = strings.TrimSpace(name); name != "" {
			c.header = name
		}
	}
}

// Tokens returns a guard that admits requests whose token header matches one
// of tokens. Comparison is constant-time per token.
//
// Blank tokens are ignored. With no tokens left the guard denies everything.
func Tokens(tokens []string, opts ...TokenOption) Guard {
	cfg := tokenConfig{header: DefaultTokenHeader}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	var set [][]byte
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			set = append(set, []byte(t))
		}
	}
	return checkGuard{allow: func(r *http.Request) bool {
		got := []byte(r.Header.Get(cfg.header))
		if len(got) == 0 {
			return false
		}
		ok := 0
		for _, want := range set {
			ok |= subtle.ConstantTimeCompare(got, want)
		}
		return ok == 1
	}}
}
