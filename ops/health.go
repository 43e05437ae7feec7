package ops

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

type healthConfig struct {
	format Format
}

// HealthOption configures HealthzHandler / ReadyzHandler.
type HealthOption func(*healthConfig)

// WithHealthDefaultFormat sets the default response format for health handlers.
// Default is FormatText.
func WithHealthDefaultFormat(f Format) HealthOption {
	return func(c *healthConfig) { c.format = f }
}

func applyHealthOptions(opts []HealthOption) healthConfig {
	cfg := healthConfig{format: FormatText}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if !cfg.format.valid() {
		cfg.format = FormatText
	}
	return cfg
}

type healthResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// HealthzHandler returns a liveness handler. It always responds 200 OK for GET/HEAD.
func HealthzHandler(opts ...HealthOption) http.Handler {
	cfg := applyHealthOptions(opts)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		format := formatFromRequest(r, cfg.format)
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			writeResponse(w, r, format, http.StatusMethodNotAllowed, healthResponse{Error: "method not allowed"}, false, "method not allowed", nil)
			return
		}
		writeResponse(w, r, format, http.StatusOK, healthResponse{OK: true}, true, "", func() string { return "ok\n" })
	})
}

// ReadyCheck is a named readiness check. Func returns nil when healthy and
// must respect ctx cancellation.
type ReadyCheck struct {
	Name    string
	Func    func(context.Context) error
	Timeout time.Duration // <= 0 means no extra timeout
}

// ReadyCheckResult is a single check execution result.
type ReadyCheckResult struct {
	Name string `json:"name"`
	OK   bool   `json:"ok"`
	// Duration is encoded as an integer number of nanoseconds in JSON.
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
	TimedOut bool          `json:"timed_out,omitempty"`
}

// ReadyzReport is a point-in-time readiness report. Checks keep input order.
type ReadyzReport struct {
	OK       bool               `json:"ok"`
	Duration time.Duration      `json:"duration"`
	Checks   []ReadyCheckResult `json:"checks,omitempty"`
}

// ReadyzHandler returns a readiness handler. It responds 200 if every check
// passes and 503 otherwise. GET/HEAD only.
func ReadyzHandler(checks []ReadyCheck, opts ...HealthOption) http.Handler {
	for i, c := range checks {
		if c.Name == "" {
			panic(fmt.Sprintf("ops: ready check[%d] has empty Name", i))
		}
		if c.Func == nil {
			panic(fmt.Sprintf("ops: ready check[%d] %q has nil Func", i, c.Name))
		}
	}
	cfg := applyHealthOptions(opts)
	snapshot := append([]ReadyCheck(nil), checks...)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		format := formatFromRequest(r, cfg.format)
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			writeResponse(w, r, format, http.StatusMethodNotAllowed, ReadyzReport{}, false, "method not allowed", nil)
			return
		}
		rep := RunReadyzChecks(r.Context(), snapshot)
		code := http.StatusOK
		if !rep.OK {
			code = http.StatusServiceUnavailable
		}
		writeResponse(w, r, format, code, rep, true, "", func() string {
			if rep.OK {
				return "ok\n"
			}
			var b strings.Builder
			for _, c := range rep.Checks {
				if !c.OK {
					b.WriteString("fail " + c.Name + ": " + escapeTextField(c.Error) + "\n")
				}
			}
			return b.String()
		})
	})
}

// RunReadyzChecks runs checks concurrently and waits for all of them.
func RunReadyzChecks(ctx context.Context, checks []ReadyCheck) ReadyzReport {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	results := make([]ReadyCheckResult, len(checks))

	// A failing check is a result, not an error: no goroutine returns one, so
	// a plain Group (no shared cancel) lets every check run to completion.
	var g errgroup.Group
	for i, c := range checks {
		g.Go(func() error {
			results[i] = runOneCheck(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	rep := ReadyzReport{OK: true, Checks: results, Duration: time.Since(start)}
	for _, cr := range results {
		if !cr.OK {
			rep.OK = false
		}
	}
	return rep
}

func runOneCheck(parent context.Context, c ReadyCheck) (cr ReadyCheckResult) {
	cr.Name = c.Name
	start := time.Now()
	ctx, cancel := parent, context.CancelFunc(func() {})
	if c.Timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, c.Timeout)
	}
	defer cancel()

	defer func() {
		cr.Duration = time.Since(start)
		if p := recover(); p != nil {
			cr.OK = false
			cr.Error = fmt.Sprintf("panic: %v", p)
		}
		if ctx.Err() == context.DeadlineExceeded {
			cr.OK = false
			cr.TimedOut = true
			if cr.Error == "" {
				cr.Error = "timeout"
			}
		}
	}()

	if err := c.Func(ctx); err != nil {
		cr.Error = err.Error()
		return cr
	}
	cr.OK = true
	return cr
}
