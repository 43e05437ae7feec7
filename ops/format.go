package ops

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Format controls the response rendering format.
//
// This is shared across ops handlers that support multiple output formats.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

func (f Format) valid() bool { return f == FormatText || f == FormatJSON }

func formatFromRequest(r *http.Request, def Format) Format {
	if r == nil || r.URL == nil {
		return def
	}
	switch r.URL.Query().Get("format") {
	case "json":
		return FormatJSON
	case "text":
		return FormatText
	default:
		return def
	}
}

// writeResponse renders resp as JSON, or as text via renderText when ok is
// true (the error line otherwise). HEAD requests get headers only.
func writeResponse(w http.ResponseWriter, r *http.Request, f Format, code int, resp any, ok bool, errMsg string, renderText func() string) {
	w.Header().Set("Cache-Control", "no-store")
	switch f {
	case FormatJSON:
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(code)
		if r.Method == http.MethodHead {
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(code)
		if r.Method == http.MethodHead {
			return
		}
		if !ok || renderText == nil {
			writeTextError(w, errMsg)
			return
		}
		_, _ = w.Write([]byte(renderText()))
	}
}

func writeTextError(w http.ResponseWriter, msg string) {
	if msg != "" {
		_, _ = w.Write([]byte(msg + "\n"))
		return
	}
	_, _ = w.Write([]byte("error\n"))
}

// textLine appends one tab-separated line; every field is escaped.
func textLine(b *strings.Builder, fields ...string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte('\t')
		}
		b.WriteString(escapeTextField(f))
	}
	b.WriteByte('\n')
}

func escapeTextField(s string) string {
	// Text outputs are line-based and tab-separated. Control characters are
	// escaped so a field can never break a line:
	//   '\' => '\\', tab => '\t', CR => '\r', LF => '\n',
	//   other bytes < 0x20 => \u00XX.
	need := false
	for i := 0; i < len(s); i++ {
		if c := s[i]; c == '\\' || c < 0x20 {
			need = true
			break
		}
	}
	if !need {
		return s
	}
	const hex = "0123456789abcdef"
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			b.WriteString(`\\`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case '\n':
			b.WriteString(`\n`)
		default:
			if c < 0x20 {
				b.WriteString(`\u00`)
				b.WriteByte(hex[c>>4])
				b.WriteByte(hex[c&0x0f])
			} else {
				b.WriteByte(c)
			}
		}
	}
	return b.String()
}

// getQuery returns the first value for name. ok is false when the parameter
// is absent; an empty value is returned as ("", true).
func getQuery(r *http.Request, name string) (string, bool) {
	if r == nil || r.URL == nil {
		return "", false
	}
	vs, ok := r.URL.Query()[name]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}
