package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	ansiReset   = "\x1b[0m"
	ansiBold    = "\x1b[1m"
	ansiDim     = "\x1b[2m"
	ansiRed     = "\x1b[31m"
	ansiGreen   = "\x1b[32m"
	ansiYellow  = "\x1b[33m"
	ansiBlue    = "\x1b[34m"
	ansiMagenta = "\x1b[35m"
	ansiCyan    = "\x1b[36m"
)

// prettyHandler writes one key=value line per record for local development.
// Attributes bound with WithAttrs are rendered once, with the group prefix
// that was current at binding time.
type prettyHandler struct {
	out    io.Writer
	mu     *sync.Mutex
	level  slog.Leveler
	source bool
	ink    ink

	bound  string // pre-rendered " k=v" pairs
	prefix string // "group." path for attrs added later
}

func newPrettyHandler(w io.Writer, opts *slog.HandlerOptions, color bool) slog.Handler {
	h := &prettyHandler{out: w, mu: &sync.Mutex{}, level: slog.LevelInfo, ink: ink(color)}
	if opts != nil {
		if opts.Level != nil {
			h.level = opts.Level
		}
		h.source = opts.AddSource
	}
	return h
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "ts=%s lvl=%s msg=%s",
		h.ink.paint(ts.Format("15:04:05.000"), ansiDim),
		h.ink.level(r.Level),
		h.ink.paint(r.Message, ansiBold),
	)
	if h.source && r.PC != 0 {
		f, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		if f.File != "" {
			b.WriteString(" src=")
			b.WriteString(h.ink.paint(filepath.Base(f.File)+":"+strconv.Itoa(f.Line), ansiDim))
		}
	}
	b.WriteString(h.bound)
	r.Attrs(func(a slog.Attr) bool {
		h.render(&b, h.prefix, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var b strings.Builder
	for _, a := range attrs {
		h.render(&b, h.prefix, a)
	}
	cp := *h
	cp.bound += b.String()
	return &cp
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	name = strings.TrimSpace(name)
	if name == "" {
		return h
	}
	cp := *h
	cp.prefix += name + "."
	return &cp
}

func (h *prettyHandler) render(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	key := strings.TrimSpace(a.Key)
	if key == "" {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			h.render(b, prefix+key+".", ga)
		}
		return
	}

	name, val := prefix+key, ""
	if field, ok := requestFields[name]; ok {
		name, val = field.label, field.format(h.ink, a.Value)
	} else {
		val = quoteIfNeeded(plainValue(a.Value))
	}
	b.WriteByte(' ')
	b.WriteString(name)
	b.WriteByte('=')
	b.WriteString(val)
}

// requestFields are the http.request attributes that get a shorter label and color.
var requestFields = map[string]struct {
	label  string
	format func(ink, slog.Value) string
}{
	"method": {"method", func(k ink, v slog.Value) string {
		m := strings.ToUpper(strings.TrimSpace(v.String()))
		return k.paint(m, methodColor(m))
	}},
	"path": {"path", func(k ink, v slog.Value) string {
		return k.paint(strings.TrimSpace(v.String()), ansiCyan)
	}},
	"status": {"status", func(k ink, v slog.Value) string {
		n, ok := intValue(v)
		if !ok {
			return quoteIfNeeded(plainValue(v))
		}
		return k.paint(strconv.FormatInt(n, 10), statusColor(int(n)))
	}},
	"status_class": {"class", func(k ink, v slog.Value) string {
		c := strings.TrimSpace(v.String())
		if c == "" || c[0] < '1' || c[0] > '5' {
			return quoteIfNeeded(c)
		}
		return k.paint(c, statusColor(int(c[0]-'0')*100))
	}},
	"duration_ms": {"duration", func(k ink, v slog.Value) string {
		ms, ok := intValue(v)
		if !ok {
			return quoteIfNeeded(plainValue(v))
		}
		color := ansiDim
		switch {
		case ms >= 1000:
			color = ansiRed
		case ms >= 250:
			color = ansiYellow
		}
		return k.paint(strconv.FormatInt(ms, 10)+"ms", color)
	}},
	"result": {"result", func(k ink, v slog.Value) string {
		r := strings.ToLower(strings.TrimSpace(v.String()))
		color, ok := map[string]string{
			"success":      ansiGreen,
			"redirect":     ansiCyan,
			"client_error": ansiYellow,
			"server_error": ansiRed,
		}[r]
		if !ok {
			return quoteIfNeeded(r)
		}
		return k.paint(r, color)
	}},
}

// ink applies ANSI colors when true.
type ink bool

func (k ink) paint(s, code string) string {
	if !k {
		return s
	}
	return code + s + ansiReset
}

func (k ink) level(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return k.paint("[ERROR]", ansiRed)
	case l >= slog.LevelWarn:
		return k.paint("[WARN]", ansiYellow)
	case l < slog.LevelInfo:
		return k.paint("[DEBUG]", ansiMagenta)
	default:
		return k.paint("[INFO]", ansiBlue)
	}
}

func methodColor(m string) string {
	switch m {
	case "GET":
		return ansiBlue
	case "POST":
		return ansiGreen
	case "DELETE":
		return ansiRed
	default:
		return ansiMagenta
	}
}

func statusColor(code int) string {
	switch {
	case code >= 500:
		return ansiRed
	case code >= 400:
		return ansiYellow
	case code >= 300:
		return ansiCyan
	default:
		return ansiGreen
	}
}

func plainValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindAny:
		return fmt.Sprint(v.Any())
	default:
		// String() formats the remaining kinds (durations included) the way slog does.
		return v.String()
	}
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\r\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

func intValue(v slog.Value) (int64, bool) {
	switch v.Kind() {
	case slog.KindInt64:
		return v.Int64(), true
	case slog.KindUint64:
		return int64(v.Uint64()), true // #nosec G115 -- log values only.
	case slog.KindFloat64:
		return int64(v.Float64()), true
	case slog.KindDuration:
		return v.Duration().Milliseconds(), true
	default:
		n, err := strconv.ParseInt(strings.TrimSpace(v.String()), 10, 64)
		return n, err == nil
	}
}
