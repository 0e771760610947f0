package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// prettyHandler renders one header line per record followed by indented
// fields. Info and above show a curated field list; debug shows every field.
type prettyHandler struct {
	out       *consoleOutput
	level     *slog.LevelVar
	addSource bool
	// preset holds WithAttrs fields, already flattened under their groups.
	preset []slog.Attr
	groups []string
}

// consoleOutput is shared by every handler derived from the same root so
// concurrent workers never interleave lines.
type consoleOutput struct {
	mu sync.Mutex
	w  io.Writer
}

func newPrettyHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &prettyHandler{out: &consoleOutput{w: w}, level: lvl, addSource: addSource}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, record slog.Record) error {
	if !h.Enabled(context.Background(), record.Level) {
		return nil
	}

	attrs := make([]slog.Attr, 0, len(h.preset)+record.NumAttrs())
	attrs = append(attrs, h.preset...)
	record.Attrs(func(attr slog.Attr) bool {
		attrs = flatten(attrs, h.groups, attr)
		return true
	})
	attrs = lastWins(attrs)

	var buf bytes.Buffer
	buf.Grow(256 + len(attrs)*32)
	h.writeHeader(&buf, record, attrs)
	if record.Level < slog.LevelInfo {
		writeDebugFields(&buf, attrs)
	} else {
		writeInfoFields(&buf, attrs)
	}

	h.out.mu.Lock()
	defer h.out.mu.Unlock()
	_, err := h.out.w.Write(buf.Bytes())
	return err
}

func (h *prettyHandler) writeHeader(buf *bytes.Buffer, record slog.Record, attrs []slog.Attr) {
	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	buf.WriteString(formatTimestamp(ts))
	buf.WriteByte(' ')
	buf.WriteString(levelLabel(record.Level))

	var component, batch, item string
	for _, attr := range attrs {
		switch attr.Key {
		case FieldComponent:
			component = renderValue(attr.Value, false)
		case FieldBatchID:
			batch = renderValue(attr.Value, false)
		case FieldItem:
			item = renderValue(attr.Value, false)
		}
	}
	if component != "" {
		buf.WriteString(" [" + component + "]")
	}
	if subject := composeSubject(batch, item); subject != "" {
		buf.WriteString(" " + subject)
	}

	message := strings.TrimSpace(record.Message)
	if message == "" {
		message = "(no message)"
	}
	buf.WriteString(" – ")
	buf.WriteString(message)

	if h.addSource {
		if src := record.Source(); src != nil && src.File != "" {
			buf.WriteString(" [" + filepath.Base(src.File) + ":" + strconv.Itoa(src.Line) + "]")
		}
	}
	buf.WriteByte('\n')
}

func writeInfoFields(buf *bytes.Buffer, attrs []slog.Attr) {
	fields, hidden := selectInfoFields(attrs)
	for _, field := range fields {
		buf.WriteString("    - " + field.label + ": " + field.value + "\n")
	}
	switch {
	case hidden == 1:
		buf.WriteString("    + 1 more field hidden\n")
	case hidden > 1:
		buf.WriteString("    + " + strconv.Itoa(hidden) + " more fields hidden\n")
	}
}

func writeDebugFields(buf *bytes.Buffer, attrs []slog.Attr) {
	for _, attr := range attrs {
		if attr.Key == FieldComponent {
			continue
		}
		buf.WriteString("    " + attr.Key + ": " + renderValue(attr.Value, true) + "\n")
	}
}

// composeSubject names what a line is about: the batch (shortened) and the
// raw name being resolved.
func composeSubject(batch, item string) string {
	batch = strings.TrimSpace(batch)
	item = strings.TrimSpace(item)
	if len(batch) > 8 {
		batch = batch[:8]
	}
	var parts []string
	if batch != "" {
		parts = append(parts, "Run "+batch)
	}
	if item != "" {
		parts = append(parts, strconv.Quote(item))
	}
	return strings.Join(parts, " · ")
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := h.derive()
	for _, attr := range attrs {
		next.preset = flatten(next.preset, h.groups, attr)
	}
	return next
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := h.derive()
	next.groups = append(next.groups, name)
	return next
}

func (h *prettyHandler) derive() *prettyHandler {
	return &prettyHandler{
		out:       h.out,
		level:     h.level,
		addSource: h.addSource,
		preset:    append([]slog.Attr(nil), h.preset...),
		groups:    append([]string(nil), h.groups...),
	}
}

// lastWins drops empty keys and keeps the latest value for repeated keys at
// the position of their first occurrence.
func lastWins(attrs []slog.Attr) []slog.Attr {
	index := make(map[string]int, len(attrs))
	out := attrs[:0:0]
	for _, attr := range attrs {
		if attr.Key == "" {
			continue
		}
		if pos, ok := index[attr.Key]; ok {
			out[pos].Value = attr.Value
			continue
		}
		index[attr.Key] = len(out)
		out = append(out, attr)
	}
	return out
}

// flatten appends attr to dst, expanding groups into dotted keys.
func flatten(dst []slog.Attr, groups []string, attr slog.Attr) []slog.Attr {
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		inner := groups
		if attr.Key != "" {
			inner = append(append([]string(nil), groups...), attr.Key)
		}
		for _, member := range attr.Value.Group() {
			dst = flatten(dst, inner, member)
		}
		return dst
	}
	if len(groups) > 0 {
		attr.Key = strings.Join(groups, ".") + "." + attr.Key
	}
	return append(dst, attr)
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
