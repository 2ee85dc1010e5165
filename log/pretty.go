package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles of a pretty handler. Styles come from a renderer
// bound to the handler's output, so they produce plain text when the output
// is not a terminal.
type palette struct {
	key, str, num, yes, no, null, when, dur lipgloss.Style
	levels                                  map[slog.Level]lipgloss.Style
}

func makePalette(w io.Writer) *palette {
	r := lipgloss.NewRenderer(w)
	fg := func(c string) lipgloss.Style { return r.NewStyle().Foreground(lipgloss.Color(c)) }

	return &palette{
		key:  fg("8"),
		str:  fg("6"),
		num:  fg("3"),
		yes:  fg("2"),
		no:   fg("1"),
		null: fg("8"),
		when: fg("4"),
		dur:  fg("5"),
		levels: map[slog.Level]lipgloss.Style{
			slog.Level(LevelTrace): fg("5"),
			slog.LevelDebug:        fg("4"),
			slog.LevelInfo:         fg("2"),
			slog.LevelWarn:         fg("3").Bold(true),
			slog.LevelError:        fg("1").Bold(true),
		},
	}
}

// level returns the style of the nearest named level at or below l.
func (p *palette) level(l slog.Level) lipgloss.Style {
	for _, at := range slices.Backward(levels) {
		if l >= slog.Level(at) {
			return p.levels[slog.Level(at)]
		}
	}

	return p.levels[slog.Level(LevelTrace)]
}

// prettyHandler writes records as colored key=value lines, or as indented
// objects when json is set.
type prettyHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	style  *palette
	attrs  []slog.Attr
	groups []string
	json   bool
}

func newPrettyHandler(w io.Writer, opts *slog.HandlerOptions, json bool) *prettyHandler {
	return &prettyHandler{
		opts:  *opts,
		mu:    &sync.Mutex{},
		w:     w,
		style: makePalette(w),
		json:  json,
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = slices.Clone(h.attrs)

	for _, a := range attrs {
		c.attrs = append(c.attrs, h.qualify(a))
	}

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.groups = append(slices.Clip(h.groups), name)

	return &c
}

// qualify prefixes the key of a with the open groups.
func (h *prettyHandler) qualify(a slog.Attr) slog.Attr {
	for _, g := range slices.Backward(h.groups) {
		a.Key = g + "." + a.Key
	}

	return a
}

// replace applies the ReplaceAttr option to a built-in attribute.
func (h *prettyHandler) replace(a slog.Attr) slog.Attr {
	if h.opts.ReplaceAttr == nil {
		return a
	}

	return h.opts.ReplaceAttr(nil, a)
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	var fields []field

	add := func(a slog.Attr, level bool) {
		if a.Equal(slog.Attr{}) {
			return
		}

		fields = append(fields, field{attr: a, level: level})
	}

	if !r.Time.IsZero() {
		add(h.replace(slog.Time(slog.TimeKey, r.Time)), false)
	}

	add(h.replace(slog.Any(slog.LevelKey, r.Level)), true)

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			add(slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", src.File, src.Line)), false)
		}
	}

	add(slog.String(slog.MessageKey, r.Message), false)

	for _, a := range h.attrs {
		add(a, false)
	}

	r.Attrs(func(a slog.Attr) bool {
		add(h.qualify(a), false)

		return true
	})

	buf := new(bytes.Buffer)
	h.write(buf, fields, r.Level)

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

type field struct {
	attr  slog.Attr
	level bool
}

func (h *prettyHandler) write(buf *bytes.Buffer, fields []field, level slog.Level) {
	sep, open, end, kv := " ", "", "\n", "="
	if h.json {
		sep, open, end, kv = ",\n  ", "{\n  ", "\n}\n", ": "
	}

	buf.WriteString(open)

	first := true

	var emit func(key string, v slog.Value, isLevel bool)
	emit = func(key string, v slog.Value, isLevel bool) {
		v = v.Resolve()

		if v.Kind() == slog.KindGroup {
			for _, a := range v.Group() {
				k := a.Key
				if key != "" {
					k = key + "." + k
				}

				emit(k, a.Value, false)
			}

			return
		}

		if !first {
			buf.WriteString(sep)
		}

		first = false

		buf.WriteString(h.style.key.Render(key))
		buf.WriteString(kv)

		if isLevel {
			buf.WriteString(h.style.level(level).Render(v.String()))
		} else {
			buf.WriteString(h.value(v))
		}
	}

	for _, f := range fields {
		emit(f.attr.Key, f.attr.Value, f.level)
	}

	buf.WriteString(end)
}

func (h *prettyHandler) value(v slog.Value) string {
	p := h.style

	switch v.Kind() {
	case slog.KindString:
		return p.str.Render(v.String())
	case slog.KindInt64:
		return p.num.Render(strconv.FormatInt(v.Int64(), 10))
	case slog.KindUint64:
		return p.num.Render(strconv.FormatUint(v.Uint64(), 10))
	case slog.KindFloat64:
		return p.num.Render(strconv.FormatFloat(v.Float64(), 'g', -1, 64))
	case slog.KindBool:
		if v.Bool() {
			return p.yes.Render("true")
		}

		return p.no.Render("false")
	case slog.KindDuration:
		return p.dur.Render(v.Duration().String())
	case slog.KindTime:
		return p.when.Render(v.Time().Format(time.RFC3339))
	}

	switch a := v.Any().(type) {
	case nil:
		return p.null.Render("null")
	case error:
		return p.no.Render(a.Error())
	}

	return p.str.Render(v.String())
}
