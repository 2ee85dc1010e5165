// Package span locates tokens, expression nodes, and diagnostics within the
// text they were parsed from.
//
// A [Span] is a half-open byte range into a [Source]. Spans are immutable
// values; every predicate and merge operation requires both operands to refer
// to the same [Source] instance and panics otherwise, since mixing sources is
// a programming error rather than a user input error.
package span

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Source is a named, immutable body of text.
// Identity is by pointer: two Sources with equal text are still distinct.
type Source struct {
	name  string
	text  string
	lines []int // byte offset of the first byte of each line
}

// NewSource returns a Source wrapping text. The name is informational and
// appears in rendered positions; it may be empty.
func NewSource(name, text string) *Source {
	lines := make([]int, 1, strings.Count(text, "\n")+1)
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, i+1)
		}
	}

	return &Source{name: name, text: text, lines: lines}
}

// Name returns the name given to [NewSource].
func (s *Source) Name() string { return s.name }

// Text returns the complete source text.
func (s *Source) Text() string { return s.text }

// Len returns the length of the source text in bytes.
func (s *Source) Len() int { return len(s.text) }

// LineCol returns the 1-based line and column of byte offset off.
// Columns count runes. Offsets outside the text are clamped.
func (s *Source) LineCol(off int) (line, col int) {
	off = max(0, min(off, len(s.text)))

	idx := sort.Search(len(s.lines), func(i int) bool {
		return s.lines[i] > off
	}) - 1

	return idx + 1, utf8.RuneCountInString(s.text[s.lines[idx]:off]) + 1
}

// Line returns the text of the 1-based line n without its line terminator.
func (s *Source) Line(n int) string {
	if n < 1 || n > len(s.lines) {
		return ""
	}

	start := s.lines[n-1]
	end := len(s.text)

	if n < len(s.lines) {
		end = s.lines[n] - 1
	}

	return strings.TrimSuffix(s.text[start:end], "\r")
}

// Span returns the span of s covering [start, end).
func (s *Source) Span(start, end int) Span {
	return New(s, start, end-start)
}

// Span is a half-open byte range [Start, End) of a [Source].
// The zero Span refers to no source.
type Span struct {
	src    *Source
	start  int
	length int
}

// New returns the span of src beginning at start with the given length.
// It panics if the range does not lie within src.
func New(src *Source, start, length int) Span {
	if src == nil {
		panic("span: nil source")
	}

	if start < 0 || length < 0 || start+length > src.Len() {
		panic(fmt.Sprintf(
			"span: range [%d,%d) out of bounds for source of length %d",
			start, start+length, src.Len(),
		))
	}

	return Span{src: src, start: start, length: length}
}

// Source returns the source text the span refers to.
func (s Span) Source() *Source { return s.src }

// Start returns the offset of the first byte covered by the span.
func (s Span) Start() int { return s.start }

// Len returns the number of bytes covered by the span.
func (s Span) Len() int { return s.length }

// End returns the offset one past the last byte covered by the span.
func (s Span) End() int { return s.start + s.length }

// IsZero reports whether s is the zero Span.
func (s Span) IsZero() bool { return s.src == nil }

// Text returns the source text covered by the span.
func (s Span) Text() string {
	if s.src == nil {
		return ""
	}

	return s.src.text[s.start:s.End()]
}

// IsLeftOf reports whether s ends at or before the start of o.
func (s Span) IsLeftOf(o Span) bool {
	mustShare(s, o)

	return s.End() <= o.start
}

// IsRightOf reports whether s starts at or after the end of o.
func (s Span) IsRightOf(o Span) bool {
	mustShare(s, o)

	return s.start >= o.End()
}

// IsBetween reports whether s lies strictly outside both a and b, to the right
// of a and to the left of b.
func (s Span) IsBetween(a, b Span) bool {
	return s.IsRightOf(a) && s.IsLeftOf(b)
}

// Contains reports whether o lies entirely within s.
func (s Span) Contains(o Span) bool {
	mustShare(s, o)

	return s.start <= o.start && o.End() <= s.End()
}

// Before returns the zero-length span positioned at the start of s.
func (s Span) Before() Span { return Span{src: s.src, start: s.start} }

// After returns the zero-length span positioned at the end of s.
func (s Span) After() Span { return Span{src: s.src, start: s.End()} }

// String renders the span as name:line:col, omitting an empty name.
func (s Span) String() string {
	if s.src == nil {
		return "-"
	}

	line, col := s.src.LineCol(s.start)
	pos := strconv.Itoa(line) + ":" + strconv.Itoa(col)

	if s.src.name == "" {
		return pos
	}

	return s.src.name + ":" + pos
}

// Encompass returns the smallest span covering every given span.
// It panics if no spans are given or they refer to different sources.
func Encompass(spans ...Span) Span {
	if len(spans) == 0 {
		panic("span: encompass of no spans")
	}

	out := spans[0]
	end := out.End()

	for _, s := range spans[1:] {
		mustShare(out, s)

		out.start = min(out.start, s.start)
		end = max(end, s.End())
	}

	out.length = end - out.start

	return out
}

// Between returns the span separating a from b. The result begins where a
// ends and ends where b begins; it is zero-length when they are adjacent.
// It panics if a is not left of b.
func Between(a, b Span) Span {
	if !a.IsLeftOf(b) {
		panic("span: between of unordered spans")
	}

	return Span{src: a.src, start: a.End(), length: b.start - a.End()}
}

func mustShare(a, b Span) {
	if a.src != b.src {
		panic("span: spans refer to different sources")
	}
}
