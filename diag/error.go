// Package diag defines the closed set of parse-time failures reported by the
// tokenizer and parse engine.
//
// Every failure is an [*Error] carrying a [Kind], the exact [span.Span] that
// caused it, and a human-readable message. Callers select failures by kind
// with [errors.Is] against the sentinel values:
//
//	node, err := language.Parse(ctx, "1 + + 5")
//	if errors.Is(err, diag.ErrOperandExpected) {
//		var e *diag.Error
//		errors.As(err, &e)
//		fmt.Println(e.Snippet())
//	}
package diag

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ardnew/prex/span"
)

// Kind identifies a member of the parse failure taxonomy.
type Kind int

const (
	KindGrammarUnknown Kind = iota + 1
	KindOperandExpected
	KindOperandUnexpected
	KindBracketUnmatched
	KindListDelimiterNotWithinBrackets
	KindFunctionArgumentCount
	KindFunctionArgumentType
	KindOperationInvalid
	KindEnumParse
)

var kindName = map[Kind]string{
	KindGrammarUnknown:                 "unknown grammar",
	KindOperandExpected:                "operand expected",
	KindOperandUnexpected:              "unexpected operand",
	KindBracketUnmatched:               "unmatched bracket",
	KindListDelimiterNotWithinBrackets: "list delimiter outside brackets",
	KindFunctionArgumentCount:          "wrong argument count",
	KindFunctionArgumentType:           "wrong argument type",
	KindOperationInvalid:               "invalid operation",
	KindEnumParse:                      "invalid enum value",
}

// String returns a short description of the kind.
func (k Kind) String() string {
	if s, ok := kindName[k]; ok {
		return s
	}

	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Sentinel errors, one per [Kind], for use with [errors.Is].
var (
	ErrGrammarUnknown                 = &Error{Kind: KindGrammarUnknown}
	ErrOperandExpected                = &Error{Kind: KindOperandExpected}
	ErrOperandUnexpected              = &Error{Kind: KindOperandUnexpected}
	ErrBracketUnmatched               = &Error{Kind: KindBracketUnmatched}
	ErrListDelimiterNotWithinBrackets = &Error{Kind: KindListDelimiterNotWithinBrackets}
	ErrFunctionArgumentCount          = &Error{Kind: KindFunctionArgumentCount}
	ErrFunctionArgumentType           = &Error{Kind: KindFunctionArgumentType}
	ErrOperationInvalid               = &Error{Kind: KindOperationInvalid}
	ErrEnumParse                      = &Error{Kind: KindEnumParse}
)

// Error is a parse failure pinned to a source span.
type Error struct {
	Kind Kind
	Span span.Span
	Msg  string
	Err  error // cause, if any
}

// New returns an Error of kind k at sp with a formatted message.
func New(k Kind, sp span.Span, format string, args ...any) *Error {
	return &Error{Kind: k, Span: sp, Msg: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error of kind k at sp caused by err.
func Wrap(k Kind, sp span.Span, err error) *Error {
	return &Error{Kind: k, Span: sp, Err: err}
}

// Error implements the error interface.
//
// The message has the form "<kind> at <position>: <msg>: <cause>", with
// empty parts omitted.
func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString(e.Kind.String())

	if !e.Span.IsZero() {
		sb.WriteString(" at ")
		sb.WriteString(e.Span.String())
	}

	if e.Msg != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Msg)
	}

	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}

	return sb.String()
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
// Sentinels carry no span; a located target only matches itself.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Span.IsZero() && t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// LogValue implements slog.LogValuer.
func (e *Error) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("kind", e.Kind.String())}

	if !e.Span.IsZero() {
		attrs = append(attrs,
			slog.String("position", e.Span.String()),
			slog.Int("offset", e.Span.Start()),
			slog.Int("length", e.Span.Len()),
		)
	}

	if e.Msg != "" {
		attrs = append(attrs, slog.String("error", e.Msg))
	}

	if e.Err != nil {
		attrs = append(attrs, slog.String("cause", e.Err.Error()))
	}

	return slog.GroupValue(attrs...)
}

// Snippet renders the offending source line with a caret marker under the
// span, prefixed by its line number:
//
//	  1 | 1 + 2 * 3
//	    |       ^
//
// Spans covering several characters are underlined with a run of carets.
// It returns the empty string for errors without a span.
func (e *Error) Snippet() string {
	if e.Span.IsZero() {
		return ""
	}

	src := e.Span.Source()
	line, col := src.LineCol(e.Span.Start())
	text := src.Line(line)

	num := strconv.Itoa(line)
	pad := strings.Repeat(" ", len(num))

	width := 1
	if endLine, endCol := src.LineCol(e.Span.End()); endLine == line {
		width = max(1, endCol-col)
	}

	var sb strings.Builder

	sb.WriteString("  " + num + " | " + text + "\n")
	sb.WriteString("  " + pad + " | ")
	sb.WriteString(strings.Repeat(" ", col-1))
	sb.WriteString(strings.Repeat("^", width))
	sb.WriteString("\n")

	return sb.String()
}

// KindOf returns the kind of the first [*Error] in err's chain, or zero.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return 0
}
