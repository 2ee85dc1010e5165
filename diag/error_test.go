package diag

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/ardnew/prex/span"
)

func TestError_Is(t *testing.T) {
	src := span.NewSource("", "1 + * 3")
	err := New(KindOperandExpected, src.Span(3, 3), "missing operand")

	if !errors.Is(err, ErrOperandExpected) {
		t.Error("error should match its kind sentinel")
	}

	if errors.Is(err, ErrOperandUnexpected) {
		t.Error("error should not match another kind")
	}

	wrapped := fmt.Errorf("outer: %w", err)
	if !errors.Is(wrapped, ErrOperandExpected) {
		t.Error("wrapped error should match its kind sentinel")
	}

	if got := KindOf(wrapped); got != KindOperandExpected {
		t.Errorf("KindOf = %v, want %v", got, KindOperandExpected)
	}

	other := New(KindOperandExpected, src.Span(0, 1), "x")
	if errors.Is(err, other) {
		t.Error("located errors should only match themselves")
	}
}

func TestError_Message(t *testing.T) {
	src := span.NewSource("calc", "1 + 2 * 3")
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "message",
			err:  New(KindGrammarUnknown, src.Span(6, 7), "unrecognized %q", "*"),
			want: `unknown grammar at calc:1:7: unrecognized "*"`,
		},
		{
			name: "cause",
			err:  Wrap(KindOperationInvalid, src.Span(0, 5), cause),
			want: "invalid operation at calc:1:1: boom",
		},
		{
			name: "sentinel",
			err:  ErrBracketUnmatched,
			want: "unmatched bracket",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}

	if !errors.Is(Wrap(KindOperationInvalid, src.Span(0, 1), cause), cause) {
		t.Error("cause should be reachable through Unwrap")
	}
}

func TestError_Snippet(t *testing.T) {
	src := span.NewSource("", "x = 1\n1 + 2 * 3")
	err := New(KindGrammarUnknown, src.Span(12, 13), "")

	want := "  2 | 1 + 2 * 3\n" +
		"    |       ^\n"

	if got := err.Snippet(); got != want {
		t.Errorf("Snippet() =\n%s\nwant\n%s", got, want)
	}

	wide := New(KindOperationInvalid, src.Span(6, 11), "")
	if got := wide.Snippet(); !strings.Contains(got, "^^^^^") {
		t.Errorf("wide Snippet() = %q, want five carets", got)
	}

	if got := ErrOperandExpected.Snippet(); got != "" {
		t.Errorf("sentinel Snippet() = %q, want empty", got)
	}
}

func TestError_LogValue(t *testing.T) {
	src := span.NewSource("", "(1")
	err := New(KindBracketUnmatched, src.Span(0, 1), "no closing bracket")

	v := err.LogValue()
	if v.Kind() != slog.KindGroup {
		t.Fatalf("LogValue kind = %v, want group", v.Kind())
	}

	attrs := map[string]string{}
	for _, a := range v.Group() {
		attrs[a.Key] = a.Value.String()
	}

	if attrs["kind"] != "unmatched bracket" {
		t.Errorf("kind attr = %q", attrs["kind"])
	}

	if attrs["offset"] != "0" || attrs["length"] != "1" {
		t.Errorf("offset/length attrs = %q/%q", attrs["offset"], attrs["length"])
	}
}
