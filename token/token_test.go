package token

import (
	"errors"
	"strings"
	"testing"

	"github.com/ardnew/prex/diag"
	"github.com/ardnew/prex/grammar"
	"github.com/ardnew/prex/span"
)

func names(toks []Token) string {
	parts := make([]string, len(toks))
	for i, tok := range toks {
		parts[i] = tok.Definition.Name()
	}

	return strings.Join(parts, " ")
}

func TestTokenizer_DefinitionOrder(t *testing.T) {
	ab := grammar.NewToken("AB", `AB`)
	a := grammar.NewToken("A", `A`)
	b := grammar.NewToken("B", `B`)

	tests := []struct {
		name string
		defs []grammar.Definition
		want string
	}{
		{"pair first", []grammar.Definition{ab, a, b}, "A AB B"},
		{"pair last", []grammar.Definition{a, b, ab}, "A A B B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tz, err := New(tt.defs...)
			if err != nil {
				t.Fatal(err)
			}

			toks, err := tz.Collect(span.NewSource("", "AABB"))
			if err != nil {
				t.Fatal(err)
			}

			if got := names(toks); got != tt.want {
				t.Errorf("tokens = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTokenizer_Gap(t *testing.T) {
	tz, err := New(
		grammar.NewToken("PLUS", `\+`),
		grammar.NewToken("MINUS", `-`),
		grammar.NewToken("NUMBER", `\d+`),
		grammar.NewIgnore("WHITESPACE", `\s+`),
	)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		text       string
		start, end int
	}{
		{"1 + 2 * 3", 6, 7},
		{"1 + 2 ?", 6, 7},
		{"xyz + 1", 0, 3},
	}

	for _, tt := range tests {
		toks, err := tz.Collect(span.NewSource("", tt.text))

		var de *diag.Error
		if !errors.As(err, &de) || de.Kind != diag.KindGrammarUnknown {
			t.Fatalf("%q: error = %v, want unknown grammar", tt.text, err)
		}

		if de.Span.Start() != tt.start || de.Span.End() != tt.end {
			t.Errorf("%q: span = [%d,%d), want [%d,%d)",
				tt.text, de.Span.Start(), de.Span.End(), tt.start, tt.end)
		}

		for _, tok := range toks {
			if tok.Span.End() > tt.start {
				t.Errorf("%q: token %s yielded past the gap", tt.text, tok)
			}
		}
	}
}

func TestTokenizer_Ignore(t *testing.T) {
	tz, err := New(
		grammar.NewIgnore("COMMENT", `#[^\n]*`),
		grammar.NewToken("WORD", `\w+`),
		grammar.NewIgnore("WS", `\s+`),
	)
	if err != nil {
		t.Fatal(err)
	}

	toks, err := tz.Collect(span.NewSource("", "alpha # skip me\n beta"))
	if err != nil {
		t.Fatal(err)
	}

	if len(toks) != 2 || toks[0].Value != "alpha" || toks[1].Value != "beta" {
		t.Fatalf("tokens = %v", toks)
	}

	if got := toks[1].Span; got.Start() != 17 || got.Text() != "beta" {
		t.Errorf("beta span = [%d,%d)", got.Start(), got.End())
	}
}

func TestTokenizer_InnerGroups(t *testing.T) {
	str := grammar.NewToken("STRING", `'((?:[^']|'')*)'`)
	word := grammar.NewToken("WORD", `(\w)(\w*)`)

	tz, err := New(str, word, grammar.NewIgnore("WS", ` +`))
	if err != nil {
		t.Fatal(err)
	}

	toks, err := tz.Collect(span.NewSource("", `'it''s' ok`))
	if err != nil {
		t.Fatal(err)
	}

	if got := names(toks); got != "STRING WORD" {
		t.Errorf("tokens = %q", got)
	}
}

func TestTokenizer_Lazy(t *testing.T) {
	tz, err := New(grammar.NewToken("X", `x`), grammar.NewIgnore("WS", ` `))
	if err != nil {
		t.Fatal(err)
	}

	n := 0

	for _, err := range tz.All(span.NewSource("", "x x x ?")) {
		if err != nil {
			t.Fatal("sequence should stop before reaching the gap")
		}

		n++
		if n == 2 {
			break
		}
	}
}

func TestNew_ConfigError(t *testing.T) {
	_, err := New(grammar.NewToken("A", "a"), grammar.NewToken("A", "b"))
	if !errors.Is(err, grammar.ErrDuplicateName) {
		t.Errorf("New() error = %v, want ErrDuplicateName", err)
	}
}

func FuzzTokenizer(f *testing.F) {
	tz, err := New(
		grammar.NewToken("NUMBER", `\d+(?:\.\d+)?`),
		grammar.NewToken("OP", `[-+*/^%]`),
		grammar.NewToken("PAREN", `[()]`),
		grammar.NewIgnore("WS", `\s+`),
	)
	if err != nil {
		f.Fatal(err)
	}

	for _, seed := range []string{"1 + 2", "(3.5 * 4) ^ 2", "", "1 ? 2", "é"} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, text string) {
		src := span.NewSource("", text)
		end := 0

		for tok, err := range tz.All(src) {
			if err != nil {
				if !errors.Is(err, diag.ErrGrammarUnknown) {
					t.Fatalf("unexpected error %v", err)
				}

				return
			}

			if tok.Span.Start() < end || tok.Span.Len() == 0 {
				t.Fatalf("token %s out of order", tok)
			}

			end = tok.Span.End()
		}
	})
}
