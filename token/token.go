// Package token splits source text into tokens using a language's grammar
// definitions.
//
// All definition patterns are combined into a single alternation, one
// capture group per definition, in definition order. At any position the
// earliest definition that matches wins, so callers resolve overlapping
// patterns by ordering rather than by match length.
package token

import (
	"iter"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ardnew/prex/diag"
	"github.com/ardnew/prex/grammar"
	"github.com/ardnew/prex/span"
)

// Token is a span of source text matched by a definition.
type Token struct {
	Definition grammar.Definition
	Value      string
	Span       span.Span
}

func (t Token) String() string {
	return t.Definition.Name() + "(" + t.Value + ")"
}

// Tokenizer matches source text against an ordered list of definitions.
// It is immutable and safe for concurrent use.
type Tokenizer struct {
	re    *regexp.Regexp
	defs  []grammar.Definition
	group []int // capture group index of each definition
}

// New returns a Tokenizer for defs after checking them with
// [grammar.Validate].
func New(defs ...grammar.Definition) (*Tokenizer, error) {
	if err := grammar.Validate(defs...); err != nil {
		return nil, err
	}

	var (
		sb    strings.Builder
		group = make([]int, len(defs))
		next  = 1
	)

	for i, d := range defs {
		if i > 0 {
			sb.WriteByte('|')
		}

		sb.WriteString("(" + d.Pattern() + ")")

		// Validate already compiled each pattern.
		inner := regexp.MustCompile(d.Pattern()).NumSubexp()
		group[i] = next
		next += 1 + inner
	}

	re, err := regexp.Compile(sb.String())
	if err != nil {
		return nil, err
	}

	return &Tokenizer{re: re, defs: defs, group: group}, nil
}

// Definitions returns the definitions in match order.
func (t *Tokenizer) Definitions() []grammar.Definition { return t.defs }

// All returns the tokens of src in order, skipping ignorable ones.
//
// The sequence is lazy and stops after the first error: text between two
// matches, or at the end of src, that no definition matches is reported as
// a [diag.KindGrammarUnknown] error spanning exactly the unmatched text.
func (t *Tokenizer) All(src *span.Source) iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		text := src.Text()
		pos := 0

		for pos < len(text) {
			loc := t.re.FindStringSubmatchIndex(text[pos:])

			if loc == nil || loc[0] > 0 {
				end := len(text)
				if loc != nil {
					end = pos + loc[0]
				}

				yield(Token{}, diag.New(diag.KindGrammarUnknown,
					src.Span(pos, end), "unrecognized text %q", text[pos:end]))

				return
			}

			if loc[1] == 0 {
				// A pattern matching empty text cannot advance.
				_, w := utf8.DecodeRuneInString(text[pos:])
				yield(Token{}, diag.New(diag.KindGrammarUnknown,
					src.Span(pos, pos+w), "no progress at %q", text[pos:pos+w]))

				return
			}

			d := t.matched(loc)
			start, end := pos, pos+loc[1]
			pos = end

			if d.Ignore() {
				continue
			}

			tok := Token{Definition: d, Value: text[start:end], Span: src.Span(start, end)}
			if !yield(tok, nil) {
				return
			}
		}
	}
}

// matched returns the definition whose capture group participated in the
// match described by loc.
func (t *Tokenizer) matched(loc []int) grammar.Definition {
	for i, g := range t.group {
		if loc[2*g] >= 0 {
			return t.defs[i]
		}
	}

	// unreachable: every alternative is wrapped in a group
	return t.defs[len(t.defs)-1]
}

// Collect tokenizes src completely.
func (t *Tokenizer) Collect(src *span.Source) ([]Token, error) {
	var out []Token

	for tok, err := range t.All(src) {
		if err != nil {
			return out, err
		}

		out = append(out, tok)
	}

	return out, nil
}
