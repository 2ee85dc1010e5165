package cmd

import (
	"context"
	"io"
	"log/slog"

	"github.com/ardnew/prex/grammar"
)

// Tokens prints the tokens of an expression.
type Tokens struct {
	Expr   []string `arg:"" help:"Expression text (default: read --source)" name:"expr" optional:""`
	Format string   `default:"text" enum:"text,yaml,json" help:"Output format (${enum})." short:"F"`

	out io.Writer
}

type tokenInfo struct {
	Kind   string `json:"kind"   yaml:"kind"`
	Name   string `json:"name"   yaml:"name"`
	Text   string `json:"text"   yaml:"text"`
	At     string `json:"at"     yaml:"at"`
	Offset int    `json:"offset" yaml:"offset"`
}

// Run executes the tokens command.
func (c *Tokens) Run(ctx context.Context, l *Lang) error {
	text, err := input(ctx, c.Expr)
	if err != nil {
		return err
	}

	s, err := l.Session(ctx)
	if err != nil {
		return err
	}

	toks, err := s.Language().Tokenize(ctx, text)
	if err != nil {
		return ErrParse.Wrap(err).With(slog.String("lang", s.Name()))
	}

	infos := make([]tokenInfo, len(toks))
	for i, tok := range toks {
		infos[i] = tokenInfo{
			Kind:   grammar.Kind(tok.Definition),
			Name:   tok.Definition.Name(),
			Text:   tok.Value,
			At:     tok.Span.String(),
			Offset: tok.Span.Start(),
		}
	}

	w := output(c.out)

	if c.Format != FormatText {
		return encode(w, c.Format, infos)
	}

	for _, info := range infos {
		if err := printf(w, "%-8s %-10s %-14s %q", info.At, info.Kind, info.Name, info.Text); err != nil {
			return err
		}
	}

	return nil
}
