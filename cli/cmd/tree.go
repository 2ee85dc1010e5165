package cmd

import (
	"context"
	"io"
	"log/slog"

	"github.com/ardnew/prex/ir"
)

// Tree prints the typed tree of an expression.
type Tree struct {
	Expr   []string `arg:"" help:"Expression text (default: read --source)" name:"expr" optional:""`
	Format string   `default:"text" enum:"text,yaml,json" help:"Output format (${enum})." short:"F"`
	Fold   bool     `help:"Evaluate constant subtrees before printing."`

	out io.Writer
}

// Run executes the tree command.
func (c *Tree) Run(ctx context.Context, l *Lang) error {
	text, err := input(ctx, c.Expr)
	if err != nil {
		return err
	}

	s, err := l.Session(ctx)
	if err != nil {
		return err
	}

	tree, err := s.Parse(ctx, text)
	if err != nil {
		return ErrParse.Wrap(err).With(slog.String("lang", s.Name()))
	}

	node := tree.Node

	if c.Fold {
		if node, err = ir.Fold(node); err != nil {
			return ErrRun.Wrap(err).With(slog.String("lang", s.Name()))
		}
	}

	w := output(c.out)

	if c.Format == FormatText {
		return printf(w, "%s : %s", ir.Format(node), node.Type())
	}

	return encode(w, c.Format, ir.ToMap(node))
}
