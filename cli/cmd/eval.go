package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ardnew/prex/ir"
	"github.com/ardnew/prex/log"
)

// Eval evaluates an expression and prints its result.
type Eval struct {
	Expr    []string `arg:"" help:"Expression text (default: read --source)" name:"expr" optional:""`
	Backend string   `default:"native" enum:"native,expr" help:"Evaluation backend (${enum})."`
	Tree    bool     `help:"Print the typed tree before the result."`

	out io.Writer
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context, l *Lang) error {
	text, err := input(ctx, e.Expr)
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

	w := output(e.out)

	if e.Tree {
		fmt.Fprintln(w, ir.Format(tree.Node))
	}

	v, err := tree.Run(e.Backend)
	if err != nil {
		return ErrRun.Wrap(err).With(
			slog.String("lang", s.Name()),
			slog.String("backend", e.Backend),
		)
	}

	log.DebugContext(ctx, "evaluated",
		slog.String("lang", s.Name()),
		slog.String("backend", e.Backend),
		slog.String("type", tree.Node.Type().String()),
	)

	if str, ok := v.(string); ok {
		_, err = fmt.Fprintln(w, str)
	} else {
		_, err = fmt.Fprintln(w, Format(v))
	}

	return err
}
