package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/prex/diag"
)

// Check parses an expression and reports the first error with the offending
// source line marked.
type Check struct {
	Expr []string `arg:"" help:"Expression text (default: read --source)" name:"expr" optional:""`

	out io.Writer
}

// Run executes the check command.
func (c *Check) Run(ctx context.Context, l *Lang) error {
	text, err := input(ctx, c.Expr)
	if err != nil {
		return err
	}

	s, err := l.Session(ctx)
	if err != nil {
		return err
	}

	w := output(c.out)

	tree, err := s.Parse(ctx, text)
	if err != nil {
		if werr := report(w, err); werr != nil {
			return werr
		}

		return ErrParse.Wrap(err).With(
			slog.String("lang", s.Name()),
			slog.String("kind", diag.KindOf(err).String()),
		)
	}

	return printf(w, "ok: %s", tree.Node.Type())
}

// report writes err to w, followed by the source snippet of a diagnostic.
// Styles render as plain text unless w is a terminal.
func report(w io.Writer, err error) error {
	r := lipgloss.NewRenderer(w)
	head := r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	gutter := r.NewStyle().Foreground(lipgloss.Color("8"))
	caret := r.NewStyle().Foreground(lipgloss.Color("1"))

	var sb strings.Builder

	sb.WriteString(head.Render("error:") + " " + err.Error() + "\n")

	var d *diag.Error
	if errors.As(err, &d) {
		lines := strings.Split(strings.TrimSuffix(d.Snippet(), "\n"), "\n")

		for i, line := range lines {
			if line == "" {
				continue
			}

			bar, rest, _ := strings.Cut(line, "| ")
			if i == len(lines)-1 {
				rest = caret.Render(rest)
			}

			sb.WriteString(gutter.Render(bar+"|") + " " + rest + "\n")
		}
	}

	_, werr := io.WriteString(w, sb.String())

	return werr
}
