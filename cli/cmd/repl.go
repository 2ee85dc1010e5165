package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/prex/cli/cmd/repl"
	"github.com/ardnew/prex/log"
)

// Repl starts an interactive session in the selected language.
type Repl struct {
	Cache string `default:"${cache}" help:"Directory holding the REPL history" type:"path"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context, l *Lang) error {
	s, err := l.Session(ctx)
	if err != nil {
		return err
	}

	return repl.Run(ctx, s, r.Cache, log.With(slog.String("lang", s.Name())))
}
