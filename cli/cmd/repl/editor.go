package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/ardnew/prex/log"
)

const defaultEditor = "vi"

// editCommand implements [tea.ExecCommand]. It opens the user's editor on
// text and evaluates the result, offering to re-edit while evaluation fails.
// Multi-line scripts are entered this way.
type editCommand struct {
	session Session
	ctxFunc func() context.Context
	logger  log.Logger
	text    string

	// Set by Run when the edited text evaluates.
	input, result string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func (c *editCommand) SetStdin(r io.Reader)  { c.stdin = r }
func (c *editCommand) SetStdout(w io.Writer) { c.stdout = w }
func (c *editCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit-evaluate loop. Clearing the file cancels the edit
// and leaves input empty. Declining to re-edit returns [ErrEditDeclined].
func (c *editCommand) Run() error {
	ctx := c.ctxFunc()

	f, err := os.CreateTemp("", "prex-repl-*."+c.session.Name())
	if err != nil {
		return err
	}

	path := f.Name()
	defer os.Remove(path)

	if err := f.Close(); err != nil {
		return err
	}

	text := c.text
	answers := bufio.NewScanner(c.stdin)

	for {
		if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
			return err
		}

		if err := runEditor(ctx, c.stdin, c.stdout, c.stderr, path); err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		text = strings.TrimSpace(string(data))
		if text == "" {
			return nil
		}

		result, evalErr := c.session.Eval(ctx, text)

		c.logger.TraceContext(ctx, "editor eval attempt",
			slog.Int("content_length", len(text)),
			slog.Bool("success", evalErr == nil),
		)

		if evalErr == nil {
			c.input, c.result = text, result

			return nil
		}

		fmt.Fprintf(c.stderr, "\nerror: %s\n", evalErr)
		fmt.Fprint(c.stdout, "Re-edit? [Y/n] ")

		if !answers.Scan() {
			return ErrEditDeclined
		}

		switch strings.ToLower(strings.TrimSpace(answers.Text())) {
		case "n", "no":
			return ErrEditDeclined
		}
	}
}

// runEditor runs $EDITOR, or vi, on path.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout, stderr io.Writer,
	path string,
) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = defaultEditor
	}

	cmd := exec.CommandContext(ctx, editor, path)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = stdin, stdout, stderr

	return cmd.Run()
}
