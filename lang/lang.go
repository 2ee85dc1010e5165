package lang

import (
	"context"
	"log/slog"

	"github.com/ardnew/prex/grammar"
	"github.com/ardnew/prex/ir"
	"github.com/ardnew/prex/log"
	"github.com/ardnew/prex/parse"
	"github.com/ardnew/prex/span"
	"github.com/ardnew/prex/token"
)

// Language is an ordered grammar ready to parse text into typed trees.
// It is immutable and safe for concurrent use.
type Language struct {
	name   string
	tz     *token.Tokenizer
	logger log.Logger
	cache  *cache
}

// Define returns a Language for defs, in match order. It fails with a
// configuration error from package grammar if the definitions are invalid.
func Define(defs ...grammar.Definition) (*Language, error) {
	tz, err := token.New(defs...)
	if err != nil {
		return nil, err
	}

	return &Language{tz: tz}, nil
}

// MustDefine is like [Define] but panics on error. It is intended for
// package-level language variables.
func MustDefine(defs ...grammar.Definition) *Language {
	l, err := Define(defs...)
	if err != nil {
		panic(err)
	}

	return l
}

// With returns a copy of l with opts applied.
func (l *Language) With(opts ...Option) *Language {
	c := *l
	for _, opt := range opts {
		opt(&c)
	}

	return &c
}

// Name returns the source name given to parsed text.
func (l *Language) Name() string { return l.name }

// Definitions returns the grammar in match order.
func (l *Language) Definitions() []grammar.Definition { return l.tz.Definitions() }

// Tokenize returns the tokens of text, skipping ignorable ones.
func (l *Language) Tokenize(ctx context.Context, text string) ([]token.Token, error) {
	_, toks, err := l.tokens(ctx, text)

	l.logger.TraceContext(ctx, "tokenize",
		slog.Int("source_bytes", len(text)),
		slog.Int("token_count", len(toks)),
		slog.Bool("ok", err == nil),
	)

	return toks, err
}

// Parse parses text into a typed tree. params are the placeholders operand
// builders may resolve identifiers to.
func (l *Language) Parse(
	ctx context.Context,
	text string,
	params ...*ir.Param,
) (ir.Node, error) {
	src, toks, err := l.tokens(ctx, text)
	if err != nil {
		l.logger.DebugContext(ctx, "tokenize failed", slog.Any("error", err))

		return nil, err
	}

	return l.parse(ctx, src, toks, params)
}

// ParseSource is like [Language.Parse] for an existing source, so that the
// spans of returned errors refer to src. It never uses the token cache.
func (l *Language) ParseSource(
	ctx context.Context,
	src *span.Source,
	params ...*ir.Param,
) (ir.Node, error) {
	toks, err := l.collect(ctx, src)
	if err != nil {
		l.logger.DebugContext(ctx, "tokenize failed", slog.Any("error", err))

		return nil, err
	}

	return l.parse(ctx, src, toks, params)
}

func (l *Language) parse(
	ctx context.Context,
	src *span.Source,
	toks []token.Token,
	params []*ir.Param,
) (node ir.Node, err error) {
	defer func() {
		if err != nil {
			l.logger.DebugContext(ctx, "parse failed", slog.Any("error", err))
		}
	}()

	l.logger.TraceContext(ctx, "parse",
		slog.String("source", src.Name()),
		slog.Int("source_bytes", src.Len()),
		slog.Int("token_count", len(toks)),
	)

	s := parse.NewState(src, params...)

	for _, tok := range toks {
		if err := ctx.Err(); err != nil {
			return nil, context.Cause(ctx)
		}

		if err := s.Apply(tok); err != nil {
			return nil, err
		}

		operands, pending := s.Depth()

		l.logger.TraceContext(ctx, "apply",
			slog.String("kind", grammar.Kind(tok.Definition)),
			slog.String("token", tok.String()),
			slog.String("at", tok.Span.String()),
			slog.Int("operands", operands),
			slog.Int("pending", pending),
		)
	}

	node, err = s.Fold()
	if err != nil {
		return nil, err
	}

	l.logger.TraceContext(ctx, "parse complete",
		slog.String("type", node.Type().String()),
		slog.String("tree", ir.Format(node)),
	)

	return node, nil
}

// tokens returns a source for text and its tokens, through the cache if one
// is enabled.
func (l *Language) tokens(ctx context.Context, text string) (*span.Source, []token.Token, error) {
	if l.cache != nil {
		return l.cache.load(ctx, l, text)
	}

	src := span.NewSource(l.name, text)
	toks, err := l.collect(ctx, src)

	return src, toks, err
}

func (l *Language) collect(ctx context.Context, src *span.Source) ([]token.Token, error) {
	var out []token.Token

	for tok, err := range l.tz.All(src) {
		if err != nil {
			return nil, err
		}

		if err := ctx.Err(); err != nil {
			return nil, context.Cause(ctx)
		}

		out = append(out, tok)
	}

	return out, nil
}
