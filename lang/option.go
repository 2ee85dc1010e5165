package lang

import "github.com/ardnew/prex/log"

// Option configures a [Language].
type Option func(*Language)

// WithLogger sets the logger used to trace tokenizing and parsing.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(l *Language) {
		l.logger = logger
	}
}

// WithName sets the source name reported in error positions.
func WithName(name string) Option {
	return func(l *Language) {
		l.name = name
	}
}

// WithCache enables or disables memoizing the tokens of parsed text.
// Repeated parses of the same text, as in a REPL or a hot filter, then skip
// tokenizing. Errors refer to the cached source, which has the same name and
// text as a fresh one.
func WithCache(enable bool) Option {
	return func(l *Language) {
		if !enable {
			l.cache = nil
		} else if l.cache == nil {
			l.cache = new(cache)
		}
	}
}
