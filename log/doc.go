// Package log provides a concurrency-safe simplified logging interface
// based on [log/slog].
//
// A [Logger] is configured once with functional options and then shared:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelTrace),
//		log.WithFormat(log.FormatText),
//		log.WithTimeLayout("none"))
//	logger.Info("parsed", slog.String("tree", "(+ 1 2)"))
//
// [Logger.Wrap] derives a logger with some options changed and [Logger.With]
// one that adds attributes to every message. Each level has a context-aware
// method and a variant that uses [DefaultContextProvider].
//
// # Levels
//
// [LevelTrace] sits below [LevelDebug] and is used for per-token parser
// output. [Level] and [Format] implement [encoding.TextUnmarshaler] so they
// can be decoded from flags and configuration files directly.
//
// # Output
//
// [FormatJSON] (the default) and [FormatText] select the slog handler. With
// [WithPretty] both are written with terminal styling, which is omitted when
// the output is not a terminal. [WithTimeLayout] accepts the names of the
// layouts in package time, a custom layout, or "none" to drop timestamps.
//
// # Default logger
//
// The package-level functions write to a default logger on standard error,
// adjusted with [Config] or replaced with [SetDefault].
package log
