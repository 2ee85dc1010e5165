// Package cli contains the command line interface for prex.
//
// # Usage
//
// Without a command, the arguments are evaluated as one expression:
//
//	prex '1 + 2 * 3'
//	prex --lang=filter --record=rec.yaml 'age >= 18 and not banned'
//	prex --lang=script 'let("x", 4) $x * $x'
//
// The tokens, tree and check commands inspect an expression instead of
// running it, init writes the current flags to the configuration file, and
// repl starts an interactive session.
//
// # Configuration
//
// Flags are read from config.yaml in the user configuration directory.
// Nested mappings name flags by joining keys with hyphens:
//
//	lang: filter
//	log:
//	  level: debug
//
// Command-line flags take precedence over the configuration file.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, Kitchen, none, ...)
//   - --log-caller: Include caller information in log output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o prex .
//
// Enable it with --pprof-mode and write profiles below --pprof-dir, which
// defaults to the pprof directory of the user cache.
package cli
