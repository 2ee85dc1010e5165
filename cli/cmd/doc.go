// Package cmd implements the prex subcommands.
//
// Every command operates on one expression language chosen with the global
// --lang flag. The expression is taken from the command's arguments or, when
// none are given, from the files named with --source. Parameters are bound
// with --var name=value, where value is a YAML scalar, and the filter
// language tests the record read from the YAML file named with --record.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the YAML configuration file.
	ConfigIdentifier = "config"
)
