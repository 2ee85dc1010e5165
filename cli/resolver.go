package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
)

// resolve is a [kong.ConfigurationLoader] for YAML configuration files.
//
// Nested mappings are flattened by joining keys with hyphens, and keys may
// use underscores in place of hyphens, so the following documents set the
// same flags:
//
//	log:
//	  level: debug
//	  pretty: false
//	lang: filter
//
//	log-level: debug
//	log_pretty: false
//	lang: filter
//
// Command-line flags override configuration values. An empty document
// configures nothing.
func resolve(r io.Reader) (kong.Resolver, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := yaml.Unmarshal(buf, &doc); err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}

	c := config{}
	c.flatten("", doc)

	return c, nil
}

// config implements [kong.Resolver] over flattened flag names.
type config map[string]any

func (c config) flatten(prefix string, doc map[string]any) {
	for key, value := range doc {
		name := strings.ReplaceAll(prefix+key, "_", "-")

		if m, ok := value.(map[string]any); ok {
			c.flatten(name+"-", m)

			continue
		}

		c[name] = flagValue(value)
	}
}

// flagValue converts a YAML value to a form kong parses: numbers become
// strings and sequences become lists of converted items.
func flagValue(v any) any {
	switch v := v.(type) {
	case int, int64, uint64:
		return fmt.Sprint(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = flagValue(item)
		}

		return items
	}

	return v
}

// Validate implements [kong.Resolver].
func (c config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if value, ok := c[flag.Name]; ok {
		return value, nil
	}

	return nil, nil
}
