package cmd

import (
	"context"
	"encoding"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/prex/log"
	"github.com/ardnew/prex/profile"
)

// Init writes a configuration file holding the current global flag values.
type Init struct {
	Force  bool   `help:"Overwrite existing configuration file" short:"f"`
	Output string `default:"${config}" help:"Configuration file path" short:"o" type:"path"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) error {
	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return ErrWriteConfig.Wrap(fmt.Errorf("no command context"))
	}

	if _, err := os.Stat(i.Output); err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", i.Output), slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	buf, err := yaml.Marshal(document(ktx))
	if err != nil {
		return ErrWriteConfig.With(slog.String("file", i.Output)).Wrap(err)
	}

	if err := os.WriteFile(i.Output, buf, 0o600); err != nil {
		return ErrWriteConfig.With(slog.String("file", i.Output)).Wrap(err)
	}

	log.DebugContext(ctx, "initialized configuration file",
		slog.String("path", i.Output),
		slog.Int("keys", len(document(ktx))),
	)

	return nil
}

// document returns the configurable global flags of ktx and their values in
// declaration order. Unset values are omitted.
func document(ktx *kong.Context) yaml.MapSlice {
	ignore := []string{"help", "version", profile.Tag}

	var doc yaml.MapSlice

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(ignore, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		if v, ok := configValue(ktx.FlagValue(flag)); ok {
			doc = append(doc, yaml.MapItem{Key: flag.Name, Value: v})
		}
	}

	return doc
}

// configValue converts a flag value to a YAML value.
func configValue(v any) (any, bool) {
	switch v := v.(type) {
	case nil:
		return nil, false

	case encoding.TextMarshaler:
		text, err := v.MarshalText()
		if err != nil {
			return nil, false
		}

		return string(text), true

	case string:
		return v, v != ""

	case bool, int, int64, uint64, float64:
		return v, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return fmt.Sprint(v), true
	}

	if rv.Len() == 0 {
		return nil, false
	}

	items := make([]any, 0, rv.Len())

	for i := range rv.Len() {
		if item, ok := configValue(rv.Index(i).Interface()); ok {
			items = append(items, item)
		}
	}

	return items, len(items) > 0
}
