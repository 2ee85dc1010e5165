package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/prex/pkg"
)

// Output formats of the tokens and tree commands.
const (
	FormatText = "text"
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// encode writes v to w as YAML or JSON.
func encode(w io.Writer, format string, v any) error {
	var (
		buf []byte
		err error
	)

	switch format {
	case FormatYAML:
		if buf, err = yaml.Marshal(v); err != nil {
			return pkg.ErrYAMLMarshal.Wrap(err)
		}

	case FormatJSON:
		if buf, err = json.MarshalIndent(v, "", "  "); err != nil {
			return pkg.ErrJSONMarshal.Wrap(err)
		}

		buf = append(buf, '\n')

	default:
		return pkg.ErrInvalidFormat.Wrapf("%q (want %s, %s or %s)",
			format, FormatText, FormatYAML, FormatJSON)
	}

	_, err = w.Write(buf)

	return err
}

// printf writes a formatted line to w.
func printf(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format+"\n", args...)

	return err
}
