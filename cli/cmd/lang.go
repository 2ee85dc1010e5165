package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"os"
	"regexp/syntax"
	"slices"
	"strings"
	"unicode"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/prex/cli/cmd/repl"
	"github.com/ardnew/prex/coerce"
	"github.com/ardnew/prex/grammar"
	"github.com/ardnew/prex/ir"
	"github.com/ardnew/prex/ir/exprlang"
	"github.com/ardnew/prex/lang"
	"github.com/ardnew/prex/lang/arith"
	"github.com/ardnew/prex/lang/filter"
	"github.com/ardnew/prex/lang/script"
	"github.com/ardnew/prex/log"
	"github.com/ardnew/prex/pkg"
)

// Backends of the eval command.
const (
	BackendNative = "native"
	BackendExpr   = "expr"
)

// Lang holds the global flags selecting and configuring the expression
// language.
type Lang struct {
	Name       string   `default:"arith" enum:"${langEnum}"  help:"Expression language (${enum})." name:"lang"   short:"l"`
	Vars       []string `help:"Bind a parameter; the value is a YAML scalar." name:"var" placeholder:"NAME=VALUE" short:"v"`
	Record     string   `help:"YAML document holding the record tested by filter expressions." placeholder:"FILE" type:"existingfile"`
	IgnoreCase bool     `help:"Match enum member names case-insensitively."`
	Cache      bool     `default:"true" help:"Cache the tokens of parsed text." negatable:""`
}

type builder func(f *Lang, g *script.Globals) *lang.Language

var languages = map[string]builder{
	"arith": func(*Lang, *script.Globals) *lang.Language {
		return arith.Language()
	},
	"filter": func(f *Lang, _ *script.Globals) *lang.Language {
		var opts []coerce.Option
		if f.IgnoreCase {
			opts = append(opts, coerce.CaseInsensitive())
		}

		return filter.Language(opts...)
	},
	"script": func(_ *Lang, g *script.Globals) *lang.Language {
		return script.Language(g)
	},
}

// Languages returns the sorted names of the registered languages.
func Languages() []string { return slices.Sorted(maps.Keys(languages)) }

// Session is a configured language together with the parameters and
// arguments bound by the command line. Script globals persist for the life of
// the session.
type Session struct {
	name    string
	lang    *lang.Language
	globals *script.Globals
	params  []*ir.Param
	args    []any
	schema  ir.Type
	record  any
}

// Session builds a session from the flags.
func (f *Lang) Session(ctx context.Context) (*Session, error) {
	build, ok := languages[f.Name]
	if !ok {
		return nil, pkg.ErrUnknownLanguage.Wrapf("%q (want one of %s)",
			f.Name, strings.Join(Languages(), ", "))
	}

	logger := log.With(slog.String("lang", f.Name))

	s := &Session{
		name:    f.Name,
		globals: new(script.Globals),
	}

	s.lang = build(f, s.globals).With(
		lang.WithName(f.Name),
		lang.WithCache(f.Cache),
		lang.WithLogger(logger),
	)

	for _, v := range f.Vars {
		if err := s.bind(v); err != nil {
			return nil, err
		}
	}

	if f.Name == "filter" {
		if err := s.load(f.Record); err != nil {
			return nil, err
		}
	}

	logger.DebugContext(ctx, "session ready",
		slog.Int("params", len(s.params)),
		slog.Bool("record", f.Record != ""),
	)

	return s, nil
}

// Name returns the language name.
func (s *Session) Name() string { return s.name }

// Language returns the session's language.
func (s *Session) Language() *lang.Language { return s.lang }

// Globals returns the script variables of the session.
func (s *Session) Globals() *script.Globals { return s.globals }

// Params returns the parameters bound with --var.
func (s *Session) Params() []*ir.Param { return slices.Clone(s.params) }

// bind adds the parameter described by a name=value assignment.
func (s *Session) bind(assign string) error {
	name, text, ok := strings.Cut(assign, "=")
	name = strings.TrimSpace(name)

	if !ok || name == "" {
		return pkg.ErrInvalidVariable.Wrapf("%q", assign)
	}

	var v any
	if err := yaml.Unmarshal([]byte(text), &v); err != nil {
		return pkg.ErrYAMLUnmarshal.Wrap(fmt.Errorf("variable %s: %w", name, err))
	}

	v = scalar(v)

	t, ok := ir.TypeOf(v)
	if !ok {
		return pkg.ErrInvalidVariable.Wrapf("%s: unsupported value %v", name, v)
	}

	if t == ir.Null {
		t = ir.Nullable(ir.String)
	}

	if i := slices.IndexFunc(s.params, func(p *ir.Param) bool { return p.Name() == name }); i >= 0 {
		s.params[i], s.args[i] = ir.NewParam(name, t), v

		return nil
	}

	s.params = append(s.params, ir.NewParam(name, t))
	s.args = append(s.args, v)

	return nil
}

// load reads the record tested by filter expressions. Without a file the
// record has no fields.
func (s *Session) load(path string) error {
	doc := map[string]any{}

	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return pkg.ErrReadInput.Wrap(err)
		}

		if err := yaml.Unmarshal(buf, &doc); err != nil {
			return pkg.ErrYAMLUnmarshal.Wrap(err)
		}
	}

	t, rec, err := recordOf("record", doc)
	if err != nil {
		return err
	}

	s.schema, s.record = t, rec

	return nil
}

// recordOf infers a record type from a decoded YAML mapping and returns it
// with the normalized record value. Null fields are nullable strings.
func recordOf(name string, doc map[string]any) (ir.Type, map[string]any, error) {
	fields := make([]ir.Field, 0, len(doc))
	value := make(map[string]any, len(doc))

	for _, key := range slices.Sorted(maps.Keys(doc)) {
		v := scalar(doc[key])

		if m, ok := v.(map[string]any); ok {
			t, rec, err := recordOf(key, m)
			if err != nil {
				return ir.Type{}, nil, err
			}

			fields = append(fields, ir.Field{Name: key, Type: t})
			value[key] = rec

			continue
		}

		t, ok := ir.TypeOf(v)
		if !ok {
			return ir.Type{}, nil, pkg.ErrYAMLUnmarshal.Wrapf(
				"field %s: unsupported value %v", key, v)
		}

		if t == ir.Null {
			t = ir.Nullable(ir.String)
		}

		fields = append(fields, ir.Field{Name: key, Type: t})
		value[key] = v
	}

	return ir.NewRecord(name, fields...), value, nil
}

// scalar narrows YAML integers to int64 where they fit.
func scalar(v any) any {
	switch n := v.(type) {
	case uint64:
		if n <= math.MaxInt64 {
			return int64(n)
		}
	case int:
		return int64(n)
	case map[string]any:
		return n
	}

	return v
}

// Parsed is a parsed expression with the parameters it may reference and the
// arguments bound to them.
type Parsed struct {
	Node   ir.Node
	Params []*ir.Param
	Args   []any

	filter *filter.Filter
	record any
}

// Parse parses text in the session's language. Filter expressions are
// checked to be predicates over the session record.
func (s *Session) Parse(ctx context.Context, text string) (*Parsed, error) {
	if s.schema.IsValid() {
		f, err := filter.Parse(ctx, s.lang, text, s.schema, s.params...)
		if err != nil {
			return nil, err
		}

		return &Parsed{
			Node:   f.Node(),
			Params: f.Params(),
			Args:   append([]any{s.record}, s.args...),
			filter: f,
			record: s.record,
		}, nil
	}

	node, err := s.lang.Parse(ctx, text, s.params...)
	if err != nil {
		return nil, err
	}

	return &Parsed{Node: node, Params: s.Params(), Args: slices.Clone(s.args)}, nil
}

// Run evaluates the tree with the given backend.
func (t *Parsed) Run(backend string) (any, error) {
	switch backend {
	case BackendExpr:
		prog, err := exprlang.Compile(t.Node, t.Params...)
		if err != nil {
			return nil, err
		}

		return prog.Run(t.Args...)

	case BackendNative, "":
		if t.filter != nil {
			return t.filter.Match(t.record, t.Args[1:]...)
		}

		prog, err := ir.Compile(t.Node, t.Params...)
		if err != nil {
			return nil, err
		}

		return prog(t.Args...)
	}

	return nil, pkg.ErrInvalidFormat.Wrapf("backend %q (want %s or %s)",
		backend, BackendNative, BackendExpr)
}

// Eval parses and runs text with the native backend, returning the result
// formatted for display.
func (s *Session) Eval(ctx context.Context, text string) (string, error) {
	p, err := s.Parse(ctx, text)
	if err != nil {
		return "", err
	}

	v, err := p.Run(BackendNative)
	if err != nil {
		return "", pkg.ErrEvaluate.Wrap(err)
	}

	return Format(v), nil
}

// Format renders a result value for display.
func Format(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", v)
	}

	return fmt.Sprint(v)
}

// Words returns the literal words of the grammar, the parameter names and
// the script globals, sorted and without duplicates. Function words end with
// their opening bracket.
func (s *Session) Words() []string {
	var words []string

	for _, d := range s.lang.Definitions() {
		if w, ok := literal(d.Pattern()); ok && strings.ContainsFunc(w, unicode.IsLetter) {
			words = append(words, w)
		}
	}

	for _, p := range s.params {
		words = append(words, p.Name())
	}

	if s.name == "script" {
		for _, name := range s.globals.Names() {
			words = append(words, "$"+name)
		}
	}

	slices.Sort(words)

	return slices.Compact(words)
}

// Signature returns the declared argument types of the function named name.
// Functions accepting any arguments report a single variadic parameter.
func (s *Session) Signature(name string) ([]string, bool) {
	for _, d := range s.lang.Definitions() {
		open, ok := d.(*grammar.BracketOpen)
		if !ok || open.Call() == nil {
			continue
		}

		if w, ok := literal(d.Pattern()); !ok || strings.TrimSuffix(w, "(") != name {
			continue
		}

		call := open.Call()
		if !call.Checked {
			return []string{"...any"}, true
		}

		types := make([]string, len(call.ArgTypes))
		for i, t := range call.ArgTypes {
			types[i] = t.String()
		}

		return types, true
	}

	return nil, false
}

// Bindings returns the parameters bound with --var followed by the script
// globals.
func (s *Session) Bindings() []repl.Binding {
	var bs []repl.Binding

	for i, p := range s.params {
		bs = append(bs, repl.Binding{Name: p.Name(), Type: p.Type().String(), Value: Format(s.args[i])})
	}

	for _, name := range s.globals.Names() {
		v, ok := s.globals.Load(name)
		if !ok {
			continue
		}

		t, _ := ir.TypeOf(v)
		bs = append(bs, repl.Binding{Name: "$" + name, Type: t.String(), Value: Format(v)})
	}

	return bs
}

// literal returns the text matched by pattern when it matches exactly one
// string. Word boundaries are ignored and case-insensitive letters are
// reported as written.
func literal(pattern string) (string, bool) {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return "", false
	}

	re = re.Simplify()

	subs := []*syntax.Regexp{re}
	if re.Op == syntax.OpConcat {
		subs = re.Sub
	}

	var sb strings.Builder

	for _, sub := range subs {
		switch sub.Op {
		case syntax.OpLiteral:
			sb.WriteString(string(sub.Rune))
		case syntax.OpWordBoundary, syntax.OpNoWordBoundary,
			syntax.OpBeginText, syntax.OpEndText, syntax.OpEmptyMatch:
		default:
			return "", false
		}
	}

	return sb.String(), sb.Len() > 0
}
