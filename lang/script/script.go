// Package script defines a small scripting language with global variables
// that persist across parses.
//
//	let("root", "/opt/tool") let("n", len($root)) $root .. "/bin:" .. str($n * 2)
//
// A script is any number of let calls followed by one expression. let stores
// the value of a local expression in the [Globals] bound to the language when
// the call is parsed; $name reads a global when the compiled program runs.
// Bare identifiers name parameters. Literals are integers, decimals,
// "double-quoted strings" with Go escapes, true, false and nil. A # starts a
// comment that runs to the end of the line.
//
// Operators, tightest first:
//
//	!                      logical negation
//	* / %                  product, quotient, remainder
//	+ -                    sum, difference
//	..                     concatenation (operands are converted to strings)
//	== != < <= > >=        comparison
//	&&                     conjunction
//	||                     disjunction
//
// Functions are let, str, len, upper, lower, env, pathcat, pathprefix and
// pathprefixdir.
package script

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/ardnew/mung"

	"github.com/ardnew/prex/coerce"
	"github.com/ardnew/prex/diag"
	"github.com/ardnew/prex/grammar"
	"github.com/ardnew/prex/ir"
	"github.com/ardnew/prex/lang"
	"github.com/ardnew/prex/span"
)

var (
	// ErrUndefined is returned for an identifier or global naming nothing.
	ErrUndefined = errors.New("undefined identifier")

	// ErrUnsupported is returned when storing a value with no runtime type.
	ErrUnsupported = errors.New("unsupported value")
)

// Globals holds the variables of a script language.
// The zero value is empty and ready for use; it is safe for concurrent use.
type Globals struct {
	vars sync.Map
}

// Load returns the value of the global name.
func (g *Globals) Load(name string) (any, bool) {
	return g.vars.Load(name)
}

// Store sets the global name to v, which must be a primitive value, nil or
// an [ir.EnumValue]. Go int and uint values are stored as int64 and uint64.
func (g *Globals) Store(name string, v any) error {
	t, ok := ir.TypeOf(v)
	if !ok {
		return fmt.Errorf("%w: %s = %T", ErrUnsupported, name, v)
	}

	if t != ir.Null {
		var err error
		if v, err = ir.Normalize(v, t); err != nil {
			return err
		}
	}

	g.vars.Store(name, v)

	return nil
}

// Delete removes the global name.
func (g *Globals) Delete(name string) { g.vars.Delete(name) }

// Names returns the names of all globals in sorted order.
func (g *Globals) Names() []string {
	var names []string

	g.vars.Range(func(k, _ any) bool {
		names = append(names, k.(string))

		return true
	})

	slices.Sort(names)

	return names
}

const ident = `[A-Za-z_][A-Za-z0-9_]*`

// Definitions returns the grammar of the language in match order. let and
// $name operate on g.
func Definitions(g *Globals) []grammar.Definition {
	comma := grammar.NewListDelimiter("COMMA", `,`)
	paren := grammar.NewBracket("LPAREN", `\(`)

	str := ir.String

	fns := []*grammar.BracketOpen{
		grammar.NewVariadic("FN_LET", `let\(`, g.let),
		grammar.NewVariadic("FN_STR", `str\(`, toString),
		grammar.NewFunction("FN_LEN", `len\(`, length, ir.Nullable(str)),
		grammar.NewFunction("FN_UPPER", `upper\(`, transform("upper", strings.ToUpper), str),
		grammar.NewFunction("FN_LOWER", `lower\(`, transform("lower", strings.ToLower), str),
		grammar.NewFunction("FN_ENV", `env\(`, transform("env", os.Getenv), str),
		grammar.NewVariadic("FN_PATHCAT", `pathcat\(`, stringFunc("pathcat", 1, pathcat)),
		grammar.NewVariadic("FN_PATHPREFIXDIR", `pathprefixdir\(`, stringFunc("pathprefixdir", 1, prefixDir)),
		grammar.NewVariadic("FN_PATHPREFIX", `pathprefix\(`, stringFunc("pathprefix", 1, prefix)),
	}

	defs := []grammar.Definition{
		grammar.NewIgnore("WS", `\s+`),
		grammar.NewIgnore("COMMENT", `#[^\n]*`),
	}
	for _, fn := range fns {
		defs = append(defs, fn)
	}

	return append(defs,
		grammar.NewOperand("STRING", `"(?:[^"\\\n]|\\.)*"`, stringLit),
		grammar.NewOperand("NIL", `nil\b`, func(string, []*ir.Param) (ir.Node, error) {
			return ir.NullOf(ir.Null), nil
		}),
		grammar.NewOperand("BOOL", `(?:true|false)\b`, func(text string, _ []*ir.Param) (ir.Node, error) {
			return ir.Constant(text == "true")
		}),
		grammar.NewOperand("FLOAT", `[0-9]+\.[0-9]+`, float),
		grammar.NewOperand("INT", `[0-9]+`, integer),
		grammar.NewOperand("GLOBAL", `\$`+ident, g.global),
		grammar.NewOperand("IDENT", ident, identifier),
		grammar.NewBinary("NE", `!=`, 5, compare(ir.OpNe)),
		grammar.NewPrefix("NOT", `!`, 1, not),
		grammar.NewBinary("MUL", `\*`, 2, arith(ir.OpMul)),
		grammar.NewBinary("DIV", `/`, 2, arith(ir.OpDiv)),
		grammar.NewBinary("MOD", `%`, 2, arith(ir.OpMod)),
		grammar.NewBinary("ADD", `\+`, 3, arith(ir.OpAdd)),
		grammar.NewBinary("SUB", `-`, 3, arith(ir.OpSub)),
		grammar.NewBinary("CONCAT", `\.\.`, 4, concat),
		grammar.NewBinary("EQ", `==`, 5, compare(ir.OpEq)),
		grammar.NewBinary("LE", `<=`, 5, compare(ir.OpLe)),
		grammar.NewBinary("GE", `>=`, 5, compare(ir.OpGe)),
		grammar.NewBinary("LT", `<`, 5, compare(ir.OpLt)),
		grammar.NewBinary("GT", `>`, 5, compare(ir.OpGt)),
		grammar.NewBinary("AND", `&&`, 6, logical(ir.OpAnd)),
		grammar.NewBinary("OR", `\|\|`, 7, logical(ir.OpOr)),
		paren,
		comma,
		grammar.NewBracketClose("RPAREN", `\)`, comma, append(fns, paren)...),
	)
}

// Language returns the script language operating on g.
func Language(g *Globals, opts ...lang.Option) *lang.Language {
	return lang.MustDefine(Definitions(g)...).With(opts...)
}

// Eval parses text with l, compiles it with params and runs it with args.
func Eval(
	ctx context.Context,
	l *lang.Language,
	text string,
	params []*ir.Param,
	args ...any,
) (any, error) {
	node, err := l.Parse(ctx, text, params...)
	if err != nil {
		return nil, err
	}

	prog, err := ir.Compile(node, params...)
	if err != nil {
		return nil, err
	}

	return prog(args...)
}

// let evaluates its arguments now and stores the result. It yields no node.
func (g *Globals) let(args []ir.Node) (ir.Node, error) {
	if len(args) != 2 {
		return nil, diag.New(diag.KindFunctionArgumentCount, span.Span{},
			"let takes 2 arguments, got %d", len(args))
	}

	if args[0].Type() != ir.String || !ir.IsLocal(args[0]) {
		return nil, diag.New(diag.KindFunctionArgumentType, span.Span{},
			"let: name must be a constant string")
	}

	if !ir.IsLocal(args[1]) {
		return nil, diag.New(diag.KindFunctionArgumentType, span.Span{},
			"let: value must not reference parameters")
	}

	name, err := ir.EvalLocal(args[0])
	if err != nil {
		return nil, err
	}

	v, err := ir.EvalLocal(args[1])
	if err != nil {
		return nil, err
	}

	return nil, g.Store(name.(string), v)
}

// global reads $name when the program runs. The node takes the type of the
// value stored when it is parsed.
func (g *Globals) global(text string, _ []*ir.Param) (ir.Node, error) {
	name := text[1:]

	v, ok := g.Load(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUndefined, text)
	}

	t, _ := ir.TypeOf(v)

	return ir.NewCall(text, t, func([]any) (any, error) {
		v, ok := g.Load(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUndefined, text)
		}

		return v, nil
	}), nil
}

func identifier(text string, params []*ir.Param) (ir.Node, error) {
	for _, p := range params {
		if p.Name() == text {
			return p, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrUndefined, text)
}

func stringLit(text string, _ []*ir.Param) (ir.Node, error) {
	s, err := strconv.Unquote(text)
	if err != nil {
		return nil, err
	}

	return ir.Constant(s)
}

func integer(text string, _ []*ir.Param) (ir.Node, error) {
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, err
	}

	return ir.Constant(v)
}

func float(text string, _ []*ir.Param) (ir.Node, error) {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, err
	}

	return ir.Constant(v)
}

func not(x ir.Node) (ir.Node, error) {
	b, err := coerce.Bool(x)
	if err != nil {
		return nil, err
	}

	return ir.NewUnary(ir.OpNot, b)
}

func arith(op ir.BinaryOp) func(l, r ir.Node) (ir.Node, error) {
	return func(l, r ir.Node) (ir.Node, error) {
		l, r, ok := coerce.Numeric(l, r)
		if !ok {
			return nil, fmt.Errorf("%s: no common numeric type for %s and %s",
				op, l.Type(), r.Type())
		}

		return ir.NewBinary(op, l, r)
	}
}

func compare(op ir.BinaryOp) func(l, r ir.Node) (ir.Node, error) {
	return func(l, r ir.Node) (ir.Node, error) {
		l, r, err := coerce.Binary(l, r)
		if err != nil {
			return nil, err
		}

		return ir.NewBinary(op, l, r)
	}
}

func logical(op ir.BinaryOp) func(l, r ir.Node) (ir.Node, error) {
	return func(l, r ir.Node) (ir.Node, error) {
		l, err := coerce.Bool(l)
		if err != nil {
			return nil, err
		}

		r, err = coerce.Bool(r)
		if err != nil {
			return nil, err
		}

		return ir.NewBinary(op, l, r)
	}
}

func concat(l, r ir.Node) (ir.Node, error) {
	return ir.NewBinary(ir.OpConcat, stringify(l), stringify(r))
}

// stringify returns n unchanged if it is a string and otherwise a call
// formatting its value.
func stringify(n ir.Node) ir.Node {
	if n.Type().NonNullable() == ir.String {
		return n
	}

	return ir.NewCall("str", ir.String, func(v []any) (any, error) {
		return format(v[0]), nil
	}, n)
}

func format(v any) string {
	if v == nil {
		return "nil"
	}

	return fmt.Sprint(v)
}

func toString(args []ir.Node) (ir.Node, error) {
	if len(args) != 1 {
		return nil, diag.New(diag.KindFunctionArgumentCount, span.Span{},
			"str takes 1 argument, got %d", len(args))
	}

	return stringify(args[0]), nil
}

func length(args []ir.Node) (ir.Node, error) {
	return ir.NewCall("len", ir.Int64, func(v []any) (any, error) {
		s, _ := v[0].(string)

		return int64(len([]rune(s))), nil
	}, args...), nil
}

func transform(name string, fn func(string) string) grammar.CallBuilder {
	return func(args []ir.Node) (ir.Node, error) {
		return ir.NewCall(name, ir.String, func(v []any) (any, error) {
			return fn(v[0].(string)), nil
		}, args...), nil
	}
}

// stringFunc returns a builder for a function of at least least string
// arguments.
func stringFunc(name string, least int, fn func(s []string) string) grammar.CallBuilder {
	return func(args []ir.Node) (ir.Node, error) {
		if len(args) < least {
			return nil, diag.New(diag.KindFunctionArgumentCount, span.Span{},
				"%s takes at least %d argument(s), got %d", name, least, len(args))
		}

		for i, a := range args {
			if a.Type().NonNullable() != ir.String {
				return nil, diag.New(diag.KindFunctionArgumentType, span.Span{},
					"%s: argument %d is %s, want string", name, i+1, a.Type())
			}
		}

		return ir.NewCall(name, ir.String, func(v []any) (any, error) {
			s := make([]string, len(v))
			for i, x := range v {
				s[i], _ = x.(string)
			}

			return fn(s), nil
		}, args...), nil
	}
}

func pathcat(s []string) string { return filepath.Join(s...) }

// prefix prepends items to the path list s[0].
func prefix(s []string) string {
	return mung.Make(
		mung.WithSubjectItems(s[0]),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(s[1:]...),
	).String()
}

// prefixDir is prefix keeping only the entries naming directories.
func prefixDir(s []string) string {
	return mung.Make(
		mung.WithSubjectItems(s[0]),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(s[1:]...),
		mung.WithFilter(isDir),
	).String()
}

func isDir(path string) bool {
	fi, err := os.Stat(path)

	return err == nil && fi.IsDir()
}
