// Package filter defines an OData-style predicate language over typed
// records.
//
//	Qty gt 3 and (Shade eq 'dark' or startswith(Name, 'b'))
//
// Identifiers name fields of the record being tested; a path such as
// Owner/Name reads nested records. A parameter whose name matches the first
// segment of a path is used instead of the record. Literals are integers,
// decimals, 'single-quoted strings' (with '' for a quote), true, false and
// null.
//
// Operators, tightest first:
//
//	not                    logical negation
//	mul div mod            product, quotient, remainder
//	add sub                sum, difference
//	eq ne gt ge lt le      comparison
//	and                    conjunction
//	or                     disjunction
//
// Functions are contains, startswith, endswith, tolower, toupper and length.
// Strings compared with an enum field are parsed as member names.
package filter

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/ardnew/prex/coerce"
	"github.com/ardnew/prex/grammar"
	"github.com/ardnew/prex/ir"
	"github.com/ardnew/prex/lang"
)

var (
	// ErrUndefined is returned for a path naming no field or parameter.
	ErrUndefined = errors.New("undefined identifier")

	// ErrNotBool is returned for a filter that does not yield a boolean.
	ErrNotBool = errors.New("filter is not a predicate")
)

// ItName is the name of the parameter holding the record under test.
const ItName = "it"

const ident = `[A-Za-z_][A-Za-z0-9_]*`

// Definitions returns the grammar of the language in match order. opts
// control how strings are matched against enum members.
func Definitions(opts ...coerce.Option) []grammar.Definition {
	comma := grammar.NewListDelimiter("COMMA", `,`)
	paren := grammar.NewBracket("LPAREN", `\(`)

	nstr := ir.Nullable(ir.String)

	fns := []*grammar.BracketOpen{
		grammar.NewFunction("FN_CONTAINS", `contains\(`, predicate("contains", strings.Contains), nstr, nstr),
		grammar.NewFunction("FN_STARTSWITH", `startswith\(`, predicate("startswith", strings.HasPrefix), nstr, nstr),
		grammar.NewFunction("FN_ENDSWITH", `endswith\(`, predicate("endswith", strings.HasSuffix), nstr, nstr),
		grammar.NewFunction("FN_TOLOWER", `tolower\(`, transform("tolower", nstr, strings.ToLower), nstr),
		grammar.NewFunction("FN_TOUPPER", `toupper\(`, transform("toupper", nstr, strings.ToUpper), nstr),
		grammar.NewFunction("FN_LENGTH", `length\(`, length, nstr),
	}

	defs := []grammar.Definition{grammar.NewIgnore("WS", `\s+`)}
	for _, fn := range fns {
		defs = append(defs, fn)
	}

	return append(defs,
		grammar.NewOperand("STRING", `'(?:[^']|'')*'`, stringLit),
		grammar.NewOperand("NULL", `null\b`, func(string, []*ir.Param) (ir.Node, error) {
			return ir.NullOf(ir.Null), nil
		}),
		grammar.NewOperand("BOOL", `(?:true|false)\b`, func(text string, _ []*ir.Param) (ir.Node, error) {
			return ir.Constant(text == "true")
		}),
		grammar.NewOperand("DECIMAL", `[0-9]+\.[0-9]+`, decimal),
		grammar.NewOperand("INT", `[0-9]+`, integer),
		grammar.NewPrefix("NOT", `not\b`, 1, not),
		grammar.NewBinary("MUL", `mul\b`, 2, arith(ir.OpMul)),
		grammar.NewBinary("DIV", `div\b`, 2, arith(ir.OpDiv)),
		grammar.NewBinary("MOD", `mod\b`, 2, arith(ir.OpMod)),
		grammar.NewBinary("ADD", `add\b`, 3, arith(ir.OpAdd)),
		grammar.NewBinary("SUB", `sub\b`, 3, arith(ir.OpSub)),
		grammar.NewBinary("EQ", `eq\b`, 4, compare(ir.OpEq, opts)),
		grammar.NewBinary("NE", `ne\b`, 4, compare(ir.OpNe, opts)),
		grammar.NewBinary("GT", `gt\b`, 4, compare(ir.OpGt, opts)),
		grammar.NewBinary("GE", `ge\b`, 4, compare(ir.OpGe, opts)),
		grammar.NewBinary("LT", `lt\b`, 4, compare(ir.OpLt, opts)),
		grammar.NewBinary("LE", `le\b`, 4, compare(ir.OpLe, opts)),
		grammar.NewBinary("AND", `and\b`, 6, logical(ir.OpAnd)),
		grammar.NewBinary("OR", `or\b`, 7, logical(ir.OpOr)),
		grammar.NewOperand("PATH", ident+`(?:/`+ident+`)*`, path),
		paren,
		comma,
		grammar.NewBracketClose("RPAREN", `\)`, comma, append(fns, paren)...),
	)
}

// Language returns the filter language. opts control how strings are matched
// against enum members.
func Language(opts ...coerce.Option) *lang.Language {
	return lang.MustDefine(Definitions(opts...)...)
}

// Filter is a compiled predicate over records of one type.
// It is safe for concurrent use.
type Filter struct {
	text   string
	params []*ir.Param
	node   ir.Node
	match  ir.Program
}

// Parse parses text with l as a predicate over records of type schema. The
// record under test is the parameter named [ItName]; params are additional
// placeholders whose values are given to [Filter.Match].
func Parse(
	ctx context.Context,
	l *lang.Language,
	text string,
	schema ir.Type,
	params ...*ir.Param,
) (*Filter, error) {
	it := ir.NewParam(ItName, schema)
	all := append([]*ir.Param{it}, params...)

	node, err := l.Parse(ctx, text, all...)
	if err != nil {
		return nil, err
	}

	node, err = coerce.Bool(node)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotBool, err)
	}

	prog, err := ir.Compile(node, all...)
	if err != nil {
		return nil, err
	}

	return &Filter{text: text, params: all, node: node, match: prog}, nil
}

// String returns the filter text.
func (f *Filter) String() string { return f.text }

// Node returns the boolean tree of the filter.
func (f *Filter) Node() ir.Node { return f.node }

// Params returns the record parameter followed by the extra parameters.
func (f *Filter) Params() []*ir.Param { return slices.Clone(f.params) }

// Match reports whether rec satisfies the filter. rec is a map[string]any or
// any value accepted by [ir.Normalize] for the record type. args bind the
// extra parameters given to [Parse], in order.
func (f *Filter) Match(rec any, args ...any) (bool, error) {
	v, err := f.match(append([]any{rec}, args...)...)
	if err != nil {
		return false, err
	}

	b, _ := v.(bool)

	return b, nil
}

func stringLit(text string, _ []*ir.Param) (ir.Node, error) {
	return ir.Constant(strings.ReplaceAll(text[1:len(text)-1], "''", "'"))
}

func integer(text string, _ []*ir.Param) (ir.Node, error) {
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, err
	}

	return ir.Constant(v)
}

func decimal(text string, _ []*ir.Param) (ir.Node, error) {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, err
	}

	return ir.Constant(v)
}

// path resolves a slash-separated member path. The first segment names a
// parameter or else a field of the record under test.
func path(text string, params []*ir.Param) (ir.Node, error) {
	segs := strings.Split(text, "/")

	var n ir.Node

	for _, p := range params {
		if p.Name() == segs[0] {
			n, segs = p, segs[1:]

			break
		}
	}

	if n == nil {
		for _, p := range params {
			if p.Name() == ItName {
				n = p

				break
			}
		}
	}

	if n == nil {
		return nil, fmt.Errorf("%w: %s", ErrUndefined, text)
	}

	for _, s := range segs {
		m, err := ir.NewMember(n, s)
		if err != nil {
			if errors.Is(err, ir.ErrUnknownField) {
				return nil, fmt.Errorf("%w: %s: %w", ErrUndefined, text, err)
			}

			return nil, err
		}

		n = m
	}

	return n, nil
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

func compare(op ir.BinaryOp, opts []coerce.Option) func(l, r ir.Node) (ir.Node, error) {
	return func(l, r ir.Node) (ir.Node, error) {
		l, r, err := coerce.Binary(l, r, opts...)
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

// predicate returns a builder for a two-string test. A null argument fails
// the test.
func predicate(name string, fn func(s, sub string) bool) grammar.CallBuilder {
	return func(args []ir.Node) (ir.Node, error) {
		return ir.NewCall(name, ir.Bool, func(v []any) (any, error) {
			s, ok1 := v[0].(string)
			sub, ok2 := v[1].(string)

			return ok1 && ok2 && fn(s, sub), nil
		}, args...), nil
	}
}

// transform returns a builder for a string function preserving null.
func transform(name string, t ir.Type, fn func(string) string) grammar.CallBuilder {
	return func(args []ir.Node) (ir.Node, error) {
		return ir.NewCall(name, t, func(v []any) (any, error) {
			s, ok := v[0].(string)
			if !ok {
				return nil, nil
			}

			return fn(s), nil
		}, args...), nil
	}
}

func length(args []ir.Node) (ir.Node, error) {
	return ir.NewCall("length", ir.Nullable(ir.Int32), func(v []any) (any, error) {
		s, ok := v[0].(string)
		if !ok {
			return nil, nil
		}

		return int32(len([]rune(s))), nil
	}, args...), nil
}
