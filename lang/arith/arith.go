// Package arith defines a small arithmetic language over integer and float
// numbers.
//
// Operators, tightest first:
//
//	^            power
//	* / %        product, quotient, remainder
//	+ -          sum, difference
//
// Operators of equal precedence associate to the left. Functions are
// min(x, ...), max(x, ...), abs(x), neg(x) and pow(x, y), the last taking
// float64 arguments. Identifiers refer to parameters by name. Mixed operand
// types are converted to their common type.
package arith

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/ardnew/prex/coerce"
	"github.com/ardnew/prex/diag"
	"github.com/ardnew/prex/grammar"
	"github.com/ardnew/prex/ir"
	"github.com/ardnew/prex/lang"
	"github.com/ardnew/prex/span"
)

// ErrUndefined is returned for an identifier naming no parameter.
var ErrUndefined = errors.New("undefined identifier")

// Definitions returns the grammar of the language in match order.
func Definitions() []grammar.Definition {
	comma := grammar.NewListDelimiter("COMMA", `,`)
	paren := grammar.NewBracket("LPAREN", `\(`)

	fns := []*grammar.BracketOpen{
		grammar.NewVariadic("FN_MIN", `min\(`, extreme("min", -1)),
		grammar.NewVariadic("FN_MAX", `max\(`, extreme("max", 1)),
		grammar.NewVariadic("FN_ABS", `abs\(`, unary("abs", abs)),
		grammar.NewVariadic("FN_NEG", `neg\(`, unary("neg", neg)),
		grammar.NewFunction("FN_POW", `pow\(`, func(args []ir.Node) (ir.Node, error) {
			return ir.NewBinary(ir.OpPow, args[0], args[1])
		}, ir.Float64, ir.Float64),
	}

	defs := []grammar.Definition{grammar.NewIgnore("WS", `\s+`)}
	for _, fn := range fns {
		defs = append(defs, fn)
	}

	return append(defs,
		grammar.NewOperand("FLOAT", `[0-9]+\.[0-9]+(?:[eE][-+]?[0-9]+)?|[0-9]+[eE][-+]?[0-9]+`, float),
		grammar.NewOperand("INT", `[0-9]+`, integer),
		grammar.NewOperand("IDENT", `[A-Za-z_][A-Za-z0-9_]*`, identifier),
		grammar.NewBinary("ADD", `\+`, 3, binary(ir.OpAdd)),
		grammar.NewBinary("SUB", `-`, 3, binary(ir.OpSub)),
		grammar.NewBinary("MUL", `\*`, 2, binary(ir.OpMul)),
		grammar.NewBinary("DIV", `/`, 2, binary(ir.OpDiv)),
		grammar.NewBinary("MOD", `%`, 2, binary(ir.OpMod)),
		grammar.NewBinary("POW", `\^`, 1, binary(ir.OpPow)),
		paren,
		comma,
		grammar.NewBracketClose("RPAREN", `\)`, comma, append(fns, paren)...),
	)
}

// Language returns the arithmetic language configured with opts.
func Language(opts ...lang.Option) *lang.Language {
	return lang.MustDefine(Definitions()...).With(opts...)
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

func identifier(text string, params []*ir.Param) (ir.Node, error) {
	for _, p := range params {
		if p.Name() == text {
			return p, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrUndefined, text)
}

func binary(op ir.BinaryOp) func(l, r ir.Node) (ir.Node, error) {
	return func(l, r ir.Node) (ir.Node, error) {
		l, r, ok := coerce.Numeric(l, r)
		if !ok {
			return nil, fmt.Errorf("%s: no common numeric type for %s and %s",
				op, l.Type(), r.Type())
		}

		return ir.NewBinary(op, l, r)
	}
}

func unary(name string, fn func(ir.Node) (ir.Node, error)) grammar.CallBuilder {
	return func(args []ir.Node) (ir.Node, error) {
		if len(args) != 1 {
			return nil, diag.New(diag.KindFunctionArgumentCount, span.Span{},
				"%s takes 1 argument, got %d", name, len(args))
		}

		if !args[0].Type().Kind().IsNumeric() {
			return nil, fmt.Errorf("%s of %s", name, args[0].Type())
		}

		return fn(args[0])
	}
}

func neg(x ir.Node) (ir.Node, error) {
	if x.Type().Kind().IsUnsigned() {
		var err error
		if x, err = coerce.To(x, ir.Int64); err != nil {
			return nil, err
		}
	}

	return ir.NewUnary(ir.OpNeg, x)
}

func abs(x ir.Node) (ir.Node, error) {
	t := x.Type()
	if t.Kind().IsUnsigned() {
		return x, nil
	}

	return ir.NewCall("abs", t, func(v []any) (any, error) {
		switch n := v[0].(type) {
		case float64:
			return math.Abs(n), nil
		case float32:
			return float32(math.Abs(float64(n))), nil
		case int64:
			return max(n, -n), nil
		case int32:
			return max(n, -n), nil
		case int16:
			return max(n, -n), nil
		case int8:
			return max(n, -n), nil
		case nil:
			return nil, nil
		}

		return nil, fmt.Errorf("abs of %T", v[0])
	}, x), nil
}

// extreme returns a builder for a single call over all arguments, converted
// to their common numeric type, that yields the argument ordered toward want
// (-1 for the least, 1 for the greatest). Ties keep the earliest argument and
// any null argument makes the result null.
func extreme(name string, want int) grammar.CallBuilder {
	return func(args []ir.Node) (ir.Node, error) {
		if len(args) == 0 {
			return nil, diag.New(diag.KindFunctionArgumentCount, span.Span{},
				"%s takes at least 1 argument", name)
		}

		t := args[0].Type()

		for _, a := range args[1:] {
			c, ok := coerce.CommonType(t, a.Type())
			if !ok {
				return nil, fmt.Errorf("%s: no common numeric type for %s and %s",
					name, t, a.Type())
			}

			t = c
		}

		if !t.Kind().IsNumeric() {
			return nil, fmt.Errorf("%s: %s is not numeric", name, t)
		}

		conv := make([]ir.Node, len(args))

		for i, a := range args {
			c, err := coerce.To(a, t)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}

			conv[i] = c
		}

		return ir.NewCall(name, t, func(v []any) (any, error) {
			out := v[0]

			for _, x := range v {
				if x == nil {
					return nil, nil
				}

				c, err := order(x, out)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", name, err)
				}

				if c == want {
					out = x
				}
			}

			return out, nil
		}, conv...), nil
	}
}

// order compares two numbers of the same Go type.
func order(a, b any) (int, error) {
	switch a := a.(type) {
	case int8:
		return orderOf(a, b)
	case int16:
		return orderOf(a, b)
	case int32:
		return orderOf(a, b)
	case int64:
		return orderOf(a, b)
	case uint8:
		return orderOf(a, b)
	case uint16:
		return orderOf(a, b)
	case uint32:
		return orderOf(a, b)
	case uint64:
		return orderOf(a, b)
	case float32:
		return orderOf(a, b)
	case float64:
		return orderOf(a, b)
	}

	return 0, fmt.Errorf("cannot order %T", a)
}

func orderOf[T cmp.Ordered](a T, b any) (int, error) {
	v, ok := b.(T)
	if !ok {
		return 0, fmt.Errorf("cannot order %T and %T", a, b)
	}

	return cmp.Compare(a, v), nil
}
