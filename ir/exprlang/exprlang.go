// Package exprlang compiles typed expression trees with the expr-lang
// virtual machine.
//
// A tree is rendered to expr-lang source, with parameters bound to
// environment variables and host functions registered through
// [expr.Function]. Results are normalized back to the tree's static type,
// so a [Program] and the native [ir.Compile] backend agree on the Go type
// of every value they return.
package exprlang

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/ardnew/prex/ir"
)

// ErrUnsupported is returned for trees that cannot be rendered.
var ErrUnsupported = errors.New("unsupported node")

// Program is a tree compiled for the expr-lang virtual machine.
type Program struct {
	program *vm.Program
	source  string
	params  []*ir.Param
	typ     ir.Type
}

// Compile renders n to expr-lang source and compiles it. Every parameter
// referenced by n must appear in params.
func Compile(n ir.Node, params ...*ir.Param) (*Program, error) {
	r := renderer{
		params: make(map[*ir.Param]string, len(params)),
		env:    make(map[string]any, len(params)),
	}

	for i, p := range params {
		name := "p" + strconv.Itoa(i)
		r.params[p] = name
		r.env[name] = sample(p.Type())
	}

	if err := r.render(n); err != nil {
		return nil, err
	}

	source := r.sb.String()
	opts := append([]expr.Option{expr.Env(r.env)}, r.funcs...)

	program, err := expr.Compile(source, opts...)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", source, err)
	}

	return &Program{program: program, source: source, params: params, typ: n.Type()}, nil
}

// Source returns the rendered expr-lang source.
func (p *Program) Source() string { return p.source }

// Run evaluates the program with args bound positionally to its parameters.
func (p *Program) Run(args ...any) (any, error) {
	if len(args) != len(p.params) {
		return nil, fmt.Errorf("%w: got %d, want %d",
			ir.ErrArgumentCount, len(args), len(p.params))
	}

	env := make(map[string]any, len(args))

	for i, a := range args {
		v, err := ir.Normalize(a, p.params[i].Type())
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", p.params[i].Name(), err)
		}

		env["p"+strconv.Itoa(i)] = lower(v)
	}

	out, err := vm.Run(p.program, env)
	if err != nil {
		return nil, err
	}

	return ir.Normalize(out, p.typ)
}

// sample returns a value whose Go type stands for t in the type-check
// environment. Nullable types sample as a nil pointer, which the checker
// dereferences to the base type while still admitting nil at run time.
// Enums sample as int64, the type [lower] passes to the machine.
func sample(t ir.Type) any {
	var v any

	switch k := t.Kind(); {
	case k == ir.KindNull:
		return nil
	case k == ir.KindBool:
		v = false
	case k == ir.KindString:
		v = ""
	case k == ir.KindEnum:
		v = int64(0)
	case k.IsNumeric():
		v, _ = ir.Normalize(0, ir.Primitive(k))
	case k == ir.KindRecord:
		fields := t.Record().Fields()
		m := make(map[string]any, len(fields))

		for _, f := range fields {
			m[f.Name] = sample(f.Type)
		}

		return m
	default:
		return nil
	}

	if t.IsNullable() {
		return reflect.Zero(reflect.PointerTo(reflect.TypeOf(v))).Interface()
	}

	return v
}

// lower replaces enum values with their integer value, recursively through
// record maps.
func lower(v any) any {
	switch v := v.(type) {
	case ir.EnumValue:
		return v.Value
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = lower(e)
		}

		return out
	}

	return v
}

type renderer struct {
	sb     strings.Builder
	params map[*ir.Param]string
	env    map[string]any
	funcs  []expr.Option
}

func (r *renderer) render(n ir.Node) error {
	switch n := n.(type) {
	case *ir.Const:
		r.sb.WriteString(literal(n.Value()))

	case *ir.Param:
		name, ok := r.params[n]
		if !ok {
			return fmt.Errorf("%w: %s", ir.ErrUnboundParam, n.Name())
		}

		r.sb.WriteString(name)

	case *ir.Member:
		if err := r.render(n.Target()); err != nil {
			return err
		}

		r.sb.WriteString("?." + n.Field().Name)

	case *ir.Unary:
		op := "-"
		if n.Op() == ir.OpNot {
			op = "not "
		}

		return r.wrap(op, "", n.Operand())

	case *ir.Binary:
		return r.binary(n)

	case *ir.Convert:
		return r.convert(n)

	case *ir.Call:
		return r.call(n)

	default:
		return fmt.Errorf("%w: %T", ErrUnsupported, n)
	}

	return nil
}

// wrap renders "(prefix operand suffix)".
func (r *renderer) wrap(prefix, suffix string, operand ir.Node) error {
	r.sb.WriteString("(" + prefix)

	if err := r.render(operand); err != nil {
		return err
	}

	r.sb.WriteString(suffix + ")")

	return nil
}

var binaryOp = map[ir.BinaryOp]string{
	ir.OpAdd: "+", ir.OpSub: "-", ir.OpMul: "*", ir.OpDiv: "/", ir.OpMod: "%",
	ir.OpPow: "**", ir.OpConcat: "+", ir.OpEq: "==", ir.OpNe: "!=",
	ir.OpLt: "<", ir.OpLe: "<=", ir.OpGt: ">", ir.OpGe: ">=",
	ir.OpAnd: "and", ir.OpOr: "or",
}

func (r *renderer) binary(n *ir.Binary) error {
	k := n.Left().Type().Kind()
	integer := k.IsInteger() && n.Op().IsArithmetic()

	if n.Op() == ir.OpMod && k.IsFloat() {
		return r.hostCall("fmod", func(args []any) (any, error) {
			return math.Mod(toFloat(args[0]), toFloat(args[1])), nil
		}, n.Left(), n.Right())
	}

	if integer && (n.Op() == ir.OpDiv || n.Op() == ir.OpPow) {
		r.sb.WriteString("int")
	}

	r.sb.WriteString("(")

	if err := r.render(n.Left()); err != nil {
		return err
	}

	r.sb.WriteString(" " + binaryOp[n.Op()] + " ")

	if err := r.render(n.Right()); err != nil {
		return err
	}

	r.sb.WriteString(")")

	return nil
}

func (r *renderer) convert(n *ir.Convert) error {
	to, from := n.Type().Kind(), n.Operand().Type().Kind()

	switch {
	case to == from, from == ir.KindNull:
		return r.render(n.Operand())
	case to.IsFloat():
		return r.wrap("float(", ")", n.Operand())
	case to.IsInteger(), to == ir.KindEnum:
		return r.wrap("int(", ")", n.Operand())
	}

	return fmt.Errorf("%w: conversion to %s", ErrUnsupported, n.Type())
}

func (r *renderer) call(n *ir.Call) error {
	fn := n.Func()
	args := n.Args()

	return r.hostCall(n.Name(), func(vals []any) (any, error) {
		for i, v := range vals {
			nv, err := ir.Normalize(v, args[i].Type())
			if err != nil {
				return nil, err
			}

			vals[i] = nv
		}

		out, err := fn(vals)

		return lower(out), err
	}, args...)
}

// hostCall registers fn under a unique name derived from hint and renders a
// call to it.
func (r *renderer) hostCall(hint string, fn ir.Func, args ...ir.Node) error {
	name := "fn" + strconv.Itoa(len(r.funcs)) + "_" + identifier(hint)

	r.funcs = append(r.funcs, expr.Function(name, func(params ...any) (any, error) {
		return fn(params)
	}))

	r.sb.WriteString(name + "(")

	for i, a := range args {
		if i > 0 {
			r.sb.WriteString(", ")
		}

		if err := r.render(a); err != nil {
			return err
		}
	}

	r.sb.WriteString(")")

	return nil
}

func identifier(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}

		return '_'
	}, s)
}

func literal(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case string:
		return strconv.Quote(v)
	case ir.EnumValue:
		return strconv.FormatInt(v.Value, 10)
	case float32:
		return floatLiteral(float64(v))
	case float64:
		return floatLiteral(v)
	}

	return fmt.Sprint(v)
}

func floatLiteral(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "(1.0 / 0.0)"
	case math.IsInf(f, -1):
		return "(-1.0 / 0.0)"
	case math.IsNaN(f):
		return "(0.0 / 0.0)"
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}

	if f < 0 {
		return "(" + s + ")"
	}

	return s
}

func toFloat(v any) float64 {
	switch v := v.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	}

	return math.NaN()
}
