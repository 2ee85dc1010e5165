package ir

import (
	"errors"
	"fmt"
	"math"
)

// Errors returned by node constructors. Constructors run inside grammar
// builder callbacks, so these usually surface wrapped as invalid operations.
var (
	ErrTypeMismatch  = errors.New("type mismatch")
	ErrInvalidValue  = errors.New("invalid constant value")
	ErrUnknownField  = errors.New("unknown field")
	ErrNotRecord     = errors.New("member access on non-record")
	ErrInvalidOp     = errors.New("invalid operator")
	ErrInvalidCast   = errors.New("invalid conversion")
	ErrUnboundParam  = errors.New("unbound parameter")
	ErrDivideByZero  = errors.New("integer divide by zero")
	ErrNullOperand   = errors.New("null operand")
	ErrArgumentCount = errors.New("wrong number of arguments")
)

// Node is an immutable, statically typed expression tree node.
type Node interface {
	// Type returns the static type of the value the node produces.
	Type() Type

	// Children returns the direct operands of the node in evaluation order.
	Children() []Node

	node()
}

// Const is a constant value.
type Const struct {
	value any
	typ   Type
}

// Constant returns a constant holding v, typed by [TypeOf]. Go int and uint
// values are widened to their 64-bit kinds.
func Constant(v any) (*Const, error) {
	t, ok := TypeOf(v)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrInvalidValue, v)
	}

	return TypedConstant(v, t)
}

// TypedConstant returns a constant of type t holding v, converted to the
// runtime representation of t.
func TypedConstant(v any, t Type) (*Const, error) {
	nv, err := Normalize(v, t)
	if err != nil {
		return nil, err
	}

	return &Const{value: nv, typ: t}, nil
}

// MustConstant is like [Constant] but panics on error.
func MustConstant(v any) *Const {
	c, err := Constant(v)
	if err != nil {
		panic(err)
	}

	return c
}

// NullOf returns a null constant of the nullable form of t.
func NullOf(t Type) *Const {
	return &Const{typ: Nullable(t)}
}

// Value returns the constant's runtime value.
func (c *Const) Value() any { return c.value }

func (c *Const) Type() Type       { return c.typ }
func (c *Const) Children() []Node { return nil }
func (*Const) node()              {}

// IsNull reports whether n is a constant null.
func IsNull(n Node) bool {
	c, ok := n.(*Const)

	return ok && c.value == nil
}

// Param is a typed placeholder bound to an argument when the compiled tree is
// invoked. Params are compared by identity.
type Param struct {
	name string
	typ  Type
}

// NewParam returns a parameter named name of type t.
func NewParam(name string, t Type) *Param {
	return &Param{name: name, typ: t}
}

// Name returns the parameter name.
func (p *Param) Name() string { return p.name }

func (p *Param) Type() Type       { return p.typ }
func (p *Param) Children() []Node { return nil }
func (*Param) node()              {}

// Member reads a field of a record-typed operand.
type Member struct {
	target Node
	field  Field
}

// NewMember returns a node reading field name of target.
func NewMember(target Node, name string) (*Member, error) {
	rec := target.Type().Record()
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotRecord, target.Type())
	}

	f, ok := rec.Field(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, rec.Name(), name)
	}

	return &Member{target: target, field: f}, nil
}

// Target returns the record operand.
func (m *Member) Target() Node { return m.target }

// Field returns the accessed field.
func (m *Member) Field() Field { return m.field }

func (m *Member) Type() Type       { return m.field.Type }
func (m *Member) Children() []Node { return []Node{m.target} }
func (*Member) node()              {}

// UnaryOp is a unary operator.
type UnaryOp uint8

const (
	OpNeg UnaryOp = iota + 1
	OpNot
)

func (op UnaryOp) String() string {
	switch op {
	case OpNeg:
		return "neg"
	case OpNot:
		return "not"
	}

	return fmt.Sprintf("UnaryOp(%d)", op)
}

// Unary applies a unary operator.
type Unary struct {
	op      UnaryOp
	operand Node
}

// NewUnary returns op applied to operand. Negation requires a signed or
// floating-point operand; logical not requires a boolean.
func NewUnary(op UnaryOp, operand Node) (*Unary, error) {
	t := operand.Type()

	switch op {
	case OpNeg:
		if !t.Kind().IsNumeric() || t.Kind().IsUnsigned() {
			return nil, fmt.Errorf("%w: %s %s", ErrTypeMismatch, op, t)
		}
	case OpNot:
		if t != Bool {
			return nil, fmt.Errorf("%w: %s %s", ErrTypeMismatch, op, t)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidOp, op)
	}

	return &Unary{op: op, operand: operand}, nil
}

// Op returns the operator.
func (u *Unary) Op() UnaryOp { return u.op }

// Operand returns the operand.
func (u *Unary) Operand() Node { return u.operand }

func (u *Unary) Type() Type       { return u.operand.Type() }
func (u *Unary) Children() []Node { return []Node{u.operand} }
func (*Unary) node()              {}

// BinaryOp is a binary operator.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota + 1
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpConcat
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
)

var binaryName = map[BinaryOp]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%", OpPow: "^",
	OpConcat: "..", OpEq: "==", OpNe: "!=", OpLt: "<", OpLe: "<=",
	OpGt: ">", OpGe: ">=", OpAnd: "&&", OpOr: "||",
}

func (op BinaryOp) String() string {
	if s, ok := binaryName[op]; ok {
		return s
	}

	return fmt.Sprintf("BinaryOp(%d)", op)
}

// IsArithmetic reports whether op is a numeric operator.
func (op BinaryOp) IsArithmetic() bool { return op >= OpAdd && op <= OpPow }

// IsComparison reports whether op compares its operands.
func (op BinaryOp) IsComparison() bool { return op >= OpEq && op <= OpGe }

// IsLogical reports whether op is a boolean connective.
func (op BinaryOp) IsLogical() bool { return op == OpAnd || op == OpOr }

// Binary applies a binary operator.
type Binary struct {
	op          BinaryOp
	left, right Node
	typ         Type
}

// NewBinary returns op applied to left and right. Operands must already have
// identical types (see package coerce), except that equality accepts an
// untyped null on either side.
func NewBinary(op BinaryOp, left, right Node) (*Binary, error) {
	lt, rt := left.Type(), right.Type()

	mismatch := func() error {
		return fmt.Errorf("%w: %s %s %s", ErrTypeMismatch, lt, op, rt)
	}

	var typ Type

	switch {
	case op.IsArithmetic():
		if lt != rt || !lt.Kind().IsNumeric() {
			return nil, mismatch()
		}

		typ = lt

	case op == OpConcat:
		if lt.NonNullable() != String || rt.NonNullable() != String {
			return nil, mismatch()
		}

		typ = String

	case op == OpEq || op == OpNe:
		if lt != rt && lt != Null && rt != Null {
			return nil, mismatch()
		}

		if lt.Kind() == KindRecord {
			return nil, mismatch()
		}

		typ = Bool

	case op.IsComparison():
		k := lt.Kind()
		if lt != rt || !(k.IsNumeric() || k == KindString || k == KindEnum) {
			return nil, mismatch()
		}

		typ = Bool

	case op.IsLogical():
		if lt != Bool || rt != Bool {
			return nil, mismatch()
		}

		typ = Bool

	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidOp, op)
	}

	return &Binary{op: op, left: left, right: right, typ: typ}, nil
}

// Op returns the operator.
func (b *Binary) Op() BinaryOp { return b.op }

// Left returns the left operand.
func (b *Binary) Left() Node { return b.left }

// Right returns the right operand.
func (b *Binary) Right() Node { return b.right }

func (b *Binary) Type() Type       { return b.typ }
func (b *Binary) Children() []Node { return []Node{b.left, b.right} }
func (*Binary) node()              {}

// Convert changes the static type of its operand.
type Convert struct {
	operand Node
	typ     Type
}

// NewConvert returns operand converted to t. Supported conversions are
// between numeric kinds, between enums and integer kinds, from a type to its
// nullable form, and from null to any nullable type.
func NewConvert(operand Node, t Type) (*Convert, error) {
	from := operand.Type()

	if !CanConvert(from, t) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidCast, from, t)
	}

	return &Convert{operand: operand, typ: t}, nil
}

// CanConvert reports whether [NewConvert] accepts a conversion from one type
// to another.
func CanConvert(from, to Type) bool {
	switch {
	case !to.IsValid() || to.Kind() == KindNull:
		return false
	case from == to:
		return true
	case from.Kind() == KindNull:
		return to.IsNullable()
	case from.IsNullable() && !to.IsNullable():
		return false
	}

	f, t := from.Kind(), to.Kind()

	switch {
	case f == t && f != KindEnum && f != KindRecord:
		return true
	case f == KindEnum && t == KindEnum:
		return from.Enum() == to.Enum()
	case f.IsNumeric() && t.IsNumeric():
		return true
	case f == KindEnum && t.IsInteger(), f.IsInteger() && t == KindEnum:
		return true
	}

	return false
}

// Operand returns the converted operand.
func (c *Convert) Operand() Node { return c.operand }

func (c *Convert) Type() Type       { return c.typ }
func (c *Convert) Children() []Node { return []Node{c.operand} }
func (*Convert) node()              {}

// Func implements a host function invoked by a [Call] node.
// Arguments arrive in their declared runtime representation.
type Func func(args []any) (any, error)

// Call invokes a host function.
type Call struct {
	name string
	fn   Func
	args []Node
	typ  Type
}

// NewCall returns a call of fn named name with result type result.
func NewCall(name string, result Type, fn Func, args ...Node) *Call {
	return &Call{name: name, fn: fn, args: args, typ: result}
}

// Name returns the function name.
func (c *Call) Name() string { return c.name }

// Args returns the argument nodes.
func (c *Call) Args() []Node { return c.args }

// Func returns the host function.
func (c *Call) Func() Func { return c.fn }

func (c *Call) Type() Type       { return c.typ }
func (c *Call) Children() []Node { return c.args }
func (*Call) node()              {}

// Walk calls fn for n and each of its descendants in depth-first pre-order.
// Descent stops early when fn returns false.
func Walk(n Node, fn func(Node) bool) bool {
	if !fn(n) {
		return false
	}

	for _, c := range n.Children() {
		if !Walk(c, fn) {
			return false
		}
	}

	return true
}

// Params returns the distinct parameters referenced by n in first-use order.
func Params(n Node) []*Param {
	var (
		out  []*Param
		seen = map[*Param]bool{}
	)

	Walk(n, func(n Node) bool {
		if p, ok := n.(*Param); ok && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}

		return true
	})

	return out
}

// floatString formats a float constant so that it always reads back as a
// floating-point literal.
func floatString(f float64, bits int) string {
	switch {
	case math.IsInf(f, 1):
		return "+Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	case math.IsNaN(f):
		return "NaN"
	}

	s := fmt.Sprint(f)
	if bits == 32 {
		s = fmt.Sprint(float32(f))
	}

	for _, r := range s {
		if r == '.' || r == 'e' || r == 'E' {
			return s
		}
	}

	return s + ".0"
}
