// Package coerce implements the implicit conversions applied while building
// expression trees: numeric widening, nullable lifting, boolean predicates,
// and enum conversions from integers and constant strings.
//
// Every conversion either succeeds while the tree is built or returns an
// error; nothing is deferred to evaluation time.
package coerce

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ardnew/prex/diag"
	"github.com/ardnew/prex/ir"
)

// ErrNoConversion is returned when no implicit conversion exists between two
// types.
var ErrNoConversion = errors.New("no implicit conversion")

// implicit lists, for each numeric kind, the kinds it widens to without an
// explicit conversion. Each list starts with the kind itself; the order of
// the remaining entries decides [CommonType].
var implicit = map[ir.Kind][]ir.Kind{
	ir.KindInt8: {
		ir.KindInt8, ir.KindInt16, ir.KindInt32, ir.KindInt64,
		ir.KindFloat32, ir.KindFloat64,
	},
	ir.KindUint8: {
		ir.KindUint8, ir.KindInt16, ir.KindUint16, ir.KindInt32, ir.KindUint32,
		ir.KindInt64, ir.KindUint64, ir.KindFloat32, ir.KindFloat64,
	},
	ir.KindInt16: {
		ir.KindInt16, ir.KindInt32, ir.KindInt64, ir.KindFloat32, ir.KindFloat64,
	},
	ir.KindUint16: {
		ir.KindUint16, ir.KindInt32, ir.KindUint32, ir.KindInt64, ir.KindUint64,
		ir.KindFloat32, ir.KindFloat64,
	},
	ir.KindInt32: {
		ir.KindInt32, ir.KindInt64, ir.KindFloat32, ir.KindFloat64,
	},
	ir.KindUint32: {
		ir.KindUint32, ir.KindInt64, ir.KindUint64, ir.KindFloat32, ir.KindFloat64,
	},
	ir.KindInt64:   {ir.KindInt64, ir.KindFloat32, ir.KindFloat64},
	ir.KindUint64:  {ir.KindUint64, ir.KindFloat32, ir.KindFloat64},
	ir.KindFloat32: {ir.KindFloat32, ir.KindFloat64},
	ir.KindFloat64: {ir.KindFloat64},
}

// Widens reports whether kind from converts implicitly to kind to.
func Widens(from, to ir.Kind) bool {
	return slices.Contains(implicit[from], to)
}

// CommonType returns the type that values of types a and b both convert to
// implicitly.
//
// For numeric types the result is the first kind in a's widening list that
// also appears in b's, which is not necessarily the narrowest choice. The
// result is nullable if either side is. An untyped null adopts the nullable
// form of the other side rather than the type itself, so the common type
// always admits the null value: null against int32 gives int32?.
func CommonType(a, b ir.Type) (ir.Type, bool) {
	switch {
	case a == b:
		return a, true
	case a == ir.Null:
		return ir.Nullable(b), true
	case b == ir.Null:
		return ir.Nullable(a), true
	}

	nullable := a.IsNullable() || b.IsNullable()
	wrap := func(t ir.Type) ir.Type {
		if nullable {
			return ir.Nullable(t)
		}

		return t
	}

	if a.NonNullable() == b.NonNullable() {
		return wrap(a.NonNullable()), true
	}

	bk := implicit[b.Kind()]
	for _, k := range implicit[a.Kind()] {
		if slices.Contains(bk, k) {
			return wrap(ir.Primitive(k)), true
		}
	}

	return ir.Type{}, false
}

// To converts n to type t if an implicit conversion exists: numeric
// widening, lifting to the nullable form, null to any nullable type, and
// integer to enum.
func To(n ir.Node, t ir.Type) (ir.Node, error) {
	from := n.Type()

	switch {
	case from == t:
		return n, nil
	case ir.IsNull(n) && t.IsNullable():
		return ir.NullOf(t), nil
	case from.IsNullable() && !t.IsNullable():
		return nil, fmt.Errorf("%w: %s to %s", ErrNoConversion, from, t)
	}

	f, k := from.Kind(), t.Kind()

	ok := from.NonNullable() == t.NonNullable() ||
		Widens(f, k) ||
		(f.IsInteger() && k == ir.KindEnum)
	if !ok {
		return nil, fmt.Errorf("%w: %s to %s", ErrNoConversion, from, t)
	}

	return ir.NewConvert(n, t)
}

// Numeric converts l and r to their [CommonType]. It reports false, leaving
// both unchanged, if there is none.
func Numeric(l, r ir.Node) (ir.Node, ir.Node, bool) {
	t, ok := CommonType(l.Type(), r.Type())
	if !ok {
		return l, r, false
	}

	lc, err := To(l, t)
	if err != nil {
		return l, r, false
	}

	rc, err := To(r, t)
	if err != nil {
		return l, r, false
	}

	return lc, rc, true
}

// ErrNotBool is returned by [Bool] for operands that cannot be used as
// predicates.
var ErrNotBool = errors.New("not a boolean expression")

var trueConst = ir.MustConstant(true)

// Bool returns n as a non-nullable boolean predicate. Operands of any other
// type that convert to a common type with a boolean are compared against
// true.
func Bool(n ir.Node) (ir.Node, error) {
	if n.Type() == ir.Bool {
		return n, nil
	}

	l, r, ok := Numeric(n, trueConst)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotBool, n.Type())
	}

	return ir.NewBinary(ir.OpEq, l, r)
}

// EnumNumber converts an integer operand to the enum type of the other
// operand. It reports false if neither pairing applies.
func EnumNumber(l, r ir.Node) (ir.Node, ir.Node, bool) {
	switch lk, rk := l.Type().Kind(), r.Type().Kind(); {
	case lk == ir.KindEnum && rk.IsInteger():
		rc, err := ir.NewConvert(r, withNullable(l.Type(), r.Type().IsNullable()))
		if err != nil {
			return l, r, false
		}

		return unify(l, rc)

	case rk == ir.KindEnum && lk.IsInteger():
		lc, err := ir.NewConvert(l, withNullable(r.Type(), l.Type().IsNullable()))
		if err != nil {
			return l, r, false
		}

		return unify(lc, r)
	}

	return l, r, false
}

// EnumError describes a string that does not name a member of an enum.
// It matches [diag.ErrEnumParse] with [errors.Is].
type EnumError struct {
	Text   string // offending text
	Enum   string // enum type name
	Reason string
}

func (e *EnumError) Error() string {
	msg := fmt.Sprintf("cannot convert %q to %s", e.Text, e.Enum)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}

	return msg
}

// Is reports whether target is [diag.ErrEnumParse].
func (e *EnumError) Is(target error) bool {
	return target == error(diag.ErrEnumParse)
}

// EnumString converts a string operand to the enum type of the other operand
// by parsing it against the enum's member names. The string must be local
// (see [ir.IsLocal]); otherwise an [*EnumError] is returned. A null operand
// becomes a null of the enum's nullable type. It reports false if neither
// pairing applies.
func EnumString(l, r ir.Node, opts ...Option) (ir.Node, ir.Node, bool, error) {
	cfg := makeConfig(opts...)

	lt, rt := l.Type(), r.Type()

	switch {
	case lt.Kind() == ir.KindEnum && isText(r):
		rc, err := parseEnum(r, lt, cfg)
		if err != nil {
			return l, r, false, err
		}

		l, r, ok := unify(l, rc)

		return l, r, ok, nil

	case rt.Kind() == ir.KindEnum && isText(l):
		lc, err := parseEnum(l, rt, cfg)
		if err != nil {
			return l, r, false, err
		}

		l, r, ok := unify(lc, r)

		return l, r, ok, nil
	}

	return l, r, false, nil
}

func isText(n ir.Node) bool {
	return n.Type().Kind() == ir.KindString || n.Type() == ir.Null
}

func parseEnum(n ir.Node, t ir.Type, cfg config) (ir.Node, error) {
	e := t.Enum()

	if ir.IsNull(n) {
		return ir.NullOf(t), nil
	}

	if !ir.IsLocal(n) {
		return nil, &EnumError{
			Text:   ir.Format(n),
			Enum:   e.Name(),
			Reason: "value is not constant",
		}
	}

	v, err := ir.EvalLocal(n)
	if err != nil {
		return nil, &EnumError{Text: ir.Format(n), Enum: e.Name(), Reason: err.Error()}
	}

	if v == nil {
		return ir.NullOf(t), nil
	}

	s := v.(string)

	value, ok := e.Parse(s, cfg.fold)
	if !ok {
		return nil, &EnumError{Text: s, Enum: e.Name()}
	}

	return ir.TypedConstant(ir.EnumValue{Enum: e, Value: value}, t.NonNullable())
}

// Binary applies the implicit conversions of a binary operator to its
// operands: enum conversions first, then numeric widening and nullable
// lifting. Operands without a common type are returned unchanged so the
// operator's builder can report the mismatch.
func Binary(l, r ir.Node, opts ...Option) (ir.Node, ir.Node, error) {
	l, r, ok, err := EnumString(l, r, opts...)
	if err != nil || ok {
		return l, r, err
	}

	if l, r, ok := EnumNumber(l, r); ok {
		return l, r, nil
	}

	l, r, _ = Numeric(l, r)

	return l, r, nil
}

func withNullable(t ir.Type, nullable bool) ir.Type {
	if nullable {
		return ir.Nullable(t)
	}

	return t
}

// unify lifts whichever operand is non-nullable when the other is nullable.
func unify(l, r ir.Node) (ir.Node, ir.Node, bool) {
	if l.Type() == r.Type() {
		return l, r, true
	}

	return Numeric(l, r)
}
